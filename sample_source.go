// sample_source.go - Per-voice PCM/waveform resampler
// Maintains a fractional read cursor advanced by byteRate/outputRate per
// output frame, with linear interpolation and None/Forward/PingPong loop
// handling. Periods convert to byte rates here and nowhere else.

package replay

// Interpolation selects the resampling quality. Linear is the default;
// Nearest is a lower-fidelity fallback for 8-bit-heavy material. The
// mode is fixed per session for click-free output.
type Interpolation int

const (
	InterpLinear Interpolation = iota
	InterpNearest
)

// sampleSource resolves one voice's current PCM reference into output
// sample values
type sampleSource struct {
	pcm8  []int8
	pcm16 []int16

	length    int
	loopMode  LoopMode
	loopStart int
	loopEnd   int

	rateScale float64 // sample instruments: C4Rate/c4ByteRate, synth: 1
	outRate   float64
	interp    Interpolation

	cursor float64
	dir    float64
	step   float64
	ended  bool
	silent bool
}

func newSampleSource(outRate float64, interp Interpolation) *sampleSource {
	return &sampleSource{outRate: outRate, interp: interp, dir: 1, silent: true}
}

// setSample binds a sample instrument's PCM. Malformed buffers put the
// source into silent mode and report ErrEmptyOrCorruptSample; the voice
// keeps running silently.
func (s *sampleSource) setSample(d *SampleData) error {
	s.silent = true
	s.ended = false
	s.cursor = 0
	s.dir = 1

	length := d.Length()
	if length == 0 || (d.PCM8 != nil && d.PCM16 != nil) {
		return ErrEmptyOrCorruptSample
	}
	if d.LoopMode != LoopNone {
		if d.LoopStart < 0 || d.LoopLen < 2 || d.LoopStart+d.LoopLen > length {
			return ErrEmptyOrCorruptSample
		}
	}

	s.pcm8 = d.PCM8
	s.pcm16 = d.PCM16
	s.length = length
	s.loopMode = d.LoopMode
	if d.LoopMode == LoopNone {
		s.loopStart = 0
		s.loopEnd = length
	} else {
		s.loopStart = d.LoopStart
		s.loopEnd = d.LoopStart + d.LoopLen
	}
	s.rateScale = 1
	if d.C4Rate > 0 {
		s.rateScale = d.C4Rate / c4ByteRate
	}
	s.silent = false
	return nil
}

// setWaveform binds a synth oscillator cycle, looping over its full
// length. With keepPhase the fractional phase carries over so waveform
// cycling does not click or retrigger.
func (s *sampleSource) setWaveform(w []int8, keepPhase bool) error {
	phase := 0.0
	if keepPhase && s.length > 0 && !s.silent {
		phase = s.cursor / float64(s.length)
	}
	s.silent = true
	if len(w) == 0 {
		return ErrEmptyOrCorruptSample
	}
	s.pcm8 = w
	s.pcm16 = nil
	s.length = len(w)
	s.loopMode = LoopForward
	s.loopStart = 0
	s.loopEnd = len(w)
	s.rateScale = 1
	s.cursor = phase * float64(len(w))
	s.dir = 1
	s.ended = false
	s.silent = false
	return nil
}

// setPeriod converts the voice's resolved period into a cursor step.
// This is the single period-to-frequency conversion point.
func (s *sampleSource) setPeriod(period int) {
	s.step = period2Freq(period) * s.rateScale / s.outRate
}

// setCursor positions the read cursor (sample-offset effect)
func (s *sampleSource) setCursor(pos int) {
	if s.silent {
		return
	}
	if pos >= s.length {
		if s.loopMode == LoopNone {
			s.ended = true
			return
		}
		pos = s.loopStart
	}
	s.cursor = float64(pos)
	s.dir = 1
	s.ended = false
}

// frameAt reads one PCM frame normalized to [-1, 1)
func (s *sampleSource) frameAt(i int) float32 {
	if i < 0 {
		i = 0
	}
	if i >= s.length {
		i = s.length - 1
	}
	if s.pcm16 != nil {
		return float32(s.pcm16[i]) / 32768
	}
	return float32(s.pcm8[i]) / 128
}

// next produces one output sample and advances the cursor
func (s *sampleSource) next() float32 {
	if s.silent || s.ended || s.length == 0 {
		return 0
	}

	i := int(s.cursor)
	var out float32
	if s.interp == InterpNearest {
		out = s.frameAt(i)
	} else {
		frac := float32(s.cursor - float64(i))
		a := s.frameAt(i)
		b := s.frameAt(s.neighbor(i))
		out = a + (b-a)*frac
	}

	s.cursor += s.step * s.dir
	s.wrap()
	return out
}

// neighbor returns the index of the frame following i in the current
// playback direction, honoring the loop mode
func (s *sampleSource) neighbor(i int) int {
	if s.dir < 0 {
		if i-1 < s.loopStart {
			return i
		}
		return i - 1
	}
	n := i + 1
	if n >= s.loopEnd {
		switch s.loopMode {
		case LoopForward:
			return s.loopStart
		case LoopPingPong:
			return i
		default:
			return i
		}
	}
	return n
}

// wrap applies loop-mode boundary handling after a cursor advance
func (s *sampleSource) wrap() {
	switch s.loopMode {
	case LoopNone:
		if s.cursor >= float64(s.length) {
			s.ended = true
		}
	case LoopForward:
		loopLen := float64(s.loopEnd - s.loopStart)
		for s.cursor >= float64(s.loopEnd) {
			s.cursor -= loopLen
		}
	case LoopPingPong:
		lo := float64(s.loopStart)
		hi := float64(s.loopEnd)
		for {
			if s.dir > 0 && s.cursor >= hi {
				s.cursor = hi - (s.cursor - hi) - 1
				s.dir = -1
				if s.cursor < lo {
					continue
				}
			} else if s.dir < 0 && s.cursor < lo {
				s.cursor = lo + (lo - s.cursor)
				s.dir = 1
				if s.cursor >= hi {
					continue
				}
			}
			break
		}
		if s.cursor < 0 {
			s.cursor = 0
		}
	}
}

// playing reports whether the source still produces audio
func (s *sampleSource) playing() bool {
	return !s.silent && !s.ended
}

// silence puts the source into silent mode until the next bind
func (s *sampleSource) silence() {
	s.silent = true
}
