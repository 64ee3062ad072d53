// voice.go - One channel's live playback state
// Follows the AHX replayer's declarative model: the output period is
// recomputed every tick from the note plus accumulated slide and
// temporary modulation offsets, and the output volume is a multiplied
// chain of envelope, note volume and channel volume.

package replay

type voice struct {
	channel int
	src     *sampleSource
	env     envelopeRunner

	inst   *Instrument
	instNr int

	// Pitch
	note        int
	transpose   int
	slidePeriod int // accumulated portamento/fine-slide offset, period units
	slideSpeed  int // per-tick period delta from porta up/down effects
	porta       portaRunner
	portaSpeed  int // remembered tone portamento rate
	vibrato     oscRunner
	arpTable    tableRunner
	effArp      [3]int
	effArpOn    bool

	// Volume
	noteVolume   int // 0-64, volume column / effect driven
	chanVolume   int // 0-64 channel master
	volSlideUp   int
	volSlideDown int
	tremolo      oscRunner

	// Waveform cycling (synth instruments)
	waveCycle tableRunner
	waveIndex int

	pan   int // 0-128, 64 = center
	keyOn bool

	// Resolved once per tick, read by the mixer
	outPeriod int
	outVolume int // 0-64
}

func newVoice(channel int, outRate float64, interp Interpolation) *voice {
	return &voice{
		channel:    channel,
		src:        newSampleSource(outRate, interp),
		chanVolume: 0x40,
		pan:        0x40,
		waveIndex:  -1,
	}
}

// setInstrument binds an instrument without retriggering (instrument
// column with no note): default volume and pan apply, playback position
// and envelope keep running.
func (v *voice) setInstrument(inst *Instrument, nr int) {
	v.inst = inst
	v.instNr = nr
	v.noteVolume = inst.Volume
	v.pan = inst.Pan
}

// trigger starts a new note, resetting envelope and modulation state
func (v *voice) trigger(note int, inst *Instrument, nr int) error {
	v.inst = inst
	v.instNr = nr
	v.note = note
	v.slidePeriod = 0
	v.slideSpeed = 0
	v.porta = portaRunner{}
	v.keyOn = true
	v.noteVolume = inst.Volume
	v.pan = inst.Pan
	v.vibrato.reset()
	v.tremolo.reset()
	v.arpTable = tableRunner{}
	v.waveCycle = tableRunner{}
	v.effArpOn = false
	v.waveIndex = -1

	switch {
	case inst.Sample != nil:
		v.env.triggerFlat()
		return v.src.setSample(inst.Sample)

	case inst.Synth != nil:
		syn := inst.Synth
		v.env.trigger(syn)
		if syn.Vibrato != nil {
			v.vibrato.initVibrato(syn.Vibrato)
		}
		if syn.Tremolo != nil {
			v.tremolo.initTremolo(syn.Tremolo)
		}
		v.arpTable.init(syn.Arpeggio)
		v.waveCycle.init(syn.WaveCycle)
		return v.selectWaveform(v.waveCycle.value(), false)

	default:
		v.src.silence()
		return ErrEmptyOrCorruptSample
	}
}

// retrigger restarts the sample cursor without touching the envelope
// (note retrig effect)
func (v *voice) retrigger() {
	v.src.setCursor(0)
}

// selectWaveform rebinds the synth oscillator cycle. Out-of-range
// indices leave the current cycle playing and report the error.
func (v *voice) selectWaveform(index int, keepPhase bool) error {
	syn := v.inst.Synth
	if index < 0 || index >= len(syn.Waveforms) {
		return ErrMalformedReference
	}
	if index == v.waveIndex {
		return nil
	}
	v.waveIndex = index
	return v.src.setWaveform(syn.Waveforms[index], keepPhase)
}

// startTonePorta begins a glide from the current pitch toward the
// given note at the given period-per-tick rate
func (v *voice) startTonePorta(note, speed int) {
	target := notePeriod(note + v.transpose)
	v.porta.start(target, speed)
}

// noteOff releases the envelope; sample instruments cut
func (v *voice) noteOff() {
	v.keyOn = false
	v.env.releaseNote()
}

// cut silences the voice immediately (note cut effect)
func (v *voice) cut() {
	v.noteVolume = 0
}

// active reports whether the voice can contribute audio
func (v *voice) active() bool {
	return v.inst != nil && v.env.active() && v.src.playing()
}

// tick advances envelope and all modulators by one sequencer tick and
// resolves the output period and volume. tickInRow suppresses the
// per-tick slides on a row's first tick, the tracker convention.
// Returns a malformed-reference error when waveform cycling points
// outside the instrument's waveform list.
func (v *voice) tick(tickInRow int) error {
	if v.inst == nil {
		return nil
	}
	firstTick := tickInRow == 0

	envLevel, _ := v.env.tick()

	// Volume slide runs on every tick but the row's first
	if !firstTick {
		v.noteVolume = clampVolume(v.noteVolume + v.volSlideUp - v.volSlideDown)
	}

	// Arpeggio: effect form cycles per tick, instrument table at its
	// own speed
	arpOffset := 0
	if v.effArpOn {
		arpOffset = v.effArp[tickInRow%3]
	} else {
		arpOffset, _ = v.arpTable.tick()
	}

	// Waveform cycling reselects the oscillator without retriggering
	var waveErr error
	if v.inst.Synth != nil && v.waveCycle.active {
		if _, stepped := v.waveCycle.tick(); stepped || v.waveIndex < 0 {
			if err := v.selectWaveform(v.waveCycle.value(), true); err != nil {
				waveErr = err
			}
		}
	}

	// Pitch slides
	if !firstTick && v.slideSpeed != 0 {
		v.slidePeriod += v.slideSpeed
	}
	if !firstTick && v.porta.active {
		cur := notePeriod(v.note+v.transpose) + v.slidePeriod
		moved := v.porta.tick(cur)
		v.slidePeriod += moved - cur
	}

	vib := v.vibrato.tick()
	trem := v.tremolo.tick()

	// Resolve period: semitone offsets through the table, then the
	// period-unit offsets, clamped to the playable range
	period := notePeriod(v.note+v.transpose+arpOffset) + v.slidePeriod + vib
	v.outPeriod = clampPeriod(period)
	v.src.setPeriod(v.outPeriod)

	// Resolve volume: envelope x note volume x channel volume
	vol := envLevel >> 8
	vol = vol * clampVolume(v.noteVolume+trem) >> 6
	vol = vol * v.chanVolume >> 6
	v.outVolume = vol

	return waveErr
}

// resetRowEffects clears per-row effect state before new row cells apply
func (v *voice) resetRowEffects() {
	v.volSlideUp = 0
	v.volSlideDown = 0
	v.slideSpeed = 0
	v.effArpOn = false
}

// sample produces one mixed-ready sample for the mixer
func (v *voice) sample() float32 {
	if !v.active() || v.outVolume <= 0 {
		if v.src.playing() {
			// Keep the cursor moving so muted voices stay phase-correct
			v.src.next()
		}
		return 0
	}
	return v.src.next() * float32(v.outVolume) / 64
}

func clampVolume(vol int) int {
	if vol < 0 {
		return 0
	}
	if vol > 0x40 {
		return 0x40
	}
	return vol
}
