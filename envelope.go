// envelope.go - Segment-list envelope engine
// Volume levels run in 8:8 fixed point, 0..0x4000 (0-64 whole units),
// with per-tick deltas derived the way the AHX replayer derives ADSR
// slopes: delta = (target - current) * 256 / ticks, snapped to the
// exact target when a segment's tick count runs out.

package replay

type envelopeState int

const (
	envIdle envelopeState = iota
	envAttack              // walking the attack/decay segment chain
	envSustain
	envRelease
)

const envUnit = 1 << 8 // one whole volume unit in 8:8

// envelopeRunner is one voice's live envelope. Sample instruments get a
// flat envelope (constant full level, note-off cuts); synth instruments
// walk their segment chains.
type envelopeRunner struct {
	attack       []EnvSegment
	release      []EnvSegment
	sustainTicks int
	flat         bool

	state       envelopeState
	segIndex    int
	ticksLeft   int
	delta       int
	target      int // 8:8
	level       int // 8:8
	sustainLeft int
}

// triggerFlat starts a constant full-level envelope (sample instruments)
func (e *envelopeRunner) triggerFlat() {
	*e = envelopeRunner{
		flat:         true,
		state:        envSustain,
		sustainTicks: -1,
		level:        0x40 * envUnit,
	}
}

// trigger starts the envelope for a synth definition
func (e *envelopeRunner) trigger(def *SynthDef) {
	*e = envelopeRunner{
		attack:       def.Attack,
		release:      def.Release,
		sustainTicks: def.SustainTicks,
	}
	if len(e.attack) == 0 {
		// No attack chain: hold full level until sustain expires
		e.level = 0x40 * envUnit
		e.enterSustain()
		return
	}
	e.state = envAttack
	e.segIndex = 0
	e.startSegment(e.attack[0])
}

// startSegment computes the per-tick delta for one segment
func (e *envelopeRunner) startSegment(seg EnvSegment) {
	e.target = seg.Target * envUnit
	e.ticksLeft = seg.Ticks
	if seg.Ticks <= 0 {
		e.level = e.target
		e.delta = 0
		e.ticksLeft = 0
		return
	}
	e.delta = (e.target - e.level) / seg.Ticks
}

func (e *envelopeRunner) enterSustain() {
	e.state = envSustain
	e.sustainLeft = e.sustainTicks
}

func (e *envelopeRunner) enterRelease() {
	if len(e.release) == 0 {
		e.level = 0
		e.state = envIdle
		return
	}
	e.state = envRelease
	e.segIndex = 0
	e.startSegment(e.release[0])
}

// releaseNote handles an explicit note-off
func (e *envelopeRunner) releaseNote() {
	switch e.state {
	case envIdle, envRelease:
		return
	}
	if e.flat {
		e.level = 0
		e.state = envIdle
		return
	}
	e.enterRelease()
}

// active reports whether the envelope still produces output
func (e *envelopeRunner) active() bool {
	return e.state != envIdle
}

// tick advances the envelope by one sequencer tick and returns the new
// 8:8 level plus whether the voice became free on this tick.
func (e *envelopeRunner) tick() (level int, freed bool) {
	switch e.state {
	case envIdle:
		return e.level, false

	case envAttack:
		e.stepSegment(e.attack, e.enterSustain)

	case envSustain:
		// Negative sustain holds until note-off
		if e.sustainTicks >= 0 {
			if e.sustainLeft <= 0 {
				e.enterRelease()
			} else {
				e.sustainLeft--
			}
		}

	case envRelease:
		before := e.state
		e.stepSegment(e.release, func() {
			e.state = envIdle
		})
		if before == envRelease && e.state == envIdle {
			freed = true
		}
	}

	if e.level <= 0 && e.state == envRelease {
		e.level = 0
		e.state = envIdle
		freed = true
	}
	return e.level, freed
}

// stepSegment advances one tick within the current segment chain and
// calls done when the chain is exhausted
func (e *envelopeRunner) stepSegment(segs []EnvSegment, done func()) {
	if e.ticksLeft > 0 {
		e.level += e.delta
		e.ticksLeft--
	}
	if e.ticksLeft > 0 {
		return
	}
	e.level = e.target
	e.segIndex++
	if e.segIndex < len(segs) {
		e.startSegment(segs[e.segIndex])
		return
	}
	done()
}
