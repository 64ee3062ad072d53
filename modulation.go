// modulation.go - Per-voice modulation engine
// Four independent table-driven sub-modulators (vibrato, tremolo,
// arpeggio, waveform-cycle) plus portamento. Each advances its own
// index at its own ticks-per-step and wraps or clamps at its own
// table end.

package replay

// vibratoTable is the 64-entry sine table shared by vibrato and
// tremolo, amplitude 255
var vibratoTable = [64]int{
	0, 24, 49, 74, 97, 120, 141, 161, 180, 197, 212, 224, 235, 244, 250, 253,
	255, 253, 250, 244, 235, 224, 212, 197, 180, 161, 141, 120, 97, 74, 49, 24,
	0, -24, -49, -74, -97, -120, -141, -161, -180, -197, -212, -224, -235, -244, -250, -253,
	-255, -253, -250, -244, -235, -224, -212, -197, -180, -161, -141, -120, -97, -74, -49, -24,
}

// oscRunner drives vibrato and tremolo: a delayed, free-running sweep
// through a 64-entry (or custom) signed table
type oscRunner struct {
	table []int
	delay int
	speed int
	depth int
	pos   int
}

func (o *oscRunner) initVibrato(def *VibratoDef) {
	o.table = def.Table
	if o.table == nil {
		o.table = vibratoTable[:]
	}
	o.delay = def.Delay
	o.speed = def.Speed
	o.depth = def.Depth
	o.pos = 0
}

func (o *oscRunner) initTremolo(def *TremoloDef) {
	o.table = def.Table
	if o.table == nil {
		o.table = vibratoTable[:]
	}
	o.delay = def.Delay
	o.speed = def.Speed
	o.depth = def.Depth
	o.pos = 0
}

// setCommand reprograms speed/depth from an effect command without
// resetting the phase
func (o *oscRunner) setCommand(speed, depth int) {
	if o.table == nil {
		o.table = vibratoTable[:]
	}
	if speed > 0 {
		o.speed = speed
	}
	if depth > 0 {
		o.depth = depth
	}
}

// tick advances the oscillator one sequencer tick and returns the
// scaled table value (>>7, the AHX vibrato scaling)
func (o *oscRunner) tick() int {
	if o.depth <= 0 || len(o.table) == 0 {
		return 0
	}
	if o.delay > 0 {
		o.delay--
		return 0
	}
	v := (o.table[o.pos%len(o.table)] * o.depth) >> 7
	o.pos = (o.pos + o.speed) % len(o.table)
	return v
}

func (o *oscRunner) reset() {
	*o = oscRunner{}
}

// tableRunner walks a TableDef: one step every speed ticks, wrapping to
// the loop start or clamping on the final entry
type tableRunner struct {
	values    []int
	speed     int
	loopStart int
	pos       int
	wait      int
	active    bool
}

func (t *tableRunner) init(def *TableDef) {
	if def == nil || len(def.Values) == 0 {
		t.active = false
		return
	}
	speed := def.Speed
	if speed < 1 {
		speed = 1
	}
	*t = tableRunner{
		values:    def.Values,
		speed:     speed,
		loopStart: def.LoopStart,
		wait:      speed,
		active:    true,
	}
}

// value returns the current table entry without advancing
func (t *tableRunner) value() int {
	if !t.active {
		return 0
	}
	return t.values[t.pos]
}

// tick returns the current entry, then advances the index when the
// step timer expires. Returns (value, stepped).
func (t *tableRunner) tick() (int, bool) {
	if !t.active {
		return 0, false
	}
	v := t.values[t.pos]
	t.wait--
	if t.wait > 0 {
		return v, false
	}
	t.wait = t.speed
	next := t.pos + 1
	if next >= len(t.values) {
		if t.loopStart < 0 {
			// Clamp on the final entry
			return v, false
		}
		next = t.loopStart
		if next >= len(t.values) {
			next = 0
		}
	}
	t.pos = next
	return v, true
}

// portaRunner glides the voice period toward a target at a fixed rate
// per tick, terminating when the target is reached
type portaRunner struct {
	target int
	speed  int
	active bool
}

func (p *portaRunner) start(target, speed int) {
	p.target = target
	if speed > 0 {
		p.speed = speed
	}
	p.active = p.speed > 0
}

// tick moves period toward the target and returns the new period
func (p *portaRunner) tick(period int) int {
	if !p.active {
		return period
	}
	switch {
	case period < p.target:
		period += p.speed
		if period >= p.target {
			period = p.target
			p.active = false
		}
	case period > p.target:
		period -= p.speed
		if period <= p.target {
			period = p.target
			p.active = false
		}
	default:
		p.active = false
	}
	return period
}
