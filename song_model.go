// song_model.go - Format-agnostic song data model
// Parsers populate this schema; the engine only ever reads it.

package replay

// Note values used in pattern cells. Notes 1..60 are semitone indices
// (1 = C-1 ... 60 = B-5), matching the period table below.
const (
	NoNote  = 0
	NoteOff = 255
	MaxNote = 60
)

// LoopMode describes how a sample buffer behaves at its boundary
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopForward
	LoopPingPong
)

// EffectCmd is one pattern effect: command id plus parameter byte
type EffectCmd struct {
	Command byte
	Param   byte
}

// Cell is one pattern slot for one channel.
// Instrument is 1-based (0 = no instrument).
// Volume is stored offset by one: 0 = no volume command, otherwise value-1.
type Cell struct {
	Note       int
	Instrument int
	Volume     int
	Effects    [2]EffectCmd
}

// HasVolume reports whether the cell carries a volume command
func (c *Cell) HasVolume() bool {
	return c.Volume > 0
}

// VolumeValue returns the 0-64 volume carried by the cell
func (c *Cell) VolumeValue() int {
	return c.Volume - 1
}

// Pattern is a rows x channels grid of cells.
// A single-channel pattern acts as an AHX-style track: every voice that
// references it reads column 0. Wider patterns are read at the voice's
// own channel column, MOD-style.
type Pattern struct {
	Rows     int
	Channels int
	Cells    []Cell // row-major, len = Rows*Channels
}

// Cell returns the cell at (row, channel), or nil if either index is
// out of the pattern's bounds
func (p *Pattern) Cell(row, channel int) *Cell {
	if row < 0 || row >= p.Rows || channel < 0 || channel >= p.Channels {
		return nil
	}
	return &p.Cells[row*p.Channels+channel]
}

// TrackRef is one channel's entry in a song position
type TrackRef struct {
	Pattern   int
	Transpose int // semitones added to every note in the referenced pattern
}

// Position is one entry of the song order list: one pattern reference
// plus transpose per channel
type Position struct {
	Tracks []TrackRef
}

// SampleData is the PCM side of a sample instrument. Exactly one of
// PCM8/PCM16 is populated.
type SampleData struct {
	PCM8      []int8
	PCM16     []int16
	LoopMode  LoopMode
	LoopStart int
	LoopLen   int
	C4Rate    float64 // playback rate in Hz when the sample plays at C-4
}

// Length returns the PCM frame count
func (s *SampleData) Length() int {
	if s.PCM16 != nil {
		return len(s.PCM16)
	}
	return len(s.PCM8)
}

// EnvSegment is one envelope segment: walk the level toward Target
// (0-64) over Ticks ticks. A slope of zero (Ticks=0) jumps immediately.
type EnvSegment struct {
	Ticks  int
	Target int
}

// TableDef is a generic fixed-record modulation table advanced by the
// instrument runtime: one Values step every Speed ticks. When the index
// runs off the end it wraps to LoopStart, or clamps on the final entry
// if LoopStart is negative.
type TableDef struct {
	Values    []int
	Speed     int
	LoopStart int
}

// VibratoDef configures periodic pitch modulation. Depth scales the
// sine table output into period units; Table overrides the built-in
// sine when non-nil.
type VibratoDef struct {
	Delay int
	Speed int
	Depth int
	Table []int
}

// TremoloDef configures periodic volume modulation, same model as vibrato
type TremoloDef struct {
	Delay int
	Speed int
	Depth int
	Table []int
}

// SynthDef is the synthesized side of an instrument: oscillator cycles
// plus envelope and modulation tables.
type SynthDef struct {
	Waveforms [][]int8 // oscillator cycles, all entries non-empty

	// Envelope: Attack segments run at note-on, then the level holds for
	// SustainTicks (negative = until note-off), then Release segments run
	// down. An empty Attack holds the instrument volume directly.
	Attack       []EnvSegment
	SustainTicks int
	Release      []EnvSegment

	Vibrato   *VibratoDef
	Tremolo   *TremoloDef
	Arpeggio  *TableDef // semitone offsets
	WaveCycle *TableDef // indices into Waveforms
}

// Instrument is the format-agnostic instrument union. Exactly one of
// Sample/Synth is non-nil; a Cell referencing an instrument with neither
// is treated as a malformed reference.
type Instrument struct {
	Name   string
	Volume int // default volume 0-64
	Pan    int // default pan 0-128, 64 = center

	Sample *SampleData
	Synth  *SynthDef
}

// Song is the immutable playback model. Instrument references in cells
// are 1-based: instrument n resolves to Instruments[n-1].
type Song struct {
	Name     string
	Channels int

	Positions   []Position
	Patterns    []Pattern
	Instruments []Instrument

	DefaultSpeed int // ticks per row
	DefaultTempo int // BPM; tick rate = BPM*2/5 Hz (125 -> 50 Hz)
	RestartPos   int // order index to wrap to at song end, -1 = none
}

// Instrument resolves a 1-based cell instrument reference, or nil if
// the reference is out of range
func (s *Song) Instrument(nr int) *Instrument {
	if nr < 1 || nr > len(s.Instruments) {
		return nil
	}
	return &s.Instruments[nr-1]
}

// periodTable is the note-to-period lookup (notes 0-60, entry 0 unused).
// Amiga PAL periods, one octave per 12 entries.
var periodTable = [MaxNote + 1]int{
	0x0000, 0x0D60, 0x0CA0, 0x0BE8, 0x0B40, 0x0A98, 0x0A00, 0x0970,
	0x08E8, 0x0868, 0x07F0, 0x0780, 0x0714, 0x06B0, 0x0650, 0x05F4,
	0x05A0, 0x054C, 0x0500, 0x04B8, 0x0474, 0x0434, 0x03F8, 0x03C0,
	0x038A, 0x0358, 0x0328, 0x02FA, 0x02D0, 0x02A6, 0x0280, 0x025C,
	0x023A, 0x021A, 0x01FC, 0x01E0, 0x01C5, 0x01AC, 0x0194, 0x017D,
	0x0168, 0x0153, 0x0140, 0x012E, 0x011D, 0x010D, 0x00FE, 0x00F0,
	0x00E2, 0x00D6, 0x00CA, 0x00BE, 0x00B4, 0x00AA, 0x00A0, 0x0097,
	0x008F, 0x0087, 0x007F, 0x0078, 0x0071,
}

const (
	periodMin = 0x0071
	periodMax = 0x0D60
)

// periodClock converts periods to byte rates: NTSC colorburst * 2, the
// Paula convention shared by the synth waveform path
const periodClock = 3579545.25

// noteC4 is the reference note for sample C4Rate scaling
const noteC4 = 37

// notePeriod returns the period for a note index, clamping the note
// into the table's range
func notePeriod(note int) int {
	if note < 1 {
		note = 1
	}
	if note > MaxNote {
		note = MaxNote
	}
	return periodTable[note]
}

// clampPeriod bounds a modulated period to the playable range
func clampPeriod(period int) int {
	if period < periodMin {
		return periodMin
	}
	if period > periodMax {
		return periodMax
	}
	return period
}

// period2Freq converts a period to a byte rate in Hz
func period2Freq(period int) float64 {
	if period <= 0 {
		return 0
	}
	return periodClock / float64(period)
}

// c4ByteRate is the byte rate produced by period2Freq at C-4; sample
// instruments scale their C4Rate against it so an 8363 Hz sample plays
// true at C-4
var c4ByteRate = period2Freq(periodTable[noteC4])
