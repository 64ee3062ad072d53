// sequencer.go - Row/tick sequencer and pattern effect dispatch
// Drives time forward tick by tick: row cells apply on a row's first
// tick, per-tick effects run on every tick, and the cursor advances
// through the order list honoring pending jumps and breaks.

package replay

import "strconv"

// Pattern effect command ids (ProTracker numbering; the normalized
// schema parsers target)
const (
	EffArpeggio      = 0x0
	EffPortaUp       = 0x1
	EffPortaDown     = 0x2
	EffTonePorta     = 0x3
	EffVibrato       = 0x4
	EffTonePortaVol  = 0x5
	EffVibratoVol    = 0x6
	EffTremolo       = 0x7
	EffSetPan        = 0x8
	EffSampleOffset  = 0x9
	EffVolumeSlide   = 0xA
	EffPositionJump  = 0xB
	EffSetVolume     = 0xC
	EffPatternBreak  = 0xD
	EffExtended      = 0xE
	EffSetSpeed      = 0xF
)

// Extended (0xE) sub-commands, selected by the parameter's high nibble
const (
	extFinePortaUp   = 0x1
	extFinePortaDown = 0x2
	extRetrig        = 0x9
	extFineVolUp     = 0xA
	extFineVolDown   = 0xB
	extNoteCut       = 0xC
	extNoteDelay     = 0xD
)

// PlaybackCursor is the sequencer's position within the song
type PlaybackCursor struct {
	Pos       int
	Row       int
	TickInRow int
	Speed     int // ticks per row
	Tempo     int // BPM

	jumpPending     bool
	pendingJump     int
	breakPending    bool
	pendingBreakRow int
	ended           bool
}

// Ended reports whether the cursor has run past the end of the song
func (c *PlaybackCursor) Ended() bool { return c.ended }

type sequencer struct {
	song   *Song
	cursor PlaybackCursor
	voices []*voice
	warn   *warnSink
	emit   func(AudioEvent)
	loop   bool

	// Per-row state captured at row processing for the tick handlers
	rowFx     [][2]EffectCmd
	delayed   []*Cell
	delayTick []int
}

func newSequencer(song *Song, voices []*voice, warn *warnSink, emit func(AudioEvent), loop bool) *sequencer {
	s := &sequencer{
		song:      song,
		voices:    voices,
		warn:      warn,
		emit:      emit,
		loop:      loop,
		rowFx:     make([][2]EffectCmd, song.Channels),
		delayed:   make([]*Cell, song.Channels),
		delayTick: make([]int, song.Channels),
	}
	s.cursor.Speed = clampSpeed(song.DefaultSpeed)
	s.cursor.Tempo = clampTempo(song.DefaultTempo)
	return s
}

// seek positions the cursor without rendering (initial position/row)
func (s *sequencer) seek(pos, row int) {
	s.cursor.Pos = pos
	s.cursor.Row = row
	s.cursor.TickInRow = 0
	s.enterPosition(pos)
}

// enterPosition applies a position's per-channel transposes
func (s *sequencer) enterPosition(pos int) {
	if pos < 0 || pos >= len(s.song.Positions) {
		return
	}
	tracks := s.song.Positions[pos].Tracks
	for i, v := range s.voices {
		if i < len(tracks) {
			v.transpose = tracks[i].Transpose
		} else {
			v.transpose = 0
		}
	}
}

// advanceTick runs one sequencer tick: row cells on tick 0, per-tick
// effects and voice updates on every tick, then the row/position
// advance with jump/break resolution.
func (s *sequencer) advanceTick() {
	if s.cursor.ended {
		return
	}

	if s.cursor.TickInRow == 0 {
		s.processRow()
	} else {
		s.processTickEffects()
	}

	for _, v := range s.voices {
		if err := v.tick(s.cursor.TickInRow); err != nil {
			s.warn.warnOnce(
				warnKey("wave", v.channel, v.instNr),
				err, "channel %d instrument %d waveform cycle index out of range", v.channel, v.instNr)
		}
	}

	s.cursor.TickInRow++
	if s.cursor.TickInRow >= s.cursor.Speed {
		s.cursor.TickInRow = 0
		s.advanceRow()
	}
}

// processRow reads the current row's cells and applies them
func (s *sequencer) processRow() {
	for ch, v := range s.voices {
		v.resetRowEffects()
		s.rowFx[ch] = [2]EffectCmd{}
		s.delayed[ch] = nil

		cell := s.cellAt(s.cursor.Pos, s.cursor.Row, ch)
		if cell == nil {
			continue
		}
		s.rowFx[ch] = cell.Effects

		if delay, ok := noteDelayTicks(cell); ok && delay > 0 && delay < s.cursor.Speed {
			s.delayed[ch] = cell
			s.delayTick[ch] = delay
			continue
		}
		s.applyCell(v, cell)
	}
}

// noteDelayTicks scans a cell for a note-delay command
func noteDelayTicks(cell *Cell) (int, bool) {
	for _, fx := range cell.Effects {
		if fx.Command == EffExtended && fx.Param>>4 == extNoteDelay {
			return int(fx.Param & 0x0F), true
		}
	}
	return 0, false
}

// applyCell triggers notes, switches instruments, applies volume and
// dispatches row-phase effects for one cell
func (s *sequencer) applyCell(v *voice, cell *Cell) {
	note := cell.Note
	instNr := cell.Instrument

	var inst *Instrument
	if instNr != 0 {
		inst = s.song.Instrument(instNr)
		if inst == nil || (inst.Sample == nil && inst.Synth == nil) {
			s.warn.warnOnce(
				warnKey("inst", v.channel, instNr),
				ErrMalformedReference, "channel %d references instrument %d of %d", v.channel, instNr, len(s.song.Instruments))
			inst = nil
			note = NoNote // treat the whole cell as no instrument / no note
			instNr = 0
		}
	}

	tonePorta := hasEffect(cell, EffTonePorta) || hasEffect(cell, EffTonePortaVol)

	switch {
	case note == NoteOff:
		v.noteOff()

	case note != NoNote && tonePorta:
		// Glide toward the new note instead of retriggering
		if inst != nil {
			v.setInstrument(inst, instNr)
		}

	case note != NoNote:
		trig := inst
		trigNr := instNr
		if trig == nil {
			trig = v.inst
			trigNr = v.instNr
		}
		if trig != nil {
			if err := v.trigger(note, trig, trigNr); err != nil {
				s.warn.warnOnce(
					warnKey("sample", v.channel, trigNr),
					err, "channel %d instrument %d", v.channel, trigNr)
			}
			s.emit(AudioEvent{Kind: EventVoiceTriggered, Channel: v.channel, Instrument: trigNr})
		}

	case inst != nil:
		v.setInstrument(inst, instNr)
	}

	if cell.HasVolume() {
		v.noteVolume = clampVolume(cell.VolumeValue())
	}

	for _, fx := range cell.Effects {
		s.dispatchRow(v, cell, fx)
	}
}

// processTickEffects runs tick-phase effect handlers (ticks >= 1)
func (s *sequencer) processTickEffects() {
	tick := s.cursor.TickInRow
	for ch, v := range s.voices {
		if s.delayed[ch] != nil && tick == s.delayTick[ch] {
			s.applyCell(v, s.delayed[ch])
			s.delayed[ch] = nil
		}
		for _, fx := range s.rowFx[ch] {
			s.dispatchTick(v, fx, tick)
		}
	}
}

// advanceRow moves to the next row, resolving pending jumps and breaks.
// When both a break and a jump were issued on the same row the jump's
// position wins and the break's row applies at the new position.
func (s *sequencer) advanceRow() {
	c := &s.cursor

	if c.breakPending || c.jumpPending {
		row := c.pendingBreakRow
		pos := c.Pos + 1
		if c.jumpPending {
			pos = c.pendingJump
		}
		c.breakPending = false
		c.jumpPending = false
		c.pendingBreakRow = 0
		s.moveTo(pos, row)
		return
	}

	c.Row++
	if c.Row >= positionRows(s.song, c.Pos) {
		s.moveTo(c.Pos+1, 0)
	}
}

// moveTo enters (pos, row), handling song-end wrap
func (s *sequencer) moveTo(pos, row int) {
	c := &s.cursor

	if pos >= len(s.song.Positions) || pos < 0 {
		s.emit(AudioEvent{Kind: EventSongEnd})
		if !s.loop {
			c.ended = true
			return
		}
		pos = 0
		if s.song.RestartPos >= 0 && s.song.RestartPos < len(s.song.Positions) {
			pos = s.song.RestartPos
		}
	}

	if row < 0 || row >= positionRows(s.song, pos) {
		row = 0
	}

	changed := pos != c.Pos
	c.Pos = pos
	c.Row = row
	s.enterPosition(pos)
	if changed {
		s.emit(AudioEvent{Kind: EventPositionChanged, Position: pos})
	}
}

// positionRows returns the row count of a position: the widest row
// count among the patterns its channels reference
func positionRows(song *Song, pos int) int {
	if pos < 0 || pos >= len(song.Positions) {
		return 0
	}
	rows := 0
	for _, tr := range song.Positions[pos].Tracks {
		if tr.Pattern >= 0 && tr.Pattern < len(song.Patterns) {
			if r := song.Patterns[tr.Pattern].Rows; r > rows {
				rows = r
			}
		}
	}
	return rows
}

// cellAt resolves the cell for one channel at (pos, row). Out-of-range
// pattern references recover as empty cells.
func (s *sequencer) cellAt(pos, row, ch int) *Cell {
	if pos < 0 || pos >= len(s.song.Positions) {
		return nil
	}
	tracks := s.song.Positions[pos].Tracks
	if ch >= len(tracks) {
		return nil
	}
	tr := tracks[ch]
	if tr.Pattern < 0 || tr.Pattern >= len(s.song.Patterns) {
		s.warn.warnOnce(
			warnKey("pattern", pos, tr.Pattern),
			ErrMalformedReference, "position %d references pattern %d of %d", pos, tr.Pattern, len(s.song.Patterns))
		return nil
	}
	pat := &s.song.Patterns[tr.Pattern]
	col := ch
	if pat.Channels == 1 {
		col = 0 // single-column pattern acts as a per-channel track
	}
	return pat.Cell(row, col)
}

func hasEffect(cell *Cell, cmd byte) bool {
	for _, fx := range cell.Effects {
		if fx.Command == cmd && (fx.Command != 0 || fx.Param != 0) {
			return true
		}
	}
	return false
}

func warnKey(kind string, a, b int) string {
	return kind + ":" + strconv.Itoa(a) + ":" + strconv.Itoa(b)
}

func clampSpeed(speed int) int {
	if speed < 1 {
		return 1
	}
	if speed > 31 {
		return 31
	}
	return speed
}

func clampTempo(tempo int) int {
	if tempo <= 0 {
		return 125 // unset, the tracker default
	}
	if tempo < 32 {
		return 32
	}
	if tempo > 255 {
		return 255
	}
	return tempo
}
