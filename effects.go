// effects.go - Pattern effect dispatch table
// All commands resolve through one table keyed by command id. Unknown
// ids are logged no-ops; parameters outside their legal domain clamp to
// the nearest legal value.

package replay

// effectHandler is one dispatch-table entry. onRow runs when the cell
// applies (row tick 0, or the delay tick for delayed notes); onTick
// runs on every later tick of the row.
type effectHandler struct {
	name   string
	onRow  func(s *sequencer, v *voice, param byte)
	onTick func(s *sequencer, v *voice, param byte, tick int)
}

var effectTable = map[byte]*effectHandler{
	EffArpeggio: {
		name: "arpeggio",
		onRow: func(s *sequencer, v *voice, param byte) {
			if param == 0 {
				return // 000 is the empty cell, not an arpeggio
			}
			v.effArpOn = true
			v.effArp = [3]int{0, int(param >> 4), int(param & 0x0F)}
		},
	},
	EffPortaUp: {
		name: "portamento up",
		onRow: func(s *sequencer, v *voice, param byte) {
			v.slideSpeed = -int(param)
		},
	},
	EffPortaDown: {
		name: "portamento down",
		onRow: func(s *sequencer, v *voice, param byte) {
			v.slideSpeed = int(param)
		},
	},
	EffTonePorta: {
		name: "tone portamento",
		onRow: func(s *sequencer, v *voice, param byte) {
			if param != 0 {
				v.portaSpeed = int(param)
			}
		},
	},
	EffVibrato: {
		name: "vibrato",
		onRow: func(s *sequencer, v *voice, param byte) {
			v.vibrato.setCommand(int(param>>4), int(param&0x0F))
		},
	},
	EffTonePortaVol: {
		name: "tone portamento + volume slide",
		onRow: func(s *sequencer, v *voice, param byte) {
			v.volSlideUp = int(param >> 4)
			v.volSlideDown = int(param & 0x0F)
		},
	},
	EffVibratoVol: {
		name: "vibrato + volume slide",
		onRow: func(s *sequencer, v *voice, param byte) {
			v.volSlideUp = int(param >> 4)
			v.volSlideDown = int(param & 0x0F)
		},
	},
	EffTremolo: {
		name: "tremolo",
		onRow: func(s *sequencer, v *voice, param byte) {
			v.tremolo.setCommand(int(param>>4), int(param&0x0F))
		},
	},
	EffSetPan: {
		name: "set pan",
		onRow: func(s *sequencer, v *voice, param byte) {
			pan := int(param)
			if pan > 0x80 {
				pan = 0x80
			}
			v.pan = pan
		},
	},
	EffSampleOffset: {
		name: "sample offset",
		onRow: func(s *sequencer, v *voice, param byte) {
			v.src.setCursor(int(param) << 8)
		},
	},
	EffVolumeSlide: {
		name: "volume slide",
		onRow: func(s *sequencer, v *voice, param byte) {
			v.volSlideUp = int(param >> 4)
			v.volSlideDown = int(param & 0x0F)
		},
	},
	EffPositionJump: {
		name: "position jump",
		onRow: func(s *sequencer, v *voice, param byte) {
			s.cursor.jumpPending = true
			s.cursor.pendingJump = int(param)
		},
	},
	EffSetVolume: {
		name: "set volume",
		onRow: func(s *sequencer, v *voice, param byte) {
			v.noteVolume = clampVolume(int(param))
		},
	},
	EffPatternBreak: {
		name: "pattern break",
		onRow: func(s *sequencer, v *voice, param byte) {
			s.cursor.breakPending = true
			// Parameter is BCD-ish decimal, the ProTracker convention
			s.cursor.pendingBreakRow = int(param>>4)*10 + int(param&0x0F)
		},
	},
	EffExtended: {
		name: "extended",
		onRow: func(s *sequencer, v *voice, param byte) {
			val := int(param & 0x0F)
			switch param >> 4 {
			case extFinePortaUp:
				v.slidePeriod -= val
			case extFinePortaDown:
				v.slidePeriod += val
			case extFineVolUp:
				v.noteVolume = clampVolume(v.noteVolume + val)
			case extFineVolDown:
				v.noteVolume = clampVolume(v.noteVolume - val)
			case extNoteCut:
				if val == 0 {
					v.cut()
				}
			}
		},
		onTick: func(s *sequencer, v *voice, param byte, tick int) {
			val := int(param & 0x0F)
			switch param >> 4 {
			case extRetrig:
				if val > 0 && tick%val == 0 {
					v.retrigger()
				}
			case extNoteCut:
				if tick == val {
					v.cut()
				}
			}
		},
	},
	EffSetSpeed: {
		name: "set speed/tempo",
		onRow: func(s *sequencer, v *voice, param byte) {
			if param < 0x20 {
				s.cursor.Speed = clampSpeed(int(param))
			} else {
				s.cursor.Tempo = clampTempo(int(param))
			}
		},
	},
}

// dispatchRow resolves a row-phase effect through the table
func (s *sequencer) dispatchRow(v *voice, cell *Cell, fx EffectCmd) {
	if fx.Command == EffArpeggio && fx.Param == 0 {
		return
	}
	h, ok := effectTable[fx.Command]
	if !ok {
		s.warn.warnOnce(
			warnKey("fx", int(fx.Command), 0),
			ErrUnknownEffect, "command %#02x param %#02x ignored", fx.Command, fx.Param)
		return
	}
	if h.onRow != nil {
		h.onRow(s, v, fx.Param)
	}
	// Tone portamento needs the cell's note to aim the glide
	if (fx.Command == EffTonePorta || fx.Command == EffTonePortaVol) &&
		cell.Note != NoNote && cell.Note != NoteOff {
		v.startTonePorta(cell.Note, v.portaSpeed)
	}
}

// dispatchTick resolves a tick-phase effect through the table
func (s *sequencer) dispatchTick(v *voice, fx EffectCmd, tick int) {
	if fx.Command == EffArpeggio && fx.Param == 0 {
		return
	}
	h, ok := effectTable[fx.Command]
	if !ok {
		return // already logged at row phase
	}
	if h.onTick != nil {
		h.onTick(s, v, fx.Param, tick)
	}
}
