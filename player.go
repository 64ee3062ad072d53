// player.go - Pull-based playback session
// An external audio backend asks for N frames; the player advances its
// tick clock exactly enough ticks to produce them. Headless rendering
// uses the identical path.

package replay

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Config is the playback session configuration. Invalid values are
// rejected at session start, never silently defaulted; DefaultConfig
// supplies canonical values.
type Config struct {
	// OutputSampleRate is the target rate in Hz for resampling
	OutputSampleRate int
	PanLaw           PanLaw
	Interpolation    Interpolation

	// LoopSong wraps to the song's restart position at song end instead
	// of stopping
	LoopSong bool

	// InitialPosition/InitialRow seek before the first rendered frame
	InitialPosition int
	InitialRow      int

	// GlobalVolume scales the summed mix, (0, 1]
	GlobalVolume float64

	// Logf receives recoverable-content warnings; nil means log.Printf
	Logf LogFunc
}

// DefaultConfig returns the canonical playback configuration
func DefaultConfig() Config {
	return Config{
		OutputSampleRate: 44100,
		PanLaw:           PanConstantPower,
		Interpolation:    InterpLinear,
		GlobalVolume:     0.6,
	}
}

func (c *Config) validate(song *Song) error {
	if c.OutputSampleRate <= 0 {
		return fmt.Errorf("%w: output sample rate %d", ErrConfiguration, c.OutputSampleRate)
	}
	if c.GlobalVolume <= 0 || c.GlobalVolume > 1 {
		return fmt.Errorf("%w: global volume %v outside (0, 1]", ErrConfiguration, c.GlobalVolume)
	}
	if c.PanLaw != PanLinear && c.PanLaw != PanConstantPower {
		return fmt.Errorf("%w: pan law %d", ErrConfiguration, c.PanLaw)
	}
	if c.Interpolation != InterpLinear && c.Interpolation != InterpNearest {
		return fmt.Errorf("%w: interpolation %d", ErrConfiguration, c.Interpolation)
	}
	if c.InitialPosition < 0 || c.InitialPosition >= len(song.Positions) {
		return fmt.Errorf("%w: initial position %d of %d", ErrConfiguration, c.InitialPosition, len(song.Positions))
	}
	if c.InitialRow < 0 {
		return fmt.Errorf("%w: initial row %d", ErrConfiguration, c.InitialRow)
	}
	// Row 0 is always a valid seek point, even into a position whose
	// pattern references are all broken
	if rows := positionRows(song, c.InitialPosition); c.InitialRow > 0 && c.InitialRow >= rows {
		return fmt.Errorf("%w: initial row %d of %d", ErrConfiguration, c.InitialRow, rows)
	}
	return nil
}

// Player renders one song through one exclusive Voice/Cursor set. The
// Song itself is shared and read-only; independent Players over the
// same Song are safe.
type Player struct {
	mutex  sync.Mutex
	song   *Song
	cfg    Config
	warn   *warnSink
	voices []*voice
	seq    *sequencer
	mix    *mixer

	samplesPerTick int
	tickSamplePos  int
	renderedFrames uint64

	cancelled atomic.Bool
	events    chan AudioEvent
}

// NewPlayer validates the configuration and builds a playback session
// over the given song. The song must be fully populated and is not
// mutated.
func NewPlayer(song *Song, cfg Config) (*Player, error) {
	if song == nil {
		return nil, ErrNilSong
	}
	if song.Channels <= 0 {
		return nil, fmt.Errorf("%w: song has no channels", ErrNilSong)
	}
	if len(song.Positions) == 0 {
		return nil, fmt.Errorf("%w: song has no positions", ErrNilSong)
	}
	if err := cfg.validate(song); err != nil {
		return nil, err
	}

	p := &Player{
		song:   song,
		cfg:    cfg,
		warn:   newWarnSink(cfg.Logf),
		events: make(chan AudioEvent, 128),
	}

	p.voices = make([]*voice, song.Channels)
	for i := range p.voices {
		p.voices[i] = newVoice(i, float64(cfg.OutputSampleRate), cfg.Interpolation)
	}
	p.seq = newSequencer(song, p.voices, p.warn, p.emitEvent, cfg.LoopSong)
	p.mix = newMixer(cfg.PanLaw, cfg.GlobalVolume)
	p.seq.seek(cfg.InitialPosition, cfg.InitialRow)
	p.samplesPerTick = samplesPerTick(cfg.OutputSampleRate, p.seq.cursor.Tempo)

	return p, nil
}

// samplesPerTick derives the tick length from the BPM tempo: tick rate
// is BPM*2/5 Hz, the Amiga convention (125 BPM -> 50 Hz)
func samplesPerTick(rate, tempo int) int {
	n := rate * 5 / (tempo * 2)
	if n < 1 {
		n = 1
	}
	return n
}

// Render fills out (interleaved stereo float32) and returns the number
// of frames produced. Fewer frames than requested means the song ended;
// zero means ended or cancelled. Cancellation is checked once per call,
// a block renders atomically.
func (p *Player) Render(out []float32) int {
	if p.cancelled.Load() {
		return 0
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	frames := len(out) / 2
	rendered := 0
	for rendered < frames {
		if p.tickSamplePos == 0 {
			if p.seq.cursor.Ended() {
				break
			}
			p.seq.advanceTick()
			// Tempo only changes at tick boundaries, keeping output
			// independent of the caller's block partitioning
			p.samplesPerTick = samplesPerTick(p.cfg.OutputSampleRate, p.seq.cursor.Tempo)
			p.tickSamplePos = p.samplesPerTick
		}
		l, r := p.mix.mixFrame(p.voices)
		out[rendered*2] = l
		out[rendered*2+1] = r
		p.tickSamplePos--
		rendered++
	}
	p.renderedFrames += uint64(rendered)
	return rendered
}

// Events returns the playback event stream. The channel is buffered
// and never blocks the render path; slow consumers lose events rather
// than stalling audio.
func (p *Player) Events() <-chan AudioEvent {
	return p.events
}

func (p *Player) emitEvent(ev AudioEvent) {
	select {
	case p.events <- ev:
	default:
	}
}

// Stop cancels the session; subsequent Render calls produce nothing
func (p *Player) Stop() {
	p.cancelled.Store(true)
}

// Ended reports whether the sequencer ran past the end of the song
func (p *Player) Ended() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.seq.cursor.Ended()
}

// Position returns the current order position and row
func (p *Player) Position() (pos, row int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.seq.cursor.Pos, p.seq.cursor.Row
}

// RenderedFrames returns the total frames produced so far
func (p *Player) RenderedFrames() uint64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.renderedFrames
}
