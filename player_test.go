// player_test.go - Tests for the pull-based playback session:
// configuration validation, deterministic rendering and lifecycle

package replay

import (
	"errors"
	"testing"
)

// renderTestSong builds a two-channel, four-row song playing one C-4
// sample note hard left on channel 0
func renderTestSong() *Song {
	inst := *sampleInstrument(0x40)
	inst.Pan = 0 // hard left
	song := gridSong([][]Cell{
		{{Note: noteC4, Instrument: 1}, {}},
		{{}, {}},
		{{}, {}},
		{{}, {}},
	}, []Instrument{inst})
	return song
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Logf = func(format string, args ...any) {}
	return cfg
}

// TestNewPlayerValidation verifies invalid configurations and songs
// are rejected up front with the fatal sentinels
func TestNewPlayerValidation(t *testing.T) {
	song := renderTestSong()

	if _, err := NewPlayer(nil, quietConfig()); !errors.Is(err, ErrNilSong) {
		t.Errorf("nil song: expected ErrNilSong, got %v", err)
	}
	if _, err := NewPlayer(&Song{Channels: 4}, quietConfig()); !errors.Is(err, ErrNilSong) {
		t.Errorf("no positions: expected ErrNilSong, got %v", err)
	}

	bad := []func(*Config){
		func(c *Config) { c.OutputSampleRate = 0 },
		func(c *Config) { c.OutputSampleRate = -8000 },
		func(c *Config) { c.GlobalVolume = 0 },
		func(c *Config) { c.GlobalVolume = 1.5 },
		func(c *Config) { c.PanLaw = PanLaw(99) },
		func(c *Config) { c.Interpolation = Interpolation(99) },
		func(c *Config) { c.InitialPosition = 7 },
		func(c *Config) { c.InitialRow = -1 },
		func(c *Config) { c.InitialRow = 4 }, // song has 4 rows, valid rows 0..3
		func(c *Config) { c.InitialRow = 99 },
	}
	for i, mutate := range bad {
		cfg := quietConfig()
		mutate(&cfg)
		if _, err := NewPlayer(song, cfg); !errors.Is(err, ErrConfiguration) {
			t.Errorf("case %d: expected ErrConfiguration, got %v", i, err)
		}
	}
}

// TestPlayerRenderLength verifies the tick clock: 4 rows at speed 6
// and 125 BPM is 24 ticks of 882 frames at 44.1 kHz
func TestPlayerRenderLength(t *testing.T) {
	p, err := NewPlayer(renderTestSong(), quietConfig())
	if err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 2*30000)
	n := p.Render(out)
	if want := 24 * 882; n != want {
		t.Errorf("expected %d frames for the whole song, got %d", want, n)
	}
	if !p.Ended() {
		t.Error("player should report ended after rendering the whole song")
	}
	if p.RenderedFrames() != uint64(n) {
		t.Errorf("frame counter mismatch: %d vs %d", p.RenderedFrames(), n)
	}
	if m := p.Render(out); m != 0 {
		t.Errorf("render after song end should produce 0 frames, got %d", m)
	}
}

// TestPlayerHardLeftPan verifies a hard-left voice under the linear
// pan law leaves the right channel exactly silent
func TestPlayerHardLeftPan(t *testing.T) {
	cfg := quietConfig()
	cfg.PanLaw = PanLinear
	p, err := NewPlayer(renderTestSong(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 2*30000)
	n := p.Render(out)
	energy := 0
	for i := 0; i < n; i++ {
		if out[i*2] != 0 {
			energy++
		}
		if out[i*2+1] != 0 {
			t.Fatalf("frame %d: right channel must be exactly zero, got %v", i, out[i*2+1])
		}
	}
	if energy == 0 {
		t.Error("left channel should carry the note")
	}
}

// TestPlayerDeterministicPartitioning verifies the output is
// bit-identical no matter how the caller slices its Render blocks,
// across tempo changes and modulated voices
func TestPlayerDeterministicPartitioning(t *testing.T) {
	build := func() *Song {
		return gridSong([][]Cell{
			{{Note: noteC4, Instrument: 1}},
			{fxCell(EffVolumeSlide, 0x02)},
			{fxCell(EffSetSpeed, 0x90)}, // tempo change mid-song
			{fxCell(EffVibrato, 0x48)},
		}, []Instrument{*sampleInstrument(0x40)})
	}

	render := func(blockFrames int) []float32 {
		p, err := NewPlayer(build(), quietConfig())
		if err != nil {
			t.Fatal(err)
		}
		var all []float32
		buf := make([]float32, blockFrames*2)
		for {
			n := p.Render(buf)
			if n == 0 {
				return all
			}
			all = append(all, buf[:n*2]...)
		}
	}

	whole := render(30000)
	small := render(128)
	odd := render(77)

	if len(small) != len(whole) || len(odd) != len(whole) {
		t.Fatalf("length mismatch: whole %d, 128-frame %d, 77-frame %d",
			len(whole), len(small), len(odd))
	}
	for i := range whole {
		if small[i] != whole[i] {
			t.Fatalf("sample %d differs between whole and 128-frame rendering", i)
		}
		if odd[i] != whole[i] {
			t.Fatalf("sample %d differs between whole and 77-frame rendering", i)
		}
	}
}

// TestPlayerLoopKeepsRendering verifies a looping session always fills
// the requested block
func TestPlayerLoopKeepsRendering(t *testing.T) {
	cfg := quietConfig()
	cfg.LoopSong = true
	p, err := NewPlayer(renderTestSong(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 2*60000) // past one full pass of the song
	if n := p.Render(out); n != 60000 {
		t.Errorf("looping render should fill the block, got %d of 60000", n)
	}
	if p.Ended() {
		t.Error("looping session must never end on its own")
	}
}

// TestPlayerEvents verifies note triggers and the song end surface on
// the event channel
func TestPlayerEvents(t *testing.T) {
	p, err := NewPlayer(renderTestSong(), quietConfig())
	if err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 2*30000)
	p.Render(out)

	var triggered, ended int
	for {
		select {
		case ev := <-p.Events():
			switch ev.Kind {
			case EventVoiceTriggered:
				triggered++
				if ev.Channel != 0 || ev.Instrument != 1 {
					t.Errorf("unexpected trigger event %+v", ev)
				}
			case EventSongEnd:
				ended++
			}
			continue
		default:
		}
		break
	}
	if triggered != 1 {
		t.Errorf("expected 1 voice trigger event, got %d", triggered)
	}
	if ended != 1 {
		t.Errorf("expected 1 song end event, got %d", ended)
	}
}

// TestPlayerStop verifies cancellation: the block in flight completes,
// later calls produce nothing
func TestPlayerStop(t *testing.T) {
	p, err := NewPlayer(renderTestSong(), quietConfig())
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]float32, 2*256)
	if n := p.Render(buf); n != 256 {
		t.Fatalf("expected a full first block, got %d", n)
	}
	p.Stop()
	if n := p.Render(buf); n != 0 {
		t.Errorf("render after stop should produce 0 frames, got %d", n)
	}
}

// TestPlayerInitialPosition verifies the session starts at the
// configured seek point
func TestPlayerInitialPosition(t *testing.T) {
	tracks := []TrackRef{{}}
	song := &Song{
		Channels:     1,
		Patterns:     []Pattern{{Rows: 4, Channels: 1, Cells: make([]Cell, 4)}},
		Positions:    []Position{{Tracks: tracks}, {Tracks: tracks}},
		Instruments:  nil,
		DefaultSpeed: 6,
		DefaultTempo: 125,
	}
	cfg := quietConfig()
	cfg.InitialPosition = 1
	cfg.InitialRow = 2
	p, err := NewPlayer(song, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if pos, row := p.Position(); pos != 1 || row != 2 {
		t.Errorf("expected start at 1/2, got %d/%d", pos, row)
	}
	// Two rows remain: 12 ticks of 882 frames
	out := make([]float32, 2*30000)
	if n := p.Render(out); n != 12*882 {
		t.Errorf("expected %d frames from the seek point, got %d", 12*882, n)
	}
}

// TestPlayerInitialRowZeroAlwaysValid verifies row 0 starts even when
// the initial position's pattern references are all broken, which is
// recoverable content rather than a configuration error
func TestPlayerInitialRowZeroAlwaysValid(t *testing.T) {
	song := &Song{
		Channels:     1,
		Positions:    []Position{{Tracks: []TrackRef{{Pattern: 3}}}},
		DefaultSpeed: 6,
		DefaultTempo: 125,
	}
	if _, err := NewPlayer(song, quietConfig()); err != nil {
		t.Errorf("row 0 into a broken position should still start, got %v", err)
	}
}

// TestPlayerSharedSongIndependentSessions verifies two players over
// one Song render identical output without interfering
func TestPlayerSharedSongIndependentSessions(t *testing.T) {
	song := renderTestSong()
	p1, err := NewPlayer(song, quietConfig())
	if err != nil {
		t.Fatal(err)
	}
	p2, err := NewPlayer(song, quietConfig())
	if err != nil {
		t.Fatal(err)
	}

	a := make([]float32, 2*4096)
	b := make([]float32, 2*4096)
	p1.Render(a)
	p2.Render(b[:2*1024])
	p2.Render(b[2*1024:])

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between independent sessions", i)
		}
	}
}
