//go:build !headless

// audio_backend_oto.go - OTO v3 live audio output
// Pulls rendered blocks from a Player on the oto callback goroutine;
// the Player's own locking keeps the pull path safe.

package replay

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// AudioOutput plays a Player's output on the default audio device
type AudioOutput struct {
	ctx       *oto.Context
	player    *oto.Player
	source    atomic.Pointer[Player] // atomic for the lock-free Read() hot path
	sampleBuf []float32
	started   bool
	mutex     sync.Mutex
}

// NewAudioOutput opens a stereo float32 output context at the given rate
func NewAudioOutput(sampleRate int) (*AudioOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &AudioOutput{ctx: ctx}, nil
}

// SetSource attaches the playback session to pull from
func (ao *AudioOutput) SetSource(p *Player) {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	ao.source.Store(p)
	if ao.player == nil {
		ao.player = ao.ctx.NewPlayer(ao)
		ao.sampleBuf = make([]float32, 4096)
	}
}

// Read implements io.Reader for oto: little-endian float32 frames
func (ao *AudioOutput) Read(p []byte) (n int, err error) {
	src := ao.source.Load()
	numSamples := len(p) / 4
	if src == nil || numSamples == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	if len(ao.sampleBuf) < numSamples {
		ao.sampleBuf = make([]float32, numSamples)
	}
	samples := ao.sampleBuf[:numSamples]

	frames := src.Render(samples)
	for i := frames * 2; i < numSamples; i++ {
		samples[i] = 0
	}

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

// Start begins pulling audio
func (ao *AudioOutput) Start() {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	if !ao.started && ao.player != nil {
		ao.player.Play()
		ao.started = true
	}
}

// Stop halts output without tearing down the context
func (ao *AudioOutput) Stop() {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	if ao.started && ao.player != nil {
		ao.player.Close()
		ao.player = nil
		ao.started = false
	}
}

// Close releases the output device
func (ao *AudioOutput) Close() {
	ao.Stop()
}

// IsStarted reports whether audio is being pulled
func (ao *AudioOutput) IsStarted() bool {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()
	return ao.started
}
