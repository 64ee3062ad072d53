//go:build headless

// audio_backend_headless.go - No-device stand-in for AudioOutput

package replay

type AudioOutput struct {
	started bool
	source  *Player
}

func NewAudioOutput(sampleRate int) (*AudioOutput, error) {
	return &AudioOutput{}, nil
}

func (ao *AudioOutput) SetSource(p *Player) {
	ao.source = p
}

func (ao *AudioOutput) Read(p []byte) (n int, err error) {
	return len(p), nil
}

func (ao *AudioOutput) Start() {
	ao.started = true
}

func (ao *AudioOutput) Stop() {
	ao.started = false
}

func (ao *AudioOutput) Close() {
	ao.started = false
}

func (ao *AudioOutput) IsStarted() bool {
	return ao.started
}
