//go:build headless

// audio_backend_headless.go - no-op audio output for headless builds

package main

type AudioOutput struct {
	started bool
}

func NewAudioOutput(sampleRate int) (*AudioOutput, error) {
	return &AudioOutput{}, nil
}

func (ao *AudioOutput) Push(data []byte) {}

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
