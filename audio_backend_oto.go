//go:build !headless

// audio_backend_oto.go - oto v3 audio output

package main

import (
	"sync"

	"github.com/ebitengine/oto/v3"
)

// audioRingSize holds roughly a quarter second of 44.1kHz stereo
// int16 audio, enough to ride out frame pacing jitter.
const audioRingSize = 64 * 1024

// AudioOutput plays the per-frame sample batches through oto. The
// machine thread pushes bytes, oto's mixer thread drains them from a
// ring; underruns play silence rather than blocking either side.
type AudioOutput struct {
	ctx    *oto.Context
	player *oto.Player

	mutex   sync.Mutex
	ring    [audioRingSize]byte
	head    int
	tail    int
	filled  int
	started bool
}

func NewAudioOutput(sampleRate int) (*AudioOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &AudioOutput{ctx: ctx}, nil
}

// Push queues one frame's worth of interleaved stereo int16 bytes.
// When the ring is full the oldest audio is dropped.
func (ao *AudioOutput) Push(data []byte) {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	for _, b := range data {
		if ao.filled == audioRingSize {
			ao.head = (ao.head + 1) % audioRingSize
			ao.filled--
		}
		ao.ring[ao.tail] = b
		ao.tail = (ao.tail + 1) % audioRingSize
		ao.filled++
	}
}

func (ao *AudioOutput) Read(p []byte) (n int, err error) {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	for i := range p {
		if ao.filled == 0 {
			p[i] = 0
			continue
		}
		p[i] = ao.ring[ao.head]
		ao.head = (ao.head + 1) % audioRingSize
		ao.filled--
	}
	return len(p), nil
}

func (ao *AudioOutput) Start() {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	if !ao.started {
		ao.player = ao.ctx.NewPlayer(ao)
		ao.player.Play()
		ao.started = true
	}
}

func (ao *AudioOutput) Stop() {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()

	if ao.started && ao.player != nil {
		ao.player.Close()
		ao.player = nil
		ao.started = false
	}
}

func (ao *AudioOutput) Close() {
	ao.Stop()
}

func (ao *AudioOutput) IsStarted() bool {
	ao.mutex.Lock()
	defer ao.mutex.Unlock()
	return ao.started
}
