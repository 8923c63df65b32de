// wav_writer.go - capture mixer output to a WAV file.

package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavWriter accumulates the per-frame mono sample batches in memory
// and writes a 16-bit mono WAV on Close. Suited to capturing bounded
// runs, not open-ended sessions.
type WavWriter struct {
	filename string
	buffer   []int
}

func NewWavWriter(filename string) *WavWriter {
	return &WavWriter{filename: filename}
}

// AppendFrame queues one frame's worth of mono samples.
func (w *WavWriter) AppendFrame(samples []int16) {
	for _, s := range samples {
		w.buffer = append(w.buffer, int(s))
	}
}

// Close writes the accumulated audio to disk.
func (w *WavWriter) Close() (rerr error) {
	f, err := os.Create(w.filename)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wav: %w", err)
		}
	}()

	enc := wav.NewEncoder(f, AudioSampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  AudioSampleRate,
		},
		Data:           w.buffer,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}
