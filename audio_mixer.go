// audio_mixer.go - beeper + PSG + tape monitor mixing at 44.1 kHz.

package main

// AudioMixer resamples the 3.5 MHz T-state stream down to the audio
// rate with a fixed-point phase accumulator, so the long-run sample
// rate is exact even though instructions vary in length. One frame's
// samples live in a fixed buffer the host drains before the next
// RunFrame.
type AudioMixer struct {
	psg       *PSGEngine
	ayEnabled bool

	phaseAccum uint64
	samples    [FrameSampleCap]int16
	sampleIdx  int

	beeperLevel bool

	tapeMonitor bool
	tapeAmp     int16
}

func NewAudioMixer(psg *PSGEngine, ayEnabled bool) *AudioMixer {
	return &AudioMixer{
		psg:         psg,
		ayEnabled:   ayEnabled,
		tapeMonitor: true,
		tapeAmp:     TapeMonitorAmp,
	}
}

func (x *AudioMixer) StartFrame() {
	x.sampleIdx = 0
}

func (x *AudioMixer) Reset() {
	x.phaseAccum = 0
	x.sampleIdx = 0
	x.beeperLevel = false
}

// Tick advances the PSG and emits however many samples fall inside
// the elapsed T-states.
func (x *AudioMixer) Tick(tstates int, beeperOn, tapeActive bool, ear byte) {
	if x.ayEnabled {
		x.psg.Tick(tstates)
	}
	x.beeperLevel = beeperOn

	x.phaseAccum += uint64(tstates) * AudioSampleRate
	for x.phaseAccum >= CPUClock {
		x.phaseAccum -= CPUClock

		if x.sampleIdx >= len(x.samples) {
			continue
		}

		var beeper int32 = -BeeperAmp
		if beeperOn {
			beeper = BeeperAmp
		}

		var ay int32
		if x.ayEnabled {
			ay = int32(x.psg.Sample())
		}

		var tape int32
		if x.tapeMonitor && tapeActive {
			tape = -int32(x.tapeAmp)
			if ear != 0 {
				tape = int32(x.tapeAmp)
			}
		}

		mixed := beeper + ay + tape
		if mixed > MixClipLevel {
			mixed = MixClipLevel
		}
		if mixed < -MixClipLevel {
			mixed = -MixClipLevel
		}
		x.samples[x.sampleIdx] = int16(mixed)
		x.sampleIdx++
	}
}

// Samples returns the mono frame buffer filled so far this frame.
func (x *AudioMixer) Samples() []int16 {
	return x.samples[:x.sampleIdx]
}
