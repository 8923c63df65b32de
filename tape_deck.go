// tape_deck.go - tape player pulse state machine feeding the EAR line.

package main

// Tape playback phases.
const (
	tapePhaseStop = iota
	tapePhasePilot
	tapePhaseSync1
	tapePhaseSync2
	tapePhaseData
	tapePhasePause
)

// TapeBlock is one playable block with its pulse timings. Zero timing
// fields fall back to the standard ROM loader values.
type TapeBlock struct {
	Data []byte

	PilotLen uint16
	Sync1Len uint16
	Sync2Len uint16
	Bit0Len  uint16
	Bit1Len  uint16

	PilotPulses  int
	UsedBitsLast byte
	PauseMS      uint16
	PauseDefined bool

	HasPilotSync bool
	IsTurbo      bool

	StartLevelSet bool
	StartLevel    byte
}

// TapeStatus is the host-visible playback state.
type TapeStatus struct {
	Loaded     bool
	Playing    bool
	BlockIndex int
	BlockCount int
}

// TapeDeck turns parsed tape blocks into the timed EAR pulse train the
// ROM loader measures. The ROM times edges, so pulse widths matter;
// levels toggle on every pulse boundary.
type TapeDeck struct {
	blocks []TapeBlock
	loaded bool

	playing bool

	blockIdx   int
	byteIdx    int
	bitIdx     int
	pulseInBit byte

	phase       int
	earLevel    byte
	tstatesRem  int
	pilotRem    int
	autostarted bool
}

func NewTapeDeck() *TapeDeck {
	return &TapeDeck{earLevel: 1}
}

// Load replaces the tape with freshly parsed blocks and rewinds. The
// EAR line sits low until playback starts.
func (d *TapeDeck) Load(blocks []TapeBlock) {
	d.blocks = blocks
	d.loaded = len(blocks) > 0
	d.playing = false
	d.Rewind()
	d.earLevel = 0
}

func (d *TapeDeck) Eject() {
	d.blocks = nil
	d.loaded = false
	d.playing = false
	d.Rewind()
}

func (d *TapeDeck) Rewind() {
	d.blockIdx = 0
	d.byteIdx = 0
	d.bitIdx = 0
	d.earLevel = 1
	d.tstatesRem = 0
	d.pilotRem = 0
	d.phase = tapePhaseStop
	d.pulseInBit = 0
	d.autostarted = false
}

func (d *TapeDeck) Play() {
	if d.loaded {
		d.playing = true
	}
}

func (d *TapeDeck) Stop() {
	d.playing = false
}

func (d *TapeDeck) Loaded() bool { return d.loaded }
func (d *TapeDeck) Active() bool { return d.playing && d.loaded }

// EarLevel is the current EAR line state. Idle tape reads high.
func (d *TapeDeck) EarLevel() byte { return d.earLevel }

// PulseRemaining reports T-states until the next edge, for callers
// that interleave tape and audio updates in sub-pulse chunks.
func (d *TapeDeck) PulseRemaining() int { return d.tstatesRem }

func (d *TapeDeck) Status() TapeStatus {
	return TapeStatus{
		Loaded:     d.loaded,
		Playing:    d.playing,
		BlockIndex: d.blockIdx,
		BlockCount: len(d.blocks),
	}
}

func (d *TapeDeck) block() *TapeBlock { return &d.blocks[d.blockIdx] }

func (d *TapeDeck) blockAtEnd() bool {
	if d.blockIdx >= len(d.blocks) {
		return true
	}
	b := d.block()
	used := int(b.UsedBitsLast)
	if used == 0 {
		used = 8
	}
	if len(b.Data) == 0 {
		return true
	}
	if d.byteIdx > len(b.Data)-1 {
		return true
	}
	if d.byteIdx == len(b.Data)-1 && d.bitIdx >= used {
		return true
	}
	return false
}

func (d *TapeDeck) currentBit() int {
	if d.blockIdx >= len(d.blocks) || d.blockAtEnd() {
		return 0
	}
	b := d.block().Data[d.byteIdx]
	return int(b>>(7-d.bitIdx)) & 1
}

func nz16(v, def uint16) int {
	if v != 0 {
		return int(v)
	}
	return int(def)
}

func (d *TapeDeck) bitPulse() int {
	b := d.block()
	if d.currentBit() != 0 {
		return nz16(b.Bit1Len, tapeBit1Len)
	}
	return nz16(b.Bit0Len, tapeBit0Len)
}

// startBlock primes playback of the current block. The first pulse
// toggles from the starting level.
func (d *TapeDeck) startBlock() {
	if d.blockIdx >= len(d.blocks) {
		d.playing = false
		d.phase = tapePhaseStop
		d.earLevel = 1
		return
	}

	b := d.block()
	d.byteIdx = 0
	d.bitIdx = 0
	d.pulseInBit = 0

	if b.StartLevelSet {
		d.earLevel = b.StartLevel & 1
	} else {
		d.earLevel = 1
	}

	// Pause-only block, or an explicit stop when the pause is zero.
	if len(b.Data) == 0 {
		if b.PauseMS > 0 {
			d.phase = tapePhasePause
			d.earLevel = 0
			d.tstatesRem = int(b.PauseMS) * 3500
		} else {
			d.playing = false
			d.phase = tapePhaseStop
			d.earLevel = 1
		}
		return
	}

	if !b.HasPilotSync {
		d.phase = tapePhaseData
		d.pulseInBit = 0
		d.tstatesRem = d.bitPulse()
		return
	}

	if b.IsTurbo {
		d.pilotRem = b.PilotPulses
	} else {
		// Standard blocks: header flag bytes get the long pilot.
		if b.Data[0] < 0x80 {
			d.pilotRem = tapePilotHeader
		} else {
			d.pilotRem = tapePilotData
		}
	}

	if d.pilotRem <= 0 {
		d.phase = tapePhaseSync1
		d.tstatesRem = nz16(b.Sync1Len, tapeSync1Len)
		return
	}

	d.phase = tapePhasePilot
	d.tstatesRem = nz16(b.PilotLen, tapePilotLen)
}

func (d *TapeDeck) advanceAfterPulse() {
	b := d.block()
	switch d.phase {
	case tapePhasePilot:
		d.pilotRem--
		if d.pilotRem <= 0 {
			d.phase = tapePhaseSync1
			d.tstatesRem = nz16(b.Sync1Len, tapeSync1Len)
		} else {
			d.tstatesRem = nz16(b.PilotLen, tapePilotLen)
		}

	case tapePhaseSync1:
		d.phase = tapePhaseSync2
		d.tstatesRem = nz16(b.Sync2Len, tapeSync2Len)

	case tapePhaseSync2:
		d.phase = tapePhaseData
		d.pulseInBit = 0
		d.tstatesRem = d.bitPulse()

	case tapePhaseData:
		// Two pulses per bit, MSB first.
		if d.pulseInBit == 0 {
			d.pulseInBit = 1
			d.tstatesRem = d.bitPulse()
			return
		}
		d.pulseInBit = 0
		d.bitIdx++
		used := int(b.UsedBitsLast)
		if used == 0 {
			used = 8
		}
		if d.byteIdx == len(b.Data)-1 {
			if d.bitIdx >= used {
				d.bitIdx = used
				d.byteIdx++
			}
		} else if d.bitIdx >= 8 {
			d.bitIdx = 0
			d.byteIdx++
		}

		if d.byteIdx >= len(b.Data) {
			d.phase = tapePhasePause
			if b.PauseDefined {
				// TZX pauses are explicit; zero means none.
				if b.PauseMS > 0 {
					d.earLevel = 0
				}
				d.tstatesRem = int(b.PauseMS) * 3500
			} else {
				// TAP has no pause field. A short gap between blocks
				// keeps the loader responsive; a full second follows
				// the final block.
				d.earLevel = 0
				if d.blockIdx+1 < len(d.blocks) {
					d.tstatesRem = tapeGapBetween
				} else {
					d.tstatesRem = tapeGapFinal
				}
			}
		} else {
			d.tstatesRem = d.bitPulse()
		}
	}
}

// Tick advances the pulse stream by tstates CPU cycles, crossing as
// many edges, blocks and pauses as fit.
func (d *TapeDeck) Tick(tstates int) {
	if !d.Active() {
		return
	}

	// Kick the state machine once when playback starts mid-run so the
	// stream begins at a block boundary.
	if !d.autostarted {
		d.autostarted = true
		if d.phase == tapePhaseStop {
			d.startBlock()
		}
	}

	for tstates > 0 {
		if d.phase == tapePhaseStop {
			d.startBlock()
			if d.phase == tapePhaseStop {
				return
			}
		}

		if d.phase == tapePhasePause {
			if tstates < d.tstatesRem {
				d.tstatesRem -= tstates
				return
			}
			tstates -= d.tstatesRem
			d.tstatesRem = 0
			d.blockIdx++
			d.startBlock()
			continue
		}

		if d.tstatesRem <= 0 {
			d.tstatesRem = 1
		}

		if tstates < d.tstatesRem {
			d.tstatesRem -= tstates
			return
		}

		tstates -= d.tstatesRem
		d.tstatesRem = 0
		d.earLevel ^= 1
		d.advanceAfterPulse()
	}
}
