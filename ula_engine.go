// ula_engine.go - ULA port, keyboard matrix, border and floating bus.

package main

// ULAEngine models the uncommitted logic array: the keyboard matrix
// read through port 0xFE, the border colour and beeper latch written
// there, and the floating bus seen on unmapped port reads.
type ULAEngine struct {
	mem          *MemoryBus
	frameTStates int

	keyboardRows [8]byte
	kempston     byte

	border      byte
	beeperLevel byte

	// Per-scanline border trace, maintained while the tape runs so the
	// host can draw loading stripes.
	borderLines [ScanlinesPerFrame]byte

	floatingLast byte
}

func NewULAEngine(mem *MemoryBus, frameTStates int) *ULAEngine {
	u := &ULAEngine{mem: mem, frameTStates: frameTStates}
	for i := range u.keyboardRows {
		u.keyboardRows[i] = 0xFF
	}
	u.floatingLast = 0xFF
	return u
}

func (u *ULAEngine) Reset() {
	for i := range u.keyboardRows {
		u.keyboardRows[i] = 0xFF
	}
	u.border = 0
	u.beeperLevel = 0
	u.floatingLast = 0xFF
}

// ReadULA assembles a port 0xFE read: half-row selects come in on the
// high address byte (active low), EAR is bit 6, bits 5 and 7 float
// high.
func (u *ULAEngine) ReadULA(high byte, ear byte) byte {
	result := byte(0xFF)
	for row := 0; row < 8; row++ {
		if high&(1<<row) == 0 {
			result &= u.keyboardRows[row]
		}
	}
	result |= 0xA0
	if ear != 0 {
		result |= 0x40
	} else {
		result &^= 0x40
	}
	return result
}

// WriteULA latches border colour and beeper level. While the tape is
// running a border change repaints the scanline trace from the current
// raster position down.
func (u *ULAEngine) WriteULA(v byte, tstates int, tapeActive bool) {
	newBorder := v & 7
	u.beeperLevel = (v >> 4) & 1
	if tapeActive && newBorder != u.border {
		line := tstates / TStatesPerLine
		if line < 0 {
			line = 0
		}
		for ; line < ScanlinesPerFrame; line++ {
			u.borderLines[line] = newBorder
		}
	}
	u.border = newBorder
}

// StartFrame seeds the border trace for a new frame.
func (u *ULAEngine) StartFrame(tapeActive bool) {
	if tapeActive {
		for i := range u.borderLines {
			u.borderLines[i] = u.border
		}
	}
}

// FloatingBus approximates the value the ULA leaves on the data bus.
// During the display area it is the bitmap byte being fetched for the
// current T-state; outside it the last fetched value lingers.
func (u *ULAEngine) FloatingBus(tstates int) byte {
	t := tstates % u.frameTStates
	if t < 0 {
		t += u.frameTStates
	}
	line := t / TStatesPerLine
	if line < FirstDisplayLine || line >= FirstDisplayLine+DisplayLines {
		return u.floatingLast
	}
	byteX := (t % TStatesPerLine) / 4
	if byteX >= 32 {
		return u.floatingLast
	}
	y := line - FirstDisplayLine
	offset := (y>>6)*2048 + (y&7)*256 + ((y>>3)&7)*32 + byteX
	v := u.mem.ScreenBank()[offset]
	u.floatingLast = v
	return v
}

func (u *ULAEngine) ResetFloatingBus() { u.floatingLast = 0xFF }

// KeyDown presses a key: row 0-7 of the matrix, bit 0-4 within it.
func (u *ULAEngine) KeyDown(row, bit int) {
	if row < 0 || row > 7 || bit < 0 || bit > 4 {
		return
	}
	u.keyboardRows[row] &^= 1 << bit
}

func (u *ULAEngine) KeyUp(row, bit int) {
	if row < 0 || row > 7 || bit < 0 || bit > 4 {
		return
	}
	u.keyboardRows[row] |= 1 << bit
}

func (u *ULAEngine) SetKempston(v byte) { u.kempston = v }
func (u *ULAEngine) Kempston() byte     { return u.kempston }

func (u *ULAEngine) Border() byte       { return u.border }
func (u *ULAEngine) BeeperLevel() byte  { return u.beeperLevel }
func (u *ULAEngine) BorderLines() []byte {
	return u.borderLines[:]
}
