// ula_engine_test.go - keyboard matrix, port 0xFE and floating bus tests.

package main

import "testing"

func newTestULA() (*ULAEngine, *MemoryBus) {
	mem := NewMemoryBus(Machine48K)
	return NewULAEngine(mem, TStatesPerFrame48K), mem
}

func TestULAReadIdleMatrix(t *testing.T) {
	u, _ := newTestULA()

	// All keys up, EAR high: bits 0-4 high, bit 6 high, 5 and 7 float
	// high.
	if got := u.ReadULA(0xFE, 1); got != 0xFF {
		t.Fatalf("ReadULA(0xFE, ear=1) = %02X, want FF", got)
	}
	if got := u.ReadULA(0xFE, 0); got != 0xBF {
		t.Fatalf("ReadULA(0xFE, ear=0) = %02X, want BF", got)
	}
}

func TestULAKeyDownSelectsRow(t *testing.T) {
	u, _ := newTestULA()
	u.KeyDown(0, 1) // Z

	// Row 0 is selected by A8 low.
	if got := u.ReadULA(0xFE, 1); got != 0xFD {
		t.Fatalf("row 0 read = %02X, want FD", got)
	}
	// A deselected row must not see the key.
	if got := u.ReadULA(0xFD, 1); got != 0xFF {
		t.Fatalf("row 1 read = %02X, want FF", got)
	}

	u.KeyUp(0, 1)
	if got := u.ReadULA(0xFE, 1); got != 0xFF {
		t.Fatalf("after KeyUp read = %02X, want FF", got)
	}
}

func TestULAMultipleRowsAND(t *testing.T) {
	u, _ := newTestULA()
	u.KeyDown(0, 0) // caps shift
	u.KeyDown(7, 1) // symbol shift

	// Selecting both rows at once ANDs their columns together.
	if got := u.ReadULA(0x7E, 1); got != 0xFC {
		t.Fatalf("combined read = %02X, want FC", got)
	}
}

func TestULAKeyRangeClamped(t *testing.T) {
	u, _ := newTestULA()
	u.KeyDown(8, 0)
	u.KeyDown(0, 5)
	u.KeyDown(-1, 0)
	for row := 0; row < 8; row++ {
		if u.keyboardRows[row] != 0xFF {
			t.Fatalf("row %d modified by out-of-range press", row)
		}
	}
}

func TestULABorderAndBeeperLatch(t *testing.T) {
	u, _ := newTestULA()
	u.WriteULA(0x15, 0, false) // border 5, beeper bit set

	if u.Border() != 5 {
		t.Fatalf("Border() = %d, want 5", u.Border())
	}
	if u.BeeperLevel() != 1 {
		t.Fatalf("BeeperLevel() = %d, want 1", u.BeeperLevel())
	}

	u.WriteULA(0x02, 0, false)
	if u.Border() != 2 || u.BeeperLevel() != 0 {
		t.Fatalf("Border()=%d BeeperLevel()=%d, want 2 and 0", u.Border(), u.BeeperLevel())
	}
}

func TestULABorderTraceDuringTape(t *testing.T) {
	u, _ := newTestULA()
	u.WriteULA(0x01, 0, false)
	u.StartFrame(true)

	// Mid-frame change while loading repaints from the current line down.
	changeLine := 100
	u.WriteULA(0x05, changeLine*TStatesPerLine, true)

	lines := u.BorderLines()
	if lines[0] != 1 {
		t.Fatalf("line 0 = %d, want 1", lines[0])
	}
	if lines[changeLine-1] != 1 {
		t.Fatalf("line %d = %d, want 1", changeLine-1, lines[changeLine-1])
	}
	if lines[changeLine] != 5 {
		t.Fatalf("line %d = %d, want 5", changeLine, lines[changeLine])
	}
	if lines[ScanlinesPerFrame-1] != 5 {
		t.Fatalf("last line = %d, want 5", lines[ScanlinesPerFrame-1])
	}
}

func TestULAFloatingBusFetchesBitmap(t *testing.T) {
	u, mem := newTestULA()
	mem.ScreenBank()[0] = 0x55
	mem.ScreenBank()[1] = 0xAA

	// First display line, first bitmap byte.
	start := FirstDisplayLine * TStatesPerLine
	if got := u.FloatingBus(start); got != 0x55 {
		t.Fatalf("FloatingBus(start) = %02X, want 55", got)
	}
	// Four T-states later the next byte is on the bus.
	if got := u.FloatingBus(start + 4); got != 0xAA {
		t.Fatalf("FloatingBus(start+4) = %02X, want AA", got)
	}
}

func TestULAFloatingBusOutsideDisplay(t *testing.T) {
	u, mem := newTestULA()
	mem.ScreenBank()[0] = 0x55

	// Top border: nothing fetched yet, the bus reads idle.
	if got := u.FloatingBus(0); got != 0xFF {
		t.Fatalf("FloatingBus(0) = %02X, want FF", got)
	}

	// After a display fetch the last value lingers into the border.
	u.FloatingBus(FirstDisplayLine * TStatesPerLine)
	if got := u.FloatingBus(0); got != 0x55 {
		t.Fatalf("lingering FloatingBus(0) = %02X, want 55", got)
	}

	u.ResetFloatingBus()
	if got := u.FloatingBus(0); got != 0xFF {
		t.Fatalf("after reset FloatingBus(0) = %02X, want FF", got)
	}
}

func TestULAFloatingBusScreenAddressing(t *testing.T) {
	u, mem := newTestULA()

	// Display line 8 maps to bitmap offset 256 in the interleaved
	// layout, not 8*32.
	y := 8
	mem.ScreenBank()[(y>>6)*2048+(y&7)*256+((y>>3)&7)*32] = 0x77
	tstate := (FirstDisplayLine + y) * TStatesPerLine
	if got := u.FloatingBus(tstate); got != 0x77 {
		t.Fatalf("FloatingBus(line 8) = %02X, want 77", got)
	}
}

func TestULAKempstonLatch(t *testing.T) {
	u, _ := newTestULA()
	if u.Kempston() != 0 {
		t.Fatalf("idle Kempston() = %02X, want 0", u.Kempston())
	}
	u.SetKempston(0x1C)
	if u.Kempston() != 0x1C {
		t.Fatalf("Kempston() = %02X, want 1C", u.Kempston())
	}
}

func TestULAResetRestoresIdle(t *testing.T) {
	u, _ := newTestULA()
	u.KeyDown(3, 2)
	u.WriteULA(0x17, 0, false)
	u.FloatingBus(FirstDisplayLine * TStatesPerLine)

	u.Reset()

	if got := u.ReadULA(0x00, 1); got != 0xFF {
		t.Fatalf("matrix read after reset = %02X, want FF", got)
	}
	if u.Border() != 0 || u.BeeperLevel() != 0 {
		t.Fatal("border or beeper survived reset")
	}
	if got := u.FloatingBus(0); got != 0xFF {
		t.Fatalf("floating bus after reset = %02X, want FF", got)
	}
}
