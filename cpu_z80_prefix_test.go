package main

import "testing"

func TestZ80FDPrefixIYHIYL(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0xFD, 0x26, 0xA7, // LD IYH,0xA7
		0xFD, 0x2E, 0xC2, // LD IYL,0xC2
		0xFD, 0x54, // LD D,IYH
		0xFD, 0x5D, // LD E,IYL
		0xFD, 0x95, // SUB IYL
	})
	rig.cpu.A = 0xFF

	rig.cpu.Step()
	rig.cpu.Step()
	requireZ80EqualU16(t, "IY", rig.cpu.IY, 0xA7C2)

	rig.cpu.Step()
	requireZ80EqualU8(t, "D", rig.cpu.D, 0xA7)
	rig.cpu.Step()
	requireZ80EqualU8(t, "E", rig.cpu.E, 0xC2)

	rig.cpu.Step()
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x3D)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x2A)

	if rig.cpu.Cycles != 46 {
		t.Fatalf("Cycles = %d, want 46", rig.cpu.Cycles)
	}
}

func TestZ80FDPrefixFallbackOps(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0xFD, 0x00, // FD NOP
		0xFD, 0x04, // FD INC B: no H/L involved, plain INC
	})
	rig.cpu.B = 0x0F

	rig.cpu.Step()
	if rig.cpu.Cycles != 8 {
		t.Fatalf("Cycles = %d, want 8", rig.cpu.Cycles)
	}

	rig.cpu.Step()
	requireZ80EqualU8(t, "B", rig.cpu.B, 0x10)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x10)
	if rig.cpu.Cycles != 16 {
		t.Fatalf("Cycles = %d, want 16", rig.cpu.Cycles)
	}
}

func TestZ80IndexedMemoryViaIY(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0xFD, 0x5E, 0xFF, // LD E,(IY-1)
		0xFD, 0x72, 0xFF, // LD (IY-1),D
		0xFD, 0x8E, 0x00, // ADC A,(IY+0)
	})
	rig.cpu.IY = 0x8100
	rig.cpu.D = 0x99
	rig.cpu.A = 0x01
	rig.bus.mem[0x80FF] = 0x66
	rig.bus.mem[0x8100] = 0xFE
	rig.cpu.F = z80FlagC

	rig.cpu.Step()
	requireZ80EqualU8(t, "E", rig.cpu.E, 0x66)
	rig.cpu.Step()
	if rig.bus.mem[0x80FF] != 0x99 {
		t.Fatalf("mem[0x80FF] = %02X, want 99", rig.bus.mem[0x80FF])
	}

	// 0x01 + 0xFE + carry wraps to zero.
	rig.cpu.Step()
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x00)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x51)
	if rig.cpu.Cycles != 57 {
		t.Fatalf("Cycles = %d, want 57", rig.cpu.Cycles)
	}
}

func TestZ80ADDIXCarryHalf(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0xDD, 0x19, // ADD IX,DE
	})
	rig.cpu.IX = 0xFFFF
	rig.cpu.SetDE(0x0001)
	rig.cpu.F = z80FlagS

	rig.cpu.Step()

	requireZ80EqualU16(t, "IX", rig.cpu.IX, 0x0000)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x91)
	if rig.cpu.Cycles != 15 {
		t.Fatalf("Cycles = %d, want 15", rig.cpu.Cycles)
	}
}

func TestZ80IYHighLowIncDecWrap(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0xFD, 0x2C, // INC IYL
		0xFD, 0x25, // DEC IYH
	})
	rig.cpu.IY = 0xA7FF

	rig.cpu.Step()
	requireZ80EqualU16(t, "IY", rig.cpu.IY, 0xA700)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x50)

	rig.cpu.Step()
	requireZ80EqualU16(t, "IY", rig.cpu.IY, 0xA600)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0xA2)
	if rig.cpu.Cycles != 16 {
		t.Fatalf("Cycles = %d, want 16", rig.cpu.Cycles)
	}
}

func TestZ80DDMemoryUsesRealHL(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0xDD, 0x74, 0x03, // LD (IX+3),H
		0xDD, 0x6E, 0x03, // LD L,(IX+3)
	})
	rig.cpu.IX = 0x6100
	rig.cpu.H = 0xD4
	rig.cpu.L = 0x00

	rig.cpu.Step()
	if rig.bus.mem[0x6103] != 0xD4 {
		t.Fatalf("mem[0x6103] = %02X, want D4", rig.bus.mem[0x6103])
	}
	rig.cpu.Step()
	requireZ80EqualU8(t, "L", rig.cpu.L, 0xD4)
	if rig.cpu.Cycles != 38 {
		t.Fatalf("Cycles = %d, want 38", rig.cpu.Cycles)
	}
}

func TestZ80EXSPIYSwapsStack(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0xFD, 0xE3, // EX (SP),IY
	})
	rig.cpu.SP = 0xFDFC
	rig.bus.mem[0xFDFC] = 0x5A
	rig.bus.mem[0xFDFD] = 0x3C
	rig.cpu.IY = 0x1234

	rig.cpu.Step()

	requireZ80EqualU16(t, "IY", rig.cpu.IY, 0x3C5A)
	if rig.bus.mem[0xFDFC] != 0x34 || rig.bus.mem[0xFDFD] != 0x12 {
		t.Fatalf("stack = %02X %02X, want 34 12",
			rig.bus.mem[0xFDFC], rig.bus.mem[0xFDFD])
	}
	if rig.cpu.Cycles != 23 {
		t.Fatalf("Cycles = %d, want 23", rig.cpu.Cycles)
	}
}
