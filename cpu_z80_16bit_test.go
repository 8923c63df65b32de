package main

import "testing"

func TestZ80LD16ImmediatePairs(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0x01, 0x3C, 0x5C, // LD BC,0x5C3C
		0x11, 0x00, 0x40, // LD DE,0x4000
		0x21, 0x58, 0x27, // LD HL,0x2758
		0x31, 0xFF, 0x57, // LD SP,0x57FF
	})

	rig.cpu.Step()
	requireZ80EqualU16(t, "BC", rig.cpu.BC(), 0x5C3C)
	rig.cpu.Step()
	requireZ80EqualU16(t, "DE", rig.cpu.DE(), 0x4000)
	rig.cpu.Step()
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x2758)
	rig.cpu.Step()
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0x57FF)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x800C)
	if rig.cpu.Cycles != 40 {
		t.Fatalf("Cycles = %d, want 40", rig.cpu.Cycles)
	}
}

func TestZ80ADDHLFlagDetails(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0x09, // ADD HL,BC
		0x19, // ADD HL,DE
		0x39, // ADD HL,SP
	})
	rig.cpu.SetHL(0x0FFF)
	rig.cpu.SetBC(0x0001)
	rig.cpu.SetDE(0xF000)
	rig.cpu.SP = 0x8888
	rig.cpu.F = z80FlagZ

	// Bit 11 carry sets H; S, Z and PV ride through untouched.
	rig.cpu.Step()
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x1000)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x50)

	// 0x1000+0xF000 wraps: carry out, no half carry.
	rig.cpu.Step()
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x0000)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x41)

	// X/Y come from the high byte of the result.
	rig.cpu.Step()
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x8888)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x48)

	if rig.cpu.Cycles != 33 {
		t.Fatalf("Cycles = %d, want 33", rig.cpu.Cycles)
	}
}

func TestZ80IncDecPairsWrapAndFlags(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0x03, // INC BC
		0x3B, // DEC SP
		0x23, // INC HL
	})
	rig.cpu.SetBC(0xFFFF)
	rig.cpu.SP = 0x0000
	rig.cpu.SetHL(0x7FFF)
	rig.cpu.F = 0x5A

	rig.cpu.Step()
	requireZ80EqualU16(t, "BC", rig.cpu.BC(), 0x0000)
	rig.cpu.Step()
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0xFFFF)
	rig.cpu.Step()
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x8000)

	// 16-bit INC/DEC never touch flags.
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x5A)
	if rig.cpu.Cycles != 18 {
		t.Fatalf("Cycles = %d, want 18", rig.cpu.Cycles)
	}
}

func TestZ80PushPopTransfersPairs(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0xE5, // PUSH HL
		0xF5, // PUSH AF
		0xC1, // POP BC
		0xD1, // POP DE
	})
	rig.cpu.SetHL(0xABCD)
	rig.cpu.SetAF(0x55A4)
	rig.cpu.SP = 0xFF00

	rig.cpu.Step()
	rig.cpu.Step()
	if rig.cpu.SP != 0xFEFC {
		t.Fatalf("SP = 0x%04X, want 0xFEFC", rig.cpu.SP)
	}
	if rig.bus.mem[0xFEFE] != 0xCD || rig.bus.mem[0xFEFF] != 0xAB {
		t.Fatalf("stack = %02X %02X, want CD AB",
			rig.bus.mem[0xFEFE], rig.bus.mem[0xFEFF])
	}

	rig.cpu.Step()
	requireZ80EqualU16(t, "BC", rig.cpu.BC(), 0x55A4)
	rig.cpu.Step()
	requireZ80EqualU16(t, "DE", rig.cpu.DE(), 0xABCD)
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0xFF00)
	if rig.cpu.Cycles != 42 {
		t.Fatalf("Cycles = %d, want 42", rig.cpu.Cycles)
	}
}

func TestZ80LoadHLDirect(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0x22, 0x00, 0x5B, // LD (0x5B00),HL
		0x2A, 0x02, 0x5B, // LD HL,(0x5B02)
	})
	rig.cpu.SetHL(0xC0DE)
	rig.bus.mem[0x5B02] = 0x34
	rig.bus.mem[0x5B03] = 0x12

	rig.cpu.Step()
	if rig.bus.mem[0x5B00] != 0xDE || rig.bus.mem[0x5B01] != 0xC0 {
		t.Fatalf("mem = %02X %02X, want DE C0",
			rig.bus.mem[0x5B00], rig.bus.mem[0x5B01])
	}
	rig.cpu.Step()
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x1234)
	if rig.cpu.Cycles != 32 {
		t.Fatalf("Cycles = %d, want 32", rig.cpu.Cycles)
	}
}
