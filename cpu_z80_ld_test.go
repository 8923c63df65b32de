package main

import "testing"

func TestZ80LD8RegisterMoves(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0x54, // LD D,H
		0x6B, // LD L,E
		0x78, // LD A,B
		0x4F, // LD C,A
	})
	rig.cpu.H = 0x11
	rig.cpu.E = 0x22
	rig.cpu.B = 0x33
	rig.cpu.F = 0xA5

	for i := 0; i < 4; i++ {
		rig.cpu.Step()
	}

	requireZ80EqualU8(t, "D", rig.cpu.D, 0x11)
	requireZ80EqualU8(t, "L", rig.cpu.L, 0x22)
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x33)
	requireZ80EqualU8(t, "C", rig.cpu.C, 0x33)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x8004)

	// Register moves never touch flags.
	requireZ80EqualU8(t, "F", rig.cpu.F, 0xA5)
	if rig.cpu.Cycles != 16 {
		t.Fatalf("Cycles = %d, want 16", rig.cpu.Cycles)
	}
}

func TestZ80LDThroughHL(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0x4E, // LD C,(HL)
		0x73, // LD (HL),E
	})
	rig.cpu.SetHL(0x4000)
	rig.cpu.E = 0x17
	rig.bus.mem[0x4000] = 0x9C

	rig.cpu.Step()
	requireZ80EqualU8(t, "C", rig.cpu.C, 0x9C)
	rig.cpu.Step()
	if rig.bus.mem[0x4000] != 0x17 {
		t.Fatalf("mem[0x4000] = 0x%02X, want 0x17", rig.bus.mem[0x4000])
	}
	if rig.cpu.Cycles != 14 {
		t.Fatalf("Cycles = %d, want 14", rig.cpu.Cycles)
	}
}

func TestZ80LDImmediateForms(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0x06, 0xF7, // LD B,0xF7
		0x36, 0x3D, // LD (HL),0x3D
	})
	rig.cpu.SetHL(0x5B00)

	rig.cpu.Step()
	requireZ80EqualU8(t, "B", rig.cpu.B, 0xF7)
	rig.cpu.Step()
	if rig.bus.mem[0x5B00] != 0x3D {
		t.Fatalf("mem[0x5B00] = 0x%02X, want 0x3D", rig.bus.mem[0x5B00])
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x8004)
	if rig.cpu.Cycles != 17 {
		t.Fatalf("Cycles = %d, want 17", rig.cpu.Cycles)
	}
}

func TestZ80LDADirect(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x8000, []byte{
		0x3A, 0x78, 0x5C, // LD A,(0x5C78)
		0x32, 0x7A, 0x5C, // LD (0x5C7A),A
	})
	rig.bus.mem[0x5C78] = 0xE4

	rig.cpu.Step()
	requireZ80EqualU8(t, "A", rig.cpu.A, 0xE4)
	rig.cpu.Step()
	if rig.bus.mem[0x5C7A] != 0xE4 {
		t.Fatalf("mem[0x5C7A] = 0x%02X, want 0xE4", rig.bus.mem[0x5C7A])
	}
	if rig.cpu.Cycles != 26 {
		t.Fatalf("Cycles = %d, want 26", rig.cpu.Cycles)
	}
}
