// snapshot_codec.go - .z80 snapshot load (v1/v2/v3) and save.

package main

import "fmt"

// Hardware byte values in the v2/v3 extended header.
const (
	z80Hw48K   = 0
	z80Hw128K  = 4
	z80HwPlus2 = 12
)

func wr16le(p []byte, v uint16) {
	p[0] = byte(v)
	p[1] = byte(v >> 8)
}

// z80RLEDecompress expands the ED ED count value scheme into exactly
// outLen bytes. Legacy (v1) streams additionally end at the
// 00 ED ED 00 marker. Reports whether the output filled completely.
func z80RLEDecompress(in []byte, outLen int, v1 bool) ([]byte, bool) {
	out := make([]byte, 0, outLen)
	i := 0
	for i < len(in) && len(out) < outLen {
		if v1 && in[i] == 0x00 && i+3 < len(in) &&
			in[i+1] == 0xED && in[i+2] == 0xED && in[i+3] == 0x00 {
			break
		}
		if in[i] == 0xED && i+3 < len(in) && in[i+1] == 0xED {
			count := int(in[i+2])
			val := in[i+3]
			i += 4
			for k := 0; k < count && len(out) < outLen; k++ {
				out = append(out, val)
			}
			continue
		}
		out = append(out, in[i])
		i++
	}
	return out, len(out) == outLen
}

// z80RLECompress encodes a page with the snapshot RLE scheme: runs of
// five or more repeat under the ED ED escape, runs of two or more for
// 0xED itself, and a lone 0xED always carries its next byte verbatim.
func z80RLECompress(src []byte) []byte {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		b := src[i]
		run := 1
		for i+run < len(src) && src[i+run] == b && run < 255 {
			run++
		}
		switch {
		case b == 0xED && run >= 2:
			out = append(out, 0xED, 0xED, byte(run), b)
			i += run
		case b == 0xED:
			out = append(out, 0xED)
			i++
			if i < len(src) {
				out = append(out, src[i])
				i++
			}
		case run >= 5:
			out = append(out, 0xED, 0xED, byte(run), b)
			i += run
		default:
			for k := 0; k < run; k++ {
				out = append(out, b)
			}
			i += run
		}
	}
	return out
}

// z80Snapshot is a fully parsed image, decoded before anything touches
// the running machine so a malformed file leaves it untouched.
type z80Snapshot struct {
	a, f, b, c, d, e, h, l         byte
	a2, f2, b2, c2, d2, e2, h2, l2 byte
	ix, iy, sp, pc                 uint16
	i, r                           byte
	im                             byte
	iff1, iff2                     bool
	border                         byte

	model    int
	port7FFD byte

	hasAY  bool
	ayRegs [16]byte
	aySel  byte

	// page id -> 16K image
	pages map[byte][]byte
}

func parseZ80Snapshot(buf []byte) (*z80Snapshot, error) {
	if len(buf) < 30 {
		return nil, fmt.Errorf("invalid Z80 snapshot: too small")
	}

	s := &z80Snapshot{pages: make(map[byte][]byte)}

	pcV1 := uint16(buf[6]) | uint16(buf[7])<<8
	flags12 := buf[12]
	if flags12 == 255 {
		flags12 = 1
	}

	s.a, s.f = buf[0], buf[1]
	s.c, s.b = buf[2], buf[3]
	s.l, s.h = buf[4], buf[5]
	s.sp = uint16(buf[8]) | uint16(buf[9])<<8
	s.i = buf[10]
	s.r = buf[11] & 0x7F
	if flags12&0x01 != 0 {
		s.r |= 0x80
	}
	s.border = flags12 >> 1 & 0x07
	s.e, s.d = buf[13], buf[14]
	s.c2, s.b2 = buf[15], buf[16]
	s.e2, s.d2 = buf[17], buf[18]
	s.l2, s.h2 = buf[19], buf[20]
	s.a2, s.f2 = buf[21], buf[22]
	s.iy = uint16(buf[23]) | uint16(buf[24])<<8
	s.ix = uint16(buf[25]) | uint16(buf[26])<<8
	s.iff1 = buf[27] != 0
	s.iff2 = buf[28] != 0
	s.im = buf[29] & 0x03

	if pcV1 != 0 {
		// Version 1: flat 48K image after the header.
		s.model = Machine48K
		s.pc = pcV1
		mem := buf[30:]
		var ram []byte
		if flags12&0x20 != 0 {
			var ok bool
			ram, ok = z80RLEDecompress(mem, 3*BankSize, true)
			if !ok {
				return nil, fmt.Errorf("invalid Z80 v1 snapshot: decompression failed")
			}
		} else {
			if len(mem) < 3*BankSize {
				return nil, fmt.Errorf("invalid Z80 v1 snapshot: truncated RAM image")
			}
			ram = mem[:3*BankSize]
		}
		s.pages[8] = ram[:BankSize]
		s.pages[4] = ram[BankSize : 2*BankSize]
		s.pages[5] = ram[2*BankSize:]
		return s, nil
	}

	// Version 2/3: extended header then page blocks.
	if len(buf) < 32 {
		return nil, fmt.Errorf("invalid Z80 snapshot: missing extended header")
	}
	extLen := int(buf[30]) | int(buf[31])<<8
	if len(buf) < 32+extLen {
		return nil, fmt.Errorf("invalid Z80 snapshot: truncated extended header")
	}
	ext := buf[32 : 32+extLen]
	s.pc = uint16(ext[0]) | uint16(ext[1])<<8

	var hw byte
	if extLen >= 3 {
		hw = ext[2]
	}
	switch hw {
	case 0, 1:
		s.model = Machine48K
	case z80HwPlus2:
		s.model = MachinePlus2
	default:
		s.model = Machine128K
	}

	if extLen >= 4 {
		s.port7FFD = ext[3]
	}
	if s.model != Machine48K && extLen >= 23 {
		s.hasAY = true
		s.aySel = ext[6] & 0x0F
		copy(s.ayRegs[:], ext[7:23])
	}

	pos := 32 + extLen
	for pos+3 <= len(buf) {
		blen := int(buf[pos]) | int(buf[pos+1])<<8
		page := buf[pos+2]
		pos += 3

		var blk []byte
		if blen == 0xFFFF {
			if pos+BankSize > len(buf) {
				return nil, fmt.Errorf("invalid Z80 snapshot: truncated uncompressed block")
			}
			blk = buf[pos : pos+BankSize]
			pos += BankSize
		} else {
			if pos+blen > len(buf) {
				return nil, fmt.Errorf("invalid Z80 snapshot: truncated compressed block")
			}
			var ok bool
			blk, ok = z80RLEDecompress(buf[pos:pos+blen], BankSize, false)
			if !ok {
				return nil, fmt.Errorf("invalid Z80 snapshot: block decompression failed")
			}
			pos += blen
		}
		s.pages[page] = blk
	}

	return s, nil
}

// bankForPage maps a snapshot page id to a RAM bank for the detected
// model; ok is false for pages that have no RAM home (ROM pages).
func bankForPage(model int, page byte) (int, bool) {
	if model == Machine48K {
		switch page {
		case 8:
			return 5, true
		case 4:
			return 2, true
		case 5:
			return 0, true
		}
		return 0, false
	}
	if page >= 3 && page <= 10 {
		return int(page - 3), true
	}
	return 0, false
}

// LoadSnapshot restores a .z80 image, switching machine model to match
// the file. The machine is untouched when the image is malformed.
func (m *Machine) LoadSnapshot(data []byte) error {
	s, err := parseZ80Snapshot(data)
	if err != nil {
		return err
	}

	applied := false
	for page := range s.pages {
		if _, ok := bankForPage(s.model, page); ok {
			applied = true
			break
		}
	}
	if !applied {
		return fmt.Errorf("invalid Z80 snapshot: no memory blocks")
	}

	m.setModel(s.model)

	cpu := m.cpu
	cpu.A, cpu.F = s.a, s.f
	cpu.B, cpu.C = s.b, s.c
	cpu.D, cpu.E = s.d, s.e
	cpu.H, cpu.L = s.h, s.l
	cpu.A2, cpu.F2 = s.a2, s.f2
	cpu.B2, cpu.C2 = s.b2, s.c2
	cpu.D2, cpu.E2 = s.d2, s.e2
	cpu.H2, cpu.L2 = s.h2, s.l2
	cpu.IX, cpu.IY = s.ix, s.iy
	cpu.SP, cpu.PC = s.sp, s.pc
	cpu.I, cpu.R = s.i, s.r
	cpu.IM = s.im
	cpu.IFF1, cpu.IFF2 = s.iff1, s.iff2
	cpu.Halted = false
	cpu.EIDelay = 0

	m.ClearInterruptVector()

	if s.model == Machine48K {
		m.mem.SetPagingState(0, false)
	} else {
		m.mem.SetPagingState(s.port7FFD, s.port7FFD&0x20 != 0)
	}

	for page, blk := range s.pages {
		if bank, ok := bankForPage(s.model, page); ok {
			copy(m.mem.RAMBank(bank)[:], blk)
		}
	}

	m.psg.Reset()
	if s.hasAY {
		m.psg.LoadState(s.ayRegs, s.aySel)
	}

	m.ula.border = s.border
	m.snapshotCleanupRuntime()
	return nil
}

// snapshotCleanupRuntime resets the transient run state after a load:
// frame clock, audio, floating bus, PSG generators; the tape rewinds
// but keeps its blocks.
func (m *Machine) snapshotCleanupRuntime() {
	m.tstates = 0
	m.mem.MarkDirty()
	m.mixer.Reset()
	m.ula.beeperLevel = 0
	m.ula.ResetFloatingBus()
	m.psg.ResetGenerators()
	m.tape.Stop()
	m.tape.Rewind()
}

// SaveSnapshot serializes the machine as a v3 .z80 image. Pages are
// RLE-compressed when that wins, raw with the 0xFFFF sentinel
// otherwise; compress=false forces raw blocks throughout.
func (m *Machine) SaveSnapshot(compress bool) []byte {
	cpu := m.cpu

	hdr := make([]byte, 30)
	hdr[0], hdr[1] = cpu.A, cpu.F
	hdr[2], hdr[3] = cpu.C, cpu.B
	hdr[4], hdr[5] = cpu.L, cpu.H
	// PC bytes stay zero: v2/v3 marker.
	wr16le(hdr[8:], cpu.SP)
	hdr[10] = cpu.I
	hdr[11] = cpu.R & 0x7F
	flags12 := cpu.R >> 7 & 0x01
	flags12 |= (m.ula.Border() & 0x07) << 1
	hdr[12] = flags12
	hdr[13], hdr[14] = cpu.E, cpu.D
	hdr[15], hdr[16] = cpu.C2, cpu.B2
	hdr[17], hdr[18] = cpu.E2, cpu.D2
	hdr[19], hdr[20] = cpu.L2, cpu.H2
	hdr[21], hdr[22] = cpu.A2, cpu.F2
	wr16le(hdr[23:], cpu.IY)
	wr16le(hdr[25:], cpu.IX)
	if cpu.IFF1 {
		hdr[27] = 1
	}
	if cpu.IFF2 {
		hdr[28] = 1
	}
	hdr[29] = cpu.IM & 0x03

	ext := make([]byte, 54)
	wr16le(ext[0:], cpu.PC)
	switch m.model {
	case Machine128K:
		ext[2] = z80Hw128K
	case MachinePlus2:
		ext[2] = z80HwPlus2
	default:
		ext[2] = z80Hw48K
	}
	if m.model != Machine48K {
		ext[3] = m.mem.PagingPort()
		ext[5] |= 0x04
	}
	ay := m.psg.State()
	ext[6] = ay.Selected
	copy(ext[7:23], ay.Regs[:])

	out := make([]byte, 0, 3*len(hdr)+9*BankSize)
	out = append(out, hdr...)
	var extLen [2]byte
	wr16le(extLen[:], uint16(len(ext)))
	out = append(out, extLen[:]...)
	out = append(out, ext...)

	appendPage := func(page byte, bank int) {
		data := m.mem.RAMBank(bank)[:]
		if compress {
			if packed := z80RLECompress(data); len(packed) < BankSize {
				var bh [3]byte
				wr16le(bh[:], uint16(len(packed)))
				bh[2] = page
				out = append(out, bh[:]...)
				out = append(out, packed...)
				return
			}
		}
		out = append(out, 0xFF, 0xFF, page)
		out = append(out, data...)
	}

	if m.model == Machine48K {
		appendPage(8, 5)
		appendPage(4, 2)
		appendPage(5, 0)
	} else {
		for bank := 0; bank < RAMBanks; bank++ {
			appendPage(byte(3+bank), bank)
		}
	}
	return out
}
