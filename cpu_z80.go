// cpu_z80.go - cycle-timed Z80 interpreter.

package main

// Z80Bus is the CPU's window onto memory and I/O. IntVector supplies
// the byte the data bus carries during an IM2 interrupt acknowledge.
type Z80Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
	In(port uint16) byte
	Out(port uint16, value byte)
	IntVector() byte
}

type CPU_Z80 struct {
	A byte
	F byte
	B byte
	C byte
	D byte
	E byte
	H byte
	L byte

	A2 byte
	F2 byte
	B2 byte
	C2 byte
	D2 byte
	E2 byte
	H2 byte
	L2 byte

	IX uint16
	IY uint16
	SP uint16
	PC uint16

	I  byte
	R  byte
	IM byte
	WZ uint16

	IFF1 bool
	IFF2 bool

	Halted bool

	// EIDelay counts instructions until interrupts re-enable; the
	// last-opcode guard keeps back-to-back EIs from resolving early.
	EIDelay    int
	LastOpcode byte

	// Cycles accumulates total T-states executed. Hosts that drive a
	// frame clock use Step's return value instead.
	Cycles uint64

	bus Z80Bus

	baseOps [256]func(*CPU_Z80) int
	cbOps   [256]func(*CPU_Z80) int
	edOps   [256]func(*CPU_Z80) int

	// Non-nil while a DD/FD opcode executes through the base table,
	// routing H/L register codes to the index halves.
	index *uint16
}

const (
	z80FlagS  = 0x80
	z80FlagZ  = 0x40
	z80FlagY  = 0x20
	z80FlagH  = 0x10
	z80FlagX  = 0x08
	z80FlagPV = 0x04
	z80FlagN  = 0x02
	z80FlagC  = 0x01
)

func NewCPU_Z80(bus Z80Bus) *CPU_Z80 {
	cpu := &CPU_Z80{bus: bus}
	cpu.initBaseOps()
	cpu.initCBOps()
	cpu.initEDOps()
	cpu.Reset()
	return cpu
}

// Reset restores the post-power-on register state.
func (c *CPU_Z80) Reset() {
	c.A, c.F = 0xFF, 0xFF
	c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = 0, 0, 0, 0, 0, 0, 0, 0
	c.IX, c.IY = 0, 0
	c.SP = 0xFFFF
	c.PC = 0
	c.I, c.R = 0, 0
	c.IM = 0
	c.WZ = 0
	c.IFF1, c.IFF2 = false, false
	c.Halted = false
	c.EIDelay = 0
	c.LastOpcode = 0
	c.Cycles = 0
	c.index = nil
}

// Step executes one instruction and returns the T-states it consumed.
// A halted CPU burns 4 T-states per call without fetching.
func (c *CPU_Z80) Step() int {
	if c.Halted {
		c.incR()
		c.Cycles += 4
		return 4
	}
	op := c.fetchOpcode()
	c.LastOpcode = op
	t := c.baseOps[op](c)
	c.Cycles += uint64(t)
	return t
}

// FinishInstruction resolves a pending EI delay. Called once per Step
// after the instruction's side effects have been applied; skipped when
// the instruction just executed was EI itself.
func (c *CPU_Z80) FinishInstruction() {
	if c.EIDelay > 0 && c.LastOpcode != 0xFB {
		c.EIDelay--
		if c.EIDelay == 0 {
			c.IFF1, c.IFF2 = true, true
		}
	}
}

// RaiseMaskableInterrupt delivers a maskable interrupt. HALT ends
// regardless of IFF1; the interrupt is serviced only when IFF1 is set,
// and acceptance clears IFF1 alone so RETN can restore it from IFF2.
// Returns the T-states consumed (0 when not serviced).
func (c *CPU_Z80) RaiseMaskableInterrupt() int {
	c.Halted = false
	if !c.IFF1 {
		return 0
	}
	c.IFF1 = false
	c.EIDelay = 0
	c.incR()

	switch c.IM {
	case 2:
		c.push16(c.PC)
		// Pointer high fetch wraps within the I page: (I:vec) and
		// (I:vec+1), never carrying into I+1.
		vec := c.bus.IntVector()
		base := uint16(c.I) << 8
		lo := c.bus.Read(base | uint16(vec))
		hi := c.bus.Read(base | uint16(vec+1))
		c.PC = uint16(lo) | uint16(hi)<<8
		c.WZ = c.PC
		c.Cycles += 19
		return 19
	default:
		// IM0 and IM1 both behave as RST 38h on this hardware.
		c.push16(c.PC)
		c.PC = 0x0038
		c.WZ = c.PC
		c.Cycles += 13
		return 13
	}
}

/* ----------------------------------------------------------------
 * Register access
 * ---------------------------------------------------------------- */

func (c *CPU_Z80) regAF() uint16 { return uint16(c.A)<<8 | uint16(c.F) }
func (c *CPU_Z80) regBC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU_Z80) regDE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU_Z80) regHL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }

func (c *CPU_Z80) setAF(v uint16) { c.A, c.F = byte(v>>8), byte(v) }
func (c *CPU_Z80) setBC(v uint16) { c.B, c.C = byte(v>>8), byte(v) }
func (c *CPU_Z80) setDE(v uint16) { c.D, c.E = byte(v>>8), byte(v) }
func (c *CPU_Z80) setHL(v uint16) { c.H, c.L = byte(v>>8), byte(v) }

// Pair accessors for hosts, debuggers and tests.
func (c *CPU_Z80) AF() uint16 { return c.regAF() }
func (c *CPU_Z80) BC() uint16 { return c.regBC() }
func (c *CPU_Z80) DE() uint16 { return c.regDE() }
func (c *CPU_Z80) HL() uint16 { return c.regHL() }

func (c *CPU_Z80) SetAF(v uint16) { c.setAF(v) }
func (c *CPU_Z80) SetBC(v uint16) { c.setBC(v) }
func (c *CPU_Z80) SetDE(v uint16) { c.setDE(v) }
func (c *CPU_Z80) SetHL(v uint16) { c.setHL(v) }

func (c *CPU_Z80) Flag(mask byte) bool { return c.F&mask != 0 }

func (c *CPU_Z80) SetFlag(mask byte, on bool) {
	if on {
		c.F |= mask
	} else {
		c.F &^= mask
	}
}

// ExAF swaps AF with its shadow pair, as EX AF,AF' does.
func (c *CPU_Z80) ExAF() {
	c.A, c.A2 = c.A2, c.A
	c.F, c.F2 = c.F2, c.F
}

// Exx swaps BC/DE/HL with their shadow set, as the EXX opcode does.
func (c *CPU_Z80) Exx() {
	c.B, c.B2 = c.B2, c.B
	c.C, c.C2 = c.C2, c.C
	c.D, c.D2 = c.D2, c.D
	c.E, c.E2 = c.E2, c.E
	c.H, c.H2 = c.H2, c.H
	c.L, c.L2 = c.L2, c.L
}

// readReg8 reads by Z80 register code 0-7 (6 excluded); codes 4 and 5
// resolve to the index-register halves while a DD/FD prefix is live.
func (c *CPU_Z80) readReg8(code int) byte {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		if c.index != nil {
			return byte(*c.index >> 8)
		}
		return c.H
	case 5:
		if c.index != nil {
			return byte(*c.index)
		}
		return c.L
	default:
		return c.A
	}
}

func (c *CPU_Z80) writeReg8(code int, v byte) {
	switch code {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		if c.index != nil {
			*c.index = *c.index&0x00FF | uint16(v)<<8
			return
		}
		c.H = v
	case 5:
		if c.index != nil {
			*c.index = *c.index&0xFF00 | uint16(v)
			return
		}
		c.L = v
	default:
		c.A = v
	}
}

// writeReg8Plain always targets the real register file (DDCB/FDCB
// register-copy forms).
func (c *CPU_Z80) writeReg8Plain(code int, v byte) {
	switch code {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	default:
		c.A = v
	}
}

/* ----------------------------------------------------------------
 * Fetch, stack and R
 * ---------------------------------------------------------------- */

func (c *CPU_Z80) incR() {
	c.R = c.R&0x80 | (c.R+1)&0x7F
}

func (c *CPU_Z80) fetchOpcode() byte {
	c.incR()
	op := c.bus.Read(c.PC)
	c.PC++
	return op
}

func (c *CPU_Z80) fetch8() byte {
	v := c.bus.Read(c.PC)
	c.PC++
	return v
}

func (c *CPU_Z80) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(lo) | uint16(hi)<<8
}

func (c *CPU_Z80) read16(addr uint16) uint16 {
	return uint16(c.bus.Read(addr)) | uint16(c.bus.Read(addr+1))<<8
}

func (c *CPU_Z80) write16(addr, v uint16) {
	c.bus.Write(addr, byte(v))
	c.bus.Write(addr+1, byte(v>>8))
}

func (c *CPU_Z80) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU_Z80) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

/* ----------------------------------------------------------------
 * Flag helpers
 * ---------------------------------------------------------------- */

var z80ParityTable [256]byte

func init() {
	for i := 0; i < 256; i++ {
		bits := 0
		for v := i; v != 0; v >>= 1 {
			bits += v & 1
		}
		if bits%2 == 0 {
			z80ParityTable[i] = z80FlagPV
		}
	}
}

func szFlags(v byte) byte {
	f := v & (z80FlagS | z80FlagX | z80FlagY)
	if v == 0 {
		f |= z80FlagZ
	}
	return f
}

func szpFlags(v byte) byte {
	return szFlags(v) | z80ParityTable[v]
}

/* ----------------------------------------------------------------
 * 8-bit ALU
 * ---------------------------------------------------------------- */

func (c *CPU_Z80) addA(b, carry byte) {
	r := uint16(c.A) + uint16(b) + uint16(carry)
	r8 := byte(r)
	f := szFlags(r8)
	if r > 0xFF {
		f |= z80FlagC
	}
	if (c.A^b^r8)&0x10 != 0 {
		f |= z80FlagH
	}
	if (c.A^b^0xFF)&(c.A^r8)&0x80 != 0 {
		f |= z80FlagPV
	}
	c.A, c.F = r8, f
}

// sub8 computes a-b-carry and sets flags; shared by SUB/SBC/CP/NEG.
func (c *CPU_Z80) sub8(a, b, carry byte) byte {
	r := uint16(a) - uint16(b) - uint16(carry)
	r8 := byte(r)
	f := szFlags(r8) | z80FlagN
	if r > 0xFF {
		f |= z80FlagC
	}
	if (a^b^r8)&0x10 != 0 {
		f |= z80FlagH
	}
	if (a^b)&(a^r8)&0x80 != 0 {
		f |= z80FlagPV
	}
	c.F = f
	return r8
}

func (c *CPU_Z80) subA(b, carry byte) { c.A = c.sub8(c.A, b, carry) }

// cpA is SUB without the store; the undocumented X/Y bits come from
// the operand rather than the result.
func (c *CPU_Z80) cpA(b byte) {
	c.sub8(c.A, b, 0)
	c.F = c.F&^(z80FlagX|z80FlagY) | b&(z80FlagX|z80FlagY)
}

func (c *CPU_Z80) andA(b byte) {
	c.A &= b
	c.F = szpFlags(c.A) | z80FlagH
}

func (c *CPU_Z80) xorA(b byte) {
	c.A ^= b
	c.F = szpFlags(c.A)
}

func (c *CPU_Z80) orA(b byte) {
	c.A |= b
	c.F = szpFlags(c.A)
}

func (c *CPU_Z80) inc8(v byte) byte {
	r := v + 1
	f := c.F&z80FlagC | szFlags(r)
	if v&0x0F == 0x0F {
		f |= z80FlagH
	}
	if v == 0x7F {
		f |= z80FlagPV
	}
	c.F = f
	return r
}

func (c *CPU_Z80) dec8(v byte) byte {
	r := v - 1
	f := c.F&z80FlagC | szFlags(r) | z80FlagN
	if v&0x0F == 0 {
		f |= z80FlagH
	}
	if v == 0x80 {
		f |= z80FlagPV
	}
	c.F = f
	return r
}

func (c *CPU_Z80) daa() {
	a := c.A
	var adjust byte
	f := c.F & z80FlagN
	if c.F&z80FlagH != 0 || a&0x0F > 9 {
		adjust |= 0x06
	}
	if c.F&z80FlagC != 0 || a > 0x99 {
		adjust |= 0x60
		f |= z80FlagC
	}
	var r byte
	if c.F&z80FlagN != 0 {
		r = a - adjust
	} else {
		r = a + adjust
	}
	if (a^r)&0x10 != 0 {
		f |= z80FlagH
	}
	c.A = r
	c.F = f | szpFlags(r)
}

/* ----------------------------------------------------------------
 * 16-bit ALU
 * ---------------------------------------------------------------- */

// add16 implements ADD HL/IX/IY,rr: S, Z and PV survive, half carry
// comes from bit 11.
func (c *CPU_Z80) add16(a, b uint16) uint16 {
	r := uint32(a) + uint32(b)
	f := c.F & (z80FlagS | z80FlagZ | z80FlagPV)
	if r > 0xFFFF {
		f |= z80FlagC
	}
	if (a^b^uint16(r))&0x0800 != 0 {
		f |= z80FlagH
	}
	f |= byte(r>>8) & (z80FlagX | z80FlagY)
	c.F = f
	c.WZ = a + 1
	return uint16(r)
}

func (c *CPU_Z80) adc16(a, b uint16) uint16 {
	carry := uint32(c.F & z80FlagC)
	r := uint32(a) + uint32(b) + carry
	r16 := uint16(r)
	var f byte
	if r16&0x8000 != 0 {
		f |= z80FlagS
	}
	if r16 == 0 {
		f |= z80FlagZ
	}
	if r > 0xFFFF {
		f |= z80FlagC
	}
	if (a^b^r16)&0x0800 != 0 {
		f |= z80FlagH
	}
	if (a^b^0xFFFF)&(a^r16)&0x8000 != 0 {
		f |= z80FlagPV
	}
	f |= byte(r16>>8) & (z80FlagX | z80FlagY)
	c.F = f
	c.WZ = a + 1
	return r16
}

func (c *CPU_Z80) sbc16(a, b uint16) uint16 {
	carry := uint32(c.F & z80FlagC)
	r := uint32(a) - uint32(b) - carry
	r16 := uint16(r)
	f := byte(z80FlagN)
	if r16&0x8000 != 0 {
		f |= z80FlagS
	}
	if r16 == 0 {
		f |= z80FlagZ
	}
	if r > 0xFFFF {
		f |= z80FlagC
	}
	if (a^b^r16)&0x0800 != 0 {
		f |= z80FlagH
	}
	if (a^b)&(a^r16)&0x8000 != 0 {
		f |= z80FlagPV
	}
	f |= byte(r16>>8) & (z80FlagX | z80FlagY)
	c.F = f
	c.WZ = a + 1
	return r16
}

/* ----------------------------------------------------------------
 * Rotate / shift cores (CB family)
 * ---------------------------------------------------------------- */

func (c *CPU_Z80) rlc8(v byte) byte {
	r := v<<1 | v>>7
	c.F = szpFlags(r) | v>>7&z80FlagC
	return r
}

func (c *CPU_Z80) rrc8(v byte) byte {
	r := v>>1 | v<<7
	c.F = szpFlags(r) | v&z80FlagC
	return r
}

func (c *CPU_Z80) rl8(v byte) byte {
	r := v<<1 | c.F&z80FlagC
	c.F = szpFlags(r) | v>>7&z80FlagC
	return r
}

func (c *CPU_Z80) rr8(v byte) byte {
	r := v>>1 | c.F&z80FlagC<<7
	c.F = szpFlags(r) | v&z80FlagC
	return r
}

func (c *CPU_Z80) sla8(v byte) byte {
	r := v << 1
	c.F = szpFlags(r) | v>>7&z80FlagC
	return r
}

func (c *CPU_Z80) sra8(v byte) byte {
	r := v>>1 | v&0x80
	c.F = szpFlags(r) | v&z80FlagC
	return r
}

// sll8 is the undocumented shift that feeds a 1 into bit 0.
func (c *CPU_Z80) sll8(v byte) byte {
	r := v<<1 | 0x01
	c.F = szpFlags(r) | v>>7&z80FlagC
	return r
}

func (c *CPU_Z80) srl8(v byte) byte {
	r := v >> 1
	c.F = szpFlags(r) | v&z80FlagC
	return r
}

var z80RotOps = [8]func(*CPU_Z80, byte) byte{
	(*CPU_Z80).rlc8, (*CPU_Z80).rrc8,
	(*CPU_Z80).rl8, (*CPU_Z80).rr8,
	(*CPU_Z80).sla8, (*CPU_Z80).sra8,
	(*CPU_Z80).sll8, (*CPU_Z80).srl8,
}

// bitTest sets flags for BIT n; xy supplies the source of the
// undocumented X/Y bits (register value, or the internal address
// latch high byte for memory forms).
func (c *CPU_Z80) bitTest(n int, v, xy byte) {
	f := c.F&z80FlagC | z80FlagH
	if v&(1<<n) == 0 {
		f |= z80FlagZ | z80FlagPV
	} else if n == 7 {
		f |= z80FlagS
	}
	f |= xy & (z80FlagX | z80FlagY)
	c.F = f
}

/* ----------------------------------------------------------------
 * Condition codes
 * ---------------------------------------------------------------- */

var z80Conds = [8]func(*CPU_Z80) bool{
	func(c *CPU_Z80) bool { return c.F&z80FlagZ == 0 },  // NZ
	func(c *CPU_Z80) bool { return c.F&z80FlagZ != 0 },  // Z
	func(c *CPU_Z80) bool { return c.F&z80FlagC == 0 },  // NC
	func(c *CPU_Z80) bool { return c.F&z80FlagC != 0 },  // C
	func(c *CPU_Z80) bool { return c.F&z80FlagPV == 0 }, // PO
	func(c *CPU_Z80) bool { return c.F&z80FlagPV != 0 }, // PE
	func(c *CPU_Z80) bool { return c.F&z80FlagS == 0 },  // P
	func(c *CPU_Z80) bool { return c.F&z80FlagS != 0 },  // M
}

/* ----------------------------------------------------------------
 * Base opcode table
 * ---------------------------------------------------------------- */

var z80ALUOps = [8]func(*CPU_Z80, byte){
	func(c *CPU_Z80, v byte) { c.addA(v, 0) },
	func(c *CPU_Z80, v byte) { c.addA(v, c.F & z80FlagC) },
	func(c *CPU_Z80, v byte) { c.subA(v, 0) },
	func(c *CPU_Z80, v byte) { c.subA(v, c.F & z80FlagC) },
	(*CPU_Z80).andA,
	(*CPU_Z80).xorA,
	(*CPU_Z80).orA,
	(*CPU_Z80).cpA,
}

func (c *CPU_Z80) initBaseOps() {
	// LD r,r' block, including the (HL) forms.
	for op := 0x40; op < 0x80; op++ {
		if op == 0x76 {
			continue
		}
		dst := op >> 3 & 7
		src := op & 7
		switch {
		case dst == 6:
			c.baseOps[op] = func(c *CPU_Z80) int {
				c.bus.Write(c.regHL(), c.readReg8(src))
				return 7
			}
		case src == 6:
			c.baseOps[op] = func(c *CPU_Z80) int {
				c.writeReg8(dst, c.bus.Read(c.regHL()))
				return 7
			}
		default:
			c.baseOps[op] = func(c *CPU_Z80) int {
				c.writeReg8(dst, c.readReg8(src))
				return 4
			}
		}
	}

	// ALU A,r block.
	for op := 0x80; op < 0xC0; op++ {
		fn := z80ALUOps[op>>3&7]
		src := op & 7
		if src == 6 {
			c.baseOps[op] = func(c *CPU_Z80) int {
				fn(c, c.bus.Read(c.regHL()))
				return 7
			}
		} else {
			c.baseOps[op] = func(c *CPU_Z80) int {
				fn(c, c.readReg8(src))
				return 4
			}
		}
	}

	// ALU A,n immediates.
	for i := 0; i < 8; i++ {
		fn := z80ALUOps[i]
		c.baseOps[0xC6+i*8] = func(c *CPU_Z80) int {
			fn(c, c.fetch8())
			return 7
		}
	}

	// INC r / DEC r / LD r,n.
	for code := 0; code < 8; code++ {
		incOp := code<<3 | 4
		decOp := code<<3 | 5
		ldnOp := code<<3 | 6
		if code == 6 {
			c.baseOps[incOp] = func(c *CPU_Z80) int {
				addr := c.regHL()
				c.bus.Write(addr, c.inc8(c.bus.Read(addr)))
				return 11
			}
			c.baseOps[decOp] = func(c *CPU_Z80) int {
				addr := c.regHL()
				c.bus.Write(addr, c.dec8(c.bus.Read(addr)))
				return 11
			}
			c.baseOps[ldnOp] = func(c *CPU_Z80) int {
				c.bus.Write(c.regHL(), c.fetch8())
				return 10
			}
			continue
		}
		code := code
		c.baseOps[incOp] = func(c *CPU_Z80) int {
			c.writeReg8(code, c.inc8(c.readReg8(code)))
			return 4
		}
		c.baseOps[decOp] = func(c *CPU_Z80) int {
			c.writeReg8(code, c.dec8(c.readReg8(code)))
			return 4
		}
		c.baseOps[ldnOp] = func(c *CPU_Z80) int {
			c.writeReg8(code, c.fetch8())
			return 7
		}
	}

	// 16-bit pair ops: BC, DE, HL, SP.
	get16 := [4]func(*CPU_Z80) uint16{
		(*CPU_Z80).regBC, (*CPU_Z80).regDE, (*CPU_Z80).regHL,
		func(c *CPU_Z80) uint16 { return c.SP },
	}
	set16 := [4]func(*CPU_Z80, uint16){
		(*CPU_Z80).setBC, (*CPU_Z80).setDE, (*CPU_Z80).setHL,
		func(c *CPU_Z80, v uint16) { c.SP = v },
	}
	for i := 0; i < 4; i++ {
		get, set := get16[i], set16[i]
		c.baseOps[0x01|i<<4] = func(c *CPU_Z80) int {
			set(c, c.fetch16())
			return 10
		}
		c.baseOps[0x03|i<<4] = func(c *CPU_Z80) int {
			set(c, get(c)+1)
			return 6
		}
		c.baseOps[0x09|i<<4] = func(c *CPU_Z80) int {
			c.setHL(c.add16(c.regHL(), get(c)))
			return 11
		}
		c.baseOps[0x0B|i<<4] = func(c *CPU_Z80) int {
			set(c, get(c)-1)
			return 6
		}
	}

	// PUSH/POP: BC, DE, HL, AF.
	getPP := [4]func(*CPU_Z80) uint16{
		(*CPU_Z80).regBC, (*CPU_Z80).regDE, (*CPU_Z80).regHL, (*CPU_Z80).regAF,
	}
	setPP := [4]func(*CPU_Z80, uint16){
		(*CPU_Z80).setBC, (*CPU_Z80).setDE, (*CPU_Z80).setHL, (*CPU_Z80).setAF,
	}
	for i := 0; i < 4; i++ {
		get, set := getPP[i], setPP[i]
		c.baseOps[0xC5|i<<4] = func(c *CPU_Z80) int {
			c.push16(get(c))
			return 11
		}
		c.baseOps[0xC1|i<<4] = func(c *CPU_Z80) int {
			set(c, c.pop16())
			return 10
		}
	}

	// Conditional flow + RST.
	for cc := 0; cc < 8; cc++ {
		cond := z80Conds[cc]
		c.baseOps[0xC0|cc<<3] = func(c *CPU_Z80) int {
			if cond(c) {
				c.PC = c.pop16()
				c.WZ = c.PC
				return 11
			}
			return 5
		}
		c.baseOps[0xC2|cc<<3] = func(c *CPU_Z80) int {
			addr := c.fetch16()
			c.WZ = addr
			if cond(c) {
				c.PC = addr
			}
			return 10
		}
		c.baseOps[0xC4|cc<<3] = func(c *CPU_Z80) int {
			addr := c.fetch16()
			c.WZ = addr
			if cond(c) {
				c.push16(c.PC)
				c.PC = addr
				return 17
			}
			return 10
		}
		target := uint16(cc << 3)
		c.baseOps[0xC7|cc<<3] = func(c *CPU_Z80) int {
			c.push16(c.PC)
			c.PC = target
			c.WZ = c.PC
			return 11
		}
	}

	c.baseOps[0x00] = func(c *CPU_Z80) int { return 4 }

	c.baseOps[0x02] = func(c *CPU_Z80) int {
		c.bus.Write(c.regBC(), c.A)
		c.WZ = uint16(c.A)<<8 | (c.regBC()+1)&0xFF
		return 7
	}
	c.baseOps[0x0A] = func(c *CPU_Z80) int {
		c.A = c.bus.Read(c.regBC())
		c.WZ = c.regBC() + 1
		return 7
	}
	c.baseOps[0x12] = func(c *CPU_Z80) int {
		c.bus.Write(c.regDE(), c.A)
		c.WZ = uint16(c.A)<<8 | (c.regDE()+1)&0xFF
		return 7
	}
	c.baseOps[0x1A] = func(c *CPU_Z80) int {
		c.A = c.bus.Read(c.regDE())
		c.WZ = c.regDE() + 1
		return 7
	}

	c.baseOps[0x07] = func(c *CPU_Z80) int { // RLCA
		carry := c.A >> 7
		c.A = c.A<<1 | carry
		c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | carry | c.A&(z80FlagX|z80FlagY)
		return 4
	}
	c.baseOps[0x0F] = func(c *CPU_Z80) int { // RRCA
		carry := c.A & 1
		c.A = c.A>>1 | carry<<7
		c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | carry | c.A&(z80FlagX|z80FlagY)
		return 4
	}
	c.baseOps[0x17] = func(c *CPU_Z80) int { // RLA
		carry := c.A >> 7
		c.A = c.A<<1 | c.F&z80FlagC
		c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | carry | c.A&(z80FlagX|z80FlagY)
		return 4
	}
	c.baseOps[0x1F] = func(c *CPU_Z80) int { // RRA
		carry := c.A & 1
		c.A = c.A>>1 | c.F&z80FlagC<<7
		c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | carry | c.A&(z80FlagX|z80FlagY)
		return 4
	}

	c.baseOps[0x08] = func(c *CPU_Z80) int { // EX AF,AF'
		c.A, c.A2 = c.A2, c.A
		c.F, c.F2 = c.F2, c.F
		return 4
	}

	c.baseOps[0x10] = func(c *CPU_Z80) int { // DJNZ
		d := int8(c.fetch8())
		c.B--
		if c.B != 0 {
			c.PC += uint16(int16(d))
			c.WZ = c.PC
			return 13
		}
		return 8
	}
	c.baseOps[0x18] = func(c *CPU_Z80) int { // JR
		d := int8(c.fetch8())
		c.PC += uint16(int16(d))
		c.WZ = c.PC
		return 12
	}
	for i, cc := range [4]int{0, 1, 2, 3} { // JR NZ/Z/NC/C
		cond := z80Conds[cc]
		c.baseOps[0x20+i*8] = func(c *CPU_Z80) int {
			d := int8(c.fetch8())
			if cond(c) {
				c.PC += uint16(int16(d))
				c.WZ = c.PC
				return 12
			}
			return 7
		}
	}

	c.baseOps[0x22] = func(c *CPU_Z80) int { // LD (nn),HL
		addr := c.fetch16()
		c.write16(addr, c.regHL())
		c.WZ = addr + 1
		return 16
	}
	c.baseOps[0x2A] = func(c *CPU_Z80) int { // LD HL,(nn)
		addr := c.fetch16()
		c.setHL(c.read16(addr))
		c.WZ = addr + 1
		return 16
	}
	c.baseOps[0x32] = func(c *CPU_Z80) int { // LD (nn),A
		addr := c.fetch16()
		c.bus.Write(addr, c.A)
		c.WZ = uint16(c.A)<<8 | (addr+1)&0xFF
		return 13
	}
	c.baseOps[0x3A] = func(c *CPU_Z80) int { // LD A,(nn)
		addr := c.fetch16()
		c.A = c.bus.Read(addr)
		c.WZ = addr + 1
		return 13
	}

	c.baseOps[0x27] = func(c *CPU_Z80) int {
		c.daa()
		return 4
	}
	c.baseOps[0x2F] = func(c *CPU_Z80) int { // CPL
		c.A = ^c.A
		c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV|z80FlagC) |
			z80FlagH | z80FlagN | c.A&(z80FlagX|z80FlagY)
		return 4
	}
	c.baseOps[0x37] = func(c *CPU_Z80) int { // SCF
		c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | z80FlagC | c.A&(z80FlagX|z80FlagY)
		return 4
	}
	c.baseOps[0x3F] = func(c *CPU_Z80) int { // CCF
		f := c.F&(z80FlagS|z80FlagZ|z80FlagPV) | c.A&(z80FlagX|z80FlagY)
		if c.F&z80FlagC != 0 {
			f |= z80FlagH
		} else {
			f |= z80FlagC
		}
		c.F = f
		return 4
	}

	c.baseOps[0x76] = func(c *CPU_Z80) int { // HALT
		c.Halted = true
		return 4
	}

	c.baseOps[0xC3] = func(c *CPU_Z80) int { // JP nn
		c.PC = c.fetch16()
		c.WZ = c.PC
		return 10
	}
	c.baseOps[0xC9] = func(c *CPU_Z80) int { // RET
		c.PC = c.pop16()
		c.WZ = c.PC
		return 10
	}
	c.baseOps[0xCD] = func(c *CPU_Z80) int { // CALL nn
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		c.WZ = addr
		return 17
	}

	c.baseOps[0xD3] = func(c *CPU_Z80) int { // OUT (n),A
		port := uint16(c.A)<<8 | uint16(c.fetch8())
		c.bus.Out(port, c.A)
		return 11
	}
	c.baseOps[0xDB] = func(c *CPU_Z80) int { // IN A,(n)
		port := uint16(c.A)<<8 | uint16(c.fetch8())
		c.A = c.bus.In(port)
		c.WZ = port + 1
		return 11
	}

	c.baseOps[0xD9] = func(c *CPU_Z80) int { // EXX
		c.B, c.B2 = c.B2, c.B
		c.C, c.C2 = c.C2, c.C
		c.D, c.D2 = c.D2, c.D
		c.E, c.E2 = c.E2, c.E
		c.H, c.H2 = c.H2, c.H
		c.L, c.L2 = c.L2, c.L
		return 4
	}

	c.baseOps[0xE3] = func(c *CPU_Z80) int { // EX (SP),HL
		lo := c.bus.Read(c.SP)
		hi := c.bus.Read(c.SP + 1)
		c.bus.Write(c.SP, c.L)
		c.bus.Write(c.SP+1, c.H)
		c.L, c.H = lo, hi
		c.WZ = c.regHL()
		return 19
	}
	c.baseOps[0xE9] = func(c *CPU_Z80) int { // JP (HL)
		c.PC = c.regHL()
		return 4
	}
	c.baseOps[0xEB] = func(c *CPU_Z80) int { // EX DE,HL
		c.D, c.H = c.H, c.D
		c.E, c.L = c.L, c.E
		return 4
	}
	c.baseOps[0xF9] = func(c *CPU_Z80) int { // LD SP,HL
		c.SP = c.regHL()
		return 6
	}

	c.baseOps[0xF3] = func(c *CPU_Z80) int { // DI
		c.IFF1, c.IFF2 = false, false
		c.EIDelay = 0
		return 4
	}
	c.baseOps[0xFB] = func(c *CPU_Z80) int { // EI
		c.EIDelay = 1
		return 4
	}

	// Prefixes.
	c.baseOps[0xCB] = func(c *CPU_Z80) int {
		return c.cbOps[c.fetchOpcode()](c)
	}
	c.baseOps[0xED] = func(c *CPU_Z80) int {
		return c.edOps[c.fetchOpcode()](c)
	}
	c.baseOps[0xDD] = func(c *CPU_Z80) int {
		return c.executeIndex(&c.IX)
	}
	c.baseOps[0xFD] = func(c *CPU_Z80) int {
		return c.executeIndex(&c.IY)
	}
}

/* ----------------------------------------------------------------
 * CB table
 * ---------------------------------------------------------------- */

func (c *CPU_Z80) initCBOps() {
	for op := 0; op < 0x100; op++ {
		group := op >> 6
		n := op >> 3 & 7
		code := op & 7
		switch group {
		case 0: // rotate/shift
			rot := z80RotOps[n]
			if code == 6 {
				c.cbOps[op] = func(c *CPU_Z80) int {
					addr := c.regHL()
					c.bus.Write(addr, rot(c, c.bus.Read(addr)))
					return 15
				}
			} else {
				c.cbOps[op] = func(c *CPU_Z80) int {
					c.writeReg8Plain(code, rot(c, c.readReg8(code)))
					return 8
				}
			}
		case 1: // BIT
			if code == 6 {
				c.cbOps[op] = func(c *CPU_Z80) int {
					c.bitTest(n, c.bus.Read(c.regHL()), byte(c.WZ>>8))
					return 12
				}
			} else {
				c.cbOps[op] = func(c *CPU_Z80) int {
					v := c.readReg8(code)
					c.bitTest(n, v, v)
					return 8
				}
			}
		case 2: // RES
			mask := byte(1) << n
			if code == 6 {
				c.cbOps[op] = func(c *CPU_Z80) int {
					addr := c.regHL()
					c.bus.Write(addr, c.bus.Read(addr)&^mask)
					return 15
				}
			} else {
				c.cbOps[op] = func(c *CPU_Z80) int {
					c.writeReg8Plain(code, c.readReg8(code)&^mask)
					return 8
				}
			}
		default: // SET
			mask := byte(1) << n
			if code == 6 {
				c.cbOps[op] = func(c *CPU_Z80) int {
					addr := c.regHL()
					c.bus.Write(addr, c.bus.Read(addr)|mask)
					return 15
				}
			} else {
				c.cbOps[op] = func(c *CPU_Z80) int {
					c.writeReg8Plain(code, c.readReg8(code)|mask)
					return 8
				}
			}
		}
	}
}

/* ----------------------------------------------------------------
 * ED table
 * ---------------------------------------------------------------- */

func (c *CPU_Z80) initEDOps() {
	// Undefined ED opcodes behave as 8 T-state no-ops.
	for i := range c.edOps {
		c.edOps[i] = func(c *CPU_Z80) int { return 8 }
	}

	get16 := [4]func(*CPU_Z80) uint16{
		(*CPU_Z80).regBC, (*CPU_Z80).regDE, (*CPU_Z80).regHL,
		func(c *CPU_Z80) uint16 { return c.SP },
	}
	set16 := [4]func(*CPU_Z80, uint16){
		(*CPU_Z80).setBC, (*CPU_Z80).setDE, (*CPU_Z80).setHL,
		func(c *CPU_Z80, v uint16) { c.SP = v },
	}

	for i := 0; i < 4; i++ {
		get, set := get16[i], set16[i]
		c.edOps[0x42|i<<4] = func(c *CPU_Z80) int { // SBC HL,rr
			c.setHL(c.sbc16(c.regHL(), get(c)))
			return 15
		}
		c.edOps[0x4A|i<<4] = func(c *CPU_Z80) int { // ADC HL,rr
			c.setHL(c.adc16(c.regHL(), get(c)))
			return 15
		}
		c.edOps[0x43|i<<4] = func(c *CPU_Z80) int { // LD (nn),rr
			addr := c.fetch16()
			c.write16(addr, get(c))
			c.WZ = addr + 1
			return 20
		}
		c.edOps[0x4B|i<<4] = func(c *CPU_Z80) int { // LD rr,(nn)
			addr := c.fetch16()
			set(c, c.read16(addr))
			c.WZ = addr + 1
			return 20
		}
	}

	// IN r,(C) / OUT (C),r. ED 70 updates flags only; ED 71 outputs 0.
	for code := 0; code < 8; code++ {
		code := code
		c.edOps[0x40|code<<3] = func(c *CPU_Z80) int {
			v := c.bus.In(c.regBC())
			if code != 6 {
				c.writeReg8Plain(code, v)
			}
			c.F = c.F&z80FlagC | szpFlags(v)
			c.WZ = c.regBC() + 1
			return 12
		}
		c.edOps[0x41|code<<3] = func(c *CPU_Z80) int {
			v := byte(0)
			if code != 6 {
				v = c.readReg8(code)
			}
			c.bus.Out(c.regBC(), v)
			c.WZ = c.regBC() + 1
			return 12
		}
	}

	// NEG and its mirrors.
	neg := func(c *CPU_Z80) int {
		c.A = c.sub8(0, c.A, 0)
		return 8
	}
	for _, op := range []int{0x44, 0x4C, 0x54, 0x5C, 0x64, 0x6C, 0x74, 0x7C} {
		c.edOps[op] = neg
	}

	// RETN/RETI and mirrors: restore IFF1 from IFF2.
	retn := func(c *CPU_Z80) int {
		c.IFF1 = c.IFF2
		c.PC = c.pop16()
		c.WZ = c.PC
		return 14
	}
	for _, op := range []int{0x45, 0x4D, 0x55, 0x5D, 0x65, 0x6D, 0x75, 0x7D} {
		c.edOps[op] = retn
	}

	// IM 0/1/2 and mirrors.
	setIM := func(mode byte) func(*CPU_Z80) int {
		return func(c *CPU_Z80) int {
			c.IM = mode
			return 8
		}
	}
	for _, op := range []int{0x46, 0x4E, 0x66, 0x6E} {
		c.edOps[op] = setIM(0)
	}
	for _, op := range []int{0x56, 0x76} {
		c.edOps[op] = setIM(1)
	}
	for _, op := range []int{0x5E, 0x7E} {
		c.edOps[op] = setIM(2)
	}

	c.edOps[0x47] = func(c *CPU_Z80) int { // LD I,A
		c.I = c.A
		return 9
	}
	c.edOps[0x4F] = func(c *CPU_Z80) int { // LD R,A
		c.R = c.A
		return 9
	}
	c.edOps[0x57] = func(c *CPU_Z80) int { // LD A,I
		c.A = c.I
		f := c.F&z80FlagC | szFlags(c.A)
		if c.IFF2 {
			f |= z80FlagPV
		}
		c.F = f
		return 9
	}
	c.edOps[0x5F] = func(c *CPU_Z80) int { // LD A,R
		c.A = c.R
		f := c.F&z80FlagC | szFlags(c.A)
		if c.IFF2 {
			f |= z80FlagPV
		}
		c.F = f
		return 9
	}

	c.edOps[0x67] = func(c *CPU_Z80) int { // RRD
		addr := c.regHL()
		v := c.bus.Read(addr)
		c.bus.Write(addr, c.A<<4|v>>4)
		c.A = c.A&0xF0 | v&0x0F
		c.F = c.F&z80FlagC | szpFlags(c.A)
		c.WZ = addr + 1
		return 18
	}
	c.edOps[0x6F] = func(c *CPU_Z80) int { // RLD
		addr := c.regHL()
		v := c.bus.Read(addr)
		c.bus.Write(addr, v<<4|c.A&0x0F)
		c.A = c.A&0xF0 | v>>4
		c.F = c.F&z80FlagC | szpFlags(c.A)
		c.WZ = addr + 1
		return 18
	}

	// Block transfer/search/IO.
	c.edOps[0xA0] = func(c *CPU_Z80) int { c.ldi(1); return 16 }
	c.edOps[0xA8] = func(c *CPU_Z80) int { c.ldi(-1); return 16 }
	c.edOps[0xB0] = func(c *CPU_Z80) int { // LDIR
		c.ldi(1)
		if c.regBC() != 0 {
			c.PC -= 2
			c.WZ = c.PC + 1
			return 21
		}
		return 16
	}
	c.edOps[0xB8] = func(c *CPU_Z80) int { // LDDR
		c.ldi(-1)
		if c.regBC() != 0 {
			c.PC -= 2
			c.WZ = c.PC + 1
			return 21
		}
		return 16
	}

	c.edOps[0xA1] = func(c *CPU_Z80) int { c.cpi(1); return 16 }
	c.edOps[0xA9] = func(c *CPU_Z80) int { c.cpi(-1); return 16 }
	c.edOps[0xB1] = func(c *CPU_Z80) int { // CPIR
		c.cpi(1)
		if c.regBC() != 0 && c.F&z80FlagZ == 0 {
			c.PC -= 2
			c.WZ = c.PC + 1
			return 21
		}
		return 16
	}
	c.edOps[0xB9] = func(c *CPU_Z80) int { // CPDR
		c.cpi(-1)
		if c.regBC() != 0 && c.F&z80FlagZ == 0 {
			c.PC -= 2
			c.WZ = c.PC + 1
			return 21
		}
		return 16
	}

	c.edOps[0xA2] = func(c *CPU_Z80) int { c.ini(1); return 16 }
	c.edOps[0xAA] = func(c *CPU_Z80) int { c.ini(-1); return 16 }
	c.edOps[0xB2] = func(c *CPU_Z80) int { // INIR
		c.ini(1)
		if c.B != 0 {
			c.PC -= 2
			return 21
		}
		return 16
	}
	c.edOps[0xBA] = func(c *CPU_Z80) int { // INDR
		c.ini(-1)
		if c.B != 0 {
			c.PC -= 2
			return 21
		}
		return 16
	}

	c.edOps[0xA3] = func(c *CPU_Z80) int { c.outi(1); return 16 }
	c.edOps[0xAB] = func(c *CPU_Z80) int { c.outi(-1); return 16 }
	c.edOps[0xB3] = func(c *CPU_Z80) int { // OTIR
		c.outi(1)
		if c.B != 0 {
			c.PC -= 2
			return 21
		}
		return 16
	}
	c.edOps[0xBB] = func(c *CPU_Z80) int { // OTDR
		c.outi(-1)
		if c.B != 0 {
			c.PC -= 2
			return 21
		}
		return 16
	}
}

func (c *CPU_Z80) ldi(dir int) {
	v := c.bus.Read(c.regHL())
	c.bus.Write(c.regDE(), v)
	c.setHL(c.regHL() + uint16(dir))
	c.setDE(c.regDE() + uint16(dir))
	c.setBC(c.regBC() - 1)

	f := c.F & (z80FlagS | z80FlagZ | z80FlagC)
	n := v + c.A
	if n&0x02 != 0 {
		f |= z80FlagY
	}
	if n&0x08 != 0 {
		f |= z80FlagX
	}
	if c.regBC() != 0 {
		f |= z80FlagPV
	}
	c.F = f
}

func (c *CPU_Z80) cpi(dir int) {
	v := c.bus.Read(c.regHL())
	r := c.A - v
	f := c.F&z80FlagC | z80FlagN | r&z80FlagS
	if r == 0 {
		f |= z80FlagZ
	}
	if (c.A^v^r)&0x10 != 0 {
		f |= z80FlagH
	}
	n := r
	if f&z80FlagH != 0 {
		n--
	}
	if n&0x02 != 0 {
		f |= z80FlagY
	}
	if n&0x08 != 0 {
		f |= z80FlagX
	}
	c.setHL(c.regHL() + uint16(dir))
	c.setBC(c.regBC() - 1)
	if c.regBC() != 0 {
		f |= z80FlagPV
	}
	c.F = f
	c.WZ += uint16(dir)
}

func (c *CPU_Z80) ini(dir int) {
	c.WZ = c.regBC() + uint16(dir)
	v := c.bus.In(c.regBC())
	c.bus.Write(c.regHL(), v)
	c.setHL(c.regHL() + uint16(dir))
	c.B--

	f := szFlags(c.B)
	if v&0x80 != 0 {
		f |= z80FlagN
	}
	k := uint16(v) + uint16(c.C+byte(dir))
	if k > 0xFF {
		f |= z80FlagH | z80FlagC
	}
	f |= z80ParityTable[byte(k)&7^c.B]
	c.F = f
}

func (c *CPU_Z80) outi(dir int) {
	c.B--
	v := c.bus.Read(c.regHL())
	c.bus.Out(c.regBC(), v)
	c.setHL(c.regHL() + uint16(dir))
	c.WZ = c.regBC() + uint16(dir)

	f := szFlags(c.B)
	if v&0x80 != 0 {
		f |= z80FlagN
	}
	k := uint16(v) + uint16(c.L)
	if k > 0xFF {
		f |= z80FlagH | z80FlagC
	}
	f |= z80ParityTable[byte(k)&7^c.B]
	c.F = f
}

/* ----------------------------------------------------------------
 * DD/FD prefix execution
 * ---------------------------------------------------------------- */

// indexAddr forms the displaced effective address and latches it into
// WZ, where BIT (IX+d) takes its undocumented flag bits from.
func (c *CPU_Z80) indexAddr(reg *uint16, d int8) uint16 {
	addr := *reg + uint16(int16(d))
	c.WZ = addr
	return addr
}

// executeIndex runs one DD- or FD-prefixed opcode against the given
// index register. Opcodes with no indexed meaning fall through to the
// base table with H/L routed to the index halves, which yields the
// undocumented IXH/IXL/IYH/IYL forms.
func (c *CPU_Z80) executeIndex(reg *uint16) int {
	op := c.fetchOpcode()
	switch op {
	case 0xDD:
		return 4 + c.executeIndex(&c.IX)
	case 0xFD:
		return 4 + c.executeIndex(&c.IY)
	case 0xCB:
		d := int8(c.fetch8())
		sub := c.fetch8()
		return c.executeIndexCB(reg, d, sub)

	case 0x09, 0x19, 0x29, 0x39: // ADD ix,rr
		var b uint16
		switch op {
		case 0x09:
			b = c.regBC()
		case 0x19:
			b = c.regDE()
		case 0x29:
			b = *reg
		default:
			b = c.SP
		}
		*reg = c.add16(*reg, b)
		return 15

	case 0x21: // LD ix,nn
		*reg = c.fetch16()
		return 14
	case 0x22: // LD (nn),ix
		addr := c.fetch16()
		c.write16(addr, *reg)
		c.WZ = addr + 1
		return 20
	case 0x2A: // LD ix,(nn)
		addr := c.fetch16()
		*reg = c.read16(addr)
		c.WZ = addr + 1
		return 20
	case 0x23:
		*reg++
		return 10
	case 0x2B:
		*reg--
		return 10

	case 0x34: // INC (ix+d)
		addr := c.indexAddr(reg, int8(c.fetch8()))
		c.bus.Write(addr, c.inc8(c.bus.Read(addr)))
		return 23
	case 0x35: // DEC (ix+d)
		addr := c.indexAddr(reg, int8(c.fetch8()))
		c.bus.Write(addr, c.dec8(c.bus.Read(addr)))
		return 23
	case 0x36: // LD (ix+d),n
		addr := c.indexAddr(reg, int8(c.fetch8()))
		c.bus.Write(addr, c.fetch8())
		return 19

	case 0xE1: // POP ix
		*reg = c.pop16()
		return 14
	case 0xE3: // EX (SP),ix
		lo := c.bus.Read(c.SP)
		hi := c.bus.Read(c.SP + 1)
		c.bus.Write(c.SP, byte(*reg))
		c.bus.Write(c.SP+1, byte(*reg>>8))
		*reg = uint16(lo) | uint16(hi)<<8
		c.WZ = *reg
		return 23
	case 0xE5: // PUSH ix
		c.push16(*reg)
		return 15
	case 0xE9: // JP (ix)
		c.PC = *reg
		return 8
	case 0xF9: // LD SP,ix
		c.SP = *reg
		return 10
	}

	// LD and ALU forms addressing (ix+d). The non-memory register
	// operand stays in the real register file for these.
	if op&0xC0 == 0x40 && op != 0x76 && (op&7 == 6 || op>>3&7 == 6) {
		dst := op >> 3 & 7
		src := op & 7
		addr := c.indexAddr(reg, int8(c.fetch8()))
		if src == 6 {
			c.writeReg8Plain(int(dst), c.bus.Read(addr))
		} else {
			v := c.readReg8Plain(int(src))
			c.bus.Write(addr, v)
		}
		return 19
	}
	if op&0xC0 == 0x80 && op&7 == 6 {
		addr := c.indexAddr(reg, int8(c.fetch8()))
		z80ALUOps[op>>3&7](c, c.bus.Read(addr))
		return 19
	}

	// Everything else behaves as the unprefixed opcode with the index
	// halves substituted for H and L.
	c.index = reg
	t := 4 + c.baseOps[op](c)
	c.index = nil
	return t
}

func (c *CPU_Z80) readReg8Plain(code int) byte {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	default:
		return c.A
	}
}

// executeIndexCB handles the four-byte DDCB/FDCB forms. Non-(HL)
// register codes additionally copy the result into that register.
func (c *CPU_Z80) executeIndexCB(reg *uint16, d int8, sub byte) int {
	addr := c.indexAddr(reg, d)
	group := sub >> 6
	n := int(sub >> 3 & 7)
	code := int(sub & 7)

	if group == 1 { // BIT
		c.bitTest(n, c.bus.Read(addr), byte(addr>>8))
		return 20
	}

	v := c.bus.Read(addr)
	var r byte
	switch group {
	case 0:
		r = z80RotOps[n](c, v)
	case 2:
		r = v &^ (1 << n)
	default:
		r = v | 1<<n
	}
	c.bus.Write(addr, r)
	if code != 6 {
		c.writeReg8Plain(code, r)
	}
	return 23
}
