// machine.go - machine aggregate: bus wiring, port decode, frame driver.

package main

import "fmt"

// Machine ties the CPU, memory, ULA, PSG, tape deck and mixer into one
// emulated Spectrum. All state belongs to the instance; calls must be
// serialized by the host.
type Machine struct {
	model        int
	frameTStates int

	mem   *MemoryBus
	cpu   *CPU_Z80
	ula   *ULAEngine
	psg   *PSGEngine
	tape  *TapeDeck
	mixer *AudioMixer

	// T-states elapsed in the current frame.
	tstates int

	intVector      byte
	intVectorFixed bool

	// Ring of the last 16 instruction addresses, oldest overwritten
	// first. Recorded even while halted, so a stuck PC shows up as a
	// run of identical entries.
	pcHistory    [16]uint16
	pcHistoryIdx byte
}

func NewMachine(model int) *Machine {
	frame := TStatesPerFrame48K
	if model != Machine48K {
		frame = TStatesPerFrame128K
	}
	m := &Machine{
		model:        model,
		frameTStates: frame,
		intVector:    0xFF,
	}
	m.mem = NewMemoryBus(model)
	m.ula = NewULAEngine(m.mem, frame)
	m.psg = NewPSGEngine()
	m.tape = NewTapeDeck()
	m.mixer = NewAudioMixer(m.psg, model != Machine48K)
	m.cpu = NewCPU_Z80(m)
	return m
}

// setModel switches the machine type in place (snapshot load).
func (m *Machine) setModel(model int) {
	m.model = model
	m.frameTStates = TStatesPerFrame48K
	if model != Machine48K {
		m.frameTStates = TStatesPerFrame128K
	}
	m.mem.SetMachine(model)
	m.ula.frameTStates = m.frameTStates
	m.mixer.ayEnabled = model != Machine48K
}

func (m *Machine) Model() int        { return m.model }
func (m *Machine) FrameTStates() int { return m.frameTStates }
func (m *Machine) TStates() int      { return m.tstates }

/* ----------------------------------------------------------------
 * Z80Bus implementation
 * ---------------------------------------------------------------- */

func (m *Machine) Read(addr uint16) byte     { return m.mem.Read(addr) }
func (m *Machine) Write(addr uint16, v byte) { m.mem.Write(addr, v) }

func (m *Machine) In(port uint16) byte {
	// ULA: any even port (A0 low).
	if port&0x01 == 0 {
		return m.ula.ReadULA(byte(port>>8), m.tape.EarLevel())
	}

	// Kempston joystick.
	if port&0xFF == 0x1F {
		return m.ula.Kempston()
	}

	// AY register read, A15=1 A14=1 A1=0 (0xFFFD).
	if m.model != Machine48K && port&0xC002 == 0xC000 {
		return m.psg.ReadData()
	}

	// Unhandled ports float with the ULA's video fetches.
	return m.ula.FloatingBus(m.tstates)
}

func (m *Machine) Out(port uint16, v byte) {
	if port&0x01 == 0 {
		m.ula.WriteULA(v, m.tstates, m.tape.Active())
		return
	}

	// Paging latch: A15=0, A1=0, low byte 0xFD. A broader decode would
	// catch unrelated OUTs and could lock paging by accident.
	if m.model != Machine48K && port&0x8002 == 0 && port&0xFF == 0xFD {
		m.mem.WritePagingPort(v)
		return
	}

	// AY: A15=1, A1=0; A14 picks register select vs data.
	if m.model != Machine48K && port&0x8002 == 0x8000 {
		if port&0x4000 != 0 {
			m.psg.SelectRegister(v)
		} else {
			m.psg.WriteData(v)
		}
	}
}

// IntVector supplies the IM2 acknowledge byte: the programmed vector
// when fixed, otherwise whatever the floating bus carries.
func (m *Machine) IntVector() byte {
	if m.intVectorFixed {
		return m.intVector
	}
	return m.ula.FloatingBus(m.tstates)
}

/* ----------------------------------------------------------------
 * Execution
 * ---------------------------------------------------------------- */

// Step executes one instruction, advancing tape and audio in
// sub-pulse chunks so loading sound stays aligned with the EAR edges.
func (m *Machine) Step() int {
	m.pcHistory[m.pcHistoryIdx] = m.cpu.PC
	m.pcHistoryIdx = (m.pcHistoryIdx + 1) & 0x0F

	t := m.cpu.Step()

	if m.tape.Active() && !m.tape.autostarted {
		m.tape.Tick(0)
	}

	rem := t
	for rem > 0 {
		chunk := rem
		if m.tape.Active() {
			if pr := m.tape.PulseRemaining(); pr > 0 && pr < chunk {
				chunk = pr
			}
		}
		m.mixer.Tick(chunk, m.ula.BeeperLevel() != 0, m.tape.Active(), m.tape.EarLevel())
		m.tape.Tick(chunk)
		rem -= chunk
	}

	m.cpu.FinishInstruction()
	return t
}

// RunFrame executes exactly one video frame and reports whether the
// visible screen changed. The ULA interrupt fires once, at the first
// instruction boundary at or after T-state 14336.
func (m *Machine) RunFrame() bool {
	m.tstates = 0
	m.mem.ClearDirty()
	m.mixer.StartFrame()
	m.ula.StartFrame(m.tape.Active())

	intFired := false
	for m.tstates < m.frameTStates {
		m.tstates += m.Step()
		if !intFired && m.tstates >= InterruptTState {
			m.tstates += m.cpu.RaiseMaskableInterrupt()
			intFired = true
		}
	}
	return m.mem.ScreenDirty()
}

// Reset performs a hard reset: power-on CPU state, paging unlocked,
// PSG cleared. A loaded tape stays loaded but rewinds; reports whether
// one is still present.
func (m *Machine) Reset() bool {
	m.cpu.Reset()
	m.mem.Reset()
	m.ula.Reset()
	m.psg.Reset()
	m.mixer.Reset()
	m.tape.Stop()
	m.tape.Rewind()
	m.tstates = 0
	m.pcHistory = [16]uint16{}
	m.pcHistoryIdx = 0
	return m.tape.Loaded()
}

/* ----------------------------------------------------------------
 * Host API
 * ---------------------------------------------------------------- */

func (m *Machine) LoadROM(data []byte) error {
	if err := m.mem.LoadROM(data); err != nil {
		return err
	}
	m.tape.Stop()
	m.tape.Rewind()
	return nil
}

func (m *Machine) LoadTAP(data []byte) error {
	blocks, err := ParseTAP(data)
	if err != nil {
		return err
	}
	m.tape.Load(blocks)
	return nil
}

func (m *Machine) LoadTZX(data []byte) error {
	blocks, err := ParseTZX(data)
	if err != nil {
		return err
	}
	m.tape.Load(blocks)
	return nil
}

func (m *Machine) TapePlay()              { m.tape.Play() }
func (m *Machine) TapeStop()              { m.tape.Stop() }
func (m *Machine) TapeRewind()            { m.tape.Rewind() }
func (m *Machine) TapeStatus() TapeStatus { return m.tape.Status() }

// SetTapeMonitor toggles the audible EAR tone in the mix.
func (m *Machine) SetTapeMonitor(on bool) { m.mixer.tapeMonitor = on }

// Screen returns the bitmap+attribute image of the active screen bank.
func (m *Machine) Screen() []byte {
	return m.mem.ScreenBank()[:ScreenSize]
}

func (m *Machine) Border() byte { return m.ula.Border() }

// BorderLines returns the per-scanline border trace, or nil when the
// tape is idle (the trace is only maintained during playback).
func (m *Machine) BorderLines() []byte {
	if !m.tape.Active() {
		return nil
	}
	return m.ula.BorderLines()
}

// AudioSamples returns the frame's samples as interleaved stereo
// 16-bit little-endian PCM. Valid until the next RunFrame.
func (m *Machine) AudioSamples() []byte {
	mono := m.mixer.Samples()
	out := make([]byte, len(mono)*4)
	for i, s := range mono {
		lo, hi := byte(s), byte(uint16(s)>>8)
		out[i*4+0] = lo
		out[i*4+1] = hi
		out[i*4+2] = lo
		out[i*4+3] = hi
	}
	return out
}

func (m *Machine) KeyDown(row, bit int) error {
	if row < 0 || row > 7 || bit < 0 || bit > 4 {
		return fmt.Errorf("key out of range: row %d bit %d", row, bit)
	}
	m.ula.KeyDown(row, bit)
	return nil
}

func (m *Machine) KeyUp(row, bit int) error {
	if row < 0 || row > 7 || bit < 0 || bit > 4 {
		return fmt.Errorf("key out of range: row %d bit %d", row, bit)
	}
	m.ula.KeyUp(row, bit)
	return nil
}

func (m *Machine) SetKempston(v byte) { m.ula.SetKempston(v) }

func (m *Machine) Peek(addr uint16) byte     { return m.mem.Read(addr) }
func (m *Machine) Poke(addr uint16, v byte)  { m.mem.Write(addr, v) }

// LoadMemory copies a blob into memory through the normal write path,
// stopping at the top of the address space.
func (m *Machine) LoadMemory(addr uint16, data []byte) {
	for i, v := range data {
		a := int(addr) + i
		if a > 0xFFFF {
			break
		}
		m.mem.Write(uint16(a), v)
	}
}

// SetInterruptVector pins the IM2 acknowledge byte to a fixed value
// instead of the floating bus.
func (m *Machine) SetInterruptVector(v byte) {
	m.intVector = v
	m.intVectorFixed = true
}

func (m *Machine) ClearInterruptVector() {
	m.intVector = 0xFF
	m.intVectorFixed = false
}

// Debug accessors.
func (m *Machine) CPU() *CPU_Z80          { return m.cpu }
func (m *Machine) Banking() BankingState  { return m.mem.Banking() }
func (m *Machine) PSGRegisters() PSGState { return m.psg.State() }

// PCHistory returns the last 16 instruction addresses, oldest first.
func (m *Machine) PCHistory() [16]uint16 {
	var out [16]uint16
	for i := range out {
		out[i] = m.pcHistory[(int(m.pcHistoryIdx)+i)&0x0F]
	}
	return out
}

// KeyboardRows returns the 8 half-row states as read on port 0xFE
// (bits active low, 1 = released).
func (m *Machine) KeyboardRows() [8]byte { return m.ula.keyboardRows }

func (m *Machine) Beeper() byte { return m.ula.BeeperLevel() }
