// memory_bus.go - banked memory map and 128K paging state.

package main

import "fmt"

// BankingState is a host-visible snapshot of the paging latch.
type BankingState struct {
	Port7FFD     byte
	RAMPage      int
	ShadowScreen bool
	ROMSelect    int
	Locked       bool
}

// MemoryBus routes the 64K address space through four 16K regions.
// Region 0 is ROM, regions 1 and 2 are fixed RAM banks 5 and 2, and
// region 3 is bank 0 on a 48K or the page selected through port 0x7FFD
// on a 128K.
type MemoryBus struct {
	machine int

	romBanks [ROMBanks][BankSize]byte
	ramBanks [RAMBanks][BankSize]byte

	port7FFD     byte
	pagingLocked bool

	// Resolved mapping, rebuilt on every paging change.
	readMap  [4]*[BankSize]byte
	writable [4]bool
	ramPage  int
	romSel   int

	activeScreen int // RAM bank holding the visible screen, 5 or 7
	screenDirty  bool
}

func NewMemoryBus(machine int) *MemoryBus {
	m := &MemoryBus{machine: machine}
	m.activeScreen = 5
	m.remap()
	return m
}

// remap rebuilds the region table from the current paging latch.
func (m *MemoryBus) remap() {
	if m.machine == Machine48K {
		m.readMap[0] = &m.romBanks[0]
		m.readMap[3] = &m.ramBanks[0]
		m.ramPage = 0
		m.romSel = 0
	} else {
		m.romSel = int(m.port7FFD>>4) & 1
		m.ramPage = int(m.port7FFD & 7)
		m.readMap[0] = &m.romBanks[m.romSel]
		m.readMap[3] = &m.ramBanks[m.ramPage]
	}
	m.readMap[1] = &m.ramBanks[5]
	m.readMap[2] = &m.ramBanks[2]
	m.writable = [4]bool{false, true, true, true}

	screen := 5
	if m.machine != Machine48K && m.port7FFD&0x08 != 0 {
		screen = 7
	}
	if screen != m.activeScreen {
		m.activeScreen = screen
		m.screenDirty = true
	}
}

func (m *MemoryBus) Read(addr uint16) byte {
	return m.readMap[addr>>14][addr&0x3FFF]
}

func (m *MemoryBus) Write(addr uint16, v byte) {
	region := addr >> 14
	if !m.writable[region] {
		return
	}
	off := addr & 0x3FFF
	m.readMap[region][off] = v
	if off < ScreenSize {
		if region == 1 {
			m.screenDirty = true
		} else if region == 3 && m.machine != Machine48K && m.ramPage == 7 {
			m.screenDirty = true
		}
	}
}

// WritePagingPort handles writes decoded to port 0x7FFD. Ignored on a
// 48K machine and once bit 5 has locked the latch until reset.
func (m *MemoryBus) WritePagingPort(v byte) {
	if m.machine == Machine48K || m.pagingLocked {
		return
	}
	m.port7FFD = v
	if v&0x20 != 0 {
		m.pagingLocked = true
	}
	m.remap()
}

// SetPagingState restores the latch wholesale (snapshot load).
func (m *MemoryBus) SetPagingState(port byte, locked bool) {
	m.port7FFD = port
	m.pagingLocked = locked
	m.remap()
}

// SetMachine switches the machine model in place (snapshot load picks
// the model from the image).
func (m *MemoryBus) SetMachine(machine int) {
	m.machine = machine
	m.remap()
}

func (m *MemoryBus) Reset() {
	m.port7FFD = 0
	m.pagingLocked = false
	m.remap()
}

// LoadROM installs ROM image data. A 48K machine takes exactly 16384
// bytes, a 128K machine exactly 32768 (editor ROM then BASIC ROM).
func (m *MemoryBus) LoadROM(data []byte) error {
	switch m.machine {
	case Machine48K:
		if len(data) != BankSize {
			return fmt.Errorf("48k ROM: expected %d bytes, got %d", BankSize, len(data))
		}
		copy(m.romBanks[0][:], data)
	default:
		if len(data) != 2*BankSize {
			return fmt.Errorf("128k ROM: expected %d bytes, got %d", 2*BankSize, len(data))
		}
		copy(m.romBanks[0][:], data[:BankSize])
		copy(m.romBanks[1][:], data[BankSize:])
	}
	return nil
}

// ScreenBank returns the RAM bank currently driving the display.
func (m *MemoryBus) ScreenBank() *[BankSize]byte {
	return &m.ramBanks[m.activeScreen]
}

// RAMBank exposes a bank directly for snapshot transfer.
func (m *MemoryBus) RAMBank(n int) *[BankSize]byte {
	return &m.ramBanks[n]
}

func (m *MemoryBus) ScreenDirty() bool  { return m.screenDirty }
func (m *MemoryBus) ClearDirty()        { m.screenDirty = false }
func (m *MemoryBus) MarkDirty()         { m.screenDirty = true }
func (m *MemoryBus) PagingLocked() bool { return m.pagingLocked }
func (m *MemoryBus) PagingPort() byte   { return m.port7FFD }

func (m *MemoryBus) Banking() BankingState {
	return BankingState{
		Port7FFD:     m.port7FFD,
		RAMPage:      m.ramPage,
		ShadowScreen: m.activeScreen == 7,
		ROMSelect:    m.romSel,
		Locked:       m.pagingLocked,
	}
}
