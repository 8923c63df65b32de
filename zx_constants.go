// zx_constants.go - machine timing, flag and port decode constants.

package main

// Machine models. The +2 behaves as a 128K for everything this core
// models; it only matters for the snapshot hardware byte.
const (
	Machine48K = iota
	Machine128K
	MachinePlus2
)

// Frame and video timing.
const (
	CPUClock            = 3500000
	TStatesPerLine      = 224
	ScanlinesPerFrame   = 312
	TStatesPerFrame48K  = 69888
	TStatesPerFrame128K = 70908
	InterruptTState     = 64 * TStatesPerLine
	FirstDisplayLine    = 64
	DisplayLines        = 192
)

// Memory geometry.
const (
	BankSize   = 0x4000
	ScreenSize = 6912
	RAMBanks   = 8
	ROMBanks   = 2
)

// Audio.
const (
	AudioSampleRate = 44100
	BeeperAmp       = 8192
	TapeMonitorAmp  = 6000
	MixClipLevel    = 24000
	AYClockDivider  = 16
	// Enough mono samples for the longest frame plus slack.
	FrameSampleCap = TStatesPerFrame128K*AudioSampleRate/CPUClock + 32
)

// Default tape pulse timings in T-states (standard ROM loader).
const (
	tapePilotLen    = 2168
	tapeSync1Len    = 667
	tapeSync2Len    = 735
	tapeBit0Len     = 855
	tapeBit1Len     = 1710
	tapePilotHeader = 8063
	tapePilotData   = 3223
	tapeGapBetween  = 200000
	tapeGapFinal    = CPUClock
)
