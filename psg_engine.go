// psg_engine.go - AY-3-8912 programmable sound generator.

package main

// Non-linear DAC response, 16 levels.
var psgVolTable = [16]int32{
	0, 1, 2, 3, 5, 7, 10, 15, 22, 31, 44, 63, 90, 127, 180, 255,
}

// PSGState is a host-visible dump of the register file.
type PSGState struct {
	Regs     [16]byte
	Selected byte
}

// PSGEngine implements the AY-3-8912: three square tone channels, one
// noise channel driven by a 17-bit LFSR, and a shared envelope
// generator. It is clocked at 1/16 of the CPU T-state stream.
type PSGEngine struct {
	regs     [16]byte
	selected byte

	tstatesAccum int

	toneCounters [3]uint16
	toneOutputs  [3]byte

	noiseCounter uint16
	noiseShift   uint32
	noiseOutput  byte

	envCounter uint16
	envStep    byte
	envHolding bool
	envAttack  bool
	envDiv     byte
}

func NewPSGEngine() *PSGEngine {
	p := &PSGEngine{}
	p.noiseShift = 1
	return p
}

// Reset clears the register file and generator state.
func (p *PSGEngine) Reset() {
	*p = PSGEngine{noiseShift: 1}
}

// ResetGenerators clears the running oscillator state but keeps the
// register file (snapshot restore).
func (p *PSGEngine) ResetGenerators() {
	p.tstatesAccum = 0
	p.toneCounters = [3]uint16{}
	p.toneOutputs = [3]byte{}
	p.noiseCounter = 0
	p.noiseShift = 1
	p.noiseOutput = 0
	p.envCounter = 0
	p.envStep = 0
	p.envHolding = false
	p.envAttack = false
	p.envDiv = 0
}

func (p *PSGEngine) SelectRegister(v byte) {
	p.selected = v & 0x0F
}

func (p *PSGEngine) SelectedRegister() byte { return p.selected }

func (p *PSGEngine) ReadData() byte {
	return p.regs[p.selected]
}

// WriteData stores a value into the selected register, applying the
// per-register bit masks. Writing the envelope shape restarts the
// envelope.
func (p *PSGEngine) WriteData(v byte) {
	p.WriteRegister(p.selected, v)
}

func (p *PSGEngine) WriteRegister(reg, v byte) {
	if reg > 15 {
		return
	}
	switch reg {
	case 1, 3, 5:
		v &= 0x0F
	case 6:
		v &= 0x1F
	case 8, 9, 10:
		v &= 0x1F
	case 13:
		v &= 0x0F
		p.envCounter = 0
		p.envStep = 0
		p.envHolding = false
		p.envAttack = v&0x04 != 0
	}
	p.regs[reg] = v
}

func (p *PSGEngine) envelopeVolume() byte {
	if p.envAttack {
		return p.envStep
	}
	return 15 - p.envStep
}

func (p *PSGEngine) updateEnvelope() {
	if p.envHolding {
		return
	}
	period := uint16(p.regs[11]) | uint16(p.regs[12])<<8
	if period == 0 {
		period = 1
	}
	p.envCounter++
	if p.envCounter < period {
		return
	}
	p.envCounter = 0
	p.envStep++
	if p.envStep < 16 {
		return
	}
	shape := p.regs[13]
	switch {
	case shape&0x08 == 0:
		// Shapes 0-7: one ramp then hold at zero volume.
		p.envHolding = true
		if p.envAttack {
			p.envStep = 0
		} else {
			p.envStep = 15
		}
	case shape&0x01 != 0:
		// Hold shapes: the alternate bit flips which end the envelope
		// parks at. 9 and 15 hold at zero, 11 and 13 hold at full.
		p.envHolding = true
		if shape&0x02 != 0 {
			p.envStep = 0
		} else {
			p.envStep = 15
		}
	default:
		p.envStep = 0
		if shape&0x02 != 0 {
			p.envAttack = !p.envAttack
		}
	}
}

// Tick advances the generators by the given number of CPU T-states.
func (p *PSGEngine) Tick(tstates int) {
	p.tstatesAccum += tstates
	for p.tstatesAccum >= AYClockDivider {
		p.tstatesAccum -= AYClockDivider

		for ch := 0; ch < 3; ch++ {
			period := uint16(p.regs[ch*2]) | uint16(p.regs[ch*2+1]&0x0F)<<8
			if period == 0 {
				period = 1
			}
			p.toneCounters[ch]++
			if p.toneCounters[ch] >= period {
				p.toneCounters[ch] = 0
				p.toneOutputs[ch] ^= 1
			}
		}

		noisePeriod := uint16(p.regs[6] & 0x1F)
		if noisePeriod == 0 {
			noisePeriod = 1
		}
		p.noiseCounter++
		if p.noiseCounter >= noisePeriod {
			p.noiseCounter = 0
			feedback := (p.noiseShift & 1) ^ ((p.noiseShift >> 3) & 1)
			p.noiseShift = (p.noiseShift >> 1) | (feedback << 16)
			p.noiseOutput = byte(p.noiseShift & 1)
		}

		p.envDiv++
		if p.envDiv >= 16 {
			p.envDiv = 0
			p.updateEnvelope()
		}
	}
}

// Sample mixes the three channels into one mono value, scaled so a
// full-volume chord peaks near ±6000 and leaves headroom for the
// beeper.
func (p *PSGEngine) Sample() int16 {
	mixer := p.regs[7]
	var output int32
	for ch := 0; ch < 3; ch++ {
		toneOut := byte(1)
		if mixer>>ch&1 == 0 {
			toneOut = p.toneOutputs[ch]
		}
		noiseOut := byte(1)
		if mixer>>(ch+3)&1 == 0 {
			noiseOut = p.noiseOutput
		}
		if toneOut&noiseOut == 0 {
			continue
		}
		volReg := p.regs[8+ch]
		var vol byte
		if volReg&0x10 != 0 {
			vol = p.envelopeVolume()
		} else {
			vol = volReg & 0x0F
		}
		output += psgVolTable[vol]
	}
	return int16(output * 6000 / 765)
}

func (p *PSGEngine) State() PSGState {
	return PSGState{Regs: p.regs, Selected: p.selected}
}

// LoadState restores the register file verbatim, without the
// write-path envelope restart (snapshot load resets the generators
// separately).
func (p *PSGEngine) LoadState(regs [16]byte, selected byte) {
	p.regs = regs
	p.selected = selected & 0x0F
}
