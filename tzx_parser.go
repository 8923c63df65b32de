// tzx_parser.go - TZX container parser.

package main

import (
	"bytes"
	"fmt"
)

var tzxMagic = []byte("ZXTape!\x1a")

func rd16le(p []byte) uint16 {
	return uint16(p[0]) | uint16(p[1])<<8
}

func rd24le(p []byte) int {
	return int(p[0]) | int(p[1])<<8 | int(p[2])<<16
}

func rd32le(p []byte) int {
	return int(p[0]) | int(p[1])<<8 | int(p[2])<<16 | int(p[3])<<24
}

// ParseTZX converts a TZX image into playable blocks. Data blocks
// (IDs 0x10, 0x11, 0x14) and pauses (0x20) become TapeBlocks; pure
// tone (0x12), pulse sequence (0x13) and set-signal-level (0x2B)
// records fold into the next data block as its pilot, sync and
// starting level. Structural and metadata blocks are skipped; an
// unknown ID is a hard error.
func ParseTZX(buf []byte) ([]TapeBlock, error) {
	if len(buf) < 10 || !bytes.Equal(buf[:8], tzxMagic) {
		return nil, fmt.Errorf("invalid TZX header")
	}

	var blocks []TapeBlock
	pos := 10

	// Pending 0x12/0x13/0x2B state folded into the next data block.
	var (
		havePilot   bool
		pilotLen    uint16
		pilotPulses uint16

		haveSync bool
		sync1    uint16
		sync2    uint16

		haveLevel bool
		level     byte
	)

	defaults := func(data []byte, pause uint16) TapeBlock {
		return TapeBlock{
			Data:         data,
			PauseMS:      pause,
			PauseDefined: true,
			HasPilotSync: true,
			UsedBitsLast: 8,
			PilotLen:     tapePilotLen,
			Sync1Len:     tapeSync1Len,
			Sync2Len:     tapeSync2Len,
			Bit0Len:      tapeBit0Len,
			Bit1Len:      tapeBit1Len,
			StartLevel:   1,
		}
	}
	applyLevel := func(b *TapeBlock) {
		if haveLevel {
			b.StartLevelSet = true
			b.StartLevel = level
			haveLevel = false
		}
	}

	for pos < len(buf) {
		id := buf[pos]
		pos++
		switch id {
		case 0x10: // standard speed data
			if pos+4 > len(buf) {
				return blocks, nil
			}
			pause := rd16le(buf[pos:])
			blen := int(rd16le(buf[pos+2:]))
			pos += 4
			if pos+blen > len(buf) {
				return blocks, nil
			}
			b := defaults(append([]byte(nil), buf[pos:pos+blen]...), pause)
			applyLevel(&b)
			blocks = append(blocks, b)
			pos += blen
			havePilot, haveSync = false, false

		case 0x11: // turbo speed data
			if pos+0x12 > len(buf) {
				return blocks, nil
			}
			b := defaults(nil, rd16le(buf[pos+0x0D:]))
			b.PilotLen = rd16le(buf[pos:])
			b.Sync1Len = rd16le(buf[pos+2:])
			b.Sync2Len = rd16le(buf[pos+4:])
			b.Bit0Len = rd16le(buf[pos+6:])
			b.Bit1Len = rd16le(buf[pos+8:])
			b.PilotPulses = int(rd16le(buf[pos+0x0A:]))
			if used := buf[pos+0x0C]; used != 0 {
				b.UsedBitsLast = used
			}
			blen := rd24le(buf[pos+0x0F:])
			pos += 0x12
			if pos+blen > len(buf) {
				return blocks, nil
			}
			b.Data = append([]byte(nil), buf[pos:pos+blen]...)
			b.IsTurbo = true
			applyLevel(&b)
			blocks = append(blocks, b)
			pos += blen
			havePilot, haveSync = false, false

		case 0x14: // pure data
			if pos+0x0A > len(buf) {
				return blocks, nil
			}
			b := defaults(nil, rd16le(buf[pos+5:]))
			b.Bit0Len = rd16le(buf[pos:])
			b.Bit1Len = rd16le(buf[pos+2:])
			if used := buf[pos+4]; used != 0 {
				b.UsedBitsLast = used
			}
			blen := rd24le(buf[pos+7:])
			pos += 0x0A
			if pos+blen > len(buf) {
				return blocks, nil
			}
			b.Data = append([]byte(nil), buf[pos:pos+blen]...)
			b.HasPilotSync = false
			b.IsTurbo = true

			// A preceding pure tone / pulse sequence makes this a
			// full pilot+sync+data sequence.
			if havePilot || haveSync {
				b.HasPilotSync = true
				if havePilot {
					b.PilotLen = pilotLen
					b.PilotPulses = int(pilotPulses)
				}
				if haveSync {
					b.Sync1Len = sync1
					b.Sync2Len = sync2
				}
				havePilot, haveSync = false, false
			}
			applyLevel(&b)
			blocks = append(blocks, b)
			pos += blen

		case 0x20: // pause / stop the tape
			if pos+2 > len(buf) {
				return blocks, nil
			}
			b := defaults(nil, rd16le(buf[pos:]))
			b.HasPilotSync = false
			pos += 2
			blocks = append(blocks, b)
			havePilot, haveSync, haveLevel = false, false, false

		case 0x12: // pure tone
			if pos+4 > len(buf) {
				return blocks, nil
			}
			pilotLen = rd16le(buf[pos:])
			pilotPulses = rd16le(buf[pos+2:])
			havePilot = true
			pos += 4

		case 0x13: // pulse sequence
			if pos+1 > len(buf) {
				return blocks, nil
			}
			n := int(buf[pos])
			pos++
			if pos+n*2 > len(buf) {
				return blocks, nil
			}
			if n >= 1 {
				sync1 = rd16le(buf[pos:])
			}
			if n >= 2 {
				sync2 = rd16le(buf[pos+2:])
			} else {
				sync2 = sync1
			}
			haveSync = n > 0
			pos += n * 2

		case 0x2B: // set signal level
			if pos+4 > len(buf) {
				return blocks, nil
			}
			bl := rd32le(buf[pos:])
			pos += 4
			if pos+bl > len(buf) {
				return blocks, nil
			}
			if bl >= 1 {
				haveLevel = true
				level = 0
				if buf[pos] != 0 {
					level = 1
				}
			}
			pos += bl

		default:
			next, err := tzxSkipBlock(buf, pos, id)
			if err != nil {
				return nil, err
			}
			if next < 0 {
				return blocks, nil
			}
			pos = next
		}
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("TZX: no playable blocks found")
	}
	return blocks, nil
}

// tzxSkipBlock steps over a structural or metadata block. It returns
// the position after the block, -1 when the block is truncated, or an
// error for an ID we do not know how to measure.
func tzxSkipBlock(buf []byte, pos int, id byte) (int, error) {
	need := func(n int) bool { return pos+n <= len(buf) }
	switch id {
	case 0x15: // direct recording
		if !need(8) {
			return -1, nil
		}
		n := rd24le(buf[pos+5:])
		pos += 8
		if !need(n) {
			return -1, nil
		}
		return pos + n, nil
	case 0x18, 0x19: // CSW / generalized data, 4-byte length
		if !need(4) {
			return -1, nil
		}
		n := rd32le(buf[pos:])
		pos += 4
		if !need(n) {
			return -1, nil
		}
		return pos + n, nil
	case 0x21: // group start
		if !need(1) {
			return -1, nil
		}
		n := int(buf[pos])
		pos++
		if !need(n) {
			return -1, nil
		}
		return pos + n, nil
	case 0x22, 0x25, 0x27: // group end, loop end, sequence return
		return pos, nil
	case 0x23, 0x24: // jump, loop start
		if !need(2) {
			return -1, nil
		}
		return pos + 2, nil
	case 0x26: // call sequence
		if !need(2) {
			return -1, nil
		}
		n := int(rd16le(buf[pos:]))
		pos += 2
		if !need(n * 2) {
			return -1, nil
		}
		return pos + n*2, nil
	case 0x28, 0x32: // select block, archive info
		if !need(2) {
			return -1, nil
		}
		n := int(rd16le(buf[pos:]))
		pos += 2
		if !need(n) {
			return -1, nil
		}
		return pos + n, nil
	case 0x2A: // stop the tape in 48K mode
		if !need(4) {
			return -1, nil
		}
		n := rd32le(buf[pos:])
		pos += 4
		if !need(n) {
			return -1, nil
		}
		return pos + n, nil
	case 0x30: // text description
		if !need(1) {
			return -1, nil
		}
		n := int(buf[pos])
		pos++
		if !need(n) {
			return -1, nil
		}
		return pos + n, nil
	case 0x31: // message block
		if !need(2) {
			return -1, nil
		}
		n := int(buf[pos+1])
		pos += 2
		if !need(n) {
			return -1, nil
		}
		return pos + n, nil
	case 0x33: // hardware type
		if !need(1) {
			return -1, nil
		}
		n := int(buf[pos])
		pos++
		if !need(n * 3) {
			return -1, nil
		}
		return pos + n*3, nil
	case 0x35: // custom info
		if !need(20) {
			return -1, nil
		}
		n := rd32le(buf[pos+16:])
		pos += 20
		if !need(n) {
			return -1, nil
		}
		return pos + n, nil
	case 0x5A: // glue
		if !need(9) {
			return -1, nil
		}
		return pos + 9, nil
	}
	return 0, fmt.Errorf("unsupported TZX block id 0x%02X", id)
}
