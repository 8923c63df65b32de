// tap_parser.go - TAP container parser.

package main

import "fmt"

// ParseTAP splits a TAP image into playable blocks. The format is a
// bare sequence of [u16le length][payload] records; every block plays
// with the standard ROM loader timings.
func ParseTAP(data []byte) ([]TapeBlock, error) {
	var blocks []TapeBlock
	pos := 0
	for pos+2 <= len(data) {
		blen := int(data[pos]) | int(data[pos+1])<<8
		pos += 2
		if pos+blen > len(data) {
			break
		}
		payload := make([]byte, blen)
		copy(payload, data[pos:pos+blen])
		blocks = append(blocks, TapeBlock{
			Data:         payload,
			HasPilotSync: true,
			UsedBitsLast: 8,
			PilotLen:     tapePilotLen,
			Sync1Len:     tapeSync1Len,
			Sync2Len:     tapeSync2Len,
			Bit0Len:      tapeBit0Len,
			Bit1Len:      tapeBit1Len,
			StartLevel:   1,
		})
		pos += blen
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("TAP: no blocks found")
	}
	return blocks, nil
}
