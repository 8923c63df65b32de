// keyboard_matrix.go - ASCII to Spectrum keyboard matrix mapping.

package main

// zxKey names one key by its matrix position: row selects the
// half-row (address lines A8..A15), bit the key within it.
type zxKey struct {
	row, bit int
}

var zxLetterKeys = map[byte]zxKey{
	'z': {0, 1}, 'x': {0, 2}, 'c': {0, 3}, 'v': {0, 4},
	'a': {1, 0}, 's': {1, 1}, 'd': {1, 2}, 'f': {1, 3}, 'g': {1, 4},
	'q': {2, 0}, 'w': {2, 1}, 'e': {2, 2}, 'r': {2, 3}, 't': {2, 4},
	'1': {3, 0}, '2': {3, 1}, '3': {3, 2}, '4': {3, 3}, '5': {3, 4},
	'0': {4, 0}, '9': {4, 1}, '8': {4, 2}, '7': {4, 3}, '6': {4, 4},
	'p': {5, 0}, 'o': {5, 1}, 'i': {5, 2}, 'u': {5, 3}, 'y': {5, 4},
	'l': {6, 1}, 'k': {6, 2}, 'j': {6, 3}, 'h': {6, 4},
	'm': {7, 2}, 'n': {7, 3}, 'b': {7, 4},
}

// zxKeyMatrix maps an input byte to the keys pressed together to
// produce it. Shifted characters combine a shift key with a base key.
var zxKeyMatrix = map[byte][]zxKey{}

func init() {
	caps := zxKey{0, 0}
	sym := zxKey{7, 1}

	for ch, k := range zxLetterKeys {
		zxKeyMatrix[ch] = []zxKey{k}
		if ch >= 'a' && ch <= 'z' {
			zxKeyMatrix[ch-'a'+'A'] = []zxKey{caps, k}
		}
	}

	zxKeyMatrix['\r'] = []zxKey{{6, 0}}
	zxKeyMatrix['\n'] = []zxKey{{6, 0}}
	zxKeyMatrix[' '] = []zxKey{{7, 0}}

	// DEL and BS both map to Caps Shift + 0.
	zxKeyMatrix[0x7F] = []zxKey{caps, zxLetterKeys['0']}
	zxKeyMatrix[0x08] = []zxKey{caps, zxLetterKeys['0']}

	symbols := map[byte]byte{
		'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
		'&': '6', '\'': '7', '(': '8', ')': '9', '_': '0',
		'"': 'p', ';': 'o', ':': 'z', ',': 'n', '.': 'm',
		'-': 'j', '+': 'k', '=': 'l', '*': 'b', '/': 'v',
		'<': 'r', '>': 't', '?': 'c',
	}
	for ch, base := range symbols {
		zxKeyMatrix[ch] = []zxKey{sym, zxLetterKeys[base]}
	}
}
