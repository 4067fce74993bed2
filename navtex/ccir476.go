package navtex

import "fmt"

// Control values produced by the character sets. Printable characters decode
// to themselves.
const (
	ETX          = 0x02
	WRU          = 0x05
	Bell         = 0x07
	LF           = 0x0a
	CR           = 0x0d
	ShiftFigures = 0x0e
	ShiftLetters = 0x0f

	Invalid = -1
)

// Phasing signals. Alpha decodes as '<' and beta as '>' in both sets.
const (
	PhasingAlpha byte = 0x78
	PhasingBeta  byte = 0x33
)

const codeBits = 7

var controlCodes = map[byte]rune{
	0x0f: CR,
	0x1b: LF,
	0x1d: ' ',
	0x2d: ShiftLetters,
	0x33: '>',
	0x36: ShiftFigures,
	0x78: '<',
}

var letterCodes = map[byte]rune{
	0x17: 'T', 0x1e: 'V', 0x27: 'B', 0x2e: 'X', 0x35: 'E', 0x39: 'U',
	0x3a: 'Q', 0x3c: 'K', 0x47: 'O', 0x4b: 'H', 0x4d: 'N', 0x4e: 'M',
	0x53: 'L', 0x55: 'R', 0x56: 'G', 0x59: 'I', 0x5a: 'P', 0x5c: 'C',
	0x63: 'Z', 0x65: 'D', 0x69: 'S', 0x6a: 'Y', 0x6c: 'F', 0x71: 'A',
	0x72: 'W', 0x74: 'J',
}

var figureCodes = map[byte]rune{
	0x17: '5', 0x1e: '=', 0x27: '?', 0x2e: '/', 0x35: '3', 0x39: '7',
	0x3a: '1', 0x3c: '(', 0x47: '9', 0x4b: '£', 0x4d: ',', 0x4e: '.',
	0x53: ')', 0x55: '4', 0x56: '&', 0x59: '8', 0x5a: '0', 0x5c: ':',
	0x63: '+', 0x65: WRU, 0x69: '\'', 0x6a: '6', 0x6c: '!', 0x71: '-',
	0x72: '2', 0x74: Bell,
}

type charSet [1 << codeBits]rune

var (
	letterSet = buildSet(letterCodes)
	figureSet = buildSet(figureCodes)
)

func buildSet(chars map[byte]rune) *charSet {
	var s charSet
	for i := range s {
		s[i] = Invalid
	}
	for code, r := range controlCodes {
		s[code] = r
	}
	for code, r := range chars {
		s[code] = r
	}
	return &s
}

// Decode maps a 7 bit CCIR 476 code to its character in the letter or figure
// set, or Invalid.
func Decode(code byte, figures bool) rune {
	if code >= 1<<codeBits {
		return Invalid
	}
	if figures {
		return figureSet[code]
	}
	return letterSet[code]
}

type encoding struct {
	code byte
	// shift is ShiftLetters or ShiftFigures when the character needs that
	// set, 0 when it is common to both.
	shift rune
}

var encodeTable = func() map[rune]encoding {
	m := map[rune]encoding{}
	for code, r := range controlCodes {
		m[r] = encoding{code: code}
	}
	for code, r := range letterCodes {
		m[r] = encoding{code: code, shift: ShiftLetters}
	}
	for code, r := range figureCodes {
		m[r] = encoding{code: code, shift: ShiftFigures}
	}
	return m
}()

// EncodeText converts text to CCIR 476 codes, inserting shifts as needed. The
// receiver is assumed to start in the letter set. Newlines become CR LF.
func EncodeText(text string) ([]byte, error) {
	var codes []byte
	set := rune(ShiftLetters)
	for _, r := range text {
		if r == '\n' {
			codes = append(codes, encodeTable[CR].code, encodeTable[LF].code)
			continue
		}
		e, ok := encodeTable[r]
		if !ok {
			return nil, fmt.Errorf("ccir476: no code for %q", r)
		}
		if e.shift != 0 && e.shift != set {
			codes = append(codes, encodeTable[e.shift].code)
			set = e.shift
		}
		codes = append(codes, e.code)
	}
	return codes, nil
}

// Interleave builds the transmitted SITOR-B character stream for codes:
// phasing pairs, then the DX copy of each character with its RX repeat
// following five positions later, then idle alphas.
func Interleave(codes []byte, phasing, idle int) []byte {
	var dx []byte
	for i := 0; i < phasing; i++ {
		dx = append(dx, PhasingBeta)
	}
	dx = append(dx, codes...)
	for i := 0; i < max(idle, 1); i++ {
		dx = append(dx, PhasingAlpha)
	}
	out := make([]byte, 0, 2*len(dx)+4)
	for k := 0; k < len(dx)+2; k++ {
		if k < len(dx) {
			out = append(out, dx[k])
		} else {
			out = append(out, PhasingAlpha)
		}
		if k-2 < phasing {
			out = append(out, PhasingAlpha)
		} else {
			out = append(out, dx[k-2])
		}
	}
	return out
}

// Bits expands codes MSB first into one byte per bit.
func Bits(codes []byte) []byte {
	bits := make([]byte, 0, len(codes)*codeBits)
	for _, c := range codes {
		for i := codeBits - 1; i >= 0; i-- {
			bits = append(bits, (c>>i)&1)
		}
	}
	return bits
}
