package navtex

type sitorState int

const (
	statePhasing sitorState = iota
	stateFillRX
	stateFillDX
	stateRX
	stateDX
)

const dxBufferSize = 3

// SitorB recovers characters from the interleaved DX/RX code stream of a
// SITOR collective B (FEC) broadcast.
type SitorB struct {
	state   sitorState
	buf     [dxBufferSize]byte
	idx     int
	figures bool
	errors  int
	chars   int
}

func NewSitorB() *SitorB {
	return &SitorB{}
}

func (s *SitorB) Reset() {
	*s = SitorB{}
}

// Errors returns the number of code errors seen since the last reset.
func (s *SitorB) Errors() int { return s.errors }

// Chars returns the number of characters resolved from DX/RX pairs,
// including shifts.
func (s *SitorB) Chars() int { return s.chars }

// Figures reports whether the figure set is selected.
func (s *SitorB) Figures() bool { return s.figures }

// Decode consumes one received code. It returns the decoded character, ETX
// at the end of a transmission, '*' when neither copy could be decoded, or
// Invalid when there is nothing to output yet.
func (s *SitorB) Decode(code byte) rune {
	ret := rune(Invalid)

	switch s.state {
	case statePhasing:
		if code != PhasingAlpha && code != PhasingBeta && Decode(code, s.figures) != Invalid {
			s.buf[0] = code
			s.idx = 1
			s.state = stateFillRX
		}

	case stateFillRX:
		if code != PhasingAlpha {
			s.errors++
		}
		s.state = stateFillDX

	case stateFillDX:
		s.buf[s.idx] = code
		s.idx++
		if s.idx == dxBufferSize {
			s.idx = 0
			s.state = stateRX
		} else {
			s.state = stateFillRX
		}

	case stateRX:
		dx := Decode(s.buf[s.idx], s.figures)
		rx := Decode(code, s.figures)
		s.chars++
		var c rune
		switch {
		case dx == '<' && rx == '<':
			c = ETX
		case dx != Invalid:
			c = dx
			if dx != rx && !phasingPair(dx, rx) {
				s.errors++
			}
		case rx != Invalid:
			c = rx
			s.errors++
		default:
			c = '*'
			s.errors += 2
		}
		switch c {
		case ShiftLetters:
			s.figures = false
		case ShiftFigures:
			s.figures = true
		default:
			ret = c
		}
		s.state = stateDX

	case stateDX:
		s.buf[s.idx] = code
		s.idx = (s.idx + 1) % dxBufferSize
		s.state = stateRX
	}
	return ret
}

func phasingPair(a, b rune) bool {
	return (a == '<' && b == '>') || (a == '>' && b == '<')
}
