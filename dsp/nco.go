// Package dsp holds the sample rate conversion, mixing and correction blocks
// shared by the engine and channels.
package dsp

import (
	"math"
	"sync"

	"github.com/jrwynneiii/rxcore/cordic"
	"github.com/jrwynneiii/rxcore/samples"
)

const (
	ncoTableBits = 12
	ncoTableSize = 1 << ncoTableBits
)

var (
	ncoTable     [ncoTableSize]complex64
	ncoTableOnce sync.Once
)

func initNCOTable() {
	step := cordic.TwoPi / ncoTableSize
	for i := range ncoTable {
		s, c := cordic.Sincos(cordic.Fixed(i) * step)
		ncoTable[i] = complex(float32(c.Float()), float32(s.Float()))
	}
}

// NCO is a numerically controlled oscillator with a 32 bit phase accumulator.
// The accumulator wraps modulo one turn so long runs do not lose precision.
type NCO struct {
	phase uint32
	step  uint32
	freq  float64
}

func NewNCO() *NCO {
	ncoTableOnce.Do(initNCOTable)
	return &NCO{}
}

// SetFreq sets the rotation frequency. Negative values rotate clockwise.
func (n *NCO) SetFreq(freq, sampleRate float64) {
	n.freq = freq
	if sampleRate <= 0 {
		n.step = 0
		return
	}
	turns := freq / sampleRate
	turns -= math.Floor(turns)
	n.step = uint32(int64(math.Round(turns * (1 << 32))))
}

func (n *NCO) Freq() float64 {
	return n.freq
}

func (n *NCO) Reset() {
	n.phase = 0
}

// Next returns the current phasor and advances the phase.
func (n *NCO) Next() complex64 {
	v := ncoTable[n.phase>>(32-ncoTableBits)]
	n.phase += n.step
	return v
}

// Mix multiplies a sample by the next phasor.
func (n *NCO) Mix(s samples.Sample) complex64 {
	return s.Complex() * n.Next()
}
