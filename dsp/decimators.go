package dsp

import (
	"fmt"
	"math"

	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/samples"
	"github.com/racerxdl/segdsp/dsp"
)

const (
	MaxLog2Decim = 6

	halfbandTransition = 0.15
	tapFracBits        = 15
)

var halfbandTaps = designHalfband()

// designHalfband returns a Q15 low pass with its -6 dB point at a quarter of
// the input rate.
func designHalfband() []int32 {
	proto := dsp.MakeLowPass(1, 2, 0.5, halfbandTransition)
	taps := make([]int32, len(proto))
	var sum float64
	for _, v := range proto {
		sum += float64(v)
	}
	for i, v := range proto {
		taps[i] = int32(math.Round(float64(v) / sum * (1 << tapFracBits)))
	}
	return taps
}

// halfband is one integer decimate by two stage.
type halfband struct {
	histI []int32
	histQ []int32
	pos   int
	odd   bool
}

func newHalfband() *halfband {
	n := len(halfbandTaps)
	return &halfband{histI: make([]int32, 2*n), histQ: make([]int32, 2*n)}
}

func (h *halfband) push(s samples.Sample) {
	n := len(halfbandTaps)
	h.histI[h.pos], h.histI[h.pos+n] = int32(s.I), int32(s.I)
	h.histQ[h.pos], h.histQ[h.pos+n] = int32(s.Q), int32(s.Q)
	h.pos++
	if h.pos == n {
		h.pos = 0
	}
}

func (h *halfband) work(out, in []samples.Sample) []samples.Sample {
	n := len(halfbandTaps)
	for _, s := range in {
		h.push(s)
		h.odd = !h.odd
		if h.odd {
			continue
		}
		wi := h.histI[h.pos : h.pos+n]
		wq := h.histQ[h.pos : h.pos+n]
		var accI, accQ int64
		for k, t := range halfbandTaps {
			accI += int64(wi[k]) * int64(t)
			accQ += int64(wq[k]) * int64(t)
		}
		out = append(out, samples.Sample{I: clamp16(roundShift(accI)), Q: clamp16(roundShift(accQ))})
	}
	return out
}

func roundShift(acc int64) int64 {
	return (acc + 1<<(tapFracBits-1)) >> tapFracBits
}

func clamp16(v int64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func neg16(v int16) int16 {
	if v == math.MinInt16 {
		return math.MaxInt16
	}
	return -v
}

// Decimators performs power of two decimation on integer samples, optionally
// translating the band around plus or minus a quarter of the input rate to DC
// before the first stage.
type Decimators struct {
	log2   int
	pos    message.FcPos
	stages []*halfband
	rot    uint32
	a, b   []samples.Sample
}

func NewDecimators(log2 int, pos message.FcPos) (*Decimators, error) {
	if log2 < 0 || log2 > MaxLog2Decim {
		return nil, fmt.Errorf("decimators: log2 must be within 0..%d, got %d", MaxLog2Decim, log2)
	}
	d := &Decimators{log2: log2, pos: pos}
	for i := 0; i < log2; i++ {
		d.stages = append(d.stages, newHalfband())
	}
	return d, nil
}

func (d *Decimators) Log2() int            { return d.log2 }
func (d *Decimators) FcPos() message.FcPos { return d.pos }
func (d *Decimators) Factor() int          { return 1 << d.log2 }

// ShiftFactor returns the band center offset, as a fraction of the input
// rate, that decimation with this configuration brings to DC.
func ShiftFactor(log2 int, pos message.FcPos) float64 {
	if log2 == 0 {
		return 0
	}
	switch pos {
	case message.Infradyne:
		return 0.25
	case message.Supradyne:
		return -0.25
	}
	return 0
}

// rotate multiplies by (-j)^n for infradyne or (+j)^n for supradyne.
func (d *Decimators) rotate(s samples.Sample) samples.Sample {
	n := d.rot & 3
	d.rot++
	if d.pos == message.Supradyne && n&1 == 1 {
		n ^= 2
	}
	switch n {
	case 1:
		return samples.Sample{I: s.Q, Q: neg16(s.I)}
	case 2:
		return samples.Sample{I: neg16(s.I), Q: neg16(s.Q)}
	case 3:
		return samples.Sample{I: neg16(s.Q), Q: s.I}
	}
	return s
}

// Decimate appends the decimated form of in to out.
func (d *Decimators) Decimate(out, in []samples.Sample) []samples.Sample {
	if d.log2 == 0 {
		return append(out, in...)
	}
	cur := in
	if d.pos != message.Centered {
		d.a = d.a[:0]
		for _, s := range in {
			d.a = append(d.a, d.rotate(s))
		}
		cur = d.a
	}
	for i, st := range d.stages {
		if i == len(d.stages)-1 {
			return st.work(out, cur)
		}
		d.b = st.work(d.b[:0], cur)
		cur, d.a, d.b = d.b, d.b, d.a
	}
	return out
}

func (d *Decimators) Reset() {
	d.rot = 0
	for i := range d.stages {
		d.stages[i] = newHalfband()
	}
}
