package dsp

import (
	"fmt"
	"math"

	"github.com/racerxdl/segdsp/dsp"
)

const (
	interpolatorPhases   = 32
	maxTapsPerPhase      = 1024
	hammingTransitionLen = 53.0 / 22.0
)

// Interpolator is a polyphase fractional resampler. The prototype low pass is
// designed at phases times the input rate and split into one sub filter per
// phase. The fractional distance to the next output carries across calls.
type Interpolator struct {
	inRate   float64
	outRate  float64
	distance float64
	remain   float64
	taps     [][]float32
	hist     []complex64
	pos      int
	ntaps    int
}

// NewInterpolator builds a resampler from inRate to outRate whose pass band
// ends at cutoff Hz.
func NewInterpolator(inRate, outRate, cutoff float64) (*Interpolator, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("interpolator: invalid rates %v -> %v", inRate, outRate)
	}
	// cutoff is the pass band edge; the transition band ends where its alias
	// would reach the pass band after resampling.
	low := math.Min(inRate, outRate)
	edge := math.Min(cutoff, 0.4*low)
	if edge <= 0 {
		edge = 0.25 * low
	}
	tw := math.Max(low-2*edge, 0.1*low)
	ntaps := int(math.Ceil(hammingTransitionLen * inRate / tw))
	ntaps = min(max(ntaps, 8), maxTapsPerPhase)
	tw = hammingTransitionLen * inRate / float64(ntaps)

	proto := dsp.MakeLowPass(interpolatorPhases, inRate*interpolatorPhases, edge+tw/2, tw)
	it := &Interpolator{
		inRate:   inRate,
		outRate:  outRate,
		distance: inRate / outRate,
		ntaps:    ntaps,
		hist:     make([]complex64, 2*ntaps),
	}
	it.taps = polyphase(proto, interpolatorPhases, ntaps)
	return it, nil
}

// polyphase splits proto into phases sub filters of ntaps taps, each reversed
// so it lines up with an oldest first history window, and normalised to unity
// DC gain.
func polyphase(proto []float32, phases, ntaps int) [][]float32 {
	full := make([]float32, phases*ntaps)
	off := max((len(full)-len(proto))/2, 0)
	skip := max((len(proto)-len(full))/2, 0)
	copy(full[off:], proto[skip:])

	taps := make([][]float32, phases)
	for p := range taps {
		taps[p] = make([]float32, ntaps)
		var sum float32
		for k := 0; k < ntaps; k++ {
			v := full[k*phases+p]
			taps[p][ntaps-1-k] = v
			sum += v
		}
		if sum != 0 {
			for k := range taps[p] {
				taps[p][k] /= sum
			}
		}
	}
	return taps
}

func (it *Interpolator) InRate() float64  { return it.inRate }
func (it *Interpolator) OutRate() float64 { return it.outRate }

func (it *Interpolator) push(x complex64) {
	it.hist[it.pos] = x
	it.hist[it.pos+it.ntaps] = x
	it.pos++
	if it.pos == it.ntaps {
		it.pos = 0
	}
}

func (it *Interpolator) filter(phase int) complex64 {
	window := it.hist[it.pos : it.pos+it.ntaps]
	taps := it.taps[phase]
	var re, im float32
	for i, x := range window {
		re += real(x) * taps[i]
		im += imag(x) * taps[i]
	}
	return complex(re, im)
}

func (it *Interpolator) phaseOf(frac float64) int {
	return min(int(frac*interpolatorPhases), interpolatorPhases-1)
}

// Decimate consumes one input sample and produces at most one output.
// Only valid when the output rate does not exceed the input rate.
func (it *Interpolator) Decimate(x complex64) (complex64, bool) {
	it.push(x)
	var out complex64
	ok := false
	if it.remain < 1 {
		out = it.filter(it.phaseOf(it.remain))
		it.remain += it.distance
		ok = true
	}
	it.remain -= 1
	return out, ok
}

// Interpolate consumes one input sample and calls emit for every output that
// falls before the next input.
func (it *Interpolator) Interpolate(x complex64, emit func(complex64)) {
	it.push(x)
	for it.remain < 1 {
		emit(it.filter(it.phaseOf(it.remain)))
		it.remain += it.distance
	}
	it.remain -= 1
}

// Process resamples a block, appending to out.
func (it *Interpolator) Process(out, in []complex64) []complex64 {
	if it.distance >= 1 {
		for _, x := range in {
			if y, ok := it.Decimate(x); ok {
				out = append(out, y)
			}
		}
		return out
	}
	for _, x := range in {
		it.Interpolate(x, func(y complex64) { out = append(out, y) })
	}
	return out
}

func (it *Interpolator) Reset() {
	clear(it.hist)
	it.pos = 0
	it.remain = 0
}
