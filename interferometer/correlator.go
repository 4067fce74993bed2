// Package interferometer correlates two synchronised channels and derives
// the phase difference and bearing of the signal they share.
package interferometer

import (
	"math"
	"math/cmplx"

	"github.com/jrwynneiii/rxcore/dsp"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// Result is the output of one Correlate call.
type Result struct {
	Type    CorrelationType
	Samples []complex64
	// Phases holds one averaged phase of A relative to B, in radians, per
	// averaging window completed by this call, oldest first.
	Phases []float64
	// Phase is the last entry of Phases. It is only meaningful when
	// PhaseValid is set.
	Phase      float64
	PhaseValid bool
	// Blocks is the number of FFT blocks processed by this call.
	Blocks int
}

// Peak returns the position of the strongest sample relative to the centre of
// its block, and its magnitude. For IFFT results a B delayed by d samples
// peaks at -d; for FFT results the position is the bin offset from DC.
func (r Result) Peak() (int, float64) {
	best, at := -1.0, 0
	for i, v := range r.Samples {
		if m := cmplx.Abs(complex128(v)); m > best {
			best, at = m, i
		}
	}
	if best < 0 {
		return 0, 0
	}
	if r.Blocks > 0 {
		n := len(r.Samples) / r.Blocks
		return at%n - n/2, best
	}
	return at, best
}

// Correlator keeps the stream state of one A/B pair: FFT tails and the phase
// accumulator.
type Correlator struct {
	settings   Settings
	n          int
	fft        *fourier.CmplxFFT
	win        []float64
	norm       float64
	threshold  float64
	correction complex64
	output     bool

	tailA, tailB []complex64
	wa, wb       []complex128
	fa, fb, xc   []complex128
	seq          []complex128

	// bins above the threshold in the current block
	blockSum  complex128
	blockBins int
	// products seen in the current block
	blockLen int

	phaseAcc complex128
	phaseN   int
}

func NewCorrelator(s Settings) (*Correlator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	c := &Correlator{output: true}
	c.Configure(s)
	return c, nil
}

// Configure applies s. Buffered tails and the phase average are dropped when
// the FFT size changes.
func (c *Correlator) Configure(s Settings) {
	if s.FFTSize != c.n {
		c.n = s.FFTSize
		c.fft = fourier.NewCmplxFFT(c.n)
		ones := make([]float64, c.n)
		for i := range ones {
			ones[i] = 1
		}
		c.win = window.Hann(ones)
		c.norm = floats.Sum(c.win)
		c.wa = make([]complex128, c.n)
		c.wb = make([]complex128, c.n)
		c.fa = make([]complex128, c.n)
		c.fb = make([]complex128, c.n)
		c.xc = make([]complex128, c.n)
		c.seq = make([]complex128, c.n)
		c.Reset()
	}
	c.settings = s
	c.threshold = dsp.PowerFromDB(s.MagThresholdDB)
	c.SetPhaseCorrection(s.Phase)
}

// SetPhaseCorrection rotates input B by deg degrees before correlating.
func (c *Correlator) SetPhaseCorrection(deg float64) {
	c.settings.Phase = deg
	s, co := math.Sincos(deg * math.Pi / 180)
	c.correction = complex(float32(co), float32(s))
}

func (c *Correlator) Settings() Settings { return c.settings }

// SetOutput selects whether Result.Samples is filled. Phase tracking is not
// affected.
func (c *Correlator) SetOutput(keep bool) { c.output = keep }

func (c *Correlator) Reset() {
	c.tailA = c.tailA[:0]
	c.tailB = c.tailB[:0]
	c.blockSum = 0
	c.blockBins = 0
	c.blockLen = 0
	c.phaseAcc = 0
	c.phaseN = 0
}

// Pending returns the number of samples per stream waiting for a full FFT block.
func (c *Correlator) Pending() int { return len(c.tailA) }

// Correlate processes a and b, which must cover the same capture window. The
// longer input is truncated. ok is false when nothing was produced.
func (c *Correlator) Correlate(a, b []complex64) (Result, bool) {
	n := min(len(a), len(b))
	if n == 0 {
		return Result{}, false
	}
	a, b = a[:n], b[:n]
	if c.settings.Correlation.UsesFFT() {
		return c.correlateFFT(a, b)
	}
	return c.correlateDirect(a, b), true
}

func (c *Correlator) rotateB(v complex64) complex64 {
	return v * c.correction
}

func (c *Correlator) correlateDirect(a, b []complex64) Result {
	res := Result{Type: c.settings.Correlation}
	product := c.settings.Correlation == CorrelationProduct
	if !c.output && !product {
		return res
	}
	if c.output {
		res.Samples = make([]complex64, len(a))
	}
	for i := range a {
		bv := c.rotateB(b[i])
		var v complex64
		switch c.settings.Correlation {
		case CorrelationA:
			v = a[i]
		case CorrelationB:
			v = bv
		case CorrelationSum:
			v = a[i] + bv
		case CorrelationDiff:
			v = a[i] - bv
		case CorrelationProduct:
			v = a[i] * complex(real(bv), -imag(bv))
		}
		if c.output {
			res.Samples[i] = v
		}
		if product {
			// one averaging step per FFT length of products
			c.addBin(complex128(v))
			c.blockLen++
			if c.blockLen == c.n {
				c.blockLen = 0
				c.endBlock(&res)
			}
		}
	}
	return res
}

func (c *Correlator) correlateFFT(a, b []complex64) (Result, bool) {
	c.tailA = append(c.tailA, a...)
	c.tailB = append(c.tailB, b...)
	blocks := len(c.tailA) / c.n
	if blocks == 0 {
		return Result{}, false
	}
	res := Result{
		Type:   c.settings.Correlation,
		Blocks: blocks,
	}
	if c.output {
		res.Samples = make([]complex64, 0, blocks*c.n)
	}
	scale := complex(1/(c.norm*c.norm), 0)
	for k := 0; k < blocks; k++ {
		segA := c.tailA[k*c.n : (k+1)*c.n]
		segB := c.tailB[k*c.n : (k+1)*c.n]
		for i := range segA {
			w := complex(c.win[i], 0)
			c.wa[i] = complex128(segA[i]) * w
			c.wb[i] = complex128(c.rotateB(segB[i])) * w
		}
		c.fft.Coefficients(c.fa, c.wa)
		c.fft.Coefficients(c.fb, c.wb)
		for i := range c.xc {
			c.xc[i] = c.fa[i] * cmplx.Conj(c.fb[i]) * scale
			c.addBin(c.xc[i])
		}
		c.endBlock(&res)
		if !c.output {
			continue
		}
		out := c.xc
		if c.settings.Correlation == CorrelationIFFT {
			c.fft.Sequence(c.seq, c.xc)
			inv := complex(1/float64(c.n), 0)
			for i := range c.seq {
				c.seq[i] *= inv
			}
			out = c.seq
		}
		res.Samples = appendShifted(res.Samples, out)
	}
	used := blocks * c.n
	c.tailA = c.tailA[:copy(c.tailA, c.tailA[used:])]
	c.tailB = c.tailB[:copy(c.tailB, c.tailB[used:])]
	return res, true
}

// appendShifted appends x with its halves swapped, putting bin or lag zero in
// the middle.
func appendShifted(dst []complex64, x []complex128) []complex64 {
	half := len(x) / 2
	for _, v := range x[half:] {
		dst = append(dst, complex64(v))
	}
	for _, v := range x[:half] {
		dst = append(dst, complex64(v))
	}
	return dst
}

func (c *Correlator) addBin(v complex128) {
	if cmplx.Abs(v) <= c.threshold {
		return
	}
	c.blockSum += v
	c.blockBins++
}

// endBlock closes one averaging step. The block phase is the magnitude
// weighted circular mean of its bins, which is the argument of their sum.
func (c *Correlator) endBlock(res *Result) {
	if c.blockBins > 0 && c.blockSum != 0 {
		c.phaseAcc += c.blockSum / complex(cmplx.Abs(c.blockSum), 0)
		c.phaseN++
	}
	c.blockSum = 0
	c.blockBins = 0
	if ph, ok := c.publish(); ok {
		res.Phases = append(res.Phases, ph)
		res.Phase, res.PhaseValid = ph, true
	}
}

// publish returns the average phase once enough blocks have been seen.
func (c *Correlator) publish() (float64, bool) {
	if c.phaseN == 0 || c.phaseN < max(c.settings.Averaging, 1) {
		return 0, false
	}
	phase := cmplx.Phase(c.phaseAcc)
	c.phaseAcc = 0
	c.phaseN = 0
	if c.settings.Reverse {
		phase = -phase
	}
	return phase, true
}
