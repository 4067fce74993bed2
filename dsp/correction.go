package dsp

import (
	"github.com/jrwynneiii/rxcore/cordic"
	"github.com/jrwynneiii/rxcore/samples"
)

const (
	correctionWindow = 1 << 10
	correctionShift  = 5
)

// Corrector removes DC offset and IQ imbalance. Phase and amplitude
// imbalance estimates come from second moments of the DC free rails and are
// computed in Q28 fixed point so corrections are reproducible.
type Corrector struct {
	DCOffset    bool
	IQImbalance bool

	iBeta *MovingSum[int64]
	qBeta *MovingSum[int64]
	avgII *MovingSum[int64]
	avgIQ *MovingSum[int64]
	avgPh *MovingSum[int64]
	avgI2 *MovingSum[int64]
	avgQ2 *MovingSum[int64]
	avgAm *MovingSum[int64]
}

func NewCorrector(dc, iq bool) *Corrector {
	c := &Corrector{
		DCOffset:    dc,
		IQImbalance: iq,
		iBeta:       NewMovingSum[int64](correctionWindow),
		qBeta:       NewMovingSum[int64](correctionWindow),
		avgII:       NewMovingSum[int64](correctionWindow),
		avgIQ:       NewMovingSum[int64](correctionWindow),
		avgPh:       NewMovingSum[int64](correctionWindow),
		avgI2:       NewMovingSum[int64](correctionWindow),
		avgQ2:       NewMovingSum[int64](correctionWindow),
		avgAm:       NewMovingSum[int64](correctionWindow),
	}
	c.Reset()
	return c
}

// Configure updates the enabled corrections and clears the statistics.
func (c *Corrector) Configure(dc, iq bool) {
	c.DCOffset = dc
	c.IQImbalance = iq
	c.Reset()
}

func (c *Corrector) Reset() {
	for _, m := range []*MovingSum[int64]{c.iBeta, c.qBeta, c.avgII, c.avgIQ, c.avgPh, c.avgI2, c.avgQ2, c.avgAm} {
		m.Reset()
	}
}

func mean(m *MovingSum[int64]) int64 {
	if m.Count() == 0 {
		return 0
	}
	return m.Sum() / int64(m.Count())
}

// Enabled reports whether any correction is active.
func (c *Corrector) Enabled() bool {
	return c.DCOffset || c.IQImbalance
}

// Apply corrects the samples in place.
func (c *Corrector) Apply(buf []samples.Sample) {
	if !c.Enabled() {
		return
	}
	for i, s := range buf {
		buf[i] = c.correct(s)
	}
}

func (c *Corrector) correct(s samples.Sample) samples.Sample {
	c.iBeta.Push(int64(s.I))
	c.qBeta.Push(int64(s.Q))
	var di, dq int64
	if c.DCOffset {
		di, dq = mean(c.iBeta), mean(c.qBeta)
	}
	xi := (int64(s.I) - di) << correctionShift
	xq := (int64(s.Q) - dq) << correctionShift
	if !c.IQImbalance {
		return samples.Sample{I: clamp16(xi >> correctionShift), Q: clamp16(xq >> correctionShift)}
	}

	// phase
	c.avgII.Push(xi * xi)
	c.avgIQ.Push(xi * xq)
	if ii := mean(c.avgII); ii != 0 {
		c.avgPh.Push(int64(cordic.Fixed(mean(c.avgIQ)).Div(cordic.Fixed(ii))))
	}
	yi := xi
	yq := xq - (mean(c.avgPh)*xi)>>cordic.FracBits

	// amplitude
	c.avgI2.Push(yi * yi)
	c.avgQ2.Push(yq * yq)
	if qq := mean(c.avgQ2); qq != 0 {
		a := cordic.Fixed(mean(c.avgI2)).Div(cordic.Fixed(qq))
		c.avgAm.Push(int64(cordic.Sqrt(a)))
	}
	amp := mean(c.avgAm)
	if c.avgAm.Count() == 0 {
		amp = int64(cordic.One)
	}
	zq := (amp * yq) >> cordic.FracBits

	return samples.Sample{I: clamp16(yi >> correctionShift), Q: clamp16(zq >> correctionShift)}
}
