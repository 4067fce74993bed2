package dsp

import (
	"math"
	"math/cmplx"
)

// SNREstimator tracks a moment based (M2M4) signal to noise estimate.
//
// Based upon SatDump's SNR estimator, which follows:
//
// D. R. Pauluzzi and N. C. Beaulieu, "A comparison of SNR
// estimation techniques for the AWGN channel," IEEE
// Trans. Communications, Vol. 48, No. 10, pp. 1681-1691, 2000.
type SNREstimator struct {
	Y1     float64
	Y2     float64
	Alpha  float64
	Beta   float64
	Signal float64
	Noise  float64
}

func NewSNREstimator(alpha float64) *SNREstimator {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.001
	}
	return &SNREstimator{Alpha: alpha, Beta: 1.0 - alpha}
}

// Update folds s into the moments and returns the current estimate in dB.
func (e *SNREstimator) Update(s []complex64) float64 {
	for _, samp := range s {
		mag2 := math.Pow(cmplx.Abs(complex128(samp)), 2)
		e.Y1 = e.Alpha*mag2 + e.Beta*e.Y1
		e.Y2 = e.Alpha*mag2*mag2 + e.Beta*e.Y2
	}
	if math.IsNaN(e.Y1) {
		e.Y1 = 0
	}
	if math.IsNaN(e.Y2) {
		e.Y2 = 0
	}
	return e.DB()
}

func (e *SNREstimator) DB() float64 {
	// radicand broken out since it is used twice
	radicand := 2.0*e.Y1*e.Y1 - e.Y2
	if radicand <= 0 {
		return 0
	}
	e.Signal = math.Sqrt(radicand)
	e.Noise = e.Y1 - e.Signal
	if e.Noise <= 0 {
		return 0
	}
	return max(0, 10.0*math.Log10(e.Signal/e.Noise))
}

func (e *SNREstimator) Reset() {
	e.Y1, e.Y2, e.Signal, e.Noise = 0, 0, 0, 0
}

// PowerFromDB converts a power ratio in dB to linear.
func PowerFromDB(db float64) float64 {
	return math.Pow(10, db/10)
}

// DBFromPower converts a linear power ratio to dB, flooring at -100 dB.
func DBFromPower(p float64) float64 {
	if p <= 1e-10 {
		return -100
	}
	return 10 * math.Log10(p)
}
