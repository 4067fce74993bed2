// Package cordic implements deterministic fixed point arithmetic on 64 bit
// integers with 28 fractional bits. Every transcendental function is computed
// with shift-and-add CORDIC iterations so results are bit identical on every
// platform.
package cordic

import (
	"math"
	"math/bits"
)

// FracBits is the number of fractional bits in a Fixed.
const FracBits = 28

// Fixed is a signed Q35.28 fixed point number.
type Fixed int64

const (
	One  Fixed = 1 << FracBits
	Half Fixed = One >> 1

	Pi     Fixed = 843314857
	HalfPi Fixed = 421657428
	TwoPi  Fixed = 2 * Pi
	Ln2    Fixed = 186065279
	Ln10   Fixed = 618095479

	MaxFixed Fixed = math.MaxInt64
	MinFixed Fixed = math.MinInt64 + 1
)

func FromFloat(f float64) Fixed {
	return Fixed(math.Round(f * float64(One)))
}

func FromInt(i int64) Fixed {
	return Fixed(i << FracBits)
}

// FromRatio returns num/den. A zero denominator saturates.
func FromRatio(num, den int64) Fixed {
	return FromInt(num).Div(FromInt(den))
}

func (f Fixed) Float() float64 {
	return float64(f) / float64(One)
}

// Int truncates toward negative infinity.
func (f Fixed) Int() int64 {
	return int64(f >> FracBits)
}

// Round returns the nearest integer.
func (f Fixed) Round() int64 {
	return int64((f + Half) >> FracBits)
}

func (f Fixed) Abs() Fixed {
	if f < 0 {
		return -f
	}
	return f
}

func abs64(v Fixed) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func signed(mag uint64, neg bool) Fixed {
	if mag > math.MaxInt64 {
		if neg {
			return MinFixed
		}
		return MaxFixed
	}
	if neg {
		return -Fixed(mag)
	}
	return Fixed(mag)
}

// Mul returns f*g rounded to nearest, saturating on overflow.
func (f Fixed) Mul(g Fixed) Fixed {
	neg := (f < 0) != (g < 0)
	hi, lo := bits.Mul64(abs64(f), abs64(g))
	lo, carry := bits.Add64(lo, 1<<(FracBits-1), 0)
	hi += carry
	if hi>>FracBits != 0 {
		return signed(math.MaxUint64, neg)
	}
	return signed(hi<<(64-FracBits)|lo>>FracBits, neg)
}

// Div returns f/g rounded to nearest. Division by zero and overflow saturate.
func (f Fixed) Div(g Fixed) Fixed {
	neg := (f < 0) != (g < 0)
	if g == 0 {
		if f == 0 {
			return 0
		}
		return signed(math.MaxUint64, neg)
	}
	n := abs64(f)
	d := abs64(g)
	hi, lo := n>>(64-FracBits), n<<FracBits
	lo, carry := bits.Add64(lo, d>>1, 0)
	hi += carry
	if hi >= d {
		return signed(math.MaxUint64, neg)
	}
	q, _ := bits.Div64(hi, lo, d)
	return signed(q, neg)
}

// Shl and Shr scale by powers of two.
func (f Fixed) Shl(n uint) Fixed { return f << n }
func (f Fixed) Shr(n uint) Fixed { return f >> n }
