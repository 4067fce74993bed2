package cordic

const iterations = 28

// atan(2^-i) for i = 0..28
var atanTable = [iterations + 1]Fixed{
	210828714, 124459457, 65760959, 33381290, 16755422, 8385879, 4193963, 2097109,
	1048571, 524287, 262144, 131072, 65536, 32768, 16384, 8192, 4096, 2048, 1024,
	512, 256, 128, 64, 32, 16, 8, 4, 2, 1,
}

// atanh(2^-i) for i = 1..28
var atanhTable = [iterations]Fixed{
	147453245, 68561855, 33730852, 16799113, 8391340, 4194645, 2097195, 1048581,
	524289, 262144, 131072, 65536, 32768, 16384, 8192, 4096, 2048, 1024, 512, 256,
	128, 64, 32, 16, 8, 4, 2, 1,
}

const (
	// circular gain compensation, 1/prod(sqrt(1+2^-2i))
	circularGain Fixed = 163008219
	// inverse of the hyperbolic gain with iterations 4 and 13 repeated
	invHyperbolicGain Fixed = 324135026
)

// hyperbolic runs the hyperbolic CORDIC. In vectoring mode y is driven to
// zero, otherwise z is.
func hyperbolic(x, y, z Fixed, vectoring bool) (Fixed, Fixed, Fixed) {
	k := 4
	for i := 1; i <= iterations; i++ {
		for rep := 0; rep < 2; rep++ {
			var up bool
			if vectoring {
				up = y < 0
			} else {
				up = z >= 0
			}
			if up {
				x, y, z = x+(y>>i), y+(x>>i), z-atanhTable[i-1]
			} else {
				x, y, z = x-(y>>i), y-(x>>i), z+atanhTable[i-1]
			}
			if i != k {
				break
			}
			k = 3*k + 1
		}
	}
	return x, y, z
}

// wrap reduces an angle into [-Pi, Pi].
func wrap(a Fixed) Fixed {
	a %= TwoPi
	if a > Pi {
		a -= TwoPi
	} else if a < -Pi {
		a += TwoPi
	}
	return a
}

// Sincos returns sin(a) and cos(a).
func Sincos(a Fixed) (sin, cos Fixed) {
	a = wrap(a)
	flip := false
	if a > HalfPi {
		a -= Pi
		flip = true
	} else if a < -HalfPi {
		a += Pi
		flip = true
	}
	x, y, z := circularGain, Fixed(0), a
	for i := 0; i < iterations; i++ {
		if z >= 0 {
			x, y, z = x-(y>>i), y+(x>>i), z-atanTable[i]
		} else {
			x, y, z = x+(y>>i), y-(x>>i), z+atanTable[i]
		}
	}
	if flip {
		return -y, -x
	}
	return y, x
}

func Sin(a Fixed) Fixed {
	s, _ := Sincos(a)
	return s
}

func Cos(a Fixed) Fixed {
	_, c := Sincos(a)
	return c
}

// Polar returns the angle in [-Pi, Pi] and the magnitude of the vector (x, y).
func Polar(x, y Fixed) (angle, mag Fixed) {
	if x == 0 && y == 0 {
		return 0, 0
	}
	var offset Fixed
	if x < 0 {
		if y >= 0 {
			offset = Pi
		} else {
			offset = -Pi
		}
		x, y = -x, -y
	}
	var z Fixed
	for i := 0; i < iterations; i++ {
		if y > 0 {
			x, y, z = x+(y>>i), y-(x>>i), z+atanTable[i]
		} else {
			x, y, z = x-(y>>i), y+(x>>i), z-atanTable[i]
		}
	}
	return wrap(z + offset), x.Mul(circularGain)
}

func Atan2(y, x Fixed) Fixed {
	a, _ := Polar(x, y)
	return a
}

func Magnitude(x, y Fixed) Fixed {
	_, m := Polar(x, y)
	return m
}

// Sqrt returns the square root of v. Non positive input yields zero.
func Sqrt(v Fixed) Fixed {
	if v <= 0 {
		return 0
	}
	k := 0
	for v >= 2*One {
		v >>= 2
		k++
	}
	for v < Half {
		v <<= 2
		k--
	}
	x, _, _ := hyperbolic(v+One/4, v-One/4, 0, true)
	r := x.Mul(invHyperbolicGain)
	if k >= 0 {
		return r << k
	}
	return r >> -k
}

// Ln returns the natural logarithm of v. Non positive input saturates to MinFixed.
func Ln(v Fixed) Fixed {
	if v <= 0 {
		return MinFixed
	}
	var k int64
	for v >= 2*One {
		v >>= 1
		k++
	}
	for v < One {
		v <<= 1
		k--
	}
	_, _, z := hyperbolic(v+One, v-One, 0, true)
	return 2*z + Fixed(k)*Ln2
}

func Log2(v Fixed) Fixed {
	if v <= 0 {
		return MinFixed
	}
	return Ln(v).Div(Ln2)
}

func Log10(v Fixed) Fixed {
	if v <= 0 {
		return MinFixed
	}
	return Ln(v).Div(Ln10)
}

// Exp returns e^t, saturating when the result does not fit.
func Exp(t Fixed) Fixed {
	k := t.Div(Ln2).Round()
	if k > 62-FracBits {
		return MaxFixed
	}
	if k < -(FracBits + 2) {
		return 0
	}
	r := t - Fixed(k)*Ln2
	x, y, _ := hyperbolic(invHyperbolicGain, 0, r, false)
	v := x + y
	if k >= 0 {
		return v << k
	}
	return v >> -k
}
