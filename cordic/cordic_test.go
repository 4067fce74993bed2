package cordic

import (
	"math"
	"testing"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		a, b     float64
		mul, div float64
	}{
		{a: 1.5, b: 2, mul: 3, div: 0.75},
		{a: -3.25, b: 0.5, mul: -1.625, div: -6.5},
		{a: -2, b: -4, mul: 8, div: 0.5},
		{a: 1000, b: 0.001, mul: 1, div: 1e6},
	}
	for _, tt := range tests {
		a, b := FromFloat(tt.a), FromFloat(tt.b)
		if got := a.Mul(b).Float(); math.Abs(got-tt.mul) > 1e-5 {
			t.Errorf("%v*%v: expected %v got %v", tt.a, tt.b, tt.mul, got)
		}
		if got := a.Div(b).Float(); math.Abs(got-tt.div)/math.Abs(tt.div) > 1e-5 {
			t.Errorf("%v/%v: expected %v got %v", tt.a, tt.b, tt.div, got)
		}
	}
}

func TestDivByZeroSaturates(t *testing.T) {
	if got := One.Div(0); got != MaxFixed {
		t.Fatalf("expected MaxFixed got %d", got)
	}
	if got := (-One).Div(0); got != MinFixed {
		t.Fatalf("expected MinFixed got %d", got)
	}
	if got := Fixed(0).Div(0); got != 0 {
		t.Fatalf("expected 0 got %d", got)
	}
}

func TestSincos(t *testing.T) {
	for a := -10.0; a <= 10.0; a += 0.37 {
		s, c := Sincos(FromFloat(a))
		if math.Abs(s.Float()-math.Sin(a)) > 1e-7 || math.Abs(c.Float()-math.Cos(a)) > 1e-7 {
			t.Fatalf("angle %v: expected (%v, %v) got (%v, %v)", a, math.Sin(a), math.Cos(a), s.Float(), c.Float())
		}
	}
}

func TestPolar(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
	}{
		{name: "east", x: 1, y: 0},
		{name: "north", x: 0, y: 1},
		{name: "west_up", x: -1, y: 0.001},
		{name: "west_down", x: -1, y: -0.001},
		{name: "fourth", x: 0.3, y: -0.4},
		{name: "second", x: -2, y: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			angle, mag := Polar(FromFloat(tt.x), FromFloat(tt.y))
			if math.Abs(angle.Float()-math.Atan2(tt.y, tt.x)) > 1e-7 {
				t.Fatalf("expected angle %v got %v", math.Atan2(tt.y, tt.x), angle.Float())
			}
			if math.Abs(mag.Float()-math.Hypot(tt.x, tt.y)) > 1e-7 {
				t.Fatalf("expected magnitude %v got %v", math.Hypot(tt.x, tt.y), mag.Float())
			}
		})
	}
	if a, m := Polar(0, 0); a != 0 || m != 0 {
		t.Fatalf("expected zero vector to give (0, 0), got (%d, %d)", a, m)
	}
}

func TestSqrt(t *testing.T) {
	for _, v := range []float64{0.0001, 0.01, 0.25, 1, 2, 3.7, 100, 12345} {
		got := Sqrt(FromFloat(v)).Float()
		if math.Abs(got-math.Sqrt(v))/math.Sqrt(v) > 1e-6 {
			t.Errorf("sqrt(%v): expected %v got %v", v, math.Sqrt(v), got)
		}
	}
	if Sqrt(-One) != 0 {
		t.Fatalf("expected sqrt of a negative value to be 0")
	}
}

func TestLogs(t *testing.T) {
	for _, v := range []float64{0.001, 0.5, 1, 2, 10, 1000} {
		if got := Ln(FromFloat(v)).Float(); math.Abs(got-math.Log(v)) > 1e-5 {
			t.Errorf("ln(%v): expected %v got %v", v, math.Log(v), got)
		}
		if got := Log10(FromFloat(v)).Float(); math.Abs(got-math.Log10(v)) > 1e-5 {
			t.Errorf("log10(%v): expected %v got %v", v, math.Log10(v), got)
		}
		if got := Log2(FromFloat(v)).Float(); math.Abs(got-math.Log2(v)) > 1e-5 {
			t.Errorf("log2(%v): expected %v got %v", v, math.Log2(v), got)
		}
	}
	if Ln(0) != MinFixed {
		t.Fatalf("expected ln(0) to saturate")
	}
}

func TestExp(t *testing.T) {
	for _, v := range []float64{-5, -1, 0, 0.5, 1, 3, 10} {
		got := Exp(FromFloat(v)).Float()
		if math.Abs(got/math.Exp(v)-1) > 1e-5 {
			t.Errorf("exp(%v): expected %v got %v", v, math.Exp(v), got)
		}
	}
	if Exp(FromInt(100)) != MaxFixed {
		t.Fatalf("expected exp(100) to saturate")
	}
}
