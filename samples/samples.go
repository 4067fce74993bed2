package samples

// Scale is the full scale magnitude of one rail of a Sample.
const Scale = 32768.0

// Sample is one complex baseband sample with 16 bit rails.
type Sample struct {
	I int16
	Q int16
}

// Block is an ordered run of samples sharing one acquisition epoch.
type Block []Sample

func (s Sample) Complex() complex64 {
	return complex(float32(s.I)/Scale, float32(s.Q)/Scale)
}

// MagSq returns the normalised squared magnitude of the sample.
func (s Sample) MagSq() float64 {
	i := float64(s.I) / Scale
	q := float64(s.Q) / Scale
	return i*i + q*q
}

// FromComplex converts a normalised complex value to a Sample, clipping to full scale.
func FromComplex(c complex64) Sample {
	return Sample{I: clip(float64(real(c)) * Scale), Q: clip(float64(imag(c)) * Scale)}
}

func clip(v float64) int16 {
	if v >= 32767 {
		return 32767
	}
	if v <= -32768 {
		return -32768
	}
	if v < 0 {
		return int16(v - 0.5)
	}
	return int16(v + 0.5)
}

// ToComplex appends the normalised complex form of in to out.
func ToComplex(out []complex64, in []Sample) []complex64 {
	for _, s := range in {
		out = append(out, s.Complex())
	}
	return out
}

// FromComplexSlice appends the Sample form of in to out.
func FromComplexSlice(out []Sample, in []complex64) []Sample {
	for _, c := range in {
		out = append(out, FromComplex(c))
	}
	return out
}
