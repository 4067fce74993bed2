package radio

import (
	"math"
	"math/rand"

	"github.com/jrwynneiii/rxcore/samples"
)

// Tone is a constant complex tone at Offset Hz from the center.
type Tone struct {
	Offset    float64
	Amplitude float64
}

// FSK is a phase continuous binary FSK stream. A one (mark) is sent on the
// upper tone, Offset+Shift/2.
type FSK struct {
	Offset    float64
	Shift     float64
	Baud      float64
	Amplitude float64
	Bits      []byte
	Repeat    bool
	// Idle is sent after Bits when Repeat is false.
	Idle bool
}

// Synth generates test signals at SampleRate.
type Synth struct {
	SampleRate float64
	Tones      []Tone
	FSK        *FSK
	Noise      float64

	n        uint64
	fskPhase float64
	rng      *rand.Rand
}

func NewSynth(sampleRate float64, seed int64) *Synth {
	return &Synth{SampleRate: sampleRate, rng: rand.New(rand.NewSource(seed))}
}

// bitAt returns the FSK bit for sample n, or ok false once a non repeating
// stream has been sent.
func (f *FSK) bitAt(n uint64, sampleRate float64) (byte, bool) {
	if len(f.Bits) == 0 {
		return 0, false
	}
	idx := int(float64(n) * f.Baud / sampleRate)
	if idx >= len(f.Bits) {
		if !f.Repeat {
			return 0, false
		}
		idx %= len(f.Bits)
	}
	return f.Bits[idx], true
}

// Complex returns n samples as normalised complex values.
func (s *Synth) Complex(out []complex64, n int) []complex64 {
	for i := 0; i < n; i++ {
		t := float64(s.n) / s.SampleRate
		var re, im float64
		for _, tone := range s.Tones {
			ph := 2 * math.Pi * tone.Offset * t
			re += tone.Amplitude * math.Cos(ph)
			im += tone.Amplitude * math.Sin(ph)
		}
		if s.FSK != nil {
			bit, ok := s.FSK.bitAt(s.n, s.SampleRate)
			if ok || s.FSK.Idle {
				freq := s.FSK.Offset - s.FSK.Shift/2
				if bit == 1 {
					freq = s.FSK.Offset + s.FSK.Shift/2
				}
				s.fskPhase = math.Mod(s.fskPhase+2*math.Pi*freq/s.SampleRate, 2*math.Pi)
				re += s.FSK.Amplitude * math.Cos(s.fskPhase)
				im += s.FSK.Amplitude * math.Sin(s.fskPhase)
			}
		}
		if s.Noise > 0 {
			if s.rng == nil {
				s.rng = rand.New(rand.NewSource(1))
			}
			re += s.rng.NormFloat64() * s.Noise
			im += s.rng.NormFloat64() * s.Noise
		}
		out = append(out, complex(float32(re), float32(im)))
		s.n++
	}
	return out
}

func (s *Synth) Generate(out []samples.Sample, n int) []samples.Sample {
	for _, c := range s.Complex(nil, n) {
		out = append(out, samples.FromComplex(c))
	}
	return out
}
