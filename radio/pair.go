package radio

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/samples"
)

// SyncSink receives one block per stream captured over the same window.
type SyncSink interface {
	FeedSync(blocks [][]samples.Sample)
}

// Pair synthesizes two coherent channels of the same tone, the second one
// shifted by a controllable phase delta, as seen by a two element array.
type Pair struct {
	SampleRate float64
	ToneOffset float64
	Amplitude  float64
	Noise      float64
	BlockSize  int
	Realtime   bool

	mu         sync.RWMutex
	phaseDelta float64
	n          uint64
	rng        *rand.Rand
}

func NewPair(sampleRate, toneOffset, phaseDeltaDeg float64) *Pair {
	return &Pair{
		SampleRate: sampleRate,
		ToneOffset: toneOffset,
		Amplitude:  0.5,
		BlockSize:  4096,
		phaseDelta: phaseDeltaDeg,
		rng:        rand.New(rand.NewSource(7)),
	}
}

// SetPhaseDelta updates the simulated phase delta in degrees.
func (p *Pair) SetPhaseDelta(deg float64) {
	p.mu.Lock()
	p.phaseDelta = deg
	p.mu.Unlock()
}

func (p *Pair) PhaseDelta() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.phaseDelta
}

// Generate returns n samples for each channel.
func (p *Pair) Generate(n int) ([]samples.Sample, []samples.Sample) {
	delta := p.PhaseDelta() * math.Pi / 180
	step := 2 * math.Pi * p.ToneOffset / p.SampleRate
	ch0 := make([]samples.Sample, n)
	ch1 := make([]samples.Sample, n)
	for i := 0; i < n; i++ {
		phase := step * float64(p.n)
		var n0, n1 complex128
		if p.Noise > 0 {
			n0 = complex(p.rng.NormFloat64()*p.Noise, p.rng.NormFloat64()*p.Noise)
			n1 = complex(p.rng.NormFloat64()*p.Noise, p.rng.NormFloat64()*p.Noise)
		}
		v0 := complex(p.Amplitude*math.Cos(phase), p.Amplitude*math.Sin(phase)) + n0
		v1 := complex(p.Amplitude*math.Cos(phase+delta), p.Amplitude*math.Sin(phase+delta)) + n1
		ch0[i] = samples.FromComplex(complex64(v0))
		ch1[i] = samples.FromComplex(complex64(v1))
		p.n++
	}
	return ch0, ch1
}

// Run feeds blocks to sink until ctx is done.
func (p *Pair) Run(ctx context.Context, sink SyncSink) {
	log.Debugf("[radio] Starting pair generator at %f S/s, tone %f Hz", p.SampleRate, p.ToneOffset)
	start := time.Now()
	var sent int64
	for ctx.Err() == nil {
		a, b := p.Generate(p.BlockSize)
		sink.FeedSync([][]samples.Sample{a, b})
		if !p.Realtime {
			continue
		}
		sent += int64(p.BlockSize)
		due := start.Add(time.Duration(float64(sent) / p.SampleRate * float64(time.Second)))
		select {
		case <-time.After(time.Until(due)):
		case <-ctx.Done():
		}
	}
}
