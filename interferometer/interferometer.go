package interferometer

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/dsp"
	"github.com/jrwynneiii/rxcore/fifo"
	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/samples"
)

var ErrRunning = errors.New("interferometer already running")

// PhaseReport is published every time a new averaged phase is available.
type PhaseReport struct {
	Phase    float64
	PhaseDeg float64
	Bearing
	// SNR of input A in dB.
	SNR             float64
	CenterFrequency int64
	Timestamp       time.Time
}

func (PhaseReport) Kind() message.Kind { return message.KindPhaseReport }

type PhaseSink interface {
	PushPhase(r PhaseReport)
}

// CorrelationSink is implemented by phase sinks that also want the
// correlation output. Without one the correlator skips building it.
type CorrelationSink interface {
	PushCorrelation(r Result)
}

// Interferometer is a two stream channel: FeedSync stores aligned blocks, a
// goroutine correlates them and reports phase and bearing.
type Interferometer struct {
	name     string
	fifo     *fifo.MIFifo
	input    *message.Queue
	sink     PhaseSink
	corrSink CorrelationSink

	// owned by the interferometer goroutine
	corr       *Correlator
	snr        *dsp.SNREstimator
	a, b       []complex64
	centerFreq int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(name string, s Settings, fifoSize int, sink PhaseSink) (*Interferometer, error) {
	corr, err := NewCorrelator(s)
	if err != nil {
		return nil, err
	}
	f, err := fifo.NewMI(2, fifoSize)
	if err != nil {
		return nil, err
	}
	cs, _ := sink.(CorrelationSink)
	corr.SetOutput(cs != nil)
	return &Interferometer{
		name:     name,
		fifo:     f,
		input:    message.NewQueue(name + "-input"),
		sink:     sink,
		corrSink: cs,
		corr:     corr,
		snr:      dsp.NewSNREstimator(0.001),
	}, nil
}

func (it *Interferometer) Name() string { return it.name }

// FeedSync stores one block per antenna, captured over the same window.
func (it *Interferometer) FeedSync(blocks [][]samples.Sample) {
	it.fifo.WriteSync(blocks)
}

func (it *Interferometer) PushMessage(m message.Message) {
	it.input.Push(m)
}

func (it *Interferometer) Configure(s Settings, force bool) {
	it.input.Push(Configure{Settings: s, Force: force})
}

func (it *Interferometer) Dropped() uint64 { return it.fifo.Dropped() }

func (it *Interferometer) Start() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.cancel != nil {
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	it.cancel = cancel
	it.done = make(chan struct{})
	log.Debugf("[interferometer] %s started", it.name)
	go it.run(ctx, it.done)
	return nil
}

func (it *Interferometer) Stop() {
	it.mu.Lock()
	cancel, done := it.cancel, it.done
	it.cancel = nil
	it.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	it.fifo.Reset()
	log.Debugf("[interferometer] %s stopped", it.name)
}

func (it *Interferometer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-it.input.Ready():
			it.input.Drain(it.handleMessage)
		case <-it.fifo.DataReady():
			it.work(ctx)
		}
	}
}

func (it *Interferometer) work(ctx context.Context) {
	for ctx.Err() == nil {
		if it.input.Len() > 0 {
			it.input.Drain(it.handleMessage)
		}
		spans := it.fifo.ReadSyncBegin(it.corr.settings.FFTSize * 16)
		n := spans[0].Len()
		if n == 0 {
			return
		}
		it.a = samples.ToComplex(samples.ToComplex(it.a[:0], spans[0].Part1), spans[0].Part2)
		it.b = samples.ToComplex(samples.ToComplex(it.b[:0], spans[1].Part1), spans[1].Part2)
		it.fifo.ReadSyncCommit(n)

		it.snr.Update(it.a)
		res, ok := it.corr.Correlate(it.a, it.b)
		if !ok {
			continue
		}
		if it.corrSink != nil {
			it.corrSink.PushCorrelation(res)
		}
		for _, ph := range res.Phases {
			it.publish(ph)
		}
	}
}

func (it *Interferometer) publish(phase float64) {
	s := it.corr.Settings()
	r := PhaseReport{
		Phase:           phase,
		PhaseDeg:        phase * 180 / math.Pi,
		Bearing:         ComputeBearing(phase, s.AntennaAzimuth, s.AntennaDistance),
		SNR:             it.snr.DB(),
		CenterFrequency: it.centerFreq,
		Timestamp:       time.Now(),
	}
	if it.sink != nil {
		it.sink.PushPhase(r)
	}
}

func (it *Interferometer) handleMessage(m message.Message) {
	switch msg := m.(type) {
	case message.SignalNotification:
		it.centerFreq = msg.CenterFrequency
	case Configure:
		if err := msg.Settings.Validate(); err != nil {
			log.Errorf("[interferometer] %s: rejecting settings: %v", it.name, err)
			return
		}
		if msg.Force {
			it.corr.Reset()
		}
		it.corr.Configure(msg.Settings)
		log.Debugf("[interferometer] %s: %s correlation, fft %d, phase correction %v", it.name, msg.Settings.Correlation, msg.Settings.FFTSize, msg.Settings.Phase)
	default:
		log.Warnf("[interferometer] %s: ignoring %s message", it.name, m.Kind())
	}
}
