package radio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/config"
	"github.com/jrwynneiii/rxcore/dsp"
	"github.com/jrwynneiii/rxcore/fifo"
	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/samples"
)

type StreamType int

const (
	CU8 StreamType = iota
	CS8
	CS16
	CF32
)

func ParseStreamType(s string) (StreamType, error) {
	switch s {
	case "cu8":
		return CU8, nil
	case "cs8":
		return CS8, nil
	case "cs16", "":
		return CS16, nil
	case "cf32", "complex64":
		return CF32, nil
	}
	return CS16, fmt.Errorf("unsupported sample_type %q, supported types are [cu8 cs8 cs16 cf32]", s)
}

// BytesPerSample is the size of one complex sample on the wire.
func (t StreamType) BytesPerSample() int {
	switch t {
	case CU8, CS8:
		return 2
	case CS16:
		return 4
	case CF32:
		return 8
	}
	return 0
}

// Decode converts raw interleaved IQ bytes into samples.
func (t StreamType) Decode(out []samples.Sample, raw []byte) []samples.Sample {
	bps := t.BytesPerSample()
	for i := 0; i+bps <= len(raw); i += bps {
		var s samples.Sample
		switch t {
		case CU8:
			s = samples.Sample{I: (int16(raw[i]) - 128) << 8, Q: (int16(raw[i+1]) - 128) << 8}
		case CS8:
			s = samples.Sample{I: int16(int8(raw[i])) << 8, Q: int16(int8(raw[i+1])) << 8}
		case CS16:
			s = samples.Sample{I: int16(binary.LittleEndian.Uint16(raw[i:])), Q: int16(binary.LittleEndian.Uint16(raw[i+2:]))}
		case CF32:
			re := math.Float32frombits(binary.LittleEndian.Uint32(raw[i:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(raw[i+4:]))
			s = samples.FromComplex(complex(re, im))
		}
		out = append(out, s)
	}
	return out
}

// Generator produces samples on demand. It is driven by the radio goroutine only.
type Generator interface {
	// Generate appends n samples to out.
	Generate(out []samples.Sample, n int) []samples.Sample
}

// Radio is an engine source that streams either a recorded IQ file or a
// synthetic generator, applies device side decimation and writes the result
// into its FIFO.
type Radio struct {
	Driver     string
	DeviceRate float64
	Frequency  float64
	SampleType StreamType
	Realtime   bool

	chunksize uint
	reader    io.Reader
	gen       Generator
	output    *fifo.SampleFifo

	mu          sync.Mutex
	decim       *dsp.Decimators
	engineQueue *message.Queue
	gui         *message.Queue

	cancel context.CancelFunc
	done   chan struct{}
	eof    chan struct{}
	eofMu  sync.Once
}

func newRadio(conf config.RadioConf, stype StreamType, fifoSize int) (*Radio, error) {
	pos, err := message.ParseFcPos(conf.FcPos)
	if err != nil {
		return nil, err
	}
	decim, err := dsp.NewDecimators(conf.Decimation, pos)
	if err != nil {
		return nil, err
	}
	out, err := fifo.New("radio", fifoSize, fifo.Backpressure)
	if err != nil {
		return nil, err
	}
	chunk := conf.ChunkSize
	if chunk == 0 {
		chunk = 4096
	}
	return &Radio{
		Driver:     conf.Driver,
		DeviceRate: conf.SampleRate,
		Frequency:  conf.Frequency,
		SampleType: stype,
		Realtime:   conf.Realtime,
		chunksize:  chunk,
		output:     out,
		decim:      decim,
		gui:        message.NewQueue("radio-gui"),
		eof:        make(chan struct{}),
	}, nil
}

// NewFromReader streams interleaved IQ of type stype from r.
func NewFromReader(conf config.RadioConf, stype StreamType, r io.Reader, fifoSize int) (*Radio, error) {
	if stype.BytesPerSample() == 0 {
		return nil, fmt.Errorf("radio: unsupported stream type %d", stype)
	}
	rad, err := newRadio(conf, stype, fifoSize)
	if err != nil {
		return nil, err
	}
	rad.reader = r
	return rad, nil
}

// NewFromGenerator streams samples produced by gen.
func NewFromGenerator(conf config.RadioConf, gen Generator, fifoSize int) (*Radio, error) {
	rad, err := newRadio(conf, CS16, fifoSize)
	if err != nil {
		return nil, err
	}
	rad.gen = gen
	return rad, nil
}

func (r *Radio) Description() string {
	if r.reader != nil {
		return fmt.Sprintf("%s reader", r.Driver)
	}
	return fmt.Sprintf("%s generator", r.Driver)
}

func (r *Radio) Fifo() *fifo.SampleFifo {
	return r.output
}

func (r *Radio) GUIQueue() *message.Queue {
	return r.gui
}

func (r *Radio) SetEngineQueue(q *message.Queue) {
	r.mu.Lock()
	r.engineQueue = q
	r.mu.Unlock()
}

// SampleRate returns the rate after decimation.
func (r *Radio) SampleRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.DeviceRate / float64(r.decim.Factor()))
}

// CenterFrequency returns the frequency at the center of the decimated band.
func (r *Radio) CenterFrequency() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.centerFrequency()
}

func (r *Radio) centerFrequency() int64 {
	shift := dsp.ShiftFactor(r.decim.Log2(), r.decim.FcPos()) * r.DeviceRate
	return int64(math.Round(r.Frequency + shift))
}

func (r *Radio) notify() {
	if r.engineQueue == nil {
		return
	}
	r.engineQueue.Push(message.SignalNotification{
		SampleRate:      int(r.DeviceRate / float64(r.decim.Factor())),
		CenterFrequency: r.centerFrequency(),
	})
}

// SetCenterFrequency retunes and notifies the engine.
func (r *Radio) SetCenterFrequency(freq float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.Debugf("[radio] Setting frequency to %f", freq)
	r.Frequency = freq
	r.notify()
}

// ConfigureDecimation swaps the decimation chain and notifies the engine.
func (r *Radio) ConfigureDecimation(cfg message.ConfigureDecimation) error {
	decim, err := dsp.NewDecimators(cfg.Log2Decim, cfg.FcPos)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	log.Debugf("[radio] Setting decimation to 2^%d, fc_pos %s", cfg.Log2Decim, cfg.FcPos)
	r.decim = decim
	r.notify()
	return nil
}

// EOF is closed when a reader backed radio reaches the end of its input.
func (r *Radio) EOF() <-chan struct{} {
	return r.eof
}

// Start spawns the capture goroutine.
func (r *Radio) Start() error {
	if r.cancel != nil {
		return errors.New("radio already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	log.Debugf("[radio] Starting %s at %f S/s", r.Description(), r.DeviceRate)
	go r.loop(ctx)
	return nil
}

// Stop terminates the capture goroutine and waits for it.
func (r *Radio) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	log.Debug("[radio] Stopped")
}

func (r *Radio) loop(ctx context.Context) {
	defer close(r.done)
	var (
		raw     = make([]byte, int(r.chunksize)*r.SampleType.BytesPerSample())
		buf     []samples.Sample
		decoded []samples.Sample
		sent    int64
		start   = time.Now()
	)
	for {
		if ctx.Err() != nil {
			return
		}
		buf = buf[:0]
		if r.gen != nil {
			buf = r.gen.Generate(buf, int(r.chunksize))
		} else {
			n, err := io.ReadFull(r.reader, raw)
			buf = r.SampleType.Decode(buf, raw[:n])
			if err != nil && len(buf) == 0 {
				log.Infof("[radio] End of input: %v", err)
				r.eofMu.Do(func() { close(r.eof) })
				return
			}
		}

		r.mu.Lock()
		decoded = r.decim.Decimate(decoded[:0], buf)
		r.mu.Unlock()

		if _, err := r.output.Write(ctx, decoded); err != nil {
			return
		}

		if r.Realtime {
			sent += int64(len(buf))
			due := start.Add(time.Duration(float64(sent) / r.DeviceRate * float64(time.Second)))
			if wait := time.Until(due); wait > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
