package navtex

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/channel"
	"github.com/jrwynneiii/rxcore/fifo"
	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/samples"
)

var ErrRunning = errors.New("demod already running")

// Demod is a NAVTEX channel. It is fed device samples by an engine and
// publishes decoded messages to a MessageSink.
type Demod struct {
	name  string
	fifo  *fifo.SampleFifo
	input *message.Queue
	sink  MessageSink

	// owned by the demod goroutine
	settings   Settings
	chz        *channel.Channelizer
	rx         *Receiver
	centerFreq int64
	buf        []complex64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDemod returns a demod for a stream at inRate S/s. fifoSize bounds the
// samples buffered between the engine and the demod goroutine.
func NewDemod(name string, s Settings, inRate, fifoSize int, sink MessageSink) (*Demod, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	f, err := fifo.New(name, fifoSize, fifo.DropNewest)
	if err != nil {
		return nil, err
	}
	chz, err := channel.New(inRate, ChannelSampleRate, s.FrequencyOffset, s.RFBandwidth/2)
	if err != nil {
		return nil, err
	}
	d := &Demod{
		name:     name,
		fifo:     f,
		input:    message.NewQueue(name + "-input"),
		sink:     sink,
		settings: s,
		chz:      chz,
	}
	d.rx = NewReceiver(s, d.publish)
	return d, nil
}

func (d *Demod) Name() string { return d.name }

// Feed copies block into the demod FIFO. Samples that do not fit are dropped.
func (d *Demod) Feed(block []samples.Sample) {
	_, _ = d.fifo.Write(context.Background(), block)
}

func (d *Demod) PushMessage(m message.Message) {
	d.input.Push(m)
}

// Configure queues new settings for the demod goroutine.
func (d *Demod) Configure(s Settings, force bool) {
	d.input.Push(Configure{Settings: s, Force: force})
}

// Dropped returns the number of samples lost to FIFO overflow.
func (d *Demod) Dropped() uint64 { return d.fifo.Dropped() }

func (d *Demod) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	log.Debugf("[navtex] %s started", d.name)
	go d.run(ctx, d.done)
	return nil
}

// Stop waits for the demod goroutine to exit. Buffered samples are discarded.
func (d *Demod) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	d.fifo.Reset()
	log.Debugf("[navtex] %s stopped", d.name)
}

func (d *Demod) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.input.Ready():
			d.input.Drain(d.handleMessage)
		case <-d.fifo.DataReady():
			d.work(ctx)
		}
	}
}

func (d *Demod) work(ctx context.Context) {
	for ctx.Err() == nil {
		if d.input.Len() > 0 {
			d.input.Drain(d.handleMessage)
		}
		p1, p2 := d.fifo.ReadBegin(d.fifo.Size())
		n := len(p1) + len(p2)
		if n == 0 {
			return
		}
		d.buf = d.chz.Process(d.buf[:0], p1)
		d.buf = d.chz.Process(d.buf, p2)
		d.fifo.ReadCommit(n)
		d.rx.Process(d.buf)
	}
}

func (d *Demod) handleMessage(m message.Message) {
	switch msg := m.(type) {
	case message.SignalNotification:
		if msg.SampleRate <= 0 {
			return
		}
		if err := d.chz.Configure(msg.SampleRate, d.settings.FrequencyOffset); err != nil {
			log.Errorf("[navtex] %s: %v", d.name, err)
			return
		}
		d.centerFreq = msg.CenterFrequency
		d.rx.Frequency = d.centerFreq + d.settings.FrequencyOffset
		log.Debugf("[navtex] %s: input %d S/s, channel at %d Hz", d.name, msg.SampleRate, d.rx.Frequency)
	case message.ConfigureChannelizer:
		if err := d.chz.Apply(msg); err != nil {
			log.Errorf("[navtex] %s: %v", d.name, err)
			return
		}
		d.settings.FrequencyOffset = msg.FrequencyOffset
		d.rx.Frequency = d.centerFreq + msg.FrequencyOffset
	case Configure:
		d.applySettings(msg.Settings, msg.Force)
	default:
		log.Warnf("[navtex] %s: ignoring %s message", d.name, m.Kind())
	}
}

func (d *Demod) applySettings(s Settings, force bool) {
	if err := s.Validate(); err != nil {
		log.Errorf("[navtex] %s: rejecting settings: %v", d.name, err)
		return
	}
	old := d.settings
	if force || s.FrequencyOffset != old.FrequencyOffset {
		if err := d.chz.Configure(d.chz.InRate(), s.FrequencyOffset); err != nil {
			log.Errorf("[navtex] %s: %v", d.name, err)
			return
		}
		d.rx.Frequency = d.centerFreq + s.FrequencyOffset
	}
	if force || s.RFBandwidth != old.RFBandwidth {
		chz, err := channel.New(d.chz.InRate(), ChannelSampleRate, s.FrequencyOffset, s.RFBandwidth/2)
		if err != nil {
			log.Errorf("[navtex] %s: %v", d.name, err)
			return
		}
		d.chz = chz
	}
	d.settings = s
	if force || s != old {
		d.rx.Configure(s)
	}
	log.Debugf("[navtex] %s: settings applied (offset %d Hz, %v baud, %v filter)", d.name, s.FrequencyOffset, s.Baud, s.Filter)
}

func (d *Demod) publish(m DecodedMessage) {
	log.Infof("[navtex] %s: message from %s, %d errors", d.name, m.Message.StationID, m.Errors)
	if d.sink != nil {
		d.sink.PushNavtex(m)
	}
}
