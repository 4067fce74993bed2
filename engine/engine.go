// Package engine drives a sample source through the acquisition state
// machine and fans its corrected samples out to the registered sinks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/dsp"
	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/samples"
)

var alwaysReady = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

type Engine struct {
	Name string

	state   atomic.Int32
	errMu   sync.Mutex
	lastErr error

	messenger *message.Messenger
	input     *message.Queue

	// owned by the engine goroutine
	source     Source
	sinks      []Sink
	corrector  *dsp.Corrector
	sampleRate int
	centerFreq int64
	backlog    bool

	cancel context.CancelFunc
	done   chan struct{}
}

func New(name string, dcOffset, iqImbalance bool) *Engine {
	e := &Engine{
		Name:      name,
		messenger: message.NewMessenger(),
		input:     message.NewQueue(name + "-input"),
		corrector: dsp.NewCorrector(dcOffset, iqImbalance),
		done:      make(chan struct{}),
	}
	e.state.Store(int32(NotStarted))
	return e
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	old := State(e.state.Swap(int32(s)))
	if old != s {
		log.Debugf("[engine] %s: %s -> %s", e.Name, old, s)
	}
}

// ErrorMessage returns the reason for the last transition into Error.
func (e *Engine) ErrorMessage() string {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	if e.lastErr == nil {
		return ""
	}
	return e.lastErr.Error()
}

func (e *Engine) lastError() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.lastErr
}

// Input is the asynchronous queue for source notifications and configuration.
func (e *Engine) Input() *message.Queue {
	return e.input
}

// Start spawns the engine goroutine and moves to Idle.
func (e *Engine) Start(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(NotStarted), int32(Idle)) {
		return ErrAlreadyStarted
	}
	ctx, e.cancel = context.WithCancel(ctx)
	log.Infof("[engine] %s started", e.Name)
	go e.run(ctx)
	return nil
}

// Close stops acquisition and terminates the engine goroutine.
func (e *Engine) Close() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
	e.messenger.Close()
}

func (e *Engine) call(ctx context.Context, m message.Message) (State, error) {
	if e.State() == NotStarted {
		return NotStarted, fmt.Errorf("engine %s: %w", e.Name, ErrNotStarted)
	}
	if err := e.messenger.Call(ctx, m); err != nil {
		if errors.Is(err, message.ErrMessengerClosed) {
			return e.State(), ErrClosed
		}
		return e.State(), err
	}
	st := e.State()
	if st == Error {
		return st, fmt.Errorf("engine %s: %w", e.Name, e.lastError())
	}
	return st, nil
}

func (e *Engine) InitAcquisition(ctx context.Context) (State, error) {
	return e.call(ctx, AcquisitionInit{})
}

func (e *Engine) StartAcquisition(ctx context.Context) (State, error) {
	return e.call(ctx, AcquisitionStart{})
}

func (e *Engine) StopAcquisition(ctx context.Context) (State, error) {
	return e.call(ctx, AcquisitionStop{})
}

func (e *Engine) SetSource(ctx context.Context, src Source) error {
	_, err := e.call(ctx, SetSourceCmd{Source: src})
	return err
}

func (e *Engine) AddSink(ctx context.Context, sink Sink) error {
	_, err := e.call(ctx, AddSinkCmd{Sink: sink})
	return err
}

func (e *Engine) RemoveSink(ctx context.Context, sink Sink) error {
	_, err := e.call(ctx, RemoveSinkCmd{Sink: sink})
	return err
}

// ConfigureCorrections is applied asynchronously by the engine goroutine.
func (e *Engine) ConfigureCorrections(dcOffset, iqImbalance bool) {
	e.input.Push(message.ConfigureCorrection{DCOffset: dcOffset, IQImbalance: iqImbalance})
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	for {
		var ready <-chan struct{}
		if e.State() == Running && e.source != nil {
			ready = e.source.Fifo().DataReady()
			if e.backlog {
				ready = alwaysReady
			}
		}
		select {
		case <-ctx.Done():
			e.gotoIdle()
			log.Infof("[engine] %s stopped", e.Name)
			return
		case req := <-e.messenger.Requests():
			e.handleRequest(req)
		case <-e.input.Ready():
			e.input.Drain(e.handleInputMessage)
		case <-ready:
			e.work()
		}
	}
}

func (e *Engine) handleRequest(req message.Request) {
	var err error
	switch m := req.Msg.(type) {
	case AcquisitionInit:
		e.gotoInit()
	case AcquisitionStart:
		e.gotoRunning()
	case AcquisitionStop:
		e.gotoIdle()
	case SetSourceCmd:
		e.handleSetSource(m.Source)
	case AddSinkCmd:
		e.handleAddSink(m.Sink)
	case RemoveSinkCmd:
		e.handleRemoveSink(m.Sink)
	default:
		err = fmt.Errorf("engine %s: unexpected command %s", e.Name, req.Msg.Kind())
	}
	req.Reply(err)
}

func (e *Engine) handleInputMessage(m message.Message) {
	switch msg := m.(type) {
	case message.SignalNotification:
		log.Debugf("[engine] %s: signal change %d S/s at %d Hz", e.Name, msg.SampleRate, msg.CenterFrequency)
		e.sampleRate = msg.SampleRate
		e.centerFreq = msg.CenterFrequency
		e.notifyAll(msg)
	case message.ConfigureCorrection:
		log.Debugf("[engine] %s: corrections dc=%t iq=%t", e.Name, msg.DCOffset, msg.IQImbalance)
		e.corrector.Configure(msg.DCOffset, msg.IQImbalance)
	default:
		log.Warnf("[engine] %s: ignoring %s message", e.Name, m.Kind())
	}
}

// notifyAll forwards a copy of sn to every sink and to the source GUI queue.
func (e *Engine) notifyAll(sn message.SignalNotification) {
	for _, s := range e.sinks {
		s.PushMessage(sn)
	}
	if e.source != nil {
		if q := e.source.GUIQueue(); q != nil {
			q.Push(sn)
		}
	}
}

func (e *Engine) clearError() {
	e.errMu.Lock()
	e.lastErr = nil
	e.errMu.Unlock()
}

func (e *Engine) gotoError(err error) {
	e.errMu.Lock()
	e.lastErr = err
	e.errMu.Unlock()
	log.Errorf("[engine] %s: %v", e.Name, err)
	e.setState(Error)
}

func (e *Engine) gotoIdle() {
	switch e.State() {
	case NotStarted, Idle:
		return
	}
	if e.source != nil {
		e.source.Stop()
	}
	for _, s := range e.sinks {
		s.Stop()
	}
	e.corrector.Reset()
	e.backlog = false
	e.clearError()
	e.setState(Idle)
}

func (e *Engine) gotoInit() {
	switch e.State() {
	case NotStarted, Ready, Running:
		return
	}
	if e.source == nil {
		e.gotoError(ErrNoSource)
		return
	}
	e.corrector.Reset()
	e.sampleRate = e.source.SampleRate()
	e.centerFreq = e.source.CenterFrequency()
	log.Infof("[engine] %s: init %s at %d S/s, %d Hz", e.Name, e.source.Description(), e.sampleRate, e.centerFreq)
	e.notifyAll(message.SignalNotification{SampleRate: e.sampleRate, CenterFrequency: e.centerFreq})
	e.clearError()
	e.setState(Ready)
}

func (e *Engine) gotoRunning() {
	switch e.State() {
	case NotStarted, Idle, Running:
		return
	}
	if e.source == nil {
		e.gotoError(ErrNoSource)
		return
	}
	if err := e.source.Start(); err != nil {
		e.gotoError(fmt.Errorf("%w: %v", ErrSourceStart, err))
		return
	}
	for _, s := range e.sinks {
		if err := s.Start(); err != nil {
			log.Errorf("[engine] %s: sink %s failed to start: %v", e.Name, s.Name(), err)
		}
	}
	e.setState(Running)
}

func (e *Engine) handleSetSource(src Source) {
	e.gotoIdle()
	e.source = src
	e.sampleRate, e.centerFreq = 0, 0
	if src != nil {
		src.SetEngineQueue(e.input)
		log.Infof("[engine] %s: source set to %s", e.Name, src.Description())
	}
}

func (e *Engine) handleAddSink(sink Sink) {
	e.sinks = append(e.sinks, sink)
	sink.PushMessage(message.SignalNotification{SampleRate: e.sampleRate, CenterFrequency: e.centerFreq})
	if e.State() == Running {
		if err := sink.Start(); err != nil {
			log.Errorf("[engine] %s: sink %s failed to start: %v", e.Name, sink.Name(), err)
		}
	}
}

func (e *Engine) handleRemoveSink(sink Sink) {
	for i, s := range e.sinks {
		if s == sink {
			if e.State() == Running {
				s.Stop()
			}
			e.sinks = append(e.sinks[:i], e.sinks[i+1:]...)
			return
		}
	}
}

// work drains at most one second of samples, yielding early when a command
// or message is waiting.
func (e *Engine) work() {
	f := e.source.Fifo()
	budget := e.sampleRate
	if budget <= 0 {
		budget = f.Size()
	}
	done := 0
	for done < budget {
		if e.messenger.Pending() || e.input.Len() > 0 {
			break
		}
		p1, p2 := f.ReadBegin(budget - done)
		n := len(p1) + len(p2)
		if n == 0 {
			break
		}
		e.feed(p1)
		e.feed(p2)
		f.ReadCommit(n)
		done += n
	}
	e.backlog = f.Fill() > 0
}

func (e *Engine) feed(part []samples.Sample) {
	if len(part) == 0 {
		return
	}
	if e.corrector.Enabled() {
		e.corrector.Apply(part)
	}
	for _, s := range e.sinks {
		s.Feed(part)
	}
}
