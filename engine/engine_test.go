package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jrwynneiii/rxcore/fifo"
	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/samples"
)

type fakeSource struct {
	mu       sync.Mutex
	fifo     *fifo.SampleFifo
	starts   int
	stops    int
	failWith error
	queue    *message.Queue
	gui      *message.Queue
}

func newFakeSource(t *testing.T) *fakeSource {
	f, err := fifo.New("fake", 4096, fifo.Backpressure)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeSource{fifo: f, gui: message.NewQueue("gui")}
}

func (s *fakeSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.starts++
	return nil
}

func (s *fakeSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *fakeSource) SampleRate() int                 { return 48000 }
func (s *fakeSource) CenterFrequency() int64          { return 518000 }
func (s *fakeSource) Fifo() *fifo.SampleFifo          { return s.fifo }
func (s *fakeSource) Description() string             { return "fake" }
func (s *fakeSource) SetEngineQueue(q *message.Queue) { s.queue = q }
func (s *fakeSource) GUIQueue() *message.Queue        { return s.gui }

type recordingSink struct {
	mu       sync.Mutex
	received []samples.Sample
	messages []message.Message
	running  bool
}

func (r *recordingSink) Name() string { return "recorder" }

func (r *recordingSink) Feed(block []samples.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, block...)
}

func (r *recordingSink) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	return nil
}

func (r *recordingSink) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

func (r *recordingSink) PushMessage(m message.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

func (r *recordingSink) lastNotification() (message.SignalNotification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if sn, ok := r.messages[i].(message.SignalNotification); ok {
			return sn, true
		}
	}
	return message.SignalNotification{}, false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func expectState(t *testing.T, st State, err error, want State) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != want {
		t.Fatalf("expected state %s got %s", want, st)
	}
}

func TestEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	e := New("test", false, false)
	if e.State() != NotStarted {
		t.Fatalf("expected not started, got %s", e.State())
	}
	if _, err := e.InitAcquisition(ctx); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if e.State() != Idle {
		t.Fatalf("expected idle, got %s", e.State())
	}

	st, err := e.InitAcquisition(ctx)
	if !errors.Is(err, ErrNoSource) || st != Error {
		t.Fatalf("expected error state with ErrNoSource, got %s, %v", st, err)
	}
	if e.ErrorMessage() == "" {
		t.Fatalf("expected an error message")
	}

	src := newFakeSource(t)
	sink := &recordingSink{}
	if err := e.SetSource(ctx, src); err != nil {
		t.Fatal(err)
	}
	if e.State() != Idle {
		t.Fatalf("expected idle after setting source, got %s", e.State())
	}
	if msg := e.ErrorMessage(); msg != "" {
		t.Fatalf("expected the error to be cleared in idle, got %q", msg)
	}
	if src.queue != e.Input() {
		t.Fatalf("expected source to be bound to the engine queue")
	}
	if err := e.AddSink(ctx, sink); err != nil {
		t.Fatal(err)
	}

	for round := 0; round < 2; round++ {
		st, err = e.InitAcquisition(ctx)
		expectState(t, st, err, Ready)
		sn, ok := sink.lastNotification()
		if !ok || sn.SampleRate != 48000 || sn.CenterFrequency != 518000 {
			t.Fatalf("expected signal notification, got %#v", sn)
		}
		if _, ok := src.gui.Pop(); !ok {
			t.Fatalf("expected a notification on the gui queue")
		}

		st, err = e.StartAcquisition(ctx)
		expectState(t, st, err, Running)

		before := sink.count()
		block := make([]samples.Sample, 1000)
		for i := range block {
			block[i] = samples.Sample{I: int16(i), Q: 1}
		}
		if _, err := src.fifo.Write(ctx, block); err != nil {
			t.Fatal(err)
		}
		waitFor(t, "samples at the sink", func() bool { return sink.count() == before+1000 })

		st, err = e.StopAcquisition(ctx)
		expectState(t, st, err, Idle)
	}
	if src.starts != 2 || src.stops != 2 {
		t.Fatalf("expected 2 starts and 2 stops, got %d and %d", src.starts, src.stops)
	}
}

func TestEngineSourceStartFailure(t *testing.T) {
	ctx := context.Background()
	e := New("fail", false, false)
	e.Start(ctx)
	defer e.Close()

	src := newFakeSource(t)
	src.failWith = errors.New("device busy")
	e.SetSource(ctx, src)
	st, err := e.InitAcquisition(ctx)
	expectState(t, st, err, Ready)
	st, err = e.StartAcquisition(ctx)
	if !errors.Is(err, ErrSourceStart) || st != Error {
		t.Fatalf("expected source start error, got %s, %v", st, err)
	}

	if e.ErrorMessage() == "" {
		t.Fatalf("expected an error message")
	}

	src.failWith = nil
	st, err = e.InitAcquisition(ctx)
	expectState(t, st, err, Ready)
	if msg := e.ErrorMessage(); msg != "" {
		t.Fatalf("expected the error to be cleared once ready, got %q", msg)
	}
}

func TestEngineStartOnlyFromReady(t *testing.T) {
	ctx := context.Background()
	e := New("order", false, false)
	e.Start(ctx)
	defer e.Close()
	e.SetSource(ctx, newFakeSource(t))
	st, err := e.StartAcquisition(ctx)
	expectState(t, st, err, Idle)
}

func TestEngineForwardsSignalChanges(t *testing.T) {
	ctx := context.Background()
	e := New("notify", false, false)
	e.Start(ctx)
	defer e.Close()
	src := newFakeSource(t)
	sink := &recordingSink{}
	e.SetSource(ctx, src)
	e.AddSink(ctx, sink)

	src.queue.Push(message.SignalNotification{SampleRate: 96000, CenterFrequency: 490000})
	waitFor(t, "forwarded notification", func() bool {
		sn, ok := sink.lastNotification()
		return ok && sn.SampleRate == 96000
	})
}

func TestEngineAddSinkWhileRunning(t *testing.T) {
	ctx := context.Background()
	e := New("hot", false, false)
	e.Start(ctx)
	defer e.Close()
	e.SetSource(ctx, newFakeSource(t))
	e.InitAcquisition(ctx)
	e.StartAcquisition(ctx)

	sink := &recordingSink{}
	e.AddSink(ctx, sink)
	sink.mu.Lock()
	running := sink.running
	sink.mu.Unlock()
	if !running {
		t.Fatalf("expected sink added while running to be started")
	}
	e.RemoveSink(ctx, sink)
	sink.mu.Lock()
	running = sink.running
	sink.mu.Unlock()
	if running {
		t.Fatalf("expected removed sink to be stopped")
	}
}

func TestEngineCloseStopsAcquisition(t *testing.T) {
	ctx := context.Background()
	e := New("close", false, false)
	e.Start(ctx)
	src := newFakeSource(t)
	e.SetSource(ctx, src)
	e.InitAcquisition(ctx)
	e.StartAcquisition(ctx)
	e.Close()
	if e.State() != Idle {
		t.Fatalf("expected idle after close, got %s", e.State())
	}
	if _, err := e.InitAcquisition(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
