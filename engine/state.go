package engine

import (
	"errors"
	"fmt"

	"github.com/jrwynneiii/rxcore/fifo"
	"github.com/jrwynneiii/rxcore/message"
	"github.com/jrwynneiii/rxcore/samples"
)

type State int32

const (
	NotStarted State = iota
	Idle
	Ready
	Running
	Error
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Error:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var (
	ErrNoSource       = errors.New("no sample source configured")
	ErrSourceStart    = errors.New("could not start sample source")
	ErrClosed         = errors.New("engine closed")
	ErrNotStarted     = errors.New("engine not started")
	ErrAlreadyStarted = errors.New("engine already started")
)

// Source produces samples into its FIFO from its own goroutine.
type Source interface {
	Start() error
	Stop()
	SampleRate() int
	CenterFrequency() int64
	Fifo() *fifo.SampleFifo
	Description() string
	// SetEngineQueue gives the source the queue for signal change notifications.
	SetEngineQueue(q *message.Queue)
	// GUIQueue may return nil when nothing observes the source.
	GUIQueue() *message.Queue
}

// Sink consumes corrected device samples. Feed must not retain the slice.
type Sink interface {
	Name() string
	Feed(block []samples.Sample)
	Start() error
	Stop()
	PushMessage(m message.Message)
}

// Commands carried on the engine messenger.
type (
	AcquisitionInit  struct{}
	AcquisitionStart struct{}
	AcquisitionStop  struct{}
	SetSourceCmd     struct{ Source Source }
	AddSinkCmd       struct{ Sink Sink }
	RemoveSinkCmd    struct{ Sink Sink }
)

func (AcquisitionInit) Kind() message.Kind  { return message.KindAcquisitionInit }
func (AcquisitionStart) Kind() message.Kind { return message.KindAcquisitionStart }
func (AcquisitionStop) Kind() message.Kind  { return message.KindAcquisitionStop }
func (SetSourceCmd) Kind() message.Kind     { return message.KindSetSource }
func (AddSinkCmd) Kind() message.Kind       { return message.KindAddSink }
func (RemoveSinkCmd) Kind() message.Kind    { return message.KindRemoveSink }
