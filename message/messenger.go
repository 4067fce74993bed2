package message

import (
	"context"
	"errors"
)

var ErrMessengerClosed = errors.New("messenger closed")

// Request is one synchronous command awaiting a reply.
type Request struct {
	Msg   Message
	reply chan error
}

// Reply completes the request. Must be called exactly once.
func (r Request) Reply(err error) {
	r.reply <- err
}

// Messenger carries synchronous commands to a single consumer goroutine. The
// caller blocks until the consumer has processed the command and replied.
type Messenger struct {
	requests chan Request
	done     chan struct{}
}

func NewMessenger() *Messenger {
	return &Messenger{
		requests: make(chan Request, 8),
		done:     make(chan struct{}),
	}
}

// Call sends msg and waits for the reply.
func (m *Messenger) Call(ctx context.Context, msg Message) error {
	req := Request{Msg: msg, reply: make(chan error, 1)}
	select {
	case m.requests <- req:
	case <-m.done:
		return ErrMessengerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-m.done:
		return ErrMessengerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Requests is consumed by the owning goroutine.
func (m *Messenger) Requests() <-chan Request {
	return m.requests
}

// Pending reports whether a request is waiting to be consumed.
func (m *Messenger) Pending() bool {
	return len(m.requests) > 0
}

// Close unblocks every current and future caller.
func (m *Messenger) Close() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}
