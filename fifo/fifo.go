// Package fifo provides the bounded sample buffers that decouple capture,
// engine and channel goroutines.
package fifo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/samples"
)

var ErrSize = errors.New("fifo size must be positive")

// Policy selects what Write does when the buffer is full.
type Policy int

const (
	// Backpressure blocks the writer until the reader commits.
	Backpressure Policy = iota
	// DropNewest discards the samples that do not fit and counts them.
	DropNewest
)

func (p Policy) String() string {
	switch p {
	case Backpressure:
		return "backpressure"
	case DropNewest:
		return "drop-newest"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

const warnInterval = time.Second

// SampleFifo is a single writer, single reader circular sample buffer.
type SampleFifo struct {
	Name string

	mu       sync.Mutex
	buf      ring
	policy   Policy
	dropped  uint64
	lastWarn time.Time
	ready    chan struct{}
	room     chan struct{}
}

func New(name string, size int, policy Policy) (*SampleFifo, error) {
	if size <= 0 {
		return nil, fmt.Errorf("fifo %s: %w (got %d)", name, ErrSize, size)
	}
	return &SampleFifo{
		Name:   name,
		buf:    newRing(size),
		policy: policy,
		ready:  make(chan struct{}, 1),
		room:   make(chan struct{}, 1),
	}, nil
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Write appends block. With Backpressure it returns once every sample has been
// stored or ctx is done; with DropNewest it never blocks.
func (f *SampleFifo) Write(ctx context.Context, block []samples.Sample) (int, error) {
	written := 0
	for {
		f.mu.Lock()
		n := f.buf.write(block[written:])
		written += n
		if written < len(block) && f.policy == DropNewest {
			lost := len(block) - written
			f.dropped += uint64(lost)
			if time.Since(f.lastWarn) > warnInterval {
				log.Warnf("[fifo] %s overflow, dropped %d samples (%d total)", f.Name, lost, f.dropped)
				f.lastWarn = time.Now()
			}
			f.mu.Unlock()
			if n > 0 {
				notify(f.ready)
			}
			return written, nil
		}
		f.mu.Unlock()
		if n > 0 {
			notify(f.ready)
		}
		if written == len(block) {
			return written, nil
		}
		select {
		case <-f.room:
		case <-ctx.Done():
			return written, ctx.Err()
		}
	}
}

// ReadBegin exposes up to n buffered samples without copying. The spans stay
// valid until the matching ReadCommit.
func (f *SampleFifo) ReadBegin(n int) ([]samples.Sample, []samples.Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.spans(n)
}

// ReadCommit releases n samples previously returned by ReadBegin.
func (f *SampleFifo) ReadCommit(n int) {
	f.mu.Lock()
	done := f.buf.commit(n)
	f.mu.Unlock()
	if done > 0 {
		notify(f.room)
	}
}

// Read copies up to len(out) samples and commits them.
func (f *SampleFifo) Read(out []samples.Sample) int {
	p1, p2 := f.ReadBegin(len(out))
	n := copy(out, p1)
	n += copy(out[n:], p2)
	f.ReadCommit(n)
	return n
}

func (f *SampleFifo) Fill() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.fill
}

func (f *SampleFifo) Size() int {
	return len(f.buf.data)
}

func (f *SampleFifo) Dropped() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

func (f *SampleFifo) Reset() {
	f.mu.Lock()
	f.buf.reset()
	f.mu.Unlock()
	notify(f.room)
}

// DataReady is signalled after every write that stored samples.
func (f *SampleFifo) DataReady() <-chan struct{} {
	return f.ready
}
