package fifo

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/samples"
)

// Span is the two part view of one stream returned by the read calls.
type Span struct {
	Part1 []samples.Sample
	Part2 []samples.Sample
}

func (s Span) Len() int {
	return len(s.Part1) + len(s.Part2)
}

// MIFifo buffers several streams captured over the same time window. Sync
// reads never go past the slowest stream.
type MIFifo struct {
	mu       sync.Mutex
	streams  []ring
	dropped  uint64
	lastWarn time.Time
	ready    chan struct{}
}

func NewMI(streams, size int) (*MIFifo, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mififo: %w (got %d)", ErrSize, size)
	}
	if streams <= 0 {
		return nil, fmt.Errorf("mififo: stream count must be positive (got %d)", streams)
	}
	m := &MIFifo{
		streams: make([]ring, streams),
		ready:   make(chan struct{}, 1),
	}
	for i := range m.streams {
		m.streams[i] = newRing(size)
	}
	return m, nil
}

func (m *MIFifo) NumStreams() int {
	return len(m.streams)
}

func (m *MIFifo) warn(format string, args ...any) {
	if time.Since(m.lastWarn) > warnInterval {
		log.Warnf("[mififo] "+format, args...)
		m.lastWarn = time.Now()
	}
}

// WriteSync stores one block per stream. Blocks of unequal length are
// truncated to the shortest one; the writer never waits for a lagging stream.
// Returns the per stream count stored.
func (m *MIFifo) WriteSync(blocks [][]samples.Sample) int {
	if len(blocks) != len(m.streams) {
		log.Errorf("[mififo] sync write with %d blocks for %d streams", len(blocks), len(m.streams))
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(blocks[0])
	mismatch := false
	for _, b := range blocks[1:] {
		if len(b) != n {
			mismatch = true
		}
		n = min(n, len(b))
	}
	if mismatch {
		m.warn("stream lengths disagree, truncating to %d", n)
	}
	room := n
	for i := range m.streams {
		room = min(room, m.streams[i].room())
	}
	if room < n {
		m.dropped += uint64(n - room)
		m.warn("overflow, dropped %d samples per stream (%d total)", n-room, m.dropped)
	}
	for i := range m.streams {
		m.streams[i].write(blocks[i][:room])
	}
	if room > 0 {
		notify(m.ready)
	}
	return room
}

// WriteAsync stores block on a single stream.
func (m *MIFifo) WriteAsync(stream int, block []samples.Sample) int {
	m.mu.Lock()
	n := m.streams[stream].write(block)
	if n < len(block) {
		m.dropped += uint64(len(block) - n)
		m.warn("stream %d overflow, dropped %d samples", stream, len(block)-n)
	}
	m.mu.Unlock()
	if n > 0 {
		notify(m.ready)
	}
	return n
}

// Fill returns the number of samples available on every stream.
func (m *MIFifo) Fill() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minFill()
}

func (m *MIFifo) minFill() int {
	n := m.streams[0].fill
	for i := range m.streams[1:] {
		n = min(n, m.streams[i+1].fill)
	}
	return n
}

// StreamFill returns the samples buffered on one stream.
func (m *MIFifo) StreamFill(stream int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streams[stream].fill
}

// ReadSyncBegin returns the same window of up to n samples on every stream.
func (m *MIFifo) ReadSyncBegin(n int) []Span {
	m.mu.Lock()
	defer m.mu.Unlock()
	n = min(n, m.minFill())
	spans := make([]Span, len(m.streams))
	for i := range m.streams {
		spans[i].Part1, spans[i].Part2 = m.streams[i].spans(n)
	}
	return spans
}

func (m *MIFifo) ReadSyncCommit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n = min(n, m.minFill())
	for i := range m.streams {
		m.streams[i].commit(n)
	}
}

func (m *MIFifo) ReadAsyncBegin(stream, n int) Span {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s Span
	s.Part1, s.Part2 = m.streams[stream].spans(n)
	return s
}

func (m *MIFifo) ReadAsyncCommit(stream, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams[stream].commit(n)
}

func (m *MIFifo) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

func (m *MIFifo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.streams {
		m.streams[i].reset()
	}
}

func (m *MIFifo) DataReady() <-chan struct{} {
	return m.ready
}
