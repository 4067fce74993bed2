package fifo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrwynneiii/rxcore/samples"
)

func ramp(start, n int) []samples.Sample {
	out := make([]samples.Sample, n)
	for i := range out {
		out[i] = samples.Sample{I: int16(start + i), Q: int16(-(start + i))}
	}
	return out
}

func TestNewRejectsBadSize(t *testing.T) {
	if _, err := New("bad", 0, Backpressure); !errors.Is(err, ErrSize) {
		t.Fatalf("expected ErrSize, got %v", err)
	}
	if _, err := NewMI(2, -1); !errors.Is(err, ErrSize) {
		t.Fatalf("expected ErrSize, got %v", err)
	}
}

func TestRoundTripWithWraparound(t *testing.T) {
	f, err := New("wrap", 10, Backpressure)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if n, _ := f.Write(ctx, ramp(0, 7)); n != 7 {
		t.Fatalf("expected 7 written, got %d", n)
	}
	out := make([]samples.Sample, 5)
	if n := f.Read(out); n != 5 {
		t.Fatalf("expected 5 read, got %d", n)
	}
	if n, _ := f.Write(ctx, ramp(7, 6)); n != 6 {
		t.Fatalf("expected 6 written, got %d", n)
	}

	p1, p2 := f.ReadBegin(100)
	if len(p2) == 0 {
		t.Fatalf("expected the read to wrap, got parts of %d and %d", len(p1), len(p2))
	}
	got := append(append([]samples.Sample{}, p1...), p2...)
	want := ramp(5, 8)
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v got %v", i, want[i], got[i])
		}
	}
	f.ReadCommit(len(got))
	if f.Fill() != 0 {
		t.Fatalf("expected empty fifo, fill is %d", f.Fill())
	}
}

func TestDropNewest(t *testing.T) {
	f, _ := New("drop", 4, DropNewest)
	n, err := f.Write(context.Background(), ramp(0, 6))
	if err != nil || n != 4 {
		t.Fatalf("expected 4 written without error, got %d, %v", n, err)
	}
	if f.Dropped() != 2 {
		t.Fatalf("expected 2 dropped, got %d", f.Dropped())
	}
	out := make([]samples.Sample, 4)
	f.Read(out)
	if out[3] != ramp(3, 1)[0] {
		t.Fatalf("expected the oldest samples to be kept, got %v", out)
	}
}

func TestBackpressureBlocksUntilCommit(t *testing.T) {
	f, _ := New("bp", 4, Backpressure)
	done := make(chan int)
	go func() {
		n, _ := f.Write(context.Background(), ramp(0, 8))
		done <- n
	}()

	out := make([]samples.Sample, 8)
	read := 0
	deadline := time.After(2 * time.Second)
	for read < 8 {
		select {
		case <-f.DataReady():
			read += f.Read(out[read:])
		case <-deadline:
			t.Fatalf("timed out after reading %d samples", read)
		}
	}
	if n := <-done; n != 8 {
		t.Fatalf("expected writer to store 8 samples, got %d", n)
	}
	for i, s := range out {
		if s.I != int16(i) {
			t.Fatalf("sample %d out of order: %v", i, s)
		}
	}
}

func TestBackpressureHonoursContext(t *testing.T) {
	f, _ := New("ctx", 2, Backpressure)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	n, err := f.Write(ctx, ramp(0, 5))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 samples stored before blocking, got %d", n)
	}
}

func TestMIFifoTruncatesMismatchedBlocks(t *testing.T) {
	m, _ := NewMI(2, 16)
	n := m.WriteSync([][]samples.Sample{ramp(0, 10), ramp(100, 7)})
	if n != 7 {
		t.Fatalf("expected truncation to 7, got %d", n)
	}
	if m.StreamFill(0) != 7 || m.StreamFill(1) != 7 {
		t.Fatalf("expected both streams to hold 7, got %d and %d", m.StreamFill(0), m.StreamFill(1))
	}
	spans := m.ReadSyncBegin(100)
	if spans[0].Len() != 7 || spans[1].Len() != 7 {
		t.Fatalf("expected sync spans of 7, got %d and %d", spans[0].Len(), spans[1].Len())
	}
	if spans[1].Part1[0].I != 100 {
		t.Fatalf("expected stream 1 to start at 100, got %d", spans[1].Part1[0].I)
	}
}

func TestMIFifoSyncReadWaitsForSlowestStream(t *testing.T) {
	m, _ := NewMI(2, 16)
	m.WriteAsync(0, ramp(0, 9))
	m.WriteAsync(1, ramp(0, 4))
	if m.Fill() != 4 {
		t.Fatalf("expected sync fill of 4, got %d", m.Fill())
	}
	m.ReadSyncCommit(10)
	if m.StreamFill(0) != 5 || m.StreamFill(1) != 0 {
		t.Fatalf("expected fills 5 and 0, got %d and %d", m.StreamFill(0), m.StreamFill(1))
	}
	m.WriteAsync(1, ramp(4, 5))
	spans := m.ReadSyncBegin(16)
	if spans[0].Part1[0].I != 4 || spans[1].Part1[0].I != 4 {
		t.Fatalf("expected aligned windows starting at 4, got %d and %d", spans[0].Part1[0].I, spans[1].Part1[0].I)
	}
}

func TestMIFifoAsyncReadsAreIndependent(t *testing.T) {
	m, _ := NewMI(2, 16)
	m.WriteAsync(0, ramp(0, 12))
	m.WriteAsync(1, ramp(50, 3))

	s := m.ReadAsyncBegin(0, 10)
	if s.Len() != 10 || s.Part1[0].I != 0 || s.Part1[9].I != 9 {
		t.Fatalf("expected samples 0..9 on stream 0, got %d starting at %d", s.Len(), s.Part1[0].I)
	}
	if s := m.ReadAsyncBegin(1, 10); s.Len() != 3 || s.Part1[0].I != 50 {
		t.Fatalf("expected 3 samples from 50 on stream 1, got %d", s.Len())
	}
	m.ReadAsyncCommit(0, 10)
	if m.StreamFill(0) != 2 || m.StreamFill(1) != 3 {
		t.Fatalf("expected fills 2 and 3, got %d and %d", m.StreamFill(0), m.StreamFill(1))
	}
	if m.Fill() != 2 {
		t.Fatalf("expected sync fill of 2, got %d", m.Fill())
	}

	// wraps past the end of the ring
	if n := m.WriteAsync(0, ramp(12, 10)); n != 10 {
		t.Fatalf("expected 10 samples stored, got %d", n)
	}
	s = m.ReadAsyncBegin(0, 16)
	if s.Len() != 12 || len(s.Part1) != 6 || len(s.Part2) != 6 {
		t.Fatalf("expected a 6+6 split, got %d+%d", len(s.Part1), len(s.Part2))
	}
	if s.Part1[0].I != 10 || s.Part2[0].I != 16 || s.Part2[5].I != 21 {
		t.Fatalf("unexpected wrapped contents %d %d %d", s.Part1[0].I, s.Part2[0].I, s.Part2[5].I)
	}
	m.ReadAsyncCommit(0, 100)
	if m.StreamFill(0) != 0 || m.StreamFill(1) != 3 {
		t.Fatalf("expected an over commit to empty only stream 0, got %d and %d", m.StreamFill(0), m.StreamFill(1))
	}
}
