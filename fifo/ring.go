package fifo

import "github.com/jrwynneiii/rxcore/samples"

// ring is an unsynchronised circular sample store. Callers hold the owning lock.
type ring struct {
	data []samples.Sample
	head int // next write index
	tail int // next read index
	fill int
}

func newRing(size int) ring {
	return ring{data: make([]samples.Sample, size)}
}

func (r *ring) room() int {
	return len(r.data) - r.fill
}

// write copies as much of in as fits and returns the count.
func (r *ring) write(in []samples.Sample) int {
	n := min(len(in), r.room())
	first := min(n, len(r.data)-r.head)
	copy(r.data[r.head:], in[:first])
	copy(r.data, in[first:n])
	r.head = (r.head + n) % len(r.data)
	r.fill += n
	return n
}

// spans returns up to n buffered samples as at most two contiguous slices.
func (r *ring) spans(n int) ([]samples.Sample, []samples.Sample) {
	n = min(n, r.fill)
	if n <= 0 {
		return nil, nil
	}
	first := min(n, len(r.data)-r.tail)
	return r.data[r.tail : r.tail+first], r.data[:n-first]
}

func (r *ring) commit(n int) int {
	n = min(max(n, 0), r.fill)
	r.tail = (r.tail + n) % len(r.data)
	r.fill -= n
	return n
}

func (r *ring) reset() {
	r.head, r.tail, r.fill = 0, 0, 0
}
