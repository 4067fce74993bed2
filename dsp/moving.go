package dsp

// MovingSum keeps the sum of the last n values pushed.
type MovingSum[T ~int64 | ~float64 | ~complex64 | ~complex128] struct {
	buf   []T
	sum   T
	idx   int
	count int
}

func NewMovingSum[T ~int64 | ~float64 | ~complex64 | ~complex128](n int) *MovingSum[T] {
	return &MovingSum[T]{buf: make([]T, max(n, 1))}
}

func (m *MovingSum[T]) Push(v T) {
	m.sum += v - m.buf[m.idx]
	m.buf[m.idx] = v
	m.idx++
	if m.idx == len(m.buf) {
		m.idx = 0
	}
	if m.count < len(m.buf) {
		m.count++
	}
}

func (m *MovingSum[T]) Sum() T     { return m.sum }
func (m *MovingSum[T]) Count() int { return m.count }
func (m *MovingSum[T]) Size() int  { return len(m.buf) }

func (m *MovingSum[T]) Reset() {
	clear(m.buf)
	var zero T
	m.sum = zero
	m.idx = 0
	m.count = 0
}

// MovingAverage averages the last n values pushed.
type MovingAverage struct {
	MovingSum[float64]
}

func NewMovingAverage(n int) *MovingAverage {
	return &MovingAverage{*NewMovingSum[float64](n)}
}

func (m *MovingAverage) Average() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// MovingMaximum tracks the maximum of the last n values pushed.
type MovingMaximum struct {
	buf   []float64
	idx   int
	count int
	max   float64
}

func NewMovingMaximum(n int) *MovingMaximum {
	return &MovingMaximum{buf: make([]float64, max(n, 1))}
}

func (m *MovingMaximum) Push(v float64) {
	evicted := m.buf[m.idx]
	m.buf[m.idx] = v
	m.idx++
	if m.idx == len(m.buf) {
		m.idx = 0
	}
	if m.count < len(m.buf) {
		m.count++
	}
	switch {
	case m.count == 1 || v >= m.max:
		m.max = v
	case evicted == m.max:
		m.rescan()
	}
}

func (m *MovingMaximum) rescan() {
	m.max = m.buf[0]
	for _, v := range m.buf[1:m.count] {
		if v > m.max {
			m.max = v
		}
	}
}

func (m *MovingMaximum) Max() float64 { return m.max }

func (m *MovingMaximum) Reset() {
	clear(m.buf)
	m.idx, m.count, m.max = 0, 0, 0
}
