package message

import (
	"github.com/charmbracelet/log"
	fifo "github.com/racerxdl/go.fifo"
)

// Queue is an unbounded multi producer, single consumer message queue.
// Pushing hands the message over to whoever pops it.
type Queue struct {
	Name  string
	items *fifo.Queue
	ready chan struct{}
}

func NewQueue(name string) *Queue {
	return &Queue{
		Name:  name,
		items: fifo.NewQueue(),
		ready: make(chan struct{}, 1),
	}
}

func (q *Queue) Push(m Message) {
	if m == nil {
		return
	}
	q.items.Add(m)
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Pop never blocks. ok is false when the queue is empty.
func (q *Queue) Pop() (Message, bool) {
	item := q.items.Next()
	if item == nil {
		return nil, false
	}
	m, ok := item.(Message)
	if !ok {
		log.Errorf("[queue] %s: dropping foreign item %T", q.Name, item)
		return nil, false
	}
	return m, true
}

func (q *Queue) Len() int {
	return q.items.Len()
}

// Ready is signalled after every push.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain pops every queued message and calls fn on each, in order.
func (q *Queue) Drain(fn func(Message)) int {
	n := 0
	for {
		m, ok := q.Pop()
		if !ok {
			return n
		}
		fn(m)
		n++
	}
}
