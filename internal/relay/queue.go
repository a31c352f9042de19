package relay

import "sync"

// Queue is an Endpoint backed by a bounded buffer. Deliver never blocks: a full buffer
// is reported as ErrQueueFull, which the relay treats as a failed delivery.
// Payloads are read from Messages in delivery order; the channel closes on Close.
type Queue struct {
	id     string
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

// NewQueue creates a queue endpoint with room for size pending payloads.
func NewQueue(id string, size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		id: id,
		ch: make(chan []byte, size),
	}
}

func (q *Queue) ID() string {
	return q.id
}

// Deliver enqueues payload without blocking.
func (q *Queue) Deliver(payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrEndpointClosed
	}
	select {
	case q.ch <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

// Messages returns the receive side of the queue.
func (q *Queue) Messages() <-chan []byte {
	return q.ch
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting payloads. Idempotent.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ch)
	return nil
}
