package installer

import "sync"

// Stream is the ordered, unbounded queue from the worker to its reader.
// Push never blocks the worker and Drain never blocks the reader.
type Stream struct {
	mu     sync.Mutex
	queue  []Event
	seq    int
	closed bool
	done   chan struct{}
	// ready has capacity one; a pending signal means events are queued.
	ready chan struct{}
}

func newStream() *Stream {
	return &Stream{done: make(chan struct{}), ready: make(chan struct{}, 1)}
}

// push stamps ev with the next sequence number and queues it.
func (s *Stream) push(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	ev.Seq = s.seq
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *Stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

// Drain returns every queued event in order and empties the queue. It
// returns nil when nothing is pending.
func (s *Stream) Drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	out := s.queue
	s.queue = nil
	return out
}

// Ready is signalled after pushes. It is an optional wakeup for readers
// that prefer not to poll; Drain is still the way to read.
func (s *Stream) Ready() <-chan struct{} { return s.ready }

// Done is closed after the last event has been pushed.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Finished reports whether the producer is done and every event was drained.
func (s *Stream) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed && len(s.queue) == 0
}
