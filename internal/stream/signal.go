package stream

import "sync"

// Signal is a one-shot notification. Fire releases every listener blocked
// on Done and is idempotent; a Signal never fires twice. It is the
// freshness handle attached to lookahead items: firing means a strictly
// newer value has arrived at the same position.
type Signal struct {
	once sync.Once
	c    chan struct{}
}

// NewSignal creates an unfired Signal.
func NewSignal() *Signal {
	return &Signal{c: make(chan struct{})}
}

// Fire resolves the signal. Subsequent calls are no-ops.
func (s *Signal) Fire() {
	s.once.Do(func() { close(s.c) })
}

// Done returns a channel that is closed when the signal fires. Any number
// of listeners may wait on it.
func (s *Signal) Done() <-chan struct{} { return s.c }

// Fired reports whether the signal has resolved.
func (s *Signal) Fired() bool {
	select {
	case <-s.c:
		return true
	default:
		return false
	}
}
