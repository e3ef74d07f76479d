// Package stream provides the channel-backed stream abstraction and the
// combinators the composition engine is built from: normalization of plain
// values and producer streams into one shape, one-item lookahead with
// freshness signaling, order-preserving fan-in, and signal-bounded
// consumption.
package stream

import (
	"context"
	"sync"
)

// Stream is a lazily produced, potentially infinite sequence of values.
//
// A stream has one producer and at most one active consumer. The consumer
// ranges over C; when C is closed the stream is terminal and Err reports
// whether it completed cleanly (nil) or failed. Streams are not restartable.
type Stream[T any] struct {
	c    chan T
	err  error
	once sync.Once
}

// New creates an unbuffered stream. The producer delivers values with Send
// and terminates the stream with Close.
func New[T any]() *Stream[T] {
	return &Stream[T]{c: make(chan T)}
}

// Of returns a stream that yields v once and then stays open without ever
// producing again. It does not complete on its own; consumption must be
// bounded externally, by TakeUntil or by abandoning the stream. This lets a
// plain value participate in a merge without the merge appearing finished.
func Of[T any](v T) *Stream[T] {
	s := &Stream[T]{c: make(chan T, 1)}
	s.c <- v
	return s
}

// C returns the channel values are received from. It is closed when the
// stream terminates.
func (s *Stream[T]) C() <-chan T { return s.c }

// Err reports the terminal error of the stream. It is meaningful only after
// C has been observed closed.
func (s *Stream[T]) Err() error { return s.err }

// Send delivers v to the consumer. It reports false without delivering when
// ctx is done first. Send must not be called after Close.
func (s *Stream[T]) Send(ctx context.Context, v T) bool {
	select {
	case s.c <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close terminates the stream. A non-nil err marks the stream as failed.
// Close is idempotent; only the first call takes effect.
func (s *Stream[T]) Close(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.c)
	})
}

// Map transforms each value of src with f. The returned stream terminates
// when src terminates, carrying over its error, or when ctx is done.
func Map[T, U any](ctx context.Context, src *Stream[T], f func(T) U) *Stream[U] {
	out := New[U]()
	go func() {
		for {
			select {
			case v, ok := <-src.C():
				if !ok {
					out.Close(src.Err())
					return
				}
				if !out.Send(ctx, f(v)) {
					out.Close(nil)
					return
				}
			case <-ctx.Done():
				out.Close(nil)
				return
			}
		}
	}()
	return out
}

// Normalize converts a producer result into a stream of bare field values.
//
// Producers may hand back a plain value, a stream of plain values, or a
// stream of single-key envelope objects keyed by the field name. A plain
// value becomes a one-item stream that stays open (see Of), so downstream
// merge and cut logic treats every case uniformly. Envelopes are stripped
// per item; anything that is not a one-key map under the given field passes
// through untouched.
func Normalize(ctx context.Context, v any, field string) *Stream[any] {
	src, ok := v.(*Stream[any])
	if !ok {
		return Of[any](v)
	}
	return Map(ctx, src, func(item any) any {
		return unwrapEnvelope(item, field)
	})
}

func unwrapEnvelope(v any, field string) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}
	inner, ok := m[field]
	if !ok {
		return v
	}
	return inner
}
