package stream

import "context"

// Item pairs a stream value with the signal that fires once the same
// stream has produced a strictly newer value.
type Item[T any] struct {
	Value T
	Next  *Signal
}

// Lookahead wraps src so each emitted item carries a freshness signal.
//
// Consuming item i never blocks on item i+1: the wrapper reads the source
// one step ahead of the consumer, so the arrival of item i+1 fires item
// i's Next signal even while the consumer is still working on item i.
// Next never fires when the source completes cleanly without a further
// item; work nested under the final item is then bounded only by its
// ancestors. If the source fails, the pending signal fires before the
// failure is surfaced, so a consumer blocked under the current item
// unwinds and can observe the error.
func Lookahead[T any](ctx context.Context, src *Stream[T]) *Stream[Item[T]] {
	out := New[Item[T]]()
	go func() {
		var prev *Signal
		for {
			select {
			case v, ok := <-src.C():
				if !ok {
					if src.Err() != nil && prev != nil {
						prev.Fire()
					}
					out.Close(src.Err())
					return
				}
				if prev != nil {
					prev.Fire()
				}
				sig := NewSignal()
				prev = sig
				if !out.Send(ctx, Item[T]{Value: v, Next: sig}) {
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
