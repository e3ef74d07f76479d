package stream

import "context"

// TakeUntil relays src until sig fires, then completes without relaying
// further items. The source itself is not stopped; it is simply no longer
// observed, and its producer must handle loss of consumption on its own.
// A nil sig never fires. The relay also completes when ctx is done, so a
// source that never terminates cannot pin the relay past teardown.
//
// When a source value and the signal become ready at the same scheduling
// instant, which one wins is decided by select's arrival order: at most
// one extra item may be relayed after the signal fired, but never after
// the consumer has observed completion. This bounded nondeterminism is
// part of the contract.
func TakeUntil[T any](ctx context.Context, src *Stream[T], sig *Signal) *Stream[T] {
	out := New[T]()
	var done <-chan struct{}
	if sig != nil {
		done = sig.Done()
	}
	go func() {
		for {
			select {
			case <-done:
				out.Close(nil)
				return
			case <-ctx.Done():
				out.Close(nil)
				return
			case v, ok := <-src.C():
				if !ok {
					out.Close(src.Err())
					return
				}
				select {
				case out.c <- v:
				case <-done:
					out.Close(nil)
					return
				case <-ctx.Done():
					out.Close(nil)
					return
				}
			}
		}
	}()
	return out
}
