package stream

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Merge fans sources into one stream. Each source's emission order is
// preserved; no ordering is implied across sources. The merged stream
// completes only when every source has completed, so a single silent
// source keeps it open indefinitely.
//
// Failure is fail-fast: the first source error cancels consumption of the
// remaining sources and becomes the merged stream's error. Cancellation of
// ctx stops the merge cleanly without an error of its own.
func Merge[T any](ctx context.Context, sources ...*Stream[T]) *Stream[T] {
	out := New[T]()
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			for {
				select {
				case v, ok := <-src.C():
					if !ok {
						return src.Err()
					}
					select {
					case out.c <- v:
					case <-gctx.Done():
						return nil
					}
				case <-gctx.Done():
					return nil
				}
			}
		})
	}
	go func() {
		out.Close(g.Wait())
	}()
	return out
}
