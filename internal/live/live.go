// Package live drives root-level composition: it turns one root field's
// producer into a continuously refreshed stream of response envelopes.
package live

import (
	"context"
	"errors"
	"time"

	composer "github.com/hanpama/livegraph/internal/composer"
	eventbus "github.com/hanpama/livegraph/internal/eventbus"
	events "github.com/hanpama/livegraph/internal/events"
	stream "github.com/hanpama/livegraph/internal/stream"
	subid "github.com/hanpama/livegraph/internal/subid"
)

// Request describes one root subscription.
type Request struct {
	// Field is the root field name the response envelope is keyed by.
	Field string

	// TypeRef names the possibly abstract type of the root values; it is
	// resolved to a concrete shape per root value.
	TypeRef string

	// Producer is the root field's producer: a *stream.Stream[any], or a
	// plain value for a static root. Stream items may be bare values or
	// single-key envelopes keyed by Field.
	Producer any
}

// Result is one fully composed response envelope.
type Result struct {
	Data map[string]any `json:"data"`
}

// Subscribe composes req continuously until ctx is cancelled or the
// composition fails.
//
// Root values are processed strictly one at a time: composing value i+1
// begins only after value i's subtree has been retired by its freshness
// signal, though composing value i itself is never delayed. Every emitted
// composite is complete; the stream terminates with an error instead of
// ever emitting a partial envelope.
func Subscribe(ctx context.Context, runtime composer.Runtime, req Request) *stream.Stream[Result] {
	ctx, sid := subid.NewContext(ctx)
	out := stream.New[Result]()
	look := stream.Lookahead(ctx, stream.Normalize(ctx, req.Producer, req.Field))

	eventbus.Publish(ctx, events.SubscriptionStart{ID: sid, Field: req.Field, TypeRef: req.TypeRef})
	go func() {
		start := time.Now()
		err := run(ctx, runtime, req, look, out, sid)
		eventbus.Publish(ctx, events.SubscriptionFinish{ID: sid, Field: req.Field, Err: err, Duration: time.Since(start)})
		out.Close(err)
	}()
	return out
}

func run(ctx context.Context, runtime composer.Runtime, req Request, look *stream.Stream[stream.Item[any]], out *stream.Stream[Result], sid int64) error {
	comp := composer.New(runtime)
	path := composer.Path{req.Field}
	for {
		var item stream.Item[any]
		var ok bool
		select {
		case item, ok = <-look.C():
		case <-ctx.Done():
			return nil
		}
		if !ok {
			return rootFault(look.Err(), path)
		}
		if err := relayRoot(ctx, runtime, comp, req, item, out, path, sid); err != nil {
			return err
		}
	}
}

// relayRoot composes one root value and relays its composites until a
// newer root value supersedes it.
func relayRoot(ctx context.Context, runtime composer.Runtime, comp *composer.Composer, req Request, item stream.Item[any], out *stream.Stream[Result], path composer.Path, sid int64) error {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	node, err := runtime.ResolveConcreteType(cctx, req.TypeRef, item.Value)
	if err != nil {
		var ce *composer.Error
		if errors.As(err, &ce) {
			return err
		}
		return &composer.Error{Kind: composer.ErrorKindStructural, Message: err.Error(), Path: path}
	}

	bounded := stream.TakeUntil(cctx, comp.Compose(cctx, item.Value, node, path), item.Next)
	for v := range bounded.C() {
		eventbus.Publish(ctx, events.SnapshotEmit{ID: sid, Field: req.Field})
		if !out.Send(ctx, Result{Data: map[string]any{req.Field: v}}) {
			return nil
		}
	}
	return bounded.Err()
}

func rootFault(err error, path composer.Path) error {
	if err == nil {
		return nil
	}
	var ce *composer.Error
	if errors.As(err, &ce) {
		return err
	}
	return composer.ProducerFault(path, err)
}
