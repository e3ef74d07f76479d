package composer

import (
	"context"
	"errors"
	"reflect"

	"github.com/hanpama/livegraph/internal/stream"
)

// Composer recursively turns a value, a type tree, and per-field producers
// into one stream whose items are always fully populated snapshots of the
// declared shape.
type Composer struct {
	runtime Runtime
}

// New creates a Composer backed by the given runtime collaborator.
func New(runtime Runtime) *Composer {
	return &Composer{runtime: runtime}
}

// Compose returns the snapshot stream for value at the position described
// by node.
//
// Leaf and Null positions yield exactly one item and then stay open without
// producing again, so they merge uniformly with live siblings. Object and
// List positions emit a snapshot only once every declared child has
// produced at least one value, and re-emit a full snapshot (last known
// value per child) on every subsequent child update.
//
// The returned stream does not complete on its own; its lifetime is bounded
// by ctx and, at nested positions, by the freshness signal of the value it
// was created for. It terminates with an error when the subtree fails.
func (c *Composer) Compose(ctx context.Context, value any, node *TypeNode, path Path) *stream.Stream[any] {
	if node == nil {
		return failed(structuralf(path, "missing type node"))
	}
	switch node.Kind {
	case KindNull:
		return stream.Of[any](nil)
	case KindLeaf:
		if value == nil {
			if node.NonNull {
				return failed(nullViolation(path, node.Name))
			}
			return stream.Of[any](nil)
		}
		return stream.Of(value)
	case KindObject:
		if value == nil {
			if node.NonNull {
				return failed(nullViolation(path, node.Name))
			}
			return stream.Of[any](nil)
		}
		return c.composeObject(ctx, value, node, path)
	case KindList:
		if value == nil {
			if node.NonNull {
				return failed(nullViolation(path, node.Name))
			}
			return stream.Of[any](nil)
		}
		return c.composeList(ctx, value, node, path)
	}
	return failed(structuralf(path, "unexpected type kind %s", node.Kind))
}

// childKey tags one child emission with its position in the parent.
type childKey struct {
	field string
	index int
}

type update struct {
	key   childKey
	value any
}

// resolveFunc produces the concrete shape for one value at a child
// position.
type resolveFunc func(ctx context.Context, value any) (*TypeNode, error)

func (c *Composer) composeObject(ctx context.Context, value any, node *TypeNode, path Path) *stream.Stream[any] {
	fields, err := c.runtime.ListFields(ctx, node.Name, path)
	if err != nil {
		return failed(structuralf(path, "listing fields of type %q: %v", node.Name, err))
	}

	out := stream.New[any]()
	if len(fields) == 0 {
		go out.Send(ctx, map[string]any{})
		return out
	}

	// Gather producers before spawning any child pipeline so a structural
	// error surfaces without leaving half-built subtrees behind.
	producers := make([]any, len(fields))
	for i, f := range fields {
		p, err := c.fieldProducer(ctx, node, f, value, appendPath(path, f.Name))
		if err != nil {
			return failed(err)
		}
		producers[i] = p
	}

	children := make([]*stream.Stream[update], len(fields))
	for i, f := range fields {
		resolve := func(ctx context.Context, v any) (*TypeNode, error) {
			return c.runtime.ResolveConcreteType(ctx, f.TypeRef, v)
		}
		children[i] = c.relayChild(ctx, childKey{field: f.Name}, producers[i], resolve, appendPath(path, f.Name))
	}

	go c.collectObject(ctx, out, fields, stream.Merge(ctx, children...))
	return out
}

func (c *Composer) composeList(ctx context.Context, value any, node *TypeNode, path Path) *stream.Stream[any] {
	items, ok := sliceItems(value)
	if !ok {
		return failed(structuralf(path, "expected list value, got %T", value))
	}
	if len(items) != len(node.Elems) {
		return failed(structuralf(path, "list shape mismatch: %d values for %d declared elements", len(items), len(node.Elems)))
	}

	out := stream.New[any]()
	if len(items) == 0 {
		go out.Send(ctx, []any{})
		return out
	}

	children := make([]*stream.Stream[update], len(items))
	for i := range items {
		elem := node.Elems[i]
		resolve := func(context.Context, any) (*TypeNode, error) { return elem, nil }
		children[i] = c.relayChild(ctx, childKey{index: i}, items[i], resolve, appendPath(path, i))
	}

	go c.collectList(ctx, out, len(items), stream.Merge(ctx, children...))
	return out
}

// fieldProducer obtains the producer for one declared field: a declared
// subscription or resolver via the runtime, or the property already present
// on the parent value.
func (c *Composer) fieldProducer(ctx context.Context, node *TypeNode, f Field, source any, path Path) (any, error) {
	if f.Producer != nil {
		p, err := c.runtime.GetFieldProducer(ctx, f.Producer, source, f.Producer.Args)
		if err != nil {
			return nil, ProducerFault(path, err)
		}
		return p, nil
	}
	props, ok := source.(map[string]any)
	if !ok {
		return nil, structuralf(path, "cannot project field %q from value of type %T", f.Name, source)
	}
	v, ok := props[f.Name]
	if !ok {
		return nil, structuralf(path, "field %q is not defined on type %q", f.Name, node.Name)
	}
	return v, nil
}

// relayChild runs one child position: normalize the producer, read ahead
// for freshness, and compose each successive value until it is superseded
// by the next one.
func (c *Composer) relayChild(ctx context.Context, key childKey, producer any, resolve resolveFunc, path Path) *stream.Stream[update] {
	out := stream.New[update]()
	look := stream.Lookahead(ctx, stream.Normalize(ctx, producer, key.field))
	go func() {
		for {
			var item stream.Item[any]
			var ok bool
			select {
			case item, ok = <-look.C():
			case <-ctx.Done():
				out.Close(nil)
				return
			}
			if !ok {
				out.Close(locate(look.Err(), path))
				return
			}
			if err := c.relayValue(ctx, out, key, item, resolve, path); err != nil {
				out.Close(err)
				return
			}
		}
	}()
	return out
}

// relayValue composes one value at a child position and relays its
// snapshots until a newer value supersedes it. The subtree instance built
// here is released exactly once, on supersession, failure, or teardown.
func (c *Composer) relayValue(ctx context.Context, out *stream.Stream[update], key childKey, item stream.Item[any], resolve resolveFunc, path Path) error {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	node, err := resolve(cctx, item.Value)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return err
		}
		return structuralf(path, "resolving concrete type: %v", err)
	}

	bounded := stream.TakeUntil(cctx, c.Compose(cctx, item.Value, node, path), item.Next)
	for v := range bounded.C() {
		if !out.Send(ctx, update{key: key, value: v}) {
			return nil
		}
	}
	return bounded.Err()
}

// collectObject folds tagged child updates into full snapshots. Every key
// starts pending; nothing is emitted until no key is pending, and a
// snapshot is a copy, never the live accumulator.
func (c *Composer) collectObject(ctx context.Context, out *stream.Stream[any], fields []Field, merged *stream.Stream[update]) {
	acc := make(map[string]any, len(fields))
	pending := len(fields)
	for u := range merged.C() {
		if _, seen := acc[u.key.field]; !seen {
			pending--
		}
		acc[u.key.field] = u.value
		if pending > 0 {
			continue
		}
		snapshot := make(map[string]any, len(fields))
		for _, f := range fields {
			snapshot[f.Name] = acc[f.Name]
		}
		if !out.Send(ctx, snapshot) {
			out.Close(nil)
			return
		}
	}
	out.Close(merged.Err())
}

func (c *Composer) collectList(ctx context.Context, out *stream.Stream[any], size int, merged *stream.Stream[update]) {
	acc := make([]any, size)
	seen := make([]bool, size)
	pending := size
	for u := range merged.C() {
		if !seen[u.key.index] {
			seen[u.key.index] = true
			pending--
		}
		acc[u.key.index] = u.value
		if pending > 0 {
			continue
		}
		snapshot := make([]any, size)
		copy(snapshot, acc)
		if !out.Send(ctx, snapshot) {
			out.Close(nil)
			return
		}
	}
	out.Close(merged.Err())
}

// locate wraps an external producer failure as a located error; composition
// errors pass through unchanged.
func locate(err error, path Path) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return ProducerFault(path, err)
}

func failed(err error) *stream.Stream[any] {
	s := stream.New[any]()
	s.Close(err)
	return s
}

// sliceItems coerces a runtime value into []any, accepting any slice kind.
func sliceItems(v any) ([]any, bool) {
	if direct, ok := v.([]any); ok {
		return direct, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
