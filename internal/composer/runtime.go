package composer

import "context"

// Runtime defines the collaborator surface the composition engine requires
// from its host: concrete type resolution, field listing, and field
// producer lookup. Query-document handling, schema loading, and transport
// all live behind this interface; the engine consumes only an
// already-structured type tree and producer callbacks.
//
// General contract
//   - The engine calls ResolveConcreteType once per value that arrives at a
//     typed position, ListFields once per object subtree instance, and
//     GetFieldProducer once per declared field with a non-nil ProducerRef.
//     All calls receive the context of the subtree instance they belong to;
//     when that subtree is retired the context is cancelled.
//   - Errors returned from any method are fatal for the enclosing subtree
//     and propagate upward as located composition errors. The engine never
//     retries; retry policy, if desired, belongs to the producer side.
//   - Implementations should be stateless or otherwise concurrency-safe.
//     Sibling subtrees are composed concurrently and may call these methods
//     at the same time.
//   - Implementations must not mutate source or args values.
//
// Producer results
//   - GetFieldProducer may return a plain value, a *stream.Stream[any] of
//     plain values, or a *stream.Stream[any] of single-key envelope objects
//     keyed by the field name. The engine normalizes all three to one
//     uniform stream shape; a plain value behaves as a stream that yields
//     once and then stays open.
//   - A returned stream is consumed by exactly one engine goroutine, in
//     order. When the field's subtree is retired the stream is simply no
//     longer consumed; producers are responsible for their own cleanup on
//     loss of consumption and must not rely on an explicit stop call.
//
// Type resolution
//   - ResolveConcreteType must return a TypeNode whose Kind reflects the
//     concrete shape for the given runtime value. For abstract references
//     (interfaces, unions) this is where the concrete type is chosen; an
//     unknown or missing concrete type must be reported as an error.
//   - ListFields returns the declared children of a concrete object type in
//     the order they must appear in emitted composites. Declaring a
//     projection field (nil Producer) that is absent from the concrete
//     value is a structural error raised by the engine.
type Runtime interface {
	// ResolveConcreteType resolves a possibly abstract type reference to
	// the concrete shape for one runtime value.
	ResolveConcreteType(ctx context.Context, typeRef string, value any) (*TypeNode, error)

	// ListFields returns the declared children to visit at an object
	// position, in response order. path identifies the position for
	// diagnostics and location-dependent field sets.
	ListFields(ctx context.Context, concreteType string, path Path) ([]Field, error)

	// GetFieldProducer supplies the producer for one declared field:
	// either an ongoing *stream.Stream[any] or a plain value resolved
	// once. source is the parent object value.
	GetFieldProducer(ctx context.Context, ref *ProducerRef, source any, args map[string]any) (any, error)
}
