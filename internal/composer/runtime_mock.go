package composer

import (
	"context"
	"fmt"
	"sync"

	"github.com/hanpama/livegraph/internal/stream"
)

// MockProducer supplies one field's producer for tests: a plain value for
// one-shot resolution or a *stream.Stream[any] for subscriptions.
type MockProducer func(ctx context.Context, source any, args map[string]any) (any, error)

// NewMockValueProducer returns a MockProducer that always resolves to val.
func NewMockValueProducer(val any) MockProducer {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

// NewMockErrorProducer returns a MockProducer that always fails with err.
func NewMockErrorProducer(err error) MockProducer {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// NewMockStreamProducer returns a MockProducer that hands out s.
func NewMockStreamProducer(s *stream.Stream[any]) MockProducer {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return s, nil
	}
}

// Call records one runtime invocation, in arrival order.
type Call struct {
	Kind       string // "resolve-type", "list-fields" or "producer"
	TypeRef    string
	ObjectType string
	Field      string
	Mode       ProducerMode // producer calls only
	Source     any
}

// MockRuntime implements Runtime from a registry of named types, declared
// fields, and producers, recording every call it receives.
type MockRuntime struct {
	mu        sync.Mutex
	types     map[string]*TypeNode
	fields    map[string][]Field
	producers map[string]MockProducer
	calls     []Call

	typeResolver func(typeRef string, value any) (*TypeNode, error)
}

// NewMockRuntime creates an empty MockRuntime. By default a type reference
// resolves by registry name lookup.
func NewMockRuntime() *MockRuntime {
	m := &MockRuntime{
		types:     make(map[string]*TypeNode),
		fields:    make(map[string][]Field),
		producers: make(map[string]MockProducer),
	}
	m.typeResolver = func(typeRef string, value any) (*TypeNode, error) {
		if node, ok := m.types[typeRef]; ok {
			return node, nil
		}
		return nil, fmt.Errorf("unknown type %q", typeRef)
	}
	return m
}

// AddType registers node under its name together with its declared fields.
func (m *MockRuntime) AddType(node *TypeNode, fields ...Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[node.Name] = node
	m.fields[node.Name] = fields
}

// SetProducer registers or replaces the producer for "ObjectType.field".
func (m *MockRuntime) SetProducer(objectType, field string, p MockProducer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.producers[objectType+"."+field] = p
}

// SetTypeResolver overrides concrete type resolution, for abstract-type
// scenarios.
func (m *MockRuntime) SetTypeResolver(f func(typeRef string, value any) (*TypeNode, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeResolver = f
}

// ResolveConcreteType implements Runtime.
func (m *MockRuntime) ResolveConcreteType(ctx context.Context, typeRef string, value any) (*TypeNode, error) {
	m.mu.Lock()
	resolver := m.typeResolver
	m.calls = append(m.calls, Call{Kind: "resolve-type", TypeRef: typeRef, Source: value})
	m.mu.Unlock()
	return resolver(typeRef, value)
}

// ListFields implements Runtime.
func (m *MockRuntime) ListFields(ctx context.Context, concreteType string, path Path) ([]Field, error) {
	m.mu.Lock()
	fields, ok := m.fields[concreteType]
	m.calls = append(m.calls, Call{Kind: "list-fields", ObjectType: concreteType})
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no fields declared for type %q", concreteType)
	}
	return fields, nil
}

// GetFieldProducer implements Runtime.
func (m *MockRuntime) GetFieldProducer(ctx context.Context, ref *ProducerRef, source any, args map[string]any) (any, error) {
	key := ref.ObjectType + "." + ref.Field
	m.mu.Lock()
	p := m.producers[key]
	m.calls = append(m.calls, Call{Kind: "producer", ObjectType: ref.ObjectType, Field: ref.Field, Mode: ref.Mode, Source: source})
	m.mu.Unlock()
	if p == nil {
		return nil, fmt.Errorf("no producer registered for %s", key)
	}
	return p(ctx, source, args)
}

// GetCalls returns a copy of the recorded calls in order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
