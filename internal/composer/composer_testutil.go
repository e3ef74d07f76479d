package composer

import (
	"testing"
	"time"

	"github.com/hanpama/livegraph/internal/stream"
)

// nextSnapshot receives one composite or fails the test after a timeout.
func nextSnapshot(t *testing.T, s *stream.Stream[any]) any {
	t.Helper()
	select {
	case v, ok := <-s.C():
		if !ok {
			t.Fatalf("composite stream closed, err=%v", s.Err())
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for composite")
	}
	panic("unreachable")
}

// requireNoSnapshot asserts that s emits nothing and stays open for a
// short observation window.
func requireNoSnapshot(t *testing.T, s *stream.Stream[any]) {
	t.Helper()
	select {
	case v, ok := <-s.C():
		if ok {
			t.Fatalf("unexpected composite: %v", v)
		}
		t.Fatalf("composite stream unexpectedly closed, err=%v", s.Err())
	case <-time.After(30 * time.Millisecond):
	}
}

// awaitFailure waits for s to terminate and returns its error.
func awaitFailure(t *testing.T, s *stream.Stream[any]) error {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-s.C():
			if !ok {
				return s.Err()
			}
		case <-deadline:
			t.Fatal("timed out waiting for stream failure")
		}
	}
}

// subscribeField declares a Subscribe producer reference for a field on an
// object type.
func subscribeField(name, typeRef, objectType string) Field {
	return Field{
		Name:    name,
		TypeRef: typeRef,
		Producer: &ProducerRef{
			Mode:       ModeSubscribe,
			ObjectType: objectType,
			Field:      name,
		},
	}
}

// resolveField declares a one-shot Resolve producer reference.
func resolveField(name, typeRef, objectType string) Field {
	return Field{
		Name:    name,
		TypeRef: typeRef,
		Producer: &ProducerRef{
			Mode:       ModeResolve,
			ObjectType: objectType,
			Field:      name,
		},
	}
}

// projectField declares a field read from the parent value.
func projectField(name, typeRef string) Field {
	return Field{Name: name, TypeRef: typeRef}
}
