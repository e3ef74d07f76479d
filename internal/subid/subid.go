// Package subid attaches a random subscription ID to a context so
// lifecycle events from one subscription can be correlated.
package subid

import (
	"context"
	"math/rand"
)

type key struct{}

// NewContext returns a copy of parent carrying a new random subscription
// ID, along with that ID.
func NewContext(parent context.Context) (context.Context, int64) {
	id := rand.Int63()
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the subscription ID from ctx. It reports whether an
// ID was present.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}
