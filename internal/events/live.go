// Package events defines the lifecycle events published while a live
// subscription is being composed. Subscribers attach through the eventbus
// package; publishing is a no-op when no bus is installed.
package events

import "time"

// SubscriptionStart is emitted when root composition for a subscription
// begins.
type SubscriptionStart struct {
	ID      int64
	Field   string
	TypeRef string
}

// SnapshotEmit is emitted for every complete composite delivered to the
// consumer.
type SnapshotEmit struct {
	ID    int64
	Field string
}

// SubscriptionFinish is emitted when a subscription terminates, cleanly or
// with a composition error.
type SubscriptionFinish struct {
	ID       int64
	Field    string
	Err      error
	Duration time.Duration
}
