// Package composer implements the streaming composition engine: it keeps a
// tree-shaped value continuously up to date when any node of the tree, not
// only the root, is backed by an independent, ongoing value stream.
//
// # Overview
//
// Given a value, a type-tree descriptor (TypeNode), and a Runtime
// collaborator supplying type resolution and field producers, Compose
// returns one stream whose items are always fully populated snapshots of
// the declared shape. Child subtrees are composed recursively and retired
// the instant a newer value supersedes the value they were built for.
//
// # Execution model
//
// Each object or list position builds one subtree instance per concrete
// value:
//
//	A. Producer normalization
//	   Every declared child supplies a producer: an ongoing subscription
//	   stream, a one-shot resolution, or, when neither is declared, the
//	   property already present on the parent value. All three are
//	   normalized to one stream shape; a plain value becomes a one-item
//	   stream that stays open, so it merges uniformly with live siblings.
//
//	B. Freshness lookahead
//	   Each child stream is wrapped so every item carries a one-shot
//	   signal that fires when a strictly newer item from the same stream
//	   arrives. That signal is the cut bound for everything composed
//	   beneath the item.
//
//	C. Recursive composition and cut
//	   Each child value is composed recursively against its concrete
//	   type, and the resulting stream is consumed only until the value's
//	   freshness signal fires. Successive values at one position are
//	   processed strictly one at a time, though composing the current
//	   value is never delayed.
//
//	D. Merge and accumulate
//	   Tagged child updates fan into one stream that preserves each
//	   child's internal order, with no ordering across children. A
//	   snapshot is emitted only once every declared child has produced at
//	   least one value, and again, carrying the last known value per
//	   child, on every subsequent update. A snapshot never contains a
//	   pending entry.
//
// # Concurrency and teardown
//
// Each subtree instance owns its child streams exclusively; nothing is
// shared across sibling subtrees. Cancellation is cooperative: a retired
// subtree simply stops being consumed, and a producer that keeps producing
// internally goes unobserved. Every subtree is released exactly once, via
// its freshness signal, a failure, or cancellation of the governing
// context.
//
// # Errors
//
// Failures are located (message plus tree path) and classified: structural
// errors for collaborator or shape mismatches, null violations for null
// arriving at a non-nullable position, and producer faults for failing
// child streams. All are fatal for the enclosing subtree and propagate
// fail-fast; no error is swallowed to produce a partial composite.
package composer
