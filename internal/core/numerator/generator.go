// Package numerator provides domain contracts for document reference numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator hands out sequence numbers and formatted references.
//
// Counters are owned by the backing store and incremented atomically, so two
// concurrent creations of the same document type never share a number and
// deleting a document never frees its number for reuse.
type Generator interface {
	// NextSequence reserves and returns the next sequence value for cfg.
	NextSequence(ctx context.Context, cfg Config, opts *Options, period time.Time) (int64, error)

	// GetNextNumber reserves the next value and formats it (e.g. FAC2024-0001).
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// Peek returns the value the next reservation would return without
	// reserving it. Concurrent callers may observe the same value.
	Peek(ctx context.Context, cfg Config, opts *Options, period time.Time) (int64, error)

	// SetNextNumber sets the counter so that the next reservation returns value+1
	// (for migrating existing numbering).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
