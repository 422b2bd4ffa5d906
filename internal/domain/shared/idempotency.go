package shared

import (
	"context"
	"time"
)

// IdempotencyStore records client-supplied request keys so a replayed
// submission is recognised instead of executed twice.
type IdempotencyStore interface {
	// Claim marks key as in use for ttl.
	// Returns true if the key was newly claimed, false if it was already taken.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees a key so the same request may be submitted again
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// DefaultIdempotencyTTL is how long a claimed key blocks replays
const DefaultIdempotencyTTL = 24 * time.Hour
