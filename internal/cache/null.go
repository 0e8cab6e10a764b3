package cache

import (
	"context"
	"time"
)

// NullCache discards writes and never finds a key. It stands in when no cache
// backend is configured so callers can skip nil checks.
type NullCache struct{}

// Set discards the entry.
func (n *NullCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}

// Get always reports a miss.
func (n *NullCache) Get(_ context.Context, _ string, _ any) bool {
	return false
}

// Exists always reports false.
func (n *NullCache) Exists(_ context.Context, _ string) bool {
	return false
}

// Delete is a no-op.
func (n *NullCache) Delete(_ context.Context, _ string) error {
	return nil
}
