package services

import (
	"errors"
	"sync"
)

// ErrInFlight a guarded action is already running for this key
var ErrInFlight = errors.New("action already in flight")

// Guarded high value actions. These issue financial mutations against the
// issuer, so a duplicate request from a rapid re-tap or a re-entrant resumed
// callback must never reach the network.
const (
	ActionCreateCustomer = "create-customer"
	ActionRegisterTag    = "register-tag"
)

// SubmissionGuard is an at-most-once latch per high value action. It protects
// a single node from re-entrant double submission; it is not a cross process
// lock.
type SubmissionGuard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

// NewSubmissionGuard returns an empty guard
func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{inFlight: make(map[string]bool)}
}

// Do runs fn unless the same key is already in flight, in which case the
// duplicate is rejected immediately with ErrInFlight and fn is never called.
// The latch is released whatever fn returns.
func (g *SubmissionGuard) Do(key string, fn func() error) error {
	g.mu.Lock()
	if g.inFlight[key] {
		g.mu.Unlock()
		return ErrInFlight
	}
	g.inFlight[key] = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.inFlight, key)
		g.mu.Unlock()
	}()
	return fn()
}

// InFlight tells whether a key currently holds the latch.
func (g *SubmissionGuard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight[key]
}
