package health

import (
	"context"
)

// Ping interface
type Ping interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Ping interface
type PingFunc func(ctx context.Context) error

// Ping implements Ping
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Status struct
type Status struct {
	pingers map[string]Ping
}

// New returns a Health instance monitoring the given named pingers
func New(pingers map[string]Ping) *Status {
	if pingers == nil {
		pingers = make(map[string]Ping)
	}
	return &Status{pingers}
}

// Status returns whether each monitored dependency is reachable or not
func (h *Status) Status(ctx context.Context) map[string]bool {
	m := make(map[string]bool)

	for key, val := range h.pingers {
		m[key] = true
		if err := val.Ping(ctx); err != nil {
			m[key] = false
		}
	}

	return m
}
