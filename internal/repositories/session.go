package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vehicletag/registration-node/internal/cache"
	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
)

// ErrSessionNotFound error
var ErrSessionNotFound = errors.New("session not found")

const defaultSessionTTL = 5 * time.Minute

type cached struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewSessionCached returns a cache backed session token holder. Tokens expire
// from the cache on their own; the continuity layer treats a missing token
// the same as a dead one.
func NewSessionCached(c cache.Cache, ttl time.Duration) ports.SessionRepository {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &cached{cache: c, ttl: ttl}
}

// Get returns the cached session token
func (c *cached) Get(ctx context.Context, key string) (domain.SessionToken, error) {
	var token domain.SessionToken
	if found := c.cache.Get(ctx, sessionKey(key), &token); !found {
		return token, ErrSessionNotFound
	}
	return token, nil
}

// Set stores the given session token
func (c *cached) Set(ctx context.Context, key string, token domain.SessionToken) error {
	return c.cache.Set(ctx, sessionKey(key), token, c.ttl)
}

// Delete drops a dead or consumed session token
func (c *cached) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, sessionKey(key))
}

func sessionKey(key string) string {
	return "issuer-session:" + key
}
