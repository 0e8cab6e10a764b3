package ports

import (
	"context"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

// SessionRepository holds the short lived issuer session tokens between
// otherwise stateless screens, keyed by flow id.
type SessionRepository interface {
	Get(ctx context.Context, key string) (domain.SessionToken, error)
	Set(ctx context.Context, key string, token domain.SessionToken) error
	Delete(ctx context.Context, key string) error
}
