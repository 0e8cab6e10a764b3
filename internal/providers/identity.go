package providers

import (
	"context"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
)

type userContextKey struct{}

// WithUser returns a context that carries the authenticated agent. The api
// auth middleware installs it; tests can inject any identity the same way.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// ContextIdentity reads the authenticated agent from the request context.
// Identity is an explicit dependency of the aggregate store rather than
// ambient global state, so fakes slot in without wiring changes.
type ContextIdentity struct{}

// NewContextIdentity returns a context based identity provider
func NewContextIdentity() *ContextIdentity {
	return &ContextIdentity{}
}

// CurrentUser returns the agent carried by the context, or false when the
// caller is anonymous.
func (p *ContextIdentity) CurrentUser(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(domain.User)
	if !ok || user.ID == "" {
		return domain.User{}, false
	}
	return user, true
}

var _ ports.IdentityProvider = (*ContextIdentity)(nil)
