package ports

import (
	"context"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

// FlowRepository persists the workflow value object between requests, so the
// registration can resume after an app restart or a dead session.
type FlowRepository interface {
	Get(ctx context.Context, flowID string) (*domain.Flow, error)
	Save(ctx context.Context, flow *domain.Flow) error
	Delete(ctx context.Context, flowID string) error
}
