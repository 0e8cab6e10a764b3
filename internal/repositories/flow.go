package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vehicletag/registration-node/internal/cache"
	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
)

// ErrFlowNotFound error
var ErrFlowNotFound = errors.New("flow not found")

// Flows outlive any single session token, a registration attempt may sit idle
// for a while before the user resumes it.
const defaultFlowTTL = 24 * time.Hour

type flowCached struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewFlowCached returns a cache backed flow store.
func NewFlowCached(c cache.Cache, ttl time.Duration) ports.FlowRepository {
	if ttl <= 0 {
		ttl = defaultFlowTTL
	}
	return &flowCached{cache: c, ttl: ttl}
}

// Get returns the stored flow
func (c *flowCached) Get(ctx context.Context, flowID string) (*domain.Flow, error) {
	var flow domain.Flow
	if found := c.cache.Get(ctx, flowKey(flowID), &flow); !found {
		return nil, ErrFlowNotFound
	}
	return &flow, nil
}

// Save stores the flow under its flow id
func (c *flowCached) Save(ctx context.Context, flow *domain.Flow) error {
	return c.cache.Set(ctx, flowKey(flow.FlowID), *flow, c.ttl)
}

// Delete drops a finished flow
func (c *flowCached) Delete(ctx context.Context, flowID string) error {
	return c.cache.Delete(ctx, flowKey(flowID))
}

func flowKey(flowID string) string {
	return "registration-flow:" + flowID
}
