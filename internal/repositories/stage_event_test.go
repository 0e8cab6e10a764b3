package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

func TestStageEventsAppendOnly(t *testing.T) {
	s := requireStorage(t)
	ctx := context.Background()
	repo := NewStageEvents(s)

	regID := uuid.New()
	first := domain.StageRecord{
		Stage:     domain.StageActivateTag,
		Status:    domain.StageStatusRejected,
		Data:      map[string]string{"serialNo": "TAG-001"},
		SessionID: "sess-1",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, repo.Append(ctx, regID, first))

	// a repeated write for the same stage appends, nothing merges
	second := first
	second.Status = domain.StageStatusCompleted
	second.Timestamp = first.Timestamp.Add(time.Minute)
	require.NoError(t, repo.Append(ctx, regID, second))

	events, err := repo.ListByRegistration(ctx, regID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.StageStatusRejected, events[0].Record.Status)
	assert.Equal(t, domain.StageStatusCompleted, events[1].Record.Status)
	assert.Equal(t, "TAG-001", events[0].Record.Data["serialNo"])
	assert.Equal(t, regID, events[0].RegistrationID)
}

func TestStageEventsListEmpty(t *testing.T) {
	s := requireStorage(t)
	repo := NewStageEvents(s)

	events, err := repo.ListByRegistration(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, events)
}
