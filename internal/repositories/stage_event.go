package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/db"
)

// stageEvent is the append-only audit repository. Every call inserts one row;
// re-attempts of a stage produce additional rows rather than updates, so the
// log keeps the full history the aggregate's per-stage merge discards.
type stageEvent struct {
	conn db.Querier
}

// NewStageEvents creates a new stage event log repository
func NewStageEvents(conn *db.Storage) ports.StageEventRepository {
	return &stageEvent{conn.Pgx}
}

// Append inserts one event row
func (s *stageEvent) Append(ctx context.Context, registrationID uuid.UUID, rec domain.StageRecord) error {
	const insert = `
INSERT INTO stage_events (id, registration_id, stage, status, session_id, data, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	data, err := jsonbValue(rec.Data)
	if err != nil {
		return fmt.Errorf("could not serialize stage data: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = s.conn.Exec(ctx, insert,
		uuid.New(),
		registrationID,
		rec.Stage,
		rec.Status,
		nullable(rec.SessionID),
		data,
		ts,
	)
	if err != nil {
		return fmt.Errorf("could not append stage event: %w", err)
	}
	return nil
}

// ListByRegistration returns every event of one registration in write order
func (s *stageEvent) ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]ports.StageEvent, error) {
	const query = `
SELECT id, registration_id, stage, status, session_id, data, created_at
FROM stage_events
WHERE registration_id = $1
ORDER BY created_at ASC;`

	rows, err := s.conn.Query(ctx, query, registrationID)
	if err != nil {
		return nil, fmt.Errorf("could not query stage events: %w", err)
	}
	defer rows.Close()

	var out []ports.StageEvent
	for rows.Next() {
		var (
			ev        ports.StageEvent
			sessionID *string
			dataBytes []byte
		)
		if err := rows.Scan(&ev.ID, &ev.RegistrationID, &ev.Record.Stage, &ev.Record.Status, &sessionID, &dataBytes, &ev.Record.Timestamp); err != nil {
			return nil, fmt.Errorf("could not scan stage event: %w", err)
		}
		ev.Record.SessionID = fromNullable(sessionID)
		if len(dataBytes) > 0 {
			if err := unmarshalData(dataBytes, &ev.Record.Data); err != nil {
				return nil, err
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// unmarshalData decodes a jsonb payload into a string map.
func unmarshalData(b []byte, dst *map[string]string) error {
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("could not unmarshal stage data: %w", err)
	}
	return nil
}
