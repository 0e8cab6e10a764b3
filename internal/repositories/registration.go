package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/vehicletag/registration-node/internal/cache"
	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/db"
	"github.com/vehicletag/registration-node/internal/log"
)

// ErrRegistrationNotFound error
var ErrRegistrationNotFound = errors.New("registration not found")

const registrationCacheTTL = 30 * time.Second

// registration repository
type registration struct {
	conn  db.Querier
	cache cache.Cache
}

// NewRegistration creates a new registration repository backed by postgres
// with a cache-aside read path for GetByID.
func NewRegistration(conn *db.Storage, c cache.Cache) ports.RegistrationRepository {
	if c == nil {
		c = &cache.NullCache{}
	}
	return &registration{conn: conn.Pgx, cache: c}
}

// Save upserts the whole aggregate row. The read-modify-write cycle is owned
// by the service; there is no optimistic concurrency check, matching the
// single-agent-at-a-time model.
func (r *registration) Save(ctx context.Context, reg *domain.Registration) error {
	const upsert = `
INSERT INTO registrations (id, current_stage, mobile_no, vehicle_no, is_authenticated, user_id, user_name, user_email, stages, uploads, started_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE
SET current_stage    = EXCLUDED.current_stage,
    mobile_no        = EXCLUDED.mobile_no,
    vehicle_no       = EXCLUDED.vehicle_no,
    is_authenticated = EXCLUDED.is_authenticated,
    user_id          = EXCLUDED.user_id,
    user_name        = EXCLUDED.user_name,
    user_email       = EXCLUDED.user_email,
    stages           = EXCLUDED.stages,
    uploads          = EXCLUDED.uploads,
    updated_at       = EXCLUDED.updated_at;`

	stages, err := jsonbValue(reg.Stages)
	if err != nil {
		return fmt.Errorf("could not serialize stages: %w", err)
	}
	uploads, err := jsonbValue(reg.Uploads)
	if err != nil {
		return fmt.Errorf("could not serialize uploads: %w", err)
	}

	_, err = r.conn.Exec(ctx, upsert,
		reg.ID,
		reg.CurrentStage,
		nullable(reg.MobileNo),
		nullable(reg.VehicleNo),
		reg.IsAuthenticated,
		nullable(reg.UserID),
		nullable(reg.UserName),
		nullable(reg.UserEmail),
		stages,
		uploads,
		reg.StartedAt,
		reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("could not save registration: %w", err)
	}
	if err := r.cache.Delete(ctx, registrationCacheKey(reg.ID)); err != nil {
		log.Warn(ctx, "evicting registration cache", "err", err, "registrationID", reg.ID.String())
	}
	return nil
}

// GetByID returns one aggregate or ErrRegistrationNotFound
func (r *registration) GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	// clone on both sides of the cache boundary: the memory cache fallback
	// hands out the stored value's maps, so without a copy a caller merging
	// into the result would mutate the cached entry before Save decides
	var cached domain.Registration
	if r.cache.Get(ctx, registrationCacheKey(id), &cached) {
		out := cloneRegistration(&cached)
		return &out, nil
	}

	row := r.conn.QueryRow(ctx, selectRegistration+" WHERE id = $1", id)
	reg, err := scanRegistration(row)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, registrationCacheKey(id), cloneRegistration(reg), registrationCacheTTL); err != nil {
		log.Warn(ctx, "caching registration", "err", err, "registrationID", id.String())
	}
	return reg, nil
}

// GetByMobile returns all aggregates for a mobile number, most recent first
func (r *registration) GetByMobile(ctx context.Context, mobileNo string) ([]*domain.Registration, error) {
	return r.list(ctx, selectRegistration+" WHERE mobile_no = $1 ORDER BY updated_at DESC", mobileNo)
}

// GetByUser returns all aggregates recorded by an agent, most recent first
func (r *registration) GetByUser(ctx context.Context, userID string) ([]*domain.Registration, error) {
	return r.list(ctx, selectRegistration+" WHERE user_id = $1 ORDER BY updated_at DESC", userID)
}

const selectRegistration = `
SELECT id, current_stage, mobile_no, vehicle_no, is_authenticated, user_id, user_name, user_email, stages, uploads, started_at, updated_at
FROM registrations`

func (r *registration) list(ctx context.Context, query string, arg any) ([]*domain.Registration, error) {
	rows, err := r.conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("could not query registrations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	var (
		reg          domain.Registration
		mobileNo     *string
		vehicleNo    *string
		userID       *string
		userName     *string
		userEmail    *string
		stagesBytes  []byte
		uploadsBytes []byte
	)
	err := row.Scan(
		&reg.ID,
		&reg.CurrentStage,
		&mobileNo,
		&vehicleNo,
		&reg.IsAuthenticated,
		&userID,
		&userName,
		&userEmail,
		&stagesBytes,
		&uploadsBytes,
		&reg.StartedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("could not scan registration: %w", err)
	}
	reg.MobileNo = fromNullable(mobileNo)
	reg.VehicleNo = fromNullable(vehicleNo)
	reg.UserID = fromNullable(userID)
	reg.UserName = fromNullable(userName)
	reg.UserEmail = fromNullable(userEmail)
	if err := json.Unmarshal(stagesBytes, &reg.Stages); err != nil {
		return nil, fmt.Errorf("could not unmarshal stages: %w", err)
	}
	if err := json.Unmarshal(uploadsBytes, &reg.Uploads); err != nil {
		return nil, fmt.Errorf("could not unmarshal uploads: %w", err)
	}
	return &reg, nil
}

func registrationCacheKey(id uuid.UUID) string {
	return "registration:" + id.String()
}

func jsonbValue(v any) (pgtype.JSONB, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return pgtype.JSONB{Status: pgtype.Null}, err
	}
	return pgtype.JSONB{Bytes: b, Status: pgtype.Present}, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromNullable(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
