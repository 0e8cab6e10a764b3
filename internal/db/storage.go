package db

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/vehicletag/registration-node/internal/log"
)

// Storage holds the pgx connection pool shared by the repositories.
type Storage struct {
	Pgx *pgxpool.Pool
}

// NewStorage connects a pgx pool to the database at connectionString.
func NewStorage(connectionString string) (*Storage, error) {
	pool, err := pgxpool.Connect(context.Background(), connectionString)
	if err != nil {
		return nil, err
	}

	return &Storage{Pgx: pool}, nil
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.Pgx.Ping(ctx)
}

// Close drains and closes the pool.
func (s *Storage) Close() error {
	log.Info(context.Background(), "closing database pool")
	s.Pgx.Close()
	return nil
}
