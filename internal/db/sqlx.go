package db

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Sqlx is a secondary db conn used by reporting tools that want struct
// scanning instead of the pgx interface.
type Sqlx struct {
	DB *sqlx.DB
}

// NewSqlx connects to postgres via sqlx, exiting the process on failure.
// Intended for command binaries that cannot run without a database.
func NewSqlx(datasource string) *Sqlx {
	conn, err := sqlx.Connect("postgres", datasource)
	if err != nil {
		log.Fatal(err)
	}

	return &Sqlx{DB: conn}
}
