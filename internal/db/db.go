// Package db opens the shared Postgres handle the record loader, run
// queue, and status API use. The driver holds the only connection pool;
// match workers never touch the database.
package db

import (
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens a pooled connection from DATABASE_URL.
func Connect() (*sqlx.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("db: DATABASE_URL environment variable is required")
	}

	conn, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	// Pool sizing tuned for pooled cloud Postgres endpoints.
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Second)
	conn.SetConnMaxIdleTime(10 * time.Second)

	return conn, nil
}
