package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"writer/pkg/logger"

	_ "github.com/lib/pq"
)

const (
	pingAttempts = 5
	pingDelay    = 2 * time.Second
)

// Connect opens a PostgreSQL connection and waits until it answers pings.
// The caller owns the returned handle.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	if err := WaitForPing(ctx, db, pingAttempts, pingDelay); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// WaitForPing retries db.PingContext to ride out temporary DNS/network blips.
func WaitForPing(ctx context.Context, db *sql.DB, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", delay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("could not connect to database after %d attempts: %w", attempts, err)
}
