package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"writer/internal/document/model"
	"writer/internal/migration"
	"writer/pkg/logger"
)

var postgresMigrations = migration.MustPlan(
	migration.Migration[*sql.Tx]{
		Version: 1,
		Name:    "create documents store",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS documents (
				id BIGSERIAL PRIMARY KEY,
				title TEXT NOT NULL,
				content JSONB NOT NULL
			)`); err != nil {
				return err
			}
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS documents_by_title ON documents (title COLLATE "C", id)`)
			return err
		},
	},
)

// PostgresStore keeps documents in a PostgreSQL table. It owns DB and closes it.
type PostgresStore struct {
	DB     *sql.DB
	closed atomic.Bool
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgresStore migrates the schema to SchemaVersion and returns the store.
func OpenPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if err := migratePostgres(ctx, db); err != nil {
		return nil, err
	}
	return &PostgresStore{DB: db}, nil
}

func migratePostgres(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	// Serialises concurrent openers; the loser sees the winner's version.
	if _, err := tx.ExecContext(ctx, `LOCK TABLE schema_version IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock schema_version: %w", err)
	}

	var current int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	reached, err := postgresMigrations.Apply(tx, current)
	if err != nil {
		logger.Sugar.Errorf("Failed to migrate documents schema from version %d: %v", current, err)
		return err
	}
	if reached == current {
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, reached); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	logger.Sugar.Infof("Migrated documents schema from version %d to %d", current, reached)
	return nil
}

func (r *PostgresStore) List(ctx context.Context) ([]model.DocumentSummary, error) {
	return r.listSummaries(ctx, `SELECT id, title FROM documents ORDER BY id`)
}

// ListByTitle orders titles bytewise, as the embedded store does.
func (r *PostgresStore) ListByTitle(ctx context.Context) ([]model.DocumentSummary, error) {
	return r.listSummaries(ctx, `SELECT id, title FROM documents ORDER BY title COLLATE "C", id`)
}

func (r *PostgresStore) listSummaries(ctx context.Context, query string) ([]model.DocumentSummary, error) {
	if r.closed.Load() {
		return nil, ErrStoreClosed
	}
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		logger.Sugar.Errorf("Failed to list documents: %v", err)
		return nil, err
	}
	defer rows.Close()

	docs := []model.DocumentSummary{}
	for rows.Next() {
		var d model.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Title); err != nil {
			logger.Sugar.Errorf("Failed to scan document summary: %v", err)
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresStore) Get(ctx context.Context, id int64) (*model.Document, error) {
	if r.closed.Load() {
		return nil, ErrStoreClosed
	}
	var doc model.Document
	var content []byte
	err := r.DB.QueryRowContext(ctx, `SELECT id, title, content FROM documents WHERE id = $1`, id).
		Scan(&doc.ID, &doc.Title, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get doc %d: %v", id, err)
		return nil, err
	}
	doc.Content = content
	return &doc, nil
}

func (r *PostgresStore) Save(ctx context.Context, doc model.Document) (int64, error) {
	if r.closed.Load() {
		return 0, ErrStoreClosed
	}
	if doc.ID < 0 {
		return 0, ErrInvalidID
	}
	content := string(doc.Content)
	if content == "" {
		content = "null"
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		logger.Sugar.Errorf("Failed to begin save transaction: %v", err)
		return 0, err
	}
	defer tx.Rollback()

	id := doc.ID
	if id == 0 {
		err = tx.QueryRowContext(ctx, `INSERT INTO documents (title, content) VALUES ($1, $2) RETURNING id`,
			doc.Title, content).Scan(&id)
		if err != nil {
			logger.Sugar.Errorf("Failed to insert document: %v", err)
			return 0, err
		}
	} else {
		_, err = tx.ExecContext(ctx, `INSERT INTO documents (id, title, content) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, content = EXCLUDED.content`,
			id, doc.Title, content)
		if err != nil {
			logger.Sugar.Errorf("Failed to save doc %d: %v", id, err)
			return 0, err
		}
		// Generated ids must stay above any explicitly chosen one.
		_, err = tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('documents', 'id'),
			GREATEST(nextval(pg_get_serial_sequence('documents', 'id')) - 1, $1::bigint))`, id)
		if err != nil {
			logger.Sugar.Errorf("Failed to advance id sequence past %d: %v", id, err)
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Sugar.Errorf("Failed to commit doc %d: %v", id, err)
		return 0, err
	}
	return id, nil
}

func (r *PostgresStore) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.DB.Close()
}
