package repository

import (
	"context"
	"errors"

	"writer/internal/document/model"
)

var (
	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("document store is closed")

	// ErrInvalidID is returned when a document carries a negative id.
	ErrInvalidID = errors.New("document id must not be negative")
)

// SchemaVersion is the schema every backend migrates to on open.
const SchemaVersion = 1

// Store persists documents. Implementations hold no document cache; every
// call round-trips to the engine and engine errors are returned as-is.
type Store interface {
	// List returns every document as {id, title}, in id order.
	List(ctx context.Context) ([]model.DocumentSummary, error)
	// ListByTitle returns every document as {id, title}, ordered by the title index.
	ListByTitle(ctx context.Context) ([]model.DocumentSummary, error)
	// Get returns the full document, or nil without error when no such id exists.
	Get(ctx context.Context, id int64) (*model.Document, error)
	// Save inserts (ID == 0) or replaces the document in one committed
	// transaction and returns its id.
	Save(ctx context.Context, doc model.Document) (int64, error)
	Close() error
}
