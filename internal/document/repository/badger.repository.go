package repository

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"writer/internal/document/codec"
	"writer/internal/document/model"
	"writer/internal/migration"
	"writer/pkg/logger"
)

var badgerMigrations = migration.MustPlan(
	migration.Migration[*badger.Txn]{
		Version: 1,
		Name:    "create documents store",
		Up: func(txn *badger.Txn) error {
			// Ids are generated from 1, as an auto-incrementing key would be.
			_, err := txn.Get([]byte(nextIDKey))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return txn.Set([]byte(nextIDKey), encodeUint64(1))
			}
			return err
		},
	},
)

// BadgerOptions selects where the embedded store lives.
type BadgerOptions struct {
	Path     string
	InMemory bool
}

// BadgerStore keeps documents in an embedded BadgerDB key-value store.
// Saves are serialised; reads run alongside them on snapshots.
type BadgerStore struct {
	db *badger.DB
	mu sync.Mutex
}

var _ Store = (*BadgerStore)(nil)

// zapBadgerLogger adapts the global zap logger to badger.Logger.
type zapBadgerLogger struct{}

var _ badger.Logger = zapBadgerLogger{}

func (zapBadgerLogger) Errorf(msg string, items ...any)   { logger.Sugar.Errorf(msg, items...) }
func (zapBadgerLogger) Warningf(msg string, items ...any) { logger.Sugar.Warnf(msg, items...) }
func (zapBadgerLogger) Infof(msg string, items ...any)    { logger.Sugar.Debugf(msg, items...) }
func (zapBadgerLogger) Debugf(msg string, items ...any)   { logger.Sugar.Debugf(msg, items...) }

// OpenBadgerStore opens (creating if needed) the store and migrates it to SchemaVersion.
func OpenBadgerStore(ctx context.Context, opts BadgerOptions) (*BadgerStore, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts.Logger = zapBadgerLogger{}
	// Content is compressed by the codec.
	bopts.Compression = options.None

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	if err := migrateBadger(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func migrateBadger(ctx context.Context, db *badger.DB) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		current, err := readUint64(txn, schemaVersionKey)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		reached, err := badgerMigrations.Apply(txn, int(current))
		if err != nil {
			logger.Sugar.Errorf("Failed to migrate documents schema from version %d: %v", current, err)
			return err
		}
		if reached == int(current) {
			return nil
		}
		if err := txn.Set([]byte(schemaVersionKey), encodeUint64(uint64(reached))); err != nil {
			return err
		}
		logger.Sugar.Infof("Migrated documents schema from version %d to %d", current, reached)
		return nil
	})
}

// SchemaVersion reports the persisted schema version.
func (r *BadgerStore) SchemaVersion() (int, error) {
	var v uint64
	err := r.view(func(txn *badger.Txn) error {
		var err error
		v, err = readUint64(txn, schemaVersionKey)
		return err
	})
	return int(v), err
}

func (r *BadgerStore) List(ctx context.Context) ([]model.DocumentSummary, error) {
	docs := []model.DocumentSummary{}
	err := r.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docPrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				summary, err := codec.DecodeSummary(val)
				if err != nil {
					return err
				}
				docs = append(docs, summary)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to list documents: %v", err)
		return nil, err
	}
	return docs, nil
}

func (r *BadgerStore) ListByTitle(ctx context.Context) ([]model.DocumentSummary, error) {
	docs := []model.DocumentSummary{}
	err := r.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(titleIndexPrefix)
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			title, id, ok := parseTitleKey(iter.Item().Key())
			if !ok {
				return fmt.Errorf("%w: malformed title index key", codec.ErrCorruptRecord)
			}
			if len(title) == maxIndexedTitle {
				doc, err := readDocument(txn, id)
				if err != nil {
					return err
				}
				if doc == nil {
					return fmt.Errorf("%w: index entry for missing doc %d", codec.ErrCorruptRecord, id)
				}
				title = doc.Title
			}
			docs = append(docs, model.DocumentSummary{ID: id, Title: title})
		}
		return nil
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to list documents by title: %v", err)
		return nil, err
	}
	return docs, nil
}

func (r *BadgerStore) Get(ctx context.Context, id int64) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc *model.Document
	err := r.view(func(txn *badger.Txn) error {
		var err error
		doc, err = readDocument(txn, id)
		return err
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to get doc %d: %v", id, err)
		return nil, err
	}
	return doc, nil
}

func (r *BadgerStore) Save(ctx context.Context, doc model.Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if doc.ID < 0 {
		return 0, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db.IsClosed() {
		return 0, ErrStoreClosed
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		next, err := readUint64(txn, nextIDKey)
		if err != nil {
			return err
		}
		if doc.ID == 0 {
			doc.ID = int64(next)
		}

		old, err := readDocument(txn, doc.ID)
		if err != nil {
			return err
		}
		if old != nil && old.Title != doc.Title {
			if err := txn.Delete(makeTitleKey(old.Title, old.ID)); err != nil {
				return err
			}
		}

		value, err := codec.Encode(doc)
		if err != nil {
			return err
		}
		if err := txn.Set(makeDocKey(doc.ID), value); err != nil {
			return err
		}
		if err := txn.Set(makeTitleKey(doc.Title, doc.ID), nil); err != nil {
			return err
		}

		if uint64(doc.ID) >= next {
			return txn.Set([]byte(nextIDKey), encodeUint64(uint64(doc.ID)+1))
		}
		return nil
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to save doc %d: %v", doc.ID, err)
		return 0, err
	}
	return doc.ID, nil
}

func (r *BadgerStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db.IsClosed() {
		return nil
	}
	return r.db.Close()
}

func (r *BadgerStore) view(fn func(txn *badger.Txn) error) error {
	if r.db.IsClosed() {
		return ErrStoreClosed
	}
	return r.db.View(fn)
}

func readDocument(txn *badger.Txn, id int64) (*model.Document, error) {
	item, err := txn.Get(makeDocKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc *model.Document
	err = item.Value(func(val []byte) error {
		doc, err = codec.Decode(val)
		return err
	})
	return doc, err
}

func readUint64(txn *badger.Txn, key string) (uint64, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: %s has %d bytes", codec.ErrCorruptRecord, key, len(val))
		}
		v = binary.BigEndian.Uint64(val)
		return nil
	})
	return v, err
}
