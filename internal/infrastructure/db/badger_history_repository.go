package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/dgraph-io/badger/v3"
)

const (
	historyKey = "history"

	// HistorySchemaVersion is written into every stored history document
	HistorySchemaVersion = 1
)

// historyDocument is the persisted form of the whole history
type historyDocument struct {
	Version int                   `json:"version"`
	Entries []entity.HistoryEntry `json:"entries"`
}

// BadgerHistoryRepository implements the history repository interface using BadgerDB
type BadgerHistoryRepository struct {
	db     *badger.DB
	logger logger.Logger

	// writes are read-modify-write on one key; serialize them so badger never reports a conflict
	writeMu sync.Mutex
}

// NewBadgerHistoryRepository creates a new BadgerDB history repository
func NewBadgerHistoryRepository(db *badger.DB, log logger.Logger) *BadgerHistoryRepository {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &BadgerHistoryRepository{db: db, logger: log}
}

// Append adds an entry to the end of the stored history
func (r *BadgerHistoryRepository) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	if entry == nil {
		return errors.New("history entry is required")
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.db.Update(func(txn *badger.Txn) error {
		doc := r.read(txn)
		doc.Entries = append(doc.Entries, *entry)

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}

		return txn.Set([]byte(historyKey), data)
	})

	if err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}

	return nil
}

// LoadAll returns every stored entry, oldest first
func (r *BadgerHistoryRepository) LoadAll(ctx context.Context) ([]entity.HistoryEntry, error) {
	var doc historyDocument

	err := r.db.View(func(txn *badger.Txn) error {
		doc = r.read(txn)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return doc.Entries, nil
}

// Clear removes the whole history
func (r *BadgerHistoryRepository) Clear(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(historyKey))
	})

	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return nil
}

// read decodes the stored document. Anything unreadable is treated as an empty history.
func (r *BadgerHistoryRepository) read(txn *badger.Txn) historyDocument {
	empty := historyDocument{Version: HistorySchemaVersion, Entries: []entity.HistoryEntry{}}

	item, err := txn.Get([]byte(historyKey))
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			r.logger.Warn("Failed to read history, starting empty", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return empty
	}

	var doc historyDocument
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})
	if err != nil {
		r.logger.Warn("Stored history is malformed, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
		return empty
	}

	if doc.Version != HistorySchemaVersion {
		r.logger.Warn("Stored history has an unknown schema version, starting empty", map[string]interface{}{
			"version":  doc.Version,
			"expected": HistorySchemaVersion,
		})
		return empty
	}

	if doc.Entries == nil {
		doc.Entries = []entity.HistoryEntry{}
	}

	return doc
}
