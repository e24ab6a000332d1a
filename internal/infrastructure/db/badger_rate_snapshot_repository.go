package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/dgraph-io/badger/v3"
)

const rateSnapshotKey = "rates:snapshot"

// BadgerRateSnapshotRepository persists the last live rate fetch
type BadgerRateSnapshotRepository struct {
	db     *badger.DB
	logger logger.Logger
}

// NewBadgerRateSnapshotRepository creates a new snapshot repository
func NewBadgerRateSnapshotRepository(db *badger.DB, log logger.Logger) *BadgerRateSnapshotRepository {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &BadgerRateSnapshotRepository{db: db, logger: log}
}

// Save stores a live fetch result. Degraded or undated results are rejected.
func (r *BadgerRateSnapshotRepository) Save(ctx context.Context, result *entity.RateFetchResult) error {
	if result == nil || result.Degraded {
		return errors.New("only live rate results can be saved")
	}
	if result.FetchedAt.IsZero() {
		return errors.New("rate snapshot needs a fetch time")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal rate snapshot: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(rateSnapshotKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store rate snapshot: %w", err)
	}

	r.logger.Debug("Rate snapshot stored", map[string]interface{}{
		"source":     result.Source,
		"currencies": len(result.Table),
	})

	return nil
}

// Load returns the stored snapshot, or nil when none exists or it no longer validates
func (r *BadgerRateSnapshotRepository) Load(ctx context.Context) (*entity.RateFetchResult, error) {
	var result entity.RateFetchResult

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(rateSnapshotKey))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			r.logger.Warn("Stored rate snapshot is malformed, ignoring it", map[string]interface{}{
				"error": err.Error(),
			})
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve rate snapshot: %w", err)
	}

	if err := result.Table.Validate(); err != nil {
		r.logger.Warn("Stored rate snapshot is invalid, ignoring it", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}

	// without a fetch time the rates could never age, so they are as good as missing
	if result.FetchedAt.IsZero() {
		r.logger.Warn("Stored rate snapshot has no fetch time, ignoring it", map[string]interface{}{
			"source": result.Source,
		})
		return nil, nil
	}

	return &result, nil
}
