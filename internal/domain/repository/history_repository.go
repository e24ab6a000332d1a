// Package repository declares the storage contracts of the converter
package repository

import (
	"context"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
)

// HistoryRepository defines the interface for conversion history storage
type HistoryRepository interface {
	// Append adds an entry to the end of the history
	Append(ctx context.Context, entry *entity.HistoryEntry) error

	// LoadAll returns every entry, oldest first. Unreadable data yields an empty history.
	LoadAll(ctx context.Context) ([]entity.HistoryEntry, error)

	// Clear removes all entries
	Clear(ctx context.Context) error
}

// RateSnapshotRepository keeps the last live rate fetch across restarts
type RateSnapshotRepository interface {
	// Save replaces the stored snapshot
	Save(ctx context.Context, result *entity.RateFetchResult) error

	// Load returns the stored snapshot, or nil if there is none
	Load(ctx context.Context) (*entity.RateFetchResult, error)
}
