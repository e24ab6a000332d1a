// Package db persists converter state in BadgerDB
package db

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

// Open opens (creating if needed) a BadgerDB at dir. An empty dir opens an in-memory store.
func Open(dir string) (*badger.DB, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}

	// Badger's own logger is too chatty for the service log
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}
