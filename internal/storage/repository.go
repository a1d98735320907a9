// Package storage contains storage-agnostic contracts for persisting cleaned
// and rejected sales records. Concrete backends (Postgres, SQLite, CSV files)
// register themselves with the factory at init time, so callers stay fully
// backend-agnostic and select a backend by kind string alone.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the write-side contract every backend implements.
//
// CopyFrom inserts the provided rows (aligned to 'columns' order) using the
// backend's most efficient bulk primitive (Postgres COPY, SQLite transactional
// INSERT, buffered CSV writes) and returns the number of rows inserted. It
// should cancel promptly when ctx is done.
type Repository interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Close() error
}

// Config carries everything a backend needs to open a Repository. Fields not
// relevant to a given backend are ignored by it (e.g., Path for Postgres).
type Config struct {
	Kind    string   // backend selector: "postgres", "sqlite", "csvfile"
	DSN     string   // connection string for database backends
	Table   string   // destination table for database backends
	Path    string   // destination file for the csvfile backend
	Columns []string // ordered output columns
}

// Factory constructs a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) a Factory for the given storage kind. It
// is typically called from backend packages' init() functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind. Kinds become available by importing
// the backend package (usually via the storage/all wiring package).
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns the registered backend kinds in sorted order.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
