package storage

import (
	"context"
	"fmt"
	"sync"

	"salesclean/pkg/records"
)

// ColType is a backend-neutral column type. Each database backend maps these
// to its own SQL types when generating DDL.
type ColType int

const (
	ColText ColType = iota
	ColInt
	ColFloat
	ColBool
)

// Column describes one column of a destination table.
type Column struct {
	Name string
	Type ColType
	Key  bool // part of the primary key
}

// CleanSchema returns the destination schema for accepted records, aligned
// with records.CleanColumns.
func CleanSchema() []Column {
	return []Column{
		{Name: "order_id", Type: ColText, Key: true},
		{Name: "product_name", Type: ColText},
		{Name: "category", Type: ColText},
		{Name: "quantity", Type: ColInt},
		{Name: "unit_price", Type: ColFloat},
		{Name: "discount_percent", Type: ColFloat},
		{Name: "region", Type: ColText},
		{Name: "sale_date", Type: ColInt},
		{Name: "customer_email", Type: ColText},
		{Name: "revenue", Type: ColFloat},
		{Name: "anomaly_flag", Type: ColText},
	}
}

// RejectedSchema returns the destination schema for rejected records: the raw
// input columns verbatim plus the rejection reason.
func RejectedSchema() []Column {
	cols := make([]Column, 0, len(records.RejectedColumns))
	for _, name := range records.RejectedColumns {
		cols = append(cols, Column{Name: name, Type: ColText})
	}
	return cols
}

// ColumnNames extracts the ordered names from a schema.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// DDLBootstrapper is a backend-specific function that applies the DDL needed
// for a destination table (typically CREATE TABLE IF NOT EXISTS) via
// repo.Exec. Backends register their implementation for a storage kind at
// init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string, cols []Column) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given storage
// kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable locates the DDLBootstrapper registered for kind and invokes it.
// Backends without a meaningful notion of DDL (csvfile) simply never register
// one, and callers skip this step for them.
func EnsureTable(ctx context.Context, kind string, repo Repository, table string, cols []Column) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, table, cols)
}

// HasDDL reports whether a DDL bootstrapper is registered for kind.
func HasDDL(kind string) bool {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	_, ok := ddlFns[kind]
	return ok
}
