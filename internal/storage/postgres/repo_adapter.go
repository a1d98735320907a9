// This adapter wires the Postgres backend into the storage-agnostic factory
// by registering a constructor and a DDL bootstrapper at init time. Callers
// obtain a Repository via storage.New(...) without importing this package
// directly.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"salesclean/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return newRepository(ctx, Config{
			DSN:   cfg.DSN,
			Table: cfg.Table,
		})
	})

	storage.RegisterDDL("postgres", func(ctx context.Context, repo storage.Repository, table string, cols []storage.Column) error {
		return repo.Exec(ctx, createTableSQL(table, cols))
	})
}

// createTableSQL renders a CREATE TABLE IF NOT EXISTS statement for the given
// backend-neutral schema.
func createTableSQL(table string, cols []storage.Column) string {
	defs := make([]string, 0, len(cols)+1)
	var keys []string
	for _, c := range cols {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(c.Name), sqlType(c.Type)))
		if c.Key {
			keys = append(keys, quoteIdent(c.Name))
		}
	}
	if len(keys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", quoteTable(table), strings.Join(defs, ",\n  "))
}

func sqlType(t storage.ColType) string {
	switch t {
	case storage.ColInt:
		return "bigint"
	case storage.ColFloat:
		return "double precision"
	case storage.ColBool:
		return "boolean"
	default:
		return "text"
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
