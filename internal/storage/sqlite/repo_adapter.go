// Adapter wiring the SQLite backend into the storage factory and DDL
// registry.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"salesclean/internal/storage"
)

var newRepository = NewRepository

var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return newRepository(ctx, Config{
			DSN:   cfg.DSN,
			Table: cfg.Table,
		})
	})

	storage.RegisterDDL("sqlite", func(ctx context.Context, repo storage.Repository, table string, cols []storage.Column) error {
		return repo.Exec(ctx, createTableSQL(table, cols))
	})
}

func createTableSQL(table string, cols []storage.Column) string {
	defs := make([]string, 0, len(cols)+1)
	var keys []string
	for _, c := range cols {
		defs = append(defs, fmt.Sprintf("%s %s", c.Name, sqlType(c.Type)))
		if c.Key {
			keys = append(keys, c.Name)
		}
	}
	if len(keys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", table, strings.Join(defs, ",\n  "))
}

// sqlType maps the backend-neutral column types onto SQLite storage classes.
// Booleans are stored as INTEGER 0/1, which database/sql handles natively.
func sqlType(t storage.ColType) string {
	switch t {
	case storage.ColInt, storage.ColBool:
		return "INTEGER"
	case storage.ColFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}
