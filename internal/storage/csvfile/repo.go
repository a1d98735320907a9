// Package csvfile implements a file-based storage.Repository that writes
// rows as CSV. It is the default sink for local runs and for inspecting
// pipeline output without a database. The header row is written when the
// file is opened, so an empty run still produces a well-formed CSV.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"salesclean/internal/storage"
)

// Config holds csvfile repository configuration.
type Config struct {
	Path    string   // destination file; created or truncated
	Columns []string // header row
}

// Repository writes rows to a single CSV file.
type Repository struct {
	f   *os.File
	w   *csv.Writer
	cfg Config
}

// NewRepository creates (or truncates) the destination file and writes the
// header row.
func NewRepository(cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("csvfile: path must not be empty")
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("csvfile: columns must not be empty")
	}

	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("csvfile: create: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(cfg.Columns); err != nil {
		f.Close()
		return nil, fmt.Errorf("csvfile: write header: %w", err)
	}
	return &Repository{f: f, w: w, cfg: cfg}, nil
}

// CopyFrom appends rows to the file. The columns argument must match the
// header the repository was opened with.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) != len(r.cfg.Columns) {
		return 0, fmt.Errorf("csvfile: CopyFrom: got %d columns, file has %d", len(columns), len(r.cfg.Columns))
	}

	var written int64
	record := make([]string, len(columns))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if len(row) != len(columns) {
			return written, fmt.Errorf("csvfile: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := r.w.Write(record); err != nil {
			return written, fmt.Errorf("csvfile: write row: %w", err)
		}
		written++
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return written, fmt.Errorf("csvfile: flush: %w", err)
	}
	return written, nil
}

// Exec is a no-op; a CSV file has no DDL.
func (r *Repository) Exec(ctx context.Context, sql string) error { return nil }

// Close flushes buffered rows and closes the file.
func (r *Repository) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.f.Close()
		return fmt.Errorf("csvfile: flush: %w", err)
	}
	return r.f.Close()
}

// formatValue renders a cell. Floats use the shortest representation that
// round-trips, so 19.99 stays "19.99" rather than picking up trailing zeros.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func init() {
	storage.Register("csvfile", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(Config{
			Path:    cfg.Path,
			Columns: cfg.Columns,
		})
	})
}
