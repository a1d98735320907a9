package csvfile

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRepository_WritesHeaderAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	repo, err := NewRepository(Config{Path: path, Columns: []string{"order_id", "quantity", "revenue"}})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	n, err := repo.CopyFrom(context.Background(), []string{"order_id", "quantity", "revenue"}, [][]any{
		{"ORD-1", int64(2), 39.98},
		{"ORD-2", int64(1), 19.99},
	})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := [][]string{
		{"order_id", "quantity", "revenue"},
		{"ORD-1", "2", "39.98"},
		{"ORD-2", "1", "19.99"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("output = %v, want %v", rows, want)
	}
}

// An empty run still yields a well-formed, header-only CSV.
func TestRepository_EmptyRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	repo, err := NewRepository(Config{Path: path, Columns: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got := string(data); got != "a,b\n" {
		t.Fatalf("output = %q, want header only", got)
	}
}

func TestRepository_NilBecomesEmptyCell(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	repo, err := NewRepository(Config{Path: path, Columns: []string{"order_id", "customer_email"}})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if _, err := repo.CopyFrom(context.Background(), []string{"order_id", "customer_email"}, [][]any{
		{"ORD-1", nil},
	}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[1] != "ORD-1," {
		t.Fatalf("row = %q, want empty second cell", lines[1])
	}
}

func TestRepository_WidthMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	repo, err := NewRepository(Config{Path: path, Columns: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer repo.Close()

	if _, err := repo.CopyFrom(context.Background(), []string{"a"}, nil); err == nil {
		t.Fatalf("expected error for column count mismatch")
	}
	if _, err := repo.CopyFrom(context.Background(), []string{"a", "b"}, [][]any{{"only-one"}}); err == nil {
		t.Fatalf("expected error for short row")
	}
}

func TestNewRepository_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(Config{Path: "", Columns: []string{"a"}}); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := NewRepository(Config{Path: filepath.Join(t.TempDir(), "x.csv")}); err == nil {
		t.Fatalf("expected error for empty columns")
	}
}
