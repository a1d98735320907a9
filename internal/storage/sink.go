package storage

import (
	"context"
	"fmt"

	"salesclean/pkg/records"
)

// CleanWriter adapts a Repository into a sink for accepted records. It
// translates typed records into positional rows aligned with
// records.CleanColumns before handing them to the backend.
type CleanWriter struct {
	Repo Repository
}

// WriteClean bulk-inserts one chunk of accepted records.
func (w CleanWriter) WriteClean(ctx context.Context, rows []records.Clean) error {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]any, len(rows))
	for i, rec := range rows {
		out[i] = rec.Row()
	}
	n, err := w.Repo.CopyFrom(ctx, records.CleanColumns, out)
	if err != nil {
		return fmt.Errorf("write clean records: %w", err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("write clean records: inserted %d of %d rows", n, len(rows))
	}
	return nil
}

// RejectWriter adapts a Repository into a sink for rejected records. Raw
// field values are persisted verbatim alongside the rejection reason.
type RejectWriter struct {
	Repo Repository
}

// WriteRejected bulk-inserts one chunk of rejected records.
func (w RejectWriter) WriteRejected(ctx context.Context, rows []records.Rejected) error {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]any, len(rows))
	for i, rec := range rows {
		out[i] = rec.Row()
	}
	n, err := w.Repo.CopyFrom(ctx, records.RejectedColumns, out)
	if err != nil {
		return fmt.Errorf("write rejected records: %w", err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("write rejected records: inserted %d of %d rows", n, len(rows))
	}
	return nil
}
