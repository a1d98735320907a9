package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"salesclean/internal/cleaner"
	"salesclean/internal/config"
	"salesclean/internal/datasource/file"
	"salesclean/internal/datasource/httpds"
	"salesclean/internal/lookup"
	"salesclean/internal/metrics"
	csvparser "salesclean/internal/parser/csv"
	"salesclean/internal/storage"
	"salesclean/pkg/records"
)

// run wires the configured source, parser, cleaner, and sinks together and
// executes one full cleaning run.
func run(ctx context.Context, p config.Pipeline, runID string) error {
	src, err := openSource(ctx, p.Source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	reader, err := newParser(src, p.Parser)
	if err != nil {
		return fmt.Errorf("init parser: %w", err)
	}

	tables, err := lookup.Load(p.Cleaning.LookupDir)
	if err != nil {
		return fmt.Errorf("load lookup tables: %w", err)
	}

	policy := newPolicy(p.Cleaning)
	eng := cleaner.New(tables, policy)

	cleanRepo, err := openRepository(ctx, p.Storage, records.CleanColumns, storage.CleanSchema())
	if err != nil {
		return fmt.Errorf("init clean storage: %w", err)
	}
	defer cleanRepo.Close()

	ct := &cleaner.Controller{
		Cleaner:   eng,
		ChunkSize: p.Cleaning.ChunkSize,
		Clean:     storage.CleanWriter{Repo: cleanRepo},
		Progress:  10,
	}

	var rejectRepo storage.Repository
	if policy.SaveRejected && p.Rejected.Kind != "" {
		rejectRepo, err = openRepository(ctx, p.Rejected, records.RejectedColumns, storage.RejectedSchema())
		if err != nil {
			return fmt.Errorf("init rejected storage: %w", err)
		}
		defer rejectRepo.Close()
		ct.Rejects = storage.RejectWriter{Repo: rejectRepo}
	}

	start := time.Now()
	sum, err := ct.Run(ctx, reader)
	if err != nil {
		return err
	}

	logSummary(runID, sum, reader.Skipped(), time.Since(start))
	recordSummary(jobName(p), sum, reader.Skipped())
	return nil
}

// openSource resolves the configured source kind into a byte stream.
func openSource(ctx context.Context, s config.Source) (io.ReadCloser, error) {
	switch s.Kind {
	case "file":
		return file.Open(s.File.Path)
	case "http":
		client := httpds.NewClient(httpds.Config{})
		return client.Fetch(ctx, s.HTTP.URL)
	default:
		return nil, fmt.Errorf("unsupported source.kind=%q", s.Kind)
	}
}

// newParser builds the chunked CSV reader from the parser options map.
func newParser(r io.Reader, p config.Parser) (*csvparser.ChunkReader, error) {
	if p.Kind != "" && p.Kind != "csv" {
		return nil, fmt.Errorf("unsupported parser.kind=%q", p.Kind)
	}
	opt := csvparser.Options{
		HasHeader: p.Options.Bool("has_header", true),
		Comma:     p.Options.Rune("comma", ','),
		TrimSpace: p.Options.Bool("trim_space", true),
		HeaderMap: p.Options.StringMap("header_map"),
		OnError: func(line int, err error) {
			log.Printf("parser: line %d skipped: %v", line, err)
		},
	}
	return csvparser.NewChunkReader(r, opt)
}

// newPolicy applies config overrides on top of the default cleaning policy.
func newPolicy(c config.Cleaning) cleaner.Policy {
	policy := cleaner.DefaultPolicy()
	if c.DropZeroQuantity != nil {
		policy.DropZeroQuantity = *c.DropZeroQuantity
	}
	if c.SaveRejected != nil {
		policy.SaveRejected = *c.SaveRejected
	}
	if c.FuzzyDistance > 0 {
		policy.FuzzyDistance = c.FuzzyDistance
	}
	return policy
}

// openRepository opens a storage backend for one output stream and applies
// DDL when requested and supported by the backend.
func openRepository(ctx context.Context, s config.Storage, columns []string, schema []storage.Column) (storage.Repository, error) {
	repo, err := storage.New(ctx, storage.Config{
		Kind:    s.Kind,
		DSN:     s.DB.DSN,
		Table:   s.DB.Table,
		Path:    s.DB.DSN,
		Columns: columns,
	})
	if err != nil {
		return nil, err
	}
	if s.DB.AutoCreateTable && storage.HasDDL(s.Kind) {
		if err := storage.EnsureTable(ctx, s.Kind, repo, s.DB.Table, schema); err != nil {
			repo.Close()
			return nil, fmt.Errorf("apply DDL: %w", err)
		}
	}
	return repo, nil
}

func logSummary(runID string, sum cleaner.Summary, parseErrors int64, elapsed time.Duration) {
	rate := float64(sum.InputRows) / elapsed.Seconds()
	log.Printf("run %s: input=%d accepted=%d rejected=%d anomalies=%d parse_errors=%d chunks=%d unique_orders=%d elapsed=%s rows/sec=%.0f",
		runID, sum.InputRows, sum.Accepted, sum.Rejected, sum.Anomalies,
		parseErrors, sum.Chunks, sum.UniqueOrders, elapsed.Truncate(time.Millisecond), rate)

	if len(sum.RejectedByReason) == 0 {
		return
	}
	reasons := make([]string, 0, len(sum.RejectedByReason))
	for r := range sum.RejectedByReason {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		log.Printf("run %s: rejected %s=%d", runID, r, sum.RejectedByReason[records.Reason(r)])
	}
}

func recordSummary(job string, sum cleaner.Summary, parseErrors int64) {
	metrics.RecordRow(job, "input", sum.InputRows)
	metrics.RecordRow(job, "accepted", sum.Accepted)
	metrics.RecordRow(job, "rejected", sum.Rejected)
	metrics.RecordRow(job, "anomalies", sum.Anomalies)
	metrics.RecordRow(job, "parse_errors", parseErrors)
	metrics.RecordChunks(job, int64(sum.Chunks))
	for reason, n := range sum.RejectedByReason {
		metrics.RecordReject(job, string(reason), n)
	}
}
