package cleaner

import (
	"context"
	"fmt"
	"io"
	"log"

	"salesclean/pkg/records"
)

// Source produces raw rows in source order, at most n per call. It returns
// io.EOF when exhausted, possibly alongside a final short chunk.
type Source interface {
	ReadChunk(n int) ([]records.Raw, error)
}

// CleanSink receives cleaned chunks in acceptance order.
type CleanSink interface {
	WriteClean(ctx context.Context, rows []records.Clean) error
}

// RejectSink receives rejected rows with their reasons.
type RejectSink interface {
	WriteRejected(ctx context.Context, rows []records.Rejected) error
}

// Summary aggregates run-level counters for logging and telemetry.
type Summary struct {
	InputRows        int64
	Accepted         int64
	Rejected         int64
	RejectedByReason map[records.Reason]int64
	Anomalies        int64
	Chunks           int
	UniqueOrders     int
}

// Controller drives a full cleaning run: it reads the source in bounded-size
// chunks, applies the identity and duplicate checks, hands survivors to the
// Cleaner, merges newly accepted ids into the run ledger, and forwards
// cleaned/rejected rows to the sinks. Processing is single-threaded and
// synchronous; chunking bounds peak memory, it does not add concurrency.
type Controller struct {
	Cleaner   *Cleaner
	ChunkSize int

	// Clean receives accepted rows; required.
	Clean CleanSink

	// Rejects receives rejected rows; optional, and only used when the
	// policy's SaveRejected flag is set.
	Rejects RejectSink

	// Progress, when > 0, logs a progress line every Progress chunks.
	Progress int
}

// Run executes the pipeline until the source is exhausted or ctx is
// canceled. Cancellation is coarse: the error is returned and partially
// accumulated output must be discarded by the caller; there are no
// partial-chunk commits.
func (ct *Controller) Run(ctx context.Context, src Source) (Summary, error) {
	if src == nil {
		return Summary{}, fmt.Errorf("cleaner: no source configured")
	}
	if ct.Clean == nil {
		return Summary{}, fmt.Errorf("cleaner: no clean sink configured")
	}
	chunkSize := ct.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 100000
	}

	ledger := NewLedger()
	collector := NewCollector(false)

	var sum Summary
	for {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		chunk, err := src.ReadChunk(chunkSize)
		if err != nil && err != io.EOF {
			return sum, fmt.Errorf("cleaner: read chunk: %w", err)
		}
		if len(chunk) > 0 {
			accepted, rejected := ct.processChunk(chunk, ledger, collector)
			sum.InputRows += int64(len(chunk))
			sum.Chunks++

			if len(accepted) > 0 {
				if werr := ct.Clean.WriteClean(ctx, accepted); werr != nil {
					return sum, fmt.Errorf("cleaner: write clean chunk: %w", werr)
				}
			}
			if len(rejected) > 0 && ct.Rejects != nil && ct.Cleaner.policy.SaveRejected {
				if werr := ct.Rejects.WriteRejected(ctx, rejected); werr != nil {
					return sum, fmt.Errorf("cleaner: write rejected rows: %w", werr)
				}
			}

			sum.Accepted += int64(len(accepted))
			for _, row := range accepted {
				if row.AnomalyFlag != "" {
					sum.Anomalies++
				}
			}

			if ct.Progress > 0 && sum.Chunks%ct.Progress == 0 {
				log.Printf("cleaner: chunk %d: %d in, %d clean, %d rejected (ledger=%d)",
					sum.Chunks, len(chunk), len(accepted), len(rejected), ledger.Len())
			}
		}
		if err == io.EOF {
			break
		}
	}

	sum.Rejected = collector.Total()
	sum.RejectedByReason = collector.CountsByReason()
	sum.UniqueOrders = ledger.Len()
	return sum, nil
}

// processChunk applies the per-chunk contract: blank identities first, then
// duplicate checks against both the run ledger and earlier rows of the same
// chunk (first occurrence wins), then the field pipeline. Newly accepted ids
// are merged into the ledger before returning.
func (ct *Controller) processChunk(chunk []records.Raw, ledger *Ledger, collector *Collector) ([]records.Clean, []records.Rejected) {
	accepted := make([]records.Clean, 0, len(chunk))
	var rejected []records.Rejected

	reject := func(raw records.Raw, reason records.Reason) {
		rejected = append(rejected, collector.Reject(raw, reason))
	}

	// Order ids claimed by earlier rows of this chunk, whether or not those
	// rows survive validation: repeats are duplicates of the first
	// occurrence, not of the first accepted occurrence.
	inChunk := make(map[string]struct{})

	for _, raw := range chunk {
		orderID := records.CleanField(raw.OrderID)
		product := records.CleanField(raw.ProductName)
		if orderID == "" || product == "" {
			reject(raw, records.ReasonBlankIdentity)
			continue
		}
		if ledger.Has(orderID) {
			reject(raw, records.ReasonDuplicateOrderID)
			continue
		}
		if _, dup := inChunk[orderID]; dup {
			reject(raw, records.ReasonDuplicateOrderID)
			continue
		}
		inChunk[orderID] = struct{}{}

		clean, reason := ct.Cleaner.Clean(raw)
		if reason != "" {
			reject(raw, reason)
			continue
		}
		accepted = append(accepted, clean)
	}

	for _, row := range accepted {
		ledger.Add(row.OrderID)
	}
	return accepted, rejected
}
