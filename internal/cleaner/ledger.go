package cleaner

import "salesclean/pkg/records"

// Ledger is the run-scoped set of accepted order identifiers. It grows
// monotonically with accepted rows and is owned exclusively by the
// Controller; memory grows linearly with total accepted rows, an accepted
// tradeoff for correct cross-chunk dedup over unbounded streams.
type Ledger struct {
	seen map[string]struct{}
}

// NewLedger returns an empty ledger for one run.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// Has reports whether id was already accepted in this run.
func (l *Ledger) Has(id string) bool {
	_, ok := l.seen[id]
	return ok
}

// Add records id as accepted.
func (l *Ledger) Add(id string) { l.seen[id] = struct{}{} }

// Len returns the number of accepted identifiers so far.
func (l *Ledger) Len() int { return len(l.seen) }

// Collector accumulates rejection statistics for a run, and optionally the
// rejected rows themselves when no reject sink is attached (tests, small
// runs). When a sink is present the Controller streams rows out per chunk and
// the Collector only keeps counters, so memory stays bounded.
type Collector struct {
	retain   bool
	rows     []records.Rejected
	byReason map[records.Reason]int64
	total    int64
}

// NewCollector returns a Collector; retain controls whether rejected rows are
// kept in memory.
func NewCollector(retain bool) *Collector {
	return &Collector{retain: retain, byReason: make(map[records.Reason]int64)}
}

// Reject records one rejected row.
func (c *Collector) Reject(raw records.Raw, reason records.Reason) records.Rejected {
	rej := records.Rejected{Raw: raw, Reason: reason}
	c.byReason[reason]++
	c.total++
	if c.retain {
		c.rows = append(c.rows, rej)
	}
	return rej
}

// Rows returns the retained rejected rows in rejection order.
func (c *Collector) Rows() []records.Rejected { return c.rows }

// CountsByReason returns a copy of the per-reason counters.
func (c *Collector) CountsByReason() map[records.Reason]int64 {
	out := make(map[records.Reason]int64, len(c.byReason))
	for k, v := range c.byReason {
		out[k] = v
	}
	return out
}

// Total returns the number of rejected rows.
func (c *Collector) Total() int64 { return c.total }
