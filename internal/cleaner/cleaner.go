// Package cleaner implements the streaming cleaning engine for raw sales
// exports: per-field canonicalization and validation, the row-level decision
// engine, the cross-chunk dedup ledger, and the chunk stream controller.
//
// Validation failures are data, not errors: a failing row becomes a rejected
// record carrying the reason of the first stage that failed, and processing
// continues. Errors are reserved for structural problems (unreadable source,
// broken sinks).
package cleaner

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"salesclean/internal/lookup"
	"salesclean/internal/match"
	"salesclean/pkg/records"
)

// Bounds applied by the numeric and revenue stages.
const (
	maxUnitPrice = 50000.0
	maxRevenue   = 1000000.0
)

// Date acceptance window relative to processing time.
const (
	maxYearsBack    = 20
	maxYearsForward = 1
)

// dateLayouts are tried in order; the first successful parse wins. The order
// is fixed to keep day/month disambiguation deterministic.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
}

// emailPattern is deliberately conservative: local part, '@', domain with at
// least one dot, no whitespace.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Policy carries the tunable cleaning knobs. Zero value is not useful; use
// DefaultPolicy as the starting point.
type Policy struct {
	// DropZeroQuantity rejects rows whose quantity parses to exactly zero.
	// Negative or unparsable quantities are always rejected.
	DropZeroQuantity bool

	// SaveRejected controls whether rejected rows are handed to the reject
	// sink. Rejection counters are maintained either way.
	SaveRejected bool

	// FuzzyDistance is the maximum edit distance for category fuzzy matching.
	FuzzyDistance int

	// HeavyDiscount is the clamped-discount level above which a row is tagged
	// (not rejected) with the heavy_discount anomaly flag.
	HeavyDiscount float64
}

// DefaultPolicy returns the standard production policy.
func DefaultPolicy() Policy {
	return Policy{
		DropZeroQuantity: true,
		SaveRejected:     true,
		FuzzyDistance:    2,
		HeavyDiscount:    0.8,
	}
}

// Cleaner applies the layered field pipeline to one row at a time. It is
// stateless across rows; dedup state lives in the Ledger owned by the
// Controller.
type Cleaner struct {
	tables *lookup.Tables
	policy Policy

	// now is the processing-time reference for the date window; overridable
	// in tests.
	now func() time.Time
}

// New returns a Cleaner bound to the given lookup tables and policy.
func New(tables *lookup.Tables, policy Policy) *Cleaner {
	return &Cleaner{tables: tables, policy: policy, now: time.Now}
}

// Clean runs the fixed stage order on one raw row:
// category → product-category correction → region → quantity → unit price →
// discount → sale date → email (non-fatal) → revenue recomputation.
//
// The identity and duplicate checks run earlier, in the Controller. The first
// failing stage determines the reason and later stages are not evaluated.
func (c *Cleaner) Clean(raw records.Raw) (records.Clean, records.Reason) {
	out := records.Clean{
		OrderID:     records.CleanField(raw.OrderID),
		ProductName: records.CleanField(raw.ProductName),
	}

	category, catReason := c.normalizeCategory(raw.Category)

	// Product-category correction: a confidently known product overrides the
	// category outcome, including a pending unknown_category rejection. It
	// never rejects on its own.
	if mapped, ok := c.productCategory(out.ProductName); ok {
		category, catReason = mapped, ""
	}
	if catReason != "" {
		return out, catReason
	}
	out.Category = category

	region, reason := c.normalizeRegion(raw.Region)
	if reason != "" {
		return out, reason
	}
	out.Region = region

	qty, reason := c.normalizeQuantity(raw.Quantity)
	if reason != "" {
		return out, reason
	}
	out.Quantity = qty

	price, reason := normalizeUnitPrice(raw.UnitPrice)
	if reason != "" {
		return out, reason
	}
	out.UnitPrice = price

	discount, heavy := c.normalizeDiscount(raw.DiscountPercent)
	out.DiscountPercent = discount
	if heavy {
		out.AnomalyFlag = records.AnomalyHeavyDiscount
	}

	saleDate, reason := c.normalizeDate(raw.SaleDate)
	if reason != "" {
		return out, reason
	}
	out.SaleDate = saleDate

	// Non-fatal: a malformed address is nulled, the row survives.
	out.CustomerEmail = normalizeEmail(raw.CustomerEmail)

	// Revenue is always recomputed from the cleaned figures; the input's own
	// revenue column, if any, is never trusted.
	revenue := round2(price * float64(qty) * (1 - discount))
	if revenue < 0 || revenue > maxRevenue {
		return out, records.ReasonInvalidRevenue
	}
	out.Revenue = revenue

	return out, ""
}

// normalizeCategory resolves a raw category against the canonical set:
// exact case-insensitive membership first, then nearest canonical entry
// within the configured edit distance. Ties at equal distance resolve to the
// lexicographically first candidate.
func (c *Cleaner) normalizeCategory(raw string) (string, records.Reason) {
	lower := strings.ToLower(records.CleanField(raw))
	if lower == "" {
		return "", records.ReasonUnknownCategory
	}
	if canonical, ok := c.tables.CanonicalCategory(lower); ok {
		return canonical, ""
	}
	if near, ok := match.ClosestWithin(lower, c.tables.CategoryCandidates(), c.policy.FuzzyDistance); ok {
		canonical, _ := c.tables.CanonicalCategory(near)
		return canonical, ""
	}
	return "", records.ReasonUnknownCategory
}

// productCategory looks up the lowercased product name in the product map.
func (c *Cleaner) productCategory(product string) (string, bool) {
	key := strings.ToLower(records.CleanField(product))
	if key == "" {
		return "", false
	}
	mapped, ok := c.tables.ProductCategories[key]
	if !ok {
		return "", false
	}
	// Map values are canonical by build-time guarantee; normalize casing in
	// case of hand edits.
	if canonical, ok := c.tables.CanonicalCategory(strings.ToLower(mapped)); ok {
		return canonical, true
	}
	return "", false
}

// normalizeRegion performs the exact case-insensitive map lookup. Absent keys
// and the UNKNOWN sentinel both fail the row.
func (c *Cleaner) normalizeRegion(raw string) (string, records.Reason) {
	lower := strings.ToLower(records.CleanField(raw))
	if lower == "" {
		return "", records.ReasonUnknownRegion
	}
	canonical, ok := c.tables.RegionMap[lower]
	if !ok || canonical == lookup.UnknownLabel {
		return "", records.ReasonUnknownRegion
	}
	return canonical, ""
}

// normalizeQuantity parses an integer quantity. Unparsable or negative values
// always reject; zero rejects only under the drop-zero policy.
func (c *Cleaner) normalizeQuantity(raw string) (int64, records.Reason) {
	s := records.CleanField(raw)
	if s == "" {
		return 0, records.ReasonInvalidQuantity
	}
	q, ok := parseIntLoose(s)
	if !ok || q < 0 {
		return 0, records.ReasonInvalidQuantity
	}
	if q == 0 && c.policy.DropZeroQuantity {
		return 0, records.ReasonInvalidQuantity
	}
	return q, ""
}

func normalizeUnitPrice(raw string) (float64, records.Reason) {
	s := records.CleanField(raw)
	if s == "" {
		return 0, records.ReasonInvalidUnitPrice
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, records.ReasonInvalidUnitPrice
	}
	if p < 0 || p > maxUnitPrice {
		return 0, records.ReasonInvalidUnitPrice
	}
	return p, ""
}

// normalizeDiscount coerces the discount to a float (unparsable values become
// 0) and clamps it into [0, 1]. Out-of-range values are clamped, never
// rejected. The returned flag reports a heavy discount.
func (c *Cleaner) normalizeDiscount(raw string) (float64, bool) {
	s := records.CleanField(raw)
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(d) {
		d = 0
	}
	if d < 0 {
		d = 0
	}
	if d > 1 {
		d = 1
	}
	return d, d > c.policy.HeavyDiscount
}

// normalizeDate parses the four accepted layouts in priority order and bounds
// the result to the recency window. Accepted dates become epoch seconds UTC.
func (c *Cleaner) normalizeDate(raw string) (int64, records.Reason) {
	s := records.CleanField(raw)
	if s == "" {
		return 0, records.ReasonInvalidSaleDate
	}
	var t time.Time
	parsed := false
	for _, layout := range dateLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t, parsed = v, true
			break
		}
	}
	if !parsed {
		return 0, records.ReasonInvalidSaleDate
	}
	now := c.now().UTC()
	if t.Before(now.AddDate(-maxYearsBack, 0, 0)) || t.After(now.AddDate(maxYearsForward, 0, 0)) {
		return 0, records.ReasonSaleDateOutOfRange
	}
	return t.UTC().Unix(), ""
}

func normalizeEmail(raw string) string {
	s := strings.ToLower(records.CleanField(raw))
	if s == "" || !emailPattern.MatchString(s) {
		return ""
	}
	return s
}

// parseIntLoose parses integers quickly and falls back to float parsing only
// when the field contains a '.' (supporting inputs like "3.0").
func parseIntLoose(s string) (int64, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if strings.IndexByte(s, '.') >= 0 {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
