// Package records defines the row shapes flowing through the cleaning
// pipeline: the loose, string-typed raw row as parsed from CSV, the fully
// normalized clean row, and the rejected row with its machine-readable
// reason. The types are deliberately plain structs so parsers, the cleaner,
// and storage sinks can share them without coupling to each other.
package records

import (
	"strconv"
	"strings"
)

// Reason is a fixed-vocabulary rejection code. A rejected row carries exactly
// one reason: the first validation stage that failed.
type Reason string

const (
	ReasonBlankIdentity      Reason = "blank_identity"
	ReasonDuplicateOrderID   Reason = "duplicate_order_id"
	ReasonUnknownCategory    Reason = "unknown_category"
	ReasonUnknownRegion      Reason = "unknown_region"
	ReasonInvalidQuantity    Reason = "invalid_quantity"
	ReasonInvalidUnitPrice   Reason = "invalid_unit_price"
	ReasonInvalidSaleDate    Reason = "invalid_sale_date"
	ReasonSaleDateOutOfRange Reason = "sale_date_out_of_range"
	ReasonInvalidRevenue     Reason = "invalid_calculated_revenue"
)

// AnomalyHeavyDiscount tags a surviving row whose clamped discount exceeds
// the heavy-discount threshold. Anomaly tags never reject a row.
const AnomalyHeavyDiscount = "heavy_discount"

// RawColumns lists the nine source fields in canonical order. The CSV reader
// maps normalized headers onto these names.
var RawColumns = []string{
	"order_id",
	"product_name",
	"category",
	"quantity",
	"unit_price",
	"discount_percent",
	"region",
	"sale_date",
	"customer_email",
}

// CleanColumns lists the cleaned output columns in persistence order.
var CleanColumns = []string{
	"order_id",
	"product_name",
	"category",
	"quantity",
	"unit_price",
	"discount_percent",
	"region",
	"sale_date",
	"customer_email",
	"revenue",
	"anomaly_flag",
}

// RejectedColumns is RawColumns plus the rejection reason.
var RejectedColumns = append(append([]string{}, RawColumns...), "rejection_reason")

// Raw is one input row, untyped/trimmed strings exactly as parsed. Line is
// the 1-based source line for diagnostics.
type Raw struct {
	Line            int
	OrderID         string
	ProductName     string
	Category        string
	Quantity        string
	UnitPrice       string
	DiscountPercent string
	Region          string
	SaleDate        string
	CustomerEmail   string
}

// Clean is a fully normalized, accepted row. CustomerEmail is empty when the
// source address failed validation (nulled, not rejected); AnomalyFlag is
// empty unless the row was tagged.
type Clean struct {
	OrderID         string
	ProductName     string
	Category        string
	Quantity        int64
	UnitPrice       float64
	DiscountPercent float64
	Region          string
	SaleDate        int64 // epoch seconds, UTC
	CustomerEmail   string
	Revenue         float64
	AnomalyFlag     string
}

// Rejected pairs a raw row with the reason it was excluded.
type Rejected struct {
	Raw    Raw
	Reason Reason
}

// Row returns the clean record as positional values aligned to CleanColumns,
// suitable for Repository.CopyFrom. The email column is nil when the address
// was nulled.
func (c Clean) Row() []any {
	var email any
	if c.CustomerEmail != "" {
		email = c.CustomerEmail
	}
	var anomaly any
	if c.AnomalyFlag != "" {
		anomaly = c.AnomalyFlag
	}
	return []any{
		c.OrderID,
		c.ProductName,
		c.Category,
		c.Quantity,
		c.UnitPrice,
		c.DiscountPercent,
		c.Region,
		c.SaleDate,
		email,
		c.Revenue,
		anomaly,
	}
}

// Row returns the rejected record as positional values aligned to
// RejectedColumns.
func (r Rejected) Row() []any {
	return []any{
		r.Raw.OrderID,
		r.Raw.ProductName,
		r.Raw.Category,
		r.Raw.Quantity,
		r.Raw.UnitPrice,
		r.Raw.DiscountPercent,
		r.Raw.Region,
		r.Raw.SaleDate,
		r.Raw.CustomerEmail,
		string(r.Reason),
	}
}

// Strings returns the rejected record as CSV-ready strings, raw values
// preserved verbatim.
func (r Rejected) Strings() []string {
	return []string{
		r.Raw.OrderID,
		r.Raw.ProductName,
		r.Raw.Category,
		r.Raw.Quantity,
		r.Raw.UnitPrice,
		r.Raw.DiscountPercent,
		r.Raw.Region,
		r.Raw.SaleDate,
		r.Raw.CustomerEmail,
		string(r.Reason),
	}
}

// Strings returns the clean record as CSV-ready strings aligned to
// CleanColumns.
func (c Clean) Strings() []string {
	return []string{
		c.OrderID,
		c.ProductName,
		c.Category,
		strconv.FormatInt(c.Quantity, 10),
		strconv.FormatFloat(c.UnitPrice, 'f', -1, 64),
		strconv.FormatFloat(c.DiscountPercent, 'f', -1, 64),
		c.Region,
		strconv.FormatInt(c.SaleDate, 10),
		c.CustomerEmail,
		strconv.FormatFloat(c.Revenue, 'f', 2, 64),
		c.AnomalyFlag,
	}
}

// nullish holds placeholder tokens that real exports use for "no value".
// Compared case-insensitively on the trimmed field.
var nullish = map[string]struct{}{
	"":        {},
	"null":    {},
	"n/a":     {},
	"na":      {},
	"none":    {},
	"-":       {},
	"missing": {},
}

// CleanField trims s and collapses common null placeholders to the empty
// string. It is the first step of every field normalization.
func CleanField(s string) string {
	s = strings.TrimSpace(s)
	if _, ok := nullish[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}
