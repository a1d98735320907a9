// Package csv provides streaming CSV parsing for large sales exports.
//
// ChunkReader emits bounded-size chunks of raw records without whole-file
// buffering. Header names are normalized (trimmed, lowercased, BOM stripped,
// spaces to underscores) and mapped onto the canonical nine-field layout; rows
// that cannot be parsed or have the wrong width are soft-skipped and counted
// rather than failing the run.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"salesclean/pkg/records"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Options configures the reader. All fields are optional; zero values get
// sensible defaults.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	// Without a header, columns are assumed to be in records.RawColumns order.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// HeaderMap maps source header names to canonical field names, applied
	// after normalization. Only used when HasHeader is true.
	HeaderMap map[string]string

	// OnError, when set, receives soft per-row errors (parse failures, width
	// mismatches). The stream continues after each call.
	OnError func(line int, err error)
}

// ChunkReader reads raw records from a CSV stream in source order.
type ChunkReader struct {
	cr      *csv.Reader
	opt     Options
	idx     map[string]int // canonical field name -> column index
	width   int
	line    int
	skipped int64
	eof     bool
}

// NewChunkReader wraps r and consumes the header row (when configured). It
// returns an error only for structural problems: an unreadable header or a
// header missing the identity columns.
func NewChunkReader(r io.Reader, opt Options) (*ChunkReader, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1 // width enforced after read
	cr.ReuseRecord = true

	rd := &ChunkReader{cr: cr, opt: opt}

	if opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, fmt.Errorf("csv: read header: %w", err)
		}
		rd.line = 1
		rd.idx = map[string]int{}
		for i, col := range normalizeHeaders(h, opt) {
			if _, dup := rd.idx[col]; !dup {
				rd.idx[col] = i
			}
		}
		rd.width = len(h)
		for _, required := range []string{"order_id", "product_name"} {
			if _, ok := rd.idx[required]; !ok {
				return nil, fmt.Errorf("csv: header is missing column %q", required)
			}
		}
	} else {
		rd.idx = map[string]int{}
		for i, col := range records.RawColumns {
			rd.idx[col] = i
		}
		rd.width = len(records.RawColumns)
	}
	return rd, nil
}

// ReadChunk returns up to n raw records. It returns io.EOF (possibly together
// with a final short chunk) when the source is exhausted.
func (c *ChunkReader) ReadChunk(n int) ([]records.Raw, error) {
	if c.eof {
		return nil, io.EOF
	}
	out := make([]records.Raw, 0, n)
	for len(out) < n {
		row, err := c.cr.Read()
		if err == io.EOF {
			c.eof = true
			if len(out) == 0 {
				return nil, io.EOF
			}
			return out, io.EOF
		}
		c.line++
		if err != nil {
			c.skip(fmt.Errorf("parse: %w", err))
			continue
		}
		if len(row) != c.width {
			c.skip(fmt.Errorf("incorrect number of fields: expected %d, got %d", c.width, len(row)))
			continue
		}
		out = append(out, c.record(row))
	}
	return out, nil
}

// Skipped returns the number of rows dropped for parse errors or width
// mismatches so far.
func (c *ChunkReader) Skipped() int64 { return c.skipped }

func (c *ChunkReader) skip(err error) {
	c.skipped++
	if c.opt.OnError != nil {
		c.opt.OnError(c.line, err)
	}
}

func (c *ChunkReader) record(row []string) records.Raw {
	get := func(field string) string {
		i, ok := c.idx[field]
		if !ok || i >= len(row) {
			return ""
		}
		v := row[i]
		if c.opt.TrimSpace {
			v = strings.TrimSpace(v)
		}
		return v
	}
	return records.Raw{
		Line:            c.line,
		OrderID:         get("order_id"),
		ProductName:     get("product_name"),
		Category:        get("category"),
		Quantity:        get("quantity"),
		UnitPrice:       get("unit_price"),
		DiscountPercent: get("discount_percent"),
		Region:          get("region"),
		SaleDate:        get("sale_date"),
		CustomerEmail:   get("customer_email"),
	}
}

// normalizeHeaders produces canonical header keys using HeaderMap (when
// provided) and simple normalization (lowercase, spaces to underscores). It
// also strips a UTF-8 BOM from the first cell if present.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if opt.HeaderMap != nil {
			if m, ok := opt.HeaderMap[c]; ok {
				res[i] = m
				continue
			}
		}
		res[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return res
}
