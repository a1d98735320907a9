package cleaner

import (
	"testing"
	"time"

	"salesclean/internal/lookup"
	"salesclean/pkg/records"
)

// fixedNow pins the date window so boundary tests are deterministic.
var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testTables(t *testing.T) *lookup.Tables {
	t.Helper()
	tables, err := lookup.NewTables(
		[]string{"Clothing", "Electronics", "Home & Garden", "Sports"},
		[]string{"Asia", "Europe", "North America"},
		map[string]string{
			"asia":          "Asia",
			"aisa":          "Asia",
			"europe":        "Europe",
			"north america": "North America",
			"latam":         lookup.UnknownLabel,
		},
		map[string]string{
			"iphone 12": "Electronics",
		},
	)
	if err != nil {
		t.Fatalf("NewTables: %v", err)
	}
	return tables
}

func testCleaner(t *testing.T) *Cleaner {
	t.Helper()
	c := New(testTables(t), DefaultPolicy())
	c.now = func() time.Time { return fixedNow }
	return c
}

func validRaw() records.Raw {
	return records.Raw{
		OrderID:         "ORD-1",
		ProductName:     "Widget",
		Category:        "Electronics",
		Quantity:        "2",
		UnitPrice:       "19.99",
		DiscountPercent: "0.1",
		Region:          "Asia",
		SaleDate:        "2024-05-01",
		CustomerEmail:   "Buyer@Example.COM",
	}
}

func TestClean_AcceptsValidRow(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)
	out, reason := c.Clean(validRaw())
	if reason != "" {
		t.Fatalf("reason = %q, want accepted", reason)
	}
	if out.Category != "Electronics" || out.Region != "Asia" {
		t.Errorf("canonicalization: category=%q region=%q", out.Category, out.Region)
	}
	if out.Quantity != 2 || out.UnitPrice != 19.99 || out.DiscountPercent != 0.1 {
		t.Errorf("numerics: qty=%d price=%v discount=%v", out.Quantity, out.UnitPrice, out.DiscountPercent)
	}
	if out.CustomerEmail != "buyer@example.com" {
		t.Errorf("email = %q, want lowercased", out.CustomerEmail)
	}
	wantDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).Unix()
	if out.SaleDate != wantDate {
		t.Errorf("sale_date = %d, want %d", out.SaleDate, wantDate)
	}
	// 19.99 * 2 * 0.9 = 35.982 → 35.98
	if out.Revenue != 35.98 {
		t.Errorf("revenue = %v, want 35.98", out.Revenue)
	}
	if out.AnomalyFlag != "" {
		t.Errorf("anomaly flag = %q, want empty", out.AnomalyFlag)
	}
}

func TestClean_CategoryFuzzyMatch(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	cases := []struct {
		name     string
		category string
		want     string
		reason   records.Reason
	}{
		{"exact different case", "electronics", "Electronics", ""},
		{"one edit", "Electroncs", "Electronics", ""},
		{"two edits", "Eletroncs", "Electronics", ""},
		{"three edits rejected", "Eletrncs", "", records.ReasonUnknownCategory},
		{"unrelated rejected", "Furniture", "", records.ReasonUnknownCategory},
		{"nullish rejected", "n/a", "", records.ReasonUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			raw.Category = tc.category
			out, reason := c.Clean(raw)
			if reason != tc.reason {
				t.Fatalf("reason = %q, want %q", reason, tc.reason)
			}
			if reason == "" && out.Category != tc.want {
				t.Fatalf("category = %q, want %q", out.Category, tc.want)
			}
		})
	}
}

// A confidently mapped product overrides the category outcome, including a
// pending unknown_category rejection.
func TestClean_ProductCategoryOverride(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	raw := validRaw()
	raw.ProductName = "iPhone 12"
	raw.Category = "Sports"
	out, reason := c.Clean(raw)
	if reason != "" || out.Category != "Electronics" {
		t.Fatalf("override of valid category: (%q, %q), want (Electronics, accepted)", out.Category, reason)
	}

	raw = validRaw()
	raw.ProductName = "iPhone 12"
	raw.Category = "garbage value"
	out, reason = c.Clean(raw)
	if reason != "" || out.Category != "Electronics" {
		t.Fatalf("override of rejected category: (%q, %q), want (Electronics, accepted)", out.Category, reason)
	}
}

func TestClean_Region(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	cases := []struct {
		name   string
		region string
		want   string
		reason records.Reason
	}{
		{"canonical", "Asia", "Asia", ""},
		{"alias from map", "AISA", "Asia", ""},
		{"unmapped", "Atlantis", "", records.ReasonUnknownRegion},
		{"mapped to unknown", "latam", "", records.ReasonUnknownRegion},
		{"blank", "  ", "", records.ReasonUnknownRegion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			raw.Region = tc.region
			out, reason := c.Clean(raw)
			if reason != tc.reason {
				t.Fatalf("reason = %q, want %q", reason, tc.reason)
			}
			if reason == "" && out.Region != tc.want {
				t.Fatalf("region = %q, want %q", out.Region, tc.want)
			}
		})
	}
}

func TestClean_Quantity(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	cases := []struct {
		qty    string
		want   int64
		reason records.Reason
	}{
		{"3", 3, ""},
		{"3.0", 3, ""},
		{"0", 0, records.ReasonInvalidQuantity},
		{"-1", 0, records.ReasonInvalidQuantity},
		{"2.5", 0, records.ReasonInvalidQuantity},
		{"abc", 0, records.ReasonInvalidQuantity},
		{"", 0, records.ReasonInvalidQuantity},
	}
	for _, tc := range cases {
		raw := validRaw()
		raw.Quantity = tc.qty
		out, reason := c.Clean(raw)
		if reason != tc.reason {
			t.Errorf("quantity %q: reason = %q, want %q", tc.qty, reason, tc.reason)
			continue
		}
		if reason == "" && out.Quantity != tc.want {
			t.Errorf("quantity %q: got %d, want %d", tc.qty, out.Quantity, tc.want)
		}
	}
}

func TestClean_ZeroQuantityPolicy(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	policy.DropZeroQuantity = false
	c := New(testTables(t), policy)
	c.now = func() time.Time { return fixedNow }

	raw := validRaw()
	raw.Quantity = "0"
	out, reason := c.Clean(raw)
	if reason != "" || out.Quantity != 0 {
		t.Fatalf("zero quantity with lenient policy: (%d, %q), want (0, accepted)", out.Quantity, reason)
	}
}

func TestClean_UnitPrice(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	cases := []struct {
		price  string
		reason records.Reason
	}{
		{"0", ""},
		{"49999.99", ""},
		{"50000", ""},
		{"50000.01", records.ReasonInvalidUnitPrice},
		{"-0.01", records.ReasonInvalidUnitPrice},
		{"NaN", records.ReasonInvalidUnitPrice},
		{"free", records.ReasonInvalidUnitPrice},
		{"", records.ReasonInvalidUnitPrice},
	}
	for _, tc := range cases {
		raw := validRaw()
		raw.UnitPrice = tc.price
		if _, reason := c.Clean(raw); reason != tc.reason {
			t.Errorf("unit_price %q: reason = %q, want %q", tc.price, reason, tc.reason)
		}
	}
}

func TestClean_DiscountClampAndAnomaly(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	cases := []struct {
		discount string
		want     float64
		anomaly  bool
	}{
		{"0.5", 0.5, false},
		{"0.8", 0.8, false}, // boundary: not strictly above
		{"0.85", 0.85, true},
		{"1.7", 1, true}, // clamped high
		{"-0.3", 0, false},
		{"garbage", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		raw := validRaw()
		raw.DiscountPercent = tc.discount
		out, reason := c.Clean(raw)
		if reason != "" {
			t.Errorf("discount %q: unexpected rejection %q", tc.discount, reason)
			continue
		}
		if out.DiscountPercent != tc.want {
			t.Errorf("discount %q: got %v, want %v", tc.discount, out.DiscountPercent, tc.want)
		}
		gotAnomaly := out.AnomalyFlag == records.AnomalyHeavyDiscount
		if gotAnomaly != tc.anomaly {
			t.Errorf("discount %q: anomaly = %v, want %v", tc.discount, gotAnomaly, tc.anomaly)
		}
	}
}

func TestClean_DateFormats(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	cases := []struct {
		date   string
		want   time.Time
		reason records.Reason
	}{
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ""},
		{"05/01/2024", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ""}, // MM/DD/YYYY
		{"01-05-2024", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ""}, // DD-MM-YYYY
		{"2024/05/01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ""},
		{"May 1, 2024", time.Time{}, records.ReasonInvalidSaleDate},
		{"2024-13-01", time.Time{}, records.ReasonInvalidSaleDate},
		{"", time.Time{}, records.ReasonInvalidSaleDate},
	}
	for _, tc := range cases {
		raw := validRaw()
		raw.SaleDate = tc.date
		out, reason := c.Clean(raw)
		if reason != tc.reason {
			t.Errorf("date %q: reason = %q, want %q", tc.date, reason, tc.reason)
			continue
		}
		if reason == "" && out.SaleDate != tc.want.Unix() {
			t.Errorf("date %q: got %d, want %d", tc.date, out.SaleDate, tc.want.Unix())
		}
	}
}

func TestClean_DateWindow(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	cases := []struct {
		name   string
		date   string
		reason records.Reason
	}{
		{"inside window", "2010-01-01", ""},
		{"just inside past bound", "2005-06-16", ""},
		{"past bound exceeded", "2005-06-14", records.ReasonSaleDateOutOfRange},
		{"near future ok", "2026-06-14", ""},
		{"future bound exceeded", "2026-06-16", records.ReasonSaleDateOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			raw.SaleDate = tc.date
			if _, reason := c.Clean(raw); reason != tc.reason {
				t.Fatalf("date %q: reason = %q, want %q", tc.date, reason, tc.reason)
			}
		})
	}
}

// A malformed address is nulled, never fatal.
func TestClean_EmailNulledNotRejected(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	cases := []struct {
		email string
		want  string
	}{
		{"Buyer@Example.COM", "buyer@example.com"},
		{"not-an-email", ""},
		{"two@@example.com", ""},
		{"a b@example.com", ""},
		{"missing@dot", ""},
		{"", ""},
		{"n/a", ""},
	}
	for _, tc := range cases {
		raw := validRaw()
		raw.CustomerEmail = tc.email
		out, reason := c.Clean(raw)
		if reason != "" {
			t.Errorf("email %q: unexpected rejection %q", tc.email, reason)
			continue
		}
		if out.CustomerEmail != tc.want {
			t.Errorf("email %q: got %q, want %q", tc.email, out.CustomerEmail, tc.want)
		}
	}
}

func TestClean_RevenueBound(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	// 40000 * 30 = 1,200,000 > 1,000,000 cap.
	raw := validRaw()
	raw.UnitPrice = "40000"
	raw.Quantity = "30"
	raw.DiscountPercent = "0"
	if _, reason := c.Clean(raw); reason != records.ReasonInvalidRevenue {
		t.Fatalf("reason = %q, want %q", reason, records.ReasonInvalidRevenue)
	}

	// The same figures with a discount land back inside the cap.
	raw.DiscountPercent = "0.5"
	out, reason := c.Clean(raw)
	if reason != "" {
		t.Fatalf("discounted revenue rejected: %q", reason)
	}
	if out.Revenue != 600000 {
		t.Fatalf("revenue = %v, want 600000", out.Revenue)
	}
}

func TestClean_RevenueRounding(t *testing.T) {
	t.Parallel()

	c := testCleaner(t)

	raw := validRaw()
	raw.UnitPrice = "3.33"
	raw.Quantity = "3"
	raw.DiscountPercent = "0.1"
	out, reason := c.Clean(raw)
	if reason != "" {
		t.Fatalf("unexpected rejection: %q", reason)
	}
	// 3.33 * 3 * 0.9 = 8.991 → 8.99
	if out.Revenue != 8.99 {
		t.Fatalf("revenue = %v, want 8.99", out.Revenue)
	}
}
