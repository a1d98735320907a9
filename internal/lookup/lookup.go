// Package lookup loads and validates the canonicalization artifacts the
// cleaning pipeline depends on: the canonical category and region sets, the
// raw→canonical region map, and the product-name→category map.
//
// The artifacts are plain JSON files, generated by the offline builder (see
// builder.go) but deliberately hand-editable. Loading is done once at startup
// into immutable in-memory structures; any contract violation (a region map
// value outside the canonical region set, a product map value outside the
// canonical category set) is a fatal configuration error, never a per-row
// data error.
package lookup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// UnknownLabel is the sentinel value a region map entry uses to mark a raw
// value that could not be resolved to a canonical region. The builder and the
// online pipeline must agree on it, so it is a package constant rather than
// configuration.
const UnknownLabel = "UNKNOWN"

// Artifact file names inside the lookup directory. These form the stable
// serialization contract between the builder, hand edits, and the loader.
const (
	CategoriesFile = "common_categories.json"
	RegionsFile    = "common_regions.json"
	RegionMapFile  = "region_map.json"
	ProductsFile   = "product_categories.json"
	MetaFile       = "lookup_meta.json"
)

// Tables holds the loaded canonicalization tables. All fields are treated as
// immutable after Load returns.
type Tables struct {
	// Categories is the canonical category set, sorted.
	Categories []string
	// Regions is the canonical region set, sorted.
	Regions []string
	// RegionMap maps a lowercased raw region string to a canonical region or
	// to UnknownLabel.
	RegionMap map[string]string
	// ProductCategories maps a lowercased product name to a canonical
	// category.
	ProductCategories map[string]string

	categoryByLower map[string]string
	categoryLower   []string // sorted; fuzzy-match candidate order
	regionSet       map[string]struct{}
}

// Load reads and validates all lookup artifacts from dir.
func Load(dir string) (*Tables, error) {
	t := &Tables{}

	if err := readJSON(filepath.Join(dir, CategoriesFile), &t.Categories); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, RegionsFile), &t.Regions); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, RegionMapFile), &t.RegionMap); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, ProductsFile), &t.ProductCategories); err != nil {
		return nil, err
	}

	if err := t.init(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewTables builds Tables from in-memory values, validating the same
// invariants as Load. Useful for tests and for callers that assemble lookups
// programmatically.
func NewTables(categories, regions []string, regionMap, productCategories map[string]string) (*Tables, error) {
	t := &Tables{
		Categories:        append([]string(nil), categories...),
		Regions:           append([]string(nil), regions...),
		RegionMap:         regionMap,
		ProductCategories: productCategories,
	}
	if err := t.init(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tables) init() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("lookup: canonical category set is empty")
	}
	if len(t.Regions) == 0 {
		return fmt.Errorf("lookup: canonical region set is empty")
	}
	if t.RegionMap == nil {
		t.RegionMap = map[string]string{}
	}
	if t.ProductCategories == nil {
		t.ProductCategories = map[string]string{}
	}

	sort.Strings(t.Categories)
	sort.Strings(t.Regions)

	t.categoryByLower = make(map[string]string, len(t.Categories))
	t.categoryLower = make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		lc := strings.ToLower(c)
		if _, dup := t.categoryByLower[lc]; dup {
			return fmt.Errorf("lookup: canonical categories collide case-insensitively on %q", lc)
		}
		t.categoryByLower[lc] = c
		t.categoryLower = append(t.categoryLower, lc)
	}
	sort.Strings(t.categoryLower)

	t.regionSet = make(map[string]struct{}, len(t.Regions))
	for _, r := range t.Regions {
		t.regionSet[r] = struct{}{}
	}

	// Build-time guarantees, re-checked at load time because artifacts are
	// hand-editable.
	for raw, canonical := range t.RegionMap {
		if raw != strings.ToLower(raw) {
			return fmt.Errorf("lookup: region map key %q is not lowercased", raw)
		}
		if canonical == UnknownLabel {
			continue
		}
		if _, ok := t.regionSet[canonical]; !ok {
			return fmt.Errorf("lookup: region map value %q (key %q) is not a canonical region", canonical, raw)
		}
	}
	for product, category := range t.ProductCategories {
		if product != strings.ToLower(product) {
			return fmt.Errorf("lookup: product map key %q is not lowercased", product)
		}
		if _, ok := t.categoryByLower[strings.ToLower(category)]; !ok {
			return fmt.Errorf("lookup: product map value %q (key %q) is not a canonical category", category, product)
		}
	}
	return nil
}

// CanonicalCategory resolves a lowercased raw category to its canonical
// casing. It only performs the exact (case-insensitive) membership check;
// fuzzy matching belongs to the cleaner.
func (t *Tables) CanonicalCategory(lower string) (string, bool) {
	c, ok := t.categoryByLower[lower]
	return c, ok
}

// CategoryCandidates returns the sorted, lowercased canonical category names
// used as fuzzy-match candidates. Callers must not mutate the slice.
func (t *Tables) CategoryCandidates() []string { return t.categoryLower }

// IsCanonicalRegion reports whether v is a member of the canonical region set.
func (t *Tables) IsCanonicalRegion(v string) bool {
	_, ok := t.regionSet[v]
	return ok
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lookup: read artifact: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("lookup: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
