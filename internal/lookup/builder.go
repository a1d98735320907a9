package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"salesclean/internal/match"
	csvparser "salesclean/internal/parser/csv"
	"salesclean/pkg/records"
)

// BuilderConfig carries the offline builder's policy knobs.
type BuilderConfig struct {
	// CategoryTopN caps the canonical category set at the N most frequent
	// distinct raw values.
	CategoryTopN int

	// RegionTopN caps the canonical region set the same way.
	RegionTopN int

	// ConfidenceThreshold is the minimum (exclusive) majority share a product
	// needs before a product→category mapping is emitted.
	ConfidenceThreshold float64

	// FuzzyDistance is the maximum edit distance used when guessing a region
	// map entry from the canonical region list.
	FuzzyDistance int

	// Concurrency bounds the number of input files scanned in parallel.
	Concurrency int
}

// DefaultBuilderConfig returns the standard builder policy.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		CategoryTopN:        20,
		RegionTopN:          20,
		ConfidenceThreshold: 0.70,
		FuzzyDistance:       2,
		Concurrency:         4,
	}
}

// Artifacts is the complete output of one builder run.
type Artifacts struct {
	Categories        []string
	Regions           []string
	RegionMap         map[string]string
	ProductCategories map[string]string

	// Unresolved lists products whose majority category fell below the
	// confidence threshold (or outside the canonical set), sorted.
	Unresolved []string

	Meta Meta
}

// Meta is the builder's sidecar metadata. It carries no timestamps so that
// re-running on identical inputs yields byte-identical artifacts.
type Meta struct {
	RowsScanned         int64             `json:"rows_scanned"`
	CategoryTopN        int               `json:"category_top_n"`
	RegionTopN          int               `json:"region_top_n"`
	ConfidenceThreshold float64           `json:"confidence_threshold"`
	UnresolvedProducts  int               `json:"unresolved_products"`
	Fingerprints        map[string]string `json:"fingerprints"`
}

// counts is the per-scan accumulation; merging is commutative so concurrent
// per-file scans stay deterministic.
type counts struct {
	rows       int64
	categories map[string]int64
	regions    map[string]int64
	products   map[string]map[string]int64 // lower(product) -> raw category -> n
}

func newCounts() *counts {
	return &counts{
		categories: make(map[string]int64),
		regions:    make(map[string]int64),
		products:   make(map[string]map[string]int64),
	}
}

func (c *counts) observe(raw records.Raw) {
	c.rows++
	if v := records.CleanField(raw.Category); v != "" {
		c.categories[v]++
	}
	if v := records.CleanField(raw.Region); v != "" {
		c.regions[v]++
	}
	product := strings.ToLower(records.CleanField(raw.ProductName))
	category := records.CleanField(raw.Category)
	if product != "" && category != "" {
		m := c.products[product]
		if m == nil {
			m = make(map[string]int64)
			c.products[product] = m
		}
		m[category]++
	}
}

func (c *counts) merge(o *counts) {
	c.rows += o.rows
	for k, v := range o.categories {
		c.categories[k] += v
	}
	for k, v := range o.regions {
		c.regions[k] += v
	}
	for p, m := range o.products {
		dst := c.products[p]
		if dst == nil {
			dst = make(map[string]int64)
			c.products[p] = dst
		}
		for k, v := range m {
			dst[k] += v
		}
	}
}

// Builder derives the canonicalization artifacts from historical CSVs by
// frequency counting and majority voting. It is independent of the online
// pipeline and must be idempotent: identical inputs and config produce
// byte-identical artifacts.
type Builder struct {
	cfg BuilderConfig

	mu    sync.Mutex
	total *counts

	// existing region mappings are preserved verbatim (hand edits win over
	// fresh guesses).
	existingRegionMap map[string]string
}

// NewBuilder returns a Builder with the given config; zero fields fall back
// to DefaultBuilderConfig values.
func NewBuilder(cfg BuilderConfig) *Builder {
	def := DefaultBuilderConfig()
	if cfg.CategoryTopN <= 0 {
		cfg.CategoryTopN = def.CategoryTopN
	}
	if cfg.RegionTopN <= 0 {
		cfg.RegionTopN = def.RegionTopN
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.FuzzyDistance <= 0 {
		cfg.FuzzyDistance = def.FuzzyDistance
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Builder{cfg: cfg, total: newCounts()}
}

// SeedRegionMap installs an existing raw→canonical region mapping whose
// entries take precedence over guessed ones. Keys are normalized to the
// trimmed lowercase form the artifact contract requires; hand-edited seeds
// often carry original casing.
func (b *Builder) SeedRegionMap(m map[string]string) {
	seed := make(map[string]string, len(m))
	for k, v := range m {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		seed[key] = v
	}
	b.existingRegionMap = seed
}

// ScanFiles reads every input CSV and accumulates value frequencies. Files
// are scanned concurrently (bounded by Concurrency); counts merge
// commutatively so the result does not depend on completion order.
func (b *Builder) ScanFiles(ctx context.Context, paths []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			fc, err := scanCSV(path)
			if err != nil {
				return err
			}
			b.mu.Lock()
			b.total.merge(fc)
			b.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func scanCSV(path string) (*counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("builder: open %s: %w", path, err)
	}
	defer f.Close()

	rd, err := csvparser.NewChunkReader(f, csvparser.Options{HasHeader: true, TrimSpace: true})
	if err != nil {
		return nil, fmt.Errorf("builder: %s: %w", path, err)
	}

	fc := newCounts()
	for {
		chunk, err := rd.ReadChunk(4096)
		for _, raw := range chunk {
			fc.observe(raw)
		}
		if err == io.EOF {
			return fc, nil
		}
		if err != nil {
			return nil, fmt.Errorf("builder: scan %s: %w", path, err)
		}
	}
}

// Build derives all artifacts from the accumulated counts.
func (b *Builder) Build() Artifacts {
	categories := topN(b.total.categories, b.cfg.CategoryTopN)
	regions := topN(b.total.regions, b.cfg.RegionTopN)
	regionMap := b.buildRegionMap(regions)
	productMap, unresolved := b.buildProductMap(categories)

	return Artifacts{
		Categories:        categories,
		Regions:           regions,
		RegionMap:         regionMap,
		ProductCategories: productMap,
		Unresolved:        unresolved,
		Meta: Meta{
			RowsScanned:         b.total.rows,
			CategoryTopN:        b.cfg.CategoryTopN,
			RegionTopN:          b.cfg.RegionTopN,
			ConfidenceThreshold: b.cfg.ConfidenceThreshold,
			UnresolvedProducts:  len(unresolved),
		},
	}
}

var titleCaser = cases.Title(language.English)

// topN returns the canonical form (title-cased) of the N most frequent
// values. Case variants collapse before counting so they pool their votes
// instead of competing for slots. Ordering is by count descending with a
// lexicographic tie-break, so the result is stable across runs.
func topN(freq map[string]int64, n int) []string {
	canonical := make(map[string]int64, len(freq))
	for v, c := range freq {
		canonical[titleCaser.String(strings.ToLower(v))] += c
	}

	type kv struct {
		val string
		n   int64
	}
	all := make([]kv, 0, len(canonical))
	for v, c := range canonical {
		all = append(all, kv{v, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].n != all[j].n {
			return all[i].n > all[j].n
		}
		return all[i].val < all[j].val
	})
	if len(all) > n {
		all = all[:n]
	}

	out := make([]string, 0, len(all))
	for _, e := range all {
		out = append(out, e.val)
	}
	sort.Strings(out)
	return out
}

// buildRegionMap maps every distinct lowercased raw region to a canonical
// region, guessing by exact casefold match first and Levenshtein distance
// second; values that resolve to nothing get the UNKNOWN sentinel. Canonical
// names always map to themselves and existing (seeded) entries win.
func (b *Builder) buildRegionMap(canonicals []string) map[string]string {
	byLower := make(map[string]string, len(canonicals))
	lowers := make([]string, 0, len(canonicals))
	for _, c := range canonicals {
		lc := strings.ToLower(c)
		byLower[lc] = c
		lowers = append(lowers, lc)
	}
	sort.Strings(lowers)

	mapping := make(map[string]string)
	for raw := range b.total.regions {
		key := strings.ToLower(raw)
		if key == "" {
			continue
		}
		if seeded, ok := b.existingRegionMap[key]; ok {
			if canonical, valid := resolveSeed(seeded, byLower); valid {
				mapping[key] = canonical
				continue
			}
			log.Printf("lookup: seed entry %q -> %q is not canonical this run, re-guessing", key, seeded)
		}
		mapping[key] = guessRegion(key, lowers, byLower, b.cfg.FuzzyDistance)
	}
	for lc, canonical := range byLower {
		if _, ok := mapping[lc]; !ok {
			mapping[lc] = canonical
		}
	}
	// Seeded entries for values never observed in this scan survive too, as
	// long as their target is still canonical.
	for key, seeded := range b.existingRegionMap {
		if _, ok := mapping[key]; ok {
			continue
		}
		if canonical, valid := resolveSeed(seeded, byLower); valid {
			mapping[key] = canonical
		} else {
			log.Printf("lookup: dropping stale seed entry %q -> %q", key, seeded)
		}
	}
	return mapping
}

// resolveSeed checks a seeded target against this run's canonical region set
// and returns its canonical spelling. The UNKNOWN sentinel is always valid.
func resolveSeed(value string, byLower map[string]string) (string, bool) {
	if value == UnknownLabel {
		return UnknownLabel, true
	}
	canonical, ok := byLower[strings.ToLower(value)]
	return canonical, ok
}

func guessRegion(key string, lowers []string, byLower map[string]string, maxDist int) string {
	if canonical, ok := byLower[key]; ok {
		return canonical
	}
	if near, ok := match.ClosestWithin(key, lowers, maxDist); ok {
		return byLower[near]
	}
	return UnknownLabel
}

// buildProductMap votes each product's categories, emits a mapping only when
// the majority share strictly exceeds the confidence threshold and the
// majority category is canonical, and reports everything else as unresolved.
func (b *Builder) buildProductMap(categories []string) (map[string]string, []string) {
	catByLower := make(map[string]string, len(categories))
	for _, c := range categories {
		catByLower[strings.ToLower(c)] = c
	}

	mapping := make(map[string]string)
	var unresolved []string
	for product, votes := range b.total.products {
		var total, max int64
		majority := ""
		for category, n := range votes {
			total += n
			// Lexicographic tie-break keeps the vote deterministic.
			if n > max || (n == max && category < majority) {
				max, majority = n, category
			}
		}
		if total == 0 {
			continue
		}
		confidence := float64(max) / float64(total)
		canonical, isCanonical := catByLower[strings.ToLower(majority)]
		if confidence > b.cfg.ConfidenceThreshold && isCanonical {
			mapping[product] = canonical
		} else {
			unresolved = append(unresolved, product)
		}
	}
	sort.Strings(unresolved)
	return mapping, unresolved
}

// WriteTo persists all artifacts into dir with the stable serialization
// contract (sorted keys, two-space indent, trailing newline) and records an
// xxh3 fingerprint per artifact in the metadata file.
func (a *Artifacts) WriteTo(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("builder: create output dir: %w", err)
	}

	a.Meta.Fingerprints = make(map[string]string, 4)
	write := func(name string, v any) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("builder: encode %s: %w", name, err)
		}
		data = append(data, '\n')
		a.Meta.Fingerprints[name] = fmt.Sprintf("%016x", xxh3.Hash(data))
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("builder: write %s: %w", name, err)
		}
		return nil
	}

	if err := write(CategoriesFile, a.Categories); err != nil {
		return err
	}
	if err := write(RegionsFile, a.Regions); err != nil {
		return err
	}
	if err := write(RegionMapFile, a.RegionMap); err != nil {
		return err
	}
	if err := write(ProductsFile, a.ProductCategories); err != nil {
		return err
	}

	meta, err := json.MarshalIndent(a.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("builder: encode metadata: %w", err)
	}
	meta = append(meta, '\n')
	if err := os.WriteFile(filepath.Join(dir, MetaFile), meta, 0o644); err != nil {
		return fmt.Errorf("builder: write metadata: %w", err)
	}
	return nil
}
