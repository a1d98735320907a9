// Command buildlookups scans historical sales CSVs and writes the
// canonicalization artifacts consumed by the cleaning binary: canonical
// category and region sets, the region alias map, and the confidence-scored
// product to category map.
//
// Usage:
//
//	buildlookups [flags] file.csv [file.csv ...]
//	buildlookups -list inputs.txt -out data/lookups
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"salesclean/internal/datasource/file"
	"salesclean/internal/lookup"
)

func main() {
	var (
		outDir    string
		listPath  string
		seedPath  string
		threshold float64
		topCats   int
		topRegs   int
		fuzzy     int
		workers   int
	)

	def := lookup.DefaultBuilderConfig()
	flag.StringVar(&outDir, "out", "data/lookups", "output directory for lookup artifacts")
	flag.StringVar(&listPath, "list", "", "optional text file listing input CSV paths, one per line")
	flag.StringVar(&seedPath, "seed-region-map", "", "optional existing region_map.json whose entries take precedence")
	flag.Float64Var(&threshold, "threshold", def.ConfidenceThreshold, "minimum majority share for a product-category mapping")
	flag.IntVar(&topCats, "top-categories", def.CategoryTopN, "number of most frequent categories to canonicalize")
	flag.IntVar(&topRegs, "top-regions", def.RegionTopN, "number of most frequent regions to canonicalize")
	flag.IntVar(&fuzzy, "fuzzy-distance", def.FuzzyDistance, "maximum edit distance for region map guesses")
	flag.IntVar(&workers, "concurrency", def.Concurrency, "number of input files scanned in parallel")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	paths := flag.Args()
	if listPath != "" {
		listed, err := file.ReadList(listPath)
		if err != nil {
			fatalf("read input list: %v", err)
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		fatalf("no input files; pass CSV paths as arguments or via -list")
	}

	b := lookup.NewBuilder(lookup.BuilderConfig{
		CategoryTopN:        topCats,
		RegionTopN:          topRegs,
		ConfidenceThreshold: threshold,
		FuzzyDistance:       fuzzy,
		Concurrency:         workers,
	})

	if seedPath != "" {
		seed, err := readRegionMap(seedPath)
		if err != nil {
			fatalf("read seed region map: %v", err)
		}
		b.SeedRegionMap(seed)
		if *verbose {
			log.Printf("seeded %d region map entries from %s", len(seed), seedPath)
		}
	}

	ctx := context.Background()
	if err := b.ScanFiles(ctx, paths); err != nil {
		fatalf("scan inputs: %v", err)
	}

	art := b.Build()
	if err := art.WriteTo(outDir); err != nil {
		fatalf("write artifacts: %v", err)
	}

	log.Printf("scanned %d rows across %d files", art.Meta.RowsScanned, len(paths))
	log.Printf("wrote %d categories, %d regions, %d region aliases, %d product mappings to %s",
		len(art.Categories), len(art.Regions), len(art.RegionMap), len(art.ProductCategories), outDir)

	if len(art.Unresolved) > 0 {
		log.Printf("%d products below the %.2f confidence threshold:", len(art.Unresolved), threshold)
		for _, p := range art.Unresolved {
			log.Printf("  unresolved: %s", p)
		}
	}
}

// readRegionMap loads an existing region_map.json for seeding.
func readRegionMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
