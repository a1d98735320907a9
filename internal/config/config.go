// Package config defines the canonical, serializable configuration model for
// the cleaning application. It is intentionally small and explicit so that
// run configs can be loaded from disk and passed through the program without
// additional glue code.
//
// Config files are JSON by default; files ending in .yaml/.yml decode via
// YAML into the same structure. Field names mirror the on-disk shape.
//
// Example (trimmed):
//
//	{
//	  "job":     "sales_clean",
//	  "source":  { "kind": "file", "file": { "path": "data/raw.csv" } },
//	  "parser":  { "kind": "csv", "options": { "has_header": true } },
//	  "cleaning":{ "lookup_dir": "data/lookups", "chunk_size": 100000 },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "clean.db", "table": "clean_sales" } },
//	  "rejected":{ "kind": "csvfile", "db": { "dsn": "rejected.csv" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pipeline describes one full cleaning run.
type Pipeline struct {
	// Job names the run for metrics labeling and logs.
	Job string `json:"job" yaml:"job"`

	// Source describes where the raw CSV comes from.
	Source Source `json:"source" yaml:"source"`

	// Parser configures how raw bytes are turned into records.
	Parser Parser `json:"parser" yaml:"parser"`

	// Cleaning carries the cleaning policy and lookup artifact location.
	Cleaning Cleaning `json:"cleaning" yaml:"cleaning"`

	// Storage describes where cleaned rows are written.
	Storage Storage `json:"storage" yaml:"storage"`

	// Rejected describes where rejected rows are written. Optional; when the
	// kind is empty, rejected rows are counted but not persisted.
	Rejected Storage `json:"rejected" yaml:"rejected"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind" yaml:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file" yaml:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url" yaml:"url"`
}

// Parser selects how to parse the raw source into rows.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" yaml:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys: has_header (bool), comma (string), trim_space
	// (bool), header_map (object).
	Options Options `json:"options" yaml:"options"`
}

// Cleaning carries the policy knobs of the cleaning engine. Zero values fall
// back to the documented defaults at run time.
type Cleaning struct {
	// LookupDir is the directory holding the canonicalization artifacts.
	LookupDir string `json:"lookup_dir" yaml:"lookup_dir"`

	// ChunkSize bounds how many rows are held in memory at once.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// DropZeroQuantity rejects zero-quantity rows when true (default true;
	// use the pointer to distinguish "absent" from "false").
	DropZeroQuantity *bool `json:"drop_zero_quantity" yaml:"drop_zero_quantity"`

	// SaveRejected persists rejected rows when true (default true).
	SaveRejected *bool `json:"save_rejected" yaml:"save_rejected"`

	// FuzzyDistance is the maximum edit distance for category matching.
	FuzzyDistance int `json:"fuzzy_distance" yaml:"fuzzy_distance"`
}

// Storage selects the sink used to persist rows.
type Storage struct {
	// Kind selects the storage implementation: "postgres", "sqlite",
	// "csvfile".
	Kind string `json:"kind" yaml:"kind"`

	// DB configures the selected sink.
	DB DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures a storage sink. For the csvfile kind, DSN is the output
// file path and Table is unused.
type DBConfig struct {
	// DSN is the connection string (pgx pool DSN, sqlite path, or file path).
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the fully qualified destination table name.
	Table string `json:"table" yaml:"table"`

	// AutoCreateTable creates the destination table when missing.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`
}

// Load reads and decodes a pipeline config from path, choosing the decoder by
// file extension.
func Load(path string) (Pipeline, error) {
	var p Pipeline
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("config: read: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &p); err != nil {
			return p, fmt.Errorf("config: decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &p); err != nil {
			return p, fmt.Errorf("config: decode json: %w", err)
		}
	}
	return p, nil
}

// Options is a small helper to fetch typed values from arbitrary maps without
// introducing a configuration library. It performs only minimal type coercion
// and returns provided defaults when a key is absent or of an unexpected
// type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Useful for single-character settings such as a CSV
// delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map, removing nil checks at call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML configs.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	var tmp map[string]any
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
