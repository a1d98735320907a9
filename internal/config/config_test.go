package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "pipeline.json", `{
	  "job": "sales_clean",
	  "source": { "kind": "file", "file": { "path": "raw.csv" } },
	  "parser": { "kind": "csv", "options": { "has_header": true, "comma": ";" } },
	  "cleaning": { "lookup_dir": "lookups", "chunk_size": 50000, "drop_zero_quantity": false },
	  "storage": { "kind": "sqlite", "db": { "dsn": "clean.db", "table": "clean_sales", "auto_create_table": true } },
	  "rejected": { "kind": "csvfile", "db": { "dsn": "rejected.csv" } }
	}`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "sales_clean" || p.Source.File.Path != "raw.csv" {
		t.Fatalf("decoded pipeline = %+v", p)
	}
	if !p.Parser.Options.Bool("has_header", false) {
		t.Errorf("has_header not decoded")
	}
	if p.Parser.Options.Rune("comma", ',') != ';' {
		t.Errorf("comma option not decoded")
	}
	if p.Cleaning.DropZeroQuantity == nil || *p.Cleaning.DropZeroQuantity {
		t.Errorf("drop_zero_quantity pointer = %v", p.Cleaning.DropZeroQuantity)
	}
	if !p.Storage.DB.AutoCreateTable || p.Rejected.Kind != "csvfile" {
		t.Errorf("storage sections = %+v / %+v", p.Storage, p.Rejected)
	}
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "pipeline.yaml", `
job: sales_clean
source:
  kind: http
  http:
    url: https://example.com/raw.csv
parser:
  kind: csv
cleaning:
  lookup_dir: lookups
storage:
  kind: postgres
  db:
    dsn: postgres://localhost/sales
    table: public.clean_sales
`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Source.Kind != "http" || p.Source.HTTP.URL != "https://example.com/raw.csv" {
		t.Fatalf("source = %+v", p.Source)
	}
	if p.Storage.DB.Table != "public.clean_sales" {
		t.Fatalf("storage = %+v", p.Storage)
	}
	// Missing options must decode to a usable empty map.
	if got := p.Parser.Options.Bool("has_header", true); !got {
		t.Fatalf("options default lookup failed")
	}
}

func TestOptions_Accessors(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":   "hello",
		"b":   true,
		"n":   float64(42), // JSON numbers decode as float64
		"m":   map[string]any{"a": "b", "skip": 7},
		"bad": 13,
	}

	if got := o.String("s", "x"); got != "hello" {
		t.Errorf("String = %q", got)
	}
	if got := o.String("bad", "fallback"); got != "fallback" {
		t.Errorf("String on non-string = %q", got)
	}
	if !o.Bool("b", false) || o.Bool("absent", false) {
		t.Errorf("Bool accessor failed")
	}
	if got := o.Int("n", 0); got != 42 {
		t.Errorf("Int = %d", got)
	}
	if got := o.Rune("s", 'x'); got != 'h' {
		t.Errorf("Rune = %q", got)
	}
	m := o.StringMap("m")
	if len(m) != 1 || m["a"] != "b" {
		t.Errorf("StringMap = %v", m)
	}
}

func TestValidatePipeline(t *testing.T) {
	t.Parallel()

	valid := Pipeline{
		Job:      "sales_clean",
		Source:   Source{Kind: "file", File: SourceFile{Path: "raw.csv"}},
		Parser:   Parser{Kind: "csv"},
		Cleaning: Cleaning{LookupDir: "lookups"},
		Storage:  Storage{Kind: "csvfile", DB: DBConfig{DSN: "out.csv"}},
	}
	if issues := ValidatePipeline(valid); len(issues) != 0 {
		t.Fatalf("valid pipeline produced issues: %v", issues)
	}

	cases := []struct {
		name    string
		mutate  func(*Pipeline)
		path    string
		minimum IssueSeverity
	}{
		{"missing job", func(p *Pipeline) { p.Job = "" }, "job", SeverityError},
		{"missing source kind", func(p *Pipeline) { p.Source.Kind = "" }, "source.kind", SeverityError},
		{"file without path", func(p *Pipeline) { p.Source.File.Path = "" }, "source.file.path", SeverityError},
		{"unknown parser", func(p *Pipeline) { p.Parser.Kind = "xml" }, "parser.kind", SeverityError},
		{"missing lookup dir", func(p *Pipeline) { p.Cleaning.LookupDir = "" }, "cleaning.lookup_dir", SeverityError},
		{"negative chunk size", func(p *Pipeline) { p.Cleaning.ChunkSize = -1 }, "cleaning.chunk_size", SeverityError},
		{"tiny chunk size", func(p *Pipeline) { p.Cleaning.ChunkSize = 10 }, "cleaning.chunk_size", SeverityWarning},
		{"wide fuzzy distance", func(p *Pipeline) { p.Cleaning.FuzzyDistance = 5 }, "cleaning.fuzzy_distance", SeverityWarning},
		{"missing storage kind", func(p *Pipeline) { p.Storage.Kind = "" }, "storage.kind", SeverityError},
		{"db without table", func(p *Pipeline) {
			p.Storage = Storage{Kind: "postgres", DB: DBConfig{DSN: "x"}}
		}, "storage.db.table", SeverityError},
		{"unknown rejected kind", func(p *Pipeline) { p.Rejected.Kind = "kafka" }, "rejected.kind", SeverityError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			issues := ValidatePipeline(p)
			found := false
			for _, iss := range issues {
				if iss.Path == tc.path && iss.Severity == tc.minimum {
					found = true
				}
			}
			if !found {
				t.Fatalf("no %s issue at %s; got %v", tc.minimum, tc.path, issues)
			}
		})
	}
}

// An absent rejected section is fine: rejected rows are then only counted.
func TestValidatePipeline_RejectedOptional(t *testing.T) {
	t.Parallel()

	p := Pipeline{
		Job:      "sales_clean",
		Source:   Source{Kind: "file", File: SourceFile{Path: "raw.csv"}},
		Parser:   Parser{Kind: "csv"},
		Cleaning: Cleaning{LookupDir: "lookups"},
		Storage:  Storage{Kind: "sqlite", DB: DBConfig{DSN: "clean.db", Table: "t"}},
	}
	for _, iss := range ValidatePipeline(p) {
		if iss.Path == "rejected.kind" {
			t.Fatalf("rejected section should be optional: %v", iss)
		}
	}
}
