// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "cleaning.chunk_size"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline. It
// does not mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateCleaning(p.Cleaning)...)
	issues = append(issues, validateStorage("storage", p.Storage, true)...)
	issues = append(issues, validateStorage("rejected", p.Rejected, false)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.file.path", "file source requires a path"})
		}
	case "http":
		if strings.TrimSpace(s.HTTP.URL) == "" {
			issues = append(issues, Issue{SeverityError, "source.http.url", "http source requires a url"})
		}
	case "":
		issues = append(issues, Issue{SeverityError, "source.kind", "source kind is required (file or http)"})
	default:
		issues = append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unknown source kind %q", s.Kind)})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	switch p.Kind {
	case "csv":
		// ok
	case "":
		issues = append(issues, Issue{SeverityWarning, "parser.kind", "parser kind not set; defaulting to csv"})
	default:
		issues = append(issues, Issue{SeverityError, "parser.kind", fmt.Sprintf("unknown parser kind %q", p.Kind)})
	}
	return issues
}

func validateCleaning(c Cleaning) []Issue {
	var issues []Issue
	if strings.TrimSpace(c.LookupDir) == "" {
		issues = append(issues, Issue{SeverityError, "cleaning.lookup_dir", "lookup_dir is required; the run cannot start without canonicalization artifacts"})
	}
	if c.ChunkSize < 0 {
		issues = append(issues, Issue{SeverityError, "cleaning.chunk_size", "chunk_size must not be negative"})
	}
	if c.ChunkSize > 0 && c.ChunkSize < 1000 {
		issues = append(issues, Issue{SeverityWarning, "cleaning.chunk_size", "very small chunk_size; throughput will suffer"})
	}
	if c.FuzzyDistance < 0 {
		issues = append(issues, Issue{SeverityError, "cleaning.fuzzy_distance", "fuzzy_distance must not be negative"})
	}
	if c.FuzzyDistance > 3 {
		issues = append(issues, Issue{SeverityWarning, "cleaning.fuzzy_distance", "fuzzy_distance above 3 makes unrelated categories collide"})
	}
	return issues
}

func validateStorage(path string, s Storage, required bool) []Issue {
	var issues []Issue
	switch s.Kind {
	case "postgres", "sqlite":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{SeverityError, path + ".db.dsn", "dsn is required"})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{SeverityError, path + ".db.table", "table is required"})
		}
	case "csvfile":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{SeverityError, path + ".db.dsn", "csvfile sink requires a file path in dsn"})
		}
	case "":
		if required {
			issues = append(issues, Issue{SeverityError, path + ".kind", "storage kind is required"})
		}
	default:
		issues = append(issues, Issue{SeverityError, path + ".kind", fmt.Sprintf("unknown storage kind %q", s.Kind)})
	}
	return issues
}
