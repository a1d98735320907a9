// Package file provides local-file datasources for the cleaning pipeline:
// opening a CSV for streaming, and reading list files that enumerate the
// inputs of a lookup-table build.
package file

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Open opens path for streaming reads. It rejects directories early so the
// caller gets a clear error instead of a CSV parse failure later on.
func Open(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("file: %s is a directory, not a CSV file", path)
	}
	return os.Open(path)
}

// ReadList reads a text file line by line and returns its non-empty,
// non-comment lines, typically a list of CSV paths to feed the lookup
// builder.
//
// Lines that are empty or start with '#' (after trimming whitespace) are
// skipped. The order of lines is preserved.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
