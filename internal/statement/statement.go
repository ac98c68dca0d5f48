// Package statement reads bank statement exports into raw ingest rows.
package statement

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"spendlens/internal/ingest"
)

// Format is a supported statement file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// headerScanRows bounds how far into a file the header row is looked for.
const headerScanRows = 30

var (
	ErrUnsupportedFormat = errors.New("unsupported statement format")
	ErrEmptyStatement    = errors.New("statement contains no rows")
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// DetectFormat infers the format from a file name's extension.
func DetectFormat(fileName string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, fileName)
	}
	return ParseFormat(ext)
}

// Read decodes r according to format.
func Read(r io.Reader, format Format) ([]ingest.RawRow, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// rowsFromRecords turns a grid of cells into keyed rows. Bank exports often
// start with an account preamble, so the header is the first row (within
// headerScanRows) that resolves to a date column and an amount-bearing
// column; failing that, the first non-empty row.
func rowsFromRecords(records [][]string) ([]ingest.RawRow, error) {
	headerAt := -1
	firstNonEmpty := -1
	for i, rec := range records {
		if i >= headerScanRows {
			break
		}
		if isBlank(rec) {
			continue
		}
		if firstNonEmpty < 0 {
			firstNonEmpty = i
		}
		fields := ingest.ResolveFields(headerRow(rec))
		if fields.Date != "" && fields.HasAmount() {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		headerAt = firstNonEmpty
	}
	if headerAt < 0 {
		return nil, ErrEmptyStatement
	}

	header := headerNames(records[headerAt])
	rows := make([]ingest.RawRow, 0, len(records)-headerAt-1)
	for _, rec := range records[headerAt+1:] {
		if isBlank(rec) {
			continue
		}
		row := make(ingest.RawRow, len(header))
		for j, name := range header {
			if j < len(rec) {
				row[name] = strings.TrimSpace(rec[j])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// headerNames trims header cells, names blank ones by position and suffixes
// duplicates so every column keeps a distinct key.
func headerNames(rec []string) []string {
	names := make([]string, len(rec))
	seen := make(map[string]int, len(rec))
	for i, cell := range rec {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = fmt.Sprintf("column %d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}
		names[i] = name
	}
	return names
}

func headerRow(rec []string) ingest.RawRow {
	row := make(ingest.RawRow, len(rec))
	for _, name := range headerNames(rec) {
		row[name] = ""
	}
	return row
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
