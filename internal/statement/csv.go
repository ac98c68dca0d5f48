package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"spendlens/internal/ingest"
)

const sniffLines = 10

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a delimited text statement. The delimiter (comma, semicolon
// or tab) is sniffed from the first non-empty lines and a UTF-8 BOM is dropped.
func ReadCSV(r io.Reader) ([]ingest.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyStatement
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rowsFromRecords(records)
}

// sniffDelimiter picks the candidate that occurs most often across the first
// few non-empty lines.
func sniffDelimiter(data []byte) rune {
	lines := bytes.Split(data, []byte("\n"))
	sample := make([][]byte, 0, sniffLines)
	for _, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		sample = append(sample, line)
		if len(sample) == sniffLines {
			break
		}
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		n := 0
		for _, line := range sample {
			n += bytes.Count(line, []byte(string(d)))
		}
		if n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
