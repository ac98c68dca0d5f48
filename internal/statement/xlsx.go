package statement

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"spendlens/internal/ingest"
)

// ReadXLSX reads the first worksheet of a workbook. Cells are read raw, so
// date cells arrive as Excel serial numbers and are converted by the
// normalizer.
func ReadXLSX(r io.Reader) ([]ingest.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyStatement
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rowsFromRecords(records)
}
