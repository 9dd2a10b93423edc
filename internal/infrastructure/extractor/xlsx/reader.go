package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Reader flattens a workbook into one segment per non-empty row, in sheet
// order. Cells are joined by tabs.
type Reader struct {
	maxRows int
}

func NewReader(maxRows int) *Reader {
	return &Reader{maxRows: maxRows}
}

func (r *Reader) Segments(ctx context.Context, raw []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out []string
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			line := joinCells(row)
			if line == "" {
				continue
			}
			out = append(out, line)
			if r.maxRows > 0 && len(out) >= r.maxRows {
				return out, nil
			}
		}
	}
	return out, nil
}

func joinCells(row []string) string {
	cells := make([]string, 0, len(row))
	for _, cell := range row {
		cells = append(cells, strings.TrimSpace(cell))
	}
	return strings.TrimSpace(strings.Join(cells, "\t"))
}
