package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

// WriteWorkbook renders the sheets as one .xlsx workbook: bold filtered
// header row, heuristic column widths.
func WriteWorkbook(w io.Writer, sheets []SheetSpec) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("new sheet: %w", err)
			}
		}

		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		end := colName(len(s.Header)) + "1"
		_ = f.SetCellStyle(name, "A1", end, bold)
		_ = f.AutoFilter(name, "A1:"+end, nil)

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}

		// width from header and the first rows
		for c := 1; c <= len(s.Header); c++ {
			max := len(s.Header[c-1])
			for r := 0; r < len(s.Rows) && r < 50; r++ {
				if l := len(s.Rows[r][c-1]); l > max {
					max = l
				}
			}
			w := float64(max) * 0.9
			if w < 12 {
				w = 12
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}

	return f.Write(w)
}

func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}
