package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/project-geotagger/internal/entity"
)

const mentionsSheet = "Mentions"

var xlsxHeaders = []string{
	"PDF File",
	"Page",
	"Project Name",
	"Latitude",
	"Longitude",
	"Source",
	"Context",
}

// WriteXLSX returns a workbook (as bytes) with one row per mention.
// Unresolved mentions leave the coordinate cells empty.
func WriteXLSX(records []entity.MentionRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty one behind.
	if err := f.SetSheetName(f.GetSheetName(0), mentionsSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	index, err := f.GetSheetIndex(mentionsSheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(mentionsSheet, cell, h)
	}

	row := 2
	for _, r := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(mentionsSheet, cell, v)
		}

		write(1, r.PDFFile)
		write(2, r.PageNumber)
		write(3, r.ProjectName)
		if r.Coordinates != nil {
			write(4, r.Coordinates.Lat)
			write(5, r.Coordinates.Lon)
		}
		write(6, r.Source)
		write(7, truncate(r.ContextSentence, 300))
		row++
	}

	_ = f.SetColWidth(mentionsSheet, "A", "A", 40) // file
	_ = f.SetColWidth(mentionsSheet, "B", "B", 8)  // page
	_ = f.SetColWidth(mentionsSheet, "C", "C", 32) // project
	_ = f.SetColWidth(mentionsSheet, "D", "E", 14) // coordinates
	_ = f.SetColWidth(mentionsSheet, "F", "F", 12) // source
	_ = f.SetColWidth(mentionsSheet, "G", "G", 80) // context

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
