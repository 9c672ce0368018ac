package formatter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheetName names the single worksheet both spreadsheet writers emit.
const sheetName = "Tracks"

// ExportToXLSX serializes flattened tracks as a single-sheet XLSX workbook.
// Row 0 carries the column headers; data rows follow in track order.
func ExportToXLSX(tracks []TrackFlattened) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setSheetRow(f, 0, headerRow()); err != nil {
		return nil, err
	}
	for i, track := range tracks {
		if err := setSheetRow(f, i+1, valueRow(track)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setSheetRow(f *excelize.File, row int, values []string) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}

	if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row+1), &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
