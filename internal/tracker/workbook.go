package tracker

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/anigil002/trackerupdates/internal/models"
)

// readTable loads a tracker sheet into records keyed by the header row.
// Rows shorter than the header are padded conceptually: missing cells
// stay absent from the record.
func readTable(path, sheet string) ([]models.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	var out []models.Record
	for _, cells := range rows[1:] {
		rec := make(models.Record, len(header))
		empty := true
		for i, col := range header {
			if i >= len(cells) {
				break
			}
			if cells[i] != "" {
				rec[col] = cells[i]
				empty = false
			}
		}
		if !empty {
			out = append(out, rec)
		}
	}
	return out, nil
}

// saveTable rewrites the whole workbook: formatted header row, then one
// row per record in canonical column order.
func saveTable(path, sheet string, columns []string, rows []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	f.SetCellStyle(sheet, "A1", last, headerStyle)

	for i, rec := range rows {
		cells := make([]interface{}, len(columns))
		for j, col := range columns {
			cells[j] = rec[col]
		}
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return err
		}
	}

	// Width tracks the widest cell per column, capped so long feedback
	// does not blow up the layout.
	for j, col := range columns {
		width := len(col)
		for _, rec := range rows {
			if l := len(rec[col]); l > width {
				width = l
			}
		}
		if width > 48 {
			width = 48
		}
		name, _ := excelize.ColumnNumberToName(j + 1)
		f.SetColWidth(sheet, name, name, float64(width+2))
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
