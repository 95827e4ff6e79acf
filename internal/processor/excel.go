package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"FlyerScraper/internal/models"
	"FlyerScraper/utils"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// column widths in characters, by header
var columnWidths = map[string]float64{
	models.ColStore:     18,
	models.ColItem:      16,
	models.ColName:      42,
	models.ColBrand:     18,
	models.ColPrice:     9,
	models.ColUnit:      12,
	models.ColDateValid: 22,
	models.ColNote:      18,
	models.ColLowest:    30,
}

// FileName returns "<YYYY-MM-DD>_<5 random letters>.xlsx" for now.
func FileName(now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", now.Format("2006-01-02"), utils.RandomSuffix(5))
}

// sections groups rows by store, stores in ascending order, keeping row order within a store.
func sections(rows []models.OutputRow) [][]models.OutputRow {
	byStore := make(map[string][]models.OutputRow)
	var stores []string
	for _, r := range rows {
		if _, ok := byStore[r.Store]; !ok {
			stores = append(stores, r.Store)
		}
		byStore[r.Store] = append(byStore[r.Store], r)
	}
	slices.Sort(stores)

	out := make([][]models.OutputRow, 0, len(stores))
	for _, s := range stores {
		out = append(out, byStore[s])
	}
	return out
}

// WriteWorkbook writes t to path as a single sheet with one section per
// store. Each section starts with a bold header row and sections are
// separated by a blank row. Store and Item are left blank where they repeat
// the row above.
func WriteWorkbook(t *Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	cols := t.Columns()
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}

	row := 1
	for i, section := range sections(t.Rows) {
		if i > 0 {
			row++
		}
		if err := setRow(f, row, header); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheetName, row, row, bold); err != nil {
			return fmt.Errorf("failed to style header row: %w", err)
		}
		row++

		for j, r := range section {
			store, item := r.Store, r.Item
			if j > 0 && r.Store == section[j-1].Store {
				store = ""
			}
			if j > 0 && r.Item == section[j-1].Item {
				item = ""
			}
			values := []interface{}{store, item, r.Name, r.Brand, r.Price, r.Unit, r.DateValid}
			if t.HasNote {
				values = append(values, r.Note)
			}
			values = append(values, r.Lowest)

			if err := setRow(f, row, values); err != nil {
				return err
			}
			// Lets the spreadsheet collapse a store's listings under its header.
			if err := f.SetRowOutlineLevel(sheetName, row, 1); err != nil {
				return fmt.Errorf("failed to group row %d: %w", row, err)
			}
			row++
		}
	}

	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, columnWidths[c]); err != nil {
			return fmt.Errorf("failed to set width of %s: %w", c, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// Generate transforms records and writes the workbook into dir, returning its path.
func Generate(records []models.RawRecord, opts Options, dir string, now time.Time) (string, *Table, error) {
	t, err := Transform(records, opts)
	if err != nil {
		return "", nil, err
	}
	path, err := Write(t, dir, now)
	if err != nil {
		return "", nil, err
	}
	return path, t, nil
}

// Write saves t under a fresh file name in dir.
func Write(t *Table, dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := WriteWorkbook(t, path); err != nil {
		return "", err
	}
	return path, nil
}
