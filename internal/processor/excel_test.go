package processor

import (
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"FlyerScraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)
	assert.Regexp(t, regexp.MustCompile(`^2024-03-09_[A-Za-z]{5}\.xlsx$`), FileName(now))
}

func TestWriteWorkbookSections(t *testing.T) {
	table := &Table{Rows: []models.OutputRow{
		{Store: "aldi", Item: "milch", Name: "h-milch", Brand: "milsani", Price: 0.89, Unit: "1 l", DateValid: "bis sa.", Lowest: "✅ milch"},
		{Store: "rewe", Item: "butter", Name: "butter", Brand: "kerrygold", Price: 1.99, Unit: "250 g", DateValid: "bis so."},
		{Store: "rewe", Item: "milch", Name: "vollmilch", Brand: "weihenstephan", Price: 1.19, Unit: "1 l", DateValid: "bis so."},
		{Store: "rewe", Item: "milch", Name: "bio milch", Brand: "rewe bio", Price: 1.29, Unit: "1 l", DateValid: "bis so."},
	}}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteWorkbook(table, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 7)

	header := []string{"Store", "Item", "Name", "Brand", "Price", "Unit", "Date valid", "Lowest price across stores"}
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"aldi", "milch", "h-milch", "milsani", "0.89", "1 l", "bis sa.", "✅ milch"}, rows[1])
	assert.Empty(t, rows[2])
	assert.Equal(t, header, rows[3])
	assert.Equal(t, []string{"rewe", "butter", "butter", "kerrygold", "1.99", "250 g", "bis so."}, rows[4])
	assert.Equal(t, []string{"", "milch", "vollmilch", "weihenstephan", "1.19", "1 l", "bis so."}, rows[5])
	assert.Equal(t, []string{"", "", "bio milch", "rewe bio", "1.29", "1 l", "bis so."}, rows[6])

	level, err := f.GetRowOutlineLevel(sheetName, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), level)
}

func TestWriteWorkbookNoteColumn(t *testing.T) {
	table := &Table{HasNote: true, Rows: []models.OutputRow{
		{Store: "lidl", Item: "käse", Name: "gouda", Brand: "milbona", Price: 2.49, Note: "aktion"},
	}}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteWorkbook(table, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Note", rows[0][7])
	assert.Equal(t, "aktion", rows[1][7])
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	records := []models.RawRecord{
		{Item: "milch", Fields: models.Fields{
			models.ColName: "vollmilch", models.ColStore: "rewe", models.ColBrand: "weihenstephan",
			models.ColDateValid: "bis so.", models.ColPrice: "je 1,19/1 l",
		}},
	}

	path, table, err := Generate(records, Options{}, dir, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, `2024-01-02_[A-Za-z]{5}\.xlsx$`, path)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "✅ milch", table.Rows[0].Lowest)
	assert.FileExists(t, path)
}
