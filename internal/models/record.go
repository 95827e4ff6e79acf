package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Column names as they appear in the scraped records and in the spreadsheet header.
const (
	ColStore     = "Store"
	ColItem      = "Item"
	ColName      = "Name"
	ColBrand     = "Brand"
	ColPrice     = "Price"
	ColUnit      = "Unit"
	ColDateValid = "Date valid"
	ColNote      = "Note"
	ColLowest    = "Lowest price across stores"
)

// RawColumns is the order in which the extractor produces fields.
var RawColumns = []string{ColItem, ColName, ColDateValid, ColStore, ColBrand, ColPrice, ColNote}

// RawRecord holds the text extracted for one listing container.
// Values are lower-cased and trimmed; Item is the search term that produced it.
type RawRecord struct {
	Item   string
	Fields Fields
}

// Get returns the field value and whether the extractor set it at all.
// The Item column is served from the record itself.
func (r RawRecord) Get(column string) (string, bool) {
	if column == ColItem {
		return r.Item, true
	}
	v, ok := r.Fields[column]
	return v, ok
}

// Fields is a column → text mapping persisted as JSON in the run archive.
type Fields map[string]string

// Value implements the driver.Valuer interface.
func (f Fields) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]string(f))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (f *Fields) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for Fields")
	}
	return json.Unmarshal(bytes, f)
}

// OutputRow is a record after price parsing, ranking and marking.
type OutputRow struct {
	Store     string
	Item      string
	Name      string
	Brand     string
	Price     float64
	PriceText string
	Unit      string
	DateValid string
	Note      string
	Lowest    string
}

// LowestPriceKey selects the column used to group rows for the lowest price marker.
type LowestPriceKey string

const (
	LowestByItem LowestPriceKey = "Item"
	LowestByName LowestPriceKey = "Name"
)

// Valid reports whether k is one of the supported grouping keys.
func (k LowestPriceKey) Valid() bool {
	return k == LowestByItem || k == LowestByName
}

// Progress is one update for the progress observer:
// a primary label, a separator, detail text and a percentage (0-100).
type Progress struct {
	Label   string
	Sep     string
	Detail  string
	Percent int
}

// ProgressFunc receives progress updates. Implementations must not block.
type ProgressFunc func(Progress)

// Run describes one archived scrape.
type Run struct {
	ID        string    `db:"id"`
	StartedAt time.Time `db:"started_at"`
	ZIP       string    `db:"zip"`
	Items     []string  `db:"items"`
	Records   int       `db:"records"`
	Output    string    `db:"output_path"`
}
