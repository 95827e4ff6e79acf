package processor

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"FlyerScraper/internal/models"
	"FlyerScraper/utils"
)

// ErrNoRows is returned when no listing is left to write.
var ErrNoRows = errors.New("no listings left to write")

// Options controls filtering and ranking.
type Options struct {
	// Blacklist holds normalized names (trimmed, lower-cased) to drop.
	Blacklist []string
	// Similarity keeps only rows whose name ends with their search term.
	Similarity bool
	LowestBy   models.LowestPriceKey
}

// Table is the cleaned, ranked output of one run.
type Table struct {
	Rows []models.OutputRow
	// HasNote reports whether the scraped data carried a Note column.
	HasNote bool
}

// Columns returns the header of the output table.
func (t *Table) Columns() []string {
	cols := []string{models.ColStore, models.ColItem, models.ColName, models.ColBrand,
		models.ColPrice, models.ColUnit, models.ColDateValid}
	if t.HasNote {
		cols = append(cols, models.ColNote)
	}
	return append(cols, models.ColLowest)
}

// Transform cleans and ranks records. The steps run in a fixed order and the
// result depends only on the input.
func Transform(records []models.RawRecord, opts Options) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrNoRows
	}
	if !opts.LowestBy.Valid() {
		opts.LowestBy = models.LowestByItem
	}
	if err := checkEmptyColumns(records); err != nil {
		return nil, err
	}

	hasNote := false
	rows := make([]models.OutputRow, 0, len(records))
	for _, r := range records {
		if _, ok := r.Fields[models.ColNote]; ok {
			hasNote = true
		}
		rows = append(rows, models.OutputRow{
			Store:     r.Fields[models.ColStore],
			Item:      r.Item,
			Name:      r.Fields[models.ColName],
			Brand:     r.Fields[models.ColBrand],
			PriceText: r.Fields[models.ColPrice],
			DateValid: r.Fields[models.ColDateValid],
			Note:      r.Fields[models.ColNote],
		})
	}

	rows = filterBlacklist(rows, opts.Blacklist)
	if opts.Similarity {
		rows = filterSimilar(rows)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	if err := splitUnits(rows); err != nil {
		return nil, err
	}
	if err := parsePrices(rows); err != nil {
		return nil, err
	}

	slices.SortStableFunc(rows, func(a, b models.OutputRow) int {
		return cmp.Or(
			cmp.Compare(a.Store, b.Store),
			cmp.Compare(a.Item, b.Item),
			cmp.Compare(a.Price, b.Price),
		)
	})

	markLowest(rows, opts.LowestBy)
	rows = dropDuplicates(rows)
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	return &Table{Rows: rows, HasNote: hasNote}, nil
}

// checkEmptyColumns rejects columns that were extracted as "" in every record,
// which means their selector no longer matches anything.
func checkEmptyColumns(records []models.RawRecord) error {
	var empty []string
	for _, col := range models.RawColumns {
		blank := 0
		for _, r := range records {
			if v, ok := r.Get(col); ok && v == "" {
				blank++
			}
		}
		if blank == len(records) {
			empty = append(empty, col)
		}
	}
	if len(empty) > 0 {
		return &models.ConfigError{Subjects: empty, Reason: "column(s) empty"}
	}
	return nil
}

func filterBlacklist(rows []models.OutputRow, blacklist []string) []models.OutputRow {
	if len(blacklist) == 0 {
		return rows
	}
	blocked := make(map[string]struct{}, len(blacklist))
	for _, name := range blacklist {
		blocked[name] = struct{}{}
	}
	return slices.DeleteFunc(rows, func(r models.OutputRow) bool {
		_, ok := blocked[r.Name]
		return ok
	})
}

func filterSimilar(rows []models.OutputRow) []models.OutputRow {
	return slices.DeleteFunc(rows, func(r models.OutputRow) bool {
		return !strings.HasSuffix(r.Name, r.Item)
	})
}

// splitUnits separates "price/unit" text. Rows without a unit keep an empty
// one, but at least one row must carry a unit.
func splitUnits(rows []models.OutputRow) error {
	withUnit := 0
	for i := range rows {
		parts := strings.Split(rows[i].PriceText, "/")
		switch len(parts) {
		case 1:
		case 2:
			rows[i].PriceText = strings.TrimSpace(parts[0])
			rows[i].Unit = strings.TrimSpace(parts[1])
			withUnit++
		default:
			return &models.ConfigError{
				Subjects: []string{models.SelPricePrimary},
				Reason:   "returned a price with more than one unit (" + rows[i].PriceText + ")",
			}
		}
	}
	if withUnit == 0 {
		return &models.ConfigError{Subjects: []string{models.SelPricePrimary}, Reason: "returned no price units"}
	}
	return nil
}

// parsePrices converts "<note> <number>" to a number. Unparsable prices get
// utils.UnparsedPrice so they sort last within their group.
func parsePrices(rows []models.OutputRow) error {
	parsed := 0
	for i := range rows {
		price, ok := utils.ParseFlyerPrice(rows[i].PriceText)
		rows[i].Price = price
		if ok {
			parsed++
		}
	}
	if parsed == 0 {
		return &models.ConfigError{Subjects: []string{models.SelPriceFallbackValue}, Reason: "returned no readable price"}
	}
	return nil
}

// markLowest flags every row carrying the minimum price of its group; ties are all flagged.
func markLowest(rows []models.OutputRow, by models.LowestPriceKey) {
	key := func(r models.OutputRow) string {
		if by == models.LowestByName {
			return r.Name
		}
		return r.Item
	}
	lowest := make(map[string]float64)
	for _, r := range rows {
		k := key(r)
		if p, ok := lowest[k]; !ok || r.Price < p {
			lowest[k] = r.Price
		}
	}
	for i := range rows {
		k := key(rows[i])
		if rows[i].Price == lowest[k] {
			rows[i].Lowest = "✅ " + k
		}
	}
}

type dedupKey struct {
	name, brand string
	price       float64
	unit, date  string
}

// dropDuplicates removes every row whose (Name, Brand, Price, Unit, Date valid)
// occurs more than once. No copy is kept.
func dropDuplicates(rows []models.OutputRow) []models.OutputRow {
	keyOf := func(r models.OutputRow) dedupKey {
		return dedupKey{r.Name, r.Brand, r.Price, r.Unit, r.DateValid}
	}
	counts := make(map[dedupKey]int, len(rows))
	for _, r := range rows {
		counts[keyOf(r)]++
	}
	return slices.DeleteFunc(rows, func(r models.OutputRow) bool {
		return counts[keyOf(r)] > 1
	})
}
