package scraper

import (
	"fmt"
	"strings"

	"FlyerScraper/internal/models"
	"FlyerScraper/pkg/config"
	"FlyerScraper/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// fieldRule lists the candidate selectors for one column; the first candidate
// that matches at least one element wins.
type fieldRule struct {
	column     string
	candidates []cascadia.Selector
}

// Extractor turns a rendered search results page into raw records.
type Extractor struct {
	container cascadia.Selector
	name      cascadia.Selector
	rules     []fieldRule

	pricePrimary  cascadia.Selector
	priceFallback cascadia.Selector
	noteFallback  cascadia.Selector
}

// NewExtractor compiles the selectors once. Any selector that does not
// compile is reported as a *models.ConfigError.
func NewExtractor(containerSelector string, sel models.SelectorConfig) (*Extractor, error) {
	if err := config.ValidateSelectors(sel); err != nil {
		return nil, err
	}
	container, err := cascadia.Compile(containerSelector)
	if err != nil {
		return nil, &models.ConfigError{Subjects: []string{"container"}, Reason: "has a bad selector format", Err: err}
	}

	// Validated above, so MustCompile cannot panic here.
	c := cascadia.MustCompile
	return &Extractor{
		container: container,
		name:      c(sel.Name),
		rules: []fieldRule{
			{column: models.ColDateValid, candidates: []cascadia.Selector{c(sel.DateValid)}},
			// Retailer and brand names are wrapped in an anchor, bare, or in a span depending on the listing.
			{column: models.ColStore, candidates: []cascadia.Selector{c(sel.Store + " > a"), c(sel.Store), c(sel.StoreSpanSelector())}},
			{column: models.ColBrand, candidates: []cascadia.Selector{c(sel.Brand + " > a"), c(sel.Brand), c(sel.BrandSpanSelector())}},
		},
		pricePrimary:  c(sel.PricePrimary),
		priceFallback: c(sel.PriceFallbackValue),
		noteFallback:  c(sel.PriceFallbackNote),
	}, nil
}

// Extract parses one page. Containers without a name match are skipped; if
// that is true for every container on the page the name selector is reported
// as broken. A page without any container yields no records and no error.
func (e *Extractor) Extract(item, page string) ([]models.RawRecord, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	containers := doc.FindMatcher(e.container)
	var records []models.RawRecord
	notFound := 0

	containers.Each(func(_ int, li *goquery.Selection) {
		name := li.FindMatcher(e.name)
		if name.Length() == 0 {
			notFound++
			return
		}

		fields := models.Fields{models.ColName: clean(name.Text())}
		for _, rule := range e.rules {
			fields[rule.column] = clean(firstMatch(li, rule.candidates))
		}

		if primary := li.FindMatcher(e.pricePrimary); primary.Length() > 0 {
			// Price ranges ("1,99 - 2,49") collapse to the lower bound.
			fields[models.ColPrice] = clean(utils.SplitOnce(primary.Text(), "-"))
		} else {
			fields[models.ColPrice] = clean(li.FindMatcher(e.priceFallback).Text())
			fields[models.ColNote] = clean(li.FindMatcher(e.noteFallback).Text())
		}

		records = append(records, models.RawRecord{Item: item, Fields: fields})
	})

	if n := containers.Length(); n > 0 && notFound == n {
		return nil, &models.ConfigError{
			Subjects: []string{"Name"},
			Reason:   fmt.Sprintf("selector matched none of the %d listings on the page", n),
		}
	}
	return records, nil
}

func firstMatch(s *goquery.Selection, candidates []cascadia.Selector) string {
	for _, c := range candidates {
		if m := s.FindMatcher(c); m.Length() > 0 {
			return m.Text()
		}
	}
	return ""
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
