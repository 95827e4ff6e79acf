package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"FlyerScraper/internal/models"
	"FlyerScraper/internal/scraper"
)

// Browser is what a run needs from its browser session.
type Browser interface {
	scraper.Session
	scraper.LocationSetter
}

// Orchestrator scrapes a shopping list term by term in one browser session.
type Orchestrator struct {
	paginator *scraper.Paginator
	zip       string
	logger    *slog.Logger
}

// NewOrchestrator creates an Orchestrator. An empty zip skips the location step.
func NewOrchestrator(p *scraper.Paginator, zip string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{paginator: p, zip: zip, logger: logger.With("component", "orchestrator")}
}

// Scrape sets the delivery location once, then collects every result page of
// each item in order. The first failing item aborts the remaining ones.
func (o *Orchestrator) Scrape(ctx context.Context, b Browser, items []string, progress models.ProgressFunc) ([]models.RawRecord, error) {
	if len(items) == 0 {
		return nil, models.ErrEmptyInput
	}
	if progress == nil {
		progress = func(models.Progress) {}
	}

	if o.zip != "" {
		progress(models.Progress{Label: "Setting location", Percent: 10})
		if err := b.SetLocation(ctx, items[0], o.zip); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var le *models.LocationError
			if !errors.As(err, &le) {
				err = &models.LocationError{ZIP: o.zip, Err: err}
			}
			o.logger.Warn("continuing without location", "error", err)
		} else {
			progress(models.Progress{Label: "Location set", Percent: 20})
		}
	}

	progress(models.Progress{Label: "Scraping", Percent: 40})
	var records []models.RawRecord
	for i, item := range items {
		o.logger.Info("scraping item", "item", item, "index", i+1, "of", len(items))
		found, err := o.paginator.Scrape(ctx, b, item, func(page int) {
			progress(models.Progress{
				Label:   "Scraping",
				Sep:     ": ",
				Detail:  fmt.Sprintf("'%s' - page %d", item, page+1),
				Percent: 60,
			})
		})
		records = append(records, found...)
		if err != nil {
			return records, err
		}
	}

	progress(models.Progress{Label: "Done scraping", Percent: 80})
	o.logger.Info("scraping finished", "items", len(items), "records", len(records))
	return records, nil
}
