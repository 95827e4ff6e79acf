package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"FlyerScraper/internal/models"

	"golang.org/x/time/rate"
)

// PaginatorConfig holds the page structure and limits used while walking the
// result pages of one search term.
type PaginatorConfig struct {
	SearchURL         string
	HeadlineSelector  string
	ContainerSelector string
	LocationSelector  string
	ZIP               string

	HeadlineTimeout time.Duration
	ListingTimeout  time.Duration
	PollInterval    time.Duration
	PageDelay       time.Duration

	// MaxPages stops a term after that many pages; 0 means no limit.
	MaxPages int

	// DumpDir receives the HTML of every extracted page when set.
	DumpDir string
}

type pageState int

const (
	stateRequesting pageState = iota
	stateValidating
	stateExtracting
	stateAdvancing
	stateDone
	stateFailed
)

func (s pageState) String() string {
	switch s {
	case stateRequesting:
		return "requesting"
	case stateValidating:
		return "validating"
	case stateExtracting:
		return "extracting"
	case stateAdvancing:
		return "advancing"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return fmt.Sprintf("pageState(%d)", int(s))
}

// Paginator walks the result pages of a search term until the site stops
// returning results for it.
type Paginator struct {
	cfg       PaginatorConfig
	extractor *Extractor
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewPaginator creates a Paginator. Page loads are spaced by cfg.PageDelay.
func NewPaginator(cfg PaginatorConfig, extractor *Extractor, logger *slog.Logger) *Paginator {
	limit := rate.Inf
	if cfg.PageDelay > 0 {
		limit = rate.Every(cfg.PageDelay)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	return &Paginator{
		cfg:       cfg,
		extractor: extractor,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.With("component", "paginator"),
	}
}

// PageURL builds the search URL for item at the zero-based page index.
func PageURL(searchURL, item string, page int) string {
	return fmt.Sprintf("%s/%s?title=%s&page=%d",
		strings.TrimRight(searchURL, "/"), url.PathEscape(item), url.QueryEscape(item), page)
}

// Scrape collects the records of every result page of item. onPage, if not
// nil, is called before each page load with the page index.
// Records gathered before a failure are returned along with the error.
func (p *Paginator) Scrape(ctx context.Context, s Session, item string, onPage func(page int)) ([]models.RawRecord, error) {
	var (
		records []models.RawRecord
		failErr error
		page    int
	)
	log := p.logger.With("item", item)

	state := stateRequesting
	for {
		switch state {
		case stateRequesting:
			if err := ctx.Err(); err != nil {
				return records, err
			}
			if p.cfg.MaxPages > 0 && page >= p.cfg.MaxPages {
				log.Warn("page limit reached", "max_pages", p.cfg.MaxPages)
				state = stateDone
				continue
			}
			if err := p.limiter.Wait(ctx); err != nil {
				return records, err
			}
			if onPage != nil {
				onPage(page)
			}
			log.Debug("loading page", "page", page)
			if err := s.Navigate(ctx, PageURL(p.cfg.SearchURL, item, page)); err != nil {
				return records, fmt.Errorf("failed to load page %d of '%s': %w", page, item, err)
			}
			state = stateValidating

		case stateValidating:
			err := p.validate(ctx, s, item)
			switch {
			case errors.Is(err, models.ErrEndOfResults):
				state = stateDone
			case err != nil:
				return records, fmt.Errorf("page %d of '%s': %w", page, item, err)
			default:
				state = stateExtracting
			}

		case stateExtracting:
			markup, err := s.HTML(ctx)
			if err != nil {
				return records, fmt.Errorf("failed to read page %d of '%s': %w", page, item, err)
			}
			p.dump(item, page, markup)

			found, err := p.extractor.Extract(item, markup)
			if err != nil {
				failErr = err
				state = stateFailed
				continue
			}
			log.Info("page scraped", "page", page, "records", len(found))
			records = append(records, found...)
			state = stateAdvancing

		case stateAdvancing:
			page++
			state = stateRequesting

		case stateDone:
			log.Info("end of results", "pages", page, "records", len(records))
			return records, nil

		case stateFailed:
			log.Error("extraction failed", "page", page, "error", failErr)
			return records, failErr
		}
	}
}

// validate waits for the page to render. A headline that no longer names the
// search term means the site has run out of results for it.
func (p *Paginator) validate(ctx context.Context, s Session, item string) error {
	headline, err := WaitVisibleText(ctx, s, p.cfg.HeadlineSelector, p.cfg.HeadlineTimeout, p.cfg.PollInterval)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToUpper(headline), strings.ToUpper(item)) {
		return models.ErrEndOfResults
	}

	if err := WaitVisible(ctx, s, p.cfg.ContainerSelector, p.cfg.ListingTimeout, p.cfg.PollInterval); err != nil {
		return err
	}

	if p.cfg.ZIP != "" && p.cfg.LocationSelector != "" {
		location, err := s.Text(ctx, p.cfg.LocationSelector)
		if err != nil {
			return err
		}
		if !strings.Contains(location, p.cfg.ZIP) {
			p.logger.Warn("results are not for the configured location",
				"item", item, "zip", p.cfg.ZIP, "location", strings.TrimSpace(location))
		}
	}
	return nil
}

func (p *Paginator) dump(item string, page int, markup string) {
	if p.cfg.DumpDir == "" {
		return
	}
	if err := os.MkdirAll(p.cfg.DumpDir, 0o755); err != nil {
		p.logger.Warn("failed to create dump directory", "dir", p.cfg.DumpDir, "error", err)
		return
	}
	name := fmt.Sprintf("%s_page%03d.html", strings.ReplaceAll(url.PathEscape(item), "%", "_"), page)
	path := filepath.Join(p.cfg.DumpDir, name)
	if err := os.WriteFile(path, []byte(markup), 0o644); err != nil {
		p.logger.Warn("failed to dump page", "path", path, "error", err)
	}
}
