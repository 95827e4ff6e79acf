package app

import (
	"context"
	"errors"
	"testing"

	"FlyerScraper/internal/models"
	"FlyerScraper/internal/observability"
	"FlyerScraper/internal/scraper"
	"FlyerScraper/internal/scraper/scrapertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, zip string) *Orchestrator {
	t.Helper()
	cfg := testConfig(t)
	extractor, err := scraper.NewExtractor("li", models.DefaultSelectors())
	require.NoError(t, err)
	p := scraper.NewPaginator(scraper.PaginatorConfig{
		SearchURL:         testSearchURL,
		HeadlineSelector:  cfg.Site.HeadlineSelector,
		ContainerSelector: cfg.Site.ContainerSelector,
		HeadlineTimeout:   cfg.Scrape.HeadlineTimeout,
		ListingTimeout:    cfg.Scrape.ListingTimeout,
		PollInterval:      cfg.Scrape.PollInterval,
	}, extractor, observability.Discard())
	return NewOrchestrator(p, zip, observability.Discard())
}

func TestOrchestratorToleratesLocationFailure(t *testing.T) {
	s := shopSession()
	s.LocationErr = errors.New("dialog did not open")

	var labels []string
	records, err := newTestOrchestrator(t, "10115").Scrape(context.Background(), s, []string{"milch"}, func(p models.Progress) {
		labels = append(labels, p.Label)
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NotContains(t, labels, "Location set")
	assert.Contains(t, labels, "Setting location")
}

func TestOrchestratorReportsProgress(t *testing.T) {
	var updates []models.Progress
	_, err := newTestOrchestrator(t, "10115").Scrape(context.Background(), shopSession(), []string{"milch"}, func(p models.Progress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)

	assert.Equal(t, []models.Progress{
		{Label: "Setting location", Percent: 10},
		{Label: "Location set", Percent: 20},
		{Label: "Scraping", Percent: 40},
		{Label: "Scraping", Sep: ": ", Detail: "'milch' - page 1", Percent: 60},
		// The second page is requested and turns out to be past the last result.
		{Label: "Scraping", Sep: ": ", Detail: "'milch' - page 2", Percent: 60},
		{Label: "Done scraping", Percent: 80},
	}, updates)
}

func TestOrchestratorSkipsLocationWithoutZIP(t *testing.T) {
	s := shopSession()

	_, err := newTestOrchestrator(t, "").Scrape(context.Background(), s, []string{"milch"}, nil)
	require.NoError(t, err)
	assert.Empty(t, s.Locations())
}

func TestOrchestratorKeepsItemOrder(t *testing.T) {
	s := shopSession()

	records, err := newTestOrchestrator(t, "").Scrape(context.Background(), s, []string{"butter", "milch"}, nil)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "butter", records[0].Item)
	assert.Equal(t, "milch", records[1].Item)
	assert.Equal(t, "milch", records[2].Item)
}

func TestOrchestratorAbortsOnFailedItem(t *testing.T) {
	s := shopSession()
	s.Pages[scraper.PageURL(testSearchURL, "käse", 0)] = scrapertest.Page("Käse", "", scrapertest.Listing{NoName: true})

	records, err := newTestOrchestrator(t, "").Scrape(context.Background(), s, []string{"milch", "käse", "butter"}, nil)
	var ce *models.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Len(t, records, 2)
	for _, u := range s.Visited() {
		assert.NotContains(t, u, "butter")
	}
}

func TestOrchestratorEmptyItems(t *testing.T) {
	_, err := newTestOrchestrator(t, "").Scrape(context.Background(), shopSession(), nil, nil)
	assert.ErrorIs(t, err, models.ErrEmptyInput)
}

func TestProgressChannelDropsWhenFull(t *testing.T) {
	ch := make(chan models.Progress, 1)
	send := ProgressChannel(ch)

	send(models.Progress{Label: "first"})
	send(models.Progress{Label: "second"})

	require.Len(t, ch, 1)
	assert.Equal(t, "first", (<-ch).Label)
}
