package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FlyerScraper/internal/database"
	"FlyerScraper/internal/models"
	"FlyerScraper/internal/processor"
	"FlyerScraper/internal/scraper"
	"FlyerScraper/pkg/config"
	"FlyerScraper/utils"

	"github.com/google/uuid"
)

// Session is a browser session owned by one run.
type Session interface {
	Browser
	Close() error
}

// SessionFactory opens a new browser session.
type SessionFactory func(ctx context.Context) (Session, error)

// App is the main application structure holding all dependencies.
type App struct {
	Config    *config.Config
	Selectors models.SelectorConfig
	// Repo archives runs; nil disables the archive.
	Repo *database.DBRepository

	logger     *slog.Logger
	newSession SessionFactory
	now        func() time.Time
}

// New creates an application instance.
func New(cfg *config.Config, sel models.SelectorConfig, repo *database.DBRepository, newSession SessionFactory, logger *slog.Logger) *App {
	return &App{
		Config:     cfg,
		Selectors:  sel,
		Repo:       repo,
		logger:     logger.With("component", "app"),
		newSession: newSession,
		now:        time.Now,
	}
}

// RunRequest is the user input of one scrape.
type RunRequest struct {
	// ShoppingList and Blacklist are raw list texts, one entry per line.
	ShoppingList string
	Blacklist    string
	Progress     models.ProgressFunc
}

// RunResult describes a finished scrape.
type RunResult struct {
	RunID   string
	Path    string
	Records int
	Table   *processor.Table
}

// Run scrapes every item of the shopping list and writes the spreadsheet.
// The browser session is closed before the output is produced, on every path.
func (a *App) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	progress := req.Progress
	if progress == nil {
		progress = func(models.Progress) {}
	}

	items := utils.ReadList(req.ShoppingList)
	if len(items) == 0 {
		return nil, models.ErrEmptyInput
	}
	orch, err := a.orchestrator()
	if err != nil {
		return nil, err
	}

	started := a.now()
	a.logger.Info("starting run", "items", len(items), "zip", a.Config.Scrape.ZIP)
	records, err := a.scrape(ctx, orch, items, progress)
	if err != nil {
		a.logger.Error("scrape failed", "error", err, "records", len(records))
		return nil, err
	}

	run := models.Run{ID: uuid.NewString(), StartedAt: started, ZIP: a.Config.Scrape.ZIP, Items: items, Records: len(records)}
	// Archive and output still happen if the caller cancels after scraping finished.
	ctx = context.WithoutCancel(ctx)
	if a.Repo != nil {
		if err := a.Repo.SaveRun(ctx, run, records); err != nil {
			a.logger.Warn("failed to archive run", "run_id", run.ID, "error", err)
		}
	}

	progress(models.Progress{Label: "Processing data", Percent: 90})
	table, err := processor.Transform(records, a.options(req.Blacklist))
	if err != nil {
		return nil, err
	}

	progress(models.Progress{Label: "Writing Excel file", Percent: 95})
	path, err := processor.Write(table, a.Config.Output.Dir, a.now())
	if err != nil {
		return nil, err
	}
	if a.Repo != nil {
		if err := a.Repo.SetRunOutput(ctx, run.ID, path); err != nil {
			a.logger.Warn("failed to record output path", "run_id", run.ID, "error", err)
		}
	}

	progress(models.Progress{Label: "Done", Percent: 100})
	a.logger.Info("run finished", "run_id", run.ID, "records", len(records), "rows", len(table.Rows), "path", path)
	return &RunResult{RunID: run.ID, Path: path, Records: len(records), Table: table}, nil
}

func (a *App) scrape(ctx context.Context, orch *Orchestrator, items []string, progress models.ProgressFunc) ([]models.RawRecord, error) {
	sess, err := a.newSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			a.logger.Warn("browser teardown failed", "error", err)
		}
	}()
	return orch.Scrape(ctx, sess, items, progress)
}

func (a *App) orchestrator() (*Orchestrator, error) {
	extractor, err := scraper.NewExtractor(a.Config.Site.ContainerSelector, a.Selectors)
	if err != nil {
		return nil, err
	}
	pag := scraper.NewPaginator(scraper.PaginatorConfig{
		SearchURL:         a.Config.Site.SearchURL,
		HeadlineSelector:  a.Config.Site.HeadlineSelector,
		ContainerSelector: a.Config.Site.ContainerSelector,
		LocationSelector:  a.Config.Site.LocationSelector,
		ZIP:               a.Config.Scrape.ZIP,
		HeadlineTimeout:   a.Config.Scrape.HeadlineTimeout,
		ListingTimeout:    a.Config.Scrape.ListingTimeout,
		PollInterval:      a.Config.Scrape.PollInterval,
		PageDelay:         a.Config.Scrape.PageDelay,
		MaxPages:          a.Config.Scrape.MaxPages,
		DumpDir:           a.Config.Scrape.DebugDumpDir,
	}, extractor, a.logger)
	return NewOrchestrator(pag, a.Config.Scrape.ZIP, a.logger), nil
}

func (a *App) options(blacklist string) processor.Options {
	return processor.Options{
		Blacklist:  utils.ReadList(blacklist),
		Similarity: a.Config.Scrape.SimilarityFilter,
		LowestBy:   models.LowestPriceKey(a.Config.Scrape.LowestPriceBy),
	}
}

// ListRuns returns archived runs, newest first.
func (a *App) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if a.Repo == nil {
		return nil, fmt.Errorf("run archive is disabled")
	}
	return a.Repo.ListRuns(ctx, limit)
}

// Export rebuilds the spreadsheet of an archived run with the current
// blacklist and ranking settings. An empty dir uses the configured output directory.
func (a *App) Export(ctx context.Context, runID, blacklist, dir string) (string, *processor.Table, error) {
	if a.Repo == nil {
		return "", nil, fmt.Errorf("run archive is disabled")
	}
	records, err := a.Repo.GetRunRecords(ctx, runID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	if dir == "" {
		dir = a.Config.Output.Dir
	}
	path, table, err := processor.Generate(records, a.options(blacklist), dir, a.now())
	if err != nil {
		return "", nil, err
	}
	a.logger.Info("run exported", "run_id", runID, "rows", len(table.Rows), "path", path)
	return path, table, nil
}
