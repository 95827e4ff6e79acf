package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"FlyerScraper/internal/app"
	"FlyerScraper/internal/database"
	"FlyerScraper/internal/models"
	"FlyerScraper/internal/processor"
	"FlyerScraper/internal/scraper/marktguru"
	"FlyerScraper/pkg/config"
	"FlyerScraper/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	runZIP       string
	runLowestBy  string
	runSimilar   bool
	runHeadful   bool
	runMaxPages  int
	runNoArchive bool
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape every item of the shopping list and write the spreadsheet",
		Long: `Reads the shopping list and blacklist files, scrapes all result pages of
every item in one browser session and writes <date>_<suffix>.xlsx into the
output directory. Missing list files are created empty.`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}

	cmd.Flags().StringVar(&runZIP, "zip", "", "delivery ZIP code (overrides scrape.zip)")
	cmd.Flags().StringVar(&runLowestBy, "lowest-by", "", "group lowest prices by 'Item' or 'Name'")
	cmd.Flags().BoolVar(&runSimilar, "similar", false, "keep only offers whose name ends with the search term")
	cmd.Flags().BoolVar(&runHeadful, "show-browser", false, "run Chrome with a visible window")
	cmd.Flags().IntVar(&runMaxPages, "max-pages", -1, "stop each item after this many pages (0 = no limit)")
	cmd.Flags().BoolVar(&runNoArchive, "no-archive", false, "do not store the run in the archive")

	return cmd
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	if runZIP != "" {
		cfg.Scrape.ZIP = runZIP
	}
	if runLowestBy != "" {
		cfg.Scrape.LowestPriceBy = runLowestBy
	}
	if cmd.Flags().Changed("similar") {
		cfg.Scrape.SimilarityFilter = runSimilar
	}
	if runHeadful {
		cfg.Browser.Headless = false
	}
	if runMaxPages >= 0 {
		cfg.Scrape.MaxPages = runMaxPages
	}
	return cfg.Validate()
}

func runScrape(cmd *cobra.Command, _ []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.closeLog()
	if err := applyRunFlags(cmd, e.cfg); err != nil {
		return err
	}

	sel, err := config.LoadSelectors(e.cfg.SelectorsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w (create one with 'flyerscraper selectors init')", err)
		}
		return err
	}

	shopping, err := utils.LoadListFile(e.cfg.Output.ShoppingList)
	if err != nil {
		return err
	}
	blacklist, err := utils.LoadListFile(e.cfg.Output.Blacklist)
	if err != nil {
		return err
	}

	var repo *database.DBRepository
	if !runNoArchive && e.cfg.Storage.Path != "" {
		repo, err = database.InitDB(e.cfg.Storage.Path)
		if err != nil {
			e.logger.Warn("run archive unavailable", "error", err)
			repo = nil
		} else {
			defer repo.Close()
		}
	}

	newSession := func(ctx context.Context) (app.Session, error) {
		s, err := marktguru.Launch(ctx, e.cfg.Browser, e.cfg.Site, e.logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	application := app.New(e.cfg, sel, repo, newSession, e.logger)

	updates := make(chan models.Progress, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for p := range updates {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s%s%s\n", p.Percent, p.Label, p.Sep, p.Detail)
		}
	}()

	res, err := application.Run(cmd.Context(), app.RunRequest{
		ShoppingList: shopping,
		Blacklist:    blacklist,
		Progress:     app.ProgressChannel(updates),
	})
	close(updates)
	wg.Wait()

	if err != nil {
		return errors.New(models.UserMessage(err))
	}

	printTable(res.Table, 25)
	fmt.Printf("%s: %s (%d offers scraped, run %s)\n", models.UserMessage(nil), res.Path, res.Records, res.RunID)
	return nil
}

// printTable renders up to limit rows of t.
func printTable(t *processor.Table, limit int) {
	w := table.NewWriter()
	w.SetOutputMirror(os.Stdout)
	w.AppendHeader(table.Row{"Store", "Item", "Name", "Brand", "Price", "Unit", "Lowest"})
	for i, r := range t.Rows {
		if i == limit {
			w.AppendFooter(table.Row{"", "", fmt.Sprintf("... %d more", len(t.Rows)-limit)})
			break
		}
		w.AppendRow(table.Row{r.Store, r.Item, r.Name, r.Brand, fmt.Sprintf("%.2f", r.Price), r.Unit, r.Lowest})
	}
	w.SetStyle(table.StyleRounded)
	w.Render()
}
