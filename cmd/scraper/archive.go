package main

import (
	"fmt"
	"os"
	"strings"

	"FlyerScraper/internal/app"
	"FlyerScraper/internal/database"
	"FlyerScraper/internal/models"
	"FlyerScraper/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	exportDir     string
	historyLimit  int
	exportLowest  string
	exportSimilar bool
)

// openArchive builds an App that only serves archived runs; it never opens a browser.
func openArchive(e *env) (*app.App, func() error, error) {
	repo, err := database.InitDB(e.cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	return app.New(e.cfg, models.SelectorConfig{}, repo, nil, e.logger), repo.Close, nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Rebuild the spreadsheet of an archived run with the current blacklist and settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.closeLog()
			if exportLowest != "" {
				e.cfg.Scrape.LowestPriceBy = exportLowest
			}
			if cmd.Flags().Changed("similar") {
				e.cfg.Scrape.SimilarityFilter = exportSimilar
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			a, closeRepo, err := openArchive(e)
			if err != nil {
				return err
			}
			defer closeRepo()

			blacklist, err := utils.LoadListFile(e.cfg.Output.Blacklist)
			if err != nil {
				return err
			}
			path, t, err := a.Export(cmd.Context(), args[0], blacklist, exportDir)
			if err != nil {
				return err
			}
			printTable(t, 25)
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&exportDir, "output", "o", "", "output directory (default output.dir)")
	cmd.Flags().StringVar(&exportLowest, "lowest-by", "", "group lowest prices by 'Item' or 'Name'")
	cmd.Flags().BoolVar(&exportSimilar, "similar", false, "keep only offers whose name ends with the search term")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.closeLog()

			a, closeRepo, err := openArchive(e)
			if err != nil {
				return err
			}
			defer closeRepo()

			runs, err := a.ListRuns(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Run", "Started", "ZIP", "Items", "Offers", "Spreadsheet"})
			for _, r := range runs {
				t.AppendRow(table.Row{r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.ZIP, strings.Join(r.Items, ", "), r.Records, r.Output})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show (0 = all)")
	return cmd
}
