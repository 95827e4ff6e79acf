package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"FlyerScraper/internal/models"
	"FlyerScraper/pkg/config"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var selectorsForce bool

func selectorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selectors",
		Short: "Manage the HTML selectors used to read offers",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default selectors to selectors_file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.closeLog()

			path := e.cfg.SelectorsFile
			if _, err := os.Stat(path); err == nil && !selectorsForce {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.SaveSelectors(path, models.DefaultSelectors()); err != nil {
				return err
			}
			fmt.Printf("Settings saved to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&selectorsForce, "force", "f", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that every selector is set and compiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.closeLog()

			sel, err := config.LoadSelectors(e.cfg.SelectorsFile)
			if err != nil {
				return err
			}

			fields := sel.ByField()
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Field", "Selector"})
			for _, name := range names {
				t.AppendRow(table.Row{name, fields[name]})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			fmt.Println("Selectors OK")
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
