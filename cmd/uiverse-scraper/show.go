package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"uiverse-scraper/internal/catalog"
	"uiverse-scraper/internal/config"
)

func newShowCmd(configPath *string) *cobra.Command {
	var (
		top  int
		path string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the top-ranked components of a catalog file",
		Long: `Read the catalog JSON and list the components the gallery page would
render, ranked by snippet size.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				cfg, err := config.LoadConfig(resolveConfigPath(cmd, *configPath))
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				path = cfg.Run.OutputPath
			}

			cat, err := catalog.Read(path)
			if err != nil {
				return fmt.Errorf("failed to read catalog: %w", err)
			}

			ranked := catalog.Rank(cat.Items, top)
			if len(ranked) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No components available.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.SetColumnConfigs([]table.ColumnConfig{
				{Name: "Title", WidthMax: 40},
				{Name: "Score", Align: text.AlignRight},
			})
			t.AppendHeader(table.Row{"#", "ID", "Title", "HTML", "CSS", "Score", "Origin"})
			for i, item := range ranked {
				origin := ""
				if item.Provenance != nil {
					origin = fmt.Sprintf("%s/%s", item.Provenance.HTML, item.Provenance.CSS)
				}
				t.AppendRow(table.Row{
					i + 1, item.ID, item.Title, len(item.HTML), len(item.CSS), catalog.Score(item), origin,
				})
			}
			t.AppendFooter(table.Row{"", "", "", "", "", "scraped", cat.ScrapedAt.Format("2006-01-02 15:04")})
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 5, "number of components to list (0 lists all)")
	cmd.Flags().StringVar(&path, "catalog", "", "catalog file (defaults to run.output_path)")

	return cmd
}
