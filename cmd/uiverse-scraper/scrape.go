package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"uiverse-scraper/internal/app"
	"uiverse-scraper/internal/browser"
	"uiverse-scraper/internal/config"
	"uiverse-scraper/internal/discovery"
	"uiverse-scraper/internal/fetcher"
	"uiverse-scraper/internal/observability"
	"uiverse-scraper/internal/storage"
	"uiverse-scraper/internal/storage/mssql"
	"uiverse-scraper/internal/storage/postgres"
)

type scrapeFlags struct {
	seedsOnly bool
	output    string
}

func newScrapeCmd(configPath *string) *cobra.Command {
	var flags scrapeFlags

	cmd := &cobra.Command{
		Use:   "scrape [count]",
		Short: "Scrape component pages into the catalog file",
		Long: `Discover component pages from the listing (or the seed list), open each
one in headless Chrome, extract its HTML and CSS and write the catalog JSON.
The count is clamped to 1..10.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, resolveConfigPath(cmd, *configPath), args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.seedsOnly, "seeds-only", false, "skip discovery and use the seed list")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "catalog output path (overrides run.output_path)")

	return cmd
}

func runScrape(cmd *cobra.Command, configPath string, args []string, flags scrapeFlags) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	count := cfg.Run.DefaultCount
	if len(args) == 1 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			count = n
		}
	}

	logger, err := observability.NewLogger(cfg.LogOptions())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	vocab, err := config.LoadVocabulary(cfg.VocabularyPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load selectors: %w", err)
	}

	ctx, cancel := app.GracefulShutdown(cmd.Context(), logger, cfg.GetMaxRun())
	defer cancel()

	b, err := browser.Launch(ctx, cfg.BrowserOptions(vocab), logger)
	if err != nil {
		logger.Error("Browser launch failed", "error", err.Error())
		return fmt.Errorf("%w (install Chrome or set rod.chrome_path)", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close browser", "error", err.Error())
		}
	}()

	var source discovery.ListingSource
	switch cfg.Discovery.Mode {
	case "browser":
		source = b
	case "http":
		source = fetcher.NewFetcher(cfg, logger)
	}

	disc, err := discovery.NewDiscoverer(source, cfg.DiscoveryOptions(), logger)
	if err != nil {
		return fmt.Errorf("failed to set up discovery: %w", err)
	}

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	if repo != nil {
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Warn("Failed to close storage", "error", err.Error())
			}
		}()
	}

	orch := app.NewOrchestrator(cfg, logger, app.BrowserSession(b), disc, repo, observability.NewMetrics())
	opts := app.RunOptions{
		Count:      count,
		SeedsOnly:  flags.seedsOnly,
		OutputPath: flags.output,
	}

	return app.Schedule(ctx, cfg, logger, func(ctx context.Context) error {
		stats, err := orch.Run(ctx, opts)
		if err != nil {
			return err
		}
		printStats(cmd, stats)
		return nil
	})
}

func openRepository(ctx context.Context, cfg *config.Config, logger *observability.Logger) (storage.Repository, error) {
	var (
		repo storage.Repository
		err  error
	)
	switch cfg.Storage.Driver {
	case "mssql":
		repo, err = mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	case "postgres":
		repo, err = postgres.NewRepository(ctx, cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}

	n, err := repo.GetItemCount(ctx)
	if err != nil {
		logger.Warn("Failed to count stored components", "error", err.Error())
	} else {
		logger.Info("Storage ready", "driver", cfg.Storage.Driver, "stored", n)
	}
	return repo, nil
}

func printStats(cmd *cobra.Command, stats *app.RunStats) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Requested", "Attempted", "Succeeded", "Empty", "Failed", "Timed out", "Replaced"})
	t.AppendRow(table.Row{
		stats.Requested, stats.Attempted, stats.Succeeded, stats.Empty,
		stats.Failed, stats.TimedOut, stats.Replaced,
	})
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "Catalog written to %s in %s\n", stats.OutputPath, stats.Duration.Round(time.Millisecond))
}
