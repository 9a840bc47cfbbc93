// Package cmd defines and implements the CLI commands for the doubanlink
// executable.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"doubanlink/internal/catalog"
	"doubanlink/internal/config"
	"doubanlink/internal/douban"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Scrapes the Douban Top 250 chart",
		Long: `Fetches every chart page, parses the movie entries, and writes the
catalog YAML. Pages that look like anti-bot shells are retried with a
headless browser when douban.headless is enabled.`,

		RunE: runCrawlCommand,
	}
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	movies, err := crawlChart(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	return writeCatalog(cfg, logger, movies)
}

// crawlChart builds the scraper from configuration and runs it.
func crawlChart(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]catalog.Movie, error) {
	scraperCfg := douban.Config{
		BaseURL:        cfg.Douban.BaseURL,
		UserAgent:      cfg.Douban.UserAgent,
		Pages:          cfg.Douban.Pages,
		PageSize:       cfg.Douban.PageSize,
		PageDelay:      cfg.Douban.PageDelay,
		RequestTimeout: cfg.Douban.RequestTimeout,
	}
	fetcher := douban.NewCollyFetcher(scraperCfg, logger)
	detector := douban.NewHeuristicDetector(
		cfg.Douban.DetectorMinBytes,
		[]string{"div.item"},
		cfg.Douban.BlockKeywords,
	)

	renderer, closeRenderer, err := buildRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closeRenderer()

	scraper := douban.NewScraper(scraperCfg, fetcher, renderer, detector, logger)
	movies, err := scraper.Scrape(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape chart: %w", err)
	}
	return movies, nil
}

// buildRenderer starts headless Chrome when the fallback is enabled. A nil
// renderer just means blocked pages are skipped instead of rendered.
func buildRenderer(cfg config.Config, logger *zap.Logger) (douban.Renderer, func(), error) {
	if !cfg.Douban.Headless {
		return nil, func() {}, nil
	}
	renderer, err := douban.NewChromedpRenderer(cfg.Douban.UserAgent, cfg.Douban.HeadlessNavTimeout, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init renderer: %w", err)
	}
	closeRenderer := func() {
		if cerr := renderer.Close(); cerr != nil {
			logger.Warn("failed to close renderer", zap.Error(cerr))
		}
	}
	return renderer, closeRenderer, nil
}

func writeCatalog(cfg config.Config, logger *zap.Logger, movies []catalog.Movie) error {
	doc := catalog.NewDocument(movies)
	if err := doc.Write(cfg.Output.Catalog); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	logger.Info("catalog written",
		zap.String("path", cfg.Output.Catalog),
		zap.Int("movies", len(movies)),
	)
	return nil
}
