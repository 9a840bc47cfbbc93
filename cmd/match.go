package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"doubanlink/internal/catalog"
	"doubanlink/internal/clock/system"
	"doubanlink/internal/config"
	"doubanlink/internal/id/uuid"
	"doubanlink/internal/pipeline"
	"doubanlink/internal/progress"
	"doubanlink/internal/progress/sinks"
	"doubanlink/internal/resolve"
	"doubanlink/internal/tmdb"
)

// newMatchCmd creates and configures the 'match' subcommand.
func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Links catalog entries to TMDB IDs",
		Long: `Reads the scraped catalog, resolves every movie against TMDB with a
cascading title search, and writes the Kometa collection file plus a list
of entries that could not be matched.`,

		RunE: runMatchCommand,
	}
	return cmd
}

func runMatchCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	doc, err := catalog.ReadDocument(cfg.Output.Catalog)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded",
		zap.String("path", cfg.Output.Catalog),
		zap.Int("movies", len(doc.List.Movies)),
	)

	linked, report, err := matchCatalog(cmd.Context(), cfg, logger, doc.List.Movies)
	if err != nil {
		return err
	}
	if _, err := writeMatchArtifacts(cfg, logger, linked, report); err != nil {
		return err
	}

	printMatchSummary(cmd.OutOrStdout(), logger, report)
	return nil
}

// matchCatalog assembles the resolver stack and drives the linking run.
func matchCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger, movies []catalog.Movie) ([]catalog.Movie, pipeline.Report, error) {
	if cfg.TMDB.APIKey == "" {
		return nil, pipeline.Report{}, errors.New("tmdb.api_key is required; set DOUBANLINK_TMDB_API_KEY or TMDB_API_KEY")
	}

	client := tmdb.NewClient(cfg.TMDB.APIKey,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithHTTPClient(&http.Client{Timeout: cfg.TMDB.RequestTimeout}),
		tmdb.WithRetryMax(cfg.TMDB.RetryMax),
	)
	resolver := resolve.New(pipeline.NewTMDBProvider(client),
		resolve.WithObserver(pipeline.NewCandidateLogger(logger)),
		resolve.WithExcludedGenres(cfg.TMDB.ExcludedGenres),
	)

	hub := progress.NewHub(progress.Config{Logger: logger}, sinks.NewLogSink(logger))
	defer func() {
		if cerr := hub.Close(context.Background()); cerr != nil {
			logger.Warn("failed to close progress hub", zap.Error(cerr))
		}
	}()

	driver := pipeline.NewDriver(
		pipeline.Config{EntryDelay: cfg.Match.EntryDelay},
		resolver,
		hub,
		system.New(),
		uuid.New(),
		logger,
	)
	return driver.Run(ctx, movies)
}

// writeMatchArtifacts writes the Kometa collection and, when there are
// misses, the not-found list. It returns the title-to-ID links for reuse.
func writeMatchArtifacts(cfg config.Config, logger *zap.Logger, linked []catalog.Movie, report pipeline.Report) (map[string]int64, error) {
	kometa := catalog.NewKometaDocument(linked)
	if err := kometa.Write(cfg.Output.Kometa); err != nil {
		return nil, fmt.Errorf("write kometa: %w", err)
	}
	logger.Info("kometa collection written",
		zap.String("path", cfg.Output.Kometa),
		zap.Int("movies", report.Matched),
	)

	if len(report.Unmatched) > 0 {
		if err := catalog.WriteNotFound(cfg.Output.NotFound, report.Unmatched); err != nil {
			return nil, fmt.Errorf("write misses: %w", err)
		}
		logger.Info("misses written",
			zap.String("path", cfg.Output.NotFound),
			zap.Int("count", len(report.Unmatched)),
		)
	}
	return kometa.Links(), nil
}

func printMatchSummary(out io.Writer, logger *zap.Logger, report pipeline.Report) {
	if !isTerminal(out) {
		logger.Info("match summary",
			zap.Int("total", report.Total),
			zap.Int("matched", report.Matched),
			zap.Int("failed", report.Failed),
			zap.String("match_rate", fmt.Sprintf("%.1f%%", report.MatchRate())),
			zap.Duration("elapsed", report.Elapsed),
		)
		return
	}

	rows := [][]string{
		{"Total", strconv.Itoa(report.Total)},
		{"Matched", strconv.Itoa(report.Matched)},
		{"Failed", strconv.Itoa(report.Failed)},
		{"Match rate", fmt.Sprintf("%.1f%%", report.MatchRate())},
		{"Elapsed", report.Elapsed.Round(time.Second).String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(report.Unmatched) > 0 {
		fmt.Fprintf(out, "Unmatched (%d):\n", len(report.Unmatched))
		preview := report.Unmatched
		if len(preview) > 5 {
			preview = preview[:5]
		}
		for _, miss := range preview {
			fmt.Fprintln(out, " -", miss)
		}
		if rest := len(report.Unmatched) - len(preview); rest > 0 {
			fmt.Fprintf(out, " ... and %d more\n", rest)
		}
	}
}
