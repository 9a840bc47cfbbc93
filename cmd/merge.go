package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"doubanlink/internal/catalog"
	"doubanlink/internal/config"
)

// newMergeCmd creates and configures the 'merge' subcommand.
func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merges the catalog with the Kometa links",
		Long: `Joins the scraped catalog with the linked IDs from the Kometa
collection file and writes the complete dataset. A missing collection file
is tolerated; the merged output then simply carries no links.`,

		RunE: runMergeCommand,
	}
	return cmd
}

func runMergeCommand(cmd *cobra.Command, _ []string) error {
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

	links := map[string]int64{}
	kometa, err := catalog.ReadKometaDocument(cfg.Output.Kometa)
	if err != nil {
		logger.Warn("kometa collection unavailable, merging without links", zap.Error(err))
	} else {
		links = kometa.Links()
	}

	merged, err := writeMerged(cfg, logger, doc.List.Movies, links)
	if err != nil {
		return err
	}

	printMergeSummary(cmd.OutOrStdout(), logger, merged)
	return nil
}

func writeMerged(cfg config.Config, logger *zap.Logger, movies []catalog.Movie, links map[string]int64) (catalog.MergedDocument, error) {
	merged := catalog.Merge(movies, links)
	if err := merged.Write(cfg.Output.Merged); err != nil {
		return catalog.MergedDocument{}, fmt.Errorf("write merged: %w", err)
	}
	logger.Info("merged dataset written",
		zap.String("path", cfg.Output.Merged),
		zap.Int("total", merged.Data.TotalCount),
		zap.Int("matched", merged.Data.MatchedCount),
	)
	return merged, nil
}

func printMergeSummary(out io.Writer, logger *zap.Logger, merged catalog.MergedDocument) {
	rate := 0.0
	if merged.Data.TotalCount > 0 {
		rate = float64(merged.Data.MatchedCount) / float64(merged.Data.TotalCount) * 100
	}

	if !isTerminal(out) {
		logger.Info("merge summary",
			zap.Int("total", merged.Data.TotalCount),
			zap.Int("matched", merged.Data.MatchedCount),
			zap.String("match_rate", fmt.Sprintf("%.1f%%", rate)),
		)
		return
	}

	rows := [][]string{
		{"Total", strconv.Itoa(merged.Data.TotalCount)},
		{"Matched", strconv.Itoa(merged.Data.MatchedCount)},
		{"Match rate", fmt.Sprintf("%.1f%%", rate)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

	preview := merged.Data.Movies
	if len(preview) > 5 {
		preview = preview[:5]
	}
	for _, m := range preview {
		mark, id := "✗", "n/a"
		if m.TMDBID != 0 {
			mark, id = "✓", strconv.FormatInt(m.TMDBID, 10)
		}
		fmt.Fprintf(out, " %s [%d] %s -> TMDB %s\n", mark, m.Rank, m.TitleCN, id)
	}
}
