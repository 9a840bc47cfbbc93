package cmd

import (
	"github.com/spf13/cobra"
)

// newRunCmd creates and configures the 'run' subcommand.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawls, matches, and merges in one pass",
		Long: `Runs the full pipeline: scrape the chart, link every entry to TMDB,
and write the catalog, the Kometa collection, the miss list, and the
merged dataset.`,

		RunE: runRunCommand,
	}
	return cmd
}

func runRunCommand(cmd *cobra.Command, _ []string) error {
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
	if err := writeCatalog(cfg, logger, movies); err != nil {
		return err
	}

	linked, report, err := matchCatalog(cmd.Context(), cfg, logger, movies)
	if err != nil {
		return err
	}
	links, err := writeMatchArtifacts(cfg, logger, linked, report)
	if err != nil {
		return err
	}

	merged, err := writeMerged(cfg, logger, movies, links)
	if err != nil {
		return err
	}

	printMatchSummary(cmd.OutOrStdout(), logger, report)
	printMergeSummary(cmd.OutOrStdout(), logger, merged)
	return nil
}
