package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"doubanlink/internal/app"
	"doubanlink/internal/config"
	"doubanlink/internal/logging"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is the service surface commands consume. Keeping it an interface lets
// command tests inject a stub instead of building real services.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
}

// newApp is the application factory. It is a variable so tests can swap in
// a stub factory.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.ConfigFileUsed != "" {
		logger.Debug("config file loaded", zap.String("path", cfg.ConfigFileUsed))
	}
	return app.New(cfg, logger), nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doubanlink",
		Short: "Links the Douban Top 250 chart to TMDB",
		Long: `doubanlink scrapes the Douban Top 250 movie chart, matches every entry
against TMDB with a cascading title search, and writes the catalog, a
Kometa collection file, and a merged dataset.`,
		SilenceUsage: true,

		// Runs before every subcommand; builds the services and stores them
		// in the command context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// Ensures services shut down after the subcommand finishes.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./doubanlink.yaml)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newMatchCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}
