package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/quill/internal/config"
	"github.com/matheuskafuri/quill/internal/feed"
	"github.com/matheuskafuri/quill/internal/metrics"
	"github.com/matheuskafuri/quill/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagSince   string
	flagRefresh bool
	flagConfig  string
	flagEnvFile string
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Blog content engine",
	Long: `quill stores blog posts, imports them from RSS and Atom feeds, and serves
them through a JSON API with listing, related posts and threaded comments.

Run without a subcommand to open the terminal reader.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnv(flagEnvFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "environment file with QUILL_* overrides")
	rootCmd.Flags().StringVar(&flagSince, "since", "", "only show posts from the last duration (e.g., 7d, 24h)")
	rootCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "import feeds before launching")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(featureCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(moderateCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

// app bundles what most commands need: the loaded config, an open store and
// a logger.
type app struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// setup loads the config and opens the store. Logs go to w, as JSON when
// jsonLogs is set.
func setup(w io.Writer, jsonLogs bool) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := store.Open(cfg.Database())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &app{cfg: cfg, store: db, logger: newLogger(w, cfg.SlogLevel(), jsonLogs)}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// importer builds a feed importer over the enabled sources that records its
// runs in the metrics registry. Items older than the retention period are
// skipped so an import never brings back what prune removed.
func (a *app) importer(logger *slog.Logger) *feed.Importer {
	fetcher := feed.NewRSSFetcher()
	fetcher.MaxAge = a.cfg.RetentionDuration()
	return &feed.Importer{
		Fetcher:  fetcher,
		Sink:     a.store,
		Sources:  a.cfg.EnabledSources(),
		Logger:   logger,
		OnImport: metrics.RecordImport,
	}
}

func newLogger(w io.Writer, level slog.Level, jsonLogs bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "quill %s (commit: %s, built: %s)\n", version, commit, date)
		if res := checkUpdate(cmd.Context()); res != "" {
			fmt.Fprintf(out, "Update available: v%s\n", res)
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
