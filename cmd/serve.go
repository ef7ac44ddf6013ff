package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/quill/internal/scheduler"
	"github.com/matheuskafuri/quill/internal/server"
)

var (
	flagServeAddr     string
	flagServeNoImport bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Serve the blog API over HTTP and import feeds on the configured schedule.

The listen address comes from server.addr (or QUILL_ADDR) unless --addr is
given. Prometheus metrics are exposed at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.OutOrStdout(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		addr := a.cfg.Server.Addr
		if flagServeAddr != "" {
			addr = flagServeAddr
		}

		if !flagServeNoImport && len(a.cfg.EnabledSources()) > 0 && a.cfg.Server.ImportSchedule != "" {
			sched, err := importScheduler(a)
			if err != nil {
				return err
			}
			sched.Start(ctx)
			defer sched.Stop()

			if a.store.NeedsImport(a.cfg.RefreshDuration()) {
				sched.Trigger()
			}
		}

		srv, err := server.New(server.Options{
			Store:        a.store,
			Logger:       a.logger,
			PageSize:     a.cfg.PageSize,
			RelatedCount: a.cfg.RelatedCount,
			CORSOrigins:  a.cfg.Server.CORSOrigins,
			Version:      version,
		})
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		return srv.ListenAndServe(ctx, addr)
	},
}

// importScheduler runs a feed import followed by a retention prune on the
// configured schedule.
func importScheduler(a *app) (*scheduler.Scheduler, error) {
	im := a.importer(a.logger)
	retention := a.cfg.RetentionDuration()
	return scheduler.New("import", a.cfg.Server.ImportSchedule, func(ctx context.Context) error {
		if _, err := im.Run(ctx); err != nil {
			return err
		}
		deleted, err := a.store.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}
		if deleted > 0 {
			a.logger.Info("pruned old posts", "deleted", deleted)
		}
		return nil
	}, a.logger)
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&flagServeNoImport, "no-import", false, "disable scheduled feed imports")
}
