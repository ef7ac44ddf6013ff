package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/quill/internal/config"
	"github.com/matheuskafuri/quill/internal/tui"
	"github.com/matheuskafuri/quill/internal/update"
)

// checkUpdate returns the newer release version, or "" for development
// builds and failed checks.
func checkUpdate(ctx context.Context) string {
	if version == "dev" {
		return ""
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if res := update.Check(ctx, version); res != nil {
		return res.LatestVersion
	}
	return ""
}

func runApp(cmd *cobra.Command, browse bool) error {
	out := cmd.OutOrStdout()
	a, err := setup(cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	updates := make(chan string, 1)
	go func() { updates <- checkUpdate(cmd.Context()) }()

	if flagRefresh || a.store.NeedsImport(a.cfg.RefreshDuration()) {
		fmt.Fprintln(out, "Importing feeds...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		result, err := a.importer(a.logger).Run(ctx)
		cancel()

		for _, e := range result.Errors {
			fmt.Fprintf(out, "  [warn] %v\n", e)
		}
		if err != nil {
			return err
		}

		if _, err := a.store.Prune(a.cfg.RetentionDuration()); err != nil {
			a.logger.Warn("pruning after import failed", "error", err)
		}
	}

	var since time.Time
	if flagSince != "" {
		d, err := config.ParseDays(flagSince)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		since = time.Now().Add(-d)
	}

	var latest string
	select {
	case latest = <-updates:
	case <-time.After(time.Second):
	}

	return tui.Run(tui.RunOpts{
		Store: a.store,
		// Logs would draw over the alternate screen.
		Importer:      a.importer(slog.New(slog.DiscardHandler)),
		PageSize:      a.cfg.PageSize,
		RelatedCount:  a.cfg.RelatedCount,
		BaseURL:       a.cfg.Site.BaseURL,
		UpdateVersion: latest,
		Since:         since,
		BrowseMode:    browse,
	})
}
