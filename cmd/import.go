package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var flagImportNoPrune bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import posts from the configured feeds",
	Long: `Fetch every enabled source and store its posts. Existing posts keep their
view counts, featured flag and publication status. Items older than the
retention period are skipped, and old imported posts are pruned afterwards
unless --no-prune is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.ErrOrStderr(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		sources := a.cfg.EnabledSources()
		if len(sources) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No enabled sources.")
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		result, err := a.importer(a.logger).Run(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  [warn] %v\n", e)
		}
		fmt.Fprintf(out, "Imported %d post(s) from %d source(s).\n", len(result.Posts), len(sources)-len(result.Errors))

		if flagImportNoPrune {
			return nil
		}
		deleted, err := a.store.Prune(a.cfg.RetentionDuration())
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}
		if deleted > 0 {
			fmt.Fprintf(out, "Pruned %d post(s) older than %s.\n", deleted, formatDuration(a.cfg.RetentionDuration()))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&flagImportNoPrune, "no-prune", false, "keep posts older than the retention period")
}
