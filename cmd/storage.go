package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/quill/internal/config"
)

var flagPruneOlderThan string

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old imported posts",
	Long: `Delete imported posts older than the retention period and reclaim disk space.
Posts written locally are never pruned.

Uses the retention value from config (default: 90d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.ErrOrStderr(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		retention := a.cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := config.ParseDays(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := a.store.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		out := cmd.OutOrStdout()
		if deleted == 0 {
			fmt.Fprintln(out, "Nothing to prune.")
		} else {
			fmt.Fprintf(out, "Pruned %d post(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.ErrOrStderr(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		dbPath := a.cfg.Database()
		st, err := a.store.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Database: %s\n", dbPath)
		fmt.Fprintf(out, "Posts: %d (%d published)\n", st.Posts, st.Published)
		fmt.Fprintf(out, "Comments: %d (%d pending)\n", st.Comments, st.Pending)
		fmt.Fprintf(out, "Size: %s\n", formatBytes(st.Size))
		if last := a.store.LastImport(); !last.IsZero() {
			fmt.Fprintf(out, "Last import: %s (%s ago)\n", last.Local().Format("2006-01-02 15:04"), formatDuration(time.Since(last)))
		} else {
			fmt.Fprintln(out, "Last import: never")
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
}

func formatDuration(d time.Duration) string {
	if days := int(d.Hours() / 24); days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	if h := int(d.Hours()); h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
