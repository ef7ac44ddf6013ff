package cmd

import "github.com/spf13/cobra"

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Open the post browser directly",
	Long:  "Open quill in browse mode, skipping the home screen.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, true)
	},
}

func init() {
	browseCmd.Flags().StringVar(&flagSince, "since", "", "only show posts from the last duration (e.g., 7d, 24h)")
	browseCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "import feeds before launching")
}
