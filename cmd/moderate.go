package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/quill/internal/content"
	"github.com/matheuskafuri/quill/internal/post"
	"github.com/matheuskafuri/quill/internal/store"
)

var flagModerateStatus string

var moderateCmd = &cobra.Command{
	Use:   "moderate",
	Short: "List comments awaiting moderation",
	Long: `List comments by moderation status. Pending comments are shown unless
--status asks for approved or rejected ones.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := post.ParseCommentStatus(flagModerateStatus)
		if err != nil {
			return err
		}

		a, err := setup(cmd.ErrOrStderr(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		comments, err := a.store.Comments(store.CommentQuery{Status: status})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(comments) == 0 {
			if status == post.CommentPending {
				fmt.Fprintln(out, "No comments awaiting moderation.")
			} else {
				fmt.Fprintf(out, "No %s comments.\n", status)
			}
			return nil
		}
		for _, c := range comments {
			fmt.Fprintf(out, "%s  %s  %s <%s>\n", c.ID, c.CreatedAt.Format("2006-01-02 15:04"), c.AuthorName, c.AuthorEmail)
			fmt.Fprintf(out, "  on %s", c.PostID)
			if c.ParentID != "" {
				fmt.Fprintf(out, " in reply to %s", c.ParentID)
			}
			fmt.Fprintf(out, "\n  %s\n\n", content.Truncate(c.Content, 200))
		}
		if status != post.CommentPending {
			fmt.Fprintf(out, "%d comment(s) %s.\n", len(comments), status)
			return nil
		}
		fmt.Fprintf(out, "%d comment(s) pending. Use 'quill moderate approve <id>' or 'quill moderate reject <id>'.\n", len(comments))
		return nil
	},
}

func moderationCmd(use, short string, status post.CommentStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			var errs []error
			for _, id := range args {
				err := a.store.SetCommentStatus(id, status)
				switch {
				case errors.Is(err, store.ErrNotFound):
					errs = append(errs, fmt.Errorf("comment %q not found", id))
				case err != nil:
					errs = append(errs, err)
				default:
					fmt.Fprintf(out, "%s %s\n", id, status)
				}
			}
			return errors.Join(errs...)
		},
	}
}

func init() {
	moderateCmd.Flags().StringVar(&flagModerateStatus, "status", string(post.CommentPending), "comment status to list: pending, approved or rejected")
	moderateCmd.AddCommand(moderationCmd("approve", "Approve comments", post.CommentApproved))
	moderateCmd.AddCommand(moderationCmd("reject", "Reject comments", post.CommentRejected))
}
