package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/quill/internal/collection"
	"github.com/matheuskafuri/quill/internal/content"
	"github.com/matheuskafuri/quill/internal/post"
	"github.com/matheuskafuri/quill/internal/related"
	"github.com/matheuskafuri/quill/internal/store"
)

var (
	flagListSearch   string
	flagListCategory string
	flagListTags     []string
	flagListSort     string
	flagListOrder    string
	flagListPage     int
	flagListPageSize int

	flagRelatedLimit   int
	flagRelatedExplain bool

	flagPublishStatus string
	flagFeatureOff    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published posts",
	Long: `List published posts with optional search, category and tag filters.

Sort fields: date, title, popularity, readingTime. Title sorts ascending by
default; every other field sorts descending.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sort, err := collection.ParseSortField(flagListSort)
		if err != nil {
			return err
		}
		order, err := collection.ParseSortOrder(flagListOrder)
		if err != nil {
			return err
		}

		a, err := setup(cmd.ErrOrStderr(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		pool, err := a.store.Posts(store.QueryOpts{Status: post.Published})
		if err != nil {
			return err
		}

		size := flagListPageSize
		if size == 0 {
			size = a.cfg.PageSize
		}
		page := collection.View(pool, collection.ViewParams{
			Search:   flagListSearch,
			Category: flagListCategory,
			Tags:     flagListTags,
			Sort:     sort,
			Order:    order,
			Page:     flagListPage,
			PageSize: size,
		})

		out := cmd.OutOrStdout()
		if page.Total == 0 {
			fmt.Fprintln(out, "No posts found.")
			return nil
		}
		for _, p := range page.Posts {
			printPostLine(out, p)
		}
		if page.From == 0 {
			fmt.Fprintf(out, "\nPage %d is past the last page (%d).\n", page.Page, page.TotalPages)
			return nil
		}
		fmt.Fprintf(out, "\nShowing %d-%d of %d posts (page %d of %d)\n",
			page.From, page.To, page.Total, page.Page, page.TotalPages)
		return nil
	},
}

func printPostLine(w io.Writer, p post.Post) {
	category := "-"
	if len(p.Categories) > 0 {
		category = p.Categories[0].Name
	}
	mark := " "
	if p.IsFeatured {
		mark = "*"
	}
	fmt.Fprintf(w, "%s %-48s %-18s %s %3d min %6d views\n",
		mark,
		content.Truncate(p.Title, 45),
		content.Truncate(category, 15),
		p.EffectiveDate().Format("2006-01-02"),
		content.ReadingTime(p.Content),
		p.ViewCount,
	)
	fmt.Fprintf(w, "  %s\n", p.Slug)
}

var relatedCmd = &cobra.Command{
	Use:   "related <slug>",
	Short: "Show posts related to a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.ErrOrStderr(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		ref, err := a.store.PostBySlug(args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("post %q not found", args[0])
		}
		if err != nil {
			return err
		}
		pool, err := a.store.Posts(store.QueryOpts{Status: post.Published})
		if err != nil {
			return err
		}

		limit := flagRelatedLimit
		if limit <= 0 {
			limit = a.cfg.RelatedCount
		}

		out := cmd.OutOrStdout()
		scored := related.RankScored(ref, pool, limit, time.Now())
		if len(scored) == 0 {
			fmt.Fprintln(out, "No related posts.")
			return nil
		}
		for _, s := range scored {
			printPostLine(out, s.Post)
			if flagRelatedExplain {
				b := s.Breakdown
				fmt.Fprintf(out, "  score %.2f = categories %.1f + tags %.1f + author %.1f + length %.2f + recency %.2f + popularity %.2f + featured %.1f\n",
					b.Final, b.Categories, b.Tags, b.Author, b.Length, b.Recency, b.Popularity, b.Featured)
			}
		}
		return nil
	},
}

// postByRef resolves a post id or slug.
func postByRef(s *store.Store, ref string) (post.Post, error) {
	p, err := s.PostByID(ref)
	if errors.Is(err, store.ErrNotFound) {
		p, err = s.PostBySlug(ref)
	}
	if errors.Is(err, store.ErrNotFound) {
		return p, fmt.Errorf("post %q not found", ref)
	}
	return p, err
}

var publishCmd = &cobra.Command{
	Use:   "publish <id|slug>",
	Short: "Change the publication status of a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := post.ParseStatus(flagPublishStatus)
		if err != nil {
			return err
		}

		a, err := setup(cmd.ErrOrStderr(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := postByRef(a.store, args[0])
		if err != nil {
			return err
		}
		if err := a.store.SetStatus(p.ID, status); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s.\n", p.Slug, status)
		return nil
	},
}

var featureCmd = &cobra.Command{
	Use:   "feature <id|slug>",
	Short: "Mark a post as featured",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.ErrOrStderr(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := postByRef(a.store, args[0])
		if err != nil {
			return err
		}
		if err := a.store.SetFeatured(p.ID, !flagFeatureOff); err != nil {
			return err
		}
		state := "featured"
		if flagFeatureOff {
			state = "no longer featured"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s.\n", p.Slug, state)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&flagListSearch, "search", "q", "", "case-insensitive text search")
	listCmd.Flags().StringVar(&flagListCategory, "category", "", "category slug or id")
	listCmd.Flags().StringSliceVar(&flagListTags, "tag", nil, "tag slug or id; repeat to require several")
	listCmd.Flags().StringVar(&flagListSort, "sort", "date", "sort field")
	listCmd.Flags().StringVar(&flagListOrder, "order", "", "sort order: asc or desc")
	listCmd.Flags().IntVar(&flagListPage, "page", 1, "page number")
	listCmd.Flags().IntVar(&flagListPageSize, "page-size", 0, "posts per page (default from config)")

	relatedCmd.Flags().IntVar(&flagRelatedLimit, "limit", 0, "number of related posts (default from config)")
	relatedCmd.Flags().BoolVar(&flagRelatedExplain, "explain", false, "print the score breakdown")

	publishCmd.Flags().StringVar(&flagPublishStatus, "status", "published", "new status: draft, published or scheduled")

	featureCmd.Flags().BoolVar(&flagFeatureOff, "off", false, "remove the featured flag")
}
