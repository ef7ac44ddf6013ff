package sidebar

import (
	"sort"
	"strings"

	"github.com/matheuskafuri/quill/internal/collection"
	"github.com/matheuskafuri/quill/internal/post"
)

// Sidebar holds the blog home and sidebar sections.
type Sidebar struct {
	Recent     []post.Post     `json:"recent"`
	Popular    []post.Post     `json:"popular"`
	Featured   []post.Post     `json:"featured"`
	Categories []CategoryCount `json:"categories"`
	Tags       []TagCount      `json:"tags"`
	Published  int             `json:"published"`
}

type CategoryCount struct {
	Category post.Category `json:"category"`
	Count    int           `json:"count"`
}

type TagCount struct {
	Tag   post.Tag `json:"tag"`
	Count int      `json:"count"`
}

// Options sets section sizes. Zero values use the defaults.
type Options struct {
	RecentSize   int
	PopularSize  int
	FeaturedSize int
	TagLimit     int
}

func (o Options) withDefaults() Options {
	if o.RecentSize <= 0 {
		o.RecentSize = 5
	}
	if o.PopularSize <= 0 {
		o.PopularSize = 5
	}
	if o.FeaturedSize <= 0 {
		o.FeaturedSize = 3
	}
	if o.TagLimit <= 0 {
		o.TagLimit = 20
	}
	return o
}

// Build derives the sidebar sections from pool. Only published posts count.
func Build(pool []post.Post, opts Options) Sidebar {
	opts = opts.withDefaults()

	var published []post.Post
	for _, p := range pool {
		if p.IsPublished() {
			published = append(published, p)
		}
	}

	sb := Sidebar{
		Published:  len(published),
		Categories: categoryCounts(published),
		Tags:       tagCounts(published, opts.TagLimit),
	}

	sb.Recent = collection.View(published, collection.ViewParams{
		Sort:     collection.SortDate,
		PageSize: opts.RecentSize,
	}).Posts

	var viewed []post.Post
	for _, p := range published {
		if p.ViewCount > 0 {
			viewed = append(viewed, p)
		}
	}
	sb.Popular = collection.View(viewed, collection.ViewParams{
		Sort:     collection.SortPopularity,
		PageSize: opts.PopularSize,
	}).Posts

	for _, p := range published {
		if len(sb.Featured) == opts.FeaturedSize {
			break
		}
		if p.IsFeatured {
			sb.Featured = append(sb.Featured, p)
		}
	}

	return sb
}

func categoryCounts(posts []post.Post) []CategoryCount {
	counts := map[string]*CategoryCount{}
	for _, p := range posts {
		seen := map[string]bool{}
		for _, c := range p.Categories {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			if cc, ok := counts[c.ID]; ok {
				cc.Count++
				continue
			}
			counts[c.ID] = &CategoryCount{Category: c, Count: 1}
		}
	}

	out := make([]CategoryCount, 0, len(counts))
	for _, cc := range counts {
		out = append(out, *cc)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Category.Name) < strings.ToLower(out[j].Category.Name)
	})
	return out
}

// tagCounts returns the most used tags, most used first, names breaking ties.
func tagCounts(posts []post.Post, limit int) []TagCount {
	counts := map[string]*TagCount{}
	for _, p := range posts {
		seen := map[string]bool{}
		for _, t := range p.Tags {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			if tc, ok := counts[t.ID]; ok {
				tc.Count++
				continue
			}
			counts[t.ID] = &TagCount{Tag: t, Count: 1}
		}
	}

	out := make([]TagCount, 0, len(counts))
	for _, tc := range counts {
		out = append(out, *tc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.ToLower(out[i].Tag.Name) < strings.ToLower(out[j].Tag.Name)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
