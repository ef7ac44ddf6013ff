package collection

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/matheuskafuri/quill/internal/content"
	"github.com/matheuskafuri/quill/internal/post"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortField selects the comparator applied after filtering.
type SortField string

const (
	SortNone        SortField = ""
	SortDate        SortField = "date"
	SortTitle       SortField = "title"
	SortPopularity  SortField = "popularity"
	SortReadingTime SortField = "readingTime"
)

// SortOrder is the sort direction. OrderDefault uses the field's natural
// direction: newest, most viewed and longest first; titles A to Z.
type SortOrder string

const (
	OrderDefault SortOrder = ""
	OrderAsc     SortOrder = "asc"
	OrderDesc    SortOrder = "desc"
)

func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SortNone, nil
	case "date", "newest":
		return SortDate, nil
	case "title":
		return SortTitle, nil
	case "popularity", "views", "popular":
		return SortPopularity, nil
	case "readingtime", "reading_time", "reading-time":
		return SortReadingTime, nil
	}
	return "", fmt.Errorf("unknown sort field %q (valid: date, title, popularity, readingTime)", s)
}

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return OrderDefault, nil
	case "asc":
		return OrderAsc, nil
	case "desc":
		return OrderDesc, nil
	}
	return "", fmt.Errorf("unknown sort order %q (valid: asc, desc)", s)
}

// ViewParams is the filter, sort and pagination bundle for View. Zero
// fields are no-ops.
type ViewParams struct {
	Search   string // literal, case-insensitive substring; not trimmed
	Category string
	Tags     []string
	Sort     SortField
	Order    SortOrder
	Page     int
	PageSize int
}

// Page is one page of a filtered, sorted pool. From and To are the 1-based
// positions of the first and last post shown, both 0 when the page is empty.
type Page struct {
	Posts      []post.Post `json:"posts"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	From       int         `json:"from"`
	To         int         `json:"to"`
}

// HasNext reports whether a page follows this one.
func (p Page) HasNext() bool {
	return p.Page < p.TotalPages
}

func (p Page) HasPrev() bool {
	return p.Page > 1 && p.TotalPages > 0
}

// View filters, sorts and paginates pool. pool is never modified.
func View(pool []post.Post, params ViewParams) Page {
	filtered := Filter(pool, params)
	Sort(filtered, params.Sort, params.Order)
	return paginate(filtered, params.Page, params.PageSize)
}

// Filter returns the posts that match every active filter, in pool order.
// The result is a new slice.
func Filter(pool []post.Post, params ViewParams) []post.Post {
	search := strings.ToLower(params.Search)
	category := strings.TrimSpace(params.Category)

	var tags []string
	for _, t := range params.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	out := make([]post.Post, 0, len(pool))
	for _, p := range pool {
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		if category != "" && !p.HasCategory(category) {
			continue
		}
		if !hasAllTags(p, tags) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(p post.Post, needle string) bool {
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Excerpt), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle)
}

func hasAllTags(p post.Post, keys []string) bool {
	for _, k := range keys {
		if !p.HasTag(k) {
			return false
		}
	}
	return true
}

// entry carries a precomputed sort key next to its post.
type entry struct {
	post    post.Post
	minutes int
}

// Sort orders posts in place by field and order. Equal keys keep their
// relative order. SortNone leaves posts untouched.
func Sort(posts []post.Post, field SortField, order SortOrder) {
	if field == SortNone || len(posts) < 2 {
		return
	}

	entries := make([]entry, len(posts))
	for i, p := range posts {
		entries[i] = entry{post: p}
		if field == SortReadingTime {
			entries[i].minutes = content.ReadingTime(p.Content)
		}
	}

	compare := ascending(field)
	if direction(field, order) == OrderDesc {
		asc := compare
		compare = func(a, b entry) int { return -asc(a, b) }
	}
	slices.SortStableFunc(entries, compare)

	for i, e := range entries {
		posts[i] = e.post
	}
}

// direction resolves OrderDefault to the field's natural direction.
func direction(field SortField, order SortOrder) SortOrder {
	if order != OrderDefault {
		return order
	}
	if field == SortTitle {
		return OrderAsc
	}
	return OrderDesc
}

// ascending returns a comparator ordering entries by increasing field value.
func ascending(field SortField) func(a, b entry) int {
	switch field {
	case SortTitle:
		// A Collator keeps scratch buffers, so each Sort gets its own.
		c := collate.New(language.English)
		return func(a, b entry) int { return c.CompareString(a.post.Title, b.post.Title) }
	case SortPopularity:
		return func(a, b entry) int { return cmp.Compare(a.post.ViewCount, b.post.ViewCount) }
	case SortReadingTime:
		return func(a, b entry) int { return cmp.Compare(a.minutes, b.minutes) }
	default:
		return func(a, b entry) int { return a.post.EffectiveDate().Compare(b.post.EffectiveDate()) }
	}
}

func paginate(posts []post.Post, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(posts)
	res := Page{
		Posts:      []post.Post{},
		Total:      total,
		TotalPages: (total + size - 1) / size,
		Page:       page,
		PageSize:   size,
	}

	if page > res.TotalPages {
		return res
	}
	start := (page - 1) * size
	end := min(start+size, total)
	res.Posts = posts[start:end]
	res.From = start + 1
	res.To = end
	return res
}
