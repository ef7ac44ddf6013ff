package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/matheuskafuri/quill/internal/classify"
	"github.com/matheuskafuri/quill/internal/config"
	"github.com/matheuskafuri/quill/internal/content"
	"github.com/matheuskafuri/quill/internal/post"
)

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]post.Post, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
	// MaxAge drops items published longer ago than this. Zero keeps all.
	MaxAge time.Duration
}

func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser()}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]post.Post, error) {
	parsed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	return mapFeed(parsed, source, time.Now(), f.MaxAge), nil
}

func mapFeed(parsed *gofeed.Feed, source config.Source, now time.Time, maxAge time.Duration) []post.Post {
	posts := make([]post.Post, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		p, ok := mapItem(item, source, now)
		if !ok {
			continue
		}
		if maxAge > 0 && p.EffectiveDate().Before(now.Add(-maxAge)) {
			continue
		}
		posts = append(posts, p)
	}
	return posts
}

// mapItem turns a feed item into a published post. Items without a link or
// guid have no stable identity and are skipped.
func mapItem(item *gofeed.Item, source config.Source, now time.Time) (post.Post, bool) {
	key := item.Link
	if key == "" {
		key = item.GUID
	}
	if key == "" {
		return post.Post{}, false
	}

	pub := now
	if item.PublishedParsed != nil {
		pub = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		pub = *item.UpdatedParsed
	}
	updated := pub
	if item.UpdatedParsed != nil {
		updated = *item.UpdatedParsed
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}
	summary := item.Description
	if summary == "" {
		summary = body
	}

	id := articleID(key)
	title := content.StripMarkup(item.Title)
	slug := content.Slugify(title)
	if slug == "" {
		slug = id
	}

	return post.Post{
		ID:          id,
		Title:       title,
		Slug:        slug,
		Content:     body,
		Excerpt:     content.Excerpt(summary, content.DefaultExcerptLength),
		Link:        item.Link,
		Categories:  []post.Category{category(source, title, body)},
		Tags:        tags(item.Categories),
		Author:      author(item, source),
		Status:      post.Published,
		PublishedAt: &pub,
		CreatedAt:   pub,
		UpdatedAt:   updated,
	}, true
}

func articleID(link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}

func category(source config.Source, title, body string) post.Category {
	if source.Category != "" {
		if topic, err := classify.Resolve(source.Category); err == nil {
			return topic.Category()
		}
		slug := content.Slugify(source.Category)
		return post.Category{ID: "cat-" + slug, Name: source.Category, Slug: slug}
	}
	return classify.Classify(title, content.StripMarkup(body)).Category()
}

func tags(names []string) []post.Tag {
	var out []post.Tag
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := content.Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, post.Tag{ID: "tag-" + slug, Name: name, Slug: slug})
	}
	return out
}

func author(item *gofeed.Item, source config.Source) post.Author {
	name := ""
	if item.Author != nil {
		name = item.Author.Name
	}
	if name == "" {
		for _, a := range item.Authors {
			if a != nil && a.Name != "" {
				name = a.Name
				break
			}
		}
	}
	if name == "" {
		name = source.Name
	}
	return post.Author{ID: "author-" + content.Slugify(name), Name: name}
}

type FetchResult struct {
	Posts  []post.Post
	Errors []error
}

// FetchAll fetches every source concurrently. Failing sources are reported
// in Errors and do not stop the others.
func FetchAll(ctx context.Context, fetcher Fetcher, sources []config.Source) FetchResult {
	var (
		mu     sync.Mutex
		result FetchResult
		wg     sync.WaitGroup
	)

	for _, src := range sources {
		wg.Add(1)
		go func(s config.Source) {
			defer wg.Done()
			posts, err := fetcher.Fetch(ctx, s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, err)
				return
			}
			result.Posts = append(result.Posts, posts...)
		}(src)
	}

	wg.Wait()
	return result
}

// Sink receives imported posts.
type Sink interface {
	UpsertPosts(posts []post.Post) error
	SetLastImport() error
}

// Importer fetches the configured sources and stores the result.
type Importer struct {
	Fetcher Fetcher
	Sink    Sink
	Sources []config.Source
	Logger  *slog.Logger
	// OnImport, when set, is called with the number of stored posts and
	// failed sources after each run.
	OnImport func(imported, failed int)
}

// Run performs one import. It fails only when storing fails; source
// errors are logged and returned in the result.
func (im *Importer) Run(ctx context.Context) (FetchResult, error) {
	logger := im.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	result := FetchAll(ctx, im.Fetcher, im.Sources)
	for _, err := range result.Errors {
		logger.Warn("feed fetch failed", "error", err)
	}

	if len(result.Posts) > 0 {
		if err := im.Sink.UpsertPosts(result.Posts); err != nil {
			return result, fmt.Errorf("storing imported posts: %w", err)
		}
	}
	if err := im.Sink.SetLastImport(); err != nil {
		return result, fmt.Errorf("recording import time: %w", err)
	}

	logger.Info("feed import finished",
		"sources", len(im.Sources),
		"posts", len(result.Posts),
		"failed", len(result.Errors),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	if im.OnImport != nil {
		im.OnImport(len(result.Posts), len(result.Errors))
	}
	return result, nil
}
