package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheuskafuri/quill/internal/post"
)

func testDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePosts() []post.Post {
	now := time.Now()
	pub := now.Add(-time.Hour)
	goTag := post.Tag{ID: "t-go", Name: "Go", Slug: "go"}
	sqlTag := post.Tag{ID: "t-sql", Name: "SQL", Slug: "sql"}
	prog := post.Category{ID: "cat-programming", Name: "Programming", Slug: "programming"}
	data := post.Category{ID: "cat-data", Name: "Data", Slug: "data"}
	return []post.Post{
		{
			ID: "aaa", Title: "Post A", Slug: "post-a", Content: "<p>alpha</p>", Excerpt: "alpha",
			Link: "https://a.com", Status: post.Published, PublishedAt: &pub,
			CreatedAt: now.Add(-1 * time.Hour), Author: post.Author{ID: "u1", Name: "Ana"},
			Categories: []post.Category{prog, data}, Tags: []post.Tag{goTag},
		},
		{
			ID: "bbb", Title: "Post B", Slug: "post-b", Content: "beta", Status: post.Published,
			CreatedAt: now.Add(-2 * time.Hour), Categories: []post.Category{data}, Tags: []post.Tag{sqlTag, goTag},
		},
		{
			ID: "ccc", Title: "Post C", Slug: "post-c", Content: "gamma", Status: post.Draft,
			Link: "https://c.com", CreatedAt: now.Add(-48 * time.Hour),
		},
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.Posts(QueryOpts{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(got))
	}
	if got[0].ID != "aaa" {
		t.Errorf("expected newest first, got %s", got[0].ID)
	}
	a := got[0]
	if len(a.Categories) != 2 || a.Categories[0].Slug != "programming" || a.Categories[1].Slug != "data" {
		t.Errorf("unexpected categories %+v", a.Categories)
	}
	if len(a.Tags) != 1 || a.Tags[0].ID != "t-go" {
		t.Errorf("unexpected tags %+v", a.Tags)
	}
	if a.Author.Name != "Ana" || a.PublishedAt == nil {
		t.Errorf("author or published date lost: %+v", a)
	}
	if got[1].PublishedAt != nil {
		t.Errorf("expected nil published date for b")
	}
	if len(got[1].Tags) != 2 || got[1].Tags[0].Slug != "sql" {
		t.Errorf("tag order not kept: %+v", got[1].Tags)
	}
}

func TestUpsertKeepsViewsAndFeatured(t *testing.T) {
	db := testDB(t)
	posts := samplePosts()
	if err := db.UpsertPosts(posts); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := db.IncrementViews("aaa"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := db.SetFeatured("aaa", true); err != nil {
		t.Fatalf("feature: %v", err)
	}

	posts[0].Title = "Updated Post A"
	posts[0].Tags = nil
	if err := db.UpsertPosts(posts[:1]); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := db.PostByID("aaa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Updated Post A" {
		t.Errorf("expected updated title, got %q", got.Title)
	}
	if got.ViewCount != 1 || !got.IsFeatured {
		t.Errorf("expected views and featured kept, got %d %v", got.ViewCount, got.IsFeatured)
	}
	if len(got.Tags) != 0 {
		t.Errorf("expected tags replaced, got %+v", got.Tags)
	}
}

func TestUpsertKeepsStatus(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := db.SetStatus("aaa", post.Draft); err != nil {
		t.Fatalf("set status: %v", err)
	}
	before, err := db.PostByID("aaa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := db.PostByID("aaa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != post.Draft {
		t.Errorf("expected draft kept after re-import, got %s", got.Status)
	}
	if (got.PublishedAt == nil) != (before.PublishedAt == nil) ||
		(got.PublishedAt != nil && !got.PublishedAt.Equal(*before.PublishedAt)) {
		t.Errorf("expected publication date kept, got %v want %v", got.PublishedAt, before.PublishedAt)
	}
}

func TestUpsertDuplicateSlug(t *testing.T) {
	db := testDB(t)
	posts := []post.Post{
		{ID: "one", Title: "Same", Slug: "same", Status: post.Published},
		{ID: "two", Title: "Same", Slug: "same", Status: post.Published},
	}
	if err := db.UpsertPosts(posts); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := db.PostByID("two")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Slug != "same-2" {
		t.Errorf("expected suffixed slug, got %q", got.Slug)
	}

	// Re-upserting the owner keeps its slug.
	if err := db.UpsertPosts(posts[:1]); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if got, _ := db.PostByID("one"); got.Slug != "same" {
		t.Errorf("expected slug same, got %q", got.Slug)
	}
}

func TestQueryStatusAndLimit(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.Posts(QueryOpts{Status: post.Published})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 published posts, got %d", len(got))
	}

	got, err = db.Posts(QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 post, got %d", len(got))
	}
}

func TestPostBySlug(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.PostBySlug("post-b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "bbb" || len(got.Categories) != 1 {
		t.Errorf("unexpected post %+v", got)
	}

	if _, err := db.PostBySlug("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementViews(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for i := 1; i <= 3; i++ {
		n, err := db.IncrementViews("bbb")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if n != i {
			t.Errorf("expected %d views, got %d", i, n)
		}
	}
	if _, err := db.IncrementViews("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetStatusStampsPublishedAt(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.SetStatus("ccc", post.Published); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := db.PostByID("ccc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != post.Published || got.PublishedAt == nil {
		t.Errorf("expected published with date, got %s %v", got.Status, got.PublishedAt)
	}
	if err := db.SetStatus("ccc", post.Status("bogus")); err == nil {
		t.Errorf("expected error for invalid status")
	}
	if err := db.SetStatus("nope", post.Draft); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoriesAndTags(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	cats, err := db.Categories()
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Data" || cats[1].Name != "Programming" {
		t.Errorf("unexpected categories %+v", cats)
	}

	tags, err := db.Tags()
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "Go" {
		t.Errorf("unexpected tags %+v", tags)
	}
}

func TestNeedsImport(t *testing.T) {
	db := testDB(t)

	if !db.NeedsImport(1 * time.Hour) {
		t.Error("expected NeedsImport=true on empty db")
	}
	if !db.LastImport().IsZero() {
		t.Error("expected zero LastImport on empty db")
	}

	if err := db.SetLastImport(); err != nil {
		t.Fatalf("set last import: %v", err)
	}

	if db.NeedsImport(1 * time.Hour) {
		t.Error("expected NeedsImport=false right after import")
	}
	if db.LastImport().IsZero() {
		t.Error("expected LastImport to be set")
	}
}

func TestEmptyDB(t *testing.T) {
	db := testDB(t)
	got, err := db.Posts(QueryOpts{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 0 posts, got %d", len(got))
	}
}

func TestPruneDeletesOldImportedPosts(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	deleted, err := db.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, err := db.PostByID("ccc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ccc pruned, got %v", err)
	}
}

func TestPruneSkipsLocalPosts(t *testing.T) {
	db := testDB(t)
	posts := samplePosts()
	posts[2].Link = ""
	if err := db.UpsertPosts(posts); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	deleted, err := db.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected local post kept, pruned %d", deleted)
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stats.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := db.AddComment(post.Comment{PostID: "aaa", AuthorName: "x", AuthorEmail: "x@y.z", Content: "hi"}); err != nil {
		t.Fatalf("comment: %v", err)
	}

	st, err := db.Stats(dbPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Posts != 3 || st.Published != 2 || st.Comments != 1 || st.Pending != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
	info, _ := os.Stat(dbPath)
	if st.Size != info.Size() || st.Size == 0 {
		t.Errorf("expected size %d, got %d", info.Size(), st.Size)
	}
}
