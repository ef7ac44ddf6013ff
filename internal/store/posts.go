package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matheuskafuri/quill/internal/post"
)

// QueryOpts narrows Posts. Zero fields are ignored.
type QueryOpts struct {
	Status post.Status
	Limit  int
}

const postColumns = `id, title, slug, content, excerpt, link, author_id, author_name,
	status, published_at, created_at, updated_at, view_count, is_featured`

// UpsertPosts inserts or updates posts together with their categories and
// tags. View counts, the featured flag, the status and the publication date
// of existing posts are kept. A slug already owned by another post gets a
// numeric suffix.
func (s *Store) UpsertPosts(posts []post.Post) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO posts (` + postColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			slug = excluded.slug,
			content = excluded.content,
			excerpt = excluded.excerpt,
			link = excluded.link,
			author_id = excluded.author_id,
			author_name = excluded.author_name,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range posts {
		slug, err := uniqueSlug(tx, p.ID, p.Slug)
		if err != nil {
			return fmt.Errorf("resolving slug for %s: %w", p.ID, err)
		}
		status := p.Status
		if status == "" {
			status = post.Draft
		}
		created := p.CreatedAt
		if created.IsZero() {
			created = now
		}
		updated := p.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		var published any
		if p.PublishedAt != nil && !p.PublishedAt.IsZero() {
			published = p.PublishedAt.UTC()
		}

		_, err = stmt.Exec(p.ID, p.Title, slug, p.Content, p.Excerpt, p.Link,
			p.Author.ID, p.Author.Name, string(status), published,
			created.UTC(), updated.UTC(), p.ViewCount, p.IsFeatured)
		if err != nil {
			return fmt.Errorf("upserting post %s: %w", p.ID, err)
		}
		if err := upsertTaxonomy(tx, p); err != nil {
			return fmt.Errorf("upserting taxonomy for %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

func uniqueSlug(tx *sql.Tx, id, slug string) (string, error) {
	if slug == "" {
		slug = id
	}
	candidate := slug
	for i := 2; ; i++ {
		var owner string
		err := tx.QueryRow("SELECT id FROM posts WHERE slug = ?", candidate).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if owner == id {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
}

func upsertTaxonomy(tx *sql.Tx, p post.Post) error {
	if _, err := tx.Exec("DELETE FROM post_categories WHERE post_id = ?", p.ID); err != nil {
		return err
	}
	for i, c := range p.Categories {
		if _, err := tx.Exec(`
			INSERT INTO categories (id, name, slug) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, slug = excluded.slug
		`, c.ID, c.Name, c.Slug); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO post_categories (post_id, category_id, position) VALUES (?, ?, ?)
		`, p.ID, c.ID, i); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", p.ID); err != nil {
		return err
	}
	for i, t := range p.Tags {
		if _, err := tx.Exec(`
			INSERT INTO tags (id, name, slug) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, slug = excluded.slug
		`, t.ID, t.Name, t.Slug); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO post_tags (post_id, tag_id, position) VALUES (?, ?, ?)
		`, p.ID, t.ID, i); err != nil {
			return err
		}
	}
	return nil
}

// Posts returns posts newest first with their categories and tags.
func (s *Store) Posts(opts QueryOpts) ([]post.Post, error) {
	var args []any
	query := "SELECT " + postColumns + " FROM posts"
	if opts.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(opts.Status))
	}
	query += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []post.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachTaxonomy(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) PostByID(id string) (post.Post, error) {
	return s.postWhere("id = ?", id)
}

func (s *Store) PostBySlug(slug string) (post.Post, error) {
	return s.postWhere("slug = ?", slug)
}

func (s *Store) postWhere(cond string, arg any) (post.Post, error) {
	row := s.readDB.QueryRow("SELECT "+postColumns+" FROM posts WHERE "+cond, arg)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return post.Post{}, ErrNotFound
	}
	if err != nil {
		return post.Post{}, fmt.Errorf("loading post: %w", err)
	}

	posts := []post.Post{p}
	if err := s.attachTaxonomy(posts); err != nil {
		return post.Post{}, err
	}
	return posts[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(sc scanner) (post.Post, error) {
	var (
		p         post.Post
		status    string
		published sql.NullTime
	)
	err := sc.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Link,
		&p.Author.ID, &p.Author.Name, &status, &published,
		&p.CreatedAt, &p.UpdatedAt, &p.ViewCount, &p.IsFeatured)
	if err != nil {
		return p, err
	}
	p.Status = post.Status(status)
	if published.Valid {
		t := published.Time
		p.PublishedAt = &t
	}
	return p, nil
}

func (s *Store) attachTaxonomy(posts []post.Post) error {
	if len(posts) == 0 {
		return nil
	}
	index := make(map[string]int, len(posts))
	for i, p := range posts {
		index[p.ID] = i
	}

	var (
		filter string
		args   []any
	)
	if len(posts) == 1 {
		filter = " WHERE j.post_id = ?"
		args = append(args, posts[0].ID)
	}

	catRows, err := s.readDB.Query(`
		SELECT j.post_id, c.id, c.name, c.slug
		FROM post_categories j JOIN categories c ON c.id = j.category_id`+filter+`
		ORDER BY j.post_id, j.position`, args...)
	if err != nil {
		return fmt.Errorf("querying categories: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var postID string
		var c post.Category
		if err := catRows.Scan(&postID, &c.ID, &c.Name, &c.Slug); err != nil {
			return fmt.Errorf("scanning category: %w", err)
		}
		if i, ok := index[postID]; ok {
			posts[i].Categories = append(posts[i].Categories, c)
		}
	}
	if err := catRows.Err(); err != nil {
		return err
	}

	tagRows, err := s.readDB.Query(`
		SELECT j.post_id, t.id, t.name, t.slug
		FROM post_tags j JOIN tags t ON t.id = j.tag_id`+filter+`
		ORDER BY j.post_id, j.position`, args...)
	if err != nil {
		return fmt.Errorf("querying tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var postID string
		var t post.Tag
		if err := tagRows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return fmt.Errorf("scanning tag: %w", err)
		}
		if i, ok := index[postID]; ok {
			posts[i].Tags = append(posts[i].Tags, t)
		}
	}
	return tagRows.Err()
}

// IncrementViews bumps the view count of a post and returns the new count.
func (s *Store) IncrementViews(id string) (int, error) {
	res, err := s.writeDB.Exec("UPDATE posts SET view_count = view_count + 1 WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("incrementing views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}
	var count int
	if err := s.writeDB.QueryRow("SELECT view_count FROM posts WHERE id = ?", id).Scan(&count); err != nil {
		return 0, fmt.Errorf("reading views: %w", err)
	}
	return count, nil
}

// SetFeatured marks or unmarks a post as featured.
func (s *Store) SetFeatured(id string, featured bool) error {
	res, err := s.writeDB.Exec("UPDATE posts SET is_featured = ? WHERE id = ?", featured, id)
	if err != nil {
		return fmt.Errorf("updating featured flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus changes the publication status of a post. Publishing a post
// without a publication date stamps it with the current time.
func (s *Store) SetStatus(id string, status post.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := s.writeDB.Exec(`
		UPDATE posts SET
			status = ?,
			published_at = CASE WHEN ? = 'published' AND published_at IS NULL THEN ? ELSE published_at END,
			updated_at = ?
		WHERE id = ?
	`, string(status), string(status), time.Now().UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories returns every category that has at least one post, by name.
func (s *Store) Categories() ([]post.Category, error) {
	rows, err := s.readDB.Query(`
		SELECT DISTINCT c.id, c.name, c.slug
		FROM categories c JOIN post_categories j ON j.category_id = c.id
		ORDER BY c.name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var cats []post.Category
	for rows.Next() {
		var c post.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Tags returns every tag that has at least one post, by name.
func (s *Store) Tags() ([]post.Tag, error) {
	rows, err := s.readDB.Query(`
		SELECT DISTINCT t.id, t.name, t.slug
		FROM tags t JOIN post_tags j ON j.tag_id = t.id
		ORDER BY t.name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []post.Tag
	for rows.Next() {
		var t post.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Prune deletes imported posts created before now minus olderThan, along
// with their comments and taxonomy links. Local posts are never pruned.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()

	tx, err := s.writeDB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const stale = "SELECT id FROM posts WHERE link != '' AND created_at < ?"
	for _, q := range []string{
		"DELETE FROM comments WHERE post_id IN (" + stale + ")",
		"DELETE FROM post_categories WHERE post_id IN (" + stale + ")",
		"DELETE FROM post_tags WHERE post_id IN (" + stale + ")",
	} {
		if _, err := tx.Exec(q, cutoff); err != nil {
			return 0, fmt.Errorf("pruning: %w", err)
		}
	}
	res, err := tx.Exec("DELETE FROM posts WHERE link != '' AND created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning posts: %w", err)
	}
	deleted, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if deleted > 0 {
		if _, err := s.writeDB.Exec("VACUUM"); err != nil {
			return deleted, fmt.Errorf("vacuum: %w", err)
		}
	}
	return deleted, nil
}
