package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matheuskafuri/quill/internal/post"
)

// ErrInvalidParent is returned when a reply names a parent comment that
// does not belong to the same post.
var ErrInvalidParent = errors.New("parent comment not found on post")

// CommentQuery narrows Comments. Zero fields are ignored.
type CommentQuery struct {
	PostID string
	Status post.CommentStatus
}

// AddComment stores a new comment. Missing ids, timestamps and status are
// filled in; new comments default to pending.
func (s *Store) AddComment(c post.Comment) (post.Comment, error) {
	if _, err := s.PostByID(c.PostID); err != nil {
		return post.Comment{}, err
	}
	if c.ParentID != "" {
		var postID string
		err := s.readDB.QueryRow("SELECT post_id FROM comments WHERE id = ?", c.ParentID).Scan(&postID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && postID != c.PostID) {
			return post.Comment{}, ErrInvalidParent
		}
		if err != nil {
			return post.Comment{}, fmt.Errorf("loading parent comment: %w", err)
		}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = c.CreatedAt.UTC()
	if c.Status == "" {
		c.Status = post.CommentPending
	}

	_, err := s.writeDB.Exec(`
		INSERT INTO comments (id, post_id, parent_id, author_name, author_email, content, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.PostID, c.ParentID, c.AuthorName, c.AuthorEmail, c.Content, string(c.Status), c.CreatedAt)
	if err != nil {
		return post.Comment{}, fmt.Errorf("inserting comment: %w", err)
	}
	return c, nil
}

// Comments returns matching comments oldest first.
func (s *Store) Comments(q CommentQuery) ([]post.Comment, error) {
	query := `SELECT id, post_id, parent_id, author_name, author_email, content, status, created_at
		FROM comments WHERE 1 = 1`
	var args []any
	if q.PostID != "" {
		query += " AND post_id = ?"
		args = append(args, q.PostID)
	}
	if q.Status != "" {
		query += " AND status = ?"
		args = append(args, string(q.Status))
	}
	query += " ORDER BY created_at, id"

	rows, err := s.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []post.Comment
	for rows.Next() {
		var (
			c      post.Comment
			status string
		)
		if err := rows.Scan(&c.ID, &c.PostID, &c.ParentID, &c.AuthorName, &c.AuthorEmail,
			&c.Content, &status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.Status = post.CommentStatus(status)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// SetCommentStatus moderates a comment.
func (s *Store) SetCommentStatus(id string, status post.CommentStatus) error {
	res, err := s.writeDB.Exec("UPDATE comments SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
