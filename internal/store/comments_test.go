package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matheuskafuri/quill/internal/post"
)

func TestAddCommentDefaults(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	c, err := db.AddComment(post.Comment{PostID: "aaa", AuthorName: "Ana", AuthorEmail: "ana@example.com", Content: "First"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := uuid.Parse(c.ID); err != nil {
		t.Errorf("expected uuid id, got %q", c.ID)
	}
	if c.Status != post.CommentPending {
		t.Errorf("expected pending, got %s", c.Status)
	}
	if c.CreatedAt.IsZero() {
		t.Error("expected created_at set")
	}
}

func TestAddCommentUnknownPost(t *testing.T) {
	db := testDB(t)
	_, err := db.AddComment(post.Comment{PostID: "nope", AuthorName: "a", AuthorEmail: "a@b.c", Content: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddCommentParentMustBeOnSamePost(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	parent, err := db.AddComment(post.Comment{PostID: "aaa", AuthorName: "a", AuthorEmail: "a@b.c", Content: "x"})
	if err != nil {
		t.Fatalf("add parent: %v", err)
	}

	if _, err := db.AddComment(post.Comment{PostID: "aaa", ParentID: parent.ID, AuthorName: "b", AuthorEmail: "b@b.c", Content: "reply"}); err != nil {
		t.Errorf("expected reply accepted, got %v", err)
	}
	_, err = db.AddComment(post.Comment{PostID: "bbb", ParentID: parent.ID, AuthorName: "b", AuthorEmail: "b@b.c", Content: "wrong post"})
	if !errors.Is(err, ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent, got %v", err)
	}
	_, err = db.AddComment(post.Comment{PostID: "aaa", ParentID: "missing", AuthorName: "b", AuthorEmail: "b@b.c", Content: "orphan"})
	if !errors.Is(err, ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent, got %v", err)
	}
}

func TestCommentsQueryAndModeration(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	base := time.Now().Add(-time.Hour)
	first, err := db.AddComment(post.Comment{PostID: "aaa", AuthorName: "a", AuthorEmail: "a@b.c", Content: "one", CreatedAt: base})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := db.AddComment(post.Comment{PostID: "aaa", AuthorName: "b", AuthorEmail: "b@b.c", Content: "two", CreatedAt: base.Add(time.Minute)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := db.AddComment(post.Comment{PostID: "bbb", AuthorName: "c", AuthorEmail: "c@b.c", Content: "three"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := db.Comments(CommentQuery{PostID: "aaa"})
	if err != nil {
		t.Fatalf("comments: %v", err)
	}
	if len(got) != 2 || got[0].Content != "one" || got[1].Content != "two" {
		t.Fatalf("expected two comments oldest first, got %+v", got)
	}
	if got[0].AuthorEmail != "a@b.c" {
		t.Errorf("email not stored, got %q", got[0].AuthorEmail)
	}

	if err := db.SetCommentStatus(first.ID, post.CommentApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	approved, err := db.Comments(CommentQuery{Status: post.CommentApproved})
	if err != nil {
		t.Fatalf("comments: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != first.ID {
		t.Errorf("expected only the approved comment, got %+v", approved)
	}

	pending, err := db.Comments(CommentQuery{Status: post.CommentPending})
	if err != nil {
		t.Fatalf("comments: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending, got %d", len(pending))
	}

	if err := db.SetCommentStatus("missing", post.CommentRejected); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
