package comment

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matheuskafuri/quill/internal/post"
)

func mk(id, parent string, status post.CommentStatus, minutes int) post.Comment {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return post.Comment{
		ID:        id,
		PostID:    "p1",
		ParentID:  parent,
		Status:    status,
		CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(nodes []Node) string {
	var parts []string
	for _, n := range nodes {
		s := n.Comment.ID
		if len(n.Replies) > 0 {
			s += "(" + ids(n.Replies) + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func TestThread(t *testing.T) {
	a := post.CommentApproved
	tests := []struct {
		name     string
		comments []post.Comment
		want     string
	}{
		{"empty", nil, ""},
		{"flat oldest first", []post.Comment{mk("b", "", a, 5), mk("a", "", a, 1)}, "a b"},
		{"nested", []post.Comment{
			mk("root", "", a, 0),
			mk("r2", "root", a, 10),
			mk("r1", "root", a, 5),
			mk("r1a", "r1", a, 6),
		}, "root(r1(r1a) r2)"},
		{"pending and rejected dropped", []post.Comment{
			mk("a", "", a, 0),
			mk("b", "", post.CommentPending, 1),
			mk("c", "a", post.CommentRejected, 2),
		}, "a"},
		{"reply to unapproved parent becomes root", []post.Comment{
			mk("p", "", post.CommentPending, 0),
			mk("child", "p", a, 1),
			mk("other", "", a, 2),
		}, "child other"},
		{"reply to missing parent becomes root", []post.Comment{mk("x", "gone", a, 0)}, "x"},
		{"cycle still listed", []post.Comment{mk("x", "y", a, 0), mk("y", "x", a, 1)}, "x(y)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Thread(tt.comments))
			if got != tt.want {
				t.Errorf("Thread() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestThreadDoesNotMutateInput(t *testing.T) {
	in := []post.Comment{
		mk("b", "", post.CommentApproved, 5),
		mk("a", "", post.CommentApproved, 1),
	}
	Thread(in)
	if in[0].ID != "b" || in[1].ID != "a" {
		t.Errorf("input reordered: %s %s", in[0].ID, in[1].ID)
	}
}

func TestCount(t *testing.T) {
	a := post.CommentApproved
	nodes := Thread([]post.Comment{mk("r", "", a, 0), mk("c1", "r", a, 1), mk("c2", "c1", a, 2), mk("s", "", a, 3)})
	if got := Count(nodes); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}
}

func TestValidate(t *testing.T) {
	valid := post.Comment{AuthorName: "Ana", AuthorEmail: "ana@example.com", Content: "Nice post"}
	if err := Validate(valid); err != nil {
		t.Fatalf("expected valid comment, got %v", err)
	}

	tests := []struct {
		name  string
		mod   func(c *post.Comment)
		field string
	}{
		{"missing name", func(c *post.Comment) { c.AuthorName = "  " }, "author_name"},
		{"long name", func(c *post.Comment) { c.AuthorName = strings.Repeat("x", MaxNameLength+1) }, "author_name"},
		{"missing email", func(c *post.Comment) { c.AuthorEmail = "" }, "author_email"},
		{"bad email", func(c *post.Comment) { c.AuthorEmail = "ana@example" }, "author_email"},
		{"email with space", func(c *post.Comment) { c.AuthorEmail = "a na@example.com" }, "author_email"},
		{"missing content", func(c *post.Comment) { c.Content = "\n" }, "content"},
		{"long content", func(c *post.Comment) { c.Content = strings.Repeat("y", MaxContentLength+1) }, "content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mod(&c)
			err := Validate(c)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("expected field %s in %v", tt.field, ve.Fields)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err.Error(), tt.field)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := map[string]bool{
		"a@b.co":           true,
		"first.last@x.org": true,
		"@b.co":            false,
		"a@.":              false,
		"a@b":              false,
		"":                 false,
	}
	for in, want := range tests {
		if got := IsValidEmail(in); got != want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", in, got, want)
		}
	}
}
