package comment

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/matheuskafuri/quill/internal/post"
)

const (
	MaxNameLength    = 100
	MaxContentLength = 5000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Node is a comment together with its approved replies.
type Node struct {
	Comment post.Comment `json:"comment"`
	Replies []Node       `json:"replies"`
}

// Thread nests approved comments under their parent. A reply whose parent
// is missing or not approved is promoted to a root. Siblings are ordered
// oldest first.
func Thread(comments []post.Comment) []Node {
	approved := make(map[string]bool)
	var kept []post.Comment
	for _, c := range comments {
		if c.Status == post.CommentApproved {
			approved[c.ID] = true
			kept = append(kept, c)
		}
	}

	children := make(map[string][]post.Comment)
	var roots []post.Comment
	for _, c := range kept {
		if c.ParentID != "" && c.ParentID != c.ID && approved[c.ParentID] {
			children[c.ParentID] = append(children[c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	visited := make(map[string]bool)
	var build func(list []post.Comment) []Node
	build = func(list []post.Comment) []Node {
		sortOldestFirst(list)
		nodes := make([]Node, 0, len(list))
		for _, c := range list {
			if visited[c.ID] {
				continue
			}
			visited[c.ID] = true
			nodes = append(nodes, Node{Comment: c, Replies: build(children[c.ID])})
		}
		return nodes
	}
	nodes := build(roots)

	// Comments caught in a parent cycle never hang off a root.
	var stray []post.Comment
	for _, c := range kept {
		if !visited[c.ID] {
			stray = append(stray, c)
		}
	}
	if len(stray) > 0 {
		nodes = append(nodes, build(stray)...)
	}
	return nodes
}

// Count returns the number of comments in a thread.
func Count(nodes []Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + Count(node.Replies)
	}
	return n
}

func sortOldestFirst(list []post.Comment) {
	slices.SortStableFunc(list, func(a, b post.Comment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// ValidationError lists every invalid field of a submitted comment.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range []string{"author_name", "author_email", "content"} {
		if msg, ok := e.Fields[f]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
		}
	}
	return "invalid comment: " + strings.Join(parts, "; ")
}

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate checks a submitted comment. The returned error is a
// *ValidationError when fields are invalid.
func Validate(c post.Comment) error {
	fields := map[string]string{}

	name := strings.TrimSpace(c.AuthorName)
	switch {
	case name == "":
		fields["author_name"] = "name is required"
	case len([]rune(name)) > MaxNameLength:
		fields["author_name"] = fmt.Sprintf("name must be at most %d characters", MaxNameLength)
	}

	email := strings.TrimSpace(c.AuthorEmail)
	switch {
	case email == "":
		fields["author_email"] = "email is required"
	case !IsValidEmail(email):
		fields["author_email"] = "email is invalid"
	}

	body := strings.TrimSpace(c.Content)
	switch {
	case body == "":
		fields["content"] = "comment is required"
	case len([]rune(body)) > MaxContentLength:
		fields["content"] = fmt.Sprintf("comment must be at most %d characters", MaxContentLength)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
