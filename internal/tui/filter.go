package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/quill/internal/post"
)

// filterBar selects at most one category. An empty active slug means all
// categories.
type filterBar struct {
	categories   []post.Category
	active       string
	filterMode   bool
	filterCursor int
}

func newFilterBar(categories []post.Category) filterBar {
	return filterBar{categories: categories}
}

// setCategories replaces the available categories, dropping the active
// selection when it no longer exists.
func (f *filterBar) setCategories(categories []post.Category) {
	f.categories = categories
	found := false
	for _, c := range categories {
		if c.Slug == f.active {
			found = true
			break
		}
	}
	if !found {
		f.active = ""
	}
	f.filterCursor = min(f.filterCursor, len(categories))
}

// toggle selects slug, or clears the selection when slug is already active.
func (f *filterBar) toggle(slug string) {
	if f.active == slug {
		f.active = ""
		return
	}
	f.active = slug
}

// toggleCurrent acts on the entry under the cursor. Position 0 is "All".
func (f *filterBar) toggleCurrent() {
	if f.filterCursor == 0 {
		f.active = ""
		return
	}
	if i := f.filterCursor - 1; i < len(f.categories) {
		f.toggle(f.categories[i].Slug)
	}
}

func (f *filterBar) moveLeft() {
	if f.filterCursor > 0 {
		f.filterCursor--
	}
}

func (f *filterBar) moveRight() {
	if f.filterCursor < len(f.categories) {
		f.filterCursor++
	}
}

func (f *filterBar) activeLabel() string {
	if f.active == "" {
		return "All"
	}
	for _, c := range f.categories {
		if c.Slug == f.active {
			return c.Name
		}
	}
	return f.active
}

func (f *filterBar) render(width int) string {
	sep := tabSeparatorStyle.Render(" · ")

	label := func(pos int, name string) string {
		if f.filterMode && pos == f.filterCursor {
			return "[" + name + "]"
		}
		return name
	}

	var parts []string
	if f.active == "" {
		parts = append(parts, tabActiveStyle.Render(label(0, "All")))
	} else {
		parts = append(parts, tabInactiveStyle.Render(label(0, "All")))
	}
	for i, c := range f.categories {
		style := tabInactiveStyle
		if f.active == c.Slug {
			style = tabActiveStyle
		}
		parts = append(parts, style.Render(label(i+1, c.Name)))
	}

	// Stop adding tabs once the row would overflow.
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}
