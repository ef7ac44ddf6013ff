package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/quill/internal/content"
	"github.com/matheuskafuri/quill/internal/post"
)

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func categoryLabel(p post.Post) string {
	if len(p.Categories) == 0 {
		return "Uncategorized"
	}
	return p.Categories[0].Name
}

func renderListItem(p post.Post, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	mark := "  "
	if p.IsFeatured {
		mark = featuredMarkStyle.Render("★ ")
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(p.Title, width-4))
	} else {
		title = mark + itemTitleStyle.Render(truncateStr(p.Title, width-4))
	}

	meta := "  " + itemCategoryStyle.Render(categoryLabel(p)) + " " +
		itemTimeStyle.Render(fmt.Sprintf("· %s · %d min", relativeTime(p.EffectiveDate()), content.ReadingTime(p.Content)))

	return title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderList(posts []post.Post, cursor int, height int, width int) string {
	if len(posts) == 0 {
		return lipglossCenter("No posts found", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := max(height/itemHeight, 1)

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(posts) {
		end = len(posts)
		start = max(end-visible, 0)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(posts[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", max((width-len(s))/2, 0)) + s
}
