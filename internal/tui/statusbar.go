package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/quill/internal/collection"
)

// renderPageLinks renders a pagination bar such as "1 … 4 [5] 6 … 10".
func renderPageLinks(links []collection.PageLink) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		switch {
		case l.Ellipsis:
			parts = append(parts, "…")
		case l.Current:
			parts = append(parts, "["+strconv.Itoa(l.Number)+"]")
		default:
			parts = append(parts, strconv.Itoa(l.Number))
		}
	}
	return strings.Join(parts, " ")
}

type statusInfo struct {
	page        collection.Page
	filterLabel string
	search      string
	sortLabel   string
	searching   bool
	refreshing  bool
}

func renderStatusBar(info statusInfo, width int) string {
	var left string
	if info.page.Total == 0 {
		left = " 0 posts"
	} else {
		left = fmt.Sprintf(" %d-%d of %d posts", info.page.From, info.page.To, info.page.Total)
	}
	if info.filterLabel != "All" {
		left += " · " + info.filterLabel
	}
	if info.search != "" {
		left += fmt.Sprintf(" · %q", info.search)
	}
	left += " · " + info.sortLabel
	if links := collection.PageWindow(info.page.Page, info.page.TotalPages, collection.DefaultVisiblePages); links != nil {
		left += " · " + pageCurrentStyle.Render(renderPageLinks(links))
	}
	if info.refreshing {
		left += " (importing...)"
	}

	right := " n/p page  s sort  / search  f filter  ? help "
	if info.searching {
		right = " esc cancel  enter search "
	}

	return statusBarStyle.Width(width).Render(fill(left, right, width))
}

func renderBottomBar(hints string, width int) string {
	return statusBarStyle.Width(width).Render(fill("", " "+hints+" ", width))
}

func fill(left, right string, width int) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	return left + strings.Repeat(" ", gap) + right
}
