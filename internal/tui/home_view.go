package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/quill/internal/post"
	"github.com/matheuskafuri/quill/internal/sidebar"
)

var asciiLogo = []string{
	` ██████╗ ██╗   ██╗██╗██╗     ██╗     `,
	`██╔═══██╗██║   ██║██║██║     ██║     `,
	`██║   ██║██║   ██║██║██║     ██║     `,
	`██║▄▄ ██║██║   ██║██║██║     ██║     `,
	`╚██████╔╝╚██████╔╝██║███████╗███████╗`,
	` ╚══▀▀═╝  ╚═════╝ ╚═╝╚══════╝╚══════╝`,
}

func renderSection(title string, posts []post.Post, width int) []string {
	if len(posts) == 0 {
		return nil
	}
	lines := []string{homeSectionStyle.Render(title)}
	for _, p := range posts {
		lines = append(lines, "  "+homeItemStyle.Render(truncateStr(p.Title, width-4)))
	}
	return append(lines, "")
}

func renderHomeScreen(width, height int, sb sidebar.Sidebar, updateVersion string) string {
	logoStyle := lipgloss.NewStyle().Foreground(colorAccent)
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(colorText)

	var lines []string
	for _, l := range asciiLogo {
		lines = append(lines, logoStyle.Render(l))
	}
	lines = append(lines, "", helpDimStyle.Render(fmt.Sprintf("%d published posts", sb.Published)), "")

	colWidth := max(min(width/2, 60), 20)
	var col []string
	col = append(col, renderSection("Featured", sb.Featured, colWidth)...)
	col = append(col, renderSection("Recent", sb.Recent, colWidth)...)
	col = append(col, renderSection("Popular", sb.Popular, colWidth)...)
	if len(sb.Categories) > 0 {
		var cats []string
		for _, c := range sb.Categories {
			cats = append(cats, fmt.Sprintf("%s (%d)", c.Category.Name, c.Count))
		}
		col = append(col, homeSectionStyle.Render("Categories"),
			"  "+homeItemStyle.Width(colWidth).Render(strings.Join(cats, " · ")), "")
	}
	lines = append(lines, lipgloss.NewStyle().Width(colWidth).Render(strings.Join(col, "\n")))

	lines = append(lines,
		"          "+keyStyle.Render("[e]")+"  "+labelStyle.Render("Browse posts"),
		"",
		"          "+keyStyle.Render("[q]")+"  "+labelStyle.Render("Quit"),
	)

	if updateVersion != "" {
		lines = append(lines, "", "          "+logoStyle.Render("Update available: v"+updateVersion))
	}

	content := strings.Join(lines, "\n")
	contentHeight := strings.Count(content, "\n") + 1
	topPad := max((height-contentHeight)/3, 0)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		strings.Repeat("\n", topPad)+content)
}
