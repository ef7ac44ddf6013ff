package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/quill/internal/content"
	"github.com/matheuskafuri/quill/internal/post"
)

func renderPreview(p *post.Post, related []post.Post, link string, width, height, scroll int) string {
	if p == nil {
		return lipglossCenter("Select a post", width, height)
	}

	contentWidth := max(width-2, 10)

	title := previewTitleStyle.Width(contentWidth).Render(p.Title)
	meta := previewMetaStyle.Render(fmt.Sprintf("%s · %s · %d min read · %d views",
		p.Author.Name,
		p.EffectiveDate().Format("Jan 2, 2006"),
		content.ReadingTime(p.Content),
		p.ViewCount,
	))

	var taxonomy []string
	for _, c := range p.Categories {
		taxonomy = append(taxonomy, c.Name)
	}
	for _, t := range p.Tags {
		taxonomy = append(taxonomy, "#"+t.Slug)
	}

	text := p.Excerpt
	if text == "" {
		text = content.Excerpt(p.Content, content.DefaultExcerptLength)
	}
	if text == "" {
		text = "(No content available)"
	}
	body := previewBodyStyle.Width(contentWidth).Render(wrapText(text, contentWidth))

	parts := []string{title, meta}
	if len(taxonomy) > 0 {
		parts = append(parts, previewTagStyle.Width(contentWidth).Render(strings.Join(taxonomy, "  ")))
	}
	parts = append(parts, "", body)

	if len(related) > 0 {
		parts = append(parts, "", previewSectionStyle.Render("Related"))
		for _, r := range related {
			parts = append(parts, "  "+truncateStr(r.Title, contentWidth-4))
		}
	}
	if link != "" {
		parts = append(parts, previewLinkStyle.Width(contentWidth).Render("Read more: "+link))
	}

	lines := strings.Split(lipgloss.JoinVertical(lipgloss.Left, parts...), "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
