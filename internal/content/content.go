// Package content holds the text helpers shared by listing, ranking and
// display code: markup stripping, reading time, excerpts and slugs.
package content

import (
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// DefaultExcerptLength is the excerpt budget used when none is given.
const DefaultExcerptLength = 150

// strict drops every tag but keeps the text of all elements, script and
// style bodies included. The result is plain text and never rendered as HTML.
var strict = bluemonday.StrictPolicy().
	AllowUnsafe(true).
	AllowElementsContent("script", "style", "noscript", "nostyle", "noembed", "noframes", "iframe", "object", "title")

// StripMarkup removes all tags, decodes entities and collapses whitespace.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	plain := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(plain), " ")
}

// WordCount counts whitespace-separated words after stripping markup.
func WordCount(s string) int {
	return len(strings.Fields(StripMarkup(s)))
}

// ReadingTime returns the estimated reading time in whole minutes, rounded
// up. Empty content reads in 0 minutes.
func ReadingTime(body string) int {
	words := WordCount(body)
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// Excerpt strips markup from body and truncates it to max runes.
func Excerpt(body string, max int) string {
	if max <= 0 {
		max = DefaultExcerptLength
	}
	return Truncate(StripMarkup(body), max)
}

// Truncate keeps the first n runes of s, trims trailing whitespace and
// appends "..." when anything was cut.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify turns a title into a URL slug.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
