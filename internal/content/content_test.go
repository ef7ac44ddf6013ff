package content

import (
	"strings"
	"testing"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"No tags here", "No tags here"},
		{"<div>  Multiple   spaces  </div>", "Multiple spaces"},
		{"", ""},
		{"<a href=\"url\">Link</a> text", "Link text"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"<script>one two three</script> four", "one two three four"},
		{"<style>p { color: red }</style>Body", "p { color: red }Body"},
	}
	for _, tt := range tests {
		got := StripMarkup(tt.input)
		if got != tt.want {
			t.Errorf("StripMarkup(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{1, 1},
		{200, 1},
		{201, 2},
		{400, 2},
		{1000, 5},
	}
	for _, tt := range tests {
		got := ReadingTime(nWords(tt.words))
		if got != tt.want {
			t.Errorf("ReadingTime(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestReadingTimeIgnoresMarkup(t *testing.T) {
	body := "<p>" + nWords(200) + "</p><img src=\"a.png\" alt=\"one two three\">"
	if got := ReadingTime(body); got != 1 {
		t.Errorf("expected markup to be ignored, got %d minutes", got)
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("<script>one two three</script> four"); got != 4 {
		t.Errorf("WordCount(script) = %d, want 4", got)
	}
	if got := WordCount("  one\ttwo\n\nthree  "); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount(empty) = %d, want 0", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a long string", 10, "this is a..."},
		{"hello world again", 6, "hello..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc..."},
		{"", 5, ""},
	}
	for _, tt := range tests {
		got := Truncate(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestTruncateUTF8(t *testing.T) {
	got := Truncate("こんにちは世界です", 5)
	want := "こんにちは..."
	if got != want {
		t.Errorf("Truncate(Japanese, 5) = %q, want %q", got, want)
	}
}

func TestExcerpt(t *testing.T) {
	body := "<h1>Title</h1><p>" + strings.Repeat("a", 200) + "</p>"
	got := Excerpt(body, 10)
	if got != "Titleaaaaa..." {
		t.Errorf("Excerpt = %q", got)
	}

	if got := Excerpt("<p>short</p>", 0); got != "short" {
		t.Errorf("Excerpt with default budget = %q, want short", got)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Go 1.24: What's New?  ", "go-124-whats-new"},
		{"multiple   spaces -- and dashes", "multiple-spaces-and-dashes"},
		{"Ünïcode Títle", "ncode-ttle"},
		{"", ""},
	}
	for _, tt := range tests {
		got := Slugify(tt.input)
		if got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func nWords(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}
