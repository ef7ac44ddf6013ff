package classify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matheuskafuri/quill/internal/content"
	"github.com/matheuskafuri/quill/internal/post"
)

// Topic is one of the blog's built-in categories for imported posts.
type Topic string

const (
	Programming Topic = "Programming"
	WebDev      Topic = "Web Development"
	DevOps      Topic = "DevOps"
	Data        Topic = "Data"
	Security    Topic = "Security"
	Design      Topic = "Design"
	Career      Topic = "Career"
	General     Topic = "General"
)

// Topics returns every topic in canonical order, General last.
func Topics() []Topic {
	return []Topic{Programming, WebDev, DevOps, Data, Security, Design, Career, General}
}

var topicKeywords = map[Topic][]string{
	Programming: {
		"golang", "rust", "python", "java", "typescript", "compiler", "generics",
		"concurrency", "goroutine", "refactoring", "algorithm", "testing",
		"functional", "library", "package", "code review",
	},
	WebDev: {
		"javascript", "react", "vue", "svelte", "css", "html", "browser",
		"frontend", "backend", "http", "rest", "graphql", "api", "next.js",
		"web component", "server side rendering",
	},
	DevOps: {
		"kubernetes", "docker", "container", "terraform", "deploy", "ci/cd",
		"pipeline", "observability", "monitoring", "cloud", "aws", "incident",
		"infrastructure", "helm",
	},
	Data: {
		"database", "sql", "postgres", "sqlite", "analytics", "warehouse",
		"machine learning", "llm", "model", "embedding", "etl", "query",
		"index", "data science",
	},
	Security: {
		"security", "vulnerability", "exploit", "authentication", "encryption",
		"tls", "certificate", "oauth", "jwt", "xss", "csrf", "injection",
		"zero trust", "password",
	},
	Design: {
		"design", "typography", "accessibility", "color", "layout", "figma",
		"usability", "interface", "user experience",
	},
	Career: {
		"career", "interview", "hiring", "mentor", "leadership", "manager",
		"burnout", "remote", "salary", "team", "side project",
	},
}

var aliases = map[string]Topic{
	"prog":     Programming,
	"code":     Programming,
	"web":      WebDev,
	"ops":      DevOps,
	"devops":   DevOps,
	"data":     Data,
	"security": Security,
	"sec":      Security,
	"design":   Design,
	"career":   Career,
	"general":  General,
}

// Resolve maps a short alias or a full topic name to a Topic.
func Resolve(name string) (Topic, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if t, ok := aliases[key]; ok {
		return t, nil
	}
	for _, t := range Topics() {
		if strings.EqualFold(string(t), key) || content.Slugify(string(t)) == key {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topic %q (valid: prog, web, ops, data, sec, design, career, general)", name)
}

// Category returns the post category stored for the topic.
func (t Topic) Category() post.Category {
	slug := content.Slugify(string(t))
	return post.Category{ID: "cat-" + slug, Name: string(t), Slug: slug}
}

// Classify picks a topic from a post's title and body. Title keywords are
// weighted 2x; ties go to the earlier topic. Returns General when nothing
// matches.
func Classify(title, body string) Topic {
	titleTokens := tokenize(title)
	bodyTokens := tokenize(body)
	titleLower := strings.ToLower(title)
	bodyLower := strings.ToLower(body)

	best := General
	bestScore := 0

	for _, topic := range Topics() {
		score := 0
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(kw, " ") {
				if strings.Contains(titleLower, kw) {
					score += 2
				}
				if strings.Contains(bodyLower, kw) {
					score++
				}
				continue
			}
			score += 2 * countMatches(titleTokens, kw)
			score += countMatches(bodyTokens, kw)
		}
		if score > bestScore {
			bestScore = score
			best = topic
		}
	}
	return best
}

func countMatches(tokens []string, kw string) int {
	n := 0
	for _, t := range tokens {
		if strings.Contains(t, kw) {
			n++
		}
	}
	return n
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
