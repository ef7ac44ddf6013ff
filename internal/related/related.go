package related

import (
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/matheuskafuri/quill/internal/post"
)

// DefaultLimit is the number of related posts shown under a post.
const DefaultLimit = 3

// Breakdown shows how each component contributed to the final score.
type Breakdown struct {
	Categories float64 `json:"categories"`
	Tags       float64 `json:"tags"`
	Author     float64 `json:"author"`
	Length     float64 `json:"length"`
	Recency    float64 `json:"recency"`
	Popularity float64 `json:"popularity"`
	Featured   float64 `json:"featured"`
	Final      float64 `json:"final"`
}

// Scored pairs a candidate with its score breakdown.
type Scored struct {
	Post      post.Post `json:"post"`
	Breakdown Breakdown `json:"breakdown"`
}

const (
	weightCategory  = 10.0
	weightTag       = 5.0
	weightAuthor    = 8.0
	weightLength    = 5.0
	bonusWeek       = 2.0
	bonusMonth      = 1.0
	bonusPopular    = 1.0
	bonusFeatured   = 2.0
	popularMinViews = 100
	day             = 24 * time.Hour
)

// Score computes how related candidate is to ref at time now.
func Score(ref, candidate post.Post, now time.Time) float64 {
	return ScoreWithBreakdown(ref, candidate, now).Final
}

// ScoreWithBreakdown computes the relatedness score with component details.
// Every component is non-negative.
func ScoreWithBreakdown(ref, candidate post.Post, now time.Time) Breakdown {
	b := Breakdown{
		Categories: float64(sharedCategories(ref, candidate)) * weightCategory,
		Tags:       float64(sharedTags(ref, candidate)) * weightTag,
		Length:     lengthScore(ref.Content, candidate.Content),
		Recency:    recencyScore(candidate.EffectiveDate(), now),
	}
	if ref.Author.ID == candidate.Author.ID {
		b.Author = weightAuthor
	}
	if candidate.ViewCount > popularMinViews {
		b.Popularity = bonusPopular
	}
	if candidate.IsFeatured {
		b.Featured = bonusFeatured
	}
	b.Final = b.Categories + b.Tags + b.Author + b.Length + b.Recency + b.Popularity + b.Featured
	return b
}

// Rank returns up to limit published posts from pool ordered by descending
// relatedness to ref. ref itself is never included. Equal scores keep their
// pool order.
func Rank(ref post.Post, pool []post.Post, limit int, now time.Time) []post.Post {
	scored := RankScored(ref, pool, limit, now)
	if len(scored) == 0 {
		return nil
	}
	out := make([]post.Post, len(scored))
	for i, s := range scored {
		out[i] = s.Post
	}
	return out
}

// RankScored is Rank with the score breakdown of every returned post.
func RankScored(ref post.Post, pool []post.Post, limit int, now time.Time) []Scored {
	if limit <= 0 || len(pool) == 0 {
		return nil
	}

	var candidates []Scored
	for _, p := range pool {
		if p.ID == ref.ID || !p.IsPublished() {
			continue
		}
		candidates = append(candidates, Scored{Post: p, Breakdown: ScoreWithBreakdown(ref, p, now)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Breakdown.Final > candidates[j].Breakdown.Final
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// sharedCategories counts ref's categories that candidate also has, by id.
func sharedCategories(ref, candidate post.Post) int {
	if len(ref.Categories) == 0 || len(candidate.Categories) == 0 {
		return 0
	}
	ids := make(map[string]struct{}, len(candidate.Categories))
	for _, c := range candidate.Categories {
		ids[c.ID] = struct{}{}
	}
	n := 0
	for _, c := range ref.Categories {
		if _, ok := ids[c.ID]; ok {
			n++
		}
	}
	return n
}

func sharedTags(ref, candidate post.Post) int {
	if len(ref.Tags) == 0 || len(candidate.Tags) == 0 {
		return 0
	}
	ids := make(map[string]struct{}, len(candidate.Tags))
	for _, t := range candidate.Tags {
		ids[t.ID] = struct{}{}
	}
	n := 0
	for _, t := range ref.Tags {
		if _, ok := ids[t.ID]; ok {
			n++
		}
	}
	return n
}

// lengthScore decays linearly from 5 at equal length to 0 when one body is
// empty and the other is not. Lengths are in runes.
func lengthScore(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	diff := math.Abs(float64(la - lb))
	return math.Max(0, weightLength-diff/float64(longest)*weightLength)
}

func recencyScore(published, now time.Time) float64 {
	age := now.Sub(published)
	switch {
	case age <= 7*day:
		return bonusWeek
	case age <= 30*day:
		return bonusMonth
	default:
		return 0
	}
}
