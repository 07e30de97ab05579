// Package search filters and orders template lists for display.
package search

import (
	"cmp"
	"slices"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/posekit/internal/domain"
)

// Sort selects the order of filter results
type Sort string

const (
	SortNewest     Sort = "newest"
	SortOldest     Sort = "oldest"
	SortNameAsc    Sort = "name-asc"
	SortNameDesc   Sort = "name-desc"
	SortDifficulty Sort = "difficulty"
	SortRelevance  Sort = "relevance" // Best name match first; newest without text
)

// Sorts lists every sort option
var Sorts = []Sort{SortNewest, SortOldest, SortNameAsc, SortNameDesc, SortDifficulty, SortRelevance}

// ParseSort maps a raw option to a Sort. Empty input selects SortNewest.
func ParseSort(raw string) (Sort, bool) {
	if raw == "" {
		return SortNewest, true
	}
	for _, s := range Sorts {
		if string(s) == raw {
			return s, true
		}
	}
	return SortNewest, false
}

// Query narrows a template list. Zero values match everything.
type Query struct {
	Text     string          // Fuzzy match against name, then tags
	Category domain.Category // Empty = all categories
	Sort     Sort
}

// nameIndex implements sahilm/fuzzy.Source over pre-lowered names
type nameIndex []string

func (n nameIndex) String(i int) string { return n[i] }
func (n nameIndex) Len() int            { return len(n) }

type hit struct {
	template domain.PoseTemplate
	rank     int // Position among name matches; tag-only hits rank last
}

// Filter returns the templates matching q in q.Sort order. The input slice
// is left untouched.
func Filter(templates []domain.PoseTemplate, q Query) []domain.PoseTemplate {
	candidates := make([]domain.PoseTemplate, 0, len(templates))
	for _, t := range templates {
		if q.Category == "" || t.Category == q.Category {
			candidates = append(candidates, t)
		}
	}

	hits := match(candidates, strings.TrimSpace(q.Text))
	slices.SortStableFunc(hits, compareFor(q.Sort))

	results := make([]domain.PoseTemplate, len(hits))
	for i, h := range hits {
		results[i] = h.template
	}
	return results
}

func match(candidates []domain.PoseTemplate, text string) []hit {
	hits := make([]hit, 0, len(candidates))
	if text == "" {
		for _, t := range candidates {
			hits = append(hits, hit{template: t})
		}
		return hits
	}

	names := make(nameIndex, len(candidates))
	for i, t := range candidates {
		names[i] = strings.ToLower(t.Name)
	}

	matches := fuzzy.FindFrom(strings.ToLower(text), names)
	ranks := make(map[int]int, len(matches))
	for rank, m := range matches {
		ranks[m.Index] = rank
	}

	for i, t := range candidates {
		rank, ok := ranks[i]
		if !ok {
			if !matchesTag(text, t.Tags) {
				continue
			}
			rank = len(matches)
		}
		hits = append(hits, hit{template: t, rank: rank})
	}
	return hits
}

func matchesTag(text string, tags []string) bool {
	for _, tag := range tags {
		if lfuzzy.MatchFold(text, tag) {
			return true
		}
	}
	return false
}

func compareFor(s Sort) func(a, b hit) int {
	newest := func(a, b hit) int { return b.template.CreatedAt.Compare(a.template.CreatedAt) }

	switch s {
	case SortOldest:
		return func(a, b hit) int { return a.template.CreatedAt.Compare(b.template.CreatedAt) }
	case SortNameAsc:
		return func(a, b hit) int {
			return cmp.Or(compareNames(a.template.Name, b.template.Name), newest(a, b))
		}
	case SortNameDesc:
		return func(a, b hit) int {
			return cmp.Or(compareNames(b.template.Name, a.template.Name), newest(a, b))
		}
	case SortDifficulty:
		return func(a, b hit) int {
			return cmp.Or(cmp.Compare(a.template.Difficulty.Rank(), b.template.Difficulty.Rank()), newest(a, b))
		}
	case SortRelevance:
		return func(a, b hit) int {
			return cmp.Or(cmp.Compare(a.rank, b.rank), newest(a, b))
		}
	default:
		return newest
	}
}

func compareNames(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
