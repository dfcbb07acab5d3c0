package assets

import (
	"sort"
	"strings"
)

// DefaultMaxResults caps Match when no limit is given
const DefaultMaxResults = 5

// Match is one ranked asset for a narration
type Match struct {
	Asset Entry `json:"asset"`
	Score int   `json:"score"`
}

// MatchOptions narrows a Match query
type MatchOptions struct {
	Category   Category
	MaxResults int
	ExcludeIDs []string
}

// SectionHints maps a section type to the categories tried when narration matches nothing
var SectionHints = map[string][]Category{
	"intro":      {Element, Effect},
	"explain":    {Character, Element},
	"chart":      {Element},
	"comparison": {Element},
	"callout":    {Element, Effect},
	"outro":      {Effect},
}

// HintsFor returns the fallback categories for a section type
func HintsFor(sectionType string) []Category {
	if hints, ok := SectionHints[sectionType]; ok {
		return hints
	}
	return []Category{Element}
}

// Match ranks registry assets against narration by keyword overlap.
// Tags written in Hangul score 2, other tags score 1. Ties keep registry order.
func (r *Registry) Match(narration string, opts MatchOptions) []Match {
	text := strings.ToLower(narration)
	max := opts.MaxResults
	if max <= 0 {
		max = DefaultMaxResults
	}

	excluded := make(map[string]struct{}, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	var results []Match
	for _, asset := range r.All() {
		if opts.Category != "" && asset.Category != opts.Category {
			continue
		}
		if _, skip := excluded[asset.ID]; skip {
			continue
		}

		score := 0
		for _, tag := range asset.Tags {
			if tag == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(tag)) {
				score += tagWeight(tag)
			}
		}

		if score > 0 {
			results = append(results, Match{Asset: asset, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > max {
		results = results[:max]
	}
	return results
}

// FindBest returns the single best asset, or nil when nothing scores
func (r *Registry) FindBest(narration string, category Category, excludeIDs []string) *Entry {
	matches := r.Match(narration, MatchOptions{
		Category:   category,
		MaxResults: 1,
		ExcludeIDs: excludeIDs,
	})
	if len(matches) == 0 {
		return nil
	}
	best := matches[0].Asset
	return &best
}

func tagWeight(tag string) int {
	for _, r := range tag {
		if r >= '\u3131' && r <= '\uD79D' {
			return 2
		}
	}
	return 1
}
