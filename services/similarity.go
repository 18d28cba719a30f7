package services

import (
	"sort"
	"strings"
)

// Scorer rates how closely a candidate text relates to a query text in the
// range [0, 1]. It hides the matching strategy so the keyword heuristic can
// be swapped for a real search or embedding backend without touching the
// engine.
type Scorer interface {
	Score(query, candidate string) float64
}

// KeywordScorer is the default Scorer: token-set overlap (Jaccard) over
// lower-cased whitespace tokens.
type KeywordScorer struct{}

// Score implements Scorer.
func (KeywordScorer) Score(query, candidate string) float64 {
	qs := tokenSet(query)
	cs := tokenSet(candidate)
	if len(qs) == 0 || len(cs) == 0 {
		return 0
	}
	inter := 0
	for tok := range qs {
		if _, ok := cs[tok]; ok {
			inter++
		}
	}
	union := len(qs) + len(cs) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// RelatedItem is one scored recommendation.
type RelatedItem struct {
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Recommender ranks catalog items against a query using a pluggable Scorer.
type Recommender struct {
	scorer Scorer
}

// NewRecommender creates a Recommender; a nil scorer falls back to
// KeywordScorer.
func NewRecommender(scorer Scorer) *Recommender {
	if scorer == nil {
		scorer = KeywordScorer{}
	}
	return &Recommender{scorer: scorer}
}

// Related scores every candidate against the query and returns the top
// `limit` items with a positive score, best first.
func (r *Recommender) Related(query string, candidates map[int]string, limit int) []RelatedItem {
	if limit <= 0 {
		limit = 5
	}
	items := make([]RelatedItem, 0, len(candidates))
	for id, title := range candidates {
		if score := r.scorer.Score(query, title); score > 0 {
			items = append(items, RelatedItem{ID: id, Title: title, Score: score})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
