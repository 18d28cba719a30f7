package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordScorer(t *testing.T) {
	s := KeywordScorer{}

	assert.Equal(t, 1.0, s.Score("the fox", "The Fox"))
	assert.Equal(t, 0.0, s.Score("fox", "rabbit"))
	assert.Equal(t, 0.0, s.Score("", "rabbit"))
	assert.InDelta(t, 1.0/3.0, s.Score("fox tale", "fox story"), 1e-9)
}

func TestRecommenderRanksByOverlap(t *testing.T) {
	r := NewRecommender(nil)
	candidates := map[int]string{
		2: "The Fox And The Crow",
		3: "The Fox Brothers",
		4: "Rabbit And Turtle",
		5: "A Winter Story",
	}

	items := r.Related("The Fox And The Grapes", candidates, 3)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].ID)
	assert.Equal(t, 3, items[1].ID)
	assert.Greater(t, items[0].Score, items[1].Score)
}

func TestRecommenderLimitAndDeterministicTies(t *testing.T) {
	r := NewRecommender(nil)
	candidates := map[int]string{
		9: "fox one",
		7: "fox one",
		8: "fox one",
	}

	items := r.Related("fox", candidates, 2)
	require.Len(t, items, 2)
	assert.Equal(t, 7, items[0].ID)
	assert.Equal(t, 8, items[1].ID)
}

func TestRecommenderCustomScorer(t *testing.T) {
	r := NewRecommender(constScorer(0.5))
	items := r.Related("anything", map[int]string{1: "a", 2: "b"}, 10)
	assert.Len(t, items, 2)
}

type constScorer float64

func (c constScorer) Score(query, candidate string) float64 { return float64(c) }

func TestRecommenderNoMatches(t *testing.T) {
	r := NewRecommender(nil)
	items := r.Related("zebra", map[int]string{1: "fox", 2: "crow"}, 5)
	assert.Empty(t, items)
}
