package content

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kcontext/kcontext/models"
)

// PrecomputedTable holds the analyses shipped with the build, keyed by
// normalized title and level. Missing file is not an error; the resolver
// simply falls through to the later tiers.
type PrecomputedTable struct {
	docs map[string]map[string]*models.AnalysisDocument
}

// LoadPrecomputed reads the JSON table from path. The file maps raw titles
// to level-keyed documents; titles are re-keyed through normalize so lookup
// and load agree on the canonical form.
func LoadPrecomputed(path string, normalize func(string) string) (*PrecomputedTable, error) {
	t := &PrecomputedTable{docs: map[string]map[string]*models.AnalysisDocument{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read precomputed table %s: %w", path, err)
	}

	var raw map[string]map[string]*models.AnalysisDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse precomputed table %s: %w", path, err)
	}

	for title, levels := range raw {
		key := title
		if normalize != nil {
			key = normalize(title)
		}
		if t.docs[key] == nil {
			t.docs[key] = map[string]*models.AnalysisDocument{}
		}
		for level, doc := range levels {
			t.docs[key][level] = doc
		}
	}
	return t, nil
}

// Lookup returns the shipped document for (key, level).
func (t *PrecomputedTable) Lookup(key, level string) (*models.AnalysisDocument, bool) {
	levels, ok := t.docs[key]
	if !ok {
		return nil, false
	}
	doc, ok := levels[level]
	return doc, ok
}

// Len reports how many titles the table covers.
func (t *PrecomputedTable) Len() int {
	return len(t.docs)
}
