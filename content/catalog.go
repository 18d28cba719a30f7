// Package content loads the shipped learning material: the story catalog and
// the precomputed analysis table. Both are read once at startup and immutable
// afterwards, so lookups need no locking.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Story is one catalog item. ID comes from the numeric file prefix; item
// zero is the showcase story outside the seasonal numbering.
type Story struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"-"`
}

// Preview returns the opening of the story for catalog listings.
func (s *Story) Preview(runes int) string {
	if utf8.RuneCountInString(s.Content) <= runes {
		return s.Content
	}
	out := []rune(s.Content)
	return strings.TrimSpace(string(out[:runes])) + "…"
}

// Catalog is the loaded story set, ordered by ID.
type Catalog struct {
	stories map[int]*Story
	order   []int
}

// LoadCatalog reads every NN_Title.txt file under dir. Files that do not
// match the naming pattern are skipped.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read story dir %s: %w", dir, err)
	}

	c := &Catalog{stories: map[int]*Story{}}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		id, title, ok := parseStoryName(entry.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read story %s: %w", entry.Name(), err)
		}
		c.stories[id] = &Story{ID: id, Title: title, Content: strings.TrimSpace(string(data))}
	}
	if len(c.stories) == 0 {
		return nil, fmt.Errorf("no stories found in %s", dir)
	}

	for id := range c.stories {
		c.order = append(c.order, id)
	}
	sort.Ints(c.order)
	return c, nil
}

// parseStoryName splits "03_여우와두루미.txt" into (3, "여우와두루미").
func parseStoryName(name string) (int, string, bool) {
	base := strings.TrimSuffix(name, ".txt")
	prefix, title, found := strings.Cut(base, "_")
	if !found || title == "" {
		return 0, "", false
	}
	id, err := strconv.Atoi(prefix)
	if err != nil || id < 0 {
		return 0, "", false
	}
	return id, title, true
}

// List returns all stories in ID order.
func (c *Catalog) List() []*Story {
	out := make([]*Story, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.stories[id])
	}
	return out
}

// Get returns one story by ID.
func (c *Catalog) Get(id int) (*Story, bool) {
	s, ok := c.stories[id]
	return s, ok
}

// Titles maps story IDs to titles, for the recommender.
func (c *Catalog) Titles() map[int]string {
	out := make(map[int]string, len(c.stories))
	for id, s := range c.stories {
		out[id] = s.Title
	}
	return out
}

// Len reports the catalog size.
func (c *Catalog) Len() int {
	return len(c.stories)
}
