package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStory(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeStory(t, dir, "00_도깨비키친.txt", "도깨비가 요리를 했다.")
	writeStory(t, dir, "01_여우와두루미.txt", "여우가 두루미를 초대했다.")
	writeStory(t, dir, "10_호랑이형님.txt", "호랑이가 산에 살았다.")
	writeStory(t, dir, "notes.md", "ignored")
	writeStory(t, dir, "broken.txt", "no numeric prefix")

	c, err := LoadCatalog(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	stories := c.List()
	require.Len(t, stories, 3)
	assert.Equal(t, []int{0, 1, 10}, []int{stories[0].ID, stories[1].ID, stories[2].ID})
	assert.Equal(t, "여우와두루미", stories[1].Title)

	s, ok := c.Get(10)
	require.True(t, ok)
	assert.Equal(t, "호랑이가 산에 살았다.", s.Content)

	_, ok = c.Get(99)
	assert.False(t, ok)

	titles := c.Titles()
	assert.Equal(t, "도깨비키친", titles[0])
}

func TestLoadCatalogEmptyDirFails(t *testing.T) {
	_, err := LoadCatalog(t.TempDir())
	assert.Error(t, err)
}

func TestStoryPreview(t *testing.T) {
	s := &Story{Content: "여우가 두루미를 초대했다"}
	assert.Equal(t, "여우가 두루미를 초대했다", s.Preview(100))
	assert.Equal(t, "여우가…", s.Preview(4))
}

func TestLoadPrecomputed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analyses.json")
	payload := `{
		"여우와 두루미": {
			"beginner": {"summary": "a fox story", "paragraphs_analysis": []}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	normalize := func(title string) string { return "여우와두루미의비밀" }
	table, err := LoadPrecomputed(path, normalize)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	doc, ok := table.Lookup("여우와두루미의비밀", "beginner")
	require.True(t, ok)
	assert.Equal(t, "a fox story", doc.Summary)

	_, ok = table.Lookup("여우와두루미의비밀", "advanced")
	assert.False(t, ok)
}

func TestLoadPrecomputedMissingFileIsEmpty(t *testing.T) {
	table, err := LoadPrecomputed(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.NoError(t, err)
	assert.Zero(t, table.Len())
}
