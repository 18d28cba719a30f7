package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcontext/kcontext/models"
)

const (
	testSuffix   = "의비밀"
	testItemZero = "도깨비키친"
)

func testResolverConfig() ResolverConfig {
	return ResolverConfig{CanonicalSuffix: testSuffix, ItemZeroTitle: testItemZero}
}

func analysisDoc(summary string) *models.AnalysisDocument {
	return &models.AnalysisDocument{
		Summary:    summary,
		Paragraphs: []models.ParagraphAnalysis{{ParagraphNum: 1, OriginalText: "본문", Explanation: "explanation"}},
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Fox And Crow", "FoxAndCrow" + testSuffix},
		{" FoxAndCrow ", "FoxAndCrow" + testSuffix},
		{"Fox\tAnd\nCrow", "FoxAndCrow" + testSuffix},
		{"FoxAndCrow" + testSuffix, "FoxAndCrow" + testSuffix},
		{testItemZero, testItemZero},
		{" " + testItemZero + " ", testItemZero},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeTitle(tc.in, testSuffix, testItemZero), "input %q", tc.in)
	}
}

func TestResolvePrecomputedSkipsAnalyzer(t *testing.T) {
	doc := analysisDoc("precomputed")
	pre := &fakePrecomputed{docs: map[string]map[string]*models.AnalysisDocument{
		"FoxAndCrow" + testSuffix: {"beginner": doc},
	}}
	cache := newFakeAnalysisCache()
	analyzer := &fakeAnalyzer{doc: analysisDoc("generated")}
	r := NewAnalysisResolver(pre, cache, analyzer, testResolverConfig(), nil)
	ctx := context.Background()

	// Two resolutions with differently-spaced titles hit the same entry.
	for _, title := range []string{"Fox And Crow", " FoxAndCrow "} {
		res, err := r.Resolve(ctx, title, "content", "beginner")
		require.NoError(t, err)
		assert.Equal(t, SourcePrecomputed, res.Source)
		assert.Equal(t, doc, res.Document)
	}
	assert.Zero(t, analyzer.calls)
	assert.Zero(t, cache.puts)
}

func TestResolvePersistentCacheHit(t *testing.T) {
	cached := analysisDoc("cached")
	cache := newFakeAnalysisCache()
	require.NoError(t, cache.Put(context.Background(), "Unknown Tale", "intermediate", cached))
	cache.puts = 0
	analyzer := &fakeAnalyzer{doc: analysisDoc("generated")}
	r := NewAnalysisResolver(&fakePrecomputed{}, cache, analyzer, testResolverConfig(), nil)

	res, err := r.Resolve(context.Background(), "Unknown Tale", "content", "intermediate")
	require.NoError(t, err)
	assert.Equal(t, SourcePersistentCache, res.Source)
	assert.Equal(t, cached, res.Document)
	assert.Zero(t, analyzer.calls)
	assert.Zero(t, cache.puts)
}

func TestResolveDoubleMissGeneratesAndCaches(t *testing.T) {
	generated := analysisDoc("generated")
	cache := newFakeAnalysisCache()
	analyzer := &fakeAnalyzer{doc: generated}
	r := NewAnalysisResolver(&fakePrecomputed{}, cache, analyzer, testResolverConfig(), nil)
	ctx := context.Background()

	res, err := r.Resolve(ctx, "Unknown Tale", "content", "beginner")
	require.NoError(t, err)
	assert.Equal(t, SourceGenerated, res.Source)
	assert.Equal(t, generated, res.Document)
	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, 1, cache.puts)

	// Second request is served from the cache; the analyzer stays cold.
	res, err = r.Resolve(ctx, "Unknown Tale", "content", "beginner")
	require.NoError(t, err)
	assert.Equal(t, SourcePersistentCache, res.Source)
	assert.Equal(t, 1, analyzer.calls)
}

func TestResolveLevelsCachedIndependently(t *testing.T) {
	cache := newFakeAnalysisCache()
	analyzer := &fakeAnalyzer{doc: analysisDoc("generated")}
	r := NewAnalysisResolver(&fakePrecomputed{}, cache, analyzer, testResolverConfig(), nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "Unknown Tale", "content", "beginner")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "Unknown Tale", "content", "advanced")
	require.NoError(t, err)
	assert.Equal(t, 2, analyzer.calls)
}

func TestResolveAnalyzerFailureLeavesCacheCold(t *testing.T) {
	cache := newFakeAnalysisCache()
	analyzer := &fakeAnalyzer{err: ErrAnalysisUnavailable}
	r := NewAnalysisResolver(&fakePrecomputed{}, cache, analyzer, testResolverConfig(), nil)

	_, err := r.Resolve(context.Background(), "Unknown Tale", "content", "beginner")
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	assert.Zero(t, cache.puts)
}

func TestResolveMalformedAnalysisPropagates(t *testing.T) {
	analyzer := &fakeAnalyzer{err: ErrMalformedAnalysis}
	r := NewAnalysisResolver(&fakePrecomputed{}, newFakeAnalysisCache(), analyzer, testResolverConfig(), nil)

	_, err := r.Resolve(context.Background(), "Unknown Tale", "content", "beginner")
	assert.ErrorIs(t, err, ErrMalformedAnalysis)
}

func TestResolveAnalyzerTimeout(t *testing.T) {
	cache := newFakeAnalysisCache()
	analyzer := &slowAnalyzer{}
	cfg := testResolverConfig()
	cfg.AnalyzerTimeout = time.Millisecond
	r := NewAnalysisResolver(&fakePrecomputed{}, cache, analyzer, cfg, nil)

	_, err := r.Resolve(context.Background(), "Unknown Tale", "content", "beginner")
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	assert.Zero(t, cache.puts)
}

// slowAnalyzer blocks until the resolver's deadline fires.
type slowAnalyzer struct{}

func (slowAnalyzer) Analyze(ctx context.Context, content, level string) (*models.AnalysisDocument, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
