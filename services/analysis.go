package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/kcontext/kcontext/models"
)

// Analysis sources, cheapest tier first.
type AnalysisSource string

const (
	SourcePrecomputed     AnalysisSource = "precomputed"
	SourcePersistentCache AnalysisSource = "persistent_cache"
	SourceGenerated       AnalysisSource = "generated"
)

// PrecomputedTable is the read-only tier built once at startup from the
// shipped data files, keyed by normalized title.
type PrecomputedTable interface {
	Lookup(key, level string) (*models.AnalysisDocument, bool)
}

// AnalysisCacheStore is the durable cache tier, keyed by raw title and level.
type AnalysisCacheStore interface {
	Get(ctx context.Context, title, level string) (*models.AnalysisDocument, error)
	// Put upserts: a second write for the same key replaces the payload.
	Put(ctx context.Context, title, level string, doc *models.AnalysisDocument) error
}

// Analyzer is the external generative collaborator. Implementations must
// return ErrAnalysisUnavailable for transport/availability failures and
// ErrMalformedAnalysis for responses that do not validate.
type Analyzer interface {
	Analyze(ctx context.Context, content, level string) (*models.AnalysisDocument, error)
}

// Resolution is a resolved analysis tagged with the tier that supplied it.
type Resolution struct {
	Document *models.AnalysisDocument `json:"document"`
	Source   AnalysisSource           `json:"source"`
}

// ResolverConfig carries the title-normalization rule and the analyzer
// timeout.
type ResolverConfig struct {
	// CanonicalSuffix is appended to whitespace-stripped titles unless
	// already present; the precomputed data files use this canonical form.
	CanonicalSuffix string
	// ItemZeroTitle is the one title exempt from suffix appending.
	ItemZeroTitle string
	// AnalyzerTimeout bounds the only slow call in the system.
	AnalyzerTimeout time.Duration
}

// AnalysisResolver resolves a story analysis through three tiers, cheapest
// first: the precomputed table, the durable cache, and finally the external
// analyzer. The analyzer is never invoked when a cheaper tier has the
// answer, and the durable cache is only written after a tier-3 resolution.
type AnalysisResolver struct {
	pre      PrecomputedTable
	cache    AnalysisCacheStore
	analyzer Analyzer
	cfg      ResolverConfig
	log      *zap.SugaredLogger
}

// NewAnalysisResolver creates the resolver. log may be nil.
func NewAnalysisResolver(pre PrecomputedTable, cache AnalysisCacheStore, analyzer Analyzer, cfg ResolverConfig, log *zap.SugaredLogger) *AnalysisResolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.AnalyzerTimeout <= 0 {
		cfg.AnalyzerTimeout = 90 * time.Second
	}
	return &AnalysisResolver{pre: pre, cache: cache, analyzer: analyzer, cfg: cfg, log: log}
}

// NormalizeKey maps a raw title onto the precomputed table's key form.
func (r *AnalysisResolver) NormalizeKey(title string) string {
	return NormalizeTitle(title, r.cfg.CanonicalSuffix, r.cfg.ItemZeroTitle)
}

// Resolve returns the analysis for (title, level), consulting the tiers in
// order. content is only sent to the analyzer on a double miss.
func (r *AnalysisResolver) Resolve(ctx context.Context, title, content, level string) (*Resolution, error) {
	if doc, ok := r.pre.Lookup(r.NormalizeKey(title), level); ok {
		return &Resolution{Document: doc, Source: SourcePrecomputed}, nil
	}

	doc, err := r.cache.Get(ctx, title, level)
	switch {
	case err == nil:
		return &Resolution{Document: doc, Source: SourcePersistentCache}, nil
	case errors.Is(err, ErrNotFound):
		// Fall through to the analyzer.
	default:
		return nil, err
	}

	actx, cancel := context.WithTimeout(ctx, r.cfg.AnalyzerTimeout)
	defer cancel()
	doc, err = r.analyzer.Analyze(actx, content, level)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: analyzer timed out after %s", ErrAnalysisUnavailable, r.cfg.AnalyzerTimeout)
		}
		return nil, err
	}

	if err := r.cache.Put(ctx, title, level, doc); err != nil {
		// The result is good; losing the cache write only costs a future
		// analyzer call.
		r.log.Warnf("analysis cache write failed for %q level %s: %v", title, level, err)
	}
	return &Resolution{Document: doc, Source: SourceGenerated}, nil
}

// NormalizeTitle strips all whitespace from a raw title and appends the
// canonical suffix unless the title already ends with it. The item-zero
// title is exempt from suffix appending.
func NormalizeTitle(title, suffix, itemZero string) string {
	key := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, title)
	if key == itemZero {
		return key
	}
	if suffix != "" && !strings.HasSuffix(key, suffix) {
		key += suffix
	}
	return key
}
