package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kcontext/kcontext/models"
	"github.com/kcontext/kcontext/services"
)

// AnalysisStore is the durable tier of the analysis cache, keyed by raw
// title and level.
type AnalysisStore struct {
	db *gorm.DB
}

// NewAnalysisStore creates an AnalysisStore.
func NewAnalysisStore(db *gorm.DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

// Get returns the cached document, or ErrNotFound.
func (s *AnalysisStore) Get(ctx context.Context, title, level string) (*models.AnalysisDocument, error) {
	var row models.AnalysisCache
	err := s.db.WithContext(ctx).
		Where("title = ? AND level = ?", title, level).
		First(&row).Error
	if err != nil {
		return nil, wrap("analysis get", err)
	}
	var doc models.AnalysisDocument
	if err := json.Unmarshal(row.Payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: cached payload for %q/%s: %v", services.ErrMalformedAnalysis, title, level, err)
	}
	return &doc, nil
}

// Put upserts the document; a rewrite for the same (title, level) replaces
// the payload in place.
func (s *AnalysisStore) Put(ctx context.Context, title, level string, doc *models.AnalysisDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode analysis for %q/%s: %w", title, level, err)
	}
	row := models.AnalysisCache{
		Title:     title,
		Level:     level,
		Payload:   payload,
		Generated: true,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}, {Name: "level"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	return wrap("analysis put", err)
}
