package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kcontext/kcontext/models"
	"github.com/kcontext/kcontext/services"
)

// ApprovalStore persists manual-review records.
type ApprovalStore struct {
	db *gorm.DB
}

// NewApprovalStore creates an ApprovalStore.
func NewApprovalStore(db *gorm.DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

// Create inserts a fresh record; a second record for the same user fails on
// the unique user index with ErrDuplicate.
func (s *ApprovalStore) Create(ctx context.Context, rec *models.ApprovalRecord) error {
	return wrap("approval create", s.db.WithContext(ctx).Create(rec).Error)
}

// ByUser returns the user's record, or ErrNotFound.
func (s *ApprovalStore) ByUser(ctx context.Context, userID uint) (*models.ApprovalRecord, error) {
	var rec models.ApprovalRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error; err != nil {
		return nil, wrap("approval by user", err)
	}
	return &rec, nil
}

// ConsumeToken moves the pending record holding the token into the terminal
// status. The WHERE clause only matches pending rows, so the first decision
// wins and every later attempt sees ErrNotFound.
func (s *ApprovalStore) ConsumeToken(ctx context.Context, token string, status models.ApprovalStatus, decidedAt time.Time) (*models.ApprovalRecord, error) {
	var rec models.ApprovalRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ApprovalRecord{}).
			Where("approval_token = ? AND status = ?", token, models.ApprovalPending).
			Updates(map[string]interface{}{"status": status, "decided_at": decidedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrNotFound
		}
		return tx.Where("approval_token = ?", token).First(&rec).Error
	})
	if err != nil {
		return nil, wrap("approval consume token", err)
	}
	return &rec, nil
}
