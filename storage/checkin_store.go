package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/kcontext/kcontext/models"
)

// CheckInStore persists daily attendance rows and mirrors the streak
// counters onto the user row for cheap profile reads.
type CheckInStore struct {
	db *gorm.DB
}

// NewCheckInStore creates a CheckInStore.
func NewCheckInStore(db *gorm.DB) *CheckInStore {
	return &CheckInStore{db: db}
}

// Last returns the user's most recent check-in, or ErrNotFound.
func (s *CheckInStore) Last(ctx context.Context, userID uint) (*models.CheckIn, error) {
	var rec models.CheckIn
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("checkin_date DESC").
		First(&rec).Error
	if err != nil {
		return nil, wrap("checkin last", err)
	}
	return &rec, nil
}

// Record inserts the check-in. The unique (user, date) index turns the
// losing side of a duplicate race into ErrDuplicate.
func (s *CheckInStore) Record(ctx context.Context, rec *models.CheckIn) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", rec.UserID).
			Updates(map[string]interface{}{
				"current_streak":  rec.Streak,
				"longest_streak":  rec.LongestStreak,
				"last_checkin_at": rec.CheckinDate,
			}).Error
	})
	return wrap("checkin record", err)
}
