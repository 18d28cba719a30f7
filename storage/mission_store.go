package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kcontext/kcontext/models"
	"github.com/kcontext/kcontext/services"
)

// MissionStore persists daily mission rows.
type MissionStore struct {
	db *gorm.DB
}

// NewMissionStore creates a MissionStore.
func NewMissionStore(db *gorm.DB) *MissionStore {
	return &MissionStore{db: db}
}

// ForDay returns the user's missions for the given day in insertion order.
func (s *MissionStore) ForDay(ctx context.Context, userID uint, day string) ([]models.Mission, error) {
	var missions []models.Mission
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Order("id ASC").
		Find(&missions).Error
	if err != nil {
		return nil, wrap("mission for day", err)
	}
	return missions, nil
}

// CreateBatch inserts the day's full set in one transaction. The unique
// (user, day, type) index fails the whole batch with ErrDuplicate when a
// concurrent generator got there first.
func (s *MissionStore) CreateBatch(ctx context.Context, missions []models.Mission) error {
	return wrap("mission create batch", s.db.WithContext(ctx).Create(&missions).Error)
}

// ByID returns one mission, or ErrNotFound.
func (s *MissionStore) ByID(ctx context.Context, id uint) (*models.Mission, error) {
	var mission models.Mission
	if err := s.db.WithContext(ctx).First(&mission, id).Error; err != nil {
		return nil, wrap("mission by id", err)
	}
	return &mission, nil
}

// Advance adds progress to current_count in a single UPDATE expression and
// returns the updated row.
func (s *MissionStore) Advance(ctx context.Context, id uint, progress int) (*models.Mission, error) {
	var mission models.Mission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Mission{}).Where("id = ?", id).
			UpdateColumn("current_count", gorm.Expr("current_count + ?", progress))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrNotFound
		}
		return tx.First(&mission, id).Error
	})
	if err != nil {
		return nil, wrap("mission advance", err)
	}
	return &mission, nil
}

// MarkCompleted flips completed from false to true. The conditional WHERE
// makes the flip exclusive: exactly one caller observes RowsAffected == 1
// and pays the reward.
func (s *MissionStore) MarkCompleted(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Mission{}).
		Where("id = ? AND completed = ?", id, false).
		Updates(map[string]interface{}{"completed": true, "completed_at": at})
	if res.Error != nil {
		return false, wrap("mission mark completed", res.Error)
	}
	return res.RowsAffected == 1, nil
}
