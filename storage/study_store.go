package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kcontext/kcontext/models"
)

// StudySummary aggregates a user's learning history for the dashboard.
type StudySummary struct {
	TotalSessions   int64   `json:"total_sessions"`
	StoriesStudied  int64   `json:"stories_studied"`
	QuizzesTaken    int64   `json:"quizzes_taken"`
	AverageQuiz     float64 `json:"average_quiz_score"`
	PerfectQuizzes  int64   `json:"perfect_quizzes"`
	LastSessionType string  `json:"last_session_type,omitempty"`
}

// StudyStore persists per-session study records.
type StudyStore struct {
	db *gorm.DB
}

// NewStudyStore creates a StudyStore.
func NewStudyStore(db *gorm.DB) *StudyStore {
	return &StudyStore{db: db}
}

// Record appends one study session.
func (s *StudyStore) Record(ctx context.Context, rec *models.StudyRecord) error {
	return wrap("study record", s.db.WithContext(ctx).Create(rec).Error)
}

// Recent returns the user's latest sessions, newest first.
func (s *StudyStore) Recent(ctx context.Context, userID uint, limit int) ([]models.StudyRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []models.StudyRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrap("study recent", err)
	}
	return rows, nil
}

// Summary aggregates the user's study history.
func (s *StudyStore) Summary(ctx context.Context, userID uint) (*StudySummary, error) {
	var out StudySummary
	base := s.db.WithContext(ctx).Model(&models.StudyRecord{}).Where("user_id = ?", userID)

	if err := base.Session(&gorm.Session{}).Count(&out.TotalSessions).Error; err != nil {
		return nil, wrap("study summary", err)
	}
	if err := base.Session(&gorm.Session{}).Distinct("story_id").Count(&out.StoriesStudied).Error; err != nil {
		return nil, wrap("study summary", err)
	}

	quizzes := base.Session(&gorm.Session{}).Where("quiz_score IS NOT NULL")
	if err := quizzes.Session(&gorm.Session{}).Count(&out.QuizzesTaken).Error; err != nil {
		return nil, wrap("study summary", err)
	}
	if out.QuizzesTaken > 0 {
		var avg *float64
		if err := quizzes.Session(&gorm.Session{}).Select("AVG(quiz_score)").Scan(&avg).Error; err != nil {
			return nil, wrap("study summary", err)
		}
		if avg != nil {
			out.AverageQuiz = *avg
		}
		if err := quizzes.Session(&gorm.Session{}).Where("quiz_score = 100").Count(&out.PerfectQuizzes).Error; err != nil {
			return nil, wrap("study summary", err)
		}
	}

	var last models.StudyRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").First(&last).Error
	switch {
	case err == nil:
		out.LastSessionType = last.SessionType
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No sessions yet.
	default:
		return nil, wrap("study summary", err)
	}
	return &out, nil
}
