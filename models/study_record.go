package models

import "time"

// StudyRecord logs one learning session for the dashboard: a reading pass,
// a quiz run, or a pronunciation practice.
type StudyRecord struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"index;not null" json:"user_id"`
	StoryID            int       `gorm:"index;not null" json:"story_id"`
	SessionType        string    `gorm:"size:32;not null" json:"session_type"`
	Level              string    `gorm:"size:16" json:"level"`
	QuizScore          *int      `json:"quiz_score,omitempty"`
	PronunciationScore *int      `json:"pronunciation_score,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
