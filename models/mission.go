package models

import "time"

// MissionType identifies one of the four fixed daily mission categories.
type MissionType string

const (
	MissionVocabulary MissionType = "vocabulary"
	MissionGrammar    MissionType = "grammar"
	MissionSentence   MissionType = "sentence"
	MissionKContent   MissionType = "k_content"
)

// MissionTypes lists the fixed daily set in generation order.
func MissionTypes() []MissionType {
	return []MissionType{MissionVocabulary, MissionGrammar, MissionSentence, MissionKContent}
}

// Mission is one user's instance of a daily mission. Day is a local calendar
// date in 2006-01-02 form; the unique (user, day, type) index keeps lazy
// generation idempotent under concurrent first queries.
type Mission struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uint        `gorm:"index:idx_mission_user_day_type,unique;not null" json:"user_id"`
	Day          string      `gorm:"size:10;index:idx_mission_user_day_type,unique;not null" json:"day"`
	Type         MissionType `gorm:"size:16;index:idx_mission_user_day_type,unique;not null" json:"type"`
	Description  string      `gorm:"size:255" json:"description"`
	TargetCount  int         `gorm:"not null" json:"target_count"`
	CurrentCount int         `gorm:"not null;default:0" json:"current_count"`
	CoinReward   int64       `gorm:"not null" json:"coin_reward"`
	Completed    bool        `gorm:"not null;default:false" json:"completed"`
	CompletedAt  *time.Time  `json:"completed_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
