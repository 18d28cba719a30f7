package models

import "time"

// CheckIn stores one daily attendance record per user per calendar day.
// The unique (user, date) index is what makes concurrent duplicate check-ins
// collapse into a single row.
type CheckIn struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index:idx_checkin_user_date,unique;not null" json:"user_id"`
	CheckinDate   time.Time `gorm:"index:idx_checkin_user_date,unique;type:date;not null" json:"checkin_date"`
	Streak        int       `gorm:"not null" json:"streak"`
	LongestStreak int       `gorm:"not null" json:"longest_streak"`
	CoinsAwarded  int64     `json:"coins_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}
