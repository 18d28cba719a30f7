package models

import "time"

// EntryType tags the business reason for a coin movement.
type EntryType string

const (
	EntryReadingScore    EntryType = "reading_score"
	EntryDailyCheckin    EntryType = "daily_checkin"
	EntryMissionComplete EntryType = "mission_complete"
	EntryQuizRetry       EntryType = "quiz_retry"
	EntryManual          EntryType = "manual"
	EntrySignupBonus     EntryType = "signup_bonus"
)

// LedgerEntry is an immutable row in a user's coin ledger. Positive amounts
// are credits, negative amounts are debits. Entries are only ever removed by
// full account erasure.
type LedgerEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Type      EntryType `gorm:"size:32;not null" json:"type"`
	StoryID   *int      `json:"story_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
