package models

import (
	"strconv"
	"strings"
	"time"
)

// ApprovalStatus is the state of a signup's manual-review record.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	// ApprovalNotFound is reported for users without an approval record;
	// it is never stored.
	ApprovalNotFound ApprovalStatus = "not_found"
)

// ApprovalRecord tracks one signup through the manual-approval workflow.
// The token is single-use: consuming it moves the record into a terminal
// status and no later lookup by the same token may succeed.
type ApprovalRecord struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Email            string         `gorm:"size:255" json:"email"`
	Status           ApprovalStatus `gorm:"size:16;index;not null" json:"status"`
	Token            string         `gorm:"column:approval_token;size:64;uniqueIndex;not null" json:"-"`
	ApprovedStoryIDs string         `gorm:"size:255" json:"approved_story_ids"`
	DecidedAt        *time.Time     `json:"decided_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// StoryIDs parses the comma separated allow-list.
func (r *ApprovalRecord) StoryIDs() []int {
	parts := strings.Split(r.ApprovedStoryIDs, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// AllowsStory reports whether the allow-list contains the given story.
func (r *ApprovalRecord) AllowsStory(storyID int) bool {
	for _, id := range r.StoryIDs() {
		if id == storyID {
			return true
		}
	}
	return false
}
