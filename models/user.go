package models

import (
	"time"

	"gorm.io/gorm"
)

// Plan is the subscription tier that controls how far into the catalog a
// learner can read.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremier Plan = "premier"
)

// Plans lists tiers in ascending rank order.
func Plans() []Plan {
	return []Plan{PlanFree, PlanPro, PlanPremier}
}

// Valid reports whether p is a known tier.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanPremier:
		return true
	}
	return false
}

// User represents a learner account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Username      string         `gorm:"size:64;not null" json:"username"`
	Email         string         `gorm:"size:255" json:"email"`
	PasswordHash  string         `gorm:"size:255" json:"-"`
	Provider      string         `gorm:"size:32" json:"provider"`
	ProviderID    string         `gorm:"size:255" json:"provider_id"`
	RegisterIP    string         `gorm:"size:45" json:"register_ip"`
	Plan          Plan           `gorm:"size:16;default:free" json:"plan"`
	Coins         int64          `gorm:"not null;default:0" json:"coins"`
	CurrentStreak int            `gorm:"default:0" json:"current_streak"`
	LongestStreak int            `gorm:"default:0" json:"longest_streak"`
	LastCheckinAt *time.Time     `json:"last_checkin_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps and the plan tier are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if !u.Plan.Valid() {
		u.Plan = PlanFree
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
