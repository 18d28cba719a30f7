package services

import (
	"context"
	"errors"
	"time"

	"github.com/kcontext/kcontext/models"
)

// CheckInStore is the persistence contract for daily attendance.
type CheckInStore interface {
	// Last returns the user's most recent check-in, or ErrNotFound.
	Last(ctx context.Context, userID uint) (*models.CheckIn, error)
	// Record inserts the check-in. It must fail with ErrDuplicate when a
	// row already exists for the same user and calendar date, which is what
	// keeps concurrent duplicate requests from double-paying.
	Record(ctx context.Context, rec *models.CheckIn) error
}

// StreakRewards is the payout table for daily check-ins.
type StreakRewards struct {
	Base         int64
	BonusAtThree int64
	BonusAtSeven int64
}

// DefaultStreakRewards returns the production payout table.
func DefaultStreakRewards() StreakRewards {
	return StreakRewards{Base: 2, BonusAtThree: 2, BonusAtSeven: 5}
}

// CheckInResult reports the outcome of a successful daily check-in.
type CheckInResult struct {
	CurrentStreak int   `json:"current_streak"`
	LongestStreak int   `json:"longest_streak"`
	CoinsAwarded  int64 `json:"coins_awarded"`
	Balance       int64 `json:"balance"`
}

// Streaks computes consecutive-day attendance and pays the reward through
// the ledger. At most one state transition per user per calendar day.
type Streaks struct {
	store   CheckInStore
	ledger  *Ledger
	rewards StreakRewards
}

// NewStreaks creates the streak tracker.
func NewStreaks(store CheckInStore, ledger *Ledger, rewards StreakRewards) *Streaks {
	return &Streaks{store: store, ledger: ledger, rewards: rewards}
}

// CheckIn records attendance for the given local time's calendar day.
// A check-in on the previous day extends the streak; any gap resets it to 1.
func (s *Streaks) CheckIn(ctx context.Context, userID uint, today time.Time) (*CheckInResult, error) {
	day := midnight(today)

	streak, longest := 1, 1
	last, err := s.store.Last(ctx, userID)
	switch {
	case err == nil:
		if sameDay(last.CheckinDate, day) {
			return nil, ErrAlreadyCheckedIn
		}
		if isYesterday(last.CheckinDate, day) {
			streak = last.Streak + 1
		}
		longest = last.LongestStreak
	case errors.Is(err, ErrNotFound):
		// First ever check-in.
	default:
		return nil, err
	}
	if streak > longest {
		longest = streak
	}

	reward := s.rewards.Base + s.bonus(streak)
	rec := &models.CheckIn{
		UserID:        userID,
		CheckinDate:   day,
		Streak:        streak,
		LongestStreak: longest,
		CoinsAwarded:  reward,
	}
	if err := s.store.Record(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}

	balance, err := s.ledger.Credit(ctx, userID, reward, models.EntryDailyCheckin, nil)
	if err != nil {
		return nil, err
	}
	return &CheckInResult{
		CurrentStreak: streak,
		LongestStreak: longest,
		CoinsAwarded:  reward,
		Balance:       balance,
	}, nil
}

// Status reports the user's streak state without recording anything.
func (s *Streaks) Status(ctx context.Context, userID uint, today time.Time) (checkedIn bool, last *models.CheckIn, err error) {
	last, err = s.store.Last(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return sameDay(last.CheckinDate, midnight(today)), last, nil
}

func (s *Streaks) bonus(streak int) int64 {
	switch {
	case streak >= 7:
		return s.rewards.BonusAtSeven
	case streak >= 3:
		return s.rewards.BonusAtThree
	default:
		return 0
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func isYesterday(last, today time.Time) bool {
	yesterday := today.AddDate(0, 0, -1)
	return last.Year() == yesterday.Year() && last.YearDay() == yesterday.YearDay()
}
