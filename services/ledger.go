package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kcontext/kcontext/models"
)

// LedgerStore is the persistence contract for the coin ledger.
type LedgerStore interface {
	// Apply appends the entry and adjusts the stored balance in one atomic
	// step. A negative amount that would take the balance below zero must
	// fail with ErrInsufficientFunds and leave both the balance and the
	// entry log untouched. Returns the balance after the entry.
	Apply(ctx context.Context, entry *models.LedgerEntry) (int64, error)
	Balance(ctx context.Context, userID uint) (int64, error)
	Entries(ctx context.Context, userID uint, limit int) ([]models.LedgerEntry, error)
}

// Ledger owns coin balances and transaction history. All rewards and costs
// in the system flow through it.
type Ledger struct {
	store LedgerStore
	now   func() time.Time
}

// NewLedger creates a Ledger over the given store.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Credit adds coins to a user's balance and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, userID uint, amount int64, kind models.EntryType, storyID *int) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	return l.store.Apply(ctx, &models.LedgerEntry{
		UserID:    userID,
		Amount:    amount,
		Type:      kind,
		StoryID:   storyID,
		CreatedAt: l.now(),
	})
}

// Debit removes coins from a user's balance. It fails with
// ErrInsufficientFunds when the balance cannot cover the amount; the balance
// is never clamped or partially charged.
func (l *Ledger) Debit(ctx context.Context, userID uint, amount int64, kind models.EntryType, storyID *int) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	return l.store.Apply(ctx, &models.LedgerEntry{
		UserID:    userID,
		Amount:    -amount,
		Type:      kind,
		StoryID:   storyID,
		CreatedAt: l.now(),
	})
}

// Balance returns the user's current coin balance.
func (l *Ledger) Balance(ctx context.Context, userID uint) (int64, error) {
	return l.store.Balance(ctx, userID)
}

// Entries returns the user's most recent ledger entries, newest first.
func (l *Ledger) Entries(ctx context.Context, userID uint, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return l.store.Entries(ctx, userID, limit)
}

// Provision grants the one-time starting balance for a freshly created
// account. Coins reaching zero later is a valid state and is never healed
// back to a default.
func (l *Ledger) Provision(ctx context.Context, userID uint, amount int64) (int64, error) {
	return l.Credit(ctx, userID, amount, models.EntrySignupBonus, nil)
}
