package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/kcontext/kcontext/models"
	"github.com/kcontext/kcontext/services"
)

// LedgerStore persists coin balances and ledger entries.
type LedgerStore struct {
	db *gorm.DB
}

// NewLedgerStore creates a LedgerStore.
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Apply adjusts the user's balance and appends the entry in one transaction.
// The balance update is a single conditional UPDATE, so a debit that would
// go below zero matches no row and the transaction rolls back with
// ErrInsufficientFunds.
func (s *LedgerStore) Apply(ctx context.Context, entry *models.LedgerEntry) (int64, error) {
	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND coins + ? >= 0", entry.UserID, entry.Amount).
			UpdateColumn("coins", gorm.Expr("coins + ?", entry.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Missing user or a debit past zero.
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", entry.UserID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return services.ErrNotFound
			}
			return services.ErrInsufficientFunds
		}

		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", entry.UserID).
			Pluck("coins", &balance).Error
	})
	if err != nil {
		return 0, wrap("ledger apply", err)
	}
	return balance, nil
}

// Balance returns the user's current coin balance.
func (s *LedgerStore) Balance(ctx context.Context, userID uint) (int64, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("coins").First(&user, userID).Error; err != nil {
		return 0, wrap("ledger balance", err)
	}
	return user.Coins, nil
}

// Entries returns the user's most recent entries, newest first.
func (s *LedgerStore) Entries(ctx context.Context, userID uint, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, wrap("ledger entries", err)
	}
	return entries, nil
}
