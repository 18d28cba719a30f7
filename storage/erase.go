package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/kcontext/kcontext/models"
)

// EraseUser removes a user and every row tied to the account in one
// transaction: ledger entries, check-ins, missions, study records and the
// approval record. The user row itself is hard-deleted.
func EraseUser(ctx context.Context, db *gorm.DB, userID uint) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&models.LedgerEntry{},
			&models.CheckIn{},
			&models.Mission{},
			&models.StudyRecord{},
			&models.ApprovalRecord{},
		}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&models.User{}, userID).Error
	})
	return wrap("erase user", err)
}
