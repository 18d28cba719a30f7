package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcontext/kcontext/models"
)

func TestLedgerCreditAndBalance(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	balance, err := ledger.Credit(ctx, 1, 50, models.EntrySignupBonus, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	balance, err = ledger.Credit(ctx, 1, 5, models.EntryReadingScore, intPtr(3))
	require.NoError(t, err)
	assert.Equal(t, int64(55), balance)

	got, err := ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(55), got)
}

func TestLedgerDebitInsufficientFunds(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	_, err := ledger.Credit(ctx, 1, 1, models.EntrySignupBonus, nil)
	require.NoError(t, err)

	_, err = ledger.Debit(ctx, 1, 2, models.EntryQuizRetry, intPtr(4))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// The failed debit must leave no trace.
	balance, err := ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance)
	entries, err := ledger.Entries(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedgerDebitToExactlyZero(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	_, err := ledger.Credit(ctx, 1, 2, models.EntrySignupBonus, nil)
	require.NoError(t, err)

	balance, err := ledger.Debit(ctx, 1, 2, models.EntryQuizRetry, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	ledger := NewLedger(newFakeLedgerStore())
	ctx := context.Background()

	_, err := ledger.Credit(ctx, 1, 0, models.EntryManual, nil)
	assert.Error(t, err)
	_, err = ledger.Credit(ctx, 1, -3, models.EntryManual, nil)
	assert.Error(t, err)
	_, err = ledger.Debit(ctx, 1, 0, models.EntryManual, nil)
	assert.Error(t, err)
	_, err = ledger.Debit(ctx, 1, -3, models.EntryManual, nil)
	assert.Error(t, err)
}

func TestLedgerEntriesNewestFirstAndLimited(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := ledger.Credit(ctx, 1, int64(i+1), models.EntryManual, nil)
		require.NoError(t, err)
	}
	_, err := ledger.Credit(ctx, 2, 100, models.EntryManual, nil)
	require.NoError(t, err)

	entries, err := ledger.Entries(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(5), entries[0].Amount)
	assert.Equal(t, int64(4), entries[1].Amount)
	for _, e := range entries {
		assert.Equal(t, uint(1), e.UserID)
	}
}

func TestLedgerProvision(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	balance, err := ledger.Provision(ctx, 7, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	entries, err := ledger.Entries(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntrySignupBonus, entries[0].Type)
}

func intPtr(v int) *int { return &v }
