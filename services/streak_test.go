package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcontext/kcontext/models"
)

func testStreaks() (*Streaks, *fakeLedgerStore) {
	ledgerStore := newFakeLedgerStore()
	ledger := NewLedger(ledgerStore)
	return NewStreaks(&fakeCheckInStore{}, ledger, DefaultStreakRewards()), ledgerStore
}

func day(offset int) time.Time {
	base := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestStreakFirstCheckIn(t *testing.T) {
	streaks, _ := testStreaks()

	res, err := streaks.CheckIn(context.Background(), 1, day(0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 1, res.LongestStreak)
	assert.Equal(t, int64(2), res.CoinsAwarded)
	assert.Equal(t, int64(2), res.Balance)
}

func TestStreakSameDayRejected(t *testing.T) {
	streaks, ledgerStore := testStreaks()
	ctx := context.Background()

	_, err := streaks.CheckIn(ctx, 1, day(0))
	require.NoError(t, err)

	// Later the same day, different wall-clock time.
	_, err = streaks.CheckIn(ctx, 1, day(0).Add(5*time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.Equal(t, int64(2), ledgerStore.balances[1])
}

func TestStreakConsecutiveDaysExtend(t *testing.T) {
	streaks, _ := testStreaks()
	ctx := context.Background()

	var res *CheckInResult
	var err error
	for i := 0; i < 3; i++ {
		res, err = streaks.CheckIn(ctx, 1, day(i))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, res.CurrentStreak)
	assert.Equal(t, 3, res.LongestStreak)
}

func TestStreakGapResetsToOne(t *testing.T) {
	streaks, _ := testStreaks()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := streaks.CheckIn(ctx, 1, day(i))
		require.NoError(t, err)
	}

	// Two-day gap.
	res, err := streaks.CheckIn(ctx, 1, day(6))
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 4, res.LongestStreak)
}

func TestStreakRewardTable(t *testing.T) {
	streaks, _ := testStreaks()
	ctx := context.Background()

	// base 2, +2 from day 3, +5 from day 7
	want := []int64{2, 2, 4, 4, 4, 4, 7, 7}
	for i, expected := range want {
		res, err := streaks.CheckIn(ctx, 1, day(i))
		require.NoError(t, err)
		assert.Equal(t, expected, res.CoinsAwarded, "day %d", i+1)
	}
}

func TestStreakDuplicateInsertMapsToAlreadyCheckedIn(t *testing.T) {
	// Two racing requests both pass the Last() read; the store's unique
	// index decides and the loser sees ErrAlreadyCheckedIn.
	store := &fakeCheckInStore{}
	ledger := NewLedger(newFakeLedgerStore())
	streaks := NewStreaks(store, ledger, DefaultStreakRewards())
	ctx := context.Background()

	_, err := streaks.CheckIn(ctx, 1, day(0))
	require.NoError(t, err)

	// Simulate the losing writer inserting for the same calendar day.
	err = store.Record(ctx, &models.CheckIn{UserID: 1, CheckinDate: midnight(day(0)), Streak: 1, LongestStreak: 1})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestStreakStatus(t *testing.T) {
	streaks, _ := testStreaks()
	ctx := context.Background()

	checked, last, err := streaks.Status(ctx, 1, day(0))
	require.NoError(t, err)
	assert.False(t, checked)
	assert.Nil(t, last)

	_, err = streaks.CheckIn(ctx, 1, day(0))
	require.NoError(t, err)

	checked, last, err = streaks.Status(ctx, 1, day(0))
	require.NoError(t, err)
	assert.True(t, checked)
	require.NotNil(t, last)
	assert.Equal(t, 1, last.Streak)

	checked, _, err = streaks.Status(ctx, 1, day(1))
	require.NoError(t, err)
	assert.False(t, checked)
}
