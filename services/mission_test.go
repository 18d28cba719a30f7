package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcontext/kcontext/models"
)

func testMissions() (*Missions, *fakeMissionStore, *fakeLedgerStore) {
	missionStore := newFakeMissionStore()
	ledgerStore := newFakeLedgerStore()
	m := NewMissions(missionStore, NewLedger(ledgerStore), DefaultMissionTable())
	m.pick = func(n int) int { return 0 }
	return m, missionStore, ledgerStore
}

var missionDay = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestMissionsGeneratedLazily(t *testing.T) {
	m, _, _ := testMissions()

	missions, err := m.Today(context.Background(), 1, missionDay)
	require.NoError(t, err)
	require.Len(t, missions, 4)

	types := make([]models.MissionType, 0, 4)
	for _, mm := range missions {
		types = append(types, mm.Type)
		assert.Equal(t, "2026-03-10", mm.Day)
		assert.False(t, mm.Completed)
		assert.Zero(t, mm.CurrentCount)
		assert.NotEmpty(t, mm.Description)
	}
	assert.Equal(t, models.MissionTypes(), types)
}

func TestMissionsTodayIdempotent(t *testing.T) {
	m, store, _ := testMissions()
	ctx := context.Background()

	first, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)
	second, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, store.rows, 4)
}

func TestMissionsLostInsertRaceRereads(t *testing.T) {
	m, store, _ := testMissions()
	ctx := context.Background()

	// Another instance wins the generation race first.
	winner, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)

	// Force the racing path: ForDay sees nothing, CreateBatch collides.
	raced := NewMissions(&racingMissionStore{fakeMissionStore: store}, NewLedger(newFakeLedgerStore()), DefaultMissionTable())
	raced.pick = func(n int) int { return 0 }
	got, err := raced.Today(ctx, 1, missionDay)
	require.NoError(t, err)
	assert.Equal(t, winner, got)
}

// racingMissionStore reports an empty day exactly once so the caller attempts
// a generation that collides with existing rows.
type racingMissionStore struct {
	*fakeMissionStore
	misses int
}

func (s *racingMissionStore) ForDay(ctx context.Context, userID uint, day string) ([]models.Mission, error) {
	if s.misses == 0 {
		s.misses++
		return nil, nil
	}
	return s.fakeMissionStore.ForDay(ctx, userID, day)
}

func TestMissionsPerDayAndPerUserIsolation(t *testing.T) {
	m, store, _ := testMissions()
	ctx := context.Background()

	_, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)
	_, err = m.Today(ctx, 2, missionDay)
	require.NoError(t, err)
	_, err = m.Today(ctx, 1, missionDay.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Len(t, store.rows, 12)
}

func TestMissionCompleteStepPaysOnce(t *testing.T) {
	m, _, ledgerStore := testMissions()
	ctx := context.Background()

	missions, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)

	var kContent models.Mission
	for _, mm := range missions {
		if mm.Type == models.MissionKContent {
			kContent = mm
		}
	}
	require.Equal(t, 1, kContent.TargetCount)

	res, err := m.CompleteStep(ctx, 1, kContent.ID, 1)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, int64(5), res.CoinsEarned)
	assert.Equal(t, int64(5), ledgerStore.balances[1])

	_, err = m.CompleteStep(ctx, 1, kContent.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, int64(5), ledgerStore.balances[1])
}

func TestMissionProgressBelowTarget(t *testing.T) {
	m, _, ledgerStore := testMissions()
	ctx := context.Background()

	missions, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)
	vocab := missions[0]
	require.Equal(t, models.MissionVocabulary, vocab.Type)
	require.Equal(t, 5, vocab.TargetCount)

	res, err := m.CompleteStep(ctx, 1, vocab.ID, 2)
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Equal(t, 2, res.CurrentCount)
	assert.Zero(t, res.CoinsEarned)
	assert.Zero(t, ledgerStore.balances[1])

	res, err = m.CompleteStep(ctx, 1, vocab.ID, 3)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, int64(3), res.CoinsEarned)
}

func TestMissionProgressNotClamped(t *testing.T) {
	m, store, _ := testMissions()
	ctx := context.Background()

	missions, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)
	vocab := missions[0]

	res, err := m.CompleteStep(ctx, 1, vocab.ID, 9)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 9, res.CurrentCount)

	stored, err := store.ByID(ctx, vocab.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, stored.CurrentCount)
}

func TestMissionWrongUserLooksMissing(t *testing.T) {
	m, _, _ := testMissions()
	ctx := context.Background()

	missions, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)

	_, err = m.CompleteStep(ctx, 2, missions[0].ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMissionInvalidProgress(t *testing.T) {
	m, _, _ := testMissions()
	ctx := context.Background()

	missions, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)

	_, err = m.CompleteStep(ctx, 1, missions[0].ID, 0)
	assert.Error(t, err)
	_, err = m.CompleteStep(ctx, 1, missions[0].ID, -1)
	assert.Error(t, err)
}

func TestMissionConcurrentFlipPaysLoserNothing(t *testing.T) {
	m, store, ledgerStore := testMissions()
	ctx := context.Background()

	missions, err := m.Today(ctx, 1, missionDay)
	require.NoError(t, err)
	kContent := missions[3]

	// Winner flips first.
	advanced, err := store.Advance(ctx, kContent.ID, 1)
	require.NoError(t, err)
	flipped, err := store.MarkCompleted(ctx, advanced.ID, time.Now())
	require.NoError(t, err)
	require.True(t, flipped)

	// The loser reaches MarkCompleted after the flip and must not pay.
	flipped, err = store.MarkCompleted(ctx, advanced.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, flipped)
	assert.Zero(t, ledgerStore.balances[1])
}
