package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/kcontext/kcontext/models"
)

// MissionStore is the persistence contract for daily missions.
type MissionStore interface {
	ForDay(ctx context.Context, userID uint, day string) ([]models.Mission, error)
	// CreateBatch inserts the day's full set; it must fail with
	// ErrDuplicate when any (user, day, type) row already exists.
	CreateBatch(ctx context.Context, missions []models.Mission) error
	ByID(ctx context.Context, id uint) (*models.Mission, error)
	// Advance atomically adds progress to current_count and returns the
	// updated row. No upper clamp is applied.
	Advance(ctx context.Context, id uint, progress int) (*models.Mission, error)
	// MarkCompleted flips completed from false to true and reports whether
	// this call performed the flip. Only the flipping caller pays out.
	MarkCompleted(ctx context.Context, id uint, at time.Time) (bool, error)
}

// MissionSpec is the fixed target/reward pair for one mission type, plus the
// description pool a daily instance draws from. The description choice is
// cosmetic only.
type MissionSpec struct {
	Target       int
	Reward       int64
	Descriptions []string
}

// MissionTable maps each fixed mission type to its spec.
type MissionTable map[models.MissionType]MissionSpec

// DefaultMissionTable returns the production mission set.
func DefaultMissionTable() MissionTable {
	return MissionTable{
		models.MissionVocabulary: {
			Target: 5, Reward: 3,
			Descriptions: []string{
				"Learn 5 new words from today's story",
				"Add 5 words to your wordbook",
				"Review 5 vocabulary cards",
			},
		},
		models.MissionGrammar: {
			Target: 3, Reward: 3,
			Descriptions: []string{
				"Study 3 grammar patterns",
				"Practice 3 grammar points from the story",
			},
		},
		models.MissionSentence: {
			Target: 3, Reward: 4,
			Descriptions: []string{
				"Read 3 paragraphs out loud",
				"Shadow 3 sentences from the story",
				"Record yourself reading 3 sentences",
			},
		},
		models.MissionKContent: {
			Target: 1, Reward: 5,
			Descriptions: []string{
				"Explore today's K-content pick",
				"Watch one K-content clip and note a new expression",
			},
		},
	}
}

// MissionProgress reports the outcome of a completion step.
type MissionProgress struct {
	MissionID    uint  `json:"mission_id"`
	CurrentCount int   `json:"current_count"`
	TargetCount  int   `json:"target_count"`
	Completed    bool  `json:"completed"`
	CoinsEarned  int64 `json:"coins_earned"`
}

// Missions generates the fixed daily task set lazily and tracks progress,
// paying rewards through the ledger exactly once per mission.
type Missions struct {
	store  MissionStore
	ledger *Ledger
	table  MissionTable
	pick   func(n int) int
}

// NewMissions creates the mission engine.
func NewMissions(store MissionStore, ledger *Ledger, table MissionTable) *Missions {
	return &Missions{store: store, ledger: ledger, table: table, pick: rand.Intn}
}

// Today returns the user's missions for the given local day, generating the
// fixed set of four on first query. Generation is idempotent: a concurrent
// first query loses the insert race and re-reads the winner's rows.
func (m *Missions) Today(ctx context.Context, userID uint, today time.Time) ([]models.Mission, error) {
	day := today.Format("2006-01-02")

	existing, err := m.store.ForDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	batch := make([]models.Mission, 0, len(models.MissionTypes()))
	for _, typ := range models.MissionTypes() {
		spec, ok := m.table[typ]
		if !ok {
			return nil, fmt.Errorf("mission table has no spec for type %q", typ)
		}
		batch = append(batch, models.Mission{
			UserID:      userID,
			Day:         day,
			Type:        typ,
			Description: spec.Descriptions[m.pick(len(spec.Descriptions))],
			TargetCount: spec.Target,
			CoinReward:  spec.Reward,
		})
	}
	if err := m.store.CreateBatch(ctx, batch); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return m.store.ForDay(ctx, userID, day)
		}
		return nil, err
	}
	return m.store.ForDay(ctx, userID, day)
}

// CompleteStep adds progress to a mission. The first step that reaches the
// target flips the mission to completed and pays the reward; any call after
// completion fails with ErrAlreadyCompleted and pays nothing.
func (m *Missions) CompleteStep(ctx context.Context, userID, missionID uint, progress int) (*MissionProgress, error) {
	if progress < 1 {
		return nil, fmt.Errorf("progress must be at least 1, got %d", progress)
	}

	mission, err := m.store.ByID(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if mission.UserID != userID {
		return nil, ErrNotFound
	}
	if mission.Completed {
		return nil, ErrAlreadyCompleted
	}

	mission, err = m.store.Advance(ctx, missionID, progress)
	if err != nil {
		return nil, err
	}

	result := &MissionProgress{
		MissionID:    mission.ID,
		CurrentCount: mission.CurrentCount,
		TargetCount:  mission.TargetCount,
		Completed:    mission.Completed,
	}
	if mission.CurrentCount < mission.TargetCount {
		return result, nil
	}

	flipped, err := m.store.MarkCompleted(ctx, missionID, time.Now())
	if err != nil {
		return nil, err
	}
	result.Completed = true
	if !flipped {
		// A concurrent step won the flip and already paid.
		return result, nil
	}
	if _, err := m.ledger.Credit(ctx, userID, mission.CoinReward, models.EntryMissionComplete, nil); err != nil {
		return nil, err
	}
	result.CoinsEarned = mission.CoinReward
	return result, nil
}
