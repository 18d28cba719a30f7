package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcontext/kcontext/models"
)

func testAccessConfig() AccessConfig {
	return AccessConfig{
		ApprovalEnabled: false,
		FreeStoryID:     1,
		SeasonTwoStart:  21,
		SeasonTwoOpen:   false,
		PlanThresholds: map[models.Plan]int{
			models.PlanFree:    3,
			models.PlanPro:     10,
			models.PlanPremier: 20,
		},
		AdminUsernames: []string{"admin"},
	}
}

func TestAccessAnonymousFreeStory(t *testing.T) {
	policy := NewAccessPolicy(testAccessConfig(), newFakeApprovalStore())

	d, err := policy.CanAccess(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonFreeStory, d.Reason)
}

func TestAccessAnonymousNeedsLogin(t *testing.T) {
	policy := NewAccessPolicy(testAccessConfig(), newFakeApprovalStore())

	d, err := policy.CanAccess(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonLoginRequired, d.Reason)
}

func TestAccessPlanThresholds(t *testing.T) {
	policy := NewAccessPolicy(testAccessConfig(), newFakeApprovalStore())
	ctx := context.Background()

	cases := []struct {
		plan    models.Plan
		storyID int
		allowed bool
		reason  string
		need    models.Plan
	}{
		{models.PlanFree, 3, true, ReasonPlan, ""},
		{models.PlanFree, 4, false, ReasonUpgradeRequired, models.PlanPro},
		{models.PlanPro, 10, true, ReasonPlan, ""},
		{models.PlanPro, 11, false, ReasonUpgradeRequired, models.PlanPremier},
		{models.PlanPremier, 20, true, ReasonPlan, ""},
	}
	for _, tc := range cases {
		user := &models.User{ID: 1, Username: "learner", Plan: tc.plan}
		d, err := policy.CanAccess(ctx, user, tc.storyID)
		require.NoError(t, err)
		assert.Equal(t, tc.allowed, d.Allowed, "plan %s story %d", tc.plan, tc.storyID)
		assert.Equal(t, tc.reason, d.Reason, "plan %s story %d", tc.plan, tc.storyID)
		assert.Equal(t, tc.need, d.RequiredPlan, "plan %s story %d", tc.plan, tc.storyID)
	}
}

func TestAccessSeasonTwoLocked(t *testing.T) {
	policy := NewAccessPolicy(testAccessConfig(), newFakeApprovalStore())
	user := &models.User{ID: 1, Username: "learner", Plan: models.PlanPremier}

	d, err := policy.CanAccess(context.Background(), user, 21)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonSeasonLocked, d.Reason)
}

func TestAccessSeasonTwoOpen(t *testing.T) {
	cfg := testAccessConfig()
	cfg.SeasonTwoOpen = true
	cfg.PlanThresholds[models.PlanPremier] = 40
	policy := NewAccessPolicy(cfg, newFakeApprovalStore())
	user := &models.User{ID: 1, Username: "learner", Plan: models.PlanPremier}

	d, err := policy.CanAccess(context.Background(), user, 21)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonPlan, d.Reason)
}

func TestAccessAdminOverridesEverything(t *testing.T) {
	cfg := testAccessConfig()
	cfg.ApprovalEnabled = true
	store := newFakeApprovalStore()
	require.NoError(t, store.Create(context.Background(), &models.ApprovalRecord{
		UserID: 9, Status: models.ApprovalRejected, Token: "t-admin",
	}))
	policy := NewAccessPolicy(cfg, store)
	admin := &models.User{ID: 9, Username: "Admin", Plan: models.PlanFree}

	// Season-locked story, rejected approval record: admin still passes.
	d, err := policy.CanAccess(context.Background(), admin, 25)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonAdministrator, d.Reason)
}

func TestAccessApprovalStates(t *testing.T) {
	cfg := testAccessConfig()
	cfg.ApprovalEnabled = true
	ctx := context.Background()

	store := newFakeApprovalStore()
	require.NoError(t, store.Create(ctx, &models.ApprovalRecord{
		UserID: 1, Status: models.ApprovalPending, Token: "t1",
	}))
	require.NoError(t, store.Create(ctx, &models.ApprovalRecord{
		UserID: 2, Status: models.ApprovalRejected, Token: "t2",
	}))
	require.NoError(t, store.Create(ctx, &models.ApprovalRecord{
		UserID: 3, Status: models.ApprovalApproved, Token: "t3", ApprovedStoryIDs: "1,2",
	}))
	policy := NewAccessPolicy(cfg, store)

	d, err := policy.CanAccess(ctx, &models.User{ID: 1, Username: "a"}, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonApprovalPending, d.Reason)

	d, err = policy.CanAccess(ctx, &models.User{ID: 2, Username: "b"}, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonApprovalRejected, d.Reason)

	d, err = policy.CanAccess(ctx, &models.User{ID: 3, Username: "c"}, 2)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonApproved, d.Reason)

	d, err = policy.CanAccess(ctx, &models.User{ID: 3, Username: "c"}, 5)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNotApproved, d.Reason)
}

// A user can carry a paid tier and a pending approval record at the same
// time; the approval record decides.
func TestAccessPendingApprovalBeatsStalePlan(t *testing.T) {
	cfg := testAccessConfig()
	cfg.ApprovalEnabled = true
	ctx := context.Background()

	store := newFakeApprovalStore()
	require.NoError(t, store.Create(ctx, &models.ApprovalRecord{
		UserID: 4, Status: models.ApprovalPending, Token: "t4",
	}))
	policy := NewAccessPolicy(cfg, store)
	user := &models.User{ID: 4, Username: "d", Plan: models.PlanPremier}

	d, err := policy.CanAccess(ctx, user, 2)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonApprovalPending, d.Reason)
}

// Approval mode on, but the user never went through the workflow: tier rules
// apply as usual.
func TestAccessNoApprovalRecordFallsThrough(t *testing.T) {
	cfg := testAccessConfig()
	cfg.ApprovalEnabled = true
	policy := NewAccessPolicy(cfg, newFakeApprovalStore())
	user := &models.User{ID: 5, Username: "e", Plan: models.PlanPro}

	d, err := policy.CanAccess(context.Background(), user, 7)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonPlan, d.Reason)
}

func TestAccessUnknownPlanTreatedAsFree(t *testing.T) {
	policy := NewAccessPolicy(testAccessConfig(), newFakeApprovalStore())
	user := &models.User{ID: 6, Username: "f", Plan: models.Plan("legacy")}

	d, err := policy.CanAccess(context.Background(), user, 4)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUpgradeRequired, d.Reason)
	assert.Equal(t, models.PlanPro, d.RequiredPlan)
}
