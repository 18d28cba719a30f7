package services

import (
	"context"
	"errors"
	"strings"

	"github.com/kcontext/kcontext/models"
)

// Decision reason codes.
const (
	ReasonAdministrator    = "administrator"
	ReasonApproved         = "approved"
	ReasonFreeStory        = "free_story"
	ReasonPlan             = "plan"
	ReasonApprovalPending  = "approval_pending"
	ReasonApprovalRejected = "approval_rejected"
	ReasonNotApproved      = "not_approved_for_content"
	ReasonSeasonLocked     = "season_locked"
	ReasonLoginRequired    = "login_required"
	ReasonUpgradeRequired  = "upgrade_required"
)

// Decision is the outcome of an access check. RequiredPlan is only set when
// the reason is upgrade_required and names the cheapest tier that would
// permit access.
type Decision struct {
	Allowed      bool        `json:"allowed"`
	Reason       string      `json:"reason"`
	RequiredPlan models.Plan `json:"required_plan,omitempty"`
}

// ApprovalReader is the slice of the approval workflow the access policy
// needs: the current record for a user, or ErrNotFound.
type ApprovalReader interface {
	ByUser(ctx context.Context, userID uint) (*models.ApprovalRecord, error)
}

// AccessConfig carries the deployment's gating rules, built once at startup.
type AccessConfig struct {
	ApprovalEnabled bool
	FreeStoryID     int
	SeasonTwoStart  int
	SeasonTwoOpen   bool
	PlanThresholds  map[models.Plan]int
	AdminUsernames  []string
}

// AccessPolicy decides whether a user may open a given story. The check
// order is significant: administrator override first, then the approval
// workflow, then season and tier gates. A user can hold a stale plan tier
// and a pending approval record at the same time, and the approval record
// must win.
type AccessPolicy struct {
	cfg       AccessConfig
	approvals ApprovalReader
}

// NewAccessPolicy creates an AccessPolicy.
func NewAccessPolicy(cfg AccessConfig, approvals ApprovalReader) *AccessPolicy {
	return &AccessPolicy{cfg: cfg, approvals: approvals}
}

// CanAccess evaluates the gating rules for a story. user may be nil for
// anonymous requests.
func (p *AccessPolicy) CanAccess(ctx context.Context, user *models.User, storyID int) (Decision, error) {
	if user != nil && p.isAdmin(user.Username) {
		return Decision{Allowed: true, Reason: ReasonAdministrator}, nil
	}

	if p.cfg.ApprovalEnabled && user != nil {
		rec, err := p.approvals.ByUser(ctx, user.ID)
		switch {
		case err == nil:
			return decideFromApproval(rec, storyID), nil
		case errors.Is(err, ErrNotFound):
			// No record: fall through to the tier-based path.
		default:
			return Decision{}, err
		}
	}

	if storyID >= p.cfg.SeasonTwoStart && !p.cfg.SeasonTwoOpen {
		return Decision{Reason: ReasonSeasonLocked}, nil
	}
	if storyID == p.cfg.FreeStoryID {
		return Decision{Allowed: true, Reason: ReasonFreeStory}, nil
	}
	if user == nil {
		return Decision{Reason: ReasonLoginRequired}, nil
	}

	if storyID <= p.threshold(user.Plan) {
		return Decision{Allowed: true, Reason: ReasonPlan}, nil
	}
	return Decision{Reason: ReasonUpgradeRequired, RequiredPlan: p.minimalPlanFor(storyID)}, nil
}

func decideFromApproval(rec *models.ApprovalRecord, storyID int) Decision {
	switch rec.Status {
	case models.ApprovalPending:
		return Decision{Reason: ReasonApprovalPending}
	case models.ApprovalRejected:
		return Decision{Reason: ReasonApprovalRejected}
	case models.ApprovalApproved:
		if rec.AllowsStory(storyID) {
			return Decision{Allowed: true, Reason: ReasonApproved}
		}
		return Decision{Reason: ReasonNotApproved}
	default:
		return Decision{Reason: ReasonApprovalPending}
	}
}

func (p *AccessPolicy) threshold(plan models.Plan) int {
	if t, ok := p.cfg.PlanThresholds[plan]; ok {
		return t
	}
	return p.cfg.PlanThresholds[models.PlanFree]
}

// minimalPlanFor returns the cheapest tier whose threshold covers the story.
// Falls back to the top tier when nothing covers it (the season gate has
// already been handled by then).
func (p *AccessPolicy) minimalPlanFor(storyID int) models.Plan {
	plans := models.Plans()
	for _, plan := range plans {
		if storyID <= p.cfg.PlanThresholds[plan] {
			return plan
		}
	}
	return plans[len(plans)-1]
}

func (p *AccessPolicy) isAdmin(username string) bool {
	uname := strings.TrimSpace(username)
	if uname == "" {
		return false
	}
	for _, u := range p.cfg.AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}
