package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kcontext/kcontext/models"
)

// ApprovalStore is the persistence contract for the approval workflow.
type ApprovalStore interface {
	Create(ctx context.Context, rec *models.ApprovalRecord) error
	ByUser(ctx context.Context, userID uint) (*models.ApprovalRecord, error)
	// ConsumeToken atomically moves the pending record holding the token
	// into the given terminal status. It must fail with ErrNotFound when no
	// pending record holds the token, so that a consumed token can never be
	// used twice even under concurrent requests.
	ConsumeToken(ctx context.Context, token string, status models.ApprovalStatus, decidedAt time.Time) (*models.ApprovalRecord, error)
}

// Notifier delivers a message to an address. Delivery failures are logged by
// the workflow, never surfaced as operation failures.
type Notifier interface {
	Notify(to, subject, body string) error
}

// ApprovalConfig carries the workflow's deployment settings.
type ApprovalConfig struct {
	// AdminEmail receives the review request with the decision links.
	AdminEmail string
	// DecideBaseURL is the public base for the single-use decision links.
	DecideBaseURL string
	// DefaultStoryIDs is the comma separated allow-list granted on approval.
	DefaultStoryIDs string
}

// Approvals runs the signup approval state machine:
// pending -> approved | rejected, both terminal.
type Approvals struct {
	store    ApprovalStore
	notifier Notifier
	cfg      ApprovalConfig
	now      func() time.Time
	log      *zap.SugaredLogger
}

// NewApprovals creates the workflow service. log may be nil.
func NewApprovals(store ApprovalStore, notifier Notifier, cfg ApprovalConfig, log *zap.SugaredLogger) *Approvals {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Approvals{store: store, notifier: notifier, cfg: cfg, now: time.Now, log: log}
}

// Create opens a pending record for a fresh signup with a single-use token
// and the default story allow-list, then asks the reviewer to decide.
func (a *Approvals) Create(ctx context.Context, userID uint, email string) (*models.ApprovalRecord, error) {
	rec := &models.ApprovalRecord{
		UserID:           userID,
		Email:            email,
		Status:           models.ApprovalPending,
		Token:            newApprovalToken(),
		ApprovedStoryIDs: a.cfg.DefaultStoryIDs,
	}
	if err := a.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	if a.notifier != nil && a.cfg.AdminEmail != "" {
		subject := "New signup awaiting review"
		body := fmt.Sprintf(
			"A new learner signed up with %s.\n\nApprove: %s?token=%s&action=approve\nReject:  %s?token=%s&action=reject\n",
			email, a.cfg.DecideBaseURL, rec.Token, a.cfg.DecideBaseURL, rec.Token,
		)
		if err := a.notifier.Notify(a.cfg.AdminEmail, subject, body); err != nil {
			a.log.Warnf("approval review notification failed for user %d: %v", userID, err)
		}
	}
	return rec, nil
}

// Decide consumes the token and applies the terminal decision. A token that
// was already consumed, or never issued, fails with ErrNotFound.
func (a *Approvals) Decide(ctx context.Context, token string, approve bool) (*models.ApprovalRecord, error) {
	status := models.ApprovalRejected
	if approve {
		status = models.ApprovalApproved
	}
	rec, err := a.store.ConsumeToken(ctx, token, status, a.now())
	if err != nil {
		return nil, err
	}

	if a.notifier != nil && rec.Email != "" {
		subject := "Your access request was reviewed"
		body := "Your signup was rejected. Reply to this mail if you believe this is a mistake."
		if approve {
			body = fmt.Sprintf("You're in! Stories %s are now open for you.", rec.ApprovedStoryIDs)
		}
		if err := a.notifier.Notify(rec.Email, subject, body); err != nil {
			a.log.Warnf("approval decision notification failed for user %d: %v", rec.UserID, err)
		}
	}
	return rec, nil
}

// StatusOf returns the workflow state for a user, or ApprovalNotFound when the
// user has no record.
func (a *Approvals) StatusOf(ctx context.Context, userID uint) (models.ApprovalStatus, error) {
	rec, err := a.store.ByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.ApprovalNotFound, nil
		}
		return "", err
	}
	return rec.Status, nil
}

// ByUser exposes the raw record lookup for the access policy.
func (a *Approvals) ByUser(ctx context.Context, userID uint) (*models.ApprovalRecord, error) {
	return a.store.ByUser(ctx, userID)
}

// newApprovalToken generates an unguessable 64-hex-char single-use token.
func newApprovalToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in no state to issue
		// security tokens at all.
		panic(fmt.Sprintf("approval token generation: %v", err))
	}
	return hex.EncodeToString(b)
}
