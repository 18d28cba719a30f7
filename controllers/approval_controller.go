package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kcontext/kcontext/services"
	"github.com/kcontext/kcontext/utils"
)

// ApprovalController exposes the signup review workflow.
type ApprovalController struct {
	approvals *services.Approvals
}

// NewApprovalController creates a new controller instance.
func NewApprovalController(approvals *services.Approvals) *ApprovalController {
	return &ApprovalController{approvals: approvals}
}

// Status reports the caller's review state.
func (a *ApprovalController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	status, err := a.approvals.StatusOf(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load approval status")
		return
	}
	utils.Success(ctx, gin.H{"status": status})
}

// Decide consumes a review token from the mailed decision link. The token is
// single-use; a second click on either link reports not found.
func (a *ApprovalController) Decide(ctx *gin.Context) {
	token := ctx.Query("token")
	action := ctx.Query("action")
	if token == "" || (action != "approve" && action != "reject") {
		utils.Error(ctx, http.StatusBadRequest, 40070, "token and action=approve|reject are required")
		return
	}

	rec, err := a.approvals.Decide(ctx.Request.Context(), token, action == "approve")
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40470, "token already used or unknown")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to apply decision")
		return
	}

	utils.Success(ctx, gin.H{
		"user_id":            rec.UserID,
		"status":             rec.Status,
		"approved_story_ids": rec.StoryIDs(),
		"decided_at":         rec.DecidedAt,
	})
}
