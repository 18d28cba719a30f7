package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kcontext/kcontext/services"
	"github.com/kcontext/kcontext/utils"
)

// CheckInController handles daily check-in endpoints.
type CheckInController struct {
	streaks *services.Streaks
}

// NewCheckInController creates a new controller instance.
func NewCheckInController(streaks *services.Streaks) *CheckInController {
	return &CheckInController{streaks: streaks}
}

// CheckIn records today's attendance and pays the streak reward.
func (c *CheckInController) CheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	result, err := c.streaks.CheckIn(ctx.Request.Context(), userID, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrAlreadyCheckedIn) {
			utils.Error(ctx, http.StatusConflict, 40930, "already checked in today")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "check-in failed")
		return
	}
	utils.Success(ctx, result)
}

// Status reports the caller's streak without recording anything.
func (c *CheckInController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	checkedIn, last, err := c.streaks.Status(ctx.Request.Context(), userID, time.Now())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load streak")
		return
	}

	resp := gin.H{"checked_in_today": checkedIn, "current_streak": 0, "longest_streak": 0}
	if last != nil {
		resp["current_streak"] = last.Streak
		resp["longest_streak"] = last.LongestStreak
		resp["last_checkin_date"] = last.CheckinDate.Format("2006-01-02")
	}
	utils.Success(ctx, resp)
}
