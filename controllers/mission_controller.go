package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kcontext/kcontext/services"
	"github.com/kcontext/kcontext/utils"
)

// MissionController handles the daily mission endpoints.
type MissionController struct {
	missions *services.Missions
}

// NewMissionController creates a new controller instance.
func NewMissionController(missions *services.Missions) *MissionController {
	return &MissionController{missions: missions}
}

// Today returns the caller's mission set for the current day, generating it
// on first request.
func (m *MissionController) Today(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	missions, err := m.missions.Today(ctx.Request.Context(), userID, time.Now())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load missions")
		return
	}
	utils.Success(ctx, missions)
}

// Complete adds progress to one mission.
func (m *MissionController) Complete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	missionID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid mission id")
		return
	}

	var req struct {
		Progress int `json:"progress"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Progress == 0 {
		req.Progress = 1
	}

	result, err := m.missions.CompleteStep(ctx.Request.Context(), userID, uint(missionID), req.Progress)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40440, "mission not found")
		case errors.Is(err, services.ErrAlreadyCompleted):
			utils.Error(ctx, http.StatusConflict, 40940, "mission already completed")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to update mission")
		}
		return
	}
	utils.Success(ctx, result)
}
