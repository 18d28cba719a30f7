package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kcontext/kcontext/config"
	"github.com/kcontext/kcontext/models"
	"github.com/kcontext/kcontext/services"
	"github.com/kcontext/kcontext/storage"
	"github.com/kcontext/kcontext/utils"
)

// StudyController records learning sessions and serves the dashboard.
type StudyController struct {
	store  *storage.StudyStore
	ledger *services.Ledger
}

// NewStudyController creates a new controller instance.
func NewStudyController(store *storage.StudyStore, ledger *services.Ledger) *StudyController {
	return &StudyController{store: store, ledger: ledger}
}

// RecordSession logs one study session. A perfect quiz score earns the
// reading bonus once per session.
func (s *StudyController) RecordSession(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		StoryID            int    `json:"story_id" binding:"required"`
		SessionType        string `json:"session_type" binding:"required,oneof=reading quiz pronunciation"`
		Level              string `json:"level"`
		QuizScore          *int   `json:"quiz_score"`
		PronunciationScore *int   `json:"pronunciation_score"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	if req.QuizScore != nil && (*req.QuizScore < 0 || *req.QuizScore > 100) {
		utils.Error(ctx, http.StatusBadRequest, 40061, "quiz score out of range")
		return
	}

	rec := &models.StudyRecord{
		UserID:             userID,
		StoryID:            req.StoryID,
		SessionType:        req.SessionType,
		Level:              req.Level,
		QuizScore:          req.QuizScore,
		PronunciationScore: req.PronunciationScore,
	}
	if err := s.store.Record(ctx.Request.Context(), rec); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to record session")
		return
	}

	var earned int64
	if req.SessionType == "quiz" && req.QuizScore != nil && *req.QuizScore == 100 {
		bonus := int64(config.Get().PerfectQuizBonus)
		if _, err := s.ledger.Credit(ctx.Request.Context(), userID, bonus, models.EntryReadingScore, &req.StoryID); err != nil {
			utils.Sugar.Warnf("perfect quiz bonus for user %d failed: %v", userID, err)
		} else {
			earned = bonus
		}
	}

	utils.Success(ctx, gin.H{"record": rec, "coins_earned": earned})
}

// Dashboard aggregates the caller's study history.
func (s *StudyController) Dashboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	summary, err := s.store.Summary(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to load dashboard")
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	recent, err := s.store.Recent(ctx.Request.Context(), userID, limit)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load recent sessions")
		return
	}

	utils.Success(ctx, gin.H{"summary": summary, "recent": recent})
}
