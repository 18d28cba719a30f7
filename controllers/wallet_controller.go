package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kcontext/kcontext/config"
	"github.com/kcontext/kcontext/models"
	"github.com/kcontext/kcontext/services"
	"github.com/kcontext/kcontext/utils"
)

// WalletController exposes the coin balance, the transaction log and the
// paid actions that debit it.
type WalletController struct {
	ledger *services.Ledger
}

// NewWalletController creates a new controller instance.
func NewWalletController(ledger *services.Ledger) *WalletController {
	return &WalletController{ledger: ledger}
}

// Get returns the caller's balance and recent entries.
func (w *WalletController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	balance, err := w.ledger.Balance(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load balance")
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	entries, err := w.ledger.Entries(ctx.Request.Context(), userID, limit)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load entries")
		return
	}

	utils.Success(ctx, gin.H{"balance": balance, "entries": entries})
}

// QuizRetry charges the fixed retry cost before the client re-runs a quiz.
// A balance that cannot cover the cost rejects the retry; it is never
// partially charged.
func (w *WalletController) QuizRetry(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		StoryID int `json:"story_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	cost := int64(config.Get().QuizRetryCost)
	balance, err := w.ledger.Debit(ctx.Request.Context(), userID, cost, models.EntryQuizRetry, &req.StoryID)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientFunds) {
			utils.Error(ctx, http.StatusPaymentRequired, 40250, "not enough coins for a retry")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to charge retry")
		return
	}

	// Drop the cached quiz so the paid retry gets freshly generated questions.
	utils.InvalidateByPrefix(fmt.Sprintf("quiz:%d:", req.StoryID))

	utils.Success(ctx, gin.H{"balance": balance, "charged": cost})
}
