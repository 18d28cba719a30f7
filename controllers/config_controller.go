package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/kcontext/kcontext/config"
	"github.com/kcontext/kcontext/utils"
)

// ConfigController serves the public, environment-driven client configuration.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetPlans returns the subscription tiers and what each unlocks.
func (c *ConfigController) GetPlans(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"plans": []gin.H{
			{"name": "free", "story_limit": cfg.PlanFreeLimit},
			{"name": "pro", "story_limit": cfg.PlanProLimit},
			{"name": "premier", "story_limit": cfg.PlanPremierLimit},
		},
		"free_story_id":    cfg.FreeStoryID,
		"season_two_start": cfg.SeasonTwoStart,
		"season_two_open":  cfg.SeasonTwoOpen,
	})
}

// GetFeatures returns the coin economy constants clients display.
func (c *ConfigController) GetFeatures(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"signup_bonus":           cfg.SignupBonus,
		"checkin_base":           cfg.CheckinBase,
		"checkin_bonus_at_three": cfg.CheckinBonusAtThree,
		"checkin_bonus_at_seven": cfg.CheckinBonusAtSeven,
		"quiz_retry_cost":        cfg.QuizRetryCost,
		"perfect_quiz_bonus":     cfg.PerfectQuizBonus,
		"approval_enabled":       cfg.ApprovalEnabled,
	})
}
