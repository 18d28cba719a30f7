package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kcontext/kcontext/config"
	"github.com/kcontext/kcontext/content"
	"github.com/kcontext/kcontext/controllers"
	"github.com/kcontext/kcontext/middleware"
	"github.com/kcontext/kcontext/services"
	"github.com/kcontext/kcontext/storage"
	"github.com/kcontext/kcontext/utils"
)

// Deps carries everything the HTTP layer is built from. main assembles the
// services once at boot and hands them over here.
type Deps struct {
	DB          *gorm.DB
	Catalog     *content.Catalog
	Ledger      *services.Ledger
	Approvals   *services.Approvals
	Streaks     *services.Streaks
	Missions    *services.Missions
	Access      *services.AccessPolicy
	Resolver    *services.AnalysisResolver
	Recommender *services.Recommender
	Quizzer     controllers.QuizGenerator
	StudyStore  *storage.StudyStore
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	// Record daily per-path activity after each request
	r.Use(middleware.ActivityRecorder(d.DB))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(d.DB, d.Ledger, d.Approvals)
	storyController := controllers.NewStoryController(d.DB, d.Catalog, d.Access, d.Resolver, d.Recommender, d.Quizzer)
	checkinController := controllers.NewCheckInController(d.Streaks)
	missionController := controllers.NewMissionController(d.Missions)
	walletController := controllers.NewWalletController(d.Ledger)
	studyController := controllers.NewStudyController(d.StudyStore, d.Ledger)
	approvalController := controllers.NewApprovalController(d.Approvals)
	statsController := controllers.NewStatsController(d.DB)
	configController := controllers.NewConfigController()

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PUT("/plan", middleware.AuthRequired(), authController.ChangePlan)

	storiesGroup := api.Group("/stories")
	storiesGroup.Use(middleware.AuthOptional())
	storiesGroup.GET("", storyController.List)
	storiesGroup.GET("/:id", storyController.Get)
	storiesGroup.GET("/:id/access", storyController.Access)
	storiesGroup.GET("/:id/related", storyController.Related)
	// Gating happens inside the handlers so the free story stays open to
	// anonymous readers.
	storiesGroup.POST("/:id/analyze", storyController.Analyze)
	storiesGroup.POST("/:id/quiz", storyController.Quiz)

	checkinGroup := api.Group("/checkin")
	checkinGroup.Use(middleware.AuthRequired())
	checkinGroup.POST("/daily", checkinController.CheckIn)
	checkinGroup.GET("/status", checkinController.Status)

	missionsGroup := api.Group("/missions")
	missionsGroup.Use(middleware.AuthRequired())
	missionsGroup.GET("/daily", missionController.Today)
	missionsGroup.POST("/:id/complete", missionController.Complete)

	api.GET("/wallet", middleware.AuthRequired(), walletController.Get)
	api.POST("/quiz/retry", middleware.AuthRequired(), walletController.QuizRetry)

	api.POST("/study/records", middleware.AuthRequired(), studyController.RecordSession)
	api.GET("/user/dashboard", middleware.AuthRequired(), studyController.Dashboard)

	api.DELETE("/account", middleware.AuthRequired(), authController.DeleteAccount)

	// Decision links from the review mail land here, so no auth on /decide.
	api.GET("/approval/status", middleware.AuthRequired(), approvalController.Status)
	api.GET("/approval/decide", approvalController.Decide)

	// Public stats and config endpoints
	api.GET("/stats", statsController.GetStats)
	api.GET("/config/plans", configController.GetPlans)
	api.GET("/config/features", configController.GetFeatures)

	return r
}
