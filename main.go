package main

import (
	"context"
	"time"

	"github.com/kcontext/kcontext/analyzer"
	"github.com/kcontext/kcontext/config"
	"github.com/kcontext/kcontext/content"
	"github.com/kcontext/kcontext/models"
	"github.com/kcontext/kcontext/routes"
	"github.com/kcontext/kcontext/services"
	"github.com/kcontext/kcontext/storage"
	"github.com/kcontext/kcontext/utils"
)

// disabledAnalyzer stands in when no analyzer credentials are configured.
// Precomputed and cached analyses still serve, only tier-3 generation fails.
type disabledAnalyzer struct{}

func (disabledAnalyzer) Analyze(context.Context, string, string) (*models.AnalysisDocument, error) {
	return nil, services.ErrAnalysisUnavailable
}

func (disabledAnalyzer) GenerateQuiz(context.Context, string, string, int) (*models.Quiz, error) {
	return nil, services.ErrAnalysisUnavailable
}

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.LedgerEntry{},
		&models.ApprovalRecord{},
		&models.CheckIn{},
		&models.Mission{},
		&models.AnalysisCache{},
		&models.StudyRecord{},
		&models.Activity{},
	)

	// Warm up the Redis connection so cache failures surface at boot
	if err := utils.GetRedis().Ping(context.Background()).Err(); err != nil {
		utils.Sugar.Warnf("redis unavailable, continuing without cache: %v", err)
	}

	catalog, err := content.LoadCatalog(cfg.StoriesDir)
	if err != nil {
		utils.Sugar.Fatalf("failed to load story catalog from %s: %v", cfg.StoriesDir, err)
	}
	utils.Sugar.Infof("loaded %d stories from %s", catalog.Len(), cfg.StoriesDir)

	precomputed, err := content.LoadPrecomputed(cfg.PrecomputedPath, func(title string) string {
		return services.NormalizeTitle(title, cfg.CanonicalSuffix, cfg.ItemZeroTitle)
	})
	if err != nil {
		utils.Sugar.Fatalf("failed to load precomputed analyses from %s: %v", cfg.PrecomputedPath, err)
	}
	utils.Sugar.Infof("loaded %d precomputed analyses", precomputed.Len())

	ledger := services.NewLedger(storage.NewLedgerStore(db))
	approvals := services.NewApprovals(
		storage.NewApprovalStore(db),
		utils.SMTPNotifier{},
		services.ApprovalConfig{
			AdminEmail:      cfg.ApprovalAdminEmail,
			DecideBaseURL:   cfg.ApprovalDecideBaseURL,
			DefaultStoryIDs: cfg.ApprovalDefaultStoryIDs,
		},
		utils.Sugar,
	)
	access := services.NewAccessPolicy(services.AccessConfig{
		ApprovalEnabled: cfg.ApprovalEnabled,
		FreeStoryID:     cfg.FreeStoryID,
		SeasonTwoStart:  cfg.SeasonTwoStart,
		SeasonTwoOpen:   cfg.SeasonTwoOpen,
		PlanThresholds: map[models.Plan]int{
			models.PlanFree:    cfg.PlanFreeLimit,
			models.PlanPro:     cfg.PlanProLimit,
			models.PlanPremier: cfg.PlanPremierLimit,
		},
		AdminUsernames: cfg.AdminUsernames,
	}, approvals)
	streaks := services.NewStreaks(storage.NewCheckInStore(db), ledger, services.StreakRewards{
		Base:         int64(cfg.CheckinBase),
		BonusAtThree: int64(cfg.CheckinBonusAtThree),
		BonusAtSeven: int64(cfg.CheckinBonusAtSeven),
	})
	missions := services.NewMissions(storage.NewMissionStore(db), ledger, services.DefaultMissionTable())

	var engine services.Analyzer
	resolverCfg := services.ResolverConfig{
		CanonicalSuffix: cfg.CanonicalSuffix,
		ItemZeroTitle:   cfg.ItemZeroTitle,
		AnalyzerTimeout: time.Duration(cfg.AnalyzerTimeoutSec) * time.Second,
	}

	deps := routes.Deps{
		DB:          db,
		Catalog:     catalog,
		Ledger:      ledger,
		Approvals:   approvals,
		Streaks:     streaks,
		Missions:    missions,
		Access:      access,
		Recommender: services.NewRecommender(nil),
		StudyStore:  storage.NewStudyStore(db),
	}

	if cfg.AnalyzerURL != "" && cfg.AnalyzerKey != "" {
		client, err := analyzer.New(cfg.AnalyzerURL, cfg.AnalyzerKey, analyzer.WithModel(cfg.AnalyzerModel))
		if err != nil {
			utils.Sugar.Fatalf("bad analyzer configuration: %v", err)
		}
		engine = client
		deps.Quizzer = client
	} else {
		utils.Sugar.Warn("analyzer not configured, serving precomputed and cached analyses only")
		engine = disabledAnalyzer{}
		deps.Quizzer = disabledAnalyzer{}
	}
	deps.Resolver = services.NewAnalysisResolver(precomputed, storage.NewAnalysisStore(db), engine, resolverCfg, utils.Sugar)

	r := routes.SetupRouter(deps)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
