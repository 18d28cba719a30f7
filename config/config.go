package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	DatabaseURI        string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
	RateLimitPerMinute int
	AllowedOrigins     []string
	OAuthRedirectBase  string
	// Gin framework configuration
	GinMode string
	// Access control
	FreeStoryID      int
	SeasonTwoStart   int
	SeasonTwoOpen    bool
	PlanFreeLimit    int
	PlanProLimit     int
	PlanPremierLimit int
	AdminUsernames   []string
	// Coin economy
	SignupBonus         int
	ApprovalSignupBonus int
	CheckinBase         int
	CheckinBonusAtThree int
	CheckinBonusAtSeven int
	QuizRetryCost       int
	PerfectQuizBonus    int
	// Approval workflow
	ApprovalEnabled         bool
	ApprovalAdminEmail      string
	ApprovalDecideBaseURL   string
	ApprovalDefaultStoryIDs string
	// Analyzer
	AnalyzerURL        string
	AnalyzerKey        string
	AnalyzerModel      string
	AnalyzerTimeoutSec int
	// Content
	StoriesDir      string
	PrecomputedPath string
	CanonicalSuffix string
	ItemZeroTitle   string
	// SMTP for approval notifications
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool
	// Redis for caching
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	GinPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		if v := getString(app, "OAuthRedirectBase"); v != "" {
			out.OAuthRedirectBase = v
		}
		if v := getString(app, "GinMode"); v != "" {
			out.GinMode = v
		}
	}

	if ac, ok := raw["access"].(map[string]any); ok {
		if v := getInt(ac, "FreeStoryID"); v != 0 {
			out.FreeStoryID = v
		}
		if v := getInt(ac, "SeasonTwoStart"); v != 0 {
			out.SeasonTwoStart = v
		}
		out.SeasonTwoOpen = getBool(ac, "SeasonTwoOpen")
		if v := getInt(ac, "PlanFreeLimit"); v != 0 {
			out.PlanFreeLimit = v
		}
		if v := getInt(ac, "PlanProLimit"); v != 0 {
			out.PlanProLimit = v
		}
		if v := getInt(ac, "PlanPremierLimit"); v != 0 {
			out.PlanPremierLimit = v
		}
		if list := getStringSlice(ac, "AdminUsernames"); len(list) > 0 {
			out.AdminUsernames = list
		}
	}

	if cn, ok := raw["coins"].(map[string]any); ok {
		if v := getInt(cn, "SignupBonus"); v != 0 {
			out.SignupBonus = v
		}
		if v := getInt(cn, "ApprovalSignupBonus"); v != 0 {
			out.ApprovalSignupBonus = v
		}
		if v := getInt(cn, "CheckinBase"); v != 0 {
			out.CheckinBase = v
		}
		if v := getInt(cn, "CheckinBonusAtThree"); v != 0 {
			out.CheckinBonusAtThree = v
		}
		if v := getInt(cn, "CheckinBonusAtSeven"); v != 0 {
			out.CheckinBonusAtSeven = v
		}
		if v := getInt(cn, "QuizRetryCost"); v != 0 {
			out.QuizRetryCost = v
		}
		if v := getInt(cn, "PerfectQuizBonus"); v != 0 {
			out.PerfectQuizBonus = v
		}
	}

	if ap, ok := raw["approval"].(map[string]any); ok {
		out.ApprovalEnabled = getBool(ap, "Enabled")
		out.ApprovalAdminEmail = getString(ap, "AdminEmail")
		out.ApprovalDecideBaseURL = getString(ap, "DecideBaseURL")
		out.ApprovalDefaultStoryIDs = getString(ap, "DefaultStoryIDs")
	}

	if an, ok := raw["analyzer"].(map[string]any); ok {
		out.AnalyzerURL = getString(an, "URL")
		out.AnalyzerKey = getString(an, "Key")
		out.AnalyzerModel = getString(an, "Model")
		if v := getInt(an, "TimeoutSec"); v != 0 {
			out.AnalyzerTimeoutSec = v
		}
	}

	if ct, ok := raw["content"].(map[string]any); ok {
		out.StoriesDir = getString(ct, "StoriesDir")
		out.PrecomputedPath = getString(ct, "PrecomputedPath")
		out.CanonicalSuffix = getString(ct, "CanonicalSuffix")
		out.ItemZeroTitle = getString(ct, "ItemZeroTitle")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if oa, ok := raw["oauth"].(map[string]any); ok {
		out.GitHubClientID = getString(oa, "GitHubClientID")
		out.GitHubClientSecret = getString(oa, "GitHubClientSecret")
		out.GoogleClientID = getString(oa, "GoogleClientID")
		out.GoogleClientSecret = getString(oa, "GoogleClientSecret")
	}

	if sm, ok := raw["smtp"].(map[string]any); ok {
		out.SMTPHost = getString(sm, "SMTPHost")
		if v := getInt(sm, "SMTPPort"); v != 0 {
			out.SMTPPort = v
		}
		out.SMTPUsername = getString(sm, "SMTPUsername")
		out.SMTPPassword = getString(sm, "SMTPPassword")
		out.SMTPFrom = getString(sm, "SMTPFrom")
		out.SMTPFromName = getString(sm, "SMTPFromName")
		out.SMTPTLS = getBool(sm, "SMTPTLS")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getString(lg, "GinPath"); v != "" {
			out.GinPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.OAuthRedirectBase == "" {
		c.OAuthRedirectBase = "http://localhost:8080"
	}
	if c.FreeStoryID == 0 {
		c.FreeStoryID = 1
	}
	if c.SeasonTwoStart == 0 {
		c.SeasonTwoStart = 21
	}
	if c.PlanFreeLimit == 0 {
		c.PlanFreeLimit = 3
	}
	if c.PlanProLimit == 0 {
		c.PlanProLimit = 10
	}
	if c.PlanPremierLimit == 0 {
		c.PlanPremierLimit = 20
	}
	if c.SignupBonus == 0 {
		c.SignupBonus = 50
	}
	if c.ApprovalSignupBonus == 0 {
		c.ApprovalSignupBonus = 10
	}
	if c.CheckinBase == 0 {
		c.CheckinBase = 2
	}
	if c.CheckinBonusAtThree == 0 {
		c.CheckinBonusAtThree = 2
	}
	if c.CheckinBonusAtSeven == 0 {
		c.CheckinBonusAtSeven = 5
	}
	if c.QuizRetryCost == 0 {
		c.QuizRetryCost = 2
	}
	if c.PerfectQuizBonus == 0 {
		c.PerfectQuizBonus = 5
	}
	if c.ApprovalDecideBaseURL == "" {
		c.ApprovalDecideBaseURL = "http://localhost:8080/api/v1/approval/decide"
	}
	if c.ApprovalDefaultStoryIDs == "" {
		c.ApprovalDefaultStoryIDs = "1,2"
	}
	if c.AnalyzerModel == "" {
		c.AnalyzerModel = "gpt-4o-mini"
	}
	if c.AnalyzerTimeoutSec == 0 {
		c.AnalyzerTimeoutSec = 90
	}
	if c.StoriesDir == "" {
		c.StoriesDir = "data/stories"
	}
	if c.PrecomputedPath == "" {
		c.PrecomputedPath = "data/analyses.json"
	}
	if c.CanonicalSuffix == "" {
		c.CanonicalSuffix = "의비밀"
	}
	if c.ItemZeroTitle == "" {
		c.ItemZeroTitle = "도깨비키친"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "kcontext"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin.log"
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisPort = n
		}
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("GITHUB_CLIENT_ID", ""); v != "" {
		c.GitHubClientID = v
	}
	if v := getEnv("GITHUB_CLIENT_SECRET", ""); v != "" {
		c.GitHubClientSecret = v
	}
	if v := getEnv("GOOGLE_CLIENT_ID", ""); v != "" {
		c.GoogleClientID = v
	}
	if v := getEnv("GOOGLE_CLIENT_SECRET", ""); v != "" {
		c.GoogleClientSecret = v
	}
	if v := getEnv("OAUTH_REDIRECT_BASE", ""); v != "" {
		c.OAuthRedirectBase = v
	}
	if v := getEnv("ANALYZER_URL", ""); v != "" {
		c.AnalyzerURL = v
	}
	if v := getEnv("ANALYZER_KEY", ""); v != "" {
		c.AnalyzerKey = v
	}
	if v := getEnv("ANALYZER_MODEL", ""); v != "" {
		c.AnalyzerModel = v
	}
	if v := getEnv("SEASON_TWO_OPEN", ""); v != "" {
		c.SeasonTwoOpen = v == "1" || v == "true"
	}
	if v := getEnv("APPROVAL_ENABLED", ""); v != "" {
		c.ApprovalEnabled = v == "1" || v == "true"
	}
	if v := getEnv("APPROVAL_ADMIN_EMAIL", ""); v != "" {
		c.ApprovalAdminEmail = v
	}
	if v := getEnv("SMTP_HOST", ""); v != "" {
		c.SMTPHost = v
	}
	if v := getEnv("SMTP_PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SMTPPort = n
		}
	}
	if v := getEnv("SMTP_USERNAME", ""); v != "" {
		c.SMTPUsername = v
	}
	if v := getEnv("SMTP_PASSWORD", ""); v != "" {
		c.SMTPPassword = v
	}
	if v := getEnv("SMTP_FROM", ""); v != "" {
		c.SMTPFrom = v
	}
	if v := getEnv("STORIES_DIR", ""); v != "" {
		c.StoriesDir = v
	}
	if v := getEnv("PRECOMPUTED_PATH", ""); v != "" {
		c.PrecomputedPath = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
}
