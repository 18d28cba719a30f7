package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kcontext/kcontext/content"
	"github.com/kcontext/kcontext/models"
	"github.com/kcontext/kcontext/services"
	"github.com/kcontext/kcontext/utils"
)

// QuizGenerator produces comprehension quizzes for a story.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, content, level string, questions int) (*models.Quiz, error)
}

// StoryController serves the catalog and the gated story material.
type StoryController struct {
	db          *gorm.DB
	catalog     *content.Catalog
	access      *services.AccessPolicy
	resolver    *services.AnalysisResolver
	recommender *services.Recommender
	quizzer     QuizGenerator
}

// NewStoryController creates a new controller instance.
func NewStoryController(db *gorm.DB, catalog *content.Catalog, access *services.AccessPolicy, resolver *services.AnalysisResolver, recommender *services.Recommender, quizzer QuizGenerator) *StoryController {
	return &StoryController{
		db:          db,
		catalog:     catalog,
		access:      access,
		resolver:    resolver,
		recommender: recommender,
		quizzer:     quizzer,
	}
}

// List returns the catalog with per-story access decisions for the caller.
// The anonymous listing is cached in Redis since it is the hottest read.
func (s *StoryController) List(ctx *gin.Context) {
	user := s.optionalUser(ctx)

	cacheKey := ""
	if user == nil {
		cacheKey = "stories:list:anon"
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
	}

	type item struct {
		ID       int               `json:"id"`
		Title    string            `json:"title"`
		Preview  string            `json:"preview"`
		Decision services.Decision `json:"access"`
	}
	out := make([]item, 0, s.catalog.Len())
	for _, story := range s.catalog.List() {
		decision, err := s.access.CanAccess(ctx.Request.Context(), user, story.ID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to evaluate access")
			return
		}
		out = append(out, item{ID: story.ID, Title: story.Title, Preview: story.Preview(80), Decision: decision})
	}

	if cacheKey != "" {
		payload := utils.JSONResponse{Code: 0, Message: "success", Data: out}
		utils.CacheSetJSON(cacheKey, payload, 10*time.Minute)
	}
	utils.Success(ctx, out)
}

// Get returns the full story text when the caller passes the access check.
func (s *StoryController) Get(ctx *gin.Context) {
	story, user, ok := s.gatedStory(ctx)
	if !ok {
		return
	}

	utils.Success(ctx, gin.H{
		"id":      story.ID,
		"title":   story.Title,
		"content": story.Content,
		"levels":  []string{"beginner", "intermediate", "advanced"},
		"user":    usernameOrEmpty(user),
	})
}

// Related returns catalog items similar to the given story.
func (s *StoryController) Related(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid story id")
		return
	}
	story, found := s.catalog.Get(id)
	if !found {
		utils.Error(ctx, http.StatusNotFound, 40420, "story not found")
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "5"))
	candidates := s.catalog.Titles()
	delete(candidates, story.ID)
	utils.Success(ctx, s.recommender.Related(story.Title, candidates, limit))
}

// Analyze resolves the study material for a story at a difficulty level.
func (s *StoryController) Analyze(ctx *gin.Context) {
	story, _, ok := s.gatedStory(ctx)
	if !ok {
		return
	}
	level := ctx.DefaultQuery("level", "beginner")

	res, err := s.resolver.Resolve(ctx.Request.Context(), story.Title, story.Content, level)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAnalysisUnavailable):
			utils.Error(ctx, http.StatusServiceUnavailable, 50320, "analysis temporarily unavailable")
		case errors.Is(err, services.ErrMalformedAnalysis):
			utils.Error(ctx, http.StatusBadGateway, 50220, "analysis response invalid")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to resolve analysis")
		}
		return
	}

	utils.Success(ctx, gin.H{
		"story_id": story.ID,
		"level":    level,
		"source":   res.Source,
		"analysis": res.Document,
	})
}

// Quiz generates comprehension questions for a story. Results are cached in
// Redis per story and level so retries stay cheap.
func (s *StoryController) Quiz(ctx *gin.Context) {
	story, _, ok := s.gatedStory(ctx)
	if !ok {
		return
	}
	level := ctx.DefaultQuery("level", "beginner")

	cacheKey := fmt.Sprintf("quiz:%d:%s", story.ID, level)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	quiz, err := s.quizzer.GenerateQuiz(ctx.Request.Context(), story.Content, level, 5)
	if err != nil {
		if errors.Is(err, services.ErrAnalysisUnavailable) {
			utils.Error(ctx, http.StatusServiceUnavailable, 50321, "quiz generation temporarily unavailable")
		} else {
			utils.Error(ctx, http.StatusBadGateway, 50221, "quiz generation failed")
		}
		return
	}

	payload := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{
		"story_id": story.ID,
		"level":    level,
		"quiz":     quiz,
	}}
	utils.CacheSetJSON(cacheKey, payload, time.Hour)
	utils.Success(ctx, payload.Data)
}

// Access reports the caller's access decision for a story without returning
// any content.
func (s *StoryController) Access(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid story id")
		return
	}
	if _, found := s.catalog.Get(id); !found {
		utils.Error(ctx, http.StatusNotFound, 40420, "story not found")
		return
	}

	decision, err := s.access.CanAccess(ctx.Request.Context(), s.optionalUser(ctx), id)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to evaluate access")
		return
	}
	utils.Success(ctx, decision)
}

// gatedStory parses the id, loads the story and enforces the access policy,
// writing the error response on any failure.
func (s *StoryController) gatedStory(ctx *gin.Context) (*content.Story, *models.User, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid story id")
		return nil, nil, false
	}
	story, found := s.catalog.Get(id)
	if !found {
		utils.Error(ctx, http.StatusNotFound, 40420, "story not found")
		return nil, nil, false
	}

	user := s.optionalUser(ctx)
	decision, err := s.access.CanAccess(ctx.Request.Context(), user, id)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to evaluate access")
		return nil, nil, false
	}
	if !decision.Allowed {
		status := http.StatusForbidden
		if decision.Reason == services.ReasonLoginRequired {
			status = http.StatusUnauthorized
		}
		utils.Respond(ctx, status, 40320, decision.Reason, decision)
		return nil, nil, false
	}
	return story, user, true
}

// optionalUser loads the caller when authenticated, nil otherwise.
func (s *StoryController) optionalUser(ctx *gin.Context) *models.User {
	userID, ok := getUserID(ctx)
	if !ok {
		return nil
	}
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil
	}
	return &user
}

func usernameOrEmpty(user *models.User) string {
	if user == nil {
		return ""
	}
	return user.Username
}
