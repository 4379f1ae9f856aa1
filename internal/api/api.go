// Package api exposes the HTTP surface: pain points, ideas, community,
// analytics, telegram health and cron triggers, all behind a uniform JSON
// envelope.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ideaspark/internal/apperr"
	"ideaspark/internal/ideagen"
	"ideaspark/internal/pipeline"
	"ideaspark/internal/storage"
)

// defaultListLimit bounds list endpoints when no limit is given.
const defaultListLimit = 50

// TelegramSender is the subset of the digest sender the API needs for
// operational health checks.
type TelegramSender interface {
	SendTestMessage(ctx context.Context) bool
	TestConnection() error
}

// Server holds the dependencies of all HTTP handlers.
type Server struct {
	store          storage.Storage
	pipeline       *pipeline.Pipeline
	generator      *ideagen.Generator
	telegram       TelegramSender
	log            *slog.Logger
	cronSecret     string
	sampleFallback bool
}

// Options configures a Server. Telegram may be nil when no bot token is
// configured; the telegram endpoints then report the feature as disabled.
type Options struct {
	Store          storage.Storage
	Pipeline       *pipeline.Pipeline
	Generator      *ideagen.Generator
	Telegram       TelegramSender
	Logger         *slog.Logger
	CronSecret     string
	SampleFallback bool
}

// New creates a Server.
func New(opts Options) *Server {
	return &Server{
		store:          opts.Store,
		pipeline:       opts.Pipeline,
		generator:      opts.Generator,
		telegram:       opts.Telegram,
		log:            opts.Logger,
		cronSecret:     opts.CronSecret,
		sampleFallback: opts.SampleFallback,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	{
		api.GET("/health", s.health)

		api.POST("/pain-points/collect", s.collectPainPoints)
		api.GET("/pain-points", s.listPainPoints)
		api.GET("/pain-points/trending", s.trendingPainPoints)
		api.GET("/pain-points/search", s.searchPainPoints)

		api.POST("/ideas/generate", s.generateIdea)
		api.POST("/ideas/generate-trending", s.generateTrendingIdea)
		api.GET("/ideas", s.listIdeas)
		api.GET("/ideas/:id", s.getIdea)
		api.DELETE("/ideas/:id", s.deleteIdea)
		api.POST("/ideas/:id/save", s.saveIdea)
		api.GET("/saved-ideas", s.listSavedIdeas)
		api.POST("/saved-ideas/:id/favorite", s.favoriteSavedIdea)
		api.DELETE("/saved-ideas/:id", s.deleteSavedIdea)

		community := api.Group("/community")
		{
			community.GET("/posts", s.listPosts)
			community.POST("/posts", s.createPost)
			community.GET("/posts/:id", s.getPost)
			community.PUT("/posts/:id", s.updatePost)
			community.DELETE("/posts/:id", s.deletePost)
			community.POST("/posts/:id/like", s.togglePostLike)
			community.POST("/posts/:id/bookmark", s.toggleBookmark)
			community.GET("/posts/:id/comments", s.listComments)
			community.POST("/posts/:id/comments", s.createComment)
			community.PUT("/comments/:id", s.updateComment)
			community.DELETE("/comments/:id", s.deleteComment)
			community.POST("/comments/:id/like", s.toggleCommentLike)
		}

		api.GET("/analytics/stats", s.analyticsStats)
		api.GET("/analytics/keywords", s.analyticsKeywords)

		api.POST("/telegram/test", s.telegramTest)
		api.GET("/telegram/status", s.telegramStatus)

		cron := api.Group("/cron", s.cronAuth())
		{
			cron.POST("/collect", s.cronCollect)
			cron.POST("/daily", s.cronDaily)
		}
	}
	return r
}

// envelope is the uniform response shape of every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func okMessage(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

func okMeta(c *gin.Context, data, meta any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Meta: meta})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// fail maps an error's kind to an HTTP status and renders the envelope.
func (s *Server) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		s.log.Error("request failed", "path", c.FullPath(), "error", err,
			"request_id", c.GetString("request_id"))
	}
	c.JSON(status, envelope{Success: false, Error: err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Error: message})
}

// requestLog assigns each request an id and logs its outcome.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Next()
		s.log.Debug("request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	}
}

// cronAuth requires the shared secret as a bearer token.
func (s *Server) cronAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == "" || token == auth || token != s.cronSecret {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				envelope{Success: false, Error: "invalid cron secret"})
			return
		}
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	ok(c, gin.H{"status": "ok"})
}

func (s *Server) cronCollect(c *gin.Context) {
	result, err := s.pipeline.RunCollection(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, result)
}

func (s *Server) cronDaily(c *gin.Context) {
	result, err := s.pipeline.RunDaily(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, result)
}

// limitQuery parses the limit query parameter with a default.
func limitQuery(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// storeUnavailable reports whether a read failure should be softened into
// sample data instead of an error response.
func (s *Server) storeUnavailable(err error) bool {
	if !s.sampleFallback {
		return false
	}
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Kind == apperr.Database
}
