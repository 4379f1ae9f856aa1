package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"ideaspark/internal/ideagen"
	"ideaspark/internal/storage"
)

type generateRequest struct {
	PainPoint   string `json:"painPoint" binding:"required"`
	Industry    string `json:"industry"`
	Preferences string `json:"preferences"`
}

func (s *Server) generateIdea(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "painPoint is required")
		return
	}

	ctx := c.Request.Context()
	idea := s.generator.FromProblem(ctx, ideagen.SingleRequest{
		Problem:     req.PainPoint,
		Industry:    req.Industry,
		Preferences: req.Preferences,
	})
	if err := s.store.CreateIdea(ctx, &idea); err != nil {
		// The idea was produced; persistence failure must not hide it.
		s.log.Warn("store generated idea", "id", idea.ID, "error", err)
	}
	ok(c, gin.H{"idea": idea})
}

type generateTrendingRequest struct {
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

func (s *Server) generateTrendingIdea(c *gin.Context) {
	var req generateTrendingRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, "invalid request body")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	ctx := c.Request.Context()
	points, err := s.store.ListTrendingPainPoints(ctx, req.Limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if req.Category != "" {
		filtered := points[:0]
		for _, p := range points {
			if p.Category == req.Category {
				filtered = append(filtered, p)
			}
		}
		points = filtered
	}

	idea := s.generator.FromTrending(ctx, points, req.Category)
	if err := s.store.CreateIdea(ctx, &idea); err != nil {
		s.log.Warn("store generated idea", "id", idea.ID, "error", err)
	}
	ok(c, gin.H{"idea": idea, "painPointsUsed": len(points)})
}

func (s *Server) listIdeas(c *gin.Context) {
	ideas, err := s.store.ListIdeas(c.Request.Context(), limitQuery(c))
	if err != nil {
		if s.storeUnavailable(err) {
			okMeta(c, storage.SampleIdeas(), gin.H{"sampleData": true})
			return
		}
		s.fail(c, err)
		return
	}
	okMeta(c, ideas, gin.H{"count": len(ideas)})
}

func (s *Server) getIdea(c *gin.Context) {
	idea, err := s.store.GetIdea(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, idea)
}

func (s *Server) deleteIdea(c *gin.Context) {
	if err := s.store.DeleteIdea(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, nil, "idea deleted")
}

type saveIdeaRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (s *Server) saveIdea(c *gin.Context) {
	var req saveIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId is required")
		return
	}

	saved, err := s.store.SaveIdea(c.Request.Context(), req.UserID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, saved)
}

func (s *Server) listSavedIdeas(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		badRequest(c, "userId query parameter is required")
		return
	}

	saved, err := s.store.ListSavedIdeas(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	okMeta(c, saved, gin.H{"count": len(saved)})
}

type favoriteRequest struct {
	IsFavorite bool `json:"isFavorite"`
}

func (s *Server) favoriteSavedIdea(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid saved idea id")
		return
	}
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := s.store.SetSavedIdeaFavorite(c.Request.Context(), id, req.IsFavorite); err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, nil, "favorite updated")
}

func (s *Server) deleteSavedIdea(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid saved idea id")
		return
	}
	if err := s.store.DeleteSavedIdea(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, nil, "saved idea removed")
}
