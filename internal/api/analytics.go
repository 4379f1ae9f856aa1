package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) analyticsStats(c *gin.Context) {
	ctx := c.Request.Context()

	sources, err := s.store.PainPointSourceStats(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	ideas, err := s.store.IdeaStats(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"sources": sources, "ideas": ideas})
}

func (s *Server) analyticsKeywords(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}

	keywords, err := s.store.TrendingKeywords(c.Request.Context(), days, limitQuery(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	okMeta(c, keywords, gin.H{"days": days})
}

func (s *Server) telegramTest(c *gin.Context) {
	if s.telegram == nil {
		badRequest(c, "telegram is not configured")
		return
	}
	if sent := s.telegram.SendTestMessage(c.Request.Context()); !sent {
		c.JSON(http.StatusBadGateway, envelope{Success: false, Error: "test message delivery failed"})
		return
	}
	okMessage(c, nil, "test message sent")
}

func (s *Server) telegramStatus(c *gin.Context) {
	configured := s.telegram != nil
	status := gin.H{"configured": configured, "connected": false}

	if configured {
		if err := s.telegram.TestConnection(); err != nil {
			status["error"] = err.Error()
		} else {
			status["connected"] = true
		}
	}

	stats, err := s.store.TelegramStats(c.Request.Context(), 7)
	if err == nil {
		status["deliveries"] = stats
	}
	ok(c, status)
}
