package api

import (
	"github.com/gin-gonic/gin"

	"ideaspark/internal/model"
	"ideaspark/internal/storage"
)

func (s *Server) collectPainPoints(c *gin.Context) {
	result, err := s.pipeline.RunCollection(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, result, "collection finished")
}

func (s *Server) listPainPoints(c *gin.Context) {
	ctx := c.Request.Context()
	limit := limitQuery(c)
	source := c.Query("source")

	var (
		points []model.PainPoint
		err    error
	)
	if source != "" {
		points, err = s.store.ListPainPointsBySource(ctx, source, limit)
	} else {
		points, err = s.store.ListPainPoints(ctx, limit)
	}
	if err != nil {
		if s.storeUnavailable(err) {
			okMeta(c, storage.SamplePainPoints(), gin.H{"sampleData": true})
			return
		}
		s.fail(c, err)
		return
	}
	okMeta(c, points, gin.H{"count": len(points)})
}

func (s *Server) trendingPainPoints(c *gin.Context) {
	points, err := s.store.ListTrendingPainPoints(c.Request.Context(), limitQuery(c))
	if err != nil {
		if s.storeUnavailable(err) {
			okMeta(c, storage.SamplePainPoints(), gin.H{"sampleData": true})
			return
		}
		s.fail(c, err)
		return
	}
	okMeta(c, points, gin.H{"count": len(points)})
}

func (s *Server) searchPainPoints(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		badRequest(c, "keyword query parameter is required")
		return
	}

	points, err := s.store.SearchPainPoints(c.Request.Context(), keyword, limitQuery(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	okMeta(c, points, gin.H{"count": len(points), "keyword": keyword})
}
