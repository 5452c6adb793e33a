package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/battlelens/battlelens/internal/db"
)

// getInsights handles POST /api/insights. The generator never fails: with a
// thin history or an unavailable provider it answers with the local
// heuristic report.
func (s *Server) getInsights(c *gin.Context) {
	history, err := s.store.ListEntries(c.Request.Context(), db.MaxEntries)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to load battles: "+err.Error())
		return
	}

	report := s.generator.Generate(c.Request.Context(), c.ClientIP(), history)
	s.successResponse(c, report)
}
