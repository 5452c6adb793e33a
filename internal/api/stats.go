package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/battlelens/battlelens/internal/models"
	"github.com/battlelens/battlelens/internal/stats"
)

// ComputeStatsRequest carries one analysis to derive ratios and a grade from.
type ComputeStatsRequest struct {
	Analysis *models.AnalysisResult `json:"analysis" binding:"required"`
}

// StatsResponse pairs the derived ratios with their grade.
type StatsResponse struct {
	Stats models.DerivedStats `json:"stats"`
	Grade models.Grade        `json:"grade"`
}

// computeStats handles POST /api/stats
func (s *Server) computeStats(c *gin.Context) {
	var req ComputeStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	derived := stats.Compute(req.Analysis)
	s.successResponse(c, StatsResponse{
		Stats: derived.Rounded(),
		Grade: stats.Grade(derived),
	})
}
