package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/battlelens/battlelens/internal/models"
)

// SaveHistoryRequest carries one analyzed battle for persistence.
type SaveHistoryRequest struct {
	Analysis        *models.AnalysisResult `json:"analysis" binding:"required"`
	ScreenshotCount int                    `json:"screenshot_count"`
}

// listHistory handles GET /api/history
func (s *Server) listHistory(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
	}

	entries, err := s.store.ListEntries(c.Request.Context(), limit)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to list battles: "+err.Error())
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	s.successResponse(c, entries)
}

// getHistory handles GET /api/history/:id
func (s *Server) getHistory(c *gin.Context) {
	id := c.Param("id")

	entry, err := s.store.GetEntry(c.Request.Context(), id)
	if err != nil {
		s.errorResponse(c, http.StatusNotFound, "Battle not found: "+err.Error())
		return
	}
	s.successResponse(c, entry)
}

// saveHistory handles POST /api/history
func (s *Server) saveHistory(c *gin.Context) {
	var req SaveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	entry := models.NewHistoryEntry(req.Analysis, req.ScreenshotCount)
	entry.ID = uuid.New().String()
	entry.Date = time.Now().UTC()

	if err := s.store.SaveEntry(c.Request.Context(), entry); err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to save battle: "+err.Error())
		return
	}
	s.successResponse(c, entry)
}

// deleteHistory handles DELETE /api/history/:id
func (s *Server) deleteHistory(c *gin.Context) {
	id := c.Param("id")

	if err := s.store.DeleteEntry(c.Request.Context(), id); err != nil {
		s.errorResponse(c, http.StatusNotFound, "Battle not found: "+err.Error())
		return
	}
	s.successResponse(c, gin.H{"deleted": id})
}

// clearHistory handles DELETE /api/history
func (s *Server) clearHistory(c *gin.Context) {
	removed, err := s.store.ClearEntries(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to clear battles: "+err.Error())
		return
	}
	s.successResponse(c, gin.H{"removed": removed})
}

// getHistoryStats handles GET /api/history/stats
func (s *Server) getHistoryStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to aggregate battles: "+err.Error())
		return
	}
	s.successResponse(c, stats)
}
