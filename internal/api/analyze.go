package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/battlelens/battlelens/internal/logger"
	"github.com/battlelens/battlelens/internal/quota"
	"github.com/battlelens/battlelens/internal/vision"
)

// AnalyzeRequest mirrors the upstream multi-modal message format. Messages
// are forwarded opaquely; only their presence and shape are validated here.
type AnalyzeRequest struct {
	Messages  []json.RawMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
}

// analyze handles POST /api/analyze. On success it returns the upstream
// reply object augmented with usage_info; errors use the flat {error}
// shape callers of the proxy contract expect.
func (s *Server) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Messages == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: messages required"})
		return
	}

	clientID := c.ClientIP()
	decision := s.governor.CheckAndReserve(clientID)
	if !decision.Allowed {
		switch decision.Reason {
		case quota.ReasonDailyLimit:
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Daily limit reached. Please try again tomorrow.",
				"dailyLimit": s.config.Limits.DailyLimit,
				"resetTime":  "midnight UTC",
			})
		default:
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded. Please wait a minute before trying again.",
				"retryAfter": decision.RetryAfterSeconds,
			})
		}
		return
	}

	reply, proxyErr := s.proxy.Send(c.Request.Context(), req.Messages, req.MaxTokens)
	if proxyErr != nil {
		s.analyzeError(c, proxyErr)
		return
	}

	body := reply.Body
	if body == nil {
		body = map[string]interface{}{}
	}
	body["usage_info"] = reply.Usage
	c.JSON(http.StatusOK, body)
}

func (s *Server) analyzeError(c *gin.Context, proxyErr *vision.ProxyError) {
	switch proxyErr.Kind {
	case vision.ErrMissingCredential:
		logger.Error("Analyze request refused: no upstream credential configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API key not configured"})
	case vision.ErrRateLimited:
		payload := gin.H{"error": proxyErr.Message}
		if proxyErr.RetryAfterSeconds > 0 {
			payload["retryAfter"] = proxyErr.RetryAfterSeconds
		}
		c.JSON(http.StatusTooManyRequests, payload)
	default:
		status := proxyErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		message := proxyErr.Message
		if message == "" {
			message = "API error"
		}
		c.JSON(status, gin.H{"error": message})
	}
}

// getUsage handles GET /api/usage. It reports configured limits, not live
// counters: under multi-instance deployment each instance tracks its own
// in-memory quota, so true counts cannot be reported from here.
func (s *Server) getUsage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"daily_limit": s.config.Limits.DailyLimit,
		"rate_limit": gin.H{
			"requests_per_minute": s.config.Limits.RequestsPerMinute,
			"window_seconds":      s.config.Limits.WindowSeconds,
		},
	})
}
