package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/battlelens/battlelens/internal/logger"
	"github.com/battlelens/battlelens/internal/models"
	"github.com/battlelens/battlelens/internal/quota"
)

const anthropicVersion = "2023-06-01"

// RawReply is a successful upstream reply plus the quota snapshot taken when
// the call was committed, so callers can show usage without a second trip.
type RawReply struct {
	Body  map[string]interface{}
	Text  string
	Usage models.UsageInfo
}

// Proxy forwards built requests to the inference service with the
// server-held credential. It performs exactly one upstream call per Send and
// never retries; retry policy belongs to callers.
type Proxy struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
	governor  quota.Governor
	limiter   *rate.Limiter
}

// NewProxy creates a proxy. The caller passes the credential from the
// environment; an empty key is reported per request, not at startup.
func NewProxy(apiKey, baseURL, model string, maxTokens int, timeout time.Duration, governor quota.Governor) *Proxy {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Proxy{
		apiKey:    apiKey,
		baseURL:   baseURL,
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
		governor:  governor,
	}
}

// SetOutboundRate paces dispatch toward the inference service. Zero or
// negative disables pacing.
func (p *Proxy) SetOutboundRate(perSecond float64) {
	if perSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	} else {
		p.limiter = nil
	}
}

// Send forwards messages to the upstream service. The caller must already
// hold an admission from the Quota Governor: Send releases the reservation
// on failure and commits it on success, stamping the usage snapshot onto
// the reply.
func (p *Proxy) Send(ctx context.Context, messages interface{}, maxTokens int) (*RawReply, *ProxyError) {
	if p.apiKey == "" {
		p.governor.Release()
		return nil, &ProxyError{Kind: ErrMissingCredential, Message: "API key not configured"}
	}
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.governor.Release()
			return nil, &ProxyError{Kind: ErrUpstream, Message: err.Error()}
		}
	}

	requestBody := map[string]interface{}{
		"model":      p.model,
		"max_tokens": maxTokens,
		"messages":   messages,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		p.governor.Release()
		return nil, &ProxyError{Kind: ErrUpstream, Message: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		p.governor.Release()
		return nil, &ProxyError{Kind: ErrUpstream, Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		p.governor.Release()
		return nil, &ProxyError{Kind: ErrUpstream, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.governor.Release()
		return nil, &ProxyError{Kind: ErrUpstream, Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		p.governor.Release()
		return nil, p.mapFailure(resp, body)
	}

	var replyBody map[string]interface{}
	if err := json.Unmarshal(body, &replyBody); err != nil {
		p.governor.Release()
		return nil, &ProxyError{Kind: ErrUpstream, Message: fmt.Sprintf("failed to unmarshal response: %v", err)}
	}

	usage := p.governor.Commit()
	logger.Debug("Upstream call succeeded, %d/%d daily requests used", usage.RequestsToday, usage.DailyLimit)

	return &RawReply{
		Body:  replyBody,
		Text:  contentText(replyBody),
		Usage: usage,
	}, nil
}

// mapFailure converts a non-200 upstream status into the normalized error
// surface, pulling the human-readable message out of the error body when
// one is present.
func (p *Proxy) mapFailure(resp *http.Response, body []byte) *ProxyError {
	message := "API error"
	var errBody struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil && errBody.Error.Message != "" {
		message = errBody.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ProxyError{Kind: ErrUnauthorized, Message: message, StatusCode: resp.StatusCode}
	case http.StatusTooManyRequests:
		retryAfter := 0
		if header := resp.Header.Get("Retry-After"); header != "" {
			if seconds, err := strconv.Atoi(header); err == nil {
				retryAfter = seconds
			}
		}
		return &ProxyError{
			Kind:              ErrRateLimited,
			Message:           message,
			StatusCode:        resp.StatusCode,
			RetryAfterSeconds: retryAfter,
		}
	default:
		return &ProxyError{Kind: ErrUpstream, Message: message, StatusCode: resp.StatusCode}
	}
}

// contentText extracts the first text block from an upstream reply object.
func contentText(body map[string]interface{}) string {
	content, ok := body["content"].([]interface{})
	if !ok || len(content) == 0 {
		return ""
	}
	first, ok := content[0].(map[string]interface{})
	if !ok {
		return ""
	}
	text, _ := first["text"].(string)
	return text
}
