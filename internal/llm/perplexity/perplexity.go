package perplexity

import (
	"context"
	"fmt"
	"time"

	pplx "github.com/sgaunet/perplexity-go/v2"

	"github.com/battlelens/battlelens/internal/llm"
)

// Provider implements the LLM Provider interface for Perplexity
type Provider struct {
	apiKey string
	client *pplx.Client
}

// New creates a new Perplexity provider
func New(apiKey string) *Provider {
	return &Provider{
		apiKey: apiKey,
		client: pplx.NewClient(apiKey),
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "perplexity"
}

// Validate validates the provider configuration
func (p *Provider) Validate(config map[string]string) error {
	if config["api_key"] == "" {
		return fmt.Errorf("api_key is required")
	}
	return nil
}

// Generate sends a prompt to Perplexity and returns the response
func (p *Provider) Generate(ctx context.Context, prompt string, config map[string]interface{}) (*llm.Response, error) {
	startTime := time.Now()

	model := pplx.DefaultModel
	if m, ok := config["model"].(string); ok && m != "" {
		model = m
	}

	messages := []pplx.Message{
		{Role: "user", Content: prompt},
	}

	req := pplx.NewCompletionRequest(
		pplx.WithMessages(messages),
		pplx.WithModel(model),
	)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid completion request: %w", err)
	}

	res, err := p.client.SendCompletionRequest(req)
	if err != nil {
		return &llm.Response{
			Error:     err.Error(),
			LatencyMs: time.Since(startTime).Milliseconds(),
		}, nil
	}

	return &llm.Response{
		Text:      res.GetLastContent(),
		LatencyMs: time.Since(startTime).Milliseconds(),
		Model:     model,
		Provider:  "perplexity",
	}, nil
}
