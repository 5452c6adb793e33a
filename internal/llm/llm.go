package llm

import (
	"context"
	"sync"
)

// Response represents a generation result from any provider
type Response struct {
	Text       string
	TokensUsed int
	LatencyMs  int64
	Model      string
	Provider   string
	Error      string
}

// Provider is the interface implemented by each text-generation backend.
// The vision analysis path speaks the upstream wire contract directly; this
// interface serves the insight generation path, where any provider can
// produce the trend narrative.
type Provider interface {
	// Name returns the provider identifier (anthropic, openai, google, perplexity)
	Name() string

	// Validate validates the provider configuration
	Validate(config map[string]string) error

	// Generate sends a prompt and returns the response
	Generate(ctx context.Context, prompt string, config map[string]interface{}) (*Response, error)
}

// Registry holds the registered providers
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry, replacing any previous provider
// with the same name
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider with the given name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// List returns the names of all registered providers
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
