package config

import (
	"github.com/caarlos0/env/v11"
)

// Secrets holds credentials read from the environment. They never appear in
// the config file and are never accepted from API callers.
type Secrets struct {
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY" envDefault:""`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY" envDefault:""`
	GeminiAPIKey     string `env:"GEMINI_API_KEY" envDefault:""`
	PerplexityAPIKey string `env:"PERPLEXITY_API_KEY" envDefault:""`
}

// ReadSecrets parses credentials from the environment. A missing upstream
// key is not an error here; /api/analyze reports it per request instead of
// failing startup.
func ReadSecrets() (*Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// KeyFor returns the credential for a named provider.
func (s *Secrets) KeyFor(provider string) string {
	switch provider {
	case "anthropic":
		return s.AnthropicAPIKey
	case "openai":
		return s.OpenAIAPIKey
	case "google":
		return s.GeminiAPIKey
	case "perplexity":
		return s.PerplexityAPIKey
	default:
		return ""
	}
}
