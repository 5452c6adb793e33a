package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/battlelens/battlelens/internal/config"
	"github.com/battlelens/battlelens/internal/db"
	"github.com/battlelens/battlelens/internal/db/mongodb"
	"github.com/battlelens/battlelens/internal/db/sqlite"
	"github.com/battlelens/battlelens/internal/llm"
	"github.com/battlelens/battlelens/internal/llm/anthropic"
	"github.com/battlelens/battlelens/internal/llm/google"
	"github.com/battlelens/battlelens/internal/llm/openai"
	"github.com/battlelens/battlelens/internal/llm/perplexity"
	"github.com/battlelens/battlelens/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	store   db.HistoryStore
	secrets *config.Secrets
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "battlelens",
	Short: "Battle screenshot analyzer for Last War: Survival",
	Long: `BattleLens analyzes battle report screenshots with a vision model and
tracks your results over time.

Upload screenshots through the HTTP API to get structured battle data,
derived combat ratios with a letter grade, and AI-generated strategy
insights built from your battle history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip init for the init command itself
		if cmd.Name() == "init" {
			return nil
		}

		if cfgFile == "" {
			cfgFile = config.GetConfigPath()
		}

		if !config.Exists(cfgFile) {
			return fmt.Errorf("configuration file not found. Run 'battlelens init' to create one")
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.Init(logger.ParseLogLevel(cfg.LogLevel), nil)

		secrets, err = config.ReadSecrets()
		if err != nil {
			return fmt.Errorf("failed to read secrets: %w", err)
		}

		store, err = newHistoryStore(cfg)
		if err != nil {
			return err
		}
		if err := store.Connect(context.Background()); err != nil {
			return fmt.Errorf("failed to connect to history store: %w", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			return store.Disconnect(context.Background())
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.battlelens/config.yaml)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(insightsCmd)
}

func newHistoryStore(cfg *config.Config) (db.HistoryStore, error) {
	dbConfig := &db.Config{
		Provider: cfg.History.Provider,
		URI:      cfg.History.URI,
		Database: cfg.History.Database,
		Options:  cfg.History.Options,
	}

	switch dbConfig.Provider {
	case "mongodb":
		return mongodb.New(dbConfig)
	case "sqlite", "":
		return sqlite.New(dbConfig)
	default:
		return nil, fmt.Errorf("unsupported history provider: %s", dbConfig.Provider)
	}
}

// newProviderRegistry registers every provider a credential exists for.
func newProviderRegistry(secrets *config.Secrets) *llm.Registry {
	registry := llm.NewRegistry()
	if secrets.AnthropicAPIKey != "" {
		registry.Register(anthropic.New(secrets.AnthropicAPIKey, ""))
	}
	if secrets.OpenAIAPIKey != "" {
		registry.Register(openai.New(secrets.OpenAIAPIKey, ""))
	}
	if secrets.GeminiAPIKey != "" {
		registry.Register(google.New(secrets.GeminiAPIKey))
	}
	if secrets.PerplexityAPIKey != "" {
		registry.Register(perplexity.New(secrets.PerplexityAPIKey))
	}
	return registry
}
