package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/battlelens/battlelens/internal/api"
	"github.com/battlelens/battlelens/internal/insights"
	"github.com/battlelens/battlelens/internal/logger"
	"github.com/battlelens/battlelens/internal/quota"
	"github.com/battlelens/battlelens/internal/vision"
)

var (
	servePort string
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the BattleLens API server",
	Long: `Start the HTTP API that the screenshot front-end talks to:
- POST /api/analyze       - proxy screenshots to the vision model
- GET  /api/usage         - configured quota limits
- GET  /api/history       - stored battles (POST to save, DELETE to remove)
- GET  /api/history/stats - aggregated win rate and damage
- POST /api/stats         - derived ratios and grade for one analysis
- POST /api/insights      - AI strategy insights with heuristic fallback
- GET  /api/health        - liveness and store reachability

The upstream credential is read from ANTHROPIC_API_KEY and never leaves
the server.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to run the API server on (overrides config)")
	serveCmd.Flags().StringVarP(&serveHost, "host", "H", "", "Host to bind the API server to (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != "" {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	governor := quota.NewMemory(quota.Config{
		Window:       time.Duration(cfg.Limits.WindowSeconds) * time.Second,
		MaxPerWindow: cfg.Limits.RequestsPerMinute,
		DailyLimit:   cfg.Limits.DailyLimit,
	})

	janitor := quota.NewJanitor(governor)
	if err := janitor.Start(); err != nil {
		return err
	}
	defer janitor.Stop()

	proxy := vision.NewProxy(
		secrets.AnthropicAPIKey,
		cfg.Vision.BaseURL,
		cfg.Vision.Model,
		cfg.Vision.MaxTokens,
		time.Duration(cfg.Limits.UpstreamTimeoutSeconds)*time.Second,
		governor,
	)
	proxy.SetOutboundRate(cfg.Limits.UpstreamPerSecond)

	if secrets.AnthropicAPIKey == "" {
		logger.Warning("ANTHROPIC_API_KEY not set: analyze requests will fail until it is configured")
	}

	registry := newProviderRegistry(secrets)
	generator := insights.New(registry, governor, insights.Config{
		Provider:  cfg.Insights.Provider,
		Model:     cfg.Insights.Model,
		MaxTokens: cfg.Insights.MaxTokens,
	})

	server := api.NewServer(cfg, governor, proxy, generator, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n🛑 Shutting down...")
		cancel()
	}()

	fmt.Printf("🚀 BattleLens API on http://%s:%s/api\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("   Daily limit: %d, per-client rate: %d/%ds\n",
		cfg.Limits.DailyLimit, cfg.Limits.RequestsPerMinute, cfg.Limits.WindowSeconds)
	fmt.Println("Press Ctrl+C to stop the server")

	return server.Start(ctx)
}
