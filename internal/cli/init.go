package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/battlelens/battlelens/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize battlelens configuration",
	Long:  `Interactive wizard to set up battlelens configuration including limits and history storage.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("🚀 Welcome to BattleLens Setup")
	fmt.Println("==============================")
	fmt.Println()

	configPath := config.GetConfigPath()
	if config.Exists(configPath) {
		fmt.Printf("Configuration file already exists at: %s\n", configPath)
		confirmed, err := promptYesNo(reader, "Do you want to overwrite it? (y/N): ")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()

	fmt.Println("\n🌐 Server Configuration")
	fmt.Println("------------------------")

	port, err := promptOptional(reader, "API port [8787]: ", "8787")
	if err != nil {
		return err
	}
	cfg.Server.Port = port

	fmt.Println("\n🎯 Quota Configuration")
	fmt.Println("-----------------------")

	dailyStr, err := promptOptional(reader, "Daily analysis limit [50]: ", "50")
	if err != nil {
		return err
	}
	if daily, convErr := strconv.Atoi(dailyStr); convErr == nil && daily > 0 {
		cfg.Limits.DailyLimit = daily
	}

	perMinuteStr, err := promptOptional(reader, "Requests per minute per client [5]: ", "5")
	if err != nil {
		return err
	}
	if perMinute, convErr := strconv.Atoi(perMinuteStr); convErr == nil && perMinute > 0 {
		cfg.Limits.RequestsPerMinute = perMinute
	}

	fmt.Println("\n📊 History Storage")
	fmt.Println("-------------------")

	provider, err := promptOptional(reader, "History provider (sqlite/mongodb) [sqlite]: ", "sqlite")
	if err != nil {
		return err
	}
	cfg.History.Provider = provider

	switch provider {
	case "mongodb":
		uri, uriErr := promptOptional(reader, "MongoDB URI [mongodb://localhost:27017]: ", "mongodb://localhost:27017")
		if uriErr != nil {
			return uriErr
		}
		cfg.History.URI = uri

		dbName, nameErr := promptOptional(reader, "Database name [battlelens]: ", "battlelens")
		if nameErr != nil {
			return nameErr
		}
		cfg.History.Database = dbName
	default:
		uri, uriErr := promptOptional(reader, "SQLite path [~/.battlelens/battlelens.db]: ", "~/.battlelens/battlelens.db")
		if uriErr != nil {
			return uriErr
		}
		cfg.History.URI = uri
	}

	// Test history store connection
	fmt.Println("\n🔌 Testing history store...")
	testStore, err := newHistoryStore(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := testStore.Connect(ctx); err != nil {
		fmt.Printf("❌ Failed to connect to history store: %v\n", err)
		fmt.Println("\nPlease check your storage configuration and try again.")
		return err
	}
	defer testStore.Disconnect(ctx)

	if err := testStore.Ping(ctx); err != nil {
		fmt.Printf("❌ Failed to ping history store: %v\n", err)
		return err
	}

	fmt.Println("✅ History store connection successful!")

	fmt.Println("\n💾 Saving configuration...")
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("✅ Configuration saved to: %s\n", configPath)

	fmt.Println("\n📋 Configuration Summary")
	fmt.Println("========================")
	fmt.Printf("Port: %s\n", cfg.Server.Port)
	fmt.Printf("Daily limit: %d\n", cfg.Limits.DailyLimit)
	fmt.Printf("Per-client rate: %d/min\n", cfg.Limits.RequestsPerMinute)
	fmt.Printf("History: %s (%s)\n", cfg.History.Provider, cfg.History.URI)
	fmt.Println()
	fmt.Println("Set ANTHROPIC_API_KEY in the environment (or a .env file) before serving.")
	fmt.Println("🎉 Setup complete! Run 'battlelens serve' to start the API.")

	return nil
}
