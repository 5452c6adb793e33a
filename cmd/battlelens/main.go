package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/battlelens/battlelens/internal/cli"
)

func main() {
	// Credentials may live in a .env file next to the binary.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
