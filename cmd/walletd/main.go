package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodix/walletd/internal/cli"
)

func main() {
	// Optional .env for local development; real config lives in viper.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
