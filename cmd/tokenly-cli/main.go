package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Anvoria/tokenly/internal/cli"
	"github.com/Anvoria/tokenly/internal/cli/admin"
	"github.com/Anvoria/tokenly/internal/cli/keys"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; environment variables win either way
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env")
	}

	registry := cli.NewRegistry()
	registry.Register(&keys.Command{})
	registry.Register(&admin.Command{})

	if err := registry.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
