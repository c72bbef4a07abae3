// Command kontur-api automates codes orders on the Kontur marking portal.
// Usage: go run ./cmd/kontur-api --help
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillbelykh/kontur-api/internal/adapters/driving/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(cli.Execute(ctx))
}
