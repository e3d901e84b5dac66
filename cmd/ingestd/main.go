// Command ingestd runs the multi-tenant document ingestion service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iatoolkit/ingestd/internal/adapters/driving/cli"
	"github.com/iatoolkit/ingestd/internal/logger"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, os.Getenv("INGESTD_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	defer app.Close()

	cli.SetVersion(version)
	cli.SetServices(app.Services())
	return cli.Execute(ctx)
}
