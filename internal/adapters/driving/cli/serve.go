package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iatoolkit/ingestd/internal/adapters/driving/api"
	"github.com/iatoolkit/ingestd/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API and, unless disabled, the cron scheduler.

Every ingestion endpoint requires a bearer token carrying the admin role.
The server stops gracefully on interrupt.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().Bool("no-scheduler", false, "do not run scheduled sources")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireIngestor(); err != nil {
		return err
	}
	if companyService == nil {
		return errors.New("company service not configured")
	}

	cfg := serverConfig
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	server, err := api.NewServer(
		&api.Ports{Companies: companyService, Ingestor: ingestor},
		api.Config{Addr: cfg.Addr, JWTSecret: cfg.JWTSecret, Metrics: cfg.Metrics},
	)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	noScheduler, _ := cmd.Flags().GetBool("no-scheduler")
	if scheduler != nil && cfg.SchedulerEnabled && !noScheduler {
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer scheduler.Stop()
		logger.Info("Scheduler started")
	}

	cmd.Printf("Listening on %s\n", displayAddr(cfg.Addr))
	return server.Run(ctx)
}

func displayAddr(addr string) string {
	if addr == "" {
		return ":8080"
	}
	return addr
}
