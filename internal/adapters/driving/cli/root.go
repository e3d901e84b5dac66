// Package cli implements the ingestd command line with cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driving"
	"github.com/iatoolkit/ingestd/internal/logger"
)

var version = "dev"

// SourceWatcher re-runs a local source when its files change.
type SourceWatcher interface {
	Watch(ctx context.Context, company *domain.Company, source *domain.IngestionSource) error
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr             string
	JWTSecret        string
	Metrics          http.Handler
	SchedulerEnabled bool
}

// Services are the core services the commands drive.
type Services struct {
	Companies driving.CompanyService
	Ingestor  driving.Ingestor
	Scheduler driving.Scheduler
	Watcher   SourceWatcher
	Server    ServerConfig
}

var (
	companyService driving.CompanyService
	ingestor       driving.Ingestor
	scheduler      driving.Scheduler
	watcher        SourceWatcher
	serverConfig   ServerConfig
)

var rootCmd = &cobra.Command{
	Use:   "ingestd",
	Short: "Multi-tenant document ingestion service",
	Long: `ingestd pulls documents from the storage backends configured for each
company, parses and chunks them, and stores them in the knowledge base.

Sources run on demand, on their cron schedule, or when watched files change.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	companyService = s.Companies
	ingestor = s.Ingestor
	scheduler = s.Scheduler
	watcher = s.Watcher
	serverConfig = s.Server
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// resolveCompany looks up a tenant by short name.
func resolveCompany(ctx context.Context, shortName string) (*domain.Company, error) {
	if companyService == nil {
		return nil, errors.New("company service not configured")
	}
	company, err := companyService.Resolve(ctx, shortName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("company %q not found", shortName)
		}
		return nil, err
	}
	return company, nil
}

func requireIngestor() error {
	if ingestor == nil {
		return errors.New("ingestion service not configured")
	}
	return nil
}
