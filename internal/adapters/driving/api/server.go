// Package api exposes ingestion sources over HTTP with echo.
//
// Every route below /:company/api requires a bearer token signed with the
// configured secret whose roles include "admin".
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the API.
type Ports struct {
	Companies driving.CompanyService
	Ingestor  driving.Ingestor
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Companies == nil {
		return fmt.Errorf("%w: api: company service is required", domain.ErrConfig)
	}
	if p.Ingestor == nil {
		return fmt.Errorf("%w: api: ingestor is required", domain.ErrConfig)
	}
	return nil
}

// Config configures the HTTP server.
type Config struct {
	Addr      string
	JWTSecret string

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server is the HTTP API server.
type Server struct {
	ports *Ports
	echo  *echo.Echo
	addr  string
}

// NewServer builds the router.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: api: jwt secret is required", domain.ErrConfig)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())

	s := &Server{ports: ports, echo: e, addr: cfg.Addr}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics))
	}

	g := e.Group("/:company/api",
		authMiddleware([]byte(cfg.JWTSecret)),
		requireRole(RoleAdmin),
		s.resolveCompany,
	)
	g.GET("/ingestion-sources", s.listSources)
	g.POST("/ingestion-sources", s.createSource)
	g.GET("/ingestion-sources/:id", s.getSource)
	g.PUT("/ingestion-sources/:id", s.updateSource)
	g.DELETE("/ingestion-sources/:id", s.deleteSource)
	g.POST("/ingestion-sources/:id/run", s.runSource)
	g.GET("/ingestion-sources/:id/runs", s.listRuns)
	g.GET("/connectors", s.listConnectors)

	return s, nil
}

// Handler returns the router for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
