package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

const companyKey = "company"

type sourceView struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	ConnectorName  string         `json:"connector_name"`
	CollectionName string         `json:"collection_name,omitempty"`
	Configuration  map[string]any `json:"configuration"`
	Status         string         `json:"status"`
	ScheduleCron   string         `json:"schedule_cron,omitempty"`
	LastRunAt      *time.Time     `json:"last_run_at"`
	LastError      string         `json:"last_error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func newSourceView(s *domain.IngestionSource) sourceView {
	cfg := s.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}
	return sourceView{
		ID:             s.ID,
		Name:           s.Name,
		ConnectorName:  s.ConnectorName,
		CollectionName: s.CollectionName(),
		Configuration:  cfg,
		Status:         string(s.Status),
		ScheduleCron:   s.ScheduleCron,
		LastRunAt:      s.LastRunAt,
		LastError:      s.LastError,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

type runView struct {
	ID             int64      `json:"id"`
	SourceID       int64      `json:"source_id"`
	Status         string     `json:"status"`
	TriggeredBy    string     `json:"triggered_by"`
	ProcessedFiles int        `json:"processed_files"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
}

func newRunView(r *domain.IngestionRun) runView {
	return runView{
		ID:             r.ID,
		SourceID:       r.SourceID,
		Status:         string(r.Status),
		TriggeredBy:    r.TriggeredBy,
		ProcessedFiles: r.ProcessedFiles,
		ErrorMessage:   r.ErrorMessage,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
}

// resolveCompany loads the :company tenant or answers 404.
func (s *Server) resolveCompany(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		company, err := s.ports.Companies.Resolve(c.Request().Context(), c.Param("company"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMissingParameter) {
				return echo.NewHTTPError(http.StatusNotFound, errCompanyNotFound)
			}
			return err
		}
		c.Set(companyKey, company)
		return next(c)
	}
}

func companyFrom(c echo.Context) *domain.Company {
	company, _ := c.Get(companyKey).(*domain.Company)
	return company
}

func sourceID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", domain.ErrInvalidParameter, c.Param("id"))
	}
	return id, nil
}

// bindInput decodes a JSON object body. Non-object payloads are rejected.
func bindInput(c echo.Context) (domain.SourceInput, error) {
	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return domain.SourceInput{}, fmt.Errorf("%w: request body must be a JSON object", domain.ErrInvalidParameter)
	}
	if body == nil {
		return domain.SourceInput{}, fmt.Errorf("%w: request body", domain.ErrMissingParameter)
	}
	return domain.SourceInputFromMap(body)
}

func (s *Server) listSources(c echo.Context) error {
	sources, err := s.ports.Ingestor.ListSources(c.Request().Context(), companyFrom(c))
	if err != nil {
		return err
	}
	out := make([]sourceView, len(sources))
	for i := range sources {
		out[i] = newSourceView(&sources[i])
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getSource(c echo.Context) error {
	id, err := sourceID(c)
	if err != nil {
		return err
	}
	source, err := s.ports.Ingestor.GetSource(c.Request().Context(), companyFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSourceView(source))
}

func (s *Server) createSource(c echo.Context) error {
	in, err := bindInput(c)
	if err != nil {
		return err
	}
	source, err := s.ports.Ingestor.CreateSource(c.Request().Context(), companyFrom(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newSourceView(source))
}

func (s *Server) updateSource(c echo.Context) error {
	id, err := sourceID(c)
	if err != nil {
		return err
	}
	in, err := bindInput(c)
	if err != nil {
		return err
	}
	source, err := s.ports.Ingestor.UpdateSource(c.Request().Context(), companyFrom(c), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSourceView(source))
}

func (s *Server) deleteSource(c echo.Context) error {
	id, err := sourceID(c)
	if err != nil {
		return err
	}
	if err := s.ports.Ingestor.DeleteSource(c.Request().Context(), companyFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) runSource(c echo.Context) error {
	id, err := sourceID(c)
	if err != nil {
		return err
	}
	user := ""
	if claims := claimsFrom(c); claims != nil {
		user = claims.Subject
	}
	n, err := s.ports.Ingestor.RunIngestion(c.Request().Context(), companyFrom(c), id, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"processed_files": n})
}

func (s *Server) listRuns(c echo.Context) error {
	id, err := sourceID(c)
	if err != nil {
		return err
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			return fmt.Errorf("%w: limit %q", domain.ErrInvalidParameter, raw)
		}
	}
	runs, err := s.ports.Ingestor.ListRuns(c.Request().Context(), companyFrom(c), id, limit)
	if err != nil {
		return err
	}
	out := make([]runView, len(runs))
	for i := range runs {
		out[i] = newRunView(&runs[i])
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) listConnectors(c echo.Context) error {
	company := companyFrom(c)
	connectors, err := s.ports.Companies.ListConnectors(c.Request().Context(), company.ShortName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"connectors": connectors})
}
