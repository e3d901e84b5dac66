package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iatoolkit/ingestd/internal/adapters/driven/config/companies"
	"github.com/iatoolkit/ingestd/internal/adapters/driven/config/file"
	"github.com/iatoolkit/ingestd/internal/adapters/driven/embedding/gemini"
	"github.com/iatoolkit/ingestd/internal/adapters/driven/embedding/openai"
	redislock "github.com/iatoolkit/ingestd/internal/adapters/driven/lock/redis"
	"github.com/iatoolkit/ingestd/internal/adapters/driven/metrics/prometheus"
	"github.com/iatoolkit/ingestd/internal/adapters/driven/storage/sqlite"
	"github.com/iatoolkit/ingestd/internal/adapters/driving/cli"
	"github.com/iatoolkit/ingestd/internal/connectors"
	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/core/services"
	"github.com/iatoolkit/ingestd/internal/logger"
	"github.com/iatoolkit/ingestd/internal/parsers"
	"github.com/iatoolkit/ingestd/internal/parsers/docling"
	"github.com/iatoolkit/ingestd/internal/postprocessors"
)

// envKeys maps environment variables onto config keys.
var envKeys = map[string]string{
	"INGESTD_ENV":     "environment",
	"INGESTD_ADDR":    "server.addr",
	"INGESTD_DATA":    "storage.data_dir",
	"COMPANIES_DIR":   "companies.dir",
	"JWT_SECRET":      "auth.jwt_secret",
	"REDIS_ADDR":      "redis.addr",
	"REDIS_PASSWORD":  "redis.password",
	"DOCLING_ENABLED": "docling.enabled",
	"DOCLING_URL":     "docling.url",
}

// app owns every long-lived component.
type app struct {
	config     *file.ConfigStore
	store      *sqlite.Store
	loader     *companies.Loader
	embeddings driven.EmbeddingService
	locker     *redislock.Locker
	metrics    *prometheus.Metrics

	companies *services.CompanyService
	ingestor  *services.Ingestor
	scheduler *services.Scheduler
	watcher   *services.SourceWatcher
}

func newApp(ctx context.Context, configDir string) (*app, error) {
	cfg, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(envKeys)

	a := &app{config: cfg, metrics: prometheus.New()}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	cfg := a.config

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = store

	companiesDir := cfg.GetString("companies.dir")
	if companiesDir == "" {
		companiesDir = filepath.Join(filepath.Dir(cfg.Path()), "companies")
	}
	a.loader = companies.NewLoader(companiesDir)

	a.embeddings, err = newEmbeddings(ctx, cfg)
	if err != nil {
		return err
	}

	pipeline, err := postprocessors.DefaultPipeline(a.embeddings, chunkerConfig(cfg))
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	parserFactory := parsers.NewFactory(docling.Config{
		Enabled: docling.ParseEnabled(cfg.GetString("docling.enabled")),
		URL:     cfg.GetString("docling.url"),
	})
	resolver := services.NewParsingProviderResolver(store, a.loader, parserFactory)

	kb := services.NewKnowledgeBaseService(store, resolver, pipeline)
	kb.SetMetrics(a.metrics)

	connectorFactory := connectors.NewFactory()
	runner := services.NewIngestionRunner(store, a.loader, connectorFactory, kb)
	runner.SetMetrics(a.metrics)

	if addr := cfg.GetString("redis.addr"); addr != "" {
		a.locker, err = redislock.NewLocker(ctx, redislock.Config{
			Addr:     addr,
			Password: cfg.GetString("redis.password"),
			DB:       cfg.GetInt("redis.db"),
		})
		if err != nil {
			return err
		}
		runner.SetLocker(a.locker, cfg.GetDuration("redis.lock_ttl", services.DefaultRunLockTTL))
	}

	sources := services.NewIngestionSourceService(store, store)
	sources.SetConnectorFactory(connectorFactory)
	a.ingestor = services.NewIngestor(sources, runner, store, a.loader, environment(cfg))

	a.companies = services.NewCompanyService(store, store, a.loader)
	if err := a.companies.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap companies: %w", err)
	}

	a.scheduler, err = services.NewScheduler(store, store, runner, services.SchedulerConfig{
		Interval: cfg.GetDuration("scheduler.interval", 0),
		Workers:  cfg.GetInt("scheduler.workers"),
	})
	if err != nil {
		return err
	}
	a.watcher = services.NewSourceWatcher(runner, connectorFactory, cfg.GetDuration("watch.debounce", 0))
	return nil
}

// Services exposes the components to the command line.
func (a *app) Services() cli.Services {
	schedulerEnabled := true
	if _, ok := a.config.Get("scheduler.enabled"); ok {
		schedulerEnabled = a.config.GetBool("scheduler.enabled")
	}
	return cli.Services{
		Companies: a.companies,
		Ingestor:  a.ingestor,
		Scheduler: a.scheduler,
		Watcher:   a.watcher,
		Server: cli.ServerConfig{
			Addr:             a.config.GetString("server.addr"),
			JWTSecret:        a.config.GetString("auth.jwt_secret"),
			Metrics:          a.metrics.Handler(),
			SchedulerEnabled: schedulerEnabled,
		},
	}
}

// Close releases resources in reverse order of creation.
func (a *app) Close() {
	if a.scheduler != nil {
		a.scheduler.Close()
	}
	if a.locker != nil {
		if err := a.locker.Close(); err != nil {
			logger.Warn("close redis: %v", err)
		}
	}
	if a.embeddings != nil {
		if err := a.embeddings.Close(); err != nil {
			logger.Warn("close embeddings: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn("close store: %v", err)
		}
	}
}

func environment(cfg driven.ConfigStore) string {
	if strings.HasPrefix(strings.ToLower(cfg.GetString("environment")), "prod") {
		return domain.EnvProduction
	}
	return domain.EnvDevelopment
}

func chunkerConfig(cfg driven.ConfigStore) map[string]any {
	out := map[string]any{}
	if v := cfg.GetInt("chunker.chunk_size"); v != 0 {
		out["chunk_size"] = v
	}
	if v := cfg.GetInt("chunker.overlap"); v != 0 {
		out["overlap"] = v
	}
	return out
}

// newEmbeddings selects the embedding provider. Without a provider or a
// key chunks are stored without vectors.
func newEmbeddings(ctx context.Context, cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := strings.ToLower(cfg.GetString("embedding.provider"))
	rateLimit, _ := strconv.ParseFloat(cfg.GetString("embedding.rate_limit"), 64)
	model := cfg.GetString("embedding.model")

	switch provider {
	case "", "openai":
		key := firstNonEmpty(cfg.GetString("embedding.api_key"), getenv("OPENAI_API_KEY"))
		if key == "" {
			if provider != "" {
				return nil, fmt.Errorf("%w: embedding.provider is openai but no API key is set", domain.ErrConfig)
			}
			logger.Debug("No embedding provider configured")
			return nil, nil
		}
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:    key,
			BaseURL:   cfg.GetString("embedding.base_url"),
			Model:     model,
			RateLimit: rateLimit,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "gemini":
		svc, err := gemini.NewEmbeddingService(ctx, gemini.Config{
			APIKey:    firstNonEmpty(cfg.GetString("embedding.api_key"), getenv("GEMINI_API_KEY")),
			Model:     model,
			RateLimit: rateLimit,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfig, provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
