package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/internal/pipeline"
	"github.com/wonny/retailpulse/internal/rulesconfig"
	"github.com/wonny/retailpulse/internal/s1_loyalty"
	"github.com/wonny/retailpulse/internal/source"
	"github.com/wonny/retailpulse/pkg/config"
	"github.com/wonny/retailpulse/pkg/database"
	"github.com/wonny/retailpulse/pkg/httputil"
	"github.com/wonny/retailpulse/pkg/logger"
	"github.com/wonny/retailpulse/pkg/redis"
)

// app bundles everything a command needs
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	rules        *rulesconfig.Rules
	loader       *source.CachedLoader
	orchestrator *pipeline.Orchestrator
	db           *database.DB // nil unless the source is postgres
	redis        *redis.Client
	closers      []func()
}

// loadConfig reads the environment and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		if env != "development" && env != "staging" && env != "production" {
			return nil, fmt.Errorf("--env must be one of: development, staging, production")
		}
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if rulesFile != "" {
		cfg.Engine.RulesFile = rulesFile
	}
	if dataDir != "" {
		cfg.Source.DataDir = dataDir
	}
	return cfg, nil
}

// newApp wires config, logger, the dataset source and the orchestrator
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	a.rules, err = rulesconfig.LoadOrDefault(cfg.Engine.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	inner, err := a.newSource(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, dataset cache disabled")
		rc = redis.Disabled()
	}
	a.redis = rc
	a.closers = append(a.closers, func() { _ = rc.Close() })

	cache := redis.NewCache(rc, "retailpulse")
	a.loader = source.NewCachedLoader(inner, cache, cfg.Redis.TTL, log)

	a.orchestrator, err = pipeline.NewOrchestrator(a.loader, a.rules, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"source":   a.loader.Name(),
		"rules_id": a.rules.Meta.RulesID,
		"cache":    rc.Enabled(),
	}).Debug("Application wired")

	return a, nil
}

func (a *app) newSource(ctx context.Context) (contracts.DatasetLoader, error) {
	switch a.cfg.Source.Kind {
	case config.SourcePostgres:
		db, err := database.New(ctx, a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		return source.NewPostgresLoader(db, db.Schema(), a.log), nil
	case config.SourceHTTP:
		client := httputil.New(a.cfg.Source, a.log).WithRateLimit(10, 4)
		return source.NewHTTPLoader(a.cfg.Source.URL, client, a.log), nil
	default:
		return source.NewJSONLoader(a.cfg.Source.DataDir, a.log), nil
	}
}

// runConfig builds the run parameters from config, resolving the reference date now
func (a *app) runConfig() (pipeline.RunConfig, error) {
	ref, err := a.cfg.ReferenceDate(time.Now())
	if err != nil {
		return pipeline.RunConfig{}, err
	}
	order, err := s1_loyalty.ParseOrder(a.cfg.Engine.LedgerOrder)
	if err != nil {
		return pipeline.RunConfig{}, err
	}
	metric, ok := contracts.ParseMetric(a.cfg.Engine.PromoMetric)
	if !ok {
		return pipeline.RunConfig{}, fmt.Errorf("unknown promotion metric %q", a.cfg.Engine.PromoMetric)
	}

	rc := pipeline.DefaultRunConfig(ref)
	rc.Metric = metric
	rc.LedgerOrder = order
	rc.InventoryWindowDays = a.cfg.Engine.InventoryWindowDays
	rc.InventoryTopN = a.cfg.Engine.InventoryTopN
	return rc, nil
}

// Close releases connections in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
