package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/internal/inventory"
	"github.com/wonny/retailpulse/internal/rulesconfig"
	"github.com/wonny/retailpulse/internal/s0_quality"
	"github.com/wonny/retailpulse/internal/s1_loyalty"
	"github.com/wonny/retailpulse/internal/s1_promotion"
	"github.com/wonny/retailpulse/internal/s2_segmentation"
	"github.com/wonny/retailpulse/internal/s3_events"
	"github.com/wonny/retailpulse/internal/s3_notify"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Orchestrator coordinates the analytics stages
// ⭐ SSOT: stage wiring and ordering live here only
//
//	S0 → {S1 promotion, S1 loyalty, SX inventory} → {S2 funnel, S2 segmentation} → {S3 events, S3 notifications}
type Orchestrator struct {
	loader    contracts.DatasetLoader
	rules     *rulesconfig.Rules
	rulesHash string
	logger    *logger.Logger
}

// RunConfig holds the parameters of one run
type RunConfig struct {
	RunID               string // generated when empty
	ReferenceDate       time.Time
	Metric              contracts.Metric
	LedgerOrder         s1_loyalty.Order
	InventoryWindowDays int
	InventoryTopN       int
	TopProductsN        int
}

// DefaultRunConfig returns the reference parameters for ref
func DefaultRunConfig(ref time.Time) RunConfig {
	return RunConfig{
		ReferenceDate:       ref,
		Metric:              contracts.MetricUnits,
		LedgerOrder:         s1_loyalty.OrderChronological,
		InventoryWindowDays: 7,
		InventoryTopN:       5,
		TopProductsN:        5,
	}
}

// NewOrchestrator creates a new orchestrator reading from loader
func NewOrchestrator(loader contracts.DatasetLoader, rules *rulesconfig.Rules, log *logger.Logger) (*Orchestrator, error) {
	if rules == nil {
		rules = rulesconfig.Default()
	}
	if err := rulesconfig.Validate(rules); err != nil {
		return nil, err
	}
	hash, err := rulesconfig.Hash(rules)
	if err != nil {
		return nil, fmt.Errorf("hash rules: %w", err)
	}

	return &Orchestrator{
		loader:    loader,
		rules:     rules,
		rulesHash: hash,
		logger:    log,
	}, nil
}

// Run loads the dataset and executes every stage.
// A schema error aborts the run with no output.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*contracts.RunResult, error) {
	ds, err := o.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", o.loader.Name(), err)
	}
	return o.Execute(ctx, ds, cfg)
}

// Check loads the dataset and runs the quality stage only
func (o *Orchestrator) Check(ctx context.Context) (*contracts.QualityReport, error) {
	ds, err := o.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", o.loader.Name(), err)
	}
	return o.qualityFilter().Run(ds.Headers, ds.Lines, ds.Products, ds.Stores), nil
}

// Execute runs every stage over ds. ds is only read.
func (o *Orchestrator) Execute(ctx context.Context, ds *contracts.Dataset, cfg RunConfig) (*contracts.RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	cfg = o.withDefaults(cfg)

	result := &contracts.RunResult{
		RunID:         cfg.RunID,
		ReferenceDate: contracts.DateOnly(cfg.ReferenceDate),
		RulesHash:     o.rulesHash,
		Metric:        cfg.Metric,
		LedgerOrder:   string(cfg.LedgerOrder),
		StartedAt:     start,
		Stages:        make([]contracts.StageResult, 0, len(contracts.AllStages())),
	}

	log := o.logger.WithRun(cfg.RunID)
	log.WithFields(map[string]interface{}{
		"reference_date": result.ReferenceDate.Format("2006-01-02"),
		"metric":         string(cfg.Metric),
		"ledger_order":   string(cfg.LedgerOrder),
		"rules_id":       o.rules.Meta.RulesID,
	}).Info("Starting pipeline run")

	// S0
	var s0 contracts.StageResult
	timed(&s0, contracts.StageQuality, len(ds.Headers)+len(ds.Lines), func() int {
		result.Quality = o.qualityFilter().Run(ds.Headers, ds.Lines, ds.Products, ds.Stores)
		return len(result.Quality.CleanHeaders) + len(result.Quality.CleanLines)
	})
	result.Stages = append(result.Stages, s0)

	headers := result.Quality.CleanHeaders
	lines := result.Quality.CleanLines
	result.OpeningBalances = contracts.BalancesFromCustomers(ds.Customers)

	// S1 + SX
	var promo, loyalty, inv contracts.StageResult
	err := fanOut(ctx,
		func() {
			timed(&promo, contracts.StagePromotion, len(lines), func() int {
				a := s1_promotion.NewAnalyzer(cfg.Metric, o.logger)
				result.PromotionDaily = a.Daily(headers, lines, ds.Promotions)
				result.PromotionLift = a.Lift(lines, ds.Products)
				result.TopProducts = a.TopProducts(lines, ds.Products, cfg.TopProductsN)
				return len(result.PromotionDaily)
			})
		},
		func() {
			timed(&loyalty, contracts.StageLoyalty, len(headers), func() int {
				ledger := s1_loyalty.NewLedger(s1_loyalty.Config{
					EarnRate:   o.rules.Loyalty.EarnRate,
					EarnCap:    o.rules.Loyalty.EarnCap,
					RedeemRate: o.rules.Loyalty.RedeemRate,
					Order:      cfg.LedgerOrder,
				}, o.logger)
				result.Loyalty, result.ClosingBalances = ledger.Run(headers, result.OpeningBalances)
				result.RuleAccruals = s1_loyalty.AccrueByRules(headers, ds.Rules)
				return len(result.Loyalty)
			})
		},
		func() {
			timed(&inv, contracts.StageInventory, len(ds.Lines), func() int {
				a := inventory.NewAnalyzer(inventory.Config{
					WindowDays:      cfg.InventoryWindowDays,
					TopN:            cfg.InventoryTopN,
					CriticalDays:    o.rules.Inventory.CriticalDays,
					WatchlistDays:   o.rules.Inventory.WatchlistDays,
					OverstockedDays: o.rules.Inventory.OverstockedDays,
					LostSalesDays:   o.rules.Inventory.LostSalesDays,
				}, o.logger)
				result.Inventory = a.Analyze(ds.Headers, ds.Lines, ds.Inventory, ds.Stores)
				result.RegionRisk = inventory.SummarizeByRegion(result.Inventory)
				return len(result.Inventory)
			})
		},
	)
	if err != nil {
		return nil, err
	}
	result.Stages = append(result.Stages, promo, loyalty)

	// S2
	var funnel, seg contracts.StageResult
	err = fanOut(ctx,
		func() {
			timed(&funnel, contracts.StageFunnel, len(ds.Promotions), func() int {
				result.Funnel = s1_promotion.NewFunnelBuilder(o.logger).Build(headers, lines, ds.Promotions)
				return len(result.Funnel)
			})
		},
		func() {
			timed(&seg, contracts.StageSegmentation, len(ds.Customers), func() int {
				engine := s2_segmentation.NewEngine(s2_segmentation.Config{
					AtRiskDays: o.rules.Segmentation.AtRiskDays,
				}, o.logger)
				result.Segments = engine.Run(ds.Customers, headers, result.ClosingBalances, cfg.ReferenceDate)
				return len(result.Segments)
			})
		},
	)
	if err != nil {
		return nil, err
	}
	result.Stages = append(result.Stages, funnel, seg)

	// S3
	var events, notes contracts.StageResult
	err = fanOut(ctx,
		func() {
			timed(&events, contracts.StageEvents, len(headers)+len(result.Loyalty), func() int {
				result.Events = s3_events.NewSynthesizer(o.logger).
					Synthesize(headers, lines, result.Loyalty, result.Segments).
					Events()
				return len(result.Events)
			})
		},
		func() {
			timed(&notes, contracts.StageNotifications, len(result.Loyalty), func() int {
				sel := s3_notify.NewSelector(s3_notify.Config{
					RewardMilestone: o.rules.Loyalty.RewardMilestone,
				}, o.logger)
				result.Notifications = sel.Select(result.Loyalty, result.Segments, ds.Customers)
				return len(result.Notifications)
			})
		},
	)
	if err != nil {
		return nil, err
	}
	result.Stages = append(result.Stages, events, notes, inv)

	result.Duration = time.Since(start)

	log.WithFields(map[string]interface{}{
		"duration_ms":   result.Duration.Milliseconds(),
		"clean_rate":    result.Quality.CleanRate(),
		"events":        len(result.Events),
		"notifications": len(result.Notifications),
	}).Info("Pipeline run completed")

	return result, nil
}

func (o *Orchestrator) qualityFilter() *s0_quality.Filter {
	return s0_quality.NewFilter(s0_quality.Config{
		TotalTolerance: o.rules.Quality.TotalTolerance,
	}, o.logger)
}

func (o *Orchestrator) withDefaults(cfg RunConfig) RunConfig {
	def := DefaultRunConfig(time.Now())
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}
	if cfg.ReferenceDate.IsZero() {
		cfg.ReferenceDate = def.ReferenceDate
	}
	if cfg.Metric == "" {
		cfg.Metric = def.Metric
	}
	if cfg.LedgerOrder == "" {
		cfg.LedgerOrder = def.LedgerOrder
	}
	if cfg.InventoryWindowDays <= 0 {
		cfg.InventoryWindowDays = def.InventoryWindowDays
	}
	if cfg.InventoryTopN <= 0 {
		cfg.InventoryTopN = def.InventoryTopN
	}
	if cfg.TopProductsN <= 0 {
		cfg.TopProductsN = def.TopProductsN
	}
	return cfg
}

// fanOut runs independent stages of one tier concurrently.
// Stages write disjoint result fields and only read shared inputs.
func fanOut(ctx context.Context, stages ...func()) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, stage := range stages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stage()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// timed runs fn and records its counts and duration into sr
func timed(sr *contracts.StageResult, stage contracts.Stage, input int, fn func() int) {
	start := time.Now()
	out := fn()
	*sr = contracts.StageResult{
		Stage:       stage,
		InputCount:  input,
		OutputCount: out,
		Duration:    time.Since(start),
	}
}
