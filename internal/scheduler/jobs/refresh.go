package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/internal/pipeline"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, cfg pipeline.RunConfig) (*contracts.RunResult, error)
}

// Publisher receives every successful run
type Publisher interface {
	Publish(r *contracts.RunResult)
}

// Invalidator drops cached input tables
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// RefreshJob reruns the pipeline and publishes the result.
// Refreshes are serialized: a scheduled run and an API call never overlap.
type RefreshJob struct {
	runner      Runner
	publisher   Publisher
	invalidator Invalidator
	runConfig   func() pipeline.RunConfig
	schedule    string
	logger      *logger.Logger

	mu sync.Mutex
}

// NewRefreshJob creates a refresh job. runConfig is evaluated per run so the
// reference date can follow the clock.
func NewRefreshJob(runner Runner, publisher Publisher, runConfig func() pipeline.RunConfig, schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		runner:    runner,
		publisher: publisher,
		runConfig: runConfig,
		schedule:  schedule,
		logger:    log.WithField("job", "analytics_refresh"),
	}
}

// WithInvalidator sets the cache dropped before reloading runs
func (j *RefreshJob) WithInvalidator(inv Invalidator) *RefreshJob {
	j.invalidator = inv
	return j
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "analytics_refresh"
}

// Schedule returns the cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes a scheduled refresh. Scheduled runs always reread the tables.
func (j *RefreshJob) Run(ctx context.Context) error {
	_, err := j.Refresh(ctx, true)
	return err
}

// Refresh runs the pipeline and publishes the result
func (j *RefreshJob) Refresh(ctx context.Context, reload bool) (*contracts.RunResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if reload && j.invalidator != nil {
		if err := j.invalidator.Invalidate(ctx); err != nil {
			j.logger.WithError(err).Warn("Failed to invalidate dataset cache")
		}
	}

	result, err := j.runner.Run(ctx, j.runConfig())
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	j.publisher.Publish(result)

	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"reload":   reload,
		"events":   len(result.Events),
		"segments": len(result.Segments),
	}).Info("Analytics refreshed")

	return result, nil
}
