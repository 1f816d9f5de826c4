package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Config holds retry and timeout settings
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	JobTimeout time.Duration // 0 = no timeout
}

// DefaultConfig returns the standard retry policy
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: 1 * time.Minute,
		JobTimeout: 10 * time.Minute,
	}
}

// Scheduler manages scheduled jobs
// ⭐ SSOT: scheduling happens in this scheduler only
type Scheduler struct {
	cron    *cron.Cron
	config  Config
	logger  *logger.Logger
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*JobHistory
	mu      sync.RWMutex

	// cancelled by Stop so pending retries end early
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler
func New(cfg Config, log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		config:  cfg,
		logger:  log.WithField("component", "scheduler"),
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
		history: make(map[string]*JobHistory),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.entries[name] = id
	s.history[name] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler. Its history is kept.
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(s.entries[name])
	delete(s.jobs, name)
	delete(s.entries, name)
	s.logger.WithField("job", name).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a job immediately, outside of its schedule
func (s *Scheduler) RunJob(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	go s.runJob(job)
	return nil
}

// runJob executes a job with retry logic.
// A schema error is permanent and is not retried.
func (s *Scheduler) runJob(job Job) JobResult {
	name := job.Name()
	start := time.Now()
	log := s.logger.WithField("job", name)

	log.Info("Job started")

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		attempts++
		lastErr = s.attempt(job)
		if lastErr == nil {
			break
		}

		var schemaErr *contracts.SchemaError
		if errors.As(lastErr, &schemaErr) {
			log.WithError(lastErr).Error("Job failed with a permanent error")
			break
		}
		if attempt == s.config.MaxRetries {
			break
		}

		log.WithFields(map[string]interface{}{
			"attempt": attempts,
			"error":   lastErr.Error(),
		}).Warn("Job execution failed, retrying")

		select {
		case <-s.ctx.Done():
		case <-time.After(s.config.RetryDelay):
		}
		if s.ctx.Err() != nil {
			break
		}
	}

	end := time.Now()
	result := JobResult{
		JobName:   name,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
		Attempts:  attempts,
		Success:   lastErr == nil,
	}
	if lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if _, exists := s.history[name]; !exists {
		s.history[name] = &JobHistory{}
	}
	s.history[name].AddResult(result)
	s.mu.Unlock()

	if result.Success {
		log.WithFields(map[string]interface{}{
			"duration": result.Duration,
			"attempts": attempts,
		}).Info("Job completed successfully")
	} else {
		log.WithFields(map[string]interface{}{
			"duration": result.Duration,
			"attempts": attempts,
			"error":    result.Error,
		}).Error("Job failed")
	}

	return result
}

func (s *Scheduler) attempt(job Job) error {
	ctx := s.ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}
	return job.Run(ctx)
}

// GetJobHistory returns a copy of the latest results of a job
func (s *Scheduler) GetJobHistory(name string) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return history.Latest(historyLimit), nil
}

// GetAllJobs returns the registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetJobStats returns statistics for every registered job
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.jobs))
	for name, job := range s.jobs {
		history := s.history[name]
		st := JobStats{
			JobName:      name,
			Schedule:     job.Schedule(),
			TotalRuns:    len(history.Results),
			FailureCount: history.Failures(),
			SuccessRate:  history.SuccessRate(),
		}
		st.SuccessCount = st.TotalRuns - st.FailureCount

		for i := len(history.Results) - 1; i >= 0; i-- {
			r := history.Results[i]
			if st.LastRun == nil {
				st.LastRun = &r.StartTime
			}
			if r.Success && st.LastSuccess == nil {
				st.LastSuccess = &r.StartTime
			}
			if !r.Success && st.LastFailure == nil {
				st.LastFailure = &r.StartTime
			}
		}
		stats[name] = st
	}

	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
