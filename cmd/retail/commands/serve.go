package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/retailpulse/internal/api"
	"github.com/wonny/retailpulse/internal/api/handlers"
	"github.com/wonny/retailpulse/internal/pipeline"
	"github.com/wonny/retailpulse/internal/scheduler"
	"github.com/wonny/retailpulse/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server with scheduled refreshes",
	Long: `Runs the pipeline once, serves the latest result over HTTP and
reruns it on REFRESH_SCHEDULE.

Endpoints:
  GET  /health
  GET  /api/v1/run                 - run summary
  GET  /api/v1/stages              - per-stage counts
  GET  /api/v1/quality             - quality report (?view=summary)
  GET  /api/v1/promotions/daily    - ?promotion_id=&period=
  GET  /api/v1/promotions/lift     - ?category=
  GET  /api/v1/products/top        - ?limit=
  GET  /api/v1/funnel
  GET  /api/v1/loyalty             - ?customer_id=
  GET  /api/v1/segments            - ?segment=
  GET  /api/v1/customers/{id}
  GET  /api/v1/events              - ?type=&customer_id=
  GET  /api/v1/notifications       - ?template=
  GET  /api/v1/inventory           - ?risk=&store_id=
  GET  /api/v1/inventory/regions
  POST /api/v1/refresh             - ?reload=true

Example:
  go run ./cmd/retail serve
  go run ./cmd/retail serve --port 8080`,
	RunE: runServe,
}

var (
	servePort        string
	serveNoScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API port, overrides PORT")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "disable scheduled refreshes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}
	if _, err := a.runConfig(); err != nil {
		return err
	}

	log := a.log
	store := handlers.NewResultStore()

	// runConfig errors were ruled out above; the date is resolved per run
	runConfig := func() pipeline.RunConfig {
		rc, _ := a.runConfig()
		return rc
	}
	refresh := jobs.NewRefreshJob(a.orchestrator, store, runConfig, a.cfg.Engine.RefreshSchedule, log).
		WithInvalidator(a.loader)

	// Initial run; the API answers 503 until one succeeds
	if _, err := refresh.Refresh(ctx, false); err != nil {
		log.WithError(err).Warn("Initial run failed, serving without data")
	}

	var sched *scheduler.Scheduler
	if !serveNoScheduler {
		sched = scheduler.New(scheduler.DefaultConfig(), log)
		if err := sched.AddJob(refresh); err != nil {
			return fmt.Errorf("schedule refresh: %w", err)
		}
		sched.Start()
	}

	probes := map[string]api.Probe{
		"redis": a.redis.Ping,
	}
	if a.db != nil {
		probes["database"] = func(ctx context.Context) error {
			_, err := a.db.HealthCheck(ctx)
			return err
		}
	}

	router := api.NewRouter(
		handlers.NewResultsHandler(store, log),
		handlers.NewRefreshHandler(refresh, a.cfg.Engine.RefreshPerMinute, log),
		probes,
		log,
	)
	server := api.New(a.cfg.Port, log, router)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	err = server.Serve(sigCtx)
	if sched != nil {
		sched.Stop()
	}
	if err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
