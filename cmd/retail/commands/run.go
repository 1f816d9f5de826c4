package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/internal/s1_loyalty"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analytics pipeline once",
	Long: `Loads the eight input tables and runs every stage once.

A schema error (a required column missing) aborts the run with no output.

Example:
  go run ./cmd/retail run
  go run ./cmd/retail run --json --metric revenue > result.json
  go run ./cmd/retail run --reference-date 2026-06-01 --ledger-order table`,
	RunE: runPipeline,
}

var (
	runJSON      bool
	runMetric    string
	runOrder     string
	runReference string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runJSON, "json", false, "write the full result as JSON to stdout")
	runCmd.Flags().StringVar(&runMetric, "metric", "", "promotion metric (units|revenue), overrides PROMO_METRIC")
	runCmd.Flags().StringVar(&runOrder, "ledger-order", "", "ledger order (chronological|table), overrides LEDGER_ORDER")
	runCmd.Flags().StringVar(&runReference, "reference-date", "", "reference date YYYY-MM-DD, overrides REFERENCE_DATE")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if runReference != "" {
		a.cfg.Engine.ReferenceDate = runReference
	}
	rc, err := a.runConfig()
	if err != nil {
		return err
	}
	if runMetric != "" {
		m, ok := contracts.ParseMetric(runMetric)
		if !ok {
			return fmt.Errorf("unknown metric %q (want units|revenue)", runMetric)
		}
		rc.Metric = m
	}
	if runOrder != "" {
		if rc.LedgerOrder, err = s1_loyalty.ParseOrder(runOrder); err != nil {
			return err
		}
	}

	result, err := a.orchestrator.Run(ctx, rc)
	if err != nil {
		a.log.WithError(err).Error("Pipeline run failed")
		return err
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printRunReport(cmd.OutOrStdout(), result)
	return nil
}
