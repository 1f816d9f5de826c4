package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate input tables and run the quality stage only",
	Long: `Loads the input tables, verifies required columns and prints the
clean/rejected split with diagnostics.

Example:
  go run ./cmd/retail check
  go run ./cmd/retail check --strict`,
	RunE: runCheck,
}

var checkStrict bool

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "fail when any record is rejected")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.orchestrator.Check(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printHeader(w, "Data quality check", [][2]string{
		{"Source", a.loader.Name()},
	})
	printQualityReport(w, report)
	fmt.Fprintln(w)

	rejected := len(report.RejectedHeaders) + len(report.RejectedLines)
	if rejected == 0 {
		printSuccess(w, "All records passed")
		return nil
	}

	msg := fmt.Sprintf("%d records rejected", rejected)
	printWarning(w, msg)
	if checkStrict {
		return errors.New(msg)
	}
	return nil
}
