package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env       string
	verbose   bool
	rulesFile string
	dataDir   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "retail",
	Short: "retailpulse - retail analytics engine",
	Long: `retailpulse CLI

Runs the retail analytics pipeline over eight sales tables:
data quality, promotion performance, the SuperCoin ledger, funnels,
RFM segmentation, event synthesis, notifications and inventory risk.

Usage:
  go run ./cmd/retail [command]

Examples:
  go run ./cmd/retail check
  go run ./cmd/retail run --json > result.json
  go run ./cmd/retail serve
  go run ./cmd/retail rules --rules rules.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production), overrides ENV")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "rules YAML file, overrides RULES_FILE")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "JSON table directory, overrides DATA_DIR")
}
