package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/retailpulse/internal/rulesconfig"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective rule set and its hash",
	Long: `Loads the rules file (or the built-in defaults), validates it and
prints it as YAML together with the hash recorded on every run.

Example:
  go run ./cmd/retail rules
  go run ./cmd/retail rules --rules rules.yaml`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rules, err := rulesconfig.LoadOrDefault(cfg.Engine.RulesFile)
	if err != nil {
		return err
	}
	if err := rulesconfig.Validate(rules); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}
	hash, err := rulesconfig.Hash(rules)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(rules)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	source := cfg.Engine.RulesFile
	if source == "" {
		source = "built-in defaults"
	}
	printHeader(w, "Rules", [][2]string{
		{"Source", source},
		{"Hash", hash},
	})
	fmt.Fprint(w, string(out))
	return nil
}
