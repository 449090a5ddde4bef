package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/entitle/errors"
)

var (
	checkStrategy string
	checkTargets  []string
)

func init() {
	checkCmd.Flags().StringVarP(&checkStrategy, "strategy", "s", "", "Strategy whose evidence is checked (overrides config)")
	checkCmd.Flags().StringSliceVarP(&checkTargets, "target", "t", nil, "Target method pattern, replaces configured targets")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <class-or-dir>...",
	Short: "Verify that targeted methods are instrumented",
	Long: `Check reports every targeted method that does not carry the instrumentation
the configured strategy leaves behind. It never rewrites.

Exit codes:
  0 - every targeted method is instrumented
  1 - at least one targeted method is missing its check, or a class failed to parse`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := overrideConfig(currentConfig(), checkStrategy, checkTargets)
	r, err := cfg.Rewriter()
	if err != nil {
		return err
	}
	patterns, err := cfg.Patterns()
	if err != nil {
		return err
	}
	files, err := collectClasses(args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	var missing, failed int
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			failed++
			status(w, failColor, "failed", f.path, err.Error())
			continue
		}
		for _, p := range patterns {
			ok, err := r.Instrumented(data, p)
			switch {
			case errors.IsNotFound(err):
				// the pattern selects nothing in this class
			case err != nil:
				failed++
				status(w, failColor, "failed", f.path, err.Error())
			case ok:
				status(w, okColor, "ok", f.path, p)
			default:
				missing++
				status(w, failColor, "missing", f.path, p)
			}
		}
	}

	if missing > 0 || failed > 0 {
		return fmt.Errorf("%d methods missing a check, %d failures", missing, failed)
	}
	fmt.Fprintln(w, "all targeted methods are instrumented")
	return nil
}
