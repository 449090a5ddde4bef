package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/entitle/config"
	"github.com/wippyai/entitle/rewrite"
)

var (
	rewriteOut      string
	rewriteStrategy string
	rewriteTargets  []string
	rewriteDryRun   bool
)

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteOut, "out", "o", "", "Write classes under this directory instead of in place")
	rewriteCmd.Flags().StringVarP(&rewriteStrategy, "strategy", "s", "", "Rewrite strategy (overrides config)")
	rewriteCmd.Flags().StringSliceVarP(&rewriteTargets, "target", "t", nil, "Target method pattern, replaces configured targets")
	rewriteCmd.Flags().BoolVar(&rewriteDryRun, "dry-run", false, "Report changes without writing")
	rootCmd.AddCommand(rewriteCmd)
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <class-or-dir>...",
	Short: "Insert entitlement checks into the targeted methods",
	Long: `Rewrite class files so every targeted method starts with a check prologue.

Directories are walked for .class files. Without --out, rewritten classes replace
their input; with --out, every class is written below that directory at its
relative path, rewritten or not.

Examples:
  entitle rewrite build/classes
  entitle rewrite -t java/io/File.delete -s single-pass -o out File.class`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRewrite,
}

// overrideConfig applies the strategy and target flags to a copy of cfg.
func overrideConfig(cfg *config.Config, strategy string, targets []string) *config.Config {
	c := *cfg
	if strategy != "" {
		c.Strategy = strategy
	}
	if len(targets) > 0 {
		c.Targets = map[string][]string{config.AnyClass: targets}
	}
	return &c
}

func runRewrite(cmd *cobra.Command, args []string) error {
	r, err := overrideConfig(currentConfig(), rewriteStrategy, rewriteTargets).Rewriter()
	if err != nil {
		return err
	}
	files, err := collectClasses(args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	var rewritten, unchanged, failed int
	for _, f := range files {
		dst := f.path
		if rewriteOut != "" {
			dst = filepath.Join(rewriteOut, f.rel)
		}
		out, err := rewriteFile(r, f.path, dst, rewriteDryRun)
		switch {
		case err != nil:
			failed++
			status(w, failColor, "failed", f.path, err.Error())
		case out.Rewritten:
			rewritten++
			status(w, okColor, "rewritten", f.path, methodList(out))
		default:
			unchanged++
			status(w, skipColor, "unchanged", f.path, "")
		}
	}

	fmt.Fprintf(w, "\n%d rewritten, %d unchanged, %d failed\n", rewritten, unchanged, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d class files failed", failed, len(files))
	}
	return nil
}

// rewriteFile rewrites src into dst. A class whose bytes did not change is reported
// as unchanged and only written when dst differs from src.
func rewriteFile(r *rewrite.Rewriter, src, dst string, dryRun bool) (rewrite.Outcome, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return rewrite.Outcome{}, err
	}
	out, err := r.Rewrite(data)
	if err != nil {
		return rewrite.Outcome{}, err
	}
	if out.Rewritten && bytes.Equal(out.Bytes, data) {
		out.Rewritten = false
	}
	if dryRun || (!out.Rewritten && dst == src) {
		return out, nil
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(src); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return rewrite.Outcome{}, err
	}
	// Write beside the destination and rename so a watcher never sees a partial class.
	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp")
	if err := os.WriteFile(tmp, out.Bytes, mode); err != nil {
		return rewrite.Outcome{}, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return rewrite.Outcome{}, err
	}
	logger.Debug("class written", zap.String("path", dst), zap.Bool("rewritten", out.Rewritten))
	return out, nil
}

func methodList(out rewrite.Outcome) string {
	names := make([]string, len(out.Methods))
	for i, m := range out.Methods {
		names[i] = m.Name + m.Descriptor
	}
	return strings.Join(names, ", ")
}
