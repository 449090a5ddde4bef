package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/entitle/internal/watch"
	"github.com/wippyai/entitle/rewrite"
)

var (
	watchStrategy string
	watchTargets  []string
	watchScan     bool
)

func init() {
	watchCmd.Flags().StringVarP(&watchStrategy, "strategy", "s", "", "Rewrite strategy (overrides config)")
	watchCmd.Flags().StringSliceVarP(&watchTargets, "target", "t", nil, "Target method pattern, replaces configured targets")
	watchCmd.Flags().BoolVar(&watchScan, "scan", true, "Rewrite classes already present before watching")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Rewrite class files in place as they are written",
	Long: `Watch rewrites every .class file created or modified below a directory. Each
rewritten class is written back in place, which the watcher sees again; the strategy
must therefore recognise its own output, and the blind strategy is refused.

Stops on SIGINT or SIGTERM.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := overrideConfig(currentConfig(), watchStrategy, watchTargets)
	r, err := cfg.Rewriter()
	if err != nil {
		return err
	}
	if r.Strategy() == rewrite.StrategyBlindInsert {
		return fmt.Errorf("watch cannot use the %s strategy: it would rewrite its own output", r.Strategy())
	}

	root := args[0]
	if info, err := os.Stat(root); err != nil {
		return err
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	handler := classHandler(r)
	if watchScan {
		if err := watch.ScanExisting(root, func(path string) error {
			if err := handler(path); err != nil {
				logger.Warn("rewrite failed", zap.String("path", path), zap.Error(err))
			}
			return nil
		}); err != nil {
			return err
		}
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching", zap.String("root", root), zap.Stringer("strategy", r.Strategy()))
	w := watch.New(root, handler, watch.Options{
		Logger:   logger,
		Debounce: cfg.Watch.Debounce,
		Workers:  cfg.Watch.Workers,
	})
	return w.Run(ctx)
}

// classHandler rewrites one class file in place and logs the result.
func classHandler(r *rewrite.Rewriter) watch.Handler {
	return func(path string) error {
		out, err := rewriteFile(r, path, path, false)
		if err != nil {
			return err
		}
		if out.Rewritten {
			logger.Info("class rewritten", zap.String("path", path), zap.String("methods", methodList(out)))
		}
		return nil
	}
}
