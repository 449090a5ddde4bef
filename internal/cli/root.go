package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/entitle/config"
	"github.com/wippyai/entitle/linkage"
	"github.com/wippyai/entitle/rewrite"
)

var (
	cfgPath  string
	logLevel string
	noColor  bool

	loaded *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "entitle",
	Short: "Insert entitlement checks into JVM class files",
	Long: "Rewrites the bytecode of selected methods so each one starts with a call to an " +
		"entitlement checker, and resolves the checks linked through call sites.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default ~/.entitle/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	l, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	if noColor {
		disableColor()
	}

	loaded = cfg
	logger = l
	rewrite.SetLogger(l)
	linkage.SetLogger(l)
	return nil
}

// currentConfig returns the loaded configuration, or the defaults when no command
// setup ran.
func currentConfig() *config.Config {
	if loaded == nil {
		return config.Default()
	}
	return loaded
}
