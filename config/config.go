// Package config loads the rewriter configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/entitle"
	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/linkage"
	"github.com/wippyai/entitle/rewrite"
)

// AnyClass is the targets key whose methods are matched in every class.
const AnyClass = "*"

// Checker names the static check method and the exception thrown on denial.
type Checker struct {
	Owner      string `yaml:"owner"`
	Method     string `yaml:"method"`
	Descriptor string `yaml:"descriptor"`
	Denial     string `yaml:"denial"`
	Interface  bool   `yaml:"interface"`
}

// Runtime names the classes used by the inheritance and wrap strategies.
type Runtime struct {
	Checker string `yaml:"checker"`
	Handle  string `yaml:"handle"`
	Util    string `yaml:"util"`
	Factory string `yaml:"factory"`
}

// Policy is the entitlement policy applied when call sites are invoked.
type Policy struct {
	// Allowed maps caller classes to the methods they may run.
	Allowed  map[string][]string `yaml:"allowed"`
	Disabled bool                `yaml:"disabled"`
}

// Log configures logging. An empty File logs to stderr only.
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Watch configures the directory watcher.
type Watch struct {
	Debounce time.Duration `yaml:"debounce"`
	Workers  int           `yaml:"workers"`
}

// Config holds all configurable rewriter parameters.
type Config struct {
	// Targets maps class names to method patterns ("name" or "name(descriptor)").
	Targets      map[string][]string `yaml:"targets"`
	Capabilities map[string][]string `yaml:"capabilities"`
	Policy       Policy              `yaml:"policy"`
	Strategy     string              `yaml:"strategy"`
	Marker       string              `yaml:"marker"`
	NativeBridge string              `yaml:"native_bridge"`
	Checker      Checker             `yaml:"checker"`
	Runtime      Runtime             `yaml:"runtime"`
	Log          Log                 `yaml:"log"`
	Watch        Watch               `yaml:"watch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	sym := rewrite.DefaultCheckSymbols()
	rt := rewrite.DefaultRuntime()
	return &Config{
		Strategy: "two-pass",
		Marker:   rewrite.DefaultMarker,
		Checker: Checker{
			Owner:      sym.Owner,
			Method:     sym.Name,
			Descriptor: sym.Desc,
			Denial:     sym.Denial,
			Interface:  sym.Interface,
		},
		Runtime: Runtime{
			Checker: rt.Checker,
			Handle:  rt.Handle,
			Util:    rt.Util,
			Factory: rt.Factory,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Watch: Watch{
			Debounce: 200 * time.Millisecond,
			Workers:  4,
		},
	}
}

// Load loads configuration from a YAML file.
// Empty path falls back to ~/.entitle/config.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Default(), nil
		}
		path = filepath.Join(home, ".entitle", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	strategy, err := rewrite.ParseStrategy(c.Strategy)
	if err != nil {
		return err
	}
	if strategy == rewrite.StrategyInheritance {
		if len(c.Capabilities) == 0 && len(c.Targets) == 0 {
			return errors.InvalidInput(errors.PhaseConfig, "inheritance strategy needs capabilities")
		}
	} else if len(c.Targets) == 0 {
		return errors.InvalidInput(errors.PhaseConfig, "no targets configured")
	}
	if _, err := c.Patterns(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}
	if c.Watch.Workers < 1 {
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("watch workers must be positive, got %d", c.Watch.Workers))
	}
	return nil
}

// Patterns flattens Targets into method patterns for rewrite.NewMethodNameMatcher, in
// sorted class order.
func (c *Config) Patterns() ([]string, error) {
	classes := make([]string, 0, len(c.Targets))
	for class := range c.Targets {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	var patterns []string
	for _, class := range classes {
		methods := c.Targets[class]
		if len(methods) == 0 {
			return nil, errors.InvalidInput(errors.PhaseConfig, "no methods listed for "+class)
		}
		for _, m := range methods {
			p := m
			if class != AnyClass {
				p = class + "." + m
			}
			if _, err := entitle.ParseMethodKey(p); err != nil {
				return nil, err
			}
			patterns = append(patterns, p)
		}
	}
	return patterns, nil
}

// CheckSymbols returns the configured check symbols.
func (c *Config) CheckSymbols() rewrite.CheckSymbols {
	return rewrite.CheckSymbols{
		Owner:     c.Checker.Owner,
		Name:      c.Checker.Method,
		Desc:      c.Checker.Descriptor,
		Denial:    c.Checker.Denial,
		Interface: c.Checker.Interface,
	}
}

// RuntimeClasses returns the configured runtime classes.
func (c *Config) RuntimeClasses() rewrite.Runtime {
	return rewrite.Runtime{
		Checker: c.Runtime.Checker,
		Handle:  c.Runtime.Handle,
		Util:    c.Runtime.Util,
		Factory: c.Runtime.Factory,
	}
}

// CapabilityTable returns the capabilities as a linkage table.
func (c *Config) CapabilityTable() linkage.CapabilityTable {
	table := make(linkage.CapabilityTable, len(c.Capabilities))
	table.Merge(c.Capabilities)
	return table
}

// PolicyChecker returns the check collaborator for the configured policy.
func (c *Config) PolicyChecker() *linkage.PolicyChecker {
	return &linkage.PolicyChecker{Allowed: c.Policy.Allowed, Disabled: c.Policy.Disabled}
}

// Rewriter builds a rewriter from the configuration.
func (c *Config) Rewriter() (*rewrite.Rewriter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	strategy, _ := rewrite.ParseStrategy(c.Strategy)
	patterns, _ := c.Patterns()
	return rewrite.New(rewrite.Config{
		Targets:      patterns,
		Capabilities: c.CapabilityTable(),
		Check:        c.CheckSymbols(),
		Runtime:      c.RuntimeClasses(),
		Marker:       c.Marker,
		NativeBridge: c.NativeBridge,
		Strategy:     strategy,
	})
}
