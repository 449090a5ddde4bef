package rewrite

import (
	"go.uber.org/zap"

	"github.com/wippyai/entitle"
	"github.com/wippyai/entitle/rewrite/internal/engine"
	"github.com/wippyai/entitle/rewrite/internal/prologue"
)

// Strategy selects how the prologue is inserted and how double insertion is avoided.
type Strategy = engine.Strategy

const (
	StrategyBlindInsert = engine.StrategyBlindInsert
	StrategyTwoPass     = engine.StrategyTwoPass
	StrategySinglePass  = engine.StrategySinglePass
	StrategyInheritance = engine.StrategyInheritance
	StrategyAnnotate    = engine.StrategyAnnotate
	StrategyWrap        = engine.StrategyWrap
)

// ParseStrategy returns the strategy with the given name: "blind", "two-pass",
// "single-pass", "inheritance", "annotate" or "wrap".
func ParseStrategy(name string) (Strategy, error) {
	return engine.ParseStrategy(name)
}

// CheckSymbols names the static check method and the exception thrown on denial.
type CheckSymbols = prologue.CheckSymbols

// Runtime names the classes the inheritance and wrap strategies call into.
type Runtime = prologue.Runtime

// DefaultCheckSymbols returns the check symbols used when none are configured.
func DefaultCheckSymbols() CheckSymbols { return prologue.DefaultCheckSymbols() }

// DefaultRuntime returns the runtime classes used when none are configured.
func DefaultRuntime() Runtime { return prologue.DefaultRuntime() }

// DefaultMarker is the descriptor of the annotation the annotate strategy attaches.
const DefaultMarker = engine.DefaultMarker

// Outcome is the result of rewriting one class. When Rewritten is false, Bytes is the
// input buffer itself.
type Outcome = engine.Outcome

// Config configures a rewrite.
type Config struct {
	Matcher MethodMatcher
	// Capabilities maps method names to the supertypes whose subclasses are checked
	// by the inheritance strategy.
	Capabilities map[string][]string
	Runtime      Runtime
	Check        CheckSymbols
	Marker       string
	NativeBridge string
	// Targets are method patterns in the forms accepted by NewMethodNameMatcher. They
	// are combined with Matcher.
	Targets  []string
	Strategy Strategy
}

// Rewriter applies one configuration to any number of classes. It is safe for
// concurrent use.
type Rewriter struct {
	eng *engine.Engine
}

// New builds a Rewriter. It fails if a target pattern is malformed.
func New(cfg Config) (*Rewriter, error) {
	matcher := cfg.Matcher
	if len(cfg.Targets) > 0 {
		names, err := NewMethodNameMatcher(cfg.Targets)
		if err != nil {
			return nil, err
		}
		matcher = NewCompositeMethodMatcher(names, cfg.Matcher)
	}
	return &Rewriter{eng: engine.New(engine.Config{
		Targets:      matcher,
		Capabilities: cfg.Capabilities,
		Check:        cfg.Check,
		Runtime:      cfg.Runtime,
		Marker:       cfg.Marker,
		NativeBridge: cfg.NativeBridge,
		Strategy:     cfg.Strategy,
	})}, nil
}

// Strategy returns the configured strategy.
func (r *Rewriter) Strategy() Strategy { return r.eng.Strategy() }

// Rewrite instruments the targeted methods of one class.
func (r *Rewriter) Rewrite(classBytes []byte) (Outcome, error) {
	return r.eng.Rewrite(classBytes)
}

// Instrumented reports whether every method selected by the pattern carries the
// evidence of instrumentation the configured strategy leaves behind. It fails with
// a not_found error when no method matches.
func (r *Rewriter) Instrumented(classBytes []byte, method string) (bool, error) {
	key, err := entitle.ParseMethodKey(method)
	if err != nil {
		return false, err
	}
	return r.eng.Instrumented(classBytes, key)
}

// Transform applies the configured strategy to a class file.
//
// The transformation:
//   - Parses the class and selects the targeted methods
//   - Detects an existing prologue where the strategy calls for it
//   - Emits every targeted method with exactly one prologue
//   - Copies every other method unchanged
//
// Native and abstract targets fail with an unsupported shape error unless
// NativeBridge is set, in which case natives are replaced by checking stubs.
func Transform(classBytes []byte, cfg Config) (Outcome, error) {
	r, err := New(cfg)
	if err != nil {
		return Outcome{}, err
	}
	return r.Rewrite(classBytes)
}

// Rewrite instruments the named methods with the given strategy and the default check
// symbols.
func Rewrite(classBytes []byte, targetMethodNames []string, strategy Strategy) (Outcome, error) {
	return Transform(classBytes, Config{Targets: targetMethodNames, Strategy: strategy})
}

// IsInstrumented reports whether the named method already starts with the default check
// prologue. It only runs the matcher and never rewrites.
func IsInstrumented(classBytes []byte, method string) (bool, error) {
	r, err := New(Config{Strategy: StrategyTwoPass})
	if err != nil {
		return false, err
	}
	return r.Instrumented(classBytes, method)
}

// SetLogger sets the logger used by the rewrite engine. Nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	engine.SetLogger(l)
}
