package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/entitle"
	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/rewrite/internal/pattern"
	"github.com/wippyai/entitle/rewrite/internal/prologue"
)

// Strategy selects how the prologue is inserted and how double insertion is avoided.
type Strategy int

const (
	// StrategyBlindInsert always inserts the prologue.
	StrategyBlindInsert Strategy = iota
	// StrategyTwoPass matches every target first and re-reads the class to insert
	// the prologue where it is missing.
	StrategyTwoPass
	// StrategySinglePass buffers each target body, matches it and replays it with or
	// without the prologue.
	StrategySinglePass
	// StrategyInheritance inserts a dynamically linked check whose binding depends on
	// the caller's capabilities.
	StrategyInheritance
	// StrategyAnnotate skips methods carrying the marker annotation and marks the ones
	// it instruments.
	StrategyAnnotate
	// StrategyWrap renames the original method and generates a checking stub under
	// its name.
	StrategyWrap
)

var strategyNames = map[Strategy]string{
	StrategyBlindInsert: "blind",
	StrategyTwoPass:     "two-pass",
	StrategySinglePass:  "single-pass",
	StrategyInheritance: "inheritance",
	StrategyAnnotate:    "annotate",
	StrategyWrap:        "wrap",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy returns the strategy with the given name.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown strategy %q", name))
}

// MethodMatcher selects the methods to instrument.
type MethodMatcher interface {
	MatchMethod(owner, name, desc string) bool
}

// DefaultMarker is the descriptor of the annotation marking instrumented methods.
const DefaultMarker = "Lorg/elasticsearch/EntitlementInstrumented;"

// Config configures the rewrite engine.
type Config struct {
	Targets MethodMatcher
	// Capabilities maps method names to the supertypes whose subclasses must be
	// checked. With StrategyInheritance every method named here is a target.
	Capabilities map[string][]string
	Check        prologue.CheckSymbols
	Runtime      prologue.Runtime
	// Marker is the annotation descriptor used by StrategyAnnotate.
	Marker string
	// NativeBridge is the class holding replacement entry points for native targets.
	// Native targets are unsupported when it is empty.
	NativeBridge string
	Strategy     Strategy
}

// Outcome is the result of rewriting one class. When Rewritten is false, Bytes is the
// input buffer itself.
type Outcome struct {
	Bytes []byte
	// Methods lists the methods that received a prologue.
	Methods   []entitle.MethodKey
	Rewritten bool
}

// Engine rewrites class files.
//
// The engine is stateless between Rewrite calls. Each call works on its own parsed
// class, so an Engine may be shared between goroutines.
type Engine struct {
	targets      MethodMatcher
	capabilities map[string][]string
	check        prologue.CheckSymbols
	runtime      prologue.Runtime
	marker       string
	nativeBridge string
	strategy     Strategy
}

// New creates an engine. Zero-valued symbols fall back to the defaults.
func New(cfg Config) *Engine {
	check := cfg.Check
	if check == (prologue.CheckSymbols{}) {
		check = prologue.DefaultCheckSymbols()
	}
	rt := cfg.Runtime
	if rt == (prologue.Runtime{}) {
		rt = prologue.DefaultRuntime()
	}
	marker := cfg.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	return &Engine{
		targets:      cfg.Targets,
		capabilities: cfg.Capabilities,
		check:        check,
		runtime:      rt,
		marker:       marker,
		nativeBridge: cfg.NativeBridge,
		strategy:     cfg.Strategy,
	}
}

// Strategy returns the configured strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// methodRewrite rewrites one targeted method with a body. It returns the members
// replacing m and whether a prologue was inserted.
type methodRewrite func(cf *classfile.ClassFile, m *classfile.Member) ([]*classfile.Member, bool, error)

// Rewrite applies the configured strategy to a class.
//
// Methods that are not targeted are kept byte for byte. Native or abstract targets fail
// with an unsupported shape error, unless a native bridge is configured for natives.
// The outcome is unchanged when no method needed a prologue, except for the
// single-pass strategy, which always re-emits the bodies it buffered.
func (e *Engine) Rewrite(data []byte) (Outcome, error) {
	cf, err := classfile.Parse(data)
	if err != nil {
		return Outcome{}, err
	}
	switch e.strategy {
	case StrategyBlindInsert:
		return e.apply(data, cf, e.targeted, e.insertCheck, false)
	case StrategyTwoPass:
		return e.twoPass(data, cf)
	case StrategySinglePass:
		return e.apply(data, cf, e.targeted, e.checkAndReplay, true)
	case StrategyInheritance:
		return e.apply(data, cf, e.targeted, e.insertInheritance, false)
	case StrategyAnnotate:
		return e.apply(data, cf, e.targeted, e.annotate, false)
	case StrategyWrap:
		return e.apply(data, cf, e.targeted, e.wrap, false)
	}
	return Outcome{}, errors.InvalidInput(errors.PhaseRewrite, "unknown strategy "+e.strategy.String())
}

func (e *Engine) targeted(cf *classfile.ClassFile, m *classfile.Member) bool {
	if e.targets != nil && e.targets.MatchMethod(cf.Name(), m.Name, m.Descriptor) {
		return true
	}
	// Capability names apply to every class; only methods with a body can take the
	// dispatching prologue.
	if e.strategy == StrategyInheritance && !m.Is(classfile.AccAbstract) && !m.Is(classfile.AccNative) {
		_, ok := e.capabilities[m.Name]
		return ok
	}
	return false
}

func (e *Engine) apply(
	data []byte,
	cf *classfile.ClassFile,
	selected func(*classfile.ClassFile, *classfile.Member) bool,
	rw methodRewrite,
	reemit bool,
) (Outcome, error) {
	owner := cf.Name()
	methods := make([]*classfile.Member, 0, len(cf.Methods))
	var (
		instrumented []entitle.MethodKey
		emitted      bool
	)
	for _, m := range cf.Methods {
		if !selected(cf, m) {
			methods = append(methods, m)
			continue
		}
		var (
			out []*classfile.Member
			ok  bool
			err error
		)
		switch {
		case m.Is(classfile.AccAbstract):
			err = errors.UnsupportedShape(owner, m.Name+m.Descriptor, "abstract method has no body")
		case m.Is(classfile.AccNative):
			out, ok, err = e.bridgeNative(cf, m)
		default:
			if _, hasCode := m.Attribute(classfile.AttrCode); !hasCode {
				err = errors.New(errors.PhaseRewrite, errors.KindInvalidData).
					Class(owner).
					Method(m.Name + m.Descriptor).
					Detail("method has no Code attribute").
					Build()
				break
			}
			out, ok, err = rw(cf, m)
		}
		if err != nil {
			return Outcome{}, err
		}
		methods = append(methods, out...)
		emitted = true
		if ok {
			instrumented = append(instrumented, entitle.MethodKey{Owner: owner, Name: m.Name, Descriptor: m.Descriptor})
		}
		Logger().Debug("method visited",
			zap.String("class", owner),
			zap.String("method", m.Name+m.Descriptor),
			zap.Stringer("strategy", e.strategy),
			zap.Bool("instrumented", ok))
	}
	if len(instrumented) == 0 && !(reemit && emitted) {
		return Outcome{Bytes: data}, nil
	}
	cf.Methods = methods
	out, err := cf.Encode()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Bytes: out, Methods: instrumented, Rewritten: true}, nil
}

// twoPass matches every target and, if any lacks the prologue, parses the class
// again and inserts the prologue into those.
func (e *Engine) twoPass(data []byte, cf *classfile.ClassFile) (Outcome, error) {
	p := checkPattern(e.check)
	pending := make(map[string]bool)
	for _, m := range cf.Methods {
		if !e.targeted(cf, m) {
			continue
		}
		matched, err := matches(cf, m, p)
		if err != nil {
			return Outcome{}, err
		}
		if !matched {
			pending[m.Name+m.Descriptor] = true
		}
	}
	if len(pending) == 0 {
		Logger().Debug("class already instrumented", zap.String("class", cf.Name()))
		return Outcome{Bytes: data}, nil
	}

	fresh, err := classfile.Parse(data)
	if err != nil {
		return Outcome{}, err
	}
	selected := func(_ *classfile.ClassFile, m *classfile.Member) bool {
		return pending[m.Name+m.Descriptor]
	}
	return e.apply(data, fresh, selected, e.insertCheck, false)
}

// Instrumented reports whether every method selected by key carries the evidence of
// instrumentation the configured strategy leaves behind.
func (e *Engine) Instrumented(data []byte, key entitle.MethodKey) (bool, error) {
	cf, err := classfile.Parse(data)
	if err != nil {
		return false, err
	}
	owner := cf.Name()
	found := false
	for _, m := range cf.Methods {
		if !key.Matches(owner, m.Name, m.Descriptor) {
			continue
		}
		found = true
		ok, err := e.instrumented(cf, m)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	if !found {
		return false, errors.NotFound(errors.PhaseMatch, "method", key.String())
	}
	return true, nil
}

func (e *Engine) instrumented(cf *classfile.ClassFile, m *classfile.Member) (bool, error) {
	switch e.strategy {
	case StrategyAnnotate:
		return e.marked(cf, m)
	case StrategyWrap:
		return cf.FindMethod(prologue.WrappedName(m.Name), m.Descriptor) != nil, nil
	case StrategyInheritance:
		return matches(cf, m, inheritancePattern(e.runtime, m.Name, e.capabilities[m.Name]))
	}
	return matches(cf, m, checkPattern(e.check))
}

// matches reports whether the body of m starts with p.
func matches(cf *classfile.ClassFile, m *classfile.Member, p pattern.Pattern) (bool, error) {
	matcher := pattern.NewMatcher(p)
	if err := bytecode.Accept(cf, m, matcher); err != nil {
		return false, err
	}
	return matcher.Finished() == pattern.Matched, nil
}
