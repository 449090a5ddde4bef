package linkage

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
)

// SiteKey identifies one dynamically linked check call site.
type SiteKey struct {
	Owner  string // class containing the site
	Method string // name and descriptor of the method containing the site
	Index  int    // position among the method's sites
}

func (k SiteKey) String() string {
	return fmt.Sprintf("%s.%s#%d", k.Owner, k.Method, k.Index)
}

// Site is a call site together with the metadata its bootstrap receives.
type Site struct {
	Key          SiteKey
	Name         string // checked method name
	Check        bytecode.Handle
	Capabilities []string
}

// Target is what a call site is bound to.
type Target struct {
	Checker Checker
	// Handle is the real check, or a no-op with the same name and descriptor.
	Handle bytecode.Handle
	Noop   bool
}

// SiteState is the linkage state of a call site.
type SiteState int

const (
	Unresolved SiteState = iota
	Resolved
)

func (s SiteState) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "unresolved"
}

// DefaultNoopOwner is the class holding the no-op check.
const DefaultNoopOwner = "org/elasticsearch/NoopEntitlementChecker"

// Options configures a Linker.
type Options struct {
	Hierarchy Hierarchy
	// Checker runs the real check. Linking fails to bind anything real without it.
	Checker   Checker
	NoopOwner string
}

// Stats reports linker activity.
type Stats struct {
	Sites       int
	Resolutions uint64
	Hits        uint64
}

// Linker binds check call sites the first time they run and returns the same target on
// every later call. Thread-safe.
type Linker struct {
	hierarchy   Hierarchy
	checker     Checker
	sites       map[SiteKey]*Target
	noopOwner   string
	resolutions atomic.Uint64
	hits        atomic.Uint64
	mu          sync.Mutex
}

// NewLinker creates a linker. A nil hierarchy treats every class as unrelated to every
// capability; a nil checker is replaced by Noop.
func NewLinker(opts Options) *Linker {
	h := opts.Hierarchy
	if h == nil {
		h = NewStaticHierarchy()
	}
	checker := opts.Checker
	if checker == nil {
		checker = Noop{}
	}
	owner := opts.NoopOwner
	if owner == "" {
		owner = DefaultNoopOwner
	}
	return &Linker{
		hierarchy: h,
		checker:   checker,
		sites:     make(map[SiteKey]*Target),
		noopOwner: owner,
	}
}

// Link returns the target of a call site, resolving it on first use.
//
// A site whose owner is assignable to one of its capability supertypes is bound to
// the real check. Any other site is bound to a no-op of identical signature.
func (l *Linker) Link(site Site) *Target {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.sites[site.Key]; ok {
		l.hits.Inc()
		return t
	}

	t := l.resolve(site)
	l.sites[site.Key] = t
	l.resolutions.Inc()
	Logger().Debug("call site resolved",
		zap.Stringer("site", site.Key),
		zap.Strings("capabilities", site.Capabilities),
		zap.Bool("noop", t.Noop))
	return t
}

func (l *Linker) resolve(site Site) *Target {
	for _, c := range site.Capabilities {
		if l.hierarchy.IsAssignable(c, site.Key.Owner) {
			return &Target{Checker: l.checker, Handle: site.Check}
		}
	}
	return &Target{
		Checker: Noop{},
		Handle: bytecode.Handle{
			Kind:  classfile.RefInvokeVirtual,
			Owner: l.noopOwner,
			Name:  site.Check.Name,
			Desc:  site.Check.Desc,
		},
		Noop: true,
	}
}

// Invoke runs the check bound to a call site for the given caller class.
func (l *Linker) Invoke(site Site, caller string) error {
	return l.Link(site).Checker.Check(caller, site.Name)
}

// State returns the linkage state of a call site.
func (l *Linker) State(key SiteKey) SiteState {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sites[key]; ok {
		return Resolved
	}
	return Unresolved
}

// Stats returns the number of resolved sites and the resolution and cache hit counts.
func (l *Linker) Stats() Stats {
	l.mu.Lock()
	n := len(l.sites)
	l.mu.Unlock()
	return Stats{Sites: n, Resolutions: l.resolutions.Load(), Hits: l.hits.Load()}
}
