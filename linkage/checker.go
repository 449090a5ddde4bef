package linkage

import (
	"slices"

	"github.com/wippyai/entitle/errors"
)

// Checker decides whether a caller class may run a checked method.
type Checker interface {
	Check(caller, method string) error
}

// Noop is the checker bound to call sites that need no check. It allows everything and
// has no side effects.
type Noop struct{}

// Check implements Checker.
func (Noop) Check(string, string) error { return nil }

// PolicyChecker allows the methods listed per caller class.
type PolicyChecker struct {
	// Allowed maps a caller class to the methods it is entitled to run. A "*" entry
	// allows every method.
	Allowed map[string][]string
	// Disabled turns every check into a pass.
	Disabled bool
}

// Check implements Checker.
func (p *PolicyChecker) Check(caller, method string) error {
	if p.Disabled {
		return nil
	}
	allowed := p.Allowed[caller]
	if slices.Contains(allowed, "*") || slices.Contains(allowed, method) {
		return nil
	}
	return errors.Denied(caller, method)
}
