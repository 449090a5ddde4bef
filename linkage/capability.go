package linkage

import (
	"slices"
	"sort"
)

// CapabilityTable maps a method name to the supertypes whose subclasses must be checked
// when they run it.
type CapabilityTable map[string][]string

// Lookup returns the capability supertypes of a method, or nil.
func (t CapabilityTable) Lookup(method string) []string {
	return t[method]
}

// Methods returns the method names in sorted order.
func (t CapabilityTable) Methods() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge adds the entries of other, keeping each supertype once per method.
func (t CapabilityTable) Merge(other CapabilityTable) {
	for name, caps := range other {
		for _, c := range caps {
			if !slices.Contains(t[name], c) {
				t[name] = append(t[name], c)
			}
		}
		if _, ok := t[name]; !ok {
			t[name] = nil
		}
	}
}

// Requires reports whether a class must be checked when it runs method, that is
// whether it is assignable to one of the method's capability supertypes.
func (t CapabilityTable) Requires(h Hierarchy, class, method string) bool {
	for _, c := range t[method] {
		if h.IsAssignable(c, class) {
			return true
		}
	}
	return false
}
