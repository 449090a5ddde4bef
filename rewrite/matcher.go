package rewrite

import (
	"strings"

	"github.com/wippyai/entitle"
	"github.com/wippyai/entitle/rewrite/internal/engine"
)

// MethodMatcher determines if a method should receive the check prologue.
type MethodMatcher = engine.MethodMatcher

// MethodKeyMatcher matches methods against parsed method keys.
//
// Supports patterns like:
//   - "name" - any method with this name in any class
//   - "name(I)V" - name and descriptor in any class
//   - "a/b/C.name" or "a.b.C.name" - name in one class
//   - "a/b/C.name(I)V" - one exact method
type MethodKeyMatcher struct {
	names map[string][]entitle.MethodKey
}

// NewMethodNameMatcher creates a matcher from a list of method patterns.
func NewMethodNameMatcher(patterns []string) (*MethodKeyMatcher, error) {
	m := &MethodKeyMatcher{names: make(map[string][]entitle.MethodKey)}
	for _, p := range patterns {
		k, err := entitle.ParseMethodKey(p)
		if err != nil {
			return nil, err
		}
		m.names[k.Name] = append(m.names[k.Name], k)
	}
	return m, nil
}

// MatchMethod returns true if any pattern selects the method.
func (m *MethodKeyMatcher) MatchMethod(owner, name, desc string) bool {
	for _, k := range m.names[name] {
		if k.Matches(owner, name, desc) {
			return true
		}
	}
	return false
}

// MethodPrefixMatcher matches methods by name prefix.
type MethodPrefixMatcher struct {
	prefixes []string
}

// NewMethodPrefixMatcher creates a matcher that matches methods starting with any prefix.
func NewMethodPrefixMatcher(prefixes []string) *MethodPrefixMatcher {
	return &MethodPrefixMatcher{prefixes: prefixes}
}

// MatchMethod returns true if the method name starts with any prefix.
func (m *MethodPrefixMatcher) MatchMethod(_, name, _ string) bool {
	for _, p := range m.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// ClassMatcher matches every method of the listed classes. Class names use either
// slashes or dots as package separators.
type ClassMatcher struct {
	classes map[string]bool
}

// NewClassMatcher creates a matcher for all methods of the given classes.
func NewClassMatcher(classes []string) *ClassMatcher {
	m := &ClassMatcher{classes: make(map[string]bool)}
	for _, c := range classes {
		m.classes[strings.ReplaceAll(c, ".", "/")] = true
	}
	return m
}

// MatchMethod returns true if the method's owner is listed.
func (m *ClassMatcher) MatchMethod(owner, _, _ string) bool {
	return m.classes[owner]
}

// CompositeMethodMatcher combines multiple method matchers.
type CompositeMethodMatcher struct {
	matchers []MethodMatcher
}

// NewCompositeMethodMatcher creates a matcher that matches if any sub-matcher matches.
// Nil matchers are ignored.
func NewCompositeMethodMatcher(matchers ...MethodMatcher) *CompositeMethodMatcher {
	c := &CompositeMethodMatcher{}
	for _, m := range matchers {
		if m != nil {
			c.matchers = append(c.matchers, m)
		}
	}
	return c
}

// MatchMethod returns true if any sub-matcher matches.
func (m *CompositeMethodMatcher) MatchMethod(owner, name, desc string) bool {
	for _, matcher := range m.matchers {
		if matcher.MatchMethod(owner, name, desc) {
			return true
		}
	}
	return false
}
