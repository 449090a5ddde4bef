package linkage

import (
	"sync"

	"github.com/wippyai/entitle/classfile"
)

// Hierarchy answers subtype questions about class names in internal form.
type Hierarchy interface {
	// IsAssignable reports whether a value of type sub can be stored in type super.
	IsAssignable(super, sub string) bool
}

// StaticHierarchy is a Hierarchy built from declared supertypes. Classes it has not
// seen are only assignable to themselves and java/lang/Object.
//
// StaticHierarchy is safe for concurrent use.
type StaticHierarchy struct {
	parents map[string][]string
	mu      sync.RWMutex
}

// NewStaticHierarchy creates an empty hierarchy.
func NewStaticHierarchy() *StaticHierarchy {
	return &StaticHierarchy{parents: make(map[string][]string)}
}

// Add declares the direct supertypes of a class.
func (h *StaticHierarchy) Add(name, super string, interfaces ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range append([]string{super}, interfaces...) {
		if p != "" {
			h.parents[name] = appendUnique(h.parents[name], p)
		}
	}
}

// AddClass declares the supertypes found in a class file.
func (h *StaticHierarchy) AddClass(data []byte) error {
	cf, err := classfile.Parse(data)
	if err != nil {
		return err
	}
	h.Add(cf.Name(), cf.SuperName(), cf.InterfaceNames()...)
	return nil
}

// Supertypes returns every type sub is assignable to, sub included.
func (h *StaticHierarchy) Supertypes(sub string) map[string]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := map[string]bool{sub: true, "java/lang/Object": true}

	// Fixed-point iteration: keep expanding until no changes
	changed := true
	for changed {
		changed = false
		for name := range result {
			for _, p := range h.parents[name] {
				if !result[p] {
					result[p] = true
					changed = true
				}
			}
		}
	}
	return result
}

// IsAssignable implements Hierarchy.
func (h *StaticHierarchy) IsAssignable(super, sub string) bool {
	return h.Supertypes(sub)[super]
}

func appendUnique(slice []string, val string) []string {
	for _, v := range slice {
		if v == val {
			return slice
		}
	}
	return append(slice, val)
}
