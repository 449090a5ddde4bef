package entitle

import (
	"strings"

	"github.com/wippyai/entitle/errors"
)

// MethodKey identifies a method by owner class, name and descriptor. Keys are compared
// by value.
type MethodKey struct {
	Owner      string
	Name       string
	Descriptor string
}

// String returns the key in "owner.name(descriptor)" form.
func (k MethodKey) String() string {
	return k.Owner + "." + k.Name + k.Descriptor
}

// ParseMethodKey parses "owner.name(descriptor)". The owner and the descriptor may be
// omitted: "name", "name(I)V" and "a/B.name" are accepted.
func ParseMethodKey(s string) (MethodKey, error) {
	var k MethodKey
	rest := s
	if i := strings.IndexByte(rest, '('); i >= 0 {
		k.Descriptor = rest[i:]
		rest = rest[:i]
		if !strings.Contains(k.Descriptor, ")") {
			return MethodKey{}, errors.InvalidInput(errors.PhaseConfig, "malformed method "+s)
		}
	}
	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		k.Owner = strings.ReplaceAll(rest[:i], ".", "/")
		rest = rest[i+1:]
	}
	if rest == "" {
		return MethodKey{}, errors.InvalidInput(errors.PhaseConfig, "missing method name in "+s)
	}
	k.Name = rest
	return k, nil
}

// Matches reports whether the key selects the method: empty owner and descriptor act as
// wildcards.
func (k MethodKey) Matches(owner, name, desc string) bool {
	return k.Name == name &&
		(k.Owner == "" || k.Owner == owner) &&
		(k.Descriptor == "" || k.Descriptor == desc)
}
