package engine

import (
	"sync"

	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/rewrite/internal/pattern"
	"github.com/wippyai/entitle/rewrite/internal/prologue"
)

var (
	patternsMu    sync.Mutex
	checkPatterns = make(map[prologue.CheckSymbols]pattern.Pattern)
)

// checkPattern returns the recorded check prologue for sym. Patterns are immutable
// and shared between rewrites.
func checkPattern(sym prologue.CheckSymbols) pattern.Pattern {
	patternsMu.Lock()
	defer patternsMu.Unlock()
	if p, ok := checkPatterns[sym]; ok {
		return p
	}
	p := pattern.Record(func(v bytecode.MethodVisitor) {
		prologue.Check(v, sym, nil)
	})
	checkPatterns[sym] = p
	return p
}

// inheritancePattern records the dispatching prologue of one method. It depends on the
// method name and its capabilities, so it is not cached.
func inheritancePattern(rt prologue.Runtime, method string, capabilities []string) pattern.Pattern {
	return pattern.Record(func(v bytecode.MethodVisitor) {
		prologue.Inheritance(v, rt, method, capabilities)
	})
}
