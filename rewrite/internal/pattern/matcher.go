package pattern

// Result is the outcome of matching a method body against a pattern.
type Result int

const (
	NotMatched Result = iota
	Matched
)

func (r Result) String() string {
	if r == Matched {
		return "matched"
	}
	return "not matched"
}

// Matcher checks whether an instruction stream starts with a pattern. It is also a
// MethodVisitor, so a method can be fed to it directly with bytecode.Accept.
//
// Matching is strictly sequential: the first len(pattern) instructions must equal the
// pattern in order. After a mismatch, or once the whole pattern has been consumed,
// further instructions are absorbed without comparison.
type Matcher struct {
	Observer
	pattern Pattern
	pos     int
	failed  bool
}

// NewMatcher creates a Matcher for p with its own Canonicalizer.
func NewMatcher(p Pattern) *Matcher {
	m := &Matcher{pattern: p}
	m.Observer = Observer{canon: NewCanonicalizer(), emit: m.Observe}
	return m
}

// Observe compares in against the next pattern instruction.
func (m *Matcher) Observe(in Instruction) {
	if m.failed || m.pos >= m.pattern.Len() {
		return
	}
	if !m.pattern.At(m.pos).Equal(in) {
		m.failed = true
		return
	}
	m.pos++
}

// Finished reports the match result. A stream shorter than the pattern does not match.
func (m *Matcher) Finished() Result {
	if !m.failed && m.pos == m.pattern.Len() {
		return Matched
	}
	return NotMatched
}

// Position returns how many pattern instructions have been consumed.
func (m *Matcher) Position() int { return m.pos }
