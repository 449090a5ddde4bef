package pattern

import (
	"fmt"
	"strconv"

	"github.com/wippyai/entitle/bytecode"
)

// Kind classifies an instruction for matching purposes.
type Kind int

const (
	KindJump Kind = iota
	KindType
	KindInsn
	KindLabel
	KindCall
	// KindOther covers every instruction a prologue never contains.
	KindOther
)

var kindNames = [...]string{
	KindJump:  "jump",
	KindType:  "type",
	KindInsn:  "insn",
	KindLabel: "label",
	KindCall:  "call",
	KindOther: "other",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// LabelOp is the opcode slot of label instructions, which have no real opcode.
const LabelOp = -1

// Instruction is the comparable form of one event of an instruction stream.
type Instruction struct {
	Arg  string
	Kind Kind
	Op   int
}

// Equal reports whether two instructions are the same. Zero-operand instructions
// compare by opcode only.
func (i Instruction) Equal(o Instruction) bool {
	if i.Kind != o.Kind || i.Op != o.Op {
		return false
	}
	return i.Kind == KindInsn || i.Arg == o.Arg
}

func (i Instruction) String() string {
	if i.Kind == KindLabel {
		return "L" + i.Arg
	}
	name := bytecode.Name(i.Op)
	if i.Arg == "" {
		return name
	}
	return name + " " + i.Arg
}

// Pattern is an immutable instruction sequence.
type Pattern struct {
	insns []Instruction
}

// NewPattern creates a pattern from insns. The slice is copied.
func NewPattern(insns ...Instruction) Pattern {
	return Pattern{insns: append([]Instruction(nil), insns...)}
}

// Len returns the number of instructions.
func (p Pattern) Len() int { return len(p.insns) }

// At returns the i-th instruction.
func (p Pattern) At(i int) Instruction { return p.insns[i] }

// Instructions returns a copy of the sequence.
func (p Pattern) Instructions() []Instruction {
	return append([]Instruction(nil), p.insns...)
}

func (p Pattern) String() string {
	return fmt.Sprint(p.insns)
}

// Canonicalizer numbers labels in the order they are first seen. Each traversal
// uses its own Canonicalizer, so ids are only comparable between traversals that
// introduce labels in the same relative order.
type Canonicalizer struct {
	ids map[*bytecode.Label]string
}

// NewCanonicalizer creates an empty Canonicalizer.
func NewCanonicalizer() *Canonicalizer {
	return &Canonicalizer{ids: make(map[*bytecode.Label]string)}
}

// ID returns the canonical id of l, assigning the next one on first sight.
func (c *Canonicalizer) ID(l *bytecode.Label) string {
	if id, ok := c.ids[l]; ok {
		return id
	}
	id := strconv.Itoa(len(c.ids))
	c.ids[l] = id
	return id
}

// Len returns the number of labels seen so far.
func (c *Canonicalizer) Len() int { return len(c.ids) }
