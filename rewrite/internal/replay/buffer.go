// Package replay defers method events until their destination is known.
//
// A Buffer records every event of a method body as an Action. Once the body has been
// seen completely, the caller picks a sink with SetSink and calls Finalize, which
// replays the actions in order and ends the method on the sink.
package replay

import (
	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/errors"
)

// Action is one recorded event.
type Action func(bytecode.MethodVisitor)

// Buffer records method events for a single replay. It implements MethodVisitor;
// its VisitEnd finalizes.
//
// Misuse panics with a sequencing error: setting a sink twice, finalizing without a
// sink, finalizing twice, or recording after finalizing.
type Buffer struct {
	sink      bytecode.MethodVisitor
	actions   []Action
	finalized bool
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Record appends a.
func (b *Buffer) Record(a Action) {
	if b.finalized {
		panic(errors.Sequencing(errors.PhaseReplay, "record after finalize"))
	}
	b.actions = append(b.actions, a)
}

// Len returns the number of recorded actions.
func (b *Buffer) Len() int { return len(b.actions) }

// SetSink chooses the destination of the replay. It may be called once.
func (b *Buffer) SetSink(sink bytecode.MethodVisitor) {
	if sink == nil {
		panic(errors.Sequencing(errors.PhaseReplay, "nil sink"))
	}
	if b.sink != nil {
		panic(errors.Sequencing(errors.PhaseReplay, "sink already set"))
	}
	b.sink = sink
}

// Finalize replays every action against the sink, then calls its VisitEnd.
func (b *Buffer) Finalize() {
	if b.sink == nil {
		panic(errors.Sequencing(errors.PhaseReplay, "finalize before sink was set"))
	}
	if b.finalized {
		panic(errors.Sequencing(errors.PhaseReplay, "finalize called twice"))
	}
	b.finalized = true
	for _, a := range b.actions {
		a(b.sink)
	}
	b.actions = nil
	b.sink.VisitEnd()
}

func (b *Buffer) VisitParameter(name string, access uint16) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitParameter(name, access) })
}

func (b *Buffer) VisitAnnotation(a classfile.Annotation, visible bool) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitAnnotation(a, visible) })
}

func (b *Buffer) VisitAttribute(attr classfile.Attribute) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitAttribute(attr) })
}

func (b *Buffer) VisitCode() {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitCode() })
}

func (b *Buffer) VisitFrame(f bytecode.Frame) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitFrame(f) })
}

func (b *Buffer) VisitInsn(op int) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitInsn(op) })
}

func (b *Buffer) VisitIntInsn(op, operand int) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitIntInsn(op, operand) })
}

func (b *Buffer) VisitVarInsn(op, index int) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitVarInsn(op, index) })
}

func (b *Buffer) VisitTypeInsn(op int, typ string) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitTypeInsn(op, typ) })
}

func (b *Buffer) VisitFieldInsn(op int, owner, name, desc string) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitFieldInsn(op, owner, name, desc) })
}

func (b *Buffer) VisitMethodInsn(op int, owner, name, desc string, itf bool) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitMethodInsn(op, owner, name, desc, itf) })
}

func (b *Buffer) VisitInvokeDynamicInsn(name, desc string, bsm bytecode.Handle, args ...any) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitInvokeDynamicInsn(name, desc, bsm, args...) })
}

func (b *Buffer) VisitJumpInsn(op int, target *bytecode.Label) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitJumpInsn(op, target) })
}

func (b *Buffer) VisitLabel(l *bytecode.Label) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitLabel(l) })
}

func (b *Buffer) VisitLdcInsn(value any) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitLdcInsn(value) })
}

func (b *Buffer) VisitIincInsn(index, increment int) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitIincInsn(index, increment) })
}

func (b *Buffer) VisitTableSwitchInsn(low, high int32, dflt *bytecode.Label, targets ...*bytecode.Label) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitTableSwitchInsn(low, high, dflt, targets...) })
}

func (b *Buffer) VisitLookupSwitchInsn(dflt *bytecode.Label, keys []int32, targets []*bytecode.Label) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitLookupSwitchInsn(dflt, keys, targets) })
}

func (b *Buffer) VisitMultiANewArrayInsn(desc string, dims int) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitMultiANewArrayInsn(desc, dims) })
}

func (b *Buffer) VisitTryCatchBlock(start, end, handler *bytecode.Label, typ string) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitTryCatchBlock(start, end, handler, typ) })
}

func (b *Buffer) VisitLocalVariable(name, desc, signature string, start, end *bytecode.Label, index int) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitLocalVariable(name, desc, signature, start, end, index) })
}

func (b *Buffer) VisitLineNumber(line int, start *bytecode.Label) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitLineNumber(line, start) })
}

func (b *Buffer) VisitMaxs(maxStack, maxLocals int) {
	b.Record(func(v bytecode.MethodVisitor) { v.VisitMaxs(maxStack, maxLocals) })
}

// VisitEnd finalizes the buffer.
func (b *Buffer) VisitEnd() {
	b.Finalize()
}
