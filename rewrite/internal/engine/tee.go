package engine

import (
	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
)

// tee forwards every event to two visitors, first then second.
type tee struct {
	first, second bytecode.MethodVisitor
}

func (t *tee) VisitParameter(name string, access uint16) {
	t.first.VisitParameter(name, access)
	t.second.VisitParameter(name, access)
}

func (t *tee) VisitAnnotation(a classfile.Annotation, visible bool) {
	t.first.VisitAnnotation(a, visible)
	t.second.VisitAnnotation(a, visible)
}

func (t *tee) VisitAttribute(attr classfile.Attribute) {
	t.first.VisitAttribute(attr)
	t.second.VisitAttribute(attr)
}

func (t *tee) VisitCode() {
	t.first.VisitCode()
	t.second.VisitCode()
}

func (t *tee) VisitFrame(f bytecode.Frame) {
	t.first.VisitFrame(f)
	t.second.VisitFrame(f)
}

func (t *tee) VisitInsn(op int) {
	t.first.VisitInsn(op)
	t.second.VisitInsn(op)
}

func (t *tee) VisitIntInsn(op, operand int) {
	t.first.VisitIntInsn(op, operand)
	t.second.VisitIntInsn(op, operand)
}

func (t *tee) VisitVarInsn(op, index int) {
	t.first.VisitVarInsn(op, index)
	t.second.VisitVarInsn(op, index)
}

func (t *tee) VisitTypeInsn(op int, typ string) {
	t.first.VisitTypeInsn(op, typ)
	t.second.VisitTypeInsn(op, typ)
}

func (t *tee) VisitFieldInsn(op int, owner, name, desc string) {
	t.first.VisitFieldInsn(op, owner, name, desc)
	t.second.VisitFieldInsn(op, owner, name, desc)
}

func (t *tee) VisitMethodInsn(op int, owner, name, desc string, itf bool) {
	t.first.VisitMethodInsn(op, owner, name, desc, itf)
	t.second.VisitMethodInsn(op, owner, name, desc, itf)
}

func (t *tee) VisitInvokeDynamicInsn(name, desc string, bsm bytecode.Handle, args ...any) {
	t.first.VisitInvokeDynamicInsn(name, desc, bsm, args...)
	t.second.VisitInvokeDynamicInsn(name, desc, bsm, args...)
}

func (t *tee) VisitJumpInsn(op int, target *bytecode.Label) {
	t.first.VisitJumpInsn(op, target)
	t.second.VisitJumpInsn(op, target)
}

func (t *tee) VisitLabel(l *bytecode.Label) {
	t.first.VisitLabel(l)
	t.second.VisitLabel(l)
}

func (t *tee) VisitLdcInsn(value any) {
	t.first.VisitLdcInsn(value)
	t.second.VisitLdcInsn(value)
}

func (t *tee) VisitIincInsn(index, increment int) {
	t.first.VisitIincInsn(index, increment)
	t.second.VisitIincInsn(index, increment)
}

func (t *tee) VisitTableSwitchInsn(low, high int32, dflt *bytecode.Label, targets ...*bytecode.Label) {
	t.first.VisitTableSwitchInsn(low, high, dflt, targets...)
	t.second.VisitTableSwitchInsn(low, high, dflt, targets...)
}

func (t *tee) VisitLookupSwitchInsn(dflt *bytecode.Label, keys []int32, targets []*bytecode.Label) {
	t.first.VisitLookupSwitchInsn(dflt, keys, targets)
	t.second.VisitLookupSwitchInsn(dflt, keys, targets)
}

func (t *tee) VisitMultiANewArrayInsn(desc string, dims int) {
	t.first.VisitMultiANewArrayInsn(desc, dims)
	t.second.VisitMultiANewArrayInsn(desc, dims)
}

func (t *tee) VisitTryCatchBlock(start, end, handler *bytecode.Label, typ string) {
	t.first.VisitTryCatchBlock(start, end, handler, typ)
	t.second.VisitTryCatchBlock(start, end, handler, typ)
}

func (t *tee) VisitLocalVariable(name, desc, signature string, start, end *bytecode.Label, index int) {
	t.first.VisitLocalVariable(name, desc, signature, start, end, index)
	t.second.VisitLocalVariable(name, desc, signature, start, end, index)
}

func (t *tee) VisitLineNumber(line int, start *bytecode.Label) {
	t.first.VisitLineNumber(line, start)
	t.second.VisitLineNumber(line, start)
}

func (t *tee) VisitMaxs(maxStack, maxLocals int) {
	t.first.VisitMaxs(maxStack, maxLocals)
	t.second.VisitMaxs(maxStack, maxLocals)
}

func (t *tee) VisitEnd() {
	t.first.VisitEnd()
	t.second.VisitEnd()
}
