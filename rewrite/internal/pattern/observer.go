package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/entitle/bytecode"
)

// Observer is a MethodVisitor that turns instruction events into Instructions.
// Frames, line numbers, local variables, try/catch blocks, annotations, attributes
// and maxs are not instructions and are ignored.
type Observer struct {
	bytecode.Discard
	canon *Canonicalizer
	emit  func(Instruction)
}

// NewObserver creates an Observer with a fresh Canonicalizer.
func NewObserver(emit func(Instruction)) *Observer {
	return &Observer{canon: NewCanonicalizer(), emit: emit}
}

func (o *Observer) VisitInsn(op int) {
	o.emit(Instruction{Kind: KindInsn, Op: op})
}

func (o *Observer) VisitIntInsn(op, operand int) {
	o.emit(Instruction{Kind: KindOther, Op: op, Arg: strconv.Itoa(operand)})
}

func (o *Observer) VisitVarInsn(op, index int) {
	o.emit(Instruction{Kind: KindOther, Op: op, Arg: strconv.Itoa(index)})
}

func (o *Observer) VisitTypeInsn(op int, typ string) {
	o.emit(Instruction{Kind: KindType, Op: op, Arg: typ})
}

func (o *Observer) VisitFieldInsn(op int, owner, name, desc string) {
	o.emit(Instruction{Kind: KindOther, Op: op, Arg: owner + name + desc})
}

func (o *Observer) VisitMethodInsn(op int, owner, name, desc string, _ bool) {
	o.emit(Instruction{Kind: KindCall, Op: op, Arg: owner + name + desc})
}

func (o *Observer) VisitInvokeDynamicInsn(name, desc string, bsm bytecode.Handle, args ...any) {
	arg := name + desc + " " + bsm.Owner + bsm.Name + bsm.Desc
	if len(args) > 0 {
		arg += fmt.Sprintf("%v", args)
	}
	o.emit(Instruction{Kind: KindCall, Op: bytecode.OpInvokedynamic, Arg: arg})
}

func (o *Observer) VisitJumpInsn(op int, target *bytecode.Label) {
	o.emit(Instruction{Kind: KindJump, Op: op, Arg: o.canon.ID(target)})
}

func (o *Observer) VisitLabel(l *bytecode.Label) {
	o.emit(Instruction{Kind: KindLabel, Op: LabelOp, Arg: o.canon.ID(l)})
}

func (o *Observer) VisitLdcInsn(value any) {
	o.emit(Instruction{Kind: KindOther, Op: bytecode.OpLdc, Arg: fmt.Sprintf("%T:%v", value, value)})
}

func (o *Observer) VisitIincInsn(index, increment int) {
	o.emit(Instruction{Kind: KindOther, Op: bytecode.OpIinc, Arg: strconv.Itoa(index) + "," + strconv.Itoa(increment)})
}

func (o *Observer) VisitTableSwitchInsn(low, high int32, dflt *bytecode.Label, targets ...*bytecode.Label) {
	ids := o.labels(targets)
	arg := fmt.Sprintf("%d..%d %s default %s", low, high, ids, o.canon.ID(dflt))
	o.emit(Instruction{Kind: KindOther, Op: bytecode.OpTableswitch, Arg: arg})
}

func (o *Observer) VisitLookupSwitchInsn(dflt *bytecode.Label, keys []int32, targets []*bytecode.Label) {
	arg := fmt.Sprintf("%v %s default %s", keys, o.labels(targets), o.canon.ID(dflt))
	o.emit(Instruction{Kind: KindOther, Op: bytecode.OpLookupswitch, Arg: arg})
}

func (o *Observer) VisitMultiANewArrayInsn(desc string, dims int) {
	o.emit(Instruction{Kind: KindOther, Op: bytecode.OpMultianewarray, Arg: desc + " " + strconv.Itoa(dims)})
}

func (o *Observer) labels(ls []*bytecode.Label) string {
	ids := make([]string, len(ls))
	for i, l := range ls {
		ids[i] = o.canon.ID(l)
	}
	return "[" + strings.Join(ids, " ") + "]"
}

// Record runs template against a recording visitor and returns the instructions it
// emitted. Templates are expected to be deterministic.
func Record(template func(bytecode.MethodVisitor)) Pattern {
	var insns []Instruction
	template(NewObserver(func(in Instruction) {
		insns = append(insns, in)
	}))
	return Pattern{insns: insns}
}
