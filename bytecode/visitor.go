package bytecode

import "github.com/wippyai/entitle/classfile"

// Label marks a position in a method's instruction stream. Labels are compared by
// identity; the reader creates exactly one label per referenced offset.
type Label struct {
	// Offset is the code offset the reader found the label at, or -1 for labels created
	// while emitting.
	Offset int
}

// NewLabel creates a label that is not yet bound to an offset.
func NewLabel() *Label {
	return &Label{Offset: -1}
}

// Handle is a method handle constant.
type Handle struct {
	Owner     string
	Name      string
	Desc      string
	Kind      byte
	Interface bool
}

// ClassRef is a class literal loaded by ldc. Name is an internal name or an array
// descriptor.
type ClassRef struct {
	Name string
}

// MethodTypeRef is a method type constant.
type MethodTypeRef struct {
	Desc string
}

// ConstantDynamic is a dynamically computed constant.
type ConstantDynamic struct {
	Name      string
	Desc      string
	Bootstrap Handle
	Args      []any
}

// Verification type tags as used in StackMapTable.
const (
	ItemTop               byte = 0
	ItemInteger           byte = 1
	ItemFloat             byte = 2
	ItemDouble            byte = 3
	ItemLong              byte = 4
	ItemNull              byte = 5
	ItemUninitializedThis byte = 6
	ItemObject            byte = 7
	ItemUninitialized     byte = 8
)

// VerificationType is one entry of a stack map frame. Class is set for ItemObject and
// Label, pointing at the NEW instruction, for ItemUninitialized.
type VerificationType struct {
	Label *Label
	Class string
	Tag   byte
}

// Frame is a fully expanded stack map frame. Long and double values occupy a single
// entry, as in the class file encoding.
type Frame struct {
	Locals []VerificationType
	Stack  []VerificationType
}

// MethodVisitor receives the events that make up a method. Events arrive in this order:
//
//	VisitParameter* VisitAnnotation* VisitAttribute*
//	[VisitCode VisitTryCatchBlock* (instructions, VisitLabel, VisitLineNumber, VisitFrame)*
//	 VisitLocalVariable* VisitMaxs]
//	VisitEnd
//
// Ldc and bootstrap argument values are int32, float32, int64, float64, string,
// ClassRef, MethodTypeRef, Handle or ConstantDynamic.
type MethodVisitor interface {
	VisitParameter(name string, access uint16)
	VisitAnnotation(a classfile.Annotation, visible bool)
	VisitAttribute(attr classfile.Attribute)
	VisitCode()
	VisitFrame(f Frame)
	VisitInsn(op int)
	VisitIntInsn(op, operand int)
	VisitVarInsn(op, index int)
	VisitTypeInsn(op int, typ string)
	VisitFieldInsn(op int, owner, name, desc string)
	VisitMethodInsn(op int, owner, name, desc string, itf bool)
	VisitInvokeDynamicInsn(name, desc string, bsm Handle, args ...any)
	VisitJumpInsn(op int, target *Label)
	VisitLabel(l *Label)
	VisitLdcInsn(value any)
	VisitIincInsn(index, increment int)
	VisitTableSwitchInsn(low, high int32, dflt *Label, targets ...*Label)
	VisitLookupSwitchInsn(dflt *Label, keys []int32, targets []*Label)
	VisitMultiANewArrayInsn(desc string, dims int)
	VisitTryCatchBlock(start, end, handler *Label, typ string)
	VisitLocalVariable(name, desc, signature string, start, end *Label, index int)
	VisitLineNumber(line int, start *Label)
	VisitMaxs(maxStack, maxLocals int)
	VisitEnd()
}

// Adapter forwards every event to Next. Embed it and override the events of interest.
type Adapter struct {
	Next MethodVisitor
}

func (a *Adapter) VisitParameter(name string, access uint16) { a.Next.VisitParameter(name, access) }
func (a *Adapter) VisitAnnotation(ann classfile.Annotation, visible bool) {
	a.Next.VisitAnnotation(ann, visible)
}
func (a *Adapter) VisitAttribute(attr classfile.Attribute) { a.Next.VisitAttribute(attr) }
func (a *Adapter) VisitCode()                             { a.Next.VisitCode() }
func (a *Adapter) VisitFrame(f Frame)                     { a.Next.VisitFrame(f) }
func (a *Adapter) VisitInsn(op int)                       { a.Next.VisitInsn(op) }
func (a *Adapter) VisitIntInsn(op, operand int)           { a.Next.VisitIntInsn(op, operand) }
func (a *Adapter) VisitVarInsn(op, index int)             { a.Next.VisitVarInsn(op, index) }
func (a *Adapter) VisitTypeInsn(op int, typ string)       { a.Next.VisitTypeInsn(op, typ) }
func (a *Adapter) VisitFieldInsn(op int, owner, name, desc string) {
	a.Next.VisitFieldInsn(op, owner, name, desc)
}
func (a *Adapter) VisitMethodInsn(op int, owner, name, desc string, itf bool) {
	a.Next.VisitMethodInsn(op, owner, name, desc, itf)
}
func (a *Adapter) VisitInvokeDynamicInsn(name, desc string, bsm Handle, args ...any) {
	a.Next.VisitInvokeDynamicInsn(name, desc, bsm, args...)
}
func (a *Adapter) VisitJumpInsn(op int, target *Label) { a.Next.VisitJumpInsn(op, target) }
func (a *Adapter) VisitLabel(l *Label)                 { a.Next.VisitLabel(l) }
func (a *Adapter) VisitLdcInsn(value any)              { a.Next.VisitLdcInsn(value) }
func (a *Adapter) VisitIincInsn(index, increment int)  { a.Next.VisitIincInsn(index, increment) }
func (a *Adapter) VisitTableSwitchInsn(low, high int32, dflt *Label, targets ...*Label) {
	a.Next.VisitTableSwitchInsn(low, high, dflt, targets...)
}
func (a *Adapter) VisitLookupSwitchInsn(dflt *Label, keys []int32, targets []*Label) {
	a.Next.VisitLookupSwitchInsn(dflt, keys, targets)
}
func (a *Adapter) VisitMultiANewArrayInsn(desc string, dims int) {
	a.Next.VisitMultiANewArrayInsn(desc, dims)
}
func (a *Adapter) VisitTryCatchBlock(start, end, handler *Label, typ string) {
	a.Next.VisitTryCatchBlock(start, end, handler, typ)
}
func (a *Adapter) VisitLocalVariable(name, desc, signature string, start, end *Label, index int) {
	a.Next.VisitLocalVariable(name, desc, signature, start, end, index)
}
func (a *Adapter) VisitLineNumber(line int, start *Label) { a.Next.VisitLineNumber(line, start) }
func (a *Adapter) VisitMaxs(maxStack, maxLocals int)      { a.Next.VisitMaxs(maxStack, maxLocals) }
func (a *Adapter) VisitEnd()                              { a.Next.VisitEnd() }

// Discard is a MethodVisitor that ignores every event.
type Discard struct{}

func (Discard) VisitParameter(string, uint16)                                 {}
func (Discard) VisitAnnotation(classfile.Annotation, bool)                     {}
func (Discard) VisitAttribute(classfile.Attribute)                             {}
func (Discard) VisitCode()                                                     {}
func (Discard) VisitFrame(Frame)                                               {}
func (Discard) VisitInsn(int)                                                  {}
func (Discard) VisitIntInsn(int, int)                                          {}
func (Discard) VisitVarInsn(int, int)                                          {}
func (Discard) VisitTypeInsn(int, string)                                      {}
func (Discard) VisitFieldInsn(int, string, string, string)                     {}
func (Discard) VisitMethodInsn(int, string, string, string, bool)              {}
func (Discard) VisitInvokeDynamicInsn(string, string, Handle, ...any)          {}
func (Discard) VisitJumpInsn(int, *Label)                                      {}
func (Discard) VisitLabel(*Label)                                              {}
func (Discard) VisitLdcInsn(any)                                               {}
func (Discard) VisitIincInsn(int, int)                                         {}
func (Discard) VisitTableSwitchInsn(int32, int32, *Label, ...*Label)           {}
func (Discard) VisitLookupSwitchInsn(*Label, []int32, []*Label)                {}
func (Discard) VisitMultiANewArrayInsn(string, int)                            {}
func (Discard) VisitTryCatchBlock(*Label, *Label, *Label, string)              {}
func (Discard) VisitLocalVariable(string, string, string, *Label, *Label, int) {}
func (Discard) VisitLineNumber(int, *Label)                                    {}
func (Discard) VisitMaxs(int, int)                                             {}
func (Discard) VisitEnd()                                                      {}
