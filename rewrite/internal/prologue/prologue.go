// Package prologue emits the instruction sequences inserted by the rewriter.
package prologue

import (
	"strings"

	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
)

// CheckSymbols names the check entry point and the exception thrown on denial.
type CheckSymbols struct {
	Owner     string
	Name      string
	Desc      string
	Denial    string
	Interface bool
}

// DefaultCheckSymbols returns the symbols of the stock entitlement runtime.
func DefaultCheckSymbols() CheckSymbols {
	return CheckSymbols{
		Owner:  "org/elasticsearch/EntitlementChecker",
		Name:   "check",
		Desc:   "()Z",
		Denial: "java/lang/UnsupportedOperationException",
	}
}

// CheckStack is the operand stack depth the check prologue needs.
const CheckStack = 2

// Check emits
//
//	invokestatic check
//	ifne END
//	new Denial; dup; invokespecial Denial.<init>()V; athrow
//	END:
//
// followed by frame at END when frame is not nil.
func Check(v bytecode.MethodVisitor, sym CheckSymbols, frame *bytecode.Frame) {
	end := bytecode.NewLabel()
	v.VisitMethodInsn(bytecode.OpInvokestatic, sym.Owner, sym.Name, sym.Desc, sym.Interface)
	v.VisitJumpInsn(bytecode.OpIfne, end)
	v.VisitTypeInsn(bytecode.OpNew, sym.Denial)
	v.VisitInsn(bytecode.OpDup)
	v.VisitMethodInsn(bytecode.OpInvokespecial, sym.Denial, classfile.ConstructorName, "()V", false)
	v.VisitInsn(bytecode.OpAthrow)
	v.VisitLabel(end)
	if frame != nil {
		v.VisitFrame(*frame)
	}
}

// Runtime names the classes of the entitlement runtime used by the inheritance
// prologue and the wrapper stub.
type Runtime struct {
	// Checker is the checker interface.
	Checker string
	// Handle holds the static instance() accessor of the checker.
	Handle string
	// Util provides getCallerClass.
	Util string
	// Factory provides the bootstrap method of dispatching call sites.
	Factory string
}

// DefaultRuntime returns the stock runtime class names.
func DefaultRuntime() Runtime {
	return Runtime{
		Checker: "org/elasticsearch/EntitlementChecker",
		Handle:  "org/elasticsearch/EntitlementCheckerHandle",
		Util:    "org/elasticsearch/Util",
		Factory: "org/elasticsearch/CheckerFactory",
	}
}

// SiteName is the name of the dispatching call site.
const SiteName = "runCheck"

const (
	classDesc     = "Ljava/lang/Class;"
	bootstrapDesc = "(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;" +
		"Ljava/lang/String;Ljava/lang/invoke/MethodHandle;[Ljava/lang/Class;)Ljava/lang/invoke/CallSite;"
)

func (r Runtime) checkerDesc() string { return "L" + r.Checker + ";" }

// InstanceDesc is the descriptor of the checker accessor.
func (r Runtime) InstanceDesc() string { return "()" + r.checkerDesc() }

// SiteDesc is the descriptor of the dispatching call site.
func (r Runtime) SiteDesc() string { return "(" + r.checkerDesc() + classDesc + ")V" }

// CheckHandle is the method handle the call site binds to for capable callers.
func (r Runtime) CheckHandle() bytecode.Handle {
	return bytecode.Handle{
		Kind:      classfile.RefInvokeInterface,
		Owner:     r.Checker,
		Name:      "check",
		Desc:      "(" + classDesc + ")V",
		Interface: true,
	}
}

// Bootstrap is the bootstrap method of the dispatching call site.
func (r Runtime) Bootstrap() bytecode.Handle {
	return bytecode.Handle{
		Kind:  classfile.RefInvokeStatic,
		Owner: r.Factory,
		Name:  "bootstrap",
		Desc:  bootstrapDesc,
	}
}

// InheritanceStack is the operand stack depth the inheritance prologue needs.
const InheritanceStack = 2

// Inheritance emits a prologue that pushes the checker and the caller class and runs
// a dynamically linked call site. The bootstrap arguments are the method name, the
// check handle and the capability classes, in that order.
func Inheritance(v bytecode.MethodVisitor, rt Runtime, method string, capabilities []string) {
	v.VisitMethodInsn(bytecode.OpInvokestatic, rt.Handle, "instance", rt.InstanceDesc(), false)
	v.VisitMethodInsn(bytecode.OpInvokestatic, rt.Util, "getCallerClass", "()"+classDesc, false)
	args := make([]any, 0, 2+len(capabilities))
	args = append(args, method, rt.CheckHandle())
	for _, c := range capabilities {
		args = append(args, bytecode.ClassRef{Name: c})
	}
	v.VisitInvokeDynamicInsn(SiteName, rt.SiteDesc(), rt.Bootstrap(), args...)
}

// WrappedName returns the name the wrapped original method is renamed to.
func WrappedName(name string) string {
	return "original_" + name
}

// Target describes the method a stub forwards to.
type Target struct {
	Owner     string
	Name      string
	Desc      string
	Static    bool
	Interface bool
}

// Wrap emits the body of a stub that checks its caller, unless the current call was
// already checked, and then forwards its arguments to the wrapped original. frame is
// the initial frame of the stub.
func Wrap(v bytecode.MethodVisitor, rt Runtime, target Target, frame bytecode.Frame) error {
	mt, err := classfile.ParseMethodDescriptor(target.Desc)
	if err != nil {
		return err
	}
	call := bytecode.NewLabel()
	v.VisitCode()
	v.VisitMethodInsn(bytecode.OpInvokestatic, rt.Checker, "isCurrentCallAlreadyChecked", "()Z", true)
	v.VisitJumpInsn(bytecode.OpIfne, call)
	v.VisitMethodInsn(bytecode.OpInvokestatic, rt.Handle, "instance", rt.InstanceDesc(), false)
	v.VisitMethodInsn(bytecode.OpInvokestatic, rt.Util, "getCallerClass", "()"+classDesc, false)
	v.VisitMethodInsn(bytecode.OpInvokeinterface, rt.Checker, "check", "("+classDesc+")V", true)
	v.VisitLabel(call)
	v.VisitFrame(frame)

	locals := 0
	op := bytecode.OpInvokestatic
	if !target.Static {
		v.VisitVarInsn(bytecode.OpAload, 0)
		locals = 1
		op = bytecode.OpInvokespecial
	}
	locals = LoadArgs(v, mt, locals)
	v.VisitMethodInsn(op, target.Owner, target.Name, target.Desc, target.Interface)
	v.VisitInsn(ReturnOp(mt.Return))
	v.VisitMaxs(max(2, locals, classfile.SlotSize(mt.Return)), locals)
	return nil
}

// Native emits the body of a stub replacing a native method: the check prologue, then
// a static call to the bridge entry point with the receiver, if any, followed by the
// arguments.
func Native(v bytecode.MethodVisitor, sym CheckSymbols, bridge, owner, name, desc string, static bool, frame bytecode.Frame) error {
	mt, err := classfile.ParseMethodDescriptor(desc)
	if err != nil {
		return err
	}
	bridgeDesc := desc
	locals := 0
	v.VisitCode()
	Check(v, sym, &frame)
	if !static {
		bridgeDesc = "(L" + owner + ";" + strings.TrimPrefix(desc, "(")
		v.VisitVarInsn(bytecode.OpAload, 0)
		locals = 1
	}
	locals = LoadArgs(v, mt, locals)
	v.VisitMethodInsn(bytecode.OpInvokestatic, bridge, name, bridgeDesc, false)
	v.VisitInsn(ReturnOp(mt.Return))
	v.VisitMaxs(max(CheckStack, locals, classfile.SlotSize(mt.Return)), locals)
	return nil
}

// LoadArgs loads the arguments of mt, starting at local slot first, and returns the
// slot following the last argument.
func LoadArgs(v bytecode.MethodVisitor, mt classfile.MethodType, first int) int {
	slot := first
	for _, a := range mt.Args {
		v.VisitVarInsn(LoadOp(a), slot)
		slot += classfile.SlotSize(a)
	}
	return slot
}

// LoadOp returns the load instruction for a value of the given field type.
func LoadOp(fieldType string) int {
	switch fieldType[0] {
	case 'J':
		return bytecode.OpLload
	case 'F':
		return bytecode.OpFload
	case 'D':
		return bytecode.OpDload
	case 'L', '[':
		return bytecode.OpAload
	}
	return bytecode.OpIload
}

// ReturnOp returns the return instruction for a method returning the given type.
func ReturnOp(returnType string) int {
	switch returnType[0] {
	case 'V':
		return bytecode.OpReturn
	case 'J':
		return bytecode.OpLreturn
	case 'F':
		return bytecode.OpFreturn
	case 'D':
		return bytecode.OpDreturn
	case 'L', '[':
		return bytecode.OpAreturn
	}
	return bytecode.OpIreturn
}
