// Package testbed builds small class files for tests and exercises the rewriter end to
// end against them.
package testbed

import (
	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
)

// Method describes one method of a generated class. A nil Body produces a method without
// code, as native and abstract methods are.
type Method struct {
	Body   func(bytecode.MethodVisitor)
	Name   string
	Desc   string
	Access uint16
}

// Class describes a generated class.
type Class struct {
	Name       string
	Super      string // java/lang/Object when empty
	Interfaces []string
	Methods    []Method
	Access     uint16 // public when zero
}

// Build encodes the class as Java 8 class file bytes.
func Build(c Class) ([]byte, error) {
	access := c.Access
	if access == 0 {
		access = classfile.AccPublic | classfile.AccSuper
	}
	super := c.Super
	if super == "" {
		super = "java/lang/Object"
	}
	cf := &classfile.ClassFile{
		Pool:   classfile.NewPool(),
		Major:  classfile.VersionJava8,
		Access: access,
	}
	cf.ThisClass = cf.Pool.AddClass(c.Name)
	cf.SuperClass = cf.Pool.AddClass(super)
	for _, i := range c.Interfaces {
		cf.Interfaces = append(cf.Interfaces, cf.Pool.AddClass(i))
	}
	for _, m := range c.Methods {
		w := bytecode.NewMethodWriter(cf, m.Access, m.Name, m.Desc)
		if m.Body != nil {
			m.Body(w)
		}
		w.VisitEnd()
		member, err := w.Method()
		if err != nil {
			return nil, err
		}
		cf.Methods = append(cf.Methods, member)
	}
	return cf.Encode()
}

// Void is the body of a method that only returns.
func Void(v bytecode.MethodVisitor) {
	v.VisitCode()
	v.VisitInsn(bytecode.OpReturn)
	v.VisitMaxs(0, 1)
}

// Constructor returns the body of a no-argument constructor calling super.<init>.
func Constructor(super string) func(bytecode.MethodVisitor) {
	return func(v bytecode.MethodVisitor) {
		v.VisitCode()
		v.VisitVarInsn(bytecode.OpAload, 0)
		v.VisitMethodInsn(bytecode.OpInvokespecial, super, "<init>", "()V", false)
		v.VisitInsn(bytecode.OpReturn)
		v.VisitMaxs(1, 1)
	}
}

// Countdown is the body of a static (I)I method that loops back to offset 0 until its
// argument reaches zero.
func Countdown(v bytecode.MethodVisitor) {
	start, done := bytecode.NewLabel(), bytecode.NewLabel()
	ints := bytecode.Frame{Locals: []bytecode.VerificationType{{Tag: bytecode.ItemInteger}}}
	v.VisitCode()
	v.VisitLabel(start)
	v.VisitFrame(ints)
	v.VisitVarInsn(bytecode.OpIload, 0)
	v.VisitJumpInsn(bytecode.OpIfle, done)
	v.VisitIincInsn(0, -1)
	v.VisitJumpInsn(bytecode.OpGoto, start)
	v.VisitLabel(done)
	v.VisitFrame(ints)
	v.VisitVarInsn(bytecode.OpIload, 0)
	v.VisitInsn(bytecode.OpIreturn)
	v.VisitMaxs(1, 1)
}

// FileAccess is a class with a constructor, a void method "m", a static "spin(I)I" and a
// native "open(II)I".
func FileAccess(name string) Class {
	return Class{
		Name: name,
		Methods: []Method{
			{Name: "<init>", Desc: "()V", Access: classfile.AccPublic, Body: Constructor("java/lang/Object")},
			{Name: "m", Desc: "()V", Access: classfile.AccPublic, Body: Void},
			{Name: "spin", Desc: "(I)I", Access: classfile.AccPublic | classfile.AccStatic, Body: Countdown},
			{Name: "open", Desc: "(II)I", Access: classfile.AccPublic | classfile.AccNative},
		},
	}
}
