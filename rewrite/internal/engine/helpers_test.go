package engine

import (
	"testing"

	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
)

const sampleOwner = "com/example/FileAccess"

// nameSet targets methods by name.
type nameSet map[string]bool

func (s nameSet) MatchMethod(_, name, _ string) bool { return s[name] }

func targets(names ...string) nameSet {
	s := make(nameSet)
	for _, n := range names {
		s[n] = true
	}
	return s
}

type methodDef struct {
	body   func(bytecode.MethodVisitor)
	name   string
	desc   string
	access uint16
}

func newSampleClass(access uint16) *classfile.ClassFile {
	cf := &classfile.ClassFile{
		Pool:   classfile.NewPool(),
		Major:  classfile.VersionJava8,
		Access: access,
	}
	cf.ThisClass = cf.Pool.AddClass(sampleOwner)
	cf.SuperClass = cf.Pool.AddClass("java/lang/Object")
	return cf
}

func buildClass(t testing.TB, defs ...methodDef) []byte {
	t.Helper()
	return buildClassWith(t, newSampleClass(classfile.AccPublic|classfile.AccSuper), defs...)
}

func buildClassWith(t testing.TB, cf *classfile.ClassFile, defs ...methodDef) []byte {
	t.Helper()
	for _, s := range defs {
		w := bytecode.NewMethodWriter(cf, s.access, s.name, s.desc)
		if s.body != nil {
			s.body(w)
		}
		w.VisitEnd()
		m, err := w.Method()
		if err != nil {
			t.Fatalf("write %s: %v", s.name, err)
		}
		cf.Methods = append(cf.Methods, m)
	}
	data, err := cf.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}

// emptyBody is a void method that only returns.
func emptyBody(v bytecode.MethodVisitor) {
	v.VisitCode()
	v.VisitInsn(bytecode.OpReturn)
	v.VisitMaxs(0, 1)
}

// spinBody counts its int argument down to zero, jumping back to offset 0.
func spinBody(v bytecode.MethodVisitor) {
	start, done, end := bytecode.NewLabel(), bytecode.NewLabel(), bytecode.NewLabel()
	ints := bytecode.Frame{Locals: []bytecode.VerificationType{{Tag: bytecode.ItemInteger}}}
	v.VisitCode()
	v.VisitLabel(start)
	v.VisitLineNumber(7, start)
	v.VisitFrame(ints)
	v.VisitVarInsn(bytecode.OpIload, 0)
	v.VisitJumpInsn(bytecode.OpIfle, done)
	v.VisitIincInsn(0, -1)
	v.VisitJumpInsn(bytecode.OpGoto, start)
	v.VisitLabel(done)
	v.VisitLineNumber(9, done)
	v.VisitFrame(ints)
	v.VisitVarInsn(bytecode.OpIload, 0)
	v.VisitInsn(bytecode.OpIreturn)
	v.VisitLabel(end)
	v.VisitLocalVariable("n", "I", "", start, end, 0)
	v.VisitMaxs(1, 1)
}

// guardedBody reads a field inside a try block and returns null on failure.
func guardedBody(v bytecode.MethodVisitor) {
	start, stop, handler := bytecode.NewLabel(), bytecode.NewLabel(), bytecode.NewLabel()
	v.VisitCode()
	v.VisitTryCatchBlock(start, stop, handler, "java/lang/RuntimeException")
	v.VisitLabel(start)
	v.VisitVarInsn(bytecode.OpAload, 0)
	v.VisitFieldInsn(bytecode.OpGetfield, sampleOwner, "path", "Ljava/lang/String;")
	v.VisitLabel(stop)
	v.VisitInsn(bytecode.OpAreturn)
	v.VisitLabel(handler)
	v.VisitFrame(bytecode.Frame{
		Locals: []bytecode.VerificationType{{Tag: bytecode.ItemObject, Class: sampleOwner}},
		Stack:  []bytecode.VerificationType{{Tag: bytecode.ItemObject, Class: "java/lang/RuntimeException"}},
	})
	v.VisitVarInsn(bytecode.OpAstore, 1)
	v.VisitInsn(bytecode.OpAconstNull)
	v.VisitInsn(bytecode.OpAreturn)
	v.VisitMaxs(1, 2)
}

func ctorBody(v bytecode.MethodVisitor) {
	v.VisitCode()
	v.VisitVarInsn(bytecode.OpAload, 0)
	v.VisitMethodInsn(bytecode.OpInvokespecial, "java/lang/Object", "<init>", "()V", false)
	v.VisitInsn(bytecode.OpReturn)
	v.VisitMaxs(1, 1)
}

// sampleDefs is a class with a constructor and three regular methods.
func sampleDefs() []methodDef {
	return []methodDef{
		{name: "<init>", desc: "()V", access: classfile.AccPublic, body: ctorBody},
		{name: "m", desc: "()V", access: classfile.AccPublic, body: emptyBody},
		{name: "spin", desc: "(I)I", access: classfile.AccPublic | classfile.AccStatic, body: spinBody},
		{name: "path", desc: "()Ljava/lang/String;", access: classfile.AccPublic, body: guardedBody},
	}
}

func parse(t testing.TB, data []byte) *classfile.ClassFile {
	t.Helper()
	cf, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cf
}

func method(t testing.TB, cf *classfile.ClassFile, name string) *classfile.Member {
	t.Helper()
	for _, m := range cf.Methods {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("method %s not found", name)
	return nil
}

func trace(t testing.TB, data []byte, name string) string {
	t.Helper()
	cf := parse(t, data)
	text, err := bytecode.Trace(cf, method(t, cf, name))
	if err != nil {
		t.Fatalf("Trace(%s) error = %v", name, err)
	}
	return text
}

func rewrite(t testing.TB, cfg Config, data []byte) Outcome {
	t.Helper()
	out, err := New(cfg).Rewrite(data)
	if err != nil {
		t.Fatalf("Rewrite(%v) error = %v", cfg.Strategy, err)
	}
	return out
}
