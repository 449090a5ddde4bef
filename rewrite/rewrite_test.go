package rewrite

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/testbed"
)

const owner = "com/example/FileAccess"

func sample(t *testing.T) []byte {
	t.Helper()
	data, err := testbed.Build(testbed.FileAccess(owner))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return data
}

func methodTrace(t *testing.T, data []byte, name string) string {
	t.Helper()
	cf, err := classfile.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range cf.Methods {
		if m.Name == name {
			text, err := bytecode.Trace(cf, m)
			if err != nil {
				t.Fatal(err)
			}
			return text
		}
	}
	t.Fatalf("method %s not found", name)
	return ""
}

func TestRewriteTwoPass(t *testing.T) {
	data := sample(t)
	out, err := Rewrite(data, []string{"m", "spin(I)I"}, StrategyTwoPass)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Rewritten || len(out.Methods) != 2 {
		t.Fatalf("rewritten = %v, methods = %v", out.Rewritten, out.Methods)
	}
	for _, name := range []string{"m", "spin"} {
		ok, err := IsInstrumented(out.Bytes, name)
		if err != nil || !ok {
			t.Errorf("IsInstrumented(%s) = %v, %v", name, ok, err)
		}
	}
	if ok, _ := IsInstrumented(out.Bytes, "<init>"); ok {
		t.Error("untargeted constructor reported instrumented")
	}

	again, err := Rewrite(out.Bytes, []string{"m", "spin(I)I"}, StrategyTwoPass)
	if err != nil {
		t.Fatal(err)
	}
	if again.Rewritten {
		t.Error("instrumented class rewritten again")
	}
}

func TestRewriteSinglePassPassThrough(t *testing.T) {
	data := sample(t)
	blind, err := Rewrite(data, []string{"spin"}, StrategyBlindInsert)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Rewrite(blind.Bytes, []string{"spin"}, StrategySinglePass)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Methods) != 0 {
		t.Errorf("Methods = %v", out.Methods)
	}
	if !bytes.Equal(out.Bytes, blind.Bytes) {
		t.Error("pass-through changed the class")
	}
}

func TestRewriteDescriptorSelectsOverload(t *testing.T) {
	data := sample(t)
	out, err := Rewrite(data, []string{"spin(J)J"}, StrategyBlindInsert)
	if err != nil {
		t.Fatal(err)
	}
	if out.Rewritten {
		t.Error("descriptor mismatch still rewrote spin")
	}
}

func TestRewriteNative(t *testing.T) {
	data := sample(t)
	_, err := Rewrite(data, []string{"open"}, StrategyTwoPass)
	if !errors.IsUnsupportedShape(err) {
		t.Fatalf("err = %v, want unsupported shape", err)
	}

	out, err := Transform(data, Config{Targets: []string{"open"}, NativeBridge: "com/example/Natives", Strategy: StrategySinglePass})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(methodTrace(t, out.Bytes, "open"), "INVOKESTATIC com/example/Natives.open (Lcom/example/FileAccess;II)I") {
		t.Error("bridge call missing")
	}
}

func TestTransformCustomSymbols(t *testing.T) {
	data := sample(t)
	sym := CheckSymbols{Owner: "a/Policy", Name: "allowed", Desc: "()Z", Denial: "java/lang/SecurityException"}
	r, err := New(Config{
		Matcher:  NewMethodPrefixMatcher([]string{"sp"}),
		Check:    sym,
		Strategy: StrategyTwoPass,
	})
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Rewrite(data)
	if err != nil {
		t.Fatal(err)
	}
	text := methodTrace(t, out.Bytes, "spin")
	if !strings.Contains(text, "INVOKESTATIC a/Policy.allowed ()Z") || !strings.Contains(text, "NEW java/lang/SecurityException") {
		t.Errorf("custom prologue missing:\n%s", text)
	}
	if ok, err := r.Instrumented(out.Bytes, owner+".spin"); err != nil || !ok {
		t.Errorf("Instrumented = %v, %v", ok, err)
	}
	// The default symbols do not see the custom prologue.
	if ok, _ := IsInstrumented(out.Bytes, "spin"); ok {
		t.Error("default matcher accepted a custom prologue")
	}
}

func TestNewRejectsMalformedTargets(t *testing.T) {
	if _, err := New(Config{Targets: []string{"open("}}); err == nil {
		t.Error("malformed target accepted")
	}
	if _, err := Transform(nil, Config{Targets: []string{""}}); err == nil {
		t.Error("empty target accepted")
	}
}

func TestIsInstrumentedErrors(t *testing.T) {
	data := sample(t)
	if _, err := IsInstrumented(data, "missing"); err == nil {
		t.Error("missing method accepted")
	}
	if _, err := IsInstrumented([]byte{1, 2, 3}, "m"); !errors.IsStructural(err) {
		t.Errorf("err = %v, want structural", err)
	}
}

func TestParseStrategyNames(t *testing.T) {
	for _, name := range []string{"blind", "two-pass", "single-pass", "inheritance", "annotate", "wrap"} {
		s, err := ParseStrategy(name)
		if err != nil {
			t.Fatal(err)
		}
		if s.String() != name {
			t.Errorf("String() = %q, want %q", s.String(), name)
		}
	}
}
