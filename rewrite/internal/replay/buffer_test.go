package replay

import (
	"fmt"
	"strings"
	"testing"

	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/errors"
)

// callLog records every event name it receives.
type callLog struct {
	bytecode.Discard
	calls []string
}

func (c *callLog) VisitCode()                  { c.calls = append(c.calls, "code") }
func (c *callLog) VisitInsn(op int)            { c.calls = append(c.calls, bytecode.Name(op)) }
func (c *callLog) VisitVarInsn(op, index int)  { c.calls = append(c.calls, fmt.Sprintf("%s %d", bytecode.Name(op), index)) }
func (c *callLog) VisitLabel(*bytecode.Label)  { c.calls = append(c.calls, "label") }
func (c *callLog) VisitMaxs(stack, locals int) { c.calls = append(c.calls, fmt.Sprintf("maxs %d %d", stack, locals)) }
func (c *callLog) VisitEnd()                   { c.calls = append(c.calls, "end") }
func (c *callLog) VisitJumpInsn(op int, _ *bytecode.Label) {
	c.calls = append(c.calls, bytecode.Name(op))
}

func expectSequencing(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		err, ok := r.(error)
		if !ok || !errors.IsSequencing(err) {
			t.Fatalf("panic value = %v, want a sequencing error", r)
		}
	}()
	f()
}

func TestFinalizeReplaysInOrder(t *testing.T) {
	b := NewBuffer()
	l := bytecode.NewLabel()
	b.VisitCode()
	b.VisitLabel(l)
	b.VisitVarInsn(bytecode.OpIload, 1)
	b.VisitJumpInsn(bytecode.OpIfeq, l)
	b.VisitInsn(bytecode.OpReturn)
	b.VisitMaxs(1, 2)

	sink := &callLog{}
	b.SetSink(sink)
	if len(sink.calls) != 0 {
		t.Fatalf("sink received events before finalize: %v", sink.calls)
	}
	b.Finalize()

	want := "code label ILOAD 1 IFEQ RETURN maxs 1 2 end"
	if got := strings.Join(sink.calls, " "); got != want {
		t.Errorf("replay = %q, want %q", got, want)
	}
}

func TestFinalizeCallsSinkNPlusOneTimes(t *testing.T) {
	for _, n := range []int{0, 1, 5, 64} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			b := NewBuffer()
			var order []int
			for i := 0; i < n; i++ {
				i := i
				b.Record(func(bytecode.MethodVisitor) { order = append(order, i) })
			}
			if b.Len() != n {
				t.Fatalf("Len = %d, want %d", b.Len(), n)
			}
			sink := &callLog{}
			b.SetSink(sink)
			b.Finalize()

			if len(order)+len(sink.calls) != n+1 {
				t.Errorf("sink calls = %d, want %d", len(order)+len(sink.calls), n+1)
			}
			for i, v := range order {
				if v != i {
					t.Fatalf("action %d replayed at position %d", v, i)
				}
			}
			if len(sink.calls) != 1 || sink.calls[0] != "end" {
				t.Errorf("trailing calls = %v, want [end]", sink.calls)
			}
		})
	}
}

func TestVisitEndFinalizes(t *testing.T) {
	b := NewBuffer()
	b.VisitInsn(bytecode.OpNop)
	sink := &callLog{}
	b.SetSink(sink)
	b.VisitEnd()
	if got := strings.Join(sink.calls, " "); got != "NOP end" {
		t.Errorf("replay = %q", got)
	}
}

func TestBufferMisuse(t *testing.T) {
	t.Run("finalize without sink", func(t *testing.T) {
		expectSequencing(t, func() { NewBuffer().Finalize() })
	})
	t.Run("sink set twice", func(t *testing.T) {
		b := NewBuffer()
		b.SetSink(&callLog{})
		expectSequencing(t, func() { b.SetSink(&callLog{}) })
	})
	t.Run("nil sink", func(t *testing.T) {
		expectSequencing(t, func() { NewBuffer().SetSink(nil) })
	})
	t.Run("finalize twice", func(t *testing.T) {
		b := NewBuffer()
		sink := &callLog{}
		b.SetSink(sink)
		b.Finalize()
		expectSequencing(t, b.Finalize)
		if len(sink.calls) != 1 {
			t.Errorf("sink calls = %v, want a single end", sink.calls)
		}
	})
	t.Run("record after finalize", func(t *testing.T) {
		b := NewBuffer()
		b.SetSink(&callLog{})
		b.Finalize()
		expectSequencing(t, func() { b.VisitInsn(bytecode.OpNop) })
	})
}
