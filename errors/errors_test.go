package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseParse,
				Kind:   KindInvalidData,
				Path:   []string{"Code", "StackMapTable"},
				Class:  "java/io/File",
				Method: "exists",
				Detail: "truncated frame",
			},
			contains: []string{"[parse]", "invalid_data", "Code.StackMapTable", "java/io/File.exists", "truncated frame"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseEncode,
				Kind:  KindOverflow,
			},
			contains: []string{"[encode]", "overflow"},
		},
		{
			name: "class only",
			err: &Error{
				Phase:  PhaseRewrite,
				Kind:   KindUnsupported,
				Class:  "java/lang/Runtime",
				Detail: "native",
			},
			contains: []string{"[rewrite]", "java/lang/Runtime - native"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseConfig,
				Kind:   KindInvalidInput,
				Detail: "bad file",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[config]", "invalid_input", "bad file", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseParse,
		Kind:  KindInvalidData,
		Path:  []string{"constant_pool"},
	}

	if !err.Is(&Error{Phase: PhaseParse, Kind: KindInvalidData}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindInvalidData}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseParse, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	wrapped := fmt.Errorf("rewrite: %w", err)
	if !errors.Is(wrapped, &Error{Phase: PhaseParse, Kind: KindInvalidData}) {
		t.Error("errors.Is should match through fmt wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseRewrite, KindUnsupported).
		Path("methods", "3").
		Class("java/io/File").
		Method("list0").
		Value(0x0100).
		Cause(cause).
		Detail("access flags %#x", 0x0100).
		Build()

	if err.Phase != PhaseRewrite {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseRewrite)
	}
	if err.Kind != KindUnsupported {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
	}
	if len(err.Path) != 2 || err.Path[0] != "methods" || err.Path[1] != "3" {
		t.Errorf("Path = %v, want [methods 3]", err.Path)
	}
	if err.Class != "java/io/File" || err.Method != "list0" {
		t.Errorf("Class=%v Method=%v", err.Class, err.Method)
	}
	if err.Value != 0x0100 {
		t.Errorf("Value = %v, want 256", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "access flags 0x100" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Structural", func(t *testing.T) {
		err := Structural(PhaseEncode, "branch offset %d out of range", 40000)
		if err.Kind != KindInvalidData {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidData)
		}
		if !strings.Contains(err.Detail, "40000") {
			t.Errorf("Detail = %v, should contain offset", err.Detail)
		}
	})

	t.Run("UnsupportedShape", func(t *testing.T) {
		err := UnsupportedShape("java/lang/Runtime", "exec0", "native method")
		if err.Kind != KindUnsupported || err.Phase != PhaseRewrite {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("Sequencing", func(t *testing.T) {
		err := Sequencing(PhaseReplay, "sink already set")
		if err.Kind != KindSequencing {
			t.Errorf("Kind = %v, want %v", err.Kind, KindSequencing)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseParse, []string{"constant_pool"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseEncode, []string{"max_stack"}, 70000, "u2")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseRewrite, "method", "exists")
		if !strings.Contains(err.Detail, `"exists"`) {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("ParseFailed", func(t *testing.T) {
		err := ParseFailed("class file", errors.New("eof"))
		if err.Phase != PhaseParse || err.Kind != KindInvalidData {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})
}

func TestKindPredicates(t *testing.T) {
	structural := Structural(PhaseParse, "bad magic")
	unsupported := UnsupportedShape("A", "m", "abstract method")
	sequencing := Sequencing(PhaseReplay, "finalize twice")

	tests := []struct {
		name string
		err  error
		fn   func(error) bool
		want bool
	}{
		{"structural direct", structural, IsStructural, true},
		{"structural wrapped", fmt.Errorf("class A: %w", structural), IsStructural, true},
		{"structural as cause", Wrap(PhaseRewrite, KindInvalidInput, structural, "x"), IsStructural, true},
		{"unsupported not structural", unsupported, IsStructural, false},
		{"unsupported", unsupported, IsUnsupportedShape, true},
		{"sequencing", sequencing, IsSequencing, true},
		{"denied", Denied("a/Caller", "delete"), IsDenied, true},
		{"denied wrapped", fmt.Errorf("check: %w", Denied("a/Caller", "delete")), IsDenied, true},
		{"sequencing not denied", sequencing, IsDenied, false},
		{"not found", NotFound(PhaseMatch, "method", "delete"), IsNotFound, true},
		{"denied not found", Denied("a/Caller", "delete"), IsNotFound, false},
		{"plain error", errors.New("x"), IsStructural, false},
		{"nil", nil, IsUnsupportedShape, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
