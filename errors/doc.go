// Package errors provides structured error types for the entitle module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the class and method being processed, an element path,
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindInvalidData).
//		Class("java/io/File").
//		Method("exists").
//		Path("Code", "StackMapTable").
//		Detail("unknown verification type %d", tag).
//		Build()
//
// Or use convenience constructors for the outcomes the rewriter distinguishes:
//
//	err := errors.Structural(errors.PhaseEncode, "branch offset %d out of range", off)
//	err := errors.UnsupportedShape("java/io/File", "list0", "native method")
//
// Sequencing errors signal programming mistakes in the emission protocol and are
// raised with panic rather than returned.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
