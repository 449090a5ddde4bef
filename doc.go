// Package entitle instruments compiled JVM methods with entitlement checks.
//
// The rewriter reads a class file, decides for every targeted method whether the check
// prologue is already present, and emits either the unchanged input or a new class file
// in which the targeted methods start with
//
//	invokestatic EntitlementChecker.check()Z
//	ifne END
//	new UnsupportedOperationException; dup; invokespecial <init>; athrow
//	END:
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	entitle/             Root package with the MethodKey lookup key
//	├── rewrite/         Public API: Config, strategies, Transform, IsInstrumented
//	├── linkage/         Late-bound call-site resolution for inheritance dispatch
//	├── bytecode/        Method event model: reader, writer, printer
//	├── classfile/       Class file parsing and encoding
//	├── config/          YAML configuration
//	├── errors/          Structured error types for debugging
//	├── testbed/         Class builders and end-to-end tests
//	├── internal/watch/  Directory watcher rewriting classes as they appear
//	├── internal/cli/    Cobra commands: rewrite, check, inspect, link, watch
//	└── cmd/entitle/     Command line driver
//
// # Quick Start
//
// Instrument a method:
//
//	out, err := rewrite.Rewrite(classBytes, []string{"openFile"}, rewrite.StrategySinglePass)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if out.Rewritten {
//	    os.WriteFile(path, out.Bytes, 0o644)
//	}
//
// # Strategies
//
// All strategies insert the same prologue and differ in how they avoid inserting it
// twice:
//
//   - blind: always inserts
//   - two-pass: matches first, re-reads and inserts only where missing
//   - single-pass: buffers each body, matches it, then replays it with or without the prologue
//   - annotate: skips methods carrying a marker annotation, marks the rest
//   - inheritance: inserts a dynamically linked check bound per call site
//   - wrap: renames the original and generates a checking stub
//
// # Thread Safety
//
// Rewrite calls share no mutable state and may run concurrently. linkage.Linker is
// safe for concurrent use.
package entitle
