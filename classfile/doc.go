// Package classfile parses and encodes JVM class files.
//
// The package understands the container: header, constant pool, fields, methods,
// attributes, and the few attributes the rewriter has to interpret (Code,
// BootstrapMethods, annotations, MethodParameters). Instruction streams are decoded by
// the bytecode package.
//
// # Parsing and Encoding
//
//	cf, err := classfile.Parse(data)
//	if err != nil {
//	    return err
//	}
//	out, err := cf.Encode()
//
// Encoding an unmodified parse reproduces the input bytes exactly. The constant pool is
// append-only: Add* helpers return the index of an existing equal entry and only append
// when there is none, so code that is not rewritten keeps valid indices and a second
// rewrite of already rewritten input adds nothing.
//
// Utf8 entries are kept as raw modified UTF-8 bytes. Internal names and descriptors
// compare correctly as long as they are ASCII, which holds for the names the rewriter
// creates.
package classfile
