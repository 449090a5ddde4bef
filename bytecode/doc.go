// Package bytecode turns JVM method bodies into a stream of visitor events and back.
//
// Accept decodes a method of a parsed class file and reports it to a MethodVisitor;
// MethodWriter is a MethodVisitor that encodes the events it receives into a new method.
// Rewriting passes sit between the two, usually by embedding Adapter and overriding the
// events they care about:
//
//	w := bytecode.NewMethodWriter(cf, m.Access, m.Name, m.Descriptor)
//	if err := bytecode.Accept(cf, m, &myPass{Adapter: bytecode.Adapter{Next: w}}); err != nil {
//	    return err
//	}
//	rewritten, err := w.Method()
//
// Branch targets, exception ranges, line numbers, local variable ranges and stack map
// frames are expressed with *Label values, so inserted code shifts offsets without any
// bookkeeping by the pass. Stack map frames are reported fully expanded and written back
// as full frames; the writer does not compute frames or max stack, passes that add code
// must supply them.
package bytecode
