package bytecode

import (
	"math"

	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/internal/binary"
)

type fixup struct {
	label *Label
	insn  int
	pos   int
	wide  bool
}

type pendingHandler struct {
	start, end, handler *Label
	typ                 string
}

type pendingLine struct {
	start *Label
	line  int
}

type pendingLocal struct {
	start, end            *Label
	name, desc, signature string
	index                 int
}

type pendingFrame struct {
	frame Frame
	pos   int
}

// MethodWriter is a MethodVisitor that encodes the events it receives into a method
// member of cf. New constants are interned in cf's pool and bootstrap table.
//
// Encoding is deterministic: short load/store forms are used for slots 0-3, ldc_w only
// when the index does not fit a byte, and every stack map frame is written as a
// full_frame. Reading a written method and writing it again yields the same bytes.
type MethodWriter struct {
	cf        *classfile.ClassFile
	offsets   map[*Label]int
	code      *binary.Writer
	member    *classfile.Member
	err       error
	name      string
	desc      string
	params    []classfile.Parameter
	visible   []classfile.Annotation
	hidden    []classfile.Annotation
	attrs     []classfile.Attribute
	fixups    []fixup
	handlers  []pendingHandler
	lines     []pendingLine
	locals    []pendingLocal
	frames    []pendingFrame
	maxStack  int
	maxLocals int
	access    uint16
	hasCode   bool
}

// NewMethodWriter creates a writer for a method with the given access flags, name and
// descriptor.
func NewMethodWriter(cf *classfile.ClassFile, access uint16, name, desc string) *MethodWriter {
	return &MethodWriter{
		cf:      cf,
		access:  access,
		name:    name,
		desc:    desc,
		offsets: make(map[*Label]int),
		code:    binary.NewWriter(),
	}
}

// Method returns the encoded method. It is available after VisitEnd.
func (w *MethodWriter) Method() (*classfile.Member, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.member == nil {
		return nil, errors.Sequencing(errors.PhaseEncode, "method requested before VisitEnd")
	}
	return w.member, nil
}

func (w *MethodWriter) fail(detail string, args ...any) {
	if w.err != nil {
		return
	}
	err := errors.Structural(errors.PhaseEncode, detail, args...)
	err.Class = w.cf.Name()
	err.Method = w.name + w.desc
	w.err = err
}

func (w *MethodWriter) VisitParameter(name string, access uint16) {
	w.params = append(w.params, classfile.Parameter{Name: name, Access: access})
}

func (w *MethodWriter) VisitAnnotation(a classfile.Annotation, visible bool) {
	if visible {
		w.visible = append(w.visible, a)
	} else {
		w.hidden = append(w.hidden, a)
	}
}

func (w *MethodWriter) VisitAttribute(attr classfile.Attribute) {
	w.attrs = append(w.attrs, attr)
}

func (w *MethodWriter) VisitCode() {
	w.hasCode = true
}

func (w *MethodWriter) VisitFrame(f Frame) {
	pos := w.code.Len()
	if n := len(w.frames); n > 0 && w.frames[n-1].pos == pos {
		w.frames[n-1].frame = f
		return
	}
	w.frames = append(w.frames, pendingFrame{pos: pos, frame: f})
}

func (w *MethodWriter) VisitInsn(op int) {
	w.code.Byte(byte(op))
}

func (w *MethodWriter) VisitIntInsn(op, operand int) {
	switch op {
	case OpBipush:
		if operand < math.MinInt8 || operand > math.MaxInt8 {
			w.fail("bipush operand %d out of range", operand)
		}
		w.code.Byte(byte(op))
		w.code.Byte(byte(int8(operand)))
	case OpSipush:
		if operand < math.MinInt16 || operand > math.MaxInt16 {
			w.fail("sipush operand %d out of range", operand)
		}
		w.code.Byte(byte(op))
		w.code.U2(uint16(int16(operand)))
	default:
		w.code.Byte(byte(op))
		w.code.Byte(byte(operand))
	}
}

func (w *MethodWriter) VisitVarInsn(op, index int) {
	switch {
	case index > math.MaxUint8:
		w.code.Byte(OpWide)
		w.code.Byte(byte(op))
		w.code.U2(uint16(index))
	case index <= 3 && op >= OpIload && op <= OpAload:
		w.code.Byte(byte(OpIload0 + (op-OpIload)<<2 + index))
	case index <= 3 && op >= OpIstore && op <= OpAstore:
		w.code.Byte(byte(OpIstore0 + (op-OpIstore)<<2 + index))
	default:
		w.code.Byte(byte(op))
		w.code.Byte(byte(index))
	}
}

func (w *MethodWriter) VisitTypeInsn(op int, typ string) {
	w.code.Byte(byte(op))
	w.code.U2(w.cf.Pool.AddClass(typ))
}

func (w *MethodWriter) VisitFieldInsn(op int, owner, name, desc string) {
	w.code.Byte(byte(op))
	w.code.U2(w.cf.Pool.AddFieldRef(owner, name, desc))
}

func (w *MethodWriter) VisitMethodInsn(op int, owner, name, desc string, itf bool) {
	w.code.Byte(byte(op))
	w.code.U2(w.cf.Pool.AddMethodRef(owner, name, desc, itf))
	if op == OpInvokeinterface {
		mt, err := classfile.ParseMethodDescriptor(desc)
		if err != nil {
			w.fail("invokeinterface %s.%s: %v", owner, name, err)
		}
		w.code.Byte(byte(mt.ArgSlots() + 1))
		w.code.Byte(0)
	}
}

func (w *MethodWriter) VisitInvokeDynamicInsn(name, desc string, bsm Handle, args ...any) {
	idx, err := bootstrapIndex(w.cf, bsm, args)
	if err != nil {
		w.fail("invokedynamic %s: %v", name, err)
	}
	w.code.Byte(OpInvokedynamic)
	w.code.U2(w.cf.Pool.AddDynamic(classfile.TagInvokeDynamic, idx, name, desc))
	w.code.U2(0)
}

func (w *MethodWriter) VisitJumpInsn(op int, target *Label) {
	insn := w.code.Len()
	w.code.Byte(byte(op))
	w.fixups = append(w.fixups, fixup{label: target, insn: insn, pos: w.code.Len()})
	w.code.U2(0)
}

func (w *MethodWriter) VisitLabel(l *Label) {
	if _, ok := w.offsets[l]; ok {
		w.fail("label visited twice")
		return
	}
	w.offsets[l] = w.code.Len()
}

func (w *MethodWriter) VisitLdcInsn(value any) {
	idx, err := constantIndex(w.cf, value)
	if err != nil {
		w.fail("ldc: %v", err)
	}
	switch {
	case isWide(value):
		w.code.Byte(OpLdc2W)
		w.code.U2(idx)
	case idx > math.MaxUint8:
		w.code.Byte(OpLdcW)
		w.code.U2(idx)
	default:
		w.code.Byte(OpLdc)
		w.code.Byte(byte(idx))
	}
}

func (w *MethodWriter) VisitIincInsn(index, increment int) {
	if index > math.MaxUint8 || increment < math.MinInt8 || increment > math.MaxInt8 {
		w.code.Byte(OpWide)
		w.code.Byte(OpIinc)
		w.code.U2(uint16(index))
		w.code.U2(uint16(int16(increment)))
		return
	}
	w.code.Byte(OpIinc)
	w.code.Byte(byte(index))
	w.code.Byte(byte(int8(increment)))
}

func (w *MethodWriter) switchTarget(insn int, l *Label) {
	w.fixups = append(w.fixups, fixup{label: l, insn: insn, pos: w.code.Len(), wide: true})
	w.code.U4(0)
}

func (w *MethodWriter) switchHeader(op int) int {
	insn := w.code.Len()
	w.code.Byte(byte(op))
	for w.code.Len()%4 != 0 {
		w.code.Byte(0)
	}
	return insn
}

func (w *MethodWriter) VisitTableSwitchInsn(low, high int32, dflt *Label, targets ...*Label) {
	if int64(high)-int64(low)+1 != int64(len(targets)) {
		w.fail("tableswitch [%d, %d] with %d targets", low, high, len(targets))
	}
	insn := w.switchHeader(OpTableswitch)
	w.switchTarget(insn, dflt)
	w.code.U4(uint32(low))
	w.code.U4(uint32(high))
	for _, t := range targets {
		w.switchTarget(insn, t)
	}
}

func (w *MethodWriter) VisitLookupSwitchInsn(dflt *Label, keys []int32, targets []*Label) {
	if len(keys) != len(targets) {
		w.fail("lookupswitch with %d keys and %d targets", len(keys), len(targets))
		return
	}
	insn := w.switchHeader(OpLookupswitch)
	w.switchTarget(insn, dflt)
	w.code.U4(uint32(len(keys)))
	for i, k := range keys {
		w.code.U4(uint32(k))
		w.switchTarget(insn, targets[i])
	}
}

func (w *MethodWriter) VisitMultiANewArrayInsn(desc string, dims int) {
	w.code.Byte(OpMultianewarray)
	w.code.U2(w.cf.Pool.AddClass(desc))
	w.code.Byte(byte(dims))
}

func (w *MethodWriter) VisitTryCatchBlock(start, end, handler *Label, typ string) {
	w.handlers = append(w.handlers, pendingHandler{start: start, end: end, handler: handler, typ: typ})
}

func (w *MethodWriter) VisitLocalVariable(name, desc, signature string, start, end *Label, index int) {
	w.locals = append(w.locals, pendingLocal{
		name: name, desc: desc, signature: signature,
		start: start, end: end, index: index,
	})
}

func (w *MethodWriter) VisitLineNumber(line int, start *Label) {
	w.lines = append(w.lines, pendingLine{line: line, start: start})
}

func (w *MethodWriter) VisitMaxs(maxStack, maxLocals int) {
	w.maxStack, w.maxLocals = maxStack, maxLocals
}

func (w *MethodWriter) VisitEnd() {
	if w.member != nil {
		w.fail("VisitEnd called twice")
		return
	}
	m := w.cf.NewMember(w.access, w.name, w.desc)
	if w.hasCode {
		code := w.encodeCode()
		if w.err != nil {
			return
		}
		m.Attributes = append(m.Attributes, w.cf.NewAttribute(classfile.AttrCode, code))
	}
	m.Attributes = append(m.Attributes, w.attrs...)
	if len(w.params) > 0 {
		m.Attributes = append(m.Attributes, w.cf.NewAttribute(classfile.AttrMethodParameters,
			classfile.EncodeParameters(w.cf.Pool, w.params)))
	}
	if len(w.visible) > 0 {
		m.Attributes = append(m.Attributes, w.cf.NewAttribute(classfile.AttrRuntimeVisibleAnnotations,
			classfile.EncodeAnnotations(w.cf.Pool, w.visible)))
	}
	if len(w.hidden) > 0 {
		m.Attributes = append(m.Attributes, w.cf.NewAttribute(classfile.AttrRuntimeInvisibleAnnotations,
			classfile.EncodeAnnotations(w.cf.Pool, w.hidden)))
	}
	w.member = m
}

func (w *MethodWriter) offset(l *Label) (int, bool) {
	off, ok := w.offsets[l]
	if !ok {
		w.fail("label never placed")
	}
	return off, ok
}

func (w *MethodWriter) encodeCode() []byte {
	bytecode := w.code.Bytes()
	if len(bytecode) == 0 || len(bytecode) > math.MaxUint16 {
		w.fail("code length %d out of range", len(bytecode))
		return nil
	}
	for _, f := range w.fixups {
		target, ok := w.offset(f.label)
		if !ok {
			return nil
		}
		rel := target - f.insn
		if f.wide {
			w.code.PatchU4(f.pos, uint32(int32(rel)))
			continue
		}
		if rel < math.MinInt16 || rel > math.MaxInt16 {
			w.fail("branch offset %d at %d does not fit 16 bits", rel, f.insn)
			return nil
		}
		w.code.PatchU2(f.pos, uint16(int16(rel)))
	}
	if w.maxStack > math.MaxUint16 || w.maxLocals > math.MaxUint16 {
		w.fail("max_stack %d or max_locals %d out of range", w.maxStack, w.maxLocals)
		return nil
	}

	c := &classfile.Code{
		MaxStack:  uint16(w.maxStack),
		MaxLocals: uint16(w.maxLocals),
		Bytecode:  w.code.Bytes(),
	}
	for _, h := range w.handlers {
		start, ok1 := w.offset(h.start)
		end, ok2 := w.offset(h.end)
		handler, ok3 := w.offset(h.handler)
		if !ok1 || !ok2 || !ok3 {
			return nil
		}
		if start >= end {
			continue
		}
		var catch uint16
		if h.typ != "" {
			catch = w.cf.Pool.AddClass(h.typ)
		}
		c.Handlers = append(c.Handlers, classfile.ExceptionHandler{
			StartPC: uint16(start), EndPC: uint16(end), HandlerPC: uint16(handler), CatchType: catch,
		})
	}

	if len(w.lines) > 0 {
		lw := binary.NewWriter()
		lw.U2(uint16(len(w.lines)))
		for _, l := range w.lines {
			off, ok := w.offset(l.start)
			if !ok {
				return nil
			}
			lw.U2(uint16(off))
			lw.U2(uint16(l.line))
		}
		c.Attributes = append(c.Attributes, w.cf.NewAttribute(classfile.AttrLineNumberTable, lw.Bytes()))
	}

	if len(w.locals) > 0 {
		plain, typed := binary.NewWriter(), binary.NewWriter()
		var nPlain, nTyped uint16
		for _, l := range w.locals {
			start, ok1 := w.offset(l.start)
			end, ok2 := w.offset(l.end)
			if !ok1 || !ok2 {
				return nil
			}
			if end < start {
				continue
			}
			if l.desc != "" {
				nPlain++
				writeLocal(plain, w.cf.Pool, start, end, l.name, l.desc, l.index)
			}
			if l.signature != "" {
				nTyped++
				writeLocal(typed, w.cf.Pool, start, end, l.name, l.signature, l.index)
			}
		}
		if nPlain > 0 {
			c.Attributes = append(c.Attributes, w.cf.NewAttribute(classfile.AttrLocalVariableTable,
				withCount(nPlain, plain.Bytes())))
		}
		if nTyped > 0 {
			c.Attributes = append(c.Attributes, w.cf.NewAttribute(classfile.AttrLocalVariableTypeTable,
				withCount(nTyped, typed.Bytes())))
		}
	}

	if len(w.frames) > 0 && w.cf.Major >= classfile.VersionStackMaps {
		fw := binary.NewWriter()
		fw.U2(uint16(len(w.frames)))
		prev := -1
		for _, f := range w.frames {
			fw.Byte(255)
			fw.U2(uint16(f.pos - prev - 1))
			prev = f.pos
			if !w.writeTypes(fw, f.frame.Locals) || !w.writeTypes(fw, f.frame.Stack) {
				return nil
			}
		}
		c.Attributes = append(c.Attributes, w.cf.NewAttribute(classfile.AttrStackMapTable, fw.Bytes()))
	}
	return c.Encode()
}

func (w *MethodWriter) writeTypes(fw *binary.Writer, types []VerificationType) bool {
	fw.U2(uint16(len(types)))
	for _, t := range types {
		fw.Byte(t.Tag)
		switch t.Tag {
		case ItemObject:
			fw.U2(w.cf.Pool.AddClass(t.Class))
		case ItemUninitialized:
			off, ok := w.offset(t.Label)
			if !ok {
				return false
			}
			fw.U2(uint16(off))
		}
	}
	return true
}

func writeLocal(w *binary.Writer, pool *classfile.Pool, start, end int, name, desc string, index int) {
	w.U2(uint16(start))
	w.U2(uint16(end - start))
	w.U2(pool.AddUTF8(name))
	w.U2(pool.AddUTF8(desc))
	w.U2(uint16(index))
}

func withCount(n uint16, body []byte) []byte {
	w := binary.NewWriter()
	w.U2(n)
	w.WriteBytes(body)
	return w.Bytes()
}
