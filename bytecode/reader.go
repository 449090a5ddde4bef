package bytecode

import (
	"fmt"
	"sort"

	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/internal/binary"
)

type rawInsn struct {
	targets []int
	keys    []int32
	off     int
	op      int
	format  Format
	a       int
	b       int
	cp      uint16
}

type rawFrame struct {
	locals []rawType
	stack  []rawType
	off    int
}

type rawType struct {
	class string
	off   int
	tag   byte
}

type rawLocal struct {
	name, desc, signature string
	start, end, index     int
}

type rawLine struct {
	off, line int
}

type codeReader struct {
	cf      *classfile.ClassFile
	m       *classfile.Member
	code    *classfile.Code
	labels  map[int]*Label
	bounds  []bool
	insns   []rawInsn
	frames  []rawFrame
	lines   []rawLine
	locals  []rawLocal
	owner   string
}

// Accept decodes method m of cf and reports it to v. Methods without a Code attribute
// produce no VisitCode. Code attributes other than line numbers, local variable tables and
// stack maps are dropped.
func Accept(cf *classfile.ClassFile, m *classfile.Member, v MethodVisitor) error {
	var (
		params   []classfile.Parameter
		visible  []classfile.Annotation
		hidden   []classfile.Annotation
		raw      []classfile.Attribute
		codeAttr *classfile.Attribute
		err      error
	)
	for i := range m.Attributes {
		a := m.Attributes[i]
		switch a.Name {
		case classfile.AttrCode:
			codeAttr = &m.Attributes[i]
		case classfile.AttrMethodParameters:
			if params, err = classfile.ParseParameters(cf.Pool, a.Data); err != nil {
				return err
			}
		case classfile.AttrRuntimeVisibleAnnotations:
			if visible, err = classfile.ParseAnnotations(cf.Pool, a.Data); err != nil {
				return err
			}
		case classfile.AttrRuntimeInvisibleAnnotations:
			if hidden, err = classfile.ParseAnnotations(cf.Pool, a.Data); err != nil {
				return err
			}
		default:
			raw = append(raw, a)
		}
	}

	var r *codeReader
	if codeAttr != nil {
		code, err := classfile.ParseCode(cf.Pool, codeAttr.Data)
		if err != nil {
			return err
		}
		r = &codeReader{cf: cf, m: m, code: code, owner: cf.Name(), labels: make(map[int]*Label)}
		if err := r.scan(); err != nil {
			return err
		}
	}

	for _, p := range params {
		v.VisitParameter(p.Name, p.Access)
	}
	for _, a := range visible {
		v.VisitAnnotation(a, true)
	}
	for _, a := range hidden {
		v.VisitAnnotation(a, false)
	}
	for _, a := range raw {
		v.VisitAttribute(a)
	}
	if r != nil {
		if err := r.emit(v); err != nil {
			return err
		}
	}
	v.VisitEnd()
	return nil
}

func (r *codeReader) fail(detail string, args ...any) error {
	err := errors.Structural(errors.PhaseParse, detail, args...)
	err.Class = r.owner
	err.Method = r.m.Name + r.m.Descriptor
	err.Path = []string{classfile.AttrCode}
	return err
}

func (r *codeReader) wrap(err error) error {
	return errors.New(errors.PhaseParse, errors.KindInvalidData).
		Class(r.owner).
		Method(r.m.Name + r.m.Descriptor).
		Path(classfile.AttrCode).
		Cause(err).
		Build()
}

func (r *codeReader) label(off int) *Label {
	if l, ok := r.labels[off]; ok {
		return l
	}
	l := &Label{Offset: off}
	r.labels[off] = l
	return l
}

// boundary reports whether off starts an instruction or is the end of the code.
func (r *codeReader) boundary(off int) bool {
	return off >= 0 && off < len(r.bounds) && r.bounds[off]
}

func (r *codeReader) scan() error {
	n := len(r.code.Bytecode)
	r.bounds = make([]bool, n+1)
	r.bounds[n] = true

	br := binary.NewBytesReader(r.code.Bytecode)
	for br.Position() < n {
		off := br.Position()
		r.bounds[off] = true
		in, err := r.decode(br, off)
		if err != nil {
			return err
		}
		r.insns = append(r.insns, in)
	}

	for _, in := range r.insns {
		for _, t := range in.targets {
			if !r.boundary(t) || t == n {
				return r.fail("branch at %d targets %d, not an instruction", in.off, t)
			}
			r.label(t)
		}
	}

	for _, h := range r.code.Handlers {
		start, end, handler := int(h.StartPC), int(h.EndPC), int(h.HandlerPC)
		if !r.boundary(start) || !r.boundary(end) || !r.boundary(handler) || start >= end || handler == n {
			return r.fail("exception handler [%d, %d) -> %d out of range", start, end, handler)
		}
		r.label(start)
		r.label(end)
		r.label(handler)
	}

	var typed [][]byte
	for _, a := range r.code.Attributes {
		var err error
		switch a.Name {
		case classfile.AttrLineNumberTable:
			err = r.scanLines(a.Data)
		case classfile.AttrLocalVariableTable:
			err = r.scanLocals(a.Data, false)
		case classfile.AttrLocalVariableTypeTable:
			typed = append(typed, a.Data)
		case classfile.AttrStackMapTable:
			err = r.scanFrames(a.Data)
		}
		if err != nil {
			return err
		}
	}
	// signatures attach to entries of the untyped table, whichever order they came in
	for _, data := range typed {
		if err := r.scanLocals(data, true); err != nil {
			return err
		}
	}
	return nil
}

func (r *codeReader) decode(br *binary.Reader, off int) (rawInsn, error) {
	b, err := br.ReadU1()
	if err != nil {
		return rawInsn{}, r.wrap(err)
	}
	in := rawInsn{off: off, op: int(b), format: FormatOf(int(b))}
	err = r.operands(br, &in)
	if err != nil {
		return rawInsn{}, r.wrap(fmt.Errorf("%s at %d: %w", Name(in.op), off, err))
	}
	return in, nil
}

func (r *codeReader) operands(br *binary.Reader, in *rawInsn) error {
	switch in.format {
	case FormatNone:
	case FormatByte:
		v, err := br.ReadU1()
		in.a = int(v)
		if in.op == OpBipush {
			in.a = int(int8(v))
		}
		return err
	case FormatShort:
		v, err := br.ReadS2()
		in.a = int(v)
		return err
	case FormatLdc:
		v, err := br.ReadU1()
		in.cp = uint16(v)
		return err
	case FormatLdcWide, FormatField, FormatMethod, FormatType:
		v, err := br.ReadU2()
		in.cp = v
		return err
	case FormatVar:
		v, err := br.ReadU1()
		in.a = int(v)
		return err
	case FormatVarShort:
		if in.op < OpIstore0 {
			in.a = (in.op - OpIload0) & 3
			in.op = OpIload + (in.op-OpIload0)>>2
		} else {
			in.a = (in.op - OpIstore0) & 3
			in.op = OpIstore + (in.op-OpIstore0)>>2
		}
		in.format = FormatVar
	case FormatIinc:
		idx, err := br.ReadU1()
		if err != nil {
			return err
		}
		inc, err := br.ReadS1()
		in.a, in.b = int(idx), int(inc)
		return err
	case FormatJump:
		rel, err := br.ReadS2()
		in.targets = []int{in.off + int(rel)}
		return err
	case FormatJumpWide:
		rel, err := br.ReadS4()
		in.targets = []int{in.off + int(rel)}
		if in.op == OpGotoW {
			in.op = OpGoto
		} else {
			in.op = OpJsr
		}
		in.format = FormatJump
		return err
	case FormatTableSwitch:
		if err := br.Skip((4 - (in.off+1)%4) % 4); err != nil {
			return err
		}
		dflt, err := br.ReadS4()
		if err != nil {
			return err
		}
		low, err := br.ReadS4()
		if err != nil {
			return err
		}
		high, err := br.ReadS4()
		if err != nil {
			return err
		}
		if high < low || int64(high)-int64(low) >= 1<<16 {
			return fmt.Errorf("bad tableswitch range [%d, %d]", low, high)
		}
		in.a, in.b = int(low), int(high)
		in.targets = []int{in.off + int(dflt)}
		for i := int64(low); i <= int64(high); i++ {
			rel, err := br.ReadS4()
			if err != nil {
				return err
			}
			in.targets = append(in.targets, in.off+int(rel))
		}
	case FormatLookupSwitch:
		if err := br.Skip((4 - (in.off+1)%4) % 4); err != nil {
			return err
		}
		dflt, err := br.ReadS4()
		if err != nil {
			return err
		}
		npairs, err := br.ReadS4()
		if err != nil {
			return err
		}
		if npairs < 0 || npairs >= 1<<16 {
			return fmt.Errorf("bad lookupswitch pair count %d", npairs)
		}
		in.targets = []int{in.off + int(dflt)}
		for i := 0; i < int(npairs); i++ {
			key, err := br.ReadS4()
			if err != nil {
				return err
			}
			rel, err := br.ReadS4()
			if err != nil {
				return err
			}
			in.keys = append(in.keys, key)
			in.targets = append(in.targets, in.off+int(rel))
		}
	case FormatInterface:
		v, err := br.ReadU2()
		if err != nil {
			return err
		}
		in.cp = v
		return br.Skip(2)
	case FormatDynamic:
		v, err := br.ReadU2()
		if err != nil {
			return err
		}
		in.cp = v
		return br.Skip(2)
	case FormatMultiANewArray:
		v, err := br.ReadU2()
		if err != nil {
			return err
		}
		dims, err := br.ReadU1()
		in.cp, in.a = v, int(dims)
		return err
	case FormatWide:
		op, err := br.ReadU1()
		if err != nil {
			return err
		}
		idx, err := br.ReadU2()
		if err != nil {
			return err
		}
		in.op, in.a = int(op), int(idx)
		switch FormatOf(in.op) {
		case FormatIinc:
			inc, err := br.ReadS2()
			in.b = int(inc)
			in.format = FormatIinc
			return err
		case FormatVar:
			in.format = FormatVar
		default:
			return fmt.Errorf("wide prefix on %s", Name(in.op))
		}
	default:
		return fmt.Errorf("undefined opcode %#x", in.op)
	}
	return nil
}

func (r *codeReader) scanLines(data []byte) error {
	br := binary.NewBytesReader(data)
	n, err := br.ReadU2()
	if err != nil {
		return r.wrap(err)
	}
	for i := 0; i < int(n); i++ {
		pc, err := br.ReadU2()
		if err != nil {
			return r.wrap(err)
		}
		line, err := br.ReadU2()
		if err != nil {
			return r.wrap(err)
		}
		if !r.boundary(int(pc)) || int(pc) == len(r.code.Bytecode) {
			continue
		}
		r.label(int(pc))
		r.lines = append(r.lines, rawLine{off: int(pc), line: int(line)})
	}
	sort.SliceStable(r.lines, func(i, j int) bool { return r.lines[i].off < r.lines[j].off })
	return nil
}

func (r *codeReader) scanLocals(data []byte, typed bool) error {
	br := binary.NewBytesReader(data)
	n, err := br.ReadU2()
	if err != nil {
		return r.wrap(err)
	}
	for i := 0; i < int(n); i++ {
		var f [5]uint16
		for j := range f {
			if f[j], err = br.ReadU2(); err != nil {
				return r.wrap(err)
			}
		}
		start, end := int(f[0]), int(f[0])+int(f[1])
		if !r.boundary(start) || !r.boundary(end) {
			continue
		}
		name, err := r.cf.Pool.UTF8(f[2])
		if err != nil {
			return r.wrap(err)
		}
		text, err := r.cf.Pool.UTF8(f[3])
		if err != nil {
			return r.wrap(err)
		}
		if typed {
			for k := range r.locals {
				l := &r.locals[k]
				if l.start == start && l.end == end && l.index == int(f[4]) && l.signature == "" {
					l.signature = text
					break
				}
			}
			continue
		}
		r.label(start)
		r.label(end)
		r.locals = append(r.locals, rawLocal{name: name, desc: text, start: start, end: end, index: int(f[4])})
	}
	return nil
}

func (r *codeReader) scanFrames(data []byte) error {
	initial, err := initialRaw(r.owner, r.m.Access, r.m.Name, r.m.Descriptor)
	if err != nil {
		return r.wrap(err)
	}
	br := binary.NewBytesReader(data)
	n, err := br.ReadU2()
	if err != nil {
		return r.wrap(err)
	}
	locals := initial
	off := -1
	for i := 0; i < int(n); i++ {
		ft, err := br.ReadU1()
		if err != nil {
			return r.wrap(err)
		}
		var delta int
		var stack []rawType
		switch {
		case ft < 64:
			delta = int(ft)
		case ft < 128:
			delta = int(ft) - 64
			vt, err := r.readType(br)
			if err != nil {
				return err
			}
			stack = []rawType{vt}
		case ft < 247:
			return r.fail("reserved stack map frame type %d", ft)
		default:
			d, err := br.ReadU2()
			if err != nil {
				return r.wrap(err)
			}
			delta = int(d)
			switch {
			case ft == 247:
				vt, err := r.readType(br)
				if err != nil {
					return err
				}
				stack = []rawType{vt}
			case ft < 251:
				k := 251 - int(ft)
				if k > len(locals) {
					return r.fail("chop frame removes %d of %d locals", k, len(locals))
				}
				locals = locals[:len(locals)-k]
			case ft == 251:
			case ft < 255:
				next := append([]rawType(nil), locals...)
				for k := 0; k < int(ft)-251; k++ {
					vt, err := r.readType(br)
					if err != nil {
						return err
					}
					next = append(next, vt)
				}
				locals = next
			default:
				if locals, err = r.readTypes(br); err != nil {
					return err
				}
				if stack, err = r.readTypes(br); err != nil {
					return err
				}
			}
		}
		off += delta + 1
		if !r.boundary(off) || off == len(r.code.Bytecode) {
			return r.fail("stack map frame at %d is not an instruction", off)
		}
		r.label(off)
		r.frames = append(r.frames, rawFrame{off: off, locals: locals, stack: stack})
	}
	return nil
}

func (r *codeReader) readTypes(br *binary.Reader) ([]rawType, error) {
	n, err := br.ReadU2()
	if err != nil {
		return nil, r.wrap(err)
	}
	out := make([]rawType, n)
	for i := range out {
		if out[i], err = r.readType(br); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *codeReader) readType(br *binary.Reader) (rawType, error) {
	tag, err := br.ReadU1()
	if err != nil {
		return rawType{}, r.wrap(err)
	}
	vt := rawType{tag: tag}
	switch tag {
	case ItemTop, ItemInteger, ItemFloat, ItemDouble, ItemLong, ItemNull, ItemUninitializedThis:
	case ItemObject:
		idx, err := br.ReadU2()
		if err != nil {
			return rawType{}, r.wrap(err)
		}
		if vt.class, err = r.cf.Pool.ClassName(idx); err != nil {
			return rawType{}, r.wrap(err)
		}
	case ItemUninitialized:
		off, err := br.ReadU2()
		if err != nil {
			return rawType{}, r.wrap(err)
		}
		if !r.boundary(int(off)) || int(off) == len(r.code.Bytecode) {
			return rawType{}, r.fail("uninitialized type refers to offset %d", off)
		}
		vt.off = int(off)
		r.label(vt.off)
	default:
		return rawType{}, r.fail("unknown verification type %d", tag)
	}
	return vt, nil
}

func (r *codeReader) types(raw []rawType) []VerificationType {
	out := make([]VerificationType, len(raw))
	for i, t := range raw {
		out[i] = VerificationType{Tag: t.tag, Class: t.class}
		if t.tag == ItemUninitialized {
			out[i].Label = r.labels[t.off]
		}
	}
	return out
}

func (r *codeReader) emit(v MethodVisitor) error {
	v.VisitCode()

	for _, h := range r.code.Handlers {
		typ := ""
		if h.CatchType != 0 {
			var err error
			if typ, err = r.cf.Pool.ClassName(h.CatchType); err != nil {
				return r.wrap(err)
			}
		}
		v.VisitTryCatchBlock(r.labels[int(h.StartPC)], r.labels[int(h.EndPC)], r.labels[int(h.HandlerPC)], typ)
	}

	line, frame := 0, 0
	for _, in := range r.insns {
		if l, ok := r.labels[in.off]; ok {
			v.VisitLabel(l)
		}
		for line < len(r.lines) && r.lines[line].off == in.off {
			v.VisitLineNumber(r.lines[line].line, r.labels[in.off])
			line++
		}
		if frame < len(r.frames) && r.frames[frame].off == in.off {
			f := r.frames[frame]
			v.VisitFrame(Frame{Locals: r.types(f.locals), Stack: r.types(f.stack)})
			frame++
		}
		if err := r.emitInsn(v, in); err != nil {
			return err
		}
	}
	if l, ok := r.labels[len(r.code.Bytecode)]; ok {
		v.VisitLabel(l)
	}

	for _, l := range r.locals {
		v.VisitLocalVariable(l.name, l.desc, l.signature, r.labels[l.start], r.labels[l.end], l.index)
	}
	v.VisitMaxs(int(r.code.MaxStack), int(r.code.MaxLocals))
	return nil
}

func (r *codeReader) emitInsn(v MethodVisitor, in rawInsn) error {
	switch in.format {
	case FormatNone:
		v.VisitInsn(in.op)
	case FormatByte, FormatShort:
		v.VisitIntInsn(in.op, in.a)
	case FormatVar:
		v.VisitVarInsn(in.op, in.a)
	case FormatIinc:
		v.VisitIincInsn(in.a, in.b)
	case FormatLdc, FormatLdcWide:
		c, err := constantValue(r.cf, in.cp)
		if err != nil {
			return r.wrap(err)
		}
		v.VisitLdcInsn(c)
	case FormatJump:
		v.VisitJumpInsn(in.op, r.labels[in.targets[0]])
	case FormatTableSwitch:
		targets := make([]*Label, len(in.targets)-1)
		for i, t := range in.targets[1:] {
			targets[i] = r.labels[t]
		}
		v.VisitTableSwitchInsn(int32(in.a), int32(in.b), r.labels[in.targets[0]], targets...)
	case FormatLookupSwitch:
		targets := make([]*Label, len(in.targets)-1)
		for i, t := range in.targets[1:] {
			targets[i] = r.labels[t]
		}
		v.VisitLookupSwitchInsn(r.labels[in.targets[0]], in.keys, targets)
	case FormatField:
		ref, err := r.cf.Pool.MemberRef(in.cp)
		if err != nil {
			return r.wrap(err)
		}
		v.VisitFieldInsn(in.op, ref.Owner, ref.Name, ref.Descriptor)
	case FormatMethod, FormatInterface:
		ref, err := r.cf.Pool.MemberRef(in.cp)
		if err != nil {
			return r.wrap(err)
		}
		v.VisitMethodInsn(in.op, ref.Owner, ref.Name, ref.Descriptor, ref.Interface())
	case FormatDynamic:
		c, err := r.cf.Pool.Get(in.cp)
		if err != nil {
			return r.wrap(err)
		}
		if c.Tag != classfile.TagInvokeDynamic {
			return r.fail("invokedynamic at %d refers to tag %d", in.off, c.Tag)
		}
		bsm, args, err := bootstrapValue(r.cf, c.Index1)
		if err != nil {
			return r.wrap(err)
		}
		name, desc, err := r.cf.Pool.NameAndType(c.Index2)
		if err != nil {
			return r.wrap(err)
		}
		v.VisitInvokeDynamicInsn(name, desc, bsm, args...)
	case FormatType:
		name, err := r.cf.Pool.ClassName(in.cp)
		if err != nil {
			return r.wrap(err)
		}
		v.VisitTypeInsn(in.op, name)
	case FormatMultiANewArray:
		name, err := r.cf.Pool.ClassName(in.cp)
		if err != nil {
			return r.wrap(err)
		}
		v.VisitMultiANewArrayInsn(name, in.a)
	default:
		return r.fail("cannot emit %s", Name(in.op))
	}
	return nil
}

func initialRaw(owner string, access uint16, name, desc string) ([]rawType, error) {
	mt, err := classfile.ParseMethodDescriptor(desc)
	if err != nil {
		return nil, err
	}
	var locals []rawType
	if access&classfile.AccStatic == 0 {
		if name == classfile.ConstructorName && owner != "java/lang/Object" {
			locals = append(locals, rawType{tag: ItemUninitializedThis})
		} else {
			locals = append(locals, rawType{tag: ItemObject, class: owner})
		}
	}
	for _, a := range mt.Args {
		locals = append(locals, fieldRaw(a))
	}
	return locals, nil
}

func fieldRaw(desc string) rawType {
	switch desc[0] {
	case 'Z', 'B', 'C', 'S', 'I':
		return rawType{tag: ItemInteger}
	case 'F':
		return rawType{tag: ItemFloat}
	case 'J':
		return rawType{tag: ItemLong}
	case 'D':
		return rawType{tag: ItemDouble}
	case 'L':
		return rawType{tag: ItemObject, class: desc[1 : len(desc)-1]}
	}
	return rawType{tag: ItemObject, class: desc}
}

// InitialFrame returns the frame the verifier assumes on method entry.
func InitialFrame(owner string, access uint16, name, desc string) (Frame, error) {
	raw, err := initialRaw(owner, access, name, desc)
	if err != nil {
		return Frame{}, err
	}
	locals := make([]VerificationType, len(raw))
	for i, t := range raw {
		locals[i] = VerificationType{Tag: t.tag, Class: t.class}
	}
	return Frame{Locals: locals}, nil
}
