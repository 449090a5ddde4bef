package bytecode

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/entitle/classfile"
)

// Printer is a MethodVisitor that writes one line of text per event.
type Printer struct {
	w      io.Writer
	labels map[*Label]int
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, labels: make(map[*Label]int)}
}

// Trace returns the text of method m, as a Printer would write it.
func Trace(cf *classfile.ClassFile, m *classfile.Member) (string, error) {
	var b strings.Builder
	if err := Accept(cf, m, NewPrinter(&b)); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (p *Printer) label(l *Label) string {
	if l == nil {
		return "<nil>"
	}
	id, ok := p.labels[l]
	if !ok {
		id = len(p.labels)
		p.labels[l] = id
	}
	return fmt.Sprintf("L%d", id)
}

func (p *Printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) types(ts []VerificationType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		switch t.Tag {
		case ItemTop:
			parts[i] = "T"
		case ItemInteger:
			parts[i] = "I"
		case ItemFloat:
			parts[i] = "F"
		case ItemDouble:
			parts[i] = "D"
		case ItemLong:
			parts[i] = "J"
		case ItemNull:
			parts[i] = "null"
		case ItemUninitializedThis:
			parts[i] = "uninitializedThis"
		case ItemObject:
			parts[i] = t.Class
		case ItemUninitialized:
			parts[i] = "uninitialized " + p.label(t.Label)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (p *Printer) VisitParameter(name string, access uint16) {
	p.line("// parameter %#x %s", access, name)
}

func (p *Printer) VisitAnnotation(a classfile.Annotation, visible bool) {
	if visible {
		p.line("@%s", a.Type)
	} else {
		p.line("@%s // invisible", a.Type)
	}
}

func (p *Printer) VisitAttribute(attr classfile.Attribute) {
	p.line("ATTRIBUTE %s (%d bytes)", attr.Name, len(attr.Data))
}

func (p *Printer) VisitCode() {}

func (p *Printer) VisitFrame(f Frame) {
	p.line("  FRAME FULL %s %s", p.types(f.Locals), p.types(f.Stack))
}

func (p *Printer) VisitInsn(op int) {
	p.line("  %s", Name(op))
}

func (p *Printer) VisitIntInsn(op, operand int) {
	p.line("  %s %d", Name(op), operand)
}

func (p *Printer) VisitVarInsn(op, index int) {
	p.line("  %s %d", Name(op), index)
}

func (p *Printer) VisitTypeInsn(op int, typ string) {
	p.line("  %s %s", Name(op), typ)
}

func (p *Printer) VisitFieldInsn(op int, owner, name, desc string) {
	p.line("  %s %s.%s : %s", Name(op), owner, name, desc)
}

func (p *Printer) VisitMethodInsn(op int, owner, name, desc string, itf bool) {
	suffix := ""
	if itf && op != OpInvokeinterface {
		suffix = " (itf)"
	}
	p.line("  %s %s.%s %s%s", Name(op), owner, name, desc, suffix)
}

func (p *Printer) VisitInvokeDynamicInsn(name, desc string, bsm Handle, args ...any) {
	p.line("  INVOKEDYNAMIC %s%s [%s.%s%s %v]", name, desc, bsm.Owner, bsm.Name, bsm.Desc, args)
}

func (p *Printer) VisitJumpInsn(op int, target *Label) {
	p.line("  %s %s", Name(op), p.label(target))
}

func (p *Printer) VisitLabel(l *Label) {
	p.line("%s", p.label(l))
}

func (p *Printer) VisitLdcInsn(value any) {
	if s, ok := value.(string); ok {
		p.line("  LDC %q", s)
		return
	}
	p.line("  LDC %v", value)
}

func (p *Printer) VisitIincInsn(index, increment int) {
	p.line("  IINC %d %d", index, increment)
}

func (p *Printer) VisitTableSwitchInsn(low, high int32, dflt *Label, targets ...*Label) {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = p.label(t)
	}
	p.line("  TABLESWITCH %d..%d [%s] default: %s", low, high, strings.Join(names, " "), p.label(dflt))
}

func (p *Printer) VisitLookupSwitchInsn(dflt *Label, keys []int32, targets []*Label) {
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%d: %s", k, p.label(targets[i]))
	}
	p.line("  LOOKUPSWITCH [%s] default: %s", strings.Join(pairs, ", "), p.label(dflt))
}

func (p *Printer) VisitMultiANewArrayInsn(desc string, dims int) {
	p.line("  MULTIANEWARRAY %s %d", desc, dims)
}

func (p *Printer) VisitTryCatchBlock(start, end, handler *Label, typ string) {
	if typ == "" {
		typ = "null"
	}
	p.line("  TRYCATCHBLOCK %s %s %s %s", p.label(start), p.label(end), p.label(handler), typ)
}

func (p *Printer) VisitLocalVariable(name, desc, signature string, start, end *Label, index int) {
	p.line("  LOCALVARIABLE %s %s %s %s %d", name, desc, p.label(start), p.label(end), index)
}

func (p *Printer) VisitLineNumber(line int, start *Label) {
	p.line("  LINENUMBER %d %s", line, p.label(start))
}

func (p *Printer) VisitMaxs(maxStack, maxLocals int) {
	p.line("  MAXSTACK = %d", maxStack)
	p.line("  MAXLOCALS = %d", maxLocals)
}

func (p *Printer) VisitEnd() {}
