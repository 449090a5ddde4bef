package engine

import (
	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/rewrite/internal/pattern"
	"github.com/wippyai/entitle/rewrite/internal/prologue"
	"github.com/wippyai/entitle/rewrite/internal/replay"
)

// inserter splices a prologue in after VisitCode and raises max stack to what the
// prologue needs.
type inserter struct {
	bytecode.Adapter
	emit  func(bytecode.MethodVisitor)
	stack int
}

func (a *inserter) VisitCode() {
	a.Next.VisitCode()
	a.emit(a.Next)
}

func (a *inserter) VisitMaxs(maxStack, maxLocals int) {
	a.Next.VisitMaxs(max(maxStack, a.stack), maxLocals)
}

func (e *Engine) checkInserter(cf *classfile.ClassFile, m *classfile.Member, next bytecode.MethodVisitor) (*inserter, error) {
	frame, err := bytecode.InitialFrame(cf.Name(), m.Access, m.Name, m.Descriptor)
	if err != nil {
		return nil, err
	}
	return &inserter{
		Adapter: bytecode.Adapter{Next: next},
		emit:    func(v bytecode.MethodVisitor) { prologue.Check(v, e.check, &frame) },
		stack:   prologue.CheckStack,
	}, nil
}

// rewriteWith streams m through the visitor built by wrap into a new method.
func rewriteWith(cf *classfile.ClassFile, m *classfile.Member, wrap func(bytecode.MethodVisitor) (bytecode.MethodVisitor, error)) (*classfile.Member, error) {
	w := bytecode.NewMethodWriter(cf, m.Access, m.Name, m.Descriptor)
	v, err := wrap(w)
	if err != nil {
		return nil, err
	}
	if err := bytecode.Accept(cf, m, v); err != nil {
		return nil, err
	}
	return w.Method()
}

// insertCheck is the blind insert: the check prologue goes in unconditionally.
func (e *Engine) insertCheck(cf *classfile.ClassFile, m *classfile.Member) ([]*classfile.Member, bool, error) {
	out, err := rewriteWith(cf, m, func(w bytecode.MethodVisitor) (bytecode.MethodVisitor, error) {
		return e.checkInserter(cf, m, w)
	})
	if err != nil {
		return nil, false, err
	}
	return []*classfile.Member{out}, true, nil
}

func (e *Engine) insertInheritance(cf *classfile.ClassFile, m *classfile.Member) ([]*classfile.Member, bool, error) {
	caps := e.capabilities[m.Name]
	done, err := matches(cf, m, inheritancePattern(e.runtime, m.Name, caps))
	if err != nil || done {
		return []*classfile.Member{m}, false, err
	}
	out, err := rewriteWith(cf, m, func(w bytecode.MethodVisitor) (bytecode.MethodVisitor, error) {
		return &inserter{
			Adapter: bytecode.Adapter{Next: w},
			emit:    func(v bytecode.MethodVisitor) { prologue.Inheritance(v, e.runtime, m.Name, caps) },
			stack:   prologue.InheritanceStack,
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return []*classfile.Member{out}, true, nil
}

// annotate skips methods carrying the marker and otherwise marks the method while
// inserting the prologue.
func (e *Engine) annotate(cf *classfile.ClassFile, m *classfile.Member) ([]*classfile.Member, bool, error) {
	marked, err := e.marked(cf, m)
	if err != nil || marked {
		return []*classfile.Member{m}, false, err
	}
	out, err := rewriteWith(cf, m, func(w bytecode.MethodVisitor) (bytecode.MethodVisitor, error) {
		w.VisitAnnotation(classfile.Annotation{Type: e.marker}, true)
		return e.checkInserter(cf, m, w)
	})
	if err != nil {
		return nil, false, err
	}
	return []*classfile.Member{out}, true, nil
}

func (e *Engine) marked(cf *classfile.ClassFile, m *classfile.Member) (bool, error) {
	attr, ok := m.Attribute(classfile.AttrRuntimeVisibleAnnotations)
	if !ok {
		return false, nil
	}
	anns, err := classfile.ParseAnnotations(cf.Pool, attr.Data)
	if err != nil {
		return false, err
	}
	for _, a := range anns {
		if a.Type == e.marker {
			return true, nil
		}
	}
	return false, nil
}

// stubAttributes are the method attributes a wrap stub shares with the method it
// replaces, so reflection on the public method is unchanged.
var stubAttributes = []string{
	classfile.AttrExceptions,
	classfile.AttrSignature,
	classfile.AttrMethodParameters,
	classfile.AttrRuntimeVisibleAnnotations,
	classfile.AttrRuntimeInvisibleAnnotations,
	classfile.AttrRuntimeVisibleParameterAnnotations,
	classfile.AttrRuntimeInvisibleParameterAnnotations,
}

// wrap renames m and adds a stub under its name that checks the caller and forwards
// to the renamed method. Methods whose renamed original already exists are kept.
func (e *Engine) wrap(cf *classfile.ClassFile, m *classfile.Member) ([]*classfile.Member, bool, error) {
	if m.Name == classfile.ConstructorName || m.Name == classfile.StaticInitializerName {
		return nil, false, errors.UnsupportedShape(cf.Name(), m.Name+m.Descriptor, "initializers cannot be renamed")
	}
	renamed := prologue.WrappedName(m.Name)
	if cf.FindMethod(renamed, m.Descriptor) != nil {
		return []*classfile.Member{m}, false, nil
	}

	original := *m
	cf.Rename(&original, renamed)
	original.Access = m.Access&^(classfile.AccPublic|classfile.AccProtected) | classfile.AccPrivate | classfile.AccSynthetic

	frame, err := bytecode.InitialFrame(cf.Name(), m.Access, m.Name, m.Descriptor)
	if err != nil {
		return nil, false, err
	}
	w := bytecode.NewMethodWriter(cf, m.Access&^classfile.AccSynchronized, m.Name, m.Descriptor)
	for _, name := range stubAttributes {
		if attr, ok := m.Attribute(name); ok {
			w.VisitAttribute(attr)
		}
	}
	target := prologue.Target{
		Owner:     cf.Name(),
		Name:      renamed,
		Desc:      m.Descriptor,
		Static:    m.Is(classfile.AccStatic),
		Interface: cf.Access&classfile.AccInterface != 0,
	}
	if err := prologue.Wrap(w, e.runtime, target, frame); err != nil {
		return nil, false, err
	}
	w.VisitEnd()
	stub, err := w.Method()
	if err != nil {
		return nil, false, err
	}
	return []*classfile.Member{stub, &original}, true, nil
}

// bridgeNative replaces a native method with a stub that runs the check and calls the
// replacement entry point in the bridge class.
func (e *Engine) bridgeNative(cf *classfile.ClassFile, m *classfile.Member) ([]*classfile.Member, bool, error) {
	if e.nativeBridge == "" {
		return nil, false, errors.UnsupportedShape(cf.Name(), m.Name+m.Descriptor, "native method requires a native bridge")
	}
	frame, err := bytecode.InitialFrame(cf.Name(), m.Access, m.Name, m.Descriptor)
	if err != nil {
		return nil, false, err
	}
	w := bytecode.NewMethodWriter(cf, m.Access&^classfile.AccNative, m.Name, m.Descriptor)
	for _, attr := range m.Attributes {
		w.VisitAttribute(attr)
	}
	static := m.Is(classfile.AccStatic)
	if err := prologue.Native(w, e.check, e.nativeBridge, cf.Name(), m.Name, m.Descriptor, static, frame); err != nil {
		return nil, false, err
	}
	w.VisitEnd()
	stub, err := w.Method()
	if err != nil {
		return nil, false, err
	}
	return []*classfile.Member{stub}, true, nil
}

// checkAndReplay runs the single-pass strategy on one method: the body is matched and
// buffered at the same time, and replayed at its end into a plain writer when the
// prologue is present or into an inserting writer when it is not.
func (e *Engine) checkAndReplay(cf *classfile.ClassFile, m *classfile.Member) ([]*classfile.Member, bool, error) {
	w := bytecode.NewMethodWriter(cf, m.Access, m.Name, m.Descriptor)
	ins, err := e.checkInserter(cf, m, w)
	if err != nil {
		return nil, false, err
	}
	r := newReplayer(checkPattern(e.check), func(res pattern.Result) bytecode.MethodVisitor {
		if res == pattern.Matched {
			return w
		}
		return ins
	})
	if err := bytecode.Accept(cf, m, r); err != nil {
		return nil, false, err
	}
	out, err := w.Method()
	if err != nil {
		return nil, false, err
	}
	return []*classfile.Member{out}, r.result == pattern.NotMatched, nil
}

// stage is the position of a method body in the single-pass state machine.
type stage int

const (
	stageStart stage = iota
	stageRecording
	stageDecided
	stageEmitted
)

var stageNames = [...]string{"start", "recording", "decided", "emitted"}

func (s stage) String() string { return stageNames[s] }

// replayer feeds every event to a matcher and a replay buffer. At VisitEnd it asks
// choose for a sink based on the match result and replays the buffer into it.
type replayer struct {
	tee
	matcher *pattern.Matcher
	buffer  *replay.Buffer
	choose  func(pattern.Result) bytecode.MethodVisitor
	stage   stage
	result  pattern.Result
}

func newReplayer(p pattern.Pattern, choose func(pattern.Result) bytecode.MethodVisitor) *replayer {
	r := &replayer{
		matcher: pattern.NewMatcher(p),
		buffer:  replay.NewBuffer(),
		choose:  choose,
	}
	r.tee = tee{r.matcher, r.buffer}
	return r
}

func (r *replayer) advance(from, to stage) {
	if r.stage != from {
		panic(errors.Sequencing(errors.PhaseReplay, "cannot move from "+r.stage.String()+" to "+to.String()))
	}
	r.stage = to
}

func (r *replayer) VisitCode() {
	r.advance(stageStart, stageRecording)
	r.tee.VisitCode()
}

func (r *replayer) VisitEnd() {
	r.advance(stageRecording, stageDecided)
	r.result = r.matcher.Finished()
	r.buffer.SetSink(r.choose(r.result))
	r.buffer.Finalize()
	r.advance(stageDecided, stageEmitted)
}
