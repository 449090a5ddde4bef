package classfile

import (
	"fmt"

	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/internal/binary"
)

// Attribute is an attribute kept in its encoded form.
type Attribute struct {
	Name      string
	Data      []byte
	NameIndex uint16
}

// Member is a field or method declaration.
type Member struct {
	Name       string
	Descriptor string
	Attributes []Attribute
	Access     uint16
	NameIndex  uint16
	DescIndex  uint16
}

// Is reports whether all of the given access flags are set.
func (m *Member) Is(flags uint16) bool {
	return m.Access&flags == flags
}

// Attribute returns the first attribute with the given name.
func (m *Member) Attribute(name string) (Attribute, bool) {
	return findAttribute(m.Attributes, name)
}

// BootstrapMethod is one entry of the BootstrapMethods attribute.
type BootstrapMethod struct {
	Args []uint16
	Ref  uint16
}

// ClassFile is a parsed class file.
type ClassFile struct {
	Pool       *Pool
	Interfaces []uint16
	Fields     []*Member
	Methods    []*Member
	Attributes []Attribute
	Bootstrap  []BootstrapMethod
	Minor      uint16
	Major      uint16
	Access     uint16
	ThisClass  uint16
	SuperClass uint16
}

// Parse decodes a class file. Attributes other than BootstrapMethods are kept encoded.
func Parse(data []byte) (*ClassFile, error) {
	cf, err := parse(data)
	if err != nil {
		return nil, errors.ParseFailed("class file", err)
	}
	return cf, nil
}

func parse(data []byte) (*ClassFile, error) {
	r := binary.NewBytesReader(data)

	magic, err := r.ReadU4()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, r.WrapError("header", fmt.Errorf("bad magic %#x", magic))
	}

	cf := &ClassFile{}
	if cf.Minor, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if cf.Major, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if cf.Pool, err = parsePool(r); err != nil {
		return nil, err
	}
	if cf.Access, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("access_flags", err)
	}
	if cf.ThisClass, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("this_class", err)
	}
	if cf.SuperClass, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("super_class", err)
	}

	n, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("interfaces", err)
	}
	cf.Interfaces = make([]uint16, n)
	for i := range cf.Interfaces {
		if cf.Interfaces[i], err = r.ReadU2(); err != nil {
			return nil, r.WrapError("interfaces", err)
		}
	}

	if cf.Fields, err = parseMembers(r, cf.Pool, "fields"); err != nil {
		return nil, err
	}
	if cf.Methods, err = parseMembers(r, cf.Pool, "methods"); err != nil {
		return nil, err
	}
	if cf.Attributes, err = parseAttributes(r, cf.Pool, "attributes"); err != nil {
		return nil, err
	}
	if rem := r.Remaining(); rem != 0 {
		return nil, r.WrapError("trailer", fmt.Errorf("%d trailing bytes", rem))
	}

	if attr, ok := findAttribute(cf.Attributes, AttrBootstrapMethods); ok {
		if cf.Bootstrap, err = parseBootstrapMethods(attr.Data); err != nil {
			return nil, err
		}
	}

	if _, err := cf.Pool.ClassName(cf.ThisClass); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	return cf, nil
}

func parseMembers(r *binary.Reader, pool *Pool, section string) ([]*Member, error) {
	n, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError(section, err)
	}
	members := make([]*Member, n)
	for i := range members {
		m := &Member{}
		if m.Access, err = r.ReadU2(); err != nil {
			return nil, r.WrapError(section, err)
		}
		if m.NameIndex, err = r.ReadU2(); err != nil {
			return nil, r.WrapError(section, err)
		}
		if m.DescIndex, err = r.ReadU2(); err != nil {
			return nil, r.WrapError(section, err)
		}
		if m.Name, err = pool.UTF8(m.NameIndex); err != nil {
			return nil, r.WrapError(section, err)
		}
		if m.Descriptor, err = pool.UTF8(m.DescIndex); err != nil {
			return nil, r.WrapError(section, err)
		}
		if m.Attributes, err = parseAttributes(r, pool, section); err != nil {
			return nil, err
		}
		members[i] = m
	}
	return members, nil
}

func parseAttributes(r *binary.Reader, pool *Pool, section string) ([]Attribute, error) {
	n, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError(section, err)
	}
	attrs := make([]Attribute, n)
	for i := range attrs {
		if attrs[i].NameIndex, err = r.ReadU2(); err != nil {
			return nil, r.WrapError(section, err)
		}
		if attrs[i].Name, err = pool.UTF8(attrs[i].NameIndex); err != nil {
			return nil, r.WrapError(section, err)
		}
		if attrs[i].Data, err = r.ReadBlock(); err != nil {
			return nil, r.WrapError(section, err)
		}
	}
	return attrs, nil
}

func parseBootstrapMethods(data []byte) ([]BootstrapMethod, error) {
	r := binary.NewBytesReader(data)
	n, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError(AttrBootstrapMethods, err)
	}
	methods := make([]BootstrapMethod, n)
	for i := range methods {
		if methods[i].Ref, err = r.ReadU2(); err != nil {
			return nil, r.WrapError(AttrBootstrapMethods, err)
		}
		argc, err := r.ReadU2()
		if err != nil {
			return nil, r.WrapError(AttrBootstrapMethods, err)
		}
		methods[i].Args = make([]uint16, argc)
		for j := range methods[i].Args {
			if methods[i].Args[j], err = r.ReadU2(); err != nil {
				return nil, r.WrapError(AttrBootstrapMethods, err)
			}
		}
	}
	return methods, nil
}

func findAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Name returns the internal name of the class.
func (cf *ClassFile) Name() string {
	name, _ := cf.Pool.ClassName(cf.ThisClass)
	return name
}

// SuperName returns the internal name of the superclass, or "" for java/lang/Object.
func (cf *ClassFile) SuperName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	name, _ := cf.Pool.ClassName(cf.SuperClass)
	return name
}

// InterfaceNames returns the internal names of the directly implemented interfaces.
func (cf *ClassFile) InterfaceNames() []string {
	names := make([]string, 0, len(cf.Interfaces))
	for _, i := range cf.Interfaces {
		if name, err := cf.Pool.ClassName(i); err == nil {
			names = append(names, name)
		}
	}
	return names
}

// FindMethod returns the method with the given name and descriptor.
func (cf *ClassFile) FindMethod(name, desc string) *Member {
	for _, m := range cf.Methods {
		if m.Name == name && m.Descriptor == desc {
			return m
		}
	}
	return nil
}

// NewMember creates a member whose name and descriptor are interned in the pool.
func (cf *ClassFile) NewMember(access uint16, name, desc string) *Member {
	return &Member{
		Access:     access,
		Name:       name,
		Descriptor: desc,
		NameIndex:  cf.Pool.AddUTF8(name),
		DescIndex:  cf.Pool.AddUTF8(desc),
	}
}

// Rename changes a member's name, interning the new name in the pool.
func (cf *ClassFile) Rename(m *Member, name string) {
	m.Name = name
	m.NameIndex = cf.Pool.AddUTF8(name)
}

// NewAttribute creates an attribute whose name is interned in the pool.
func (cf *ClassFile) NewAttribute(name string, data []byte) Attribute {
	return Attribute{Name: name, NameIndex: cf.Pool.AddUTF8(name), Data: data}
}

// AddBootstrapMethod returns the index of an equal bootstrap method entry, appending one if
// none exists.
func (cf *ClassFile) AddBootstrapMethod(ref uint16, args []uint16) uint16 {
outer:
	for i, bm := range cf.Bootstrap {
		if bm.Ref != ref || len(bm.Args) != len(args) {
			continue
		}
		for j := range args {
			if bm.Args[j] != args[j] {
				continue outer
			}
		}
		return uint16(i)
	}
	cf.Bootstrap = append(cf.Bootstrap, BootstrapMethod{Ref: ref, Args: append([]uint16(nil), args...)})
	return uint16(len(cf.Bootstrap) - 1)
}

// Encode serializes the class file. An unmodified parse encodes to the original bytes.
func (cf *ClassFile) Encode() ([]byte, error) {
	attrs := cf.Attributes
	if len(cf.Bootstrap) > 0 {
		if _, ok := findAttribute(attrs, AttrBootstrapMethods); !ok {
			attrs = append(append([]Attribute(nil), attrs...), cf.NewAttribute(AttrBootstrapMethods, nil))
		}
	}
	if err := cf.Pool.Err(); err != nil {
		return nil, err
	}

	w := binary.NewWriter()
	w.U4(Magic)
	w.U2(cf.Minor)
	w.U2(cf.Major)
	cf.Pool.encode(w)
	w.U2(cf.Access)
	w.U2(cf.ThisClass)
	w.U2(cf.SuperClass)
	w.U2(uint16(len(cf.Interfaces)))
	for _, i := range cf.Interfaces {
		w.U2(i)
	}
	encodeMembers(w, cf.Fields)
	encodeMembers(w, cf.Methods)

	w.U2(uint16(len(attrs)))
	for _, a := range attrs {
		if a.Name == AttrBootstrapMethods {
			a.Data = encodeBootstrapMethods(cf.Bootstrap)
		}
		encodeAttribute(w, a)
	}
	return w.Bytes(), nil
}

func encodeMembers(w *binary.Writer, members []*Member) {
	w.U2(uint16(len(members)))
	for _, m := range members {
		w.U2(m.Access)
		w.U2(m.NameIndex)
		w.U2(m.DescIndex)
		encodeAttributes(w, m.Attributes)
	}
}

// encodeAttributes writes an attribute count followed by the attributes.
func encodeAttributes(w *binary.Writer, attrs []Attribute) {
	w.U2(uint16(len(attrs)))
	for _, a := range attrs {
		encodeAttribute(w, a)
	}
}

func encodeAttribute(w *binary.Writer, a Attribute) {
	w.U2(a.NameIndex)
	w.Block(a.Data)
}

func encodeBootstrapMethods(methods []BootstrapMethod) []byte {
	w := binary.NewWriter()
	w.U2(uint16(len(methods)))
	for _, bm := range methods {
		w.U2(bm.Ref)
		w.U2(uint16(len(bm.Args)))
		for _, a := range bm.Args {
			w.U2(a)
		}
	}
	return w.Bytes()
}
