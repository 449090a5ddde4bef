package classfile

import (
	"fmt"
	"math"

	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/internal/binary"
)

// Constant is one constant pool entry. Which fields are meaningful depends on Tag:
//
//	UTF8                       Text (raw modified UTF-8 bytes)
//	Integer, Float             Bits32
//	Long, Double               Bits64
//	Class, String, MethodType,
//	Module, Package            Index1
//	Fieldref, Methodref,
//	InterfaceMethodref         Index1 = class, Index2 = name and type
//	NameAndType                Index1 = name, Index2 = descriptor
//	MethodHandle               RefKind, Index1 = reference
//	Dynamic, InvokeDynamic     Index1 = bootstrap method, Index2 = name and type
//
// The second slot of a Long or Double has Tag 0.
type Constant struct {
	Text    string
	Bits64  uint64
	Bits32  uint32
	Index1  uint16
	Index2  uint16
	Tag     byte
	RefKind byte
}

type poolKey struct {
	text string
	bits uint64
	i1   uint16
	i2   uint16
	tag  byte
	kind byte
}

func (c Constant) key() poolKey {
	return poolKey{
		tag:  c.Tag,
		text: c.Text,
		bits: c.Bits64 | uint64(c.Bits32),
		i1:   c.Index1,
		i2:   c.Index2,
		kind: c.RefKind,
	}
}

// Pool is a class constant pool. Entries are never removed or reordered, new ones are
// only appended, so indices held by untouched code stay valid.
type Pool struct {
	index   map[poolKey]uint16
	entries []Constant
	err     error
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{entries: make([]Constant, 1)}
}

// Count returns the constant_pool_count value: one more than the highest index.
func (p *Pool) Count() int {
	return len(p.entries)
}

// Err reports an overflow that happened while appending entries.
func (p *Pool) Err() error {
	return p.err
}

// Get returns the entry at index i.
func (p *Pool) Get(i uint16) (Constant, error) {
	if i == 0 || int(i) >= len(p.entries) || p.entries[i].Tag == 0 {
		return Constant{}, errors.OutOfBounds(errors.PhaseParse, []string{"constant_pool"}, int(i), len(p.entries))
	}
	return p.entries[i], nil
}

func (p *Pool) expect(i uint16, tag byte) (Constant, error) {
	c, err := p.Get(i)
	if err != nil {
		return c, err
	}
	if c.Tag != tag {
		return c, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Path("constant_pool", fmt.Sprint(i)).
			Detail("tag %d, want %d", c.Tag, tag).
			Build()
	}
	return c, nil
}

// UTF8 returns the string stored at a Utf8 entry.
func (p *Pool) UTF8(i uint16) (string, error) {
	c, err := p.expect(i, TagUTF8)
	return c.Text, err
}

// ClassName returns the internal name referenced by a Class entry.
func (p *Pool) ClassName(i uint16) (string, error) {
	c, err := p.expect(i, TagClass)
	if err != nil {
		return "", err
	}
	return p.UTF8(c.Index1)
}

// NameAndType returns the name and descriptor of a NameAndType entry.
func (p *Pool) NameAndType(i uint16) (name, desc string, err error) {
	c, err := p.expect(i, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.UTF8(c.Index1); err != nil {
		return "", "", err
	}
	desc, err = p.UTF8(c.Index2)
	return name, desc, err
}

// MemberRef describes a resolved field or method reference.
type MemberRef struct {
	Owner      string
	Name       string
	Descriptor string
	Tag        byte
}

// Interface reports whether the reference is an InterfaceMethodref.
func (r MemberRef) Interface() bool {
	return r.Tag == TagInterfaceMethodref
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry.
func (p *Pool) MemberRef(i uint16) (MemberRef, error) {
	c, err := p.Get(i)
	if err != nil {
		return MemberRef{}, err
	}
	if c.Tag != TagFieldref && c.Tag != TagMethodref && c.Tag != TagInterfaceMethodref {
		return MemberRef{}, errors.InvalidData(errors.PhaseParse, []string{"constant_pool", fmt.Sprint(i)},
			fmt.Sprintf("tag %d is not a member reference", c.Tag))
	}
	owner, err := p.ClassName(c.Index1)
	if err != nil {
		return MemberRef{}, err
	}
	name, desc, err := p.NameAndType(c.Index2)
	if err != nil {
		return MemberRef{}, err
	}
	return MemberRef{Tag: c.Tag, Owner: owner, Name: name, Descriptor: desc}, nil
}

func (p *Pool) lookup(c Constant) (uint16, bool) {
	if p.index == nil {
		p.index = make(map[poolKey]uint16, len(p.entries))
		for i := 1; i < len(p.entries); i++ {
			e := p.entries[i]
			if e.Tag == 0 {
				continue
			}
			k := e.key()
			if _, dup := p.index[k]; !dup {
				p.index[k] = uint16(i)
			}
		}
	}
	i, ok := p.index[c.key()]
	return i, ok
}

// Add returns the index of an entry equal to c, appending c if none exists.
func (p *Pool) Add(c Constant) uint16 {
	if i, ok := p.lookup(c); ok {
		return i
	}
	slots := 1
	if c.Tag == TagLong || c.Tag == TagDouble {
		slots = 2
	}
	if len(p.entries)+slots > math.MaxUint16 {
		if p.err == nil {
			p.err = errors.Overflow(errors.PhaseEncode, []string{"constant_pool"}, len(p.entries)+slots, "u2")
		}
		return 0
	}
	i := uint16(len(p.entries))
	p.entries = append(p.entries, c)
	if slots == 2 {
		p.entries = append(p.entries, Constant{})
	}
	p.index[c.key()] = i
	return i
}

// AddUTF8 returns the index of a Utf8 entry holding s.
func (p *Pool) AddUTF8(s string) uint16 {
	return p.Add(Constant{Tag: TagUTF8, Text: s})
}

// AddClass returns the index of a Class entry for an internal name.
func (p *Pool) AddClass(name string) uint16 {
	return p.Add(Constant{Tag: TagClass, Index1: p.AddUTF8(name)})
}

// AddString returns the index of a String entry.
func (p *Pool) AddString(s string) uint16 {
	return p.Add(Constant{Tag: TagString, Index1: p.AddUTF8(s)})
}

// AddInteger returns the index of an Integer entry.
func (p *Pool) AddInteger(v int32) uint16 {
	return p.Add(Constant{Tag: TagInteger, Bits32: uint32(v)})
}

// AddFloat returns the index of a Float entry.
func (p *Pool) AddFloat(v float32) uint16 {
	return p.Add(Constant{Tag: TagFloat, Bits32: math.Float32bits(v)})
}

// AddLong returns the index of a Long entry.
func (p *Pool) AddLong(v int64) uint16 {
	return p.Add(Constant{Tag: TagLong, Bits64: uint64(v)})
}

// AddDouble returns the index of a Double entry.
func (p *Pool) AddDouble(v float64) uint16 {
	return p.Add(Constant{Tag: TagDouble, Bits64: math.Float64bits(v)})
}

// AddNameAndType returns the index of a NameAndType entry.
func (p *Pool) AddNameAndType(name, desc string) uint16 {
	return p.Add(Constant{Tag: TagNameAndType, Index1: p.AddUTF8(name), Index2: p.AddUTF8(desc)})
}

// AddMemberRef returns the index of a Fieldref, Methodref or InterfaceMethodref entry.
func (p *Pool) AddMemberRef(tag byte, owner, name, desc string) uint16 {
	return p.Add(Constant{Tag: tag, Index1: p.AddClass(owner), Index2: p.AddNameAndType(name, desc)})
}

// AddMethodRef returns the index of a Methodref or, when itf is set, an InterfaceMethodref.
func (p *Pool) AddMethodRef(owner, name, desc string, itf bool) uint16 {
	tag := TagMethodref
	if itf {
		tag = TagInterfaceMethodref
	}
	return p.AddMemberRef(tag, owner, name, desc)
}

// AddFieldRef returns the index of a Fieldref entry.
func (p *Pool) AddFieldRef(owner, name, desc string) uint16 {
	return p.AddMemberRef(TagFieldref, owner, name, desc)
}

// AddMethodHandle returns the index of a MethodHandle entry.
func (p *Pool) AddMethodHandle(kind byte, ref uint16) uint16 {
	return p.Add(Constant{Tag: TagMethodHandle, RefKind: kind, Index1: ref})
}

// AddMethodType returns the index of a MethodType entry.
func (p *Pool) AddMethodType(desc string) uint16 {
	return p.Add(Constant{Tag: TagMethodType, Index1: p.AddUTF8(desc)})
}

// AddDynamic returns the index of a Dynamic or InvokeDynamic entry.
func (p *Pool) AddDynamic(tag byte, bootstrap uint16, name, desc string) uint16 {
	return p.Add(Constant{Tag: tag, Index1: bootstrap, Index2: p.AddNameAndType(name, desc)})
}

func parsePool(r *binary.Reader) (*Pool, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("constant_pool", err)
	}
	if count == 0 {
		return nil, r.WrapError("constant_pool", fmt.Errorf("constant_pool_count is zero"))
	}
	p := &Pool{entries: make([]Constant, count)}
	for i := 1; i < int(count); i++ {
		tag, err := r.ReadU1()
		if err != nil {
			return nil, r.WrapError("constant_pool", err)
		}
		c := Constant{Tag: tag}
		switch tag {
		case TagUTF8:
			n, err := r.ReadU2()
			if err != nil {
				return nil, r.WrapError("constant_pool", err)
			}
			b, err := r.ReadBytes(int(n))
			if err != nil {
				return nil, r.WrapError("constant_pool", err)
			}
			c.Text = string(b)
		case TagInteger, TagFloat:
			if c.Bits32, err = r.ReadU4(); err != nil {
				return nil, r.WrapError("constant_pool", err)
			}
		case TagLong, TagDouble:
			if c.Bits64, err = r.ReadU8(); err != nil {
				return nil, r.WrapError("constant_pool", err)
			}
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			if c.Index1, err = r.ReadU2(); err != nil {
				return nil, r.WrapError("constant_pool", err)
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			if c.Index1, err = r.ReadU2(); err != nil {
				return nil, r.WrapError("constant_pool", err)
			}
			if c.Index2, err = r.ReadU2(); err != nil {
				return nil, r.WrapError("constant_pool", err)
			}
		case TagMethodHandle:
			if c.RefKind, err = r.ReadU1(); err != nil {
				return nil, r.WrapError("constant_pool", err)
			}
			if c.Index1, err = r.ReadU2(); err != nil {
				return nil, r.WrapError("constant_pool", err)
			}
		default:
			return nil, r.WrapError("constant_pool", fmt.Errorf("unknown tag %d at index %d", tag, i))
		}
		p.entries[i] = c
		if tag == TagLong || tag == TagDouble {
			i++
			if i >= int(count) {
				return nil, r.WrapError("constant_pool", fmt.Errorf("wide constant at last index"))
			}
		}
	}
	return p, nil
}

func (p *Pool) encode(w *binary.Writer) {
	w.U2(uint16(len(p.entries)))
	for i := 1; i < len(p.entries); i++ {
		c := p.entries[i]
		if c.Tag == 0 {
			continue
		}
		w.Byte(c.Tag)
		switch c.Tag {
		case TagUTF8:
			w.U2(uint16(len(c.Text)))
			w.WriteBytes([]byte(c.Text))
		case TagInteger, TagFloat:
			w.U4(c.Bits32)
		case TagLong, TagDouble:
			w.U8(c.Bits64)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			w.U2(c.Index1)
		case TagMethodHandle:
			w.Byte(c.RefKind)
			w.U2(c.Index1)
		default:
			w.U2(c.Index1)
			w.U2(c.Index2)
		}
	}
}
