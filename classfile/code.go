package classfile

import (
	"fmt"

	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/internal/binary"
)

// ExceptionHandler is one exception_table entry. CatchType 0 catches everything.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// Code is a decoded Code attribute. Nested attributes stay encoded.
type Code struct {
	Bytecode   []byte
	Handlers   []ExceptionHandler
	Attributes []Attribute
	MaxStack   uint16
	MaxLocals  uint16
}

// Attribute returns the first nested attribute with the given name.
func (c *Code) Attribute(name string) (Attribute, bool) {
	return findAttribute(c.Attributes, name)
}

// ParseCode decodes the body of a Code attribute.
func ParseCode(pool *Pool, data []byte) (*Code, error) {
	r := binary.NewBytesReader(data)
	c := &Code{}
	var err error
	if c.MaxStack, err = r.ReadU2(); err != nil {
		return nil, codeError(r, err)
	}
	if c.MaxLocals, err = r.ReadU2(); err != nil {
		return nil, codeError(r, err)
	}
	if c.Bytecode, err = r.ReadBlock(); err != nil {
		return nil, codeError(r, err)
	}
	if len(c.Bytecode) == 0 {
		return nil, codeError(r, fmt.Errorf("empty code array"))
	}
	n, err := r.ReadU2()
	if err != nil {
		return nil, codeError(r, err)
	}
	c.Handlers = make([]ExceptionHandler, n)
	for i := range c.Handlers {
		h := &c.Handlers[i]
		for _, f := range []*uint16{&h.StartPC, &h.EndPC, &h.HandlerPC, &h.CatchType} {
			if *f, err = r.ReadU2(); err != nil {
				return nil, codeError(r, err)
			}
		}
	}
	if c.Attributes, err = parseAttributes(r, pool, AttrCode); err != nil {
		return nil, errors.ParseFailed("Code attribute", err)
	}
	return c, nil
}

func codeError(r *binary.Reader, err error) error {
	return errors.ParseFailed("Code attribute", r.WrapError(AttrCode, err))
}

// Encode serializes the Code attribute body.
func (c *Code) Encode() []byte {
	w := binary.NewWriter()
	w.U2(c.MaxStack)
	w.U2(c.MaxLocals)
	w.Block(c.Bytecode)
	w.U2(uint16(len(c.Handlers)))
	for _, h := range c.Handlers {
		w.U2(h.StartPC)
		w.U2(h.EndPC)
		w.U2(h.HandlerPC)
		w.U2(h.CatchType)
	}
	encodeAttributes(w, c.Attributes)
	return w.Bytes()
}
