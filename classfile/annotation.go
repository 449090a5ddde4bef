package classfile

import (
	"fmt"

	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/internal/binary"
)

// Annotation is one entry of a Runtime(In)VisibleAnnotations attribute. Elements holds the
// encoded num_element_value_pairs and element_value_pairs, whose pool indices stay valid
// because the pool is only ever appended to.
type Annotation struct {
	Type     string
	Elements []byte
}

// Marker reports whether the annotation has no elements.
func (a Annotation) Marker() bool {
	return len(a.Elements) == 2 && a.Elements[0] == 0 && a.Elements[1] == 0
}

// ParseAnnotations decodes an annotations attribute body.
func ParseAnnotations(pool *Pool, data []byte) ([]Annotation, error) {
	r := binary.NewBytesReader(data)
	n, err := r.ReadU2()
	if err != nil {
		return nil, annotationError(r, err)
	}
	out := make([]Annotation, n)
	for i := range out {
		ti, err := r.ReadU2()
		if err != nil {
			return nil, annotationError(r, err)
		}
		if out[i].Type, err = pool.UTF8(ti); err != nil {
			return nil, annotationError(r, err)
		}
		start := r.Position()
		if err := skipElementPairs(r); err != nil {
			return nil, annotationError(r, err)
		}
		out[i].Elements = data[start:r.Position()]
	}
	return out, nil
}

func annotationError(r *binary.Reader, err error) error {
	return errors.ParseFailed("annotations", r.WrapError("annotations", err))
}

func skipElementPairs(r *binary.Reader) error {
	pairs, err := r.ReadU2()
	if err != nil {
		return err
	}
	for i := 0; i < int(pairs); i++ {
		if err := r.Skip(2); err != nil {
			return err
		}
		if err := skipElementValue(r); err != nil {
			return err
		}
	}
	return nil
}

func skipElementValue(r *binary.Reader) error {
	tag, err := r.ReadU1()
	if err != nil {
		return err
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		return r.Skip(2)
	case 'e':
		return r.Skip(4)
	case '@':
		if err := r.Skip(2); err != nil {
			return err
		}
		return skipElementPairs(r)
	case '[':
		n, err := r.ReadU2()
		if err != nil {
			return err
		}
		for i := 0; i < int(n); i++ {
			if err := skipElementValue(r); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown element_value tag %q", tag)
	}
}

// EncodeAnnotations serializes an annotations attribute body, interning type names.
func EncodeAnnotations(pool *Pool, anns []Annotation) []byte {
	w := binary.NewWriter()
	w.U2(uint16(len(anns)))
	for _, a := range anns {
		w.U2(pool.AddUTF8(a.Type))
		if len(a.Elements) == 0 {
			w.U2(0)
			continue
		}
		w.WriteBytes(a.Elements)
	}
	return w.Bytes()
}

// Parameter is one MethodParameters entry. An empty Name encodes as index 0.
type Parameter struct {
	Name   string
	Access uint16
}

// ParseParameters decodes a MethodParameters attribute body.
func ParseParameters(pool *Pool, data []byte) ([]Parameter, error) {
	r := binary.NewBytesReader(data)
	n, err := r.ReadU1()
	if err != nil {
		return nil, errors.ParseFailed("MethodParameters", r.WrapError(AttrMethodParameters, err))
	}
	out := make([]Parameter, n)
	for i := range out {
		ni, err := r.ReadU2()
		if err != nil {
			return nil, errors.ParseFailed("MethodParameters", r.WrapError(AttrMethodParameters, err))
		}
		if ni != 0 {
			if out[i].Name, err = pool.UTF8(ni); err != nil {
				return nil, errors.ParseFailed("MethodParameters", err)
			}
		}
		if out[i].Access, err = r.ReadU2(); err != nil {
			return nil, errors.ParseFailed("MethodParameters", r.WrapError(AttrMethodParameters, err))
		}
	}
	return out, nil
}

// EncodeParameters serializes a MethodParameters attribute body.
func EncodeParameters(pool *Pool, params []Parameter) []byte {
	w := binary.NewWriter()
	w.Byte(byte(len(params)))
	for _, p := range params {
		if p.Name == "" {
			w.U2(0)
		} else {
			w.U2(pool.AddUTF8(p.Name))
		}
		w.U2(p.Access)
	}
	return w.Bytes()
}
