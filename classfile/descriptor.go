package classfile

import (
	"strings"

	"github.com/wippyai/entitle/errors"
)

// MethodType is a parsed method descriptor.
type MethodType struct {
	Return string
	Args   []string
}

// ParseMethodDescriptor splits a descriptor such as "(ILjava/lang/String;[J)V" into field
// descriptors.
func ParseMethodDescriptor(desc string) (MethodType, error) {
	if len(desc) < 3 || desc[0] != '(' {
		return MethodType{}, descriptorError(desc)
	}
	var mt MethodType
	i := 1
	for i < len(desc) && desc[i] != ')' {
		n := fieldTypeLen(desc[i:])
		if n == 0 {
			return MethodType{}, descriptorError(desc)
		}
		mt.Args = append(mt.Args, desc[i:i+n])
		i += n
	}
	if i >= len(desc) {
		return MethodType{}, descriptorError(desc)
	}
	ret := desc[i+1:]
	if ret != "V" && fieldTypeLen(ret) != len(ret) {
		return MethodType{}, descriptorError(desc)
	}
	mt.Return = ret
	return mt, nil
}

func descriptorError(desc string) error {
	return errors.InvalidData(errors.PhaseParse, []string{"descriptor"}, "malformed method descriptor "+desc)
}

func fieldTypeLen(s string) int {
	if s == "" {
		return 0
	}
	switch s[0] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return 1
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 2 {
			return 0
		}
		return end + 1
	case '[':
		n := fieldTypeLen(s[1:])
		if n == 0 {
			return 0
		}
		return n + 1
	}
	return 0
}

// Descriptor rebuilds the descriptor string.
func (mt MethodType) Descriptor() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, a := range mt.Args {
		b.WriteString(a)
	}
	b.WriteByte(')')
	b.WriteString(mt.Return)
	return b.String()
}

// ArgSlots returns the number of local variable slots the arguments occupy, not counting
// the receiver.
func (mt MethodType) ArgSlots() int {
	n := 0
	for _, a := range mt.Args {
		n += SlotSize(a)
	}
	return n
}

// SlotSize returns the number of local or stack slots a value of the given field type
// occupies.
func SlotSize(fieldType string) int {
	switch fieldType {
	case "V":
		return 0
	case "J", "D":
		return 2
	}
	return 1
}
