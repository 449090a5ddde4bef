package bytecode

import (
	"fmt"
	"math"

	"github.com/wippyai/entitle/classfile"
)

// constantValue resolves a loadable pool entry into its event value.
func constantValue(cf *classfile.ClassFile, idx uint16) (any, error) {
	c, err := cf.Pool.Get(idx)
	if err != nil {
		return nil, err
	}
	switch c.Tag {
	case classfile.TagInteger:
		return int32(c.Bits32), nil
	case classfile.TagFloat:
		return math.Float32frombits(c.Bits32), nil
	case classfile.TagLong:
		return int64(c.Bits64), nil
	case classfile.TagDouble:
		return math.Float64frombits(c.Bits64), nil
	case classfile.TagString:
		return cf.Pool.UTF8(c.Index1)
	case classfile.TagClass:
		name, err := cf.Pool.UTF8(c.Index1)
		return ClassRef{Name: name}, err
	case classfile.TagMethodType:
		desc, err := cf.Pool.UTF8(c.Index1)
		return MethodTypeRef{Desc: desc}, err
	case classfile.TagMethodHandle:
		return handleValue(cf, idx)
	case classfile.TagDynamic:
		bsm, args, err := bootstrapValue(cf, c.Index1)
		if err != nil {
			return nil, err
		}
		name, desc, err := cf.Pool.NameAndType(c.Index2)
		if err != nil {
			return nil, err
		}
		return ConstantDynamic{Name: name, Desc: desc, Bootstrap: bsm, Args: args}, nil
	}
	return nil, fmt.Errorf("constant %d with tag %d is not loadable", idx, c.Tag)
}

func handleValue(cf *classfile.ClassFile, idx uint16) (Handle, error) {
	c, err := cf.Pool.Get(idx)
	if err != nil {
		return Handle{}, err
	}
	if c.Tag != classfile.TagMethodHandle {
		return Handle{}, fmt.Errorf("constant %d with tag %d is not a method handle", idx, c.Tag)
	}
	ref, err := cf.Pool.MemberRef(c.Index1)
	if err != nil {
		return Handle{}, err
	}
	return Handle{
		Kind:      c.RefKind,
		Owner:     ref.Owner,
		Name:      ref.Name,
		Desc:      ref.Descriptor,
		Interface: ref.Interface(),
	}, nil
}

func bootstrapValue(cf *classfile.ClassFile, bsmIndex uint16) (Handle, []any, error) {
	if int(bsmIndex) >= len(cf.Bootstrap) {
		return Handle{}, nil, fmt.Errorf("bootstrap method %d out of range (%d)", bsmIndex, len(cf.Bootstrap))
	}
	bm := cf.Bootstrap[bsmIndex]
	h, err := handleValue(cf, bm.Ref)
	if err != nil {
		return Handle{}, nil, err
	}
	args := make([]any, len(bm.Args))
	for i, a := range bm.Args {
		if args[i], err = constantValue(cf, a); err != nil {
			return Handle{}, nil, err
		}
	}
	return h, args, nil
}

// constantIndex interns an event value in the pool.
func constantIndex(cf *classfile.ClassFile, v any) (uint16, error) {
	switch v := v.(type) {
	case int32:
		return cf.Pool.AddInteger(v), nil
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, fmt.Errorf("int constant %d out of range", v)
		}
		return cf.Pool.AddInteger(int32(v)), nil
	case float32:
		return cf.Pool.AddFloat(v), nil
	case int64:
		return cf.Pool.AddLong(v), nil
	case float64:
		return cf.Pool.AddDouble(v), nil
	case string:
		return cf.Pool.AddString(v), nil
	case ClassRef:
		return cf.Pool.AddClass(v.Name), nil
	case MethodTypeRef:
		return cf.Pool.AddMethodType(v.Desc), nil
	case Handle:
		return handleIndex(cf, v), nil
	case ConstantDynamic:
		bsm, err := bootstrapIndex(cf, v.Bootstrap, v.Args)
		if err != nil {
			return 0, err
		}
		return cf.Pool.AddDynamic(classfile.TagDynamic, bsm, v.Name, v.Desc), nil
	}
	return 0, fmt.Errorf("unsupported constant type %T", v)
}

func handleIndex(cf *classfile.ClassFile, h Handle) uint16 {
	var ref uint16
	switch {
	case h.Kind <= classfile.RefPutStatic:
		ref = cf.Pool.AddFieldRef(h.Owner, h.Name, h.Desc)
	default:
		ref = cf.Pool.AddMethodRef(h.Owner, h.Name, h.Desc, h.Interface)
	}
	return cf.Pool.AddMethodHandle(h.Kind, ref)
}

func bootstrapIndex(cf *classfile.ClassFile, bsm Handle, args []any) (uint16, error) {
	ref := handleIndex(cf, bsm)
	idx := make([]uint16, len(args))
	for i, a := range args {
		var err error
		if idx[i], err = constantIndex(cf, a); err != nil {
			return 0, err
		}
	}
	return cf.AddBootstrapMethod(ref, idx), nil
}

// isWide reports whether a constant needs ldc2_w.
func isWide(v any) bool {
	switch v := v.(type) {
	case int64, float64:
		return true
	case ConstantDynamic:
		return v.Desc == "J" || v.Desc == "D"
	}
	return false
}
