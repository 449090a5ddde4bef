package bytecode

// Format describes how an opcode's operands are encoded.
type Format byte

const (
	FormatInvalid Format = iota
	FormatNone
	FormatByte
	FormatShort
	FormatLdc
	FormatLdcWide
	FormatVar
	FormatVarShort
	FormatIinc
	FormatJump
	FormatJumpWide
	FormatTableSwitch
	FormatLookupSwitch
	FormatField
	FormatMethod
	FormatInterface
	FormatDynamic
	FormatType
	FormatMultiANewArray
	FormatWide
)

type opInfo struct {
	name   string
	format Format
}

var opcodes = [256]opInfo{
	0x00: {"NOP", FormatNone},
	0x01: {"ACONST_NULL", FormatNone},
	0x02: {"ICONST_M1", FormatNone},
	0x03: {"ICONST_0", FormatNone},
	0x04: {"ICONST_1", FormatNone},
	0x05: {"ICONST_2", FormatNone},
	0x06: {"ICONST_3", FormatNone},
	0x07: {"ICONST_4", FormatNone},
	0x08: {"ICONST_5", FormatNone},
	0x09: {"LCONST_0", FormatNone},
	0x0a: {"LCONST_1", FormatNone},
	0x0b: {"FCONST_0", FormatNone},
	0x0c: {"FCONST_1", FormatNone},
	0x0d: {"FCONST_2", FormatNone},
	0x0e: {"DCONST_0", FormatNone},
	0x0f: {"DCONST_1", FormatNone},
	0x10: {"BIPUSH", FormatByte},
	0x11: {"SIPUSH", FormatShort},
	0x12: {"LDC", FormatLdc},
	0x13: {"LDC_W", FormatLdcWide},
	0x14: {"LDC2_W", FormatLdcWide},
	0x15: {"ILOAD", FormatVar},
	0x16: {"LLOAD", FormatVar},
	0x17: {"FLOAD", FormatVar},
	0x18: {"DLOAD", FormatVar},
	0x19: {"ALOAD", FormatVar},
	0x1a: {"ILOAD_0", FormatVarShort},
	0x1b: {"ILOAD_1", FormatVarShort},
	0x1c: {"ILOAD_2", FormatVarShort},
	0x1d: {"ILOAD_3", FormatVarShort},
	0x1e: {"LLOAD_0", FormatVarShort},
	0x1f: {"LLOAD_1", FormatVarShort},
	0x20: {"LLOAD_2", FormatVarShort},
	0x21: {"LLOAD_3", FormatVarShort},
	0x22: {"FLOAD_0", FormatVarShort},
	0x23: {"FLOAD_1", FormatVarShort},
	0x24: {"FLOAD_2", FormatVarShort},
	0x25: {"FLOAD_3", FormatVarShort},
	0x26: {"DLOAD_0", FormatVarShort},
	0x27: {"DLOAD_1", FormatVarShort},
	0x28: {"DLOAD_2", FormatVarShort},
	0x29: {"DLOAD_3", FormatVarShort},
	0x2a: {"ALOAD_0", FormatVarShort},
	0x2b: {"ALOAD_1", FormatVarShort},
	0x2c: {"ALOAD_2", FormatVarShort},
	0x2d: {"ALOAD_3", FormatVarShort},
	0x2e: {"IALOAD", FormatNone},
	0x2f: {"LALOAD", FormatNone},
	0x30: {"FALOAD", FormatNone},
	0x31: {"DALOAD", FormatNone},
	0x32: {"AALOAD", FormatNone},
	0x33: {"BALOAD", FormatNone},
	0x34: {"CALOAD", FormatNone},
	0x35: {"SALOAD", FormatNone},
	0x36: {"ISTORE", FormatVar},
	0x37: {"LSTORE", FormatVar},
	0x38: {"FSTORE", FormatVar},
	0x39: {"DSTORE", FormatVar},
	0x3a: {"ASTORE", FormatVar},
	0x3b: {"ISTORE_0", FormatVarShort},
	0x3c: {"ISTORE_1", FormatVarShort},
	0x3d: {"ISTORE_2", FormatVarShort},
	0x3e: {"ISTORE_3", FormatVarShort},
	0x3f: {"LSTORE_0", FormatVarShort},
	0x40: {"LSTORE_1", FormatVarShort},
	0x41: {"LSTORE_2", FormatVarShort},
	0x42: {"LSTORE_3", FormatVarShort},
	0x43: {"FSTORE_0", FormatVarShort},
	0x44: {"FSTORE_1", FormatVarShort},
	0x45: {"FSTORE_2", FormatVarShort},
	0x46: {"FSTORE_3", FormatVarShort},
	0x47: {"DSTORE_0", FormatVarShort},
	0x48: {"DSTORE_1", FormatVarShort},
	0x49: {"DSTORE_2", FormatVarShort},
	0x4a: {"DSTORE_3", FormatVarShort},
	0x4b: {"ASTORE_0", FormatVarShort},
	0x4c: {"ASTORE_1", FormatVarShort},
	0x4d: {"ASTORE_2", FormatVarShort},
	0x4e: {"ASTORE_3", FormatVarShort},
	0x4f: {"IASTORE", FormatNone},
	0x50: {"LASTORE", FormatNone},
	0x51: {"FASTORE", FormatNone},
	0x52: {"DASTORE", FormatNone},
	0x53: {"AASTORE", FormatNone},
	0x54: {"BASTORE", FormatNone},
	0x55: {"CASTORE", FormatNone},
	0x56: {"SASTORE", FormatNone},
	0x57: {"POP", FormatNone},
	0x58: {"POP2", FormatNone},
	0x59: {"DUP", FormatNone},
	0x5a: {"DUP_X1", FormatNone},
	0x5b: {"DUP_X2", FormatNone},
	0x5c: {"DUP2", FormatNone},
	0x5d: {"DUP2_X1", FormatNone},
	0x5e: {"DUP2_X2", FormatNone},
	0x5f: {"SWAP", FormatNone},
	0x60: {"IADD", FormatNone},
	0x61: {"LADD", FormatNone},
	0x62: {"FADD", FormatNone},
	0x63: {"DADD", FormatNone},
	0x64: {"ISUB", FormatNone},
	0x65: {"LSUB", FormatNone},
	0x66: {"FSUB", FormatNone},
	0x67: {"DSUB", FormatNone},
	0x68: {"IMUL", FormatNone},
	0x69: {"LMUL", FormatNone},
	0x6a: {"FMUL", FormatNone},
	0x6b: {"DMUL", FormatNone},
	0x6c: {"IDIV", FormatNone},
	0x6d: {"LDIV", FormatNone},
	0x6e: {"FDIV", FormatNone},
	0x6f: {"DDIV", FormatNone},
	0x70: {"IREM", FormatNone},
	0x71: {"LREM", FormatNone},
	0x72: {"FREM", FormatNone},
	0x73: {"DREM", FormatNone},
	0x74: {"INEG", FormatNone},
	0x75: {"LNEG", FormatNone},
	0x76: {"FNEG", FormatNone},
	0x77: {"DNEG", FormatNone},
	0x78: {"ISHL", FormatNone},
	0x79: {"LSHL", FormatNone},
	0x7a: {"ISHR", FormatNone},
	0x7b: {"LSHR", FormatNone},
	0x7c: {"IUSHR", FormatNone},
	0x7d: {"LUSHR", FormatNone},
	0x7e: {"IAND", FormatNone},
	0x7f: {"LAND", FormatNone},
	0x80: {"IOR", FormatNone},
	0x81: {"LOR", FormatNone},
	0x82: {"IXOR", FormatNone},
	0x83: {"LXOR", FormatNone},
	0x84: {"IINC", FormatIinc},
	0x85: {"I2L", FormatNone},
	0x86: {"I2F", FormatNone},
	0x87: {"I2D", FormatNone},
	0x88: {"L2I", FormatNone},
	0x89: {"L2F", FormatNone},
	0x8a: {"L2D", FormatNone},
	0x8b: {"F2I", FormatNone},
	0x8c: {"F2L", FormatNone},
	0x8d: {"F2D", FormatNone},
	0x8e: {"D2I", FormatNone},
	0x8f: {"D2L", FormatNone},
	0x90: {"D2F", FormatNone},
	0x91: {"I2B", FormatNone},
	0x92: {"I2C", FormatNone},
	0x93: {"I2S", FormatNone},
	0x94: {"LCMP", FormatNone},
	0x95: {"FCMPL", FormatNone},
	0x96: {"FCMPG", FormatNone},
	0x97: {"DCMPL", FormatNone},
	0x98: {"DCMPG", FormatNone},
	0x99: {"IFEQ", FormatJump},
	0x9a: {"IFNE", FormatJump},
	0x9b: {"IFLT", FormatJump},
	0x9c: {"IFGE", FormatJump},
	0x9d: {"IFGT", FormatJump},
	0x9e: {"IFLE", FormatJump},
	0x9f: {"IF_ICMPEQ", FormatJump},
	0xa0: {"IF_ICMPNE", FormatJump},
	0xa1: {"IF_ICMPLT", FormatJump},
	0xa2: {"IF_ICMPGE", FormatJump},
	0xa3: {"IF_ICMPGT", FormatJump},
	0xa4: {"IF_ICMPLE", FormatJump},
	0xa5: {"IF_ACMPEQ", FormatJump},
	0xa6: {"IF_ACMPNE", FormatJump},
	0xa7: {"GOTO", FormatJump},
	0xa8: {"JSR", FormatJump},
	0xa9: {"RET", FormatVar},
	0xaa: {"TABLESWITCH", FormatTableSwitch},
	0xab: {"LOOKUPSWITCH", FormatLookupSwitch},
	0xac: {"IRETURN", FormatNone},
	0xad: {"LRETURN", FormatNone},
	0xae: {"FRETURN", FormatNone},
	0xaf: {"DRETURN", FormatNone},
	0xb0: {"ARETURN", FormatNone},
	0xb1: {"RETURN", FormatNone},
	0xb2: {"GETSTATIC", FormatField},
	0xb3: {"PUTSTATIC", FormatField},
	0xb4: {"GETFIELD", FormatField},
	0xb5: {"PUTFIELD", FormatField},
	0xb6: {"INVOKEVIRTUAL", FormatMethod},
	0xb7: {"INVOKESPECIAL", FormatMethod},
	0xb8: {"INVOKESTATIC", FormatMethod},
	0xb9: {"INVOKEINTERFACE", FormatInterface},
	0xba: {"INVOKEDYNAMIC", FormatDynamic},
	0xbb: {"NEW", FormatType},
	0xbc: {"NEWARRAY", FormatByte},
	0xbd: {"ANEWARRAY", FormatType},
	0xbe: {"ARRAYLENGTH", FormatNone},
	0xbf: {"ATHROW", FormatNone},
	0xc0: {"CHECKCAST", FormatType},
	0xc1: {"INSTANCEOF", FormatType},
	0xc2: {"MONITORENTER", FormatNone},
	0xc3: {"MONITOREXIT", FormatNone},
	0xc4: {"WIDE", FormatWide},
	0xc5: {"MULTIANEWARRAY", FormatMultiANewArray},
	0xc6: {"IFNULL", FormatJump},
	0xc7: {"IFNONNULL", FormatJump},
	0xc8: {"GOTO_W", FormatJumpWide},
	0xc9: {"JSR_W", FormatJumpWide},
}

// Name returns the mnemonic of an opcode, or "" for an undefined one.
func Name(op int) string {
	if op < 0 || op > 0xff {
		return ""
	}
	return opcodes[op].name
}

// FormatOf returns the operand format of an opcode.
func FormatOf(op int) Format {
	if op < 0 || op > 0xff {
		return FormatInvalid
	}
	return opcodes[op].format
}
