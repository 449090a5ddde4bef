package classfile

// Magic is the class file magic number.
const Magic uint32 = 0xCAFEBABE

// Class file major versions the codec distinguishes.
const (
	// VersionStackMaps is the first major version whose verifier requires StackMapTable.
	VersionStackMaps uint16 = 50
	// VersionJava8 is the major version of Java 8 class files.
	VersionJava8 uint16 = 52
)

// Constant pool tags
const (
	TagUTF8               byte = 1
	TagInteger            byte = 3
	TagFloat              byte = 4
	TagLong               byte = 5
	TagDouble             byte = 6
	TagClass              byte = 7
	TagString             byte = 8
	TagFieldref           byte = 9
	TagMethodref          byte = 10
	TagInterfaceMethodref byte = 11
	TagNameAndType        byte = 12
	TagMethodHandle       byte = 15
	TagMethodType         byte = 16
	TagDynamic            byte = 17
	TagInvokeDynamic      byte = 18
	TagModule             byte = 19
	TagPackage            byte = 20
)

// Access flags for classes, fields and methods
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSynchronized uint16 = 0x0020
	AccSuper        uint16 = 0x0020
	AccBridge       uint16 = 0x0040
	AccVarargs      uint16 = 0x0080
	AccNative       uint16 = 0x0100
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800
	AccSynthetic    uint16 = 0x1000
)

// Method handle reference kinds
const (
	RefGetField         byte = 1
	RefGetStatic        byte = 2
	RefPutField         byte = 3
	RefPutStatic        byte = 4
	RefInvokeVirtual    byte = 5
	RefInvokeStatic     byte = 6
	RefInvokeSpecial    byte = 7
	RefNewInvokeSpecial byte = 8
	RefInvokeInterface  byte = 9
)

// Attribute names the codec interprets
const (
	AttrCode                        = "Code"
	AttrStackMapTable               = "StackMapTable"
	AttrLineNumberTable             = "LineNumberTable"
	AttrLocalVariableTable          = "LocalVariableTable"
	AttrLocalVariableTypeTable      = "LocalVariableTypeTable"
	AttrBootstrapMethods            = "BootstrapMethods"
	AttrRuntimeVisibleAnnotations   = "RuntimeVisibleAnnotations"
	AttrRuntimeInvisibleAnnotations = "RuntimeInvisibleAnnotations"
	AttrMethodParameters            = "MethodParameters"
	AttrExceptions                  = "Exceptions"
	AttrSignature                   = "Signature"

	AttrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	AttrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
)

// Names of special methods
const (
	ConstructorName       = "<init>"
	StaticInitializerName = "<clinit>"
)
