package graph

// Origin classifies where a class was read from.
type Origin int

const (
	OriginProgram Origin = iota
	OriginClasspath
	OriginLibrary
)

func (o Origin) String() string {
	switch o {
	case OriginProgram:
		return "program"
	case OriginClasspath:
		return "classpath"
	case OriginLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// AccessFlags mirrors the JVM/Dalvik access_flags bitset relevant to this
// compilation.
type AccessFlags int

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccConstructor AccessFlags = 0x10000
	AccBridge      AccessFlags = 0x0040
)

func (a AccessFlags) Has(f AccessFlags) bool { return a&f != 0 }

// Annotation is a minimal class/member annotation: a type and an opaque
// constant payload walked by the enqueuer's annotation marker.
type Annotation struct {
	Type     *Type
	Elements []AnnotationElement
}

type AnnotationElement struct {
	Name  *String
	Value any // *Type, *String, primitive, or []AnnotationElement for arrays
}

// Class is a mutable program object: a class, interface, or annotation
// type. Invariant: Type != SuperType; Type never appears in Interfaces.
type Class struct {
	Type       *Type
	Origin     Origin
	Access     AccessFlags
	SuperType  *Type // nil only for java.lang.Object
	Interfaces []*Type
	SourceFile *String

	Annotations []Annotation

	StaticFields   []*EncodedField
	InstanceFields []*EncodedField
	DirectMethods  []*EncodedMethod // constructors, static, private
	VirtualMethods []*EncodedMethod // everything else

	// ClassInitializer is DirectMethods' <clinit>, if any, cached for the
	// enqueuer's "type becomes live" transition.
	ClassInitializer *EncodedMethod
}

// AllFields returns static then instance fields, for callers that do not
// need the distinction.
func (c *Class) AllFields() []*EncodedField {
	out := make([]*EncodedField, 0, len(c.StaticFields)+len(c.InstanceFields))
	out = append(out, c.StaticFields...)
	out = append(out, c.InstanceFields...)
	return out
}

// AllMethods returns direct then virtual methods.
func (c *Class) AllMethods() []*EncodedMethod {
	out := make([]*EncodedMethod, 0, len(c.DirectMethods)+len(c.VirtualMethods))
	out = append(out, c.DirectMethods...)
	out = append(out, c.VirtualMethods...)
	return out
}

// LookupVirtualMethod returns the virtual method on c matching ref's
// name+proto, or nil. Used by dispatch resolution; does not walk the
// super-chain itself.
func (c *Class) LookupVirtualMethod(name *String, proto *Proto) *EncodedMethod {
	for _, m := range c.VirtualMethods {
		if m.Ref.Name == name && m.Ref.Proto == proto {
			return m
		}
	}
	return nil
}

func (c *Class) LookupDirectMethod(name *String, proto *Proto) *EncodedMethod {
	for _, m := range c.DirectMethods {
		if m.Ref.Name == name && m.Ref.Proto == proto {
			return m
		}
	}
	return nil
}

func (c *Class) LookupInstanceField(name *String, typ *Type) *EncodedField {
	for _, fld := range c.InstanceFields {
		if fld.Ref.Name == name && fld.Ref.Type == typ {
			return fld
		}
	}
	return nil
}

// EncodedMethod is a method definition: its reference, access flags, and
// optional IR body / debug info.
type EncodedMethod struct {
	Ref    *MethodRef
	Access AccessFlags
	Code   *Code // nil for abstract/native methods

	Annotations []Annotation

	// renamedName is set by the minifier; empty means "not yet renamed".
	renamedName *String
}

func (m *EncodedMethod) IsConstructor() bool { return m.Access.Has(AccConstructor) }
func (m *EncodedMethod) IsStatic() bool      { return m.Access.Has(AccStatic) }
func (m *EncodedMethod) IsPrivate() bool     { return m.Access.Has(AccPrivate) }

// EncodedField is a field definition: its reference, access flags, and an
// optional static initial value.
type EncodedField struct {
	Ref         *FieldRef
	Access      AccessFlags
	StaticValue any // nil if absent

	renamedName *String
}

func (f *EncodedField) IsStatic() bool { return f.Access.Has(AccStatic) }

// MoveType tags an SSA value's storage class.
type MoveType int

const (
	MoveSingle MoveType = iota
	MoveWide
	MoveObject
)

// Instruction is a single IR or Dex-register-based instruction: a tagged
// variant rather than one Go type per opcode, since the enqueuer and call
// graph builder only need to inspect use sites, not build register
// allocations. A shared Opcode plus formatted Operands is compact enough
// for any consuming pass to switch on.
type Instruction struct {
	Opcode   Opcode
	Operands []Operand
	MoveType MoveType
}

type Opcode int

const (
	OpInvokeVirtual Opcode = iota
	OpInvokeInterface
	OpInvokeSuper
	OpInvokeDirect
	OpInvokeStatic
	OpNewInstance
	OpInstanceFieldGet
	OpInstanceFieldPut
	OpStaticFieldGet
	OpStaticFieldPut
	OpOther
)

// Operand is a tagged reference an instruction carries: a method, field,
// or type reference, or an opaque constant.
type Operand struct {
	Method *MethodRef
	Field  *FieldRef
	Type   *Type
	Const  any
}

// Code is either a flat list of Dex-register-based instructions or (once
// lifted) a CFG of IR instructions over SSA values; this model does not
// distinguish the two representations structurally — both are a sequence
// of Instruction, since the enqueuer and call-graph builder only need use
// sites, not register allocation.
type Code struct {
	Instructions []Instruction
}
