// Package metadata defines the boundary contract the transform tier assumes
// an external metadata layer satisfies (spec §1, §6): typed handles over
// type/method/field/attribute metadata, signatures delivered as a small
// generic tree the type-system view then resolves, method bodies as raw
// bytes plus an exception-region table, and an optional debug-info
// provider. Parsing the actual Portable-Executable/metadata streams is
// explicitly out of scope; this package only states what the core needs
// handed to it.
package metadata

import "fmt"

// HandleKind discriminates what a Handle addresses.
type HandleKind uint8

const (
	HandleKindInvalid HandleKind = iota
	HandleKindAssembly
	HandleKindTypeDef
	HandleKindTypeRef
	HandleKindTypeSpec
	HandleKindMethodDef
	HandleKindMethodSpec
	HandleKindMemberRef
	HandleKindField
	HandleKindProperty
	HandleKindEvent
	HandleKindCustomAttribute
)

// Handle is an opaque, comparable reference into the metadata reader's own
// tables. The core never interprets Token itself.
type Handle struct {
	Kind  HandleKind
	Token uint32
}

func (h Handle) String() string { return fmt.Sprintf("%v:0x%08x", h.Kind, h.Token) }

// IsZero reports whether h is the zero Handle (no handle).
func (h Handle) IsZero() bool { return h.Kind == HandleKindInvalid && h.Token == 0 }

// GenericContext carries the class and method type-parameter counts in
// scope for a resolution, per spec §4.A / §9 ("pass class and method
// type-parameter lists together in an explicit context value").
type GenericContext struct {
	ClassTypeParamCount  int
	MethodTypeParamCount int
}

// SigKind discriminates a SignatureNode.
type SigKind uint8

const (
	SigVoid SigKind = iota
	SigPrimitive
	SigTypeRef
	SigPointer
	SigByRef
	SigArray
	SigNullable
	SigTuple
	SigGenericInstance
	SigClassTypeParam
	SigMethodTypeParam
	SigUnboundTypeArg
)

// SignatureNode is the metadata reader's own, pre-resolution representation
// of a type appearing in a signature. The type-system view (typesystem.Resolver)
// turns these into typesystem.Type values.
type SignatureNode struct {
	Kind SigKind

	// SigPrimitive
	Primitive string

	// SigTypeRef / SigGenericInstance (definition)
	Type Handle

	// SigPointer / SigByRef / SigNullable / SigArray element
	Elem *SignatureNode

	// SigArray
	Rank int

	// SigGenericInstance / SigTuple
	Args []*SignatureNode

	// SigClassTypeParam / SigMethodTypeParam
	Index int
}

// MethodSignature is the reader's pre-resolution view of a method or
// member-reference signature.
type MethodSignature struct {
	Parameters        []*SignatureNode
	Return            *SignatureNode
	IsVarArg          bool
	GenericParamCount int
	IsStatic          bool
}

// ExceptionKind discriminates an ExceptionRegion.
type ExceptionKind uint8

const (
	ExceptionCatch ExceptionKind = iota
	ExceptionFilter
	ExceptionFinally
	ExceptionFault
)

// ExceptionRegion mirrors an ECMA-335 §II.25.4 exception-handling clause.
type ExceptionRegion struct {
	Kind          ExceptionKind
	TryStart      int
	TryEnd        int
	HandlerStart  int
	HandlerEnd    int
	FilterStart   int
	CatchType     Handle
}

// AttributeArg is a decoded fixed or named custom-attribute argument. It is
// one of: nil, bool, string, int64, float64, Handle (a Type reference), or
// []AttributeArg (an array argument).
type AttributeArg interface{}

// AttributeValue is a fully decoded custom attribute.
type AttributeValue struct {
	Constructor Handle
	Type        Handle
	FixedArgs   []AttributeArg
	NamedArgs   map[string]AttributeArg
}

// SequencePoint is one entry of a method's optional line-mapping table.
type SequencePoint struct {
	ILOffset int
	Line     int
	Column   int
}

// Reader is the inbound metadata-reader contract (spec §6). An external
// layer implements this over the real PE/metadata streams; the core only
// consumes it.
type Reader interface {
	AssemblyName() string

	// ResolveTypeSignature decodes the signature addressed by h (a TypeDef,
	// TypeRef, TypeSpec, or MemberRef's declaring-type slot) into the
	// reader's own SignatureNode tree.
	ResolveTypeSignature(h Handle, ctx GenericContext) (*SignatureNode, error)

	// ResolveMethodSignature decodes a MethodDef/MemberRef/MethodSpec.
	ResolveMethodSignature(h Handle, ctx GenericContext) (*MethodSignature, error)

	// DeclaringType returns the handle of the type that declares a method,
	// field, property, or event handle.
	DeclaringType(h Handle) (Handle, error)

	// Name returns the simple name of a type/method/field/property/event handle.
	Name(h Handle) (string, error)

	// MethodBody returns the IL byte buffer and exception-region table for a
	// MethodDef handle.
	MethodBody(h Handle) ([]byte, []ExceptionRegion, error)

	// Attributes enumerates custom attributes attached to any handle kind.
	Attributes(h Handle) ([]AttributeValue, error)

	// LookupType resolves a canonical reflection-name (no generic arguments,
	// no array/pointer suffixes — just the backtick-arity class name) to a
	// TypeDef/TypeRef handle, for typesystem.Resolver.FindType's base lookup.
	LookupType(qualifiedName string) (Handle, bool)

	// Fields enumerates the field handles declared directly on a TypeDef.
	Fields(h Handle) ([]Handle, error)

	// Methods enumerates the method handles declared directly on a TypeDef.
	Methods(h Handle) ([]Handle, error)

	// IsStaticField reports whether a field handle is a static field.
	IsStaticField(h Handle) (bool, error)
}

// DebugInfo is the optional inbound debug-symbol provider (spec §6). When
// absent, the core synthesizes variable names (V_0, V_1, ...).
type DebugInfo interface {
	// SequencePoints returns the per-offset line mapping for a method, or an
	// empty slice if none is recorded. Per spec §9's open question, an empty
	// result means "no sequence points" regardless of how the provider's
	// underlying count is signaled — never invert this check.
	SequencePoints(h Handle) ([]SequencePoint, error)

	// LocalNames returns original local-variable names keyed by slot index,
	// or nil if no debug symbols are present for the method.
	LocalNames(h Handle) (map[int]string, error)
}
