// Package typesystem is an immutable, lazily memoized façade over metadata
// handles (spec §4.A): Type, Method, Field, Property, Event, TypeParameter
// and Attribute values, resolved on demand from a metadata.Reader and
// cached so repeated resolution of the same handle returns the identical
// value. Shaped after inspector/graph.Type in the teacher repo, generalized
// from a tree-sitter-derived struct to one resolved from metadata handles.
package typesystem

// Kind discriminates what a Type represents.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindClass
	KindStruct
	KindInterface
	KindEnum
	KindArray
	KindPointer
	KindByRef
	KindNullable
	KindTuple
	KindTypeParameter
	KindParameterizedType // a generic definition applied to type arguments
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindClass:
		return "Class"
	case KindStruct:
		return "Struct"
	case KindInterface:
		return "Interface"
	case KindEnum:
		return "Enum"
	case KindArray:
		return "Array"
	case KindPointer:
		return "Pointer"
	case KindByRef:
		return "ByRef"
	case KindNullable:
		return "Nullable"
	case KindTuple:
		return "Tuple"
	case KindTypeParameter:
		return "TypeParameter"
	case KindParameterizedType:
		return "ParameterizedType"
	default:
		return "Invalid"
	}
}
