package typesystem

import "github.com/viant/ilcore/metadata"

// Field is a resolved instance or static field.
type Field struct {
	DeclaringType *Type
	Name          string
	Type          *Type
	IsStatic      bool
	Handle        metadata.Handle
}

// Property is a resolved property (a Get/Set method pair over a backing
// signature; CIL has no dedicated property storage).
type Property struct {
	DeclaringType *Type
	Name          string
	Type          *Type
	Getter        *Method
	Setter        *Method
	Handle        metadata.Handle
}

// Event is a resolved event (an Add/Remove method pair).
type Event struct {
	DeclaringType *Type
	Name          string
	HandlerType   *Type
	Add           *Method
	Remove        *Method
	Handle        metadata.Handle
}
