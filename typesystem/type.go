package typesystem

import (
	"fmt"
	"sync/atomic"

	"github.com/viant/ilcore/metadata"
)

// TypeParameter is a class- or method-level generic parameter.
type TypeParameter struct {
	Name          string
	Index         int
	IsMethodParam bool
	Constraints   []*Type
}

// Type is the resolved, immutable view of a metadata type. Instances are
// owned and memoized by a single Resolver: resolving the same Handle twice
// returns the identical *Type, so pointer equality doubles as "same type"
// for all but the generic-substitution cases documented on Equal.
type Type struct {
	resolver *Resolver

	Kind    Kind
	Name    string
	Package string // namespace, dotted form
	Handle  metadata.Handle

	// KindPrimitive
	Primitive string

	// KindArray / KindPointer / KindByRef / KindNullable
	Elem *Type
	Rank int // KindArray

	// KindTuple
	Elements []*Type

	// Class/struct/interface/enum
	TypeParameters []*TypeParameter
	Extends        *Type
	Implements     []*Type
	IsValueType    bool

	// KindParameterizedType: Definition is the open generic type,
	// TypeArguments binds each of Definition's TypeParameters in order.
	Definition    *Type
	TypeArguments []*Type

	// KindTypeParameter
	Parameter *TypeParameter

	fields  atomic.Pointer[[]*Field]
	methods atomic.Pointer[[]*Method]
	attrs   atomic.Pointer[[]metadata.AttributeValue]

	fieldByName  map[string]*Field
	methodsByName map[string][]*Method
}

// QualifiedName returns Package+"."+Name, or Name alone when Package is empty.
func (t *Type) QualifiedName() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

// Fields resolves and returns the type's declared instance and static
// fields, computing them at most once via a volatile-read /
// compute-if-absent / compare-and-swap sequence so concurrent callers never
// block on each other and never compute twice for nothing.
func (t *Type) Fields() ([]*Field, error) {
	if p := t.fields.Load(); p != nil {
		return *p, nil
	}
	fields, err := t.resolver.resolveFields(t)
	if err != nil {
		return nil, err
	}
	t.fields.CompareAndSwap(nil, &fields)
	return *t.fields.Load(), nil
}

// Methods resolves and returns the type's declared methods, with the same
// memoization discipline as Fields.
func (t *Type) Methods() ([]*Method, error) {
	if p := t.methods.Load(); p != nil {
		return *p, nil
	}
	methods, err := t.resolver.resolveMethods(t)
	if err != nil {
		return nil, err
	}
	t.methods.CompareAndSwap(nil, &methods)
	return *t.methods.Load(), nil
}

// Attributes resolves and returns the type's custom attributes.
func (t *Type) Attributes() ([]metadata.AttributeValue, error) {
	if p := t.attrs.Load(); p != nil {
		return *p, nil
	}
	attrs, err := t.resolver.reader.Attributes(t.Handle)
	if err != nil {
		return nil, fmt.Errorf("typesystem: resolving attributes of %s: %w", t.QualifiedName(), err)
	}
	t.attrs.CompareAndSwap(nil, &attrs)
	return *t.attrs.Load(), nil
}

// GetField looks up a field by name among the already-resolved Fields().
func (t *Type) GetField(name string) (*Field, bool) {
	fields, err := t.Fields()
	if err != nil {
		return nil, false
	}
	if t.fieldByName == nil {
		t.fieldByName = make(map[string]*Field, len(fields))
		for _, f := range fields {
			t.fieldByName[f.Name] = f
		}
	}
	f, ok := t.fieldByName[name]
	return f, ok
}

// Equal reports structural equality modulo type-parameter position: two
// class/method type parameters compare equal if they share Index and
// IsMethodParam, regardless of Name (spec §4.A: "structural equality modulo
// normalization for generic type-parameter positions").
func (t *Type) Equal(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindTypeParameter:
		return t.Parameter.Index == other.Parameter.Index &&
			t.Parameter.IsMethodParam == other.Parameter.IsMethodParam
	case KindPrimitive:
		return t.Primitive == other.Primitive
	case KindArray:
		return t.Rank == other.Rank && t.Elem.Equal(other.Elem)
	case KindPointer, KindByRef, KindNullable:
		return t.Elem.Equal(other.Elem)
	case KindTuple:
		if len(t.Elements) != len(other.Elements) {
			return false
		}
		for i := range t.Elements {
			if !t.Elements[i].Equal(other.Elements[i]) {
				return false
			}
		}
		return true
	case KindParameterizedType:
		if !t.Definition.Equal(other.Definition) || len(t.TypeArguments) != len(other.TypeArguments) {
			return false
		}
		for i := range t.TypeArguments {
			if !t.TypeArguments[i].Equal(other.TypeArguments[i]) {
				return false
			}
		}
		return true
	default:
		return t.Handle == other.Handle
	}
}

func (t *Type) String() string { return t.QualifiedName() }
