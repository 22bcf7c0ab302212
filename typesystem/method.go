package typesystem

import (
	"sync/atomic"

	"github.com/viant/ilcore/metadata"
)

// Parameter is a resolved method parameter.
type Parameter struct {
	Name string
	Type *Type
}

// Method is a resolved method, constructor, or operator. A FakeMethod
// (IsFake) has no metadata.Handle backing it: ResolveMethod synthesizes one
// (NewFakeMethod) for a member reference whose named overload is not
// declared on the open generic definition, so it cannot be resolved lazily.
type Method struct {
	resolver *Resolver

	DeclaringType *Type
	Name          string
	Handle        metadata.Handle

	Parameters []*Parameter
	ReturnType *Type
	IsStatic   bool
	IsVarArg   bool

	TypeParameters []*TypeParameter
	Substitution   *Substitution

	IsFake bool

	attrs atomic.Pointer[[]metadata.AttributeValue]
}

// Attributes resolves and returns the method's custom attributes. A fake
// method always returns an empty, nil-error result.
func (m *Method) Attributes() ([]metadata.AttributeValue, error) {
	if m.IsFake {
		return nil, nil
	}
	if p := m.attrs.Load(); p != nil {
		return *p, nil
	}
	attrs, err := m.resolver.reader.Attributes(m.Handle)
	if err != nil {
		return nil, err
	}
	m.attrs.CompareAndSwap(nil, &attrs)
	return *m.attrs.Load(), nil
}

// QualifiedName returns "DeclaringType.Name".
func (m *Method) QualifiedName() string {
	if m.DeclaringType == nil {
		return m.Name
	}
	return m.DeclaringType.QualifiedName() + "." + m.Name
}

func (m *Method) String() string { return m.QualifiedName() }
