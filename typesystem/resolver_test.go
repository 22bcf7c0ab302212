package typesystem

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/metadata"
)

// attributeOnlyReader is a metadata.Reader stub whose only exercised method
// is Attributes; every other method panics if called, so a test using it
// fails loudly instead of silently reading zero values if Resolver ever
// starts calling more of the reader than InternalsVisibleTo needs.
type attributeOnlyReader struct {
	assemblyAttrs []metadata.AttributeValue
}

func (r *attributeOnlyReader) AssemblyName() string { return "Self" }

func (r *attributeOnlyReader) Attributes(h metadata.Handle) ([]metadata.AttributeValue, error) {
	if h.Kind != metadata.HandleKindAssembly {
		return nil, fmt.Errorf("unexpected handle kind %v", h.Kind)
	}
	return r.assemblyAttrs, nil
}

func (r *attributeOnlyReader) ResolveTypeSignature(metadata.Handle, metadata.GenericContext) (*metadata.SignatureNode, error) {
	panic("not implemented")
}
func (r *attributeOnlyReader) ResolveMethodSignature(metadata.Handle, metadata.GenericContext) (*metadata.MethodSignature, error) {
	panic("not implemented")
}
func (r *attributeOnlyReader) DeclaringType(metadata.Handle) (metadata.Handle, error) {
	panic("not implemented")
}
func (r *attributeOnlyReader) Name(metadata.Handle) (string, error) { panic("not implemented") }
func (r *attributeOnlyReader) MethodBody(metadata.Handle) ([]byte, []metadata.ExceptionRegion, error) {
	panic("not implemented")
}
func (r *attributeOnlyReader) LookupType(string) (metadata.Handle, bool) { panic("not implemented") }
func (r *attributeOnlyReader) Fields(metadata.Handle) ([]metadata.Handle, error) {
	panic("not implemented")
}
func (r *attributeOnlyReader) Methods(metadata.Handle) ([]metadata.Handle, error) {
	panic("not implemented")
}
func (r *attributeOnlyReader) IsStaticField(metadata.Handle) (bool, error) {
	panic("not implemented")
}

func internalsVisibleToAttr(target string) metadata.AttributeValue {
	return metadata.AttributeValue{FixedArgs: []metadata.AttributeArg{target}}
}

func TestInternalsVisibleToMatchesPlainName(t *testing.T) {
	reader := &attributeOnlyReader{assemblyAttrs: []metadata.AttributeValue{
		internalsVisibleToAttr("Other.Tests"),
	}}
	r := NewResolver(reader, nil)

	ok, err := r.InternalsVisibleTo("Other.Tests")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestInternalsVisibleToMatchesNameWithStrongNameSuffix(t *testing.T) {
	reader := &attributeOnlyReader{assemblyAttrs: []metadata.AttributeValue{
		internalsVisibleToAttr("Other.Tests, PublicKey=0024000004800000"),
	}}
	r := NewResolver(reader, nil)

	ok, err := r.InternalsVisibleTo("Other.Tests")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestInternalsVisibleToRejectsUnlistedAssembly(t *testing.T) {
	reader := &attributeOnlyReader{assemblyAttrs: []metadata.AttributeValue{
		internalsVisibleToAttr("Other.Tests"),
	}}
	r := NewResolver(reader, nil)

	ok, err := r.InternalsVisibleTo("Unrelated.Assembly")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInternalsVisibleToWithNoAttributesIsFalse(t *testing.T) {
	reader := &attributeOnlyReader{}
	r := NewResolver(reader, nil)

	ok, err := r.InternalsVisibleTo("Other.Tests")
	assert.NoError(t, err)
	assert.False(t, ok)
}

// genericMemberRefReader backs a handful of handles for a List<T> TypeDef
// declaring one method, Add(T), and a List<string> TypeSpec constructed over
// it — the shape ResolveMethod needs to exercise a MemberRef's overload match
// against a parameterized declaring type's open generic definition.
type genericMemberRefReader struct {
	listDef  metadata.Handle
	str      metadata.Handle
	listSpec metadata.Handle
	addDef   metadata.Handle
}

func newGenericMemberRefReader() *genericMemberRefReader {
	return &genericMemberRefReader{
		listDef:  metadata.Handle{Kind: metadata.HandleKindTypeDef, Token: 1},
		str:      metadata.Handle{Kind: metadata.HandleKindTypeRef, Token: 2},
		listSpec: metadata.Handle{Kind: metadata.HandleKindTypeSpec, Token: 3},
		addDef:   metadata.Handle{Kind: metadata.HandleKindMethodDef, Token: 4},
	}
}

func (r *genericMemberRefReader) AssemblyName() string { panic("not implemented") }

func (r *genericMemberRefReader) ResolveTypeSignature(h metadata.Handle, _ metadata.GenericContext) (*metadata.SignatureNode, error) {
	switch h {
	case r.listDef:
		return &metadata.SignatureNode{Kind: metadata.SigTypeRef, Type: r.listDef}, nil
	case r.str:
		return &metadata.SignatureNode{Kind: metadata.SigTypeRef, Type: r.str}, nil
	case r.listSpec:
		return &metadata.SignatureNode{
			Kind: metadata.SigGenericInstance,
			Type: r.listDef,
			Args: []*metadata.SignatureNode{{Kind: metadata.SigTypeRef, Type: r.str}},
		}, nil
	}
	return nil, fmt.Errorf("unexpected type handle %s", h)
}

func (r *genericMemberRefReader) ResolveMethodSignature(h metadata.Handle, _ metadata.GenericContext) (*metadata.MethodSignature, error) {
	switch h.Token {
	case 4: // Add(T) / Add on List<string>, both named handles of "Add"
		return &metadata.MethodSignature{
			Parameters: []*metadata.SignatureNode{{Kind: metadata.SigClassTypeParam, Index: 0}},
			Return:     &metadata.SignatureNode{Kind: metadata.SigVoid},
		}, nil
	case 5: // MemberRef naming Add on List<string>
		return &metadata.MethodSignature{
			Parameters: []*metadata.SignatureNode{{Kind: metadata.SigClassTypeParam, Index: 0}},
			Return:     &metadata.SignatureNode{Kind: metadata.SigVoid},
		}, nil
	case 6: // MemberRef naming Remove() on List<string>: never declared
		return &metadata.MethodSignature{Return: &metadata.SignatureNode{Kind: metadata.SigVoid}}, nil
	}
	return nil, fmt.Errorf("unexpected method handle %s", h)
}

func (r *genericMemberRefReader) DeclaringType(h metadata.Handle) (metadata.Handle, error) {
	switch h.Token {
	case 4:
		return r.listDef, nil
	case 5, 6:
		return r.listSpec, nil
	}
	return metadata.Handle{}, fmt.Errorf("unexpected handle %s", h)
}

func (r *genericMemberRefReader) Name(h metadata.Handle) (string, error) {
	switch h {
	case r.listDef:
		return "List", nil
	case r.str:
		return "String", nil
	}
	switch h.Token {
	case 4, 5:
		return "Add", nil
	case 6:
		return "Remove", nil
	}
	return "", fmt.Errorf("unexpected handle %s", h)
}

func (r *genericMemberRefReader) MethodBody(metadata.Handle) ([]byte, []metadata.ExceptionRegion, error) {
	panic("not implemented")
}
func (r *genericMemberRefReader) Attributes(metadata.Handle) ([]metadata.AttributeValue, error) {
	panic("not implemented")
}
func (r *genericMemberRefReader) LookupType(string) (metadata.Handle, bool) {
	panic("not implemented")
}
func (r *genericMemberRefReader) Fields(metadata.Handle) ([]metadata.Handle, error) {
	panic("not implemented")
}
func (r *genericMemberRefReader) Methods(h metadata.Handle) ([]metadata.Handle, error) {
	if h != (metadata.Handle{Kind: metadata.HandleKindTypeDef, Token: 1}) {
		return nil, fmt.Errorf("unexpected methods-of handle %s", h)
	}
	return []metadata.Handle{{Kind: metadata.HandleKindMethodDef, Token: 4}}, nil
}
func (r *genericMemberRefReader) IsStaticField(metadata.Handle) (bool, error) {
	panic("not implemented")
}

func TestResolveMethodMatchesMemberRefOverloadOnParameterizedType(t *testing.T) {
	reader := newGenericMemberRefReader()
	r := NewResolver(reader, nil)

	addRef := metadata.Handle{Kind: metadata.HandleKindMemberRef, Token: 5}
	m, err := r.ResolveMethod(addRef, metadata.GenericContext{})
	assert.NoError(t, err)
	assert.False(t, m.IsFake)
	assert.Equal(t, "Add", m.Name)
	assert.Equal(t, addRef, m.Handle)
	assert.Equal(t, KindParameterizedType, m.DeclaringType.Kind)
}

func TestResolveMethodFallsBackToFakeMethodOnUnknownMember(t *testing.T) {
	reader := newGenericMemberRefReader()
	r := NewResolver(reader, nil)

	removeRef := metadata.Handle{Kind: metadata.HandleKindMemberRef, Token: 6}
	m, err := r.ResolveMethod(removeRef, metadata.GenericContext{})
	assert.NoError(t, err)
	assert.True(t, m.IsFake)
	assert.Equal(t, "Remove", m.Name)
	assert.Empty(t, m.Parameters)
	assert.Equal(t, KindParameterizedType, m.DeclaringType.Kind)
}
