package typesystem

import "github.com/viant/ilcore/metadata"

// AttributeSet is a name-indexed view over a handle's decoded custom
// attributes, the same "collapse a positional list into lookups by name"
// move the teacher's annotation/tag extraction (analyzer/meta.go) makes
// for source-level struct tags.
type AttributeSet struct {
	byName map[string][]metadata.AttributeValue
}

// NewAttributeSet indexes attrs by their constructor's declaring type name,
// resolved lazily through resolver so repeated lookups of the same
// attribute don't re-walk the list.
func NewAttributeSet(resolver *Resolver, attrs []metadata.AttributeValue) (*AttributeSet, error) {
	set := &AttributeSet{byName: make(map[string][]metadata.AttributeValue, len(attrs))}
	for _, a := range attrs {
		t, err := resolver.ResolveType(a.Type, metadata.GenericContext{})
		if err != nil {
			return nil, err
		}
		set.byName[t.QualifiedName()] = append(set.byName[t.QualifiedName()], a)
	}
	return set, nil
}

// Has reports whether an attribute of the given fully-qualified name is present.
func (s *AttributeSet) Has(qualifiedName string) bool {
	return len(s.byName[qualifiedName]) > 0
}

// Get returns the (possibly empty) attributes of the given fully-qualified name.
func (s *AttributeSet) Get(qualifiedName string) []metadata.AttributeValue {
	return s.byName[qualifiedName]
}

const internalsVisibleToAttributeName = "System.Runtime.CompilerServices.InternalsVisibleToAttribute"
const compilerGeneratedAttributeName = "System.Runtime.CompilerServices.CompilerGeneratedAttribute"

// IsCompilerGenerated reports whether the set carries
// [CompilerGenerated], the attribute that marks a compiler-synthesized
// helper (enumerator state machine, closure display class, ...) rather than
// a genuine user type.
func (s *AttributeSet) IsCompilerGenerated() bool {
	return s.Has(compilerGeneratedAttributeName)
}
