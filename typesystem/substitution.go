package typesystem

// Substitution binds class- and method-level type parameters to concrete
// type arguments for one generic instantiation (spec §4.A: "generic
// substitution as composition of class and method type-parameter lists").
// A substitution for a method called on a constructed generic type carries
// both: ClassArgs resolves KindTypeParameter nodes with IsMethodParam=false,
// MethodArgs resolves those with IsMethodParam=true.
type Substitution struct {
	ClassArgs  []*Type
	MethodArgs []*Type
}

// Apply substitutes occurrences of class/method type parameters within t
// with their bound arguments, returning t unchanged if it (and nothing
// beneath it) references a type parameter this substitution binds.
func (s *Substitution) Apply(t *Type) *Type {
	if s == nil || t == nil {
		return t
	}
	switch t.Kind {
	case KindTypeParameter:
		args := s.ClassArgs
		if t.Parameter.IsMethodParam {
			args = s.MethodArgs
		}
		if t.Parameter.Index < len(args) {
			return args[t.Parameter.Index]
		}
		return t
	case KindArray:
		elem := s.Apply(t.Elem)
		if elem == t.Elem {
			return t
		}
		return &Type{resolver: t.resolver, Kind: KindArray, Rank: t.Rank, Elem: elem}
	case KindPointer, KindByRef, KindNullable:
		elem := s.Apply(t.Elem)
		if elem == t.Elem {
			return t
		}
		return &Type{resolver: t.resolver, Kind: t.Kind, Elem: elem}
	case KindTuple:
		changed := false
		elements := make([]*Type, len(t.Elements))
		for i, e := range t.Elements {
			elements[i] = s.Apply(e)
			if elements[i] != e {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return &Type{resolver: t.resolver, Kind: KindTuple, Elements: elements}
	case KindParameterizedType:
		changed := false
		args := make([]*Type, len(t.TypeArguments))
		for i, a := range t.TypeArguments {
			args[i] = s.Apply(a)
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return &Type{resolver: t.resolver, Kind: KindParameterizedType, Definition: t.Definition, TypeArguments: args}
	default:
		return t
	}
}

// Compose builds the substitution a method call on a constructed generic
// type uses: classArgs bind the declaring type's parameters, methodArgs
// bind the method's own (possibly empty, for a non-generic method).
func Compose(classArgs, methodArgs []*Type) *Substitution {
	return &Substitution{ClassArgs: classArgs, MethodArgs: methodArgs}
}
