package typesystem

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/viant/ilcore/metadata"
)

// Resolver is the single, concurrency-safe owner of every *Type and *Method
// value resolved from one metadata.Reader. Whole-module decompilation may
// resolve types from many methods' IL trees concurrently (spec §1); Resolver
// makes that safe by memoizing each Handle's Type behind a mutex-guarded map
// and collapsing concurrent first-resolutions of the same handle into one
// reader call via singleflight, rather than letting every goroutine race the
// reader independently.
type Resolver struct {
	reader metadata.Reader
	debug  metadata.DebugInfo

	mu    sync.Mutex
	types map[metadata.Handle]*Type

	group singleflight.Group
}

// NewResolver creates a Resolver over reader. debug may be nil.
func NewResolver(reader metadata.Reader, debug metadata.DebugInfo) *Resolver {
	return &Resolver{
		reader: reader,
		debug:  debug,
		types:  make(map[metadata.Handle]*Type),
	}
}

// ResolveType resolves h to its memoized *Type, computing it on first
// request. Concurrent callers resolving the same handle block on a single
// in-flight computation rather than each issuing their own reader call.
func (r *Resolver) ResolveType(h metadata.Handle, ctx metadata.GenericContext) (*Type, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("typesystem: cannot resolve zero handle")
	}

	r.mu.Lock()
	if t, ok := r.types[h]; ok {
		r.mu.Unlock()
		return t, nil
	}
	r.mu.Unlock()

	key := h.String()
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		r.mu.Lock()
		if t, ok := r.types[h]; ok {
			r.mu.Unlock()
			return t, nil
		}
		r.mu.Unlock()

		sig, err := r.reader.ResolveTypeSignature(h, ctx)
		if err != nil {
			return nil, fmt.Errorf("typesystem: resolving type %s: %w", h, err)
		}
		t, err := r.buildType(sig, h, ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if existing, ok := r.types[h]; ok {
			r.mu.Unlock()
			return existing, nil
		}
		r.types[h] = t
		r.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Type), nil
}

// buildType turns the reader's pre-resolution SignatureNode into a *Type,
// recursively resolving nested element/argument types.
func (r *Resolver) buildType(sig *metadata.SignatureNode, h metadata.Handle, ctx metadata.GenericContext) (*Type, error) {
	switch sig.Kind {
	case metadata.SigPrimitive:
		return &Type{resolver: r, Kind: KindPrimitive, Name: sig.Primitive, Primitive: sig.Primitive}, nil
	case metadata.SigTypeRef:
		name, err := r.reader.Name(sig.Type)
		if err != nil {
			return nil, fmt.Errorf("typesystem: naming %s: %w", sig.Type, err)
		}
		return &Type{resolver: r, Kind: KindClass, Name: name, Handle: sig.Type}, nil
	case metadata.SigPointer:
		elem, err := r.resolveElem(sig.Elem, ctx)
		if err != nil {
			return nil, err
		}
		return &Type{resolver: r, Kind: KindPointer, Elem: elem}, nil
	case metadata.SigByRef:
		elem, err := r.resolveElem(sig.Elem, ctx)
		if err != nil {
			return nil, err
		}
		return &Type{resolver: r, Kind: KindByRef, Elem: elem}, nil
	case metadata.SigNullable:
		elem, err := r.resolveElem(sig.Elem, ctx)
		if err != nil {
			return nil, err
		}
		return &Type{resolver: r, Kind: KindNullable, Elem: elem}, nil
	case metadata.SigArray:
		elem, err := r.resolveElem(sig.Elem, ctx)
		if err != nil {
			return nil, err
		}
		return &Type{resolver: r, Kind: KindArray, Elem: elem, Rank: sig.Rank}, nil
	case metadata.SigTuple:
		elements := make([]*Type, len(sig.Args))
		for i, a := range sig.Args {
			e, err := r.resolveElem(a, ctx)
			if err != nil {
				return nil, err
			}
			elements[i] = e
		}
		return &Type{resolver: r, Kind: KindTuple, Elements: elements}, nil
	case metadata.SigGenericInstance:
		def, err := r.ResolveType(sig.Type, ctx)
		if err != nil {
			return nil, err
		}
		args := make([]*Type, len(sig.Args))
		for i, a := range sig.Args {
			t, err := r.resolveElem(a, ctx)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		return &Type{resolver: r, Kind: KindParameterizedType, Definition: def, TypeArguments: args}, nil
	case metadata.SigClassTypeParam:
		return &Type{resolver: r, Kind: KindTypeParameter,
			Parameter: &TypeParameter{Index: sig.Index, IsMethodParam: false}}, nil
	case metadata.SigMethodTypeParam:
		return &Type{resolver: r, Kind: KindTypeParameter,
			Parameter: &TypeParameter{Index: sig.Index, IsMethodParam: true}}, nil
	case metadata.SigVoid:
		return &Type{resolver: r, Kind: KindPrimitive, Name: "void", Primitive: "void"}, nil
	default:
		return nil, fmt.Errorf("typesystem: unhandled signature kind %d", sig.Kind)
	}
}

func (r *Resolver) resolveElem(sig *metadata.SignatureNode, ctx metadata.GenericContext) (*Type, error) {
	if sig.Kind == metadata.SigTypeRef || sig.Kind == metadata.SigGenericInstance {
		return r.ResolveType(sig.Type, ctx)
	}
	return r.buildType(sig, metadata.Handle{}, ctx)
}

// FindType resolves a canonical reflection-name to a *Type via the reader's
// LookupType, then ResolveType on the returned handle.
func (r *Resolver) FindType(qualifiedName string) (*Type, bool, error) {
	h, ok := r.reader.LookupType(qualifiedName)
	if !ok {
		return nil, false, nil
	}
	t, err := r.ResolveType(h, metadata.GenericContext{})
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// ResolveMethod resolves a MethodDef/MemberRef/MethodSpec handle to a
// *Method. When h is a MemberRef whose declaring type resolves to a
// KindParameterizedType, the member-ref's signature is additionally
// matched against the open generic definition's declared methods, modulo
// normalization (spec §4.A): a merely unknown member is not an error, it
// falls back to a synthetic FakeMethod carrying the requested signature.
func (r *Resolver) ResolveMethod(h metadata.Handle, ctx metadata.GenericContext) (*Method, error) {
	sig, err := r.reader.ResolveMethodSignature(h, ctx)
	if err != nil {
		return nil, fmt.Errorf("typesystem: resolving method %s: %w", h, err)
	}
	declHandle, err := r.reader.DeclaringType(h)
	if err != nil {
		return nil, fmt.Errorf("typesystem: declaring type of %s: %w", h, err)
	}
	declType, err := r.ResolveType(declHandle, ctx)
	if err != nil {
		return nil, err
	}
	name, err := r.reader.Name(h)
	if err != nil {
		return nil, fmt.Errorf("typesystem: naming method %s: %w", h, err)
	}

	params := make([]*Parameter, len(sig.Parameters))
	for i, p := range sig.Parameters {
		t, err := r.resolveElem(p, ctx)
		if err != nil {
			return nil, err
		}
		params[i] = &Parameter{Type: t}
	}
	ret, err := r.resolveElem(sig.Return, ctx)
	if err != nil {
		return nil, err
	}

	if h.Kind == metadata.HandleKindMemberRef && declType.Kind == KindParameterizedType {
		found, err := overloadExists(declType.Definition, name, params, ret)
		if err != nil {
			return nil, err
		}
		if !found {
			return NewFakeMethod(declType, name, params, ret), nil
		}
	}

	return &Method{
		resolver:      r,
		DeclaringType: declType,
		Name:          name,
		Handle:        h,
		Parameters:    params,
		ReturnType:    ret,
		IsStatic:      sig.IsStatic,
		IsVarArg:      sig.IsVarArg,
	}, nil
}

// overloadExists reports whether def (an open generic type definition)
// declares a method named name whose parameter and return types are equal,
// modulo normalization (Type.Equal's type-parameter-position rule), to
// params/ret — the shape a member-reference's signature resolves to
// against a constructed instance of def.
func overloadExists(def *Type, name string, params []*Parameter, ret *Type) (bool, error) {
	candidates, err := def.Methods()
	if err != nil {
		return false, err
	}
	for _, m := range candidates {
		if m.Name != name || len(m.Parameters) != len(params) {
			continue
		}
		if !m.ReturnType.Equal(ret) {
			continue
		}
		match := true
		for i, p := range params {
			if !m.Parameters[i].Type.Equal(p.Type) {
				match = false
				break
			}
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// NewFakeMethod synthesizes a Method with no backing metadata.Handle.
// ResolveMethod returns one, carrying the requested signature, for a member
// reference that names no declared overload of a parameterized type.
func NewFakeMethod(declaringType *Type, name string, params []*Parameter, ret *Type) *Method {
	return &Method{
		DeclaringType: declaringType,
		Name:          name,
		Parameters:    params,
		ReturnType:    ret,
		IsFake:        true,
	}
}

// InternalsVisibleTo reports whether assemblyName appears as a string
// argument of a custom attribute on the reader's own assembly, the check
// internal-member visibility resolution needs (spec §8 scenario 5). Every
// string fixed argument of every assembly attribute is compared; the
// attribute's type is not checked, so an attribute other than
// InternalsVisibleToAttribute that carries the name also matches.
func (r *Resolver) InternalsVisibleTo(assemblyName string) (bool, error) {
	assemblyHandle := metadata.Handle{Kind: metadata.HandleKindAssembly}
	attrs, err := r.reader.Attributes(assemblyHandle)
	if err != nil {
		return false, fmt.Errorf("typesystem: reading assembly attributes: %w", err)
	}
	for _, a := range attrs {
		for _, arg := range a.FixedArgs {
			s, ok := arg.(string)
			if !ok {
				continue
			}
			// An InternalsVisibleTo argument may carry a strong-name suffix
			// ("Name, PublicKey=..."); only the name before the comma matters.
			if name, _, found := cutComma(s); found {
				if name == assemblyName {
					return true, nil
				}
			} else if s == assemblyName {
				return true, nil
			}
		}
	}
	return false, nil
}

func cutComma(s string) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			return trimSpace(s[:i]), trimSpace(s[i+1:]), true
		}
	}
	return s, "", false
}

func trimSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

// resolveFields and resolveMethods are called by Type.Fields/Methods; they
// are defined here (rather than on Type) because they are the only places
// that reach back into the reader.
func (r *Resolver) resolveFields(t *Type) ([]*Field, error) {
	handles, err := r.reader.Fields(t.Handle)
	if err != nil {
		return nil, fmt.Errorf("typesystem: enumerating fields of %s: %w", t.QualifiedName(), err)
	}
	fields := make([]*Field, len(handles))
	for i, h := range handles {
		name, err := r.reader.Name(h)
		if err != nil {
			return nil, fmt.Errorf("typesystem: naming field %s: %w", h, err)
		}
		sig, err := r.reader.ResolveTypeSignature(h, metadata.GenericContext{})
		if err != nil {
			return nil, fmt.Errorf("typesystem: resolving field type %s: %w", h, err)
		}
		typ, err := r.buildType(sig, metadata.Handle{}, metadata.GenericContext{})
		if err != nil {
			return nil, err
		}
		isStatic, err := r.reader.IsStaticField(h)
		if err != nil {
			return nil, fmt.Errorf("typesystem: checking static-ness of field %s: %w", h, err)
		}
		fields[i] = &Field{DeclaringType: t, Name: name, Type: typ, IsStatic: isStatic, Handle: h}
	}
	return fields, nil
}

func (r *Resolver) resolveMethods(t *Type) ([]*Method, error) {
	handles, err := r.reader.Methods(t.Handle)
	if err != nil {
		return nil, fmt.Errorf("typesystem: enumerating methods of %s: %w", t.QualifiedName(), err)
	}
	methods := make([]*Method, len(handles))
	for i, h := range handles {
		m, err := r.ResolveMethod(h, metadata.GenericContext{})
		if err != nil {
			return nil, err
		}
		methods[i] = m
	}
	return methods, nil
}
