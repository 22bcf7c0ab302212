package ilast

import "github.com/viant/ilcore/typesystem"

// VariableKind discriminates where a Variable's storage comes from.
type VariableKind uint8

const (
	VariableKindLocal VariableKind = iota
	VariableKindParameter
	VariableKindStackSlot
	VariableKindException
)

func (k VariableKind) String() string {
	switch k {
	case VariableKindLocal:
		return "Local"
	case VariableKindParameter:
		return "Parameter"
	case VariableKindStackSlot:
		return "StackSlot"
	case VariableKindException:
		return "Exception"
	default:
		return "Unknown"
	}
}

// Variable is a storage location referenced by LdLoc/LdLoca/StLoc nodes. Its
// LoadCount/StoreCount fields are maintained exclusively by the mutation API
// (spec invariant 4) — code outside ilast must never write them directly.
type Variable struct {
	Kind  VariableKind
	Name  string
	Index int
	Type  *typesystem.Type

	LoadCount  int
	StoreCount int
}

// NewVariable creates a variable with zero use-counts. Name may be empty, in
// which case callers should synthesize one (e.g. "V_0") when printing.
func NewVariable(kind VariableKind, index int, typ *typesystem.Type) *Variable {
	return &Variable{Kind: kind, Index: index, Type: typ}
}

// IsSingleAssign reports whether the variable is assigned at most once,
// a precondition several transform passes (inlined-initializer, foreach)
// require before folding a store into its use.
func (v *Variable) IsSingleAssign() bool { return v.StoreCount <= 1 }

// IsUnused reports whether the variable is never loaded, a signal the
// structurer uses to drop dead stack-slot temporaries.
func (v *Variable) IsUnused() bool { return v.LoadCount == 0 }
