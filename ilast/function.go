package ilast

import "github.com/viant/ilcore/typesystem"

// ILFunction is the decompilation unit: one method's parameter/local
// variables and its body, rooted at a single BlockContainer. Transform
// passes and the dataflow/structurer tiers operate on an *ILFunction at a
// time (spec §1: "per-method decompilation is single-threaded").
type ILFunction struct {
	Method *typesystem.Method

	Parameters []*Variable
	Locals     []*Variable

	Body *Instruction // root, Kind == KindBlockContainer

	nextStackSlot int
}

// NewILFunction creates a function with an empty body container and no
// variables.
func NewILFunction(method *typesystem.Method) *ILFunction {
	return &ILFunction{
		Method: method,
		Body:   NewBlockContainer(),
	}
}

// AddLocal appends and returns a new local-kind variable.
func (f *ILFunction) AddLocal(typ *typesystem.Type) *Variable {
	v := NewVariable(VariableKindLocal, len(f.Locals), typ)
	f.Locals = append(f.Locals, v)
	return v
}

// AddParameter appends and returns a new parameter-kind variable.
func (f *ILFunction) AddParameter(typ *typesystem.Type) *Variable {
	v := NewVariable(VariableKindParameter, len(f.Parameters), typ)
	f.Parameters = append(f.Parameters, v)
	return v
}

// NewStackSlot allocates a fresh synthetic temporary, used by transform
// passes that introduce intermediate state (e.g. the Roslyn switch-on-string
// hash-dispatch pattern's computed-hash local).
func (f *ILFunction) NewStackSlot(typ *typesystem.Type) *Variable {
	v := NewVariable(VariableKindStackSlot, f.nextStackSlot, typ)
	f.nextStackSlot++
	return v
}

// Variables returns parameters followed by locals, the order reflection
// name and debug-info lookups key against.
func (f *ILFunction) Variables() []*Variable {
	all := make([]*Variable, 0, len(f.Parameters)+len(f.Locals))
	all = append(all, f.Parameters...)
	all = append(all, f.Locals...)
	return all
}
