package ilasm

import (
	"fmt"
	"strconv"

	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/typesystem"
)

// BuildError reports a form that the builder cannot interpret.
type BuildError struct {
	Line   int
	Detail string
}

func (e *BuildError) Error() string { return fmt.Sprintf("ilasm: line %d: %s", e.Line, e.Detail) }

// scope tracks name -> *ilast.Variable bindings while building one method,
// so `(ldloc x)` can resolve back to the same Variable a prior `(stloc x
// ...)` or `(locals x)` declared.
type scope struct {
	vars map[string]*ilast.Variable
}

func newScope() *scope { return &scope{vars: make(map[string]*ilast.Variable)} }

func (s *scope) lookup(name string, line int) (*ilast.Variable, error) {
	v, ok := s.vars[name]
	if !ok {
		return nil, &BuildError{Line: line, Detail: fmt.Sprintf("undeclared variable %q", name)}
	}
	return v, nil
}

// BuildFunction interprets a single `(method Name (params ...) (locals ...)
// (block entry STMT...))` form into an *ilast.ILFunction. Only one block is
// supported (no inter-block Branch targets): the control-flow shapes
// transform passes recognize are all expressible as nested If/TryFinally/
// TryCatch/Switch within one block, which is all the fixtures need.
func BuildFunction(form *SExpr) (*ilast.ILFunction, error) {
	if form.Head() != "method" {
		return nil, &BuildError{Line: form.Line, Detail: "expected (method ...) form"}
	}
	args := form.Args()
	if len(args) < 1 || !args[0].IsAtom() {
		return nil, &BuildError{Line: form.Line, Detail: "method missing name"}
	}
	name := args[0].Atom

	fn := ilast.NewILFunction(&typesystem.Method{Name: name, IsFake: true})
	sc := newScope()

	var blockForm *SExpr
	for _, arg := range args[1:] {
		switch arg.Head() {
		case "params":
			for _, p := range arg.Args() {
				v := fn.AddParameter(nil)
				v.Name = p.Atom
				sc.vars[p.Atom] = v
			}
		case "locals":
			for _, l := range arg.Args() {
				v := fn.AddLocal(nil)
				v.Name = l.Atom
				sc.vars[l.Atom] = v
			}
		case "block":
			blockForm = arg
		default:
			return nil, &BuildError{Line: arg.Line, Detail: fmt.Sprintf("unknown method section %q", arg.Head())}
		}
	}
	if blockForm == nil {
		return nil, &BuildError{Line: form.Line, Detail: "method has no (block ...) form"}
	}

	blockArgs := blockForm.Args()
	if len(blockArgs) < 1 || !blockArgs[0].IsAtom() {
		return nil, &BuildError{Line: blockForm.Line, Detail: "block missing label"}
	}
	block, err := buildStatementBlock(blockArgs[1:], sc)
	if err != nil {
		return nil, err
	}
	if err := ilast.AppendChild(fn.Body, block); err != nil {
		return nil, err
	}
	fn.Body.EntryPoint = block
	return fn, nil
}

// buildStatementBlock builds a KindBlock whose children are the statements
// built from forms, in order.
func buildStatementBlock(forms []*SExpr, sc *scope) (*ilast.Instruction, error) {
	block := ilast.NewBlock()
	for _, f := range forms {
		stmt, err := buildExpr(f, sc)
		if err != nil {
			return nil, err
		}
		if err := ilast.AppendChild(block, stmt); err != nil {
			return nil, err
		}
	}
	return block, nil
}

// buildExpr interprets one form into an *ilast.Instruction, recursing into
// its children as needed. Both statements and expressions share this path:
// the tree has no separate expression/statement node types.
func buildExpr(f *SExpr, sc *scope) (*ilast.Instruction, error) {
	if f.IsAtom() {
		if f.String {
			n := ilast.New(ilast.KindLdStr)
			n.ValueStr = f.Atom
			return n, nil
		}
		if iv, err := strconv.ParseInt(f.Atom, 10, 32); err == nil {
			n := ilast.New(ilast.KindLdcI4)
			n.ValueI4 = int32(iv)
			return n, nil
		}
		return nil, &BuildError{Line: f.Line, Detail: fmt.Sprintf("bare atom %q outside a form", f.Atom)}
	}

	head := f.Head()
	args := f.Args()
	switch head {
	case "nop":
		return ilast.New(ilast.KindNop), nil
	case "ldnull":
		return ilast.New(ilast.KindLdNull), nil
	case "ldc.i4":
		return requireInt(ilast.KindLdcI4, args, f.Line)
	case "ldstr":
		return requireString(ilast.KindLdStr, args, f.Line)
	case "ldloc", "ldloca":
		return buildVarRef(head, args, sc, f.Line)
	case "stloc":
		return buildStLoc(args, sc, f.Line)
	case "ldobj", "stobj", "box", "unbox", "isinst":
		return buildUnaryWrap(head, args, sc, f.Line)
	case "ldflda", "ldsflda":
		return buildFieldAddr(head, args, sc, f.Line)
	case "ldftn":
		return buildLdFtn(args, f.Line)
	case "newobj":
		return buildCallLike(ilast.KindNewObj, args, sc, f.Line)
	case "call":
		return buildCallLike(ilast.KindCall, args, sc, f.Line)
	case "callvirt":
		return buildCallLike(ilast.KindCallVirt, args, sc, f.Line)
	case "comp.eq":
		return buildBinary(ilast.KindCompEquals, "==", args, sc, f.Line)
	case "comp.ne":
		return buildBinary(ilast.KindCompNotEquals, "!=", args, sc, f.Line)
	case "and":
		return buildBinary(ilast.KindLogicAnd, "&&", args, sc, f.Line)
	case "or":
		return buildBinary(ilast.KindLogicOr, "||", args, sc, f.Line)
	case "arith":
		return buildArith(args, sc, f.Line)
	case "not":
		return buildUnary(ilast.KindLogicNot, args, sc, f.Line)
	case "branch":
		return ilast.New(ilast.KindBranch), nil
	case "leave":
		return ilast.New(ilast.KindLeave), nil
	case "return":
		return buildVariadicWrap(ilast.KindReturn, args, sc, f.Line)
	case "throw":
		return buildVariadicWrap(ilast.KindThrow, args, sc, f.Line)
	case "rethrow":
		return ilast.New(ilast.KindRethrow), nil
	case "if":
		return buildIf(args, sc, f.Line)
	case "tryfinally":
		return buildTryFinally(args, sc, f.Line)
	case "tryfault":
		return buildTryFault(args, sc, f.Line)
	case "trycatch":
		return buildTryCatch(args, sc, f.Line)
	case "switch":
		return buildSwitch(args, sc, f.Line)
	default:
		return nil, &BuildError{Line: f.Line, Detail: fmt.Sprintf("unknown form head %q", head)}
	}
}

func requireInt(kind ilast.Kind, args []*SExpr, line int) (*ilast.Instruction, error) {
	if len(args) != 1 || !args[0].IsAtom() {
		return nil, &BuildError{Line: line, Detail: "expected a single integer literal"}
	}
	iv, err := strconv.ParseInt(args[0].Atom, 10, 32)
	if err != nil {
		return nil, &BuildError{Line: line, Detail: fmt.Sprintf("invalid integer literal %q", args[0].Atom)}
	}
	n := ilast.New(kind)
	n.ValueI4 = int32(iv)
	return n, nil
}

func requireString(kind ilast.Kind, args []*SExpr, line int) (*ilast.Instruction, error) {
	if len(args) != 1 {
		return nil, &BuildError{Line: line, Detail: "expected a single string literal"}
	}
	n := ilast.New(kind)
	n.ValueStr = args[0].Atom
	return n, nil
}

func buildVarRef(head string, args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) != 1 || !args[0].IsAtom() {
		return nil, &BuildError{Line: line, Detail: fmt.Sprintf("%s expects a single variable name", head)}
	}
	v, err := sc.lookup(args[0].Atom, line)
	if err != nil {
		return nil, err
	}
	kind := ilast.KindLdLoc
	if head == "ldloca" {
		kind = ilast.KindLdLoca
	}
	n := ilast.New(kind)
	n.Variable = v
	return n, nil
}

func buildStLoc(args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) != 2 || !args[0].IsAtom() {
		return nil, &BuildError{Line: line, Detail: "stloc expects a variable name and a value"}
	}
	v, err := sc.lookup(args[0].Atom, line)
	if err != nil {
		return nil, err
	}
	value, err := buildExpr(args[1], sc)
	if err != nil {
		return nil, err
	}
	n := ilast.New(ilast.KindStLoc)
	n.Variable = v
	if err := ilast.AppendChild(n, value); err != nil {
		return nil, err
	}
	return n, nil
}

func buildUnaryWrap(head string, args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	kinds := map[string]ilast.Kind{
		"ldobj": ilast.KindLdObj, "stobj": ilast.KindStObj,
		"box": ilast.KindBox, "unbox": ilast.KindUnbox, "isinst": ilast.KindIsInst,
	}
	if len(args) == 0 {
		return nil, &BuildError{Line: line, Detail: fmt.Sprintf("%s expects at least one operand", head)}
	}
	n := ilast.New(kinds[head])
	for _, a := range args {
		child, err := buildExpr(a, sc)
		if err != nil {
			return nil, err
		}
		if err := ilast.AppendChild(n, child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func buildFieldAddr(head string, args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) == 0 || !args[0].IsAtom() {
		return nil, &BuildError{Line: line, Detail: fmt.Sprintf("%s expects a field name", head)}
	}
	kind := ilast.KindLdFlda
	if head == "ldsflda" {
		kind = ilast.KindLdsFlda
	}
	n := ilast.New(kind)
	n.Field = &typesystem.Field{Name: args[0].Atom}
	for _, a := range args[1:] {
		child, err := buildExpr(a, sc)
		if err != nil {
			return nil, err
		}
		if err := ilast.AppendChild(n, child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// buildLdFtn interprets `(ldftn MethodName)`, a bare method-pointer load
// with no children of its own (the argument list is built separately by the
// enclosing newobj/call form).
func buildLdFtn(args []*SExpr, line int) (*ilast.Instruction, error) {
	if len(args) != 1 || !args[0].IsAtom() {
		return nil, &BuildError{Line: line, Detail: "ldftn expects a single method name"}
	}
	n := ilast.New(ilast.KindLdFtn)
	n.Method = &typesystem.Method{Name: args[0].Atom, IsFake: true}
	return n, nil
}

func buildCallLike(kind ilast.Kind, args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) == 0 || !args[0].IsAtom() {
		return nil, &BuildError{Line: line, Detail: "call-like form expects a method name"}
	}
	n := ilast.New(kind)
	n.Method = &typesystem.Method{Name: args[0].Atom, IsFake: true}
	for _, a := range args[1:] {
		child, err := buildExpr(a, sc)
		if err != nil {
			return nil, err
		}
		if err := ilast.AppendChild(n, child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func buildBinary(kind ilast.Kind, op string, args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) != 2 {
		return nil, &BuildError{Line: line, Detail: "expected exactly two operands"}
	}
	n := ilast.New(kind)
	n.Operator = op
	for _, a := range args {
		child, err := buildExpr(a, sc)
		if err != nil {
			return nil, err
		}
		if err := ilast.AppendChild(n, child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func buildArith(args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) != 3 || !args[0].IsAtom() {
		return nil, &BuildError{Line: line, Detail: "arith expects an operator and two operands"}
	}
	n := ilast.New(ilast.KindArithmetic)
	n.Operator = args[0].Atom
	for _, a := range args[1:] {
		child, err := buildExpr(a, sc)
		if err != nil {
			return nil, err
		}
		if err := ilast.AppendChild(n, child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func buildUnary(kind ilast.Kind, args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) != 1 {
		return nil, &BuildError{Line: line, Detail: "expected exactly one operand"}
	}
	n := ilast.New(kind)
	child, err := buildExpr(args[0], sc)
	if err != nil {
		return nil, err
	}
	if err := ilast.AppendChild(n, child); err != nil {
		return nil, err
	}
	return n, nil
}

func buildVariadicWrap(kind ilast.Kind, args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	n := ilast.New(kind)
	for _, a := range args {
		child, err := buildExpr(a, sc)
		if err != nil {
			return nil, err
		}
		if err := ilast.AppendChild(n, child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// buildIf interprets `(if COND (then STMT...) (else STMT...))`.
func buildIf(args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) != 3 {
		return nil, &BuildError{Line: line, Detail: "if expects a condition, a then arm and an else arm"}
	}
	cond, err := buildExpr(args[0], sc)
	if err != nil {
		return nil, err
	}
	trueArm, err := buildStatementBlock(args[1].Args(), sc)
	if err != nil {
		return nil, err
	}
	falseArm, err := buildStatementBlock(args[2].Args(), sc)
	if err != nil {
		return nil, err
	}
	n := ilast.New(ilast.KindIfInstruction)
	for _, c := range []*ilast.Instruction{cond, trueArm, falseArm} {
		if err := ilast.AppendChild(n, c); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// buildTryFinally interprets `(tryfinally (try STMT...) (finally STMT...))`.
func buildTryFinally(args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) != 2 {
		return nil, &BuildError{Line: line, Detail: "tryfinally expects a try region and a finally region"}
	}
	tryBody, err := buildStatementBlock(args[0].Args(), sc)
	if err != nil {
		return nil, err
	}
	finallyBody, err := buildStatementBlock(args[1].Args(), sc)
	if err != nil {
		return nil, err
	}
	n := ilast.New(ilast.KindTryFinally)
	if err := ilast.AppendChild(n, tryBody); err != nil {
		return nil, err
	}
	if err := ilast.AppendChild(n, finallyBody); err != nil {
		return nil, err
	}
	return n, nil
}

// buildTryFault interprets `(tryfault (try STMT...) (fault STMT...))`.
func buildTryFault(args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) != 2 {
		return nil, &BuildError{Line: line, Detail: "tryfault expects a try region and a fault region"}
	}
	tryBody, err := buildStatementBlock(args[0].Args(), sc)
	if err != nil {
		return nil, err
	}
	faultBody, err := buildStatementBlock(args[1].Args(), sc)
	if err != nil {
		return nil, err
	}
	n := ilast.New(ilast.KindTryFault)
	if err := ilast.AppendChild(n, tryBody); err != nil {
		return nil, err
	}
	if err := ilast.AppendChild(n, faultBody); err != nil {
		return nil, err
	}
	return n, nil
}

// buildTryCatch interprets `(trycatch (try STMT...) (handler TypeName STMT...) ...)`.
func buildTryCatch(args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) < 2 {
		return nil, &BuildError{Line: line, Detail: "trycatch expects a try region and at least one handler"}
	}
	tryBody, err := buildStatementBlock(args[0].Args(), sc)
	if err != nil {
		return nil, err
	}
	n := ilast.New(ilast.KindTryCatch)
	if err := ilast.AppendChild(n, tryBody); err != nil {
		return nil, err
	}
	for _, handlerForm := range args[1:] {
		handlerArgs := handlerForm.Args()
		if len(handlerArgs) < 1 || !handlerArgs[0].IsAtom() {
			return nil, &BuildError{Line: handlerForm.Line, Detail: "handler expects a catch-type name"}
		}
		body, err := buildStatementBlock(handlerArgs[1:], sc)
		if err != nil {
			return nil, err
		}
		handler := ilast.New(ilast.KindTryCatchHandler)
		handler.Type = &typesystem.Type{Name: handlerArgs[0].Atom}
		if err := ilast.AppendChild(handler, body); err != nil {
			return nil, err
		}
		if err := ilast.AppendChild(n, handler); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// buildSwitch interprets `(switch EXPR (case N... STMT...) ... (default STMT...))`.
func buildSwitch(args []*SExpr, sc *scope, line int) (*ilast.Instruction, error) {
	if len(args) < 1 {
		return nil, &BuildError{Line: line, Detail: "switch expects a selector"}
	}
	selector, err := buildExpr(args[0], sc)
	if err != nil {
		return nil, err
	}
	n := ilast.New(ilast.KindSwitchInstruction)
	if err := ilast.AppendChild(n, selector); err != nil {
		return nil, err
	}
	for _, sectionForm := range args[1:] {
		section, err := buildSwitchSection(sectionForm, sc)
		if err != nil {
			return nil, err
		}
		if err := ilast.AppendChild(n, section); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func buildSwitchSection(f *SExpr, sc *scope) (*ilast.Instruction, error) {
	args := f.Args()
	section := ilast.New(ilast.KindSwitchSection)
	switch f.Head() {
	case "case":
		var labels []int64
		stmtsFrom := 0
		for i, a := range args {
			if !a.IsAtom() {
				stmtsFrom = i
				break
			}
			iv, err := strconv.ParseInt(a.Atom, 10, 64)
			if err != nil {
				return nil, &BuildError{Line: a.Line, Detail: fmt.Sprintf("invalid case label %q", a.Atom)}
			}
			labels = append(labels, iv)
			stmtsFrom = i + 1
		}
		section.Labels = labels
		for _, stmtForm := range args[stmtsFrom:] {
			stmt, err := buildExpr(stmtForm, sc)
			if err != nil {
				return nil, err
			}
			if err := ilast.AppendChild(section, stmt); err != nil {
				return nil, err
			}
		}
	case "default":
		section.Labels = nil
		for _, stmtForm := range args {
			stmt, err := buildExpr(stmtForm, sc)
			if err != nil {
				return nil, err
			}
			if err := ilast.AppendChild(section, stmt); err != nil {
				return nil, err
			}
		}
	default:
		return nil, &BuildError{Line: f.Line, Detail: fmt.Sprintf("switch section must be (case ...) or (default ...), got %q", f.Head())}
	}
	return section, nil
}
