// Package matcher implements the pattern-matching DSL the transform passes
// are built from (spec §4's "match functions never mutate"): a family of
// boolean-returning, out-parameter-binding predicates over *ilast.Instruction,
// modeled on the teacher's own walk-and-bind style in analyzer/node.go (a
// switch on node shape that extracts bound values into caller-owned
// variables) but specialized to the fixed IL instruction vocabulary instead
// of a dynamic tree-sitter node type.
package matcher

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/typesystem"
)

// MatchLdLoc reports whether n loads a variable's value, binding it into *v.
func MatchLdLoc(n *ilast.Instruction, v **ilast.Variable) bool {
	if n == nil || n.Kind != ilast.KindLdLoc {
		return false
	}
	*v = n.Variable
	return true
}

// MatchStLoc reports whether n stores into a variable, binding the variable
// into *v and its value subtree into *value.
func MatchStLoc(n *ilast.Instruction, v **ilast.Variable, value **ilast.Instruction) bool {
	if n == nil || n.Kind != ilast.KindStLoc || n.ChildCount() != 1 {
		return false
	}
	*v = n.Variable
	*value = n.Child(0)
	return true
}

// MatchLdLoca reports whether n loads a variable's address, binding it into *v.
func MatchLdLoca(n *ilast.Instruction, v **ilast.Variable) bool {
	if n == nil || n.Kind != ilast.KindLdLoca {
		return false
	}
	*v = n.Variable
	return true
}

// MatchLdNull reports whether n is the null-literal load.
func MatchLdNull(n *ilast.Instruction) bool {
	return n != nil && n.Kind == ilast.KindLdNull
}

// MatchLdFtn reports whether n loads a method pointer, binding the method
// into *method.
func MatchLdFtn(n *ilast.Instruction, method **typesystem.Method) bool {
	if n == nil || n.Kind != ilast.KindLdFtn {
		return false
	}
	*method = n.Method
	return true
}

// MatchLdStr reports whether n loads a string constant, binding it into *s.
func MatchLdStr(n *ilast.Instruction, s *string) bool {
	if n == nil || n.Kind != ilast.KindLdStr {
		return false
	}
	*s = n.ValueStr
	return true
}

// MatchLdcI4 reports whether n loads a 32-bit integer constant, binding it
// into *v.
func MatchLdcI4(n *ilast.Instruction, v *int32) bool {
	if n == nil || n.Kind != ilast.KindLdcI4 {
		return false
	}
	*v = n.ValueI4
	return true
}

// MatchLdcI4Value reports whether n loads exactly the 32-bit integer constant want.
func MatchLdcI4Value(n *ilast.Instruction, want int32) bool {
	return n != nil && n.Kind == ilast.KindLdcI4 && n.ValueI4 == want
}

// MatchBranch reports whether n is an unconditional branch, binding its
// target block into *target.
func MatchBranch(n *ilast.Instruction, target **ilast.Instruction) bool {
	if n == nil || n.Kind != ilast.KindBranch {
		return false
	}
	*target = n.TargetBlock
	return true
}

// MatchLeave reports whether n is a leave instruction, binding its target
// container into *target.
func MatchLeave(n *ilast.Instruction, target **ilast.Instruction) bool {
	if n == nil || n.Kind != ilast.KindLeave {
		return false
	}
	*target = n.TargetContainer
	return true
}

// MatchNop reports whether n is a no-op.
func MatchNop(n *ilast.Instruction) bool {
	return n != nil && n.Kind == ilast.KindNop
}

// MatchIfInstruction reports whether n is a three-child if/else, binding its
// condition, true-arm and false-arm subtrees.
func MatchIfInstruction(n *ilast.Instruction, cond, trueArm, falseArm **ilast.Instruction) bool {
	if n == nil || n.Kind != ilast.KindIfInstruction || n.ChildCount() != 3 {
		return false
	}
	*cond = n.Child(0)
	*trueArm = n.Child(1)
	*falseArm = n.Child(2)
	return true
}

// MatchCompEquals reports whether n compares two operands for equality,
// binding them into *left and *right.
func MatchCompEquals(n *ilast.Instruction, left, right **ilast.Instruction) bool {
	if n == nil || n.Kind != ilast.KindCompEquals || n.ChildCount() != 2 {
		return false
	}
	*left, *right = n.Child(0), n.Child(1)
	return true
}

// MatchCompNotEquals reports whether n compares two operands for inequality.
func MatchCompNotEquals(n *ilast.Instruction, left, right **ilast.Instruction) bool {
	if n == nil || n.Kind != ilast.KindCompNotEquals || n.ChildCount() != 2 {
		return false
	}
	*left, *right = n.Child(0), n.Child(1)
	return true
}

// MatchLogicNot reports whether n negates a single operand, binding it into *operand.
func MatchLogicNot(n *ilast.Instruction, operand **ilast.Instruction) bool {
	if n == nil || n.Kind != ilast.KindLogicNot || n.ChildCount() != 1 {
		return false
	}
	*operand = n.Child(0)
	return true
}

// MatchLdObj reports whether n dereferences an address, binding the address
// subtree and the dereferenced type.
func MatchLdObj(n *ilast.Instruction, addr **ilast.Instruction, typ **typesystem.Type) bool {
	if n == nil || n.Kind != ilast.KindLdObj || n.ChildCount() != 1 {
		return false
	}
	*addr = n.Child(0)
	*typ = n.Type
	return true
}

// MatchStObj reports whether n stores through an address, binding the
// address and value subtrees and the stored type.
func MatchStObj(n *ilast.Instruction, addr, value **ilast.Instruction, typ **typesystem.Type) bool {
	if n == nil || n.Kind != ilast.KindStObj || n.ChildCount() != 2 {
		return false
	}
	*addr, *value = n.Child(0), n.Child(1)
	*typ = n.Type
	return true
}

// MatchLdsFlda reports whether n loads a static field's address, binding the field.
func MatchLdsFlda(n *ilast.Instruction, field **typesystem.Field) bool {
	if n == nil || n.Kind != ilast.KindLdsFlda {
		return false
	}
	*field = n.Field
	return true
}

// MatchLdFlda reports whether n loads an instance field's address, binding
// the instance subtree and the field.
func MatchLdFlda(n *ilast.Instruction, instance **ilast.Instruction, field **typesystem.Field) bool {
	if n == nil || n.Kind != ilast.KindLdFlda || n.ChildCount() != 1 {
		return false
	}
	*instance = n.Child(0)
	*field = n.Field
	return true
}

// MatchBox reports whether n boxes a value, binding the value subtree and
// the boxed type.
func MatchBox(n *ilast.Instruction, value **ilast.Instruction, typ **typesystem.Type) bool {
	if n == nil || n.Kind != ilast.KindBox || n.ChildCount() != 1 {
		return false
	}
	*value = n.Child(0)
	*typ = n.Type
	return true
}

// MatchUnbox reports whether n unboxes a value, binding the value subtree
// and the unboxed type.
func MatchUnbox(n *ilast.Instruction, value **ilast.Instruction, typ **typesystem.Type) bool {
	if n == nil || n.Kind != ilast.KindUnbox || n.ChildCount() != 1 {
		return false
	}
	*value = n.Child(0)
	*typ = n.Type
	return true
}

// MatchCall reports whether n is a static/non-virtual call, binding the
// callee method and argument subtrees.
func MatchCall(n *ilast.Instruction, method **typesystem.Method, args *[]*ilast.Instruction) bool {
	if n == nil || n.Kind != ilast.KindCall {
		return false
	}
	*method = n.Method
	*args = n.Children()
	return true
}

// MatchCallVirt reports whether n is a virtual call, binding the callee
// method and argument subtrees (args[0] is the receiver).
func MatchCallVirt(n *ilast.Instruction, method **typesystem.Method, args *[]*ilast.Instruction) bool {
	if n == nil || n.Kind != ilast.KindCallVirt {
		return false
	}
	*method = n.Method
	*args = n.Children()
	return true
}
