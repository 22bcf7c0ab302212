package ilast

// Flags is a bitmask describing how an instruction affects control flow,
// exceptions and side effects. It is always the monotone union of a node's
// intrinsic flags and the (recursively derived) flags of its children,
// per spec invariant 3.
type Flags uint16

const FlagNone Flags = 0

const (
	FlagControlFlow Flags = 1 << iota
	FlagMayBranch
	FlagMayThrow
	FlagEndPointUnreachable
	FlagSideEffects
)

func (f Flags) Has(other Flags) bool { return f&other != 0 }

// intrinsicFlags returns the flags a node contributes on its own, ignoring
// children. Composite nodes add these to the union of their children's
// flags in deriveFlags, with the carve-outs documented there.
func intrinsicFlags(n *Instruction) Flags {
	switch n.Kind {
	case KindBranch:
		return FlagControlFlow | FlagMayBranch
	case KindLeave:
		return FlagControlFlow | FlagMayBranch | FlagEndPointUnreachable
	case KindReturn, KindThrow, KindRethrow:
		return FlagControlFlow | FlagMayThrow | FlagEndPointUnreachable
	case KindCall, KindCallVirt, KindNewObj:
		return FlagMayThrow | FlagSideEffects
	case KindStLoc, KindStObj, KindLdsFlda:
		return FlagSideEffects
	case KindLdObj, KindLdFlda, KindUnbox:
		return FlagMayThrow
	case KindArithmetic:
		if n.Operator == "/" || n.Operator == "%" {
			return FlagMayThrow
		}
		return FlagNone
	default:
		return FlagNone
	}
}

// deriveFlags recomputes n.flags from n's intrinsic flags and its children's
// (already-valid) flags, applying kind-specific carve-outs.
func deriveFlags(n *Instruction) Flags {
	flags := intrinsicFlags(n)

	switch n.Kind {
	case KindTryFinally:
		// The finally only contributes MayThrow if the try itself may throw;
		// its own control-flow/unreachability never escapes the construct.
		if len(n.children) == 2 {
			tryFlags := n.children[0].Flags()
			finallyFlags := n.children[1].Flags()
			flags |= tryFlags &^ (FlagControlFlow | FlagEndPointUnreachable)
			if tryFlags.Has(FlagMayThrow) {
				flags |= finallyFlags & FlagMayThrow
			}
			flags |= finallyFlags & FlagSideEffects
			return flags
		}
	case KindTryCatch:
		// Union of try and all handlers, but EndPointUnreachable only holds
		// if every arm is unreachable.
		allUnreachable := true
		for _, c := range n.children {
			cf := c.Flags()
			flags |= cf &^ FlagEndPointUnreachable
			if !cf.Has(FlagEndPointUnreachable) {
				allUnreachable = false
			}
		}
		if allUnreachable && len(n.children) > 0 {
			flags |= FlagEndPointUnreachable
		}
		return flags
	case KindIfInstruction:
		// condition + both branches union, but EndPointUnreachable requires
		// both branches unreachable (condition never falls off the end).
		if len(n.children) == 3 {
			cond, t, f := n.children[0], n.children[1], n.children[2]
			flags |= cond.Flags() &^ FlagEndPointUnreachable
			flags |= t.Flags() &^ FlagEndPointUnreachable
			flags |= f.Flags() &^ FlagEndPointUnreachable
			if t.Flags().Has(FlagEndPointUnreachable) && f.Flags().Has(FlagEndPointUnreachable) {
				flags |= FlagEndPointUnreachable
			}
			return flags
		}
	case KindBlockContainer:
		// A container's own end-point reachability is governed by whether any
		// Leave targeting it was recorded reachable; transform passes set this
		// by not propagating EndPointUnreachable from children automatically.
		for _, c := range n.children {
			flags |= c.Flags() &^ FlagEndPointUnreachable
		}
		return flags
	}

	for _, c := range n.children {
		flags |= c.Flags()
	}
	return flags
}
