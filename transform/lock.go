package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/matcher"
)

// LockPass recognizes the three CLR lock-statement lowering shapes (spec
// §4.F / §8 scenario 3) and rewrites each to a single LockInstruction(value,
// body), removing the setup stores; the flag/lockObj locals stay declared
// in the function but are left with no loads or stores.
// Shapes are tried in order at each TryFinally site; the first to match
// fully wins. A partial match (extraneous instructions inside the
// recognized region) is left untouched — the pass never mutates on failure.
type LockPass struct{}

func (LockPass) Name() string      { return "LockRecovery" }
func (LockPass) Idempotent() bool  { return false }

func (p LockPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.LockStatement {
		return 0, nil
	}
	rewrites := 0
	for _, container := range allBlockContainers(fn.Body) {
		for _, block := range container.Blocks() {
			n, err := p.rewriteBlock(block)
			if err != nil {
				return rewrites, err
			}
			rewrites += n
		}
	}
	return rewrites, nil
}

// rewriteBlock scans block's instructions back-to-front (so a match that
// consumes k instructions can safely shrink the index) for a recognizable
// lock shape.
func (p LockPass) rewriteBlock(block *ilast.Instruction) (int, error) {
	rewrites := 0
	for i := block.ChildCount() - 1; i >= 0; i-- {
		tf := block.Child(i)
		if tf.Kind != ilast.KindTryFinally {
			continue
		}
		if ok, err := matchLegacyV2(block, i, tf); err != nil {
			return rewrites, err
		} else if ok {
			rewrites++
			continue
		}
		if ok, err := matchFlagGuarded(block, i, tf, false); err != nil {
			return rewrites, err
		} else if ok {
			rewrites++
			continue
		}
		if ok, err := matchFlagGuarded(block, i, tf, true); err != nil {
			return rewrites, err
		} else if ok {
			rewrites++
		}
	}
	return rewrites, nil
}

// matchLegacyV2 matches: stloc lockObj(value); call Monitor.Enter(lockObj);
// try { body } finally { call Monitor.Exit(lockObj); leave }.
func matchLegacyV2(block *ilast.Instruction, tryFinallyIndex int, tf *ilast.Instruction) (bool, error) {
	if tryFinallyIndex < 2 {
		return false, nil
	}
	enterCall := block.Child(tryFinallyIndex - 1)
	storeStmt := block.Child(tryFinallyIndex - 2)

	var lockObj *ilast.Variable
	var value *ilast.Instruction
	if !matcher.MatchStLoc(storeStmt, &lockObj, &value) {
		return false, nil
	}
	if !lockObj.IsSingleAssign() {
		return false, nil
	}
	var enterMethod interface{}
	var args []*ilast.Instruction
	if !matchCallLike(enterCall, "Enter", &enterMethod, &args) || len(args) != 1 {
		return false, nil
	}
	var enterArgVar *ilast.Variable
	if !matcher.MatchLdLoc(args[0], &enterArgVar) || enterArgVar != lockObj {
		return false, nil
	}

	if tf.ChildCount() != 2 {
		return false, nil
	}
	tryBody, finallyBody := tf.Child(0), tf.Child(1)
	exitBlock, ok := soleBlock(finallyBody)
	if !ok || exitBlock.ChildCount() != 2 {
		return false, nil
	}
	var exitMethod interface{}
	var exitArgs []*ilast.Instruction
	if !matchCallLike(exitBlock.Child(0), "Exit", &exitMethod, &exitArgs) || len(exitArgs) != 1 {
		return false, nil
	}
	var exitArgVar *ilast.Variable
	if !matcher.MatchLdLoc(exitArgs[0], &exitArgVar) || exitArgVar != lockObj {
		return false, nil
	}
	var leaveTarget *ilast.Instruction
	if !matcher.MatchLeave(exitBlock.Child(1), &leaveTarget) {
		return false, nil
	}

	return true, rewriteToLockInstruction(block, tryFinallyIndex, storeStmt, value, tryBody)
}

// matchFlagGuarded matches shape 2 (v4) and shape 3 (Roslyn), which differ
// only in whether the object store precedes the flag store (Roslyn) or is
// inlined as Monitor.Enter's first argument (v4).
func matchFlagGuarded(block *ilast.Instruction, tryFinallyIndex int, tf *ilast.Instruction, roslynOrder bool) (bool, error) {
	if tryFinallyIndex < 1 {
		return false, nil
	}
	flagStoreIdx := tryFinallyIndex - 1
	var objStoreIdx = -1
	if roslynOrder {
		if tryFinallyIndex < 2 {
			return false, nil
		}
		objStoreIdx = tryFinallyIndex - 2
		flagStoreIdx = tryFinallyIndex - 1
	}

	var flagVar *ilast.Variable
	var flagInit *ilast.Instruction
	if !matcher.MatchStLoc(block.Child(flagStoreIdx), &flagVar, &flagInit) {
		return false, nil
	}
	var flagConst int32
	if !matcher.MatchLdcI4(flagInit, &flagConst) || flagConst != 0 {
		return false, nil
	}

	var lockObj *ilast.Variable
	var value *ilast.Instruction

	if tf.ChildCount() != 2 {
		return false, nil
	}
	tryBody, finallyBody := tf.Child(0), tf.Child(1)
	tryBlock, ok := soleBlock(tryBody)
	if !ok || tryBlock.ChildCount() == 0 {
		return false, nil
	}

	enterStmt := tryBlock.Child(0)
	var enterMethod interface{}
	var enterArgs []*ilast.Instruction
	if !matchCallLike(enterStmt, "Enter", &enterMethod, &enterArgs) || len(enterArgs) != 2 {
		return false, nil
	}

	if roslynOrder {
		if !matcher.MatchStLoc(block.Child(objStoreIdx), &lockObj, &value) || !lockObj.IsSingleAssign() {
			return false, nil
		}
		var argVar *ilast.Variable
		if !matcher.MatchLdLoc(enterArgs[0], &argVar) || argVar != lockObj {
			return false, nil
		}
	} else {
		if !matcher.MatchStLoc(enterArgs[0], &lockObj, &value) || !lockObj.IsSingleAssign() {
			return false, nil
		}
	}

	var flagAddrVar *ilast.Variable
	if !matcher.MatchLdLoca(enterArgs[1], &flagAddrVar) || flagAddrVar != flagVar {
		return false, nil
	}

	exitBlock, ok := soleBlock(finallyBody)
	if !ok || exitBlock.ChildCount() != 1 {
		return false, nil
	}
	guard := exitBlock.Child(0)
	var cond, trueArm, falseArm *ilast.Instruction
	if !matcher.MatchIfInstruction(guard, &cond, &trueArm, &falseArm) {
		return false, nil
	}
	var condVar *ilast.Variable
	if !matcher.MatchLdLoc(cond, &condVar) || condVar != flagVar {
		return false, nil
	}
	if falseArm.ChildCount() != 0 || trueArm.ChildCount() != 1 {
		return false, nil
	}
	var exitMethod interface{}
	var exitArgs []*ilast.Instruction
	if !matchCallLike(trueArm.Child(0), "Exit", &exitMethod, &exitArgs) || len(exitArgs) != 1 {
		return false, nil
	}
	var exitArgVar *ilast.Variable
	if !matcher.MatchLdLoc(exitArgs[0], &exitArgVar) || exitArgVar != lockObj {
		return false, nil
	}

	// Take value out of its store statement while that statement is still
	// in the tree (in the v4 shape it sits inside the Enter call).
	if err := ilast.DetachChild(value); err != nil {
		return false, err
	}

	// Strip the Enter call from the try body, leaving the guarded body.
	if _, err := ilast.RemoveAt(tryBlock, 0); err != nil {
		return false, err
	}

	firstSetupIdx := flagStoreIdx
	if roslynOrder {
		firstSetupIdx = objStoreIdx
	}
	return true, rewriteToLockInstruction(block, tryFinallyIndex, block.Child(firstSetupIdx), value, tryBody)
}

// rewriteToLockInstruction removes the setup instructions from firstSetupIdx
// through tryFinallyIndex inclusive and replaces them with a single
// LockInstruction(value, tryBody).
func rewriteToLockInstruction(block *ilast.Instruction, tryFinallyIndex int, firstSetup, value, tryBody *ilast.Instruction) error {
	lock := ilast.New(ilast.KindLockInstruction)
	firstSetupIdx := firstSetup.ChildIndex()

	if _, err := ilast.RemoveAt(tryBody.Parent(), tryBody.ChildIndex()); err == nil {
		// tryBody detached from its TryFinally parent; fall through to attach below.
	}

	// value is still under its store statement in the legacy shape; the
	// flag-guarded shapes detach it before stripping the Enter call.
	if value.Parent() != nil {
		if err := ilast.DetachChild(value); err != nil {
			return err
		}
	}

	for idx := tryFinallyIndex; idx >= firstSetupIdx; idx-- {
		if _, err := ilast.RemoveAt(block, idx); err != nil {
			return err
		}
	}

	lock.Resource = value
	if err := ilast.AppendChild(lock, tryBody); err != nil {
		return err
	}
	return ilast.AttachChild(block, lock, firstSetupIdx)
}

// matchCallLike reports whether n is a Call/CallVirt whose method name
// contains want (e.g. "Enter", "Exit"), binding its method and arguments.
func matchCallLike(n *ilast.Instruction, want string, method *interface{}, args *[]*ilast.Instruction) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case ilast.KindCall, ilast.KindCallVirt:
	default:
		return false
	}
	if n.Method == nil {
		return false
	}
	if !containsName(n.Method.Name, want) {
		return false
	}
	*args = n.Children()
	return true
}

func containsName(name, want string) bool {
	for i := 0; i+len(want) <= len(name); i++ {
		if name[i:i+len(want)] == want {
			return true
		}
	}
	return false
}

func soleBlock(region *ilast.Instruction) (*ilast.Instruction, bool) {
	if region.Kind == ilast.KindBlock {
		return region, true
	}
	if region.Kind == ilast.KindBlockContainer && region.ChildCount() == 1 {
		return region.Child(0), true
	}
	return nil, false
}

func allBlockContainers(root *ilast.Instruction) []*ilast.Instruction {
	var out []*ilast.Instruction
	if root.Kind == ilast.KindBlockContainer {
		out = append(out, root)
	}
	for n := range root.Descendants {
		if n.Kind == ilast.KindBlockContainer {
			out = append(out, n)
		}
	}
	return out
}
