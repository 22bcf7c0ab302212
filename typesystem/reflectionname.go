package typesystem

import (
	"fmt"
	"strconv"
	"strings"
)

// ReflectionNameParseError reports a malformed reflection-style type name
// (spec §6's name grammar), distinct from metadata.Reader failures: the
// input string itself doesn't parse, independent of any assembly state.
type ReflectionNameParseError struct {
	Input  string
	Reason string
}

func (e *ReflectionNameParseError) Error() string {
	return fmt.Sprintf("typesystem: malformed reflection name %q: %s", e.Input, e.Reason)
}

// ReflectionName is the parsed form of a CLR reflection-style type name:
//
//	Namespace.Outer`1+Inner`2[[Arg1],[Arg2]][]&
//
// Nested types are joined with '+', each level may carry its own backtick
// generic arity, bound type arguments follow the innermost arity in
// double-bracketed form, and array/pointer/by-ref suffixes trail the whole
// name.
type ReflectionName struct {
	Namespace     string
	NestedNames   []string // outer to inner, arity suffix stripped
	NestedArities []int    // parallel to NestedNames
	TypeArguments []*ReflectionName
	ArrayRanks    []int // one entry per array suffix, outer to inner order of appearance
	PointerDepth  int
	IsByRef       bool

	AssemblyQualification string // text after the first top-level comma, if any
}

// Arity is the generic arity of the innermost nested name — the count of
// type parameters a non-instantiated reference to this name would bind.
func (n *ReflectionName) Arity() int {
	if len(n.NestedArities) == 0 {
		return 0
	}
	return n.NestedArities[len(n.NestedArities)-1]
}

// SimpleName is the innermost nested name, without namespace or arity.
func (n *ReflectionName) SimpleName() string {
	if len(n.NestedNames) == 0 {
		return ""
	}
	return n.NestedNames[len(n.NestedNames)-1]
}

// ParseReflectionName parses s per the grammar above, returning a
// *ReflectionNameParseError for any malformed input: an unmatched bracket,
// a backtick not followed by a non-negative integer, a '&' that is not the
// final suffix, or bound type-argument brackets with a mismatched count
// against the arity they follow.
func ParseReflectionName(s string) (*ReflectionName, error) {
	input := s
	core, assemblyQual, err := splitAssemblyQualification(s)
	if err != nil {
		return nil, &ReflectionNameParseError{Input: input, Reason: err.Error()}
	}

	isByRef := false
	if strings.HasSuffix(core, "&") {
		isByRef = true
		core = core[:len(core)-1]
		if strings.ContainsAny(core, "&") {
			return nil, &ReflectionNameParseError{Input: input, Reason: "'&' must be the final suffix"}
		}
	}

	pointerDepth := 0
	for strings.HasSuffix(core, "*") {
		pointerDepth++
		core = core[:len(core)-1]
	}

	var arrayRanks []int
	for {
		open := strings.LastIndex(core, "[")
		if open == -1 || !strings.HasSuffix(core, "]") {
			break
		}
		inner := core[open+1 : len(core)-1]
		if inner != "" && strings.Trim(inner, ",") != "" {
			// not a bare array-rank bracket (e.g. it's the generic-args bracket) —
			// stop treating suffixes as arrays.
			break
		}
		rank := strings.Count(inner, ",") + 1
		if inner == "" {
			rank = 1
		}
		arrayRanks = append([]int{rank}, arrayRanks...)
		core = core[:open]
	}

	var typeArgs []*ReflectionName
	if strings.HasSuffix(core, "]") {
		open := indexOfMatchingOpen(core)
		if open == -1 {
			return nil, &ReflectionNameParseError{Input: input, Reason: "unmatched ']' in generic argument list"}
		}
		argsText := core[open+1 : len(core)-1]
		core = core[:open]
		parts, err := splitGenericArgs(argsText)
		if err != nil {
			return nil, &ReflectionNameParseError{Input: input, Reason: err.Error()}
		}
		for _, part := range parts {
			part = strings.TrimPrefix(part, "[")
			part = strings.TrimSuffix(part, "]")
			arg, err := ParseReflectionName(part)
			if err != nil {
				return nil, err
			}
			typeArgs = append(typeArgs, arg)
		}
	}

	lastDot := strings.LastIndex(core, ".")
	// Namespace separators only occur before the first '+'; anything after the
	// first '+' is a nested-type name and must not itself be dotted.
	firstPlus := strings.Index(core, "+")
	if firstPlus != -1 && lastDot > firstPlus {
		lastDot = strings.LastIndex(core[:firstPlus], ".")
	}
	namespace := ""
	rest := core
	if lastDot != -1 {
		namespace = core[:lastDot]
		rest = core[lastDot+1:]
	}

	segments := strings.Split(rest, "+")
	var names []string
	var arities []int
	for _, seg := range segments {
		name, arity, err := splitBacktickArity(seg)
		if err != nil {
			return nil, &ReflectionNameParseError{Input: input, Reason: err.Error()}
		}
		if name == "" {
			return nil, &ReflectionNameParseError{Input: input, Reason: "empty nested-type segment"}
		}
		names = append(names, name)
		arities = append(arities, arity)
	}

	if len(typeArgs) > 0 && len(typeArgs) != arities[len(arities)-1] {
		return nil, &ReflectionNameParseError{Input: input,
			Reason: fmt.Sprintf("bound %d type arguments but arity is %d", len(typeArgs), arities[len(arities)-1])}
	}

	return &ReflectionName{
		Namespace:             namespace,
		NestedNames:           names,
		NestedArities:         arities,
		TypeArguments:         typeArgs,
		ArrayRanks:            arrayRanks,
		PointerDepth:          pointerDepth,
		IsByRef:               isByRef,
		AssemblyQualification: assemblyQual,
	}, nil
}

func splitBacktickArity(seg string) (name string, arity int, err error) {
	idx := strings.Index(seg, "`")
	if idx == -1 {
		return seg, 0, nil
	}
	digits := seg[idx+1:]
	if digits == "" {
		return "", 0, fmt.Errorf("'`' not followed by an arity digit in %q", seg)
	}
	n, convErr := strconv.Atoi(digits)
	if convErr != nil || n < 0 {
		return "", 0, fmt.Errorf("'`' followed by non-numeric arity %q in %q", digits, seg)
	}
	return seg[:idx], n, nil
}

// splitAssemblyQualification splits s on its first top-level comma (depth 0
// with respect to [] brackets), the point at which "Type, Assembly" style
// qualification begins.
func splitAssemblyQualification(s string) (core, assemblyQual string, err error) {
	depth := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return "", "", fmt.Errorf("unmatched ']' at position %d", i)
			}
		case ',':
			if depth == 0 {
				return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), nil
			}
		}
	}
	if depth != 0 {
		return "", "", fmt.Errorf("unmatched '[' in %q", s)
	}
	return s, "", nil
}

// splitGenericArgs splits the contents of a "[T1],[T2]" list into its
// bracketed pieces, each itself "Type" or "Type, Assembly".
func splitGenericArgs(s string) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unmatched ']' in generic argument list %q", s)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unmatched '[' in generic argument list %q", s)
	}
	parts = append(parts, s[start:])
	return parts, nil
}

// indexOfMatchingOpen finds the '[' matching the final ']' in s.
func indexOfMatchingOpen(s string) int {
	if !strings.HasSuffix(s, "]") {
		return -1
	}
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ']':
			depth++
		case '[':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// String reconstructs the reflection-name text, the inverse of
// ParseReflectionName for any value it returned.
func (n *ReflectionName) String() string {
	var b strings.Builder
	if n.Namespace != "" {
		b.WriteString(n.Namespace)
		b.WriteByte('.')
	}
	for i, name := range n.NestedNames {
		if i > 0 {
			b.WriteByte('+')
		}
		b.WriteString(name)
		if n.NestedArities[i] > 0 {
			b.WriteByte('`')
			b.WriteString(strconv.Itoa(n.NestedArities[i]))
		}
	}
	if len(n.TypeArguments) > 0 {
		b.WriteByte('[')
		for i, arg := range n.TypeArguments {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('[')
			b.WriteString(arg.String())
			b.WriteByte(']')
		}
		b.WriteByte(']')
	}
	for _, rank := range n.ArrayRanks {
		b.WriteByte('[')
		for i := 1; i < rank; i++ {
			b.WriteByte(',')
		}
		b.WriteByte(']')
	}
	for i := 0; i < n.PointerDepth; i++ {
		b.WriteByte('*')
	}
	if n.IsByRef {
		b.WriteByte('&')
	}
	if n.AssemblyQualification != "" {
		b.WriteString(", ")
		b.WriteString(n.AssemblyQualification)
	}
	return b.String()
}
