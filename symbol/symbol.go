// Package symbol implements SymbolParser (spec.md §4.7): splitting a
// fully-qualified Apex symbol string into its namespace, outer/inner class,
// method, and raw parameter text.
package symbol

import (
	"fmt"
	"strings"
)

// Symbol is the parsed shape of a fully-qualified Apex reference such as
// "ns1.Outer.Inner.method(String, Integer)".
type Symbol struct {
	FullSymbol string
	Namespace  string // "" means no namespace
	OuterClass string
	InnerClass string // "" if the symbol has no inner class
	Method     string
	Parameters string
}

// Parse splits symbol into its components. projectNamespaces is the set of
// namespaces known to belong to the current project; it disambiguates a
// three-segment path where the first segment could be either a namespace
// or an outer class name.
func Parse(symbol string, projectNamespaces []string) (*Symbol, error) {
	dotPath, params := splitParams(symbol)

	parts := strings.Split(dotPath, ".")
	if len(parts) == 0 || (len(parts) == 1 && parts[0] == "") {
		return nil, fmt.Errorf("Invalid symbol: %s", symbol)
	}

	hasNS := len(parts) == 4 || (len(parts) > 0 && isProjectNamespace(parts[0], projectNamespaces))

	sym := &Symbol{FullSymbol: symbol, Parameters: params}

	idx := 0
	if hasNS {
		sym.Namespace = parts[0]
		idx = 1
	}

	remaining := parts[idx:]
	if len(remaining) == 0 {
		return nil, fmt.Errorf("Invalid symbol: %s", symbol)
	}

	sym.OuterClass = remaining[0]
	switch len(remaining) {
	case 1:
		// OuterClass doubles as the method-bearing segment when nothing else
		// is given; callers that expect a method should treat this as
		// unresolved rather than crash.
	case 2:
		sym.Method = remaining[1]
	case 3:
		sym.InnerClass = remaining[1]
		sym.Method = remaining[2]
	default:
		// More segments than spec.md's documented shapes; take the last as
		// the method and the one before it as the inner class, keeping the
		// earliest remaining segment as outer.
		sym.InnerClass = remaining[len(remaining)-2]
		sym.Method = remaining[len(remaining)-1]
	}

	return sym, nil
}

func splitParams(symbol string) (dotPath, params string) {
	open := strings.IndexByte(symbol, '(')
	if open == -1 {
		return symbol, ""
	}
	dotPath = symbol[:open]
	params = strings.TrimSuffix(symbol[open+1:], ")")
	return dotPath, params
}

func isProjectNamespace(candidate string, namespaces []string) bool {
	for _, ns := range namespaces {
		if ns == candidate {
			return true
		}
	}
	return false
}
