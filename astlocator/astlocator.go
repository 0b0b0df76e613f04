// Package astlocator implements ApexAstLocator (spec.md §4.8): given Apex
// source text and a parsed symbol, locate the line/character of the
// declaration it refers to. Apex isn't Go, so this can't lean on go/ast; it
// hand-rolls a shallow recursive-descent scan of class/method/constructor
// declarations instead, the same way the teacher hand-rolls its own
// message-template tokenizer rather than reusing a general-purpose parser
// for a domain-specific grammar.
package astlocator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/apexlog-tools/apexlog/internal/diagcache"
	"github.com/apexlog-tools/apexlog/symbol"
	"golang.org/x/sync/singleflight"
)

// Kind classifies one declaration node in the scanned AST.
type Kind string

const (
	KindClass       Kind = "Class"
	KindMethod      Kind = "Method"
	KindConstructor Kind = "Constructor"
)

// Node is one declaration found while scanning Apex source.
type Node struct {
	Nature      Kind
	Name        string // lowercased
	Line        int
	IdCharacter int
	Params      string // lowercased, whitespace-stripped; only set for methods/constructors
	Children    []*Node
}

// Location is what Locate resolves a symbol to.
type Location struct {
	Line          int
	Character     int
	IsExactMatch  bool
	MissingSymbol string
}

var (
	classPattern = regexp.MustCompile(`(?i)\b(?:class|interface|enum)\s+(\w+)`)

	modifierWord = `(?:public|private|protected|global|static|final|virtual|override|abstract|testmethod|webservice|with\s+sharing|without\s+sharing)`
	methodOrCtor = regexp.MustCompile(`(?i)^\s*(?:` + modifierWord + `\s+)*(?:([\w<>\[\]\.]+)\s+)?(\w+)\s*\(([^)]*)\)\s*\{?\s*$`)
)

// Parse scans source into a forest of top-level declarations.
func Parse(source string) []*Node {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")

	type frame struct {
		node      *Node
		openDepth int
	}

	var roots []*Node
	var stack []frame
	depth := 0

	attach := func(n *Node) {
		if len(stack) > 0 {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, n)
			return
		}
		roots = append(roots, n)
	}

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		switch {
		case classPattern.MatchString(trimmed) && !strings.Contains(trimmed, "("):
			m := classPattern.FindStringSubmatch(trimmed)
			node := &Node{
				Nature:      KindClass,
				Name:        strings.ToLower(m[1]),
				Line:        lineNo,
				IdCharacter: strings.Index(line, m[1]),
			}
			attach(node)
			stack = append(stack, frame{node: node, openDepth: depth + 1})

		case methodOrCtor.MatchString(line):
			m := methodOrCtor.FindStringSubmatch(line)
			returnType, name, params := m[1], m[2], m[3]

			enclosing := ""
			if len(stack) > 0 {
				enclosing = stack[len(stack)-1].node.Name
			}
			nature := KindMethod
			if returnType == "" && strings.EqualFold(name, enclosing) {
				nature = KindConstructor
			}

			node := &Node{
				Nature:      nature,
				Name:        strings.ToLower(name),
				Line:        lineNo,
				IdCharacter: strings.Index(line, name),
				Params:      stripWhitespace(params),
			}
			attach(node)
			if strings.Contains(line, "{") {
				stack = append(stack, frame{node: node, openDepth: depth + 1})
			}
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		for len(stack) > 0 && depth < stack[len(stack)-1].openDepth {
			stack = stack[:len(stack)-1]
		}
	}

	return roots
}

func stripWhitespace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// Locator caches parsed ASTs across repeated calls for the same source text
// and collapses concurrent requests for an in-flight parse into one scan,
// since spec.md §5 allows ApexAstLocator to be called concurrently across
// files with no shared global state beyond this cache.
type Locator struct {
	cache *diagcache.Cache[[]*Node]
	group singleflight.Group
}

// New returns a Locator with its own private cache.
func New() *Locator {
	return &Locator{cache: diagcache.New[[]*Node]()}
}

func (l *Locator) parse(source string) []*Node {
	if roots, ok := l.cache.Get(source); ok {
		return roots
	}
	v, _, _ := l.group.Do(source, func() (interface{}, error) {
		roots := Parse(source)
		l.cache.Put(source, roots)
		return roots, nil
	})
	return v.([]*Node)
}

// Locate resolves sym against source, following spec.md §4.8's algorithm.
func (l *Locator) Locate(source string, sym *symbol.Symbol) (*Location, error) {
	roots := l.parse(source)
	if len(roots) == 0 {
		return nil, fmt.Errorf("astlocator: no declarations found in source")
	}

	classPath := []string{sym.OuterClass}
	if sym.InnerClass != "" {
		classPath = append(classPath, sym.InnerClass)
	}

	var current *Node
	candidates := roots
	for _, seg := range classPath {
		match := findChildClass(candidates, strings.ToLower(seg))
		if match == nil {
			break
		}
		current = match
		candidates = match.Children
	}
	if current == nil {
		return nil, fmt.Errorf("astlocator: class not found for symbol: %s", sym.FullSymbol)
	}

	if sym.Method == "" {
		return &Location{Line: current.Line, Character: current.IdCharacter, IsExactMatch: true}, nil
	}

	methodName := strings.ToLower(sym.Method)
	wantParams := stripWhitespace(sym.Parameters)

	if m := findMethod(current.Children, methodName, wantParams); m != nil {
		return &Location{Line: m.Line, Character: m.IdCharacter, IsExactMatch: true}, nil
	}

	stripped := stripOuterQualifier(wantParams, strings.ToLower(sym.OuterClass))
	if m := findMethod(current.Children, methodName, stripped); m != nil {
		return &Location{Line: m.Line, Character: m.IdCharacter, IsExactMatch: true}, nil
	}

	return &Location{
		Line:          current.Line,
		Character:     current.IdCharacter,
		IsExactMatch:  false,
		MissingSymbol: sym.Method,
	}, nil
}

func findChildClass(nodes []*Node, name string) *Node {
	for _, n := range nodes {
		if n.Nature == KindClass && n.Name == name {
			return n
		}
	}
	return nil
}

func findMethod(nodes []*Node, name, params string) *Node {
	for _, n := range nodes {
		if (n.Nature == KindMethod || n.Nature == KindConstructor) && n.Name == name && n.Params == params {
			return n
		}
	}
	return nil
}

func stripOuterQualifier(params, outer string) string {
	if params == "" {
		return params
	}
	parts := strings.Split(params, ",")
	prefix := outer + "."
	for i, p := range parts {
		parts[i] = strings.TrimPrefix(p, prefix)
	}
	return strings.Join(parts, ",")
}
