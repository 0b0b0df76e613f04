// Package aggregator implements DatabaseAggregator: a post-parse walk that
// groups every SOQL/DML node in a finished tree by fingerprint — its kind,
// namespace, and normalized query/object text — and rolls up invocation
// counts, row counts, and cumulative self-duration per group.
package aggregator

import (
	"regexp"
	"strings"

	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/internal/registry"
)

// Fingerprint identifies one group of equivalent database operations.
type Fingerprint struct {
	Kind      string // "SOQL" or "DML"
	Namespace string
	Text      string // normalized query or "<op> <object>" text
}

// Aggregate is the rolled-up cost of every node sharing one Fingerprint.
type Aggregate struct {
	Fingerprint  Fingerprint
	Invocations  int
	Rows         int64
	SelfDuration int64 // nanoseconds
}

var (
	stringLiteralPattern = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)
	numericLiteralPattern = regexp.MustCompile(`\b\d+\b`)
	bindVarPattern        = regexp.MustCompile(`:\w+`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
)

// normalizeSoql collapses the parts of a query text that vary call to
// call (literals, bind variable names, whitespace) so that otherwise
// identical queries fingerprint the same regardless of the specific
// values a caller passed in.
func normalizeSoql(text string) string {
	text = stringLiteralPattern.ReplaceAllString(text, "'?'")
	text = bindVarPattern.ReplaceAllString(text, ":?")
	text = numericLiteralPattern.ReplaceAllString(text, "?")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Run walks every root's tree and returns one Aggregate per fingerprint
// encountered, in first-appearance order.
func Run(roots []*core.TreeNode) []Aggregate {
	byFingerprint := make(map[Fingerprint]*Aggregate)
	var order []Fingerprint

	var walk func(n *core.TreeNode)
	walk = func(n *core.TreeNode) {
		var fp Fingerprint
		var rows int64
		var match bool

		switch n.Type {
		case registry.SoqlExecuteBegin:
			fp = Fingerprint{Kind: "SOQL", Namespace: n.Namespace, Text: normalizeSoql(n.Text)}
			rows = int64(n.Detail.RowCount)
			match = true
		case registry.DmlBegin:
			fp = Fingerprint{Kind: "DML", Namespace: n.Namespace, Text: n.Detail.DmlOp + " " + n.Detail.DmlType}
			rows = int64(n.Detail.RowCount)
			match = true
		}

		if match {
			a, ok := byFingerprint[fp]
			if !ok {
				a = &Aggregate{Fingerprint: fp}
				byFingerprint[fp] = a
				order = append(order, fp)
			}
			a.Invocations++
			a.Rows += rows
			a.SelfDuration += n.Duration.Self
		}

		for _, c := range n.Children {
			walk(c)
		}
	}

	for _, r := range roots {
		walk(r)
	}

	result := make([]Aggregate, 0, len(order))
	for _, fp := range order {
		result = append(result, *byFingerprint[fp])
	}
	return result
}
