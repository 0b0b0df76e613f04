// Package registry is the single source of truth mapping an Apex debug log
// event name to its record shape, its scope role (entry/exit/leaf), the set
// of exit tags that legitimately close it, and any onEnd hook that needs
// the closing line to finish building the node.
//
// This mirrors the teacher's LineRegistry/function-table design (spec.md
// §4.2, §9 "dynamic dispatch on line types"): rather than subclassing per
// event, every tag gets one table entry holding a constructor closure plus
// declarative scope metadata.
package registry

import (
	"strconv"
	"strings"

	"github.com/apexlog-tools/apexlog/core"
)

// Kind classifies how a tag participates in the scope tree.
type Kind int

const (
	KindLeaf Kind = iota
	KindEntry
	KindExit
)

// BuildContext carries everything a tag's Build closure needs to produce a
// LineRecord from the tokenizer's split fields.
type BuildContext struct {
	Timestamp  int64
	LineNumber string
	LogLine    string
	Fields     []string // pipe-delimited fields after the timestamp and event name
}

// Entry is one row of the line registry.
type Entry struct {
	Tag  core.EventTag
	Kind Kind

	// ExitTypes is only meaningful for KindEntry: the set of tags that
	// legitimately close this scope.
	ExitTypes map[core.EventTag]bool

	// Pseudo marks entry tags with no true exit line in the log text; the
	// tree builder infers their close (spec.md §4.3).
	Pseudo bool

	// Discontinuity marks leaf tags (exceptions, fatal errors) that permit
	// stack unwinding without an Unexpected-End issue.
	Discontinuity bool

	// MethodLike marks METHOD_ENTRY/CONSTRUCTOR_ENTRY style tags whose
	// namespace is assigned during the PostProcessor's namespace-propagation
	// pass (spec.md §4.4) rather than at build time.
	MethodLike bool

	Build func(ctx BuildContext) *core.LineRecord

	// OnEnd runs once this scope's exit line is known.
	OnEnd func(node *core.TreeNode, exit *core.LineRecord)
}

// Registry is the immutable event-name -> Entry table.
type Registry struct {
	entries map[core.EventTag]*Entry
}

// Lookup returns the entry for tag, or nil if the tag is unrecognized.
func (r *Registry) Lookup(tag core.EventTag) *Entry {
	return r.entries[tag]
}

func exitSet(tags ...core.EventTag) map[core.EventTag]bool {
	m := make(map[core.EventTag]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func lastField(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// StripBrackets trims surrounding whitespace and a "[...]" wrapper, used by
// the tokenizer to pull the generic line-number field off the front of an
// event's remaining fields (e.g. "[EXTERNAL]", "[42]").
func StripBrackets(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return s
}

// parseRows extracts the integer following "Rows:" in a field such as
// "Rows:50"; it returns 0 if the field does not match.
func parseRows(f string) int {
	const p = "Rows:"
	idx := strings.Index(f, p)
	if idx == -1 {
		return 0
	}
	n, _ := strconv.Atoi(strings.TrimSpace(f[idx+len(p):]))
	return n
}

// New builds the registry table described in spec.md §4.2.
func New() *Registry {
	r := &Registry{entries: make(map[core.EventTag]*Entry)}
	for _, e := range buildEntries() {
		e := e
		r.entries[e.Tag] = &e
	}
	return r
}
