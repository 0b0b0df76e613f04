// Package postprocess implements the bottom-up passes spec.md §4.4 runs
// over a freshly built tree: self/total duration, self/total SOQL/DML/SOSL
// and exception counters, namespace propagation, and the merging of
// consecutive managed-package pseudo-scopes into one run.
package postprocess

import (
	"strings"

	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/internal/registry"
	"github.com/apexlog-tools/apexlog/namespace"
)

// Run mutates every node reachable from roots in place and returns the
// merged root slice plus the distinct namespaces encountered, in
// first-appearance depth-first order (spec.md §4.4's ApexLog.Namespaces).
func Run(roots []*core.TreeNode, reg *registry.Registry) ([]*core.TreeNode, []string) {
	roots = mergeManagedPkgRuns(roots)

	for _, r := range roots {
		computeDurationAndCounters(r)
	}

	observed := make(map[string]bool)
	collectObservedNamespaces(roots, reg, observed)

	seen := make(map[string]bool)
	var order []string
	for _, r := range roots {
		propagateNamespace(r, reg, namespace.Default, observed, seen, &order)
	}
	return roots, order
}

func computeDurationAndCounters(n *core.TreeNode) {
	seedSelfCounters(n)

	var childTotal int64
	for _, c := range n.Children {
		computeDurationAndCounters(c)
		childTotal += c.Duration.Total
	}

	n.Duration.Total = n.ExitStamp - n.Timestamp
	n.Duration.Self = n.Duration.Total - childTotal

	n.Counters.SeedTotals()
	for _, c := range n.Children {
		n.Counters.AddChild(&c.Counters)
	}
}

// seedSelfCounters sets each counter's Self field from the node's own
// entry/exit data, before any child is folded in.
func seedSelfCounters(n *core.TreeNode) {
	switch n.Type {
	case registry.SoqlExecuteBegin:
		n.Counters.SoqlCount.Self = 1
		n.Counters.SoqlRowCount.Self = int64(n.Detail.RowCount)
	case registry.SoslExecuteBegin:
		n.Counters.SoslCount.Self = 1
		n.Counters.SoslRowCount.Self = int64(n.Detail.RowCount)
	case registry.DmlBegin:
		n.Counters.DmlCount.Self = 1
		n.Counters.DmlRowCount.Self = int64(n.Detail.RowCount)
	case registry.ExceptionThrown, registry.FatalError:
		n.Counters.TotalThrownCount.Self = 1
	}
}

// collectObservedNamespaces gathers every namespace already set on a
// non-MethodLike node (CODE_UNIT_STARTED, ENTERING_MANAGED_PKG, SOQL/DML/SOSL,
// and the rest of the registry's namespace.Default-bearing tags) before any
// propagation runs. Method/constructor nodes start with no namespace of
// their own, so this set is exactly "this log's namespace set" that spec.md
// §4.4 checks a method's dotted-prefix namespace against.
func collectObservedNamespaces(nodes []*core.TreeNode, reg *registry.Registry, set map[string]bool) {
	for _, n := range nodes {
		entry := reg.Lookup(n.Type)
		methodLike := entry != nil && entry.MethodLike
		if !methodLike && n.Namespace != "" {
			set[n.Namespace] = true
		}
		collectObservedNamespaces(n.Children, reg, set)
	}
}

// propagateNamespace walks the tree assigning namespaces to nodes that
// don't carry one of their own. METHOD_ENTRY and CONSTRUCTOR_ENTRY nodes
// (registry.Entry.MethodLike) are a special case: when their text is of the
// form "ns.Class.method(args)", ns wins if it's in the log's observed
// namespace set, else the node falls back to "default". Every other node
// (and a method/constructor line whose text carries no dotted namespace
// prefix) keeps a namespace its own entry line already set, and only
// inherits the parent's when it has none.
func propagateNamespace(n *core.TreeNode, reg *registry.Registry, inherited string, observed, seen map[string]bool, order *[]string) {
	entry := reg.Lookup(n.Type)
	methodLike := entry != nil && entry.MethodLike

	switch {
	case methodLike:
		if ns, ok := methodTextNamespace(n.Text); ok {
			if observed[ns] {
				n.Namespace = ns
			} else {
				n.Namespace = namespace.Default
			}
		} else if n.Namespace == "" {
			n.Namespace = inherited
		}
	case n.Namespace == "":
		n.Namespace = inherited
	}

	if !seen[n.Namespace] {
		seen[n.Namespace] = true
		*order = append(*order, n.Namespace)
	}

	for _, c := range n.Children {
		propagateNamespace(c, reg, n.Namespace, observed, seen, order)
	}
}

// methodTextNamespace extracts the leading namespace segment from a
// method/constructor entry's text when it has the "ns.Class.method(args)"
// shape (three or more dot-separated segments before the parameter list).
// A plain "Class.method(args)" text (two segments) reports ok=false.
func methodTextNamespace(text string) (string, bool) {
	dotPath := text
	if i := strings.IndexByte(text, '('); i != -1 {
		dotPath = text[:i]
	}
	parts := strings.Split(dotPath, ".")
	if len(parts) < 3 || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}

// mergeManagedPkgRuns collapses consecutive ENTERING_MANAGED_PKG siblings
// that share a namespace into a single run, folding their durations
// together, at every level of the tree including the root slice itself.
// Apex debug logs often emit a burst of these pseudo-scopes for
// back-to-back cross-package calls; merging them keeps the tree from
// fragmenting into many same-namespace slivers with no other content.
func mergeManagedPkgRuns(roots []*core.TreeNode) []*core.TreeNode {
	roots = mergeManagedPkgChildren(roots)
	for _, r := range roots {
		r.Children = mergeManagedPkgChildren(r.Children)
		mergeManagedPkgRuns(r.Children)
	}
	return roots
}

func mergeManagedPkgChildren(children []*core.TreeNode) []*core.TreeNode {
	if len(children) < 2 {
		return children
	}

	merged := children[:1]
	for _, c := range children[1:] {
		last := merged[len(merged)-1]
		if last.Type == registry.EnteringManagedPkg && c.Type == registry.EnteringManagedPkg && last.Namespace == c.Namespace {
			if c.ExitStamp > last.ExitStamp {
				last.ExitStamp = c.ExitStamp
			}
			continue
		}
		merged = append(merged, c)
	}
	return merged
}
