package postprocess

import (
	"testing"

	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/internal/registry"
	"github.com/apexlog-tools/apexlog/namespace"
)

func TestRunComputesSelfAndTotalDuration(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted, Timestamp: 0, ExitStamp: 100}
	child := &core.TreeNode{Type: registry.MethodEntry, Text: "MyClass.method()", Timestamp: 10, ExitStamp: 40}
	root.AddChild(child)

	Run([]*core.TreeNode{root}, registry.New())

	if child.Duration.Total != 30 {
		t.Errorf("expected child total duration 30, got %d", child.Duration.Total)
	}
	if child.Duration.Self != 30 {
		t.Errorf("expected child self duration 30 (no grandchildren), got %d", child.Duration.Self)
	}
	if root.Duration.Total != 100 {
		t.Errorf("expected root total duration 100, got %d", root.Duration.Total)
	}
	if root.Duration.Self != 70 {
		t.Errorf("expected root self duration 70 (100 - 30 child total), got %d", root.Duration.Self)
	}
}

func TestRunAggregatesCountersUpTheTree(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted}
	soql := &core.TreeNode{Type: registry.SoqlExecuteBegin, Detail: core.NodeDetail{RowCount: 5}}
	dml := &core.TreeNode{Type: registry.DmlBegin, Detail: core.NodeDetail{RowCount: 2}}
	root.AddChild(soql)
	root.AddChild(dml)

	Run([]*core.TreeNode{root}, registry.New())

	if root.Counters.SoqlCount.Total != 1 || root.Counters.SoqlRowCount.Total != 5 {
		t.Errorf("expected 1 SOQL query with 5 rows rolled up, got %+v", root.Counters)
	}
	if root.Counters.DmlCount.Total != 1 || root.Counters.DmlRowCount.Total != 2 {
		t.Errorf("expected 1 DML statement with 2 rows rolled up, got %+v", root.Counters)
	}
}

func TestRunSeedsThrownCountForExceptionAndFatalError(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted}
	exc := &core.TreeNode{Type: registry.ExceptionThrown}
	fatal := &core.TreeNode{Type: registry.FatalError}
	root.AddChild(exc)
	root.AddChild(fatal)

	Run([]*core.TreeNode{root}, registry.New())

	if exc.Counters.TotalThrownCount.Self != 1 {
		t.Errorf("expected EXCEPTION_THROWN to seed TotalThrownCount.Self=1, got %d", exc.Counters.TotalThrownCount.Self)
	}
	if fatal.Counters.TotalThrownCount.Self != 1 {
		t.Errorf("expected FATAL_ERROR to seed TotalThrownCount.Self=1, got %d", fatal.Counters.TotalThrownCount.Self)
	}
	if root.Counters.TotalThrownCount.Total != 2 {
		t.Errorf("expected both to roll up to root's total, got %d", root.Counters.TotalThrownCount.Total)
	}
}

func TestRunPropagatesNamespaceMethodWithoutDottedPrefixInherits(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted, Namespace: "ns1"}
	method := &core.TreeNode{Type: registry.MethodEntry, Text: "MyClass.method(String s)"}
	root.AddChild(method)

	Run([]*core.TreeNode{root}, registry.New())

	if method.Namespace != "ns1" {
		t.Errorf("expected a two-segment method text to inherit the enclosing namespace, got %q", method.Namespace)
	}
}

func TestRunPropagatesNamespaceMethodWithObservedDottedPrefixUsesIt(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted, Namespace: namespace.Default}
	pkg := &core.TreeNode{Type: registry.EnteringManagedPkg, Namespace: "ns1"}
	method := &core.TreeNode{Type: registry.MethodEntry, Text: "ns1.MyClass.method(String s)"}
	root.AddChild(pkg)
	root.AddChild(method)

	Run([]*core.TreeNode{root}, registry.New())

	if method.Namespace != "ns1" {
		t.Errorf("expected dotted prefix matching an observed namespace to win, got %q", method.Namespace)
	}
}

func TestRunPropagatesNamespaceMethodWithUnobservedDottedPrefixFallsBackToDefault(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted, Namespace: "ns1"}
	method := &core.TreeNode{Type: registry.MethodEntry, Text: "nsGhost.MyClass.method(String s)"}
	root.AddChild(method)

	Run([]*core.TreeNode{root}, registry.New())

	if method.Namespace != namespace.Default {
		t.Errorf("expected a dotted prefix never observed elsewhere in the log to fall back to default, got %q", method.Namespace)
	}
}

func TestRunPropagatesNamespaceOthersKeepOwnWhenSet(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted, Namespace: "ns1"}
	soql := &core.TreeNode{Type: registry.SoqlExecuteBegin, Namespace: "ns2"}
	root.AddChild(soql)

	Run([]*core.TreeNode{root}, registry.New())

	if soql.Namespace != "ns2" {
		t.Errorf("expected a node with its own namespace to keep it, got %q", soql.Namespace)
	}
}

func TestRunPropagatesNamespaceOthersInheritWhenEmpty(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted, Namespace: "ns1"}
	leaf := &core.TreeNode{Type: registry.UserDebug}
	root.AddChild(leaf)

	Run([]*core.TreeNode{root}, registry.New())

	if leaf.Namespace != "ns1" {
		t.Errorf("expected a namespace-less node to inherit, got %q", leaf.Namespace)
	}
}

func TestRunReturnsNamespacesInFirstAppearanceOrder(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted, Namespace: namespace.Default}
	a := &core.TreeNode{Type: registry.SoqlExecuteBegin, Namespace: "ns1"}
	b := &core.TreeNode{Type: registry.SoqlExecuteBegin, Namespace: "ns2"}
	c := &core.TreeNode{Type: registry.SoqlExecuteBegin, Namespace: "ns1"}
	root.AddChild(a)
	root.AddChild(b)
	root.AddChild(c)

	_, order := Run([]*core.TreeNode{root}, registry.New())

	want := []string{namespace.Default, "ns1", "ns2"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("expected order %v, got %v", want, order)
		}
	}
}

func TestMergeManagedPkgRunsCollapsesConsecutiveSameNamespaceSiblings(t *testing.T) {
	root := &core.TreeNode{Type: registry.CodeUnitStarted}
	p1 := &core.TreeNode{Type: registry.EnteringManagedPkg, Namespace: "pkg1", Timestamp: 10, ExitStamp: 20}
	p2 := &core.TreeNode{Type: registry.EnteringManagedPkg, Namespace: "pkg1", Timestamp: 20, ExitStamp: 35}
	p3 := &core.TreeNode{Type: registry.EnteringManagedPkg, Namespace: "pkg2", Timestamp: 35, ExitStamp: 40}
	root.AddChild(p1)
	root.AddChild(p2)
	root.AddChild(p3)

	Run([]*core.TreeNode{root}, registry.New())

	if len(root.Children) != 2 {
		t.Fatalf("expected the two pkg1 runs merged into one, leaving 2 children, got %d", len(root.Children))
	}
	if root.Children[0].ExitStamp != 35 {
		t.Errorf("expected merged run's ExitStamp extended to 35, got %d", root.Children[0].ExitStamp)
	}
	if root.Children[1].Namespace != "pkg2" {
		t.Errorf("expected second child to remain the distinct pkg2 run, got %q", root.Children[1].Namespace)
	}
}

func TestMergeManagedPkgRunsCollapsesAtRootLevel(t *testing.T) {
	p1 := &core.TreeNode{Type: registry.EnteringManagedPkg, Namespace: "pkg1", Timestamp: 0, ExitStamp: 10}
	p2 := &core.TreeNode{Type: registry.EnteringManagedPkg, Namespace: "pkg1", Timestamp: 10, ExitStamp: 25}

	roots, _ := Run([]*core.TreeNode{p1, p2}, registry.New())

	if len(roots) != 1 {
		t.Fatalf("expected the two root-level pkg1 runs merged into one, got %d roots", len(roots))
	}
	if roots[0].ExitStamp != 25 {
		t.Errorf("expected merged root run's ExitStamp extended to 25, got %d", roots[0].ExitStamp)
	}
}
