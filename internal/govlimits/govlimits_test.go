package govlimits

import (
	"testing"

	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/namespace"
)

const sampleBlock = `
09:17:23.1 (123456)|LIMIT_USAGE_FOR_NS|(default)|
  Number of SOQL queries: 5 out of 100
  Number of DML rows: 10 out of 10000
09:17:23.1 (123456)|LIMIT_USAGE_FOR_NS|ns1|
  Number of SOQL queries: 2 out of 200
`

func TestScanNormalizesDefaultNamespaceHeader(t *testing.T) {
	limits := Scan(sampleBlock)
	if _, ok := limits.ByNamespace[namespace.Default]; !ok {
		t.Fatalf("expected (default) header normalized to %q, got namespaces %v", namespace.Default, keys(limits.ByNamespace))
	}
}

func TestScanParsesUsedAndLimitPerMetric(t *testing.T) {
	limits := Scan(sampleBlock)
	set := limits.ByNamespace[namespace.Default]
	if got := set.Usage[core.LimitSoqlQueries]; got.Used != 5 || got.Limit != 100 {
		t.Errorf("expected SOQL queries 5/100, got %+v", got)
	}
	if got := set.Usage[core.LimitDmlRows]; got.Used != 10 || got.Limit != 10000 {
		t.Errorf("expected DML rows 10/10000, got %+v", got)
	}
}

func TestScanAggregateSumsAcrossNamespacesIncludingLimit(t *testing.T) {
	limits := Scan(sampleBlock)
	// The aggregate's Limit field sums every namespace's limit too, an
	// observed source quirk preserved rather than corrected.
	got := limits.Aggregate.Usage[core.LimitSoqlQueries]
	if got.Used != 7 || got.Limit != 300 {
		t.Errorf("expected aggregate SOQL queries 7 used / 300 limit, got %+v", got)
	}
}

func TestMergeFoldsNamespacesAndRecomputesAggregate(t *testing.T) {
	dst := Scan(sampleBlock)
	other := Scan(`
09:17:24.0 (200000)|LIMIT_USAGE_FOR_NS|(default)|
  Number of SOQL queries: 1 out of 100
`)
	Merge(&dst, other)

	got := dst.ByNamespace[namespace.Default].Usage[core.LimitSoqlQueries]
	if got.Used != 6 {
		t.Errorf("expected merged default-namespace SOQL queries used=6 (5+1), got %d", got.Used)
	}
	aggGot := dst.Aggregate.Usage[core.LimitSoqlQueries].Used
	if aggGot != 8 {
		t.Errorf("expected recomputed aggregate used=8 (6 default + 2 ns1), got %d", aggGot)
	}
}

func keys(m map[string]core.GovernorLimitSet) []string {
	var ks []string
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}
