// Package govlimits parses CUMULATIVE_LIMIT_USAGE blocks (spec.md §4.5).
// The block's LIMIT_USAGE_FOR_NS sub-headers are ordinary pipe-delimited,
// timestamped lines, but the metric detail lines nested under them are
// indented plain text with no timestamp at all:
//
//	09:17:23.1 (123456)|LIMIT_USAGE_FOR_NS|(default)|
//	  Number of SOQL queries: 5 out of 100
//	  Number of DML rows: 10 out of 10000
//
// Those detail lines don't conform to the LineTokenizer's record shape, so
// the tokenizer diverts the whole block's raw text here instead of tokenizing
// it line by line.
package govlimits

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/namespace"
	"github.com/apexlog-tools/apexlog/selflog"
)

var nsHeaderPattern = regexp.MustCompile(`LIMIT_USAGE_FOR_NS\|([^|]*)\|?`)
var metricLinePattern = regexp.MustCompile(`^\s*(.+?):\s*(\d+)\s+out of\s+(\d+)\s*$`)

// labelMetrics maps a substring of a metric's printed label to the
// LimitMetric it reports. Labels the source log prints that aren't in this
// table (the log includes more counters than spec.md's GLOSSARY names) are
// silently skipped rather than erroring.
var labelMetrics = []struct {
	substr string
	metric core.LimitMetric
}{
	{"Number of SOQL queries", core.LimitSoqlQueries},
	{"Number of query rows", core.LimitQueryRows},
	{"Number of SOSL queries", core.LimitSoslQueries},
	{"Number of DML statements", core.LimitDmlStatements},
	{"Number of DML rows", core.LimitDmlRows},
	{"Number of Publish Immediate DML", core.LimitPublishImmediateDml},
	{"Maximum CPU time", core.LimitCpuTime},
	{"Maximum heap size", core.LimitHeapSize},
	{"Number of callouts", core.LimitCallouts},
	{"Number of Email Invocations", core.LimitEmailInvocations},
	{"Number of future calls", core.LimitFutureCalls},
	{"Number of queueable jobs added to the queue", core.LimitQueueableJobsAddedToQueue},
	{"Number of Mobile Apex push calls", core.LimitMobileApexPushCalls},
}

func matchMetric(label string) (core.LimitMetric, bool) {
	for _, lm := range labelMetrics {
		if strings.Contains(label, lm.substr) {
			return lm.metric, true
		}
	}
	return "", false
}

// Scan parses the raw text of one CUMULATIVE_LIMIT_USAGE...CUMULATIVE_LIMIT_USAGE_END
// block (boundary lines included or excluded, either is fine) into a
// per-namespace GovernorLimits. The returned Aggregate sums every namespace's
// set, reproducing the source's documented Used-and-Limit summing quirk
// (core.GovernorLimitSet.Add, see DESIGN.md).
func Scan(block string) core.GovernorLimits {
	limits := core.NewGovernorLimits()
	currentNS := ""

	for _, line := range strings.Split(block, "\n") {
		if m := nsHeaderPattern.FindStringSubmatch(line); m != nil {
			ns := strings.TrimSpace(m[1])
			ns = strings.Trim(ns, "()")
			if ns == "" || ns == "default" {
				ns = namespace.Default
			}
			currentNS = ns
			if _, ok := limits.ByNamespace[currentNS]; !ok {
				limits.ByNamespace[currentNS] = core.NewGovernorLimitSet()
			}
			continue
		}

		if currentNS == "" {
			continue
		}
		m := metricLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		metric, ok := matchMetric(m[1])
		if !ok {
			selflog.Printf("[govlimits] skipping unrecognized metric label in namespace %q: %q", currentNS, m[1])
			continue
		}
		used, _ := strconv.ParseInt(m[2], 10, 64)
		limit, _ := strconv.ParseInt(m[3], 10, 64)
		set := limits.ByNamespace[currentNS]
		set.Usage[metric] = core.LimitUsage{Used: used, Limit: limit}
		limits.ByNamespace[currentNS] = set
	}

	for _, set := range limits.ByNamespace {
		limits.Aggregate.Add(set)
	}
	return limits
}

// Merge folds other into dst in place, namespace by namespace, and
// recomputes dst's Aggregate. Used when a log contains more than one
// CUMULATIVE_LIMIT_USAGE block (one per code unit invocation is common).
func Merge(dst *core.GovernorLimits, other core.GovernorLimits) {
	for ns, set := range other.ByNamespace {
		existing, ok := dst.ByNamespace[ns]
		if !ok {
			dst.ByNamespace[ns] = set
			continue
		}
		existing.Add(set)
		dst.ByNamespace[ns] = existing
	}
	dst.Aggregate = core.NewGovernorLimitSet()
	for _, set := range dst.ByNamespace {
		dst.Aggregate.Add(set)
	}
}
