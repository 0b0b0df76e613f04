package core

// LimitMetric identifies one governor-limit metric tracked inside a
// LIMIT_USAGE_FOR_NS block.
type LimitMetric string

const (
	LimitSoqlQueries              LimitMetric = "soqlQueries"
	LimitQueryRows                LimitMetric = "queryRows"
	LimitSoslQueries              LimitMetric = "soslQueries"
	LimitDmlStatements            LimitMetric = "dmlStatements"
	LimitPublishImmediateDml      LimitMetric = "publishImmediateDml"
	LimitDmlRows                  LimitMetric = "dmlRows"
	LimitCpuTime                  LimitMetric = "cpuTime"
	LimitHeapSize                 LimitMetric = "heapSize"
	LimitCallouts                 LimitMetric = "callouts"
	LimitEmailInvocations         LimitMetric = "emailInvocations"
	LimitFutureCalls              LimitMetric = "futureCalls"
	LimitQueueableJobsAddedToQueue LimitMetric = "queueableJobsAddedToQueue"
	LimitMobileApexPushCalls      LimitMetric = "mobileApexPushCalls"
)

// AllLimitMetrics lists every recognized metric, in the order the source
// debug log prints them.
var AllLimitMetrics = []LimitMetric{
	LimitSoqlQueries, LimitQueryRows, LimitSoslQueries, LimitDmlStatements,
	LimitPublishImmediateDml, LimitDmlRows, LimitCpuTime, LimitHeapSize,
	LimitCallouts, LimitEmailInvocations, LimitFutureCalls,
	LimitQueueableJobsAddedToQueue, LimitMobileApexPushCalls,
}

// LimitUsage is a single {used, limit} pair for one metric.
type LimitUsage struct {
	Used  int64
	Limit int64
}

// GovernorLimitSet holds every recognized metric's usage for one namespace
// (or the cross-log aggregate). Metrics never observed in the log default
// to the zero value {0, 0}.
type GovernorLimitSet struct {
	Usage map[LimitMetric]LimitUsage
}

// NewGovernorLimitSet returns a set with every recognized metric present
// at its zero value.
func NewGovernorLimitSet() GovernorLimitSet {
	s := GovernorLimitSet{Usage: make(map[LimitMetric]LimitUsage, len(AllLimitMetrics))}
	for _, m := range AllLimitMetrics {
		s.Usage[m] = LimitUsage{}
	}
	return s
}

// Add sums another set's usage into this one metric-by-metric. This
// matches the source's observed (and almost certainly unintended, see
// DESIGN.md) behavior of summing limits as well as used values when
// building the cross-namespace aggregate.
func (s *GovernorLimitSet) Add(other GovernorLimitSet) {
	for _, m := range AllLimitMetrics {
		a := s.Usage[m]
		b := other.Usage[m]
		s.Usage[m] = LimitUsage{Used: a.Used + b.Used, Limit: a.Limit + b.Limit}
	}
}

// GovernorLimits is the fully parsed set of LIMIT_USAGE_FOR_NS blocks for
// one log: per-namespace usage plus the summed aggregate.
type GovernorLimits struct {
	ByNamespace map[string]GovernorLimitSet
	Aggregate   GovernorLimitSet
}

// NewGovernorLimits returns an empty GovernorLimits with an
// already-zeroed aggregate.
func NewGovernorLimits() GovernorLimits {
	return GovernorLimits{
		ByNamespace: make(map[string]GovernorLimitSet),
		Aggregate:   NewGovernorLimitSet(),
	}
}
