// Package metrics declares the Prometheus collectors that track parsing
// activity, modeled on the promauto package-level collector pattern the
// example pack's controllers use (ardikabs-hibernator's internal/metrics).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ParseDuration tracks how long Parse spends on one log, by outcome.
	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apexlog_parse_duration_seconds",
			Help:    "Duration of a single log parse",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"outcome"},
	)

	// ParseTotal counts parses by outcome (ok, parse_errors).
	ParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexlog_parse_total",
			Help: "Total number of logs parsed",
		},
		[]string{"outcome"},
	)

	// LineErrorsTotal counts tokenizer-level parsing errors.
	LineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexlog_line_errors_total",
			Help: "Total number of line-level parsing errors across all parses",
		},
		[]string{"reason"},
	)

	// LogIssuesTotal counts structured LogIssues by summary and severity.
	LogIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexlog_log_issues_total",
			Help: "Total number of structured log issues emitted",
		},
		[]string{"summary", "severity"},
	)

	// LintFindingsTotal counts SOQL linter findings by rule.
	LintFindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexlog_lint_findings_total",
			Help: "Total number of SOQL linter findings, by rule",
		},
		[]string{"rule", "severity"},
	)

	// TreeNodeCount tracks the size of the tree a parse produced.
	TreeNodeCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apexlog_tree_node_count",
			Help:    "Number of TreeNodes produced per parse",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		},
	)
)
