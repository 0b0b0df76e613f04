// Package issues names the structured LogIssue summaries the tree builder
// emits (spec.md §4.6) and classifies their severity.
package issues

import "github.com/apexlog-tools/apexlog/core"

const (
	SummarySkippedLines    = "Skipped-Lines"
	SummaryMaxSizeReached  = "Max-Size-reached"
	SummaryUnexpectedEnd   = "Unexpected-End"
)

// Severity returns the severity a given summary is always reported at.
// Exception/fatal-error text is reported directly by the caller at Error
// severity; everything the tree builder itself detects (truncation,
// unexpected scope ends) is a Warning.
func Severity(summary string) core.Severity {
	switch summary {
	case SummarySkippedLines, SummaryMaxSizeReached, SummaryUnexpectedEnd:
		return core.SeverityWarning
	default:
		return core.SeverityWarning
	}
}
