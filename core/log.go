package core

import "time"

// Severity classifies a LogIssue.
type Severity string

const (
	SeverityError   Severity = "Error"
	SeverityWarning Severity = "Warning"
)

// DebugLevel is one CATEGORY,LEVEL pair extracted from the log's first
// line (e.g. "APEX_CODE,FINE").
type DebugLevel struct {
	Category string
	Level    string
}

// LogIssue is a structured, non-fatal finding attached to the log as a
// whole (truncation, unexpected scope ends, exceptions, fatal errors).
type LogIssue struct {
	Summary     string
	Description string
	Severity    Severity
}

// ApexLog is the root container returned by Parse. Children are owned;
// Parent back-references inside the tree must never outlive it.
type ApexLog struct {
	Children []*TreeNode

	DebugLevels    []DebugLevel
	LogIssues      []LogIssue
	ParsingErrors  []string
	GovernorLimits GovernorLimits
	Namespaces     []string

	CpuTime          int64 // nanoseconds: the (default) namespace's Maximum CPU time used value (milliseconds) times 1,000,000
	ExecutionEndTime int64 // nanoseconds; 0 if no legitimate matching exit was seen
	ExitStamp        int64 // nanoseconds; timestamp of the last positive-duration pair, or the last line

	// RunID correlates this parse run across selflog diagnostics, metrics
	// labels, and CLI output. It plays no part in any tree invariant.
	RunID string
	// ParseDuration is the wall-clock time Parse spent building this tree.
	ParseDuration time.Duration
}

// AddIssue appends a structured issue to the log.
func (l *ApexLog) AddIssue(summary, description string, severity Severity) {
	l.LogIssues = append(l.LogIssues, LogIssue{Summary: summary, Description: description, Severity: severity})
}

// AddParsingError appends a parse-level error string.
func (l *ApexLog) AddParsingError(msg string) {
	l.ParsingErrors = append(l.ParsingErrors, msg)
}
