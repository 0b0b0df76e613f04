package core

// EventTag identifies a recognized Apex debug log event name, e.g.
// "CODE_UNIT_STARTED" or "SOQL_EXECUTE_BEGIN".
type EventTag string

// LineRecord is the typed result of tokenizing one physical (or, for
// FLOW_VALUE_ASSIGNMENT, logical multi-line) log line.
type LineRecord struct {
	Timestamp int64 // nanoseconds
	LineNumber string // decimal string, or the literal "EXTERNAL"
	LogLine    string // original text slice
	Type       EventTag
	Text       string
	Namespace  string // defaults to namespace.Default

	// Variant-specific fields. Only the ones relevant to Type are set.
	CodeUnitType string

	Aggregations      int
	RowCount          int
	Cardinality       int
	SObjectCardinality int
	Fields            []string
	RelativeCost      float64
	LeadingOperationType string
	SObjectType       string

	DmlOp   string
	DmlType string
	DmlRows int

	Params string
	Suffix string

	// Discontinuity marks lines (EXCEPTION_THROWN, FATAL_ERROR) that permit
	// stack unwinding without emitting an Unexpected-End issue.
	Discontinuity bool
}
