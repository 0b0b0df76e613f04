// Package linter runs the fixed declarative rule set of spec.md §4.9 over
// a parsed SOQL query, modeled on the teacher's tagged check-function
// dispatch (each rule is an independent function consulted in turn, the
// same shape as this corpus's analyzer-style lint passes).
package linter

import (
	"regexp"

	"github.com/apexlog-tools/apexlog/config"
	"github.com/apexlog-tools/apexlog/metrics"
	"github.com/apexlog-tools/apexlog/soql/parser"
)

// Severity classifies a Finding.
type Severity string

const (
	SeverityInfo    Severity = "Info"
	SeverityWarning Severity = "Warning"
)

// Finding is one rule violation.
type Finding struct {
	Summary  string
	Message  string
	Severity Severity
}

// Rule evaluates one query (and, for the trigger-selectivity rule, the
// text of its enclosing CODE_UNIT_STARTED node, if any) and returns zero
// or more findings.
type Rule func(q *parser.Query, parentText string) []Finding

var rules = []Rule{
	unboundedQuery,
	leadingWildcardLike,
	negativeOperator,
	orderByWithoutLimit,
	lastModifiedDateUpperBound,
	triggerNonSelectivity,
}

// Lint runs every rule against q. parentText is the text of the tree node
// that owns this query (used only by the trigger-selectivity rule); pass
// "" when the query isn't evaluated in that context.
func Lint(q *parser.Query, parentText string) []Finding {
	var findings []Finding
	for _, r := range rules {
		findings = append(findings, r(q, parentText)...)
	}
	for _, f := range findings {
		metrics.LintFindingsTotal.WithLabelValues(f.Summary, string(f.Severity)).Inc()
	}
	return findings
}

// LintEnabled runs Lint and drops any finding whose rule cfg disables.
func LintEnabled(q *parser.Query, parentText string, cfg *config.Config) []Finding {
	findings := Lint(q, parentText)
	if cfg == nil {
		return findings
	}
	kept := findings[:0]
	for _, f := range findings {
		if cfg.RuleEnabled(f.Summary) {
			kept = append(kept, f)
		}
	}
	return kept
}

func isSelective(q *parser.Query) bool {
	return q.HasWhere || q.LimitValue().Present
}

func unboundedQuery(q *parser.Query, _ string) []Finding {
	if q.HasWhere || q.LimitValue().Present {
		return nil
	}
	return []Finding{{
		Summary:  "Unbounded query",
		Message:  "query has neither a WHERE clause nor a LIMIT",
		Severity: SeverityWarning,
	}}
}

var leadingWildcardPattern = regexp.MustCompile(`(?i)LIKE\s+'%`)

func leadingWildcardLike(q *parser.Query, _ string) []Finding {
	if !leadingWildcardPattern.MatchString(q.Raw) {
		return nil
	}
	return []Finding{{
		Summary:  "Leading wildcard LIKE",
		Message:  "a leading '%' in a LIKE filter forces a full scan",
		Severity: SeverityWarning,
	}}
}

var negativeOperatorPattern = regexp.MustCompile(`(?i)!=|<>|\bNOT\s+IN\b|\bNOT\b|\bEXCLUDES\b`)

func negativeOperator(q *parser.Query, _ string) []Finding {
	if !negativeOperatorPattern.MatchString(q.WhereBody()) {
		return nil
	}
	return []Finding{{
		Summary:  "Negative operator",
		Message:  "negative filters (!=, <>, NOT, NOT IN, EXCLUDES) rarely use an index",
		Severity: SeverityWarning,
	}}
}

func orderByWithoutLimit(q *parser.Query, _ string) []Finding {
	if !q.IsOrdered() || q.LimitValue().Present {
		return nil
	}
	return []Finding{{
		Summary:  "ORDER BY without LIMIT",
		Message:  "sorting the full result set without a LIMIT wastes work past what the caller can use",
		Severity: SeverityInfo,
	}}
}

var lastModifiedUpperBoundPattern = regexp.MustCompile(`(?i)LastModifiedDate\s*(<=|<)`)

func lastModifiedDateUpperBound(q *parser.Query, _ string) []Finding {
	if !lastModifiedUpperBoundPattern.MatchString(q.WhereBody()) {
		return nil
	}
	return []Finding{{
		Summary:  "LastModifiedDate upper bound",
		Message:  "an upper bound on LastModifiedDate usually signals a batch window that should use a checkpoint instead",
		Severity: SeverityInfo,
	}}
}

var triggerContextPattern = regexp.MustCompile(`(?i)\btrigger\s+on\b.*\btrigger\s+event\b`)

func triggerNonSelectivity(q *parser.Query, parentText string) []Finding {
	if !triggerContextPattern.MatchString(parentText) || isSelective(q) {
		return nil
	}
	return []Finding{{
		Summary:  "Trigger non-selectivity",
		Message:  "a query inside a trigger with no WHERE or LIMIT runs once per bulk-load batch, not once per record",
		Severity: SeverityWarning,
	}}
}
