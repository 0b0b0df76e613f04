package linter_test

import (
	"testing"

	"github.com/apexlog-tools/apexlog/config"
	"github.com/apexlog-tools/apexlog/soql/linter"
	"github.com/apexlog-tools/apexlog/soql/parser"
)

func findSummary(findings []linter.Finding, summary string) bool {
	for _, f := range findings {
		if f.Summary == summary {
			return true
		}
	}
	return false
}

// S7 — SOQL linter.
func TestLintScenarios(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		summary string
		want    bool
	}{
		{"unbounded", "SELECT Id FROM T", config.RuleUnboundedQuery, true},
		{"leading wildcard", "SELECT Id FROM T WHERE Name LIKE '%x'", config.RuleLeadingWildcardLike, true},
		{"order by without limit", "SELECT Id FROM T ORDER BY F", config.RuleOrderByWithoutLimit, true},
		{"order by with limit is clean", "SELECT Id FROM T ORDER BY F LIMIT 10", config.RuleOrderByWithoutLimit, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := parser.Parse(tc.query)
			findings := linter.Lint(q, "")
			if got := findSummary(findings, tc.summary); got != tc.want {
				t.Errorf("query %q: expected finding %q present=%v, got %v (findings: %+v)", tc.query, tc.summary, tc.want, got, findings)
			}
		})
	}
}

func TestLintCleanBoundedQueryHasNoUnboundedFinding(t *testing.T) {
	q := parser.Parse("SELECT Id FROM T LIMIT 10")
	findings := linter.Lint(q, "")
	if findSummary(findings, config.RuleUnboundedQuery) {
		t.Error("did not expect Unbounded query finding for a LIMITed query")
	}
}

func TestLintEnabledRespectsConfig(t *testing.T) {
	// A nil config should behave like "no filtering".
	q := parser.Parse("SELECT Id FROM T")
	findings := linter.LintEnabled(q, "", nil)
	if !findSummary(findings, config.RuleUnboundedQuery) {
		t.Error("expected Unbounded query finding with nil config")
	}
}

func TestLintTriggerNonSelectivity(t *testing.T) {
	q := parser.Parse("SELECT Id FROM Account")
	findings := linter.Lint(q, "Trigger on Account (before insert) trigger event BeforeInsert")
	if !findSummary(findings, config.RuleTriggerNonSelectivity) {
		t.Errorf("expected Trigger non-selectivity finding, got %+v", findings)
	}
}
