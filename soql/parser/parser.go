// Package parser implements the SOQL grammar of spec.md §4.9: enough of an
// ANTLR-style parse to answer fromObject, isSimpleSelect, isTrivialQuery,
// limitValue, and isOrdered questions about a query, without building a
// full expression AST the linter doesn't need.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Limit is the parsed LIMIT clause: either an integer, a bind expression
// (e.g. ":pageSize"), or absent.
type Limit struct {
	Present bool
	Int     int
	Bind    string
}

// Query is the parsed shape of one SOQL statement.
type Query struct {
	Raw string

	SelectItems []string
	From        string

	HasWhere    bool
	HasGroupBy  bool
	HasHaving   bool
	HasTypeof   bool
	HasSubquery bool
	HasOrderBy  bool

	whereBody string
	limit     Limit
}

var keywordPattern = regexp.MustCompile(`(?i)\b(SELECT|FROM|WHERE|GROUP\s+BY|HAVING|ORDER\s+BY|LIMIT|TYPEOF)\b`)

type token struct {
	keyword    string
	start, end int
	depth      int
}

// Parse parses raw SOQL text into a Query. It tolerates queries it can't
// fully make sense of; fields simply stay at their zero value.
func Parse(raw string) *Query {
	q := &Query{Raw: raw}

	toks := topLevelKeywordTokens(raw)
	if len(toks) == 0 {
		return q
	}

	body := func(i int) string {
		end := len(raw)
		if i+1 < len(toks) {
			end = toks[i+1].start
		}
		return strings.TrimSpace(raw[toks[i].end:end])
	}

	for i, t := range toks {
		if t.depth != 0 {
			if t.keyword == "SELECT" {
				q.HasSubquery = true
			}
			continue
		}
		b := body(i)
		switch t.keyword {
		case "SELECT":
			q.SelectItems = splitTopLevel(b)
		case "FROM":
			if fields := strings.Fields(b); len(fields) > 0 {
				q.From = strings.TrimRight(fields[0], ",")
			}
		case "WHERE":
			q.HasWhere = true
			q.whereBody = b
		case "GROUP BY":
			q.HasGroupBy = true
		case "HAVING":
			q.HasHaving = true
		case "ORDER BY":
			q.HasOrderBy = true
		case "TYPEOF":
			q.HasTypeof = true
		case "LIMIT":
			q.limit = parseLimit(b)
		}
	}

	return q
}

func parseLimit(body string) Limit {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return Limit{}
	}
	raw := fields[0]
	if n, err := strconv.Atoi(raw); err == nil {
		return Limit{Present: true, Int: n}
	}
	return Limit{Present: true, Bind: raw}
}

func depthArray(s string) []int {
	depth := make([]int, len(s)+1)
	d := 0
	for i := 0; i < len(s); i++ {
		depth[i] = d
		switch s[i] {
		case '(':
			d++
		case ')':
			d--
		}
	}
	depth[len(s)] = d
	return depth
}

func topLevelKeywordTokens(s string) []token {
	depth := depthArray(s)
	matches := keywordPattern.FindAllStringIndex(s, -1)
	toks := make([]token, 0, len(matches))
	for _, m := range matches {
		kw := strings.ToUpper(strings.Join(strings.Fields(s[m[0]:m[1]]), " "))
		toks = append(toks, token{keyword: kw, start: m[0], end: m[1], depth: depth[m[0]]})
	}
	return toks
}

// splitTopLevel splits a comma-separated list, ignoring commas nested
// inside parentheses (subquery selects, function call arguments).
func splitTopLevel(s string) []string {
	depth := 0
	var items []string
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				items = append(items, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[last:]); tail != "" {
		items = append(items, tail)
	}
	return items
}

// FromObject is the object named in the top-level FROM clause.
func (q *Query) FromObject() string { return q.From }

// IsSimpleSelect reports whether every selected item is a bare field
// reference: no function calls, no inline subqueries, no aggregates.
func (q *Query) IsSimpleSelect() bool {
	for _, item := range q.SelectItems {
		if strings.ContainsAny(item, "(") {
			return false
		}
	}
	return true
}

// IsTrivialQuery reports whether the query has none of GROUP BY, HAVING,
// TYPEOF, or a nested subquery.
func (q *Query) IsTrivialQuery() bool {
	return !q.HasGroupBy && !q.HasHaving && !q.HasTypeof && !q.HasSubquery
}

// LimitValue returns the parsed LIMIT clause.
func (q *Query) LimitValue() Limit { return q.limit }

// IsOrdered reports whether the query has an ORDER BY clause.
func (q *Query) IsOrdered() bool { return q.HasOrderBy }

// WhereBody returns the raw WHERE clause text, or "" if absent.
func (q *Query) WhereBody() string { return q.whereBody }
