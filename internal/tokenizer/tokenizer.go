// Package tokenizer implements the LineTokenizer of spec.md §4.1: it splits
// raw log text into LineRecords, consuming the first-line debug-level
// settings and accumulating FLOW_VALUE_ASSIGNMENT's embedded newlines via
// lookahead rather than stack unwinding (spec.md §9).
package tokenizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/internal/govlimits"
	"github.com/apexlog-tools/apexlog/internal/registry"
	"github.com/apexlog-tools/apexlog/selflog"
)

var timestampPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d+ \((\d+)\)$`)

var skippedLinesPattern = regexp.MustCompile(`^\*+\s*Skipped (\d+) bytes of detailed log`)
var maxSizeReachedPattern = regexp.MustCompile(`^\*+\s*MAXIMUM DEBUG LOG SIZE REACHED\s*\*+$`)

// SentinelSkippedLines and SentinelMaxSizeReached are synthetic event tags
// the tokenizer emits for the two truncation marker lines (spec.md §4.3,
// §6); they carry no true timestamp, so they inherit the previous record's.
const (
	SentinelSkippedLines   core.EventTag = "__SKIPPED_LINES__"
	SentinelMaxSizeReached core.EventTag = "__MAX_SIZE_REACHED__"
)

// debugLevelsPattern matches the first-line debug settings, e.g.
// "64.0 APEX_CODE,FINE;APEX_PROFILING,INFO".
var debugLevelsPattern = regexp.MustCompile(`^\S+\s+\w+,\w+(;\w+,\w+)*$`)

// Result holds everything the tokenizer produced from one log's text.
type Result struct {
	Records        []*core.LineRecord
	DebugLevels    []core.DebugLevel
	ParsingErrors  []string
	GovernorLimits core.GovernorLimits
}

// Tokenizer owns no state across calls; each Tokenize call is independent,
// per spec.md §9's "no process-wide mutable state" note.
type Tokenizer struct {
	reg *registry.Registry
}

// New returns a Tokenizer backed by the standard line registry.
func New(reg *registry.Registry) *Tokenizer {
	return &Tokenizer{reg: reg}
}

// Tokenize splits text into LineRecords.
func (t *Tokenizer) Tokenize(text string) Result {
	res := Result{GovernorLimits: core.NewGovernorLimits()}

	lines := splitLines(text)
	i := 0

	var govBlockLines []string
	govBlockActive := false

	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i < len(lines) {
		if levels, ok := parseDebugLevels(lines[i]); ok {
			res.DebugLevels = levels
			i++
		}
	}

	for ; i < len(lines); i++ {
		raw := lines[i]
		if strings.TrimSpace(raw) == "" {
			continue
		}

		if govBlockActive {
			if !strings.Contains(raw, string(registry.CumulativeLimitUsageEnd)) {
				govBlockLines = append(govBlockLines, raw)
				continue
			}
			govlimits.Merge(&res.GovernorLimits, govlimits.Scan(strings.Join(govBlockLines, "\n")))
			govBlockLines = nil
			govBlockActive = false
			// fall through: the END line itself still tokenizes normally below.
		}

		trimmed := strings.TrimSpace(raw)
		if skippedLinesPattern.MatchString(trimmed) {
			res.Records = append(res.Records, sentinelRecord(SentinelSkippedLines, raw, res.Records))
			continue
		}
		if maxSizeReachedPattern.MatchString(trimmed) {
			res.Records = append(res.Records, sentinelRecord(SentinelMaxSizeReached, raw, res.Records))
			continue
		}

		parts := strings.Split(raw, "|")
		nanos, ok := parseTimestamp(parts[0])
		if !ok {
			if n := len(res.Records); n > 0 && registry.IsFlowValueAssignment(res.Records[n-1].Type) {
				res.Records[n-1].Text += "\n" + raw
				continue
			}
			selflog.Printf("[tokenizer] dropping line with no timestamp: %q", raw)
			res.ParsingErrors = append(res.ParsingErrors, "Invalid log line: "+raw)
			continue
		}

		if len(parts) < 2 {
			selflog.Printf("[tokenizer] dropping line with no event name: %q", raw)
			res.ParsingErrors = append(res.ParsingErrors, "Invalid log line: "+raw)
			continue
		}

		eventName := core.EventTag(strings.TrimSpace(parts[1]))
		entry := t.reg.Lookup(eventName)
		if entry == nil {
			selflog.Printf("[tokenizer] dropping unsupported event name: %q", eventName)
			res.ParsingErrors = append(res.ParsingErrors, "Unsupported log event name: "+string(eventName))
			continue
		}

		fields := parts[2:]
		lineNumber, fields := extractLineNumber(fields)

		rec := entry.Build(registry.BuildContext{
			Timestamp:  nanos,
			LineNumber: lineNumber,
			LogLine:    raw,
			Fields:     fields,
		})
		res.Records = append(res.Records, rec)

		if entry.Tag == registry.CumulativeLimitUsage {
			govBlockActive = true
		}
	}

	return res
}

// sentinelRecord builds a truncation-marker LineRecord. These markers carry
// no timestamp of their own, so they inherit the prior record's to keep the
// tree builder's ordering invariants intact; on an empty log they default to
// zero, which the tree builder treats as "occurs before anything else".
func sentinelRecord(tag core.EventTag, raw string, prior []*core.LineRecord) *core.LineRecord {
	var ts int64
	if n := len(prior); n > 0 {
		ts = prior[n-1].Timestamp
	}
	return &core.LineRecord{
		Type:      tag,
		Text:      strings.TrimSpace(raw),
		LogLine:   raw,
		Timestamp: ts,
	}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func parseTimestamp(field string) (int64, bool) {
	m := timestampPattern.FindStringSubmatch(strings.TrimSpace(field))
	if m == nil {
		return 0, false
	}
	nanos, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return nanos, true
}

func parseDebugLevels(line string) ([]core.DebugLevel, bool) {
	line = strings.TrimSpace(line)
	if !debugLevelsPattern.MatchString(line) {
		return nil, false
	}
	sp := strings.IndexByte(line, ' ')
	if sp == -1 {
		return nil, false
	}
	rest := line[sp+1:]

	var levels []core.DebugLevel
	for _, pair := range strings.Split(rest, ";") {
		kv := strings.SplitN(pair, ",", 2)
		if len(kv) != 2 {
			return nil, false
		}
		levels = append(levels, core.DebugLevel{Category: kv[0], Level: kv[1]})
	}
	return levels, true
}

// extractLineNumber pulls a "[...]"-wrapped generic line-number token off
// the front of fields, if present.
func extractLineNumber(fields []string) (string, []string) {
	if len(fields) == 0 {
		return "", fields
	}
	f := strings.TrimSpace(fields[0])
	if strings.HasPrefix(f, "[") && strings.HasSuffix(f, "]") {
		return registry.StripBrackets(f), fields[1:]
	}
	return "", fields
}
