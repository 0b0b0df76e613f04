// Package apexlog is the library's entry point: Parse turns raw Apex debug
// log text into a fully built, post-processed ApexLog tree, wiring the
// tokenizer, tree builder, and post-processor together the way the
// teacher's top-level package wires its pipeline stages into one call.
package apexlog

import (
	"time"

	"github.com/google/uuid"

	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/internal/postprocess"
	"github.com/apexlog-tools/apexlog/internal/registry"
	"github.com/apexlog-tools/apexlog/internal/tokenizer"
	"github.com/apexlog-tools/apexlog/internal/treebuilder"
	"github.com/apexlog-tools/apexlog/metrics"
	"github.com/apexlog-tools/apexlog/namespace"
)

// Parser owns a line registry and tokenizer; it holds no state from one
// Parse call to the next; spec.md §5's "no process-wide mutable state"
// note, so a single instance is safe to reuse or share across goroutines.
type Parser struct {
	reg *registry.Registry
	tok *tokenizer.Tokenizer
}

// New builds a Parser around the standard line registry.
func New() *Parser {
	reg := registry.New()
	return &Parser{reg: reg, tok: tokenizer.New(reg)}
}

// Parse runs the full pipeline over text: tokenize, build the tree,
// post-process it, and fold the log's own governor-limit usage into
// ApexLog.CpuTime.
func (p *Parser) Parse(text string) *core.ApexLog {
	start := time.Now()
	log := &core.ApexLog{RunID: uuid.NewString()}

	res := p.tok.Tokenize(text)
	log.DebugLevels = res.DebugLevels
	log.GovernorLimits = res.GovernorLimits
	for _, e := range res.ParsingErrors {
		log.AddParsingError(e)
	}

	tb := treebuilder.Build(res.Records, p.reg, log)
	log.Children = tb.Roots
	log.ExecutionEndTime = tb.ExecutionEndTime
	log.ExitStamp = tb.ExitStamp

	log.Children, log.Namespaces = postprocess.Run(log.Children, p.reg)

	if def, ok := log.GovernorLimits.ByNamespace[namespace.Default]; ok {
		log.CpuTime = def.Usage[core.LimitCpuTime].Used * 1_000_000
	}

	log.ParseDuration = time.Since(start)
	p.record(log)

	return log
}

func (p *Parser) record(log *core.ApexLog) {
	outcome := "ok"
	if len(log.ParsingErrors) > 0 {
		outcome = "parse_errors"
	}
	metrics.ParseDuration.WithLabelValues(outcome).Observe(log.ParseDuration.Seconds())
	metrics.ParseTotal.WithLabelValues(outcome).Inc()

	for range log.ParsingErrors {
		metrics.LineErrorsTotal.WithLabelValues("invalid_line").Inc()
	}
	for _, issue := range log.LogIssues {
		metrics.LogIssuesTotal.WithLabelValues(issue.Summary, string(issue.Severity)).Inc()
	}
	metrics.TreeNodeCount.Observe(float64(countNodes(log.Children)))
}

func countNodes(nodes []*core.TreeNode) int {
	n := len(nodes)
	for _, c := range nodes {
		n += countNodes(c.Children)
	}
	return n
}
