// Package treebuilder implements the tree-construction state machine of
// spec.md §4.3: it walks a tokenized LineRecord stream and produces the
// ownership tree of TreeNodes, matching entry lines against the exit tags
// their registry entry declares, inferring the close of pseudo-scopes, and
// recovering from exception-driven stack unwinding without over-reporting.
package treebuilder

import (
	"strings"

	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/internal/issues"
	"github.com/apexlog-tools/apexlog/internal/registry"
	"github.com/apexlog-tools/apexlog/internal/tokenizer"
	"github.com/apexlog-tools/apexlog/selflog"
)

// Result is everything the builder derives beyond the tree itself.
type Result struct {
	Roots            []*core.TreeNode
	ExecutionEndTime int64
	ExitStamp        int64
}

type builder struct {
	reg *registry.Registry
	log *core.ApexLog

	stack     []*core.TreeNode
	roots     []*core.TreeNode
	openPseudo *core.TreeNode

	// discontinuity suppresses Unexpected-End issues for scopes force-closed
	// while an exception or fatal error is still explaining why the stack
	// isn't unwinding cleanly. It clears the moment a clean, top-of-stack
	// match resyncs the builder.
	discontinuity bool
	// truncated suppresses Unexpected-End issues for whatever is still open
	// when the log text itself was cut short (spec.md §4.3, §6): the
	// truncation marker already explains the dangling scopes.
	truncated bool

	lastTimestamp    int64
	lastPositiveExit int64
	maxLegitExit     int64
}

// Build walks records in order and returns the resulting forest. Any
// structural issues it finds (truncation markers, unmatched exit lines,
// unexpectedly-ended scopes, exceptions and fatal errors) are appended to
// log directly.
func Build(records []*core.LineRecord, reg *registry.Registry, log *core.ApexLog) Result {
	b := &builder{reg: reg, log: log}
	for _, record := range records {
		b.process(record)
	}
	b.finish()

	exitStamp := b.lastPositiveExit
	if exitStamp == 0 {
		exitStamp = b.lastTimestamp
	}

	return Result{
		Roots:            b.roots,
		ExecutionEndTime: b.maxLegitExit,
		ExitStamp:        exitStamp,
	}
}

func (b *builder) process(record *core.LineRecord) {
	// A pseudo scope (WF_APPROVAL_SUBMIT, WF_PROCESS_FOUND, WF_NEXT_APPROVER,
	// ENTERING_MANAGED_PKG) has no true exit line; spec.md §4.3 treats it as
	// closed by whatever line follows it, entry, exit, another pseudo, or
	// end-of-input alike. Closing it here, before dispatching the new
	// record, keeps that uniform regardless of what the new record is.
	b.closeOpenPseudo(record.Timestamp)
	b.lastTimestamp = record.Timestamp

	switch record.Type {
	case tokenizer.SentinelSkippedLines:
		b.truncated = true
		b.log.AddIssue(issues.SummarySkippedLines, record.Text, issues.Severity(issues.SummarySkippedLines))
		return
	case tokenizer.SentinelMaxSizeReached:
		b.truncated = true
		b.log.AddIssue(issues.SummaryMaxSizeReached, record.Text, issues.Severity(issues.SummaryMaxSizeReached))
		return
	}

	entry := b.reg.Lookup(record.Type)
	if entry == nil {
		selflog.Printf("[treebuilder] dropping record with no registry entry: %q", record.Type)
		return
	}

	switch entry.Kind {
	case registry.KindLeaf:
		node := newLeafNode(record)
		b.appendChild(node)
		if record.Discontinuity {
			b.discontinuity = true
			b.log.AddIssue(firstLine(record.Text), record.Text, core.SeverityError)
		}
	case registry.KindEntry:
		node := newEntryNode(record, entry)
		b.appendChild(node)
		if entry.Pseudo {
			b.openPseudo = node
		} else {
			b.stack = append(b.stack, node)
		}
	case registry.KindExit:
		b.handleExit(record)
	}
}

// handleExit matches an exit line against the stack. A clean match is the
// common case; when the top frame doesn't expect this exit tag, the
// builder searches upward for the frame that does and force-closes
// everything above it, exactly as an Apex exception unwinds several
// call-stack levels at once (spec.md §4.3, §9).
func (b *builder) handleExit(record *core.LineRecord) {
	if len(b.stack) == 0 {
		b.log.AddParsingError("Unmatched exit line: " + record.LogLine)
		return
	}

	top := b.stack[len(b.stack)-1]
	if top.ExitTypes[record.Type] {
		b.closeNode(top, record)
		b.stack = b.stack[:len(b.stack)-1]
		return
	}

	idx := -1
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].ExitTypes[record.Type] {
			idx = i
			break
		}
	}
	if idx == -1 {
		b.log.AddParsingError("Unmatched exit line: " + record.LogLine)
		return
	}

	for i := len(b.stack) - 1; i > idx; i-- {
		b.forceClose(b.stack[i], record.Timestamp)
	}
	b.closeNode(b.stack[idx], record)
	b.stack = b.stack[:idx]
}

func (b *builder) closeNode(node *core.TreeNode, record *core.LineRecord) {
	node.IsExit = true
	node.ExitStamp = record.Timestamp
	mergeExitDetail(node, record)
	if node.OnEnd != nil {
		node.OnEnd(node, record)
	}
	if record.Timestamp > node.Timestamp && record.Timestamp > b.lastPositiveExit {
		b.lastPositiveExit = record.Timestamp
	}
	if record.Timestamp > b.maxLegitExit {
		b.maxLegitExit = record.Timestamp
	}
	b.discontinuity = false
}

func (b *builder) forceClose(node *core.TreeNode, ts int64) {
	node.IsExit = true
	node.UnexpectedEnd = true
	node.ExitStamp = ts
	if !b.discontinuity && !b.truncated {
		b.log.AddIssue(issues.SummaryUnexpectedEnd,
			"scope never saw its own matching exit line: "+string(node.Type),
			issues.Severity(issues.SummaryUnexpectedEnd))
	}
}

func (b *builder) closeOpenPseudo(ts int64) {
	if b.openPseudo == nil {
		return
	}
	b.openPseudo.IsExit = true
	b.openPseudo.ExitStamp = ts
	b.openPseudo = nil
}

// finish closes any trailing pseudo scope and force-closes whatever the
// stack still holds once the log has run out of lines.
func (b *builder) finish() {
	b.closeOpenPseudo(b.lastTimestamp)
	for i := len(b.stack) - 1; i >= 0; i-- {
		b.forceClose(b.stack[i], b.lastTimestamp)
	}
	b.stack = nil
}

func (b *builder) appendChild(node *core.TreeNode) {
	if len(b.stack) == 0 {
		b.roots = append(b.roots, node)
		return
	}
	b.stack[len(b.stack)-1].AddChild(node)
}

func newNodeFromEntry(record *core.LineRecord) *core.TreeNode {
	return &core.TreeNode{
		Type:      record.Type,
		Text:      record.Text,
		Namespace: record.Namespace,
		Timestamp: record.Timestamp,
		Detail: core.NodeDetail{
			Aggregations:         record.Aggregations,
			LeadingOperationType: record.LeadingOperationType,
			SObjectType:          record.SObjectType,
			DmlOp:                record.DmlOp,
			DmlType:              record.DmlType,
			Params:               record.Params,
		},
	}
}

func newEntryNode(record *core.LineRecord, entry *registry.Entry) *core.TreeNode {
	node := newNodeFromEntry(record)
	node.ExitTypes = entry.ExitTypes
	node.Pseudo = entry.Pseudo
	node.OnEnd = entry.OnEnd
	return node
}

func newLeafNode(record *core.LineRecord) *core.TreeNode {
	return &core.TreeNode{
		Type:      record.Type,
		Text:      record.Text,
		Namespace: record.Namespace,
		Timestamp: record.Timestamp,
		ExitStamp: record.Timestamp,
		IsExit:    true,
		Detail: core.NodeDetail{
			Aggregations:         record.Aggregations,
			RowCount:             record.RowCount,
			Cardinality:          record.Cardinality,
			SObjectCardinality:   record.SObjectCardinality,
			Fields:               record.Fields,
			RelativeCost:         record.RelativeCost,
			LeadingOperationType: record.LeadingOperationType,
			SObjectType:          record.SObjectType,
			DmlOp:                record.DmlOp,
			DmlType:              record.DmlType,
			Params:               record.Params,
		},
	}
}

// mergeExitDetail folds the fields an exit line carries (row counts) onto
// the node its entry line started.
func mergeExitDetail(node *core.TreeNode, exit *core.LineRecord) {
	switch node.Type {
	case registry.SoqlExecuteBegin, registry.SoslExecuteBegin:
		node.Detail.RowCount = exit.RowCount
	case registry.DmlBegin:
		node.Detail.RowCount = exit.DmlRows
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return s[:i]
	}
	return s
}
