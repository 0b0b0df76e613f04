package registry

import (
	"strconv"
	"strings"

	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/namespace"
)

// Event tags recognized by this registry. Unlisted names surface as
// "Unsupported log event name" parsing errors (spec.md §4.1).
const (
	ExecutionStarted  core.EventTag = "EXECUTION_STARTED"
	ExecutionFinished core.EventTag = "EXECUTION_FINISHED"

	CodeUnitStarted  core.EventTag = "CODE_UNIT_STARTED"
	CodeUnitFinished core.EventTag = "CODE_UNIT_FINISHED"

	MethodEntry core.EventTag = "METHOD_ENTRY"
	MethodExit  core.EventTag = "METHOD_EXIT"

	ConstructorEntry core.EventTag = "CONSTRUCTOR_ENTRY"
	ConstructorExit  core.EventTag = "CONSTRUCTOR_EXIT"

	SoqlExecuteBegin   core.EventTag = "SOQL_EXECUTE_BEGIN"
	SoqlExecuteEnd     core.EventTag = "SOQL_EXECUTE_END"
	SoqlExecuteExplain core.EventTag = "SOQL_EXECUTE_EXPLAIN"

	SoslExecuteBegin core.EventTag = "SOSL_EXECUTE_BEGIN"
	SoslExecuteEnd   core.EventTag = "SOSL_EXECUTE_END"

	DmlBegin core.EventTag = "DML_BEGIN"
	DmlEnd   core.EventTag = "DML_END"

	ExceptionThrown core.EventTag = "EXCEPTION_THROWN"
	FatalError      core.EventTag = "FATAL_ERROR"

	VariableAssignment core.EventTag = "VARIABLE_ASSIGNMENT"
	UserDebug          core.EventTag = "USER_DEBUG"

	WfApprovalSubmit core.EventTag = "WF_APPROVAL_SUBMIT"
	WfProcessFound   core.EventTag = "WF_PROCESS_FOUND"
	WfNextApprover   core.EventTag = "WF_NEXT_APPROVER"

	EnteringManagedPkg core.EventTag = "ENTERING_MANAGED_PKG"

	FlowStartInterviewsBegin core.EventTag = "FLOW_START_INTERVIEWS_BEGIN"
	FlowStartInterviewsEnd   core.EventTag = "FLOW_START_INTERVIEWS_END"
	FlowValueAssignment      core.EventTag = "FLOW_VALUE_ASSIGNMENT"

	CumulativeLimitUsage    core.EventTag = "CUMULATIVE_LIMIT_USAGE"
	CumulativeLimitUsageEnd core.EventTag = "CUMULATIVE_LIMIT_USAGE_END"
)

func buildEntries() []Entry {
	return []Entry{
		{
			Tag:       ExecutionStarted,
			Kind:      KindEntry,
			ExitTypes: exitSet(ExecutionFinished),
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: ExecutionStarted, Text: string(ExecutionStarted), Namespace: namespace.Default}
			},
		},
		{
			Tag:  ExecutionFinished,
			Kind: KindExit,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: ExecutionFinished, Text: string(ExecutionFinished)}
			},
		},
		{
			Tag:       CodeUnitStarted,
			Kind:      KindEntry,
			ExitTypes: exitSet(CodeUnitFinished),
			Build: func(ctx BuildContext) *core.LineRecord {
				text := lastField(ctx.Fields)
				ns := codeUnitNamespace(text)
				return &core.LineRecord{
					Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine,
					Type: CodeUnitStarted, Text: text, Namespace: ns,
				}
			},
			OnEnd: func(node *core.TreeNode, exit *core.LineRecord) {
				node.CodeUnitType = classifyCodeUnitType(exit.Text)
			},
		},
		{
			Tag:  CodeUnitFinished,
			Kind: KindExit,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: CodeUnitFinished, Text: lastField(ctx.Fields)}
			},
		},
		{
			Tag:        MethodEntry,
			Kind:       KindEntry,
			ExitTypes:  exitSet(MethodExit),
			MethodLike: true,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: MethodEntry, Text: lastField(ctx.Fields)}
			},
		},
		{
			Tag:  MethodExit,
			Kind: KindExit,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: MethodExit, Text: lastField(ctx.Fields)}
			},
		},
		{
			Tag:        ConstructorEntry,
			Kind:       KindEntry,
			ExitTypes:  exitSet(ConstructorExit),
			MethodLike: true,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: ConstructorEntry, Text: lastField(ctx.Fields)}
			},
		},
		{
			Tag:  ConstructorExit,
			Kind: KindExit,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: ConstructorExit, Text: lastField(ctx.Fields)}
			},
		},
		{
			Tag:       SoqlExecuteBegin,
			Kind:      KindEntry,
			ExitTypes: exitSet(SoqlExecuteEnd),
			Build: func(ctx BuildContext) *core.LineRecord {
				query := lastField(ctx.Fields)
				rec := &core.LineRecord{
					Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine,
					Type: SoqlExecuteBegin, Text: query, Namespace: namespace.Default,
					SObjectType: soqlFromObject(query),
				}
				if len(ctx.Fields) > 1 {
					rec.Aggregations = parseLabeledInt(ctx.Fields[0], "Aggregations:")
				}
				return rec
			},
		},
		{
			Tag:  SoqlExecuteEnd,
			Kind: KindExit,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: SoqlExecuteEnd, RowCount: parseRows(lastField(ctx.Fields))}
			},
		},
		{
			Tag:  SoqlExecuteExplain,
			Kind: KindLeaf,
			Build: func(ctx BuildContext) *core.LineRecord {
				explain := parseExplainText(lastField(ctx.Fields))
				explain.Timestamp = ctx.Timestamp
				explain.LineNumber = ctx.LineNumber
				explain.LogLine = ctx.LogLine
				explain.Type = SoqlExecuteExplain
				return explain
			},
		},
		{
			Tag:       SoslExecuteBegin,
			Kind:      KindEntry,
			ExitTypes: exitSet(SoslExecuteEnd),
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: SoslExecuteBegin, Text: lastField(ctx.Fields), Namespace: namespace.Default}
			},
		},
		{
			Tag:  SoslExecuteEnd,
			Kind: KindExit,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: SoslExecuteEnd, RowCount: parseRows(lastField(ctx.Fields))}
			},
		},
		{
			Tag:       DmlBegin,
			Kind:      KindEntry,
			ExitTypes: exitSet(DmlEnd),
			Build: func(ctx BuildContext) *core.LineRecord {
				op := parseLabeled(field(ctx.Fields, 0), "Op:")
				typ := parseLabeled(field(ctx.Fields, 1), "Type:")
				return &core.LineRecord{
					Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine,
					Type: DmlBegin, Text: op + " " + typ, Namespace: namespace.Default,
					DmlOp: op, DmlType: typ,
				}
			},
		},
		{
			Tag:  DmlEnd,
			Kind: KindExit,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: DmlEnd, DmlRows: parseRows(lastField(ctx.Fields))}
			},
		},
		{
			Tag:           ExceptionThrown,
			Kind:          KindLeaf,
			Discontinuity: true,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: ExceptionThrown, Text: lastField(ctx.Fields), Discontinuity: true}
			},
		},
		{
			Tag:           FatalError,
			Kind:          KindLeaf,
			Discontinuity: true,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: FatalError, Text: lastField(ctx.Fields), Discontinuity: true}
			},
		},
		{
			Tag:  VariableAssignment,
			Kind: KindLeaf,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: VariableAssignment, Text: lastField(ctx.Fields)}
			},
		},
		{
			Tag:  UserDebug,
			Kind: KindLeaf,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: UserDebug, Text: lastField(ctx.Fields)}
			},
		},
		{
			Tag:    WfApprovalSubmit,
			Kind:   KindEntry,
			Pseudo: true,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: WfApprovalSubmit, Text: string(WfApprovalSubmit), Namespace: namespace.Default}
			},
		},
		{
			Tag:    WfProcessFound,
			Kind:   KindEntry,
			Pseudo: true,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: WfProcessFound, Text: string(WfProcessFound), Namespace: namespace.Default}
			},
		},
		{
			Tag:    WfNextApprover,
			Kind:   KindEntry,
			Pseudo: true,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: WfNextApprover, Text: string(WfNextApprover), Namespace: namespace.Default}
			},
		},
		{
			Tag:    EnteringManagedPkg,
			Kind:   KindEntry,
			Pseudo: true,
			Build: func(ctx BuildContext) *core.LineRecord {
				// ENTERING_MANAGED_PKG's single field is the namespace itself.
				ns := field(ctx.Fields, 0)
				if ns == "" {
					ns = namespace.Default
				}
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: EnteringManagedPkg, Text: ns, Namespace: ns}
			},
		},
		{
			Tag:       FlowStartInterviewsBegin,
			Kind:      KindEntry,
			ExitTypes: exitSet(FlowStartInterviewsEnd),
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: FlowStartInterviewsBegin, Text: lastField(ctx.Fields), Namespace: namespace.Default}
			},
			OnEnd: func(node *core.TreeNode, exit *core.LineRecord) {
				// Classify Flow vs Process Builder using the enclosing
				// CODE_UNIT_STARTED's derived type, per spec.md §4.2.
				enclosing := node.Parent
				for enclosing != nil && enclosing.Type != CodeUnitStarted {
					enclosing = enclosing.Parent
				}
				cuType := ""
				if enclosing != nil {
					cuType = enclosing.CodeUnitType
					if cuType == "" {
						// The enclosing code unit is still open, so its own
						// OnEnd has not run yet; classify it from its entry text.
						cuType = classifyCodeUnitType(enclosing.Text)
					}
				}
				if cuType == "Workflow" {
					node.Suffix = "Process Builder"
				} else {
					node.Suffix = "Flow"
				}
			},
		},
		{
			Tag:  FlowStartInterviewsEnd,
			Kind: KindExit,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: FlowStartInterviewsEnd}
			},
		},
		{
			Tag:  FlowValueAssignment,
			Kind: KindLeaf,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: FlowValueAssignment, Text: lastField(ctx.Fields)}
			},
		},
		{
			Tag:       CumulativeLimitUsage,
			Kind:      KindEntry,
			ExitTypes: exitSet(CumulativeLimitUsageEnd),
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: CumulativeLimitUsage, Text: string(CumulativeLimitUsage), Namespace: namespace.Default}
			},
		},
		{
			Tag:  CumulativeLimitUsageEnd,
			Kind: KindExit,
			Build: func(ctx BuildContext) *core.LineRecord {
				return &core.LineRecord{Timestamp: ctx.Timestamp, LineNumber: ctx.LineNumber, LogLine: ctx.LogLine, Type: CumulativeLimitUsageEnd}
			},
		},
	}
}

// IsFlowValueAssignment reports whether tag is the one multi-line record
// type the tokenizer must accumulate embedded newlines for (spec.md §4.1).
func IsFlowValueAssignment(tag core.EventTag) bool { return tag == FlowValueAssignment }

func codeUnitNamespace(text string) string {
	if strings.HasPrefix(text, "VF:") {
		return namespace.ParseVfNamespace(text)
	}
	return namespace.ParseCodeUnitNamespace(text)
}

func classifyCodeUnitType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "trigger on"):
		return "Trigger"
	case strings.HasPrefix(text, "VF:") || strings.Contains(text, "VFRemote"):
		return "Visualforce"
	case strings.Contains(lower, "workflow"):
		return "Workflow"
	case strings.Contains(lower, "flow:"):
		return "Flow"
	case strings.Contains(text, "invoke("):
		return "Method"
	default:
		return "CodeUnit"
	}
}

func parseLabeled(f, prefix string) string {
	if !strings.HasPrefix(f, prefix) {
		return ""
	}
	return strings.TrimSpace(f[len(prefix):])
}

func parseLabeledInt(f, prefix string) int {
	n, _ := strconv.Atoi(parseLabeled(f, prefix))
	return n
}

// soqlFromObject does a light-weight scan for "FROM <Object>" in a SOQL
// query; the authoritative grammar lives in package soql/parser and is used
// by the linter. This is only good enough to
// populate LineRecord.SObjectType at tokenize time.
func soqlFromObject(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		if strings.EqualFold(f, "FROM") && i+1 < len(fields) {
			return strings.Trim(fields[i+1], ",")
		}
	}
	return ""
}

// parseExplainText parses a SOQL_EXECUTE_EXPLAIN payload of the form:
//
//	TableScan on Obj : [F1, F2], cardinality: 2, sobjectCardinality: 2, relativeCost 1.3
func parseExplainText(text string) *core.LineRecord {
	rec := &core.LineRecord{Text: text}

	onIdx := strings.Index(text, " on ")
	colonIdx := strings.Index(text, " : ")
	if onIdx == -1 || colonIdx == -1 || colonIdx < onIdx {
		return rec
	}
	rec.LeadingOperationType = strings.TrimSpace(text[:onIdx])
	rec.SObjectType = strings.TrimSpace(text[onIdx+4 : colonIdx])

	rest := text[colonIdx+3:]
	bracketStart := strings.Index(rest, "[")
	bracketEnd := strings.Index(rest, "]")
	if bracketStart != -1 && bracketEnd != -1 && bracketEnd > bracketStart {
		fieldsPart := rest[bracketStart+1 : bracketEnd]
		for _, f := range strings.Split(fieldsPart, ",") {
			f = strings.TrimSpace(f)
			if f != "" {
				rec.Fields = append(rec.Fields, f)
			}
		}
		rest = rest[bracketEnd+1:]
	}

	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "cardinality:"):
			rec.Cardinality, _ = strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(part, "cardinality:")))
		case strings.HasPrefix(part, "sobjectCardinality:"):
			rec.SObjectCardinality, _ = strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(part, "sobjectCardinality:")))
		case strings.HasPrefix(part, "relativeCost"):
			v := strings.TrimSpace(strings.TrimPrefix(part, "relativeCost"))
			rec.RelativeCost, _ = strconv.ParseFloat(v, 64)
		}
	}
	return rec
}
