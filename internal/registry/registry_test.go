package registry

import (
	"testing"

	"github.com/apexlog-tools/apexlog/core"
)

func TestLookupKnowsEveryDeclaredEventTag(t *testing.T) {
	reg := New()
	tags := []core.EventTag{
		ExecutionStarted, ExecutionFinished,
		CodeUnitStarted, CodeUnitFinished,
		MethodEntry, MethodExit,
		ConstructorEntry, ConstructorExit,
		SoqlExecuteBegin, SoqlExecuteEnd, SoqlExecuteExplain,
		SoslExecuteBegin, SoslExecuteEnd,
		DmlBegin, DmlEnd,
		ExceptionThrown, FatalError,
		VariableAssignment, UserDebug,
		WfApprovalSubmit, WfProcessFound, WfNextApprover,
		EnteringManagedPkg,
		FlowStartInterviewsBegin, FlowStartInterviewsEnd, FlowValueAssignment,
		CumulativeLimitUsage, CumulativeLimitUsageEnd,
	}
	for _, tag := range tags {
		if reg.Lookup(tag) == nil {
			t.Errorf("expected %q to resolve to a table entry", tag)
		}
	}
}

func TestLookupUnknownTagReturnsNil(t *testing.T) {
	reg := New()
	if reg.Lookup("NOT_A_REAL_EVENT") != nil {
		t.Error("expected an unrecognized tag to return nil")
	}
}

func TestPseudoEntriesHaveNoExitTypesAndAreMarkedPseudo(t *testing.T) {
	reg := New()
	for _, tag := range []core.EventTag{WfApprovalSubmit, WfProcessFound, WfNextApprover, EnteringManagedPkg} {
		e := reg.Lookup(tag)
		if e == nil {
			t.Fatalf("expected an entry for %q", tag)
		}
		if !e.Pseudo {
			t.Errorf("expected %q marked Pseudo", tag)
		}
		if len(e.ExitTypes) != 0 {
			t.Errorf("expected %q to have no ExitTypes (closed by the builder, not a line), got %v", tag, e.ExitTypes)
		}
	}
}

func TestEntryTagsDeclareTheirOwnExitType(t *testing.T) {
	reg := New()
	cases := map[core.EventTag]core.EventTag{
		CodeUnitStarted:          CodeUnitFinished,
		MethodEntry:              MethodExit,
		ConstructorEntry:         ConstructorExit,
		SoqlExecuteBegin:         SoqlExecuteEnd,
		SoslExecuteBegin:         SoslExecuteEnd,
		DmlBegin:                 DmlEnd,
		FlowStartInterviewsBegin: FlowStartInterviewsEnd,
		CumulativeLimitUsage:     CumulativeLimitUsageEnd,
	}
	for entryTag, exitTag := range cases {
		e := reg.Lookup(entryTag)
		if e == nil || !e.ExitTypes[exitTag] {
			t.Errorf("expected %q's ExitTypes to include %q, got %+v", entryTag, exitTag, e)
		}
	}
}

func TestMethodLikeTagsAreFlagged(t *testing.T) {
	reg := New()
	for _, tag := range []core.EventTag{MethodEntry, ConstructorEntry} {
		e := reg.Lookup(tag)
		if e == nil || !e.MethodLike {
			t.Errorf("expected %q flagged MethodLike", tag)
		}
	}
	if e := reg.Lookup(CodeUnitStarted); e == nil || e.MethodLike {
		t.Error("expected CODE_UNIT_STARTED not flagged MethodLike")
	}
}

func TestDiscontinuityTagsAreFlagged(t *testing.T) {
	reg := New()
	for _, tag := range []core.EventTag{ExceptionThrown, FatalError} {
		e := reg.Lookup(tag)
		if e == nil || !e.Discontinuity {
			t.Errorf("expected %q flagged Discontinuity", tag)
		}
	}
}
