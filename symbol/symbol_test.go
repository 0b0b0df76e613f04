package symbol_test

import (
	"testing"

	"github.com/apexlog-tools/apexlog/symbol"
)

// S6 — symbol with namespace.
func TestParseSymbolWithNamespace(t *testing.T) {
	sym, err := symbol.Parse("ns.MyClass.Inner.m(String)", []string{"ns"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sym.Namespace != "ns" {
		t.Errorf("expected namespace ns, got %q", sym.Namespace)
	}
	if sym.OuterClass != "MyClass" {
		t.Errorf("expected outerClass MyClass, got %q", sym.OuterClass)
	}
	if sym.InnerClass != "Inner" {
		t.Errorf("expected innerClass Inner, got %q", sym.InnerClass)
	}
	if sym.Method != "m" {
		t.Errorf("expected method m, got %q", sym.Method)
	}
	if sym.Parameters != "String" {
		t.Errorf("expected parameters String, got %q", sym.Parameters)
	}
}

// Invariant 6: parseSymbol(s, projects).fullSymbol === s.
func TestParseSymbolFullSymbolRoundTrips(t *testing.T) {
	inputs := []string{
		"MyClass.method()",
		"MyClass.Inner.method(String, Integer)",
		"ns.MyClass.Inner.method(String)",
		"Outer.method",
	}
	for _, in := range inputs {
		sym, err := symbol.Parse(in, []string{"ns"})
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", in, err)
		}
		if sym.FullSymbol != in {
			t.Errorf("Parse(%q).FullSymbol = %q, want %q", in, sym.FullSymbol, in)
		}
	}
}

func TestParseSymbolNoNamespaceThreeSegments(t *testing.T) {
	sym, err := symbol.Parse("Outer.Inner.method()", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sym.Namespace != "" {
		t.Errorf("expected no namespace, got %q", sym.Namespace)
	}
	if sym.OuterClass != "Outer" || sym.InnerClass != "Inner" || sym.Method != "method" {
		t.Errorf("unexpected split: %+v", sym)
	}
}

func TestParseSymbolFourSegmentsAlwaysHasNamespace(t *testing.T) {
	sym, err := symbol.Parse("unknownNS.Outer.Inner.method()", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sym.Namespace != "unknownNS" {
		t.Errorf("expected namespace unknownNS from segment count alone, got %q", sym.Namespace)
	}
}

func TestParseSymbolEmptyIsError(t *testing.T) {
	if _, err := symbol.Parse("", nil); err == nil {
		t.Error("expected error for empty symbol")
	}
}
