package grammar

import (
	"testing"

	"github.com/elifletcher/packrat/terminal"
)

func mustMatcher(t *testing.T, pattern string) terminal.Matcher {
	t.Helper()
	m, err := terminal.Regexp(pattern)
	if err != nil {
		t.Fatalf("compiling %q: %v", pattern, err)
	}
	return m
}

func TestNewGoalFromSuffix(t *testing.T) {
	g, err := New(RuleMap{
		"expr$": {"INT"},
	}, WithTerminal("INT", mustMatcher(t, `[0-9]+`)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.Goal != "expr" {
		t.Fatalf("Goal = %q, want %q", g.Goal, "expr")
	}
	if _, ok := g.Nonterminals["expr"]; !ok {
		t.Fatalf("nonterminal %q not registered", "expr")
	}
}

func TestNewRequiresGoal(t *testing.T) {
	_, err := New(RuleMap{
		"expr": {"INT"},
	}, WithTerminal("INT", mustMatcher(t, `[0-9]+`)))
	if err == nil {
		t.Fatalf("New: want error, got nil")
	}
}

func TestNewAnonymousLiteral(t *testing.T) {
	g, err := New(RuleMap{
		"sum$": {"INT + INT"},
	}, WithTerminal("INT", mustMatcher(t, `[0-9]+`)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	alt := g.Nonterminals["sum"].Alternatives[0]
	if len(alt.Symbols) != 3 {
		t.Fatalf("len(Symbols) = %d, want 3", len(alt.Symbols))
	}
	if alt.Symbols[1].Kind != SymLiteral || alt.Symbols[1].Literal != "+" {
		t.Fatalf("Symbols[1] = %+v, want anonymous literal \"+\"", alt.Symbols[1])
	}
}

func TestNewPlusLowering(t *testing.T) {
	g, err := New(RuleMap{
		"digits$": {"DIGIT+"},
	}, WithTerminal("DIGIT", mustMatcher(t, `[0-9]`)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	alt := g.Nonterminals["digits"].Alternatives[0]
	if len(alt.Symbols) != 1 || alt.Symbols[0].Kind != SymNonterminal {
		t.Fatalf("digits alternative = %+v, want a single nonterminal reference", alt.Symbols)
	}

	lowered, ok := g.Nonterminals[alt.Symbols[0].Name]
	if !ok {
		t.Fatalf("lowered nonterminal %q not registered", alt.Symbols[0].Name)
	}
	if len(lowered.Alternatives) != 2 {
		t.Fatalf("lowered alternatives = %d, want 2 (left-recursive step, base case)", len(lowered.Alternatives))
	}
	first := lowered.Alternatives[0]
	if len(first.Symbols) != 2 || first.Symbols[0].Name != lowered.Name {
		t.Fatalf("first alternative = %+v, want self-reference followed by DIGIT", first.Symbols)
	}
}

func TestNewStarLoweringTwoLevels(t *testing.T) {
	g, err := New(RuleMap{
		"digits$": {"DIGIT*"},
	}, WithTerminal("DIGIT", mustMatcher(t, `[0-9]`)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	alt := g.Nonterminals["digits"].Alternatives[0]
	outer := g.Nonterminals[alt.Symbols[0].Name]
	if len(outer.Alternatives) != 2 || len(outer.Alternatives[1].Symbols) != 0 {
		t.Fatalf("outer (X*) lowering = %+v, want [X+, epsilon]", outer.Alternatives)
	}
	inner := g.Nonterminals[outer.Alternatives[0].Symbols[0].Name]
	if len(inner.Alternatives) != 2 {
		t.Fatalf("inner (X+) lowering has %d alternatives, want 2", len(inner.Alternatives))
	}
}

func TestNewUniqueNameDisambiguates(t *testing.T) {
	g, err := New(RuleMap{
		"a'": {"INT"},
		"a$": {"INT+"},
	}, WithTerminal("INT", mustMatcher(t, `[0-9]+`)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	alt := g.Nonterminals["a"].Alternatives[0]
	lowered := alt.Symbols[0].Name
	if lowered == "a'" {
		t.Fatalf("lowering collided with pre-existing nonterminal %q", "a'")
	}
	if _, ok := g.Nonterminals[lowered]; !ok {
		t.Fatalf("lowered name %q not registered", lowered)
	}
}

func TestNewUndefinedSymbol(t *testing.T) {
	_, err := New(RuleMap{
		"expr$": {"INT"},
	},
		WithTerminal("INT", mustMatcher(t, `[0-9]+`)),
		WithEmit("missing", -1),
	)
	if err == nil {
		t.Fatalf("New: want error for emit key naming an undefined symbol, got nil")
	}
}

func TestIsEmittedAlternativeOverridesWhole(t *testing.T) {
	g, err := New(RuleMap{
		"expr$": {"INT", "INT + INT"},
	},
		WithTerminal("INT", mustMatcher(t, `[0-9]+`)),
		WithEmit("expr", -1, "whole"),
		WithEmit("expr", 1, "sum"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if lbl, ok := g.IsEmitted("expr", 0); !ok || lbl != "whole" {
		t.Fatalf("IsEmitted(expr, 0) = %v, %v, want \"whole\", true", lbl, ok)
	}
	if lbl, ok := g.IsEmitted("expr", 1); !ok || lbl != "sum" {
		t.Fatalf("IsEmitted(expr, 1) = %v, %v, want \"sum\", true (alt override)", lbl, ok)
	}
}

func TestWithIgnoreTerminalFlagsNamedTerminal(t *testing.T) {
	g, err := New(RuleMap{
		"expr$": {"INT"},
	},
		WithTerminal("INT", mustMatcher(t, `[0-9]+`)),
		WithTerminal("WS", mustMatcher(t, `[ \t]+`)),
		WithIgnoreTerminal("WS"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(g.Ignores) != 1 || g.Ignores[0] != "WS" {
		t.Fatalf("Ignores = %v, want [WS]", g.Ignores)
	}
	if !g.Terminals["WS"].Ignore {
		t.Fatalf("WS terminal not flagged as ignore")
	}
}

func TestWithIgnoreTerminalUnknownNameFails(t *testing.T) {
	_, err := New(RuleMap{
		"expr$": {"INT"},
	},
		WithTerminal("INT", mustMatcher(t, `[0-9]+`)),
		WithIgnoreTerminal("WS"),
	)
	if err == nil {
		t.Fatalf("New: want error for unknown ignore name, got nil")
	}
}

func TestWithIgnoreRegistersAutoNamedTerminal(t *testing.T) {
	g, err := New(RuleMap{
		"expr$": {"INT"},
	},
		WithTerminal("INT", mustMatcher(t, `[0-9]+`)),
		WithIgnore(mustMatcher(t, `[ \t]+`)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(g.Ignores) != 1 {
		t.Fatalf("len(Ignores) = %d, want 1", len(g.Ignores))
	}
	if _, ok := g.Terminals[g.Ignores[0]]; !ok {
		t.Fatalf("ignore terminal %q not registered", g.Ignores[0])
	}
}
