// Package grammar implements the in-memory grammar consumed by the
// recognizer: terminals, productions, nonterminals, the emit-key set,
// the ignore list and the goal symbol, plus the lowering of "*"/"+"/"?"
// repetition suffixes into fresh helper nonterminals.
//
// A Grammar is built once (via New, from a map-literal rule set, or via
// the gdl package from a grammar-description string) and is read-only
// thereafter — nothing in this package, or in recognizer, ever mutates a
// *Grammar after New returns it.
package grammar

import (
	"fmt"
	"sort"

	"github.com/elifletcher/packrat/errs"
	"github.com/elifletcher/packrat/terminal"
)

// SymbolKind classifies one reference inside a Production.
type SymbolKind int

const (
	// SymTerminal references a registered terminal.
	SymTerminal SymbolKind = iota
	// SymNonterminal references another nonterminal.
	SymNonterminal
	// SymLiteral is an anonymous literal: a bare string that matches
	// itself without being registered anywhere.
	SymLiteral
)

// SymbolRef is one element of a Production's ordered sequence.
type SymbolRef struct {
	Kind    SymbolKind
	Name    string // terminal or nonterminal name, when Kind != SymLiteral
	Literal string // literal text, when Kind == SymLiteral
}

func (r SymbolRef) String() string {
	switch r.Kind {
	case SymLiteral:
		return fmt.Sprintf("%q", r.Literal)
	default:
		return r.Name
	}
}

// Production is an ordered sequence of symbol references, i.e. one
// alternative of a Nonterminal.
type Production struct {
	Symbols []SymbolRef
}

// Nonterminal is a name bound to a non-empty, ordered list of alternative
// Productions. Alternatives are tried in this order; the first one that
// succeeds wins.
type Nonterminal struct {
	Name         string
	Alternatives []Production
}

// Terminal is a named matcher, optionally flagged as an ignore terminal
// to be skipped before every symbol match attempt.
type Terminal struct {
	Name    string
	Matcher terminal.Matcher
	Ignore  bool
}

// EmitKey identifies a symbol, or a single alternative of a nonterminal,
// that should produce an AST node. Alt is -1 for a whole-nonterminal or
// whole-terminal emit key; otherwise it selects one alternative of the
// named nonterminal.
type EmitKey struct {
	Name string
	Alt  int
}

func wholeKey(name string) EmitKey { return EmitKey{Name: name, Alt: -1} }

// Label is the optional value carried by an emit key: nil (use the
// symbol's own name), a string (a fixed label), or a callable invoked
// during traversal — see the tree package's Walk, which is the only
// place a func-valued Label is ever called.
type Label = interface{}

// Grammar is the read-only, fully resolved parsing grammar consumed by
// the recognizer package.
type Grammar struct {
	Goal         string
	Terminals    map[string]*Terminal
	Nonterminals map[string]*Nonterminal
	Ignores      []string // ordered; recognizer tries them in this order
	Emits        map[EmitKey]Label
}

// IsEmitted reports whether (name, alt) should produce a node. An emit
// key naming one specific alternative always takes precedence over a
// whole-nonterminal emit key for that same alternative.
func (g *Grammar) IsEmitted(name string, alt int) (Label, bool) {
	if alt >= 0 {
		if lbl, ok := g.Emits[EmitKey{Name: name, Alt: alt}]; ok {
			return lbl, true
		}
	}
	lbl, ok := g.Emits[wholeKey(name)]
	return lbl, ok
}

// EmitTerminal reports whether terminal name is in the emit set.
func (g *Grammar) EmitTerminal(name string) (Label, bool) {
	lbl, ok := g.Emits[wholeKey(name)]
	return lbl, ok
}

// checkInvariants validates the constructed grammar: every referenced
// symbol is registered or anonymous, the goal exists, terminal and
// nonterminal namespaces are disjoint (already enforced by New while it
// processes the rule map), and every ignore name is a known terminal.
func (g *Grammar) checkInvariants() error {
	var errList errs.BuildErrors

	if g.Goal == "" {
		errList = append(errList, &errs.BuildError{Cause: errs.ErrGoalNotDefined})
	} else if _, ok := g.Nonterminals[g.Goal]; !ok {
		errList = append(errList, &errs.BuildError{Cause: errs.ErrUndefinedGoal, Symbol: g.Goal})
	}

	for _, name := range g.Ignores {
		if _, ok := g.Terminals[name]; !ok {
			errList = append(errList, &errs.BuildError{Cause: errs.ErrUnknownIgnoreName, Symbol: name})
		}
	}

	names := make([]string, 0, len(g.Nonterminals))
	for name := range g.Nonterminals {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		nt := g.Nonterminals[name]
		if len(nt.Alternatives) == 0 {
			errList = append(errList, &errs.BuildError{Cause: errs.ErrEmptyAlternatives, Symbol: name})
			continue
		}
		for _, alt := range nt.Alternatives {
			for _, sym := range alt.Symbols {
				if sym.Kind == SymLiteral {
					continue
				}
				_, isTerm := g.Terminals[sym.Name]
				_, isNonterm := g.Nonterminals[sym.Name]
				if !isTerm && !isNonterm {
					errList = append(errList, &errs.BuildError{Cause: errs.ErrUndefinedSymbol, Symbol: sym.Name})
				}
			}
		}
	}

	for key := range g.Emits {
		_, isTerm := g.Terminals[key.Name]
		nt, isNonterm := g.Nonterminals[key.Name]
		if !isTerm && !isNonterm {
			errList = append(errList, &errs.BuildError{Cause: errs.ErrUndefinedSymbol, Symbol: key.Name})
			continue
		}
		if key.Alt >= 0 {
			if !isNonterm || key.Alt >= len(nt.Alternatives) {
				errList = append(errList, &errs.BuildError{Cause: errs.ErrUnknownEmitAlt, Symbol: key.Name})
			}
		}
	}

	if len(errList) > 0 {
		return errList
	}
	return nil
}
