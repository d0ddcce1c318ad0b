// Package gdl loads grammars written in the textual grammar-description
// language: terminal and nonterminal declarations with alternation,
// grouping, repetition suffixes, emit/goal/ignore flags, and comments.
// The description is parsed by the recognizer itself, against the
// hard-coded meta-grammar below — there is no separate hand-written
// lexer or parser for the description language anywhere in this package.
package gdl

import (
	"github.com/elifletcher/packrat/grammar"
	"github.com/elifletcher/packrat/terminal"
)

// metaGrammar describes the description language itself. Two flag
// spellings are accepted on a declaration: the decoration form ("@" in
// front of a name marks it emitted, "$" after a nonterminal name marks
// the goal, "$" in front of a terminal name introduces a terminal
// definition) and the keyword form ("%emit", "%goal", "%ignore"/"%skip"
// after the name or pattern). Both may appear in one declaration.
//
// Nonterminals with no "@" decoration here are pass-through wrappers:
// their children splice directly into whichever emitted ancestor called
// them, so Load never sees a node for "decl", "termPattern", "alternation"
// or "atom" — only for the symbols marked below.
var metaGrammar = mustBuildMetaGrammar()

func mustBuildMetaGrammar() *grammar.Grammar {
	g, err := grammar.New(grammar.RuleMap{
		"grammar$": {"decl*"},

		"decl": {"termDecl", "ntDecl"},

		"@termDecl": {
			"atFlag dollarMark IDENT termPattern termFlag* ;",
			"% IGNORE REGEX ;",
		},

		"termPattern": {"REGEX", "DQSTR", "SQSTR", "CHARCLASS"},

		"@ntDecl": {
			"atFlag IDENT dollarFlag ntFlag* : alternation ;",
		},

		// Left-recursive on purpose: the seed-and-grow machinery resolves
		// it the same way it would for a user grammar.
		"alternation": {
			"alternation | sequence",
			"sequence",
		},

		"@sequence": {"term+"},

		"@term": {"atom modOpt"},

		"atom": {"IDENT", "SQSTR", "DQSTR", "group", "emitGroup"},

		"@group":     {"( alternation )"},
		"@emitGroup": {"@ ( alternation )"},

		"@ntFlag":   {"% GOAL", "% EMIT"},
		"@termFlag": {"% EMIT", "% IGNORE"},

		"@atFlag":     {"@", ""},
		"@dollarFlag": {"$", ""},
		"dollarMark":  {"$", ""},
		"@modOpt":     {"*", "+", "?", ""},
	},
		grammar.WithTerminal("IDENT", mustRegexp(`[A-Za-z_][A-Za-z0-9_]*`)),
		grammar.WithTerminal("REGEX", mustRegexp(`/([^/\\]|\\.)*/`)),
		grammar.WithTerminal("DQSTR", mustRegexp(`"([^"\\]|\\.)*"`)),
		grammar.WithTerminal("SQSTR", mustRegexp(`'([^'\\]|\\.)*'`)),
		grammar.WithTerminal("CHARCLASS", mustRegexp(`\[([^\]\\]|\\.)*\]`)),
		grammar.WithTerminal("GOAL", terminal.Literal("goal")),
		grammar.WithTerminal("EMIT", terminal.Literal("emit")),
		grammar.WithTerminal("IGNORE", mustRegexp(`ignore|skip`)),
		grammar.WithEmitTerminal("IDENT"),
		grammar.WithEmitTerminal("REGEX"),
		grammar.WithEmitTerminal("DQSTR"),
		grammar.WithEmitTerminal("SQSTR"),
		grammar.WithEmitTerminal("CHARCLASS"),
		grammar.WithEmitTerminal("GOAL"),
		grammar.WithEmitTerminal("EMIT"),
		grammar.WithEmitTerminal("IGNORE"),
		grammar.WithIgnore(mustRegexp(`[ \t\r\n]+`)),
		grammar.WithIgnore(mustRegexp(`//[^\n]*`)),
		grammar.WithIgnore(mustRegexp(`/\*([^*]|\*+[^*/])*\*+/`)),
	)
	if err != nil {
		panic("gdl: malformed meta-grammar: " + err.Error())
	}
	return g
}

func mustRegexp(pattern string) terminal.Matcher {
	m, err := terminal.Regexp(pattern)
	if err != nil {
		panic("gdl: malformed meta-grammar terminal " + pattern + ": " + err.Error())
	}
	return m
}
