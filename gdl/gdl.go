package gdl

import (
	"fmt"
	"io"
	"strings"

	"github.com/elifletcher/packrat/errs"
	"github.com/elifletcher/packrat/grammar"
	"github.com/elifletcher/packrat/recognizer"
	"github.com/elifletcher/packrat/terminal"
	"github.com/elifletcher/packrat/tree"
)

// ErrMetaGrammarSyntax reports that a grammar-description string failed to
// parse against the meta-grammar itself, before any target grammar could
// be built from it.
type ErrMetaGrammarSyntax struct {
	Err *errs.ParseError
}

func (e *ErrMetaGrammarSyntax) Error() string {
	return fmt.Sprintf("grammar description: %v", e.Err)
}

func (e *ErrMetaGrammarSyntax) Unwrap() error { return e.Err }

// Load reads a grammar-description from r and builds the
// *grammar.Grammar it describes, by parsing r's contents against the
// hard-coded meta-grammar and walking the resulting AST into a RuleMap
// and Option set that it then hands to grammar.New — the same
// construction path a Go caller of this library uses directly.
func Load(r io.Reader) (*grammar.Grammar, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return LoadString(string(src))
}

// LoadString is Load without the io.Reader indirection.
func LoadString(src string) (*grammar.Grammar, error) {
	root, err := recognizer.Parse(metaGrammar, src)
	if err != nil {
		pe, ok := err.(*errs.ParseError)
		if !ok {
			return nil, err
		}
		return nil, &ErrMetaGrammarSyntax{Err: pe}
	}

	l := &loader{
		ruleMap:     grammar.RuleMap{},
		seenNonterm: map[string]bool{},
		litNames:    map[string]string{},
	}

	for _, decl := range root.Children {
		switch decl.Symbol {
		case "termDecl":
			if err := l.addTerminal(decl); err != nil {
				return nil, err
			}
		case "ntDecl":
			if err := l.addNonterminal(decl); err != nil {
				return nil, err
			}
		}
	}

	if !l.sawGoal {
		if l.lastNT == "" {
			return nil, errs.BuildErrors{{Cause: errs.ErrGoalNotDefined}}
		}
		l.opts = append(l.opts, grammar.WithGoal(l.lastNT))
	}

	return grammar.New(l.ruleMap, l.opts...)
}

// loader accumulates the RuleMap and Options a single Load call builds up
// while walking the meta-grammar's AST, including the synthetic names
// generated for inline groups and auto-emitted double-quoted literals.
type loader struct {
	ruleMap      grammar.RuleMap
	opts         []grammar.Option
	seenNonterm  map[string]bool
	litNames     map[string]string
	litCounter   int
	groupCounter int
	sawGoal      bool
	lastNT       string
}

func (l *loader) addTerminal(decl *tree.Node) error {
	emit := flagSet(decl.Select("atFlag", 0))
	ignore := false
	for _, f := range decl.SelectAll("termFlag") {
		if f.Contains("EMIT") {
			emit = true
		}
		if f.Contains("IGNORE") {
			ignore = true
		}
	}

	identNode := decl.Select("IDENT", 0)
	if identNode == nil {
		// "%skip /regex/ ;" or "%ignore /regex/ ;" — an unnamed
		// ignore-terminal.
		regexNode := decl.Select("REGEX", 0)
		m, err := terminal.Regexp(unescapeRegexSlash(stripDelims(regexNode.Match)))
		if err != nil {
			return err
		}
		l.opts = append(l.opts, grammar.WithIgnore(m))
		return nil
	}

	name := identNode.Match
	var m terminal.Matcher
	var err error
	switch {
	case decl.Select("REGEX", 0) != nil:
		m, err = terminal.Regexp(unescapeRegexSlash(stripDelims(decl.Select("REGEX", 0).Match)))
	case decl.Select("DQSTR", 0) != nil:
		m = terminal.Literal(unquote(decl.Select("DQSTR", 0).Match))
	case decl.Select("SQSTR", 0) != nil:
		m = terminal.Literal(unquote(decl.Select("SQSTR", 0).Match))
	case decl.Select("CHARCLASS", 0) != nil:
		m, err = terminal.Regexp(decl.Select("CHARCLASS", 0).Match)
	default:
		return fmt.Errorf("gdl: terminal declaration for %q has no pattern", name)
	}
	if err != nil {
		return err
	}

	l.opts = append(l.opts, grammar.WithTerminal(name, m))
	if emit {
		l.opts = append(l.opts, grammar.WithEmitTerminal(name))
	}
	if ignore {
		l.opts = append(l.opts, grammar.WithIgnoreTerminal(name))
	}
	return nil
}

func (l *loader) addNonterminal(decl *tree.Node) error {
	emit := flagSet(decl.Select("atFlag", 0))
	goal := flagSet(decl.Select("dollarFlag", 0))
	for _, f := range decl.SelectAll("ntFlag") {
		if f.Contains("GOAL") {
			goal = true
		}
		if f.Contains("EMIT") {
			emit = true
		}
	}
	name := decl.Select("IDENT", 0).Match

	if l.seenNonterm[name] {
		return &errs.BuildError{Cause: errs.ErrDuplicateNonterminal, Symbol: name}
	}
	l.seenNonterm[name] = true

	alts, err := l.buildAlternation(decl.SelectAll("sequence"))
	if err != nil {
		return err
	}

	key := name
	if emit {
		key = "@" + key
	}
	if goal {
		key += "$"
		l.sawGoal = true
	}
	l.ruleMap[key] = alts
	l.lastNT = name
	return nil
}

// buildAlternation renders every "sequence" node into one Rule entry
// (a space-separated token string), in declaration order — grammar.New
// tries Rule entries in the same order, so ordered choice is preserved.
func (l *loader) buildAlternation(seqs []*tree.Node) (grammar.Rule, error) {
	var alts grammar.Rule
	for _, seq := range seqs {
		s, err := l.buildSequence(seq)
		if err != nil {
			return nil, err
		}
		alts = append(alts, s)
	}
	return alts, nil
}

func (l *loader) buildSequence(seq *tree.Node) (string, error) {
	var toks []string
	for _, t := range seq.Children {
		tok, err := l.buildTerm(t)
		if err != nil {
			return "", err
		}
		toks = append(toks, tok)
	}
	return strings.Join(toks, " "), nil
}

// buildTerm renders one "atom modOpt" pair into a single RuleMap token,
// e.g. "expr*" — the suffix convention grammar.New's Builder lowers into
// helper nonterminals.
func (l *loader) buildTerm(t *tree.Node) (string, error) {
	base, err := l.buildAtom(t.Children[0])
	if err != nil {
		return "", err
	}
	return base + strings.TrimSpace(t.Children[1].Match), nil
}

func (l *loader) buildAtom(a *tree.Node) (string, error) {
	switch a.Symbol {
	case "IDENT":
		return a.Match, nil
	case "SQSTR":
		return unquote(a.Match), nil
	case "DQSTR":
		// A double-quoted literal is auto-emitted: unlike a single-quoted
		// anonymous literal, it needs a name to hang an emit key off, so
		// it is registered as a fresh terminal the first time this exact
		// text is seen.
		lit := unquote(a.Match)
		name, ok := l.litNames[lit]
		if !ok {
			name = fmt.Sprintf("Q$%03d", l.litCounter)
			l.litCounter++
			l.litNames[lit] = name
			l.opts = append(l.opts,
				grammar.WithTerminal(name, terminal.Literal(lit)),
				grammar.WithEmitTerminal(name),
			)
		}
		return name, nil
	case "group":
		return l.buildGroup(a, false)
	case "emitGroup":
		return l.buildGroup(a, true)
	default:
		return "", fmt.Errorf("gdl: unexpected atom %q", a.Symbol)
	}
}

// buildGroup lowers "( alternation )" or "@( alternation )" into a fresh
// nonterminal, the same way an inline "*"/"+"/"?" modifier is lowered
// into one. The "@(...)" form registers the fresh nonterminal as emitted;
// the plain form leaves it as a pass-through wrapper whose children
// flatten into the parent.
func (l *loader) buildGroup(g *tree.Node, emit bool) (string, error) {
	alts, err := l.buildAlternation(g.SelectAll("sequence"))
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("G$%03d", l.groupCounter)
	l.groupCounter++
	key := name
	if emit {
		key = "@" + key
	}
	l.ruleMap[key] = alts
	return name, nil
}

func flagSet(n *tree.Node) bool {
	return n != nil && strings.TrimSpace(n.Match) != ""
}

func stripDelims(s string) string {
	if len(s) < 2 {
		return ""
	}
	return s[1 : len(s)-1]
}

// unescapeRegexSlash turns "\/" back into "/" inside a REGEX literal's
// body, leaving every other backslash escape untouched — the delimiter
// only needs escaping to keep the literal from terminating early.
func unescapeRegexSlash(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '/' {
			b.WriteByte('/')
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// unquote strips the surrounding quote character from a SQSTR/DQSTR
// match and resolves "\<quote>" and "\\" escapes.
func unquote(s string) string {
	if len(s) < 2 {
		return ""
	}
	quote := s[0]
	inner := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			next := inner[i+1]
			if next == quote || next == '\\' {
				b.WriteByte(next)
				i++
				continue
			}
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}
