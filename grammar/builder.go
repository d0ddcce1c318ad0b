package grammar

import (
	"strings"

	"github.com/elifletcher/packrat/errs"
	"github.com/elifletcher/packrat/terminal"
)

// Rule is one nonterminal's alternatives, each given as a single
// space-separated sequence of symbol tokens, e.g. "expr + term".
type Rule = []string

// RuleMap is the map-literal grammar source accepted by New. A key may be
// prefixed with "@" (mark the whole nonterminal for emission) and/or
// suffixed with "$" (declare it the goal). A token inside a Rule string
// may itself be prefixed with "@" (mark that symbol for emission) or
// suffixed with one of "*", "+", "?" (repetition, lowered into fresh
// helper nonterminals). A token that is not a registered terminal name
// and not another key of this map is an anonymous literal, matched
// verbatim.
type RuleMap map[string]Rule

// Builder accumulates terminals, ignore terminals and emit markings ahead
// of a New call. Use the With* functions below to build an Option slice.
type Builder struct {
	terminals map[string]*Terminal
	ignores   []string
	emits     map[EmitKey]Label
	goal      string
	goalSet   bool
	dupes     errs.BuildErrors
}

// Option configures a Builder before New processes a RuleMap.
type Option func(*Builder)

// WithTerminal registers a named terminal matcher. Registering the same
// name twice is a duplicate-definition error, reported by New once every
// option has been applied.
func WithTerminal(name string, m terminal.Matcher) Option {
	return func(b *Builder) {
		if _, exists := b.terminals[name]; exists {
			b.dupes = append(b.dupes, &errs.BuildError{Cause: errs.ErrDuplicateTerminal, Symbol: name})
			return
		}
		b.terminals[name] = &Terminal{Name: name, Matcher: m}
	}
}

// WithIgnore registers an auto-named terminal that the recognizer skips
// before every symbol match attempt.
func WithIgnore(m terminal.Matcher) Option {
	return func(b *Builder) {
		name := b.freshTerminalName()
		b.terminals[name] = &Terminal{Name: name, Matcher: m, Ignore: true}
		b.ignores = append(b.ignores, name)
	}
}

// WithIgnoreTerminal flags an already-registered named terminal as an
// ignore terminal. The terminal must be registered by some option in the
// same New call; an unknown name is a construction error.
func WithIgnoreTerminal(name string) Option {
	return func(b *Builder) {
		b.ignores = append(b.ignores, name)
	}
}

// WithEmitTerminal marks a registered terminal for emission. label may be
// omitted, or be a string or a func(*tree.Node)-shaped callable.
func WithEmitTerminal(name string, label ...Label) Option {
	return func(b *Builder) {
		b.emits[wholeKey(name)] = firstLabel(label)
	}
}

// WithEmit marks a nonterminal, or one alternative of it (alt >= 0), for
// emission.
func WithEmit(name string, alt int, label ...Label) Option {
	return func(b *Builder) {
		b.emits[EmitKey{Name: name, Alt: alt}] = firstLabel(label)
	}
}

// WithGoal explicitly sets the goal nonterminal, overriding any "$"
// suffix found on a RuleMap key.
func WithGoal(name string) Option {
	return func(b *Builder) {
		b.goal = name
		b.goalSet = true
	}
}

func firstLabel(label []Label) Label {
	if len(label) == 0 {
		return nil
	}
	return label[0]
}

func (b *Builder) freshTerminalName() string {
	n := len(b.ignores)
	for {
		name := autoTerminalName(n)
		if _, ok := b.terminals[name]; !ok {
			return name
		}
		n++
	}
}

func autoTerminalName(n int) string {
	const digits = "0123456789"
	s := []byte{digits[n/100%10], digits[n/10%10], digits[n%10]}
	return "T$" + string(s)
}

// New builds a Grammar from rules and the accumulated effect of opts.
// Terminal, ignore and emit options are applied first, then rules are
// processed into Nonterminals (lowering any "*"/"+"/"?" modifiers along
// the way), then the goal is resolved, and finally the whole grammar is
// validated.
func New(rules RuleMap, opts ...Option) (*Grammar, error) {
	b := &Builder{
		terminals: map[string]*Terminal{},
		emits:     map[EmitKey]Label{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.dupes) > 0 {
		return nil, b.dupes
	}

	for _, name := range b.ignores {
		if t, ok := b.terminals[name]; ok {
			t.Ignore = true
		}
	}

	nonterms := map[string]*Nonterminal{}

	// uniqueName disambiguates a fresh helper-nonterminal name against
	// both namespaces by suffixing quote marks until unused.
	uniqueName := func(n string) string {
		for {
			if _, ok := b.terminals[n]; !ok {
				if _, ok := nonterms[n]; !ok {
					return n
				}
			}
			n += "'"
		}
	}

	// First pass: strip "@"/"$" decorations from keys and register empty
	// Nonterminal placeholders, so forward references inside productions
	// resolve during the second pass.
	type decoded struct {
		name string
		emit bool
		goal bool
		alts Rule
	}
	var order []decoded
	goalFromOption := b.goalSet
	for key, alts := range rules {
		name := key
		emit := false
		if strings.HasPrefix(name, "@") {
			name = name[1:]
			emit = true
		}
		goal := false
		if strings.HasSuffix(name, "$") {
			name = strings.TrimSuffix(name, "$")
			goal = true
		}
		if _, exists := nonterms[name]; exists {
			return nil, errs.BuildErrors{{Cause: errs.ErrDuplicateNonterminal, Symbol: name}}
		}
		nonterms[name] = &Nonterminal{Name: name}
		order = append(order, decoded{name: name, emit: emit, goal: goal, alts: alts})
	}

	for _, d := range order {
		if _, isTerm := b.terminals[d.name]; isTerm {
			return nil, errs.BuildErrors{{Cause: errs.ErrDuplicateName, Symbol: d.name}}
		}
		if d.emit {
			b.emits[wholeKey(d.name)] = nil
		}
		if d.goal && !goalFromOption {
			b.goal = d.name
			b.goalSet = true
		}

		alts := d.alts
		if len(alts) == 0 {
			alts = Rule{""}
		}

		nt := nonterms[d.name]
		for _, production := range alts {
			tokens := strings.Fields(production)
			prod := Production{}
			for _, tok := range tokens {
				if len(tok) > 1 && strings.HasPrefix(tok, "@") {
					tok = tok[1:]
					b.emits[wholeKey(resolveBareName(tok))] = nil
				}

				if n := len(tok); n > 1 {
					mod := tok[n-1:]
					if mod == "*" || mod == "+" || mod == "?" {
						tok = lowerModifier(nonterms, b.terminals, uniqueName, d.name, tok[:n-1], mod)
					}
				}

				prod.Symbols = append(prod.Symbols, classifySymbol(tok, b.terminals, nonterms))
			}
			nt.Alternatives = append(nt.Alternatives, prod)
		}
	}

	if !b.goalSet {
		return nil, errs.BuildErrors{{Cause: errs.ErrGoalNotDefined}}
	}

	g := &Grammar{
		Goal:         b.goal,
		Terminals:    b.terminals,
		Nonterminals: nonterms,
		Ignores:      b.ignores,
		Emits:        b.emits,
	}

	if err := g.checkInvariants(); err != nil {
		return nil, err
	}
	return g, nil
}

// resolveBareName strips a trailing repetition-modifier character, if
// present, so an inline "@sym*" emit marker attaches to the symbol's own
// name rather than the fresh nonterminal the lowering will generate for
// it.
func resolveBareName(tok string) string {
	n := len(tok)
	if n > 1 {
		switch tok[n-1:] {
		case "*", "+", "?":
			return tok[:n-1]
		}
	}
	return tok
}

// lowerModifier rewrites a repetition suffix into helper nonterminals:
// X+ becomes a fresh left-recursive N -> N X | X; X* lowers X+ to N and
// wraps it as M -> N | ε; X? wraps X directly as M -> X | ε.
func lowerModifier(nonterms map[string]*Nonterminal, terminals map[string]*Terminal, uniqueName func(string) string, owner, sym, mod string) string {
	if mod == "*" || mod == "+" {
		oneOrMore := uniqueName(owner)
		nt := &Nonterminal{Name: oneOrMore}
		nt.Alternatives = append(nt.Alternatives,
			Production{Symbols: []SymbolRef{{Kind: SymNonterminal, Name: oneOrMore}, classifySymbol(sym, terminals, nonterms)}},
			Production{Symbols: []SymbolRef{classifySymbol(sym, terminals, nonterms)}},
		)
		nonterms[oneOrMore] = nt
		sym = oneOrMore
	}

	if mod == "?" || mod == "*" {
		oneOrNone := uniqueName(owner)
		nt := &Nonterminal{Name: oneOrNone}
		nt.Alternatives = append(nt.Alternatives,
			Production{Symbols: []SymbolRef{classifySymbol(sym, terminals, nonterms)}},
			Production{Symbols: nil},
		)
		nonterms[oneOrNone] = nt
		sym = oneOrNone
	}

	return sym
}

func classifySymbol(tok string, terminals map[string]*Terminal, nonterms map[string]*Nonterminal) SymbolRef {
	if _, ok := terminals[tok]; ok {
		return SymbolRef{Kind: SymTerminal, Name: tok}
	}
	if _, ok := nonterms[tok]; ok {
		return SymbolRef{Kind: SymNonterminal, Name: tok}
	}
	return SymbolRef{Kind: SymLiteral, Literal: tok}
}
