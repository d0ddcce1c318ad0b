// Package errs collects the error types shared by the grammar, recognizer
// and gdl packages.
package errs

import "fmt"

// BuildError wraps a single problem found while constructing a grammar.
// A grammar is discarded as soon as one of these is raised; construction
// never leaves a partially built grammar behind for the caller to inspect.
type BuildError struct {
	Cause error

	// Symbol is the terminal or nonterminal name the error concerns, when
	// there is one.
	Symbol string
}

func (e *BuildError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("grammar error: %v", e.Cause)
	}
	return fmt.Sprintf("grammar error: %v: %v", e.Symbol, e.Cause)
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// BuildErrors aggregates every BuildError found during one construction
// attempt.
type BuildErrors []*BuildError

func (es BuildErrors) Error() string {
	if len(es) == 1 {
		return es[0].Error()
	}
	s := fmt.Sprintf("%v grammar errors:", len(es))
	for _, e := range es {
		s += "\n  " + e.Error()
	}
	return s
}

// Sentinel causes used by BuildError.Cause. Compare against these with
// errors.Is through BuildError.Unwrap.
var (
	ErrGoalNotDefined       = fmt.Errorf("no goal nonterminal defined")
	ErrUndefinedGoal        = fmt.Errorf("goal nonterminal is not defined in the grammar")
	ErrUndefinedSymbol      = fmt.Errorf("undefined symbol")
	ErrDuplicateTerminal    = fmt.Errorf("duplicate terminal definition")
	ErrDuplicateNonterminal = fmt.Errorf("duplicate nonterminal definition")
	ErrDuplicateName        = fmt.Errorf("terminal and nonterminal namespaces collide on this name")
	ErrEmptyAlternatives    = fmt.Errorf("a nonterminal must have at least one alternative")
	ErrUnknownIgnoreName    = fmt.Errorf("ignore-terminal name is not a registered terminal")
	ErrUnknownEmitAlt       = fmt.Errorf("emit alternative index is out of range for this nonterminal")
)

// ParseError reports where a parse attempt failed. It is always raised
// at the largest offset any nonterminal application reached, which is
// usually the most useful single position to show a user.
type ParseError struct {
	Offset int
	Line   int
	Column int

	// Tail is the unconsumed remainder of the input starting at Offset.
	Tail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: Parse error @ >%s<", e.Line, e.Column, e.Tail)
}

// NewParseError derives line/column from offset: count newlines up to
// offset for the line, and the distance back to the preceding newline
// (or offset+1 on the first line) for the 1-based column.
func NewParseError(s string, offset int) *ParseError {
	row := 1
	lastNL := -1
	for i := 0; i < offset && i < len(s); i++ {
		if s[i] == '\n' {
			row++
			lastNL = i
		}
	}

	var col int
	if lastNL < 0 {
		col = offset + 1
	} else {
		col = offset - lastNL
	}

	return &ParseError{
		Offset: offset,
		Line:   row,
		Column: col,
		Tail:   s[offset:],
	}
}
