package terminal

import (
	"fmt"
	"strings"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

// regexpKind is the single lexical kind name every compiled Regexp
// terminal uses internally. Only one kind is ever in play per terminal, so
// the name never needs to be distinguishable from anything else.
const regexpKind = mlspec.LexKindName("t")

type regexp struct {
	pattern string
	spec    *mlspec.CompiledLexSpec
}

// Regexp compiles pattern once and returns a Matcher that performs an
// anchored, longest-match scan of pattern at a given offset.
//
// The anchoring and greediness come from the lexer backend's own scanning
// contract: a maleeni Lexer always scans its underlying reader starting
// from byte zero of whatever was handed to it, and always returns the
// longest lexeme any of its compiled kinds can produce at that position.
// A lex spec built from exactly one entry therefore degenerates into a
// single anchored longest-match test, with maleeni's DFA doing the
// matching instead of a backtracking engine.
//
// maleeni's pattern syntax has no shorthand character classes, so the
// common ones are rewritten into bracket expressions before compilation —
// see normalizePattern.
//
// A pattern that can match the empty string will report that match as a
// failure (Match never returns 0), so `*`/`+` repetition over a nullable
// terminal cannot loop forever.
func Regexp(pattern string) (Matcher, error) {
	lexSpec := &mlspec.LexSpec{
		Name: "t",
		Entries: []*mlspec.LexEntry{
			{
				Kind:    regexpKind,
				Pattern: mlspec.LexPattern(normalizePattern(pattern)),
			},
		},
	}

	compiled, err, cErrs := mlcompiler.Compile(lexSpec)
	if err != nil {
		if len(cErrs) > 0 {
			cErr := cErrs[0]
			if cErr.Detail != "" {
				return nil, fmt.Errorf("pattern %v: %v: %v", pattern, cErr.Cause, cErr.Detail)
			}
			return nil, fmt.Errorf("pattern %v: %v", pattern, cErr.Cause)
		}
		return nil, err
	}

	return &regexp{pattern: pattern, spec: compiled}, nil
}

func (m *regexp) Kind() string   { return "regexp" }
func (m *regexp) Source() string { return m.pattern }

func (m *regexp) Match(s string, offset int) int {
	if offset > len(s) {
		return -1
	}

	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(m.spec), strings.NewReader(s[offset:]))
	if err != nil {
		return -1
	}

	tok, err := lex.Next()
	if err != nil {
		return -1
	}
	if tok.Invalid || tok.EOF {
		return -1
	}

	n := len(tok.Lexeme)
	if n <= 0 {
		return -1
	}
	return n
}

// normalizePattern rewrites the escape shorthands maleeni's pattern
// language does not know into forms it does:
//
//	\d \D \s \S \w \W   -> bracket expressions (the negated forms only
//	                       outside a bracket expression, where [^...] can
//	                       express them)
//	\t \n \r \f \v \0   -> the control characters themselves
//	(?:                 -> ( — there are no capture groups to opt out of
//
// Everything else, including maleeni's own \u{...} and \p{...} forms and
// its metacharacter escapes, passes through untouched. A shorthand that
// cannot be expressed in context (e.g. \D inside a bracket expression)
// also passes through, so the compile step reports it against the
// original spelling.
func normalizePattern(pattern string) string {
	var b strings.Builder
	inBracket := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]

		if c == '\\' && i+1 < len(pattern) {
			if rep, ok := expandEscape(pattern[i+1], inBracket); ok {
				b.WriteString(rep)
				i++
				continue
			}
			b.WriteByte(c)
			b.WriteByte(pattern[i+1])
			i++
			continue
		}

		if !inBracket && c == '[' {
			inBracket = true
		} else if inBracket && c == ']' {
			inBracket = false
		}

		if !inBracket && c == '(' && i+2 < len(pattern) && pattern[i+1] == '?' && pattern[i+2] == ':' {
			b.WriteByte('(')
			i += 2
			continue
		}

		b.WriteByte(c)
	}
	return b.String()
}

const spaceChars = " \t\n\r\f\v"

func expandEscape(c byte, inBracket bool) (string, bool) {
	switch c {
	case 'd':
		if inBracket {
			return "0-9", true
		}
		return "[0-9]", true
	case 'D':
		if inBracket {
			return "", false
		}
		return "[^0-9]", true
	case 's':
		if inBracket {
			return spaceChars, true
		}
		return "[" + spaceChars + "]", true
	case 'S':
		if inBracket {
			return "", false
		}
		return "[^" + spaceChars + "]", true
	case 'w':
		if inBracket {
			return "0-9A-Za-z_", true
		}
		return "[0-9A-Za-z_]", true
	case 'W':
		if inBracket {
			return "", false
		}
		return "[^0-9A-Za-z_]", true
	case 't':
		return "\t", true
	case 'n':
		return "\n", true
	case 'r':
		return "\r", true
	case 'f':
		return "\f", true
	case 'v':
		return "\v", true
	case '0':
		return "\x00", true
	}
	return "", false
}
