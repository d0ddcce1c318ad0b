package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/elifletcher/packrat/gdl"
	"github.com/elifletcher/packrat/grammar"
	"github.com/elifletcher/packrat/terminal"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "compile <grammar>",
		Short: "Compile a grammar description into a reusable JSON artifact",
		Long: `compile loads a grammar description and writes the constructed grammar
out as JSON, so repeated parse runs against the same grammar skip
re-parsing the description.

The grammar argument is a file path, or the grammar text itself when no
such file exists.`,
		Example: `  packrat compile calc.gdl -o calc.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	src, err := readSource(args[0])
	if err != nil {
		return err
	}
	g, err := gdl.LoadString(src)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *compileFlags.output != "" {
		f, err := os.OpenFile(*compileFlags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	return encodeGrammar(w, g)
}

// grammarArtifact is the on-disk form of a compiled grammar. Only
// grammars whose terminals were built from literals or regular
// expressions can round-trip through it; callable matchers have no
// serializable form.
type grammarArtifact struct {
	Goal         string                 `json:"goal"`
	Terminals    []*terminalArtifact    `json:"terminals"`
	Nonterminals []*nonterminalArtifact `json:"nonterminals"`
	Ignores      []string               `json:"ignores"`
	Emits        []*emitArtifact        `json:"emits"`
}

type terminalArtifact struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

type nonterminalArtifact struct {
	Name         string              `json:"name"`
	Alternatives [][]*symbolArtifact `json:"alternatives"`
}

type symbolArtifact struct {
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Literal string `json:"literal,omitempty"`
}

type emitArtifact struct {
	Name  string `json:"name"`
	Alt   int    `json:"alt"`
	Label string `json:"label,omitempty"`
}

func encodeGrammar(w io.Writer, g *grammar.Grammar) error {
	a := &grammarArtifact{
		Goal:    g.Goal,
		Ignores: g.Ignores,
	}

	termNames := make([]string, 0, len(g.Terminals))
	for name := range g.Terminals {
		termNames = append(termNames, name)
	}
	sort.Strings(termNames)
	for _, name := range termNames {
		t := g.Terminals[name]
		d, ok := t.Matcher.(terminal.Describable)
		if !ok {
			return fmt.Errorf("terminal %v uses a callable matcher and cannot be compiled", name)
		}
		a.Terminals = append(a.Terminals, &terminalArtifact{
			Name:   name,
			Kind:   d.Kind(),
			Source: d.Source(),
		})
	}

	ntNames := make([]string, 0, len(g.Nonterminals))
	for name := range g.Nonterminals {
		ntNames = append(ntNames, name)
	}
	sort.Strings(ntNames)
	for _, name := range ntNames {
		nt := g.Nonterminals[name]
		na := &nonterminalArtifact{Name: name}
		for _, alt := range nt.Alternatives {
			syms := []*symbolArtifact{}
			for _, ref := range alt.Symbols {
				switch ref.Kind {
				case grammar.SymTerminal:
					syms = append(syms, &symbolArtifact{Kind: "terminal", Name: ref.Name})
				case grammar.SymNonterminal:
					syms = append(syms, &symbolArtifact{Kind: "nonterminal", Name: ref.Name})
				case grammar.SymLiteral:
					syms = append(syms, &symbolArtifact{Kind: "literal", Literal: ref.Literal})
				}
			}
			na.Alternatives = append(na.Alternatives, syms)
		}
		a.Nonterminals = append(a.Nonterminals, na)
	}

	for key, label := range g.Emits {
		ea := &emitArtifact{Name: key.Name, Alt: key.Alt}
		switch l := label.(type) {
		case nil:
		case string:
			ea.Label = l
		default:
			return fmt.Errorf("emit key %v carries a callable label and cannot be compiled", key.Name)
		}
		a.Emits = append(a.Emits, ea)
	}
	sort.Slice(a.Emits, func(i, j int) bool {
		if a.Emits[i].Name != a.Emits[j].Name {
			return a.Emits[i].Name < a.Emits[j].Name
		}
		return a.Emits[i].Alt < a.Emits[j].Alt
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(a)
}

func decodeGrammar(r io.Reader) (*grammar.Grammar, error) {
	a := &grammarArtifact{}
	if err := json.NewDecoder(r).Decode(a); err != nil {
		return nil, err
	}

	g := &grammar.Grammar{
		Goal:         a.Goal,
		Terminals:    map[string]*grammar.Terminal{},
		Nonterminals: map[string]*grammar.Nonterminal{},
		Ignores:      a.Ignores,
		Emits:        map[grammar.EmitKey]grammar.Label{},
	}

	for _, ta := range a.Terminals {
		var m terminal.Matcher
		var err error
		switch ta.Kind {
		case "literal":
			m = terminal.Literal(ta.Source)
		case "regexp":
			m, err = terminal.Regexp(ta.Source)
		default:
			return nil, fmt.Errorf("unknown terminal kind %v", ta.Kind)
		}
		if err != nil {
			return nil, err
		}
		g.Terminals[ta.Name] = &grammar.Terminal{Name: ta.Name, Matcher: m}
	}
	for _, name := range g.Ignores {
		t, ok := g.Terminals[name]
		if !ok {
			return nil, fmt.Errorf("ignore terminal %v is not defined", name)
		}
		t.Ignore = true
	}

	for _, na := range a.Nonterminals {
		nt := &grammar.Nonterminal{Name: na.Name}
		for _, alt := range na.Alternatives {
			prod := grammar.Production{}
			for _, sa := range alt {
				switch sa.Kind {
				case "terminal":
					prod.Symbols = append(prod.Symbols, grammar.SymbolRef{Kind: grammar.SymTerminal, Name: sa.Name})
				case "nonterminal":
					prod.Symbols = append(prod.Symbols, grammar.SymbolRef{Kind: grammar.SymNonterminal, Name: sa.Name})
				case "literal":
					prod.Symbols = append(prod.Symbols, grammar.SymbolRef{Kind: grammar.SymLiteral, Literal: sa.Literal})
				default:
					return nil, fmt.Errorf("unknown symbol kind %v", sa.Kind)
				}
			}
			nt.Alternatives = append(nt.Alternatives, prod)
		}
		g.Nonterminals[na.Name] = nt
	}

	for _, ea := range a.Emits {
		var label grammar.Label
		if ea.Label != "" {
			label = ea.Label
		}
		g.Emits[grammar.EmitKey{Name: ea.Name, Alt: ea.Alt}] = label
	}

	return g, nil
}
