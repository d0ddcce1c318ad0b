package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elifletcher/packrat/gdl"
	"github.com/elifletcher/packrat/grammar"
	"github.com/elifletcher/packrat/recognizer"
	"github.com/elifletcher/packrat/tree"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	onlyParse *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "parse <grammar> [input...]",
		Short: "Parse each input against the grammar and dump its tree",
		Long: `parse loads a grammar and parses each input against it, dumping the
resulting tree to stdout, one section per input.

The grammar argument is a file path, or the grammar text itself when no
such file exists. A file containing a JSON artifact produced by
'packrat compile' is loaded directly, skipping the description parse.
Each input argument is likewise a file path or the input text itself;
with no input arguments, the input is read from stdin.`,
		Example: `  packrat parse calc.gdl "1 + 2 * 3"
  packrat parse calc.json expr.txt
  printf '1+2' | packrat parse "@INT /[0-9]+/; sum$: INT '+' INT;"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}
	parseFlags.onlyParse = cmd.Flags().Bool("only-parse", false, "when specified, this command suppresses the tree dump and reports only success or failure")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	g, err := readGrammar(args[0])
	if err != nil {
		return err
	}

	inputs := args[1:]
	if len(inputs) == 0 {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		inputs = []string{string(src)}
		root, err := recognizer.Parse(g, inputs[0])
		if err != nil {
			return err
		}
		if !*parseFlags.onlyParse {
			tree.Dump(os.Stdout, root)
		}
		return nil
	}

	failed := false
	for i, in := range inputs {
		src, err := readSource(in)
		if err != nil {
			return err
		}

		if len(inputs) > 1 {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			fmt.Fprintf(os.Stdout, "%v:\n", in)
		}

		root, err := recognizer.Parse(g, src)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
			continue
		}
		if !*parseFlags.onlyParse {
			tree.Dump(os.Stdout, root)
		}
	}

	if failed {
		return fmt.Errorf("one or more inputs failed to parse")
	}
	return nil
}

// readGrammar resolves a grammar argument: a path to a description file,
// a path to a compiled JSON artifact, or the description text itself.
func readGrammar(arg string) (*grammar.Grammar, error) {
	src, err := readSource(arg)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(strings.TrimSpace(src), "{") {
		return decodeGrammar(strings.NewReader(src))
	}
	return gdl.LoadString(src)
}

// readSource returns the contents of the file arg points at, or arg
// itself when no such file exists.
func readSource(arg string) (string, error) {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return arg, nil
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
