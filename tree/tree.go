// Package tree implements the AST produced by the recognizer package:
// the Node type, an indented dump format, child-selection helpers and a
// generic pre/pass/post traversal.
package tree

import (
	"fmt"
	"io"
	"strings"
)

// NoRule is the Rule value of a node that was not built for one specific
// alternative of its nonterminal — a terminal leaf, or a whole-symbol
// emit built directly from a nonterminal application's children.
const NoRule = -1

// Node is one node of a parsed abstract syntax tree. Non-emitted symbols
// never appear as nodes: their children are spliced directly into the
// nearest emitted ancestor.
type Node struct {
	// Symbol is the terminal or nonterminal name this node was built
	// for.
	Symbol string

	// Label is the emit key's label: nil (use Symbol), a string, or a
	// func(*Node) invoked by Walk when no Post hook claims this node.
	Label interface{}

	// Match is the matched input text: the lexeme of a terminal leaf, or
	// the input spanned by a nonterminal node.
	Match string

	// Rule is the alternative index this node was built for, or NoRule.
	Rule int

	Children []*Node
}

// name returns Label if it is a non-empty string, else Symbol.
func (n *Node) name() string {
	if s, ok := n.Label.(string); ok && s != "" {
		return s
	}
	return n.Symbol
}

func (n *Node) String() string {
	s := n.name()
	if n.Rule != NoRule {
		s += fmt.Sprintf("[%d]", n.Rule)
	}
	if len(n.Children) == 0 && n.Match != "" {
		s += fmt.Sprintf(" (%s)", n.Match)
	}
	return s
}

// SelectAll returns every direct child matching symbol, in order.
func (n *Node) SelectAll(symbol string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Symbol == symbol {
			out = append(out, c)
		}
	}
	return out
}

// Select returns the idx-th direct child matching symbol, or nil if there
// is no such child.
func (n *Node) Select(symbol string, idx int) *Node {
	for _, c := range n.Children {
		if c.Symbol != symbol {
			continue
		}
		if idx == 0 {
			return c
		}
		idx--
	}
	return nil
}

// Contains reports whether any direct child matches symbol.
func (n *Node) Contains(symbol string) bool {
	for _, c := range n.Children {
		if c.Symbol == symbol {
			return true
		}
	}
	return false
}

// Dump writes an indented, box-drawn rendering of the tree rooted at n to
// w, one line per node.
func Dump(w io.Writer, n *Node) {
	dump(w, n, "", "")
}

func dump(w io.Writer, n *Node, ruledLine, childPrefix string) {
	if n == nil {
		return
	}

	// A node with neither symbol nor label is an unnamed wrapper (the
	// root built around an un-emitted goal); it prints nothing itself
	// but its children still print.
	if n.Symbol != "" || n.Label != nil {
		fmt.Fprintf(w, "%s%s\n", ruledLine, n.String())
		num := len(n.Children)
		for i, c := range n.Children {
			line := "├─ "
			prefix := "│  "
			if i == num-1 {
				line = "└─ "
				prefix = "   "
			}
			dump(w, c, childPrefix+line, childPrefix+prefix)
		}
		return
	}

	for _, c := range n.Children {
		dump(w, c, ruledLine, childPrefix)
	}
}

// Dumps returns Dump's output as a string.
func Dumps(n *Node) string {
	var sb strings.Builder
	Dump(&sb, n)
	return sb.String()
}
