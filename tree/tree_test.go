package tree

import (
	"strings"
	"testing"
)

func TestSelectAndContains(t *testing.T) {
	n := &Node{
		Symbol: "sum",
		Children: []*Node{
			{Symbol: "INT", Match: "1"},
			{Symbol: "INT", Match: "2"},
			{Symbol: "op", Match: "+"},
		},
	}

	ints := n.SelectAll("INT")
	if len(ints) != 2 {
		t.Fatalf("SelectAll(INT) = %d nodes, want 2", len(ints))
	}
	if n.Select("INT", 1).Match != "2" {
		t.Fatalf("Select(INT, 1).Match = %q, want %q", n.Select("INT", 1).Match, "2")
	}
	if n.Select("INT", 2) != nil {
		t.Fatalf("Select(INT, 2) = %v, want nil", n.Select("INT", 2))
	}
	if !n.Contains("op") {
		t.Fatalf("Contains(op) = false, want true")
	}
	if n.Contains("missing") {
		t.Fatalf("Contains(missing) = true, want false")
	}
}

func TestDumpSkipsUnnamedWrapper(t *testing.T) {
	root := &Node{
		Children: []*Node{
			{Symbol: "expr", Match: "1+2", Rule: NoRule},
		},
	}
	out := Dumps(root)
	if !strings.Contains(out, "expr (1+2)") {
		t.Fatalf("Dumps = %q, want it to contain %q", out, "expr (1+2)")
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("Dumps produced %d lines, want 1 (wrapper root must not print)", strings.Count(out, "\n"))
	}
}

func TestDumpRuleSuffix(t *testing.T) {
	n := &Node{Symbol: "expr", Rule: 1, Children: []*Node{{Symbol: "term", Match: "x"}}}
	out := Dumps(n)
	if !strings.HasPrefix(out, "expr[1]") {
		t.Fatalf("Dumps = %q, want prefix %q", out, "expr[1]")
	}
}

func TestWalkOrdering(t *testing.T) {
	var events []string

	leaf := func(name string) *Node { return &Node{Symbol: name, Match: name} }
	root := &Node{
		Symbol: "sum",
		Children: []*Node{
			leaf("a"),
			leaf("b"),
		},
	}

	Walk(root, Hooks{
		Pre: map[string]func(n *Node){
			"sum": func(n *Node) { events = append(events, "pre:sum") },
			"a":   func(n *Node) { events = append(events, "pre:a") },
			"b":   func(n *Node) { events = append(events, "pre:b") },
		},
		Pass: map[string]func(n *Node, i int){
			"sum": func(n *Node, i int) { events = append(events, "pass:sum") },
		},
		Post: map[string]func(n *Node){
			"sum": func(n *Node) { events = append(events, "post:sum") },
		},
	})

	want := "pre:sum pre:a pass:sum pre:b pass:sum post:sum"
	if got := strings.Join(events, " "); got != want {
		t.Fatalf("Walk order = %q, want %q", got, want)
	}
}

func TestWalkLabelFallback(t *testing.T) {
	called := false
	n := &Node{
		Symbol: "x",
		Label:  func(*Node) { called = true },
	}
	Walk(n, Hooks{})
	if !called {
		t.Fatalf("Walk did not invoke the Label callable when no Post hook was registered")
	}
}
