package tree

// Hooks drives Walk. Pre runs before a node's children, Pass runs after
// each child (with that child's index among its siblings), and Post runs
// after all children. All three are keyed by a node's display name
// (Label if set, else Symbol).
type Hooks struct {
	Pre  map[string]func(n *Node)
	Pass map[string]func(n *Node, childIndex int)
	Post map[string]func(n *Node)
}

// Walk traverses the tree rooted at n, calling the matching hooks in
// Hooks at each step. Unnamed wrapper nodes (see Dump) have no hooks of
// their own and are walked straight through to their children.
//
// If a node has no Post hook and its Label is a func(*Node), that
// callable is invoked instead — an emit label may itself be the
// post-processing action.
func Walk(n *Node, h Hooks) {
	if n == nil {
		return
	}

	if n.Symbol == "" && n.Label == nil {
		for _, c := range n.Children {
			Walk(c, h)
		}
		return
	}

	name := n.name()

	if f := h.Pre[name]; f != nil {
		f(n)
	}

	for i, c := range n.Children {
		Walk(c, h)
		if f := h.Pass[name]; f != nil {
			f(n, i)
		}
	}

	if f := h.Post[name]; f != nil {
		f(n)
	} else if f, ok := n.Label.(func(*Node)); ok {
		f(n)
	}
}
