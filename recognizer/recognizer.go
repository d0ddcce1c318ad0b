// Package recognizer implements the modified packrat recognizer: ordered
// choice with memoization, whitespace skipping between symbols, and the
// Warth/Douglass/Millstein seed-and-grow algorithm for left recursion.
// Parse is the sole entry point; everything else in this package exists
// to serve one call to it.
package recognizer

import (
	"strings"

	"github.com/elifletcher/packrat/errs"
	"github.com/elifletcher/packrat/grammar"
	"github.com/elifletcher/packrat/tree"
)

// key identifies one memoized application of a nonterminal at an offset.
type key struct {
	nterm string
	off   int
}

// lrRecord is the sentinel installed in the memo the first time a
// nonterminal is applied at a given offset, so a second, nested
// application at the same (nterm, off) can detect it is left-recursing
// instead of diverging.
type lrRecord struct {
	nterm string
	seed  *memoEntry
	head  *headRecord
}

// headRecord names the left-recursion cycle active at one input offset:
// the "head" nonterminal responsible for growing the seed, and the set
// of nonterminals that participate in the cycle.
type headRecord struct {
	nterm    string
	involved []string
	evaluate map[string]bool
}

// memoEntry is one memo slot: either an in-progress left-recursion
// sentinel (lr != nil) or a settled result (ok reports success; seq/alt
// are meaningful only when ok is true).
type memoEntry struct {
	lr  *lrRecord
	seq []*tree.Node
	alt int
	ok  bool
	pos int
}

func (e *memoEntry) inProgress() bool { return e.lr != nil }

type parser struct {
	g         *grammar.Grammar
	input     string
	memo      map[key]*memoEntry
	lrstack   []*lrRecord
	heads     map[int]*headRecord
	maxOffset int
}

// Parse runs the recognizer for g over input and returns the resulting
// AST. On failure, the returned error is an *errs.ParseError carrying the
// offset, line, column and unconsumed tail of the longest reach any
// nonterminal application made during the attempt.
func Parse(g *grammar.Grammar, input string) (*tree.Node, error) {
	p := &parser{
		g:     g,
		input: input,
		memo:  map[key]*memoEntry{},
		heads: map[int]*headRecord{},
	}

	entry := p.apply(g.Goal, 0)

	if !entry.ok || entry.pos < len(input) {
		last := p.maxOffset
		if entry.ok && entry.pos > last {
			last = entry.pos
		}
		return nil, errs.NewParseError(input, last)
	}

	if label, ruleTag, emitted := p.emitDecision(g.Goal, entry.alt); emitted {
		return &tree.Node{
			Symbol:   g.Goal,
			Label:    label,
			Match:    input[:entry.pos],
			Rule:     ruleTag,
			Children: entry.seq,
		}, nil
	}

	return &tree.Node{Children: entry.seq}, nil
}

// emitDecision resolves the override rule: an emit key naming the
// alternative that actually fired always wins over a whole-nonterminal
// emit key for the same occurrence.
func (p *parser) emitDecision(name string, alt int) (grammar.Label, int, bool) {
	if alt >= 0 {
		if lbl, ok := p.g.Emits[grammar.EmitKey{Name: name, Alt: alt}]; ok {
			return lbl, alt, true
		}
	}
	if lbl, ok := p.g.Emits[grammar.EmitKey{Name: name, Alt: -1}]; ok {
		return lbl, tree.NoRule, true
	}
	return nil, tree.NoRule, false
}

// apply applies nterm at off, consulting and updating the memo. It is
// the only recursive entry into the recognizer.
func (p *parser) apply(nterm string, off int) *memoEntry {
	if off > p.maxOffset {
		p.maxOffset = off
	}

	entry := p.recall(nterm, off)

	if entry == nil {
		lr := &lrRecord{nterm: nterm}
		p.lrstack = append(p.lrstack, lr)

		sentinel := &memoEntry{lr: lr, pos: off}
		p.memo[key{nterm, off}] = sentinel

		seq, alt, pos, ok := p.consume(nterm, off)

		p.lrstack = p.lrstack[:len(p.lrstack)-1]

		sentinel.pos = pos

		if lr.head != nil {
			lr.seed = &memoEntry{seq: seq, alt: alt, ok: ok, pos: pos}
			return p.lrAnswer(sentinel, nterm, off)
		}

		sentinel.lr = nil
		sentinel.ok = ok
		sentinel.seq = seq
		sentinel.alt = alt
		return sentinel
	}

	if entry.inProgress() {
		p.lrStart(entry)
		seed := entry.lr.seed
		if seed == nil {
			return &memoEntry{ok: false, pos: entry.pos}
		}
		return &memoEntry{seq: seed.seq, alt: seed.alt, ok: seed.ok, pos: entry.pos}
	}

	return entry
}

// lrStart records that every nonterminal on the LR stack above the
// original sentinel for this cycle shares one Head, the record that
// drives seed growth once the recursion unwinds back to it.
func (p *parser) lrStart(entry *memoEntry) {
	lr := entry.lr
	if lr.head == nil {
		lr.head = &headRecord{nterm: lr.nterm}
	}

	for i := len(p.lrstack) - 1; i >= 0; i-- {
		item := p.lrstack[i]
		if item.head == lr.head {
			break
		}
		item.head = lr.head
		lr.head.involved = append(lr.head.involved, item.nterm)
	}
}

// lrAnswer unwinds the sentinel for the nonterminal that owns this
// recursion's Head into either a plain propagated seed (when some other,
// outer nonterminal is the actual head) or the start of seed growth.
func (p *parser) lrAnswer(entry *memoEntry, nterm string, off int) *memoEntry {
	lr := entry.lr
	head := lr.head
	seed := lr.seed

	if head.nterm != nterm {
		return &memoEntry{seq: seed.seq, alt: seed.alt, ok: seed.ok, pos: entry.pos}
	}

	entry.lr = nil
	entry.ok = seed.ok
	entry.seq = seed.seq
	entry.alt = seed.alt

	if !seed.ok {
		return &memoEntry{ok: false, pos: entry.pos}
	}

	return p.lrGrow(entry, head, nterm, off)
}

// lrGrow is the seed-growth fixed-point loop: re-run consume at off with
// the head active, keeping a re-derivation only if it strictly advances
// past the previous end offset, until growth stalls. Strict advancement
// bounds the loop by the input length.
func (p *parser) lrGrow(entry *memoEntry, head *headRecord, nterm string, off int) *memoEntry {
	p.heads[off] = head

	for {
		head.evaluate = map[string]bool{}
		for _, n := range head.involved {
			head.evaluate[n] = true
		}

		seq, alt, pos, ok := p.consume(nterm, off)
		if !ok || pos <= entry.pos {
			break
		}

		entry.seq = seq
		entry.alt = alt
		entry.ok = true
		entry.pos = pos
	}

	delete(p.heads, off)
	return entry
}

// recall looks up the memo entry for (nterm, off). While a head is
// active at off, nonterminals outside the recursion cycle that have no
// memo entry yet fail immediately without polluting the memo, and cycle
// members still
// flagged for re-evaluation are consumed again so the growing seed can
// reach them.
func (p *parser) recall(nterm string, off int) *memoEntry {
	entry := p.memo[key{nterm, off}]
	head, hasHead := p.heads[off]

	if !hasHead {
		return entry
	}

	if entry == nil && nterm != head.nterm && !containsString(head.involved, nterm) {
		return &memoEntry{ok: false, pos: off}
	}

	if head.evaluate[nterm] {
		delete(head.evaluate, nterm)
		if entry == nil {
			entry = &memoEntry{pos: off}
			p.memo[key{nterm, off}] = entry
		}
		seq, alt, pos, ok := p.consume(nterm, off)
		entry.lr = nil
		entry.seq = seq
		entry.alt = alt
		entry.ok = ok
		entry.pos = pos
	}

	return entry
}

// consume tries each alternative of nterm in order, starting at off: the
// first alternative whose symbols all succeed wins; later alternatives
// are never attempted.
func (p *parser) consume(nterm string, off int) (seq []*tree.Node, alt int, pos int, ok bool) {
	nt := p.g.Nonterminals[nterm]

	for altIdx, production := range nt.Alternatives {
		cur := off
		var built []*tree.Node
		success := true

		for _, ref := range production.Symbols {
			cur = p.scanWhitespace(cur)

			switch ref.Kind {
			case grammar.SymTerminal:
				n := p.scanTerminal(ref.Name, cur)
				if n < 0 {
					success = false
					break
				}
				if label, emitted := p.g.EmitTerminal(ref.Name); emitted {
					built = append(built, &tree.Node{
						Symbol: ref.Name,
						Label:  label,
						Match:  p.input[cur : cur+n],
						Rule:   tree.NoRule,
					})
				}
				cur += n

			case grammar.SymLiteral:
				if !strings.HasPrefix(p.input[cur:], ref.Literal) {
					success = false
					break
				}
				cur += len(ref.Literal)

			case grammar.SymNonterminal:
				child := p.apply(ref.Name, cur)
				if !child.ok {
					success = false
					break
				}
				if label, ruleTag, emitted := p.emitDecision(ref.Name, child.alt); emitted {
					built = append(built, &tree.Node{
						Symbol:   ref.Name,
						Label:    label,
						Match:    p.input[cur:child.pos],
						Rule:     ruleTag,
						Children: child.seq,
					})
				} else {
					built = append(built, child.seq...)
				}
				cur = child.pos
			}

			if !success {
				break
			}
		}

		if !success {
			continue
		}

		cur = p.scanWhitespace(cur)
		return built, altIdx, cur, true
	}

	return nil, -1, off, false
}

func (p *parser) scanTerminal(name string, pos int) int {
	if pos > len(p.input) {
		return -1
	}
	t := p.g.Terminals[name]
	return t.Matcher.Match(p.input, pos)
}

// scanWhitespace advances pos past every ignore terminal it can match,
// trying the ignore list in order and restarting from the first one
// after each successful skip, until a full pass matches nothing.
func (p *parser) scanWhitespace(pos int) int {
	for {
		advanced := false
		for _, name := range p.g.Ignores {
			n := p.scanTerminal(name, pos)
			if n > 0 {
				pos += n
				advanced = true
				break
			}
		}
		if !advanced {
			return pos
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
