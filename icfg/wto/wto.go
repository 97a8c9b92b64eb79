// Package wto builds and represents a weak topological ordering of an
// ICFG function, per Bourdoncle's 1993 algorithm. WTOEngine (package
// engine) walks the Component list this package produces; building that
// list from an arbitrary function is a supporting graph utility, not part
// of the widening/narrowing critical path — see SPEC_FULL.md §3.
package wto

import "github.com/cubicYYY/SVF/icfg"

// Component is either a Singleton wrapping one node, or a Cycle with a
// distinguished head and a nested body.
type Component interface {
	isComponent()
}

// Singleton wraps a single ICFG node visited exactly once per pass.
type Singleton struct {
	Node *icfg.Node
}

func (Singleton) isComponent() {}

// Cycle is a loop: Head is visited first on every iteration, then Body is
// walked; WTOEngine iterates the whole cycle until widening then
// narrowing reach a fixpoint at Head.
type Cycle struct {
	Head *icfg.Node
	Body []Component
}

func (Cycle) isComponent() {}

const infDfn = 1 << 30

type builder struct {
	dfn   map[*icfg.Node]int
	num   int
	stack []*icfg.Node
}

// Build computes the WTO of the function reachable from entry, following
// only intra-procedural edges within that function.
func Build(entry *icfg.Node) []Component {
	b := &builder{dfn: map[*icfg.Node]int{}}
	var partition []Component
	b.visit(entry, &partition)
	return partition
}

func (b *builder) successors(v *icfg.Node) []*icfg.Node {
	var out []*icfg.Node
	for _, e := range v.Out {
		if e.Kind != icfg.EdgeIntra {
			continue
		}
		if e.Dst.Fun != v.Fun {
			continue
		}
		out = append(out, e.Dst)
	}
	return out
}

func (b *builder) pop() *icfg.Node {
	n := len(b.stack) - 1
	v := b.stack[n]
	b.stack = b.stack[:n]
	return v
}

// visit implements Bourdoncle's recursive component construction; it
// returns the smallest dfn reachable from v (the "head" value used to
// detect whether v roots a cycle).
func (b *builder) visit(v *icfg.Node, partition *[]Component) int {
	b.stack = append(b.stack, v)
	b.num++
	b.dfn[v] = b.num
	head := b.dfn[v]
	loop := false

	for _, w := range b.successors(v) {
		var min int
		if b.dfn[w] == 0 {
			min = b.visit(w, partition)
		} else {
			min = b.dfn[w]
		}
		if min < head {
			head = min
		}
		if min <= b.dfn[v] {
			loop = true
		}
	}

	if head == b.dfn[v] {
		b.dfn[v] = infDfn
		elem := b.pop()
		if loop {
			for elem != v {
				b.dfn[elem] = 0
				elem = b.pop()
			}
			body := b.component(v)
			*partition = append([]Component{Cycle{Head: v, Body: body}}, *partition...)
		} else {
			*partition = append([]Component{Singleton{Node: v}}, *partition...)
		}
	}
	return head
}

// component builds the nested body of the cycle rooted at v: every
// successor of v not yet assigned a dfn is visited into a fresh
// partition, which becomes the cycle's body.
func (b *builder) component(v *icfg.Node) []Component {
	var body []Component
	for _, w := range b.successors(v) {
		if b.dfn[w] == 0 {
			b.visit(w, &body)
		}
	}
	return body
}
