package wto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cubicYYY/SVF/icfg"
)

func connect(a, b *icfg.Node) {
	e := &icfg.Edge{Src: a, Dst: b, Kind: icfg.EdgeIntra}
	a.Out = append(a.Out, e)
	b.In = append(b.In, e)
}

func TestStraightLineIsAllSingletons(t *testing.T) {
	fn := &icfg.Function{Name: "f"}
	n1 := &icfg.Node{ID: 1, Fun: fn}
	n2 := &icfg.Node{ID: 2, Fun: fn}
	n3 := &icfg.Node{ID: 3, Fun: fn}
	connect(n1, n2)
	connect(n2, n3)
	fn.Entry = n1
	fn.Nodes = []*icfg.Node{n1, n2, n3}

	comps := Build(n1)
	assert.Len(t, comps, 3)
	for _, c := range comps {
		_, ok := c.(Singleton)
		assert.True(t, ok)
	}
}

func TestSingleLoopProducesOneCycle(t *testing.T) {
	fn := &icfg.Function{Name: "f"}
	entry := &icfg.Node{ID: 1, Fun: fn}
	head := &icfg.Node{ID: 2, Fun: fn}
	body := &icfg.Node{ID: 3, Fun: fn}
	exit := &icfg.Node{ID: 4, Fun: fn}
	connect(entry, head)
	connect(head, body)
	connect(body, head)
	connect(head, exit)
	fn.Entry = entry
	fn.Nodes = []*icfg.Node{entry, head, body, exit}

	comps := Build(entry)
	var cycles int
	for _, c := range comps {
		if cyc, ok := c.(Cycle); ok {
			cycles++
			assert.Equal(t, head, cyc.Head)
			assert.Len(t, cyc.Body, 1)
		}
	}
	assert.Equal(t, 1, cycles)
}

func TestEdgesAcrossFunctionsAreIgnored(t *testing.T) {
	fnA := &icfg.Function{Name: "a"}
	fnB := &icfg.Function{Name: "b"}
	a1 := &icfg.Node{ID: 1, Fun: fnA}
	bEntry := &icfg.Node{ID: 2, Fun: fnB}
	connect(a1, bEntry) // would only happen via a mis-tagged call edge
	fnA.Entry = a1
	fnA.Nodes = []*icfg.Node{a1}

	comps := Build(a1)
	assert.Len(t, comps, 1)
}
