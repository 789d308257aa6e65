package callgraph

import (
	"testing"

	"github.com/mabhi256/r8shrink/internal/graph"
)

func makeMethod(f *graph.Factory, holder, name string) *graph.EncodedMethod {
	t := f.CreateType(holder)
	n := f.CreateString([]byte(name))
	proto := f.CreateProto(f.CreateString([]byte("V")), nil)
	return &graph.EncodedMethod{Ref: f.CreateMethod(t, n, proto)}
}

// TestBreakCyclesFourNodeCycle builds a 4-node cycle a->b->c->d->a. Expects
// exactly one edge removed and all four methods returned by repeated leaf
// extraction.
func TestBreakCyclesFourNodeCycle(t *testing.T) {
	f := graph.NewFactory()
	a := makeMethod(f, "LA;", "a")
	b := makeMethod(f, "LB;", "b")
	c := makeMethod(f, "LC;", "c")
	d := makeMethod(f, "LD;", "d")

	g := New()
	g.AddCall(a, b)
	g.AddCall(b, c)
	g.AddCall(c, d)
	g.AddCall(d, a)

	g.BreakCycles()

	totalBreakers := 0
	for _, n := range g.nodes {
		totalBreakers += len(g.Breakers(n))
	}
	if totalBreakers != 1 {
		t.Fatalf("expected exactly one broken edge, got %d", totalBreakers)
	}

	var allLeaves []*Node
	for {
		layer := g.ExtractLeaves()
		if len(layer) == 0 {
			break
		}
		allLeaves = append(allLeaves, layer...)
	}
	if len(allLeaves) != 4 {
		t.Fatalf("expected all 4 methods to be eventually extracted as leaves, got %d", len(allLeaves))
	}
}

func TestBreakCyclesIsIdempotent(t *testing.T) {
	f := graph.NewFactory()
	a := makeMethod(f, "LA;", "a")
	b := makeMethod(f, "LB;", "b")
	g := New()
	g.AddCall(a, b)
	g.AddCall(b, a)

	g.BreakCycles()
	first := 0
	for _, n := range g.nodes {
		first += len(g.Breakers(n))
	}

	g.BreakCycles()
	second := 0
	for _, n := range g.nodes {
		second += len(g.Breakers(n))
	}
	if second != first {
		t.Fatalf("expected a second BreakCycles pass to remove zero additional edges, first=%d second=%d", first, second)
	}
}

func TestSelfRecursiveEdgeIsNotACycle(t *testing.T) {
	f := graph.NewFactory()
	a := makeMethod(f, "LA;", "a")
	g := New()
	g.AddCall(a, a)

	node := g.Node(a)
	if !node.IsSelfRecursive() {
		t.Fatalf("expected self-call to set IsSelfRecursive")
	}
	if len(node.Callees()) != 0 {
		t.Fatalf("expected self-call to not create a callee edge")
	}
}
