// Package callgraph builds a caller→callee graph over live methods, breaks
// its cycles deterministically, and schedules bottom-up leaf-layer
// iteration for method-level IR passes.
package callgraph

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mabhi256/r8shrink/internal/graph"
)

// Node is one live method in the call graph.
type Node struct {
	Method *graph.EncodedMethod

	callees map[*Node]bool
	callers map[*Node]bool

	isSelfRecursive bool

	// call-graph traversal coloring for cycle breaking.
	marked  bool
	onStack bool

	invokeCount int // number of distinct call sites invoking this method
}

func newNode(m *graph.EncodedMethod) *Node {
	return &Node{Method: m, callees: make(map[*Node]bool), callers: make(map[*Node]bool)}
}

func (n *Node) Callees() []*Node { return sortedNodes(n.callees) }
func (n *Node) Callers() []*Node { return sortedNodes(n.callers) }
func (n *Node) IsSelfRecursive() bool { return n.isSelfRecursive }

func sortedNodes(set map[*Node]bool) []*Node {
	out := make([]*Node, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method.Ref.String() < out[j].Method.Ref.String() })
	return out
}

// CallGraph is the live-method call graph, with breaker edges recorded
// separately once cycles are broken.
type CallGraph struct {
	mu    sync.Mutex
	nodes map[*graph.EncodedMethod]*Node

	// breakers[caller] is the set of callees whose edge from caller was
	// removed to break a cycle.
	breakers map[*Node]map[*Node]bool
}

func New() *CallGraph {
	return &CallGraph{
		nodes:    make(map[*graph.EncodedMethod]*Node),
		breakers: make(map[*Node]map[*Node]bool),
	}
}

// ensureNode returns the Node for m, creating it if absent. Synchronized
// because Build may be invoked concurrently over several callers' code,
// grounded on CallGraph.java's synchronized ensureMethodNode/addCall.
func (g *CallGraph) ensureNode(m *graph.EncodedMethod) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[m]
	if !ok {
		n = newNode(m)
		g.nodes[m] = n
	}
	return n
}

// AddCall records an edge caller→callee. A self-edge is recorded as the
// is-self-recursive flag rather than a cycle.
func (g *CallGraph) AddCall(caller, callee *graph.EncodedMethod) {
	callerNode := g.ensureNode(caller)
	calleeNode := g.ensureNode(callee)
	g.mu.Lock()
	defer g.mu.Unlock()
	if callerNode == calleeNode {
		callerNode.isSelfRecursive = true
		return
	}
	if !callerNode.callees[calleeNode] {
		callerNode.callees[calleeNode] = true
		calleeNode.callers[callerNode] = true
	}
	calleeNode.invokeCount++
}

// Build creates a node for every live method and records one call for each
// callee that calleesOf returns for it. Build does not look at code or
// resolve dispatch itself; its edges are exactly what calleesOf reports.
func Build(liveMethods []*graph.EncodedMethod, calleesOf func(*graph.EncodedMethod) []*graph.EncodedMethod) *CallGraph {
	g := New()
	for _, m := range liveMethods {
		g.ensureNode(m)
	}
	for _, m := range liveMethods {
		for _, callee := range calleesOf(m) {
			g.AddCall(m, callee)
		}
	}
	return g
}

func (g *CallGraph) Node(m *graph.EncodedMethod) *Node { return g.nodes[m] }

func (g *CallGraph) allNodesSorted() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method.Ref.String() < out[j].Method.Ref.String() })
	return out
}

// BreakCycles runs a DFS with (marked, on-stack) coloring over every node;
// when a back-edge would be formed to an on-stack node, the edge is
// removed and recorded in breakers. Callees are visited in slow-compare
// (sorted) order so cycle breaks are deterministic across runs.
//
// Running BreakCycles a second time removes zero additional edges: once a
// graph is acyclic, no further back-edges remain to break.
func (g *CallGraph) BreakCycles() {
	for _, n := range g.allNodesSorted() {
		if !n.marked {
			g.traverse(n)
		}
	}
}

func (g *CallGraph) traverse(n *Node) {
	n.onStack = true
	for _, callee := range n.Callees() {
		if callee.onStack {
			g.breakEdge(n, callee)
			continue
		}
		if !callee.marked {
			g.traverse(callee)
		}
	}
	n.onStack = false
	n.marked = true
}

func (g *CallGraph) breakEdge(caller, callee *Node) {
	delete(caller.callees, callee)
	delete(callee.callers, caller)
	set := g.breakers[caller]
	if set == nil {
		set = make(map[*Node]bool)
		g.breakers[caller] = set
	}
	set[callee] = true
}

// Breakers returns the set of callees whose edge from caller was removed.
func (g *CallGraph) Breakers(caller *Node) []*Node { return sortedNodes(g.breakers[caller]) }

// ExtractLeaves removes and returns every node with out-degree 0 (no
// remaining callees), updating reverse edges. Repeated calls yield
// successive bottom-up layers; an empty graph yields an empty layer.
func (g *CallGraph) ExtractLeaves() []*Node {
	var leaves []*Node
	for _, n := range g.allNodesSorted() {
		if len(n.callees) == 0 {
			leaves = append(leaves, n)
		}
	}
	for _, leaf := range leaves {
		for _, caller := range leaf.Callers() {
			delete(caller.callees, leaf)
		}
		delete(g.nodes, leaf.Method)
	}
	return leaves
}

// ForEachMethod drains the graph leaf-layer by leaf-layer, running fn over
// every method within a layer in parallel via errgroup: methods in the
// same layer have no edges between them, so nothing serializes them.
func ForEachMethod(g *CallGraph, fn func(*graph.EncodedMethod) error) error {
	for {
		layer := g.ExtractLeaves()
		if len(layer) == 0 {
			break
		}
		eg, _ := errgroup.WithContext(context.Background())
		for _, n := range layer {
			n := n
			eg.Go(func() error { return fn(n.Method) })
		}
		if err := eg.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// FillCallSiteSets computes the single- and double-call-site method sets,
// excluding methods pinned by pinned (surviving due to keep rules): a
// method invoked from exactly one or two call sites is cheap to inline
// without duplicating much code.
func FillCallSiteSets(g *CallGraph, pinned map[*graph.EncodedMethod]bool) (single, double map[*graph.EncodedMethod]bool) {
	single = make(map[*graph.EncodedMethod]bool)
	double = make(map[*graph.EncodedMethod]bool)
	for m, n := range g.nodes {
		if pinned[m] {
			continue
		}
		switch n.invokeCount {
		case 1:
			single[m] = true
		case 2:
			double[m] = true
		}
	}
	return single, double
}

func HasSingleCallSite(single map[*graph.EncodedMethod]bool, m *graph.EncodedMethod) bool { return single[m] }
func HasDoubleCallSite(double map[*graph.EncodedMethod]bool, m *graph.EncodedMethod) bool { return double[m] }
