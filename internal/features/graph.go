package features

import (
	"fmt"
	"sort"
)

// Node names one cached value. The names double as keys in persisted
// records.
type Node string

const (
	PaperROI     Node = "paper_roi"
	PxWidthInMM  Node = "px_width_in_mm"
	PxHeightInMM Node = "px_height_in_mm"
	LeafVertical Node = "leaf_vertical"
	Widths       Node = "widths"
	LeafBox      Node = "leaf_box"
	Height       Node = "height"
	MaxWidth     Node = "max_width"
	WidthRatios  Node = "width_ratios"
	AverageColor Node = "average_color"
	TipAngle     Node = "tip_angle"
	Convexity    Node = "convexity"
	Solidity     Node = "solidity"
	Perimeter    Node = "perimeter"
)

// featureNodes are the nodes GetFeatures reports.
var featureNodes = []Node{Height, MaxWidth, WidthRatios, AverageColor, TipAngle, Convexity, Solidity, Perimeter}

// dependencies declares the direct upstream nodes of every node.
var dependencies = map[Node][]Node{
	PaperROI:     nil,
	PxWidthInMM:  {PaperROI},
	PxHeightInMM: {PaperROI},
	LeafVertical: {PaperROI},
	Widths:       {PaperROI, LeafVertical},
	LeafBox:      {PaperROI, LeafVertical, Widths},
	Height:       {LeafVertical, PxHeightInMM},
	MaxWidth:     {Widths, PxWidthInMM},
	WidthRatios:  {Widths},
	AverageColor: {LeafBox},
	TipAngle:     {PaperROI, LeafBox},
	Convexity:    {LeafBox},
	Solidity:     {PaperROI, LeafBox},
	Perimeter:    {PaperROI, LeafBox, PxWidthInMM, PxHeightInMM},
}

var dag = newGraph(dependencies)

// graph is a directed acyclic graph of nodes with a fixed topological order.
type graph struct {
	deps       map[Node][]Node
	dependents map[Node][]Node
	rank       map[Node]int
	order      []Node
}

// newGraph builds the graph and sorts it topologically. It panics on an
// unknown dependency or a cycle.
func newGraph(deps map[Node][]Node) *graph {
	g := &graph{
		deps:       deps,
		dependents: make(map[Node][]Node, len(deps)),
		rank:       make(map[Node]int, len(deps)),
	}

	indegree := make(map[Node]int, len(deps))
	for n, ups := range deps {
		indegree[n] = len(ups)
		for _, up := range ups {
			if _, ok := deps[up]; !ok {
				panic(fmt.Sprintf("features: %s depends on unknown node %s", n, up))
			}
			g.dependents[up] = append(g.dependents[up], n)
		}
	}

	var ready []Node
	for n, d := range indegree {
		if d == 0 {
			ready = append(ready, n)
		}
	}
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		n := ready[0]
		ready = ready[1:]
		g.rank[n] = len(g.order)
		g.order = append(g.order, n)
		for _, down := range g.dependents[n] {
			if indegree[down]--; indegree[down] == 0 {
				ready = append(ready, down)
			}
		}
	}
	if len(g.order) != len(deps) {
		panic("features: dependency graph has a cycle")
	}
	return g
}

// downstream returns every node that transitively depends on n, in
// topological order. n itself is not included.
func (g *graph) downstream(n Node) []Node {
	all := g.walk([]Node{n}, g.dependents)
	out := all[:0]
	for _, m := range all {
		if m != n {
			out = append(out, m)
		}
	}
	return out
}

func (g *graph) walk(start []Node, edges map[Node][]Node) []Node {
	seen := make(map[Node]bool)
	stack := append([]Node(nil), start...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, edges[n]...)
	}

	out := make([]Node, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	g.sort(out)
	return out
}

// sort orders ns topologically.
func (g *graph) sort(ns []Node) {
	sort.Slice(ns, func(i, j int) bool { return g.rank[ns[i]] < g.rank[ns[j]] })
}

// Downstream lists the nodes whose values depend on n.
func Downstream(n Node) []Node {
	return dag.downstream(n)
}

// Valid reports whether n names a known node.
func Valid(n Node) bool {
	_, ok := dag.deps[n]
	return ok
}

// Nodes lists every node in dependency order.
func Nodes() []Node {
	return append([]Node(nil), dag.order...)
}
