// Package visualize renders a database's View/Collection dependency graph (registry.Database's
// DependencyEdges) as a Graphviz DOT or Mermaid flowchart diagram - useful for inspecting the
// chain-reaction graph a set of live views has built up.
package visualize

import (
	"sort"

	"github.com/emicklei/dot"
)

// NodeKind distinguishes a plain Collection from a View in the rendered graph.
type NodeKind int

const (
	CollectionNode NodeKind = iota
	ViewNode
)

// Node is one vertex of the dependency graph: a named Collection or View.
type Node struct {
	Name  string
	Kind  NodeKind
	Bound bool // for a View: whether it currently has a live source
}

// Edge is a source -> dependent edge: source feeds dependent via a ReactorIO.
type Edge struct {
	From string
	To   string
}

// Graph is the dependency graph of a database: every registered Collection and View, and the
// edges recording which views are derived from which sources.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// NewGraph builds a Graph from the given nodes (name -> kind/bound) and the edge map a
// registry.Database's DependencyEdges returns.
func NewGraph(nodes map[string]Node, edges map[string][]string) *Graph {
	g := &Graph{}
	for _, n := range nodes {
		g.Nodes = append(g.Nodes, n)
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].Name < g.Nodes[j].Name })

	for from, tos := range edges {
		for _, to := range tos {
			g.Edges = append(g.Edges, Edge{From: from, To: to})
		}
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
	return g
}

// BuildDotGraph renders g as a dot.Graph, distinguishing collections (green ellipses) from views
// (blue rounded boxes, dashed outline when unbound).
func BuildDotGraph(g *Graph) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "LR")
	graph.Attr("fontsize", "16")

	nodes := make(map[string]dot.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		dn := graph.Node(n.Name).Attr("fontname", "helvetica")
		switch n.Kind {
		case CollectionNode:
			dn = dn.Attr("label", n.Name).
				Attr("shape", "ellipse").
				Attr("style", "filled").
				Attr("fillcolor", "lightgreen")
		case ViewNode:
			style := "filled,rounded"
			if !n.Bound {
				style += ",dashed"
			}
			dn = dn.Attr("label", n.Name).
				Attr("shape", "box").
				Attr("style", style).
				Attr("fillcolor", "lightblue").
				Attr("color", "darkblue")
		}
		nodes[n.Name] = dn
	}

	for _, e := range g.Edges {
		from, ok1 := nodes[e.From]
		to, ok2 := nodes[e.To]
		if ok1 && ok2 {
			graph.Edge(from, to)
		}
	}

	return graph
}
