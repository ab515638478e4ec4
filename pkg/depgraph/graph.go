package depgraph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vup-linux/vuru/pkg/resolve"
)

var (
	// ErrEmptyNodeName is returned by AddNode when the node name is
	// empty. All nodes must have non-empty names.
	ErrEmptyNodeName = errors.New("node name must not be empty")

	// ErrDuplicateNode is returned by AddNode when a node with the same
	// name already exists in the graph.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrUnknownNode is returned by AddEdge when an endpoint has not
	// been added to the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrCycle is returned by Validate and TopoSort when the graph
	// contains a dependency cycle.
	ErrCycle = errors.New("graph contains a cycle")
)

// Node is one package in the dependency graph.
type Node struct {
	Name   string
	Label  string // display label, defaults to Name
	Source string // resolution source kind, drives styling
}

// DisplayLabel returns the label if set, otherwise the name.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Name
}

// Edge is a directed dependency: From needs To.
type Edge struct {
	From string
	To   string
}

// Graph is a directed dependency graph keyed by package name.
//
// The zero value is not usable; call New. Graph is not safe for
// concurrent use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	order    []string // node names in insertion order
	edges    []Edge
	edgeSet  map[Edge]bool
	outgoing map[string][]string // name -> dependency names
	incoming map[string][]string // name -> dependent names
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		edgeSet:  make(map[Edge]bool),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Returns ErrEmptyNodeName if the
// name is empty, or ErrDuplicateNode if the name is already taken.
func (g *Graph) AddNode(n Node) error {
	if n.Name == "" {
		return ErrEmptyNodeName
	}
	if _, exists := g.nodes[n.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name)
	}
	node := &n
	g.nodes[node.Name] = node
	g.order = append(g.order, node.Name)
	return nil
}

// AddEdge records that from depends on to. Both endpoints must already
// be in the graph. Re-adding an identical edge is a no-op, so diamond
// dependencies collapse naturally.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}
	e := Edge{From: from, To: to}
	if g.edgeSet[e] {
		return nil
	}
	g.edgeSet[e] = true
	g.edges = append(g.edges, e)
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return nil
}

// Node returns the named node and true, or nil and false if not found.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes in insertion order. The returned slice
// contains pointers to the actual node structs.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Dependencies returns the names that name depends on, in insertion
// order. The returned slice is a read-only view.
func (g *Graph) Dependencies(name string) []string { return g.outgoing[name] }

// Dependents returns the names that depend on name, in insertion
// order. The returned slice is a read-only view.
func (g *Graph) Dependents(name string) []string { return g.incoming[name] }

// Validate returns ErrCycle if the graph contains a dependency cycle,
// nil otherwise. Detection runs depth first with white/gray/black
// coloring in O(N+E) time.
func (g *Graph) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var cycle bool

	var dfs func(name string)
	dfs = func(name string) {
		color[name] = gray
		for _, dep := range g.outgoing[name] {
			switch color[dep] {
			case white:
				dfs(dep)
			case gray:
				cycle = true
				return
			}
		}
		color[name] = black
	}

	for _, name := range g.order {
		if color[name] == white {
			dfs(name)
			if cycle {
				return ErrCycle
			}
		}
	}
	return nil
}

// TopoSort returns the node names ordered so that every dependency
// precedes its dependents. Ties break lexicographically, making the
// order stable across runs. Returns ErrCycle when no such order
// exists.
func (g *Graph) TopoSort() ([]string, error) {
	remaining := make(map[string]int, len(g.nodes))
	var ready []string
	for _, name := range g.order {
		remaining[name] = len(g.outgoing[name])
		if remaining[name] == 0 {
			ready = append(ready, name)
		}
	}
	slices.Sort(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, dependent := range g.incoming[name] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		slices.Sort(ready)
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}
	return order, nil
}

// FromResolution builds a Graph from a resolution: one node per
// discovered package, missing names included, plus every recorded
// dependency edge.
func FromResolution(res *resolve.Resolution) (*Graph, error) {
	g := New()
	for _, pkg := range res.ToInstall {
		if err := g.AddNode(nodeFor(pkg)); err != nil {
			return nil, err
		}
	}
	for _, pkg := range res.ToBuild {
		if err := g.AddNode(nodeFor(pkg)); err != nil {
			return nil, err
		}
	}
	for _, name := range res.Satisfied {
		if err := g.AddNode(Node{Name: name, Source: string(resolve.SourceAlreadyInstalled)}); err != nil {
			return nil, err
		}
	}
	for _, name := range res.Missing {
		if err := g.AddNode(Node{Name: name, Source: string(resolve.SourceUnresolved)}); err != nil {
			return nil, err
		}
	}
	for _, e := range res.Edges {
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func nodeFor(pkg resolve.ResolvedPackage) Node {
	label := pkg.Name
	if pkg.Version != "" {
		label = pkg.Name + "-" + pkg.Version
	}
	return Node{Name: pkg.Name, Label: label, Source: string(pkg.Source)}
}
