package depgraph

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vup-linux/vuru/pkg/resolve"
)

func buildGraph(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, n := range nodes {
		if err := g.AddNode(Node{Name: n}); err != nil {
			t.Fatalf("AddNode(%s): %v", n, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNodeValidation(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{}); !errors.Is(err, ErrEmptyNodeName) {
		t.Errorf("empty name error = %v, want %v", err, ErrEmptyNodeName)
	}
	if err := g.AddNode(Node{Name: "a"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(Node{Name: "a"}); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate error = %v, want %v", err, ErrDuplicateNode)
	}
}

func TestAddEdgeUnknownNode(t *testing.T) {
	g := buildGraph(t, []string{"a"}, nil)
	if err := g.AddEdge("a", "b"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown target error = %v, want %v", err, ErrUnknownNode)
	}
	if err := g.AddEdge("b", "a"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown source error = %v, want %v", err, ErrUnknownNode)
	}
}

func TestAddEdgeDedup(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})
	if g.EdgeCount() != 1 {
		t.Errorf("edge count = %d, want 1", g.EdgeCount())
	}
	if deps := g.Dependencies("a"); !reflect.DeepEqual(deps, []string{"b"}) {
		t.Errorf("dependencies = %v, want [b]", deps)
	}
}

func TestValidate(t *testing.T) {
	acyclic := buildGraph(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}},
	)
	if err := acyclic.Validate(); err != nil {
		t.Errorf("Validate on acyclic graph: %v", err)
	}

	cyclic := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	if err := cyclic.Validate(); !errors.Is(err, ErrCycle) {
		t.Errorf("Validate on cyclic graph = %v, want %v", err, ErrCycle)
	}
}

func TestTopoSortDependenciesFirst(t *testing.T) {
	g := buildGraph(t,
		[]string{"app", "liba", "libb", "libc"},
		[][2]string{{"app", "liba"}, {"app", "libb"}, {"liba", "libc"}, {"libb", "libc"}},
	)
	order, err := g.TopoSort()
	if err != nil {
		t.Fatalf("TopoSort: %v", err)
	}
	want := []string{"libc", "liba", "libb", "app"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestTopoSortLexicalTieBreak(t *testing.T) {
	g := buildGraph(t, []string{"zeta", "alpha", "mid"}, nil)
	order, err := g.TopoSort()
	if err != nil {
		t.Fatalf("TopoSort: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestTopoSortCycle(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	if _, err := g.TopoSort(); !errors.Is(err, ErrCycle) {
		t.Errorf("TopoSort = %v, want %v", err, ErrCycle)
	}
}

func TestFromResolution(t *testing.T) {
	res := &resolve.Resolution{
		Target: "app",
		Arch:   "x86_64",
		ToInstall: []resolve.ResolvedPackage{
			{Name: "app", Version: "1.0_1", Source: resolve.SourceCommunityBinary},
			{Name: "ncurses", Version: "6.5_1", Source: resolve.SourceSystemRepo, Depth: 1},
		},
		ToBuild: []resolve.ResolvedPackage{
			{Name: "vuru-theme", Version: "1.0_1", Source: resolve.SourceCommunitySource, Depth: 1},
		},
		Satisfied: []string{"zlib"},
		Missing:   []string{"ghost"},
		Edges: []resolve.Edge{
			{From: "app", To: "ncurses"},
			{From: "app", To: "vuru-theme"},
			{From: "app", To: "zlib"},
			{From: "app", To: "ghost"},
		},
	}

	g, err := FromResolution(res)
	if err != nil {
		t.Fatalf("FromResolution: %v", err)
	}
	if g.NodeCount() != 5 {
		t.Errorf("node count = %d, want 5", g.NodeCount())
	}
	if g.EdgeCount() != 4 {
		t.Errorf("edge count = %d, want 4", g.EdgeCount())
	}

	app, ok := g.Node("app")
	if !ok {
		t.Fatal("app node missing")
	}
	if app.Label != "app-1.0_1" {
		t.Errorf("app label = %q, want app-1.0_1", app.Label)
	}

	ghost, ok := g.Node("ghost")
	if !ok {
		t.Fatal("ghost node missing")
	}
	if ghost.Source != string(resolve.SourceUnresolved) {
		t.Errorf("ghost source = %q, want %q", ghost.Source, resolve.SourceUnresolved)
	}

	if deps := g.Dependencies("app"); len(deps) != 4 {
		t.Errorf("app dependencies = %v, want 4 entries", deps)
	}
}

func TestToDOT(t *testing.T) {
	g := New()
	nodes := []Node{
		{Name: "app", Label: "app-1.0_1", Source: string(resolve.SourceCommunityBinary)},
		{Name: "ghost", Source: string(resolve.SourceUnresolved)},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := g.AddEdge("app", "ghost"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	dot := ToDOT(g, Options{})
	for _, want := range []string{
		"digraph deps {",
		`"app" [label="app-1.0_1", fillcolor=lightblue];`,
		`"ghost" [label="ghost", style="rounded,filled,dashed", fillcolor=mistyrose, color=red];`,
		`"app" -> "ghost";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{Name: "app", Label: "app-1.0_1", Source: "community"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	dot := ToDOT(g, Options{Detailed: true})
	if !strings.Contains(dot, `label="app-1.0_1\ncommunity"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}
