package graph

import (
	"fmt"
	"reflect"
	"testing"
)

func benchGraph() *Graph {
	g := New()
	g.Build([]Edge{
		{Source: "Bench Press", Relation: "targets", Target: "Chest"},
		{Source: "Bench Press", Relation: "uses", Target: "Barbell"},
		{Source: "Chest", Relation: "part_of", Target: "Upper Body"},
	})
	return g
}

func TestQueryFindsBenchPressEvidence(t *testing.T) {
	g := benchGraph()
	res := g.Query("How does the bench press relate to the upper body?", 2)

	if !containsString(res.MatchedNodes, "Bench Press") {
		t.Fatalf("matched nodes %v missing Bench Press", res.MatchedNodes)
	}

	wantPath := []string{"Bench Press", "Chest", "Upper Body"}
	found := false
	for _, p := range res.Paths {
		if reflect.DeepEqual(p, wantPath) {
			found = true
		}
	}
	if !found {
		t.Errorf("paths %v missing %v", res.Paths, wantPath)
	}

	for _, p := range res.Paths {
		if len(p) < 2 || len(p) > 3 {
			t.Errorf("path %v has %d nodes, want between 2 and max_hops+1=3", p, len(p))
		}
	}
}

func TestQueryEdgesComeFromMatchedNodes(t *testing.T) {
	g := benchGraph()
	res := g.Query("bench press", 2)

	wantEdge := Edge{Source: "Bench Press", Relation: "targets", Target: "Chest"}
	found := false
	for _, e := range res.Edges {
		if e == wantEdge {
			found = true
		}
	}
	if !found {
		t.Errorf("edges %v missing %v", res.Edges, wantEdge)
	}
}

func TestQueryMatchedNodesCapped(t *testing.T) {
	g := New()
	for i := 0; i < 20; i++ {
		g.AddEdge(Edge{
			Source:   fmt.Sprintf("Press Variation %d", i),
			Relation: "targets",
			Target:   "Chest",
		})
	}
	res := g.Query("press", 2)
	if len(res.MatchedNodes) > 5 {
		t.Errorf("got %d matched nodes, want at most 5", len(res.MatchedNodes))
	}
	if len(res.Edges) > 20 {
		t.Errorf("got %d edges, want at most 20", len(res.Edges))
	}
	if len(res.Paths) > 5 {
		t.Errorf("got %d paths, want at most 5", len(res.Paths))
	}
}

func TestQueryShortTokensIgnored(t *testing.T) {
	g := benchGraph()
	// All tokens have length <= 2 after punctuation trimming.
	res := g.Query("a of to!", 2)
	if len(res.MatchedNodes) != 0 || len(res.Edges) != 0 || len(res.Paths) != 0 {
		t.Errorf("expected empty result for short-token query, got %+v", res)
	}
}

func TestQueryEmptyGraph(t *testing.T) {
	g := New()
	res := g.Query("bench press", 2)
	if len(res.MatchedNodes) != 0 || len(res.Edges) != 0 || len(res.Paths) != 0 {
		t.Errorf("expected empty result on empty graph, got %+v", res)
	}
}

func TestAddEdgeDeduplicatesNormalized(t *testing.T) {
	g := New()
	g.AddEdge(Edge{Source: "Squat", Relation: "targets", Target: "Quads"})
	g.AddEdge(Edge{Source: "  squat ", Relation: "TARGETS", Target: "quads"})
	if g.EdgeCount() != 1 {
		t.Errorf("got %d edges, want 1 (normalized duplicate dropped)", g.EdgeCount())
	}
}

func TestNodeIdentityKeepsOriginalCase(t *testing.T) {
	g := New()
	g.AddEdge(Edge{Source: "Chest", Relation: "part_of", Target: "Upper Body"})
	g.AddEdge(Edge{Source: "chest", Relation: "includes", Target: "Pecs"})
	// "Chest" and "chest" are distinct stored nodes; normalization applies to
	// matching and dedup only.
	if g.NodeCount() != 4 {
		t.Errorf("got %d nodes, want 4", g.NodeCount())
	}
}

func TestAddEdgeDefaultsRelation(t *testing.T) {
	g := New()
	g.AddEdge(Edge{Source: "Sleep", Target: "Recovery"})
	res := g.Query("sleep", 2)
	if len(res.Edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(res.Edges))
	}
	if res.Edges[0].Relation != DefaultRelation {
		t.Errorf("got relation %q, want %q", res.Edges[0].Relation, DefaultRelation)
	}
}

func TestSelfLoopPermitted(t *testing.T) {
	g := New()
	g.AddEdge(Edge{Source: "Recovery", Relation: "reinforces", Target: "Recovery"})
	if g.EdgeCount() != 1 || g.NodeCount() != 1 {
		t.Errorf("got %d edges %d nodes, want 1 and 1", g.EdgeCount(), g.NodeCount())
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
