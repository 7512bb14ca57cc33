package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nidhogg/gym-advisor/internal/graph"
	"github.com/nidhogg/gym-advisor/internal/retrieval"
	"github.com/nidhogg/gym-advisor/internal/tfidf"
	"go.uber.org/zap"
)

// fakeRemoteGraph stands in for the Neo4j client.
type fakeRemoteGraph struct {
	res   *graph.Result
	err   error
	calls int
}

func (f *fakeRemoteGraph) QueryEdges(context.Context, string, int) (*graph.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func newLocalGraph() *graph.Graph {
	g := graph.New()
	g.Build([]graph.Edge{
		{Source: "Bench Press", Relation: "targets", Target: "Chest"},
		{Source: "Chest", Relation: "part_of", Target: "Upper Body"},
	})
	return g
}

func graphItems(t *testing.T, sources []Source) map[string]any {
	t.Helper()
	if len(sources) != 1 || sources[0].Type != "retrieval_graph" {
		t.Fatalf("got sources %+v, want one retrieval_graph entry", sources)
	}
	items, ok := sources[0].Items.(map[string]any)
	if !ok {
		t.Fatalf("got items %T, want map", sources[0].Items)
	}
	return items
}

func TestDispatchRemoteGraphFailureFallsBackToLocal(t *testing.T) {
	remote := &fakeRemoteGraph{err: errors.New("bolt connection refused")}
	d := NewDispatcher(DispatcherConfig{
		LocalGraph:  newLocalGraph(),
		RemoteGraph: remote,
		MaxHops:     2,
	}, zap.NewNop())

	obs, sources := d.Dispatch(context.Background(), ToolRetrievalGraph, "bench press", "q")
	if remote.calls != 1 {
		t.Fatalf("remote queried %d times, want 1", remote.calls)
	}
	if !strings.Contains(obs, "Bench Press") {
		t.Errorf("observation lacks local evidence: %q", obs)
	}
	if !strings.Contains(obs, "remote graph unavailable") {
		t.Errorf("observation lacks fallback warning: %q", obs)
	}

	items := graphItems(t, sources)
	if items["mode"] != "local" {
		t.Errorf("got mode %v, want local", items["mode"])
	}
	warning, _ := items["warning"].(string)
	if !strings.Contains(warning, "bolt connection refused") {
		t.Errorf("got warning %q, want remote error surfaced", warning)
	}
}

func TestDispatchRemoteGraphSuccessSkipsLocal(t *testing.T) {
	remote := &fakeRemoteGraph{res: &graph.Result{
		MatchedNodes: []string{"Bench Press"},
		Edges:        []graph.Edge{{Source: "Bench Press", Relation: "targets", Target: "Chest"}},
		Paths:        [][]string{},
	}}
	d := NewDispatcher(DispatcherConfig{
		LocalGraph:  newLocalGraph(),
		RemoteGraph: remote,
		MaxHops:     2,
	}, zap.NewNop())

	_, sources := d.Dispatch(context.Background(), ToolRetrievalGraph, "bench press", "q")
	items := graphItems(t, sources)
	if items["mode"] != "neo4j" {
		t.Errorf("got mode %v, want neo4j", items["mode"])
	}
	if _, ok := items["warning"]; ok {
		t.Errorf("unexpected warning on the remote happy path: %v", items["warning"])
	}
}

func TestDispatchNilCollaboratorsDoNotPanic(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, zap.NewNop())

	for _, tool := range []Tool{ToolMatcher, ToolWhatIf, ToolAnalytics, ToolRetrievalText, ToolRetrievalGraph} {
		obs, sources := d.Dispatch(context.Background(), tool, "x", "x")
		if !strings.HasPrefix(obs, "Tool error:") {
			t.Errorf("%s: got observation %q, want error-tagged text", tool, obs)
		}
		if sources != nil {
			t.Errorf("%s: expected no sources, got %v", tool, sources)
		}
	}
}

func TestDigestRetrievalSnippetKeepsValidUTF8(t *testing.T) {
	// Place a multi-byte rune across the snippet boundary.
	text := strings.Repeat("a", snippetLen-1) + "żółw dalszy tekst " + strings.Repeat("b", 300)
	idx := tfidf.New("", zap.NewNop())
	if err := idx.Build([]tfidf.Document{{ID: "d1", Text: text}}); err != nil {
		t.Fatalf("build index: %v", err)
	}

	ret := &retrieval.Retrieval{
		Results:  idx.Retrieve("dalszy", 1),
		Strategy: "tfidf",
	}
	digest := digestRetrieval(ret)
	if !utf8.ValidString(digest) {
		t.Fatalf("digest contains invalid UTF-8: %q", digest)
	}
	if !strings.Contains(digest, "[d1]") {
		t.Errorf("digest missing document id: %q", digest)
	}
}

func TestSnippetTrimsOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("x", snippetLen-1) + "ś" + strings.Repeat("y", 50)
	got := snippet(s)
	if len(got) > snippetLen {
		t.Fatalf("got %d bytes, want at most %d", len(got), snippetLen)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("snippet split a rune: %q", got)
	}
	if got != strings.Repeat("x", snippetLen-1) {
		t.Errorf("got %q, want the rune before the boundary dropped whole", got)
	}
}
