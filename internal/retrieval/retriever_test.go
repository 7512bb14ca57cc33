package retrieval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nidhogg/gym-advisor/internal/tfidf"
	"go.uber.org/zap"
)

type fakeStrategy struct {
	name    string
	results []tfidf.Result
	err     error
	calls   int
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Retrieve(context.Context, string, int) ([]tfidf.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func result(id string, score float64) tfidf.Result {
	return tfidf.Result{Document: tfidf.Document{ID: id, Text: id, Source: id}, Score: score}
}

func TestRetrieveFirstStrategyServes(t *testing.T) {
	first := &fakeStrategy{name: "vector", results: []tfidf.Result{result("d1", 0.9)}}
	second := &fakeStrategy{name: "tfidf", results: []tfidf.Result{result("d2", 0.5)}}
	r := NewRetriever(zap.NewNop(), first, second)

	got, err := r.Retrieve(context.Background(), "bench press", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got.Strategy != "vector" {
		t.Errorf("got strategy %q, want vector", got.Strategy)
	}
	if got.Warning != "" {
		t.Errorf("got warning %q, want none", got.Warning)
	}
	if second.calls != 0 {
		t.Errorf("fallback strategy was called %d times, want 0", second.calls)
	}
}

func TestRetrieveFallsBackWithWarning(t *testing.T) {
	first := &fakeStrategy{name: "vector", err: errors.New("qdrant unreachable")}
	second := &fakeStrategy{name: "tfidf", results: []tfidf.Result{result("d2", 0.5)}}
	r := NewRetriever(zap.NewNop(), first, second)

	got, err := r.Retrieve(context.Background(), "bench press", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got.Strategy != "tfidf" {
		t.Errorf("got strategy %q, want tfidf", got.Strategy)
	}
	if !strings.Contains(got.Warning, "vector retrieval failed") {
		t.Errorf("got warning %q, want vector failure surfaced", got.Warning)
	}
	if len(got.Results) != 1 || got.Results[0].Document.ID != "d2" {
		t.Errorf("got results %v, want fallback hit d2", got.Results)
	}
}

func TestRetrieveAllStrategiesFail(t *testing.T) {
	r := NewRetriever(zap.NewNop(),
		&fakeStrategy{name: "vector", err: errors.New("down")},
		&fakeStrategy{name: "tfidf", err: errors.New("also down")})
	if _, err := r.Retrieve(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error when every strategy fails")
	}
}

func TestCompareMergesKeepingBestScore(t *testing.T) {
	first := &fakeStrategy{name: "vector", results: []tfidf.Result{
		result("shared", 0.4),
		result("vector_only", 0.8),
	}}
	second := &fakeStrategy{name: "tfidf", results: []tfidf.Result{
		result("shared", 0.9),
		result("tfidf_only", 0.3),
	}}
	r := NewRetriever(zap.NewNop(), first, second)

	got, err := r.Compare(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if got.Strategy != "compare:vector+tfidf" {
		t.Errorf("got strategy %q, want compare:vector+tfidf", got.Strategy)
	}
	if len(got.Results) != 3 {
		t.Fatalf("got %d merged results, want 3", len(got.Results))
	}
	if got.Results[0].Document.ID != "shared" || got.Results[0].Score != 0.9 {
		t.Errorf("got top %v, want shared at its best score 0.9", got.Results[0])
	}
	for i := 1; i < len(got.Results); i++ {
		if got.Results[i].Score > got.Results[i-1].Score {
			t.Fatalf("merged results not sorted desc at %d", i)
		}
	}
}

func TestCompareSkipsFailedStrategy(t *testing.T) {
	r := NewRetriever(zap.NewNop(),
		&fakeStrategy{name: "vector", err: errors.New("down")},
		&fakeStrategy{name: "tfidf", results: []tfidf.Result{result("d1", 0.5)}})

	got, err := r.Compare(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if got.Strategy != "compare:tfidf" {
		t.Errorf("got strategy %q, want compare:tfidf", got.Strategy)
	}
	if len(got.Results) != 1 {
		t.Errorf("got %d results, want 1", len(got.Results))
	}
}

func TestCompareTruncatesToTopK(t *testing.T) {
	s := &fakeStrategy{name: "tfidf", results: []tfidf.Result{
		result("a", 0.9), result("b", 0.8), result("c", 0.7),
	}}
	got, err := NewRetriever(zap.NewNop(), s).Compare(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(got.Results) != 2 {
		t.Errorf("got %d results, want 2", len(got.Results))
	}
}

func TestLoadDirReadsNotesSorted(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b_recovery.md":  "Sleep and deloads drive recovery.",
		"a_pressing.txt": "Bench press is a horizontal press.",
		"ignore.json":    `{"not": "a note"}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	docs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].ID != "a_pressing" || docs[1].ID != "b_recovery" {
		t.Errorf("got order %q,%q, want filename order", docs[0].ID, docs[1].ID)
	}
	if docs[0].Source != "a_pressing.txt" {
		t.Errorf("got source %q, want filename", docs[0].Source)
	}
}

func TestLoadDirMissing(t *testing.T) {
	docs, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if docs != nil {
		t.Errorf("got %v, want nil corpus for missing dir", docs)
	}
}

func TestCollectDocumentsIncludesCatalog(t *testing.T) {
	dir := t.TempDir()
	catPath := filepath.Join(dir, "exercises.json")
	cat := `{"exercises":[{"id":"bench_press","name":"Bench Press","movement":"horizontal_press","muscles_primary":["chest"],"equipment":["barbell"],"difficulty":2,"tags":["strength"]}]}`
	if err := os.WriteFile(catPath, []byte(cat), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	docs, err := CollectDocuments(filepath.Join(dir, "no-notes"), catPath, zap.NewNop())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	if docs[0].ID != "exercise:bench_press" {
		t.Errorf("got id %q, want exercise:bench_press", docs[0].ID)
	}
	if !strings.Contains(docs[0].Text, "chest") || !strings.Contains(docs[0].Text, "barbell") {
		t.Errorf("catalog doc missing rendered fields: %q", docs[0].Text)
	}
}
