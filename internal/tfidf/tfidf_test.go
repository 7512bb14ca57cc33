package tfidf

import (
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func benchCorpus() []Document {
	return []Document{
		{ID: "d1", Text: "Bench press targets the chest and triceps."},
		{ID: "d2", Text: "Squats target quads and glutes."},
		{ID: "d3", Text: "The bench press is a barbell movement for the chest."},
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Bench-Press: 3x5, RPE_8!")
	want := []string{"bench", "press", "3x5", "rpe_8"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRetrieveRanksBenchDocsFirst(t *testing.T) {
	ix := New("", zap.NewNop())
	if err := ix.Build(benchCorpus()); err != nil {
		t.Fatalf("build: %v", err)
	}

	results := ix.Retrieve("bench press chest", 3)
	if len(results) == 0 {
		t.Fatal("expected results for bench press query")
	}
	if len(results) > 3 {
		t.Fatalf("got %d results, want at most 3", len(results))
	}
	for i, r := range results {
		if r.Score <= 0 {
			t.Errorf("result %d has non-positive score %v", i, r.Score)
		}
		if i > 0 && results[i-1].Score < r.Score {
			t.Errorf("results not sorted descending at %d: %v < %v", i, results[i-1].Score, r.Score)
		}
	}
	// Both bench documents must outrank the squat document.
	if results[0].Document.ID == "d2" {
		t.Errorf("squat document ranked first for a bench query")
	}
	for _, r := range results {
		if r.Document.ID == "d2" {
			t.Errorf("squat document should not match: no query token overlaps it")
		}
	}
}

func TestRetrieveRespectsK(t *testing.T) {
	ix := New("", zap.NewNop())
	if err := ix.Build(benchCorpus()); err != nil {
		t.Fatalf("build: %v", err)
	}
	results := ix.Retrieve("the bench press chest squats", 1)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestRetrieveEmptyQueryAndCorpus(t *testing.T) {
	ix := New("", zap.NewNop())
	if err := ix.Build(nil); err != nil {
		t.Fatalf("build empty corpus: %v", err)
	}
	if got := ix.Retrieve("anything", 5); got != nil {
		t.Errorf("empty corpus should yield nil, got %v", got)
	}

	if err := ix.Build(benchCorpus()); err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := ix.Retrieve("", 5); got != nil {
		t.Errorf("empty query should yield nil, got %v", got)
	}
	if got := ix.Retrieve("zzz qqq www", 5); len(got) != 0 {
		t.Errorf("non-overlapping query should yield no results, got %v", got)
	}
}

func TestBuildSkipsBlankDocuments(t *testing.T) {
	ix := New("", zap.NewNop())
	docs := append(benchCorpus(), Document{ID: "blank", Text: "   \n "})
	if err := ix.Build(docs); err != nil {
		t.Fatalf("build: %v", err)
	}
	if ix.Len() != 3 {
		t.Errorf("got %d documents, want 3 (blank skipped)", ix.Len())
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	ix := New("", zap.NewNop())
	if err := ix.Build(benchCorpus()); err != nil {
		t.Fatalf("first build: %v", err)
	}
	first := ix.Retrieve("bench press", 3)
	if err := ix.Build(benchCorpus()); err != nil {
		t.Fatalf("second build: %v", err)
	}
	second := ix.Retrieve("bench press", 3)
	if !resultsEqual(first, second) {
		t.Errorf("rebuild changed results:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tfidf.json")

	ix := New(path, zap.NewNop())
	if err := ix.Build(benchCorpus()); err != nil {
		t.Fatalf("build: %v", err)
	}
	direct := ix.Retrieve("bench press chest", 3)

	reloaded := New(path, zap.NewNop())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if reloaded.Len() != ix.Len() {
		t.Fatalf("got %d documents after reload, want %d", reloaded.Len(), ix.Len())
	}
	fromSnapshot := reloaded.Retrieve("bench press chest", 3)
	if !resultsEqual(direct, fromSnapshot) {
		t.Errorf("snapshot round-trip changed results:\ndirect:   %v\nsnapshot: %v", direct, fromSnapshot)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	ix := New(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	if err := ix.Load(); err == nil {
		t.Fatal("expected error loading a missing snapshot")
	}
}

func resultsEqual(a, b []Result) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Document.ID != b[i].Document.ID {
			return false
		}
		if math.Abs(a[i].Score-b[i].Score) > 1e-12 {
			return false
		}
	}
	return true
}
