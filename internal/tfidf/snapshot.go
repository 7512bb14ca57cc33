package tfidf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// snapshot is the persisted index state. The snapshot must round-trip
// build -> save -> load -> query without changing results.
type snapshot struct {
	Docs  []Document           `json:"docs"`
	DF    map[string]int       `json:"df"`
	Vecs  []map[string]float64 `json:"vecs"`
	Norms []float64            `json:"norms"`
}

// ErrNoSnapshot is returned by Load when no snapshot file exists yet.
var ErrNoSnapshot = fmt.Errorf("tf-idf snapshot not found")

// save writes the snapshot atomically: a temp file in the same directory is
// renamed over the target, so an interrupted build never leaves a snapshot
// that disagrees with itself.
func (ix *Index) save() error {
	ix.mu.RLock()
	snap := snapshot{Docs: ix.docs, DF: ix.df, Vecs: ix.vecs, Norms: ix.norms}
	ix.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(ix.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tfidf-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, ix.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load replaces the in-memory index with the persisted snapshot.
func (ix *Index) Load() error {
	if ix.path == "" {
		return fmt.Errorf("no snapshot path configured")
	}
	data, err := os.ReadFile(ix.path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNoSnapshot, ix.path)
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", ix.path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot %s: %w", ix.path, err)
	}
	if len(snap.Vecs) != len(snap.Docs) || len(snap.Norms) != len(snap.Docs) {
		return fmt.Errorf("snapshot %s is inconsistent: %d docs, %d vectors, %d norms",
			ix.path, len(snap.Docs), len(snap.Vecs), len(snap.Norms))
	}
	if snap.DF == nil {
		snap.DF = make(map[string]int)
	}

	ix.mu.Lock()
	ix.docs = snap.Docs
	ix.df = snap.DF
	ix.vecs = snap.Vecs
	ix.norms = snap.Norms
	ix.mu.Unlock()
	return nil
}
