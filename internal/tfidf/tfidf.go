package tfidf

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Document is an indexed unit: opaque ID, raw text, optional source label.
type Document struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// Result is one retrieval hit.
type Result struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Tokenize splits text into lowercase alphanumeric runs.
func Tokenize(text string) []string {
	matches := wordRe.FindAllString(text, -1)
	tokens := make([]string, len(matches))
	for i, m := range matches {
		tokens[i] = strings.ToLower(m)
	}
	return tokens
}

// Index is a TF-IDF document index. Term weights use smoothed inverse
// document frequency: tf * (ln((N+1)/(df+1)) + 1). The whole index is rebuilt
// on every Build; there is no incremental update.
type Index struct {
	mu     sync.RWMutex
	path   string
	docs   []Document
	df     map[string]int
	vecs   []map[string]float64
	norms  []float64
	logger *zap.Logger
}

// New creates an index persisted at path. An empty path keeps the index
// in-memory only.
func New(path string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{path: path, df: make(map[string]int), logger: logger}
}

// Build indexes the document set, replacing any previous state, and persists
// a snapshot when a path is configured. Documents with blank text are
// skipped. An empty corpus produces an empty, still-loadable index.
func (ix *Index) Build(docs []Document) error {
	kept := make([]Document, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		kept = append(kept, d)
	}

	n := len(kept)
	tfs := make([]map[string]float64, n)
	df := make(map[string]int)
	for i, d := range kept {
		tf := make(map[string]float64)
		for _, t := range Tokenize(d.Text) {
			tf[t]++
		}
		tfs[i] = tf
		for t := range tf {
			df[t]++
		}
	}

	vecs := make([]map[string]float64, n)
	norms := make([]float64, n)
	for i, tf := range tfs {
		vec := make(map[string]float64, len(tf))
		var sumSq float64
		for t, c := range tf {
			w := c * (math.Log(float64(n+1)/float64(df[t]+1)) + 1.0)
			vec[t] = w
			sumSq += w * w
		}
		norm := math.Sqrt(sumSq)
		if norm == 0 {
			norm = 1.0
		}
		vecs[i] = vec
		norms[i] = norm
	}

	ix.mu.Lock()
	ix.docs = kept
	ix.df = df
	ix.vecs = vecs
	ix.norms = norms
	ix.mu.Unlock()

	if ix.path == "" {
		return nil
	}
	if err := ix.save(); err != nil {
		return err
	}
	ix.logger.Info("tf-idf index built",
		zap.Int("documents", n), zap.Int("terms", len(df)))
	return nil
}

// Retrieve returns the top k documents by cosine similarity to the query,
// keeping only strictly positive scores, ordered by descending score with
// ties broken by insertion order. A query with no recognized or overlapping
// tokens yields an empty result.
func (ix *Index) Retrieve(query string, k int) []Result {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.docs) == 0 || k <= 0 {
		return nil
	}

	qtf := make(map[string]float64)
	for _, t := range Tokenize(query) {
		qtf[t]++
	}
	if len(qtf) == 0 {
		return nil
	}

	n := len(ix.docs)
	qvec := make(map[string]float64, len(qtf))
	var qSumSq float64
	for t, c := range qtf {
		// Query weights use the stored document frequencies, not re-derived ones.
		w := c * (math.Log(float64(n+1)/float64(ix.df[t]+1)) + 1.0)
		qvec[t] = w
		qSumSq += w * w
	}
	qnorm := math.Sqrt(qSumSq)
	if qnorm == 0 {
		qnorm = 1.0
	}

	type scored struct {
		idx   int
		score float64
	}
	hits := make([]scored, 0, n)
	for i, dvec := range ix.vecs {
		var dot float64
		for t, qw := range qvec {
			if dw, ok := dvec[t]; ok {
				dot += qw * dw
			}
		}
		score := dot / (qnorm * ix.norms[i])
		if score > 0 {
			hits = append(hits, scored{idx: i, score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = Result{Document: ix.docs[h.idx], Score: h.score}
	}
	return out
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Documents returns the indexed documents in insertion order.
func (ix *Index) Documents() []Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Document, len(ix.docs))
	copy(out, ix.docs)
	return out
}
