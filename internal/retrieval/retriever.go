package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/nidhogg/gym-advisor/internal/embedding"
	"github.com/nidhogg/gym-advisor/internal/tfidf"
	"github.com/nidhogg/gym-advisor/internal/vectorstore"
	"go.uber.org/zap"
)

// Strategy is one way of answering a text retrieval query. Strategies are
// tried in registration order; the first that succeeds serves the request.
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, query string, topK int) ([]tfidf.Result, error)
}

// Retrieval is the outcome of a retrieval request: the hits, the strategy
// that produced them, and a warning when earlier strategies failed.
type Retrieval struct {
	Results  []tfidf.Result `json:"results"`
	Strategy string         `json:"strategy"`
	Warning  string         `json:"warning,omitempty"`
}

// TFIDFStrategy serves queries from the in-process TF-IDF index.
type TFIDFStrategy struct {
	index *tfidf.Index
}

// NewTFIDFStrategy wraps an index as a retrieval strategy.
func NewTFIDFStrategy(index *tfidf.Index) *TFIDFStrategy {
	return &TFIDFStrategy{index: index}
}

func (s *TFIDFStrategy) Name() string { return "tfidf" }

func (s *TFIDFStrategy) Retrieve(_ context.Context, query string, topK int) ([]tfidf.Result, error) {
	return s.index.Retrieve(query, topK), nil
}

// VectorStrategy serves queries by embedding them and searching Qdrant.
type VectorStrategy struct {
	embedder   embedding.Provider
	store      *vectorstore.Client
	collection string
}

// NewVectorStrategy wraps an embedder and vector store as a retrieval strategy.
func NewVectorStrategy(embedder embedding.Provider, store *vectorstore.Client, collection string) *VectorStrategy {
	return &VectorStrategy{embedder: embedder, store: store, collection: collection}
}

func (s *VectorStrategy) Name() string { return "vector" }

func (s *VectorStrategy) Retrieve(ctx context.Context, query string, topK int) ([]tfidf.Result, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	hits, err := s.store.Search(ctx, s.collection, vectors[0], uint64(topK))
	if err != nil {
		return nil, err
	}
	results := make([]tfidf.Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, tfidf.Result{
			Document: tfidf.Document{ID: h.DocID, Text: h.Text, Source: h.Source},
			Score:    float64(h.Score),
		})
	}
	return results, nil
}

// Index pushes the corpus into the vector store so later searches can hit it.
func (s *VectorStrategy) Index(ctx context.Context, docs []tfidf.Document) error {
	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}
	dim := uint64(s.embedder.Dimension())
	if dim == 0 && len(vectors) > 0 {
		dim = uint64(len(vectors[0]))
	}
	if err := s.store.EnsureCollection(ctx, s.collection, dim); err != nil {
		return err
	}
	return s.store.UpsertDocuments(ctx, s.collection, docs, vectors)
}

// Retriever tries its strategies in order until one succeeds.
type Retriever struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewRetriever builds a retriever over the given ordered strategies.
func NewRetriever(logger *zap.Logger, strategies ...Strategy) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{strategies: strategies, logger: logger}
}

// Retrieve runs the fallback chain. When a preferred strategy fails, its
// error is surfaced as a warning on the result that the next strategy serves.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (*Retrieval, error) {
	var warning string
	for _, s := range r.strategies {
		results, err := s.Retrieve(ctx, query, topK)
		if err != nil {
			r.logger.Warn("retrieval strategy failed",
				zap.String("strategy", s.Name()),
				zap.Error(err))
			warning = fmt.Sprintf("%s retrieval failed (%v), fell back", s.Name(), err)
			continue
		}
		return &Retrieval{Results: results, Strategy: s.Name(), Warning: warning}, nil
	}
	return nil, fmt.Errorf("all retrieval strategies failed for query %q", query)
}

// Compare runs every strategy and merges their hits, deduplicating by
// document ID and keeping the highest score. Used to eyeball how the vector
// and lexical rankings differ.
func (r *Retriever) Compare(ctx context.Context, query string, topK int) (*Retrieval, error) {
	best := map[string]tfidf.Result{}
	var order []string
	var served []string

	for _, s := range r.strategies {
		results, err := s.Retrieve(ctx, query, topK)
		if err != nil {
			r.logger.Warn("retrieval strategy failed in compare",
				zap.String("strategy", s.Name()),
				zap.Error(err))
			continue
		}
		served = append(served, s.Name())
		for _, res := range results {
			prev, ok := best[res.Document.ID]
			if !ok {
				order = append(order, res.Document.ID)
				best[res.Document.ID] = res
			} else if res.Score > prev.Score {
				best[res.Document.ID] = res
			}
		}
	}
	if len(served) == 0 {
		return nil, fmt.Errorf("all retrieval strategies failed for query %q", query)
	}

	merged := make([]tfidf.Result, 0, len(order))
	for _, id := range order {
		merged = append(merged, best[id])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}

	name := "compare:"
	for i, n := range served {
		if i > 0 {
			name += "+"
		}
		name += n
	}
	return &Retrieval{Results: merged, Strategy: name}, nil
}
