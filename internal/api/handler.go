package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/nidhogg/gym-advisor/internal/agent"
	"github.com/nidhogg/gym-advisor/internal/graph"
	"github.com/nidhogg/gym-advisor/internal/history"
	"github.com/nidhogg/gym-advisor/internal/memory"
	"github.com/nidhogg/gym-advisor/internal/tfidf"
	"go.uber.org/zap"
)

// ReindexFunc rebuilds the retrieval index from the source corpus and
// returns the number of documents indexed.
type ReindexFunc func(ctx context.Context) (int, error)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	advisor    *agent.Agent
	sessions   memory.SessionStore
	index      *tfidf.Index
	localGraph *graph.Graph
	log        history.Log
	reindex    ReindexFunc
	logger     *zap.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	advisor *agent.Agent,
	sessions memory.SessionStore,
	index *tfidf.Index,
	localGraph *graph.Graph,
	log history.Log,
	reindex ReindexFunc,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		advisor:    advisor,
		sessions:   sessions,
		index:      index,
		localGraph: localGraph,
		log:        log,
		reindex:    reindex,
		logger:     logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Post("/ask", h.ask)
		r.Get("/history", h.listHistory)
		r.Post("/index/rebuild", h.rebuildIndex)
		r.Get("/sessions/{id}", h.getSession)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"documents":   h.index.Len(),
		"graph_nodes": h.localGraph.NodeCount(),
		"graph_edges": h.localGraph.EdgeCount(),
	})
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type askResponse struct {
	SessionID string `json:"session_id"`
	*agent.Result
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	mem, err := h.sessions.Get(r.Context(), req.SessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.advisor.Run(r.Context(), req.Question, mem)
	if err != nil {
		h.logger.Error("agent run failed", zap.String("session", req.SessionID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := h.sessions.Put(r.Context(), req.SessionID, mem); err != nil {
		h.logger.Warn("failed to persist session", zap.String("session", req.SessionID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, askResponse{SessionID: req.SessionID, Result: result})
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history not configured"})
		return
	}
	events, err := h.log.Read(r.Context(), 100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if events == nil {
		events = []history.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) rebuildIndex(w http.ResponseWriter, r *http.Request) {
	if h.reindex == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reindex not configured"})
		return
	}
	n, err := h.reindex(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "rebuilt", "documents": n})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mem, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"turns":      mem.Turns(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
