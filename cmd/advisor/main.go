package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nidhogg/gym-advisor/internal/agent"
	"github.com/nidhogg/gym-advisor/internal/analytics"
	"github.com/nidhogg/gym-advisor/internal/api"
	"github.com/nidhogg/gym-advisor/internal/config"
	"github.com/nidhogg/gym-advisor/internal/embedding"
	"github.com/nidhogg/gym-advisor/internal/graph"
	"github.com/nidhogg/gym-advisor/internal/graphdb"
	"github.com/nidhogg/gym-advisor/internal/history"
	"github.com/nidhogg/gym-advisor/internal/matcher"
	"github.com/nidhogg/gym-advisor/internal/memory"
	"github.com/nidhogg/gym-advisor/internal/provider"
	"github.com/nidhogg/gym-advisor/internal/retrieval"
	"github.com/nidhogg/gym-advisor/internal/tfidf"
	"github.com/nidhogg/gym-advisor/internal/vectorstore"
	"github.com/nidhogg/gym-advisor/internal/whatif"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting gym advisor...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/advisor.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	ctx := context.Background()

	// LLM providers
	router := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		provCfg := provider.Config{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey,
			Model: pc.Model, Extra: pc.Extra,
		}
		switch pc.Type {
		case "openai":
			router.Register(provider.NewOpenAIProvider(provCfg, logger))
		case "anthropic":
			router.Register(provider.NewAnthropicProvider(provCfg, logger))
		case "mock":
			router.Register(provider.NewMockProvider(pc.ID))
		default:
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}
	if len(router.ListProviders()) == 0 {
		logger.Warn("no LLM providers configured, using deterministic mock")
		router.Register(provider.NewMockProvider("mock"))
	}

	// TF-IDF index: reuse the snapshot if present, otherwise build from the corpus.
	index := tfidf.New(cfg.Retrieval.StorePath, logger)
	if err := index.Load(); err != nil {
		logger.Info("no usable index snapshot, building fresh", zap.Error(err))
		docs, derr := retrieval.CollectDocuments(cfg.Retrieval.DocsDir, cfg.Catalog.CatalogPath, logger)
		if derr != nil {
			logger.Fatal("failed to collect documents", zap.Error(derr))
		}
		if berr := index.Build(docs); berr != nil {
			logger.Fatal("failed to build index", zap.Error(berr))
		}
	}
	logger.Info("Index ready", zap.Int("documents", index.Len()))

	// Local graph engine
	localGraph := graph.New()
	edges, err := graph.LoadFile(cfg.Graph.GraphJSON, cfg.Graph.EdgesCSV)
	if err != nil {
		logger.Warn("failed to load graph edges", zap.Error(err))
	}
	localGraph.Build(edges)
	logger.Info("Graph ready",
		zap.Int("nodes", localGraph.NodeCount()),
		zap.Int("edges", localGraph.EdgeCount()))

	// Remote graph (optional)
	var remoteGraph *graphdb.Client
	if cfg.Graph.Mode == "neo4j" && cfg.Database.Neo4j.URI != "" {
		client, gerr := graphdb.NewClient(cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
		if gerr == nil {
			gerr = client.Ping(ctx)
		}
		if gerr != nil {
			logger.Warn("Neo4j unavailable, graph queries use the local engine", zap.Error(gerr))
		} else {
			remoteGraph = client
			if len(edges) > 0 {
				if ierr := remoteGraph.IngestEdges(ctx, edges); ierr != nil {
					logger.Warn("failed to sync edges to Neo4j", zap.Error(ierr))
				}
			}
		}
	}

	// Session store: Redis when configured, in-process otherwise.
	var sessions memory.SessionStore
	var redisSessions *memory.RedisSessions
	if cfg.Database.Redis.URL != "" {
		rs, rerr := memory.NewRedisSessions(ctx, cfg.Database.Redis.URL, logger)
		if rerr != nil {
			logger.Warn("Redis unavailable, sessions are process-local", zap.Error(rerr))
		} else {
			redisSessions = rs
			sessions = rs
		}
	}
	if sessions == nil {
		sessions = memory.NewInMemorySessions()
	}

	// Event history: JSONL file, or PostgreSQL when a DSN is configured.
	var log history.Log = history.NewFileLog(cfg.History.Path, logger)
	var pgLog *history.PostgresLog
	if cfg.Database.Postgres.DSN != "" {
		pl, perr := history.NewPostgresLog(ctx, cfg.Database.Postgres.DSN, logger)
		if perr != nil {
			logger.Warn("PostgreSQL unavailable, history stays on file", zap.Error(perr))
		} else {
			if merr := pl.Migrate(ctx, "migrations"); merr != nil {
				logger.Fatal("migration failed", zap.Error(merr))
			}
			pgLog = pl
			log = pl
		}
	}

	// Retrieval strategies: embedding search first when configured, TF-IDF always.
	var strategies []retrieval.Strategy
	var qdrantClient *vectorstore.Client
	if cfg.Embedding.Provider != "" && cfg.Database.Qdrant.Host != "" {
		embedder, eerr := embedding.New(embedding.Config{
			Provider:  cfg.Embedding.Provider,
			Endpoint:  cfg.Embedding.Endpoint,
			Model:     cfg.Embedding.Model,
			APIKey:    cfg.Embedding.APIKey,
			Dimension: cfg.Embedding.Dimension,
		})
		if eerr != nil {
			logger.Warn("embedding provider misconfigured, vector retrieval disabled", zap.Error(eerr))
		} else {
			qc, qerr := vectorstore.NewClient(vectorstore.QdrantConfig{
				Host: cfg.Database.Qdrant.Host,
				Port: cfg.Database.Qdrant.Port,
			})
			if qerr != nil {
				logger.Warn("Qdrant unavailable, vector retrieval disabled", zap.Error(qerr))
			} else {
				qdrantClient = qc
				vs := retrieval.NewVectorStrategy(embedder, qc, cfg.Retrieval.Collection)
				if ierr := vs.Index(ctx, index.Documents()); ierr != nil {
					logger.Warn("vector indexing failed, lexical fallback will serve", zap.Error(ierr))
				}
				strategies = append(strategies, vs)
			}
		}
	}
	strategies = append(strategies, retrieval.NewTFIDFStrategy(index))
	retriever := retrieval.NewRetriever(logger, strategies...)

	// Tools
	match := matcher.New(cfg.Catalog.CatalogPath, cfg.Catalog.ProfilePath, logger)
	analyticsEngine := analytics.New(cfg.Catalog.CatalogPath, log, logger)
	simulator := whatif.New(match, cfg.Catalog.ProfilePath, log, logger)

	dispatcherCfg := agent.DispatcherConfig{
		Retriever:  retriever,
		Compare:    cfg.Agent.KnowledgeMode == "compare",
		LocalGraph: localGraph,
		MaxHops:    cfg.Graph.MaxHops,
		TopK:       cfg.Retrieval.TopK,
		Matcher:    match,
		Analytics:  analyticsEngine,
		WhatIf:     simulator,
		Log:        log,
	}
	// Assign only a live client: a typed nil would look non-nil behind the
	// interface.
	if remoteGraph != nil {
		dispatcherCfg.RemoteGraph = remoteGraph
	}
	dispatcher := agent.NewDispatcher(dispatcherCfg, logger)

	advisor := agent.New(router, dispatcher, log, cfg.Agent.MaxSteps, logger)

	reindex := func(ctx context.Context) (int, error) {
		docs, derr := retrieval.CollectDocuments(cfg.Retrieval.DocsDir, cfg.Catalog.CatalogPath, logger)
		if derr != nil {
			return 0, derr
		}
		if berr := index.Build(docs); berr != nil {
			return 0, berr
		}
		return index.Len(), nil
	}

	handler := api.NewHandler(advisor, sessions, index, localGraph, log, reindex, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Gym advisor listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gym advisor...")
	srv.Shutdown(ctx)
	if redisSessions != nil {
		redisSessions.Close()
	}
	if pgLog != nil {
		pgLog.Close()
	}
	if qdrantClient != nil {
		qdrantClient.Close()
	}
	if remoteGraph != nil {
		remoteGraph.Close(ctx)
	}
}
