package main

import (
	"context"
	"fmt"

	"github.com/codegraph/graphrag/internal/analyzer"
	"github.com/codegraph/graphrag/internal/cache"
	"github.com/codegraph/graphrag/internal/embedding"
	"github.com/codegraph/graphrag/internal/graph"
	"github.com/codegraph/graphrag/internal/ingestion"
	"github.com/codegraph/graphrag/internal/query"
	"github.com/codegraph/graphrag/internal/retrieval"
	"github.com/codegraph/graphrag/internal/vectorstore"
)

// deps bundles every component a command needs. Not every command needs every component (e.g.
// analyze needs no stores at all), so callers build only what they use.
type deps struct {
	store       *graph.Neo4jStore
	vectors     *vectorstore.Store
	embedder    *embedding.Client
	cacheClient *cache.Client
	coordinator *ingestion.Coordinator
	engine      *query.Engine
	assembler   *retrieval.Assembler
	analyzer    *analyzer.Analyzer
}

// buildStores connects to Neo4j, the vector store, and Redis, returning a close func that tears
// them down in reverse order.
func buildStores(ctx context.Context) (*graph.Neo4jStore, *vectorstore.Store, *cache.Client, func(), error) {
	store, err := graph.NewNeo4jStore(ctx, cfg.GraphStore.URI, cfg.GraphStore.Username, cfg.GraphStore.Password, cfg.GraphStore.Database)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect graph store: %w", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		store.Close(ctx)
		return nil, nil, nil, nil, fmt.Errorf("ensure graph indexes: %w", err)
	}

	vectors, err := vectorstore.New(ctx, cfg.VectorStore.DSN, cfg.VectorStore.Dimension)
	if err != nil {
		store.Close(ctx)
		return nil, nil, nil, nil, fmt.Errorf("connect vector store: %w", err)
	}

	cacheClient, err := cache.NewClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.DefaultTTL, logger)
	if err != nil {
		vectors.Close()
		store.Close(ctx)
		return nil, nil, nil, nil, fmt.Errorf("connect cache: %w", err)
	}

	closeFn := func() {
		cacheClient.Close()
		vectors.Close()
		store.Close(ctx)
	}
	return store, vectors, cacheClient, closeFn, nil
}

// buildQueryDeps wires the read-path components shared by query, visualize, and serve-mcp.
func buildQueryDeps(ctx context.Context) (*deps, func(), error) {
	store, vectors, cacheClient, closeStores, err := buildStores(ctx)
	if err != nil {
		return nil, nil, err
	}

	embedder := embedding.New(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.RatePerMinute)
	engine := query.NewEngine(store, vectors, embedder, cacheClient, cfg, logger)
	assembler := retrieval.NewAssembler(engine, cfg, logger)

	closeFn := func() {
		embedder.Close()
		closeStores()
	}
	return &deps{store: store, vectors: vectors, embedder: embedder, cacheClient: cacheClient, engine: engine, assembler: assembler}, closeFn, nil
}

// buildIngestionDeps wires the write-path Coordinator for the ingest command.
func buildIngestionDeps(ctx context.Context) (*deps, func(), error) {
	store, vectors, cacheClient, closeStores, err := buildStores(ctx)
	if err != nil {
		return nil, nil, err
	}

	embedder := embedding.New(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.RatePerMinute)
	coordinator, err := ingestion.NewCoordinator(cfg, store, embedder, vectors, logger)
	if err != nil {
		embedder.Close()
		closeStores()
		return nil, nil, fmt.Errorf("start ingestion coordinator: %w", err)
	}

	closeFn := func() {
		coordinator.Close()
		embedder.Close()
		closeStores()
	}
	return &deps{store: store, vectors: vectors, embedder: embedder, cacheClient: cacheClient, coordinator: coordinator}, closeFn, nil
}

// buildServerDeps wires everything the MCP server needs off one shared set of store
// connections, so a long-running serve-mcp process holds one Neo4j/vector/cache connection each
// instead of the two separate sets buildQueryDeps and buildIngestionDeps would each open.
func buildServerDeps(ctx context.Context) (*deps, func(), error) {
	store, vectors, cacheClient, closeStores, err := buildStores(ctx)
	if err != nil {
		return nil, nil, err
	}

	embedder := embedding.New(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.RatePerMinute)
	engine := query.NewEngine(store, vectors, embedder, cacheClient, cfg, logger)
	assembler := retrieval.NewAssembler(engine, cfg, logger)

	coordinator, err := ingestion.NewCoordinator(cfg, store, embedder, vectors, logger)
	if err != nil {
		embedder.Close()
		closeStores()
		return nil, nil, fmt.Errorf("start ingestion coordinator: %w", err)
	}

	closeFn := func() {
		coordinator.Close()
		embedder.Close()
		closeStores()
	}
	return &deps{
		store: store, vectors: vectors, embedder: embedder, cacheClient: cacheClient,
		coordinator: coordinator, engine: engine, assembler: assembler,
	}, closeFn, nil
}

// buildAnalyzer wires the sandboxed Analyzer; it needs no store connections.
func buildAnalyzer() *analyzer.Analyzer {
	runner := analyzer.NewRunner(sandboxPath(), cfg.Analyzer.PythonInterpreter)
	return analyzer.New(&cfg.Analyzer, cfg.Environment, runner, logger)
}

// sandboxPath resolves the codegraph-sandbox binary relative to this executable, falling back to
// PATH lookup so a system-wide install works without a fixed layout.
func sandboxPath() string {
	if p, err := exePathSibling("codegraph-sandbox"); err == nil {
		return p
	}
	return "codegraph-sandbox"
}
