// Package query implements the QueryEngine: a cached read layer over the GraphStore and
// VectorStore that every client (MCP tools, the CLI, eventually a future API) goes through.
package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/codegraph/graphrag/internal/cache"
	"github.com/codegraph/graphrag/internal/config"
	apperrors "github.com/codegraph/graphrag/internal/errors"
	"github.com/codegraph/graphrag/internal/embedding"
	"github.com/codegraph/graphrag/internal/graph"
	"github.com/codegraph/graphrag/internal/logging"
	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/vectorstore"
)

// Engine answers structural, semantic, and visualization queries, caching every cacheable
// result behind a typed fingerprint key.
type Engine struct {
	store    graph.Store
	vectors  *vectorstore.Store
	embedder *embedding.Client
	cache    *cache.Client
	cfg      *config.Config
	logger   *logging.Logger
}

func NewEngine(store graph.Store, vectors *vectorstore.Store, embedder *embedding.Client, c *cache.Client, cfg *config.Config, logger *logging.Logger) *Engine {
	return &Engine{store: store, vectors: vectors, embedder: embedder, cache: c, cfg: cfg, logger: logger}
}

// fingerprint derives a short, deterministic, order-sensitive digest of an operation's
// parameters, used both as the cache key suffix and as the QueryResult.Fingerprint field
// clients can use to detect a stale cached response.
func fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// FindCallers returns every entity that calls entityID, thinly wrapping the GraphStore behind
// a cache.
func (e *Engine) FindCallers(ctx context.Context, projectID, entityID string) (*models.QueryResult, error) {
	return e.cachedEntityQuery(ctx, "find_callers", projectID, []string{entityID}, func() ([]*models.Entity, error) {
		return e.store.FindCallers(ctx, entityID)
	})
}

// FindDependencies returns every entity entityID calls, thinly wrapping the GraphStore behind a
// cache.
func (e *Engine) FindDependencies(ctx context.Context, projectID, entityID string) (*models.QueryResult, error) {
	return e.cachedEntityQuery(ctx, "find_dependencies", projectID, []string{entityID}, func() ([]*models.Entity, error) {
		return e.store.FindDependencies(ctx, entityID)
	})
}

func (e *Engine) cachedEntityQuery(ctx context.Context, op, projectID string, keyParts []string, run func() ([]*models.Entity, error)) (*models.QueryResult, error) {
	fp := fingerprint(keyParts...)
	key := cache.QueryKey(op, projectID, fp)

	var cached models.QueryResult
	if hit, err := e.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	start := time.Now()
	entities, err := run()
	if err != nil {
		return nil, err
	}
	result := &models.QueryResult{Entities: entities, Count: len(entities), Duration: time.Since(start), Fingerprint: fp}

	if err := e.cache.SetWithTTL(ctx, key, result, e.cfg.Cache.DefaultTTL); err != nil {
		e.logger.WithError(err).Warn("failed to cache query result")
	}
	return result, nil
}

// ImpactAnalysis returns the transitive CALLS closure of entityID out to maxDepth, thinly
// wrapping the GraphStore behind a cache.
func (e *Engine) ImpactAnalysis(ctx context.Context, projectID, entityID string, maxDepth int) (*models.ImpactResult, error) {
	fp := fingerprint(entityID, fmt.Sprintf("%d", maxDepth))
	key := cache.QueryKey("impact_analysis", projectID, fp)

	var cached models.ImpactResult
	if hit, err := e.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	result, err := e.store.ImpactAnalysis(ctx, entityID, maxDepth)
	if err != nil {
		return nil, err
	}

	if err := e.cache.SetWithTTL(ctx, key, result, e.cfg.Cache.DefaultTTL); err != nil {
		e.logger.WithError(err).Warn("failed to cache impact analysis result")
	}
	return result, nil
}

// SemanticSearch embeds queryText, delegates to VectorStore for nearest neighbors across
// projectIDs, materializes the full entity for each hit from the GraphStore, and returns the
// top_k results sorted by similarity descending with a snippet built from each entity.
func (e *Engine) SemanticSearch(ctx context.Context, queryText string, projectIDs []string, topK int) (*models.QueryResult, error) {
	if topK <= 0 {
		topK = e.cfg.Query.DefaultSearchTopK
	}

	start := time.Now()
	vec, err := e.embedder.Generate(ctx, queryText, embedding.TaskQuery, true)
	if err != nil {
		return nil, err
	}

	hits, err := e.vectors.SemanticSearch(ctx, vec, projectIDs, topK, e.cfg.Query.DefaultSimilarityThreshold)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		fp := fingerprint(append(append([]string{queryText}, projectIDs...), fmt.Sprintf("%d", topK))...)
		return &models.QueryResult{Entities: nil, Count: 0, Duration: time.Since(start), Fingerprint: fp}, nil
	}

	ids := make([]string, len(hits))
	similarityByID := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.EntityID
		similarityByID[h.EntityID] = h.Similarity
	}

	entities, err := e.store.GetEntitiesByID(ctx, ids)
	if err != nil {
		return nil, apperrors.DatabaseQueryError(err, "materialize semantic search hits")
	}

	for _, ent := range entities {
		if ent.Metadata == nil {
			ent.Metadata = map[string]any{}
		}
		ent.Metadata["similarity"] = similarityByID[ent.ID]
		ent.Metadata["snippet"] = buildSnippet(ent)
	}
	sort.Slice(entities, func(i, j int) bool {
		return similarityByID[entities[i].ID] > similarityByID[entities[j].ID]
	})
	if len(entities) > topK {
		entities = entities[:topK]
	}

	fp := fingerprint(append(append([]string{queryText}, projectIDs...), fmt.Sprintf("%d", topK))...)
	return &models.QueryResult{Entities: entities, Count: len(entities), Duration: time.Since(start), Fingerprint: fp}, nil
}

const snippetMaxChars = 200

// buildSnippet prefers the entity's signature, then its body, then a bare kind/name fallback,
// truncated to snippetMaxChars with an ellipsis.
func buildSnippet(e *models.Entity) string {
	text := e.Signature
	if text == "" {
		text = e.Body
	}
	if text == "" {
		text = fmt.Sprintf("%s: %s", e.Kind, e.Name)
	}
	if len(text) <= snippetMaxChars {
		return text
	}
	return strings.TrimSpace(text[:snippetMaxChars]) + "..."
}

// GetEntities materializes entities by id directly from the GraphStore, uncached: callers that
// already have an explicit id list (e.g. a manual entity selection) don't need a fingerprinted
// cache entry for a lookup that's already as specific as it can be.
func (e *Engine) GetEntities(ctx context.Context, ids []string) ([]*models.Entity, error) {
	return e.store.GetEntitiesByID(ctx, ids)
}

// GetProjectGraph returns a visualization-ready subgraph for project_id, thinly wrapping the
// GraphStore behind a cache keyed on the filter set.
func (e *Engine) GetProjectGraph(ctx context.Context, projectID string, filters models.GraphFilters) (*models.GraphView, error) {
	fp := fingerprint(
		filters.ViewMode, strings.Join(filters.EntityTypes, ","), strings.Join(filters.Languages, ","),
		strings.Join(filters.FilePatterns, ","), fmt.Sprintf("%v:%v:%d:%d", filters.IncludeExternal, filters.IncludeIsolated, filters.MaxNodes, filters.MaxEdges),
	)
	key := cache.QueryKey("project_graph", projectID, fp)

	var cached models.GraphView
	if hit, err := e.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	view, err := e.store.GetProjectGraph(ctx, projectID, filters)
	if err != nil {
		return nil, err
	}
	if err := e.cache.SetWithTTL(ctx, key, view, e.cfg.Cache.DefaultTTL); err != nil {
		e.logger.WithError(err).Warn("failed to cache project graph result")
	}
	return view, nil
}

// InvalidateProject drops every cached query result for projectID. Best-effort: a failure here
// is logged, not fatal, since a stale cache entry self-heals at its TTL.
func (e *Engine) InvalidateProject(ctx context.Context, projectID string) {
	if _, err := e.cache.DeletePattern(ctx, cache.ProjectInvalidationPattern(projectID)); err != nil {
		e.logger.WithError(err).Warn("failed to invalidate project cache")
	}
}
