// Package vectorstore implements the VectorStore adapter: per-project embedding collections
// backed by a single shared Postgres table with the pgvector extension, using pgx's
// AfterConnect hook to register the vector type and cosine distance via the "<=>" operator.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	apperrors "github.com/codegraph/graphrag/internal/errors"
)

// Entry is one vector to persist, along with the metadata every write requires for filtering
// and display: its kind, file path, and name alongside the owning project.
type Entry struct {
	EntityID  string
	ProjectID string
	Vector    []float32
	Kind      string
	FilePath  string
	Name      string
}

// Hit is one semantic-search or find-similar result: an entity id with its similarity (1 -
// cosine distance) to the query vector.
type Hit struct {
	EntityID   string
	ProjectID  string
	Similarity float64
}

// Store is the pgvector-backed VectorStore adapter. Every logical "collection" named in the
// adapter's public contract (project_<id>_embeddings) is a project_id-filtered view over the
// single shared entity_embeddings table.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
}

// New connects to dsn, registers pgvector's type codec on every connection via AfterConnect,
// and runs the idempotent migration.
func New(ctx context.Context, dsn string, dimension int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("vectorstore: ping: %w", err)
	}

	s := &Store{pool: pool, dimension: dimension}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS collections (
    project_id TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entity_embeddings (
    entity_id   TEXT         PRIMARY KEY,
    project_id  TEXT         NOT NULL,
    kind        TEXT         NOT NULL,
    file_path   TEXT         NOT NULL,
    name        TEXT         NOT NULL,
    embedding   vector(%d)   NOT NULL,
    updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_entity_embeddings_project
    ON entity_embeddings (project_id);

CREATE INDEX IF NOT EXISTS idx_entity_embeddings_vector
    ON entity_embeddings USING hnsw (embedding vector_cosine_ops);
`, s.dimension)

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("vectorstore: migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureCollection idempotently registers projectID's logical collection.
func (s *Store) EnsureCollection(ctx context.Context, projectID string) error {
	const q = `INSERT INTO collections (project_id) VALUES ($1) ON CONFLICT (project_id) DO NOTHING`
	if _, err := s.pool.Exec(ctx, q, projectID); err != nil {
		return apperrors.DatabaseQueryError(err, "ensure collection")
	}
	return nil
}

// StoreEmbedding validates entry's metadata and vector dimension, then upserts it.
func (s *Store) StoreEmbedding(ctx context.Context, entry Entry) error {
	if err := s.validate(entry); err != nil {
		return err
	}
	const q = `
		INSERT INTO entity_embeddings (entity_id, project_id, kind, file_path, name, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (entity_id) DO UPDATE SET
		    project_id = EXCLUDED.project_id,
		    kind       = EXCLUDED.kind,
		    file_path  = EXCLUDED.file_path,
		    name       = EXCLUDED.name,
		    embedding  = EXCLUDED.embedding,
		    updated_at = now()`
	_, err := s.pool.Exec(ctx, q, entry.EntityID, entry.ProjectID, entry.Kind, entry.FilePath, entry.Name, pgvector.NewVector(entry.Vector))
	if err != nil {
		return apperrors.DatabaseQueryError(err, "store embedding")
	}
	return nil
}

// BatchStore groups entries by project_id and issues one pipelined upsert batch per project.
func (s *Store) BatchStore(ctx context.Context, entries []Entry) error {
	byProject := make(map[string][]Entry)
	for _, e := range entries {
		if err := s.validate(e); err != nil {
			return err
		}
		byProject[e.ProjectID] = append(byProject[e.ProjectID], e)
	}

	const q = `
		INSERT INTO entity_embeddings (entity_id, project_id, kind, file_path, name, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (entity_id) DO UPDATE SET
		    project_id = EXCLUDED.project_id,
		    kind       = EXCLUDED.kind,
		    file_path  = EXCLUDED.file_path,
		    name       = EXCLUDED.name,
		    embedding  = EXCLUDED.embedding,
		    updated_at = now()`

	for _, group := range byProject {
		batch := &pgx.Batch{}
		for _, e := range group {
			batch.Queue(q, e.EntityID, e.ProjectID, e.Kind, e.FilePath, e.Name, pgvector.NewVector(e.Vector))
		}
		results := s.pool.SendBatch(ctx, batch)
		err := results.Close()
		if err != nil {
			return apperrors.DatabaseQueryError(err, "batch store embeddings")
		}
	}
	return nil
}

func (s *Store) validate(e Entry) error {
	if e.EntityID == "" || e.ProjectID == "" || e.Kind == "" || e.FilePath == "" || e.Name == "" {
		return apperrors.InvalidRequest("embedding metadata requires kind, file_path, name, and project_id")
	}
	if len(e.Vector) != s.dimension {
		return apperrors.InvalidRequest(fmt.Sprintf("embedding dimension mismatch: got %d, want %d", len(e.Vector), s.dimension))
	}
	return nil
}

// SemanticSearch queries each of projectIDs' collections, converts distance to similarity
// (1 - cosine distance), filters by threshold, merges, sorts descending, and truncates to topK.
func (s *Store) SemanticSearch(ctx context.Context, queryVector []float32, projectIDs []string, topK int, similarityThreshold float64) ([]Hit, error) {
	if len(queryVector) != s.dimension {
		return nil, apperrors.InvalidRequest(fmt.Sprintf("query embedding dimension mismatch: got %d, want %d", len(queryVector), s.dimension))
	}
	if len(projectIDs) == 0 {
		return nil, nil
	}

	queryVec := pgvector.NewVector(queryVector)
	const q = `
		SELECT entity_id, project_id, embedding <=> $1 AS distance
		FROM entity_embeddings
		WHERE project_id = ANY($2)
		ORDER BY distance
		LIMIT $3`

	rows, err := s.pool.Query(ctx, q, queryVec, projectIDs, topK)
	if err != nil {
		return nil, apperrors.DatabaseQueryError(err, "semantic search")
	}

	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Hit, error) {
		var h Hit
		var distance float64
		if err := row.Scan(&h.EntityID, &h.ProjectID, &distance); err != nil {
			return Hit{}, err
		}
		h.Similarity = 1 - distance
		return h, nil
	})
	if err != nil {
		return nil, apperrors.DatabaseQueryError(err, "scan semantic search rows")
	}

	filtered := hits[:0]
	for _, h := range hits {
		if h.Similarity >= similarityThreshold {
			filtered = append(filtered, h)
		}
	}
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}
	return filtered, nil
}

// FindSimilar fetches entityID's own vector and queries for the topK nearest neighbors, with
// entityID itself excluded in the query.
func (s *Store) FindSimilar(ctx context.Context, entityID, projectID string, topK int) ([]Hit, error) {
	var vec pgvector.Vector
	const fetchQ = `SELECT embedding FROM entity_embeddings WHERE entity_id = $1 AND project_id = $2`
	if err := s.pool.QueryRow(ctx, fetchQ, entityID, projectID).Scan(&vec); err != nil {
		return nil, apperrors.EntityNotFound(entityID)
	}

	const q = `
		SELECT entity_id, project_id, embedding <=> $1 AS distance
		FROM entity_embeddings
		WHERE project_id = $2 AND entity_id != $3
		ORDER BY distance
		LIMIT $4`

	rows, err := s.pool.Query(ctx, q, vec, projectID, entityID, topK)
	if err != nil {
		return nil, apperrors.DatabaseQueryError(err, "find similar")
	}
	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Hit, error) {
		var h Hit
		var distance float64
		if err := row.Scan(&h.EntityID, &h.ProjectID, &distance); err != nil {
			return Hit{}, err
		}
		h.Similarity = 1 - distance
		return h, nil
	})
	if err != nil {
		return nil, apperrors.DatabaseQueryError(err, "scan find-similar rows")
	}
	return hits, nil
}

// DeleteProject deletes projectID's whole collection. Non-existence is a no-op returning zero.
func (s *Store) DeleteProject(ctx context.Context, projectID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM entity_embeddings WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, apperrors.DatabaseQueryError(err, "delete project embeddings")
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM collections WHERE project_id = $1`, projectID); err != nil {
		return 0, apperrors.DatabaseQueryError(err, "delete project collection")
	}
	return tag.RowsAffected(), nil
}
