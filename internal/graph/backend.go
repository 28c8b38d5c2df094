// Package graph implements the GraphStore adapter: the Neo4j-backed persistence and query
// layer for the entity/relationship graph the parser and enrichment passes produce.
package graph

import (
	"context"
	"time"

	"github.com/codegraph/graphrag/internal/models"
)

// Store is the graph persistence and query contract every component above the adapter depends
// on. Neo4jStore is the only implementation; the interface exists so internal/query and
// internal/ingestion can be tested against a fake.
type Store interface {
	// CreateProject atomically writes the Project node plus every entity and relationship in one
	// transaction: on any step's failure the whole write rolls back, so the project is never
	// observable with only some of its entities or relationships present. Returns the number of
	// relationships dropped (unknown kind, or an endpoint that doesn't resolve to an entity).
	CreateProject(ctx context.Context, project *models.Project, entities []*models.Entity, relationships []*models.Relationship) (dropped int, err error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, projectID string) error

	// CreateEntities and CreateRelationships are the non-atomic, standalone forms of the same
	// writes CreateProject performs transactionally; they exist for incremental re-indexing of
	// individual files, not for initial project creation.
	CreateEntities(ctx context.Context, projectID string, entities []*models.Entity) error
	// CreateRelationships persists rels, skipping (and counting) any whose endpoints don't
	// resolve to an existing entity, per the edge-drop-with-warning-count rule.
	CreateRelationships(ctx context.Context, rels []*models.Relationship) (dropped int, err error)

	FindCallers(ctx context.Context, entityID string) ([]*models.Entity, error)
	FindDependencies(ctx context.Context, entityID string) ([]*models.Entity, error)
	GetClassHierarchy(ctx context.Context, classID string) (*models.ClassHierarchy, error)
	ImpactAnalysis(ctx context.Context, entityID string, maxDepth int) (*models.ImpactResult, error)
	GetProjectGraph(ctx context.Context, projectID string, filters models.GraphFilters) (*models.GraphView, error)
	// GetEntitiesByID materializes full entities for ids, in no particular order, silently
	// omitting ids that no longer resolve (e.g. a vector hit for an entity deleted since indexing).
	GetEntitiesByID(ctx context.Context, ids []string) ([]*models.Entity, error)

	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// retryPolicy is the transient-error retry schedule every write path in this package uses:
// 3 attempts, 1s base backoff, factor 2, covering transient Bolt errors such as connection
// resets and leader elections.
var retryPolicy = struct {
	attempts int
	base     time.Duration
	factor   float64
}{attempts: 3, base: time.Second, factor: 2}
