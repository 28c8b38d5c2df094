package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "github.com/codegraph/graphrag/internal/errors"
	"github.com/codegraph/graphrag/internal/models"
)

// Neo4jStore implements Store using the Bolt driver and idempotent MERGE-based writes, so
// re-ingesting a project reattaches existing entities instead of duplicating them.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore connects to Neo4j and verifies connectivity before returning.
func NewNeo4jStore(ctx context.Context, uri, username, password, database string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, apperrors.DatabaseConnectionError(err, "create neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, apperrors.DatabaseConnectionError(err, "connect to neo4j")
	}
	return &Neo4jStore{driver: driver, database: database}, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// withRetry runs fn up to retryPolicy.attempts times, backing off exponentially between
// attempts, and only retries when the failure is classified transient.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	wait := retryPolicy.base
	for attempt := 0; attempt < retryPolicy.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			wait = time.Duration(float64(wait) * retryPolicy.factor)
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransientNeo4jError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// isTransientNeo4jError reports whether err is worth retrying: a leader election, a dropped
// connection, or any other condition the driver itself classifies as retryable.
func isTransientNeo4jError(err error) bool {
	return neo4j.IsRetryable(err)
}

// queryOpts builds the ExecuteQuery options for operation: database selection, read/write
// routing, and the operation's configured timeout/metadata.
func (s *Neo4jStore) queryOpts(operation string, write bool) []neo4j.ExecuteQueryConfigurationOption {
	opts := []neo4j.ExecuteQueryConfigurationOption{
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithConfigurers(GetConfigForOperation(operation).AsNeo4jConfig()...),
	}
	if write {
		opts = append(opts, neo4j.ExecuteQueryWithWritersRouting())
	} else {
		opts = append(opts, neo4j.ExecuteQueryWithReadersRouting())
	}
	return opts
}

func (s *Neo4jStore) EnsureIndexes(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (e:Entity) REQUIRE e.id IS UNIQUE",
		"CREATE CONSTRAINT project_id IF NOT EXISTS FOR (p:Project) REQUIRE p.id IS UNIQUE",
		"CREATE INDEX entity_project IF NOT EXISTS FOR (e:Entity) ON (e.project_id)",
		"CREATE INDEX entity_kind IF NOT EXISTS FOR (e:Entity) ON (e.kind)",
		"CREATE INDEX entity_file_path IF NOT EXISTS FOR (e:Entity) ON (e.file_path)",
	}
	for _, stmt := range statements {
		if _, err := neo4j.ExecuteQuery(ctx, s.driver, stmt, nil, neo4j.EagerResultTransformer,
			s.queryOpts("index_setup", true)...); err != nil {
			return apperrors.DatabaseQueryError(err, "create index/constraint: "+stmt)
		}
	}
	return nil
}

// CreateProject writes the Project node plus every entity and relationship in one managed
// transaction: the MERGE built by CypherBuilder for the single Project row, then an UNWIND MERGE
// per entity/relationship batch, all inside one neo4j.ExecuteWrite callback. A failure on any
// statement aborts the transaction, so a partially-written project is never observable; retried
// attempts run the whole transaction again from a fresh session.
func (s *Neo4jStore) CreateProject(ctx context.Context, project *models.Project, entities []*models.Entity, relationships []*models.Relationship) (int, error) {
	builder := NewCypherBuilder()
	projectCypher, err := builder.BuildMergeNode("Project", "id", project.ID, map[string]any{
		"name":         project.Name,
		"owner_id":     project.OwnerID,
		"created_at":   project.CreatedAt.UTC().Format(time.RFC3339),
		"file_count":   project.FileCount,
		"entity_count": project.EntityCount,
		"status":       string(project.Status),
	})
	if err != nil {
		return 0, apperrors.DatabaseQueryError(err, "build project merge")
	}
	projectParams := builder.Params()

	entityRows := entityUpsertRows(project.ID, entities)
	externalIDs, relsByKind := groupRelationships(relationships)
	txConfig := GetConfigForOperation("project_lifecycle").AsNeo4jConfig()

	var dropped int
	err = withRetry(ctx, func() error {
		session := s.driver.NewSession(ctx, neo4j.SessionConfig{
			DatabaseName: s.database, AccessMode: neo4j.AccessModeWrite,
		})
		defer session.Close(ctx)

		result, werr := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			if _, err := tx.Run(ctx, projectCypher, projectParams); err != nil {
				return nil, err
			}
			if len(entityRows) > 0 {
				if _, err := tx.Run(ctx, entityUpsertCypher, map[string]any{"rows": entityRows}); err != nil {
					return nil, err
				}
			}
			if len(externalIDs) > 0 {
				if _, err := tx.Run(ctx,
					`UNWIND $ids AS id MERGE (e:Entity {id: id}) ON CREATE SET e.kind = 'external_module'`,
					map[string]any{"ids": externalIDs}); err != nil {
					return nil, err
				}
			}
			txDropped, err := runRelationshipMerges(ctx, tx, relsByKind)
			if err != nil {
				return nil, err
			}
			return txDropped, nil
		}, txConfig...)
		if werr != nil {
			return werr
		}
		dropped = result.(int)
		return nil
	})
	if err != nil {
		return 0, apperrors.DatabaseQueryError(err, "create project")
	}
	return dropped, nil
}

// UpdateProject re-asserts the Project node's own fields (name, counts, status) without touching
// its entities or relationships; used for metadata-only corrections outside the ingestion path.
func (s *Neo4jStore) UpdateProject(ctx context.Context, project *models.Project) error {
	builder := NewCypherBuilder()
	cypher, err := builder.BuildMergeNode("Project", "id", project.ID, map[string]any{
		"name":         project.Name,
		"owner_id":     project.OwnerID,
		"created_at":   project.CreatedAt.UTC().Format(time.RFC3339),
		"file_count":   project.FileCount,
		"entity_count": project.EntityCount,
		"status":       string(project.Status),
	})
	if err != nil {
		return apperrors.DatabaseQueryError(err, "build project merge")
	}
	return withRetry(ctx, func() error {
		_, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, builder.Params(), neo4j.EagerResultTransformer,
			s.queryOpts("project_lifecycle", true)...)
		if err != nil {
			return apperrors.DatabaseQueryError(err, "update project")
		}
		return nil
	})
}

func (s *Neo4jStore) DeleteProject(ctx context.Context, projectID string) error {
	return withRetry(ctx, func() error {
		_, err := neo4j.ExecuteQuery(ctx, s.driver,
			`MATCH (e:Entity {project_id: $pid}) DETACH DELETE e`,
			map[string]any{"pid": projectID}, neo4j.EagerResultTransformer,
			s.queryOpts("project_lifecycle", true)...)
		if err != nil {
			return apperrors.DatabaseQueryError(err, "delete project entities")
		}
		_, err = neo4j.ExecuteQuery(ctx, s.driver,
			`MATCH (p:Project {id: $pid}) DELETE p`,
			map[string]any{"pid": projectID}, neo4j.EagerResultTransformer,
			s.queryOpts("project_lifecycle", true)...)
		if err != nil {
			return apperrors.DatabaseQueryError(err, "delete project node")
		}
		return nil
	})
}

const entityUpsertCypher = `UNWIND $rows AS row
	MERGE (e:Entity {id: row.id})
	SET e.project_id = row.project_id, e.kind = row.kind, e.name = row.name,
	    e.file_path = row.file_path, e.start_line = row.start_line, e.end_line = row.end_line,
	    e.language = row.language, e.signature = row.signature, e.docstring = row.docstring, e.body = row.body`

// entityUpsertRows converts entities into the row shape entityUpsertCypher's UNWIND expects.
func entityUpsertRows(projectID string, entities []*models.Entity) []map[string]any {
	rows := make([]map[string]any, len(entities))
	for i, e := range entities {
		rows[i] = map[string]any{
			"id": e.ID, "project_id": projectID, "kind": string(e.Kind), "name": e.Name,
			"file_path": e.FilePath, "start_line": e.StartLine, "end_line": e.EndLine,
			"language": string(e.Language), "signature": e.Signature, "docstring": e.Docstring, "body": e.Body,
		}
	}
	return rows
}

// CreateEntities upserts entities via a single UNWIND, so ten thousand entities cost one
// round trip instead of ten thousand. Exposed as a standalone operation for incremental
// re-indexing of individual files; the full-project ingestion path writes entities as part of
// CreateProject's atomic transaction instead.
func (s *Neo4jStore) CreateEntities(ctx context.Context, projectID string, entities []*models.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	rows := entityUpsertRows(projectID, entities)
	return withRetry(ctx, func() error {
		_, err := neo4j.ExecuteQuery(ctx, s.driver, entityUpsertCypher, map[string]any{"rows": rows}, neo4j.EagerResultTransformer,
			s.queryOpts("create_entities", true)...)
		if err != nil {
			return apperrors.DatabaseQueryError(err, "create entities")
		}
		return nil
	})
}

var relationshipCypherType = map[models.RelationshipKind]string{
	models.RelDefines:    "DEFINES",
	models.RelCalls:      "CALLS",
	models.RelImports:    "IMPORTS",
	models.RelExtends:    "EXTENDS",
	models.RelImplements: "IMPLEMENTS",
	models.RelUses:       "USES",
	models.RelTests:      "TESTS",
}

// groupRelationships buckets rels by kind (Cypher can't parameterize a relationship type) and
// collects the distinct external-module target ids that need a placeholder Entity node merged
// before any edge into them can be created.
func groupRelationships(rels []*models.Relationship) ([]string, map[models.RelationshipKind][]*models.Relationship) {
	externalTargets := map[string]bool{}
	byKind := make(map[models.RelationshipKind][]*models.Relationship)
	for _, r := range rels {
		byKind[r.Kind] = append(byKind[r.Kind], r)
		if strings.HasPrefix(r.TargetID, models.ExternalModulePrefix) {
			externalTargets[r.TargetID] = true
		}
	}
	ids := make([]string, 0, len(externalTargets))
	for id := range externalTargets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, byKind
}

// runRelationshipMerges issues one UNWIND MERGE per relationship kind inside tx, returning the
// count of edges dropped because their kind has no known Cypher type or an endpoint didn't
// resolve to an existing entity.
func runRelationshipMerges(ctx context.Context, tx neo4j.ManagedTransaction, byKind map[models.RelationshipKind][]*models.Relationship) (int, error) {
	dropped := 0
	kinds := make([]models.RelationshipKind, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		group := byKind[kind]
		cypherType, ok := relationshipCypherType[kind]
		if !ok {
			dropped += len(group)
			continue
		}
		rows := make([]map[string]any, len(group))
		for i, r := range group {
			rows[i] = map[string]any{"source": r.SourceID, "target": r.TargetID}
		}
		cypher := fmt.Sprintf(`UNWIND $rows AS row
			MATCH (s:Entity {id: row.source})
			MATCH (t:Entity {id: row.target})
			MERGE (s)-[:%s]->(t)
			RETURN count(*) AS created`, cypherType)

		result, err := tx.Run(ctx, cypher, map[string]any{"rows": rows})
		if err != nil {
			return dropped, fmt.Errorf("create relationships %s: %w", cypherType, err)
		}
		record, err := result.Single(ctx)
		if err != nil {
			return dropped, fmt.Errorf("create relationships %s: %w", cypherType, err)
		}
		created := 0
		if v, ok := record.Get("created"); ok {
			created = int(v.(int64))
		}
		dropped += len(group) - created
	}
	return dropped, nil
}

// CreateRelationships groups rels by kind and issues one UNWIND per kind, auto-committed as
// independent statements. Exposed as a standalone operation for incremental re-indexing; the
// full-project ingestion path writes relationships as part of CreateProject's atomic transaction.
func (s *Neo4jStore) CreateRelationships(ctx context.Context, rels []*models.Relationship) (int, error) {
	if len(rels) == 0 {
		return 0, nil
	}

	externalIDs, byKind := groupRelationships(rels)
	if len(externalIDs) > 0 {
		err := withRetry(ctx, func() error {
			_, err := neo4j.ExecuteQuery(ctx, s.driver,
				`UNWIND $ids AS id MERGE (e:Entity {id: id}) ON CREATE SET e.kind = 'external_module'`,
				map[string]any{"ids": externalIDs}, neo4j.EagerResultTransformer,
				s.queryOpts("create_relationships", true)...)
			return err
		})
		if err != nil {
			return 0, apperrors.DatabaseQueryError(err, "create external module placeholders")
		}
	}

	dropped := 0
	for kind, group := range byKind {
		cypherType, ok := relationshipCypherType[kind]
		if !ok {
			dropped += len(group)
			continue
		}
		rows := make([]map[string]any, len(group))
		for i, r := range group {
			rows[i] = map[string]any{"source": r.SourceID, "target": r.TargetID}
		}
		cypher := fmt.Sprintf(`UNWIND $rows AS row
			MATCH (s:Entity {id: row.source})
			MATCH (t:Entity {id: row.target})
			MERGE (s)-[:%s]->(t)
			RETURN count(*) AS created`, cypherType)

		created := 0
		err := withRetry(ctx, func() error {
			result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, map[string]any{"rows": rows}, neo4j.EagerResultTransformer,
				s.queryOpts("create_relationships", true)...)
			if err != nil {
				return err
			}
			if len(result.Records) > 0 {
				if v, ok := result.Records[0].Get("created"); ok {
					created = int(v.(int64))
				}
			}
			return nil
		})
		if err != nil {
			return dropped, apperrors.DatabaseQueryError(err, "create relationships: "+cypherType)
		}
		dropped += len(group) - created
	}
	return dropped, nil
}

func (s *Neo4jStore) FindCallers(ctx context.Context, entityID string) ([]*models.Entity, error) {
	return s.queryConnectedEntities(ctx,
		`MATCH (caller:Entity)-[:CALLS]->(target:Entity {id: $id}) RETURN caller`, entityID)
}

func (s *Neo4jStore) FindDependencies(ctx context.Context, entityID string) ([]*models.Entity, error) {
	return s.queryConnectedEntities(ctx,
		`MATCH (source:Entity {id: $id})-[:CALLS|USES]->(dep:Entity) RETURN dep AS caller`, entityID)
}

func (s *Neo4jStore) queryConnectedEntities(ctx context.Context, cypher, entityID string) ([]*models.Entity, error) {
	var entities []*models.Entity
	err := withRetry(ctx, func() error {
		result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, map[string]any{"id": entityID}, neo4j.EagerResultTransformer,
			s.queryOpts("structural_query", false)...)
		if err != nil {
			return err
		}
		entities = nil
		for _, record := range result.Records {
			v, ok := record.Get("caller")
			if !ok {
				continue
			}
			node, ok := v.(neo4j.Node)
			if !ok {
				continue
			}
			entities = append(entities, entityFromNode(node))
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.DatabaseQueryError(err, "query connected entities")
	}
	return entities, nil
}

func (s *Neo4jStore) GetClassHierarchy(ctx context.Context, classID string) (*models.ClassHierarchy, error) {
	var root *models.Entity
	var parents, children []*models.Entity

	err := withRetry(ctx, func() error {
		result, err := neo4j.ExecuteQuery(ctx, s.driver,
			`MATCH (c:Entity {id: $id}) RETURN c`, map[string]any{"id": classID}, neo4j.EagerResultTransformer,
			s.queryOpts("structural_query", false)...)
		if err != nil {
			return err
		}
		if len(result.Records) == 0 {
			return apperrors.EntityNotFound(classID)
		}
		if v, ok := result.Records[0].Get("c"); ok {
			if node, ok := v.(neo4j.Node); ok {
				root = entityFromNode(node)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if parents, err = s.queryConnectedEntities(ctx,
		`MATCH (c:Entity {id: $id})-[:EXTENDS|IMPLEMENTS]->(p:Entity) RETURN p AS caller`, classID); err != nil {
		return nil, err
	}
	if children, err = s.queryConnectedEntities(ctx,
		`MATCH (child:Entity)-[:EXTENDS|IMPLEMENTS]->(c:Entity {id: $id}) RETURN child AS caller`, classID); err != nil {
		return nil, err
	}

	return &models.ClassHierarchy{Root: root, Parents: parents, Children: children}, nil
}

const impactMaxDepthCap = 10

// ImpactAnalysis walks outgoing CALLS edges breadth-first, one hop per round trip, so a cycle
// back to a node on the current path is detected (and reported) instead of looping forever. A
// node reached again through an unrelated path is skipped without being reported as a cycle.
func (s *Neo4jStore) ImpactAnalysis(ctx context.Context, entityID string, maxDepth int) (*models.ImpactResult, error) {
	if maxDepth <= 0 || maxDepth > impactMaxDepthCap {
		maxDepth = impactMaxDepthCap
	}

	visited := map[string]models.ImpactNode{entityID: {Depth: 0, Path: []string{entityID}}}
	frontier := []string{entityID}
	var cyclePaths [][]string
	hasCycles := false
	truncated := false

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		result, err := neo4j.ExecuteQuery(ctx, s.driver,
			`UNWIND $ids AS id MATCH (target:Entity {id: id})-[:CALLS]->(dep:Entity) RETURN dep.id AS dep_id, id AS target_id`,
			map[string]any{"ids": frontier}, neo4j.EagerResultTransformer,
			s.queryOpts("impact_analysis", false)...)
		if err != nil {
			return nil, apperrors.DatabaseQueryError(err, "impact analysis")
		}
		for _, record := range result.Records {
			depID, _ := record.Get("dep_id")
			targetID, _ := record.Get("target_id")
			depIDStr, _ := depID.(string)
			targetIDStr, _ := targetID.(string)
			if depIDStr == "" {
				continue
			}
			parent := visited[targetIDStr]
			if _, seen := visited[depIDStr]; seen {
				for i, id := range parent.Path {
					if id == depIDStr {
						hasCycles = true
						cyclePaths = append(cyclePaths, append(append([]string{}, parent.Path[i:]...), depIDStr))
						break
					}
				}
				continue
			}
			path := append(append([]string{}, parent.Path...), depIDStr)
			visited[depIDStr] = models.ImpactNode{Depth: depth, Path: path}
			next = append(next, depIDStr)
		}
		if depth == maxDepth && len(next) > 0 {
			truncated = true
		}
		frontier = next
	}

	ids := make([]string, 0, len(visited)-1)
	for id := range visited {
		if id != entityID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	entityByID, err := s.entitiesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	deps := make([]models.ImpactNode, 0, len(ids))
	for _, id := range ids {
		node := visited[id]
		if entity, ok := entityByID[id]; ok {
			node.Entity = entity
		}
		deps = append(deps, node)
	}

	return &models.ImpactResult{
		Root: entityID, Dependencies: deps, TotalAffected: len(deps),
		HasCycles: hasCycles, CyclePaths: cyclePaths, Truncated: truncated,
	}, nil
}

func (s *Neo4jStore) entitiesByID(ctx context.Context, ids []string) (map[string]*models.Entity, error) {
	out := make(map[string]*models.Entity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	result, err := neo4j.ExecuteQuery(ctx, s.driver,
		`UNWIND $ids AS id MATCH (e:Entity {id: id}) RETURN e`,
		map[string]any{"ids": ids}, neo4j.EagerResultTransformer,
		s.queryOpts("impact_analysis", false)...)
	if err != nil {
		return nil, apperrors.DatabaseQueryError(err, "resolve entities by id")
	}
	for _, record := range result.Records {
		if v, ok := record.Get("e"); ok {
			if node, ok := v.(neo4j.Node); ok {
				entity := entityFromNode(node)
				out[entity.ID] = entity
			}
		}
	}
	return out, nil
}

// GetEntitiesByID is the public Store-interface entry point onto entitiesByID, returning a
// slice in no particular order; callers that need input order preserved re-key by ID themselves.
func (s *Neo4jStore) GetEntitiesByID(ctx context.Context, ids []string) ([]*models.Entity, error) {
	byID, err := s.entitiesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Entity, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	return out, nil
}

// GetProjectGraph materializes a visualization-ready subgraph for a project, applying entity
// type/language/file-pattern filters and truncating to MaxNodes/MaxEdges.
func (s *Neo4jStore) GetProjectGraph(ctx context.Context, projectID string, filters models.GraphFilters) (*models.GraphView, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver,
		`MATCH (e:Entity {project_id: $pid}) RETURN e`,
		map[string]any{"pid": projectID}, neo4j.EagerResultTransformer,
		s.queryOpts("project_graph", false)...)
	if err != nil {
		return nil, apperrors.DatabaseQueryError(err, "project graph: entities")
	}

	allowedKind := toSet(filters.EntityTypes)
	allowedLang := toSet(filters.Languages)

	entitiesInProject := 0
	included := make(map[string]*models.Entity)
	for _, record := range result.Records {
		v, ok := record.Get("e")
		if !ok {
			continue
		}
		node, ok := v.(neo4j.Node)
		if !ok {
			continue
		}
		entity := entityFromNode(node)
		entitiesInProject++
		if entity.Kind == models.EntityImport && !filters.IncludeExternal {
			continue
		}
		if len(allowedKind) > 0 && !allowedKind[string(entity.Kind)] {
			continue
		}
		if len(allowedLang) > 0 && !allowedLang[string(entity.Language)] {
			continue
		}
		if !matchesAnyPattern(entity.FilePath, filters.FilePatterns) {
			continue
		}
		included[entity.ID] = entity
	}

	edgeResult, err := neo4j.ExecuteQuery(ctx, s.driver,
		`MATCH (s:Entity {project_id: $pid})-[r]->(t:Entity) RETURN s.id AS source, t.id AS target, type(r) AS kind`,
		map[string]any{"pid": projectID}, neo4j.EagerResultTransformer,
		s.queryOpts("project_graph", false)...)
	if err != nil {
		return nil, apperrors.DatabaseQueryError(err, "project graph: relationships")
	}

	relationshipsInProject := len(edgeResult.Records)
	seenDedup := map[string]bool{}
	var edges []models.GraphEdge
	referenced := map[string]bool{}
	for _, record := range edgeResult.Records {
		source, _ := record.Get("source")
		target, _ := record.Get("target")
		kind, _ := record.Get("kind")
		sourceStr, _ := source.(string)
		targetStr, _ := target.(string)
		kindStr, _ := kind.(string)
		if _, ok := included[sourceStr]; !ok {
			continue
		}
		if _, ok := included[targetStr]; !ok {
			continue
		}
		key := sourceStr + "|" + targetStr + "|" + kindStr
		if seenDedup[key] {
			continue
		}
		seenDedup[key] = true
		referenced[sourceStr] = true
		referenced[targetStr] = true
		edges = append(edges, models.GraphEdge{Source: sourceStr, Target: targetStr, Type: kindStr})
	}

	truncated := false
	var nodes []models.GraphNode
	ids := make([]string, 0, len(included))
	for id := range included {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		entity := included[id]
		if !filters.IncludeIsolated && !referenced[id] {
			continue
		}
		nodes = append(nodes, models.GraphNode{ID: entity.ID, Type: string(entity.Kind), Label: entity.Name})
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type < nodes[j].Type
		}
		return nodes[i].Label < nodes[j].Label
	})
	if filters.MaxNodes > 0 && len(nodes) > filters.MaxNodes {
		nodes = nodes[:filters.MaxNodes]
		truncated = true
		kept := make(map[string]bool, len(nodes))
		for _, n := range nodes {
			kept[n.ID] = true
		}
		remaining := edges[:0]
		for _, e := range edges {
			if kept[e.Source] && kept[e.Target] {
				remaining = append(remaining, e)
			}
		}
		edges = remaining
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Source+"\x00"+edges[i].Target+"\x00"+edges[i].Type < edges[j].Source+"\x00"+edges[j].Target+"\x00"+edges[j].Type
	})
	if filters.MaxEdges > 0 && len(edges) > filters.MaxEdges {
		edges = edges[:filters.MaxEdges]
		truncated = true
	}

	return &models.GraphView{
		Nodes: nodes, Edges: edges,
		Stats:     map[string]int{"nodes": len(nodes), "edges": len(edges)},
		Coverage:  models.Coverage{EntitiesInProject: entitiesInProject, RelationshipsInProject: relationshipsInProject},
		Truncated: truncated,
	}, nil
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func matchesAnyPattern(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func entityFromNode(node neo4j.Node) *models.Entity {
	props := node.Props
	e := &models.Entity{}
	if v, ok := props["id"].(string); ok {
		e.ID = v
	}
	if v, ok := props["project_id"].(string); ok {
		e.ProjectID = v
	}
	if v, ok := props["kind"].(string); ok {
		e.Kind = models.EntityKind(v)
	}
	if v, ok := props["name"].(string); ok {
		e.Name = v
	}
	if v, ok := props["file_path"].(string); ok {
		e.FilePath = v
	}
	if v, ok := props["start_line"].(int64); ok {
		e.StartLine = int(v)
	}
	if v, ok := props["end_line"].(int64); ok {
		e.EndLine = int(v)
	}
	if v, ok := props["language"].(string); ok {
		e.Language = models.Language(v)
	}
	if v, ok := props["signature"].(string); ok {
		e.Signature = v
	}
	if v, ok := props["docstring"].(string); ok {
		e.Docstring = v
	}
	if v, ok := props["body"].(string); ok {
		e.Body = v
	}
	return e
}
