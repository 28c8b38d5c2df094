package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/query"
)

// QueryTools wraps a query.Engine as a set of MCP tool handlers.
type QueryTools struct {
	engine *query.Engine
}

func NewQueryTools(engine *query.Engine) *QueryTools {
	return &QueryTools{engine: engine}
}

type EntityQueryInput struct {
	ProjectID string `json:"project_id" jsonschema:"the project to query"`
	EntityID  string `json:"entity_id" jsonschema:"the entity (function/method/class) to query from"`
}

type QueryResultOutput struct {
	Entities    []*models.Entity `json:"entities"`
	Count       int              `json:"count"`
	Fingerprint string           `json:"fingerprint"`
}

func toQueryResultOutput(r *models.QueryResult) QueryResultOutput {
	return QueryResultOutput{Entities: r.Entities, Count: r.Count, Fingerprint: r.Fingerprint}
}

// FindCallers implements the find_callers tool: everything that calls entity_id.
func (t *QueryTools) FindCallers(ctx context.Context, req *mcp.CallToolRequest, in EntityQueryInput) (*mcp.CallToolResult, QueryResultOutput, error) {
	result, err := t.engine.FindCallers(ctx, in.ProjectID, in.EntityID)
	if err != nil {
		return nil, QueryResultOutput{}, err
	}
	return nil, toQueryResultOutput(result), nil
}

// FindDependencies implements the find_dependencies tool: everything entity_id calls.
func (t *QueryTools) FindDependencies(ctx context.Context, req *mcp.CallToolRequest, in EntityQueryInput) (*mcp.CallToolResult, QueryResultOutput, error) {
	result, err := t.engine.FindDependencies(ctx, in.ProjectID, in.EntityID)
	if err != nil {
		return nil, QueryResultOutput{}, err
	}
	return nil, toQueryResultOutput(result), nil
}

type ImpactAnalysisInput struct {
	ProjectID string `json:"project_id"`
	EntityID  string `json:"entity_id"`
	MaxDepth  int    `json:"max_depth,omitempty" jsonschema:"how many CALLS hops to traverse; 0 or more than 10 means 10"`
}

// ImpactAnalysis implements the impact_analysis tool: the entities entity_id reaches through
// CALLS edges, up to max_depth hops, with cycle detection.
func (t *QueryTools) ImpactAnalysis(ctx context.Context, req *mcp.CallToolRequest, in ImpactAnalysisInput) (*mcp.CallToolResult, *models.ImpactResult, error) {
	result, err := t.engine.ImpactAnalysis(ctx, in.ProjectID, in.EntityID, in.MaxDepth)
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}

type SemanticSearchInput struct {
	Query      string   `json:"query" jsonschema:"natural language or code-shaped search text"`
	ProjectIDs []string `json:"project_ids" jsonschema:"projects to search across"`
	TopK       int      `json:"top_k,omitempty" jsonschema:"max results to return; 0 uses the server's configured default"`
}

// SemanticSearch implements the semantic_search tool: embedding-similarity search over indexed
// entities, ranked by cosine similarity.
func (t *QueryTools) SemanticSearch(ctx context.Context, req *mcp.CallToolRequest, in SemanticSearchInput) (*mcp.CallToolResult, QueryResultOutput, error) {
	result, err := t.engine.SemanticSearch(ctx, in.Query, in.ProjectIDs, in.TopK)
	if err != nil {
		return nil, QueryResultOutput{}, err
	}
	return nil, toQueryResultOutput(result), nil
}
