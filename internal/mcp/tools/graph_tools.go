package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/query"
)

// GraphTools wraps a query.Engine's visualization projection as an MCP tool.
type GraphTools struct {
	engine *query.Engine
}

func NewGraphTools(engine *query.Engine) *GraphTools {
	return &GraphTools{engine: engine}
}

type GetProjectGraphInput struct {
	ProjectID       string   `json:"project_id"`
	ViewMode        string   `json:"view_mode,omitempty" jsonschema:"\"file\" or \"symbol\", default \"symbol\""`
	EntityTypes     []string `json:"entity_types,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	FilePatterns    []string `json:"file_patterns,omitempty"`
	IncludeExternal bool     `json:"include_external,omitempty"`
	IncludeIsolated bool     `json:"include_isolated,omitempty"`
	MaxNodes        int      `json:"max_nodes,omitempty"`
	MaxEdges        int      `json:"max_edges,omitempty"`
}

// GetProjectGraph implements the get_project_graph tool: a filtered, truncation-aware
// visualization projection of a project's graph.
func (t *GraphTools) GetProjectGraph(ctx context.Context, req *mcp.CallToolRequest, in GetProjectGraphInput) (*mcp.CallToolResult, *models.GraphView, error) {
	viewMode := in.ViewMode
	if viewMode == "" {
		viewMode = "symbol"
	}
	filters := models.GraphFilters{
		ViewMode: viewMode, EntityTypes: in.EntityTypes, Languages: in.Languages,
		FilePatterns: in.FilePatterns, IncludeExternal: in.IncludeExternal,
		IncludeIsolated: in.IncludeIsolated, MaxNodes: in.MaxNodes, MaxEdges: in.MaxEdges,
	}
	view, err := t.engine.GetProjectGraph(ctx, in.ProjectID, filters)
	if err != nil {
		return nil, nil, err
	}
	return nil, view, nil
}
