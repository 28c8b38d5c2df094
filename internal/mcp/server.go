// Package mcp assembles the MCP tool server: QueryEngine, ContextAssembler, Analyzer, and
// IngestionCoordinator operations, each exposed as a typed tool via the official SDK.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraph/graphrag/internal/analyzer"
	"github.com/codegraph/graphrag/internal/ingestion"
	"github.com/codegraph/graphrag/internal/mcp/tools"
	"github.com/codegraph/graphrag/internal/query"
	"github.com/codegraph/graphrag/internal/retrieval"
)

const serverName = "codegraph"

// Deps is every component the MCP surface wraps as tools.
type Deps struct {
	Query       *query.Engine
	Context     *retrieval.Assembler
	Analyzer    *analyzer.Analyzer
	Coordinator *ingestion.Coordinator
	Version     string
}

// NewServer builds an *mcp.Server with every tool registered, ready to Run against a transport
// (stdio in production, an in-memory transport in tests).
func NewServer(deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: deps.Version}, nil)

	queryTools := tools.NewQueryTools(deps.Query)
	graphTools := tools.NewGraphTools(deps.Query)
	contextTools := tools.NewContextTools(deps.Context)
	analyzeTools := tools.NewAnalyzeTools(deps.Analyzer)
	ingestTools := tools.NewIngestTools(deps.Coordinator)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_callers",
		Description: "List every entity that calls a given function, method, or class.",
	}, queryTools.FindCallers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_dependencies",
		Description: "List every entity a given function, method, or class calls.",
	}, queryTools.FindDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "impact_analysis",
		Description: "Compute the transitive set of entities reached from an entity through CALLS edges, with cycle detection.",
	}, queryTools.ImpactAnalysis)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Embedding-similarity search over indexed entities across one or more projects.",
	}, queryTools.SemanticSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_project_graph",
		Description: "A filtered, size-capped visualization projection of a project's code graph.",
	}, graphTools.GetProjectGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Assemble a token-budgeted, citation-formatted context block via hybrid semantic+graph ranking.",
	}, contextTools.RetrieveContext)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_graph",
		Description: "Statically analyze a Python snippet into a definition/call/import/extends graph. No execution.",
	}, analyzeTools.AnalyzeGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_execution",
		Description: "Trace a Python snippet's execution step by step inside a resource-limited sandbox.",
	}, analyzeTools.AnalyzeExecution)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_local_path",
		Description: "Walk a directory on the server's filesystem and index it as a new project.",
	}, ingestTools.IngestLocalPath)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ingestion_status",
		Description: "Check the progress of a previously started ingestion session.",
	}, ingestTools.GetIngestionStatus)

	return server
}
