package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraph/graphrag/internal/ingestion"
	"github.com/codegraph/graphrag/internal/models"
)

// IngestTools wraps an ingestion.Coordinator as the ingest_local_path and get_ingestion_status
// tools. Unlike the HTTP upload surface, an MCP server typically shares a filesystem with its
// caller, so ingestion is triggered by path rather than by uploading file contents over the wire.
type IngestTools struct {
	coordinator *ingestion.Coordinator
}

func NewIngestTools(coordinator *ingestion.Coordinator) *IngestTools {
	return &IngestTools{coordinator: coordinator}
}

type IngestLocalPathInput struct {
	ProjectName string `json:"project_name"`
	Path        string `json:"path" jsonschema:"directory on the server's filesystem to walk and ingest"`
	OwnerID     string `json:"owner_id,omitempty"`
}

// IngestLocalPath implements the ingest_local_path tool: walks path, indexes the project, and
// returns the session tracking the background pipeline.
func (t *IngestTools) IngestLocalPath(ctx context.Context, req *mcp.CallToolRequest, in IngestLocalPathInput) (*mcp.CallToolResult, *models.Session, error) {
	session, err := t.coordinator.UploadLocalPath(ctx, in.ProjectName, in.Path, in.OwnerID)
	if err != nil {
		return nil, nil, err
	}
	return nil, session, nil
}

type GetIngestionStatusInput struct {
	SessionID string `json:"session_id"`
}

// GetIngestionStatus implements the get_ingestion_status tool: the current progress of a
// previously started ingestion session.
func (t *IngestTools) GetIngestionStatus(ctx context.Context, req *mcp.CallToolRequest, in GetIngestionStatusInput) (*mcp.CallToolResult, *models.Session, error) {
	session, err := t.coordinator.GetSession(in.SessionID)
	if err != nil {
		return nil, nil, err
	}
	return nil, session, nil
}
