package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/retrieval"
)

// ContextTools wraps a retrieval.Assembler as an MCP tool for retrieval-augmented prompting.
type ContextTools struct {
	assembler *retrieval.Assembler
}

func NewContextTools(assembler *retrieval.Assembler) *ContextTools {
	return &ContextTools{assembler: assembler}
}

type RetrieveContextInput struct {
	Query           string   `json:"query,omitempty" jsonschema:"used for hybrid ranking, ignored when manual_entity_ids is set"`
	ProjectID       string   `json:"project_id"`
	TokenBudget     int      `json:"token_budget" jsonschema:"approximate max tokens the assembled context may consume"`
	ManualEntityIDs []string `json:"manual_entity_ids,omitempty" jsonschema:"bypass ranking and assemble exactly these entities, in order"`
	ValidateOnly    bool     `json:"validate_only,omitempty" jsonschema:"report fit without assembling the context text"`
}

type RetrieveContextOutput struct {
	Result     *models.ContextResult     `json:"result,omitempty"`
	Validation *models.ContextValidation `json:"validation,omitempty"`
}

// RetrieveContext implements the retrieve_context tool: hybrid semantic+graph ranking packed
// into citation-formatted, token-budgeted context text, or a validate-only fit check.
func (t *ContextTools) RetrieveContext(ctx context.Context, req *mcp.CallToolRequest, in RetrieveContextInput) (*mcp.CallToolResult, RetrieveContextOutput, error) {
	result, validation, err := t.assembler.RetrieveContext(
		ctx, in.Query, in.ProjectID, in.TokenBudget, in.ManualEntityIDs, in.ValidateOnly,
	)
	if err != nil {
		return nil, RetrieveContextOutput{}, err
	}
	return nil, RetrieveContextOutput{Result: result, Validation: validation}, nil
}
