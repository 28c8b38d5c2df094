package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraph/graphrag/internal/analyzer"
)

// AnalyzeTools wraps an analyzer.Analyzer as the analyze_graph and analyze_execution tools.
type AnalyzeTools struct {
	analyzer *analyzer.Analyzer
}

func NewAnalyzeTools(a *analyzer.Analyzer) *AnalyzeTools {
	return &AnalyzeTools{analyzer: a}
}

type AnalyzeGraphInput struct {
	Code string `json:"code" jsonschema:"a Python snippet to statically analyze"`
}

// AnalyzeGraph implements the analyze_graph tool: definitions and call/import/extends edges
// discovered by AST analysis alone, no execution risk.
func (t *AnalyzeTools) AnalyzeGraph(ctx context.Context, req *mcp.CallToolRequest, in AnalyzeGraphInput) (*mcp.CallToolResult, *analyzer.GraphResult, error) {
	result, err := t.analyzer.AnalyzeGraph(in.Code)
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}

type AnalyzeExecutionInput struct {
	Code          string `json:"code" jsonschema:"a Python snippet to trace"`
	MaxSteps      int    `json:"max_steps,omitempty" jsonschema:"step budget, clamped to server policy"`
	TimeoutMS     int    `json:"timeout_ms,omitempty" jsonschema:"wall-clock budget in milliseconds, clamped to server policy"`
	AllowOverride bool   `json:"allow_override,omitempty" jsonschema:"override the production execution-disabled policy; ignored outside production"`
}

// AnalyzeExecution implements the analyze_execution tool: a step-by-step trace of the snippet
// run in the resource-limited sandbox.
func (t *AnalyzeTools) AnalyzeExecution(ctx context.Context, req *mcp.CallToolRequest, in AnalyzeExecutionInput) (*mcp.CallToolResult, *analyzer.ExecutionResult, error) {
	result, err := t.analyzer.AnalyzeExecution(ctx, in.Code, in.MaxSteps, in.TimeoutMS, in.AllowOverride)
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}
