package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	internalmcp "github.com/codegraph/graphrag/internal/mcp"
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Run the MCP tool server over stdio",
	RunE:  runServeMCP,
}

func runServeMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	d, closeFn, err := buildServerDeps(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	server := internalmcp.NewServer(internalmcp.Deps{
		Query:       d.engine,
		Context:     d.assembler,
		Analyzer:    buildAnalyzer(),
		Coordinator: d.coordinator,
		Version:     Version,
	})

	logger.Info("codegraph MCP server starting on stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}
