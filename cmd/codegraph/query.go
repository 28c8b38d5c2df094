package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a structural or semantic query, or assemble retrieval context",
}

var queryCallersCmd = &cobra.Command{
	Use:   "callers",
	Short: "List callers of an entity",
	RunE:  runQueryCallers,
}

var queryDepsCmd = &cobra.Command{
	Use:   "dependencies",
	Short: "List dependencies of an entity",
	RunE:  runQueryDependencies,
}

var queryImpactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Compute the transitive CALLS closure of an entity",
	RunE:  runQueryImpact,
}

var querySearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Semantic search across one or more projects",
	RunE:  runQuerySearch,
}

var queryContextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble a token-budgeted retrieval context",
	RunE:  runQueryContext,
}

func init() {
	for _, c := range []*cobra.Command{queryCallersCmd, queryDepsCmd, queryImpactCmd} {
		c.Flags().String("project-id", "", "project id (required)")
		c.Flags().String("entity-id", "", "entity id (required)")
		c.MarkFlagRequired("project-id")
		c.MarkFlagRequired("entity-id")
	}
	queryImpactCmd.Flags().Int("max-depth", 3, "max dependency hops to traverse")

	querySearchCmd.Flags().String("query", "", "search text (required)")
	querySearchCmd.Flags().StringSlice("project-ids", nil, "project ids to search across (required)")
	querySearchCmd.Flags().Int("top-k", 10, "max results")
	querySearchCmd.MarkFlagRequired("query")
	querySearchCmd.MarkFlagRequired("project-ids")

	queryContextCmd.Flags().String("query", "", "ranking query text")
	queryContextCmd.Flags().String("project-id", "", "project id (required)")
	queryContextCmd.Flags().Int("token-budget", 0, "token budget; falls back to the configured default")
	queryContextCmd.Flags().StringSlice("entity-ids", nil, "bypass ranking and assemble exactly these entities")
	queryContextCmd.Flags().Bool("validate-only", false, "report fit without assembling context text")
	queryContextCmd.MarkFlagRequired("project-id")

	queryCmd.AddCommand(queryCallersCmd, queryDepsCmd, queryImpactCmd, querySearchCmd, queryContextCmd)
}

func printJSON(v any) error {
	enc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}

func runQueryCallers(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	d, closeFn, err := buildQueryDeps(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	projectID, _ := cmd.Flags().GetString("project-id")
	entityID, _ := cmd.Flags().GetString("entity-id")
	result, err := d.engine.FindCallers(ctx, projectID, entityID)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runQueryDependencies(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	d, closeFn, err := buildQueryDeps(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	projectID, _ := cmd.Flags().GetString("project-id")
	entityID, _ := cmd.Flags().GetString("entity-id")
	result, err := d.engine.FindDependencies(ctx, projectID, entityID)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runQueryImpact(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	d, closeFn, err := buildQueryDeps(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	projectID, _ := cmd.Flags().GetString("project-id")
	entityID, _ := cmd.Flags().GetString("entity-id")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	result, err := d.engine.ImpactAnalysis(ctx, projectID, entityID, maxDepth)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runQuerySearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	d, closeFn, err := buildQueryDeps(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	queryText, _ := cmd.Flags().GetString("query")
	projectIDs, _ := cmd.Flags().GetStringSlice("project-ids")
	topK, _ := cmd.Flags().GetInt("top-k")
	result, err := d.engine.SemanticSearch(ctx, queryText, projectIDs, topK)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runQueryContext(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	d, closeFn, err := buildQueryDeps(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	queryText, _ := cmd.Flags().GetString("query")
	projectID, _ := cmd.Flags().GetString("project-id")
	tokenBudget, _ := cmd.Flags().GetInt("token-budget")
	if tokenBudget <= 0 {
		tokenBudget = cfg.Query.DefaultTokenBudget
	}
	entityIDs, _ := cmd.Flags().GetStringSlice("entity-ids")
	validateOnly, _ := cmd.Flags().GetBool("validate-only")

	result, validation, err := d.assembler.RetrieveContext(ctx, queryText, projectID, tokenBudget, entityIDs, validateOnly)
	if err != nil {
		return err
	}
	if validateOnly {
		return printJSON(validation)
	}
	return printJSON(result)
}
