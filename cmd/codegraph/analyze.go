package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run sandboxed graph or execution analysis on a code snippet",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("mode", "graph", "\"graph\" (static, no execution) or \"execution\" (traced sandbox run)")
	analyzeCmd.Flags().String("file", "", "path to the snippet to analyze (required)")
	analyzeCmd.Flags().Int("max-steps", 0, "execution mode step budget; falls back to the configured default")
	analyzeCmd.Flags().Int("timeout-ms", 0, "execution mode timeout; falls back to the configured default")
	analyzeCmd.Flags().Bool("allow-execution", false, "override the production execution-disabled policy")
	analyzeCmd.MarkFlagRequired("file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	file, _ := cmd.Flags().GetString("file")
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	timeoutMS, _ := cmd.Flags().GetInt("timeout-ms")
	allowExecution, _ := cmd.Flags().GetBool("allow-execution")

	code, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read snippet: %w", err)
	}

	a := buildAnalyzer()

	switch mode {
	case "graph":
		result, err := a.AnalyzeGraph(string(code))
		if err != nil {
			return err
		}
		return printJSON(result)
	case "execution":
		result, err := a.AnalyzeExecution(context.Background(), string(code), maxSteps, timeoutMS, allowExecution)
		if err != nil {
			return err
		}
		return printJSON(result)
	default:
		return fmt.Errorf("unknown mode %q, expected \"graph\" or \"execution\"", mode)
	}
}
