package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/codegraph/graphrag/internal/config"
	"github.com/codegraph/graphrag/internal/logging"
)

var (
	// Version is set by build flags.
	Version = "dev"

	cfgFile string
	verbose bool
	logger  *logging.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "codegraph",
	Short:   "A code knowledge graph: ingest repositories, query structure, and assemble retrieval context.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := logging.InfoLevel
		if verbose {
			level = logging.DebugLevel
		}
		logger, err = logging.New(logging.Config{Level: level})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger.Logger.SetLevel(logrus.Level(level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(visualizeCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveMCPCmd)
}
