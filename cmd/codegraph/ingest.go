package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index a local directory or a source-control repository as a project",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().String("name", "", "project name (required)")
	ingestCmd.Flags().String("path", "", "local directory to ingest")
	ingestCmd.Flags().String("url", "", "source-control repository URL to clone and ingest")
	ingestCmd.Flags().String("branch", "", "branch to clone, when --url is set")
	ingestCmd.Flags().String("owner-id", "", "owning user/org id")
	ingestCmd.MarkFlagRequired("name")
}

func runIngest(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	path, _ := cmd.Flags().GetString("path")
	url, _ := cmd.Flags().GetString("url")
	branch, _ := cmd.Flags().GetString("branch")
	ownerID, _ := cmd.Flags().GetString("owner-id")

	if path == "" && url == "" {
		return fmt.Errorf("one of --path or --url is required")
	}

	ctx := context.Background()
	d, closeFn, err := buildIngestionDeps(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if path != "" {
		s, err := d.coordinator.UploadLocalPath(ctx, name, path, ownerID)
		if err != nil {
			return err
		}
		fmt.Printf("session %s started for project %s (status: %s)\n", s.SessionID, s.ProjectID, s.Status)
		return nil
	}

	s, err := d.coordinator.UploadFromSourceControl(ctx, name, url, ownerID, branch)
	if err != nil {
		return err
	}
	fmt.Printf("session %s started for project %s (status: %s)\n", s.SessionID, s.ProjectID, s.Status)
	return nil
}
