package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janjanpower/text-alignment-tool/internal/srt"
)

var exportCmd = &cobra.Command{
	Use:   "export [project]",
	Short: "Export a project to an SRT file",
	Long: `Export the entries of a project to an SRT file in ordinal order.

Examples:
  aligntool export "Episode 1"
  aligntool export "Episode 1" -o corrected.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	projectName := args[0]
	ctx := context.Background()

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = projectName + ".srt"
	}

	gw, err := openGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	project, err := findProject(ctx, gw, projectName, false)
	if err != nil {
		return err
	}
	entries, err := gw.LoadEntries(ctx, project.ID)
	if err != nil {
		return err
	}
	if err := srt.Write(outputPath, entries); err != nil {
		return err
	}

	fmt.Printf("Exported %d entries to %s\n", len(entries), outputPath)
	return nil
}
