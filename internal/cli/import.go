package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janjanpower/text-alignment-tool/internal/session"
	"github.com/janjanpower/text-alignment-tool/internal/srt"
)

var importCmd = &cobra.Command{
	Use:   "import [srt_file]",
	Short: "Import an SRT file into a project",
	Long: `Import the given SRT file as the content of a project. The project is
created when it does not exist; an existing project's entries are
replaced as a single undoable step.

Examples:
  aligntool import episode01.srt
  aligntool import episode01.srt --project "Episode 1"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringP("project", "p", "", "Project name (default: file name without extension)")
}

func runImport(cmd *cobra.Command, args []string) error {
	srtPath := args[0]
	ctx := context.Background()

	if _, err := os.Stat(srtPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", srtPath)
	}

	projectName, _ := cmd.Flags().GetString("project")
	if projectName == "" {
		projectName = strings.TrimSuffix(filepath.Base(srtPath), filepath.Ext(srtPath))
	}

	entries, err := srt.Parse(srtPath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries found in %s", srtPath)
	}

	gw, err := openGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	project, err := findProject(ctx, gw, projectName, true)
	if err != nil {
		return err
	}

	sess, err := session.Open(ctx, gw, project.ID, sessionOptions(), logger)
	if err != nil {
		return err
	}
	if err := sess.ReplaceAll(entries); err != nil {
		sess.Close()
		return err
	}
	if err := sess.Close(); err != nil {
		return err
	}

	logger.Infow("imported SRT file",
		"input", srtPath,
		"project", projectName,
		"entries", len(entries),
	)
	fmt.Printf("Imported %d entries into project %q\n", len(entries), projectName)
	return nil
}

func sessionOptions() session.Options {
	return session.Options{
		MaxHistory:         cfg.MaxHistory,
		CoalesceWindow:     cfg.CoalesceWindow.Std(),
		FlushRetryInterval: cfg.FlushRetryInterval.Std(),
	}
}
