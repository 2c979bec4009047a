package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janjanpower/text-alignment-tool/internal/config"
	"github.com/janjanpower/text-alignment-tool/internal/document"
	"github.com/janjanpower/text-alignment-tool/internal/logging"
	"github.com/janjanpower/text-alignment-tool/internal/persist"
)

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "aligntool",
	Short: "Subtitle text alignment and correction tool",
	Long: `Aligntool keeps time-coded subtitle projects in a local database,
applies text-correction rules to them and tracks every change in an
undoable history.

Projects are imported from SRT files, corrected with project-scoped
replacement rules and exported back to SRT.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		var err error
		cfg, err = config.Load(configPath)
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Path to config file (default aligntool.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}

func openGateway() (*persist.SQLite, error) {
	return persist.Open(cfg.DatabasePath, logger)
}

// findProject resolves a project by name, optionally creating it.
func findProject(ctx context.Context, gw *persist.SQLite, name string, create bool) (document.Project, error) {
	ownerID, err := gw.EnsureUser(ctx, cfg.Username)
	if err != nil {
		return document.Project{}, err
	}
	project, ok, err := gw.FindProject(ctx, name, ownerID)
	if err != nil {
		return document.Project{}, err
	}
	if ok {
		return project, nil
	}
	if !create {
		return document.Project{}, fmt.Errorf("project %q not found", name)
	}
	return gw.CreateProject(ctx, name, ownerID)
}
