package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janjanpower/text-alignment-tool/internal/session"
)

var applyCmd = &cobra.Command{
	Use:   "apply [project]",
	Short: "Apply the project's correction rules to all entries",
	Long: `Apply every stored correction rule of the project, in creation order,
to all entries. The whole run is one batch: it persists as a single
change and would undo as a single step in an editing session.

Examples:
  aligntool apply "Episode 1"`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	projectName := args[0]
	ctx := context.Background()

	gw, err := openGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	project, err := findProject(ctx, gw, projectName, false)
	if err != nil {
		return err
	}

	sess, err := session.Open(ctx, gw, project.ID, sessionOptions(), logger)
	if err != nil {
		return err
	}

	rules := sess.Rules()
	if len(rules) == 0 {
		sess.Close()
		return fmt.Errorf("project %q has no correction rules", projectName)
	}

	count, err := sess.Manager().ApplyAllRules(rules)
	if err != nil {
		sess.Close()
		return err
	}
	remaining := sess.Manager().UncorrectedCount()
	if err := sess.Close(); err != nil {
		return err
	}

	fmt.Printf("Applied %d rules: %d entries corrected, %d still uncorrected\n",
		len(rules), count, remaining)
	return nil
}
