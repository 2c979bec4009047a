package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete [project]",
	Short: "Delete a project and everything belonging to it",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsDelete,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	gw, err := openGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	ownerID, err := gw.EnsureUser(ctx, cfg.Username)
	if err != nil {
		return err
	}
	projects, err := gw.ListProjects(ctx, ownerID)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Println("No projects")
		return nil
	}
	for _, p := range projects {
		fmt.Printf("%d\t%s\t(updated %s)\n", p.ID, p.Name, p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
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
	if err := gw.DeleteProject(ctx, project.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted project %q\n", projectName)
	return nil
}
