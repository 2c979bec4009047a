package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/janjanpower/text-alignment-tool/internal/document"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage a project's correction rules",
}

var rulesAddCmd = &cobra.Command{
	Use:   "add [project] [error_text] [correction_text]",
	Short: "Add a correction rule to a project",
	Args:  cobra.ExactArgs(3),
	RunE:  runRulesAdd,
}

var rulesListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List a project's correction rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesList,
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete [rule_id]",
	Short: "Delete a correction rule by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDelete,
}

var rulesExportCmd = &cobra.Command{
	Use:   "export [project]",
	Short: "Export a project's correction rules to a YAML file",
	Long: `Export the correction rules of a project to a YAML file that can be
imported into another project.

Examples:
  aligntool rules export "Episode 1" -o rules.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesExport,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import [project] [rules_file]",
	Short: "Import correction rules from a YAML file into a project",
	Long: `Import the rules from a YAML file produced by "rules export". Rules
already present in the project (same error and correction text) are
skipped, so re-importing a file is harmless.`,
	Args: cobra.ExactArgs(2),
	RunE: runRulesImport,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesImportCmd)
}

// on-disk form of an exported rule set
type ruleFile struct {
	Rules []rulePair `yaml:"rules"`
}

type rulePair struct {
	Error      string `yaml:"error"`
	Correction string `yaml:"correction"`
}

func writeRuleFile(path string, rules []document.Rule) error {
	f := ruleFile{Rules: make([]rulePair, 0, len(rules))}
	for _, r := range rules {
		f.Rules = append(f.Rules, rulePair{Error: r.ErrorText, Correction: r.CorrectionText})
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func readRuleFile(path string) ([]rulePair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	for i, p := range f.Rules {
		if p.Error == "" {
			return nil, fmt.Errorf("rule %d in %s has empty error text", i+1, path)
		}
	}
	return f.Rules, nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	projectName, errorText, correctionText := args[0], args[1], args[2]
	if errorText == "" {
		return fmt.Errorf("error text must not be empty")
	}
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
	rule, err := gw.AddRule(ctx, project.ID, errorText, correctionText)
	if err != nil {
		return err
	}

	fmt.Printf("Added rule %d: %q -> %q\n", rule.ID, rule.ErrorText, rule.CorrectionText)
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
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
	rules, err := gw.LoadRules(ctx, project.ID)
	if err != nil {
		return err
	}

	if len(rules) == 0 {
		fmt.Printf("Project %q has no correction rules\n", projectName)
		return nil
	}
	for _, r := range rules {
		fmt.Printf("%d\t%q -> %q\n", r.ID, r.ErrorText, r.CorrectionText)
	}
	return nil
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid rule id %q", args[0])
	}
	ctx := context.Background()

	gw, err := openGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	if err := gw.DeleteRule(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Deleted rule %d\n", id)
	return nil
}

func runRulesExport(cmd *cobra.Command, args []string) error {
	projectName := args[0]
	ctx := context.Background()

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = projectName + "_rules.yaml"
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
	rules, err := gw.LoadRules(ctx, project.ID)
	if err != nil {
		return err
	}
	if err := writeRuleFile(outputPath, rules); err != nil {
		return err
	}

	fmt.Printf("Exported %d rules to %s\n", len(rules), outputPath)
	return nil
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	projectName, rulesPath := args[0], args[1]
	ctx := context.Background()

	pairs, err := readRuleFile(rulesPath)
	if err != nil {
		return err
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
	existing, err := gw.LoadRules(ctx, project.ID)
	if err != nil {
		return err
	}
	present := make(map[rulePair]bool, len(existing))
	for _, r := range existing {
		present[rulePair{Error: r.ErrorText, Correction: r.CorrectionText}] = true
	}

	added := 0
	for _, p := range pairs {
		if present[p] {
			continue
		}
		if _, err := gw.AddRule(ctx, project.ID, p.Error, p.Correction); err != nil {
			return err
		}
		present[p] = true
		added++
	}

	fmt.Printf("Imported %d rules (%d skipped as duplicates)\n", added, len(pairs)-added)
	return nil
}
