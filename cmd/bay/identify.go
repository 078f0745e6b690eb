package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/cli"
	"github.com/Veraticus/aviation-bay/internal/identify"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/spf13/cobra"
)

// identification is the --json form of an identify result.
type identification struct {
	model.ClassificationResult
	CategoryName string        `json:"category_name"`
	Tier         identify.Tier `json:"tier"`
}

func identifyCmd() *cobra.Command {
	var (
		name        string
		description string
		priority    string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "identify [name]",
		Short: "Identify the jet type of a spotting report",
		Long: `Run the rule-based classifier over a report's name, description and priority.

The classifier tries a direct match on the name first, then scores description
keywords, and finally falls back to a default chosen by priority.`,
		Example: `  bay identify "F16 Falcon"
  bay identify --description "large passenger aircraft on final" --priority medium`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier, err := loadIdentifier()
			if err != nil {
				return err
			}

			report := model.Report{
				Name:        name,
				Description: description,
				Priority:    model.ParsePriority(priority),
			}
			if len(args) == 1 {
				if name != "" {
					return fmt.Errorf("give the name either as an argument or with --name")
				}
				report.Name = args[0]
			}

			result, tier := identifier.ClassifyWithTier(report)
			metrics.ObserveIdentification(string(tier))

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, identification{
					ClassificationResult: result,
					CategoryName:         result.Category.Name(),
					Tier:                 tier,
				})
			}

			fmt.Fprintln(out, cli.RenderClassification(result, tier))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "what the spotter called it (same as the argument)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "free-text description of the sighting")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "report priority (low, medium, high, urgent)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func rulesCmd() *cobra.Command {
	var showStats bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the identification rule table",
		Long: `Print the rules the classifier evaluates, in order. Set rules.path in the
config file to load a custom YAML rule table.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			identifier, err := loadIdentifier()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showStats {
				fmt.Fprintln(out, cli.RenderRuleStats(identifier.Stats()))
				return nil
			}
			return cli.WriteRules(out, identifier.Rules())
		},
	}

	cmd.Flags().BoolVar(&showStats, "stats", false, "show rule table statistics instead of the rules")

	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "categories",
		Aliases: []string{"types"},
		Short:   "List the jet categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.WriteCategories(cmd.OutOrStdout())
		},
	}
}

// parseCategories resolves repeated or comma-separated --category values.
func parseCategories(values []string) ([]model.Category, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return cli.ParseCategoryList(strings.Join(values, ","))
}
