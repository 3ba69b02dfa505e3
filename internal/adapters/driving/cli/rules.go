package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List configured mapping rules",
	Long: `Prints all mapping rules in evaluation order: priority
descending, insertion order on ties. Rules are managed elsewhere;
this listing is read-only.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	if ruleStore == nil {
		return errors.New("rule store not configured")
	}

	rules, err := ruleStore.ListEnabled(context.Background())
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		cmd.Println("No enabled rules configured.")
		return nil
	}

	cmd.Printf("%-20s %-8s %-8s %-10s %s\n", "ID", "PRIORITY", "PERIOD", "MATCH", "DESTINATION")
	for _, rule := range rules {
		cmd.Printf("%-20s %-8d %-8s %-10s %s\n",
			rule.ID, rule.Priority, rule.Schedule.Period, rule.Match.Type,
			describeDestination(rule))
	}
	return nil
}

func describeDestination(rule domain.MappingRule) string {
	dest := rule.Destination.Path
	if rule.Destination.Filename != "" {
		dest += "/" + rule.Destination.Filename
	}
	return dest + " (" + string(rule.Destination.Conflict) + ")"
}
