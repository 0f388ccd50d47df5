package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"gastos/internal/services"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Auto-categorization rules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reapply",
		Short: "Re-run every rule over every stored transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := openDatabase(true)
			if err != nil {
				return err
			}
			defer manager.Close()

			updated, err := services.NewRuleService(manager.DB()).ReapplyRules()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d movimientos actualizados\n", updated)
			return nil
		},
	})

	return cmd
}
