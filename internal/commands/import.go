package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gastos/internal/csvimport"
	"gastos/internal/services"
)

type importFlags struct {
	mapping string
	options string
}

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank statement CSV files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "analyze FILE",
		Short: "Detect format and suggest a column mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			analysis, err := csvimport.Analyze(raw)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	})

	cmd.AddCommand(newImportRunCommand("preview", "Parse FILE without writing anything", false))
	cmd.AddCommand(newImportRunCommand("apply", "Import FILE in a single transaction", true))

	return cmd
}

func newImportRunCommand(name, short string, apply bool) *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   name + " FILE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			req, err := flags.request(raw)
			if err != nil {
				return err
			}

			manager, err := openDatabase(true)
			if err != nil {
				return err
			}
			defer manager.Close()

			svc := services.NewImportService(manager.DB())
			if apply {
				result, err := svc.Apply(raw, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			}
			preview, err := svc.Preview(raw, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), preview)
		},
	}

	cmd.Flags().StringVar(&flags.mapping, "mapping", "", `column mapping JSON, e.g. {"fecha_col":"Fecha","concepto_col":"Concepto","importe_col":"Importe"} (default: suggested mapping)`)
	cmd.Flags().StringVar(&flags.options, "options", "", "import options JSON (omitted keys keep their defaults)")

	return cmd
}

// request builds the import payload from the flags. Without --mapping the
// mapping suggested by Analyze is used.
func (f importFlags) request(raw []byte) (services.ImportRequest, error) {
	payload := map[string]json.RawMessage{}

	if f.mapping != "" {
		payload["mapping"] = json.RawMessage(f.mapping)
	} else {
		analysis, err := csvimport.Analyze(raw)
		if err != nil {
			return services.ImportRequest{}, err
		}
		mapping, err := json.Marshal(analysis.SuggestedMapping)
		if err != nil {
			return services.ImportRequest{}, err
		}
		payload["mapping"] = mapping
	}
	if f.options != "" {
		payload["options"] = json.RawMessage(f.options)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return services.ImportRequest{}, fmt.Errorf("invalid --mapping or --options JSON: %w", err)
	}
	return services.ParseImportRequest(data)
}
