package table

import (
	"context"
	"fmt"

	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/ui"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/ignitionstack/rfcbridge/pkg/types"
	"github.com/spf13/cobra"
)

func NewTableStructureCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "structure TABLE",
		Aliases: []string{"describe"},
		Short:   "Show the fields of a table",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.TableRequest{Table: args[0]}
			return withService(cmd, func(ctx context.Context, svc services.BridgeService) error {
				structure, err := svc.GetTableStructure(ctx, req)
				if err != nil {
					return err
				}
				if globalConfig.JSONOutput {
					return ui.PrintJSON(structure)
				}
				if !structure.StructureAvailable {
					ui.PrintWarning(fmt.Sprintf("Structure of %s is not available: %s", structure.TableName, structure.Error))
					return nil
				}

				ui.PrintHighlight(structure.TableName)
				table := ui.NewTable([]string{"POS", "FIELD", "KEY", "TYPE", "LENGTH", "DESCRIPTION"})
				for _, name := range metadata.SortedByPosition(structure.Fields) {
					f := structure.Fields[name]
					key := ""
					if f.KeyField {
						key = "X"
					}
					table.AddRow(fmt.Sprint(f.Position), name, key, f.SAPType, fmt.Sprint(f.Length), f.Description)
				}
				fmt.Fprint(ui.Out, ui.RenderTable(table))
				return nil
			})
		},
	}
}
