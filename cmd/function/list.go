package function

import (
	"context"
	"fmt"

	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/ui"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/ignitionstack/rfcbridge/pkg/types"
	"github.com/spf13/cobra"
)

func NewFunctionListCommand() *cobra.Command {
	var req types.ListFunctionsRequest

	cmd := &cobra.Command{
		Use:     "list [MASK]",
		Aliases: []string{"ls"},
		Short:   "List remote-enabled functions in the backend catalog",
		Long: `List remote-enabled functions whose name matches MASK. An asterisk is a
wildcard; without a mask every function is listed up to --max-rows.`,
		Example: `  # Functions starting with BAPI_USER
  rfcbridge function list 'BAPI_USER*'

  # Functions of one package
  rfcbridge function list --package SRFC`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Mask = args[0]
			}
			return withService(cmd, func(ctx context.Context, svc services.BridgeService) error {
				functions, err := svc.ListFunctions(ctx, req)
				if err != nil {
					return err
				}
				if globalConfig.JSONOutput {
					return ui.PrintJSON(functions)
				}
				if len(functions) == 0 {
					ui.PrintEmptyState("No functions found")
					return nil
				}

				table := ui.NewTable([]string{"FUNCTION", "PACKAGE", "DESCRIPTION"})
				for _, fn := range functions {
					table.AddRow(fn.Name, fn.DevClass, fn.Description)
				}
				fmt.Fprint(ui.Out, ui.RenderTable(table))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.DevClass, "package", "p", "", "Restrict to one development class")
	cmd.Flags().IntVar(&req.MaxRows, "max-rows", 0, "Maximum number of rows (default 200)")

	return cmd
}
