package function

import (
	"context"
	"fmt"
	"sort"

	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/ui"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/ignitionstack/rfcbridge/pkg/types"
	"github.com/spf13/cobra"
)

func NewFunctionBulkCommand() *cobra.Command {
	var req types.BulkLoadRequest

	cmd := &cobra.Command{
		Use:   "bulk NAME...",
		Short: "Resolve several functions into the cache",
		Long: `Resolve every named function and store it in the cache.

A failing function does not stop the batch; its error is reported next to its
name.`,
		Example: `  rfcbridge function bulk RFC_SYSTEM_INFO BAPI_USER_GET_DETAIL`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Names = args
			return withService(cmd, func(ctx context.Context, svc services.BridgeService) error {
				resp, err := svc.BulkLoad(ctx, req)
				if err != nil {
					return err
				}
				if globalConfig.JSONOutput {
					return ui.PrintJSON(resp)
				}

				names := make([]string, 0, len(resp.Results))
				for name := range resp.Results {
					names = append(names, name)
				}
				sort.Strings(names)

				table := ui.NewTable([]string{"FUNCTION", "STATUS", "DETAIL"})
				for _, name := range names {
					res := resp.Results[name]
					if res.Error != "" {
						table.AddRow(name, ui.ErrorSymbol+" "+string(res.Code), res.Error)
						continue
					}
					table.AddRow(name, ui.SuccessSymbol+" loaded", fmt.Sprintf("%d parameters", len(res.Metadata.ParameterNames())))
				}
				fmt.Fprint(ui.Out, ui.RenderTable(table))

				summary := fmt.Sprintf("Loaded %d of %d functions", resp.Succeeded, resp.Succeeded+resp.Failed)
				if resp.Failed > 0 {
					ui.PrintWarning(summary)
				} else {
					ui.PrintSuccess(summary)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.Language, "language", "l", "", "ISO 639-1 language of descriptions")

	return cmd
}
