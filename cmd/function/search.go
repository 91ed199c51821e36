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

func NewFunctionSearchCommand() *cobra.Command {
	var req types.SearchRequest

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search cached functions",
		Long: `Rank the cached functions against the words of QUERY.

Only functions already in the cache are searched. Use "function bulk" to load
the functions of interest first.`,
		Example: `  rfcbridge function search "customer read"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Query = args[0]
			return withService(cmd, func(_ context.Context, svc services.BridgeService) error {
				resp, err := svc.Search(req)
				if err != nil {
					return err
				}
				if globalConfig.JSONOutput {
					return ui.PrintJSON(resp)
				}
				if len(resp.Results) == 0 {
					ui.PrintEmptyState("No cached function matches " + req.Query)
					return nil
				}

				table := ui.NewTable([]string{"FUNCTION", "SCORE", "DESCRIPTION"})
				for _, res := range resp.Results {
					table.AddRow(res.Name, fmt.Sprint(res.Score), res.Description)
				}
				fmt.Fprint(ui.Out, ui.RenderTable(table))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 0, "Maximum number of results (default 20)")

	return cmd
}
