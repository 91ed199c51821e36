package function

import (
	"context"

	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/ui"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/ignitionstack/rfcbridge/pkg/types"
	"github.com/spf13/cobra"
)

func NewFunctionGetCommand() *cobra.Command {
	var req types.MetadataRequest

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Show the interface of a function",
		Long: `Resolve the importing, exporting and tables parameters of a remote-enabled
function module.

Structure and table parameters are expanded to their fields. A cached interface
is returned without contacting the backend until it expires or --refresh is
given. Descriptions are requested in --language and fall back to the
configured default language.`,
		Example: `  # Show a function interface
  rfcbridge function get BAPI_USER_GET_DETAIL

  # Resolve again in German, bypassing the cache
  rfcbridge function get BAPI_USER_GET_DETAIL --language DE --refresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			return withService(cmd, func(ctx context.Context, svc services.BridgeService) error {
				md, err := svc.GetFunctionMetadata(ctx, req)
				if err != nil {
					return err
				}
				if globalConfig.JSONOutput {
					return ui.PrintJSON(md)
				}
				printFunction(md)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.Language, "language", "l", "", "ISO 639-1 language of descriptions")
	cmd.Flags().BoolVarP(&req.ForceRefresh, "refresh", "r", false, "Ignore the cache")

	return cmd
}
