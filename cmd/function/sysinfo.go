package function

import (
	"context"

	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/ui"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/spf13/cobra"
)

// NewSystemInfoCommand reports the backend release and its category.
func NewSystemInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sysinfo",
		Short: "Show the backend release used for language and type handling",
		Long: `Probe the backend with RFC_SYSTEM_INFO and show the release category that
drives language mapping. When the probe fails the most conservative category
is assumed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc services.BridgeService) error {
				info := svc.SystemInfo(ctx)
				if globalConfig.JSONOutput {
					return ui.PrintJSON(info)
				}
				if !info.Detected {
					ui.PrintWarning("Release could not be determined, assuming " + string(info.Category))
				}
				ui.PrintInfo("Release", info.Release)
				ui.PrintInfo("Category", string(info.Category))
				if info.SystemID != "" {
					ui.PrintInfo("System", info.SystemID)
				}
				if info.Host != "" {
					ui.PrintInfo("Host", info.Host)
				}
				if info.Database != "" {
					ui.PrintInfo("Database", info.Database)
				}
				return nil
			})
		},
	}
}
