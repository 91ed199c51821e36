package function

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/ui"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/ignitionstack/rfcbridge/pkg/types"
	"github.com/spf13/cobra"
)

// NewCacheCommand groups the metadata cache maintenance commands.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the metadata cache",
	}
	cmd.AddCommand(newCacheStatsCommand(), newCachePurgeCommand(), newCacheExportCommand())
	return cmd
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(_ context.Context, svc services.BridgeService) error {
				stats := svc.CacheStats()
				if globalConfig.JSONOutput {
					return ui.PrintJSON(stats)
				}
				ui.PrintInfo("Cached functions", fmt.Sprint(stats.Total))
				ui.PrintInfo("Valid", fmt.Sprint(stats.Valid))
				ui.PrintInfo("Expired", fmt.Sprint(stats.Expired))
				ui.PrintInfo("Index terms", fmt.Sprint(stats.IndexTerms))
				ui.PrintInfo("Approximate size", humanize.Bytes(uint64(stats.ApproximateSizeBytes)))
				return nil
			})
		},
	}
}

func newCachePurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove expired entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(_ context.Context, svc services.BridgeService) error {
				resp := svc.PurgeExpired()
				if globalConfig.JSONOutput {
					return ui.PrintJSON(resp)
				}
				ui.PrintSuccess(fmt.Sprintf("Removed %d expired entries", resp.Removed))
				return nil
			})
		},
	}
}

func newCacheExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "export PATH",
		Short:   "Write the valid cache entries to a JSON snapshot",
		Example: `  rfcbridge function cache export ./snapshot/functions.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.ExportRequest{Path: args[0]}
			return withService(cmd, func(_ context.Context, svc services.BridgeService) error {
				resp, err := svc.ExportSnapshot(req)
				if err != nil {
					return err
				}
				if globalConfig.JSONOutput {
					return ui.PrintJSON(resp)
				}
				ui.PrintSuccess(fmt.Sprintf("Exported %d functions to %s", resp.Exported, resp.Path))
				return nil
			})
		},
	}
}
