package table

import (
	"context"

	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/di"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/spf13/cobra"
)

func withService(cmd *cobra.Command, fn func(context.Context, services.BridgeService) error) error {
	cfg, err := globalConfig.Load()
	if err != nil {
		return err
	}
	return di.Run(cmd.Context(), cfg, fn)
}
