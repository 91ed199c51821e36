package cmd

import (
	"os"
	"strings"

	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/ui"
	"github.com/ignitionstack/rfcbridge/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "rfcbridge",
	Short: "RFC metadata and table access",
	Long: `rfcbridge resolves the interfaces of remote-enabled function modules and
reads tables without exceeding the transfer buffer of RFC_READ_TABLE.

Resolved interfaces are kept in a local cache so repeated lookups do not reach
the backend. The cache can be searched, purged and exported.

Key capabilities:
* Resolve function interfaces with nested structure and table fields
* Search and export the metadata cache
* Read wide tables safely, retrying with fewer fields or in chunks`,
	Example: `  # Show the interface of a function
  rfcbridge function get BAPI_USER_GET_DETAIL

  # Answer calls from a fixture instead of a live system
  rfcbridge --fixture ./backend.yaml function get RFC_SYSTEM_INFO

  # Read a table as JSON
  rfcbridge --json table read T000 --max-rows 10`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		ui.Plain = globalConfig.Plain || globalConfig.JSONOutput || ui.IsCI()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintFailure(err)
		os.Exit(1)
	}
}

// normalizeFlagName accepts underscores as separators: --max_rows is --max-rows.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
	rootCmd.PersistentFlags().StringVarP(&globalConfig.ConfigPath, "config", "c", config.DefaultConfigPath, "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&globalConfig.FixturePath, "fixture", "f", "", "Fixture file answering backend calls (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&globalConfig.Plain, "plain", false, "Disable colors and styling")
	rootCmd.PersistentFlags().BoolVar(&globalConfig.JSONOutput, "json", false, "Print results as JSON")
}
