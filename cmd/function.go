package cmd

import (
	"github.com/ignitionstack/rfcbridge/cmd/function"
	"github.com/spf13/cobra"
)

var functionCmd = &cobra.Command{
	Use:   "function",
	Short: "Resolve and cache function interfaces",
	Long: `Commands for working with remote-enabled function modules.

Interfaces are resolved from the backend catalog and kept in the local
metadata cache:
* Show the interface of one function or load several at once
* Search the cache and list the backend catalog
* Inspect, purge and export the cache`,
	Example: `  # Show a function interface
  rfcbridge function get RFC_SYSTEM_INFO

  # Search cached functions
  rfcbridge fn search customer`,
	Aliases: []string{"fn"},
}

func init() {
	functionCmd.AddCommand(function.NewFunctionGetCommand())
	functionCmd.AddCommand(function.NewFunctionBulkCommand())
	functionCmd.AddCommand(function.NewFunctionSearchCommand())
	functionCmd.AddCommand(function.NewFunctionListCommand())
	functionCmd.AddCommand(function.NewCacheCommand())
	rootCmd.AddCommand(functionCmd)

	rootCmd.AddCommand(function.NewSystemInfoCommand())
}
