package cmd

import (
	"github.com/ignitionstack/rfcbridge/cmd/table"
	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Describe and read tables",
	Long: `Commands for reading tables through RFC_READ_TABLE without exceeding its
row transfer buffer.`,
	Example: `  # Show the fields of a table
  rfcbridge table structure T000

  # Read rows
  rfcbridge table read T000 --max-rows 5`,
	Aliases: []string{"tbl"},
}

func init() {
	tableCmd.AddCommand(table.NewTableStructureCommand())
	tableCmd.AddCommand(table.NewTableReadCommand())
	rootCmd.AddCommand(tableCmd)
}
