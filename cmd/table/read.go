package table

import (
	"context"
	"fmt"
	"strings"

	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/ui"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/ignitionstack/rfcbridge/pkg/tableread"
	"github.com/ignitionstack/rfcbridge/pkg/types"
	"github.com/spf13/cobra"
)

func NewTableReadCommand() *cobra.Command {
	var (
		req       types.ReadTableRequest
		iterative bool
	)

	cmd := &cobra.Command{
		Use:   "read TABLE",
		Short: "Read rows without exceeding the transfer buffer",
		Long: `Read rows of TABLE through RFC_READ_TABLE.

Without --fields, fields are chosen automatically so a row fits the transfer
buffer. If the backend still reports a buffer overflow the read is retried
once with a minimal set of key fields.

With --iterative the requested fields are split into chunks that each fit the
buffer and the chunk results are merged row by row.`,
		Example: `  # Read ten clients
  rfcbridge table read T000 --max-rows 10

  # Read selected fields with a condition
  rfcbridge table read T000 --fields MANDT,MTEXT --where "MANDT = '001'"

  # Read many fields of a wide table in chunks
  rfcbridge table read KNA1 --iterative --fields KUNNR,NAME1,NAME2,ORT01,STRAS`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Table = args[0]
			return withService(cmd, func(ctx context.Context, svc services.BridgeService) error {
				read := svc.ReadTableSafe
				if iterative {
					read = svc.ReadTableIterative
				}
				res, err := read(ctx, req)
				if res == nil {
					return err
				}
				if globalConfig.JSONOutput {
					if perr := ui.PrintJSON(res); perr != nil {
						return perr
					}
					return err
				}
				printResult(res)
				return err
			})
		},
	}

	cmd.Flags().StringSliceVar(&req.Fields, "fields", nil, "Fields to read, comma separated")
	cmd.Flags().StringArrayVarP(&req.Where, "where", "w", nil, "Selection condition, repeat to combine")
	cmd.Flags().IntVarP(&req.MaxRows, "max-rows", "n", 0, "Maximum number of rows (default from config)")
	cmd.Flags().StringVar(&req.Delimiter, "delimiter", "", "Single-character field delimiter")
	cmd.Flags().BoolVar(&iterative, "iterative", false, "Read the fields in buffer-sized chunks")

	return cmd
}

func printResult(res *tableread.Result) {
	if len(res.SelectedFields) > 0 {
		ui.PrintInfo("Fields", strings.Join(res.SelectedFields, ", "))
	}
	ui.PrintInfo("Method", res.Method)
	if res.ChunkCount > 0 {
		ui.PrintInfo("Chunks", fmt.Sprint(res.ChunkCount))
	} else {
		ui.PrintInfo("Estimated row size", fmt.Sprint(res.EstimatedBufferSize))
	}

	if len(res.Rows) == 0 {
		if res.Success {
			ui.PrintEmptyState("No rows returned")
		}
		return
	}

	headers := res.SelectedFields
	if len(headers) == 0 {
		headers = []string{tableread.RawColumn}
	}
	table := ui.NewTable(headers)
	for _, row := range res.Rows {
		values := make([]string, len(headers))
		for i, h := range headers {
			values[i] = row[h]
		}
		if raw, ok := row[tableread.RawColumn]; ok && len(row) == 1 {
			values[0] = raw
		}
		table.AddRow(values...)
	}
	fmt.Fprint(ui.Out, ui.RenderTable(table))
	ui.PrintInfo("Rows", fmt.Sprint(res.RowCount))
}
