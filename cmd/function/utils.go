package function

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	globalConfig "github.com/ignitionstack/rfcbridge/internal/config"
	"github.com/ignitionstack/rfcbridge/internal/di"
	"github.com/ignitionstack/rfcbridge/internal/ui"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/spf13/cobra"
)

// withService loads the configuration and runs fn against a started service.
func withService(cmd *cobra.Command, fn func(context.Context, services.BridgeService) error) error {
	cfg, err := globalConfig.Load()
	if err != nil {
		return err
	}
	return di.Run(cmd.Context(), cfg, fn)
}

// printParameters renders one parameter group as a table.
func printParameters(title string, params map[string]metadata.ParameterMetadata) {
	if len(params) == 0 {
		return
	}
	ui.PrintSection(title)

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	table := ui.NewTable([]string{"NAME", "TYPE", "LENGTH", "OPTIONAL", "DEFAULT", "DESCRIPTION"})
	for _, name := range names {
		p := params[name]
		typ := p.Type
		if len(p.Fields) > 0 {
			typ = fmt.Sprintf("%s (%d fields)", p.Type, len(p.Fields))
		}
		table.AddRow(name, typ, length(p.Length), yesNo(p.Optional), p.Default, p.Description)
	}
	fmt.Fprint(ui.Out, ui.RenderTable(table))
}

// printFunction renders the interface of a function.
func printFunction(md *metadata.FunctionMetadata) {
	ui.PrintHighlight(md.Name)
	if md.Description != "" {
		ui.PrintParagraph(md.Description)
	}
	ui.PrintInfo("Area", md.Area)
	ui.PrintInfo("Package", md.DevClass)
	ui.PrintInfo("Language", md.Language)
	ui.PrintInfo("Retrieved", md.RetrievedAt.Format(time.RFC3339))

	printParameters("Importing", md.Inputs)
	printParameters("Exporting", md.Outputs)
	printParameters("Tables", md.Tables)

	if len(md.PartialParameters) > 0 {
		ui.PrintWarning("Incomplete type information for: " + strings.Join(md.PartialParameters, ", "))
	}
}

func length(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprint(n)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
