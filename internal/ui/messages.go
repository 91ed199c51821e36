package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/muesli/reflow/wordwrap"
)

// Symbols
const (
	SuccessSymbol = "✓"
	ErrorSymbol   = "✗"
	InfoSymbol    = "ℹ"
	WarningSymbol = "⚠"
	BulletSymbol  = "•"
)

// Out receives everything the print helpers write.
var Out io.Writer = os.Stdout

// PrintSuccess prints a success message.
func PrintSuccess(message string) {
	fmt.Fprintln(Out, render(SuccessStyle.Bold(true), SuccessSymbol+" "+message))
}

// PrintError prints an error message, boxed unless output is plain.
func PrintError(message string) {
	text := ErrorSymbol + " Error: " + message
	if Plain {
		fmt.Fprintln(Out, text)
		return
	}
	fmt.Fprintln(Out, BoxStyle.Render(ErrorStyle.Bold(true).Render(text)))
}

// PrintHint prints a suggested remedy below an error.
func PrintHint(message string) {
	if message == "" {
		return
	}
	fmt.Fprintln(Out, render(DimStyle, Wrap(ArrowSymbol+" "+message, TerminalWidth())))
}

// ArrowSymbol prefixes hints.
const ArrowSymbol = "→"

// PrintWarning prints a warning message.
func PrintWarning(message string) {
	fmt.Fprintln(Out, render(WarningStyle.Bold(true), WarningSymbol+" "+message))
}

// PrintInfo prints a label and its value.
func PrintInfo(label, value string) {
	fmt.Fprintf(Out, "%s %s\n",
		render(DimStyle.Bold(true), label+":"),
		render(InfoStyle, value))
}

// PrintSection prints a section heading.
func PrintSection(title string) {
	fmt.Fprintln(Out, render(SectionStyle, title))
}

// PrintHighlight prints highlighted text.
func PrintHighlight(text string) {
	fmt.Fprintln(Out, render(TitleStyle, text))
}

// PrintParagraph prints text word-wrapped to the terminal width.
func PrintParagraph(text string) {
	fmt.Fprintln(Out, Wrap(text, TerminalWidth()))
}

// PrintEmptyState shows a message when no data is available.
func PrintEmptyState(message string) {
	fmt.Fprintln(Out, render(DimStyle, InfoSymbol+" "+message))
}

// Wrap word-wraps text at width columns.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// Table represents a formatted table with headers and rows.
type Table struct {
	Headers     []string
	Rows        [][]string
	ColumnWidth []int
}

// NewTable creates a new table with the given headers.
func NewTable(headers []string) *Table {
	columnWidth := make([]int, len(headers))
	for i, h := range headers {
		columnWidth[i] = len(h) + 2
	}
	return &Table{
		Headers:     headers,
		Rows:        [][]string{},
		ColumnWidth: columnWidth,
	}
}

// AddRow adds a row. Missing values are left blank and extra ones dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.Headers))
	copy(row, values)

	for i, v := range row {
		if len(v)+2 > t.ColumnWidth[i] {
			t.ColumnWidth[i] = len(v) + 2
		}
	}
	t.Rows = append(t.Rows, row)
}

// RenderTable renders the table, truncating cells of columns that do not
// fit the terminal.
func RenderTable(table *Table) string {
	widths := make([]int, len(table.ColumnWidth))
	copy(widths, table.ColumnWidth)

	totalWidth := 0
	for _, width := range widths {
		totalWidth += width
	}
	termWidth := TerminalWidth()
	if totalWidth > termWidth && termWidth > 40 {
		scale := float64(termWidth-10) / float64(totalWidth)
		for i := range widths {
			widths[i] = int(float64(widths[i]) * scale)
			if widths[i] < 10 {
				widths[i] = 10
			}
		}
	}

	format := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], TruncateWithEllipsis(c, widths[i]-1))
		}
		return strings.TrimRight(strings.Join(parts, " "), " ")
	}

	header := format(table.Headers)
	lines := []string{
		render(TableHeaderStyle, header),
		render(DimStyle, strings.Repeat("─", len(header))),
	}
	for i, row := range table.Rows {
		style := TableRowStyle
		if i%2 == 1 {
			style = style.Background(colorStripe)
		}
		lines = append(lines, render(style, format(row)))
	}

	if Plain {
		return "\n" + strings.Join(lines, "\n") + "\n"
	}
	return fmt.Sprintf("\n%s\n", lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// PrintFailure prints err followed by its remedy, if any.
func PrintFailure(err error) {
	PrintError(err.Error())
	PrintHint(apperrors.RemedyOf(err))
}
