package banner

import (
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// PrintBanner writes the startup banner to w.
func PrintBanner(w io.Writer) {
	fig := figure.NewColorFigure("LINKFLOW", "doom", "cyan", true)
	_, _ = io.WriteString(w, fig.ColorString())

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = green.Fprintln(w, "    Redirect chain tracer | safety heuristics")
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
}
