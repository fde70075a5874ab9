// Package statuscolor renders redirect chains for the terminal.
package statuscolor

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/selimozcann/linkflow/internal/model"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	gray   = color.New(color.FgHiBlack)
	plain  = color.New(color.Reset)
)

func colorFor(status int) *color.Color {
	switch {
	case status == 0:
		return plain
	case status >= 300 && status < 400:
		return green
	case status >= 200 && status < 300:
		return yellow
	case status >= 400:
		return red
	default:
		return plain
	}
}

// Sprint returns a colorized status code string.
func Sprint(status int) string {
	if status == 0 {
		return gray.Sprint("-")
	}
	return colorFor(status).Sprint(status)
}

// WrapByStatus wraps text with the color of status.
func WrapByStatus(text string, status int) string {
	return colorFor(status).Sprint(text)
}

// Gray wraps text in gray.
func Gray(text string) string {
	return gray.Sprint(text)
}

// SprintLevel colors a safety level: safe green, caution yellow, warning red.
func SprintLevel(l model.Level) string {
	switch l {
	case model.LevelSafe:
		return green.Sprint(l.String())
	case model.LevelCaution:
		return yellow.Sprint(l.String())
	case model.LevelWarning:
		return red.Sprint(l.String())
	default:
		return gray.Sprint(l.String())
	}
}

// PrintResult writes a traced chain with color-coded statuses.
func PrintResult(w io.Writer, res model.Result) {
	for _, h := range res.Redirects {
		fmt.Fprintf(w, "[%d] %s %s %s\n", h.Step, h.URL, Sprint(h.Status), Gray(fmt.Sprintf("(%dms)", h.TimeMs)))
	}
	last, _ := res.Last()
	fmt.Fprintf(w, "Final: %s\n", WrapByStatus(res.FinalURL, last.Status))
	if res.Truncated {
		fmt.Fprintf(w, "%s\n", red.Sprintf("Stopped after %d hops", res.TotalRedirects))
	}
	if res.ServerInfo != nil {
		fmt.Fprintf(w, "Server: %s | %s\n", res.ServerInfo.Server, res.ServerInfo.ContentType)
	}
	if res.Safety != nil {
		fmt.Fprintf(w, "Safety: %s - %s\n", SprintLevel(res.Safety.Level), res.Safety.Message)
	}
}

// PrintSummary writes the one-line form used by --summary.
func PrintSummary(w io.Writer, idx, total int, target string, res model.Result) {
	last, _ := res.Last()
	line := fmt.Sprintf("[%d/%d] %s -> %s | status=%s | hops=%d", idx, total, target, res.FinalURL, Sprint(last.Status), res.TotalRedirects)
	if res.Safety != nil {
		line += " | safety=" + SprintLevel(res.Safety.Level)
	}
	fmt.Fprintln(w, line)
}
