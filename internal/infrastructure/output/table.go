package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

const ruleWidth = 80

// TableFormatter formats run results as a human-readable table.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true, // Default to true, caller can disable
	}
}

// colorize returns the string wrapped in ANSI color codes if enabled.
func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

func (f *TableFormatter) rule() string {
	return f.colorize(strings.Repeat("─", ruleWidth), colorGray)
}

// Format writes the run result as a table.
//
//nolint:errcheck // Table formatting errors are non-critical (best-effort terminal output)
func (f *TableFormatter) Format(result *build.RunResult) error {
	fmt.Fprintln(f.writer, f.rule())
	if result.ProductName != "" {
		product := f.colorize(result.ProductName, colorBold)
		if result.ProductVersion != "" {
			product += fmt.Sprintf(" (v%s)", result.ProductVersion)
		}
		fmt.Fprintf(f.writer, "Product:  %s\n", product)
	}
	fmt.Fprintf(f.writer, "Run:      %s\n", result.RunID.String())
	fmt.Fprintf(f.writer, "Started:  %s\n", result.StartTime.Format(time.RFC3339))
	fmt.Fprintf(f.writer, "Duration: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintln(f.writer)

	if len(result.Targets) == 0 {
		fmt.Fprintln(f.writer, "No targets built.")
		return nil
	}

	fmt.Fprintln(f.writer, f.colorize("Targets:", colorBold))
	fmt.Fprintln(f.writer, f.rule())
	for _, target := range result.Targets {
		f.formatTarget(target)
	}
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintln(f.writer)

	f.formatSummary(result)
	return nil
}

// formatTarget formats a single target entry.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatTarget(t build.TargetResult) {
	symbol, color := f.getStatusInfo(t.Status)

	fmt.Fprintf(f.writer, "%s %d. %s %s\n",
		f.colorize(symbol, color),
		t.Index+1,
		f.colorize(t.Target.String(), color),
		f.colorize("("+t.Group.String()+")", colorGray))
	fmt.Fprintf(f.writer, "  Status: %s\n", f.colorize(strings.ToUpper(string(t.Status)), color))

	if t.Status == values.StatusSkipped {
		return
	}
	if t.OutputPath != "" {
		fmt.Fprintf(f.writer, "  Output: %s\n", f.colorize(t.OutputPath, colorCyan))
	}
	if t.Options != build.OptionNone {
		fmt.Fprintf(f.writer, "  Options: %s\n", t.Options.String())
	}
	if t.Message != "" {
		label := "Message"
		if t.Status.IsFailure() {
			label = f.colorize("Error", colorRed)
		}
		f.formatMessage(label, t.Message)
	}
	fmt.Fprintf(f.writer, "  Duration: %s\n", t.Duration.Round(time.Millisecond))
}

// formatMessage prints msg, indenting continuation lines of backend output.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatMessage(label, msg string) {
	lines := strings.Split(strings.TrimRight(msg, "\n"), "\n")
	if len(lines) == 1 {
		fmt.Fprintf(f.writer, "  %s: %s\n", label, lines[0])
		return
	}
	fmt.Fprintf(f.writer, "  %s:\n", label)
	for _, line := range lines {
		fmt.Fprintf(f.writer, "    %s\n", line)
	}
}

// formatSummary formats the summary statistics.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatSummary(result *build.RunResult) {
	summary := result.Summary
	_, color := f.getStatusInfo(result.Status)

	fmt.Fprintln(f.writer, f.colorize("Summary:", colorBold))
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "Result:      %s\n", f.colorize(strings.ToUpper(string(result.Status)), color))
	fmt.Fprintf(f.writer, "Targets:     %d total\n", summary.TotalTargets)
	fmt.Fprintf(f.writer, "  %s Succeeded: %d\n", f.colorize("✓", colorGreen), summary.SucceededTargets)
	fmt.Fprintf(f.writer, "  %s Failed:    %d\n", f.colorize("✗", colorRed), summary.FailedTargets)
	fmt.Fprintf(f.writer, "  %s Canceled:  %d\n", f.colorize("⚠", colorYellow), summary.CanceledTargets)
	fmt.Fprintf(f.writer, "  %s Skipped:   %d\n", f.colorize("⊘", colorGray), summary.SkippedTargets)
	if result.OriginalTarget != "" {
		restore := "unchanged"
		if result.RestoreRequested {
			restore = "restored"
		}
		fmt.Fprintf(f.writer, "Active target: %s (%s)\n", result.OriginalTarget.String(), restore)
	}
	if result.Error != "" {
		fmt.Fprintf(f.writer, "%s: %s\n", f.colorize("Error", colorRed), result.Error)
	}
	fmt.Fprintln(f.writer, f.rule())
}

// getStatusInfo returns a symbol and color for the given status.
func (f *TableFormatter) getStatusInfo(status values.Status) (string, string) {
	switch status {
	case values.StatusSucceeded:
		return "✓", colorGreen
	case values.StatusFailed:
		return "✗", colorRed
	case values.StatusCanceled:
		return "⚠", colorYellow
	case values.StatusSkipped:
		return "⊘", colorGray
	default:
		return "?", colorReset
	}
}
