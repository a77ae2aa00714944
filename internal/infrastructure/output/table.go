package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/reglet-dev/composer/internal/application/dto"
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

// TableFormatter formats assembly reports as a human-readable table.
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
	return f.colorize(strings.Repeat("─", 80), colorGray)
}

// Format writes the report as a table.
//
//nolint:errcheck // Table formatting errors are non-critical (best-effort terminal output)
func (f *TableFormatter) Format(report *dto.AssemblyReport) error {
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "Profile: %s\n", f.colorize(report.Profile, colorBold))
	fmt.Fprintf(f.writer, "Assembly: %s\n", report.ID)
	fmt.Fprintf(f.writer, "Generated: %s\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(f.writer, "Duration: %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintln(f.writer)

	if len(report.Models) == 0 {
		fmt.Fprintln(f.writer, "No models.")
	} else {
		fmt.Fprintln(f.writer, f.colorize("Models:", colorBold))
		fmt.Fprintln(f.writer, f.rule())
		for _, m := range report.Models {
			f.formatModel(m)
		}
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(f.writer, f.colorize("Failures:", colorBold))
		fmt.Fprintln(f.writer, f.rule())
		for _, failure := range report.Failures {
			f.formatFailure(failure)
		}
	}

	if len(report.Levels) > 0 {
		fmt.Fprintln(f.writer, f.colorize("Commission order:", colorBold))
		fmt.Fprintln(f.writer, f.rule())
		for i, level := range report.Levels {
			fmt.Fprintf(f.writer, "  %d. %s\n", i, strings.Join(level, ", "))
		}
		fmt.Fprintln(f.writer)
	}

	f.formatSummary(report)
	return nil
}

// formatModel formats a single model.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatModel(m dto.ModelReport) {
	symbol, color := "✓", colorGreen
	if !m.Assembled {
		symbol, color = "✗", colorRed
	}
	fmt.Fprintf(f.writer, "%s %s", f.colorize(symbol, color), f.colorize(m.Path, color))
	if m.Type != "" {
		fmt.Fprintf(f.writer, " (%s)", f.colorize(m.Type, colorCyan))
	}
	fmt.Fprintln(f.writer)

	details := []string{"kind=" + m.Kind, "mode=" + m.Mode}
	if m.Activation != "" {
		details = append(details, "activation="+m.Activation)
	}
	if m.Collection != "" {
		details = append(details, "collection="+m.Collection)
	}
	fmt.Fprintf(f.writer, "  %s\n", f.colorize(strings.Join(details, " "), colorGray))

	for _, b := range m.Bindings {
		provider := b.Provider
		switch {
		case provider != "":
		case b.Optional:
			provider = f.colorize("(unbound, optional)", colorGray)
		default:
			provider = f.colorize("(unbound)", colorRed)
		}
		fmt.Fprintf(f.writer, "  %s %s -> %s\n", b.Kind, b.Key, provider)
	}
}

// formatFailure formats a single assembly failure.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatFailure(failure dto.FailureReport) {
	fmt.Fprintf(f.writer, "%s %s", f.colorize("⚠", colorYellow), failure.Model)
	if failure.Key != "" {
		fmt.Fprintf(f.writer, " [%s]", failure.Key)
	}
	fmt.Fprintln(f.writer)
	fmt.Fprintf(f.writer, "  %s: %s\n", f.colorize("Error", colorRed), failure.Message)
	if len(failure.Cycle) > 0 {
		fmt.Fprintf(f.writer, "  Cycle: %s\n", strings.Join(failure.Cycle, " -> "))
	}
	fmt.Fprintln(f.writer)
}

// formatSummary formats the summary statistics.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatSummary(report *dto.AssemblyReport) {
	summary := report.Summary()
	fmt.Fprintln(f.writer, f.colorize("Summary:", colorBold))
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "Models:       %d total\n", summary.Models)
	fmt.Fprintf(f.writer, "  %s Assembled: %d\n", f.colorize("✓", colorGreen), summary.Assembled)
	fmt.Fprintf(f.writer, "  %s Failures:  %d\n", f.colorize("✗", colorRed), summary.Failures)
	if report.Commissioned {
		fmt.Fprintf(f.writer, "Commissioned: %s\n", f.colorize("yes", colorGreen))
	}
	fmt.Fprintln(f.writer, f.rule())
}
