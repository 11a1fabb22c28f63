// Package output renders run progress and the final summary to the
// console.
package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"chaosdrive/internal/metrics"
)

// ColorScheme defines the colors used for console elements.
type ColorScheme struct {
	Header    *color.Color
	Label     *color.Color
	Value     *color.Color
	Success   *color.Color
	Warn      *color.Color
	Error     *color.Color
	Highlight *color.Color
}

// DefaultColorScheme returns the default console colors.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Header:    color.New(color.FgCyan, color.Bold),
		Label:     color.New(color.FgYellow),
		Value:     color.New(color.FgCyan),
		Success:   color.New(color.FgGreen, color.Bold),
		Warn:      color.New(color.FgYellow, color.Bold),
		Error:     color.New(color.FgRed, color.Bold),
		Highlight: color.New(color.FgMagenta, color.Bold),
	}
}

// NoColorScheme returns a scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	scheme.Header.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Success.DisableColor()
	scheme.Warn.DisableColor()
	scheme.Error.DisableColor()
	scheme.Highlight.DisableColor()
	return scheme
}

// Console prints run output. Safe for concurrent use.
type Console struct {
	w      io.Writer
	scheme *ColorScheme
	mu     sync.Mutex
}

// NewConsole creates a Console writing to w. Colors are disabled when
// noColor is set, NO_COLOR is in the environment, or w is os.Stdout and
// stdout is not a terminal.
func NewConsole(w io.Writer, noColor bool) *Console {
	if noColor || os.Getenv("NO_COLOR") != "" || (w == io.Writer(os.Stdout) && !isatty.IsTerminal(os.Stdout.Fd())) {
		return &Console{w: w, scheme: NoColorScheme()}
	}
	return &Console{w: w, scheme: DefaultColorScheme()}
}

// RunInfo describes the run for the header.
type RunInfo struct {
	Name     string
	URL      string
	Chaos    string
	VUs      int
	Duration time.Duration
}

// PrintHeader prints the run banner before traffic starts.
func (c *Console) PrintHeader(info RunInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := info.Name
	if name == "" {
		name = "chaos load run"
	}

	fmt.Fprintln(c.w, c.scheme.Header.Sprint(strings.Repeat("━", 56)))
	fmt.Fprintln(c.w, c.scheme.Header.Sprint(name))
	fmt.Fprintln(c.w, c.scheme.Header.Sprint(strings.Repeat("━", 56)))
	fmt.Fprintf(c.w, "%s %s\n", c.scheme.Label.Sprint("Target:  "), c.scheme.Value.Sprint(info.URL))
	if info.Chaos != "" {
		fmt.Fprintf(c.w, "%s %s\n", c.scheme.Label.Sprint("Chaos:   "), c.scheme.Highlight.Sprint(info.Chaos))
	}
	fmt.Fprintf(c.w, "%s %s\n", c.scheme.Label.Sprint("VUs:     "), c.scheme.Value.Sprintf("%d", info.VUs))
	fmt.Fprintf(c.w, "%s %s\n", c.scheme.Label.Sprint("Duration:"), c.scheme.Value.Sprint(info.Duration))
	fmt.Fprintln(c.w)
}

// PrintProgress prints a one-line status update.
func (c *Console) PrintProgress(elapsed time.Duration, progress float64, activeVUs int, snap *metrics.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "[%s] %3.0f%% | VUs: %d | reqs: %d | rps: %.1f | errors: %d (%.1f%%)\n",
		elapsed.Truncate(time.Second),
		progress*100,
		activeVUs,
		snap.TotalRequests,
		snap.RequestsPerSec,
		snap.FailedRequests,
		snap.ErrorRate*100,
	)
}

// PrintSummary prints the end-of-run aggregate.
func (c *Console) PrintSummary(snap *metrics.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.scheme.Header.Sprint(strings.Repeat("━", 56)))
	fmt.Fprintln(c.w, c.scheme.Header.Sprint("Run summary"))
	fmt.Fprintln(c.w, c.scheme.Header.Sprint(strings.Repeat("━", 56)))

	fmt.Fprintf(c.w, "Duration:      %s\n", c.scheme.Value.Sprint(snap.Elapsed.Truncate(time.Millisecond)))
	fmt.Fprintf(c.w, "Total Reqs:    %s\n", c.scheme.Value.Sprintf("%d", snap.TotalRequests))
	fmt.Fprintf(c.w, "Throughput:    %s\n", c.scheme.Value.Sprintf("%.1f req/s", snap.RequestsPerSec))

	successRate := 1.0 - snap.ErrorRate
	successColor := c.scheme.Success
	if successRate < 0.99 {
		successColor = c.scheme.Warn
	}
	if successRate < 0.95 {
		successColor = c.scheme.Error
	}
	fmt.Fprintf(c.w, "Success Rate:  %s\n", successColor.Sprintf("%.1f%%", successRate*100))
	fmt.Fprintln(c.w)

	if snap.TotalRequests > 0 {
		fmt.Fprintln(c.w, c.scheme.Label.Sprint("Latency Distribution:"))
		fmt.Fprintf(c.w, "  Min:   %s\n", formatLatency(snap.Latency.Min))
		fmt.Fprintf(c.w, "  Mean:  %s\n", formatLatency(snap.Latency.Mean))
		fmt.Fprintf(c.w, "  P50:   %s\n", formatLatency(snap.Latency.P50))
		fmt.Fprintf(c.w, "  P90:   %s\n", formatLatency(snap.Latency.P90))
		fmt.Fprintf(c.w, "  P95:   %s\n", formatLatency(snap.Latency.P95))
		fmt.Fprintf(c.w, "  P99:   %s\n", formatLatency(snap.Latency.P99))
		fmt.Fprintf(c.w, "  Max:   %s\n", formatLatency(snap.Latency.Max))
		fmt.Fprintln(c.w)
	}

	if len(snap.StatusCodes) > 0 {
		fmt.Fprintln(c.w, c.scheme.Label.Sprint("Status Codes:"))
		codes := make([]int, 0, len(snap.StatusCodes))
		for code := range snap.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			line := fmt.Sprintf("  %d: %d", code, snap.StatusCodes[code])
			if code >= 400 {
				fmt.Fprintln(c.w, c.scheme.Error.Sprint(line))
			} else {
				fmt.Fprintln(c.w, line)
			}
		}
		fmt.Fprintln(c.w)
	}
}

// ThresholdResult is one evaluated pass/fail criterion.
type ThresholdResult struct {
	Name   string
	Limit  string
	Actual string
	Passed bool
}

// PrintThresholds prints threshold verdicts and the overall result.
func (c *Console) PrintThresholds(results []ThresholdResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(results) == 0 {
		return
	}

	allPassed := true
	fmt.Fprintln(c.w, c.scheme.Label.Sprint("Thresholds:"))
	for _, t := range results {
		mark := c.scheme.Success.Sprint("✓")
		if !t.Passed {
			mark = c.scheme.Error.Sprint("✗")
			allPassed = false
		}
		fmt.Fprintf(c.w, "  %s %s <= %s (actual: %s)\n", mark, t.Name, t.Limit, t.Actual)
	}

	fmt.Fprintln(c.w)
	if allPassed {
		fmt.Fprintln(c.w, c.scheme.Success.Sprint("PASSED"))
	} else {
		fmt.Fprintln(c.w, c.scheme.Error.Sprint("FAILED"))
	}
}

// Errorf prints an error line.
func (c *Console) Errorf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, c.scheme.Error.Sprintf(format, args...))
}

func formatLatency(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.0fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
