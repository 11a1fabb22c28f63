package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chaosdrive/internal/chaos"
	"chaosdrive/internal/config"
	"chaosdrive/internal/loadgen"
	"chaosdrive/internal/metrics"
	"chaosdrive/internal/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive load against the target endpoint",
	Long: `Run the load driver: N virtual users issue paced GET requests against
the target URL for the configured duration, each request carrying the
chaos directive (if any) as a ?chaos= query parameter.

Environment mode (k6-style):
  URL=http://svc/ping USERS=50 DUR=90s LAT=2500 chaosdrive run

Profile mode:
  chaosdrive run --profile experiment.yaml

Flags override the environment; the environment overrides the profile.`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runLoad(cmd))
	},
}

func init() {
	registerRunFlags(runCmd)
}

func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "YAML profile file")
	cmd.Flags().String("url", "", "target base URL (overrides URL)")
	cmd.Flags().Int("vus", 0, "virtual user count (overrides USERS)")
	cmd.Flags().Duration("duration", 0, "run duration (overrides DUR)")
	cmd.Flags().String("chaos", "", "full chaos directive, used verbatim (overrides CHAOS)")
	cmd.Flags().Bool("quiet", false, "suppress progress output")
}

// runLoad resolves configuration, runs the driver, prints the summary,
// and returns the process exit code.
func runLoad(cmd *cobra.Command) int {
	noColor, _ := cmd.Flags().GetBool("no-color")
	quiet, _ := cmd.Flags().GetBool("quiet")
	console := output.NewConsole(os.Stdout, noColor)

	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		// Configuration errors are fatal before any traffic is issued.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	console.PrintHeader(output.RunInfo{
		Name:     name,
		URL:      cfg.URL,
		Chaos:    cfg.Chaos.String(),
		VUs:      cfg.VUs,
		Duration: cfg.Duration,
	})

	engine := metrics.NewEngine()
	driver := loadgen.NewDriver(cfg, engine)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- driver.Run(ctx)
	}()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case runErr = <-done:
			break loop
		case <-ticker.C:
			if !quiet {
				console.PrintProgress(driver.Elapsed(), driver.Progress(), driver.ActiveVUs(), engine.Snapshot())
			}
		}
	}

	snap := engine.Snapshot()
	console.PrintSummary(snap)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		console.Errorf("run ended early: %v", runErr)
	}

	results := evaluateThresholds(cfg.Thresholds, snap)
	console.PrintThresholds(results)
	for _, r := range results {
		if !r.Passed {
			return 1
		}
	}
	return 0
}

// resolveConfig layers flags over the environment over an optional
// profile and validates the result.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	var profile *config.Profile
	var name string

	if path, _ := cmd.Flags().GetString("profile"); path != "" {
		p, err := config.LoadProfile(path)
		if err != nil {
			return nil, "", err
		}
		profile = p
		name = p.Name
	}

	cfg, err := config.Resolve(profile)
	if err != nil {
		return nil, "", err
	}

	if url, _ := cmd.Flags().GetString("url"); url != "" {
		cfg.URL = url
	}
	if vus, _ := cmd.Flags().GetInt("vus"); vus != 0 {
		cfg.VUs = vus
	}
	if dur, _ := cmd.Flags().GetDuration("duration"); dur != 0 {
		cfg.Duration = dur
	}
	if directive, _ := cmd.Flags().GetString("chaos"); directive != "" {
		cfg.Chaos = chaos.Assemble(directive, "", "", "")
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

// evaluateThresholds checks the snapshot against the configured limits.
func evaluateThresholds(t *config.Thresholds, snap *metrics.Snapshot) []output.ThresholdResult {
	if t == nil {
		return nil
	}

	var results []output.ThresholdResult
	if t.MaxP95 > 0 {
		results = append(results, output.ThresholdResult{
			Name:   "latency p95",
			Limit:  t.MaxP95.String(),
			Actual: snap.Latency.P95.String(),
			Passed: snap.Latency.P95 <= t.MaxP95.Std(),
		})
	}
	if t.MaxErrorRate > 0 {
		results = append(results, output.ThresholdResult{
			Name:   "error rate",
			Limit:  fmt.Sprintf("%.2f%%", t.MaxErrorRate*100),
			Actual: fmt.Sprintf("%.2f%%", snap.ErrorRate*100),
			Passed: snap.ErrorRate <= t.MaxErrorRate,
		})
	}
	return results
}
