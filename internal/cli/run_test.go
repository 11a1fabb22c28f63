package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaosdrive/internal/config"
	"chaosdrive/internal/metrics"
)

func newTestRunCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	registerRunFlags(cmd)
	for name, value := range flags {
		require.NoError(t, cmd.Flags().Set(name, value))
	}
	return cmd
}

func clearRunEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvUsers, config.EnvDuration, config.EnvURL, config.EnvChaos, config.EnvLatency, config.EnvErrorRate, config.EnvCPU} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestResolveConfig_FromEnv(t *testing.T) {
	clearRunEnv(t)
	t.Setenv(config.EnvURL, "http://svc/ping")
	t.Setenv(config.EnvUsers, "10")
	t.Setenv(config.EnvLatency, "100ms")

	cfg, _, err := resolveConfig(newTestRunCmd(t, nil))
	require.NoError(t, err)

	assert.Equal(t, "http://svc/ping", cfg.URL)
	assert.Equal(t, 10, cfg.VUs)
	assert.Equal(t, "lat:100ms", cfg.Chaos.String())
}

func TestResolveConfig_MissingURLFailsBeforeTraffic(t *testing.T) {
	clearRunEnv(t)

	_, _, err := resolveConfig(newTestRunCmd(t, nil))
	require.Error(t, err)

	var verr *config.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestResolveConfig_FlagsWinOverEnv(t *testing.T) {
	clearRunEnv(t)
	t.Setenv(config.EnvURL, "http://env/ping")
	t.Setenv(config.EnvUsers, "10")

	cfg, _, err := resolveConfig(newTestRunCmd(t, map[string]string{
		"url":      "http://flag/ping",
		"vus":      "3",
		"duration": "30s",
		"chaos":    "custom:xyz",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://flag/ping", cfg.URL)
	assert.Equal(t, 3, cfg.VUs)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, "custom:xyz", cfg.Chaos.String())
}

func TestResolveConfig_ProfileFillsGaps(t *testing.T) {
	clearRunEnv(t)

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: from profile
url: http://profile/ping
vus: 5
duration: 45s
`), 0o644))

	cfg, name, err := resolveConfig(newTestRunCmd(t, map[string]string{"profile": path}))
	require.NoError(t, err)

	assert.Equal(t, "from profile", name)
	assert.Equal(t, "http://profile/ping", cfg.URL)
	assert.Equal(t, 5, cfg.VUs)
	assert.Equal(t, 45*time.Second, cfg.Duration)
}

func TestResolveConfig_BadProfilePath(t *testing.T) {
	clearRunEnv(t)

	_, _, err := resolveConfig(newTestRunCmd(t, map[string]string{
		"profile": filepath.Join(t.TempDir(), "missing.yaml"),
	}))
	require.Error(t, err)
}

func TestEvaluateThresholds(t *testing.T) {
	snap := &metrics.Snapshot{
		ErrorRate: 0.10,
		Latency:   metrics.LatencyStats{P95: 800 * time.Millisecond},
	}

	t.Run("nil thresholds yield no results", func(t *testing.T) {
		assert.Empty(t, evaluateThresholds(nil, snap))
	})

	t.Run("passing", func(t *testing.T) {
		results := evaluateThresholds(&config.Thresholds{
			MaxP95:       config.Duration(time.Second),
			MaxErrorRate: 0.2,
		}, snap)
		require.Len(t, results, 2)
		assert.True(t, results[0].Passed)
		assert.True(t, results[1].Passed)
	})

	t.Run("violations", func(t *testing.T) {
		results := evaluateThresholds(&config.Thresholds{
			MaxP95:       config.Duration(500 * time.Millisecond),
			MaxErrorRate: 0.05,
		}, snap)
		require.Len(t, results, 2)
		assert.False(t, results[0].Passed)
		assert.False(t, results[1].Passed)
	})
}
