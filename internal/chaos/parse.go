package chaos

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Injection is the decoded form of a directive, as applied by the target.
type Injection struct {
	// Latency is extra delay added before responding.
	Latency time.Duration

	// ErrorRate is the probability (0..1) of responding with an
	// injected failure.
	ErrorRate float64

	// CPUBurn is how long to busy-loop before responding.
	CPUBurn time.Duration
}

// Zero reports whether the injection does nothing.
func (inj Injection) Zero() bool {
	return inj.Latency == 0 && inj.ErrorRate == 0 && inj.CPUBurn == 0
}

// Parse decodes a directive string into an Injection.
//
// Tokens are split on ",", keys and values on ":". Keys are matched
// case-insensitively; tokens with empty values and unknown keys are
// skipped. Latency and cpu values accept either a bare number of
// milliseconds ("2500") or a duration with a unit suffix ("2.5s").
func Parse(directive string) (Injection, error) {
	var inj Injection
	if directive == "" {
		return inj, nil
	}

	for _, token := range strings.Split(directive, ",") {
		key, value, _ := strings.Cut(token, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch key {
		case KeyLatency:
			d, err := parseMillis(value)
			if err != nil {
				return Injection{}, fmt.Errorf("chaos: bad latency %q: %w", value, err)
			}
			inj.Latency = d
		case KeyErrorRate:
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Injection{}, fmt.Errorf("chaos: bad error rate %q: %w", value, err)
			}
			inj.ErrorRate = rate
		case KeyCPU:
			d, err := parseMillis(value)
			if err != nil {
				return Injection{}, fmt.Errorf("chaos: bad cpu burn %q: %w", value, err)
			}
			inj.CPUBurn = d
		}
	}
	return inj, nil
}

// parseMillis reads a bare number as milliseconds, falling back to
// time.ParseDuration for suffixed values.
func parseMillis(value string) (time.Duration, error) {
	if ms, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	return time.ParseDuration(value)
}
