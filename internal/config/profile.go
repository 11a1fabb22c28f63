package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the YAML file form of the run configuration. A profile
// holds the same knobs as the environment variables; any field left
// empty falls through to the environment or the defaults.
//
// Example:
//
//	name: checkout under latency
//	url: http://svc/ping
//	vus: 50
//	duration: 90s
//	chaos:
//	  latency: "2500"
//	  errorRate: "0.03"
//	thresholds:
//	  maxP95: 1s
//	  maxErrorRate: 0.05
type Profile struct {
	// Name labels the run in the console header.
	Name string `yaml:"name"`

	URL      string `yaml:"url"`
	VUs      int    `yaml:"vus"`
	Duration string `yaml:"duration"`

	Chaos ProfileChaos `yaml:"chaos"`

	Thresholds *Thresholds `yaml:"thresholds"`
}

// ProfileChaos mirrors the CHAOS/LAT/ERR/CPU environment variables.
type ProfileChaos struct {
	// Directive is a full chaos directive used verbatim when set.
	Directive string `yaml:"directive"`

	Latency   string `yaml:"latency"`
	ErrorRate string `yaml:"errorRate"`
	CPU       string `yaml:"cpu"`
}

// LoadProfile reads and parses a YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return &profile, nil
}
