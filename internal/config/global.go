package config

import (
	"github.com/ignitionstack/rfcbridge/pkg/config"
)

// Global configuration variables, bound to the root command flags
var (
	// ConfigPath is the path to the configuration file
	ConfigPath = config.DefaultConfigPath

	// FixturePath overrides backend.fixture when set
	FixturePath string

	// Plain disables styled output
	Plain bool

	// JSONOutput prints results as JSON
	JSONOutput bool
)

// Load reads the configuration file and applies flag overrides.
func Load() (*config.Config, error) {
	cfg, err := config.LoadConfig(ConfigPath)
	if err != nil {
		return nil, err
	}
	if FixturePath != "" {
		cfg.Backend.Fixture = config.ExpandHome(FixturePath)
	}
	return cfg, nil
}
