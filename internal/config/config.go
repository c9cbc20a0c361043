// Package config loads the test environment configuration from an optional
// YAML file plus environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized as overrides.
const (
	// EnvSkipBuild skips docker builds when the image already exists.
	EnvSkipBuild = "SKIP_DOCKER_BUILD"

	// EnvDryRun selects simulation mode for the agent deployment: the
	// agent logs transfers instead of performing them.
	EnvDryRun = "DRY_RUN"

	// EnvReuseEnv reuses a running cluster and preserves it at teardown.
	EnvReuseEnv = "REUSE_ENV"
)

// Config holds every tunable of the test environment.
type Config struct {
	ClusterName       string `mapstructure:"clusterName"`
	KubernetesVersion string `mapstructure:"kubernetesVersion"`
	AgentImage        string `mapstructure:"agentImage"`
	GNOIImage         string `mapstructure:"gnoiImage"`
	AgentDockerfile   string `mapstructure:"agentDockerfile"`
	GNOIDockerfile    string `mapstructure:"gnoiDockerfile"`
	BuildContext      string `mapstructure:"buildContext"`
	Namespace         string `mapstructure:"namespace"`
	LogDir            string `mapstructure:"logDir"`
	ImageServerPort   int    `mapstructure:"imageServerPort"`

	SkipBuild bool `mapstructure:"skipBuild"`
	DryRun    bool `mapstructure:"dryRun"`
	ReuseEnv  bool `mapstructure:"reuseEnv"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ClusterName:       "sonic-test",
		KubernetesVersion: "v1.29.0",
		AgentImage:        "sonic-change-agent:test",
		GNOIImage:         "gnoi-light:test",
		AgentDockerfile:   "Dockerfile.sonic-change-agent",
		GNOIDockerfile:    "Dockerfile.gnoi-light",
		BuildContext:      ".",
		Namespace:         "default",
		LogDir:            "test_logs",
		ImageServerPort:   8080,
		DryRun:            true,
	}
}

// Load reads the configuration: defaults first, then the YAML file if path
// is non-empty, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	// #nosec G304 -- path is an operator-supplied flag
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	if err := mapstructure.Decode(raw, cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v, ok := boolEnv(EnvSkipBuild); ok {
		cfg.SkipBuild = v
	}
	if v, ok := boolEnv(EnvDryRun); ok {
		cfg.DryRun = v
	}
	if v, ok := boolEnv(EnvReuseEnv); ok {
		cfg.ReuseEnv = v
	}
}

// boolEnv parses a boolean-like variable. A set but unparseable value counts
// as true, matching the usual "set means on" convention.
func boolEnv(name string) (bool, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return false, false
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v, true
	}
	return true, true
}

// Validate checks the fields every component depends on.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("clusterName must not be empty")
	}
	if c.AgentImage == "" || c.GNOIImage == "" {
		return fmt.Errorf("image names must not be empty")
	}
	if c.ImageServerPort < 0 || c.ImageServerPort > 65535 {
		return fmt.Errorf("imageServerPort %d out of range", c.ImageServerPort)
	}
	return nil
}
