package doccheck

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config optionally overrides the validated paths and the regulatory
// whitelist, so organizations with different document trees can reuse the
// checks without a fork.
type Config struct {
	Paths       []string `yaml:"paths"`
	Regulations []string `yaml:"regulations"`
}

// LoadConfig reads a YAML config file. Unset fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
