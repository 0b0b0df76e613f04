// Package config loads the linter rule-toggle file, following the
// teacher's configuration package's load-from-file-with-defaults shape
// (configuration/config.go), adapted from JSON to YAML since this
// project's config is a small rule on/off map rather than a full sink
// pipeline description.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Known linter rule names, matching soql/linter's Finding.Summary values.
const (
	RuleUnboundedQuery           = "Unbounded query"
	RuleLeadingWildcardLike      = "Leading wildcard LIKE"
	RuleNegativeOperator         = "Negative operator"
	RuleOrderByWithoutLimit      = "ORDER BY without LIMIT"
	RuleLastModifiedDateUpperBound = "LastModifiedDate upper bound"
	RuleTriggerNonSelectivity    = "Trigger non-selectivity"
)

var allRules = []string{
	RuleUnboundedQuery,
	RuleLeadingWildcardLike,
	RuleNegativeOperator,
	RuleOrderByWithoutLimit,
	RuleLastModifiedDateUpperBound,
	RuleTriggerNonSelectivity,
}

// LinterConfig toggles individual lint rules on or off.
type LinterConfig struct {
	Rules map[string]bool `yaml:"rules"`
}

// Config is the root apexlog-tools configuration.
type Config struct {
	Linter LinterConfig `yaml:"linter"`
}

// Default returns a Config with every known rule enabled.
func Default() *Config {
	c := &Config{Linter: LinterConfig{Rules: make(map[string]bool, len(allRules))}}
	for _, r := range allRules {
		c.Linter.Rules[r] = true
	}
	return c
}

// LoadFromFile reads and parses a YAML config file, filling in defaults
// for any rule the file doesn't mention.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadFromYAML(data)
}

// LoadFromYAML parses YAML config data, filling in defaults for any rule
// the data doesn't mention.
func LoadFromYAML(data []byte) (*Config, error) {
	c := Default()
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	for name, enabled := range parsed.Linter.Rules {
		c.Linter.Rules[name] = enabled
	}
	return c, nil
}

// RuleEnabled reports whether the named rule is enabled. Unknown rule
// names are treated as enabled, so a config file targeting an older rule
// set never silently disables one it's never heard of.
func (c *Config) RuleEnabled(name string) bool {
	enabled, ok := c.Linter.Rules[name]
	if !ok {
		return true
	}
	return enabled
}
