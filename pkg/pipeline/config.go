package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/nightchill/checkin-service/pkg/action"
	"github.com/nightchill/checkin-service/pkg/rule"
	"gopkg.in/yaml.v3"
)

// Config is the engagement pipeline configuration loaded from YAML.
type Config struct {
	Rules   []RuleConfig   `yaml:"rules"`
	Actions []ActionConfig `yaml:"actions"`
}

// RuleConfig is a rule entry. Actions lists the action ids run when the rule triggers.
type RuleConfig struct {
	ID         string                 `yaml:"id"`
	Name       string                 `yaml:"name,omitempty"`
	Type       string                 `yaml:"type"`
	Enabled    bool                   `yaml:"enabled"`
	Priority   int                    `yaml:"priority,omitempty"`
	Actions    []string               `yaml:"actions,omitempty"`
	Parameters map[string]interface{} `yaml:"parameters,omitempty"`
}

// ActionConfig is an action entry.
type ActionConfig struct {
	ID         string                 `yaml:"id"`
	Name       string                 `yaml:"name,omitempty"`
	Type       string                 `yaml:"type"`
	Enabled    bool                   `yaml:"enabled"`
	Retry      *action.RetryConfig    `yaml:"retry,omitempty"`
	Parameters map[string]interface{} `yaml:"parameters,omitempty"`
}

// LoadConfig reads and validates a pipeline file.
// ${VAR} and ${VAR:default} are expanded from the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return ParseConfig(data)
}

// ParseConfig parses and validates pipeline YAML
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks ids, types, retry settings and action references.
func (c *Config) Validate() error {
	ruleIDs := make(map[string]bool)
	for _, r := range c.Rules {
		if r.ID == "" {
			return fmt.Errorf("rule with empty ID found")
		}
		if ruleIDs[r.ID] {
			return fmt.Errorf("duplicate rule ID: %s", r.ID)
		}
		ruleIDs[r.ID] = true

		if r.Type == "" {
			return fmt.Errorf("rule %s has empty type", r.ID)
		}
	}

	actionIDs := make(map[string]bool)
	for _, a := range c.Actions {
		if a.ID == "" {
			return fmt.Errorf("action with empty ID found")
		}
		if actionIDs[a.ID] {
			return fmt.Errorf("duplicate action ID: %s", a.ID)
		}
		actionIDs[a.ID] = true

		if a.Type == "" {
			return fmt.Errorf("action %s has empty type", a.ID)
		}
		if a.Retry != nil {
			if a.Retry.MaxAttempts < 1 {
				return fmt.Errorf("action %s: retry max_attempts must be at least 1", a.ID)
			}
			if a.Retry.Delay < 0 {
				return fmt.Errorf("action %s: retry delay must not be negative", a.ID)
			}
			switch a.Retry.Backoff {
			case "", "constant", "exponential":
			default:
				return fmt.Errorf("action %s: unknown retry backoff %q", a.ID, a.Retry.Backoff)
			}
		}
	}

	for _, r := range c.Rules {
		for _, actionID := range r.Actions {
			if !actionIDs[actionID] {
				return fmt.Errorf("rule %s references unknown action: %s", r.ID, actionID)
			}
		}
	}

	return nil
}

// RuleConfigs converts the rule entries for the rule factory
func (c *Config) RuleConfigs() []rule.RuleConfig {
	result := make([]rule.RuleConfig, len(c.Rules))
	for i, rc := range c.Rules {
		result[i] = rule.RuleConfig{
			ID:         rc.ID,
			Name:       rc.Name,
			Type:       rc.Type,
			Enabled:    rc.Enabled,
			Priority:   rc.Priority,
			Parameters: rc.Parameters,
		}
	}
	return result
}

// ActionConfigs converts the action entries for the action factory
func (c *Config) ActionConfigs() []action.ActionConfig {
	result := make([]action.ActionConfig, len(c.Actions))
	for i, ac := range c.Actions {
		result[i] = action.ActionConfig{
			ID:         ac.ID,
			Name:       ac.Name,
			Type:       ac.Type,
			Enabled:    ac.Enabled,
			Retry:      ac.Retry,
			Parameters: ac.Parameters,
		}
	}
	return result
}

// RuleActions maps each rule id to the actions it runs. Rules without actions are omitted.
func (c *Config) RuleActions() map[string][]string {
	ruleActions := make(map[string][]string)
	for _, rc := range c.Rules {
		if len(rc.Actions) > 0 {
			ruleActions[rc.ID] = rc.Actions
		}
	}
	return ruleActions
}

// expandEnvVars expands ${VAR} and ${VAR:default}
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(parts[0]); value != "" {
			return value
		}
		return defaultValue
	})
}
