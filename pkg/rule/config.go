package rule

// RuleConfig is the configuration of a single rule, loaded from the pipeline YAML.
type RuleConfig struct {
	ID         string                 `yaml:"id" json:"id"`
	Name       string                 `yaml:"name" json:"name"`
	Type       string                 `yaml:"type" json:"type"` // e.g. "streak_threshold"
	Enabled    bool                   `yaml:"enabled" json:"enabled"`
	Priority   int                    `yaml:"priority" json:"priority"`
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"`
}

// GetInt retrieves an integer parameter with a default.
func (c *RuleConfig) GetInt(key string, defaultValue int) int {
	switch v := c.Parameters[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return defaultValue
}

// GetString retrieves a string parameter with a default.
func (c *RuleConfig) GetString(key string, defaultValue string) string {
	if val, ok := c.Parameters[key].(string); ok {
		return val
	}
	return defaultValue
}

// GetBool retrieves a boolean parameter with a default.
func (c *RuleConfig) GetBool(key string, defaultValue bool) bool {
	if val, ok := c.Parameters[key].(bool); ok {
		return val
	}
	return defaultValue
}

// GetStringSlice retrieves a list parameter. YAML lists decode as []interface{}.
func (c *RuleConfig) GetStringSlice(key string) []string {
	switch v := c.Parameters[key].(type) {
	case []string:
		return v
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}
