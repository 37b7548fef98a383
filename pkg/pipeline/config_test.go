package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_ShippedFile(t *testing.T) {
	t.Setenv("VOUCHER_SPONSOR_ID", "")

	config, err := LoadConfig("../../config/pipeline.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if len(config.Rules) != 4 {
		t.Errorf("len(Rules) = %d, expected 4", len(config.Rules))
	}
	if len(config.Actions) != 4 {
		t.Errorf("len(Actions) = %d, expected 4", len(config.Actions))
	}

	var voucher *ActionConfig
	for i := range config.Actions {
		if config.Actions[i].ID == "sponsor_coffee_voucher" {
			voucher = &config.Actions[i]
		}
	}
	if voucher == nil {
		t.Fatal("sponsor_coffee_voucher action missing")
	}
	if voucher.Retry == nil || voucher.Retry.MaxAttempts != 3 || voucher.Retry.Delay != 200*time.Millisecond {
		t.Errorf("Retry = %+v, expected 3 attempts with 200ms delay", voucher.Retry)
	}
	if voucher.Parameters["sponsor_id"] != "nightchill" {
		t.Errorf("sponsor_id = %v, expected env default", voucher.Parameters["sponsor_id"])
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		errText string
	}{
		{
			name:    "malformed yaml",
			yaml:    "rules: [",
			errText: "failed to parse",
		},
		{
			name:    "rule without id",
			yaml:    "rules:\n  - type: level_up\n",
			errText: "rule with empty ID",
		},
		{
			name:    "duplicate rule",
			yaml:    "rules:\n  - id: a\n    type: level_up\n  - id: a\n    type: level_up\n",
			errText: "duplicate rule ID: a",
		},
		{
			name:    "rule without type",
			yaml:    "rules:\n  - id: a\n",
			errText: "rule a has empty type",
		},
		{
			name:    "duplicate action",
			yaml:    "actions:\n  - id: x\n    type: log_event\n  - id: x\n    type: log_event\n",
			errText: "duplicate action ID: x",
		},
		{
			name:    "action without type",
			yaml:    "actions:\n  - id: x\n",
			errText: "action x has empty type",
		},
		{
			name:    "unknown action reference",
			yaml:    "rules:\n  - id: a\n    type: level_up\n    actions: [missing]\n",
			errText: "references unknown action: missing",
		},
		{
			name:    "zero retry attempts",
			yaml:    "actions:\n  - id: x\n    type: log_event\n    retry:\n      max_attempts: 0\n",
			errText: "max_attempts must be at least 1",
		},
		{
			name:    "unknown backoff",
			yaml:    "actions:\n  - id: x\n    type: log_event\n    retry:\n      max_attempts: 2\n      backoff: linear\n",
			errText: "unknown retry backoff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("ParseConfig() expected error")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error = %q, expected it to contain %q", err.Error(), tt.errText)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PIPELINE_TEST_VALUE", "from-env")
	os.Unsetenv("PIPELINE_TEST_UNSET")

	tests := []struct {
		input    string
		expected string
	}{
		{"${PIPELINE_TEST_VALUE}", "from-env"},
		{"${PIPELINE_TEST_VALUE:fallback}", "from-env"},
		{"${PIPELINE_TEST_UNSET:fallback}", "fallback"},
		{"${PIPELINE_TEST_UNSET}", ""},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := expandEnvVars(tt.input); got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigConversions(t *testing.T) {
	config, err := ParseConfig([]byte(`
rules:
  - id: streak_week
    name: Seven day streak
    type: streak_threshold
    enabled: true
    priority: 5
    actions: [log]
    parameters:
      threshold: 7
  - id: quiet
    type: level_up
    enabled: false
actions:
  - id: log
    type: log_event
    enabled: true
    retry:
      max_attempts: 2
      delay: 1s
`))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	rules := config.RuleConfigs()
	if len(rules) != 2 || rules[0].Priority != 5 || rules[0].Name != "Seven day streak" {
		t.Errorf("RuleConfigs() = %+v", rules)
	}
	if rules[0].GetInt("threshold", 0) != 7 {
		t.Errorf("threshold = %d, expected 7", rules[0].GetInt("threshold", 0))
	}

	actions := config.ActionConfigs()
	if len(actions) != 1 || actions[0].Retry == nil || actions[0].Retry.Delay != time.Second {
		t.Errorf("ActionConfigs() = %+v", actions)
	}

	ruleActions := config.RuleActions()
	if len(ruleActions) != 1 || len(ruleActions["streak_week"]) != 1 {
		t.Errorf("RuleActions() = %v, expected only streak_week", ruleActions)
	}
}
