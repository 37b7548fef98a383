package pipeline

import (
	"strings"
	"testing"

	"github.com/nightchill/checkin-service/pkg/service"
)

func TestValidateWiring(t *testing.T) {
	p := buildPipeline(t, testPipelineYAML, service.NewDependencies())

	if err := ValidateWiring(p.ruleRegistry, p.actionRegistry, p.config); err != nil {
		t.Errorf("ValidateWiring() error = %v", err)
	}
}

func TestValidateWiring_ShippedConfig(t *testing.T) {
	config, err := LoadConfig("../../config/pipeline.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	shipped := buildPipelineFromConfig(t, config, service.NewDependencies())
	if err := ValidateWiring(shipped.ruleRegistry, shipped.actionRegistry, config); err != nil {
		t.Errorf("ValidateWiring() error = %v", err)
	}
}

func TestValidateWiring_Failures(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected []string
	}{
		{
			name: "unknown rule type",
			yaml: `
rules:
  - id: mystery
    type: does_not_exist
    enabled: true
`,
			expected: []string{"rule 'mystery'"},
		},
		{
			name: "rule parameters rejected by factory",
			yaml: `
rules:
  - id: streak
    type: streak_threshold
    enabled: true
`,
			expected: []string{"rule 'streak'"},
		},
		{
			name: "action config rejected and referenced",
			yaml: `
rules:
  - id: levels
    type: level_up
    enabled: true
    actions: [voucher]
actions:
  - id: voucher
    type: issue_voucher
    enabled: true
`,
			expected: []string{"action 'voucher'", "rule 'levels' runs action 'voucher'"},
		},
		{
			name: "disabled entries are ignored",
			yaml: `
rules:
  - id: mystery
    type: does_not_exist
    enabled: false
actions:
  - id: other
    type: does_not_exist
    enabled: false
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildPipeline(t, tt.yaml, service.NewDependencies())
			err := ValidateWiring(p.ruleRegistry, p.actionRegistry, p.config)

			if len(tt.expected) == 0 {
				if err != nil {
					t.Errorf("ValidateWiring() error = %v, expected nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateWiring() expected error")
			}
			for _, text := range tt.expected {
				if !strings.Contains(err.Error(), text) {
					t.Errorf("error = %q, expected it to contain %q", err.Error(), text)
				}
			}
		})
	}
}
