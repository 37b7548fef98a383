package pipeline

import (
	"fmt"
	"strings"

	"github.com/nightchill/checkin-service/pkg/action"
	"github.com/nightchill/checkin-service/pkg/rule"
)

// ValidateWiring checks that every enabled rule and action in the config was
// built and registered. A factory that rejected its parameters, or a type with
// no registered factory, shows up here instead of at the first check-in.
// Dangling action references are caught earlier by Config.Validate.
func ValidateWiring(ruleRegistry *rule.Registry, actionRegistry *action.Registry, config *Config) error {
	var problems []string

	for _, rc := range config.Rules {
		if !rc.Enabled {
			continue
		}
		if ruleRegistry.Get(rc.ID) == nil {
			problems = append(problems, fmt.Sprintf("rule '%s' (type=%s) is enabled in config but not registered", rc.ID, rc.Type))
		}

		for _, actionID := range rc.Actions {
			if actionRegistry.Get(actionID) == nil {
				problems = append(problems, fmt.Sprintf("rule '%s' runs action '%s' which is not registered", rc.ID, actionID))
			}
		}
	}

	for _, ac := range config.Actions {
		if !ac.Enabled {
			continue
		}
		if actionRegistry.Get(ac.ID) == nil {
			problems = append(problems, fmt.Sprintf("action '%s' (type=%s) is enabled in config but not registered", ac.ID, ac.Type))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("pipeline wiring validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}
