package rule

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// RuleFactory builds a rule from its configuration.
type RuleFactory func(config RuleConfig) (Rule, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]RuleFactory)
)

// RegisterRuleType registers the factory for a rule type. Registering the same
// type again replaces the factory.
func RegisterRuleType(ruleType string, factory RuleFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[ruleType] = factory
	logrus.Debugf("registered rule type: %s", ruleType)
}

// CreateRule builds a rule from config. Disabled rules return nil, nil.
func CreateRule(config RuleConfig) (Rule, error) {
	if !config.Enabled {
		logrus.Infof("skipping disabled rule: %s", config.ID)
		return nil, nil
	}

	factoriesMu.RLock()
	factory, exists := factories[config.Type]
	factoriesMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("unknown rule type: %s", config.Type)
	}

	logrus.Infof("creating rule: id=%s, type=%s, priority=%d", config.ID, config.Type, config.Priority)
	return factory(config)
}

// RegisterRules builds every config and registers the results. Configs that
// fail to build are logged and skipped; a registration conflict is an error.
func RegisterRules(registry *Registry, configs []RuleConfig) error {
	count := 0
	for _, config := range configs {
		r, err := CreateRule(config)
		if err != nil {
			logrus.Warnf("failed to create rule %s: %v", config.ID, err)
			continue
		}
		if r == nil {
			continue
		}

		if err := registry.Register(r); err != nil {
			return fmt.Errorf("failed to register rule %s: %w", r.ID(), err)
		}
		count++
	}

	logrus.Infof("registered %d rules", count)
	return nil
}
