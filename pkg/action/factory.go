package action

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ActionFactory builds an action from its configuration.
type ActionFactory func(config ActionConfig) (Action, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]ActionFactory)
)

// RegisterActionType registers the factory for an action type. Registering the
// same type again replaces the factory.
func RegisterActionType(actionType string, factory ActionFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[actionType] = factory
	logrus.Debugf("registered action type: %s", actionType)
}

// CreateAction builds an action from config. Disabled actions return nil, nil.
func CreateAction(config ActionConfig) (Action, error) {
	if !config.Enabled {
		logrus.Infof("skipping disabled action: %s", config.ID)
		return nil, nil
	}

	factoriesMu.RLock()
	factory, exists := factories[config.Type]
	factoriesMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("unknown action type: %s", config.Type)
	}

	logrus.Infof("creating action: id=%s, type=%s", config.ID, config.Type)
	return factory(config)
}

// RegisterActions builds every config and registers the results. Configs that
// fail to build are logged and skipped; a registration conflict is an error.
func RegisterActions(registry *Registry, configs []ActionConfig) error {
	count := 0
	for _, config := range configs {
		a, err := CreateAction(config)
		if err != nil {
			logrus.Warnf("failed to create action %s: %v", config.ID, err)
			continue
		}
		if a == nil {
			continue
		}

		if err := registry.Register(a); err != nil {
			return fmt.Errorf("failed to register action %s: %w", a.ID(), err)
		}
		count++
	}

	logrus.Infof("registered %d actions", count)
	return nil
}
