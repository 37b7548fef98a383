package signal

import (
	"context"
	"fmt"

	"github.com/nightchill/checkin-service/pkg/state"
	"github.com/sirupsen/logrus"
)

// StateStore reads user state for context enrichment.
type StateStore interface {
	GetUserState(ctx context.Context, userID string) (*state.UserState, error)
}

// Processor dispatches domain events to their EventProcessor.
type Processor struct {
	stateStore StateStore
	registry   *EventProcessorRegistry
}

// NewProcessor creates a processor with an empty event processor registry.
func NewProcessor(stateStore StateStore) *Processor {
	return &Processor{
		stateStore: stateStore,
		registry:   NewEventProcessorRegistry(),
	}
}

// GetEventProcessorRegistry returns the registry so callers can add processors.
func (p *Processor) GetEventProcessorRegistry() *EventProcessorRegistry {
	return p.registry
}

// Process converts an event into a signal. Unknown event types are an error.
func (p *Processor) Process(ctx context.Context, eventType string, event interface{}) (Signal, error) {
	if event == nil {
		return nil, fmt.Errorf("%s event is nil", eventType)
	}

	processor := p.registry.Get(eventType)
	if processor == nil {
		return nil, fmt.Errorf("no event processor registered for %s", eventType)
	}

	sig, err := processor.Process(ctx, event, p)
	if err != nil {
		return nil, err
	}

	if sig != nil {
		logrus.Debugf("processed %s event for user %s into %s signal", eventType, sig.UserID(), sig.Type())
	}
	return sig, nil
}

// Load implements UserContextLoader.
func (p *Processor) Load(ctx context.Context, userID string) (*UserContext, error) {
	if p.stateStore == nil {
		return BuildUserContext(userID, nil), nil
	}

	userState, err := p.stateStore.GetUserState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	return BuildUserContext(userID, userState), nil
}
