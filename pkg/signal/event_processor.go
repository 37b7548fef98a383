package signal

import (
	"context"
	"fmt"
	"sync"
)

// EventProcessor turns one kind of domain event into a signal.
type EventProcessor interface {
	// EventType returns the event kind this processor accepts (e.g. "checkin_completed").
	EventType() string

	// Process converts the event into a signal, loading user context if the event lacks it.
	Process(ctx context.Context, event interface{}, contextLoader UserContextLoader) (Signal, error)
}

// UserContextLoader loads a user's context on demand.
type UserContextLoader interface {
	Load(ctx context.Context, userID string) (*UserContext, error)
}

// EventProcessorRegistry holds the registered event processors.
type EventProcessorRegistry struct {
	mu         sync.RWMutex
	processors map[string]EventProcessor
}

// NewEventProcessorRegistry creates an empty registry.
func NewEventProcessorRegistry() *EventProcessorRegistry {
	return &EventProcessorRegistry{
		processors: make(map[string]EventProcessor),
	}
}

// Register adds a processor, replacing any processor for the same event type.
func (r *EventProcessorRegistry) Register(processor EventProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[processor.EventType()] = processor
}

// Get returns the processor for eventType, or nil.
func (r *EventProcessorRegistry) Get(eventType string) EventProcessor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.processors[eventType]
}

// Count returns the number of registered processors.
func (r *EventProcessorRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.processors)
}

// Unregister removes the processor for eventType.
func (r *EventProcessorRegistry) Unregister(eventType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.processors[eventType]; !exists {
		return fmt.Errorf("event processor for type '%s' not found", eventType)
	}

	delete(r.processors, eventType)
	return nil
}
