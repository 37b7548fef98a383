package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nightchill/checkin-service/pkg/state"
)

type mockStateStore struct {
	states map[string]*state.UserState
	err    error
}

func (m *mockStateStore) GetUserState(ctx context.Context, userID string) (*state.UserState, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.states[userID]; ok {
		return s, nil
	}
	return state.NewUserState(userID, time.Now()), nil
}

type pingEvent struct {
	userID string
}

// pingProcessor always loads context through the loader
type pingProcessor struct{}

func (pingProcessor) EventType() string { return "ping" }

func (pingProcessor) Process(ctx context.Context, event interface{}, loader UserContextLoader) (Signal, error) {
	ping, ok := event.(*pingEvent)
	if !ok {
		return nil, errors.New("unexpected event")
	}
	userCtx, err := loader.Load(ctx, ping.userID)
	if err != nil {
		return nil, err
	}
	sig := NewBaseSignal("pong", ping.userID, time.Now(), nil, userCtx)
	return &sig, nil
}

func TestProcessor_Process(t *testing.T) {
	store := &mockStateStore{states: map[string]*state.UserState{
		"user1": {ID: "user1", CurrentStreak: 5, JourneyLevel: 2},
	}}
	processor := NewProcessor(store)
	processor.GetEventProcessorRegistry().Register(pingProcessor{})

	sig, err := processor.Process(context.Background(), "ping", &pingEvent{userID: "user1"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if sig.Type() != "pong" {
		t.Errorf("Type() = %s, expected pong", sig.Type())
	}
	if sig.Context().Info[InfoCurrentStreak] != 5 {
		t.Errorf("current_streak = %v, expected 5", sig.Context().Info[InfoCurrentStreak])
	}
}

func TestProcessor_Errors(t *testing.T) {
	tests := []struct {
		name      string
		store     *mockStateStore
		eventType string
		event     interface{}
	}{
		{"nil event", &mockStateStore{}, "ping", nil},
		{"unknown event type", &mockStateStore{}, "unknown", &pingEvent{userID: "u"}},
		{"wrong payload", &mockStateStore{}, "ping", "not-a-ping"},
		{"state load failure", &mockStateStore{err: errors.New("redis down")}, "ping", &pingEvent{userID: "u"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := NewProcessor(tt.store)
			processor.GetEventProcessorRegistry().Register(pingProcessor{})

			if _, err := processor.Process(context.Background(), tt.eventType, tt.event); err == nil {
				t.Error("Process() expected error")
			}
		})
	}
}

func TestEventProcessorRegistry(t *testing.T) {
	registry := NewEventProcessorRegistry()
	registry.Register(pingProcessor{})

	if registry.Count() != 1 {
		t.Errorf("Count() = %d, expected 1", registry.Count())
	}
	if registry.Get("ping") == nil {
		t.Error("Get(ping) returned nil")
	}
	if err := registry.Unregister("ping"); err != nil {
		t.Errorf("Unregister() error = %v", err)
	}
	if err := registry.Unregister("ping"); err == nil {
		t.Error("Unregister() of missing processor expected error")
	}
}
