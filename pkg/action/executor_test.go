package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
)

// testAction records calls and fails on demand
type testAction struct {
	id             string
	config         ActionConfig
	failTimes      int
	executeErr     error
	rollbackErr    error
	executeCalls   int
	rollbackCalled bool
	order          *[]string
}

func (a *testAction) ID() string           { return a.id }
func (a *testAction) Name() string         { return "Test " + a.id }
func (a *testAction) Config() ActionConfig { return a.config }

func (a *testAction) Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error {
	a.executeCalls++
	if a.executeCalls <= a.failTimes {
		return a.executeErr
	}
	if a.failTimes == 0 && a.executeErr != nil {
		return a.executeErr
	}
	return nil
}

func (a *testAction) Rollback(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error {
	a.rollbackCalled = true
	if a.order != nil {
		*a.order = append(*a.order, a.id)
	}
	return a.rollbackErr
}

func newTestAction(id string) *testAction {
	return &testAction{id: id, config: ActionConfig{ID: id, Enabled: true}}
}

func setupExecutor(t *testing.T, actions ...*testAction) *Executor {
	t.Helper()
	registry := NewRegistry()
	for _, a := range actions {
		if err := registry.Register(a); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	return NewExecutor(registry)
}

func testTrigger() *rule.Trigger {
	return rule.NewTrigger("rule-1", "user-1", "test", 0)
}

func TestExecuteMultiple_Success(t *testing.T) {
	a, b := newTestAction("a"), newTestAction("b")
	executor := setupExecutor(t, a, b)

	results, err := executor.ExecuteMultiple(context.Background(), []string{"a", "b"}, testTrigger(), nil, true)
	if err != nil {
		t.Fatalf("ExecuteMultiple() error = %v", err)
	}
	if len(results) != 2 || !results[0].Success || !results[1].Success {
		t.Errorf("results = %+v", results)
	}
	if a.executeCalls != 1 || b.executeCalls != 1 {
		t.Errorf("execute calls a=%d b=%d", a.executeCalls, b.executeCalls)
	}
}

func TestExecuteMultiple_RollbackInReverseOrder(t *testing.T) {
	var order []string
	a, b, c := newTestAction("a"), newTestAction("b"), newTestAction("c")
	a.order, b.order = &order, &order
	b.rollbackErr = ErrRollbackNotSupported
	c.executeErr = errors.New("boom")

	executor := setupExecutor(t, a, b, c)

	results, err := executor.ExecuteMultiple(context.Background(), []string{"a", "b", "c"}, testTrigger(), nil, true)
	if err == nil {
		t.Fatal("ExecuteMultiple() expected error")
	}
	if len(results) != 3 || results[2].Success {
		t.Errorf("results = %+v", results)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Errorf("rollback order = %v, expected [b a]", order)
	}
	if c.rollbackCalled {
		t.Error("failed action should not be rolled back")
	}
}

func TestExecuteMultiple_NoRollbackWhenDisabled(t *testing.T) {
	a, b := newTestAction("a"), newTestAction("b")
	b.executeErr = errors.New("boom")
	executor := setupExecutor(t, a, b)

	if _, err := executor.ExecuteMultiple(context.Background(), []string{"a", "b"}, testTrigger(), nil, false); err == nil {
		t.Fatal("ExecuteMultiple() expected error")
	}
	if a.rollbackCalled {
		t.Error("rollback ran with rollbackOnError=false")
	}
}

func TestExecuteMultiple_MissingAction(t *testing.T) {
	a := newTestAction("a")
	executor := setupExecutor(t, a)

	_, err := executor.ExecuteMultiple(context.Background(), []string{"a", "missing"}, testTrigger(), nil, true)
	if !errors.Is(err, ErrActionNotFound) {
		t.Fatalf("ExecuteMultiple() error = %v, expected ErrActionNotFound", err)
	}
	if !a.rollbackCalled {
		t.Error("expected executed action to be rolled back")
	}
}

func TestExecuteMultiple_Retry(t *testing.T) {
	tests := []struct {
		name          string
		retry         *RetryConfig
		failTimes     int
		executeErr    error
		expectErr     bool
		expectedCalls int
	}{
		{
			name:          "succeeds on third attempt",
			retry:         &RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
			failTimes:     2,
			executeErr:    errors.New("transient"),
			expectedCalls: 3,
		},
		{
			name:          "gives up after max attempts",
			retry:         &RetryConfig{MaxAttempts: 2, Delay: time.Millisecond, Backoff: "exponential"},
			failTimes:     5,
			executeErr:    errors.New("transient"),
			expectErr:     true,
			expectedCalls: 2,
		},
		{
			name:          "config errors are not retried",
			retry:         &RetryConfig{MaxAttempts: 5, Delay: time.Millisecond},
			failTimes:     5,
			executeErr:    ErrInvalidConfig,
			expectErr:     true,
			expectedCalls: 1,
		},
		{
			name:          "no retry config runs once",
			failTimes:     1,
			executeErr:    errors.New("transient"),
			expectErr:     true,
			expectedCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAction("a")
			a.config.Retry = tt.retry
			a.failTimes = tt.failTimes
			a.executeErr = tt.executeErr

			results, err := setupExecutor(t, a).ExecuteMultiple(context.Background(), []string{"a"}, testTrigger(), nil, true)
			if (err != nil) != tt.expectErr {
				t.Fatalf("ExecuteMultiple() error = %v, expectErr %v", err, tt.expectErr)
			}
			if a.executeCalls != tt.expectedCalls {
				t.Errorf("execute calls = %d, expected %d", a.executeCalls, tt.expectedCalls)
			}
			if results[0].Attempts != tt.expectedCalls {
				t.Errorf("Attempts = %d, expected %d", results[0].Attempts, tt.expectedCalls)
			}
		})
	}
}

func TestRegisterActions(t *testing.T) {
	RegisterActionType("test_noop", func(config ActionConfig) (Action, error) {
		return &testAction{id: config.ID, config: config}, nil
	})
	RegisterActionType("test_broken", func(config ActionConfig) (Action, error) {
		return nil, ErrInvalidConfig
	})

	registry := NewRegistry()
	err := RegisterActions(registry, []ActionConfig{
		{ID: "one", Type: "test_noop", Enabled: true},
		{ID: "off", Type: "test_noop", Enabled: false},
		{ID: "broken", Type: "test_broken", Enabled: true},
		{ID: "unknown", Type: "no_such_type", Enabled: true},
	})
	if err != nil {
		t.Fatalf("RegisterActions() error = %v", err)
	}
	if registry.Count() != 1 || registry.Get("one") == nil {
		t.Errorf("expected only 'one' registered, got %d", registry.Count())
	}
}

func TestActionConfig_Getters(t *testing.T) {
	config := ActionConfig{Parameters: map[string]interface{}{
		"value":  5,
		"ratio":  2.5,
		"title":  "Coffee",
		"flag":   true,
		"expiry": "48h",
		"bad":    "soon",
	}}

	if config.GetParameterInt("value", 0) != 5 || config.GetParameterInt("missing", 3) != 3 {
		t.Error("GetParameterInt() returned unexpected values")
	}
	if config.GetParameterFloat("value", 0) != 5 || config.GetParameterFloat("ratio", 0) != 2.5 {
		t.Error("GetParameterFloat() returned unexpected values")
	}
	if config.GetParameterString("title", "") != "Coffee" || !config.GetParameterBool("flag", false) {
		t.Error("string/bool getters returned unexpected values")
	}
	if config.GetParameterDuration("expiry", 0) != 48*time.Hour || config.GetParameterDuration("bad", time.Hour) != time.Hour {
		t.Error("GetParameterDuration() returned unexpected values")
	}
}
