package builtin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nightchill/checkin-service/pkg/action"
	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/nightchill/checkin-service/pkg/signal"
)

type mockIssuer struct {
	issued  []service.IssueRequest
	revoked []string
	failErr error
}

func (m *mockIssuer) Issue(ctx context.Context, req service.IssueRequest) (*service.Reward, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	m.issued = append(m.issued, req)
	return &service.Reward{
		ID:     fmt.Sprintf("voucher-%d", len(m.issued)),
		UserID: req.UserID,
		Type:   req.Type,
		Title:  req.Title,
		Status: service.RewardStatusActive,
	}, nil
}

func (m *mockIssuer) Revoke(ctx context.Context, rewardID string) error {
	m.revoked = append(m.revoked, rewardID)
	return nil
}

type publishedEvent struct {
	eventType string
	key       string
	payload   interface{}
}

type mockPublisher struct {
	events []publishedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, eventType string, key string, payload interface{}) error {
	m.events = append(m.events, publishedEvent{eventType: eventType, key: key, payload: payload})
	return nil
}

func (m *mockPublisher) Close() error {
	return nil
}

func voucherConfig(params map[string]interface{}) action.ActionConfig {
	return action.ActionConfig{
		ID:         "week_one_coffee",
		Type:       IssueVoucherActionID,
		Enabled:    true,
		Parameters: params,
	}
}

func testTrigger() *rule.Trigger {
	return rule.NewTrigger("milestone_coffee", "user-1", "milestone week_1 reached", 10).
		WithMetadata("milestone_id", "week_1")
}

func TestIssueVoucher_ExecuteAndRollback(t *testing.T) {
	issuer := &mockIssuer{}
	a, err := NewIssueVoucherAction(voucherConfig(map[string]interface{}{
		"type":   "coffee",
		"title":  "Free coffee",
		"value":  5,
		"expiry": "72h",
	}), issuer)
	if err != nil {
		t.Fatalf("NewIssueVoucherAction() error = %v", err)
	}

	trigger := testTrigger()
	if err := a.Execute(context.Background(), trigger, &signal.UserContext{UserID: "user-1"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(issuer.issued) != 1 {
		t.Fatalf("issued %d vouchers, expected 1", len(issuer.issued))
	}
	req := issuer.issued[0]
	if req.UserID != "user-1" || req.Type != service.RewardTypeCoffee || req.Value != 5 {
		t.Errorf("IssueRequest = %+v", req)
	}
	if req.SponsorID != defaultVoucherSponsor {
		t.Errorf("SponsorID = %q, expected %q", req.SponsorID, defaultVoucherSponsor)
	}
	if req.Expiry != 72*time.Hour {
		t.Errorf("Expiry = %v, expected 72h", req.Expiry)
	}
	if req.Description != trigger.Reason {
		t.Errorf("Description = %q, expected trigger reason", req.Description)
	}

	if err := a.Rollback(context.Background(), trigger, nil); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	if len(issuer.revoked) != 1 || issuer.revoked[0] != "voucher-1" {
		t.Errorf("revoked = %v, expected [voucher-1]", issuer.revoked)
	}
}

func TestIssueVoucher_RollbackWithoutIssue(t *testing.T) {
	issuer := &mockIssuer{}
	a, _ := NewIssueVoucherAction(voucherConfig(map[string]interface{}{"title": "Free coffee"}), issuer)

	if err := a.Rollback(context.Background(), testTrigger(), nil); err != nil {
		t.Errorf("Rollback() error = %v", err)
	}
	if len(issuer.revoked) != 0 {
		t.Errorf("revoked = %v, expected nothing", issuer.revoked)
	}
}

func TestIssueVoucher_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"type": "coffee"}},
		{"badge is not a voucher", map[string]interface{}{"type": "badge", "title": "x"}},
		{"unknown type", map[string]interface{}{"type": "spa", "title": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIssueVoucherAction(voucherConfig(tt.params), &mockIssuer{})
			if !errors.Is(err, action.ErrInvalidConfig) {
				t.Errorf("NewIssueVoucherAction() error = %v, expected ErrInvalidConfig", err)
			}
		})
	}
}

func TestIssueVoucher_Failures(t *testing.T) {
	a, _ := NewIssueVoucherAction(voucherConfig(map[string]interface{}{"title": "Free coffee"}), nil)
	if err := a.Execute(context.Background(), testTrigger(), nil); !errors.Is(err, action.ErrDependencyMissing) {
		t.Errorf("Execute() error = %v, expected ErrDependencyMissing", err)
	}

	boom := errors.New("store down")
	a, _ = NewIssueVoucherAction(voucherConfig(map[string]interface{}{"title": "Free coffee"}), &mockIssuer{failErr: boom})
	if err := a.Execute(context.Background(), testTrigger(), nil); !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, expected wrapped store error", err)
	}
}

func TestPublishEvent(t *testing.T) {
	tests := []struct {
		name         string
		params       map[string]interface{}
		expectedType string
	}{
		{"defaults to rule id", nil, "milestone_coffee"},
		{"configured event type", map[string]interface{}{"event_type": "engagement.milestone"}, "engagement.milestone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockPublisher{}
			a := NewPublishEventAction(action.ActionConfig{ID: "publish", Type: PublishEventActionID, Enabled: true, Parameters: tt.params}, pub)

			if err := a.Execute(context.Background(), testTrigger(), nil); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if len(pub.events) != 1 {
				t.Fatalf("published %d events, expected 1", len(pub.events))
			}

			ev := pub.events[0]
			if ev.eventType != tt.expectedType {
				t.Errorf("eventType = %q, expected %q", ev.eventType, tt.expectedType)
			}
			if ev.key != "user-1" {
				t.Errorf("key = %q, expected user-1", ev.key)
			}
			payload, ok := ev.payload.(TriggerEvent)
			if !ok {
				t.Fatalf("payload type = %T, expected TriggerEvent", ev.payload)
			}
			if payload.Metadata["milestone_id"] != "week_1" {
				t.Errorf("payload metadata = %v", payload.Metadata)
			}
		})
	}
}

func TestPublishEvent_RollbackAndMissingPublisher(t *testing.T) {
	a := NewPublishEventAction(action.ActionConfig{ID: "publish"}, nil)

	if err := a.Execute(context.Background(), testTrigger(), nil); !errors.Is(err, action.ErrDependencyMissing) {
		t.Errorf("Execute() error = %v, expected ErrDependencyMissing", err)
	}
	if err := a.Rollback(context.Background(), testTrigger(), nil); !errors.Is(err, action.ErrRollbackNotSupported) {
		t.Errorf("Rollback() error = %v, expected ErrRollbackNotSupported", err)
	}
}

func TestLogEvent(t *testing.T) {
	a := NewLogEventAction(action.ActionConfig{
		ID:         "log",
		Parameters: map[string]interface{}{"level": "not-a-level"},
	})
	if a.level.String() != "info" {
		t.Errorf("level = %v, expected info fallback", a.level)
	}

	userCtx := &signal.UserContext{UserID: "user-1", Info: map[string]interface{}{signal.InfoCurrentStreak: 7}}
	if err := a.Execute(context.Background(), testTrigger(), userCtx); err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if err := a.Rollback(context.Background(), testTrigger(), userCtx); err != nil {
		t.Errorf("Rollback() error = %v", err)
	}
}

func TestRegisterActions(t *testing.T) {
	issuer := &mockIssuer{}
	pub := &mockPublisher{}
	RegisterActions(service.NewDependencies().WithVoucherIssuer(issuer).WithPublisher(pub))

	registry := action.NewRegistry()
	configs := []action.ActionConfig{
		voucherConfig(map[string]interface{}{"title": "Free coffee"}),
		{ID: "publish", Type: PublishEventActionID, Enabled: true},
		{ID: "log", Type: LogEventActionID, Enabled: true},
		{ID: "broken", Type: IssueVoucherActionID, Enabled: true},
		{ID: "off", Type: LogEventActionID, Enabled: false},
	}
	if err := action.RegisterActions(registry, configs); err != nil {
		t.Fatalf("RegisterActions() error = %v", err)
	}

	if registry.Count() != 3 {
		t.Errorf("Count() = %d, expected 3", registry.Count())
	}
	if registry.Get("broken") != nil {
		t.Error("action with invalid config should not be registered")
	}

	a := registry.Get("week_one_coffee")
	if a == nil {
		t.Fatal("issue voucher action not registered")
	}
	if err := a.Execute(context.Background(), testTrigger(), nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(issuer.issued) != 1 {
		t.Errorf("issued %d vouchers through the registered action, expected 1", len(issuer.issued))
	}
}
