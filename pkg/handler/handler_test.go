package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/nightchill/checkin-service/pkg/auth"
	"github.com/nightchill/checkin-service/pkg/checkin"
	"github.com/nightchill/checkin-service/pkg/location"
	"github.com/nightchill/checkin-service/pkg/reward"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/nightchill/checkin-service/pkg/voucher"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeHealth struct {
	err error
}

func (f fakeHealth) Check(ctx context.Context) error {
	return f.err
}

type testServer struct {
	server   *httptest.Server
	verifier *auth.Verifier
}

type testServices struct {
	checkIns  *checkin.Orchestrator
	rewards   *reward.Engine
	locations *location.Service
	verifier  *auth.Verifier
}

func setupServices(t *testing.T) *testServices {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	now := func() time.Time { return testNow }

	users := service.NewRedisUserStore(client, service.RedisUserStoreConfig{Now: now})
	rewards := service.NewRedisRewardStore(client, service.RedisRewardStoreConfig{})
	locations := service.NewRedisLocationStore(client, service.RedisLocationStoreConfig{})
	signer, _ := voucher.NewSigner("test-secret", "test")
	engine := reward.NewEngine(rewards, users, signer, reward.DefaultConfig(), now)

	orch := checkin.NewOrchestrator(checkin.Config{
		Users:      users,
		CheckIns:   service.NewRedisCheckInStore(client, service.RedisCheckInStoreConfig{}),
		Locations:  locations,
		Rewards:    rewards,
		Locker:     service.NewRedisLocker(client, service.RedisLockerConfig{TTL: 5 * time.Second, MaxWait: time.Second}),
		Milestones: engine,
		Now:        now,
	})

	locationService := location.NewService(locations, now)
	err = locationService.Seed(context.Background(), []*service.Location{
		{ID: "cafe", Name: "Peaceful Grounds Café", Type: "coffee", Latitude: 51.5074, Longitude: -0.1278,
			AnxietyLevel: "low", IsBeginnerFriendly: true, HasQRReward: true},
		{ID: "gym", Name: "The Quiet Gym", Type: "gym", Latitude: 51.5100, Longitude: -0.1300,
			AnxietyLevel: "low", IsBeginnerFriendly: true},
	})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	verifier, _ := auth.NewVerifier("jwt-secret")
	return &testServices{checkIns: orch, rewards: engine, locations: locationService, verifier: verifier}
}

func setupServer(t *testing.T, rate int, health HealthChecker) *testServer {
	t.Helper()

	svc := setupServices(t)
	h := NewHandler(Config{
		CheckIns:             svc.checkIns,
		Rewards:              svc.rewards,
		Locations:            svc.locations,
		Verifier:             svc.verifier,
		Health:               health,
		CheckInRatePerMinute: rate,
	})

	server := httptest.NewServer(h.Routes())
	t.Cleanup(server.Close)

	return &testServer{server: server, verifier: svc.verifier}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if userID != "" {
		token, err := s.verifier.Issue(userID, userID+"@example.com", time.Hour)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, expected %d", resp.StatusCode, status)
	}
	var body errorBody
	decodeBody(t, resp, &body)
	if body.Error.Code != code {
		t.Errorf("error code = %q, expected %q", body.Error.Code, code)
	}
	if body.Error.Message == "" {
		t.Error("error message should not be empty")
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := setupServer(t, 0, fakeHealth{})

	for _, path := range []string{"/healthz", "/readyz"} {
		resp := s.do(t, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, expected 200", path, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-Id") == "" {
			t.Errorf("GET %s missing X-Request-Id", path)
		}
	}

	down := setupServer(t, 0, fakeHealth{err: errors.New("connection refused")})
	expectError(t, down.do(t, http.MethodGet, "/readyz", "", nil), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
}

func TestAuthRequired(t *testing.T) {
	s := setupServer(t, 0, nil)

	expectError(t, s.do(t, http.MethodGet, "/v1/journey", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")

	req, _ := http.NewRequest(http.MethodGet, s.server.URL+"/v1/journey", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	expectError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestCheckInAndJourney(t *testing.T) {
	s := setupServer(t, 0, nil)

	resp := s.do(t, http.MethodPost, "/v1/checkin", "user-1", checkInRequest{Mood: "calm", LocationID: "cafe"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /v1/checkin status = %d, expected 200", resp.StatusCode)
	}
	var result checkin.Result
	decodeBody(t, resp, &result)
	if result.CurrentStreak != 1 || result.TotalCheckIns != 1 {
		t.Errorf("check-in result = %+v", result)
	}
	if result.CheckInID == "" {
		t.Error("check-in id should be set")
	}

	resp = s.do(t, http.MethodGet, "/v1/journey", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/journey status = %d, expected 200", resp.StatusCode)
	}
	var journey checkin.Journey
	decodeBody(t, resp, &journey)
	if journey.TotalCheckIns != 1 || journey.CurrentStreak != 1 {
		t.Errorf("journey = %+v", journey)
	}

	resp = s.do(t, http.MethodGet, "/v1/me/export", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/me/export status = %d, expected 200", resp.StatusCode)
	}
	var export checkin.Export
	decodeBody(t, resp, &export)
	if len(export.CheckIns) != 1 {
		t.Errorf("exported %d check-ins, expected 1", len(export.CheckIns))
	}
}

func TestCheckIn_Errors(t *testing.T) {
	s := setupServer(t, 0, nil)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"invalid mood", checkInRequest{Mood: "furious"}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"unknown location", checkInRequest{LocationID: "nowhere"}, http.StatusNotFound, "NOT_FOUND"},
		{"malformed body", "not an object", http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, s.do(t, http.MethodPost, "/v1/checkin", "user-1", tt.body), tt.status, tt.code)
		})
	}
}

func TestCheckIn_RateLimited(t *testing.T) {
	s := setupServer(t, 1, nil)

	resp := s.do(t, http.MethodPost, "/v1/checkin", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first check-in status = %d, expected 200", resp.StatusCode)
	}

	expectError(t, s.do(t, http.MethodPost, "/v1/checkin", "user-1", nil), http.StatusTooManyRequests, "RATE_LIMITED")

	resp = s.do(t, http.MethodPost, "/v1/checkin", "user-2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("other user check-in status = %d, expected 200", resp.StatusCode)
	}
}

func TestCoffeeVoucherFlow(t *testing.T) {
	s := setupServer(t, 0, nil)

	resp := s.do(t, http.MethodPost, "/v1/vouchers/coffee", "sponsor", coffeeVoucherRequest{
		Amount:      6,
		RecipientID: "friend",
		Message:     "You've got this",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /v1/vouchers/coffee status = %d, expected 201", resp.StatusCode)
	}
	var created struct {
		Voucher  service.Reward `json:"voucher"`
		DeepLink string         `json:"deepLink"`
	}
	decodeBody(t, resp, &created)
	if created.Voucher.QRCode == "" || created.DeepLink != voucher.DeepLink(created.Voucher.QRCode) {
		t.Fatalf("created voucher = %+v, deepLink %q", created.Voucher, created.DeepLink)
	}

	resp = s.do(t, http.MethodGet, "/v1/rewards/available", "friend", nil)
	var available struct {
		Rewards []*service.Reward `json:"rewards"`
	}
	decodeBody(t, resp, &available)
	if len(available.Rewards) != 1 || available.Rewards[0].ID != created.Voucher.ID {
		t.Fatalf("available rewards = %+v", available.Rewards)
	}

	resp = s.do(t, http.MethodGet, "/v1/rewards/"+created.Voucher.ID+"/qr.png", "friend", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("GET qr.png status = %d, content type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	expectError(t, s.do(t, http.MethodGet, "/v1/rewards/"+created.Voucher.ID+"/qr.png", "stranger", nil), http.StatusNotFound, "NOT_FOUND")

	resp = s.do(t, http.MethodPost, "/v1/rewards/qr/validate", "barista", qrRequest{QRCode: created.Voucher.QRCode})
	var validation reward.QRValidation
	decodeBody(t, resp, &validation)
	if !validation.Valid || validation.Reward == nil || validation.Reward.ID != created.Voucher.ID {
		t.Errorf("validation = %+v", validation)
	}

	resp = s.do(t, http.MethodPost, "/v1/rewards/qr/redeem", "friend", qrRequest{QRCode: created.Voucher.QRCode, LocationID: "cafe"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /v1/rewards/qr/redeem status = %d, expected 200", resp.StatusCode)
	}
	var redemption reward.Redemption
	decodeBody(t, resp, &redemption)
	if redemption.Value != 6 || redemption.Message != "You've got this" {
		t.Errorf("redemption = %+v", redemption)
	}

	expectError(t, s.do(t, http.MethodPost, "/v1/rewards/qr/redeem", "friend", qrRequest{QRCode: created.Voucher.QRCode}), http.StatusConflict, "CONFLICT")

	resp = s.do(t, http.MethodGet, "/v1/rewards/history?page=1&limit=5", "friend", nil)
	var history reward.HistoryPage
	decodeBody(t, resp, &history)
	if len(history.Rewards) != 1 || !history.Rewards[0].Redeemed {
		t.Errorf("history = %+v", history.Rewards)
	}
	if history.Pagination.Limit != 5 {
		t.Errorf("pagination = %+v", history.Pagination)
	}
}

func TestRewardEndpoints_Errors(t *testing.T) {
	s := setupServer(t, 0, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"coffee amount too low", http.MethodPost, "/v1/vouchers/coffee", coffeeVoucherRequest{Amount: 1}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"redeem unknown reward", http.MethodPost, "/v1/rewards/missing/redeem", nil, http.StatusNotFound, "NOT_FOUND"},
		{"validate without code", http.MethodPost, "/v1/rewards/qr/validate", qrRequest{}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"redeem tampered code", http.MethodPost, "/v1/rewards/qr/redeem", qrRequest{QRCode: "Zm9v"}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"history bad page", http.MethodGet, "/v1/rewards/history?page=abc", nil, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, s.do(t, tt.method, tt.path, "user-1", tt.body), tt.status, tt.code)
		})
	}
}

func TestValidateQR_Garbage(t *testing.T) {
	s := setupServer(t, 0, nil)

	resp := s.do(t, http.MethodPost, "/v1/rewards/qr/validate", "user-1", qrRequest{QRCode: "garbage"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected 200", resp.StatusCode)
	}
	var validation reward.QRValidation
	decodeBody(t, resp, &validation)
	if validation.Valid || validation.Reward != nil {
		t.Errorf("validation = %+v, expected invalid", validation)
	}
}

func TestLocationEndpoints(t *testing.T) {
	s := setupServer(t, 0, nil)

	resp := s.do(t, http.MethodGet, "/v1/locations/nearby?lat=51.5074&lng=-0.1278&type=gym", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("nearby status = %d, expected 200", resp.StatusCode)
	}
	var nearby struct {
		Locations []location.NearbyLocation `json:"locations"`
		Total     int                       `json:"total"`
	}
	decodeBody(t, resp, &nearby)
	if nearby.Total != 1 || nearby.Locations[0].ID != "gym" {
		t.Errorf("nearby = %+v", nearby)
	}

	expectError(t, s.do(t, http.MethodGet, "/v1/locations/nearby?lat=51.5", "user-1", nil), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	expectError(t, s.do(t, http.MethodGet, "/v1/locations/nearby?lat=95&lng=0", "user-1", nil), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	expectError(t, s.do(t, http.MethodGet, "/v1/locations/nowhere", "user-1", nil), http.StatusNotFound, "NOT_FOUND")

	resp = s.do(t, http.MethodGet, "/v1/locations/cafe", "user-1", nil)
	var loc service.Location
	decodeBody(t, resp, &loc)
	if loc.Name != "Peaceful Grounds Café" {
		t.Errorf("location = %+v", loc)
	}

	resp = s.do(t, http.MethodPost, "/v1/locations/cafe/reviews", "user-1", reviewRequest{Rating: 5, Title: "Lovely", Content: "<b>Quiet</b> and kind<script>x</script>"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add review status = %d, expected 201", resp.StatusCode)
	}
	var added struct {
		Review   service.Review   `json:"review"`
		Location service.Location `json:"location"`
	}
	decodeBody(t, resp, &added)
	if added.Location.ReviewCount != 1 {
		t.Errorf("ReviewCount = %d, expected 1", added.Location.ReviewCount)
	}

	expectError(t, s.do(t, http.MethodPost, "/v1/locations/cafe/reviews", "user-1", reviewRequest{Rating: 6, Content: "x"}), http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	resp = s.do(t, http.MethodGet, "/v1/locations/cafe/reviews", "user-2", nil)
	var reviews location.ReviewPage
	decodeBody(t, resp, &reviews)
	if len(reviews.Reviews) != 1 || reviews.Pagination.Total != 1 {
		t.Errorf("reviews = %+v", reviews)
	}
}

func TestUserRateLimiter(t *testing.T) {
	now := testNow
	l := NewUserRateLimiter(2, time.Minute, 5*time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Error("third call inside the window should be rejected")
	}
	if !l.Allow("b") {
		t.Error("limits should be per user")
	}

	now = now.Add(30 * time.Second)
	if !l.Allow("a") {
		t.Error("a token should refill after half the window")
	}

	now = now.Add(10 * time.Minute)
	l.Allow("c")
	if l.Len() != 1 {
		t.Errorf("Len() = %d, expected idle users pruned", l.Len())
	}
}
