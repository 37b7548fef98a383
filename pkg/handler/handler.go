package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/nightchill/checkin-service/pkg/auth"
	"github.com/nightchill/checkin-service/pkg/checkin"
	"github.com/nightchill/checkin-service/pkg/location"
	"github.com/nightchill/checkin-service/pkg/reward"
	"github.com/nightchill/checkin-service/pkg/service"
)

// CheckInService records check-ins and reports progress
type CheckInService interface {
	PerformCheckIn(ctx context.Context, req checkin.Request) (*checkin.Result, error)
	Journey(ctx context.Context, userID string) (*checkin.Journey, error)
	ExportUserData(ctx context.Context, userID string) (*checkin.Export, error)
}

// RewardService lists, issues and redeems rewards
type RewardService interface {
	ListAvailable(ctx context.Context, userID string) ([]*service.Reward, error)
	History(ctx context.Context, userID string, page, limit int) (*reward.HistoryPage, error)
	Redeem(ctx context.Context, rewardID, userID, locationID string) (*service.Reward, error)
	RedeemByQR(ctx context.Context, token, userID, locationID string) (*reward.Redemption, error)
	ValidateQR(ctx context.Context, token string) (*reward.QRValidation, error)
	QRCode(ctx context.Context, rewardID, userID string) (string, error)
	CreateCoffeeVoucher(ctx context.Context, req reward.CoffeeVoucherRequest) (*service.Reward, error)
}

// LocationService answers location queries and stores reviews
type LocationService interface {
	Nearby(ctx context.Context, q location.NearbyQuery) ([]location.NearbyLocation, error)
	Get(ctx context.Context, locationID string) (*service.Location, error)
	AddReview(ctx context.Context, userID, locationID string, rating int, title, content string) (*service.Review, *service.Location, error)
	Reviews(ctx context.Context, locationID string, page, limit int) (*location.ReviewPage, error)
}

// TokenVerifier turns a bearer token into claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// HealthChecker reports whether the primary store is reachable
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Config holds the HTTP API collaborators and tunables
type Config struct {
	CheckIns  CheckInService
	Rewards   RewardService
	Locations LocationService
	Verifier  TokenVerifier
	Health    HealthChecker

	// CheckInRatePerMinute limits check-in submissions per user. Zero disables the limit.
	CheckInRatePerMinute int
	AllowedOrigins       []string
}

// Handler serves the public HTTP API.
type Handler struct {
	checkIns  CheckInService
	rewards   RewardService
	locations LocationService
	verifier  TokenVerifier
	health    HealthChecker
	limiter   *UserRateLimiter
	origins   []string
}

// NewHandler creates the HTTP handler
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		checkIns:  cfg.CheckIns,
		rewards:   cfg.Rewards,
		locations: cfg.Locations,
		verifier:  cfg.Verifier,
		health:    cfg.Health,
		origins:   cfg.AllowedOrigins,
	}
	if cfg.CheckInRatePerMinute > 0 {
		h.limiter = NewUserRateLimiter(cfg.CheckInRatePerMinute, time.Minute, 10*time.Minute)
	}
	if len(h.origins) == 0 {
		h.origins = []string{"*"}
	}
	return h
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(h.authMiddleware)

		r.With(h.rateLimitMiddleware).Post("/checkin", h.checkIn)
		r.Get("/journey", h.journey)
		r.Get("/me/export", h.exportUserData)

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/available", h.availableRewards)
			r.Get("/history", h.rewardHistory)
			r.Post("/qr/validate", h.validateQR)
			r.Post("/qr/redeem", h.redeemQR)
			r.Post("/{id}/redeem", h.redeemReward)
			r.Get("/{id}/qr.png", h.rewardQRCode)
		})

		r.Post("/vouchers/coffee", h.createCoffeeVoucher)

		r.Route("/locations", func(r chi.Router) {
			r.Get("/nearby", h.nearbyLocations)
			r.Get("/{id}", h.getLocation)
			r.Get("/{id}/reviews", h.locationReviews)
			r.Post("/{id}/reviews", h.addReview)
		})
	})
	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "timestamp": time.Now().UTC()})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Check(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependencies unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ready", "timestamp": time.Now().UTC()})
}
