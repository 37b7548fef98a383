package reward

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nightchill/checkin-service/pkg/apperr"
	"github.com/nightchill/checkin-service/pkg/metrics"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/nightchill/checkin-service/pkg/state"
	"github.com/nightchill/checkin-service/pkg/voucher"
	"github.com/sirupsen/logrus"
)

const (
	channelDirect = "direct"
	channelQR     = "qr"

	anonymousCoffeeMessage = "A kind stranger bought you coffee!"
	defaultRedeemMessage   = "Reward redeemed successfully!"

	maxMessageLength = 280
)

// Clock returns the current time
type Clock func() time.Time

// Config tunes reward lifetimes and coffee voucher bounds
type Config struct {
	DefaultVoucherExpiry time.Duration
	CoffeeVoucherExpiry  time.Duration
	CoffeeMinAmount      float64
	CoffeeMaxAmount      float64
	CoffeeRedeemPoints   int
	SweepBatchSize       int
}

// DefaultConfig returns the production reward settings
func DefaultConfig() Config {
	return Config{
		DefaultVoucherExpiry: 30 * 24 * time.Hour,
		CoffeeVoucherExpiry:  48 * time.Hour,
		CoffeeMinAmount:      5,
		CoffeeMaxAmount:      50,
		CoffeeRedeemPoints:   10,
		SweepBatchSize:       100,
	}
}

// RedemptionEvent describes a committed redemption
type RedemptionEvent struct {
	Reward     *service.Reward
	UserID     string
	LocationID string
	Channel    string
}

// RedemptionListener is notified after a redemption has been committed
type RedemptionListener interface {
	RewardRedeemed(ctx context.Context, event *RedemptionEvent)
}

// Engine issues, validates and redeems rewards and awards milestone badges.
type Engine struct {
	rewards  service.RewardStore
	users    service.UserStore
	signer   *voucher.Signer
	cfg      Config
	now      Clock
	listener RedemptionListener
}

// NewEngine creates a reward engine. A nil clock uses time.Now.
func NewEngine(rewards service.RewardStore, users service.UserStore, signer *voucher.Signer, cfg Config, now Clock) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		rewards: rewards,
		users:   users,
		signer:  signer,
		cfg:     cfg,
		now:     now,
	}
}

// SetListener registers the redemption listener. Not safe to call concurrently with redemptions.
func (e *Engine) SetListener(l RedemptionListener) {
	e.listener = l
}

// CoffeeVoucherRequest describes a sponsored coffee
type CoffeeVoucherRequest struct {
	SponsorID   string
	RecipientID string
	Amount      float64
	Anonymous   bool
	Message     string
	LocationID  string
}

// Redemption is the outcome of redeeming a voucher by QR token
type Redemption struct {
	Reward  *service.Reward `json:"reward"`
	Value   float64         `json:"value"`
	Message string          `json:"message"`
}

// RewardSummary is the public view of a reward on QR validation
type RewardSummary struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// QRValidation is the result of checking a QR token without redeeming it
type QRValidation struct {
	Valid  bool           `json:"valid"`
	Reward *RewardSummary `json:"reward,omitempty"`
}

// HistoryPage is a page of a user's reward history
type HistoryPage struct {
	Rewards    []*service.Reward  `json:"rewards"`
	Pagination service.Pagination `json:"pagination"`
}

// Issue creates a reward. Voucher types get a signed QR token and an expiry.
func (e *Engine) Issue(ctx context.Context, req service.IssueRequest) (*service.Reward, error) {
	if req.Type != service.RewardTypeBadge && !service.IsVoucherType(req.Type) {
		return nil, apperr.Validation("unknown reward type %q", req.Type)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Validation("reward title is required")
	}
	if req.Value < 0 {
		return nil, apperr.Validation("reward value must not be negative")
	}

	now := e.now().UTC()
	reward := &service.Reward{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Value:       req.Value,
		SponsorID:   req.SponsorID,
		Anonymous:   req.Anonymous,
		Message:     req.Message,
		Status:      service.RewardStatusActive,
		EarnedAt:    now,
	}

	if service.IsVoucherType(req.Type) {
		expiry := req.Expiry
		if expiry <= 0 {
			expiry = e.cfg.DefaultVoucherExpiry
		}
		if err := e.attachToken(reward, now.Add(expiry)); err != nil {
			return nil, err
		}
	}

	if err := e.rewards.CreateReward(ctx, reward); err != nil {
		return nil, err
	}

	metrics.RewardsIssuedTotal.WithLabelValues(reward.Type).Inc()
	logrus.Infof("issued %s reward %s to user %q", reward.Type, reward.ID, reward.UserID)
	return reward, nil
}

// CreateCoffeeVoucher issues a sponsored coffee voucher. Without a recipient
// the voucher is a bearer voucher claimed by whoever redeems it.
func (e *Engine) CreateCoffeeVoucher(ctx context.Context, req CoffeeVoucherRequest) (*service.Reward, error) {
	if req.SponsorID == "" {
		return nil, apperr.Unauthorized("sponsor is required")
	}
	if req.Amount < e.cfg.CoffeeMinAmount || req.Amount > e.cfg.CoffeeMaxAmount {
		return nil, apperr.Validation("amount must be between $%g and $%g", e.cfg.CoffeeMinAmount, e.cfg.CoffeeMaxAmount)
	}
	if len([]rune(req.Message)) > maxMessageLength {
		return nil, apperr.Validation("message must be at most %d characters", maxMessageLength)
	}
	if req.RecipientID != "" && req.RecipientID == req.SponsorID {
		return nil, apperr.Validation("sponsor and recipient must differ")
	}

	now := e.now().UTC()
	reward := &service.Reward{
		ID:          uuid.NewString(),
		UserID:      req.RecipientID,
		Type:        service.RewardTypeCoffee,
		Title:       "Free coffee",
		Description: "A coffee sponsored by the community",
		Icon:        "☕",
		Value:       req.Amount,
		SponsorID:   req.SponsorID,
		Anonymous:   req.Anonymous,
		Message:     req.Message,
		LocationID:  req.LocationID,
		Status:      service.RewardStatusActive,
		EarnedAt:    now,
	}
	if err := e.attachToken(reward, now.Add(e.cfg.CoffeeVoucherExpiry)); err != nil {
		return nil, err
	}

	if err := e.rewards.CreateReward(ctx, reward); err != nil {
		return nil, err
	}

	if err := e.users.IncrementCounters(ctx, req.SponsorID, service.CounterDelta{CoffeesGiven: 1}); err != nil {
		logrus.Errorf("coffee voucher %s created but sponsor stats not updated: %v", reward.ID, err)
	}

	metrics.RewardsIssuedTotal.WithLabelValues(reward.Type).Inc()
	logrus.Infof("sponsor %s created coffee voucher %s (amount=%.2f)", req.SponsorID, reward.ID, req.Amount)
	return reward, nil
}

// Redeem redeems a reward owned by userID
func (e *Engine) Redeem(ctx context.Context, rewardID, userID, locationID string) (*service.Reward, error) {
	return e.redeem(ctx, rewardID, userID, locationID, false, channelDirect)
}

// RedeemByQR verifies a voucher token and redeems the voucher it names.
func (e *Engine) RedeemByQR(ctx context.Context, token, userID, locationID string) (*Redemption, error) {
	payload, err := e.signer.Decode(token)
	if err != nil {
		return nil, err
	}
	if e.now().UnixMilli() > payload.ExpiresAt {
		return nil, apperr.Expired("voucher has expired")
	}

	reward, err := e.redeem(ctx, payload.VoucherID, userID, locationID, true, channelQR)
	if err != nil {
		return nil, err
	}

	message := defaultRedeemMessage
	switch {
	case reward.Type == service.RewardTypeCoffee && reward.Anonymous:
		message = anonymousCoffeeMessage
	case reward.Message != "":
		message = reward.Message
	}

	return &Redemption{
		Reward:  reward,
		Value:   reward.Value,
		Message: message,
	}, nil
}

// QRCode returns the signed token of a voucher owned by userID. Badges have none.
func (e *Engine) QRCode(ctx context.Context, rewardID, userID string) (string, error) {
	reward, err := e.rewards.GetReward(ctx, rewardID)
	if service.IsNotFound(err) || (err == nil && reward.UserID != userID) {
		return "", apperr.NotFound("reward not found")
	}
	if err != nil {
		return "", err
	}
	if reward.QRCode == "" {
		return "", apperr.NotFound("reward has no QR code")
	}
	return reward.QRCode, nil
}

// ValidateQR reports whether a token names a redeemable reward. Bad
// signatures, unknown rewards and redeemed rewards are indistinguishable.
func (e *Engine) ValidateQR(ctx context.Context, token string) (*QRValidation, error) {
	payload, err := e.signer.Decode(token)
	if err != nil {
		return &QRValidation{Valid: false}, nil
	}

	reward, err := e.rewards.GetReward(ctx, payload.VoucherID)
	if service.IsNotFound(err) {
		return &QRValidation{Valid: false}, nil
	}
	if err != nil {
		return nil, err
	}
	if reward.Redeemed || reward.Status == service.RewardStatusRedeemed {
		return &QRValidation{Valid: false}, nil
	}

	return &QRValidation{
		Valid: true,
		Reward: &RewardSummary{
			ID:    reward.ID,
			Type:  reward.Type,
			Title: reward.Title,
		},
	}, nil
}

// ListAvailable returns the user's unredeemed, unexpired rewards
func (e *Engine) ListAvailable(ctx context.Context, userID string) ([]*service.Reward, error) {
	all, err := e.rewards.ListRewardsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	available := make([]*service.Reward, 0, len(all))
	for _, r := range all {
		if r.Redeemed || r.Status == service.RewardStatusExpired {
			continue
		}
		if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
			continue
		}
		available = append(available, r)
	}
	return available, nil
}

// History returns a page of all the user's rewards, newest first
func (e *Engine) History(ctx context.Context, userID string, page, limit int) (*HistoryPage, error) {
	all, err := e.rewards.ListRewardsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := service.NewPagination(page, limit, len(all), 20, 100)
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}

	return &HistoryPage{
		Rewards:    all[start:end],
		Pagination: p,
	}, nil
}

// CheckMilestones awards a badge for every reached milestone the user does
// not yet hold and returns the badges created by this call.
func (e *Engine) CheckMilestones(ctx context.Context, userID string, currentStreak, totalCheckIns int) ([]*service.Reward, error) {
	reached := state.ReachedMilestones(currentStreak, totalCheckIns)
	if len(reached) == 0 {
		return []*service.Reward{}, nil
	}

	heldIDs, err := e.rewards.ListMilestones(ctx, userID)
	if err != nil {
		return nil, err
	}
	held := make(map[string]bool, len(heldIDs))
	for _, id := range heldIDs {
		held[id] = true
	}

	now := e.now().UTC()
	awarded := make([]*service.Reward, 0)
	for _, m := range reached {
		if held[m.ID] {
			continue
		}

		badge := &service.Reward{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        service.RewardTypeBadge,
			Title:       m.Name,
			Description: fmt.Sprintf("Milestone unlocked: %s", m.Name),
			Icon:        m.Icon,
			MilestoneID: m.ID,
			Status:      service.RewardStatusActive,
			EarnedAt:    now,
		}

		created, err := e.rewards.AwardMilestone(ctx, userID, m.ID, badge)
		if err != nil {
			return awarded, err
		}
		if created {
			metrics.MilestonesAwardedTotal.WithLabelValues(m.ID).Inc()
			awarded = append(awarded, badge)
		}
	}
	return awarded, nil
}

var errSkipSweep = errors.New("voucher no longer eligible for expiry")

// SweepExpired moves active vouchers past their deadline to expired and
// returns how many were transitioned. Redeemed vouchers are never touched.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	now := e.now()
	swept := 0

	for {
		ids, err := e.rewards.ListExpiringVouchers(ctx, now, e.cfg.SweepBatchSize)
		if err != nil {
			return swept, err
		}

		progress, dropped := 0, 0
		for _, id := range ids {
			_, err := e.rewards.UpdateReward(ctx, id, func(r *service.Reward) error {
				if r.Redeemed || r.Status != service.RewardStatusActive || !r.ExpiredAt(now) {
					return errSkipSweep
				}
				r.Status = service.RewardStatusExpired
				return nil
			})
			switch {
			case err == nil:
				progress++
			case service.IsNotFound(err):
				// index entry without a document
				if err := e.rewards.DropExpiringVoucher(ctx, id); err != nil {
					return swept + progress, err
				}
				dropped++
			case errors.Is(err, errSkipSweep):
				logrus.Debugf("sweep skipped voucher %s: %v", id, err)
			default:
				return swept + progress, err
			}
		}
		swept += progress

		if len(ids) < e.cfg.SweepBatchSize || progress+dropped == 0 {
			break
		}
	}

	if swept > 0 {
		metrics.VouchersExpiredTotal.Add(float64(swept))
		logrus.Infof("expired %d vouchers", swept)
	}
	return swept, nil
}

// Revoke marks an active reward expired. Redeemed rewards cannot be revoked.
func (e *Engine) Revoke(ctx context.Context, rewardID string) error {
	_, err := e.rewards.UpdateReward(ctx, rewardID, func(r *service.Reward) error {
		if r.Redeemed {
			return apperr.Conflict("reward has already been redeemed")
		}
		r.Status = service.RewardStatusExpired
		return nil
	})
	if service.IsNotFound(err) {
		return apperr.NotFound("reward not found")
	}
	return err
}

func (e *Engine) redeem(ctx context.Context, rewardID, userID, locationID string, claimBearer bool, channel string) (*service.Reward, error) {
	now := e.now().UTC()
	var expired bool

	reward, err := e.rewards.UpdateReward(ctx, rewardID, func(r *service.Reward) error {
		expired = false

		owned := r.UserID == userID || (claimBearer && r.UserID == "")
		if !owned {
			return apperr.NotFound("reward not found")
		}
		if r.Type == service.RewardTypeBadge {
			return apperr.Validation("badges cannot be redeemed")
		}
		if r.Redeemed || r.Status == service.RewardStatusRedeemed {
			return apperr.Conflict("reward has already been redeemed")
		}
		if r.Status == service.RewardStatusExpired || r.ExpiredAt(now) {
			// persist the transition even though the redemption fails
			r.Status = service.RewardStatusExpired
			expired = true
			return nil
		}

		if r.UserID == "" {
			r.UserID = userID
		}
		r.Redeemed = true
		r.Status = service.RewardStatusRedeemed
		r.RedeemedAt = &now
		r.RedeemedLocationID = locationID
		r.RedeemedBy = userID
		return nil
	})
	if service.IsNotFound(err) {
		return nil, apperr.NotFound("reward not found")
	}
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apperr.Expired("reward has expired")
	}

	if reward.Type == service.RewardTypeCoffee {
		delta := service.CounterDelta{CoffeesReceived: 1, TotalPoints: e.cfg.CoffeeRedeemPoints}
		if err := e.users.IncrementCounters(ctx, userID, delta); err != nil {
			logrus.Errorf("coffee voucher %s redeemed but recipient stats not updated: %v", reward.ID, err)
		}
	}

	metrics.RewardsRedeemedTotal.WithLabelValues(reward.Type, channel).Inc()
	logrus.Infof("user %s redeemed %s reward %s via %s", userID, reward.Type, reward.ID, channel)

	if e.listener != nil {
		e.listener.RewardRedeemed(ctx, &RedemptionEvent{
			Reward:     reward,
			UserID:     userID,
			LocationID: locationID,
			Channel:    channel,
		})
	}
	return reward, nil
}

func (e *Engine) attachToken(reward *service.Reward, expiresAt time.Time) error {
	reward.ExpiresAt = &expiresAt

	token, _, err := e.signer.Encode(voucher.Payload{
		VoucherID: reward.ID,
		SponsorID: reward.SponsorID,
		Amount:    reward.Value,
		IssuedAt:  reward.EarnedAt.UnixMilli(),
		ExpiresAt: expiresAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to sign voucher: %w", err)
	}
	reward.QRCode = token
	return nil
}
