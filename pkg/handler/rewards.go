package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nightchill/checkin-service/pkg/apperr"
	"github.com/nightchill/checkin-service/pkg/auth"
	"github.com/nightchill/checkin-service/pkg/reward"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/nightchill/checkin-service/pkg/voucher"
)

type redeemRequest struct {
	LocationID string `json:"locationId"`
}

type qrRequest struct {
	QRCode     string `json:"qrCode"`
	LocationID string `json:"locationId"`
}

type coffeeVoucherRequest struct {
	Amount      float64 `json:"amount"`
	RecipientID string  `json:"recipientId"`
	Anonymous   bool    `json:"anonymous"`
	Message     string  `json:"message"`
	LocationID  string  `json:"locationId"`
}

func (h *Handler) availableRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewards.ListAvailable(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if rewards == nil {
		rewards = []*service.Reward{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rewards": rewards})
}

func (h *Handler) rewardHistory(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	history, err := h.rewards.History(r.Context(), auth.UserID(r.Context()), page, limit)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) redeemReward(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}

	redeemed, err := h.rewards.Redeem(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), req.LocationID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Reward redeemed successfully",
		"reward":  redeemed,
	})
}

func (h *Handler) validateQR(w http.ResponseWriter, r *http.Request) {
	var req qrRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if req.QRCode == "" {
		writeAppError(w, r, apperr.Validation("qrCode is required"))
		return
	}

	validation, err := h.rewards.ValidateQR(r.Context(), req.QRCode)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validation)
}

func (h *Handler) redeemQR(w http.ResponseWriter, r *http.Request) {
	var req qrRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if req.QRCode == "" {
		writeAppError(w, r, apperr.Validation("qrCode is required"))
		return
	}

	redemption, err := h.rewards.RedeemByQR(r.Context(), req.QRCode, auth.UserID(r.Context()), req.LocationID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redemption)
}

func (h *Handler) rewardQRCode(w http.ResponseWriter, r *http.Request) {
	token, err := h.rewards.QRCode(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	png, err := voucher.RenderPNG(token)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) createCoffeeVoucher(w http.ResponseWriter, r *http.Request) {
	var req coffeeVoucherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}

	created, err := h.rewards.CreateCoffeeVoucher(r.Context(), reward.CoffeeVoucherRequest{
		SponsorID:   auth.UserID(r.Context()),
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
		Anonymous:   req.Anonymous,
		Message:     req.Message,
		LocationID:  req.LocationID,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Coffee voucher created",
		"voucher":  created,
		"deepLink": voucher.DeepLink(created.QRCode),
	})
}
