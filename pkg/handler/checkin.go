package handler

import (
	"net/http"

	"github.com/nightchill/checkin-service/pkg/auth"
	"github.com/nightchill/checkin-service/pkg/checkin"
)

type checkInRequest struct {
	Mood       string `json:"mood"`
	Note       string `json:"note"`
	LocationID string `json:"locationId"`
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}

	result, err := h.checkIns.PerformCheckIn(r.Context(), checkin.Request{
		UserID:     auth.UserID(r.Context()),
		LocationID: req.LocationID,
		Mood:       req.Mood,
		Note:       req.Note,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) journey(w http.ResponseWriter, r *http.Request) {
	journey, err := h.checkIns.Journey(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, journey)
}

func (h *Handler) exportUserData(w http.ResponseWriter, r *http.Request) {
	export, err := h.checkIns.ExportUserData(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="nightchill-export.json"`)
	writeJSON(w, http.StatusOK, export)
}
