package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nightchill/checkin-service/pkg/apperr"
	"github.com/nightchill/checkin-service/pkg/auth"
	"github.com/nightchill/checkin-service/pkg/location"
)

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) nearbyLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lng") == "" {
		writeAppError(w, r, apperr.Validation("lat and lng are required"))
		return
	}

	var query location.NearbyQuery
	var err error
	if query.Latitude, err = queryFloat(r, "lat"); err != nil {
		writeAppError(w, r, err)
		return
	}
	if query.Longitude, err = queryFloat(r, "lng"); err != nil {
		writeAppError(w, r, err)
		return
	}
	if query.RadiusKm, err = queryFloat(r, "radius"); err != nil {
		writeAppError(w, r, err)
		return
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		writeAppError(w, r, err)
		return
	}
	query.Type = q.Get("type")
	query.AnxietyLevel = q.Get("anxietyLevel")
	if raw := q.Get("beginnerFriendly"); raw != "" {
		if query.BeginnerFriendly, err = strconv.ParseBool(raw); err != nil {
			writeAppError(w, r, apperr.Validation("beginnerFriendly must be a boolean"))
			return
		}
	}

	locations, err := h.locations.Nearby(r.Context(), query)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locations": locations,
		"total":     len(locations),
	})
}

func (h *Handler) getLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.locations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *Handler) locationReviews(w http.ResponseWriter, r *http.Request) {
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

	reviews, err := h.locations.Reviews(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}

	review, loc, err := h.locations.AddReview(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), req.Rating, req.Title, req.Content)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"review":   review,
		"location": loc,
	})
}
