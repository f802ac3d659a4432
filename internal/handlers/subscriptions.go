package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/middleware"
	"github.com/quartierboard/board-api/internal/store"
	"github.com/quartierboard/board-api/internal/validation"
)

type SubscribeRequest struct {
	Device   string `json:"device"`
	PlayerID string `json:"playerID"`
}

type SubscriptionStatusResponse struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message,omitempty"`
	Subscription *domain.Subscription `json:"subscription,omitempty"`
}

// CheckSubscription reports whether the caller subscribed to the info on
// the given device.
func (h *Handlers) CheckSubscription(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}
	device := chi.URLParam(r, "device")

	sub, err := h.Subs.Get(r.Context(), id, claims.UserID, device)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSON(w, http.StatusOK, SubscriptionStatusResponse{
				Success: false,
				Message: "Not subscribed",
			})
			return
		}
		respondStoreError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, SubscriptionStatusResponse{
		Success:      true,
		Subscription: sub,
	})
}

// Subscribe registers the caller's device for push notifications on the
// info; one subscription per (info, user, device).
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	sub := &domain.Subscription{
		InfoID:    id,
		UserID:    claims.UserID,
		Device:    validation.SanitizeString(req.Device),
		PlayerID:  validation.SanitizeString(req.PlayerID),
		CreatedAt: h.now().UTC(),
	}
	if sub.Device == "" || sub.PlayerID == "" {
		respondMessage(w, http.StatusBadRequest, false, "Device and playerID are required")
		return
	}

	if err := h.Subs.Insert(r.Context(), sub); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondMessage(w, http.StatusBadRequest, false, "You already subscribed to this info")
			return
		}
		respondStoreError(w, err, "")
		return
	}
	respondMessage(w, http.StatusOK, true, "Subscription validated")
}

// Unsubscribe removes the caller's subscription for one device.
func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}
	device := chi.URLParam(r, "device")

	if err := h.Subs.Delete(r.Context(), id, claims.UserID, device); err != nil {
		respondStoreError(w, err, "No subscription found")
		return
	}
	respondMessage(w, http.StatusOK, true, "Unsubscribed")
}
