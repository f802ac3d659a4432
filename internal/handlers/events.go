package handlers

import (
	"net/http"

	"github.com/quartierboard/board-api/internal/broadcast"
	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JoinEvent adds the caller to an event's member list, enforcing the
// capacity bound and membership uniqueness. The broadcast carries only
// the delta.
func (h *Handlers) JoinEvent(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}

	// The token could outlive the account; joins require a live user.
	callerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid userID")
		return
	}
	if _, err := h.Users.Get(r.Context(), callerID); err != nil {
		respondStoreError(w, err, "Unknown user")
		return
	}

	_, err = h.mutateInfo(r.Context(), id, func(info *domain.Info) error {
		return info.Join(claims.UserID, claims.Username)
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		respondStoreError(w, err, "No event found")
		return
	}

	h.Hub.Broadcast(r.Context(), broadcast.EventJoinEvent, map[string]any{
		"ID":       id.Hex(),
		"userID":   claims.UserID,
		"username": claims.Username,
	})
	respondMessage(w, http.StatusOK, true, "Event joined")
}

// LeaveEvent removes the caller from an event's member list.
func (h *Handlers) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}

	_, err := h.mutateInfo(r.Context(), id, func(info *domain.Info) error {
		return info.Leave(claims.UserID)
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		respondStoreError(w, err, "No event found")
		return
	}

	h.Hub.Broadcast(r.Context(), broadcast.EventLeaveEvent, map[string]any{
		"ID":     id.Hex(),
		"userID": claims.UserID,
	})
	respondMessage(w, http.StatusOK, true, "User removed from event")
}
