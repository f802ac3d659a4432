package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/logger"
	"github.com/quartierboard/board-api/internal/store"
)

// Envelope is the uniform response shape for mutating endpoints.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondMessage(w http.ResponseWriter, status int, success bool, message string) {
	respondJSON(w, status, Envelope{Success: success, Message: message})
}

// respondStoreError converts a persistence failure into a response.
// Internal failures are logged but never leak driver detail to clients.
func respondStoreError(w http.ResponseWriter, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondMessage(w, http.StatusNotFound, false, notFoundMessage)
	case errors.Is(err, store.ErrConflict):
		logger.Log.Warnw("aggregate mutation lost all retries", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "Concurrent update, please retry")
	default:
		logger.Log.Errorw("datastore error", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "Internal server error")
	}
}

// respondDomainError maps aggregate rule violations onto the error
// taxonomy: invalid input 400, ownership 403, missing entities 404,
// capacity/duplicate conflicts 409.
func respondDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, domain.ErrInvalidBirthdate):
		respondMessage(w, http.StatusBadRequest, false, "Invalid birthdate")
	case errors.Is(err, domain.ErrInvalidExpirydate):
		respondMessage(w, http.StatusBadRequest, false, "Invalid expirydate")
	case errors.Is(err, domain.ErrInvalidVoteValue):
		respondMessage(w, http.StatusBadRequest, false, "Bad request")
	case errors.Is(err, domain.ErrCommentsDisabled):
		respondMessage(w, http.StatusBadRequest, false, "The info doesn't accept comments")
	case errors.Is(err, domain.ErrNotAnEvent):
		respondMessage(w, http.StatusNotFound, false, "No event found")
	case errors.Is(err, domain.ErrEventFull):
		respondMessage(w, http.StatusConflict, false, "Event is full")
	case errors.Is(err, domain.ErrAlreadyJoined):
		respondMessage(w, http.StatusConflict, false, "User already in the event")
	case errors.Is(err, domain.ErrNotJoined):
		respondMessage(w, http.StatusNotFound, false, "User not found in the event")
	case errors.Is(err, domain.ErrCommentNotFound):
		respondMessage(w, http.StatusNotFound, false, "Comment not found")
	case errors.Is(err, domain.ErrNotCommentAuthor):
		respondMessage(w, http.StatusForbidden, false, "Permission denied: you are not the owner")
	default:
		return false
	}
	return true
}
