package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/logger"
	"github.com/quartierboard/board-api/internal/middleware"
	"github.com/quartierboard/board-api/internal/store"
	"github.com/quartierboard/board-api/internal/validation"
	"github.com/quartierboard/board-api/pkg/utils"
)

type UpdateProfileRequest struct {
	IsNewPwd       any    `json:"isNewPwd"`
	NewPassword    string `json:"newPassword"`
	IsNewEmail     any    `json:"isNewEmail"`
	NewMail        string `json:"newMail"`
	IsNewVisible   any    `json:"isNewVisible"`
	IsEmailVisible any    `json:"isEmailVisible"`
}

// GetUsers lists every user; mail addresses stay hidden unless the user
// opted into showing them.
func (h *Handlers) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.All(r.Context())
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Redacted())
	}
	respondJSON(w, http.StatusOK, out)
}

// GetUserByID returns one redacted user.
func (h *Handlers) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Bad request")
		return
	}
	user, err := h.Users.Get(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user.Redacted())
}

// GetUserByName returns one redacted user by username.
func (h *Handlers) GetUserByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !validation.IsUsernameValid(name) {
		respondMessage(w, http.StatusBadRequest, false, "Bad request")
		return
	}
	user, err := h.Users.ByUsername(r.Context(), validation.SanitizeString(name))
	if err != nil {
		respondStoreError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user.Redacted())
}

// MyProfile returns the caller's own record, mail included.
func (h *Handlers) MyProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid userID")
		return
	}
	user, err := h.Users.Get(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "ID error, sign in again please")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile changes password, mail and/or the mail-visibility flag,
// each gated by its own flag. A request changing nothing is a 400.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	changePwd := validation.CheckBoolean(req.IsNewPwd) && validation.IsPasswordValid(req.NewPassword)
	changeMail := validation.CheckBoolean(req.IsNewEmail) && validation.IsMailValid(req.NewMail)
	changeVisible := validation.CheckBoolean(req.IsNewVisible)

	if !changePwd && !changeMail && !changeVisible {
		respondMessage(w, http.StatusBadRequest, false, "Bad request, nothing to change")
		return
	}

	user, err := h.Users.ByUsername(r.Context(), claims.Username)
	if err != nil {
		respondStoreError(w, err, "User doesn't exist")
		return
	}

	if changeVisible {
		user.IsEmailVisible = validation.CheckBoolean(req.IsEmailVisible)
	}
	if changeMail {
		user.Mail = validation.SanitizeString(req.NewMail)
	}
	if changePwd {
		hash, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			logger.Log.Errorw("failed to hash password", "error", err)
			respondMessage(w, http.StatusInternalServerError, false, "Internal server error")
			return
		}
		user.Password = hash
	}

	if err := h.Users.Update(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondMessage(w, http.StatusBadRequest, false, "Mail already exists")
			return
		}
		respondStoreError(w, err, "User doesn't exist")
		return
	}
	respondMessage(w, http.StatusOK, true, "Successfully updated")
}

// DeleteAccount removes the caller's account and cascades to their own
// infos. Comments and votes they left on other users' infos survive.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid userID")
		return
	}

	if err := h.Users.Delete(r.Context(), id); err != nil {
		respondStoreError(w, err, "User not found")
		return
	}
	if err := h.Infos.DeleteByOwner(r.Context(), claims.UserID); err != nil {
		// Their subscriptions become orphans; the sweeper reclaims them.
		logger.Log.Errorw("failed to delete infos of deleted user", "userID", claims.UserID, "error", err)
	}
	respondMessage(w, http.StatusOK, true, "User deleted")
}
