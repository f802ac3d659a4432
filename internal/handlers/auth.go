package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/logger"
	"github.com/quartierboard/board-api/internal/middleware"
	"github.com/quartierboard/board-api/internal/store"
	"github.com/quartierboard/board-api/internal/validation"
	"github.com/quartierboard/board-api/pkg/utils"
)

type RegisterRequest struct {
	Username           string `json:"username"`
	Mail               string `json:"mail"`
	Password           string `json:"password"`
	IsEmailVisible     any    `json:"isEmailVisible"`
	GRecaptchaResponse string `json:"gRecaptchaResponse"`
}

type LoginRequest struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	GRecaptchaResponse string `json:"gRecaptchaResponse"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	IDUser  string `json:"idUser,omitempty"`
}

// Register creates an account. Username, mail and password formats are
// checked first; the captcha token must verify before anything is
// persisted.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if !validation.IsUsernameValid(req.Username) ||
		!validation.IsMailValid(req.Mail) ||
		!validation.IsPasswordValid(req.Password) {
		respondMessage(w, http.StatusBadRequest, false, "Bad request, invalid inputs")
		return
	}

	if req.GRecaptchaResponse == "" {
		respondMessage(w, http.StatusBadRequest, false, "No captcha found")
		return
	}
	if err := h.Captcha.Verify(r.Context(), req.GRecaptchaResponse, middleware.ClientIP(r)); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Captcha verification failed")
		return
	}

	username := validation.SanitizeString(req.Username)
	mail := validation.SanitizeString(req.Mail)

	if _, err := h.Users.ByUsername(r.Context(), username); err == nil {
		respondMessage(w, http.StatusBadRequest, false, "Username already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondStoreError(w, err, "")
		return
	}
	if _, err := h.Users.ByMail(r.Context(), mail); err == nil {
		respondMessage(w, http.StatusBadRequest, false, "Mail already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondStoreError(w, err, "")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "Internal server error")
		return
	}

	user := &domain.User{
		Username:       username,
		Password:       hash,
		Mail:           mail,
		IsEmailVisible: validation.CheckBoolean(req.IsEmailVisible),
		CreatedAt:      h.now().UTC(),
	}
	if err := h.Users.Insert(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondMessage(w, http.StatusBadRequest, false, "Username or mail already exists")
			return
		}
		respondStoreError(w, err, "")
		return
	}

	respondMessage(w, http.StatusOK, true, "Successfully registered")
}

// Login verifies the captcha and password, mints the session token and
// sets the http-only cookie. A request that already carries a cookie is
// confirmed without re-issuing a token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if !validation.IsUsernameValid(req.Username) || !validation.IsPasswordValid(req.Password) {
		respondMessage(w, http.StatusBadRequest, false, "Bad request, invalid inputs")
		return
	}

	if req.GRecaptchaResponse == "" {
		respondMessage(w, http.StatusBadRequest, false, "No captcha found")
		return
	}
	if err := h.Captcha.Verify(r.Context(), req.GRecaptchaResponse, middleware.ClientIP(r)); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Captcha verification failed")
		return
	}

	user, err := h.Users.ByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondMessage(w, http.StatusBadRequest, false, "User not found")
			return
		}
		respondStoreError(w, err, "")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !valid {
		respondMessage(w, http.StatusBadRequest, false, "Wrong password")
		return
	}

	// An existing cookie keeps its token; the client is simply confirmed.
	if _, err := r.Cookie(middleware.CookieName); err == nil {
		respondJSON(w, http.StatusOK, LoginResponse{
			Success: true,
			Message: "User connected",
			IDUser:  user.ID.Hex(),
		})
		return
	}

	tokenStr, err := h.Tokens.NewToken(user)
	if err != nil {
		logger.Log.Errorw("failed to mint session token", "error", err)
		respondMessage(w, http.StatusInternalServerError, false, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    tokenStr,
		Path:     "/",
		Domain:   h.Cfg.CookieDomain,
		MaxAge:   int(h.Tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.Cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Message: "User connected",
		IDUser:  user.ID.Hex(),
	})
}

// Disconnect clears the session cookie.
func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.Cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	respondMessage(w, http.StatusOK, true, "Disconnected")
}
