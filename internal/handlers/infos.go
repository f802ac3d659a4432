package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quartierboard/board-api/internal/broadcast"
	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/logger"
	"github.com/quartierboard/board-api/internal/middleware"
	"github.com/quartierboard/board-api/internal/validation"
)

type CreateInfoRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Birthdate      string `json:"birthdate"`
	Expirydate     string `json:"expirydate"`
	Category       string `json:"category"`
	Location       string `json:"location"`
	AddInfo        string `json:"addInfo"`
	AcceptComments any    `json:"acceptComments"`
	UserLimit      int    `json:"userLimit"`
	AcceptOverload any    `json:"acceptOverload"`
}

type UpdateInfoRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Birthdate      string `json:"birthdate"`
	Expirydate     string `json:"expirydate"`
	Location       string `json:"location"`
	AddInfo        string `json:"addInfo"`
	AcceptComments any    `json:"acceptComments"`
}

// infoIDParam parses the {id} route parameter; a malformed ID is
// answered with 400 and reported via ok=false.
func infoIDParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

// GetInfos returns every info sorted by descending aggregate vote score.
func (h *Handlers) GetInfos(w http.ResponseWriter, r *http.Request) {
	infos, err := h.Infos.All(r.Context())
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, infos)
}

// GetInfoByID returns one info.
func (h *Handlers) GetInfoByID(w http.ResponseWriter, r *http.Request) {
	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}
	info, err := h.Infos.Get(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "No info found")
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// GetInfosByUser returns every info owned by the given user.
func (h *Handlers) GetInfosByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !validation.IsObjectIDValid(userID) {
		respondMessage(w, http.StatusBadRequest, false, "Invalid userID")
		return
	}
	infos, err := h.Infos.ByOwner(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, infos)
}

// CreateInfo validates the date invariants and stores a new info. An
// Event submission auto-enrolls the creator as first participant.
func (h *Handlers) CreateInfo(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	var req CreateInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	now := h.now()
	birthdate := now
	if req.Birthdate != "" {
		parsed, err := time.Parse(time.RFC3339, req.Birthdate)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, false, "Invalid birthdate")
			return
		}
		birthdate = parsed
	}
	expirydate, err := time.Parse(time.RFC3339, req.Expirydate)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid expirydate")
		return
	}

	info := &domain.Info{
		Title:          validation.SanitizeString(req.Title),
		Description:    validation.SanitizeString(req.Description),
		Category:       validation.SanitizeString(req.Category),
		Location:       validation.SanitizeString(req.Location),
		AddInfo:        validation.SanitizeString(req.AddInfo),
		UserID:         claims.UserID,
		Birthdate:      birthdate.UTC(),
		Expirydate:     expirydate.UTC(),
		AcceptComments: validation.CheckBoolean(req.AcceptComments),
	}
	if info.Category == "" {
		info.Category = domain.CategoryInfo
	}
	if err := info.ValidateDates(now, h.Cfg.InfoTTL, h.Cfg.InfoMaxLifetime); err != nil {
		respondDomainError(w, err)
		return
	}

	if info.Category == domain.CategoryEvent {
		info.Event = &domain.EventDetails{
			UserLimit:      req.UserLimit,
			AcceptOverload: validation.CheckBoolean(req.AcceptOverload),
			UserList: []domain.Participant{
				{UserID: claims.UserID, Username: claims.Username},
			},
		}
	}

	if err := h.Infos.Insert(r.Context(), info); err != nil {
		respondStoreError(w, err, "")
		return
	}

	h.Hub.Broadcast(r.Context(), broadcast.EventNewInfo, info)
	respondMessage(w, http.StatusOK, true, "Successfully added")
}

// UpdateInfo applies field-level edits; owner only. On success the
// updated aggregate is broadcast and subscribers are notified.
func (h *Handlers) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	birthdate, err := time.Parse(time.RFC3339, req.Birthdate)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid birthdate")
		return
	}
	expirydate, err := time.Parse(time.RFC3339, req.Expirydate)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid expirydate")
		return
	}

	info, err := h.mutateInfo(r.Context(), id, func(info *domain.Info) error {
		if info.UserID != claims.UserID {
			return errNotOwner
		}
		info.Title = validation.SanitizeString(req.Title)
		info.Description = validation.SanitizeString(req.Description)
		info.Location = validation.SanitizeString(req.Location)
		info.AddInfo = validation.SanitizeString(req.AddInfo)
		info.Birthdate = birthdate.UTC()
		info.Expirydate = expirydate.UTC()
		info.AcceptComments = validation.CheckBoolean(req.AcceptComments)
		return info.ValidateLifetime(h.Cfg.InfoMaxLifetime)
	})
	if err != nil {
		if errors.Is(err, errNotOwner) {
			respondMessage(w, http.StatusForbidden, false, "You are not authorized to update this info")
			return
		}
		if respondDomainError(w, err) {
			return
		}
		respondStoreError(w, err, "No info found")
		return
	}

	h.Hub.Broadcast(r.Context(), broadcast.EventUpdateInfo, info)
	respondMessage(w, http.StatusOK, true, "Info updated")

	h.notifySubscribers(r, info,
		"The info '"+validation.DecodeHTML(info.Title)+"' just has been edited.")
}

// DeleteInfo removes an info; owner only. Subscription cleanup uses the
// same cascade the sweeper does.
func (h *Handlers) DeleteInfo(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Infos.DeleteOwned(r.Context(), id, claims.UserID); err != nil {
		respondStoreError(w, err, "There is no info with this ID or you are not authorized to delete it")
		return
	}

	if err := h.Subs.DeleteByInfo(r.Context(), id); err != nil {
		// Orphans are reclaimed by the sweeper's orphan scan.
		logger.Log.Errorw("failed to cascade subscription cleanup", "infoID", id.Hex(), "error", err)
	}

	h.Hub.Broadcast(r.Context(), broadcast.EventDeleteInfo, map[string]any{"ID": id.Hex()})
	respondMessage(w, http.StatusOK, true, "Info removed")
}

// notifySubscribers pushes a templated message with a deep link to every
// subscriber of the info. Fire-and-forget.
func (h *Handlers) notifySubscribers(r *http.Request, info *domain.Info, content string) {
	subs, err := h.Subs.ByInfo(r.Context(), info.ID)
	if err != nil {
		logger.Log.Errorw("failed to load subscribers", "infoID", info.ID.Hex(), "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}
	h.Push.NotifyAsync(subs, content, "info/"+info.ID.Hex())
}
