package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/quartierboard/board-api/internal/broadcast"
	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/middleware"
	"github.com/quartierboard/board-api/internal/validation"
)

type CommentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AddComment appends a comment to an info that accepts them, broadcasts
// the stored comment and notifies subscribers.
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	var comment domain.Comment
	info, err := h.mutateInfo(r.Context(), id, func(info *domain.Info) error {
		var err error
		comment, err = info.AddComment(
			validation.SanitizeString(req.Title),
			validation.SanitizeString(req.Content),
			claims.UserID,
			claims.Username,
		)
		return err
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		respondStoreError(w, err, "No info found")
		return
	}

	h.Hub.Broadcast(r.Context(), broadcast.EventNewComment, map[string]any{
		"infoID":  id.Hex(),
		"content": comment,
	})
	respondMessage(w, http.StatusOK, true, "Comment added")

	h.notifySubscribers(r, info,
		"Someone added a new comment on '"+validation.DecodeHTML(info.Title)+"'")
}

// EditComment replaces the title and content of the caller's comment.
func (h *Handlers) EditComment(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	infoID, ok := infoIDParam(w, r, "infoID")
	if !ok {
		return
	}
	commentID, ok := infoIDParam(w, r, "commentID")
	if !ok {
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	var comment domain.Comment
	_, err := h.mutateInfo(r.Context(), infoID, func(info *domain.Info) error {
		var err error
		comment, err = info.EditComment(
			commentID,
			claims.UserID,
			validation.SanitizeString(req.Title),
			validation.SanitizeString(req.Content),
		)
		return err
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		respondStoreError(w, err, "No info found")
		return
	}

	h.Hub.Broadcast(r.Context(), broadcast.EventCommentEdited, map[string]any{
		"infoID":  infoID.Hex(),
		"content": comment,
	})
	respondMessage(w, http.StatusOK, true, "Comment updated")
}

// DeleteComment removes the caller's comment.
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	infoID, ok := infoIDParam(w, r, "infoID")
	if !ok {
		return
	}
	commentID, ok := infoIDParam(w, r, "commentID")
	if !ok {
		return
	}

	_, err := h.mutateInfo(r.Context(), infoID, func(info *domain.Info) error {
		return info.DeleteComment(commentID, claims.UserID)
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		respondStoreError(w, err, "No info found")
		return
	}

	h.Hub.Broadcast(r.Context(), broadcast.EventCommentDeleted, map[string]any{
		"infoID": infoID.Hex(),
		"ID":     commentID.Hex(),
	})
	respondMessage(w, http.StatusOK, true, "Comment deleted")
}
