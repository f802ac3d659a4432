package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quartierboard/board-api/internal/broadcast"
	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/middleware"
	"github.com/quartierboard/board-api/internal/validation"
)

// CastVote applies the caller's upvote/downvote with toggle-off
// semantics and broadcasts the recomputed aggregate score only.
func (h *Handlers) CastVote(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	id, ok := infoIDParam(w, r, "id")
	if !ok {
		return
	}

	votetype := chi.URLParam(r, "votetype")
	if !validation.IsVoteTypeValid(votetype) {
		respondMessage(w, http.StatusBadRequest, false, "Bad request")
		return
	}
	value := domain.VoteDown
	if votetype == "upvote" {
		value = domain.VoteUp
	}

	// Re-evaluated on every CAS attempt so a retried mutation still
	// reports against the state it actually applied to.
	updated := false
	info, err := h.mutateInfo(r.Context(), id, func(info *domain.Info) error {
		updated = info.HasVote(claims.UserID)
		return info.CastVote(claims.UserID, value)
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		respondStoreError(w, err, "No info found")
		return
	}

	h.Hub.Broadcast(r.Context(), broadcast.EventVoteUpdated, map[string]any{
		"ID":        id.Hex(),
		"voteCount": info.VoteCount,
	})
	if updated {
		respondMessage(w, http.StatusOK, true, "Vote updated !")
		return
	}
	respondMessage(w, http.StatusOK, true, "Vote sent")
}
