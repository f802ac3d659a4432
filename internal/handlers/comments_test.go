package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quartierboard/board-api/internal/broadcast"
	"github.com/quartierboard/board-api/internal/domain"
)

func seedCommentable(t *testing.T, e *env) primitive.ObjectID {
	t.Helper()
	return seedInfo(t, e, &domain.Info{
		Title:          "Neighborhood watch",
		UserID:         primitive.NewObjectID().Hex(),
		Birthdate:      e.now,
		Expirydate:     e.now.Add(time.Hour),
		AcceptComments: true,
	})
}

func TestAddComment(t *testing.T) {
	e := newEnv(t)
	claims := claimsFor(primitive.NewObjectID().Hex(), "alice")
	id := seedCommentable(t, e)
	require.NoError(t, e.subs.Insert(context.Background(),
		&domain.Subscription{InfoID: id, UserID: "watcher", Device: "phone", PlayerID: "p1"}))

	rec := do(t, http.MethodPost, "/infos/{id}/comments", "/infos/"+id.Hex()+"/comments",
		CommentRequest{Title: "Question", Content: "When does it start?"}, claims, e.h.AddComment)

	require.Equal(t, http.StatusOK, rec.Code)
	info, err := e.infos.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, info.Comments, 1)
	assert.False(t, info.Comments[0].ID.IsZero())
	assert.Equal(t, claims.UserID, info.Comments[0].UserID)
	assert.Equal(t, "alice", info.Comments[0].Username)

	ev, ok := e.hub.last()
	require.True(t, ok)
	assert.Equal(t, broadcast.EventNewComment, ev.Event)

	require.Len(t, e.push.contents, 1)
	assert.Equal(t, "Someone added a new comment on 'Neighborhood watch'", e.push.contents[0])
}

func TestAddCommentDisabled(t *testing.T) {
	e := newEnv(t)
	claims := claimsFor(primitive.NewObjectID().Hex(), "alice")
	id := seedInfo(t, e, &domain.Info{
		Title:          "No comments here",
		UserID:         primitive.NewObjectID().Hex(),
		Birthdate:      e.now,
		Expirydate:     e.now.Add(time.Hour),
		AcceptComments: false,
	})

	rec := do(t, http.MethodPost, "/infos/{id}/comments", "/infos/"+id.Hex()+"/comments",
		CommentRequest{Title: "Hi", Content: "there"}, claims, e.h.AddComment)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, e.push.contents)
}

func TestEditComment(t *testing.T) {
	e := newEnv(t)
	claims := claimsFor(primitive.NewObjectID().Hex(), "alice")
	id := seedCommentable(t, e)
	require.NoError(t, e.subs.Insert(context.Background(),
		&domain.Subscription{InfoID: id, UserID: "watcher", Device: "phone", PlayerID: "p1"}))

	rec := do(t, http.MethodPost, "/infos/{id}/comments", "/infos/"+id.Hex()+"/comments",
		CommentRequest{Title: "Typo", Content: "Wehn?"}, claims, e.h.AddComment)
	require.Equal(t, http.StatusOK, rec.Code)

	info, err := e.infos.Get(context.Background(), id)
	require.NoError(t, err)
	commentID := info.Comments[0].ID

	target := "/infos/" + id.Hex() + "/comments/" + commentID.Hex()
	rec = do(t, http.MethodPut, "/infos/{infoID}/comments/{commentID}", target,
		CommentRequest{Title: "Fixed", Content: "When?"}, claims, e.h.EditComment)

	require.Equal(t, http.StatusOK, rec.Code)
	info, err = e.infos.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Fixed", info.Comments[0].Title)
	assert.Equal(t, "When?", info.Comments[0].Content)

	ev, ok := e.hub.last()
	require.True(t, ok)
	assert.Equal(t, broadcast.EventCommentEdited, ev.Event)

	// Only the initial add triggered a push.
	assert.Len(t, e.push.contents, 1)
}

func TestEditCommentNotAuthor(t *testing.T) {
	e := newEnv(t)
	author := claimsFor(primitive.NewObjectID().Hex(), "alice")
	id := seedCommentable(t, e)

	rec := do(t, http.MethodPost, "/infos/{id}/comments", "/infos/"+id.Hex()+"/comments",
		CommentRequest{Title: "Mine", Content: "text"}, author, e.h.AddComment)
	require.Equal(t, http.StatusOK, rec.Code)

	info, err := e.infos.Get(context.Background(), id)
	require.NoError(t, err)
	commentID := info.Comments[0].ID

	stranger := claimsFor(primitive.NewObjectID().Hex(), "mallory")
	target := "/infos/" + id.Hex() + "/comments/" + commentID.Hex()
	rec = do(t, http.MethodPut, "/infos/{infoID}/comments/{commentID}", target,
		CommentRequest{Title: "Hijacked", Content: "text"}, stranger, e.h.EditComment)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteComment(t *testing.T) {
	e := newEnv(t)
	claims := claimsFor(primitive.NewObjectID().Hex(), "alice")
	id := seedCommentable(t, e)

	rec := do(t, http.MethodPost, "/infos/{id}/comments", "/infos/"+id.Hex()+"/comments",
		CommentRequest{Title: "Temp", Content: "delete me"}, claims, e.h.AddComment)
	require.Equal(t, http.StatusOK, rec.Code)

	info, err := e.infos.Get(context.Background(), id)
	require.NoError(t, err)
	commentID := info.Comments[0].ID

	target := "/infos/" + id.Hex() + "/comments/" + commentID.Hex()
	rec = do(t, http.MethodDelete, "/infos/{infoID}/comments/{commentID}", target, nil, claims, e.h.DeleteComment)

	require.Equal(t, http.StatusOK, rec.Code)
	info, err = e.infos.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, info.Comments)

	ev, ok := e.hub.last()
	require.True(t, ok)
	assert.Equal(t, broadcast.EventCommentDeleted, ev.Event)

	// Deleting an unknown comment is a 404.
	rec = do(t, http.MethodDelete, "/infos/{infoID}/comments/{commentID}", target, nil, claims, e.h.DeleteComment)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
