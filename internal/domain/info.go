package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Info categories. Everything that is not an Event is a plain info.
const (
	CategoryInfo  = "Info"
	CategoryEvent = "Event"
)

// Vote values. A vote set back to zero stays in the list.
const (
	VoteUp   = 1
	VoteDown = -1
)

var (
	ErrInvalidBirthdate  = errors.New("invalid birthdate")
	ErrInvalidExpirydate = errors.New("invalid expirydate")
	ErrInvalidVoteValue  = errors.New("invalid vote value")
	ErrNotAnEvent        = errors.New("info is not an event")
	ErrEventFull         = errors.New("event is full")
	ErrAlreadyJoined     = errors.New("user already in the event")
	ErrNotJoined         = errors.New("user not found in the event")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrNotCommentAuthor  = errors.New("not the comment author")
	ErrCommentsDisabled  = errors.New("info does not accept comments")
)

// Vote is one user's current vote on an info.
type Vote struct {
	UserID string `bson:"userID" json:"userID"`
	Value  int    `bson:"value" json:"value"`
}

// Comment is an entry of the embedded comment sequence.
type Comment struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Title    string             `bson:"title" json:"title"`
	Content  string             `bson:"content" json:"content"`
	UserID   string             `bson:"userID" json:"userID"`
	Username string             `bson:"username" json:"username"`
}

// Participant is an entry of an event's member list.
type Participant struct {
	UserID   string `bson:"userID" json:"userID"`
	Username string `bson:"username" json:"username"`
}

// EventDetails is present on an Info exactly when its category is Event.
type EventDetails struct {
	UserLimit      int           `bson:"userLimit" json:"userLimit"`
	AcceptOverload bool          `bson:"acceptOverload" json:"acceptOverload"`
	UserList       []Participant `bson:"userList" json:"userList"`
}

// Info is the announcement/event aggregate root. Votes, comments and the
// event member list are embedded; every mutation goes through the
// methods below and is persisted with a version compare-and-swap.
type Info struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Category       string             `bson:"category" json:"category"`
	Location       string             `bson:"location" json:"location"`
	AddInfo        string             `bson:"addInfo" json:"addInfo"`
	UserID         string             `bson:"userID" json:"userID"`
	Birthdate      time.Time          `bson:"birthdate" json:"birthdate"`
	Expirydate     time.Time          `bson:"expirydate" json:"expirydate"`
	AcceptComments bool               `bson:"acceptComments" json:"acceptComments"`
	VoteCount      int                `bson:"voteCount" json:"voteCount"`
	Version        int64              `bson:"version" json:"-"`
	Votes          []Vote             `bson:"votes" json:"votes"`
	Comments       []Comment          `bson:"comments" json:"comments"`
	Event          *EventDetails      `bson:"event,omitempty" json:"event,omitempty"`
}

// IsEvent reports whether the info carries the event extension.
func (i *Info) IsEvent() bool {
	return i.Event != nil
}

// ValidateDates enforces the creation invariants: the birthdate must lie
// within [now, now+ttl] and the expirydate within [birthdate,
// birthdate+maxLifetime].
func (i *Info) ValidateDates(now time.Time, ttl, maxLifetime time.Duration) error {
	fromNow := i.Birthdate.Sub(now)
	if fromNow < 0 || fromNow > ttl {
		return ErrInvalidBirthdate
	}
	return i.ValidateLifetime(maxLifetime)
}

// ValidateLifetime enforces birthdate <= expirydate <= birthdate+maxLifetime.
// Updates re-check only this window; the birthdate of an existing info
// may already be in the past.
func (i *Info) ValidateLifetime(maxLifetime time.Duration) error {
	fromBirth := i.Expirydate.Sub(i.Birthdate)
	if fromBirth < 0 || fromBirth > maxLifetime {
		return ErrInvalidExpirydate
	}
	return nil
}

// IsFull reports whether the member list reached capacity. An event with
// overload acceptance never fills up.
func (e *EventDetails) IsFull() bool {
	if e.AcceptOverload {
		return false
	}
	return len(e.UserList) >= e.UserLimit
}

// HasParticipant is a keyed membership test; participant user IDs are
// unique by construction, so order never matters.
func (e *EventDetails) HasParticipant(userID string) bool {
	for _, p := range e.UserList {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Join appends the user to the member list, enforcing the capacity
// bound and uniqueness. Capacity is checked first, so joining a full
// event reports fullness even for a user who is already a member.
func (i *Info) Join(userID, username string) error {
	if !i.IsEvent() {
		return ErrNotAnEvent
	}
	if i.Event.IsFull() {
		return ErrEventFull
	}
	if i.Event.HasParticipant(userID) {
		return ErrAlreadyJoined
	}
	i.Event.UserList = append(i.Event.UserList, Participant{UserID: userID, Username: username})
	return nil
}

// Leave removes the user's entry from the member list.
func (i *Info) Leave(userID string) error {
	if !i.IsEvent() {
		return ErrNotAnEvent
	}
	for idx, p := range i.Event.UserList {
		if p.UserID == userID {
			i.Event.UserList = append(i.Event.UserList[:idx], i.Event.UserList[idx+1:]...)
			return nil
		}
	}
	return ErrNotJoined
}

// CastVote applies one user's vote. Re-casting the current value toggles
// it to zero; a different value overwrites. The cached aggregate score
// is recomputed from scratch afterwards so it can never drift.
func (i *Info) CastVote(userID string, value int) error {
	if value != VoteUp && value != VoteDown {
		return ErrInvalidVoteValue
	}
	applied := false
	for idx := range i.Votes {
		if i.Votes[idx].UserID == userID {
			if i.Votes[idx].Value == value {
				i.Votes[idx].Value = 0
			} else {
				i.Votes[idx].Value = value
			}
			applied = true
			break
		}
	}
	if !applied {
		i.Votes = append(i.Votes, Vote{UserID: userID, Value: value})
	}
	i.RecountVotes()
	return nil
}

// HasVote reports whether the user has a vote entry, toggled-off ones
// included.
func (i *Info) HasVote(userID string) bool {
	for _, v := range i.Votes {
		if v.UserID == userID {
			return true
		}
	}
	return false
}

// RecountVotes rebuilds the cached aggregate score from the vote list.
func (i *Info) RecountVotes() {
	sum := 0
	for _, v := range i.Votes {
		sum += v.Value
	}
	i.VoteCount = sum
}

// AddComment appends a comment, assigning it a fresh ID. Returns the
// stored comment.
func (i *Info) AddComment(title, content, userID, username string) (Comment, error) {
	if !i.AcceptComments {
		return Comment{}, ErrCommentsDisabled
	}
	c := Comment{
		ID:       primitive.NewObjectID(),
		Title:    title,
		Content:  content,
		UserID:   userID,
		Username: username,
	}
	i.Comments = append(i.Comments, c)
	return c, nil
}

// findComment is a keyed lookup by comment ID; IDs are unique, so the
// first match is the only match.
func (i *Info) findComment(commentID primitive.ObjectID) (int, bool) {
	for idx := range i.Comments {
		if i.Comments[idx].ID == commentID {
			return idx, true
		}
	}
	return 0, false
}

// EditComment replaces the title and content of the caller's comment.
func (i *Info) EditComment(commentID primitive.ObjectID, userID, title, content string) (Comment, error) {
	idx, ok := i.findComment(commentID)
	if !ok {
		return Comment{}, ErrCommentNotFound
	}
	if i.Comments[idx].UserID != userID {
		return Comment{}, ErrNotCommentAuthor
	}
	i.Comments[idx].Title = title
	i.Comments[idx].Content = content
	return i.Comments[idx], nil
}

// DeleteComment removes the caller's comment.
func (i *Info) DeleteComment(commentID primitive.ObjectID, userID string) error {
	idx, ok := i.findComment(commentID)
	if !ok {
		return ErrCommentNotFound
	}
	if i.Comments[idx].UserID != userID {
		return ErrNotCommentAuthor
	}
	i.Comments = append(i.Comments[:idx], i.Comments[idx+1:]...)
	return nil
}
