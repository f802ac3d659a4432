// Package handlers implements the HTTP endpoints. Every mutating
// endpoint follows the same contract: validate identifiers and business
// invariants, apply the single mutation, and only after persistence
// succeeded broadcast a minimal event payload and respond with the
// success envelope.
package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quartierboard/board-api/internal/broadcast"
	"github.com/quartierboard/board-api/internal/config"
	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/store"
	"github.com/quartierboard/board-api/internal/token"
)

// InfoStore is the persistence surface for the info aggregate.
type InfoStore interface {
	Insert(ctx context.Context, info *domain.Info) error
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Info, error)
	All(ctx context.Context) ([]domain.Info, error)
	ByOwner(ctx context.Context, userID string) ([]domain.Info, error)
	Replace(ctx context.Context, info *domain.Info) error
	DeleteOwned(ctx context.Context, id primitive.ObjectID, userID string) error
	DeleteByOwner(ctx context.Context, userID string) error
}

// UserStore is the persistence surface for accounts.
type UserStore interface {
	Insert(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ByUsername(ctx context.Context, username string) (*domain.User, error)
	ByMail(ctx context.Context, mail string) (*domain.User, error)
	All(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SubscriptionStore is the persistence surface for notification
// subscriptions.
type SubscriptionStore interface {
	Insert(ctx context.Context, sub *domain.Subscription) error
	Get(ctx context.Context, infoID primitive.ObjectID, userID, device string) (*domain.Subscription, error)
	ByInfo(ctx context.Context, infoID primitive.ObjectID) ([]domain.Subscription, error)
	Delete(ctx context.Context, infoID primitive.ObjectID, userID, device string) error
	DeleteByInfo(ctx context.Context, infoID primitive.ObjectID) error
}

// Broadcaster fans state-change events out to connected clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, event string, data any)
	Register(conn broadcast.Conn) uuid.UUID
	Unregister(id uuid.UUID)
}

// Notifier delivers push messages to subscribed devices.
type Notifier interface {
	NotifyAsync(subs []domain.Subscription, content, url string)
}

// CaptchaVerifier checks human-verification tokens.
type CaptchaVerifier interface {
	Verify(ctx context.Context, captchaToken, remoteIP string) error
}

// Handlers bundles the endpoint dependencies. Constructed once in main;
// tests swap in fakes.
type Handlers struct {
	Infos   InfoStore
	Users   UserStore
	Subs    SubscriptionStore
	Hub     Broadcaster
	Push    Notifier
	Captcha CaptchaVerifier
	Tokens  *token.Service
	Cfg     *config.Config

	now func() time.Time
}

func New(infos InfoStore, users UserStore, subs SubscriptionStore, hub Broadcaster, push Notifier, captcha CaptchaVerifier, tokens *token.Service, cfg *config.Config) *Handlers {
	return &Handlers{
		Infos:   infos,
		Users:   users,
		Subs:    subs,
		Hub:     hub,
		Push:    push,
		Captcha: captcha,
		Tokens:  tokens,
		Cfg:     cfg,
		now:     time.Now,
	}
}

// casRetries bounds the reload-and-retry cycles an aggregate mutation
// may spend on version conflicts before giving up.
const casRetries = 3

// errNotOwner aborts a mutateInfo cycle when the caller does not own
// the aggregate.
var errNotOwner = errors.New("not the owner")

// mutateInfo runs the load -> mutate -> compare-and-swap cycle for one
// aggregate. fn is re-applied to a fresh copy after every lost race, so
// a concurrent writer never silently discards this mutation.
func (h *Handlers) mutateInfo(ctx context.Context, id primitive.ObjectID, fn func(*domain.Info) error) (*domain.Info, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		info, err := h.Infos.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(info); err != nil {
			return nil, err
		}
		err = h.Infos.Replace(ctx, info)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, err
		}
	}
	return nil, store.ErrConflict
}
