package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quartierboard/board-api/internal/broadcast"
	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/store"
)

// In-memory fakes for the handler dependency interfaces.

type fakeInfoStore struct {
	mu    sync.Mutex
	infos map[primitive.ObjectID]*domain.Info
	err   error // when set, every call fails with it
}

func newFakeInfoStore() *fakeInfoStore {
	return &fakeInfoStore{infos: make(map[primitive.ObjectID]*domain.Info)}
}

func copyInfo(info *domain.Info) *domain.Info {
	cp := *info
	cp.Votes = append([]domain.Vote(nil), info.Votes...)
	cp.Comments = append([]domain.Comment(nil), info.Comments...)
	if info.Event != nil {
		ev := *info.Event
		ev.UserList = append([]domain.Participant(nil), info.Event.UserList...)
		cp.Event = &ev
	}
	return &cp
}

func (f *fakeInfoStore) Insert(_ context.Context, info *domain.Info) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if info.ID.IsZero() {
		info.ID = primitive.NewObjectID()
	}
	info.Version = 1
	f.infos[info.ID] = copyInfo(info)
	return nil
}

func (f *fakeInfoStore) Get(_ context.Context, id primitive.ObjectID) (*domain.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.infos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyInfo(info), nil
}

func (f *fakeInfoStore) All(_ context.Context) ([]domain.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Info{}
	for _, info := range f.infos {
		out = append(out, *copyInfo(info))
	}
	return out, nil
}

func (f *fakeInfoStore) ByOwner(_ context.Context, userID string) ([]domain.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Info{}
	for _, info := range f.infos {
		if info.UserID == userID {
			out = append(out, *copyInfo(info))
		}
	}
	return out, nil
}

func (f *fakeInfoStore) Replace(_ context.Context, info *domain.Info) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	current, ok := f.infos[info.ID]
	if !ok || current.Version != info.Version {
		return store.ErrConflict
	}
	info.Version++
	f.infos[info.ID] = copyInfo(info)
	return nil
}

func (f *fakeInfoStore) DeleteOwned(_ context.Context, id primitive.ObjectID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	info, ok := f.infos[id]
	if !ok || info.UserID != userID {
		return store.ErrNotFound
	}
	delete(f.infos, id)
	return nil
}

func (f *fakeInfoStore) DeleteByOwner(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for id, info := range f.infos {
		if info.UserID == userID {
			delete(f.infos, id)
		}
	}
	return nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
	err   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*domain.User)}
}

func (f *fakeUserStore) Insert(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Username == user.Username || u.Mail == user.Mail {
			return store.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) Get(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserStore) ByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, user := range f.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) ByMail(_ context.Context, mail string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, user := range f.users {
		if user.Mail == mail {
			cp := *user
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) All(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.User{}
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type subKey struct {
	infoID primitive.ObjectID
	userID string
	device string
}

type fakeSubStore struct {
	mu   sync.Mutex
	subs map[subKey]*domain.Subscription
	err  error
}

func newFakeSubStore() *fakeSubStore {
	return &fakeSubStore{subs: make(map[subKey]*domain.Subscription)}
}

func (f *fakeSubStore) Insert(_ context.Context, sub *domain.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	key := subKey{sub.InfoID, sub.UserID, sub.Device}
	if _, ok := f.subs[key]; ok {
		return store.ErrDuplicate
	}
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	cp := *sub
	f.subs[key] = &cp
	return nil
}

func (f *fakeSubStore) Get(_ context.Context, infoID primitive.ObjectID, userID, device string) (*domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subs[subKey{infoID, userID, device}]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeSubStore) ByInfo(_ context.Context, infoID primitive.ObjectID) ([]domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Subscription{}
	for key, sub := range f.subs {
		if key.infoID == infoID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubStore) Delete(_ context.Context, infoID primitive.ObjectID, userID, device string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	key := subKey{infoID, userID, device}
	if _, ok := f.subs[key]; !ok {
		return store.ErrNotFound
	}
	delete(f.subs, key)
	return nil
}

func (f *fakeSubStore) DeleteByInfo(_ context.Context, infoID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for key := range f.subs {
		if key.infoID == infoID {
			delete(f.subs, key)
		}
	}
	return nil
}

// fakeHub records broadcast events.
type fakeHub struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (f *fakeHub) Broadcast(_ context.Context, event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, broadcast.Event{Event: event, Data: data})
}

func (f *fakeHub) Register(broadcast.Conn) uuid.UUID { return uuid.New() }
func (f *fakeHub) Unregister(uuid.UUID)              {}

func (f *fakeHub) last() (broadcast.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return broadcast.Event{}, false
	}
	return f.events[len(f.events)-1], true
}

// fakePush records notification calls.
type fakePush struct {
	mu       sync.Mutex
	contents []string
	urls     []string
}

func (f *fakePush) NotifyAsync(_ []domain.Subscription, content, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents = append(f.contents, content)
	f.urls = append(f.urls, url)
}

// fakeCaptcha accepts every token unless rejected is set.
type fakeCaptcha struct {
	rejected bool
}

func (f *fakeCaptcha) Verify(context.Context, string, string) error {
	if f.rejected {
		return errors.New("captcha rejected")
	}
	return nil
}
