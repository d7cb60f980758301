package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"

	"gopher-accounts/internal/logging"
	"gopher-accounts/internal/model"
	"gopher-accounts/internal/platform/database"
	"gopher-accounts/internal/testutil"
)

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) Issue(userID uint) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("token-for-%d", userID), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.UserEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event model.UserEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeCache struct {
	items   map[uint]model.UserOut
	deleted map[uint]bool
	getErr  error
	setErr  error
	deletes []uint

	// beforeFill runs ahead of every Fill to interleave a concurrent write.
	beforeFill func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[uint]model.UserOut{}, deleted: map[uint]bool{}}
}

func (f *fakeCache) Get(_ context.Context, id uint) (*model.UserOut, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	if f.deleted[id] {
		return nil, true, nil
	}
	u, ok := f.items[id]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (f *fakeCache) Fill(_ context.Context, user model.UserOut) error {
	if f.beforeFill != nil {
		hook := f.beforeFill
		f.beforeFill = nil
		hook()
	}
	if _, ok := f.items[user.ID]; ok || f.deleted[user.ID] {
		return nil
	}
	f.items[user.ID] = user
	return nil
}

func (f *fakeCache) Set(_ context.Context, user model.UserOut) error {
	if f.setErr != nil {
		return f.setErr
	}
	delete(f.deleted, user.ID)
	f.items[user.ID] = user
	return nil
}

func (f *fakeCache) MarkDeleted(_ context.Context, id uint) error {
	if f.setErr != nil {
		return f.setErr
	}
	delete(f.items, id)
	f.deleted[id] = true
	return nil
}

func (f *fakeCache) Delete(_ context.Context, id uint) error {
	f.deletes = append(f.deletes, id)
	delete(f.items, id)
	delete(f.deleted, id)
	return nil
}

type fixture struct {
	db     *gorm.DB
	auth   *AuthService
	users  *UserService
	events *fakePublisher
	cache  *fakeCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	h := testutil.FastHasher()
	events := &fakePublisher{}
	cache := newFakeCache()
	log := logging.Discard()

	return &fixture{
		db:     db,
		auth:   NewAuthService(db, h, &fakeIssuer{}, events, log),
		users:  NewUserService(db, h, cache, events, log),
		events: events,
		cache:  cache,
	}
}

func (f *fixture) closeDB(t *testing.T) {
	t.Helper()
	if err := database.Close(f.db); err != nil {
		t.Fatalf("close db: %v", err)
	}
}

func (f *fixture) signup(t *testing.T, username, email, password string) *model.User {
	t.Helper()
	u, err := f.auth.Signup(context.Background(), SignupInput{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return u
}

var errBoom = errors.New("boom")
