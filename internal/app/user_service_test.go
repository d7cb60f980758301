package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopher-accounts/internal/logging"
	"gopher-accounts/internal/model"
	"gopher-accounts/internal/pkg/hasher"
	"gopher-accounts/internal/repository"
	"gopher-accounts/internal/testutil"
)

func ptr(s string) *string { return &s }

func TestList(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice", "a@x.com", "pw")
	f.signup(t, "bob", "b@x.com", "pw")

	users, err := f.users.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.UserOut{
		{ID: 1, Username: "alice", Email: "a@x.com"},
		{ID: 2, Username: "bob", Email: "b@x.com"},
	}, users)
}

func TestGet_RoundTripAndCache(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "alice", "a@x.com", "pw")

	got, err := f.users.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Public(), *got)
	assert.Contains(t, f.cache.items, u.ID)

	f.cache.items[u.ID] = model.UserOut{ID: u.ID, Username: "cached", Email: "c@x.com"}
	got, err = f.users.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Username)
}

func TestGet_CacheErrorFallsBackToStore(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "alice", "a@x.com", "pw")
	f.cache.getErr = errBoom

	got, err := f.users.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Get(context.Background(), 7)
	require.ErrorIs(t, err, ErrUserNotFound)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, uint(7), nf.ID)
}

func TestUpdate_OnlyTouchesSuppliedFields(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "alice", "a@x.com", "pw1")
	f.cache.items[u.ID] = u.Public()

	out, err := f.users.Update(context.Background(), u.ID, UpdateInput{Email: ptr(" New@X.com ")})
	require.NoError(t, err)
	assert.Equal(t, model.UserOut{ID: u.ID, Username: "alice", Email: "new@x.com"}, *out)

	stored, err := repository.NewUserRepository(f.db, testutil.FastHasher()).GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Password, stored.Password)

	assert.Equal(t, *out, f.cache.items[u.ID])
	assert.Equal(t, []string{model.UserCreated, model.UserUpdated}, f.events.types())
}

func TestUpdate_PasswordIsRehashed(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "alice", "a@x.com", "pw1")

	_, err := f.users.Update(context.Background(), u.ID, UpdateInput{Password: ptr("pw2")})
	require.NoError(t, err)

	_, err = f.auth.Signin(context.Background(), SigninInput{Username: "a@x.com", Password: "pw1"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
	res, err := f.auth.Signin(context.Background(), SigninInput{Username: "a@x.com", Password: "pw2"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice", "a@x.com", "pw")
	bob := f.signup(t, "bob", "b@x.com", "pw")
	ctx := context.Background()

	_, err := f.users.Update(ctx, 99, UpdateInput{Username: ptr("zed")})
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, uint(99), nf.ID)

	_, err = f.users.Update(ctx, bob.ID, UpdateInput{Username: ptr("alice")})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = f.users.Update(ctx, bob.ID, UpdateInput{Email: ptr("a@x.com")})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = f.users.Update(ctx, bob.ID, UpdateInput{Username: ptr(" ")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.users.Update(ctx, bob.ID, UpdateInput{Password: ptr("")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// keeping one's own username is not a conflict
	out, err := f.users.Update(ctx, bob.ID, UpdateInput{Username: ptr("bob")})
	require.NoError(t, err)
	assert.Equal(t, "bob", out.Username)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "alice", "a@x.com", "pw")
	f.cache.items[u.ID] = u.Public()
	ctx := context.Background()

	msg, err := f.users.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, msg, "deleted")

	_, err = f.users.Get(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.True(t, f.cache.deleted[u.ID])
	assert.NotContains(t, f.cache.items, u.ID)
	assert.Equal(t, []string{model.UserCreated, model.UserDeleted}, f.events.types())

	_, err = f.users.Delete(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGet_StaleFillAfterDeleteIsDropped(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "alice", "a@x.com", "pw")
	ctx := context.Background()

	// the delete commits between Get reading the row and filling the cache
	f.cache.beforeFill = func() {
		_, err := f.users.Delete(ctx, u.ID)
		require.NoError(t, err)
	}
	got, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = f.users.Get(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGet_StaleFillAfterUpdateIsDropped(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "alice", "a@x.com", "pw")
	ctx := context.Background()

	f.cache.beforeFill = func() {
		_, err := f.users.Update(ctx, u.ID, UpdateInput{Username: ptr("alicia")})
		require.NoError(t, err)
	}
	_, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)

	got, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username)
}

func TestCacheWriteFailureFallsBackToEviction(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "alice", "a@x.com", "pw")
	f.cache.items[u.ID] = u.Public()
	f.cache.setErr = errBoom
	ctx := context.Background()

	_, err := f.users.Update(ctx, u.ID, UpdateInput{Username: ptr("alicia")})
	require.NoError(t, err)
	assert.NotContains(t, f.cache.items, u.ID)

	f.cache.items[u.ID] = u.Public()
	_, err = f.users.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.NotContains(t, f.cache.items, u.ID)
	assert.Equal(t, []uint{u.ID, u.ID}, f.cache.deletes)
}

func TestUpdate_PasswordLengthLimit(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "alice", "a@x.com", "pw")
	ctx := context.Background()

	_, err := f.users.Update(ctx, u.ID, UpdateInput{Password: ptr(strings.Repeat("p", hasher.MaxPasswordBytes))})
	require.NoError(t, err)

	_, err = f.users.Update(ctx, u.ID, UpdateInput{Password: ptr(strings.Repeat("p", hasher.MaxPasswordBytes+1))})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUserService_WithoutOptionalBackends(t *testing.T) {
	db := testutil.NewDB(t)
	h := hasher.NewBcrypt(4)
	users := NewUserService(db, h, nil, nil, logging.Discard())

	_, err := users.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
