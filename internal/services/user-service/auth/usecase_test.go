package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appauth "github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/domain/user"
	pg "github.com/streamtube/backend/internal/repository/postgres"
)

// fakeStore backs both the user repo and the session store, mirroring
// how the refresh slot lives on the account row in production.
type fakeStore struct {
	users map[int64]*user.User
	slots map[int64]string
}

func newFakeStore(users ...*user.User) *fakeStore {
	s := &fakeStore{users: map[int64]*user.User{}, slots: map[int64]string{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, u *user.User) error {
	u.ID = int64(len(s.users) + 1)
	s.users[u.ID] = u
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, pg.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetByUserNameOrEmail(_ context.Context, identifier string) (*user.User, error) {
	for _, u := range s.users {
		if u.UserName == identifier || u.Email == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pg.ErrNotFound
}

func (s *fakeStore) GetByUserName(ctx context.Context, userName string) (*user.User, error) {
	return s.GetByUserNameOrEmail(ctx, userName)
}

func (s *fakeStore) Update(_ context.Context, u *user.User) error {
	if _, ok := s.users[u.ID]; !ok {
		return pg.ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *fakeStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return pg.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (s *fakeStore) SetRefreshToken(_ context.Context, id int64, token string) error {
	if _, ok := s.users[id]; !ok {
		return pg.ErrNotFound
	}
	s.slots[id] = token
	return nil
}

func (s *fakeStore) GetRefreshToken(_ context.Context, id int64) (string, error) {
	return s.slots[id], nil
}

func (s *fakeStore) ClearRefreshToken(_ context.Context, id int64) error {
	delete(s.slots, id)
	return nil
}

type usecaseFixture struct {
	uc    *Usecase
	store *fakeStore
	clock *time.Time
}

func newFixture(t *testing.T) *usecaseFixture {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now

	codec, err := appauth.NewCodec(appauth.CodecConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "user-service-test",
		Now:           func() time.Time { return *clock },
	})
	require.NoError(t, err)

	hasher := appauth.NewHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)

	store := newFakeStore(&user.User{
		ID:       1,
		UserName: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
		Password: hash,
	})

	return &usecaseFixture{
		uc:    NewUsecase(store, store, codec, hasher),
		store: store,
		clock: clock,
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, pair, err := f.uc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, pair.RefreshToken, f.store.slots[1])
}

func TestLogin_ByEmail(t *testing.T) {
	f := newFixture(t)

	rec, _, err := f.uc.Login(context.Background(), "ALICE@example.com", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, "alice", rec.UserName)
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.uc.Login(context.Background(), "nobody", "whatever")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.uc.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Empty(t, f.store.slots[1])
}

func TestRefresh_RotatesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, pair, err := f.uc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	rotated, err := f.uc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	require.Equal(t, rotated.RefreshToken, f.store.slots[1])

	// The pre-rotation token no longer matches the slot.
	_, err = f.uc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The current token keeps working.
	_, err = f.uc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_MissingToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestRefresh_GarbageToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Refresh(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, pair, err := f.uc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	_, err = f.uc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, pair, err := f.uc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	*f.clock = f.clock.Add(8 * 24 * time.Hour)
	_, err = f.uc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_AfterLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, pair, err := f.uc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	require.NoError(t, f.uc.Logout(ctx, 1))

	_, err = f.uc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, pair, err := f.uc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	rec, err := f.uc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", rec.UserName)
}

func TestAuthenticate_ValidAfterLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, pair, err := f.uc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	require.NoError(t, f.uc.Logout(ctx, 1))

	// Logout empties the refresh slot but does not revoke access tokens.
	rec, err := f.uc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.ID)
}

func TestAuthenticate_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, pair, err := f.uc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	*f.clock = f.clock.Add(16 * time.Minute)
	_, err = f.uc.Authenticate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_RefreshTokenRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, pair, err := f.uc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	_, err = f.uc.Authenticate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.uc.ChangePassword(ctx, 1, "correct horse battery", "new secret phrase")
	require.NoError(t, err)

	_, _, err = f.uc.Login(ctx, "alice", "correct horse battery")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.uc.Login(ctx, "alice", "new secret phrase")
	require.NoError(t, err)
}

func TestChangePassword_WrongOld(t *testing.T) {
	f := newFixture(t)

	err := f.uc.ChangePassword(context.Background(), 1, "wrong", "new secret phrase")
	require.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestChangePassword_Weak(t *testing.T) {
	f := newFixture(t)

	err := f.uc.ChangePassword(context.Background(), 1, "correct horse battery", "short")
	require.ErrorIs(t, err, ErrWeakPassword)
}
