package auth

import (
	"context"
	"errors"
	"fmt"

	appauth "github.com/streamtube/backend/internal/auth"
	domainauth "github.com/streamtube/backend/internal/domain/auth"
	"github.com/streamtube/backend/internal/domain/user"
	pg "github.com/streamtube/backend/internal/repository/postgres"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordMismatch   = errors.New("old password is incorrect")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 characters")
)

// Usecase is the session manager: it owns the dual-token lifecycle and is
// the only writer of the per-account refresh-token slot.
type Usecase struct {
	users    user.Repo
	sessions domainauth.SessionStore
	codec    *appauth.Codec
	hasher   *appauth.Hasher
}

func NewUsecase(users user.Repo, sessions domainauth.SessionStore, codec *appauth.Codec, hasher *appauth.Hasher) *Usecase {
	return &Usecase{users: users, sessions: sessions, codec: codec, hasher: hasher}
}

// Login verifies credentials and opens a session: mints an access+refresh
// pair and persists the refresh token as the account's single slot.
func (u *Usecase) Login(ctx context.Context, identifier, password string) (*user.User, domainauth.TokenPair, error) {
	rec, err := u.users.GetByUserNameOrEmail(ctx, user.NormalizeUserName(identifier))
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, domainauth.TokenPair{}, ErrNotFound
		}
		return nil, domainauth.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if !u.hasher.Verify(password, rec.Password) {
		return nil, domainauth.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := u.mintPair(rec)
	if err != nil {
		return nil, domainauth.TokenPair{}, err
	}
	if err := u.sessions.SetRefreshToken(ctx, rec.ID, pair.RefreshToken); err != nil {
		return nil, domainauth.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return rec, pair, nil
}

// Refresh rotates the session. The presented token must be well-signed,
// unexpired AND equal to the stored slot; a rotated-away or logged-out
// token fails the comparison even though its signature still verifies.
// A store failure mid-rotation is fatal to the request; there is no
// partial rollback.
func (u *Usecase) Refresh(ctx context.Context, presented string) (domainauth.TokenPair, error) {
	if presented == "" {
		return domainauth.TokenPair{}, ErrMissingToken
	}

	claims, err := u.codec.VerifyRefresh(presented)
	if err != nil {
		return domainauth.TokenPair{}, ErrInvalidToken
	}

	rec, err := u.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return domainauth.TokenPair{}, ErrInvalidToken
		}
		return domainauth.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	stored, err := u.sessions.GetRefreshToken(ctx, rec.ID)
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("read refresh slot: %w", err)
	}
	if stored == "" || stored != presented {
		return domainauth.TokenPair{}, ErrInvalidToken
	}

	pair, err := u.mintPair(rec)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	if err := u.sessions.SetRefreshToken(ctx, rec.ID, pair.RefreshToken); err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

// Logout empties the slot; already-issued access tokens stay valid until
// their own expiry, but no future refresh can succeed.
func (u *Usecase) Logout(ctx context.Context, userID int64) error {
	if err := u.sessions.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (u *Usecase) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	if len(newPassword) > 72 {
		return ErrPasswordTooLong
	}

	rec, err := u.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if !u.hasher.Verify(oldPassword, rec.Password) {
		return ErrPasswordMismatch
	}

	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := u.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Authenticate backs the request gate. Pure verification: signature and
// expiry plus an account load, never a session-store read, so an access
// token outlives logout until it expires on its own.
func (u *Usecase) Authenticate(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := u.codec.VerifyAccess(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	rec, err := u.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return rec, nil
}

func (u *Usecase) mintPair(rec *user.User) (domainauth.TokenPair, error) {
	access, err := u.codec.IssueAccess(domainauth.AccessClaims{
		UserID:   rec.ID,
		Email:    rec.Email,
		UserName: rec.UserName,
		FullName: rec.FullName,
	})
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := u.codec.IssueRefresh(domainauth.RefreshClaims{
		UserID:   rec.ID,
		Email:    rec.Email,
		FullName: rec.FullName,
	})
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return domainauth.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
