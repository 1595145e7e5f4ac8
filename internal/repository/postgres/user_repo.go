package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	domainauth "github.com/streamtube/backend/internal/domain/auth"
	"github.com/streamtube/backend/internal/domain/user"
)

var (
	_ user.Repo               = (*UserRepo)(nil)
	_ domainauth.SessionStore = (*UserRepo)(nil)
)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserCols = `id, user_name, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

	qUserInsert = `
INSERT INTO users (user_name, email, full_name, password_hash, avatar_url, cover_image_url)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
RETURNING ` + qUserCols + `;`

	qUserByID = `
SELECT ` + qUserCols + `
FROM users
WHERE id = $1;`

	qUserByUserNameOrEmail = `
SELECT ` + qUserCols + `
FROM users
WHERE user_name = $1 OR email = $1;`

	qUserByUserName = `
SELECT ` + qUserCols + `
FROM users
WHERE user_name = $1;`

	qUserUpdate = `
UPDATE users
SET user_name       = $2,
    email           = $3,
    full_name       = $4,
    avatar_url      = $5,
    cover_image_url = NULLIF($6, ''),
    updated_at      = NOW()
WHERE id = $1
RETURNING ` + qUserCols + `;`

	qUserUpdatePassword = `
UPDATE users
SET password_hash = $2,
    updated_at    = NOW()
WHERE id = $1;`

	qRefreshTokenSet = `
UPDATE users SET refresh_token = $2, updated_at = NOW() WHERE id = $1;`

	qRefreshTokenGet = `
SELECT refresh_token FROM users WHERE id = $1;`

	qRefreshTokenClear = `
UPDATE users SET refresh_token = NULL, updated_at = NOW() WHERE id = $1;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qUserInsert,
		u.UserName, u.Email, u.FullName, u.Password, u.AvatarURL, u.CoverImageURL)
	if err := scanUser(row, u); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUserNameOrEmail(ctx context.Context, identifier string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByUserNameOrEmail, identifier), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUserName(ctx context.Context, userName string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByUserName, userName), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qUserUpdate,
		u.ID, u.UserName, u.Email, u.FullName, u.AvatarURL, u.CoverImageURL)
	if err := scanUser(row, u); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("user update: %w", err)
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Pool.Exec(ctx, qUserUpdatePassword, id, passwordHash)
	if err != nil {
		return fmt.Errorf("password update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SessionStore: the refresh-token slot lives on the users row, so at most
// one token per account can ever be current.

func (r *UserRepo) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Pool.Exec(ctx, qRefreshTokenSet, userID, token)
	if err != nil {
		return fmt.Errorf("refresh token set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var token sql.NullString
	if err := r.db.Pool.QueryRow(ctx, qRefreshTokenGet, userID).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("refresh token get: %w", err)
	}
	return token.String, nil
}

func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qRefreshTokenClear, userID); err != nil {
		return fmt.Errorf("refresh token clear: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row, out *user.User) error {
	var cover, refresh sql.NullString
	if err := row.Scan(
		&out.ID, &out.UserName, &out.Email, &out.FullName, &out.Password,
		&out.AvatarURL, &cover, &refresh, &out.CreatedAt, &out.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	out.CoverImageURL = cover.String
	out.RefreshToken = refresh.String
	return nil
}
