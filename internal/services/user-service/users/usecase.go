package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	appauth "github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/domain/media"
	"github.com/streamtube/backend/internal/domain/user"
	pg "github.com/streamtube/backend/internal/repository/postgres"
)

var (
	ErrMissingFields   = errors.New("required fields are missing")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	ErrAvatarRequired  = errors.New("avatar file is required")
	ErrUserExists      = errors.New("user with this email or username already exists")
	ErrUploadFailed    = errors.New("media upload failed")
	ErrNotFound        = errors.New("user not found")
	ErrChannelNotFound = errors.New("channel not found")
)

type Usecase struct {
	users  user.Repo
	subs   user.SubscriptionRepo
	media  media.Store
	hasher *appauth.Hasher
	log    *zap.Logger
}

func NewUsecase(users user.Repo, subs user.SubscriptionRepo, store media.Store, hasher *appauth.Hasher, log *zap.Logger) *Usecase {
	return &Usecase{users: users, subs: subs, media: store, hasher: hasher, log: log}
}

type RegisterInput struct {
	FullName       string
	Email          string
	UserName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// Register creates the account in the Anonymous state: no tokens are
// issued and the refresh slot stays empty until the first login.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	userName := user.NormalizeUserName(in.UserName)
	email := user.NormalizeEmail(in.Email)

	if fullName == "" || userName == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if len(in.Password) > 72 {
		return nil, ErrPasswordTooLong
	}
	if in.AvatarPath == "" {
		return nil, ErrAvatarRequired
	}

	for _, identifier := range []string{userName, email} {
		if _, err := u.users.GetByUserNameOrEmail(ctx, identifier); err == nil {
			return nil, ErrUserExists
		} else if !errors.Is(err, pg.ErrNotFound) {
			return nil, fmt.Errorf("uniqueness check: %w", err)
		}
	}

	avatarURL, err := u.media.Upload(ctx, in.AvatarPath)
	if err != nil {
		return nil, fmt.Errorf("%w: avatar: %v", ErrUploadFailed, err)
	}

	var coverURL string
	if in.CoverImagePath != "" {
		coverURL, err = u.media.Upload(ctx, in.CoverImagePath)
		if err != nil {
			u.removeBlob(ctx, avatarURL)
			return nil, fmt.Errorf("%w: cover image: %v", ErrUploadFailed, err)
		}
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rec := &user.User{
		UserName:      userName,
		Email:         email,
		FullName:      fullName,
		Password:      hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}
	if err := u.users.Create(ctx, rec); err != nil {
		u.removeBlob(ctx, avatarURL)
		u.removeBlob(ctx, coverURL)
		if errors.Is(err, pg.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return rec, nil
}

func (u *Usecase) UpdateAvatar(ctx context.Context, userID int64, avatarPath string) (*user.User, error) {
	if avatarPath == "" {
		return nil, ErrAvatarRequired
	}

	rec, err := u.getByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := u.media.Upload(ctx, avatarPath)
	if err != nil {
		return nil, fmt.Errorf("%w: avatar: %v", ErrUploadFailed, err)
	}

	old := rec.AvatarURL
	rec.AvatarURL = url
	if err := u.users.Update(ctx, rec); err != nil {
		u.removeBlob(ctx, url)
		return nil, fmt.Errorf("update user: %w", err)
	}

	u.removeBlob(ctx, old)
	return rec, nil
}

func (u *Usecase) UpdateDetails(ctx context.Context, userID int64, fullName, email string) (*user.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = user.NormalizeEmail(email)
	if fullName == "" || email == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	rec, err := u.getByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec.FullName = fullName
	rec.Email = email
	if err := u.users.Update(ctx, rec); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return rec, nil
}

type ProfileUpdateInput struct {
	FullName       string
	Email          string
	AvatarPath     string
	CoverImagePath string
}

// UpdateProfile is the combined fields+files update. The password is
// untouched here, so no re-hash ever happens on this path.
func (u *Usecase) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdateInput) (*user.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := user.NormalizeEmail(in.Email)
	if fullName == "" && email == "" && in.AvatarPath == "" && in.CoverImagePath == "" {
		return nil, ErrMissingFields
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
	}

	rec, err := u.getByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var oldAvatar, oldCover string
	if in.AvatarPath != "" {
		url, err := u.media.Upload(ctx, in.AvatarPath)
		if err != nil {
			return nil, fmt.Errorf("%w: avatar: %v", ErrUploadFailed, err)
		}
		oldAvatar, rec.AvatarURL = rec.AvatarURL, url
	}
	if in.CoverImagePath != "" {
		url, err := u.media.Upload(ctx, in.CoverImagePath)
		if err != nil {
			u.removeBlob(ctx, rec.AvatarURL)
			return nil, fmt.Errorf("%w: cover image: %v", ErrUploadFailed, err)
		}
		oldCover, rec.CoverImageURL = rec.CoverImageURL, url
	}
	if fullName != "" {
		rec.FullName = fullName
	}
	if email != "" {
		rec.Email = email
	}

	if err := u.users.Update(ctx, rec); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	u.removeBlob(ctx, oldAvatar)
	u.removeBlob(ctx, oldCover)
	return rec, nil
}

// ChannelProfile aggregates the public channel view for userName, with
// subscription counts and whether the requester subscribes to it.
func (u *Usecase) ChannelProfile(ctx context.Context, requesterID int64, userName string) (*user.ChannelProfile, error) {
	userName = user.NormalizeUserName(userName)
	if userName == "" {
		return nil, ErrMissingFields
	}

	rec, err := u.users.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("lookup channel: %w", err)
	}

	subscribers, err := u.subs.SubscriberCount(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("subscriber count: %w", err)
	}
	subscribedTo, err := u.subs.SubscribedToCount(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("subscribed-to count: %w", err)
	}

	var isSubscribed bool
	if requesterID > 0 && requesterID != rec.ID {
		isSubscribed, err = u.subs.IsSubscribed(ctx, requesterID, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("is subscribed: %w", err)
		}
	}

	return &user.ChannelProfile{
		Profile:           *rec.Profile(),
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

func (u *Usecase) getByID(ctx context.Context, userID int64) (*user.User, error) {
	rec, err := u.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return rec, nil
}

// removeBlob is best-effort cleanup; failures are logged, never surfaced.
func (u *Usecase) removeBlob(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := u.media.Remove(ctx, url); err != nil {
		u.log.Warn("remove media", zap.String("url", url), zap.Error(err))
	}
}
