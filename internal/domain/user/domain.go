package user

import (
	"strings"
	"time"
)

// User is the account record. Password always holds a bcrypt hash once
// persisted; RefreshToken is the single session slot and is written only
// through the auth.SessionStore port.
type User struct {
	ID            int64     `json:"id"`
	UserName      string    `json:"userName"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	Password      string    `json:"-"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Profile is the client-facing projection: password and refresh-token
// fields never leave the service.
type Profile struct {
	ID            int64     `json:"id"`
	UserName      string    `json:"userName"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:            u.ID,
		UserName:      u.UserName,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// ChannelProfile is the aggregated public view of an account.
type ChannelProfile struct {
	Profile
	SubscriberCount   int64 `json:"subscriberCount"`
	SubscribedToCount int64 `json:"subscribedToCount"`
	IsSubscribed      bool  `json:"isSubscribed"`
}

func NormalizeUserName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
func NormalizeEmail(s string) string    { return strings.ToLower(strings.TrimSpace(s)) }
