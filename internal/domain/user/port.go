package user

import "context"

type Repo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUserNameOrEmail(ctx context.Context, identifier string) (*User, error)
	GetByUserName(ctx context.Context, userName string) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// SubscriptionRepo answers the channel-profile aggregation.
type SubscriptionRepo interface {
	SubscriberCount(ctx context.Context, channelID int64) (int64, error)
	SubscribedToCount(ctx context.Context, subscriberID int64) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID int64) (bool, error)
}
