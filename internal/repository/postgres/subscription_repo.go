package postgres

import (
	"context"
	"fmt"

	"github.com/streamtube/backend/internal/domain/user"
)

var _ user.SubscriptionRepo = (*SubscriptionRepo)(nil)

type SubscriptionRepo struct{ db *DB }

func NewSubscriptionRepo(db *DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const (
	qSubscriberCount = `
SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1;`

	qSubscribedToCount = `
SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1;`

	qIsSubscribed = `
SELECT EXISTS (
  SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
);`
)

func (r *SubscriptionRepo) SubscriberCount(ctx context.Context, channelID int64) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.db.Pool.QueryRow(ctx, qSubscriberCount, channelID).Scan(&n); err != nil {
		return 0, fmt.Errorf("subscriber count: %w", err)
	}
	return n, nil
}

func (r *SubscriptionRepo) SubscribedToCount(ctx context.Context, subscriberID int64) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.db.Pool.QueryRow(ctx, qSubscribedToCount, subscriberID).Scan(&n); err != nil {
		return 0, fmt.Errorf("subscribed-to count: %w", err)
	}
	return n, nil
}

func (r *SubscriptionRepo) IsSubscribed(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var ok bool
	if err := r.db.Pool.QueryRow(ctx, qIsSubscribed, subscriberID, channelID).Scan(&ok); err != nil {
		return false, fmt.Errorf("is subscribed: %w", err)
	}
	return ok, nil
}
