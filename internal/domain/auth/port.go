package auth

import "context"

// SessionStore owns the single refresh-token slot on the account record.
// Nothing outside the session manager reads or writes the slot.
type SessionStore interface {
	// SetRefreshToken overwrites the slot; last writer wins.
	SetRefreshToken(ctx context.Context, userID int64, token string) error
	// GetRefreshToken returns the stored token, or "" when the slot is empty.
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
	// ClearRefreshToken empties the slot; idempotent.
	ClearRefreshToken(ctx context.Context, userID int64) error
}
