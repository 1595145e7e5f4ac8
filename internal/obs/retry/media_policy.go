package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultMediaPolicy bounds blob-store uploads; token and credential
// failures elsewhere are terminal and never pass through here.
func DefaultMediaPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "media_upload",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 150 * time.Millisecond, Max: 3 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("media upload retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("media upload retries exhausted", zap.Error(err))
			}
		},
	}
}
