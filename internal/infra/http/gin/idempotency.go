package ginserver

import (
	"context"
	"time"
)

// IdempotencyStore replays the response of a completed request when a client
// retries it with the same Idempotency-Key. Only successful creations are
// recorded; a failed attempt may be retried for real.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}
