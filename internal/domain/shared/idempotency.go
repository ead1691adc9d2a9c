package shared

import (
	"context"
	"time"
)

// SubmissionGuard remembers client-supplied idempotency keys so a form that is
// submitted twice does not create two orders.
type SubmissionGuard interface {
	// Claim records key for ttl. It returns false when the key was already
	// claimed and has not expired.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets key, used when the guarded operation failed and the
	// client should be allowed to retry.
	Release(ctx context.Context, key string) error

	// Close releases resources held by the guard
	Close() error
}

// SubmissionConfig holds configuration for submission deduplication
type SubmissionConfig struct {
	// TTL is how long a key stays claimed. Default: 24 hours
	TTL time.Duration
	// Enabled turns the guard on or off. Default: true
	Enabled bool
}

// DefaultSubmissionConfig returns the default submission configuration
func DefaultSubmissionConfig() SubmissionConfig {
	return SubmissionConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
