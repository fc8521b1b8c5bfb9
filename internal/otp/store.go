package otp

import (
	"context"
	"time"
)

// Store holds pending codes keyed by email. Implementations must make Verify
// atomic: two concurrent calls with the correct code must not both succeed.
type Store interface {
	// Put stores the record, replacing any live code for the email.
	Put(ctx context.Context, email string, rec Record) error
	// Verify checks code against the stored record at the given instant and
	// consumes it on success. Returns nil, ErrNotFound, ErrExpired,
	// ErrMismatch or ErrTooManyAttempts.
	Verify(ctx context.Context, email, code string, now time.Time) error
	// Delete discards any pending code for the email.
	Delete(ctx context.Context, email string) error
}
