package otp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "otp:v1:"

	// Expired records are kept for a grace period so a late submission is
	// reported as expired rather than not found. Redis sweeps them afterwards.
	expiredRetention = time.Hour
)

// Verify outcomes returned by the script.
const (
	verifyOK       = 0
	verifyNotFound = 1
	verifyExpired  = 2
	verifyMismatch = 3
	verifyLocked   = 4
)

// The whole lookup/expiry/attempt/consume sequence runs server-side so that
// concurrent verifications for the same email cannot both consume the code.
var verifyScript = redis.NewScript(`
local key = KEYS[1]
local code = ARGV[1]
local now = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
if redis.call('EXISTS', key) == 0 then
  return 1
end
local attempts = tonumber(redis.call('HGET', key, 'attempts') or '0')
if attempts >= max then
  redis.call('DEL', key)
  return 4
end
local expires = tonumber(redis.call('HGET', key, 'expires_at'))
if now > expires then
  return 2
end
if redis.call('HGET', key, 'code') ~= code then
  redis.call('HINCRBY', key, 'attempts', 1)
  return 3
end
redis.call('DEL', key)
return 0
`)

// RedisStore keeps pending codes in Redis hashes with a TTL, so state is
// shared across instances and dead entries are swept automatically.
type RedisStore struct {
	client      *redis.Client
	maxAttempts int
}

// NewRedisStore builds a Redis-backed OTP store. maxAttempts bounds wrong
// submissions before the code is invalidated.
func NewRedisStore(client *redis.Client, maxAttempts int) *RedisStore {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &RedisStore{client: client, maxAttempts: maxAttempts}
}

// Put stores the record under the email key, overwriting any previous code.
func (s *RedisStore) Put(ctx context.Context, email string, rec Record) error {
	key := keyPrefix + email
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"code", rec.Code,
		"expires_at", rec.ExpiresAt.Unix(),
		"attempts", rec.Attempts,
	)
	pipe.Expire(ctx, key, time.Until(rec.ExpiresAt)+expiredRetention)
	_, err := pipe.Exec(ctx)
	return err
}

// Verify runs the atomic verification script.
func (s *RedisStore) Verify(ctx context.Context, email, code string, now time.Time) error {
	res, err := verifyScript.Run(ctx, s.client, []string{keyPrefix + email},
		code, strconv.FormatInt(now.Unix(), 10), strconv.Itoa(s.maxAttempts)).Int()
	if err != nil {
		return err
	}
	switch res {
	case verifyOK:
		return nil
	case verifyNotFound:
		return ErrNotFound
	case verifyExpired:
		return ErrExpired
	case verifyMismatch:
		return ErrMismatch
	case verifyLocked:
		return ErrTooManyAttempts
	default:
		return fmt.Errorf("unexpected verify result %d", res)
	}
}

// Delete discards any pending code for the email.
func (s *RedisStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, keyPrefix+email).Err()
}
