package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedisStore(client, 3), mr
}

func TestRedisStoreVerifyLifecycle(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := store.Verify(ctx, "user@x.com", "123456", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before issuance, got %v", err)
	}

	if err := store.Put(ctx, "user@x.com", Record{Code: "123456", ExpiresAt: now.Add(5 * time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := store.Verify(ctx, "user@x.com", "654321", now); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	if err := store.Verify(ctx, "user@x.com", "123456", now); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := store.Verify(ctx, "user@x.com", "123456", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after consumption, got %v", err)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := store.Put(ctx, "user@x.com", Record{Code: "482913", ExpiresAt: now.Add(5 * time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Six minutes later the record still exists but reports expiry.
	if err := store.Verify(ctx, "user@x.com", "482913", now.Add(6*time.Minute)); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	// It stays expired on retry; Redis sweeps it after the retention window.
	if err := store.Verify(ctx, "user@x.com", "482913", now.Add(7*time.Minute)); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired on retry, got %v", err)
	}
}

func TestRedisStoreRetentionSweep(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := store.Put(ctx, "user@x.com", Record{Code: "482913", ExpiresAt: now.Add(5 * time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	mr.FastForward(5*time.Minute + expiredRetention + time.Second)

	if err := store.Verify(ctx, "user@x.com", "482913", now.Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL sweep, got %v", err)
	}
}

func TestRedisStorePutOverwrites(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := store.Put(ctx, "user@x.com", Record{Code: "111111", ExpiresAt: now.Add(5 * time.Minute)}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	// Burn attempts on the first code, then re-issue: the counter resets.
	store.Verify(ctx, "user@x.com", "000000", now)
	store.Verify(ctx, "user@x.com", "000000", now)

	if err := store.Put(ctx, "user@x.com", Record{Code: "222222", ExpiresAt: now.Add(5 * time.Minute)}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	if err := store.Verify(ctx, "user@x.com", "111111", now); !errors.Is(err, ErrMismatch) {
		t.Fatalf("superseded code should mismatch, got %v", err)
	}
	if err := store.Verify(ctx, "user@x.com", "222222", now); err != nil {
		t.Fatalf("latest code should verify: %v", err)
	}
}

func TestRedisStoreLockout(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := store.Put(ctx, "user@x.com", Record{Code: "123456", ExpiresAt: now.Add(5 * time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.Verify(ctx, "user@x.com", "999999", now); !errors.Is(err, ErrMismatch) {
			t.Fatalf("attempt %d: expected ErrMismatch, got %v", i, err)
		}
	}
	if err := store.Verify(ctx, "user@x.com", "123456", now); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if err := store.Verify(ctx, "user@x.com", "123456", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("lockout should delete the record, got %v", err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := store.Put(ctx, "user@x.com", Record{Code: "123456", ExpiresAt: now.Add(5 * time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "user@x.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Verify(ctx, "user@x.com", "123456", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
