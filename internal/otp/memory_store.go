package otp

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu          sync.Mutex
	records     map[string]*Record
	maxAttempts int
}

// NewMemoryStore builds an in-memory OTP store for testing. Semantics mirror
// the Redis store, including the retention window for expired records.
func NewMemoryStore(maxAttempts int) Store {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &memoryStore{records: make(map[string]*Record), maxAttempts: maxAttempts}
}

func (s *memoryStore) Put(_ context.Context, email string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[email] = &rec
	return nil
}

func (s *memoryStore) Verify(_ context.Context, email, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok || now.After(rec.ExpiresAt.Add(expiredRetention)) {
		delete(s.records, email)
		return ErrNotFound
	}
	if rec.Attempts >= s.maxAttempts {
		delete(s.records, email)
		return ErrTooManyAttempts
	}
	if now.After(rec.ExpiresAt) {
		return ErrExpired
	}
	if rec.Code != code {
		rec.Attempts++
		return ErrMismatch
	}
	delete(s.records, email)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
	return nil
}
