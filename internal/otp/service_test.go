package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/certitax/certitax/internal/logging"
)

type recordingMailer struct {
	sent []string
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, to, _, body string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, to+": "+body)
	return nil
}

func newTestService(mail *recordingMailer) (*Service, Store) {
	store := NewMemoryStore(5)
	return NewService(store, mail, 5*time.Minute, logging.Discard()), store
}

func TestIssueAndVerify(t *testing.T) {
	mail := &recordingMailer{}
	svc, _ := newTestService(mail)
	ctx := context.Background()

	if err := svc.Issue(ctx, "user@x.com", "100200"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mail.sent))
	}

	if err := svc.Verify(ctx, "user@x.com", "999999"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	// A wrong code leaves the record intact.
	if err := svc.Verify(ctx, "user@x.com", "100200"); err != nil {
		t.Fatalf("verify after mismatch: %v", err)
	}
	// The code is consumed on success.
	if err := svc.Verify(ctx, "user@x.com", "100200"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after consumption, got %v", err)
	}
}

func TestIssueRejectsEmptyAndMalformedCodes(t *testing.T) {
	mail := &recordingMailer{}
	svc, _ := newTestService(mail)
	ctx := context.Background()

	if err := svc.Issue(ctx, "user@x.com", ""); !errors.Is(err, ErrEmptyCode) {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}
	if err := svc.Issue(ctx, "user@x.com", "12345"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for short code, got %v", err)
	}
	if err := svc.Issue(ctx, "user@x.com", "12a456"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for non-digits, got %v", err)
	}
	if len(mail.sent) != 0 {
		t.Fatalf("no mail should be sent for rejected codes")
	}
}

func TestReissueOverwritesPreviousCode(t *testing.T) {
	mail := &recordingMailer{}
	svc, _ := newTestService(mail)
	ctx := context.Background()

	if err := svc.Issue(ctx, "user@x.com", "111111"); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if err := svc.Issue(ctx, "user@x.com", "222222"); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if err := svc.Verify(ctx, "user@x.com", "111111"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("superseded code should mismatch, got %v", err)
	}
	if err := svc.Verify(ctx, "user@x.com", "222222"); err != nil {
		t.Fatalf("latest code should verify: %v", err)
	}
}

func TestExpiredCodeRejected(t *testing.T) {
	store := NewMemoryStore(5)
	ctx := context.Background()

	issued := time.Now()
	if err := store.Put(ctx, "user@x.com", Record{Code: "482913", ExpiresAt: issued.Add(5 * time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := store.Verify(ctx, "user@x.com", "482913", issued.Add(6*time.Minute)); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	// Long after the retention window the record is gone entirely.
	if err := store.Verify(ctx, "user@x.com", "482913", issued.Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after retention, got %v", err)
	}
}

func TestAttemptLockout(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()
	now := time.Now()

	if err := store.Put(ctx, "user@x.com", Record{Code: "123456", ExpiresAt: now.Add(5 * time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.Verify(ctx, "user@x.com", "000000", now); !errors.Is(err, ErrMismatch) {
			t.Fatalf("attempt %d: expected ErrMismatch, got %v", i, err)
		}
	}
	// The fourth attempt is locked out even with the correct code.
	if err := store.Verify(ctx, "user@x.com", "123456", now); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	// Lockout invalidates the record.
	if err := store.Verify(ctx, "user@x.com", "123456", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after lockout, got %v", err)
	}
}

func TestMailFailureKeepsStoredCode(t *testing.T) {
	mail := &recordingMailer{fail: true}
	svc, _ := newTestService(mail)
	ctx := context.Background()

	if err := svc.Issue(ctx, "user@x.com", "100200"); err == nil {
		t.Fatalf("expected send failure to surface")
	}
	// The code was stored before the send and stays valid.
	if err := svc.Verify(ctx, "user@x.com", "100200"); err != nil {
		t.Fatalf("verify after failed send: %v", err)
	}
}

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !ValidCode(code) {
			t.Fatalf("generated code %q is not 6 digits", code)
		}
	}
}
