package report

import (
	"context"
	"testing"
	"time"

	"github.com/certitax/certitax/internal/certificate"
)

func cert(userID, email, status string, uploadedAt time.Time) certificate.Certificate {
	return certificate.Certificate{
		UserID:     userID,
		OwnerName:  email,
		OwnerEmail: email,
		Status:     status,
		UploadedAt: uploadedAt,
	}
}

func TestSummaryAggregates(t *testing.T) {
	now := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(
		cert("u1", "ana@x.cl", certificate.StatusPending, now.Add(-time.Hour)),
		cert("u1", "ana@x.cl", certificate.StatusValidated, now.Add(-25*time.Hour)),
		cert("u2", "beto@x.cl", certificate.StatusPending, now.Add(-time.Hour)),
	)
	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.Total != 3 {
		t.Fatalf("expected total 3, got %d", summary.Total)
	}
	if len(summary.ByStatus) != 2 {
		t.Fatalf("expected 2 estado buckets, got %d", len(summary.ByStatus))
	}
	if summary.ByStatus[0].Status != certificate.StatusPending || summary.ByStatus[0].Count != 2 {
		t.Fatalf("unexpected estado bucket %+v", summary.ByStatus[0])
	}
	if len(summary.ByUser) != 2 || summary.ByUser[0].UserID != "u1" || summary.ByUser[0].Count != 2 {
		t.Fatalf("unexpected per-user counts %+v", summary.ByUser)
	}
	if len(summary.UploadsPerDay) != 2 {
		t.Fatalf("expected uploads on 2 days, got %+v", summary.UploadsPerDay)
	}
}

func TestSummaryWindowExcludesOldUploads(t *testing.T) {
	now := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(
		cert("u1", "ana@x.cl", certificate.StatusPending, now.Add(-40*24*time.Hour)),
		cert("u1", "ana@x.cl", certificate.StatusPending, now.Add(-time.Hour)),
	)
	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	// Old uploads still count toward totals but drop out of the daily series.
	if summary.Total != 2 {
		t.Fatalf("expected total 2, got %d", summary.Total)
	}
	if len(summary.UploadsPerDay) != 1 || summary.UploadsPerDay[0].Day != "2026-07-15" {
		t.Fatalf("unexpected daily series %+v", summary.UploadsPerDay)
	}
}
