package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/certitax/certitax/internal/certificate"
)

type memoryRepository struct {
	mu    sync.RWMutex
	certs []certificate.Certificate
}

// NewMemoryRepository builds an in-memory report repository for testing.
func NewMemoryRepository(certs ...certificate.Certificate) *memoryRepository {
	return &memoryRepository{certs: certs}
}

// Add appends a certificate to the aggregate source.
func (r *memoryRepository) Add(cert certificate.Certificate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.certs = append(r.certs, cert)
}

func (r *memoryRepository) CountByStatus(context.Context) ([]StatusCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byStatus := make(map[string]int64)
	for _, cert := range r.certs {
		byStatus[cert.Status]++
	}
	counts := make([]StatusCount, 0, len(byStatus))
	for status, n := range byStatus {
		counts = append(counts, StatusCount{Status: status, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Status < counts[j].Status })
	return counts, nil
}

func (r *memoryRepository) CountByUser(context.Context) ([]UserCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byUser := make(map[string]*UserCount)
	for _, cert := range r.certs {
		uc, ok := byUser[cert.UserID]
		if !ok {
			uc = &UserCount{UserID: cert.UserID, Name: cert.OwnerName, Email: cert.OwnerEmail}
			byUser[cert.UserID] = uc
		}
		uc.Count++
	}
	counts := make([]UserCount, 0, len(byUser))
	for _, uc := range byUser {
		counts = append(counts, *uc)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Email < counts[j].Email
	})
	return counts, nil
}

func (r *memoryRepository) UploadsPerDay(_ context.Context, since time.Time) ([]DayCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byDay := make(map[string]int64)
	for _, cert := range r.certs {
		if cert.UploadedAt.Before(since) {
			continue
		}
		byDay[cert.UploadedAt.UTC().Format("2006-01-02")]++
	}
	counts := make([]DayCount, 0, len(byDay))
	for day, n := range byDay {
		counts = append(counts, DayCount{Day: day, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Day < counts[j].Day })
	return counts, nil
}
