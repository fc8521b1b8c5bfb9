package certificate

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	certs map[string]Certificate
}

// NewMemoryRepository builds an in-memory certificate store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{certs: make(map[string]Certificate)}
}

func (r *memoryRepository) Create(_ context.Context, cert Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.certs[cert.ID] = cert
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cert, ok := r.certs[id]
	if !ok {
		return Certificate{}, ErrNotFound
	}
	return cert, nil
}

func (r *memoryRepository) List(_ context.Context, f Filters) ([]Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var certs []Certificate
	for _, cert := range r.certs {
		if f.UserID != "" && cert.UserID != f.UserID {
			continue
		}
		if f.Status != "" && cert.Status != f.Status {
			continue
		}
		if !f.FechaDesde.IsZero() && cert.UploadedAt.Before(f.FechaDesde) {
			continue
		}
		if !f.FechaHasta.IsZero() && cert.UploadedAt.After(f.FechaHasta) {
			continue
		}
		certs = append(certs, cert)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].UploadedAt.After(certs[j].UploadedAt) })
	return certs, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.certs[id]; !ok {
		return ErrNotFound
	}
	delete(r.certs, id)
	return nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cert, ok := r.certs[id]
	if !ok {
		return ErrNotFound
	}
	cert.Status = status
	r.certs[id] = cert
	return nil
}
