package report

import (
	"context"
	"time"
)

// StatusCount is one slice of the estado breakdown.
type StatusCount struct {
	Status string `json:"estado"`
	Count  int64  `json:"cantidad"`
}

// UserCount aggregates certificates per owning user.
type UserCount struct {
	UserID string `json:"usuarioId"`
	Name   string `json:"nombre"`
	Email  string `json:"email"`
	Count  int64  `json:"cantidad"`
}

// DayCount aggregates uploads per calendar day (UTC).
type DayCount struct {
	Day   string `json:"fecha"`
	Count int64  `json:"cantidad"`
}

// Summary is the dashboard payload.
type Summary struct {
	Total         int64         `json:"total"`
	ByStatus      []StatusCount `json:"porEstado"`
	ByUser        []UserCount   `json:"porUsuario"`
	UploadsPerDay []DayCount    `json:"porDia"`
}

// Repository runs the aggregate queries behind the summary.
type Repository interface {
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	CountByUser(ctx context.Context) ([]UserCount, error)
	UploadsPerDay(ctx context.Context, since time.Time) ([]DayCount, error)
}

// uploadsWindow bounds the per-day series.
const uploadsWindow = 30 * 24 * time.Hour

// Service assembles the reporting summary.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the report service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Summary gathers the estado totals, per-user counts and the last 30 days of
// upload activity.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Summary{}, err
	}
	byUser, err := s.repo.CountByUser(ctx)
	if err != nil {
		return Summary{}, err
	}
	since := s.now().UTC().Add(-uploadsWindow).Truncate(24 * time.Hour)
	perDay, err := s.repo.UploadsPerDay(ctx, since)
	if err != nil {
		return Summary{}, err
	}

	var total int64
	for _, sc := range byStatus {
		total += sc.Count
	}
	return Summary{
		Total:         total,
		ByStatus:      byStatus,
		ByUser:        byUser,
		UploadsPerDay: perDay,
	}, nil
}
