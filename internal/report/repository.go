package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository over the certificados tables.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed report repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CountByStatus groups certificates by estado.
func (r *PostgresRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.db.Query(ctx, `SELECT estado, COUNT(*)
        FROM certificados_tributarios
        GROUP BY estado
        ORDER BY estado`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

// CountByUser groups certificates by owner, busiest first.
func (r *PostgresRepository) CountByUser(ctx context.Context) ([]UserCount, error) {
	rows, err := r.db.Query(ctx, `SELECT c.usuario_id, u.nombre, u.email, COUNT(*)
        FROM certificados_tributarios c
        JOIN usuarios u ON u.id = c.usuario_id
        GROUP BY c.usuario_id, u.nombre, u.email
        ORDER BY COUNT(*) DESC, u.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []UserCount
	for rows.Next() {
		var (
			id uuid.UUID
			uc UserCount
		)
		if err := rows.Scan(&id, &uc.Name, &uc.Email, &uc.Count); err != nil {
			return nil, err
		}
		uc.UserID = id.String()
		counts = append(counts, uc)
	}
	return counts, rows.Err()
}

// UploadsPerDay counts uploads per calendar day from since onward.
func (r *PostgresRepository) UploadsPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	rows, err := r.db.Query(ctx, `SELECT DATE(fecha_carga), COUNT(*)
        FROM certificados_tributarios
        WHERE fecha_carga >= $1
        GROUP BY DATE(fecha_carga)
        ORDER BY DATE(fecha_carga)`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []DayCount
	for rows.Next() {
		var (
			day time.Time
			dc  DayCount
		)
		if err := rows.Scan(&day, &dc.Count); err != nil {
			return nil, err
		}
		dc.Day = day.Format("2006-01-02")
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}
