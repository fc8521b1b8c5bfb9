package certificate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no matching certificate row.
var ErrNotFound = errors.New("certificado no encontrado")

// Repository persists certificate metadata.
type Repository interface {
	Create(ctx context.Context, cert Certificate) error
	Get(ctx context.Context, id string) (Certificate, error)
	List(ctx context.Context, f Filters) ([]Certificate, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id, status string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed certificate repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const certColumns = `c.id, c.usuario_id, c.nombre_archivo, c.storage_key, c.tipo_archivo,
        c.tamano_bytes, c.estado, c.fecha_carga, u.nombre, u.email`

// Create inserts a certificate row.
func (r *PostgresRepository) Create(ctx context.Context, cert Certificate) error {
	certID, err := uuid.Parse(cert.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(cert.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO certificados_tributarios
        (id, usuario_id, nombre_archivo, storage_key, tipo_archivo, tamano_bytes, estado, fecha_carga)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		certID, userID, cert.FileName, cert.StorageKey, cert.MimeType,
		cert.SizeBytes, cert.Status, cert.UploadedAt.UTC())
	return err
}

// Get fetches a certificate with its owner fields.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Certificate, error) {
	certID, err := uuid.Parse(id)
	if err != nil {
		return Certificate{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+certColumns+`
        FROM certificados_tributarios c
        JOIN usuarios u ON u.id = c.usuario_id
        WHERE c.id = $1`, certID)
	return scanCertificate(row)
}

// List returns certificates matching the filters, newest first.
func (r *PostgresRepository) List(ctx context.Context, f Filters) ([]Certificate, error) {
	query := `SELECT ` + certColumns + `
        FROM certificados_tributarios c
        JOIN usuarios u ON u.id = c.usuario_id
        WHERE 1=1`
	var args []any

	if f.UserID != "" {
		userID, err := uuid.Parse(f.UserID)
		if err != nil {
			return nil, ErrNotFound
		}
		args = append(args, userID)
		query += fmt.Sprintf(" AND c.usuario_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND c.estado = $%d", len(args))
	}
	if !f.FechaDesde.IsZero() {
		args = append(args, f.FechaDesde.UTC())
		query += fmt.Sprintf(" AND c.fecha_carga >= $%d", len(args))
	}
	if !f.FechaHasta.IsZero() {
		args = append(args, f.FechaHasta.UTC())
		query += fmt.Sprintf(" AND c.fecha_carga <= $%d", len(args))
	}
	query += " ORDER BY c.fecha_carga DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}

// Delete removes a certificate row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	certID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM certificados_tributarios WHERE id = $1`, certID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets the estado column.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	certID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE certificados_tributarios SET estado = $1 WHERE id = $2`, status, certID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCertificate(row pgx.Row) (Certificate, error) {
	var (
		id       uuid.UUID
		userID   uuid.UUID
		uploaded time.Time
		cert     Certificate
	)
	err := row.Scan(&id, &userID, &cert.FileName, &cert.StorageKey, &cert.MimeType,
		&cert.SizeBytes, &cert.Status, &uploaded, &cert.OwnerName, &cert.OwnerEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Certificate{}, ErrNotFound
		}
		return Certificate{}, err
	}
	cert.ID = id.String()
	cert.UserID = userID.String()
	cert.UploadedAt = uploaded.UTC()
	return cert, nil
}
