package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no matching user row.
var ErrNotFound = errors.New("usuario no encontrado")

// ErrRoleNotFound indicates the requested role does not exist.
var ErrRoleNotFound = errors.New("rol no encontrado")

// Repository persists user profiles.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user User) error
	Delete(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	RoleID(ctx context.Context, roleName string) (int, error)
}

const userColumns = `u.id, u.email, u.nombre, u.rol_id, r.nombre_rol, u.estado,
        u.activo, u.mfa_habilitado, u.password_hash, u.ultimo_acceso, u.created_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new profile row.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO usuarios
        (id, email, nombre, rol_id, estado, activo, mfa_habilitado, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		userID, user.Email, user.Name, user.RoleID, user.Status, user.Active,
		user.MFAEnabled, user.PasswordHash, user.CreatedAt.UTC())
	return err
}

// FindByID fetches a user and its role by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+`
        FROM usuarios u JOIN roles r ON r.id = u.rol_id WHERE u.id = $1`, userID)
	return scanUser(row)
}

// FindByEmail fetches a user and its role by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+`
        FROM usuarios u JOIN roles r ON r.id = u.rol_id WHERE u.email = $1`, email)
	return scanUser(row)
}

// List returns all users ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+`
        FROM usuarios u JOIN roles r ON r.id = u.rol_id ORDER BY u.nombre ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update persists mutable profile fields.
func (r *PostgresRepository) Update(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE usuarios
        SET nombre = $1, rol_id = $2, estado = $3, activo = $4, mfa_habilitado = $5
        WHERE id = $6`,
		user.Name, user.RoleID, user.Status, user.Active, user.MFAEnabled, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a profile row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE usuarios SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastLogin stamps the last access time.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = r.db.Exec(ctx, `UPDATE usuarios SET ultimo_acceso = $1 WHERE id = $2`, at.UTC(), userID)
	return err
}

// RoleID resolves a role name to its identifier.
func (r *PostgresRepository) RoleID(ctx context.Context, roleName string) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `SELECT id FROM roles WHERE nombre_rol = $1`, roleName).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRoleNotFound
		}
		return 0, err
	}
	return id, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		lastLogin *time.Time
		createdAt time.Time
		user      User
	)
	err := row.Scan(&id, &user.Email, &user.Name, &user.RoleID, &user.Role, &user.Status,
		&user.Active, &user.MFAEnabled, &user.PasswordHash, &lastLogin, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.LastLogin = lastLogin
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
