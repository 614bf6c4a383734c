package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desa-digital/panel-desa/internal/shared"
)

// ErrDuplicateEmail indicates the email is already registered.
var ErrDuplicateEmail = errors.New("auth: email already registered")

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	TouchLogin(ctx context.Context, id int64, at time.Time) error
	CreateAdmin(ctx context.Context, admin Admin) (*Admin, error)
}

// DBTX is the pgx subset used by PGRepository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db DBTX) *PGRepository {
	return &PGRepository{db: db}
}

const adminColumns = `id, email, name, role, password_hash, is_active, last_login_at, created_at, updated_at`

// FindByEmail fetches an admin by email, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	row := r.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
	admin, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return admin, nil
}

// TouchLogin records the last successful login.
func (r *PGRepository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE admins SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, id, at.UTC())
	return err
}

// CreateAdmin inserts an admin and returns the stored record.
func (r *PGRepository) CreateAdmin(ctx context.Context, admin Admin) (*Admin, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO admins (email, name, role, password_hash, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+adminColumns, admin.Email, admin.Name, admin.Role, admin.PasswordHash, admin.IsActive)
	created, err := scanAdmin(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return created, nil
}

func scanAdmin(row pgx.Row) (*Admin, error) {
	var (
		admin     Admin
		lastLogin pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&admin.ID, &admin.Email, &admin.Name, &admin.Role, &admin.PasswordHash, &admin.IsActive, &lastLogin, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	admin.LastLoginAt = lastLogin.Time
	admin.CreatedAt = createdAt.Time
	admin.UpdatedAt = updatedAt.Time
	return &admin, nil
}

var _ Repository = (*PGRepository)(nil)
