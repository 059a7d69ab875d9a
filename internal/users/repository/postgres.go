package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/buildwise-ai/buildwise-backend/internal/users/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `firebase_uid, email, display_name, photo_url, organization, role, created_at, updated_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var displayName, photoURL, organization sql.NullString
	var lastLoginAt sql.NullTime

	err := row.Scan(
		&u.FirebaseUID,
		&u.Email,
		&displayName,
		&photoURL,
		&organization,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if displayName.Valid {
		u.DisplayName = &displayName.String
	}
	if photoURL.Valid {
		u.PhotoURL = &photoURL.String
	}
	if organization.Valid {
		u.Organization = &organization.String
	}
	if lastLoginAt.Valid {
		u.LastLoginAt = &lastLoginAt.Time
	}
	return &u, nil
}

func (r *PostgresRepository) Get(ctx context.Context, uid string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE firebase_uid = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, uid))
}

func (r *PostgresRepository) Sync(ctx context.Context, req domain.SyncRequest) (*domain.User, error) {
	q := `
INSERT INTO users (firebase_uid, email, display_name, photo_url, organization, role, last_login_at)
VALUES ($1, $2, $3, $4, $5, 'user', now())
ON CONFLICT (firebase_uid) DO UPDATE
SET email = EXCLUDED.email,
    display_name = COALESCE(EXCLUDED.display_name, users.display_name),
    photo_url = COALESCE(EXCLUDED.photo_url, users.photo_url),
    organization = COALESCE(EXCLUDED.organization, users.organization),
    last_login_at = now(),
    updated_at = now()
RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, q,
		req.FirebaseUID, req.Email, req.DisplayName, req.PhotoURL, req.Organization))
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, domain.ErrEmailTaken
	}
	return u, err
}

func (r *PostgresRepository) Update(ctx context.Context, uid string, req domain.UpdateRequest) (*domain.User, error) {
	q := `
UPDATE users
SET display_name = COALESCE($2, display_name),
    photo_url = COALESCE($3, photo_url),
    organization = COALESCE($4, organization),
    updated_at = now()
WHERE firebase_uid = $1
RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q, uid, req.DisplayName, req.PhotoURL, req.Organization))
}

func (r *PostgresRepository) SetRoleByEmail(ctx context.Context, email, role string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE lower(email) = lower($1)`, email, role)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
