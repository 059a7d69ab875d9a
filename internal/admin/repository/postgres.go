package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/buildwise-ai/buildwise-backend/internal/admin/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const requestColumns = `id, token, username, email, password_hash, justification, status, created_at, reviewed_at`

func scanRequest(row interface{ Scan(...any) error }) (*domain.Request, error) {
	var req domain.Request
	var status string
	var reviewed sql.NullTime
	err := row.Scan(&req.ID, &req.Token, &req.Username, &req.Email, &req.PasswordHash,
		&req.Justification, &status, &req.CreatedAt, &reviewed)
	if err != nil {
		return nil, err
	}
	req.Status = domain.Status(status)
	if reviewed.Valid {
		t := reviewed.Time
		req.ReviewedAt = &t
	}
	return &req, nil
}

// Create relies on the partial unique index on email for pending rows.
func (r *PostgresRepository) Create(ctx context.Context, req *domain.Request) error {
	const q = `
INSERT INTO admin_requests (id, token, username, email, password_hash, justification, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.db.ExecContext(ctx, q, req.ID, req.Token, req.Username, req.Email,
		req.PasswordHash, req.Justification, string(req.Status), req.CreatedAt)

	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicatePending
	}
	return err
}

func (r *PostgresRepository) Decide(ctx context.Context, token string, status domain.Status, at time.Time) (*domain.Request, error) {
	q := `
UPDATE admin_requests SET status = $2, reviewed_at = $3
WHERE token = $1 AND status = 'pending'
RETURNING ` + requestColumns
	req, err := scanRequest(r.db.QueryRowContext(ctx, q, token, string(status), at))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM admin_requests WHERE token = $1)`, token).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrAlreadyProcessed
}

func (r *PostgresRepository) List(ctx context.Context, status domain.Status) ([]domain.Request, error) {
	q := `SELECT ` + requestColumns + ` FROM admin_requests WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Request, 0, 16)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}
