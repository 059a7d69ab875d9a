package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/buildwise-ai/buildwise-backend/internal/projects/domain"
)

// PostgresRepository stores the nested project parts as jsonb columns.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const projectColumns = `id, user_id, name, description, land_dimensions, budget, location, preferences, status, floor_plans, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var description sql.NullString
	var land, budget, location, prefs, plans []byte
	var status string

	err := row.Scan(&p.ID, &p.UserID, &p.Name, &description,
		&land, &budget, &location, &prefs, &status, &plans,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.Status = domain.Status(status)
	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{land, &p.LandDimensions},
		{budget, &p.Budget},
		{location, &p.Location},
		{prefs, &p.Preferences},
		{plans, &p.FloorPlans},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", p.ID, err)
		}
	}
	if p.FloorPlans == nil {
		p.FloorPlans = []domain.FloorPlan{}
	}
	return &p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *domain.Project) error {
	land, budget, location, prefs, err := marshalParts(p)
	if err != nil {
		return err
	}
	if p.FloorPlans == nil {
		p.FloorPlans = []domain.FloorPlan{}
	}
	plans, err := json.Marshal(p.FloorPlans)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO projects (id, user_id, name, description, land_dimensions, budget, location, preferences, status, floor_plans, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
`
	_, err = r.db.ExecContext(ctx, q,
		p.ID, p.UserID, p.Name, p.Description,
		land, budget, location, prefs, string(p.Status), string(plans),
		p.CreatedAt, p.UpdatedAt)

	// unique violation on id: caller retries with a fresh one
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicateID
	}
	return err
}

func marshalParts(p *domain.Project) (land, budget, location, prefs string, err error) {
	parts := []any{p.LandDimensions, p.Budget, p.Location, p.Preferences}
	out := make([]string, len(parts))
	for i, v := range parts {
		b, err := json.Marshal(v)
		if err != nil {
			return "", "", "", "", err
		}
		out[i] = string(b)
	}
	return out[0], out[1], out[2], out[3], nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Project, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	budget, err := nullableJSON(patch.Budget)
	if err != nil {
		return nil, err
	}
	location, err := nullableJSON(patch.Location)
	if err != nil {
		return nil, err
	}
	prefs, err := nullableJSON(patch.Preferences)
	if err != nil {
		return nil, err
	}

	q := `
UPDATE projects
SET name = COALESCE($2, name),
    description = COALESCE($3, description),
    status = COALESCE($4, status),
    budget = COALESCE($5::jsonb, budget),
    location = COALESCE($6::jsonb, location),
    preferences = COALESCE($7::jsonb, preferences),
    updated_at = now()
WHERE id = $1
RETURNING ` + projectColumns
	return scanProject(r.db.QueryRowContext(ctx, q,
		id, patch.Name, patch.Description, status, budget, location, prefs))
}

func nullableJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendFloorPlan concatenates onto the jsonb array inside one UPDATE, so
// concurrent appends never overwrite each other.
func (r *PostgresRepository) AppendFloorPlan(ctx context.Context, projectID string, fp domain.FloorPlan) error {
	raw, err := json.Marshal(fp)
	if err != nil {
		return err
	}
	const q = `
UPDATE projects
SET floor_plans = floor_plans || jsonb_build_array($2::jsonb), updated_at = now()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, projectID, string(raw))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
