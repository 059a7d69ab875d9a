package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buildwise-ai/buildwise-backend/internal/catalog/domain"
)

// table describes one catalog table: the full entry lives in data (jsonb),
// with name and the filter column copied out for sorting and lookup.
type table struct {
	name   string
	filter string
}

var (
	designersTable = table{name: "designers", filter: "specialty"}
	materialsTable = table{name: "materials", filter: "category"}
	regionsTable   = table{name: "regions", filter: "country"}
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func pgList[T any](ctx context.Context, db *sql.DB, t table, filter string) ([]T, error) {
	q := fmt.Sprintf(`SELECT data FROM %s WHERE ($1 = '' OR lower(%s) = lower($1)) ORDER BY name`, t.name, t.filter)
	rows, err := db.QueryContext(ctx, q, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0, 16)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", t.name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func pgGet[T any](ctx context.Context, db *sql.DB, t table, id string) (*T, error) {
	var raw []byte
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE id = $1`, t.name), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", t.name, id, err)
	}
	return &v, nil
}

type row struct {
	id, name, filter string
	data             any
}

func pgUpsert(ctx context.Context, tx *sql.Tx, t table, rows []row) (int, error) {
	q := fmt.Sprintf(`
INSERT INTO %s (id, name, %s, data)
VALUES ($1, $2, $3, $4::jsonb)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, %s = EXCLUDED.%s, data = EXCLUDED.data;
`, t.name, t.filter, t.filter, t.filter)

	for _, r := range rows {
		raw, err := json.Marshal(r.data)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, q, r.id, r.name, r.filter, string(raw)); err != nil {
			return 0, fmt.Errorf("upsert %s %s: %w", t.name, r.id, err)
		}
	}
	return len(rows), nil
}

func (r *PostgresRepository) ListDesigners(ctx context.Context, specialty string) ([]domain.Designer, error) {
	return pgList[domain.Designer](ctx, r.db, designersTable, specialty)
}

func (r *PostgresRepository) GetDesigner(ctx context.Context, id string) (*domain.Designer, error) {
	return pgGet[domain.Designer](ctx, r.db, designersTable, id)
}

func (r *PostgresRepository) ListMaterials(ctx context.Context, category string) ([]domain.Material, error) {
	return pgList[domain.Material](ctx, r.db, materialsTable, category)
}

func (r *PostgresRepository) GetMaterial(ctx context.Context, id string) (*domain.Material, error) {
	return pgGet[domain.Material](ctx, r.db, materialsTable, id)
}

func (r *PostgresRepository) ListRegions(ctx context.Context, country string) ([]domain.Region, error) {
	return pgList[domain.Region](ctx, r.db, regionsTable, country)
}

func (r *PostgresRepository) GetRegion(ctx context.Context, id string) (*domain.Region, error) {
	return pgGet[domain.Region](ctx, r.db, regionsTable, id)
}

// Upsert writes the whole seed in one transaction.
func (r *PostgresRepository) Upsert(ctx context.Context, seed domain.Seed) (res domain.SeedResult, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	designers := make([]row, 0, len(seed.Designers))
	for _, d := range seed.Designers {
		designers = append(designers, row{d.ID, d.Name, d.Specialty, d})
	}
	materials := make([]row, 0, len(seed.Materials))
	for _, m := range seed.Materials {
		materials = append(materials, row{m.ID, m.Name, m.Category, m})
	}
	regions := make([]row, 0, len(seed.Regions))
	for _, g := range seed.Regions {
		regions = append(regions, row{g.ID, g.Name, g.Country, g})
	}

	if res.Designers, err = pgUpsert(ctx, tx, designersTable, designers); err != nil {
		return res, err
	}
	if res.Materials, err = pgUpsert(ctx, tx, materialsTable, materials); err != nil {
		return res, err
	}
	if res.Regions, err = pgUpsert(ctx, tx, regionsTable, regions); err != nil {
		return res, err
	}
	err = tx.Commit()
	return res, err
}
