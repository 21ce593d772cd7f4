package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
)

var _ repository.ProviderRepository = (*providerRepo)(nil)

type providerRepo struct {
	pool *pgxpool.Pool
}

func NewProviderRepo(pool *pgxpool.Pool) repository.ProviderRepository {
	return &providerRepo{pool: pool}
}

func (r *providerRepo) Save(ctx context.Context, tx repository.Tx, p *model.APIProvider) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO api_providers (id, name, api_url, api_key, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  api_url = EXCLUDED.api_url,
  api_key = EXCLUDED.api_key,
  is_active = EXCLUDED.is_active;
`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.APIURL, p.APIKey, p.IsActive, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save provider: %w", err)
	}
	return nil
}

func (r *providerRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.APIProvider, error) {
	const q = `
SELECT id, name, api_url, api_key, is_active, created_at
  FROM api_providers
 WHERE id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var p model.APIProvider
	if err := row.Scan(&p.ID, &p.Name, &p.APIURL, &p.APIKey, &p.IsActive, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}

func (r *providerRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.APIProvider, error) {
	const q = `
SELECT id, name, api_url, api_key, is_active, created_at
  FROM api_providers
 ORDER BY created_at DESC;
`
	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()
	var out []*model.APIProvider
	for rows.Next() {
		var p model.APIProvider
		if err := rows.Scan(&p.ID, &p.Name, &p.APIURL, &p.APIKey, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *providerRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM api_providers WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return fmt.Errorf("delete provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
