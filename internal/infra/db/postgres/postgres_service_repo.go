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

var _ repository.ServiceRepository = (*serviceRepo)(nil)

type serviceRepo struct {
	pool *pgxpool.Pool
}

func NewServiceRepo(pool *pgxpool.Pool) repository.ServiceRepository {
	return &serviceRepo{pool: pool}
}

const serviceColumns = `id, api_provider_id, external_service_id, name, category, platform,
       description, price, min_order, max_order, is_active, created_at`

func scanService(row pgx.Row) (*model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.ProviderID, &s.ExternalServiceID, &s.Name, &s.Category,
		&s.Platform, &s.Description, &s.Price, &s.MinOrder, &s.MaxOrder, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serviceRepo) Save(ctx context.Context, tx repository.Tx, s *model.Service) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const q = `
INSERT INTO services (id, api_provider_id, external_service_id, name, category, platform,
                      description, price, min_order, max_order, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  category = EXCLUDED.category,
  platform = EXCLUDED.platform,
  description = EXCLUDED.description,
  price = EXCLUDED.price,
  min_order = EXCLUDED.min_order,
  max_order = EXCLUDED.max_order,
  is_active = EXCLUDED.is_active;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.ProviderID, s.ExternalServiceID, s.Name, s.Category, s.Platform,
		s.Description, s.Price, s.MinOrder, s.MaxOrder, s.IsActive, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save service: %w", err)
	}
	return nil
}

func (r *serviceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	const q = `SELECT ` + serviceColumns + ` FROM services WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	s, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *serviceRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Service, error) {
	const q = `SELECT ` + serviceColumns + ` FROM services ORDER BY created_at DESC;`
	return r.list(ctx, tx, q)
}

func (r *serviceRepo) ListByProvider(ctx context.Context, tx repository.Tx, providerID string) ([]*model.Service, error) {
	const q = `SELECT ` + serviceColumns + ` FROM services WHERE api_provider_id = $1;`
	return r.list(ctx, tx, q, providerID)
}

func (r *serviceRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Service, error) {
	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()
	var out []*model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertBatch writes the normalized catalog keyed on
// (api_provider_id, external_service_id). xmax = 0 distinguishes a fresh
// insert from an update of an existing row.
func (r *serviceRepo) UpsertBatch(ctx context.Context, tx repository.Tx, services []*model.Service) (repository.UpsertResult, error) {
	var res repository.UpsertResult
	const q = `
INSERT INTO services (id, api_provider_id, external_service_id, name, category, platform,
                      description, price, min_order, max_order, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (api_provider_id, external_service_id) DO UPDATE SET
  name = EXCLUDED.name,
  category = EXCLUDED.category,
  platform = EXCLUDED.platform,
  description = EXCLUDED.description,
  price = EXCLUDED.price,
  min_order = EXCLUDED.min_order,
  max_order = EXCLUDED.max_order,
  is_active = EXCLUDED.is_active
RETURNING (xmax = 0) AS inserted;
`
	for _, s := range services {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		row, err := pickRow(ctx, r.pool, tx, q,
			s.ID, s.ProviderID, s.ExternalServiceID, s.Name, s.Category, s.Platform,
			s.Description, s.Price, s.MinOrder, s.MaxOrder, s.IsActive, s.CreatedAt,
		)
		if err != nil {
			return res, err
		}
		var inserted bool
		if err := row.Scan(&inserted); err != nil {
			return res, fmt.Errorf("upsert service %s: %w", s.ExternalServiceID, err)
		}
		if inserted {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

func (r *serviceRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM services WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
