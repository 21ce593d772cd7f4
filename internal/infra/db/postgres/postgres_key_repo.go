package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
)

var _ repository.KeyRepository = (*keyRepo)(nil)

type keyRepo struct {
	pool *pgxpool.Pool
}

func NewKeyRepo(pool *pgxpool.Pool) repository.KeyRepository {
	return &keyRepo{pool: pool}
}

func (r *keyRepo) Save(ctx context.Context, tx repository.Tx, k *model.RedemptionKey) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	ids, err := json.Marshal(k.ServiceIDs)
	if err != nil {
		return fmt.Errorf("marshal service ids: %w", err)
	}
	const q = `
INSERT INTO api_keys (id, key_value, service_ids, usage_limit, usage_count, is_active, created_at)
VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  service_ids = EXCLUDED.service_ids,
  usage_limit = EXCLUDED.usage_limit,
  usage_count = EXCLUDED.usage_count,
  is_active = EXCLUDED.is_active;
`
	_, err = execSQL(ctx, r.pool, tx, q, k.ID, k.KeyValue, string(ids), k.UsageLimit, k.UsageCount, k.IsActive, k.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save key: %w", err)
	}
	return nil
}

func scanKey(row pgx.Row) (*model.RedemptionKey, error) {
	var k model.RedemptionKey
	var ids []byte
	if err := row.Scan(&k.ID, &k.KeyValue, &ids, &k.UsageLimit, &k.UsageCount, &k.IsActive, &k.CreatedAt); err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if err := json.Unmarshal(ids, &k.ServiceIDs); err != nil {
			return nil, fmt.Errorf("unmarshal service ids: %w", err)
		}
	}
	return &k, nil
}

func (r *keyRepo) FindByValue(ctx context.Context, tx repository.Tx, keyValue string) (*model.RedemptionKey, error) {
	const q = `
SELECT id, key_value, service_ids, usage_limit, usage_count, is_active, created_at
  FROM api_keys
 WHERE key_value = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, keyValue)
	if err != nil {
		return nil, err
	}
	k, err := scanKey(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return k, nil
}

func (r *keyRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.RedemptionKey, error) {
	const q = `
SELECT id, key_value, service_ids, usage_limit, usage_count, is_active, created_at
  FROM api_keys
 ORDER BY created_at DESC;
`
	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()
	var out []*model.RedemptionKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// ConsumeUse is the single write that guards the whole redemption flow:
// the WHERE clause makes the increment conditional, so the counter can
// never pass usage_limit even under concurrent redemptions.
func (r *keyRepo) ConsumeUse(ctx context.Context, tx repository.Tx, keyValue string) error {
	const q = `
UPDATE api_keys
   SET usage_count = usage_count + 1
 WHERE key_value = $1
   AND is_active = TRUE
   AND usage_count < usage_limit;
`
	tag, err := execSQL(ctx, r.pool, tx, q, keyValue)
	if err != nil {
		return fmt.Errorf("consume key use: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLimitReached
	}
	return nil
}

func (r *keyRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM api_keys WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
