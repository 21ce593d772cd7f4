package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
)

var _ repository.ActivityLogRepository = (*activityLogRepo)(nil)

type activityLogRepo struct {
	pool *pgxpool.Pool
}

func NewActivityLogRepo(pool *pgxpool.Pool) repository.ActivityLogRepository {
	return &activityLogRepo{pool: pool}
}

// Append only inserts; there is deliberately no update or delete SQL in
// this file.
func (r *activityLogRepo) Append(ctx context.Context, tx repository.Tx, entry *model.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	const q = `
INSERT INTO activity_logs (id, type, description, metadata, created_at)
VALUES ($1, $2, $3, $4::jsonb, $5);
`
	_, err = execSQL(ctx, r.pool, tx, q, entry.ID, entry.Type, entry.Description, string(meta), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	return nil
}

func (r *activityLogRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, type, description, metadata, created_at
  FROM activity_logs
 ORDER BY created_at DESC
 LIMIT $1;
`
	rows, err := pickRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()
	var out []*model.ActivityLog
	for rows.Next() {
		var e model.ActivityLog
		var meta []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Description, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
