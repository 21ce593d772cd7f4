package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) repository.OrderRepository {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, order_id, user_id, api_key_id, service_id, link, quantity, charge,
       status, start_count, remains, external_order_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.OrderID, &o.UserID, &o.KeyID, &o.ServiceID, &o.Link, &o.Quantity,
		&o.Charge, &o.Status, &o.StartCount, &o.Remains, &o.ExternalOrderID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	const q = `
INSERT INTO orders (id, order_id, user_id, api_key_id, service_id, link, quantity, charge,
                    status, start_count, remains, external_order_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		o.ID, o.OrderID, o.UserID, o.KeyID, o.ServiceID, o.Link, o.Quantity, o.Charge,
		o.Status, o.StartCount, o.Remains, o.ExternalOrderID, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

func (r *orderRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}

func (r *orderRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC;`
	return r.list(ctx, tx, q)
}

func (r *orderRepo) FindLatestByKey(ctx context.Context, tx repository.Tx, keyID string) (*model.Order, int, error) {
	const q = `
SELECT ` + orderColumns + `, COUNT(*) OVER () AS total
  FROM orders
 WHERE api_key_id = $1
 ORDER BY created_at DESC, order_id DESC
 LIMIT 1;
`
	row, err := pickRow(ctx, r.pool, tx, q, keyID)
	if err != nil {
		return nil, 0, err
	}
	var o model.Order
	var total int
	err = row.Scan(&o.ID, &o.OrderID, &o.UserID, &o.KeyID, &o.ServiceID, &o.Link, &o.Quantity,
		&o.Charge, &o.Status, &o.StartCount, &o.Remains, &o.ExternalOrderID, &o.CreatedAt, &o.UpdatedAt, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return &o, total, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, tx repository.Tx, orderID string, status model.OrderStatus, startCount, remains *int, externalOrderID *string) error {
	const q = `
UPDATE orders
   SET status = $2,
       start_count = COALESCE($3, start_count),
       remains = COALESCE($4, remains),
       external_order_id = COALESCE($5, external_order_id),
       updated_at = $6
 WHERE order_id = $1;
`
	tag, err := execSQL(ctx, r.pool, tx, q, orderID, status, startCount, remains, externalOrderID, time.Now())
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepo) ListUnfinishedOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Order, error) {
	const q = `
SELECT ` + orderColumns + `
  FROM orders
 WHERE status IN ('Pending', 'In Progress')
   AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2;
`
	return r.list(ctx, tx, q, cutoff, limit)
}

func (r *orderRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Order, error) {
	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
