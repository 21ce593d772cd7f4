package repository

import (
	"context"
	"time"

	"smm-reseller/internal/domain/model"
)

type OrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.Order) error
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.Order, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Order, error)
	// FindLatestByKey returns the most recently created order for the
	// key together with the total number of orders ever created under it.
	FindLatestByKey(ctx context.Context, tx Tx, keyID string) (*model.Order, int, error)
	UpdateStatus(ctx context.Context, tx Tx, orderID string, status model.OrderStatus, startCount, remains *int, externalOrderID *string) error
	// ListUnfinishedOlderThan feeds the reconciler: Pending/In Progress
	// orders created before the cutoff, capped at limit rows.
	ListUnfinishedOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Order, error)
}
