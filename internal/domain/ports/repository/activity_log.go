package repository

import (
	"context"

	"smm-reseller/internal/domain/model"
)

// ActivityLogRepository is append-only; there is no update or delete.
type ActivityLogRepository interface {
	Append(ctx context.Context, tx Tx, entry *model.ActivityLog) error
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.ActivityLog, error)
}
