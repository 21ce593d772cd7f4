package repository

import (
	"context"

	"smm-reseller/internal/domain/model"
)

type KeyRepository interface {
	Save(ctx context.Context, tx Tx, k *model.RedemptionKey) error
	FindByValue(ctx context.Context, tx Tx, keyValue string) (*model.RedemptionKey, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.RedemptionKey, error)
	// ConsumeUse increments usage_count by one iff the key is active and
	// usage_count < usage_limit, in a single statement. Returns
	// domain.ErrLimitReached when the guard fails, so two concurrent
	// redemptions of the last use cannot both succeed.
	ConsumeUse(ctx context.Context, tx Tx, keyValue string) error
	Delete(ctx context.Context, tx Tx, id string) error
}
