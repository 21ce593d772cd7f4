package repository

import (
	"context"

	"smm-reseller/internal/domain/model"
)

// UpsertResult reports what a catalog sync actually changed.
type UpsertResult struct {
	Created int
	Updated int
}

type ServiceRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Service) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Service, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Service, error)
	ListByProvider(ctx context.Context, tx Tx, providerID string) ([]*model.Service, error)
	// UpsertBatch inserts or updates services keyed on
	// (provider_id, external_service_id), making repeated syncs of the
	// same catalog idempotent.
	UpsertBatch(ctx context.Context, tx Tx, services []*model.Service) (UpsertResult, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
