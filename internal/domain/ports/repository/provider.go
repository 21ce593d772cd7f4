package repository

import (
	"context"

	"smm-reseller/internal/domain/model"
)

type ProviderRepository interface {
	Save(ctx context.Context, tx Tx, p *model.APIProvider) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.APIProvider, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.APIProvider, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
