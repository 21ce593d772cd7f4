package repository

import (
	"context"

	"smm-reseller/internal/domain/model"
)

type AdminSessionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.AdminSession) error
	FindByToken(ctx context.Context, tx Tx, token string) (*model.AdminSession, error)
	Delete(ctx context.Context, tx Tx, token string) error
}
