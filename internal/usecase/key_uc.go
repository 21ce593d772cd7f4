package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
)

// KeyValidation is the success payload of Validate.
//
// MaxQuantity equals the key's usage limit: the storefront has always
// sold keys where "uses remaining" and "largest single order" share one
// number, and both fields are surfaced so callers see the conflation.
type KeyValidation struct {
	KeyValue      string
	RemainingUses int
	MaxQuantity   int
	Service       *model.Service
}

// KeyUseCase covers key validation for the storefront and key
// administration for the back office.
type KeyUseCase struct {
	keys     repository.KeyRepository
	services repository.ServiceRepository
	logs     repository.ActivityLogRepository
	log      *zerolog.Logger
}

func NewKeyUseCase(keys repository.KeyRepository, services repository.ServiceRepository, logs repository.ActivityLogRepository, logger *zerolog.Logger) *KeyUseCase {
	return &KeyUseCase{keys: keys, services: services, logs: logs, log: logger}
}

// Validate is a pure read: it never mutates the key or writes activity.
// Failure modes: domain.ErrNotFound for a missing or inactive key,
// domain.ErrLimitReached for an exhausted one.
func (uc *KeyUseCase) Validate(ctx context.Context, keyValue string) (*KeyValidation, error) {
	key, err := uc.keys.FindByValue(ctx, repository.NoTX, keyValue)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if !key.IsActive {
		return nil, domain.ErrNotFound
	}
	if key.Exhausted() {
		return nil, domain.ErrLimitReached
	}

	// Keys are generated with one permitted service; the first entry is
	// the one the storefront resolves.
	var svc *model.Service
	if len(key.ServiceIDs) > 0 {
		svc, err = uc.services.FindByID(ctx, repository.NoTX, key.ServiceIDs[0])
		if err != nil {
			return nil, fmt.Errorf("resolve key service: %w", err)
		}
	}

	return &KeyValidation{
		KeyValue:      key.KeyValue,
		RemainingUses: key.RemainingUses(),
		MaxQuantity:   key.UsageLimit,
		Service:       svc,
	}, nil
}

// GenerateBatch creates count keys, each permitted for serviceIDs with
// the given usage limit, and appends one audit entry for the batch.
func (uc *KeyUseCase) GenerateBatch(ctx context.Context, serviceIDs []string, usageLimit, count int) ([]*model.RedemptionKey, error) {
	if usageLimit <= 0 {
		return nil, fmt.Errorf("%w: usage limit must be positive", domain.ErrInvalidArgument)
	}
	if count <= 0 {
		count = 1
	}
	if count > 1000 {
		return nil, fmt.Errorf("%w: at most 1000 keys per batch", domain.ErrInvalidArgument)
	}
	if len(serviceIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one service id required", domain.ErrInvalidArgument)
	}
	for _, id := range serviceIDs {
		if _, err := uc.services.FindByID(ctx, repository.NoTX, id); err != nil {
			return nil, fmt.Errorf("service %s: %w", id, domain.ErrNotFound)
		}
	}

	now := time.Now()
	keys := make([]*model.RedemptionKey, 0, count)
	for i := 0; i < count; i++ {
		value, err := generateKeyValue()
		if err != nil {
			return nil, fmt.Errorf("generate key value: %w", err)
		}
		k := &model.RedemptionKey{
			KeyValue:   value,
			ServiceIDs: serviceIDs,
			UsageLimit: usageLimit,
			UsageCount: 0,
			IsActive:   true,
			CreatedAt:  now,
		}
		if err := uc.keys.Save(ctx, repository.NoTX, k); err != nil {
			return nil, fmt.Errorf("save key: %w", err)
		}
		keys = append(keys, k)
	}

	entry := &model.ActivityLog{
		Type:        model.ActivityKeysGenerated,
		Description: fmt.Sprintf("%d keys generated", count),
		Metadata:    map[string]any{"count": count, "usage_limit": usageLimit, "service_ids": serviceIDs},
		CreatedAt:   now,
	}
	if err := uc.logs.Append(ctx, repository.NoTX, entry); err != nil {
		uc.log.Warn().Err(err).Msg("append key generation activity failed")
	}
	return keys, nil
}

func (uc *KeyUseCase) List(ctx context.Context) ([]*model.RedemptionKey, error) {
	return uc.keys.ListAll(ctx, repository.NoTX)
}

func (uc *KeyUseCase) Delete(ctx context.Context, id string) error {
	return uc.keys.Delete(ctx, repository.NoTX, id)
}
