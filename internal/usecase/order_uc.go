package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
	"smm-reseller/internal/infra/metrics"
)

// OrderStatusView is the public answer of a by-order-id lookup.
type OrderStatusView struct {
	OrderID    string
	Status     model.OrderStatus
	Charge     string
	StartCount *int
	Remains    *int
	CreatedAt  time.Time
}

// KeyOrderView is the by-key lookup: the most recent order under the
// key, joined with the service name, plus the total order count.
type KeyOrderView struct {
	OrderID     string
	Status      model.OrderStatus
	ServiceName string
	Link        string
	Quantity    int
	Charge      string
	StartCount  *int
	Remains     *int
	CreatedAt   time.Time
	OrderCount  int
}

// OrderUseCase implements the key-gated order flow.
type OrderUseCase struct {
	keys     repository.KeyRepository
	services repository.ServiceRepository
	orders   repository.OrderRepository
	logs     repository.ActivityLogRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewOrderUseCase(
	keys repository.KeyRepository,
	services repository.ServiceRepository,
	orders repository.OrderRepository,
	logs repository.ActivityLogRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *OrderUseCase {
	return &OrderUseCase{keys: keys, services: services, orders: orders, logs: logs, tm: tm, log: logger}
}

// Create redeems one use of the key for an order. Preconditions are
// checked in a fixed sequence so each failure keeps its own status code:
//
//  1. key exists and is active         -> ErrUnauthorized
//  2. key has uses left                -> ErrLimitReached
//  3. quantity within the key limit    -> ErrInvalidArgument
//  4. service exists                   -> ErrNotFound
//  5. service in the permitted set     -> NotEntitledError
//
// The write half runs in one transaction: the conditional usage
// increment, the Pending order row, and the audit entry commit or roll
// back together. No idempotency: the same inputs twice make two orders.
func (uc *OrderUseCase) Create(ctx context.Context, keyValue, serviceID, link string, quantity int) (string, error) {
	if quantity <= 0 {
		metrics.IncOrderFailure("quantity")
		return "", fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}
	if err := validateLink(link); err != nil {
		metrics.IncOrderFailure("link")
		return "", err
	}

	key, err := uc.keys.FindByValue(ctx, repository.NoTX, keyValue)
	if err != nil {
		metrics.IncOrderFailure("invalid_key")
		return "", domain.ErrUnauthorized
	}
	if !key.IsActive {
		metrics.IncOrderFailure("invalid_key")
		return "", domain.ErrUnauthorized
	}
	if key.Exhausted() {
		metrics.IncOrderFailure("limit_reached")
		return "", domain.ErrLimitReached
	}
	if quantity > key.UsageLimit {
		metrics.IncOrderFailure("quantity")
		return "", &domain.QuantityLimitError{Requested: quantity, Limit: key.UsageLimit}
	}

	svc, err := uc.services.FindByID(ctx, repository.NoTX, serviceID)
	if err != nil {
		metrics.IncOrderFailure("not_found")
		return "", domain.ErrNotFound
	}
	if !key.Permits(svc.ID) {
		metrics.IncOrderFailure("not_entitled")
		return "", &domain.NotEntitledError{RequestedServiceID: svc.ID, PermittedServices: key.ServiceIDs}
	}

	charge, err := model.ComputeCharge(svc.Price, quantity)
	if err != nil {
		metrics.IncOrderFailure("internal")
		return "", fmt.Errorf("compute charge: %w", err)
	}

	orderID := ulid.Make().String()
	now := time.Now()
	order := &model.Order{
		OrderID:   orderID,
		KeyID:     &key.ID,
		ServiceID: svc.ID,
		Link:      link,
		Quantity:  quantity,
		Charge:    charge,
		Status:    model.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// The conditional increment is the race guard: if a concurrent
		// redemption took the last use between our read and here, this
		// fails and nothing is written.
		if err := uc.keys.ConsumeUse(ctx, tx, keyValue); err != nil {
			return err
		}
		if err := uc.orders.Save(ctx, tx, order); err != nil {
			return err
		}
		return uc.logs.Append(ctx, tx, &model.ActivityLog{
			Type:        model.ActivityOrderCreated,
			Description: fmt.Sprintf("order created: %s", orderID),
			Metadata:    map[string]any{"order_id": orderID, "service_id": svc.ID, "quantity": quantity},
			CreatedAt:   now,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrLimitReached) {
			metrics.IncOrderFailure("limit_reached")
			return "", err
		}
		metrics.IncOrderFailure("internal")
		return "", fmt.Errorf("create order: %w", err)
	}

	metrics.IncOrderCreated(svc.Platform)
	if cents, err := strconv.ParseFloat(charge, 64); err == nil {
		metrics.ObserveOrderChargeCents(cents * 100)
	}
	uc.log.Info().Str("order_id", orderID).Str("service_id", svc.ID).Int("quantity", quantity).Msg("order created")
	return orderID, nil
}

// GetByID is a pure read of one order's status and telemetry.
func (uc *OrderUseCase) GetByID(ctx context.Context, orderID string) (*OrderStatusView, error) {
	o, err := uc.orders.FindByOrderID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderStatusView{
		OrderID:    o.OrderID,
		Status:     o.Status,
		Charge:     o.Charge,
		StartCount: o.StartCount,
		Remains:    o.Remains,
		CreatedAt:  o.CreatedAt,
	}, nil
}

// GetByKey returns the most recent order placed with the key and the
// total number of orders ever created under it.
func (uc *OrderUseCase) GetByKey(ctx context.Context, keyValue string) (*KeyOrderView, error) {
	key, err := uc.keys.FindByValue(ctx, repository.NoTX, keyValue)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	latest, total, err := uc.orders.FindLatestByKey(ctx, repository.NoTX, key.ID)
	if err != nil {
		return nil, err
	}

	// ServiceName stays empty when the service row is gone; the
	// presentation layer localizes the fallback.
	var serviceName string
	if svc, err := uc.services.FindByID(ctx, repository.NoTX, latest.ServiceID); err == nil {
		serviceName = svc.Name
	}

	return &KeyOrderView{
		OrderID:     latest.OrderID,
		Status:      latest.Status,
		ServiceName: serviceName,
		Link:        latest.Link,
		Quantity:    latest.Quantity,
		Charge:      latest.Charge,
		StartCount:  latest.StartCount,
		Remains:     latest.Remains,
		CreatedAt:   latest.CreatedAt,
		OrderCount:  total,
	}, nil
}

// ListAll serves the admin order table.
func (uc *OrderUseCase) ListAll(ctx context.Context) ([]*model.Order, error) {
	return uc.orders.ListAll(ctx, repository.NoTX)
}

func validateLink(link string) error {
	u, err := url.Parse(link)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: link must be an absolute http(s) URL", domain.ErrInvalidArgument)
	}
	return nil
}
