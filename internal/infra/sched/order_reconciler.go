package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"smm-reseller/internal/config"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/adapter"
	"smm-reseller/internal/domain/ports/repository"
)

// OrderReconciler pushes Pending orders to their upstream panel and
// pulls delivery status for dispatched ones. One failed order never
// stops the sweep.
type OrderReconciler struct {
	orders    repository.OrderRepository
	services  repository.ServiceRepository
	providers repository.ProviderRepository
	logs      repository.ActivityLogRepository
	client    adapter.SMMProviderClient
	cfg       config.ReconcilerConfig
	log       *zerolog.Logger
}

func NewOrderReconciler(
	orders repository.OrderRepository,
	services repository.ServiceRepository,
	providers repository.ProviderRepository,
	logs repository.ActivityLogRepository,
	client adapter.SMMProviderClient,
	cfg config.ReconcilerConfig,
	logger *zerolog.Logger,
) *OrderReconciler {
	return &OrderReconciler{
		orders:    orders,
		services:  services,
		providers: providers,
		logs:      logs,
		client:    client,
		cfg:       cfg,
		log:       logger,
	}
}

// Run blocks until ctx is cancelled, sweeping on a fixed interval.
func (rc *OrderReconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(rc.cfg.Interval)
	defer ticker.Stop()

	rc.log.Info().Dur("interval", rc.cfg.Interval).Msg("order reconciler started")
	for {
		select {
		case <-ctx.Done():
			rc.log.Info().Msg("order reconciler stopped")
			return
		case <-ticker.C:
			if err := rc.ReconcileOnce(ctx); err != nil {
				rc.log.Error().Err(err).Msg("order reconciliation sweep failed")
			}
		}
	}
}

// ReconcileOnce processes one batch of unfinished orders older than the
// staleness cutoff.
func (rc *OrderReconciler) ReconcileOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-rc.cfg.StaleAfter)
	orders, err := rc.orders.ListUnfinishedOlderThan(ctx, repository.NoTX, cutoff, rc.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list unfinished orders: %w", err)
	}

	for _, o := range orders {
		if err := rc.reconcileOrder(ctx, o); err != nil {
			rc.log.Warn().Err(err).Str("order_id", o.OrderID).Msg("order reconcile failed")
		}
	}
	return nil
}

func (rc *OrderReconciler) reconcileOrder(ctx context.Context, o *model.Order) error {
	svc, err := rc.services.FindByID(ctx, repository.NoTX, o.ServiceID)
	if err != nil {
		return fmt.Errorf("resolve service: %w", err)
	}
	provider, err := rc.providers.FindByID(ctx, repository.NoTX, svc.ProviderID)
	if err != nil {
		return fmt.Errorf("resolve provider: %w", err)
	}

	if o.ExternalOrderID == nil {
		return rc.dispatch(ctx, o, svc, provider)
	}
	return rc.pullStatus(ctx, o, provider)
}

// dispatch places a not-yet-submitted order with the upstream panel.
func (rc *OrderReconciler) dispatch(ctx context.Context, o *model.Order, svc *model.Service, provider *model.APIProvider) error {
	externalID, err := rc.client.PlaceOrder(ctx, provider, svc.ExternalServiceID, o.Link, o.Quantity)
	if err != nil {
		return fmt.Errorf("place upstream order: %w", err)
	}
	if err := rc.orders.UpdateStatus(ctx, repository.NoTX, o.OrderID, model.OrderStatusInProgress, nil, nil, &externalID); err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	rc.log.Info().Str("order_id", o.OrderID).Str("external_order_id", externalID).Msg("order dispatched upstream")
	return nil
}

// pullStatus refreshes a dispatched order's delivery telemetry.
func (rc *OrderReconciler) pullStatus(ctx context.Context, o *model.Order, provider *model.APIProvider) error {
	up, err := rc.client.OrderStatus(ctx, provider, *o.ExternalOrderID)
	if err != nil {
		return fmt.Errorf("query upstream status: %w", err)
	}

	// Snapshot the status before the update; repositories may hand back
	// the same model instance they store.
	prev := o.Status
	status := mapUpstreamStatus(up.Status)
	if status == prev && up.StartCount == nil && up.Remains == nil {
		return nil
	}
	if err := rc.orders.UpdateStatus(ctx, repository.NoTX, o.OrderID, status, up.StartCount, up.Remains, nil); err != nil {
		return fmt.Errorf("record status: %w", err)
	}

	if status != prev {
		entry := &model.ActivityLog{
			Type:        model.ActivityOrderStatusSynced,
			Description: fmt.Sprintf("order %s: %s -> %s", o.OrderID, prev, status),
			Metadata:    map[string]any{"order_id": o.OrderID, "status": string(status)},
			CreatedAt:   time.Now(),
		}
		if err := rc.logs.Append(ctx, repository.NoTX, entry); err != nil {
			rc.log.Warn().Err(err).Msg("append status sync activity failed")
		}
	}
	return nil
}

// mapUpstreamStatus folds the panel's free-form status labels onto the
// local lifecycle. Anything unrecognized stays In Progress so the next
// sweep retries.
func mapUpstreamStatus(s string) model.OrderStatus {
	switch s {
	case "Completed", "Partial":
		return model.OrderStatusCompleted
	case "Canceled", "Cancelled", "Refunded":
		return model.OrderStatusCancelled
	default:
		return model.OrderStatusInProgress
	}
}
