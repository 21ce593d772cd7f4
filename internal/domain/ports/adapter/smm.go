package adapter

import (
	"context"

	"smm-reseller/internal/domain/model"
)

// UpstreamService is one raw catalog record as returned by a provider's
// panel API, before normalization. Fields mirror the panel v2 wire
// names; anything may be missing or malformed.
type UpstreamService struct {
	Service  string `json:"service"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Rate     string `json:"rate"`
	Min      string `json:"min"`
	Max      string `json:"max"`
}

// UpstreamOrderStatus is the panel's answer to an order status query.
type UpstreamOrderStatus struct {
	Status     string `json:"status"`
	StartCount *int   `json:"start_count"`
	Remains    *int   `json:"remains"`
}

// SMMProviderClient talks to one upstream SMM panel. Implementations
// surface any transport or format failure as domain.ErrUpstream; the
// caller never retries automatically.
type SMMProviderClient interface {
	FetchServices(ctx context.Context, provider *model.APIProvider) ([]UpstreamService, error)
	PlaceOrder(ctx context.Context, provider *model.APIProvider, externalServiceID, link string, quantity int) (externalOrderID string, err error)
	OrderStatus(ctx context.Context, provider *model.APIProvider, externalOrderID string) (*UpstreamOrderStatus, error)
}
