// Package smm implements adapter.SMMProviderClient against the de facto
// SMM panel v2 HTTP API: a single POST endpoint dispatched on "action".
package smm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/adapter"
)

var _ adapter.SMMProviderClient = (*PanelClient)(nil)

type PanelClient struct {
	client *http.Client
}

func NewPanelClient(timeout time.Duration) *PanelClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PanelClient{client: &http.Client{Timeout: timeout}}
}

// post sends one panel request and decodes the response into out. Every
// transport or decode failure collapses into domain.ErrUpstream; callers
// never see panel internals.
func (c *PanelClient) post(ctx context.Context, provider *model.APIProvider, payload map[string]any, out any) error {
	payload["key"] = provider.APIKey
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal panel request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.APIURL, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}

func (c *PanelClient) FetchServices(ctx context.Context, provider *model.APIProvider) ([]adapter.UpstreamService, error) {
	var services []adapter.UpstreamService
	if err := c.post(ctx, provider, map[string]any{"action": "services"}, &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (c *PanelClient) PlaceOrder(ctx context.Context, provider *model.APIProvider, externalServiceID, link string, quantity int) (string, error) {
	var out struct {
		Order json.Number `json:"order"`
		Error string      `json:"error"`
	}
	payload := map[string]any{
		"action":   "add",
		"service":  externalServiceID,
		"link":     link,
		"quantity": quantity,
	}
	if err := c.post(ctx, provider, payload, &out); err != nil {
		return "", err
	}
	if out.Error != "" || out.Order.String() == "" {
		return "", fmt.Errorf("%w: order rejected", domain.ErrUpstream)
	}
	return out.Order.String(), nil
}

func (c *PanelClient) OrderStatus(ctx context.Context, provider *model.APIProvider, externalOrderID string) (*adapter.UpstreamOrderStatus, error) {
	var out adapter.UpstreamOrderStatus
	payload := map[string]any{
		"action": "status",
		"order":  externalOrderID,
	}
	if err := c.post(ctx, provider, payload, &out); err != nil {
		return nil, err
	}
	if out.Status == "" {
		return nil, fmt.Errorf("%w: empty status", domain.ErrUpstream)
	}
	return &out, nil
}
