package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/adapter"
	"smm-reseller/internal/domain/ports/repository"
	"smm-reseller/internal/infra/metrics"
)

const (
	fallbackPrice   = "0.001"
	defaultMaxOrder = 10000
	hardMaxOrder    = 1000000

	maxNameLen        = 500
	maxDescriptionLen = 1000
	maxCategoryLen    = 100
)

// platformMatchers is checked in order against the lowercased service
// name; first hit wins.
var platformMatchers = []struct {
	needle string
	tag    string
}{
	{"instagram", model.PlatformInstagram},
	{"tiktok", model.PlatformTikTok},
	{"youtube", model.PlatformYouTube},
	{"twitter", model.PlatformTwitter},
	{"facebook", model.PlatformFacebook},
}

// SyncResult reports what one provider sync changed.
type SyncResult struct {
	Created int
	Updated int
	Skipped int
}

// CatalogUseCase owns provider configuration and the catalog mirror.
type CatalogUseCase struct {
	providers repository.ProviderRepository
	services  repository.ServiceRepository
	logs      repository.ActivityLogRepository
	client    adapter.SMMProviderClient
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewCatalogUseCase(
	providers repository.ProviderRepository,
	services repository.ServiceRepository,
	logs repository.ActivityLogRepository,
	client adapter.SMMProviderClient,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{providers: providers, services: services, logs: logs, client: client, tm: tm, log: logger}
}

func (uc *CatalogUseCase) CreateProvider(ctx context.Context, name, apiURL, apiKey string) (*model.APIProvider, error) {
	if name == "" || apiURL == "" || apiKey == "" {
		return nil, fmt.Errorf("%w: name, api_url and api_key are required", domain.ErrInvalidArgument)
	}
	p := &model.APIProvider{
		Name:      name,
		APIURL:    apiURL,
		APIKey:    apiKey,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := uc.providers.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	entry := &model.ActivityLog{
		Type:        model.ActivityProviderCreated,
		Description: fmt.Sprintf("provider created: %s", p.Name),
		Metadata:    map[string]any{"provider_id": p.ID},
		CreatedAt:   time.Now(),
	}
	if err := uc.logs.Append(ctx, repository.NoTX, entry); err != nil {
		uc.log.Warn().Err(err).Msg("append provider activity failed")
	}
	return p, nil
}

func (uc *CatalogUseCase) ListProviders(ctx context.Context) ([]*model.APIProvider, error) {
	return uc.providers.ListAll(ctx, repository.NoTX)
}

func (uc *CatalogUseCase) GetProvider(ctx context.Context, id string) (*model.APIProvider, error) {
	return uc.providers.FindByID(ctx, repository.NoTX, id)
}

func (uc *CatalogUseCase) DeleteProvider(ctx context.Context, id string) error {
	return uc.providers.Delete(ctx, repository.NoTX, id)
}

func (uc *CatalogUseCase) ListServices(ctx context.Context) ([]*model.Service, error) {
	return uc.services.ListAll(ctx, repository.NoTX)
}

// SyncServices mirrors one provider's catalog. Records missing an
// external id or a name are skipped with a warning; everything else is
// normalized and upserted in one transaction, keyed on
// (provider, external id) so re-running the sync is idempotent.
func (uc *CatalogUseCase) SyncServices(ctx context.Context, providerID string) (*SyncResult, error) {
	provider, err := uc.providers.FindByID(ctx, repository.NoTX, providerID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	raw, err := uc.client.FetchServices(ctx, provider)
	if err != nil {
		metrics.IncSyncRun("upstream_error")
		return nil, fmt.Errorf("fetch services: %w", err)
	}

	var res SyncResult
	now := time.Now()
	services := make([]*model.Service, 0, len(raw))
	for _, r := range raw {
		svc, ok := uc.normalize(provider.ID, r, now)
		if !ok {
			res.Skipped++
			uc.log.Warn().Str("provider_id", provider.ID).Str("name", r.Name).Str("external_id", r.Service).Msg("skipping incomplete catalog record")
			continue
		}
		services = append(services, svc)
	}

	if len(services) > 0 {
		err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			up, err := uc.services.UpsertBatch(ctx, tx, services)
			if err != nil {
				return err
			}
			res.Created = up.Created
			res.Updated = up.Updated
			return nil
		})
		if err != nil {
			metrics.IncSyncRun("upstream_error")
			return nil, fmt.Errorf("persist services: %w", err)
		}
	}

	metrics.IncSyncRun("ok")
	metrics.AddSyncServices("created", res.Created)
	metrics.AddSyncServices("updated", res.Updated)
	metrics.AddSyncServices("skipped", res.Skipped)

	entry := &model.ActivityLog{
		Type:        model.ActivityServicesFetched,
		Description: fmt.Sprintf("%d services synced from %s", res.Created+res.Updated, provider.Name),
		Metadata:    map[string]any{"provider_id": provider.ID, "created": res.Created, "updated": res.Updated, "skipped": res.Skipped},
		CreatedAt:   time.Now(),
	}
	if err := uc.logs.Append(ctx, repository.NoTX, entry); err != nil {
		uc.log.Warn().Err(err).Msg("append sync activity failed")
	}
	return &res, nil
}

// normalize maps one raw catalog record to a Service row, or reports it
// unusable.
func (uc *CatalogUseCase) normalize(providerID string, r adapter.UpstreamService, now time.Time) (*model.Service, bool) {
	if r.Service == "" || r.Name == "" {
		return nil, false
	}

	price := fallbackPrice
	if r.Rate != "" {
		if p, err := strconv.ParseFloat(r.Rate, 64); err == nil && p >= 0 {
			price = strconv.FormatFloat(p, 'f', -1, 64)
		}
	}

	minOrder := 1
	if n, err := strconv.Atoi(r.Min); err == nil && n > 1 {
		minOrder = n
	}
	maxOrder := defaultMaxOrder
	if n, err := strconv.Atoi(r.Max); err == nil && n > 0 {
		maxOrder = n
	}
	if maxOrder > hardMaxOrder {
		maxOrder = hardMaxOrder
	}

	category := r.Category
	if category == "" {
		category = model.PlatformOther
	}

	return &model.Service{
		ProviderID:        providerID,
		ExternalServiceID: r.Service,
		Name:              truncate(r.Name, maxNameLen),
		Category:          truncate(category, maxCategoryLen),
		Platform:          detectPlatform(r.Name),
		Description:       truncate(r.Name, maxDescriptionLen),
		Price:             price,
		MinOrder:          minOrder,
		MaxOrder:          maxOrder,
		IsActive:          true,
		CreatedAt:         now,
	}, true
}

func detectPlatform(name string) string {
	lower := strings.ToLower(name)
	for _, m := range platformMatchers {
		if strings.Contains(lower, m.needle) {
			return m.tag
		}
	}
	return model.PlatformOther
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
