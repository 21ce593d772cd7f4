package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"smm-reseller/internal/config"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
	pg "smm-reseller/internal/infra/db/postgres"
	"smm-reseller/internal/infra/logging"
	"smm-reseller/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	providerRepo := pg.NewProviderRepo(pool)
	serviceRepo := pg.NewServiceRepo(pool)
	keyRepo := pg.NewKeyRepo(pool)
	activityRepo := pg.NewActivityLogRepo(pool)

	// If a provider already exists, do nothing
	providers, err := providerRepo.ListAll(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list providers: %v", err)
	}
	if len(providers) > 0 {
		fmt.Printf("%d providers already present. No changes.\n", len(providers))
		return
	}

	now := time.Now()
	provider := &model.APIProvider{
		Name:      "Demo Panel",
		APIURL:    "https://demo-panel.example.com/api/v2",
		APIKey:    "demo-api-key",
		IsActive:  true,
		CreatedAt: now,
	}
	if err := providerRepo.Save(ctx, repository.NoTX, provider); err != nil {
		log.Fatalf("create provider: %v", err)
	}
	fmt.Printf("seeded provider: %s (id=%s)\n", provider.Name, provider.ID)

	seed := []struct {
		External string
		Name     string
		Category string
		Platform string
		Price    string
		Min, Max int
	}{
		{"1001", "Instagram Followers [Real]", "Instagram Followers", model.PlatformInstagram, "0.5", 10, 10000},
		{"1002", "TikTok Video Views", "TikTok Views", model.PlatformTikTok, "0.02", 100, 1000000},
		{"1003", "YouTube Watch Hours", "YouTube", model.PlatformYouTube, "2.5", 1, 4000},
	}

	serviceIDs := make([]string, 0, len(seed))
	for _, s := range seed {
		svc := &model.Service{
			ProviderID:        provider.ID,
			ExternalServiceID: s.External,
			Name:              s.Name,
			Category:          s.Category,
			Platform:          s.Platform,
			Description:       s.Name,
			Price:             s.Price,
			MinOrder:          s.Min,
			MaxOrder:          s.Max,
			IsActive:          true,
			CreatedAt:         now,
		}
		if err := serviceRepo.Save(ctx, repository.NoTX, svc); err != nil {
			log.Fatalf("create service %q: %v", s.Name, err)
		}
		serviceIDs = append(serviceIDs, svc.ID)
		fmt.Printf("seeded service: %s (id=%s, price=%s)\n", svc.Name, svc.ID, svc.Price)
	}

	keyUC := usecase.NewKeyUseCase(keyRepo, serviceRepo, activityRepo, logger)
	keys, err := keyUC.GenerateBatch(ctx, serviceIDs[:1], 5, 3)
	if err != nil {
		log.Fatalf("generate keys: %v", err)
	}
	for _, k := range keys {
		fmt.Printf("seeded key: %s (limit=%d)\n", k.KeyValue, k.UsageLimit)
	}

	fmt.Println("Seeding complete.")
}
