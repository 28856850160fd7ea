package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"google.golang.org/api/option"

	"github.com/shadematch/backend/config"
	httpDelivery "github.com/shadematch/backend/internal/delivery/http"
	"github.com/shadematch/backend/internal/domain"
	"github.com/shadematch/backend/internal/infrastructure/cache"
	"github.com/shadematch/backend/internal/infrastructure/dm"
	"github.com/shadematch/backend/internal/infrastructure/douglas"
	"github.com/shadematch/backend/internal/infrastructure/store"
	"github.com/shadematch/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ShadeMatch Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)
	log.Printf("Store brands: %v", cfg.Retailers.Brands)

	ctx := context.Background()

	// Primary catalog: Firestore. When disabled or unreachable the catalog
	// service falls back to the local snapshots on its own.
	var productStore domain.ProductStore
	if cfg.Firestore.Enabled {
		var opts []option.ClientOption
		if cfg.Firestore.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
		}
		firestoreStore, err := store.NewFirestoreStore(
			ctx,
			cfg.Firestore.ProjectID,
			cfg.Firestore.DatabaseID,
			cfg.Firestore.Collection,
			cfg.Firestore.Timeout,
			opts...,
		)
		if err != nil {
			log.Printf("WARNING: Firestore unavailable, serving local snapshots only: %v", err)
		} else {
			defer firestoreStore.Close()
			productStore = firestoreStore
		}
	} else {
		log.Printf("Firestore disabled, serving local snapshots from %s", cfg.Catalog.LocalDir)
	}

	localSource := store.NewLocalSource(cfg.Catalog.LocalDir)
	memoryCache := cache.NewMemoryCache(cfg.Cache.TTL)

	catalogService := usecase.NewCatalogService(
		productStore,
		localSource,
		memoryCache,
		usecase.CatalogServiceConfig{
			CacheTTL:      cfg.Cache.TTL,
			FallbackTypes: cfg.Catalog.FallbackTypes,
		},
	)

	// Live retailer enrichment clients, keyed by store brand. One dm client
	// serves both lookups so the shared rate limit covers them together.
	dmClient := dm.NewClient(cfg.Retailers.DM.BaseURL, cfg.Retailers.DM.StoreID)
	availabilityClients := map[string]domain.AvailabilityClient{
		"dm":      dmClient,
		"douglas": douglas.NewClient(cfg.Retailers.Douglas.BaseURL, cfg.Retailers.Douglas.StoreID),
	}
	detailClients := map[string]domain.DetailClient{
		"dm": dmClient,
	}

	matchingService := usecase.NewMatchingService(
		catalogService,
		availabilityClients,
		detailClients,
		usecase.MatchingServiceConfig{
			StoreBrands: cfg.Retailers.Brands,
			Correction:  correctionParams(cfg.Correction),
			PerRetailer: correctionOverrides(cfg.Correction.Overrides),
		},
	)

	log.Printf("Correction: scale=(%.2f, %.2f, %.2f) rotate=(%.1f, %.1f, %.1f) offset=(%.1f, %.1f, %.1f)",
		cfg.Correction.ScaleL, cfg.Correction.ScaleA, cfg.Correction.ScaleB,
		cfg.Correction.RotateXDeg, cfg.Correction.RotateYDeg, cfg.Correction.RotateZDeg,
		cfg.Correction.OffsetL, cfg.Correction.OffsetA, cfg.Correction.OffsetB)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(matchingService, catalogService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func correctionParams(c config.CorrectionConfig) usecase.CorrectionParams {
	return usecase.CorrectionParams{
		ScaleL:  c.ScaleL,
		ScaleA:  c.ScaleA,
		ScaleB:  c.ScaleB,
		RotXDeg: c.RotateXDeg,
		RotYDeg: c.RotateYDeg,
		RotZDeg: c.RotateZDeg,
		OffsetL: c.OffsetL,
		OffsetA: c.OffsetA,
		OffsetB: c.OffsetB,
	}
}

func correctionOverrides(overrides map[string]config.CorrectionConfig) map[string]usecase.CorrectionParams {
	if len(overrides) == 0 {
		return nil
	}
	params := make(map[string]usecase.CorrectionParams, len(overrides))
	for brand, c := range overrides {
		params[brand] = correctionParams(c)
	}
	return params
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
