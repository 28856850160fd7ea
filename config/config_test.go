package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("SHADEMATCH_SERVER_PORT")
		os.Unsetenv("SHADEMATCH_SERVER_ENVIRONMENT")
		os.Unsetenv("SHADEMATCH_FIRESTORE_ENABLED")
		os.Unsetenv("SHADEMATCH_FIRESTORE_PROJECT_ID")
		os.Unsetenv("SHADEMATCH_FIRESTORE_COLLECTION")
		os.Unsetenv("SHADEMATCH_CACHE_TTL")
		os.Unsetenv("SHADEMATCH_CATALOG_LOCAL_DIR")
		os.Unsetenv("SHADEMATCH_RETAILERS_DM_STORE_ID")
		os.Unsetenv("SHADEMATCH_CORRECTION_SCALE_L")
		os.Unsetenv("SHADEMATCH_CORRECTION_ROTATE_Z_DEG")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHADEMATCH_FIRESTORE_PROJECT_ID", "test-project")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Firestore.Collection != "products" {
			t.Errorf("Firestore.Collection = %s, want products", cfg.Firestore.Collection)
		}
		if cfg.Firestore.DatabaseID != "(default)" {
			t.Errorf("Firestore.DatabaseID = %s, want (default)", cfg.Firestore.DatabaseID)
		}
		if cfg.Cache.TTL != 300*time.Second {
			t.Errorf("Cache.TTL = %v, want 300s", cfg.Cache.TTL)
		}
		if cfg.Catalog.LocalDir != "./database" {
			t.Errorf("Catalog.LocalDir = %s, want ./database", cfg.Catalog.LocalDir)
		}
		if len(cfg.Retailers.Brands) != 2 {
			t.Errorf("Retailers.Brands = %v, want [dm douglas]", cfg.Retailers.Brands)
		}
		if cfg.Retailers.DM.StoreID != "D522" {
			t.Errorf("Retailers.DM.StoreID = %s, want D522", cfg.Retailers.DM.StoreID)
		}
		if cfg.Retailers.Douglas.StoreID != "02180539" {
			t.Errorf("Retailers.Douglas.StoreID = %s, want 02180539", cfg.Retailers.Douglas.StoreID)
		}
		if cfg.Correction.ScaleL != 0.8 {
			t.Errorf("Correction.ScaleL = %v, want 0.8", cfg.Correction.ScaleL)
		}
		if cfg.Correction.RotateZDeg != -25.0 {
			t.Errorf("Correction.RotateZDeg = %v, want -25", cfg.Correction.RotateZDeg)
		}
		if cfg.Correction.OffsetL != -10.0 {
			t.Errorf("Correction.OffsetL = %v, want -10", cfg.Correction.OffsetL)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHADEMATCH_SERVER_PORT", "9090")
		os.Setenv("SHADEMATCH_SERVER_ENVIRONMENT", "production")
		os.Setenv("SHADEMATCH_FIRESTORE_PROJECT_ID", "shadematch-prod")
		os.Setenv("SHADEMATCH_FIRESTORE_COLLECTION", "products_v2")
		os.Setenv("SHADEMATCH_CACHE_TTL", "10m")
		os.Setenv("SHADEMATCH_RETAILERS_DM_STORE_ID", "D2KK")
		os.Setenv("SHADEMATCH_CORRECTION_ROTATE_Z_DEG", "-20")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Firestore.ProjectID != "shadematch-prod" {
			t.Errorf("Firestore.ProjectID = %s, want shadematch-prod", cfg.Firestore.ProjectID)
		}
		if cfg.Firestore.Collection != "products_v2" {
			t.Errorf("Firestore.Collection = %s, want products_v2", cfg.Firestore.Collection)
		}
		if cfg.Cache.TTL != 10*time.Minute {
			t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
		}
		if cfg.Retailers.DM.StoreID != "D2KK" {
			t.Errorf("Retailers.DM.StoreID = %s, want D2KK", cfg.Retailers.DM.StoreID)
		}
		if cfg.Correction.RotateZDeg != -20.0 {
			t.Errorf("Correction.RotateZDeg = %v, want -20", cfg.Correction.RotateZDeg)
		}
	})

	t.Run("fails validation when project ID is missing", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing project ID")
		}
	})

	t.Run("runs without Firestore when disabled", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHADEMATCH_FIRESTORE_ENABLED", "false")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Firestore.Enabled {
			t.Error("Firestore.Enabled = true, want false")
		}
	})

	t.Run("fails validation for non-positive cache TTL", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHADEMATCH_FIRESTORE_PROJECT_ID", "test-project")
		os.Setenv("SHADEMATCH_CACHE_TTL", "0s")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for zero cache TTL")
		}
	})

	t.Run("fails validation for non-positive correction scale", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHADEMATCH_FIRESTORE_PROJECT_ID", "test-project")
		os.Setenv("SHADEMATCH_CORRECTION_SCALE_L", "0")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for zero scale factor")
		}
	})
}
