package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shadematch/backend/internal/domain"
)

// CatalogServiceConfig holds configuration for the catalog service.
type CatalogServiceConfig struct {
	CacheTTL time.Duration

	// FallbackTypes are served per store brand when neither the document
	// store nor the local source can produce a catalog.
	FallbackTypes map[string][]string
}

// CatalogService serves per-retailer product lists and derived facets with
// bounded staleness. Reads go cache -> document store -> local file
// fallback; total failure degrades to an empty catalog rather than an error,
// so the matching path never crashes on catalog unavailability.
type CatalogService struct {
	store         domain.ProductStore
	local         domain.LocalSource
	cache         domain.CacheRepository
	fallbackTypes map[string][]string
}

// NewCatalogService creates a catalog service. store and local may be nil;
// each nil collaborator just removes one fallback tier.
func NewCatalogService(
	store domain.ProductStore,
	local domain.LocalSource,
	cacheRepo domain.CacheRepository,
	config CatalogServiceConfig,
) *CatalogService {
	if config.CacheTTL > 0 {
		cacheRepo.SetTTL(config.CacheTTL)
	}
	return &CatalogService{
		store:         store,
		local:         local,
		cache:         cacheRepo,
		fallbackTypes: config.FallbackTypes,
	}
}

// cacheKey builds a cache key from the calling method and its argument
// tuple, so calls with different filters never collide.
func cacheKey(method string, args ...string) string {
	return method + ":" + strings.Join(args, ":")
}

// Products returns the catalog for a store brand. The result is cached with
// the fetch timestamp and reused until the cache TTL elapses.
func (s *CatalogService) Products(ctx context.Context, retailer string) []domain.Product {
	key := cacheKey("products", retailer)
	if cached, err := s.cache.Get(key); err == nil {
		if products, ok := cached.([]domain.Product); ok {
			return products
		}
	}

	products := s.fetchProducts(ctx, retailer)
	s.cache.Set(key, products)
	return products
}

// fetchProducts loads the catalog from the document store, falling back to
// the local source when the store fails or is empty.
func (s *CatalogService) fetchProducts(ctx context.Context, retailer string) []domain.Product {
	if s.store != nil {
		docs, err := s.store.QueryByField(ctx, "current.retailers."+retailer, ">", map[string]any{})
		if err == nil && len(docs) > 0 {
			products := make([]domain.Product, 0, len(docs))
			for _, doc := range docs {
				if p, ok := productFromDocument(doc, retailer); ok {
					products = append(products, p)
				}
			}
			log.Printf("[CATALOG] loaded %d products for %q from store", len(products), retailer)
			return products
		}
		if err != nil {
			log.Printf("[CATALOG] store fetch for %q failed, trying local fallback: %v", retailer, err)
		} else {
			log.Printf("[CATALOG] store returned no products for %q, trying local fallback", retailer)
		}
	}

	if s.local != nil {
		products, err := s.local.Products(retailer)
		if err != nil {
			log.Printf("[CATALOG] local fallback for %q failed: %v", retailer, err)
			return []domain.Product{}
		}
		log.Printf("[CATALOG] loaded %d products for %q from local fallback", len(products), retailer)
		return products
	}

	return []domain.Product{}
}

// ProductTypes returns the sorted set of product types available at a store
// brand, with the same caching discipline as Products.
func (s *CatalogService) ProductTypes(ctx context.Context, retailer string) []string {
	key := cacheKey("product_types", retailer)
	if cached, err := s.cache.Get(key); err == nil {
		if types, ok := cached.([]string); ok {
			return types
		}
	}

	seen := make(map[string]bool)
	for _, p := range s.Products(ctx, retailer) {
		if p.Type != "" {
			seen[p.Type] = true
		}
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)

	if len(types) == 0 {
		types = append(types, s.fallbackTypes[retailer]...)
	}

	s.cache.Set(key, types)
	return types
}

// ProductByID resolves a product by any of its retailer identifiers
// (dan, gtin or code).
func (s *CatalogService) ProductByID(ctx context.Context, retailer, id string) (domain.Product, error) {
	for _, p := range s.Products(ctx, retailer) {
		if p.DAN == id || p.GTIN == id || p.Code == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%w: %s/%s", domain.ErrProductNotFound, retailer, id)
}

// ClearCache wipes all cached catalog data.
func (s *CatalogService) ClearCache() {
	s.cache.Clear()
	log.Printf("[CATALOG] cache cleared")
}

// CacheInfo describes the current cache contents.
type CacheInfo struct {
	Size       int      `json:"cache_size"`
	Keys       []string `json:"cache_keys"`
	TTLSeconds int      `json:"cache_ttl_seconds"`
}

// GetCacheInfo returns cache size, keys and TTL for monitoring.
func (s *CatalogService) GetCacheInfo() CacheInfo {
	keys := s.cache.Keys()
	sort.Strings(keys)
	return CacheInfo{
		Size:       s.cache.Size(),
		Keys:       keys,
		TTLSeconds: int(s.cache.TTL() / time.Second),
	}
}

// SetCacheTTL changes the catalog cache TTL.
func (s *CatalogService) SetCacheTTL(ttl time.Duration) {
	s.cache.SetTTL(ttl)
	log.Printf("[CATALOG] cache TTL set to %s", ttl)
}

// productFromDocument flattens a store document into a retailer-scoped
// product: the current state merged with the retailer sub-record, the store
// brand tag attached, and create entries of the change history blanked to
// empty records (their position and count stay intact for rescan detection).
func productFromDocument(doc domain.Document, retailer string) (domain.Product, bool) {
	retailers, ok := doc.Current["retailers"].(map[string]any)
	if !ok {
		return domain.Product{}, false
	}
	storeInfo, ok := retailers[retailer].(map[string]any)
	if !ok {
		return domain.Product{}, false
	}

	merged := make(map[string]any, len(doc.Current)+len(storeInfo))
	for k, v := range doc.Current {
		merged[k] = v
	}
	for k, v := range storeInfo {
		merged[k] = v
	}

	p := domain.Product{
		ID:          doc.ID,
		DAN:         stringField(merged, "dan"),
		GTIN:        stringField(merged, "gtin"),
		Code:        stringField(merged, "code"),
		Type:        stringField(merged, "type"),
		Brand:       stringField(merged, "brand"),
		ProductLine: stringField(merged, "product_line"),
		Title:       stringField(merged, "title"),
		Price:       stringField(merged, "price"),
		ProductLink: stringField(merged, "product_link"),
		ImagePath:   stringField(merged, "image_path"),
		ColorHex:    stringField(merged, "color_hex"),
		StoreBrand:  retailer,
		Changes:     changesFromDocument(doc.Changes),
	}
	if lab, ok := labField(merged, "color_lab"); ok {
		p.ColorLab = lab
		p.HasColor = true
	}
	return p, true
}

// changesFromDocument converts the raw change history, blanking create
// entries rather than dropping them.
func changesFromDocument(raw map[string]map[string]any) map[string]domain.ChangeRecord {
	if len(raw) == 0 {
		return nil
	}
	changes := make(map[string]domain.ChangeRecord, len(raw))
	for ts, change := range raw {
		if stringField(change, "action") == "create" {
			changes[ts] = domain.ChangeRecord{}
			continue
		}
		rec := domain.ChangeRecord{
			Action: stringField(change, "action"),
			By:     stringField(change, "by"),
		}
		if fields, ok := change["fields"].(map[string]any); ok {
			rec.Fields = make(map[string]domain.FieldChange, len(fields))
			for name, fc := range fields {
				if fcMap, ok := fc.(map[string]any); ok {
					rec.Fields[name] = domain.FieldChange{Old: fcMap["old"], New: fcMap["new"]}
				}
			}
		}
		changes[ts] = rec
	}
	return changes
}

// stringField reads a field as a string, rendering numeric identifiers and
// prices without an exponent.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// labField reads a [L, a, b] value from a decoded document.
func labField(m map[string]any, key string) (domain.Lab, bool) {
	raw, ok := m[key].([]any)
	if !ok || len(raw) != 3 {
		return domain.Lab{}, false
	}
	var out [3]float64
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return domain.Lab{}, false
		}
		out[i] = f
	}
	return domain.Lab{L: out[0], A: out[1], B: out[2]}, true
}
