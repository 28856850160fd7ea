package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shadematch/backend/internal/colorspace"
	"github.com/shadematch/backend/internal/domain"
	"github.com/shadematch/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	matching *usecase.MatchingService
	catalog  *usecase.CatalogService
}

// NewHandler creates a new HTTP handler
func NewHandler(matching *usecase.MatchingService, catalog *usecase.CatalogService) *Handler {
	return &Handler{
		matching: matching,
		catalog:  catalog,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shadematch-backend",
		"version": "1.0.0",
	})
}

// matchRequest is the body of POST /api/v1/match. Color accepts either a
// "[L, a, b]" array or a "#rrggbb" string. Boolean options are pointers so an
// absent field keeps its default.
type matchRequest struct {
	Color               json.RawMessage `json:"color" binding:"required"`
	StoreBrand          string          `json:"store_brand" binding:"required"`
	StoreLocation       string          `json:"store_location"`
	ProductType         string          `json:"product_type"`
	MaxResults          int             `json:"max_results"`
	IncludeAvailability *bool           `json:"include_availability"`
	IncludeHistory      bool            `json:"include_history"`
	OnlyRescanned       *bool           `json:"only_rescanned"`
}

// MatchFoundation ranks a store brand's catalog against a scanned color
func (h *Handler) MatchFoundation(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	target, err := parseColor(req.Color)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := domain.DefaultMatchOptions()
	opts.StoreLocation = req.StoreLocation
	opts.ProductType = req.ProductType
	opts.IncludeHistory = req.IncludeHistory
	if req.MaxResults > 0 {
		opts.MaxResults = req.MaxResults
	}
	if req.IncludeAvailability != nil {
		opts.IncludeAvailability = *req.IncludeAvailability
	}
	if req.OnlyRescanned != nil {
		opts.OnlyRescanned = *req.OnlyRescanned
	}

	results, err := h.matching.MatchFoundation(c.Request.Context(), target, req.StoreBrand, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUnknownRetailer) || errors.Is(err, domain.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":     results,
		"store_brand": req.StoreBrand,
		"skin_tone":   h.matching.ClassifySkinTone(target),
	})
}

// averageColorRequest is the body of POST /api/v1/average-color
type averageColorRequest struct {
	Colors []domain.Lab `json:"colors" binding:"required"`
}

// AverageColor reduces raw scan samples to one representative color
func (h *Handler) AverageColor(c *gin.Context) {
	var req averageColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Colors) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "colors must not be empty"})
		return
	}

	average := h.matching.ComputeAverageColor(req.Colors)
	c.JSON(http.StatusOK, gin.H{
		"average_color": average,
		"sample_count":  len(req.Colors),
	})
}

// skinToneRequest is the body of POST /api/v1/skin-tone
type skinToneRequest struct {
	Color json.RawMessage `json:"color" binding:"required"`
}

// SkinTone classifies a color against the reference skin tones
func (h *Handler) SkinTone(c *gin.Context) {
	var req skinToneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	color, err := parseColor(req.Color)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"skin_tone": h.matching.ClassifySkinTone(color)})
}

// StoreBrands lists the configured store brands
func (h *Handler) StoreBrands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"store_brands": h.matching.StoreBrands()})
}

// ProductTypes lists the product types available at a store brand
func (h *Handler) ProductTypes(c *gin.Context) {
	brand := c.Param("store_brand")
	if !h.knownBrand(brand) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown store brand: " + brand})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"store_brand":   brand,
		"product_types": h.catalog.ProductTypes(c.Request.Context(), brand),
	})
}

// ProductData returns the full catalog of a store brand
func (h *Handler) ProductData(c *gin.Context) {
	brand := c.Param("store_brand")
	if !h.knownBrand(brand) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown store brand: " + brand})
		return
	}
	products := h.catalog.Products(c.Request.Context(), brand)
	c.JSON(http.StatusOK, gin.H{
		"store_brand": brand,
		"count":       len(products),
		"products":    products,
	})
}

// Product resolves one product by retailer identifier
func (h *Handler) Product(c *gin.Context) {
	brand := c.Param("store_brand")
	if !h.knownBrand(brand) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown store brand: " + brand})
		return
	}

	product, err := h.catalog.ProductByID(c.Request.Context(), brand, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

// CacheInfo reports cache size, keys and TTL
func (h *Handler) CacheInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.matching.GetCacheInfo())
}

// CacheClear wipes the catalog cache
func (h *Handler) CacheClear(c *gin.Context) {
	h.matching.ClearCache()
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}

// cacheTTLRequest is the body of POST /api/v1/cache/ttl
type cacheTTLRequest struct {
	TTLSeconds int `json:"ttl_seconds" binding:"required"`
}

// CacheTTL changes the catalog cache TTL
func (h *Handler) CacheTTL(c *gin.Context) {
	var req cacheTTLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.TTLSeconds <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ttl_seconds must be positive"})
		return
	}

	h.matching.SetCacheTTL(time.Duration(req.TTLSeconds) * time.Second)
	c.JSON(http.StatusOK, gin.H{"ttl_seconds": req.TTLSeconds})
}

func (h *Handler) knownBrand(brand string) bool {
	for _, b := range h.matching.StoreBrands() {
		if b == brand {
			return true
		}
	}
	return false
}

// parseColor accepts a color as either a [L, a, b] array or a hex string.
func parseColor(raw json.RawMessage) (domain.Lab, error) {
	var lab domain.Lab
	if err := json.Unmarshal(raw, &lab); err == nil {
		return lab, nil
	}

	var hex string
	if err := json.Unmarshal(raw, &hex); err == nil {
		lab, err := colorspace.HexToLab(hex)
		if err != nil {
			return domain.Lab{}, err
		}
		return lab, nil
	}

	return domain.Lab{}, errors.New("color must be a [L, a, b] array or a hex string")
}
