package usecase

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shadematch/backend/internal/colorspace"
	"github.com/shadematch/backend/internal/domain"
)

// matchThreshold is the CIEDE2000 distance at which a match reports 0%.
const matchThreshold = 50.0

// skinToneClasses are the fixed reference tones for classification, in tie
// break order: the first class at minimal distance wins.
var skinToneClasses = []struct {
	Name   string
	Center domain.Lab
}{
	{"very-light", domain.Lab{L: 66.8, A: 5.9, B: 11.1}},
	{"light", domain.Lab{L: 60.6, A: 9.4, B: 15.1}},
	{"medium", domain.Lab{L: 56.7, A: 11.4, B: 17.9}},
	{"tan", domain.Lab{L: 49.3, A: 13.5, B: 19.4}},
	{"olive", domain.Lab{L: 55.9, A: 7.5, B: 18.1}},
	{"dark", domain.Lab{L: 37.9, A: 13.7, B: 22.6}},
}

// MatchingServiceConfig holds configuration for the matching service.
type MatchingServiceConfig struct {
	// StoreBrands are the retailers a caller may request.
	StoreBrands []string

	// Correction holds the global bias correction constants; PerRetailer
	// overrides them for individual store brands.
	Correction  CorrectionParams
	PerRetailer map[string]CorrectionParams

	DefaultMaxResults int
}

// MatchingService ranks catalog products against a scanned target color and
// enriches the top results with live retailer data.
type MatchingService struct {
	catalog      *CatalogService
	availability map[string]domain.AvailabilityClient
	details      map[string]domain.DetailClient

	brands            []string
	correction        CorrectionParams
	perRetailer       map[string]CorrectionParams
	defaultMaxResults int
}

// NewMatchingService creates a matching service. Availability and detail
// clients are optional per retailer; a missing client degrades enrichment,
// never the ranking.
func NewMatchingService(
	catalog *CatalogService,
	availability map[string]domain.AvailabilityClient,
	details map[string]domain.DetailClient,
	config MatchingServiceConfig,
) *MatchingService {
	brands := config.StoreBrands
	if len(brands) == 0 {
		brands = []string{"dm", "douglas"}
	}
	correction := config.Correction
	if correction == (CorrectionParams{}) {
		correction = DefaultCorrectionParams()
	}
	maxResults := config.DefaultMaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	return &MatchingService{
		catalog:           catalog,
		availability:      availability,
		details:           details,
		brands:            brands,
		correction:        correction,
		perRetailer:       config.PerRetailer,
		defaultMaxResults: maxResults,
	}
}

// candidate is one product that survived filtering, with its corrected color
// and distance to the target.
type candidate struct {
	product   domain.Product
	corrected domain.Lab
	distance  float64
}

// MatchFoundation ranks the catalog of a store brand by perceptual distance
// to the target color. Only the retailer validation can fail; catalog and
// enrichment problems degrade the response instead, since a partial result
// is more useful than none.
func (s *MatchingService) MatchFoundation(
	ctx context.Context,
	target domain.Lab,
	retailer string,
	opts domain.MatchOptions,
) ([]domain.MatchResult, error) {
	if !s.knownBrand(retailer) {
		return nil, fmt.Errorf("%w: %q, choose from %s",
			domain.ErrUnknownRetailer, retailer, strings.Join(s.brands, ", "))
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.defaultMaxResults
	}

	products := s.catalog.Products(ctx, retailer)
	if opts.ProductType != "" {
		filtered := products[:0:0]
		for _, p := range products {
			if p.Type == opts.ProductType {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	center := CorrectionCenter(products, opts.OnlyRescanned)
	corrector := NewCorrector(s.correctionFor(retailer), center)

	candidates := make([]candidate, 0, len(products))
	for _, p := range products {
		if !p.HasColor || len(p.Changes) == 0 {
			continue
		}
		if opts.OnlyRescanned && !p.Rescanned() {
			continue
		}
		corrected := corrector.Correct(p.ColorLab)
		candidates = append(candidates, candidate{
			product:   p,
			corrected: corrected,
			distance:  colorspace.Distance(target, corrected),
		})
	}

	// Ties keep catalog order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	results := make([]domain.MatchResult, len(candidates))
	for i, c := range candidates {
		results[i] = s.formatResult(c, opts)
	}

	// Ranking is the deliverable; everything past this point is best-effort
	// and must not fail the call, including on context cancellation.
	if opts.IncludeAvailability {
		s.attachAvailability(ctx, retailer, candidates, results, opts.StoreLocation)
	}
	s.attachDetails(ctx, retailer, candidates, results)

	return results, nil
}

func (s *MatchingService) knownBrand(retailer string) bool {
	for _, b := range s.brands {
		if b == retailer {
			return true
		}
	}
	return false
}

func (s *MatchingService) correctionFor(retailer string) CorrectionParams {
	if params, ok := s.perRetailer[retailer]; ok {
		return params
	}
	return s.correction
}

// StoreBrands returns the configured store brands.
func (s *MatchingService) StoreBrands() []string {
	return append([]string(nil), s.brands...)
}

// ComputeAverageColor reduces raw scan samples to one representative color.
func (s *MatchingService) ComputeAverageColor(points []domain.Lab) domain.Lab {
	return ComputeAverageColor(points)
}

// ClassifySkinTone returns the named reference tone nearest to the color.
func (s *MatchingService) ClassifySkinTone(c domain.Lab) string {
	best := skinToneClasses[0].Name
	bestDist := math.Inf(1)
	for _, class := range skinToneClasses {
		if d := colorspace.Distance(c, class.Center); d < bestDist {
			bestDist = d
			best = class.Name
		}
	}
	return best
}

// ClearCache wipes the catalog cache.
func (s *MatchingService) ClearCache() {
	s.catalog.ClearCache()
}

// GetCacheInfo reports catalog cache contents.
func (s *MatchingService) GetCacheInfo() CacheInfo {
	return s.catalog.GetCacheInfo()
}

// SetCacheTTL changes the catalog cache TTL.
func (s *MatchingService) SetCacheTTL(ttl time.Duration) {
	s.catalog.SetCacheTTL(ttl)
}

// formatResult builds the frontend shape of one ranked candidate, before
// availability and detail enrichment.
func (s *MatchingService) formatResult(c candidate, opts domain.MatchOptions) domain.MatchResult {
	p := c.product
	result := domain.MatchResult{
		ProductID:       p.ID,
		BrandName:       p.Brand,
		Description:     strings.TrimSpace(p.Title + " " + p.ProductLine),
		ColorSwatch:     p.ColorHex,
		Image:           p.ImagePath,
		Link:            p.ProductLink,
		Price:           formatPrice(p.Price),
		Type:            p.Type,
		MatchPercentage: matchPercentage(c.distance),
		ColorDistance:   c.distance,
		StoreBrand:      p.StoreBrand,
		Availability:    domain.AvailabilityUnknown,
	}

	if opts.IncludeHistory {
		lab := p.ColorLab
		corrected := c.corrected
		result.ColorLab = &lab
		result.ColorHex = p.ColorHex
		result.CorrectedColorLab = &corrected
		result.History = colorHistory(p.Changes)
	}

	return result
}

// matchPercentage maps a distance to the user-facing match score: 0 units is
// 100%, matchThreshold and beyond is 0%, linear in between.
func matchPercentage(distance float64) string {
	score := 1 - math.Min(distance, matchThreshold)/matchThreshold
	if score < 0 {
		score = 0
	}
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}

func formatPrice(price string) string {
	if price == "" || strings.Contains(price, "€") {
		return price
	}
	return price + " €"
}

// colorHistory extracts prior catalog colors from the change history. Only
// entries that recorded both a previous color_lab and color_hex qualify.
func colorHistory(changes map[string]domain.ChangeRecord) map[string]domain.ColorChange {
	history := make(map[string]domain.ColorChange)
	for ts, change := range changes {
		labChange, hasLab := change.Fields["color_lab"]
		hexChange, hasHex := change.Fields["color_hex"]
		if !hasLab || !hasHex {
			continue
		}
		oldHex, ok := hexChange.Old.(string)
		if !ok {
			continue
		}
		oldLab, ok := labFromAny(labChange.Old)
		if !ok {
			continue
		}
		history[ts] = domain.ColorChange{ColorHex: oldHex, ColorLab: oldLab}
	}
	if len(history) == 0 {
		return nil
	}
	return history
}

func labFromAny(v any) (domain.Lab, bool) {
	switch triple := v.(type) {
	case domain.Lab:
		return triple, true
	case []float64:
		if len(triple) != 3 {
			return domain.Lab{}, false
		}
		return domain.Lab{L: triple[0], A: triple[1], B: triple[2]}, true
	case []any:
		if len(triple) != 3 {
			return domain.Lab{}, false
		}
		var out [3]float64
		for i, c := range triple {
			f, ok := c.(float64)
			if !ok {
				return domain.Lab{}, false
			}
			out[i] = f
		}
		return domain.Lab{L: out[0], A: out[1], B: out[2]}, true
	default:
		return domain.Lab{}, false
	}
}

// attachAvailability joins live retailer stock state onto the ranked
// results. A missing client, a failed lookup or an unknown id all degrade to
// erp_connection=false with zeroed statuses.
func (s *MatchingService) attachAvailability(
	ctx context.Context,
	retailer string,
	candidates []candidate,
	results []domain.MatchResult,
	storeLocation string,
) {
	client := s.availability[retailer]
	if client == nil || len(candidates) == 0 {
		return
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if id := c.product.RetailerID(); id != "" {
			ids = append(ids, id)
		}
	}

	availability, err := client.CheckAvailability(ctx, ids, storeLocation)
	if err != nil {
		log.Printf("[MATCH] availability lookup for %q failed: %v", retailer, err)
		for i := range results {
			results[i].Warnings = append(results[i].Warnings, "availability lookup failed")
		}
		return
	}

	for i, c := range candidates {
		state, ok := availability[c.product.RetailerID()]
		if !ok {
			continue
		}
		results[i].ERPConnection = true
		results[i].OnlineStatus = state.Online
		results[i].InStoreStatus = state.InStore
		results[i].StockLevel = state.StockLevel
		switch {
		case state.InStore:
			results[i].Availability = domain.AvailabilityAvailable
		case state.Online:
			results[i].Availability = domain.AvailabilityOnline
		default:
			results[i].Availability = domain.AvailabilityUnavailable
		}
	}
}

// attachDetails overlays live brand, image, description and price from the
// retailer's detail endpoint onto the results. Best-effort: missing fields
// keep their catalog values.
func (s *MatchingService) attachDetails(
	ctx context.Context,
	retailer string,
	candidates []candidate,
	results []domain.MatchResult,
) {
	client := s.details[retailer]
	if client == nil || len(candidates) == 0 {
		return
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if id := c.product.RetailerID(); id != "" {
			ids = append(ids, id)
		}
	}

	details, err := client.FetchDetails(ctx, ids)
	if err != nil {
		log.Printf("[MATCH] detail lookup for %q failed: %v", retailer, err)
		for i := range results {
			results[i].Warnings = append(results[i].Warnings, "detail lookup failed")
		}
		return
	}

	for i, c := range candidates {
		d, ok := details[c.product.RetailerID()]
		if !ok {
			continue
		}
		if d.Brand != "" {
			results[i].BrandName = d.Brand
		}
		if d.Image != "" {
			results[i].Image = d.Image
		}
		if d.Description != "" {
			results[i].Description = d.Description
		}
		if d.Price != "" {
			results[i].Price = formatPrice(d.Price)
		}
	}
}
