package dm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shadematch/backend/internal/domain"
)

const (
	defaultBaseURL = "https://products.dm.de"
	defaultStoreID = "D522"

	// batchSize is the maximum number of DANs the tiles endpoints accept in
	// one request.
	batchSize = 50
)

// Client talks to the dm product tiles API for live availability and product
// details. Products are addressed by DAN.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	storeID     string
	rateLimiter *rate.Limiter
}

// NewClient creates a dm API client. storeID selects the pickup store used
// for in-store availability; empty means the Munich Kaufingerstr. store.
func NewClient(baseURL, storeID string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if storeID == "" {
		storeID = defaultStoreID
	}
	// The tiles API is unauthenticated; stay well below anything that looks
	// like scraping.
	limiter := rate.NewLimiter(rate.Limit(5), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		storeID:     storeID,
		rateLimiter: limiter,
	}
}

// availabilityTile is one product's entry in the availability response. The
// first row describes online availability, the second the pickup store.
type availabilityTile struct {
	Rows []tileRow `json:"rows"`
}

type tileRow struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}

// available reports whether a row signals availability.
func (r tileRow) available() bool {
	return r.Icon == "GREEN"
}

// stockLevel extracts the unit count from a row text like "Verfügbar (12)".
// Rows without a parenthesized count report 0.
func (r tileRow) stockLevel() int {
	open := strings.Index(r.Text, "(")
	closing := strings.Index(r.Text, ")")
	if open < 0 || closing < open {
		return 0
	}
	n, err := strconv.Atoi(r.Text[open+1 : closing])
	if err != nil {
		return 0
	}
	return n
}

// CheckAvailability fetches online and in-store availability for a batch of
// DANs. Requests are chunked to the API's batch limit and issued
// concurrently; an error is returned only when every chunk fails.
func (c *Client) CheckAvailability(ctx context.Context, dans []string, storeLocation string) (map[string]domain.Availability, error) {
	if len(dans) == 0 {
		return map[string]domain.Availability{}, nil
	}
	store := storeLocation
	if store == "" {
		store = c.storeID
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = make(map[string]domain.Availability, len(dans))
		errs   []error
	)

	for _, chunk := range chunkIDs(dans, batchSize) {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			tiles, err := c.fetchAvailabilityChunk(ctx, chunk, store)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			for dan, tile := range tiles {
				if len(tile.Rows) < 2 {
					continue
				}
				result[dan] = domain.Availability{
					Online:     tile.Rows[0].available(),
					InStore:    tile.Rows[1].available(),
					StockLevel: tile.Rows[1].stockLevel(),
				}
			}
		}(chunk)
	}
	wg.Wait()

	if len(result) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%w: dm availability: %v", domain.ErrRetailerUnavailable, errs[0])
	}
	if len(errs) > 0 {
		log.Printf("[DM] %d of %d availability chunks failed, returning partial data",
			len(errs), (len(dans)+batchSize-1)/batchSize)
	}
	return result, nil
}

func (c *Client) fetchAvailabilityChunk(ctx context.Context, dans []string, store string) (map[string]availabilityTile, error) {
	reqURL := fmt.Sprintf("%s/availability/api/v1/tiles/DE/%s?pickupStoreId=%s",
		c.baseURL, strings.Join(dans, ","), store)

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var tiles map[string]availabilityTile
	if err := json.Unmarshal(body, &tiles); err != nil {
		return nil, fmt.Errorf("decode dm availability response: %w", err)
	}
	return tiles, nil
}

// detailTile is one product's entry in the product tiles response.
type detailTile struct {
	Brand struct {
		Name string `json:"name"`
	} `json:"brand"`
	Title struct {
		TileHeadline string `json:"tileHeadline"`
	} `json:"title"`
	Images []struct {
		TileSrc string `json:"tileSrc"`
	} `json:"images"`
	Price struct {
		Price struct {
			Current struct {
				Value float64 `json:"value"`
			} `json:"current"`
		} `json:"price"`
	} `json:"price"`
}

// FetchDetails fetches live brand, headline, image and price for a batch of
// DANs, chunked and merged like CheckAvailability.
func (c *Client) FetchDetails(ctx context.Context, dans []string) (map[string]domain.ProductDetails, error) {
	if len(dans) == 0 {
		return map[string]domain.ProductDetails{}, nil
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = make(map[string]domain.ProductDetails, len(dans))
		errs   []error
	)

	for _, chunk := range chunkIDs(dans, batchSize) {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			details, err := c.fetchDetailChunk(ctx, chunk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			for dan, d := range details {
				result[dan] = d
			}
		}(chunk)
	}
	wg.Wait()

	if len(result) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%w: dm details: %v", domain.ErrRetailerUnavailable, errs[0])
	}
	return result, nil
}

func (c *Client) fetchDetailChunk(ctx context.Context, dans []string) (map[string]domain.ProductDetails, error) {
	reqURL := fmt.Sprintf("%s/product/products/tiles/DE/dans/%s", c.baseURL, strings.Join(dans, ","))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Products map[string]detailTile `json:"products"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode dm product tiles response: %w", err)
	}

	details := make(map[string]domain.ProductDetails, len(resp.Products))
	for dan, tile := range resp.Products {
		d := domain.ProductDetails{
			Brand:       tile.Brand.Name,
			Description: tile.Title.TileHeadline,
		}
		if len(tile.Images) > 0 {
			d.Image = tile.Images[0].TileSrc
		}
		if v := tile.Price.Price.Current.Value; v > 0 {
			d.Price = strconv.FormatFloat(v, 'f', 2, 64)
		}
		details[dan] = d
	}
	return details, nil
}

// get executes a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", "https://www.dm.de")
	req.Header.Set("Referer", "https://www.dm.de/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetailerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read dm response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[DM] API error - Status: %d, Body: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: status %d", domain.ErrRetailerUnavailable, resp.StatusCode)
	}
	return body, nil
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
