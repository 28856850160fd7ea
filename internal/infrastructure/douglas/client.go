package douglas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shadematch/backend/internal/domain"
)

const (
	defaultBaseURL = "https://www.douglas.de"
	defaultStoreID = "02180539"

	// batchSize is the maximum number of product codes sent in one
	// availability request.
	batchSize = 50
)

// Client talks to the Douglas store availability API. Products are addressed
// by their Douglas article code. The endpoint only reports in-store state;
// listed products are always orderable online.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	storeID     string
	rateLimiter *rate.Limiter
}

// NewClient creates a Douglas API client. storeID selects the store checked
// for in-store availability; empty means the Munich city store.
func NewClient(baseURL, storeID string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if storeID == "" {
		storeID = defaultStoreID
	}
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

// availabilityRequest is the POST body of the availability endpoint. The
// endpoint echoes the product list back with the in-store flag filled in, so
// every product is sent with the placeholder values the storefront uses.
type availabilityRequest struct {
	Products []requestProduct `json:"products"`
}

type requestProduct struct {
	Code               string    `json:"code"`
	IsAvailableOnline  bool      `json:"isAvailableOnline"`
	IsBackfill         bool      `json:"isBackfill"`
	ProductType        string    `json:"productType"`
	MarketplaceProduct bool      `json:"marketplaceProduct"`
	PriceData          priceData `json:"priceData"`
}

type priceData struct {
	CurrencyISO    string  `json:"currencyIso"`
	Value          float64 `json:"value"`
	PriceType      string  `json:"priceType"`
	FormattedValue string  `json:"formattedValue"`
}

type availabilityResponse struct {
	Products map[string]struct {
		IsAvailableInStore bool `json:"isAvailableInStore"`
	} `json:"products"`
}

// CheckAvailability posts the product codes to the store availability
// endpoint and returns the stock state per code. Requests are chunked to the
// endpoint's batch limit and issued concurrently; an error is returned only
// when every chunk fails. Codes the endpoint does not echo back are omitted
// from the result. Douglas reports no stock counts, so StockLevel is
// always 0.
func (c *Client) CheckAvailability(ctx context.Context, codes []string, storeLocation string) (map[string]domain.Availability, error) {
	if len(codes) == 0 {
		return map[string]domain.Availability{}, nil
	}
	store := storeLocation
	if store == "" {
		store = c.storeID
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = make(map[string]domain.Availability, len(codes))
		errs   []error
	)

	for _, chunk := range chunkCodes(codes, batchSize) {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			availability, err := c.fetchAvailabilityChunk(ctx, chunk, store)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			for code, state := range availability {
				result[code] = state
			}
		}(chunk)
	}
	wg.Wait()

	if len(result) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%w: douglas availability: %v", domain.ErrRetailerUnavailable, errs[0])
	}
	if len(errs) > 0 {
		log.Printf("[DOUGLAS] %d of %d availability chunks failed, returning partial data",
			len(errs), (len(codes)+batchSize-1)/batchSize)
	}
	return result, nil
}

func (c *Client) fetchAvailabilityChunk(ctx context.Context, codes []string, store string) (map[string]domain.Availability, error) {
	payload := availabilityRequest{Products: make([]requestProduct, 0, len(codes))}
	for _, code := range codes {
		payload.Products = append(payload.Products, requestProduct{
			Code:              code,
			IsAvailableOnline: true,
			ProductType:       "PRODUCT",
			PriceData: priceData{
				CurrencyISO: "EUR",
				Value:       1,
				PriceType:   "BUY",
			},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode douglas availability request: %w", err)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/jsapi/v2/stores/%s/availability", c.baseURL, store)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://www.douglas.de")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetailerUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read douglas response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[DOUGLAS] API error - Status: %d, Body: %s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("%w: status %d", domain.ErrRetailerUnavailable, resp.StatusCode)
	}

	var decoded availabilityResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode douglas availability response: %w", err)
	}

	availability := make(map[string]domain.Availability, len(codes))
	for _, code := range codes {
		product, ok := decoded.Products[code]
		if !ok {
			continue
		}
		availability[code] = domain.Availability{
			Online:  true,
			InStore: product.IsAvailableInStore,
		}
	}
	return availability, nil
}

// chunkCodes splits codes into slices of at most size elements.
func chunkCodes(codes []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(codes); start += size {
		end := start + size
		if end > len(codes) {
			end = len(codes)
		}
		chunks = append(chunks, codes[start:end])
	}
	return chunks
}
