package domain

import (
	"context"
	"time"
)

// Document is a raw product document from the store: the current field state
// plus the change history keyed by ISO-8601 timestamp.
type Document struct {
	ID      string
	Current map[string]any
	Changes map[string]map[string]any
}

// ProductWrite is one document in a batch write.
type ProductWrite struct {
	ID   string
	Data map[string]any
}

// ProductStore defines the interface to the backing document store.
type ProductStore interface {
	// GetCurrentState returns the current sub-record of one product.
	GetCurrentState(ctx context.Context, productID string) (map[string]any, error)

	// QueryByField returns all documents whose field at path matches the
	// operator and value, e.g. ("current.retailers.dm", ">", map{}).
	QueryByField(ctx context.Context, path, op string, value any) ([]Document, error)

	// BatchWrite creates or replaces documents in bulk and reports how many
	// writes succeeded and failed.
	BatchWrite(ctx context.Context, writes []ProductWrite) (succeeded, failed int, err error)
}

// LocalSource is the secondary file-based catalog used when the document
// store is unreachable.
type LocalSource interface {
	Products(retailer string) ([]Product, error)
}

// CacheRepository defines the caching operations the catalog layer needs.
// A miss is signalled with ErrCacheMiss and is the normal trigger for a
// backing fetch, not a failure.
type CacheRepository interface {
	Get(key string) (any, error)
	Set(key string, value any)
	Delete(key string)
	Clear()
	Keys() []string
	Size() int
	SetTTL(ttl time.Duration)
	TTL() time.Duration
}

// AvailabilityClient checks live stock state for a batch of retailer product
// ids. Implementations chunk requests to the retailer's batch limit.
type AvailabilityClient interface {
	CheckAvailability(ctx context.Context, ids []string, storeLocation string) (map[string]Availability, error)
}

// DetailClient fetches live product details (brand, image, description,
// price) for a batch of retailer product ids. Partial results are valid.
type DetailClient interface {
	FetchDetails(ctx context.Context, ids []string) (map[string]ProductDetails, error)
}
