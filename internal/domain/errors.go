package domain

import "errors"

var (
	// ErrInvalidColorFormat is returned when a hex color string is not a valid
	// 6-digit RGB value or a Lab payload is malformed
	ErrInvalidColorFormat = errors.New("invalid color format")

	// ErrUnknownRetailer is returned when a caller requests a store brand that
	// is not configured
	ErrUnknownRetailer = errors.New("unknown store brand")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrStoreUnavailable is returned when the product document store cannot be
	// reached; callers degrade to the local fallback or an empty catalog
	ErrStoreUnavailable = errors.New("product store unavailable")

	// ErrRetailerUnavailable is returned when a retailer availability or detail
	// endpoint fails; matching degrades to zero-valued availability
	ErrRetailerUnavailable = errors.New("retailer API unavailable")

	// ErrProductNotFound is returned when a product id cannot be resolved in
	// the catalog
	ErrProductNotFound = errors.New("product not found")
)
