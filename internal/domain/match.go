package domain

// MatchOptions controls a single foundation matching call. Use
// DefaultMatchOptions as the starting point; the zero value disables
// availability enrichment and the rescanned filter, which is almost never
// what a caller wants.
type MatchOptions struct {
	StoreLocation       string
	MaxResults          int
	ProductType         string
	IncludeAvailability bool
	IncludeHistory      bool
	OnlyRescanned       bool
}

// DefaultMatchOptions returns the standard matching options: top 5 results,
// availability included, unverified catalog entries excluded.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		MaxResults:          5,
		IncludeAvailability: true,
		OnlyRescanned:       true,
	}
}

// MatchResult is one ranked candidate formatted for the frontend.
type MatchResult struct {
	ProductID       string  `json:"product_id"`
	BrandName       string  `json:"product_brand_name"`
	Description     string  `json:"product_description"`
	ColorSwatch     string  `json:"product_color_swatch"`
	Image           string  `json:"product_image"`
	Link            string  `json:"product_link"`
	Price           string  `json:"price"`
	Type            string  `json:"type"`
	MatchPercentage string  `json:"match_percentage"`
	ColorDistance   float64 `json:"color_distance"`
	StoreBrand      string  `json:"store_brand"`

	ERPConnection bool   `json:"erp_connection"`
	InStoreStatus bool   `json:"instore_status"`
	OnlineStatus  bool   `json:"online_status"`
	StockLevel    int    `json:"stock_level"`
	Availability  string `json:"availability"` // available | online | unavailable | unknown

	// Warnings lists enrichment steps that failed for this result; the result
	// itself is still usable.
	Warnings []string `json:"warnings,omitempty"`

	// Populated only when MatchOptions.IncludeHistory is set.
	ColorLab          *Lab                   `json:"color_lab,omitempty"`
	ColorHex          string                 `json:"color_hex,omitempty"`
	CorrectedColorLab *Lab                   `json:"corrected_color_lab,omitempty"`
	History           map[string]ColorChange `json:"history,omitempty"`
}

// ColorChange is a prior catalog color recorded in a product's change history.
type ColorChange struct {
	ColorHex string `json:"color_hex"`
	ColorLab Lab    `json:"color_lab"`
}

// Availability states derived from retailer stock flags.
const (
	AvailabilityAvailable   = "available"
	AvailabilityOnline      = "online"
	AvailabilityUnavailable = "unavailable"
	AvailabilityUnknown     = "unknown"
)
