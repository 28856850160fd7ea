package domain

// Product is a catalog entry scoped to a single store brand. The document
// store keeps one document per product with per-retailer sub-records; the
// catalog service flattens the retailer sub-record into these fields.
type Product struct {
	ID          string `json:"product_id"`
	DAN         string `json:"dan,omitempty"`  // dm identifier
	GTIN        string `json:"gtin,omitempty"` // dm identifier
	Code        string `json:"code,omitempty"` // Douglas identifier
	Type        string `json:"type"`
	Brand       string `json:"brand"`
	ProductLine string `json:"product_line"`
	Title       string `json:"title"`
	Price       string `json:"price"`
	ProductLink string `json:"product_link"`
	ImagePath   string `json:"image_path"`
	StoreBrand  string `json:"store_brand"`

	ColorHex string `json:"color_hex,omitempty"`
	ColorLab Lab    `json:"color_lab,omitempty"`
	HasColor bool   `json:"-"`

	// Changes is the document's change history keyed by ISO-8601 timestamp.
	// Create entries are blanked to empty records rather than removed so the
	// entry count still reflects how often the product was touched.
	Changes map[string]ChangeRecord `json:"changes,omitempty"`
}

// ChangeRecord is a single entry of a product's change history.
type ChangeRecord struct {
	Action string                 `json:"action,omitempty"`
	By     string                 `json:"by,omitempty"`
	Fields map[string]FieldChange `json:"fields,omitempty"`
}

// FieldChange carries the old and new value of one changed field.
type FieldChange struct {
	Old any `json:"old,omitempty"`
	New any `json:"new,omitempty"`
}

// Rescanned reports whether the product's color has been updated since its
// initial creation. Rescanned products are the trusted part of the catalog:
// their stored color was verified at least once after ingestion.
func (p Product) Rescanned() bool {
	return len(p.Changes) > 1
}

// RetailerID returns the identifier used by the product's store brand for
// availability and detail lookups.
func (p Product) RetailerID() string {
	switch {
	case p.DAN != "":
		return p.DAN
	case p.Code != "":
		return p.Code
	default:
		return p.GTIN
	}
}

// Availability is the stock state of one product at a retailer.
type Availability struct {
	Online     bool `json:"online_status"`
	InStore    bool `json:"instore_status"`
	StockLevel int  `json:"stock_level"`
}

// ProductDetails is the live detail record fetched from a retailer; any field
// may be empty when the retailer does not report it.
type ProductDetails struct {
	Brand       string `json:"brand,omitempty"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
}
