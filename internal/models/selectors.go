package models

// SelectorConfig maps page structure to record fields.
// Selectors are evaluated relative to one listing container.
type SelectorConfig struct {
	Name               string `yaml:"name"`
	Store              string `yaml:"store"`
	StoreSpan          string `yaml:"store_span,omitempty"`
	Brand              string `yaml:"brand"`
	BrandSpan          string `yaml:"brand_span,omitempty"`
	DateValid          string `yaml:"date_valid"`
	PricePrimary       string `yaml:"price_primary"`
	PriceFallbackValue string `yaml:"price_fallback_value"`
	PriceFallbackNote  string `yaml:"price_fallback_note"`
}

// Selector field names, used in error messages and validation.
const (
	SelName               = "name"
	SelStore              = "store"
	SelStoreSpan          = "store_span"
	SelBrand              = "brand"
	SelBrandSpan          = "brand_span"
	SelDateValid          = "date_valid"
	SelPricePrimary       = "price_primary"
	SelPriceFallbackValue = "price_fallback_value"
	SelPriceFallbackNote  = "price_fallback_note"
)

// ByField returns the selectors keyed by field name. Empty optional
// selectors are resolved to their defaults.
func (s SelectorConfig) ByField() map[string]string {
	return map[string]string{
		SelName:               s.Name,
		SelStore:              s.Store,
		SelStoreSpan:          s.StoreSpanSelector(),
		SelBrand:              s.Brand,
		SelBrandSpan:          s.BrandSpanSelector(),
		SelDateValid:          s.DateValid,
		SelPricePrimary:       s.PricePrimary,
		SelPriceFallbackValue: s.PriceFallbackValue,
		SelPriceFallbackNote:  s.PriceFallbackNote,
	}
}

// StoreSpanSelector is the third store candidate, for retailers rendered in a span.
func (s SelectorConfig) StoreSpanSelector() string {
	if s.StoreSpan != "" {
		return s.StoreSpan
	}
	return s.Store + " > span"
}

// BrandSpanSelector is the third brand candidate.
func (s SelectorConfig) BrandSpanSelector() string {
	if s.BrandSpan != "" {
		return s.BrandSpan
	}
	return s.Brand + " > span"
}

// DefaultSelectors returns the selectors matching the marktguru search page layout.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Name:               "div.offer-details > h3.title",
		Store:              "div.offer-details > p.retailer",
		Brand:              "div.offer-details > p.brand",
		DateValid:          "div.offer-details > p.validity",
		PricePrimary:       "div.offer-footer > span.price-per-unit",
		PriceFallbackValue: "div.offer-header > span.price",
		PriceFallbackNote:  "div.offer-footer > span.note",
	}
}
