package domain

// ProductSummary is one row read from a store's product listing.
// It is immutable once built and lives for a single run.
type ProductSummary struct {
	// SKU is the merchant reference as shown on the listing. May be empty.
	SKU string `json:"sku"`
	// InternalCode is the platform-assigned product code. It is not
	// portable across stores and never used for cross-store matching.
	InternalCode string `json:"internal_code"`
	Name         string `json:"name"`
	// EditReference is an opaque locator (URL or id) the page driver can
	// use to open the full record of this product.
	EditReference string `json:"edit_reference"`
}

// RawRow is what the page driver extracts from a single listing row,
// before any normalization or keying.
type RawRow struct {
	SKU     string
	Code    string
	Name    string
	EditRef string
}

// ListingPage is the result of presenting one page of a store's listing.
type ListingPage struct {
	Rows []RawRow
	// HasNext reports whether the driver sees an enabled "next" action.
	HasNext bool
}

// Dimensions carries the physical dimensions of a product as the
// platform renders them (free-form strings, locale-formatted numbers).
type Dimensions struct {
	Weight string `json:"weight,omitempty"`
	Height string `json:"height,omitempty"`
	Width  string `json:"width,omitempty"`
	Length string `json:"length,omitempty"`
}

// RawProductRecord is the full edit-view record of a product as
// extracted by the page driver. Loose platform blobs (AdditionalInfos)
// are validated into typed fields when a payload is built.
type RawProductRecord struct {
	SKU             string           `json:"sku"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	AdditionalInfo  string           `json:"additional_info"`
	Price           string           `json:"price"`
	Stock           string           `json:"stock"`
	Dimensions      Dimensions       `json:"dimensions"`
	Category        string           `json:"category"`
	ImageURLs       []string         `json:"image_urls"`
	AdditionalInfos []map[string]any `json:"additional_infos,omitempty"`
}

// ProductPayload is the subset of a source record used to create or
// update a target record. Transient; built once per sync attempt.
type ProductPayload struct {
	SKU            string                `json:"sku"`
	Name           string                `json:"name"`
	Description    string                `json:"description,omitempty"`
	AdditionalInfo string                `json:"additional_info,omitempty"`
	Price          string                `json:"price,omitempty"`
	Stock          string                `json:"stock,omitempty"`
	Dimensions     Dimensions            `json:"dimensions"`
	Category       string                `json:"category,omitempty"`
	ImageURLs      []string              `json:"image_urls,omitempty"`
	Fields         []AdditionalInfoField `json:"fields,omitempty"`
	// SourceRef is the edit reference of the source product the payload
	// was built from, kept for audit and replay.
	SourceRef string `json:"source_ref"`
}
