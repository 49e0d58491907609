package domain

// AnomalyType classifies a row-level irregularity found while collecting
// a store's catalog.
type AnomalyType string

const (
	// AnomalyNoKey marks a row with no merchant SKU and no internal
	// code. The row is keyed by its normalized name when possible.
	AnomalyNoKey AnomalyType = "NO_KEY"
	// AnomalyDuplicateKey marks a row whose canonical key was already
	// present in the snapshot. The first occurrence is kept.
	AnomalyDuplicateKey AnomalyType = "DUPLICATE_KEY"
	// AnomalyCollectionError marks a listing page that failed to yield rows.
	AnomalyCollectionError AnomalyType = "COLLECTION_ERROR"
)

// Anomaly is one audit entry recorded during collection. Field names
// match the anomaly report columns.
type Anomaly struct {
	StoreLabel string      `json:"store"`
	Type       AnomalyType `json:"type"`
	Page       int         `json:"page"`
	SKU        string      `json:"sku"`
	Name       string      `json:"name"`
	Code       string      `json:"code"`
	Detail     string      `json:"detail"`
}

// TerminationReason records why a collection pass stopped paginating.
type TerminationReason string

const (
	TerminationEmptyPage       TerminationReason = "EMPTY_PAGE"
	TerminationPartialPage     TerminationReason = "PARTIAL_PAGE"
	TerminationNextUnavailable TerminationReason = "NEXT_UNAVAILABLE"
	TerminationPageCeiling     TerminationReason = "PAGE_CEILING"
	TerminationPageLimit       TerminationReason = "PAGE_LIMIT"
	TerminationStopped         TerminationReason = "STOPPED"
	TerminationError           TerminationReason = "ERROR"
)

// Audit accumulates collection statistics for one store.
type Audit struct {
	RowsRead          int               `json:"rows_read"`
	RowsWithoutKey    int               `json:"rows_without_key"`
	DuplicateKeyCount int               `json:"duplicate_key_count"`
	PagesVisited      int               `json:"pages_visited"`
	Termination       TerminationReason `json:"termination"`
	Anomalies         []Anomaly         `json:"anomalies"`
}

// CatalogSnapshot is a complete, point-in-time map of one store's
// catalog keyed by canonical key, together with its collection audit.
// It is built by exactly one collection pass and read-only afterwards.
type CatalogSnapshot struct {
	StoreLabel string
	Audit      Audit

	products map[string]ProductSummary
}

// NewCatalogSnapshot returns an empty snapshot for the given store.
func NewCatalogSnapshot(storeLabel string) *CatalogSnapshot {
	return &CatalogSnapshot{
		StoreLabel: storeLabel,
		products:   make(map[string]ProductSummary),
	}
}

// Insert adds a product under the given canonical key. It reports false
// when the key is already present; the first-seen product wins and the
// snapshot is left unchanged.
func (s *CatalogSnapshot) Insert(key string, product ProductSummary) bool {
	if _, exists := s.products[key]; exists {
		return false
	}
	s.products[key] = product
	return true
}

// Lookup returns the product stored under key.
func (s *CatalogSnapshot) Lookup(key string) (ProductSummary, bool) {
	p, ok := s.products[key]
	return p, ok
}

// Len returns the number of distinct canonical keys collected.
func (s *CatalogSnapshot) Len() int {
	return len(s.products)
}

// Products exposes the key→product map for iteration. Iteration order is
// unspecified; callers may rely on set membership only.
func (s *CatalogSnapshot) Products() map[string]ProductSummary {
	return s.products
}
