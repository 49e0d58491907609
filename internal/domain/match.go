package domain

// MatchKind classifies one source product against the target snapshot.
type MatchKind string

const (
	// MatchExact means the source product's canonical key exists in the target.
	MatchExact MatchKind = "EXACT"
	// MatchDivergent means no key match, but a target product with the
	// same normalized name and a different, non-empty SKU was found.
	MatchDivergent MatchKind = "DIVERGENT"
	// MatchMissing means the product was found neither by key nor by name.
	MatchMissing MatchKind = "MISSING"
)

// MatchResult is the classification of a single source product.
// Target-only products are never classified; the sync direction is
// strictly source→target.
type MatchResult struct {
	Kind      MatchKind
	SourceKey string
	// TargetKey is set for divergent matches only.
	TargetKey string
	Product   ProductSummary
	// Target is the matched target product for divergent matches, nil otherwise.
	Target *ProductSummary
}

// SyncStatus is the terminal state of one synchronization attempt.
type SyncStatus string

const (
	SyncCreated SyncStatus = "CREATED"
	SyncUpdated SyncStatus = "UPDATED"
	SyncSkipped SyncStatus = "SKIPPED"
	SyncFailed  SyncStatus = "FAILED"
)

// SyncOutcome records one attempted product with enough context to be
// replayed or audited later.
type SyncOutcome struct {
	Status SyncStatus `json:"status"`
	// Reason carries the skip reason or the failure message, including
	// any inline form-validation text surfaced by the target.
	Reason    string            `json:"reason,omitempty"`
	SKU       string            `json:"sku"`
	Name      string            `json:"name"`
	SourceRef string            `json:"source_ref"`
	Payload   *ProductPayload   `json:"payload,omitempty"`
	Record    *RawProductRecord `json:"record,omitempty"`
}
