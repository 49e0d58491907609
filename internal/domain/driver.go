package domain

import (
	"context"
	"time"
)

// ProductWriter applies create/update mutations to the target store.
// Implemented by the browser driver (form fill) and by the platform API
// client (authenticated HTTP). The boolean result reports whether the
// platform accepted the mutation; the string carries any message the
// platform surfaced, such as inline form-validation text.
type ProductWriter interface {
	CreateProduct(ctx context.Context, payload *ProductPayload) (bool, string, error)
	UpdateProduct(ctx context.Context, identity string, payload *ProductPayload) (bool, string, error)
}

// PageDriver is the capability contract the core consumes for all
// storefront interaction. Implementations own the session state (one
// current page per driver) and must not be shared across concurrent
// callers. Every method blocks until the page settles or its timeout
// elapses; none of the waits are unbounded.
type PageDriver interface {
	ProductWriter

	// FetchListingPage presents page number page of the product listing
	// and extracts its rows. Implementations backed by click-based
	// pagination ignore the page number for pages past the first and
	// read whatever the current table shows.
	FetchListingPage(ctx context.Context, page int) (*ListingPage, error)

	// AdvanceListing performs the click-based "next page" action. It
	// reports false, with no side effects, when the action is
	// unavailable or disabled, so it doubles as an end-of-listing probe.
	AdvanceListing(ctx context.Context) (bool, error)

	// Fingerprint returns a cheap identity of the currently rendered
	// listing page, such as the first row's text.
	Fingerprint(ctx context.Context) (string, error)

	// WaitForFingerprintChange polls the fingerprint until it differs
	// from previous or the timeout elapses, reporting whether it changed.
	WaitForFingerprintChange(ctx context.Context, previous string, timeout time.Duration) (bool, error)

	// FetchProductDetail opens the edit view behind locator and reads
	// the full structured record.
	FetchProductDetail(ctx context.Context, locator string) (*RawProductRecord, error)
}
