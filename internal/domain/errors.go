package domain

import "errors"

var (
	// ErrListingUnavailable is returned when a listing page yields no rows.
	ErrListingUnavailable = errors.New("listing page unavailable")

	// ErrDetailUnavailable is returned when a product's edit view cannot be read.
	ErrDetailUnavailable = errors.New("product detail unavailable")

	// ErrInvalidAdditionalInfo is returned when a platform additional-info
	// blob cannot be validated into a typed field.
	ErrInvalidAdditionalInfo = errors.New("invalid additional info entry")

	// ErrDriverClosed is returned by driver operations after Close.
	ErrDriverClosed = errors.New("page driver is closed")

	// ErrMutationRejected is returned when the platform refused a
	// create/update call.
	ErrMutationRejected = errors.New("platform rejected mutation")
)
