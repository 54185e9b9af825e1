package model

import "errors"

// User-correctable failures surfaced by the pipeline and the store.
// Per-concept lookup failures are not errors; see facts.SkipReason.
var (
	// ErrInputMissing means no (or no usable) company identifier was given
	ErrInputMissing = errors.New("no company selected")

	// ErrUpstreamUnavailable covers network, status, parse and shape failures on fetch
	ErrUpstreamUnavailable = errors.New("company data unavailable")

	// ErrNoDataYet means the user has no financials tables yet
	ErrNoDataYet = errors.New("no financials yet")

	ErrUnknownUser = errors.New("unknown user")
	ErrInvalidUser = errors.New("invalid user")
)

// ErrCompanyDataUnavailable is the same failure as ErrUpstreamUnavailable.
var ErrCompanyDataUnavailable = ErrUpstreamUnavailable
