package service

import "errors"

var (
	// ErrNotFound means the requested resource does not exist for this user.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the request payload failed a semantic check.
	ErrValidation = errors.New("validation failed")

	// ErrQuotaExhausted means the unit budget cannot cover a user-initiated
	// upstream call in the current window.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrUpstreamUnavailable means the upstream API call failed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
