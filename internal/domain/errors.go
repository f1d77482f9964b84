package domain

import "errors"

// Error kinds absorbed by the review cache. None of them reach the caller of
// the cache manager; they exist so the absorbing code can match on them.
var (
	ErrNotConfigured       = errors.New("reviews: provider not configured")
	ErrUpstreamUnavailable = errors.New("reviews: upstream unavailable")
	ErrMalformedPayload    = errors.New("reviews: malformed payload")
	ErrPersistence         = errors.New("reviews: persistence unavailable")
)
