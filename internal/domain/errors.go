package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidRate is returned for non-positive or non-finite exchange rates
	ErrInvalidRate = errors.New("exchange rate must be a positive number")

	// ErrRateNotSet is returned when a tenant has no exchange rate and no default applies
	ErrRateNotSet = errors.New("exchange rate not set for tenant")

	// ErrEmptyCatalog is returned when an upload contains no usable products
	ErrEmptyCatalog = errors.New("catalog upload contains no products")

	// ErrUnsupportedFile is returned for catalog files the reader cannot open
	ErrUnsupportedFile = errors.New("unsupported catalog file")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrVisionUnavailable is returned when no vision model is configured
	ErrVisionUnavailable = errors.New("vision model not configured")

	// ErrVisionFailure is returned when the vision model request fails
	ErrVisionFailure = errors.New("vision model request failed")

	// ErrVisionNoResult is returned when no medicine name could be read from an image
	ErrVisionNoResult = errors.New("no medicine name found in image")

	// ErrStoreFailure wraps persistence errors
	ErrStoreFailure = errors.New("catalog store failure")
)
