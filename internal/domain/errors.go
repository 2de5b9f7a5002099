package domain

import "errors"

var (
	// ErrInvalidInput is returned when request parameters or catalog data are invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidBarcode is returned when a barcode is malformed or fails its check digit
	ErrInvalidBarcode = errors.New("invalid barcode")

	// ErrProductNotFound is returned when no product is registered under a barcode
	ErrProductNotFound = errors.New("product not found")

	// ErrProductExists is returned when registering a barcode that is already taken
	ErrProductExists = errors.New("product already registered")

	// ErrShoppingListNotFound is returned when a shopping list does not exist
	ErrShoppingListNotFound = errors.New("shopping list not found")

	// ErrSupermarketNotFound is returned when a supermarket label is unknown
	ErrSupermarketNotFound = errors.New("supermarket not found")

	// ErrPlaceNotFound is returned when the geocoder has no result for a query
	ErrPlaceNotFound = errors.New("place not found")

	// ErrGeocoderFailure is returned when the geocoding service request fails
	ErrGeocoderFailure = errors.New("geocoding request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
