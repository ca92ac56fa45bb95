package storage

import "errors"

var (
	// ErrNoData is returned when the upstream answered but had nothing usable.
	ErrNoData = errors.New("no data")

	// ErrInvalidInput is returned for malformed token addresses or ranges.
	ErrInvalidInput = errors.New("invalid input")
)
