package model

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrNegativeQuantity means an adjustment would drive quantity below zero.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")

	// ErrInvalidLine is returned for batch lines with an empty name or a bad quantity.
	ErrInvalidLine = errors.New("invalid line")

	ErrEstimatorUnavailable = errors.New("shelf life estimator unavailable")

	// ErrTaskAlreadyDone is recovered by callers as a no-op.
	ErrTaskAlreadyDone = errors.New("shopping task already done")

	// ErrConcurrentUpdate is returned when the item version moved between read and write.
	ErrConcurrentUpdate = errors.New("item was modified concurrently")

	ErrItemExists = errors.New("item with this name already exists")
)
