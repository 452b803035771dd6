package entity

import "errors"

// Standard domain errors
var (
	// ErrInvalidArgument marks malformed or out-of-range caller input,
	// e.g. a non-positive top-k. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrModelUnavailable means the requested model was not loaded at
	// startup. There is no implicit fallback to another model.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrPersistenceFailure means the prediction log write failed. The
	// serving path treats this as telemetry-only and still answers.
	ErrPersistenceFailure = errors.New("prediction persistence failed")

	// ErrUpstreamTimeout means a model or storage call exceeded its bound.
	ErrUpstreamTimeout = errors.New("upstream call timed out")
)
